// Package observable models the session as an object whose methods are
// actions. Changes made inside one action are batched and reactions run
// once, after the outermost action returns.
package observable

import (
	"context"
	"sync"

	"github.com/idilsaglam/todostate/internal/model"
	"github.com/idilsaglam/todostate/internal/scheduler"
	"github.com/idilsaglam/todostate/internal/store"
)

// TodoState is the observable object.
type TodoState struct {
	opts      store.Options
	sched     *scheduler.Scheduler
	reactions store.Listeners

	mu       sync.Mutex
	state    model.State
	closed   bool
	computed struct {
		version uint64
		valid   bool
		list    []model.Todo
	}
}

var _ store.Store = (*TodoState)(nil)

func New(opts store.Options) (*TodoState, error) {
	opts = opts.WithDefaults()
	initial, err := opts.InitialState()
	if err != nil {
		return nil, err
	}
	o := &TodoState{opts: opts, sched: scheduler.New(), state: initial}
	o.reactions.DeliverOn(o.sched)
	return o, nil
}

// Tx is the view of the object inside an action. Its writes are only
// visible to others once the action commits.
type Tx struct {
	state model.State
	base  uint64
	dirty bool
}

func (tx *Tx) State() model.State { return tx.state }

func (tx *Tx) Push(t model.Todo) error { return tx.apply(tx.state.WithTodo(t)) }

func (tx *Tx) Remove(id model.ID) error { return tx.apply(tx.state.Without(id)) }

func (tx *Tx) Toggle(id model.ID, currentCompleted bool) error {
	return tx.apply(tx.state.Toggled(id, currentCompleted))
}

func (tx *Tx) SetFilter(f model.Filter) error { return tx.apply(tx.state.WithFilter(f)) }

func (tx *Tx) apply(next model.State, err error) error {
	if err != nil {
		return err
	}
	// keep one version bump per action however many writes it makes
	next.Version = tx.base + 1
	tx.state = next
	tx.dirty = true
	return nil
}

// RunInAction applies fn atomically. If fn fails nothing is committed and
// no reaction runs.
func (o *TodoState) RunInAction(name string, fn func(tx *Tx) error) error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return store.ErrClosed
	}
	tx := &Tx{state: o.state, base: o.state.Version}
	if err := fn(tx); err != nil {
		o.mu.Unlock()
		o.opts.Logger.Debug("observable: action aborted", "action", name, "err", err)
		return err
	}
	if !tx.dirty {
		o.mu.Unlock()
		return nil
	}
	o.state = tx.state
	next := o.state
	o.mu.Unlock()

	o.opts.Logger.Debug("observable: action", "action", name, "version", next.Version)
	o.reactions.Notify(next)
	return nil
}

func (o *TodoState) AddTodo(ctx context.Context, text string) (*store.Pending, error) {
	text, err := store.NormalizeText(text)
	if err != nil {
		return nil, err
	}
	o.mu.Lock()
	closed := o.closed
	o.mu.Unlock()
	if closed {
		return nil, store.ErrClosed
	}
	return store.Deferred(ctx, o.sched, o.opts.Latency, text, func(text string) (model.Todo, error) {
		todo := model.Todo{ID: o.opts.IDs.Next(), Text: text}
		return todo, o.RunInAction("addTodo", func(tx *Tx) error { return tx.Push(todo) })
	}), nil
}

func (o *TodoState) RemoveTodo(id model.ID) error {
	return o.RunInAction("removeTodo", func(tx *Tx) error { return tx.Remove(id) })
}

func (o *TodoState) ToggleTodo(id model.ID, currentCompleted bool) error {
	return o.RunInAction("toggleTodo", func(tx *Tx) error { return tx.Toggle(id, currentCompleted) })
}

func (o *TodoState) ChangeFilter(f model.Filter) error {
	return o.RunInAction("changeFilter", func(tx *Tx) error { return tx.SetFilter(f) })
}

func (o *TodoState) State() model.State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// FilteredTodos is a computed value, recalculated only when the state
// version moves.
func (o *TodoState) FilteredTodos() []model.Todo {
	o.mu.Lock()
	defer o.mu.Unlock()
	c := &o.computed
	if !c.valid || c.version != o.state.Version {
		c.list = o.state.Filtered()
		c.version = o.state.Version
		c.valid = true
	}
	return append([]model.Todo{}, c.list...)
}

func (o *TodoState) FilteredList() []model.Todo { return o.FilteredTodos() }

// Subscribe registers a reaction that runs after each committed action.
func (o *TodoState) Subscribe(fn func(model.State)) func() { return o.reactions.Add(fn) }

// Autorun is Subscribe plus an immediate run with the current state.
func (o *TodoState) Autorun(fn func(model.State)) func() {
	unsub := o.reactions.Add(fn)
	fn(o.State())
	return unsub
}

func (o *TodoState) Flush(ctx context.Context) error { return o.sched.Wait(ctx) }

func (o *TodoState) Close() error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil
	}
	o.closed = true
	o.mu.Unlock()
	o.sched.Close()
	return nil
}
