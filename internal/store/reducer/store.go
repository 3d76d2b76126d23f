package reducer

import (
	"context"
	"sync"

	"github.com/idilsaglam/todostate/internal/model"
	"github.com/idilsaglam/todostate/internal/scheduler"
	"github.com/idilsaglam/todostate/internal/store"
)

// Store owns a state value and a dispatch function, like a component that
// holds useReducer state and hands dispatch to its children.
type Store struct {
	opts  store.Options
	sched *scheduler.Scheduler
	subs  store.Listeners

	mu     sync.Mutex
	state  model.State
	closed bool
}

var _ store.Store = (*Store)(nil)

func New(opts store.Options) (*Store, error) {
	opts = opts.WithDefaults()
	initial, err := opts.InitialState()
	if err != nil {
		return nil, err
	}
	s := &Store{opts: opts, sched: scheduler.New(), state: initial}
	s.subs.DeliverOn(s.sched)
	return s, nil
}

// Dispatch runs a through Reduce and commits the result.
func (s *Store) Dispatch(a Action) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return store.ErrClosed
	}
	next, err := Reduce(s.state, a)
	if err != nil {
		s.mu.Unlock()
		s.opts.Logger.Debug("reducer: action rejected", "type", typeOf(a), "err", err)
		return err
	}
	s.state = next
	s.mu.Unlock()

	s.opts.Logger.Debug("reducer: dispatched", "type", typeOf(a), "version", next.Version)
	s.subs.Notify(next)
	return nil
}

// AddTodo waits out the latency and then dispatches Add. The id is taken
// when the add lands, not when it was requested.
func (s *Store) AddTodo(ctx context.Context, text string) (*store.Pending, error) {
	text, err := store.NormalizeText(text)
	if err != nil {
		return nil, err
	}
	if s.isClosed() {
		return nil, store.ErrClosed
	}
	return store.Deferred(ctx, s.sched, s.opts.Latency, text, func(text string) (model.Todo, error) {
		todo := model.Todo{ID: s.opts.IDs.Next(), Text: text}
		return todo, s.Dispatch(Add{Todo: todo})
	}), nil
}

func (s *Store) RemoveTodo(id model.ID) error { return s.Dispatch(Remove{ID: id}) }

func (s *Store) ToggleTodo(id model.ID, currentCompleted bool) error {
	return s.Dispatch(Toggle{ID: id, Completed: currentCompleted})
}

func (s *Store) ChangeFilter(f model.Filter) error { return s.Dispatch(SetFilter{Filter: f}) }

func (s *Store) State() model.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Store) FilteredList() []model.Todo { return s.State().Filtered() }

func (s *Store) Subscribe(fn func(model.State)) func() { return s.subs.Add(fn) }

func (s *Store) Flush(ctx context.Context) error { return s.sched.Wait(ctx) }

func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	s.sched.Close()
	return nil
}

func (s *Store) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func typeOf(a Action) string {
	if a == nil {
		return "nil"
	}
	return a.Type()
}
