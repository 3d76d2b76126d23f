// Package ctxstore keeps the whole session in one provider value that is
// handed down through context.Context. Consumers read the state and write
// back a complete replacement.
package ctxstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/idilsaglam/todostate/internal/model"
	"github.com/idilsaglam/todostate/internal/scheduler"
	"github.com/idilsaglam/todostate/internal/store"
)

var ErrNoProvider = errors.New("no todo provider in context")

type providerKey struct{}

// WithProvider returns a context carrying p.
func WithProvider(ctx context.Context, p *Provider) context.Context {
	return context.WithValue(ctx, providerKey{}, p)
}

func FromContext(ctx context.Context) (*Provider, bool) {
	p, ok := ctx.Value(providerKey{}).(*Provider)
	return p, ok && p != nil
}

// Provider holds the state value and its setter.
type Provider struct {
	opts  store.Options
	sched *scheduler.Scheduler
	subs  store.Listeners

	mu     sync.Mutex
	state  model.State
	closed bool
}

var _ store.Store = (*Provider)(nil)

func New(opts store.Options) (*Provider, error) {
	opts = opts.WithDefaults()
	initial, err := opts.InitialState()
	if err != nil {
		return nil, err
	}
	p := &Provider{opts: opts, sched: scheduler.New(), state: initial}
	p.subs.DeliverOn(p.sched)
	return p, nil
}

// SetState replaces the whole state. The replacement must keep ids unique
// and the filter valid; its version is assigned here.
func (p *Provider) SetState(next model.State) error {
	return p.Update(func(model.State) (model.State, error) { return next, nil })
}

// Update reads and replaces the state under one lock so two consumers
// cannot overwrite each other's read-modify-write.
func (p *Provider) Update(fn func(prev model.State) (model.State, error)) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return store.ErrClosed
	}
	prev := p.state
	next, err := fn(prev)
	if err == nil {
		err = check(next)
	}
	if err != nil {
		p.mu.Unlock()
		return err
	}
	next.Todos = append([]model.Todo{}, next.Todos...)
	next.Version = prev.Version + 1
	p.state = next
	p.mu.Unlock()

	p.opts.Logger.Debug("context: state replaced", "version", next.Version, "todos", len(next.Todos))
	p.subs.Notify(next)
	return nil
}

func check(s model.State) error {
	if !s.Filter.Valid() {
		return fmt.Errorf("%w: %d", model.ErrUnsupportedFilter, int(s.Filter))
	}
	_, err := model.NewState(s.Todos...)
	return err
}

func (p *Provider) AddTodo(ctx context.Context, text string) (*store.Pending, error) {
	text, err := store.NormalizeText(text)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return nil, store.ErrClosed
	}
	return store.Deferred(ctx, p.sched, p.opts.Latency, text, func(text string) (model.Todo, error) {
		todo := model.Todo{ID: p.opts.IDs.Next(), Text: text}
		return todo, p.Update(func(prev model.State) (model.State, error) { return prev.WithTodo(todo) })
	}), nil
}

func (p *Provider) RemoveTodo(id model.ID) error {
	return p.Update(func(prev model.State) (model.State, error) { return prev.Without(id) })
}

func (p *Provider) ToggleTodo(id model.ID, currentCompleted bool) error {
	return p.Update(func(prev model.State) (model.State, error) { return prev.Toggled(id, currentCompleted) })
}

func (p *Provider) ChangeFilter(f model.Filter) error {
	return p.Update(func(prev model.State) (model.State, error) { return prev.WithFilter(f) })
}

func (p *Provider) State() model.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Provider) FilteredList() []model.Todo { return p.State().Filtered() }

func (p *Provider) Subscribe(fn func(model.State)) func() { return p.subs.Add(fn) }

func (p *Provider) Flush(ctx context.Context) error { return p.sched.Wait(ctx) }

func (p *Provider) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()
	p.sched.Close()
	return nil
}
