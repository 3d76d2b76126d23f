package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/idilsaglam/todostate/internal/model"
	"github.com/idilsaglam/todostate/internal/scheduler"
)

// Pending is the future returned by AddTodo.
type Pending struct {
	text string
	done chan struct{}
	once sync.Once
	todo model.Todo
	err  error
}

func newPending(text string) *Pending {
	return &Pending{text: text, done: make(chan struct{})}
}

// Text is the normalized text captured when the add was requested.
func (p *Pending) Text() string { return p.text }

// Done is closed once the add has been applied or dropped.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Result returns ErrPending until Done is closed.
func (p *Pending) Result() (model.Todo, error) {
	select {
	case <-p.done:
		return p.todo, p.err
	default:
		return model.Todo{}, ErrPending
	}
}

// Wait blocks until the add resolves or ctx ends.
func (p *Pending) Wait(ctx context.Context) (model.Todo, error) {
	select {
	case <-p.done:
		return p.todo, p.err
	case <-ctx.Done():
		return model.Todo{}, ctx.Err()
	}
}

func (p *Pending) resolve(t model.Todo, err error) {
	p.once.Do(func() {
		p.todo, p.err = t, err
		close(p.done)
	})
}

// Deferred schedules apply on sched after latency. apply runs against
// whatever the store holds at that moment and returns the appended todo.
// The Pending resolves after subscribers have seen the commit. A cancelled
// ctx or a closed scheduler resolves it with the cause; a closed scheduler
// maps to ErrClosed.
func Deferred(ctx context.Context, sched *scheduler.Scheduler, latency time.Duration, text string, apply func(text string) (model.Todo, error)) *Pending {
	p := newPending(text)
	sched.After(ctx, latency,
		func() {
			t, err := apply(text)
			sched.Deliver(func() { p.resolve(t, err) })
		},
		func(cause error) {
			if errors.Is(cause, scheduler.ErrClosed) {
				cause = ErrClosed
			}
			p.resolve(model.Todo{}, cause)
		},
	)
	return p
}
