// Package proxy lets callers write to the session as if it were a plain
// mutable struct. Writes go to a draft; committing the draft publishes a
// new immutable snapshot and wakes subscribers.
package proxy

import (
	"fmt"
	"sync"

	"github.com/idilsaglam/todostate/internal/model"
	"github.com/idilsaglam/todostate/internal/store"
)

// Draft is the mutable side of the proxy.
type Draft struct {
	Filter model.Filter
	Todos  []model.Todo
}

// Find returns the todo with id, or nil. The pointer is only valid inside
// the Mutate callback.
func (d *Draft) Find(id model.ID) *model.Todo {
	for i := range d.Todos {
		if d.Todos[i].ID == id {
			return &d.Todos[i]
		}
	}
	return nil
}

func (d *Draft) Splice(id model.ID) bool {
	for i := range d.Todos {
		if d.Todos[i].ID == id {
			d.Todos = append(d.Todos[:i], d.Todos[i+1:]...)
			return true
		}
	}
	return false
}

// Proxy holds the current snapshot and a computed filtered list.
type Proxy struct {
	subs store.Listeners

	mu       sync.Mutex
	snap     model.State
	frozen   bool
	computed struct {
		version uint64
		valid   bool
		list    []model.Todo
	}
}

func NewProxy(initial model.State) *Proxy { return &Proxy{snap: initial} }

// Mutate runs fn against a draft copy of the current snapshot. A draft
// that breaks the state invariants is discarded.
func (p *Proxy) Mutate(fn func(d *Draft) error) error {
	p.mu.Lock()
	if p.frozen {
		p.mu.Unlock()
		return store.ErrClosed
	}
	d := &Draft{Filter: p.snap.Filter, Todos: append([]model.Todo(nil), p.snap.Todos...)}
	if err := fn(d); err != nil {
		p.mu.Unlock()
		return err
	}
	next, err := commit(p.snap, d)
	if err != nil {
		p.mu.Unlock()
		return err
	}
	p.snap = next
	p.mu.Unlock()

	p.subs.Notify(next)
	return nil
}

func commit(prev model.State, d *Draft) (model.State, error) {
	if !d.Filter.Valid() {
		return prev, fmt.Errorf("%w: %d", model.ErrUnsupportedFilter, int(d.Filter))
	}
	next, err := model.NewState(d.Todos...)
	if err != nil {
		return prev, err
	}
	next.Filter = d.Filter
	next.Version = prev.Version + 1
	return next, nil
}

// Snapshot is the latest committed state.
func (p *Proxy) Snapshot() model.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap
}

// FilteredTodoList is derived from the snapshot and cached per version.
func (p *Proxy) FilteredTodoList() []model.Todo {
	p.mu.Lock()
	defer p.mu.Unlock()
	c := &p.computed
	if !c.valid || c.version != p.snap.Version {
		c.list = p.snap.Filtered()
		c.version = p.snap.Version
		c.valid = true
	}
	return append([]model.Todo{}, c.list...)
}

func (p *Proxy) Subscribe(fn func(model.State)) func() { return p.subs.Add(fn) }

// Freeze rejects further mutations. It reports whether this call froze it.
func (p *Proxy) Freeze() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.frozen {
		return false
	}
	p.frozen = true
	return true
}

func (p *Proxy) Frozen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frozen
}
