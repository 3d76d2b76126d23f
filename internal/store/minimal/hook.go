// Package minimal is a tiny hook-style store: Create builds a store from
// an initializer that receives set and get, and consumers subscribe to
// slices of the state through selectors.
package minimal

import (
	"slices"
	"sync"

	"github.com/idilsaglam/todostate/internal/store"
)

var errFrozen = store.ErrClosed

// SetFunc replaces the state with whatever update returns. When update
// fails nothing changes and no listener runs.
type SetFunc[T any] func(update func(prev T) (T, error)) error

type GetFunc[T any] func() T

// Hook is the store handle.
type Hook[T any] struct {
	mu     sync.Mutex
	state  T
	frozen bool

	lmu       sync.Mutex
	nextID    int
	listeners map[int]func(state, prev T)

	// deliver runs listener fan-out; nil means call them directly.
	deliver func(func())
}

// Create runs init once to build the initial state. init may keep set and
// get to build actions around them.
func Create[T any](init func(set SetFunc[T], get GetFunc[T]) T) *Hook[T] {
	h := &Hook[T]{listeners: make(map[int]func(state, prev T))}
	h.state = init(h.SetState, h.GetState)
	return h
}

func (h *Hook[T]) GetState() T {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *Hook[T]) SetState(update func(prev T) (T, error)) error {
	h.mu.Lock()
	if h.frozen {
		h.mu.Unlock()
		return errFrozen
	}
	prev := h.state
	next, err := update(prev)
	if err != nil {
		h.mu.Unlock()
		return err
	}
	h.state = next
	deliver := h.deliver
	h.mu.Unlock()

	fanOut := func() {
		for _, fn := range h.snapshotListeners() {
			fn(next, prev)
		}
	}
	if deliver != nil {
		deliver(fanOut)
	} else {
		fanOut()
	}
	return nil
}

// Subscribe calls fn with the new and previous state after every set.
func (h *Hook[T]) Subscribe(fn func(state, prev T)) func() {
	h.lmu.Lock()
	id := h.nextID
	h.nextID++
	h.listeners[id] = fn
	h.lmu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.lmu.Lock()
			delete(h.listeners, id)
			h.lmu.Unlock()
		})
	}
}

// Destroy drops every listener and rejects further sets.
func (h *Hook[T]) Destroy() bool {
	h.mu.Lock()
	already := h.frozen
	h.frozen = true
	h.mu.Unlock()

	h.lmu.Lock()
	clear(h.listeners)
	h.lmu.Unlock()
	return !already
}

func (h *Hook[T]) destroyed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.frozen
}

func (h *Hook[T]) snapshotListeners() []func(state, prev T) {
	h.lmu.Lock()
	defer h.lmu.Unlock()
	ids := make([]int, 0, len(h.listeners))
	for id := range h.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(state, prev T), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, h.listeners[id])
	}
	return fns
}

// Select subscribes fn to one slice of the state. fn only runs when equal
// reports that the selected value changed.
func Select[T, U any](h *Hook[T], selector func(T) U, equal func(a, b U) bool, fn func(U)) func() {
	return h.Subscribe(func(state, prev T) {
		next, old := selector(state), selector(prev)
		if !equal(next, old) {
			fn(next)
		}
	})
}

// Equal is the comparable-type equality for Select.
func Equal[U comparable](a, b U) bool { return a == b }
