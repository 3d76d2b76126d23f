// Package store defines the TodoStore contract every state-management
// pattern implements, plus the pieces they share: deferred adds, options
// and subscriber bookkeeping.
package store

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/idilsaglam/todostate/internal/model"
)

// DefaultLatency models the remote-write round trip of an add.
const DefaultLatency = time.Second

// NoLatency as Options.Latency applies adds on the next scheduler turn.
const NoLatency time.Duration = -1

var (
	ErrEmptyText = errors.New("todo text is empty")
	ErrClosed    = errors.New("store closed")
	ErrPending   = errors.New("add still pending")
)

// Store is the only legal mutation and query surface for a session.
type Store interface {
	// AddTodo schedules an append after the store's latency. The returned
	// Pending resolves with the new todo, or with the reason it was dropped.
	AddTodo(ctx context.Context, text string) (*Pending, error)
	RemoveTodo(id model.ID) error
	// ToggleTodo sets Completed to !currentCompleted.
	ToggleTodo(id model.ID, currentCompleted bool) error
	ChangeFilter(f model.Filter) error

	State() model.State
	FilteredList() []model.Todo

	// Subscribe registers fn for every committed state. Calls may come
	// from different goroutines; compare State.Version to drop stale ones.
	Subscribe(fn func(model.State)) (unsubscribe func())

	// Flush waits until every in-flight add has resolved.
	Flush(ctx context.Context) error
	Close() error
}

// Options configure a store. The zero value is usable.
type Options struct {
	Latency time.Duration
	IDs     *model.IDSource
	Logger  *log.Logger
	Seed    []model.Todo
}

// WithDefaults fills unset fields. A zero latency becomes DefaultLatency;
// a negative one (NoLatency) becomes zero.
func (o Options) WithDefaults() Options {
	switch {
	case o.Latency == 0:
		o.Latency = DefaultLatency
	case o.Latency < 0:
		o.Latency = 0
	}
	if o.IDs == nil {
		o.IDs = model.NewIDSource()
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	return o
}

// InitialState builds the session's starting snapshot from the seed.
func (o Options) InitialState() (model.State, error) {
	return model.NewState(o.Seed...)
}

// NormalizeText trims user input and rejects empty text.
func NormalizeText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyText
	}
	return text, nil
}
