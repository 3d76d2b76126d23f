// Package reducer keeps the session in one value and changes it only by
// dispatching actions through a pure reducer.
package reducer

import (
	"errors"
	"fmt"

	"github.com/idilsaglam/todostate/internal/model"
)

var ErrUnknownAction = errors.New("unknown action")

// Action is a state transition request.
type Action interface {
	Type() string
}

type Add struct{ Todo model.Todo }

type Remove struct{ ID model.ID }

// Toggle carries the completed value the caller last saw.
type Toggle struct {
	ID        model.ID
	Completed bool
}

type SetFilter struct{ Filter model.Filter }

func (Add) Type() string       { return "add" }
func (Remove) Type() string    { return "remove" }
func (Toggle) Type() string    { return "toggle" }
func (SetFilter) Type() string { return "filter" }

// Reduce returns the state after a. It never mutates s; on error s is
// returned unchanged.
func Reduce(s model.State, a Action) (model.State, error) {
	switch a := a.(type) {
	case Add:
		return s.WithTodo(a.Todo)
	case Remove:
		return s.Without(a.ID)
	case Toggle:
		return s.Toggled(a.ID, a.Completed)
	case SetFilter:
		return s.WithFilter(a.Filter)
	case nil:
		return s, fmt.Errorf("%w: nil", ErrUnknownAction)
	default:
		return s, fmt.Errorf("%w: %s", ErrUnknownAction, a.Type())
	}
}
