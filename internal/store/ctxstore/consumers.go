package ctxstore

import (
	"context"

	"github.com/idilsaglam/todostate/internal/model"
	"github.com/idilsaglam/todostate/internal/store"
)

// The functions below are what a deeply nested view calls: they find the
// provider in ctx instead of receiving it as an argument.

func Add(ctx context.Context, text string) (*store.Pending, error) {
	p, ok := FromContext(ctx)
	if !ok {
		return nil, ErrNoProvider
	}
	return p.AddTodo(ctx, text)
}

func Remove(ctx context.Context, id model.ID) error {
	p, ok := FromContext(ctx)
	if !ok {
		return ErrNoProvider
	}
	return p.RemoveTodo(id)
}

func Toggle(ctx context.Context, id model.ID, currentCompleted bool) error {
	p, ok := FromContext(ctx)
	if !ok {
		return ErrNoProvider
	}
	return p.ToggleTodo(id, currentCompleted)
}

func SetFilter(ctx context.Context, f model.Filter) error {
	p, ok := FromContext(ctx)
	if !ok {
		return ErrNoProvider
	}
	return p.ChangeFilter(f)
}

func Visible(ctx context.Context) ([]model.Todo, error) {
	p, ok := FromContext(ctx)
	if !ok {
		return nil, ErrNoProvider
	}
	return p.FilteredList(), nil
}
