package script

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/idilsaglam/todostate/internal/model"
	"github.com/idilsaglam/todostate/internal/store"
)

// Run executes every step against s and returns the state after the last
// one. Adds are fire-and-forget like a keypress; use wait to let them land.
// The store is flushed before returning so no add is left in flight.
func Run(ctx context.Context, s store.Store, sc Script) (model.State, error) {
	for i, step := range sc.Steps {
		if err := runStep(ctx, s, step); err != nil {
			return s.State(), fmt.Errorf("step %d (%s): %w", i+1, step, err)
		}
	}
	if err := s.Flush(ctx); err != nil {
		return s.State(), err
	}
	return s.State(), nil
}

func runStep(ctx context.Context, s store.Store, step Step) error {
	switch step.Op {
	case OpAdd:
		_, err := s.AddTodo(ctx, step.Text)
		return err
	case OpWait:
		return s.Flush(ctx)
	case OpSleep:
		select {
		case <-time.After(step.Delay):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	case OpFilter:
		f, err := model.ParseFilter(step.Text)
		if err != nil {
			return err
		}
		return s.ChangeFilter(f)
	case OpToggle:
		t, err := at(s.State(), step.Pos)
		if err != nil {
			return err
		}
		return s.ToggleTodo(t.ID, t.Completed)
	case OpRemove:
		t, err := at(s.State(), step.Pos)
		if err != nil {
			return err
		}
		return s.RemoveTodo(t.ID)
	case OpExpect:
		got := Visible(s.State())
		if !slices.Equal(got, step.Texts) {
			return fmt.Errorf("%w: visible %q", ErrExpectation, got)
		}
		return nil
	}
	return fmt.Errorf("%w: unknown op %q", ErrSyntax, step.Op)
}

// at resolves a 1-based visible row to the todo drawn there.
func at(st model.State, pos int) (model.Todo, error) {
	id, ok := st.VisibleID(pos - 1)
	if !ok {
		return model.Todo{}, fmt.Errorf("%w %d (%d visible)", ErrPosition, pos, len(st.Filtered()))
	}
	t, _ := st.Get(id)
	return t, nil
}

// Visible lists the texts of the filtered view.
func Visible(st model.State) []string {
	view := st.Filtered()
	out := make([]string, 0, len(view))
	for _, t := range view {
		out = append(out, t.Text)
	}
	return out
}
