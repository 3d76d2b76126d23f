package model

import "fmt"

// State is an immutable snapshot of a session: the active filter plus the
// todos in insertion order. Every transition returns a new State backed by
// a fresh slice, so a snapshot handed to a reader never changes under it.
type State struct {
	Filter  Filter
	Todos   []Todo
	Version uint64
}

// NewState returns the initial state (filter all) holding todos.
func NewState(todos ...Todo) (State, error) {
	s := State{Filter: All}
	seen := make(map[ID]struct{}, len(todos))
	for _, t := range todos {
		if _, dup := seen[t.ID]; dup {
			return State{}, fmt.Errorf("%w: %d", ErrDuplicateID, t.ID)
		}
		seen[t.ID] = struct{}{}
	}
	s.Todos = append([]Todo(nil), todos...)
	return s, nil
}

func (s State) clone() State {
	return State{
		Filter:  s.Filter,
		Todos:   append(make([]Todo, 0, len(s.Todos)+1), s.Todos...),
		Version: s.Version + 1,
	}
}

// Index returns the storage position of id, or -1.
func (s State) Index(id ID) int {
	for i, t := range s.Todos {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// Get returns the todo with the given id.
func (s State) Get(id ID) (Todo, bool) {
	if i := s.Index(id); i >= 0 {
		return s.Todos[i], true
	}
	return Todo{}, false
}

// WithTodo appends t at the end.
func (s State) WithTodo(t Todo) (State, error) {
	if s.Index(t.ID) >= 0 {
		return s, fmt.Errorf("%w: %d", ErrDuplicateID, t.ID)
	}
	next := s.clone()
	next.Todos = append(next.Todos, t)
	return next, nil
}

// Without removes the todo with the given id.
func (s State) Without(id ID) (State, error) {
	i := s.Index(id)
	if i < 0 {
		return s, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	next := s.clone()
	next.Todos = append(next.Todos[:i], next.Todos[i+1:]...)
	return next, nil
}

// Toggled sets Completed to !currentCompleted. The caller passes the value
// it last rendered rather than the store flipping whatever it holds now.
func (s State) Toggled(id ID, currentCompleted bool) (State, error) {
	i := s.Index(id)
	if i < 0 {
		return s, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	next := s.clone()
	next.Todos[i].Completed = !currentCompleted
	return next, nil
}

// WithFilter replaces the active filter.
func (s State) WithFilter(f Filter) (State, error) {
	if !f.Valid() {
		return s, fmt.Errorf("%w: %d", ErrUnsupportedFilter, int(f))
	}
	next := s.clone()
	next.Filter = f
	return next, nil
}

// Filtered is the derived view for the active filter.
func (s State) Filtered() []Todo { return FilterTodos(s.Todos, s.Filter) }

// VisibleID maps a 0-based position in the filtered view to the id of the
// todo rendered there.
func (s State) VisibleID(pos int) (ID, bool) {
	view := s.Filtered()
	if pos < 0 || pos >= len(view) {
		return 0, false
	}
	return view[pos].ID, true
}

// Stats counts done and pending todos over the whole list.
func (s State) Stats() (done, pending int) {
	for _, t := range s.Todos {
		if t.Completed {
			done++
		} else {
			pending++
		}
	}
	return
}

// FilterTodos projects todos through f. It never mutates todos and always
// returns a new slice. A filter outside the enum is a programming error and
// panics.
func FilterTodos(todos []Todo, f Filter) []Todo {
	switch f {
	case All:
		return append([]Todo{}, todos...)
	case Done:
		out := []Todo{}
		for _, t := range todos {
			if t.Completed {
				out = append(out, t)
			}
		}
		return out
	case Pending:
		out := []Todo{}
		for _, t := range todos {
			if !t.Completed {
				out = append(out, t)
			}
		}
		return out
	default:
		panic(fmt.Sprintf("%v: %d", ErrUnsupportedFilter, int(f)))
	}
}
