package flux

import (
	"context"

	"github.com/idilsaglam/todostate/internal/model"
	"github.com/idilsaglam/todostate/internal/scheduler"
	"github.com/idilsaglam/todostate/internal/store"
	"github.com/idilsaglam/todostate/internal/store/reducer"
)

// Store is the todo store: a Core with thunk and logger middleware.
type Store struct {
	*Core
	opts  store.Options
	sched *scheduler.Scheduler
}

var _ store.Store = (*Store)(nil)

func New(opts store.Options) (*Store, error) {
	opts = opts.WithDefaults()
	initial, err := opts.InitialState()
	if err != nil {
		return nil, err
	}
	s := &Store{
		Core:  NewCore(TodoReducer, initial, ThunkMiddleware, LoggerMiddleware(opts.Logger)),
		opts:  opts,
		sched: scheduler.New(),
	}
	s.subs.DeliverOn(s.sched)
	return s, nil
}

// AddTodoLater is the thunk behind AddTodo. The Pending is reported
// through out because a thunk only returns an error.
func (s *Store) AddTodoLater(ctx context.Context, text string, out **store.Pending) Thunk {
	return func(dispatch Dispatch, _ func() model.State) error {
		*out = store.Deferred(ctx, s.sched, s.opts.Latency, text, func(text string) (model.Todo, error) {
			todo := model.Todo{ID: s.opts.IDs.Next(), Text: text}
			return todo, dispatch(reducer.Add{Todo: todo})
		})
		return nil
	}
}

func (s *Store) AddTodo(ctx context.Context, text string) (*store.Pending, error) {
	text, err := store.NormalizeText(text)
	if err != nil {
		return nil, err
	}
	if s.isClosed() {
		return nil, store.ErrClosed
	}
	var p *store.Pending
	if err := s.Dispatch(s.AddTodoLater(ctx, text, &p)); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Store) RemoveTodo(id model.ID) error { return s.Dispatch(reducer.Remove{ID: id}) }

func (s *Store) ToggleTodo(id model.ID, currentCompleted bool) error {
	return s.Dispatch(reducer.Toggle{ID: id, Completed: currentCompleted})
}

func (s *Store) ChangeFilter(f model.Filter) error {
	return s.Dispatch(reducer.SetFilter{Filter: f})
}

func (s *Store) State() model.State { return s.GetState() }

func (s *Store) FilteredList() []model.Todo { return s.GetState().Filtered() }

func (s *Store) Flush(ctx context.Context) error { return s.sched.Wait(ctx) }

func (s *Store) Close() error {
	if s.close() {
		s.sched.Close()
	}
	return nil
}
