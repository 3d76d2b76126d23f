package minimal

import (
	"context"

	"github.com/idilsaglam/todostate/internal/model"
	"github.com/idilsaglam/todostate/internal/scheduler"
	"github.com/idilsaglam/todostate/internal/store"
)

// Store bundles the hook with the todo actions built from its set/get.
type Store struct {
	hook  *Hook[model.State]
	opts  store.Options
	sched *scheduler.Scheduler

	addTodo      func(ctx context.Context, text string) (*store.Pending, error)
	removeTodo   func(id model.ID) error
	toggleTodo   func(id model.ID, completed bool) error
	changeFilter func(f model.Filter) error
}

var _ store.Store = (*Store)(nil)

func New(opts store.Options) (*Store, error) {
	opts = opts.WithDefaults()
	initial, err := opts.InitialState()
	if err != nil {
		return nil, err
	}
	s := &Store{opts: opts, sched: scheduler.New()}
	s.hook = Create(func(set SetFunc[model.State], _ GetFunc[model.State]) model.State {
		s.addTodo = func(ctx context.Context, text string) (*store.Pending, error) {
			return store.Deferred(ctx, s.sched, opts.Latency, text, func(text string) (model.Todo, error) {
				todo := model.Todo{ID: opts.IDs.Next(), Text: text}
				return todo, set(func(prev model.State) (model.State, error) { return prev.WithTodo(todo) })
			}), nil
		}
		s.removeTodo = func(id model.ID) error {
			return set(func(prev model.State) (model.State, error) { return prev.Without(id) })
		}
		s.toggleTodo = func(id model.ID, completed bool) error {
			return set(func(prev model.State) (model.State, error) { return prev.Toggled(id, completed) })
		}
		s.changeFilter = func(f model.Filter) error {
			return set(func(prev model.State) (model.State, error) { return prev.WithFilter(f) })
		}
		return initial
	})
	s.hook.deliver = s.sched.Deliver
	s.hook.Subscribe(func(state, _ model.State) {
		opts.Logger.Debug("minimal: set", "version", state.Version, "filter", state.Filter, "todos", len(state.Todos))
	})
	return s, nil
}

// Hook exposes the underlying store for selector subscriptions.
func (s *Store) Hook() *Hook[model.State] { return s.hook }

func (s *Store) AddTodo(ctx context.Context, text string) (*store.Pending, error) {
	text, err := store.NormalizeText(text)
	if err != nil {
		return nil, err
	}
	if s.hook.destroyed() {
		return nil, store.ErrClosed
	}
	return s.addTodo(ctx, text)
}

func (s *Store) RemoveTodo(id model.ID) error { return s.removeTodo(id) }

func (s *Store) ToggleTodo(id model.ID, currentCompleted bool) error {
	return s.toggleTodo(id, currentCompleted)
}

func (s *Store) ChangeFilter(f model.Filter) error { return s.changeFilter(f) }

func (s *Store) State() model.State { return s.hook.GetState() }

func (s *Store) FilteredList() []model.Todo { return s.hook.GetState().Filtered() }

func (s *Store) Subscribe(fn func(model.State)) func() {
	return s.hook.Subscribe(func(state, _ model.State) { fn(state) })
}

// SubscribeFilter fires only when the active filter changes.
func (s *Store) SubscribeFilter(fn func(model.Filter)) func() {
	return Select(s.hook, func(st model.State) model.Filter { return st.Filter }, Equal[model.Filter], fn)
}

func (s *Store) Flush(ctx context.Context) error { return s.sched.Wait(ctx) }

func (s *Store) Close() error {
	if s.hook.Destroy() {
		s.sched.Close()
	}
	return nil
}
