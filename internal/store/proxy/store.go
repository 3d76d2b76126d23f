package proxy

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/idilsaglam/todostate/internal/model"
	"github.com/idilsaglam/todostate/internal/scheduler"
	"github.com/idilsaglam/todostate/internal/store"
)

// Store exposes the todo operations as plain functions over a Proxy.
type Store struct {
	*Proxy
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
	s := &Store{Proxy: NewProxy(initial), opts: opts, sched: scheduler.New()}
	s.subs.DeliverOn(s.sched)
	Devtools(s.Proxy, opts.Logger, "todos")
	return s, nil
}

func (s *Store) AddTodo(ctx context.Context, text string) (*store.Pending, error) {
	text, err := store.NormalizeText(text)
	if err != nil {
		return nil, err
	}
	if s.Frozen() {
		return nil, store.ErrClosed
	}
	return store.Deferred(ctx, s.sched, s.opts.Latency, text, func(text string) (model.Todo, error) {
		todo := model.Todo{ID: s.opts.IDs.Next(), Text: text}
		return todo, s.Mutate(func(d *Draft) error {
			d.Todos = append(d.Todos, todo)
			return nil
		})
	}), nil
}

func (s *Store) RemoveTodo(id model.ID) error {
	return s.Mutate(func(d *Draft) error {
		if !d.Splice(id) {
			return fmt.Errorf("%w: %d", model.ErrNotFound, id)
		}
		return nil
	})
}

func (s *Store) ToggleTodo(id model.ID, currentCompleted bool) error {
	return s.Mutate(func(d *Draft) error {
		t := d.Find(id)
		if t == nil {
			return fmt.Errorf("%w: %d", model.ErrNotFound, id)
		}
		t.Completed = !currentCompleted
		return nil
	})
}

func (s *Store) ChangeFilter(f model.Filter) error {
	return s.Mutate(func(d *Draft) error {
		d.Filter = f
		return nil
	})
}

func (s *Store) State() model.State { return s.Snapshot() }

func (s *Store) FilteredList() []model.Todo { return s.FilteredTodoList() }

func (s *Store) Flush(ctx context.Context) error { return s.sched.Wait(ctx) }

func (s *Store) Close() error {
	if s.Freeze() {
		s.sched.Close()
	}
	return nil
}

// Devtools logs a one-line summary of every snapshot the proxy publishes.
func Devtools(p *Proxy, logger *log.Logger, name string) func() {
	return p.Subscribe(func(snap model.State) {
		done, pending := snap.Stats()
		logger.Debug("proxy: snapshot",
			"name", name,
			"version", snap.Version,
			"filter", snap.Filter,
			"done", done,
			"pending", pending,
		)
	})
}
