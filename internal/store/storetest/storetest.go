// Package storetest is the conformance suite shared by every store
// pattern. Each pattern package runs it from its own tests.
package storetest

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/todostate/internal/model"
	"github.com/idilsaglam/todostate/internal/store"
)

// Factory builds a fresh store for one subtest. The suite closes it.
type Factory func(opts store.Options) (store.Store, error)

const waitTimeout = 2 * time.Second

// Run executes the whole suite against newStore.
func Run(t *testing.T, newStore Factory) {
	open := func(t *testing.T, opts store.Options) store.Store {
		t.Helper()
		s, err := newStore(opts)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	}

	t.Run("InitialState", func(t *testing.T) {
		s := open(t, store.Options{Latency: store.NoLatency})
		st := s.State()
		assert.Equal(t, model.All, st.Filter)
		assert.Empty(t, st.Todos)
		assert.Empty(t, s.FilteredList())
	})

	t.Run("SeededState", func(t *testing.T) {
		s := open(t, store.Options{Latency: store.NoLatency, Seed: []model.Todo{
			{ID: 1, Text: "a"}, {ID: 2, Text: "b", Completed: true},
		}})
		assert.Equal(t, []string{"a", "b"}, Texts(s.State().Todos))
	})

	t.Run("AddIsDeferred", func(t *testing.T) {
		s := open(t, store.Options{Latency: 30 * time.Millisecond})
		p, err := s.AddTodo(context.Background(), "buy milk")
		require.NoError(t, err)
		assert.Empty(t, s.State().Todos, "add must not apply synchronously")

		todo := wait(t, p)
		assert.Equal(t, "buy milk", todo.Text)
		assert.False(t, todo.Completed)
		assert.NotZero(t, todo.ID)

		todos := s.State().Todos
		require.Len(t, todos, 1)
		assert.Equal(t, todo, todos[0])
	})

	t.Run("AddTrimsAndRejectsEmpty", func(t *testing.T) {
		s := open(t, store.Options{Latency: store.NoLatency})
		_, err := s.AddTodo(context.Background(), "   ")
		assert.ErrorIs(t, err, store.ErrEmptyText)

		p, err := s.AddTodo(context.Background(), "  walk dog ")
		require.NoError(t, err)
		assert.Equal(t, "walk dog", wait(t, p).Text)
	})

	t.Run("ConcurrentAddsAllApply", func(t *testing.T) {
		s := open(t, store.Options{Latency: 5 * time.Millisecond})
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.AddTodo(context.Background(), "item")
				assert.NoError(t, err)
			}()
		}
		wg.Wait()
		flush(t, s)

		todos := s.State().Todos
		assert.Len(t, todos, 10)
		assertUniqueIDs(t, todos)
	})

	t.Run("DeferredAddSeesLatestState", func(t *testing.T) {
		s := open(t, store.Options{Latency: 20 * time.Millisecond})
		a := AddNow(t, s, "A")

		p, err := s.AddTodo(context.Background(), "B")
		require.NoError(t, err)
		require.NoError(t, s.RemoveTodo(a.ID))
		wait(t, p)

		assert.Equal(t, []string{"B"}, Texts(s.State().Todos))
	})

	t.Run("RemoveFirst", func(t *testing.T) {
		s := open(t, store.Options{Latency: store.NoLatency})
		a := AddNow(t, s, "A")
		AddNow(t, s, "B")

		require.NoError(t, s.RemoveTodo(a.ID))
		assert.Equal(t, []string{"B"}, Texts(s.State().Todos))
	})

	t.Run("RemoveUnderFilterTargetsIdentity", func(t *testing.T) {
		s := open(t, store.Options{Latency: store.NoLatency})
		a := AddNow(t, s, "A")
		b := AddNow(t, s, "B")
		AddNow(t, s, "C")
		require.NoError(t, s.ToggleTodo(b.ID, false))
		require.NoError(t, s.ChangeFilter(model.Pending))

		// visible list is [A, C]; removing its second row must remove C
		id, ok := s.State().VisibleID(1)
		require.True(t, ok)
		require.NoError(t, s.RemoveTodo(id))
		assert.Equal(t, []string{"A", "B"}, Texts(s.State().Todos))
		assert.Equal(t, []model.ID{a.ID}, IDs(s.FilteredList()))
	})

	t.Run("RemoveUnknownFails", func(t *testing.T) {
		s := open(t, store.Options{Latency: store.NoLatency})
		AddNow(t, s, "A")
		before := s.State()
		assert.ErrorIs(t, s.RemoveTodo(12345), model.ErrNotFound)
		assert.Equal(t, Texts(before.Todos), Texts(s.State().Todos))
	})

	t.Run("DoubleToggleRestores", func(t *testing.T) {
		s := open(t, store.Options{Latency: store.NoLatency})
		a := AddNow(t, s, "A")

		require.NoError(t, s.ToggleTodo(a.ID, a.Completed))
		got, _ := s.State().Get(a.ID)
		assert.True(t, got.Completed)

		require.NoError(t, s.ToggleTodo(a.ID, got.Completed))
		got, _ = s.State().Get(a.ID)
		assert.Equal(t, a, got)

		assert.ErrorIs(t, s.ToggleTodo(999, false), model.ErrNotFound)
	})

	t.Run("FilterDone", func(t *testing.T) {
		s := open(t, store.Options{Latency: store.NoLatency, Seed: []model.Todo{
			{ID: 1, Text: "done", Completed: true},
			{ID: 2, Text: "pending"},
		}})
		require.NoError(t, s.ChangeFilter(model.Done))
		assert.Equal(t, model.Done, s.State().Filter)
		assert.Equal(t, []string{"done"}, Texts(s.FilteredList()))
		assert.Len(t, s.State().Todos, 2, "filter must not mutate todos")
	})

	t.Run("FilterRejectsUnknown", func(t *testing.T) {
		s := open(t, store.Options{Latency: store.NoLatency})
		assert.ErrorIs(t, s.ChangeFilter(model.Filter(42)), model.ErrUnsupportedFilter)
		assert.Equal(t, model.All, s.State().Filter)
	})

	t.Run("SnapshotsAreIsolated", func(t *testing.T) {
		s := open(t, store.Options{Latency: store.NoLatency})
		a := AddNow(t, s, "A")
		snap := s.State()
		require.NoError(t, s.ToggleTodo(a.ID, false))
		require.NoError(t, s.RemoveTodo(a.ID))
		assert.Equal(t, []model.Todo{a}, snap.Todos)
	})

	t.Run("PartitionProperty", func(t *testing.T) {
		s := open(t, store.Options{Latency: store.NoLatency})
		rnd := rand.New(rand.NewSource(7))
		for i := 0; i < 200; i++ {
			st := s.State()
			switch op := rnd.Intn(4); {
			case op == 0 || len(st.Todos) == 0:
				AddNow(t, s, "t")
			case op == 1:
				victim := st.Todos[rnd.Intn(len(st.Todos))]
				require.NoError(t, s.RemoveTodo(victim.ID))
			case op == 2:
				target := st.Todos[rnd.Intn(len(st.Todos))]
				require.NoError(t, s.ToggleTodo(target.ID, target.Completed))
			default:
				require.NoError(t, s.ChangeFilter(model.Filters()[rnd.Intn(3)]))
			}
			CheckPartition(t, s.State())
		}
	})

	t.Run("SubscribersSeeCommits", func(t *testing.T) {
		s := open(t, store.Options{Latency: store.NoLatency})
		var mu sync.Mutex
		var seen []model.State
		unsub := s.Subscribe(func(st model.State) {
			mu.Lock()
			seen = append(seen, st)
			mu.Unlock()
		})

		a := AddNow(t, s, "A")
		require.NoError(t, s.ToggleTodo(a.ID, false))
		require.NoError(t, s.ChangeFilter(model.Done))

		mu.Lock()
		require.Len(t, seen, 3)
		last := seen[len(seen)-1]
		mu.Unlock()
		assert.Equal(t, model.Done, last.Filter)
		assert.Greater(t, last.Version, seen[0].Version)

		unsub()
		require.NoError(t, s.RemoveTodo(a.ID))
		mu.Lock()
		assert.Len(t, seen, 3)
		mu.Unlock()
	})

	t.Run("FailedMutationNotifiesNobody", func(t *testing.T) {
		s := open(t, store.Options{Latency: store.NoLatency})
		called := false
		s.Subscribe(func(model.State) { called = true })
		assert.Error(t, s.RemoveTodo(1))
		assert.False(t, called)
	})

	t.Run("CancelledAddIsDropped", func(t *testing.T) {
		s := open(t, store.Options{Latency: time.Hour})
		ctx, cancel := context.WithCancel(context.Background())
		p, err := s.AddTodo(ctx, "never")
		require.NoError(t, err)
		cancel()

		_, err = p.Wait(timeoutCtx(t))
		assert.ErrorIs(t, err, context.Canceled)
		flush(t, s)
		assert.Empty(t, s.State().Todos)
	})

	t.Run("AddsLandInCallOrder", func(t *testing.T) {
		s := open(t, store.Options{Latency: 5 * time.Millisecond})
		want := []string{"a", "b", "c", "d", "e"}
		for _, text := range want {
			_, err := s.AddTodo(context.Background(), text)
			require.NoError(t, err)
		}
		flush(t, s)
		assert.Equal(t, want, Texts(s.State().Todos))
	})

	t.Run("SubscriberMayFlushAndClose", func(t *testing.T) {
		s := open(t, store.Options{Latency: 5 * time.Millisecond})

		flushed := make(chan error, 1)
		var flushOnce sync.Once
		unsub := s.Subscribe(func(model.State) {
			flushOnce.Do(func() { flushed <- s.Flush(timeoutCtx(t)) })
		})
		pa, err := s.AddTodo(context.Background(), "A")
		require.NoError(t, err)
		pb, err := s.AddTodo(context.Background(), "B")
		require.NoError(t, err)
		wait(t, pa)
		wait(t, pb)
		require.NoError(t, <-flushed)
		assert.Equal(t, []string{"A", "B"}, Texts(s.State().Todos))
		unsub()

		var closeOnce sync.Once
		s.Subscribe(func(model.State) {
			closeOnce.Do(func() { assert.NoError(t, s.Close()) })
		})
		pc, err := s.AddTodo(context.Background(), "C")
		require.NoError(t, err)
		assert.Equal(t, "C", wait(t, pc).Text)

		_, err = s.AddTodo(context.Background(), "D")
		assert.ErrorIs(t, err, store.ErrClosed)
		assert.Equal(t, []string{"A", "B", "C"}, Texts(s.State().Todos))
	})

	t.Run("CloseDropsPendingAdds", func(t *testing.T) {
		s, err := newStore(store.Options{Latency: time.Hour})
		require.NoError(t, err)
		p, err := s.AddTodo(context.Background(), "dropped")
		require.NoError(t, err)
		require.NoError(t, s.Close())

		_, err = p.Wait(timeoutCtx(t))
		assert.ErrorIs(t, err, store.ErrClosed)

		_, err = s.AddTodo(context.Background(), "late")
		assert.ErrorIs(t, err, store.ErrClosed)
		assert.ErrorIs(t, s.ChangeFilter(model.Done), store.ErrClosed)
		assert.ErrorIs(t, s.RemoveTodo(1), store.ErrClosed)
		assert.ErrorIs(t, s.ToggleTodo(1, false), store.ErrClosed)
		assert.NoError(t, s.Close())
	})
}

// AddNow adds text and waits for it to land. The store must have been
// opened with zero or small latency.
func AddNow(t *testing.T, s store.Store, text string) model.Todo {
	t.Helper()
	p, err := s.AddTodo(context.Background(), text)
	require.NoError(t, err)
	return wait(t, p)
}

// CheckPartition asserts the derived views split todos cleanly.
func CheckPartition(t *testing.T, st model.State) {
	t.Helper()
	all := model.FilterTodos(st.Todos, model.All)
	done := model.FilterTodos(st.Todos, model.Done)
	pending := model.FilterTodos(st.Todos, model.Pending)

	require.Len(t, all, len(st.Todos))
	require.Equal(t, len(all), len(done)+len(pending))
	ids := make(map[model.ID]bool, len(all))
	for _, td := range done {
		require.True(t, td.Completed)
		ids[td.ID] = true
	}
	for _, td := range pending {
		require.False(t, td.Completed)
		require.False(t, ids[td.ID], "todo %d in both views", td.ID)
		ids[td.ID] = true
	}
	for _, td := range all {
		require.True(t, ids[td.ID])
	}
}

func Texts(todos []model.Todo) []string {
	out := make([]string, 0, len(todos))
	for _, t := range todos {
		out = append(out, t.Text)
	}
	return out
}

func IDs(todos []model.Todo) []model.ID {
	out := make([]model.ID, 0, len(todos))
	for _, t := range todos {
		out = append(out, t.ID)
	}
	return out
}

func assertUniqueIDs(t *testing.T, todos []model.Todo) {
	t.Helper()
	seen := make(map[model.ID]bool, len(todos))
	for _, td := range todos {
		assert.False(t, seen[td.ID], "duplicate id %d", td.ID)
		seen[td.ID] = true
	}
}

func wait(t *testing.T, p *store.Pending) model.Todo {
	t.Helper()
	todo, err := p.Wait(timeoutCtx(t))
	require.NoError(t, err)
	return todo
}

func flush(t *testing.T, s store.Store) {
	t.Helper()
	require.NoError(t, s.Flush(timeoutCtx(t)))
}

func timeoutCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	t.Cleanup(cancel)
	return ctx
}
