package minimal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/todostate/internal/model"
	"github.com/idilsaglam/todostate/internal/store"
	"github.com/idilsaglam/todostate/internal/store/storetest"
)

func TestConformance(t *testing.T) {
	storetest.Run(t, func(opts store.Options) (store.Store, error) { return New(opts) })
}

type counter struct {
	n   int
	inc func() error
}

func TestCreateWiresActionsThroughSet(t *testing.T) {
	h := Create(func(set SetFunc[counter], get GetFunc[counter]) counter {
		return counter{inc: func() error {
			n := get().n
			return set(func(prev counter) (counter, error) {
				prev.n = n + 1
				return prev, nil
			})
		}}
	})
	require.NoError(t, h.GetState().inc())
	require.NoError(t, h.GetState().inc())
	assert.Equal(t, 2, h.GetState().n)
}

func TestSetStateNotifiesWithPrev(t *testing.T) {
	h := Create(func(SetFunc[int], GetFunc[int]) int { return 1 })
	var got [][2]int
	h.Subscribe(func(state, prev int) { got = append(got, [2]int{state, prev}) })

	require.NoError(t, h.SetState(func(p int) (int, error) { return p + 1, nil }))
	boom := errors.New("boom")
	assert.ErrorIs(t, h.SetState(func(int) (int, error) { return 0, boom }), boom)

	assert.Equal(t, [][2]int{{2, 1}}, got)
	assert.Equal(t, 2, h.GetState())
}

func TestSelectFiresOnlyOnChange(t *testing.T) {
	type pair struct{ a, b int }
	h := Create(func(SetFunc[pair], GetFunc[pair]) pair { return pair{} })

	var seen []int
	Select(h, func(p pair) int { return p.a }, Equal[int], func(a int) { seen = append(seen, a) })

	set := func(p pair) { require.NoError(t, h.SetState(func(pair) (pair, error) { return p, nil })) }
	set(pair{a: 0, b: 1})
	set(pair{a: 1, b: 1})
	set(pair{a: 1, b: 2})
	set(pair{a: 2, b: 2})

	assert.Equal(t, []int{1, 2}, seen)
}

func TestDestroy(t *testing.T) {
	h := Create(func(SetFunc[int], GetFunc[int]) int { return 0 })
	called := false
	h.Subscribe(func(int, int) { called = true })

	assert.True(t, h.Destroy())
	assert.False(t, h.Destroy())
	assert.ErrorIs(t, h.SetState(func(p int) (int, error) { return p, nil }), store.ErrClosed)
	assert.False(t, called)
}

func TestSubscribeFilter(t *testing.T) {
	s, err := New(store.Options{Latency: store.NoLatency})
	require.NoError(t, err)
	defer s.Close()

	var filters []model.Filter
	s.SubscribeFilter(func(f model.Filter) { filters = append(filters, f) })

	todo := storetest.AddNow(t, s, "a")
	require.NoError(t, s.ChangeFilter(model.Done))
	require.NoError(t, s.ToggleTodo(todo.ID, false))
	require.NoError(t, s.ChangeFilter(model.Done))
	require.NoError(t, s.ChangeFilter(model.Pending))

	assert.Equal(t, []model.Filter{model.Done, model.Pending}, filters)
}
