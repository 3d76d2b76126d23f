package reducer

import (
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

type bogus struct{}

func (bogus) Type() string { return "bogus" }

func TestReduce(t *testing.T) {
	s0, err := model.NewState()
	require.NoError(t, err)

	s1, err := Reduce(s0, Add{Todo: model.Todo{ID: 1, Text: "a"}})
	require.NoError(t, err)
	s2, err := Reduce(s1, Add{Todo: model.Todo{ID: 2, Text: "b"}})
	require.NoError(t, err)
	s3, err := Reduce(s2, Toggle{ID: 2, Completed: false})
	require.NoError(t, err)
	s4, err := Reduce(s3, SetFilter{Filter: model.Done})
	require.NoError(t, err)

	assert.Equal(t, []string{"b"}, storetest.Texts(s4.Filtered()))
	assert.Empty(t, s0.Todos, "reduce must not mutate its input")

	s5, err := Reduce(s4, Remove{ID: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, storetest.Texts(s5.Todos))
}

func TestReduceRejects(t *testing.T) {
	s, _ := model.NewState(model.Todo{ID: 1})

	_, err := Reduce(s, Add{Todo: model.Todo{ID: 1}})
	assert.ErrorIs(t, err, model.ErrDuplicateID)

	_, err = Reduce(s, bogus{})
	assert.ErrorIs(t, err, ErrUnknownAction)

	_, err = Reduce(s, nil)
	assert.ErrorIs(t, err, ErrUnknownAction)

	got, err := Reduce(s, Remove{ID: 9})
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.Equal(t, s, got)
}

func TestDispatchCommitsAndNotifies(t *testing.T) {
	st, err := New(store.Options{Latency: store.NoLatency})
	require.NoError(t, err)
	defer st.Close()

	var versions []uint64
	st.Subscribe(func(s model.State) { versions = append(versions, s.Version) })

	require.NoError(t, st.Dispatch(Add{Todo: model.Todo{ID: 10, Text: "x"}}))
	require.NoError(t, st.Dispatch(SetFilter{Filter: model.Pending}))
	assert.Error(t, st.Dispatch(bogus{}))

	assert.Equal(t, []uint64{1, 2}, versions)
	assert.Equal(t, model.Pending, st.State().Filter)
}
