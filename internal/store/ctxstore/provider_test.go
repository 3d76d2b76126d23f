package ctxstore

import (
	"context"
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

func TestConsumersReachProviderThroughContext(t *testing.T) {
	p, err := New(store.Options{Latency: store.NoLatency})
	require.NoError(t, err)
	defer p.Close()
	ctx := WithProvider(context.Background(), p)

	pending, err := Add(ctx, "buy milk")
	require.NoError(t, err)
	todo, err := pending.Wait(ctx)
	require.NoError(t, err)

	require.NoError(t, Toggle(ctx, todo.ID, false))
	require.NoError(t, SetFilter(ctx, model.Done))
	visible, err := Visible(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"buy milk"}, storetest.Texts(visible))

	require.NoError(t, Remove(ctx, todo.ID))
	assert.Empty(t, p.State().Todos)
}

func TestConsumersWithoutProvider(t *testing.T) {
	ctx := context.Background()
	_, err := Add(ctx, "x")
	assert.ErrorIs(t, err, ErrNoProvider)
	assert.ErrorIs(t, Remove(ctx, 1), ErrNoProvider)
	assert.ErrorIs(t, Toggle(ctx, 1, false), ErrNoProvider)
	assert.ErrorIs(t, SetFilter(ctx, model.All), ErrNoProvider)
	_, err = Visible(ctx)
	assert.ErrorIs(t, err, ErrNoProvider)

	_, ok := FromContext(WithProvider(ctx, nil))
	assert.False(t, ok)
}

func TestSetStateValidatesReplacement(t *testing.T) {
	p, err := New(store.Options{Latency: store.NoLatency})
	require.NoError(t, err)
	defer p.Close()

	err = p.SetState(model.State{Todos: []model.Todo{{ID: 1}, {ID: 1}}})
	assert.ErrorIs(t, err, model.ErrDuplicateID)

	err = p.SetState(model.State{Filter: model.Filter(4)})
	assert.ErrorIs(t, err, model.ErrUnsupportedFilter)

	require.NoError(t, p.SetState(model.State{Filter: model.Done, Todos: []model.Todo{{ID: 5, Text: "x"}}, Version: 99}))
	got := p.State()
	assert.Equal(t, uint64(1), got.Version, "version is owned by the provider")
	assert.Equal(t, model.Done, got.Filter)
}
