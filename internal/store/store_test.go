package store

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/todostate/internal/model"
	"github.com/idilsaglam/todostate/internal/scheduler"
)

func TestNormalizeText(t *testing.T) {
	got, err := NormalizeText("  buy milk \n")
	require.NoError(t, err)
	assert.Equal(t, "buy milk", got)

	_, err = NormalizeText(" \t ")
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestOptionsWithDefaults(t *testing.T) {
	o := Options{}.WithDefaults()
	assert.Equal(t, DefaultLatency, o.Latency)
	assert.NotNil(t, o.IDs)
	assert.NotNil(t, o.Logger)

	o = Options{Latency: NoLatency}.WithDefaults()
	assert.Zero(t, o.Latency)

	o = Options{Latency: 5 * time.Millisecond}.WithDefaults()
	assert.Equal(t, 5*time.Millisecond, o.Latency)
}

func TestOptionsInitialState(t *testing.T) {
	s, err := Options{Seed: []model.Todo{{ID: 1, Text: "a"}}}.InitialState()
	require.NoError(t, err)
	assert.Len(t, s.Todos, 1)

	_, err = Options{Seed: []model.Todo{{ID: 1}, {ID: 1}}}.InitialState()
	assert.ErrorIs(t, err, model.ErrDuplicateID)
}

func TestDeferredResolvesWithApplyResult(t *testing.T) {
	sched := scheduler.New()
	defer sched.Close()

	p := Deferred(context.Background(), sched, 5*time.Millisecond, "buy milk", func(text string) (model.Todo, error) {
		return model.Todo{ID: 7, Text: text}, nil
	})
	_, err := p.Result()
	assert.ErrorIs(t, err, ErrPending)
	assert.Equal(t, "buy milk", p.Text())

	todo, err := p.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.Todo{ID: 7, Text: "buy milk"}, todo)

	todo, err = p.Result()
	require.NoError(t, err)
	assert.Equal(t, model.ID(7), todo.ID)
}

func TestDeferredMapsSchedulerClose(t *testing.T) {
	sched := scheduler.New()
	p := Deferred(context.Background(), sched, time.Hour, "x", func(string) (model.Todo, error) {
		t.Error("apply must not run")
		return model.Todo{}, nil
	})
	sched.Close()

	<-p.Done()
	_, err := p.Result()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestListenersNotifyAndUnsubscribe(t *testing.T) {
	var l Listeners
	var calls atomic.Int32
	unsub := l.Add(func(model.State) { calls.Add(1) })
	l.Add(func(model.State) { calls.Add(10) })

	l.Notify(model.State{})
	assert.Equal(t, int32(11), calls.Load())

	unsub()
	unsub()
	l.Notify(model.State{})
	assert.Equal(t, int32(21), calls.Load())
	assert.Equal(t, 1, l.Len())
}

func TestListenerMayReenter(t *testing.T) {
	var l Listeners
	var inner atomic.Bool
	l.Add(func(model.State) {
		l.Add(func(model.State) { inner.Store(true) })
	})
	l.Notify(model.State{})
	l.Notify(model.State{})
	assert.True(t, inner.Load())
}
