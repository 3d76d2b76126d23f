package script

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/todostate/internal/model"
	"github.com/idilsaglam/todostate/internal/store"
	"github.com/idilsaglam/todostate/internal/store/reducer"
)

const demo = `
name: demo
steps:
  - add: buy milk
  - add: walk dog
  - add: write tests
  - wait
  - toggle: 2
  - filter: todo
  - expect: [buy milk, write tests]
  - rm: 2
  - filter: all
  - expect: [buy milk, walk dog]
`

func TestParse(t *testing.T) {
	sc, err := Parse([]byte(demo))
	require.NoError(t, err)
	assert.Equal(t, "demo", sc.Name)
	require.Len(t, sc.Steps, 10)
	assert.Equal(t, Step{Op: OpAdd, Text: "buy milk"}, sc.Steps[0])
	assert.Equal(t, Step{Op: OpWait}, sc.Steps[3])
	assert.Equal(t, Step{Op: OpToggle, Pos: 2}, sc.Steps[4])
	assert.Equal(t, Step{Op: OpExpect, Texts: []string{"buy milk", "write tests"}}, sc.Steps[6])
}

func TestParseSleepAndEmptyExpect(t *testing.T) {
	sc, err := Parse([]byte("steps:\n  - sleep: 15ms\n  - expect: []\n"))
	require.NoError(t, err)
	assert.Equal(t, 15*time.Millisecond, sc.Steps[0].Delay)
	assert.Equal(t, []string{}, sc.Steps[1].Texts)
}

func TestParseErrors(t *testing.T) {
	tests := map[string]string{
		"no steps":      "name: x\n",
		"bare add":      "steps: [add]\n",
		"unknown op":    "steps:\n  - shout: hi\n",
		"two keys":      "steps:\n  - {add: a, rm: 1}\n",
		"bad position":  "steps:\n  - rm: zero\n",
		"zero position": "steps:\n  - toggle: 0\n",
		"bad sleep":     "steps:\n  - sleep: soon\n",
		"add list":      "steps:\n  - add: [a, b]\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(body))
			assert.ErrorIs(t, err, ErrSyntax)
		})
	}
}

func TestLoadDefaultsNameToPath(t *testing.T) {
	p := filepath.Join(t.TempDir(), "s.yaml")
	require.NoError(t, os.WriteFile(p, []byte("steps: [wait]\n"), 0o644))
	sc, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, p, sc.Name)
}

func newStore(t *testing.T) store.Store {
	t.Helper()
	return newStoreWithLatency(t, time.Millisecond)
}

func newStoreWithLatency(t *testing.T, latency time.Duration) store.Store {
	t.Helper()
	s, err := reducer.New(store.Options{Latency: latency})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRunDemo(t *testing.T) {
	sc, err := Parse([]byte(demo))
	require.NoError(t, err)

	st, err := Run(context.Background(), newStore(t), sc)
	require.NoError(t, err)
	assert.Equal(t, model.All, st.Filter)
	assert.Equal(t, []string{"buy milk", "walk dog"}, Visible(st))
	done, _ := st.Stats()
	assert.Equal(t, 1, done)
}

func TestRunUsesVisiblePositions(t *testing.T) {
	sc, err := Parse([]byte(`
steps:
  - add: a
  - add: b
  - add: c
  - wait
  - toggle: 1
  - filter: todo
  - toggle: 1
  - filter: done
  - expect: [a, b]
`))
	require.NoError(t, err)
	_, err = Run(context.Background(), newStore(t), sc)
	require.NoError(t, err)
}

func TestRunReportsFailingStep(t *testing.T) {
	sc, err := Parse([]byte("steps:\n  - add: a\n  - rm: 1\n"))
	require.NoError(t, err)
	_, err = Run(context.Background(), newStoreWithLatency(t, time.Hour), sc)
	assert.ErrorIs(t, err, ErrPosition, "add has not landed yet without wait")
	assert.Contains(t, err.Error(), "step 2 (rm 1)")

	sc, err = Parse([]byte("steps:\n  - add: a\n  - wait\n  - expect: [b]\n"))
	require.NoError(t, err)
	_, err = Run(context.Background(), newStore(t), sc)
	assert.ErrorIs(t, err, ErrExpectation)

	sc, err = Parse([]byte("steps:\n  - filter: later\n"))
	require.NoError(t, err)
	_, err = Run(context.Background(), newStore(t), sc)
	assert.ErrorIs(t, err, model.ErrUnsupportedFilter)

	sc, err = Parse([]byte("steps:\n  - add: '  '\n"))
	require.NoError(t, err)
	_, err = Run(context.Background(), newStore(t), sc)
	assert.ErrorIs(t, err, store.ErrEmptyText)
}
