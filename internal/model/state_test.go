package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(t *testing.T) State {
	t.Helper()
	s, err := NewState(
		Todo{ID: 1, Text: "buy milk", Completed: true},
		Todo{ID: 2, Text: "walk dog"},
		Todo{ID: 3, Text: "write tests", Completed: true},
	)
	require.NoError(t, err)
	return s
}

func texts(todos []Todo) []string {
	out := make([]string, 0, len(todos))
	for _, t := range todos {
		out = append(out, t.Text)
	}
	return out
}

func TestNewStateRejectsDuplicateIDs(t *testing.T) {
	_, err := NewState(Todo{ID: 1}, Todo{ID: 1})
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestNewStateStartsWithAllFilter(t *testing.T) {
	s, err := NewState()
	require.NoError(t, err)
	assert.Equal(t, All, s.Filter)
	assert.Empty(t, s.Todos)
}

func TestWithTodoAppendsWithoutAliasing(t *testing.T) {
	s := sample(t)
	next, err := s.WithTodo(Todo{ID: 4, Text: "call mom"})
	require.NoError(t, err)

	assert.Len(t, s.Todos, 3)
	assert.Equal(t, []string{"buy milk", "walk dog", "write tests", "call mom"}, texts(next.Todos))
	assert.Equal(t, s.Version+1, next.Version)

	_, err = next.WithTodo(Todo{ID: 4})
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestWithoutRemovesByID(t *testing.T) {
	s := sample(t)
	next, err := s.Without(2)
	require.NoError(t, err)
	assert.Equal(t, []string{"buy milk", "write tests"}, texts(next.Todos))
	assert.Len(t, s.Todos, 3, "original snapshot must not change")

	_, err = s.Without(42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestToggledUsesCallerValue(t *testing.T) {
	s := sample(t)
	next, err := s.Toggled(2, false)
	require.NoError(t, err)
	got, _ := next.Get(2)
	assert.True(t, got.Completed)

	orig, _ := s.Get(2)
	assert.False(t, orig.Completed)

	back, err := next.Toggled(2, true)
	require.NoError(t, err)
	got, _ = back.Get(2)
	assert.False(t, got.Completed)

	_, err = s.Toggled(9, false)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWithFilterRejectsUnknown(t *testing.T) {
	s := sample(t)
	_, err := s.WithFilter(Filter(7))
	assert.ErrorIs(t, err, ErrUnsupportedFilter)

	next, err := s.WithFilter(Done)
	require.NoError(t, err)
	assert.Equal(t, Done, next.Filter)
}

func TestFilteredPartitionsTodos(t *testing.T) {
	s := sample(t)
	all := FilterTodos(s.Todos, All)
	done := FilterTodos(s.Todos, Done)
	pending := FilterTodos(s.Todos, Pending)

	assert.Len(t, all, len(s.Todos))
	assert.Equal(t, []string{"buy milk", "write tests"}, texts(done))
	assert.Equal(t, []string{"walk dog"}, texts(pending))
	assert.Equal(t, len(all), len(done)+len(pending))
	for _, d := range done {
		assert.NotContains(t, pending, d)
	}
}

func TestFilteredDoesNotMutate(t *testing.T) {
	s := sample(t)
	view := s.Filtered()
	view[0].Text = "changed"
	assert.Equal(t, "buy milk", s.Todos[0].Text)
}

func TestFilterTodosPanicsOnUnsupportedFilter(t *testing.T) {
	s := sample(t)
	assert.PanicsWithValue(t, "unsupported filter: 9", func() {
		FilterTodos(s.Todos, Filter(9))
	})
}

func TestVisibleIDTranslatesFilteredPosition(t *testing.T) {
	s := sample(t)
	s, err := s.WithFilter(Done)
	require.NoError(t, err)

	id, ok := s.VisibleID(1)
	require.True(t, ok)
	assert.Equal(t, ID(3), id)

	_, ok = s.VisibleID(2)
	assert.False(t, ok)
	_, ok = s.VisibleID(-1)
	assert.False(t, ok)
}

func TestStats(t *testing.T) {
	done, pending := sample(t).Stats()
	assert.Equal(t, 2, done)
	assert.Equal(t, 1, pending)
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		in      string
		want    Filter
		wantErr bool
	}{
		{"all", All, false},
		{"todo", Pending, false},
		{"Pending", Pending, false},
		{" done ", Done, false},
		{"", All, false},
		{"later", All, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFilter(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFilter)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilterNextCycles(t *testing.T) {
	assert.Equal(t, Pending, All.Next())
	assert.Equal(t, Done, Pending.Next())
	assert.Equal(t, All, Done.Next())
	assert.Equal(t, All, Filter(-3).Next())
}

func TestFilterTextRoundTrip(t *testing.T) {
	b, err := Done.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "done", string(b))

	var f Filter
	require.NoError(t, f.UnmarshalText([]byte("todo")))
	assert.Equal(t, Pending, f)

	_, err = Filter(5).MarshalText()
	assert.Error(t, err)
}

func TestIDSourceIsMonotonic(t *testing.T) {
	fixed := time.UnixMilli(1_700_000_000_000)
	src := NewIDSourceWithClock(func() time.Time { return fixed })

	a, b, c := src.Next(), src.Next(), src.Next()
	assert.Equal(t, ID(1_700_000_000_000), a)
	assert.Equal(t, a+1, b)
	assert.Equal(t, b+1, c)
}

func TestIDSourceSurvivesClockStepBack(t *testing.T) {
	now := time.UnixMilli(2_000)
	src := NewIDSourceWithClock(func() time.Time { return now })
	first := src.Next()
	now = time.UnixMilli(1_000)
	assert.Greater(t, src.Next(), first)
}
