package model

import (
	"errors"
	"fmt"
	"strings"
)

// ID identifies a todo for the lifetime of a session.
type ID int64

// Todo is the domain model for a todo entry.
type Todo struct {
	ID        ID     `json:"id" yaml:"id"`
	Text      string `json:"text" yaml:"text"`
	Completed bool   `json:"completed" yaml:"completed"`
}

// Filter selects a view over the todo list. The zero value is All.
type Filter int

const (
	All Filter = iota
	Pending
	Done
)

var (
	ErrNotFound          = errors.New("todo not found")
	ErrDuplicateID       = errors.New("duplicate todo id")
	ErrUnsupportedFilter = errors.New("unsupported filter")
)

var filterNames = [...]string{All: "all", Pending: "todo", Done: "done"}

func (f Filter) String() string {
	if !f.Valid() {
		return fmt.Sprintf("Filter(%d)", int(f))
	}
	return filterNames[f]
}

func (f Filter) Valid() bool { return f >= All && f <= Done }

// Next cycles all -> todo -> done -> all.
func (f Filter) Next() Filter {
	if !f.Valid() {
		return All
	}
	return (f + 1) % Filter(len(filterNames))
}

// Filters lists every filter in display order.
func Filters() []Filter { return []Filter{All, Pending, Done} }

// ParseFilter accepts the display names ("all", "todo", "done") plus
// "pending" as an alias for "todo".
func ParseFilter(s string) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "all", "":
		return All, nil
	case "todo", "pending":
		return Pending, nil
	case "done":
		return Done, nil
	}
	return All, fmt.Errorf("%w: %q", ErrUnsupportedFilter, s)
}

func (f Filter) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedFilter, int(f))
	}
	return []byte(f.String()), nil
}

func (f *Filter) UnmarshalText(b []byte) error {
	v, err := ParseFilter(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}
