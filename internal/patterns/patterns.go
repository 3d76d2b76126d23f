// Package patterns is the registry of interchangeable store patterns.
package patterns

import (
	"errors"
	"fmt"
	"strings"

	"github.com/idilsaglam/todostate/internal/store"
	"github.com/idilsaglam/todostate/internal/store/ctxstore"
	"github.com/idilsaglam/todostate/internal/store/flux"
	"github.com/idilsaglam/todostate/internal/store/minimal"
	"github.com/idilsaglam/todostate/internal/store/observable"
	"github.com/idilsaglam/todostate/internal/store/proxy"
	"github.com/idilsaglam/todostate/internal/store/reducer"
)

// Default is the pattern used when none is configured.
const Default = "reducer"

var ErrUnknownPattern = errors.New("unknown pattern")

// Pattern describes one registered state container.
type Pattern struct {
	Name    string
	Summary string
	New     func(opts store.Options) (store.Store, error)
}

var registry = []Pattern{
	{
		Name:    "context",
		Summary: "whole-state provider passed down through context.Context",
		New:     func(o store.Options) (store.Store, error) { return ctxstore.New(o) },
	},
	{
		Name:    "reducer",
		Summary: "pure reducer over typed actions with a local dispatch",
		New:     func(o store.Options) (store.Store, error) { return reducer.New(o) },
	},
	{
		Name:    "observable",
		Summary: "object with batched actions, reactions and a computed view",
		New:     func(o store.Options) (store.Store, error) { return observable.New(o) },
	},
	{
		Name:    "flux",
		Summary: "single store with reducer, thunk and logger middleware",
		New:     func(o store.Options) (store.Store, error) { return flux.New(o) },
	},
	{
		Name:    "proxy",
		Summary: "mutable drafts committed to immutable snapshots",
		New:     func(o store.Options) (store.Store, error) { return proxy.New(o) },
	},
	{
		Name:    "minimal",
		Summary: "generic hook store with set/get and selector subscriptions",
		New:     func(o store.Options) (store.Store, error) { return minimal.New(o) },
	},
}

// All returns every pattern in display order.
func All() []Pattern { return append([]Pattern(nil), registry...) }

func Names() []string {
	out := make([]string, 0, len(registry))
	for _, p := range registry {
		out = append(out, p.Name)
	}
	return out
}

func Lookup(name string) (Pattern, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, p := range registry {
		if p.Name == name {
			return p, nil
		}
	}
	return Pattern{}, fmt.Errorf("%w: %q (have %s)", ErrUnknownPattern, name, strings.Join(Names(), ", "))
}

// New opens a store of the named pattern.
func New(name string, opts store.Options) (store.Store, error) {
	p, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	return p.New(opts)
}
