// Package flux is a single store built from a reducer and a middleware
// chain. Thunk middleware lets an action be a function, which is how the
// deferred add is expressed.
package flux

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/idilsaglam/todostate/internal/model"
	"github.com/idilsaglam/todostate/internal/store"
	"github.com/idilsaglam/todostate/internal/store/reducer"
)

// Reducer folds an arbitrary action into the state.
type Reducer func(s model.State, action any) (model.State, error)

// Dispatch sends an action down the middleware chain.
type Dispatch func(action any) error

// API is what a middleware can reach.
type API struct {
	Dispatch Dispatch
	GetState func() model.State
}

type Middleware func(api API) func(next Dispatch) Dispatch

// Thunk is an action that runs with access to dispatch and state.
type Thunk func(dispatch Dispatch, getState func() model.State) error

// Core is the reducer/middleware store without any todo specifics.
type Core struct {
	reduce   Reducer
	dispatch Dispatch
	subs     store.Listeners

	mu     sync.Mutex
	state  model.State
	closed bool
}

// NewCore wires middlewares in order: the first one sees an action first.
func NewCore(reduce Reducer, initial model.State, middlewares ...Middleware) *Core {
	c := &Core{reduce: reduce, state: initial}
	api := API{
		Dispatch: func(a any) error { return c.dispatch(a) },
		GetState: c.GetState,
	}
	d := Dispatch(c.commit)
	for i := len(middlewares) - 1; i >= 0; i-- {
		d = middlewares[i](api)(d)
	}
	c.dispatch = d
	return c
}

func (c *Core) Dispatch(action any) error { return c.dispatch(action) }

func (c *Core) GetState() model.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Core) Subscribe(fn func(model.State)) func() { return c.subs.Add(fn) }

func (c *Core) commit(action any) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return store.ErrClosed
	}
	next, err := c.reduce(c.state, action)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.state = next
	c.mu.Unlock()

	c.subs.Notify(next)
	return nil
}

func (c *Core) close() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.closed = true
	return true
}

func (c *Core) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// ThunkMiddleware runs Thunk actions instead of reducing them.
func ThunkMiddleware(api API) func(next Dispatch) Dispatch {
	return func(next Dispatch) Dispatch {
		return func(action any) error {
			if th, ok := action.(Thunk); ok {
				return th(api.Dispatch, api.GetState)
			}
			return next(action)
		}
	}
}

// LoggerMiddleware logs every plain action and its outcome.
func LoggerMiddleware(logger *log.Logger) Middleware {
	return func(api API) func(next Dispatch) Dispatch {
		return func(next Dispatch) Dispatch {
			return func(action any) error {
				err := next(action)
				if err != nil {
					logger.Debug("flux: action rejected", "action", describe(action), "err", err)
					return err
				}
				logger.Debug("flux: action", "action", describe(action), "version", api.GetState().Version)
				return nil
			}
		}
	}
}

// TodoReducer adapts reducer.Reduce to untyped actions.
func TodoReducer(s model.State, action any) (model.State, error) {
	a, ok := action.(reducer.Action)
	if !ok {
		return s, fmt.Errorf("%w: %T", reducer.ErrUnknownAction, action)
	}
	return reducer.Reduce(s, a)
}

func describe(action any) string {
	if a, ok := action.(reducer.Action); ok {
		return a.Type()
	}
	return fmt.Sprintf("%T", action)
}
