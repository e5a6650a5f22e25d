package evaluator

import (
	"context"
	"sync"

	"github.com/funvibe/pipevo/internal/config"
)

// runState is shared by every frame taking part in one evaluation run.
type runState struct {
	ctx   context.Context
	tails bool
	depth int
}

var backgroundState = &runState{ctx: context.Background()}

// shadowed marks a name that is reserved in a frame but not yet bound.
type shadowed struct{}

func NewEnvironment() *Environment {
	return &Environment{store: make(map[string]Object), state: backgroundState}
}

func NewEnclosedEnvironment(outer *Environment) *Environment {
	env := NewEnvironment()
	env.outer = outer
	env.state = outer.state
	return env
}

// NewRunFrame starts a run over outer: tail calls are enabled and the run
// aborts once ctx is cancelled. The cancellation cause is reported as the
// evaluation error.
func NewRunFrame(ctx context.Context, outer *Environment) *Environment {
	env := NewEnclosedEnvironment(outer)
	env.name = "run"
	env.state = &runState{ctx: ctx, tails: true}
	return env
}

// newCallFrame is the frame of a function invocation: lexically enclosed by
// the function's closure, running in the caller's run.
func newCallFrame(closure, caller *Environment, name string) *Environment {
	env := NewEnclosedEnvironment(closure)
	env.name = name
	env.state = caller.state
	return env
}

type Environment struct {
	mu    sync.RWMutex
	store map[string]Object
	outer *Environment
	name  string
	state *runState
}

func (e *Environment) Get(name string) (Object, bool) {
	obj, found := e.resolve(name)
	return obj, found == bound
}

type resolution int

const (
	unbound resolution = iota
	bound
	reserved
)

// resolve finds name in the innermost frame holding it, bound or shadowed.
func (e *Environment) resolve(name string) (Object, resolution) {
	e.mu.RLock()
	obj, ok := e.store[name]
	e.mu.RUnlock()
	if ok {
		if _, hidden := obj.(shadowed); hidden {
			return nil, reserved
		}
		return obj, bound
	}
	if e.outer != nil {
		return e.outer.resolve(name)
	}
	return nil, unbound
}

// Lookup returns the value of name. A shadowed name yields a LookupError
// with Shadowed set.
func (e *Environment) Lookup(name string) (Object, error) {
	obj, found := e.resolve(name)
	switch found {
	case bound:
		return obj, nil
	case reserved:
		return nil, NewShadowedError(name, e.Context())
	}
	return nil, NewLookupError(name, e.Context())
}

func (e *Environment) Set(name string, val Object) Object {
	e.mu.Lock()
	e.store[name] = val
	e.mu.Unlock()
	return val
}

// Shadow reserves name in this frame so lookups do not see outer bindings.
func (e *Environment) Shadow(name string) {
	e.mu.Lock()
	e.store[name] = shadowed{}
	e.mu.Unlock()
}

// Context lists the names of the enclosing named frames, outermost first.
func (e *Environment) Context() []string {
	var c []string
	if e.outer != nil {
		c = e.outer.Context()
	}
	if e.name != "" {
		c = append(c, e.name)
	}
	return c
}

// checkAbort returns the cancellation cause once the run was aborted.
func (e *Environment) checkAbort() error {
	select {
	case <-e.state.ctx.Done():
		if cause := context.Cause(e.state.ctx); cause != nil {
			return cause
		}
		return ErrAborted
	default:
		return nil
	}
}

func (e *Environment) enter(name string) error {
	e.state.depth++
	if e.state.depth > config.MaxEvalDepth {
		e.state.depth--
		return NewInvocationError(name, "maximum recursion depth exceeded", nil)
	}
	return nil
}

func (e *Environment) leave() { e.state.depth-- }

// shadowed satisfies Object only so it can live in a frame's store.
func (shadowed) Eval(*Environment) (Object, error)    { return nil, NewSyntaxError("shadow", "unbound name") }
func (shadowed) Compile(*Environment) (Object, error) { return nil, NewSyntaxError("shadow", "unbound name") }
func (shadowed) String() string                       { return "#<shadowed>" }
