package genes

import (
	"strconv"

	"github.com/funvibe/pipevo/internal/config"
	"github.com/funvibe/pipevo/internal/evaluator"
	"github.com/funvibe/pipevo/internal/typesystem"
)

const maxMaybeRetries = 16

// DemaybeGene turns an optional value into a definite one by falling back
// to a concrete gene when the optional is absent.
type DemaybeGene struct {
	maybe    *typesystem.Maybe
	Optional Gene
	Fallback Gene
	Var      string
}

func NewDemaybeGene(optional, fallback Gene, varName string) *DemaybeGene {
	return &DemaybeGene{
		maybe:    optional.Type().(*typesystem.Maybe),
		Optional: optional,
		Fallback: fallback,
		Var:      varName,
	}
}

func (g *DemaybeGene) gene()                 {}
func (g *DemaybeGene) Type() typesystem.Type { return g.maybe.Inner() }

// Express yields (let ((dm_v optional)) (if dm_v dm_v fallback)).
func (g *DemaybeGene) Express(ctx *Context) (evaluator.Object, error) {
	parts, err := expressAll(ctx, []Gene{g.Optional, g.Fallback})
	if err != nil {
		return nil, err
	}
	v := symbol(config.DemaybeBindingPrefix + g.Var)
	binding := evaluator.List(evaluator.List(v, parts[0]))
	return call(config.LetForm, binding, call(config.IfForm, v, v, parts[1])), nil
}

func (g *DemaybeGene) Mutate(m Mutation, ctx *Context) (Gene, error) {
	var optional Gene
	for range maxMaybeRetries {
		next, err := MutateGene(m, g.maybe, g.Optional, ctx)
		if err != nil {
			return nil, err
		}
		if _, ok := next.Type().(*typesystem.Maybe); ok {
			optional = next
			break
		}
	}
	if optional == nil {
		optional = g.Optional
	}
	fallback, err := MutateGene(m, g.Type(), g.Fallback, ctx)
	if err != nil {
		return nil, err
	}
	if optional == g.Optional && fallback == g.Fallback {
		return g, nil
	}
	return NewDemaybeGene(optional, fallback, g.Var), nil
}

// PassMaybeGene applies a function to optional arguments. Arguments the
// function does not accept as optional are checked first, and the result is
// absent when any of them is.
type PassMaybeGene struct {
	typ       typesystem.Type
	fnType    *typesystem.Function
	Function  Gene
	Arguments []Gene
	Var       string
}

func NewPassMaybeGene(t typesystem.Type, fnType *typesystem.Function, fn Gene, args []Gene, varName string) *PassMaybeGene {
	return &PassMaybeGene{typ: t, fnType: fnType, Function: fn, Arguments: args, Var: varName}
}

func (g *PassMaybeGene) gene()                              {}
func (g *PassMaybeGene) Type() typesystem.Type              { return g.typ }
func (g *PassMaybeGene) FunctionType() *typesystem.Function { return g.fnType }

func (g *PassMaybeGene) varSymbol(i int) evaluator.Object {
	return symbol(config.PassMaybeBindingPrefix + g.Var + strconv.Itoa(i))
}

// Express yields (let ((pm_v0 a0) ...) (if checks (f pm_v0 ...) ())).
func (g *PassMaybeGene) Express(ctx *Context) (evaluator.Object, error) {
	fn, err := g.Function.Express(ctx)
	if err != nil {
		return nil, err
	}
	values, err := expressAll(ctx, g.Arguments)
	if err != nil {
		return nil, err
	}

	bindings := make([]evaluator.Object, len(values))
	vars := make([]evaluator.Object, len(values))
	var checks []evaluator.Object
	for i, value := range values {
		vars[i] = g.varSymbol(i)
		bindings[i] = evaluator.List(vars[i], value)
		if !IsOptional(g.fnType.Arguments()[i]) {
			checks = append(checks, vars[i])
		}
	}

	body := evaluator.Object(evaluator.NewCons(fn, evaluator.List(vars...)))
	switch len(checks) {
	case 0:
	case 1:
		body = call(config.IfForm, checks[0], body, evaluator.Null)
	default:
		body = call(config.IfForm, call(config.AndForm, checks...), body, evaluator.Null)
	}
	return call(config.LetForm, evaluator.List(bindings...), body), nil
}

func (g *PassMaybeGene) Mutate(m Mutation, ctx *Context) (Gene, error) {
	fn, err := MutateGene(m, g.fnType, g.Function, ctx)
	if err != nil {
		return nil, err
	}
	args, err := mutateAll(m, ctx, g.argumentTypes(), g.Arguments)
	if err != nil {
		return nil, err
	}
	if fn == g.Function && sameGenes(args, g.Arguments) {
		return g, nil
	}
	return NewPassMaybeGene(g.typ, g.fnType, fn, args, g.Var), nil
}

// argumentTypes are the function's argument types made optional.
func (g *PassMaybeGene) argumentTypes() []typesystem.Type {
	types := make([]typesystem.Type, g.fnType.Arity())
	for i, t := range g.fnType.Arguments() {
		types[i] = typesystem.NewMaybe(t)
	}
	return types
}

// IsOptional reports whether a value of type t may be absent.
func IsOptional(t typesystem.Type) bool {
	_, ok := t.(*typesystem.Maybe)
	return ok || t.Equal(typesystem.Null)
}
