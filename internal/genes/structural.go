package genes

import (
	"slices"
	"strconv"

	"github.com/funvibe/pipevo/internal/config"
	"github.com/funvibe/pipevo/internal/entropy"
	"github.com/funvibe/pipevo/internal/evaluator"
	"github.com/funvibe/pipevo/internal/typesystem"
)

// LookupGene refers to a visible symbol of its type. The symbol chosen when
// the gene was built is kept while it stays visible; otherwise the seed
// picks one of the candidates.
type LookupGene struct {
	typ  typesystem.Type
	Name string
	Seed int64
}

func NewLookupGene(t typesystem.Type, name string, seed int64) *LookupGene {
	return &LookupGene{typ: t, Name: name, Seed: seed}
}

func (g *LookupGene) gene()                 {}
func (g *LookupGene) Type() typesystem.Type { return g.typ }

func (g *LookupGene) Express(ctx *Context) (evaluator.Object, error) {
	matching := ctx.FindMatching(g.typ)
	if len(matching) == 0 {
		return nil, NewGeneLookupError(g.typ, g.Name)
	}
	if g.Name != "" && slices.Contains(matching, g.Name) {
		return symbol(g.Name), nil
	}
	return symbol(matching[entropy.FromSeed(g.Seed, int64(len(matching)))]), nil
}

func (g *LookupGene) Mutate(m Mutation, _ *Context) (Gene, error) {
	if seed, ok := m.MutateSeed(g.Seed); ok {
		return NewLookupGene(g.typ, "", seed), nil
	}
	return g, nil
}

type ConsGene struct {
	typ      *typesystem.Cons
	Car, Cdr Gene
}

func NewConsGene(t *typesystem.Cons, car, cdr Gene) *ConsGene {
	return &ConsGene{typ: t, Car: car, Cdr: cdr}
}

func (g *ConsGene) gene()                 {}
func (g *ConsGene) Type() typesystem.Type { return g.typ }

func (g *ConsGene) Express(ctx *Context) (evaluator.Object, error) {
	parts, err := expressAll(ctx, []Gene{g.Car, g.Cdr})
	if err != nil {
		return nil, err
	}
	return call(config.ConsFuncName, parts...), nil
}

func (g *ConsGene) Mutate(m Mutation, ctx *Context) (Gene, error) {
	car, err := MutateGene(m, g.typ.Car(), g.Car, ctx)
	if err != nil {
		return nil, err
	}
	cdr, err := MutateGene(m, g.typ.Cdr(), g.Cdr, ctx)
	if err != nil {
		return nil, err
	}
	if car == g.Car && cdr == g.Cdr {
		return g, nil
	}
	return NewConsGene(g.typ, car, cdr), nil
}

type ListGene struct {
	typ   *typesystem.List
	Items []Gene
}

func NewListGene(t *typesystem.List, items ...Gene) *ListGene {
	return &ListGene{typ: t, Items: items}
}

func (g *ListGene) gene()                 {}
func (g *ListGene) Type() typesystem.Type { return g.typ }

func (g *ListGene) Express(ctx *Context) (evaluator.Object, error) {
	items, err := expressAll(ctx, g.Items)
	if err != nil {
		return nil, err
	}
	return call(config.ListFuncName, items...), nil
}

func (g *ListGene) Mutate(m Mutation, ctx *Context) (Gene, error) {
	items := g.Items
	changed := false
	switch {
	case m.ReorderList():
		items = slices.Clone(items)
		m.Shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })
		changed = true
	case len(items) > 0 && m.SwapListItems():
		items = slices.Clone(items)
		i, j := m.RandomIndex(len(items)), m.RandomIndex(len(items))
		items[i], items[j] = items[j], items[i]
		changed = true
	default:
		if length, ok := m.MutateListLength(len(items)); ok {
			items = slices.Clone(items[:min(length, len(items))])
			for len(items) < length {
				item, err := m.BuildGene(g.typ.Element(), ctx)
				if err != nil {
					return nil, err
				}
				items = append(items, item)
			}
			changed = true
		}
	}

	types := make([]typesystem.Type, len(items))
	for i := range types {
		types[i] = g.typ.Element()
	}
	mutated, err := mutateAll(m, ctx, types, items)
	if err != nil {
		return nil, err
	}
	if !changed && len(mutated) == len(g.Items) && sameGenes(mutated, g.Items) {
		return g, nil
	}
	return NewListGene(g.typ, mutated...), nil
}

func sameGenes(a, b []Gene) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// FunctionGene is a function over its body. Top level functions express as
// definitions, lambdas as anonymous functions. Parameters are visible to the
// body as name+"p"+index.
type FunctionGene struct {
	typ    *typesystem.Function
	Name   string
	Body   Gene
	Lambda bool
}

func NewFunctionGene(t *typesystem.Function, name string, body Gene, lambda bool) *FunctionGene {
	return &FunctionGene{typ: t, Name: name, Body: body, Lambda: lambda}
}

func (g *FunctionGene) gene()                 {}
func (g *FunctionGene) Type() typesystem.Type { return g.typ }

// ParameterNames returns the names the parameters of a function named name
// are bound to.
func ParameterNames(t *typesystem.Function, name string) []string {
	names := make([]string, t.Arity())
	for i := range names {
		names[i] = name + config.FunctionParameterInfix + strconv.Itoa(i)
	}
	return names
}

func (g *FunctionGene) ParameterNames() []string { return ParameterNames(g.typ, g.Name) }

func (g *FunctionGene) Express(ctx *Context) (evaluator.Object, error) {
	names := g.ParameterNames()
	pop := ctx.PushAll(names, g.typ.Arguments())
	body, err := g.Body.Express(ctx)
	pop()
	if err != nil {
		return nil, err
	}

	params := make([]evaluator.Object, len(names))
	for i, name := range names {
		params[i] = symbol(name)
	}
	if g.Lambda {
		return call(config.LambdaForm, evaluator.List(params...), body), nil
	}
	signature := evaluator.NewCons(symbol(g.Name), evaluator.List(params...))
	return call(config.DefineForm, signature, body), nil
}

func (g *FunctionGene) Mutate(m Mutation, ctx *Context) (Gene, error) {
	pop := ctx.PushAll(g.ParameterNames(), g.typ.Arguments())
	defer pop()
	body, err := MutateGene(m, g.typ.Return(), g.Body, ctx)
	if err != nil {
		return nil, err
	}
	if body == g.Body {
		return g, nil
	}
	return NewFunctionGene(g.typ, g.Name, body, g.Lambda), nil
}

type IfGene struct {
	typ                   typesystem.Type
	Predicate, Then, Else Gene
}

func NewIfGene(t typesystem.Type, predicate, then, els Gene) *IfGene {
	return &IfGene{typ: t, Predicate: predicate, Then: then, Else: els}
}

func (g *IfGene) gene()                 {}
func (g *IfGene) Type() typesystem.Type { return g.typ }

func (g *IfGene) Express(ctx *Context) (evaluator.Object, error) {
	parts, err := expressAll(ctx, []Gene{g.Predicate, g.Then, g.Else})
	if err != nil {
		return nil, err
	}
	return call(config.IfForm, parts...), nil
}

func (g *IfGene) Mutate(m Mutation, ctx *Context) (Gene, error) {
	parts, err := mutateAll(m, ctx,
		[]typesystem.Type{typesystem.Bool, g.typ, g.typ},
		[]Gene{g.Predicate, g.Then, g.Else})
	if err != nil {
		return nil, err
	}
	if parts[0] == g.Predicate && parts[1] == g.Then && parts[2] == g.Else {
		return g, nil
	}
	return NewIfGene(g.typ, parts[0], parts[1], parts[2]), nil
}

// ApplicationGene calls a function gene with argument genes.
type ApplicationGene struct {
	fnType    *typesystem.Function
	Function  Gene
	Arguments []Gene
}

func NewApplicationGene(fnType *typesystem.Function, fn Gene, args ...Gene) *ApplicationGene {
	return &ApplicationGene{fnType: fnType, Function: fn, Arguments: args}
}

func (g *ApplicationGene) gene()                              {}
func (g *ApplicationGene) Type() typesystem.Type              { return g.fnType.Return() }
func (g *ApplicationGene) FunctionType() *typesystem.Function { return g.fnType }

func (g *ApplicationGene) Express(ctx *Context) (evaluator.Object, error) {
	fn, err := g.Function.Express(ctx)
	if err != nil {
		return nil, err
	}
	args, err := expressAll(ctx, g.Arguments)
	if err != nil {
		return nil, err
	}
	return evaluator.NewCons(fn, evaluator.List(args...)), nil
}

func (g *ApplicationGene) Mutate(m Mutation, ctx *Context) (Gene, error) {
	fn, err := MutateGene(m, g.fnType, g.Function, ctx)
	if err != nil {
		return nil, err
	}
	args, err := mutateAll(m, ctx, g.fnType.Arguments(), g.Arguments)
	if err != nil {
		return nil, err
	}
	if fn == g.Function && sameGenes(args, g.Arguments) {
		return g, nil
	}
	return NewApplicationGene(g.fnType, fn, args...), nil
}
