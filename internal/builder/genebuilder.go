package builder

import (
	"fmt"

	"github.com/funvibe/pipevo/internal/config"
	"github.com/funvibe/pipevo/internal/entropy"
	"github.com/funvibe/pipevo/internal/genes"
	"github.com/funvibe/pipevo/internal/typesystem"
)

// maxNullRetries bounds how often a demaybe rebuilds an optional that came
// out as a plain null.
const maxNullRetries = 8

// GeneBuilder builds random genes of a requested type from the names
// visible in its context. Depth limits nesting of compound strategies.
type GeneBuilder struct {
	types  *TypeBuilder
	random *GeneRandomizer
	rng    *entropy.Entropy
	ctx    *genes.Context
	depth  int
}

func NewGeneBuilder(types *TypeBuilder, random *GeneRandomizer, ctx *genes.Context, depth int) *GeneBuilder {
	return &GeneBuilder{
		types:  types,
		random: random,
		rng:    random.Entropy(),
		ctx:    ctx,
		depth:  depth,
	}
}

func (b *GeneBuilder) Context() *genes.Context { return b.ctx }

// BuildFunction builds a named function gene. The concrete types of its
// arguments unlock their constrained dependents while the body is built.
func (b *GeneBuilder) BuildFunction(t *typesystem.Function, name string) (*genes.FunctionGene, error) {
	allowed := typesystem.NewTypeSet()
	for _, arg := range t.Arguments() {
		typesystem.FindConcreteTypes(arg, allowed)
	}
	b.types.AllowDependentTypes(typesystem.SortedTypes(allowed))
	defer b.types.ClearDependentTypes()
	return b.buildFunction(t, name, false)
}

func (b *GeneBuilder) buildFunction(t *typesystem.Function, name string, lambda bool) (*genes.FunctionGene, error) {
	pop := b.ctx.PushAll(genes.ParameterNames(t, name), t.Arguments())
	defer pop()
	body, err := b.Build(t.Return())
	if err != nil {
		return nil, err
	}
	return genes.NewFunctionGene(t, name, body, lambda), nil
}

// Build builds a gene of type t.
func (b *GeneBuilder) Build(t typesystem.Type) (genes.Gene, error) {
	strategies := entropy.NewWeightedSet[Strategy]()
	add := func(s Strategy) { strategies.Add(s, float64(b.random.Weight(s))) }

	if b.canLookup(t) {
		add(Lookup)
	}
	if !b.types.IsConstrained(t) {
		add(Construct)
	}
	if b.canApply(t, b.depth) {
		add(Application)
		if _, ok := t.(*typesystem.Maybe); ok {
			add(PassMaybe)
		}
	}
	// Compound strategies rebuild t one level down.
	if b.depth > 0 && b.canBuild(t, b.depth-1) {
		if !genes.IsOptional(t) {
			add(Demaybe)
		}
		add(Branch)
	}
	if strategies.Len() == 0 {
		return nil, NewBuildExhaustionError(t, b.depth)
	}

	b.depth--
	defer func() { b.depth++ }()

	switch s := strategies.Select(b.rng); s {
	case Lookup:
		return b.lookup(t), nil
	case Construct:
		return b.construct(t)
	case Application:
		return b.buildApplication(t)
	case PassMaybe:
		return b.buildPassMaybe(t.(*typesystem.Maybe))
	case Demaybe:
		return b.buildDemaybe(t)
	case Branch:
		return b.buildBranch(t)
	default:
		return nil, fmt.Errorf("unknown build strategy %s", s)
	}
}

func (b *GeneBuilder) canLookup(t typesystem.Type) bool {
	return len(b.ctx.FindMatching(t)) > 0
}

func (b *GeneBuilder) canApply(t typesystem.Type, depth int) bool {
	if depth <= 0 {
		return false
	}
	found := b.ctx.FindFunctionReturning(t)
	for _, fn := range found {
		if b.canInvoke(fn.Type.(*typesystem.Function), 0) {
			return true
		}
	}
	for _, fn := range found {
		if b.canInvoke(fn.Type.(*typesystem.Function), depth) {
			return true
		}
	}
	return false
}

// canInvoke reports whether every argument of fn can be built below depth.
func (b *GeneBuilder) canInvoke(fn *typesystem.Function, depth int) bool {
	for _, arg := range fn.Arguments() {
		if !b.canBuild(arg, depth-1) {
			return false
		}
	}
	return true
}

// canBuild reports whether a gene of type t can be built at depth.
func (b *GeneBuilder) canBuild(t typesystem.Type, depth int) bool {
	return !b.types.IsConstrained(t) || b.canLookup(t) || b.canApply(t, depth)
}

func (b *GeneBuilder) lookup(t typesystem.Type) genes.Gene {
	name := entropy.RandomElement(b.rng, b.ctx.FindMatching(t))
	return genes.NewLookupGene(t, name, b.rng.RandomSeed())
}

func (b *GeneBuilder) buildBranch(t typesystem.Type) (genes.Gene, error) {
	predicate, err := b.Build(typesystem.Bool)
	if err != nil {
		return nil, err
	}
	then, err := b.Build(t)
	if err != nil {
		return nil, err
	}
	els, err := b.Build(t)
	if err != nil {
		return nil, err
	}
	return genes.NewIfGene(t, predicate, then, els), nil
}

// invokeable picks a visible function returning t, with parameters made
// unique so its argument types can be built independently.
func (b *GeneBuilder) invokeable(t typesystem.Type) (genes.Gene, *typesystem.Function, error) {
	var candidates []*typesystem.Function
	var names []string
	for _, fn := range b.ctx.FindFunctionReturning(t) {
		fnType := fn.Type.(*typesystem.Function)
		if b.canInvoke(fnType, b.depth+1) {
			candidates = append(candidates, fnType)
			names = append(names, fn.Name)
		}
	}
	if len(candidates) == 0 {
		return nil, nil, NewBuildExhaustionError(t, b.depth)
	}
	i := b.rng.RandomInt(len(candidates))
	fnType := typesystem.UniqueParameters(candidates[i]).(*typesystem.Function)
	return genes.NewLookupGene(fnType, names[i], b.rng.RandomSeed()), fnType, nil
}

func (b *GeneBuilder) buildArguments(types []typesystem.Type) ([]genes.Gene, error) {
	args := make([]genes.Gene, len(types))
	for i, t := range types {
		arg, err := b.Build(t)
		if err != nil {
			return nil, err
		}
		args[i] = arg
	}
	return args, nil
}

func (b *GeneBuilder) buildApplication(t typesystem.Type) (genes.Gene, error) {
	fn, fnType, err := b.invokeable(t)
	if err != nil {
		return nil, err
	}
	args, err := b.buildArguments(fnType.Arguments())
	if err != nil {
		return nil, err
	}
	return genes.NewApplicationGene(fnType, fn, args...), nil
}

// buildPassMaybe applies a function to optional arguments, yielding null
// when one of the arguments the function cannot take is null.
func (b *GeneBuilder) buildPassMaybe(t *typesystem.Maybe) (genes.Gene, error) {
	fn, fnType, err := b.invokeable(t)
	if err != nil {
		return nil, err
	}
	types := make([]typesystem.Type, fnType.Arity())
	wrapped := false
	for i, arg := range fnType.Arguments() {
		types[i] = arg
		if !genes.IsOptional(arg) {
			types[i] = typesystem.NewMaybe(arg)
			wrapped = true
		}
	}
	args, err := b.buildArguments(types)
	if err != nil {
		return nil, err
	}
	if !wrapped {
		return genes.NewApplicationGene(fnType, fn, args...), nil
	}
	return genes.NewPassMaybeGene(t, fnType, fn, args, b.rng.AlphaString(config.GeneratedNameRandomChars)), nil
}

// buildDemaybe builds an optional of t and a fallback used when it is null.
func (b *GeneBuilder) buildDemaybe(t typesystem.Type) (genes.Gene, error) {
	var optional genes.Gene
	for i := 0; ; i++ {
		g, err := b.Build(typesystem.NewMaybe(t))
		if err != nil {
			return nil, err
		}
		optional = g
		if !isNull(g) || i >= maxNullRetries {
			break
		}
	}
	if _, ok := optional.Type().(*typesystem.Maybe); !ok {
		return optional, nil
	}
	fallback, err := b.Build(t)
	if err != nil {
		return nil, err
	}
	return genes.NewDemaybeGene(optional, fallback, b.rng.AlphaString(config.GeneratedNameRandomChars)), nil
}

func isNull(g genes.Gene) bool {
	if _, ok := g.(*genes.NullGene); ok {
		return true
	}
	return g.Type().Equal(typesystem.Null)
}

// construct builds a literal or structural gene for t. Parameters are
// replaced by freshly created constructable types.
func (b *GeneBuilder) construct(t typesystem.Type) (genes.Gene, error) {
	for {
		if _, ok := t.(*typesystem.Parameter); !ok {
			break
		}
		t = b.types.CreateConstructableType()
	}

	switch t := t.(type) {
	case *typesystem.Base:
		return b.constructBase(t)
	case *typesystem.Maybe:
		if t.Equal(typesystem.Bool) {
			return genes.NewBoolGenerator(b.rng.RandomSeed()), nil
		}
		if b.random.MaybeIsNull() || !b.canBuild(t.Inner(), b.depth) {
			return genes.NewNullGene(t), nil
		}
		return b.Build(t.Inner())
	case *typesystem.Cons:
		car, err := b.Build(t.Car())
		if err != nil {
			return nil, err
		}
		cdr, err := b.Build(t.Cdr())
		if err != nil {
			return nil, err
		}
		return genes.NewConsGene(t, car, cdr), nil
	case *typesystem.List:
		n := b.random.ListLength()
		if !b.canBuild(t.Element(), b.depth) {
			n = 0
		}
		items := make([]typesystem.Type, n)
		for i := range items {
			items[i] = t.Element()
		}
		built, err := b.buildArguments(items)
		if err != nil {
			return nil, err
		}
		return genes.NewListGene(t, built...), nil
	case *typesystem.Function:
		return b.buildFunction(t, config.LambdaPrefix+b.rng.AlphaString(config.GeneratedNameRandomChars), true)
	}
	return nil, fmt.Errorf("cannot construct a gene of type %s", t)
}

func (b *GeneBuilder) constructBase(t *typesystem.Base) (genes.Gene, error) {
	switch t {
	case typesystem.FixNum:
		r := b.random.FixNumRange()
		return genes.NewFixNumGenerator(b.rng.RandomSeed(), r.Min, r.Max), nil
	case typesystem.Real:
		r := b.random.RealRange()
		return genes.NewRealGenerator(b.rng.RandomSeed(), r.Min, r.Max), nil
	case typesystem.String:
		return genes.NewStringGenerator(b.rng.RandomSeed(), b.random.StringLength()), nil
	case typesystem.Symbol:
		return genes.NewSymbolGenerator(b.rng.RandomSeed(), b.random.StringLength()), nil
	case typesystem.True:
		return genes.NewTrueGene(), nil
	case typesystem.Null:
		return genes.NewNullGene(nil), nil
	}
	return nil, fmt.Errorf("cannot construct a gene of base type %s", t)
}
