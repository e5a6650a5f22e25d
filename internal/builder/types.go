// Package builder synthesizes random types and builds random, well-typed
// genes and genomes for them.
package builder

import (
	"fmt"

	"github.com/hashicorp/go-set/v3"

	"github.com/funvibe/pipevo/internal/config"
	"github.com/funvibe/pipevo/internal/entropy"
	"github.com/funvibe/pipevo/internal/logutil"
	"github.com/funvibe/pipevo/internal/typesystem"
)

var logger = logutil.GetLogger("[builder] ")

// Constraint states that Constrained can only be built once one of Sources
// (or Constrained itself) is reachable. Sources may be empty.
type Constraint struct {
	Constrained typesystem.Type
	Sources     []typesystem.Type
}

func (c Constraint) allows(t typesystem.Type) bool {
	if t.Equal(c.Constrained) {
		return true
	}
	for _, s := range c.Sources {
		if s.Equal(t) {
			return true
		}
	}
	return false
}

type TypeWeight struct {
	Type   typesystem.Type
	Weight int
}

// TypeProbabilities weighs the shapes CreateType produces.
type TypeProbabilities struct {
	Concrete        []TypeWeight
	Function        int
	List            int
	Maybe           int
	Cons            int
	Parameter       int
	NewParameter    float64
	ArgCounts       []int
	AllowParameters bool
}

// NewTypeProbabilities resolves the type names of a settings section.
func NewTypeProbabilities(cfg config.TypeProbabilities) (TypeProbabilities, error) {
	probs := TypeProbabilities{
		Function:        cfg.Function,
		List:            cfg.List,
		Maybe:           cfg.Maybe,
		Cons:            cfg.Cons,
		Parameter:       cfg.Parameter,
		NewParameter:    cfg.NewParameter,
		ArgCounts:       cfg.ArgCounts,
		AllowParameters: cfg.AllowParameters,
	}
	for _, w := range cfg.Concrete {
		t, err := typesystem.Parse(w.Type)
		if err != nil {
			return TypeProbabilities{}, fmt.Errorf("concrete type weight: %w", err)
		}
		probs.Concrete = append(probs.Concrete, TypeWeight{Type: t, Weight: w.Weight})
	}
	return probs, nil
}

type typeSource struct {
	name  string
	build func() typesystem.Type
}

// TypeBuilder creates random types. Constrained types are only produced
// while one of their sources is allowed.
type TypeBuilder struct {
	rng         *entropy.Entropy
	probs       TypeProbabilities
	sources     *entropy.ReweightedSet[*typeSource]
	argCounts   *entropy.WeightedSet[int]
	constraints map[string]Constraint
	allowances  map[string][]typesystem.Type
	sourceTypes []typesystem.Type

	unlocked        *set.HashSet[typesystem.Type, string]
	unlockedSources []*typeSource

	params  []*typesystem.Parameter
	nesting int
}

func NewTypeBuilder(rng *entropy.Entropy, probs TypeProbabilities, constraints []Constraint) *TypeBuilder {
	b := &TypeBuilder{
		rng:         rng,
		probs:       probs,
		sources:     entropy.NewReweightedSet[*typeSource](),
		argCounts:   entropy.IndexWeights(probs.ArgCounts),
		constraints: map[string]Constraint{},
		allowances:  map[string][]typesystem.Type{},
		unlocked:    typesystem.NewTypeSet(),
	}
	for _, c := range constraints {
		b.addConstraint(c)
	}

	for _, w := range probs.Concrete {
		if !b.IsConstrained(w.Type) {
			b.sources.Add(concrete(w.Type), float64(w.Weight))
		}
	}
	b.sources.Add(&typeSource{"function", func() typesystem.Type { return b.CreateFunction(b.CreateType()) }}, float64(probs.Function))
	b.sources.Add(&typeSource{"list", b.createList}, float64(probs.List))
	b.sources.Add(&typeSource{"maybe", b.createMaybe}, float64(probs.Maybe))
	b.sources.Add(&typeSource{"cons", b.createCons}, float64(probs.Cons))
	if probs.AllowParameters {
		b.sources.Add(&typeSource{"parameter", b.createParameter}, float64(probs.Parameter))
	}
	return b
}

func concrete(t typesystem.Type) *typeSource {
	return &typeSource{t.String(), func() typesystem.Type { return t }}
}

func (b *TypeBuilder) addConstraint(c Constraint) {
	key := c.Constrained.String()
	b.constraints[key] = c
	for _, s := range c.Sources {
		sk := s.String()
		if _, ok := b.allowances[sk]; !ok {
			b.sourceTypes = append(b.sourceTypes, s)
		}
		b.allowances[sk] = append(b.allowances[sk], c.Constrained)
	}
}

func (b *TypeBuilder) IsConstrained(t typesystem.Type) bool {
	_, ok := b.constraints[t.String()]
	return ok
}

// AllowDependentTypes makes the given source types and every type they
// unlock available until ClearDependentTypes.
func (b *TypeBuilder) AllowDependentTypes(sources []typesystem.Type) {
	if len(b.constraints) == 0 {
		return
	}
	for _, s := range sources {
		b.unlock(s)
		for _, dependent := range b.allowances[s.String()] {
			b.unlock(dependent)
		}
	}
}

// AllowAllConstrained unlocks everything any source could unlock.
func (b *TypeBuilder) AllowAllConstrained() {
	b.AllowDependentTypes(b.sourceTypes)
}

func (b *TypeBuilder) unlock(t typesystem.Type) {
	if !b.IsConstrained(t) || b.unlocked.Contains(t) {
		return
	}
	for _, w := range b.probs.Concrete {
		if w.Type.Equal(t) && w.Weight > 0 {
			b.unlocked.Insert(t)
			source := concrete(t)
			b.sources.Add(source, float64(w.Weight))
			b.unlockedSources = append(b.unlockedSources, source)
			return
		}
	}
}

func (b *TypeBuilder) ClearDependentTypes() {
	for _, source := range b.unlockedSources {
		b.sources.Remove(source)
	}
	b.unlockedSources = nil
	b.unlocked = typesystem.NewTypeSet()
}

// nest tracks nested type creation. Parameters are shared within one
// outermost creation and forgotten when it completes.
func (b *TypeBuilder) nest() func() {
	b.nesting++
	return func() {
		b.nesting--
		if b.nesting == 0 {
			b.params = b.params[:0]
		}
	}
}

func (b *TypeBuilder) CreateType() typesystem.Type {
	defer b.nest()()
	return b.sources.Select(b.rng).build()
}

// CreateConstructableType creates a type that is not constrained.
func (b *TypeBuilder) CreateConstructableType() typesystem.Type {
	for {
		if t := b.CreateType(); !b.IsConstrained(t) {
			return t
		}
	}
}

// CreateFunction creates a function type returning ret. When ret is
// constrained one of the arguments is forced to a type that unlocks it.
func (b *TypeBuilder) CreateFunction(ret typesystem.Type) *typesystem.Function {
	defer b.nest()()
	b.params = append(b.params, typesystem.FindParameters(ret)...)

	args := make([]typesystem.Type, b.argCounts.Select(b.rng))
	for i := range args {
		args[i] = b.CreateType()
	}

	if c, ok := b.constraints[ret.String()]; ok {
		satisfied := false
		for _, arg := range args {
			if c.allows(arg) {
				satisfied = true
				break
			}
		}
		if !satisfied {
			if len(args) == 0 {
				args = make([]typesystem.Type, 1)
			}
			choice := b.rng.RandomInt(len(c.Sources) + 1)
			source := ret
			if choice < len(c.Sources) {
				source = c.Sources[choice]
			}
			args[b.rng.RandomInt(len(args))] = source
		}
	}
	return typesystem.NewFunction(ret, args...)
}

func (b *TypeBuilder) createList() typesystem.Type {
	return typesystem.NewList(b.CreateType())
}

func (b *TypeBuilder) createMaybe() typesystem.Type {
	return typesystem.NewMaybe(b.CreateType())
}

func (b *TypeBuilder) createCons() typesystem.Type {
	car := b.CreateType()
	return typesystem.NewCons(car, b.CreateType())
}

func (b *TypeBuilder) createParameter() typesystem.Type {
	if len(b.params) == 0 || b.rng.Select(b.probs.NewParameter) {
		p := typesystem.NewParameter()
		b.params = append(b.params, p)
		return p
	}
	return entropy.RandomElement(b.rng, b.params)
}
