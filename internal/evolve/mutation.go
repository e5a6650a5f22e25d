package evolve

import (
	"math"

	"github.com/funvibe/pipevo/internal/builder"
	"github.com/funvibe/pipevo/internal/config"
	"github.com/funvibe/pipevo/internal/entropy"
	"github.com/funvibe/pipevo/internal/genes"
	"github.com/funvibe/pipevo/internal/typesystem"
)

// maxRangeDelta bounds how far one mutation moves a range end.
const maxRangeDelta = 20

// Mutation is the default mutation policy. Each decision is an independent
// draw against its configured probability.
type Mutation struct {
	probs   config.MutationProbabilities
	genomes *builder.GenomeBuilder
	rng     *entropy.Entropy
}

var _ genes.Mutation = (*Mutation)(nil)

func NewMutation(probs config.MutationProbabilities, genomes *builder.GenomeBuilder) *Mutation {
	return &Mutation{probs: probs, genomes: genomes, rng: genomes.Randomizer().Entropy()}
}

func (m *Mutation) MutateTopLevel() bool      { return m.rng.Select(m.probs.TopLevel) }
func (m *Mutation) ReorderList() bool         { return m.rng.Select(m.probs.ReorderList) }
func (m *Mutation) SwapListItems() bool       { return m.rng.Select(m.probs.SwapListItems) }
func (m *Mutation) ReplaceSubgene() bool      { return m.rng.Select(m.probs.ReplaceSubgene) }
func (m *Mutation) AddGene() bool             { return m.rng.Select(m.probs.AddGene) }
func (m *Mutation) SkipChromosome() bool      { return m.rng.Select(m.probs.SkipChromosome) }
func (m *Mutation) AddChromosome() bool       { return m.rng.Select(m.probs.AddChromosome) }
func (m *Mutation) AddTargetChromosome() bool { return m.rng.Select(m.probs.AddTargetChromosome) }

func (m *Mutation) Shuffle(n int, swap func(i, j int)) { m.rng.Shuffle(n, swap) }
func (m *Mutation) RandomIndex(n int) int              { return m.rng.RandomInt(n) }

func (m *Mutation) MutateSeed(seed int64) (int64, bool) {
	if !m.rng.Select(m.probs.Seed) {
		return seed, false
	}
	switch kind := m.rng.RandomInt(5); {
	case kind < 2:
		if seed > math.MinInt64 {
			seed--
		}
	case kind < 4:
		if seed < math.MaxInt64 {
			seed++
		}
	default:
		seed = m.rng.RandomSeed()
	}
	return seed, true
}

// newLength shrinks, grows or redraws a length.
func (m *Mutation) newLength(length int, draw func() int) int {
	switch kind := m.rng.RandomInt(5); {
	case kind < 2:
		if length > 0 {
			return length - 1
		}
		return length
	case kind < 4:
		return length + 1
	default:
		return draw()
	}
}

func (m *Mutation) MutateStringLength(length int) (int, bool) {
	if !m.rng.Select(m.probs.StringLength) {
		return length, false
	}
	return m.newLength(length, m.genomes.Randomizer().StringLength), true
}

func (m *Mutation) MutateSymbolLength(length int) (int, bool) {
	if !m.rng.Select(m.probs.SymbolLength) {
		return length, false
	}
	return m.newLength(length, m.genomes.Randomizer().StringLength), true
}

func (m *Mutation) MutateListLength(length int) (int, bool) {
	if !m.rng.Select(m.probs.ListLength) {
		return length, false
	}
	return m.newLength(length, m.genomes.Randomizer().ListLength), true
}

func (m *Mutation) MutateFixNumRange(min, max int64) (int64, int64, bool) {
	if !m.rng.Select(m.probs.FixNumRange) {
		return min, max, false
	}
	kind := m.rng.RandomInt(5)
	delta := int64(m.rng.RandomInt(maxRangeDelta))
	switch kind {
	case 0:
		if min > math.MinInt64+delta {
			min -= delta
		} else {
			min = math.MinInt64
		}
	case 1:
		if spread(min, max) > uint64(delta) {
			min += delta
		} else {
			min = max
		}
	case 2:
		if spread(min, max) > uint64(delta) {
			max -= delta
		} else {
			max = min
		}
	case 3:
		if max < math.MaxInt64-delta {
			max += delta
		} else {
			max = math.MaxInt64
		}
	default:
		r := m.genomes.Randomizer().FixNumRange()
		return r.Min, r.Max, true
	}
	return min, max, true
}

// spread is max-min for min <= max, exact over the whole int64 range.
func spread(min, max int64) uint64 { return uint64(max) - uint64(min) }

func (m *Mutation) MutateRealRange(min, max float64) (float64, float64, bool) {
	if !m.rng.Select(m.probs.RealRange) {
		return min, max, false
	}
	kind := m.rng.RandomInt(5)
	delta := float64(m.rng.RandomInt(maxRangeDelta))
	switch kind {
	case 0:
		min = math.Max(min-delta, -math.MaxFloat64)
	case 1:
		min = math.Min(min+delta, max)
	case 2:
		max = math.Max(max-delta, min)
	case 3:
		max = math.Min(max+delta, math.MaxFloat64)
	default:
		r := m.genomes.Randomizer().RealRange()
		return r.Min, r.Max, true
	}
	return min, max, true
}

func (m *Mutation) BuildGene(t typesystem.Type, ctx *genes.Context) (genes.Gene, error) {
	return m.genomes.GeneBuilder(ctx).Build(t)
}

// CreateChromosome builds a chromosome of random function genes. It is made
// visible in ctx before its genes are built.
func (m *Mutation) CreateChromosome(ctx *genes.Context) (*genes.Chromosome, error) {
	ch := genes.NewChromosome(m.genomes.ChromosomeName(config.AddedChromosomePrefix))
	ctx.AddChromosome(ch)
	gb := m.genomes.GeneBuilder(ctx)
	for i := m.genomes.Randomizer().ChromosomeLength(); i > 0; i-- {
		g, err := gb.BuildFunction(m.genomes.RandomFunctionType(), ch.NextGeneName())
		if err != nil {
			return nil, err
		}
		ch.Add(g)
	}
	return ch, nil
}

// CreateTargetChromosome builds a chromosome holding one gene of type target.
func (m *Mutation) CreateTargetChromosome(ctx *genes.Context, target *typesystem.Function) (*genes.Chromosome, error) {
	ch := genes.NewChromosome(m.genomes.ChromosomeName(config.AddedTargetPrefix))
	g, err := m.genomes.GeneBuilder(ctx).BuildFunction(target, ch.NextGeneName())
	if err != nil {
		return nil, err
	}
	ch.Add(g)
	return ch, nil
}

// CreateGene builds a random function gene whose return type may be any
// type the visible names unlock.
func (m *Mutation) CreateGene(ctx *genes.Context, name string) (genes.Gene, error) {
	types := m.genomes.Types()
	types.AllowDependentTypes(ctx.FindConcreteTypes())
	ret := types.CreateType()
	types.ClearDependentTypes()
	return m.genomes.GeneBuilder(ctx).BuildFunction(types.CreateFunction(ret), name)
}
