package builder

import (
	"github.com/funvibe/pipevo/internal/config"
	"github.com/funvibe/pipevo/internal/genes"
	"github.com/funvibe/pipevo/internal/symbols"
	"github.com/funvibe/pipevo/internal/typesystem"
)

// ChromosomeStructure is the shape of a chromosome before its genes exist.
type ChromosomeStructure struct {
	Name      string
	GeneTypes []*typesystem.Function
}

// GenomeBuilder lays out random genome structures ending in a target
// chromosome and fills them with genes.
type GenomeBuilder struct {
	registry *symbols.Registry
	types    *TypeBuilder
	random   *GeneRandomizer
	depth    int
}

func NewGenomeBuilder(registry *symbols.Registry, types *TypeBuilder, random *GeneRandomizer, depth int) *GenomeBuilder {
	return &GenomeBuilder{registry: registry, types: types, random: random, depth: depth}
}

// GeneBuilder returns a gene builder over ctx with the configured depth.
func (b *GenomeBuilder) GeneBuilder(ctx *genes.Context) *GeneBuilder {
	return NewGeneBuilder(b.types, b.random, ctx, b.depth)
}

func (b *GenomeBuilder) Types() *TypeBuilder         { return b.types }
func (b *GenomeBuilder) Randomizer() *GeneRandomizer { return b.random }

// RandomFunctionType creates a function type with a random return type.
// Every constrained type may appear in it.
func (b *GenomeBuilder) RandomFunctionType() *typesystem.Function {
	b.types.AllowAllConstrained()
	ret := b.types.CreateType()
	b.types.ClearDependentTypes()
	return b.types.CreateFunction(ret)
}

// ChromosomeName returns a fresh random chromosome name.
func (b *GenomeBuilder) ChromosomeName(prefix string) string {
	return prefix + b.random.Entropy().AlphaString(config.GeneratedNameRandomChars)
}

// BuildGenomeStructure draws the chromosome layout of a genome whose last
// chromosome holds a single gene of type target.
func (b *GenomeBuilder) BuildGenomeStructure(target *typesystem.Function) []ChromosomeStructure {
	size := b.random.GenomeSize()
	structure := make([]ChromosomeStructure, 0, size)
	for i := 0; i < size-1; i++ {
		cs := ChromosomeStructure{Name: b.ChromosomeName(config.ChromosomePrefix)}
		for j := b.random.ChromosomeLength(); j > 0; j-- {
			cs.GeneTypes = append(cs.GeneTypes, b.RandomFunctionType())
		}
		structure = append(structure, cs)
	}
	structure = append(structure, ChromosomeStructure{
		Name:      config.TargetChromosomeName,
		GeneTypes: []*typesystem.Function{target},
	})
	return structure
}

// Build fills a structure with genes. Each gene sees the genes built
// before it.
func (b *GenomeBuilder) Build(structure []ChromosomeStructure) (*genes.Genome, error) {
	ctx := genes.NewContext(b.registry)
	gb := b.GeneBuilder(ctx)
	genome := genes.NewGenome()
	for _, cs := range structure {
		ch := genes.NewChromosome(cs.Name)
		ctx.AddChromosome(ch)
		for _, t := range cs.GeneTypes {
			g, err := gb.BuildFunction(t, ch.NextGeneName())
			if err != nil {
				return nil, err
			}
			ch.Add(g)
		}
		genome.Add(ch)
	}
	logger.Printf("built genome of %d chromosomes", len(structure))
	return genome, nil
}

// BuildGenome builds a genome with a fresh random structure.
func (b *GenomeBuilder) BuildGenome(target *typesystem.Function) (*genes.Genome, error) {
	return b.Build(b.BuildGenomeStructure(target))
}
