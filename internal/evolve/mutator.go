package evolve

import (
	"github.com/funvibe/pipevo/internal/genes"
	"github.com/funvibe/pipevo/internal/symbols"
	"github.com/funvibe/pipevo/internal/typesystem"
)

// Mutator applies a Mutation to whole genomes. A genome or chromosome in
// which nothing changed is returned as the same instance.
type Mutator struct {
	mutation *Mutation
	registry *symbols.Registry
}

func NewMutator(mutation *Mutation, registry *symbols.Registry) *Mutator {
	return &Mutator{mutation: mutation, registry: registry}
}

// Mutate mutates genome. Structural changes (skipped, added and target
// chromosomes, added genes) happen only when allowStructural is set.
func (m *Mutator) Mutate(genome *genes.Genome, target *typesystem.Function, allowStructural bool) (*genes.Genome, error) {
	ctx := genes.NewContext(m.registry)
	mutated := genes.NewGenome()
	changed := false

	addChromosome := allowStructural && m.mutation.AddChromosome()
	chromosomes := genome.Chromosomes()
	for i, ch := range chromosomes {
		isLast := i == len(chromosomes)-1
		if !isLast && allowStructural && m.mutation.SkipChromosome() {
			changed = true
			continue
		}
		if isLast && addChromosome {
			added, err := m.mutation.CreateChromosome(ctx)
			if err != nil {
				return nil, err
			}
			mutated.Add(added)
			changed = true
		}
		next, err := m.MutateChromosome(ch, ctx, isLast, allowStructural)
		if err != nil {
			return nil, err
		}
		mutated.Add(next)
		if next != ch {
			changed = true
		}
	}

	if allowStructural && m.mutation.AddTargetChromosome() {
		added, err := m.mutation.CreateTargetChromosome(ctx, target)
		if err != nil {
			return nil, err
		}
		mutated.Add(added)
		changed = true
	}

	if !changed {
		return genome, nil
	}
	return mutated, nil
}

// MutateChromosome mutates the genes of ch. The result is made visible in
// ctx gene by gene, so each gene sees only the genes before it.
func (m *Mutator) MutateChromosome(ch *genes.Chromosome, ctx *genes.Context, isLast, allowStructural bool) (*genes.Chromosome, error) {
	mutated := genes.NewChromosome(ch.Name)
	ctx.AddChromosome(mutated)
	changed := false

	for _, g := range ch.Genes() {
		next := g
		if m.mutation.MutateTopLevel() {
			var err error
			if next, err = g.Mutate(m.mutation, ctx); err != nil {
				return nil, err
			}
		}
		mutated.Add(next)
		if next != g {
			changed = true
		}
	}

	if !isLast && allowStructural && m.mutation.AddGene() {
		g, err := m.mutation.CreateGene(ctx, mutated.NextGeneName())
		if err != nil {
			return nil, err
		}
		mutated.Add(g)
		changed = true
	}

	if !changed {
		return ch, nil
	}
	return mutated, nil
}
