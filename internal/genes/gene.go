// Package genes is the genotype of an evolved program: typed genes that
// express into interpreter syntax, grouped into chromosomes and genomes.
package genes

import (
	"github.com/funvibe/pipevo/internal/evaluator"
	"github.com/funvibe/pipevo/internal/typesystem"
)

// Gene is the closed set of gene variants. Express turns a gene into a form
// the evaluator can compile. Mutate returns the receiver itself when no
// random draw changed anything.
type Gene interface {
	Type() typesystem.Type
	Express(ctx *Context) (evaluator.Object, error)
	Mutate(m Mutation, ctx *Context) (Gene, error)

	gene()
}

// Mutation is the source of every random decision taken while mutating a
// gene. Each method reports whether the change happens and, where the
// change carries a value, the new value.
type Mutation interface {
	MutateSeed(seed int64) (int64, bool)
	MutateStringLength(length int) (int, bool)
	MutateSymbolLength(length int) (int, bool)
	MutateFixNumRange(min, max int64) (int64, int64, bool)
	MutateRealRange(min, max float64) (float64, float64, bool)

	ReorderList() bool
	SwapListItems() bool
	MutateListLength(length int) (int, bool)
	// Shuffle permutes n items in place.
	Shuffle(n int, swap func(i, j int))
	// RandomIndex returns a value in [0, n).
	RandomIndex(n int) int

	ReplaceSubgene() bool
	// BuildGene builds a fresh gene of type t within ctx.
	BuildGene(t typesystem.Type, ctx *Context) (Gene, error)
}

// MutateGene mutates g as a gene of type t: the policy either replaces it
// with a freshly built gene or mutates it recursively.
func MutateGene(m Mutation, t typesystem.Type, g Gene, ctx *Context) (Gene, error) {
	if m.ReplaceSubgene() {
		return m.BuildGene(t, ctx)
	}
	return g.Mutate(m, ctx)
}

// mutateAll mutates each gene against its type and returns the original
// slice when nothing changed.
func mutateAll(m Mutation, ctx *Context, types []typesystem.Type, genes []Gene) ([]Gene, error) {
	var mutated []Gene
	for i, g := range genes {
		next, err := MutateGene(m, types[i], g, ctx)
		if err != nil {
			return nil, err
		}
		if next != g && mutated == nil {
			mutated = make([]Gene, len(genes))
			copy(mutated, genes[:i])
		}
		if mutated != nil {
			mutated[i] = next
		}
	}
	if mutated == nil {
		return genes, nil
	}
	return mutated, nil
}

func expressAll(ctx *Context, genes []Gene) ([]evaluator.Object, error) {
	forms := make([]evaluator.Object, len(genes))
	for i, g := range genes {
		form, err := g.Express(ctx)
		if err != nil {
			return nil, err
		}
		forms[i] = form
	}
	return forms, nil
}

func symbol(name string) evaluator.Object { return evaluator.Symbol(name) }

// call builds the combination (head args...).
func call(head string, args ...evaluator.Object) evaluator.Object {
	return evaluator.NewCons(symbol(head), evaluator.List(args...))
}
