package evolve

import (
	"github.com/funvibe/pipevo/internal/entropy"
	"github.com/funvibe/pipevo/internal/genes"
	"github.com/funvibe/pipevo/internal/typesystem"
)

// Breed crosses two genomes. Chromosomes of the same name are crossed gene
// by gene; a chromosome only one parent has is kept as it is. The child's
// entry chromosome, moved last, is the last paired or b-only chromosome
// holding a gene matching target, else the last such a-only chromosome.
func Breed(a, b *genes.Genome, target *typesystem.Function, rng *entropy.Entropy) (*genes.Genome, error) {
	byName := map[string]*genes.Chromosome{}
	for _, ch := range a.Chromosomes() {
		byName[ch.Name] = ch
	}

	var child []*genes.Chromosome
	paired := map[string]bool{}
	for _, ch := range b.Chromosomes() {
		if pair, ok := byName[ch.Name]; ok && !paired[ch.Name] {
			paired[ch.Name] = true
			child = append(child, BreedChromosomes(pair, ch, rng))
			continue
		}
		child = append(child, ch)
	}
	fromB := len(child)
	for _, ch := range a.Chromosomes() {
		if !paired[ch.Name] {
			child = append(child, ch)
		}
	}

	targetAt := lastHolding(child[:fromB], target)
	if targetAt < 0 {
		if i := lastHolding(child[fromB:], target); i >= 0 {
			targetAt = fromB + i
		}
	}
	if targetAt < 0 {
		return nil, NewCrossoverInvariantError(target)
	}

	result := genes.NewGenome()
	for i, ch := range child {
		if i != targetAt {
			result.Add(ch)
		}
	}
	result.Add(child[targetAt])
	return result, nil
}

func lastHolding(chromosomes []*genes.Chromosome, target *typesystem.Function) int {
	for i := len(chromosomes) - 1; i >= 0; i-- {
		if chromosomes[i].FindLastMatching(target) >= 0 {
			return i
		}
	}
	return -1
}

// BreedChromosomes crosses two chromosomes gene by gene. Where the types at
// a position differ, a gene of the matching type one position ahead in
// either parent realigns them. Genes past the shorter parent are dropped.
func BreedChromosomes(a, b *genes.Chromosome, rng *entropy.Entropy) *genes.Chromosome {
	if a.Name != b.Name {
		if rng.Flip() {
			return a
		}
		return b
	}

	result := genes.NewChromosome(a.Name)
	ag, bg := a.Genes(), b.Genes()
	same := func(x, y genes.Gene) bool { return typesystem.EqualModuloParameters(x.Type(), y.Type()) }
	pick := func(useA bool, x, y genes.Gene) genes.Gene {
		if useA {
			return x
		}
		return y
	}

	for i, j := 0, 0; i < len(ag) && j < len(bg); i, j = i+1, j+1 {
		useA := rng.Flip()
		switch {
		case same(ag[i], bg[j]):
			result.Add(pick(useA, ag[i], bg[j]))
		case i+1 < len(ag) && same(ag[i+1], bg[j]):
			result.Add(ag[i])
			result.Add(pick(useA, ag[i+1], bg[j]))
			i++
		case j+1 < len(bg) && same(ag[i], bg[j+1]):
			result.Add(bg[j])
			result.Add(pick(useA, ag[i], bg[j+1]))
			j++
		default:
			result.Add(pick(useA, ag[i], bg[j]))
		}
	}
	return result
}
