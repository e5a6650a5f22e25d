package builder

import (
	"github.com/funvibe/pipevo/internal/config"
	"github.com/funvibe/pipevo/internal/entropy"
)

// Strategy is a way of building a gene of a requested type.
type Strategy int

const (
	Lookup Strategy = iota
	Construct
	Application
	PassMaybe
	Demaybe
	Branch
)

func (s Strategy) String() string {
	switch s {
	case Lookup:
		return "lookup"
	case Construct:
		return "construct"
	case Application:
		return "application"
	case PassMaybe:
		return "pass-maybe"
	case Demaybe:
		return "demaybe"
	case Branch:
		return "branch"
	}
	return "unknown"
}

// GeneRandomizer draws the sizes and ranges of built genes.
type GeneRandomizer struct {
	rng   *entropy.Entropy
	probs config.GeneProbabilities

	stringLengths     *entropy.WeightedSet[int]
	listLengths       *entropy.WeightedSet[int]
	chromosomeLengths *entropy.WeightedSet[int]
	genomeSizes       *entropy.WeightedSet[int]
	fixNumRanges      *entropy.WeightedSet[config.FixNumRange]
	realRanges        *entropy.WeightedSet[config.RealRange]
}

func NewGeneRandomizer(rng *entropy.Entropy, probs config.GeneProbabilities) *GeneRandomizer {
	r := &GeneRandomizer{
		rng:               rng,
		probs:             probs,
		stringLengths:     entropy.IndexWeights(probs.StringLengths),
		listLengths:       entropy.IndexWeights(probs.ListLengths),
		chromosomeLengths: entropy.IndexWeights(probs.ChromosomeLengths),
		genomeSizes:       entropy.IndexWeights(probs.GenomeSizes),
		fixNumRanges:      entropy.NewWeightedSet[config.FixNumRange](),
		realRanges:        entropy.NewWeightedSet[config.RealRange](),
	}
	for _, fr := range probs.FixNumRanges {
		r.fixNumRanges.Add(fr, float64(fr.Weight))
	}
	for _, rr := range probs.RealRanges {
		r.realRanges.Add(rr, float64(rr.Weight))
	}
	return r
}

func (r *GeneRandomizer) Entropy() *entropy.Entropy { return r.rng }

func (r *GeneRandomizer) StringLength() int               { return r.stringLengths.Select(r.rng) }
func (r *GeneRandomizer) ListLength() int                 { return r.listLengths.Select(r.rng) }
func (r *GeneRandomizer) ChromosomeLength() int           { return r.chromosomeLengths.Select(r.rng) }
func (r *GeneRandomizer) GenomeSize() int                 { return r.genomeSizes.Select(r.rng) }
func (r *GeneRandomizer) FixNumRange() config.FixNumRange { return r.fixNumRanges.Select(r.rng) }
func (r *GeneRandomizer) RealRange() config.RealRange     { return r.realRanges.Select(r.rng) }

func (r *GeneRandomizer) MaybeIsNull() bool { return r.rng.Select(r.probs.MaybeIsNull) }

// Weight returns the configured weight of a build strategy. Both maybe
// strategies share the maybe weight.
func (r *GeneRandomizer) Weight(s Strategy) int {
	w := r.probs.Build
	switch s {
	case Lookup:
		return w.Lookup
	case Construct:
		return w.Construct
	case Application:
		return w.Application
	case PassMaybe, Demaybe:
		return w.Maybe
	case Branch:
		return w.Branch
	}
	return 0
}
