// Package entropy is the seeded source of every random decision made while
// building, mutating and breeding genomes.
package entropy

import (
	"math"
	"math/rand/v2"
	"strings"
)

const selectResolution = 10000

// Entropy is a deterministic random source. It is not safe for concurrent
// use; give each goroutine its own, derived with Fork.
type Entropy struct {
	r *rand.Rand
}

func New(seed int64) *Entropy {
	return &Entropy{r: rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))}
}

// Fork returns an independent source seeded from this one.
func (e *Entropy) Fork() *Entropy { return New(e.RandomSeed()) }

// RandomSeed draws a value for seeding a derived source or a constant gene.
func (e *Entropy) RandomSeed() int64 { return e.r.Int64() }

// RandomInt returns a value in [0, n). n must be positive.
func (e *Entropy) RandomInt(n int) int { return e.r.IntN(n) }

// Int64n returns a value in [0, n). n must be positive.
func (e *Entropy) Int64n(n int64) int64 { return e.r.Int64N(n) }

func (e *Entropy) Float64() float64 { return e.r.Float64() }

func (e *Entropy) Flip() bool { return e.r.IntN(2) == 1 }

// Select reports true with probability p, resolved to four decimal places.
func (e *Entropy) Select(p float64) bool {
	return float64(e.r.IntN(selectResolution+1))/selectResolution < p
}

func (e *Entropy) Shuffle(n int, swap func(i, j int)) { e.r.Shuffle(n, swap) }

// AlphaString returns n lower case letters.
func (e *Entropy) AlphaString(n int) string {
	var sb strings.Builder
	for range n {
		sb.WriteByte(byte('a' + e.r.IntN(26)))
	}
	return sb.String()
}

// ASCIIString returns n characters drawn from the first 256 code points.
func (e *Entropy) ASCIIString(n int) string {
	var sb strings.Builder
	for range n {
		sb.WriteRune(rune(e.r.IntN(256)))
	}
	return sb.String()
}

// RandomElement returns a uniformly chosen element of items, which must not be
// empty.
func RandomElement[T any](e *Entropy, items []T) T {
	return items[e.r.IntN(len(items))]
}

// FromSeed derives a value in [0, n) from a stored seed without consuming
// any shared state.
func FromSeed(seed int64, n int64) int64 {
	if seed == math.MinInt64 {
		seed = math.MaxInt64
	}
	if seed < 0 {
		seed = -seed
	}
	return seed % n
}
