package genes

import (
	"math"

	"github.com/funvibe/pipevo/internal/config"
	"github.com/funvibe/pipevo/internal/entropy"
	"github.com/funvibe/pipevo/internal/evaluator"
	"github.com/funvibe/pipevo/internal/typesystem"
)

// Constant genes derive their value from a stored seed, so expressing the
// same gene always yields the same literal.

type FixNumGenerator struct {
	Seed     int64
	Min, Max int64
}

func NewFixNumGenerator(seed, min, max int64) *FixNumGenerator {
	return &FixNumGenerator{Seed: seed, Min: min, Max: max}
}

func (g *FixNumGenerator) gene()                 {}
func (g *FixNumGenerator) Type() typesystem.Type { return typesystem.FixNum }

func (g *FixNumGenerator) Value() int64 {
	span := g.Max - g.Min + 1
	if span <= 0 {
		return g.Min
	}
	return g.Min + entropy.FromSeed(g.Seed, span)
}

func (g *FixNumGenerator) Express(*Context) (evaluator.Object, error) {
	return evaluator.FixNum(g.Value()), nil
}

func (g *FixNumGenerator) Mutate(m Mutation, _ *Context) (Gene, error) {
	seed, seedChanged := m.MutateSeed(g.Seed)
	min, max, rangeChanged := m.MutateFixNumRange(g.Min, g.Max)
	if !seedChanged && !rangeChanged {
		return g, nil
	}
	return NewFixNumGenerator(seed, min, max), nil
}

type RealGenerator struct {
	Seed     int64
	Min, Max float64
}

func NewRealGenerator(seed int64, min, max float64) *RealGenerator {
	return &RealGenerator{Seed: seed, Min: min, Max: max}
}

func (g *RealGenerator) gene()                 {}
func (g *RealGenerator) Type() typesystem.Type { return typesystem.Real }

func (g *RealGenerator) Value() float64 {
	fraction := float64(entropy.FromSeed(g.Seed, math.MaxInt64)) / math.MaxInt64
	return g.Min + (g.Max-g.Min)*fraction
}

func (g *RealGenerator) Express(*Context) (evaluator.Object, error) {
	return evaluator.Real(g.Value()), nil
}

func (g *RealGenerator) Mutate(m Mutation, _ *Context) (Gene, error) {
	seed, seedChanged := m.MutateSeed(g.Seed)
	min, max, rangeChanged := m.MutateRealRange(g.Min, g.Max)
	if !seedChanged && !rangeChanged {
		return g, nil
	}
	return NewRealGenerator(seed, min, max), nil
}

type BoolGenerator struct {
	Seed int64
}

func NewBoolGenerator(seed int64) *BoolGenerator { return &BoolGenerator{Seed: seed} }

func (g *BoolGenerator) gene()                 {}
func (g *BoolGenerator) Type() typesystem.Type { return typesystem.Bool }

func (g *BoolGenerator) Express(*Context) (evaluator.Object, error) {
	return evaluator.Bool(g.Seed&1 == 1), nil
}

func (g *BoolGenerator) Mutate(m Mutation, _ *Context) (Gene, error) {
	if seed, ok := m.MutateSeed(g.Seed); ok {
		return NewBoolGenerator(seed), nil
	}
	return g, nil
}

type StringGenerator struct {
	Seed   int64
	Length int
}

func NewStringGenerator(seed int64, length int) *StringGenerator {
	return &StringGenerator{Seed: seed, Length: length}
}

func (g *StringGenerator) gene()                 {}
func (g *StringGenerator) Type() typesystem.Type { return typesystem.String }

func (g *StringGenerator) Express(*Context) (evaluator.Object, error) {
	return evaluator.String(entropy.New(g.Seed).ASCIIString(g.Length)), nil
}

func (g *StringGenerator) Mutate(m Mutation, _ *Context) (Gene, error) {
	seed, seedChanged := m.MutateSeed(g.Seed)
	length, lengthChanged := m.MutateStringLength(g.Length)
	if !seedChanged && !lengthChanged {
		return g, nil
	}
	return NewStringGenerator(seed, length), nil
}

// SymbolGenerator expresses a quoted symbol of lower case letters.
type SymbolGenerator struct {
	Seed   int64
	Length int
}

func NewSymbolGenerator(seed int64, length int) *SymbolGenerator {
	return &SymbolGenerator{Seed: seed, Length: length}
}

func (g *SymbolGenerator) gene()                 {}
func (g *SymbolGenerator) Type() typesystem.Type { return typesystem.Symbol }

func (g *SymbolGenerator) Express(*Context) (evaluator.Object, error) {
	name := entropy.New(g.Seed).AlphaString(max(g.Length, 1))
	return call(config.QuoteForm, symbol(name)), nil
}

func (g *SymbolGenerator) Mutate(m Mutation, _ *Context) (Gene, error) {
	seed, seedChanged := m.MutateSeed(g.Seed)
	length, lengthChanged := m.MutateSymbolLength(g.Length)
	if !seedChanged && !lengthChanged {
		return g, nil
	}
	return NewSymbolGenerator(seed, length), nil
}

type TrueGene struct{}

func NewTrueGene() *TrueGene { return &TrueGene{} }

func (g *TrueGene) gene()                                      {}
func (g *TrueGene) Type() typesystem.Type                      { return typesystem.True }
func (g *TrueGene) Express(*Context) (evaluator.Object, error) { return evaluator.True, nil }
func (g *TrueGene) Mutate(Mutation, *Context) (Gene, error)    { return g, nil }

// NullGene expresses the empty list. Its type is Null or the optional type
// it was built for.
type NullGene struct {
	typ typesystem.Type
}

func NewNullGene(t typesystem.Type) *NullGene {
	if t == nil {
		t = typesystem.Null
	}
	return &NullGene{typ: t}
}

func (g *NullGene) gene()                                      {}
func (g *NullGene) Type() typesystem.Type                      { return g.typ }
func (g *NullGene) Express(*Context) (evaluator.Object, error) { return evaluator.Null, nil }
func (g *NullGene) Mutate(Mutation, *Context) (Gene, error)    { return g, nil }
