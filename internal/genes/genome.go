package genes

import (
	"strings"

	"github.com/funvibe/pipevo/internal/symbols"
	"github.com/funvibe/pipevo/internal/typesystem"
)

// Genome is an ordered list of chromosomes. Its last chromosome holding a
// gene of the target type provides the program's entry point.
type Genome struct {
	chromosomes []*Chromosome
}

func NewGenome(chromosomes ...*Chromosome) *Genome {
	return &Genome{chromosomes: chromosomes}
}

func (g *Genome) Chromosomes() []*Chromosome { return g.chromosomes }

func (g *Genome) Add(c *Chromosome) { g.chromosomes = append(g.chromosomes, c) }

// Express makes each chromosome visible in ctx and expresses it, in order.
func (g *Genome) Express(ctx *Context) ([]Phene, error) {
	var phenome []Phene
	for _, c := range g.chromosomes {
		ctx.AddChromosome(c)
		phenes, err := c.Express(ctx)
		if err != nil {
			return nil, err
		}
		phenome = append(phenome, phenes...)
	}
	return phenome, nil
}

// FindLastMatching returns the name of the entry point for target.
func (g *Genome) FindLastMatching(target typesystem.Type) (string, bool) {
	for i := len(g.chromosomes) - 1; i >= 0; i-- {
		c := g.chromosomes[i]
		if j := c.FindLastMatching(target); j >= 0 {
			return c.GeneName(j), true
		}
	}
	return "", false
}

// Program expresses the genome against registry and prints one phene per
// line.
func (g *Genome) Program(registry *symbols.Registry) (string, error) {
	phenome, err := g.Express(NewContext(registry))
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, p := range phenome {
		sb.WriteString(p.Name)
		sb.WriteString(" = ")
		sb.WriteString(p.Form.String())
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}
