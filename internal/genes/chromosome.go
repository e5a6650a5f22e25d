package genes

import (
	"strconv"

	"github.com/funvibe/pipevo/internal/evaluator"
	"github.com/funvibe/pipevo/internal/typesystem"
)

// Chromosome is a named, ordered group of genes. Gene i is bound to the
// name Name+(i+1) when expressed.
type Chromosome struct {
	Name  string
	genes []Gene
}

func NewChromosome(name string, genes ...Gene) *Chromosome {
	return &Chromosome{Name: name, genes: genes}
}

func (c *Chromosome) Genes() []Gene { return c.genes }
func (c *Chromosome) Len() int      { return len(c.genes) }

func (c *Chromosome) Add(g Gene) { c.genes = append(c.genes, g) }

func (c *Chromosome) GeneName(i int) string { return c.Name + strconv.Itoa(i+1) }

// NextGeneName is the name the next added gene will be bound to.
func (c *Chromosome) NextGeneName() string { return c.GeneName(len(c.genes)) }

// Phene is an expressed gene with the name it is bound to.
type Phene struct {
	Name string
	Form evaluator.Object
}

func (c *Chromosome) Express(ctx *Context) ([]Phene, error) {
	phenes := make([]Phene, len(c.genes))
	for i, g := range c.genes {
		form, err := g.Express(ctx)
		if err != nil {
			return nil, NewExpressionError(c.Name, c.GeneName(i), err)
		}
		phenes[i] = Phene{Name: c.GeneName(i), Form: form}
	}
	return phenes, nil
}

// FindLastMatching returns the index of the last gene of type t, or -1.
func (c *Chromosome) FindLastMatching(t typesystem.Type) int {
	for i := len(c.genes) - 1; i >= 0; i-- {
		if typesystem.EqualModuloParameters(c.genes[i].Type(), t) {
			return i
		}
	}
	return -1
}
