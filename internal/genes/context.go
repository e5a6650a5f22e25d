package genes

import (
	"github.com/funvibe/pipevo/internal/symbols"
	"github.com/funvibe/pipevo/internal/typesystem"
)

// Context is the set of symbols visible to a gene: the registry, the genes
// of the chromosomes added so far, and the stack of enclosing function
// parameters.
type Context struct {
	registry    *symbols.Registry
	chromosomes []*Chromosome
	stack       []symbols.Symbol
}

func NewContext(registry *symbols.Registry) *Context {
	return &Context{registry: registry}
}

func (c *Context) Registry() *symbols.Registry { return c.registry }

// AddChromosome makes the genes of ch visible, including genes appended to
// it later.
func (c *Context) AddChromosome(ch *Chromosome) {
	c.chromosomes = append(c.chromosomes, ch)
}

// Push makes name visible with type t until the returned func is called.
func (c *Context) Push(name string, t typesystem.Type) (pop func()) {
	return c.PushAll([]string{name}, []typesystem.Type{t})
}

// PushAll pushes names[i] with types[i] for every i.
func (c *Context) PushAll(names []string, types []typesystem.Type) (pop func()) {
	depth := len(c.stack)
	for i, name := range names {
		c.stack = append(c.stack, symbols.Symbol{Name: name, Type: types[i]})
	}
	return func() { c.stack = c.stack[:depth] }
}

// FindMatching returns every visible name whose type t matches.
func (c *Context) FindMatching(t typesystem.Type) []string {
	t = typesystem.UniqueParameters(t)
	names := c.registry.FindMatching(t)
	for _, ch := range c.chromosomes {
		for i, g := range ch.genes {
			// Genes are matched as patterns so a parameterized gene can
			// stand in for a concrete request.
			if g.Type().Match(t).Matches() {
				names = append(names, ch.GeneName(i))
			}
		}
	}
	for _, s := range c.stack {
		if t.Match(s.Type).Matches() {
			names = append(names, s.Name)
		}
	}
	return names
}

// FindFunctionReturning returns every visible function whose return type
// ret matches.
func (c *Context) FindFunctionReturning(ret typesystem.Type) []symbols.Symbol {
	ret = typesystem.UniqueParameters(ret)
	found := c.registry.FindFunctionReturning(ret)
	for _, ch := range c.chromosomes {
		for i, g := range ch.genes {
			if fn, ok := symbols.FunctionReturning(g.Type(), ret); ok {
				found = append(found, symbols.Symbol{Name: ch.GeneName(i), Type: fn})
			}
		}
	}
	for _, s := range c.stack {
		if fn, ok := symbols.FunctionReturning(s.Type, ret); ok {
			found = append(found, symbols.Symbol{Name: s.Name, Type: fn})
		}
	}
	return found
}

// FindConcreteTypes returns the base types reachable from the symbols on
// the stack, ordered by name.
func (c *Context) FindConcreteTypes() []typesystem.Type {
	found := typesystem.NewTypeSet()
	for _, s := range c.stack {
		typesystem.FindConcreteTypes(s.Type, found)
	}
	return typesystem.SortedTypes(found)
}
