package typesystem

import (
	"slices"
	"strings"

	"github.com/hashicorp/go-set/v3"
)

type collector struct {
	seen   *set.Set[*Parameter]
	params []*Parameter
}

func (c *collector) add(p *Parameter) {
	if c.seen.Insert(p) {
		c.params = append(c.params, p)
	}
}

// FindParameters returns the distinct Parameters of t in first-occurrence order.
func FindParameters(t Type) []*Parameter {
	c := &collector{seen: set.New[*Parameter](4)}
	t.collectParameters(c)
	return c.params
}

// UniqueParameters returns t with every Parameter replaced by a fresh one.
// Types taken from a shared registry are made unique before matching so
// their Parameters cannot collide with the caller's.
func UniqueParameters(t Type) Type {
	params := FindParameters(t)
	if len(params) == 0 {
		return t
	}
	mappings := make([]Mapping, len(params))
	for i, p := range params {
		mappings[i] = Mapping{Parameter: p, Type: NewParameter()}
	}
	return t.Substitute(mappings)
}

// EqualModuloParameters reports whether first and second are equal once
// their Parameters are consistently renamed.
func EqualModuloParameters(first, second Type) bool {
	if first.IsParameterized() && second.IsParameterized() {
		match := first.Match(second)
		if !match.Matches() {
			return false
		}
		for _, mapping := range match.Mappings() {
			if _, ok := mapping.Type.(*Parameter); !ok {
				return false
			}
		}
		first = first.Substitute(match.Mappings())
	}
	return first.Equal(second)
}

// FindConcreteTypes collects the non-parameter types a value of type t can
// yield: the inner type of a Maybe, both sides of a Cons, the element of a
// List and the return type of a Function.
func FindConcreteTypes(t Type, result *set.HashSet[Type, string]) {
	switch t := t.(type) {
	case *Maybe:
		FindConcreteTypes(t.inner, result)
	case *Parameter:
	case *Cons:
		FindConcreteTypes(t.car, result)
		FindConcreteTypes(t.cdr, result)
	case *List:
		FindConcreteTypes(t.element, result)
	case *Function:
		FindConcreteTypes(t.ret, result)
	case *Base:
		result.Insert(t)
	}
}

// NewTypeSet returns an empty set of types keyed by their printed form.
func NewTypeSet() *set.HashSet[Type, string] {
	return set.NewHashSetFunc[Type, string](8, Type.String)
}

// SortedTypes returns the members of s ordered by their printed form.
func SortedTypes(s *set.HashSet[Type, string]) []Type {
	types := s.Slice()
	slices.SortFunc(types, func(a, b Type) int { return strings.Compare(a.String(), b.String()) })
	return types
}
