// Package symbols holds the typed registry of the symbols a genome may refer
// to without defining them.
package symbols

import (
	"github.com/funvibe/pipevo/internal/typesystem"
)

// Symbol is a registered name with its declared type.
type Symbol struct {
	Name string
	Type typesystem.Type
}

func (s Symbol) String() string { return s.Name + " : " + s.Type.String() }

// Registry maps names to types. A name may be registered with several
// types; each registration is a separate entry. A Registry is read-only
// once built and can be shared between goroutines.
type Registry struct {
	entries []Symbol
}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) Add(name string, t typesystem.Type) {
	r.entries = append(r.entries, Symbol{Name: name, Type: t})
}

// Symbols returns every entry in registration order.
func (r *Registry) Symbols() []Symbol {
	return r.entries
}

func (r *Registry) Len() int { return len(r.entries) }

// FindMatching returns the names whose type t matches. t must not share
// Parameters with registered types; see typesystem.UniqueParameters.
func (r *Registry) FindMatching(t typesystem.Type) []string {
	var names []string
	for _, e := range r.entries {
		if t.Match(e.Type).Matches() {
			names = append(names, e.Name)
		}
	}
	return names
}

// FindFunctionReturning returns the function entries whose return type ret
// matches, with the binding substituted into the function type. ret must
// not share Parameters with registered types.
func (r *Registry) FindFunctionReturning(ret typesystem.Type) []Symbol {
	var found []Symbol
	for _, e := range r.entries {
		if fn, ok := FunctionReturning(e.Type, ret); ok {
			found = append(found, Symbol{Name: e.Name, Type: fn})
		}
	}
	return found
}

// FunctionReturning reports whether t is a function whose return type ret
// matches and returns it with the bindings substituted.
func FunctionReturning(t, ret typesystem.Type) (*typesystem.Function, bool) {
	fn, ok := t.(*typesystem.Function)
	if !ok {
		return nil, false
	}
	match := ret.Match(fn.Return())
	if !match.Matches() {
		return nil, false
	}
	return fn.Substitute(match.Mappings()).(*typesystem.Function), true
}
