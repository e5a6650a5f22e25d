package typesystem

import (
	"slices"
	"strings"
)

// Mapping binds a Parameter to a Type.
type Mapping struct {
	Parameter *Parameter
	Type      Type
}

func (m Mapping) String() string {
	return m.Parameter.String() + " -> " + m.Type.String()
}

// Match is the result of matching a pattern type against a candidate.
// A successful Match carries the Parameter bindings that make the pattern
// equal to the candidate.
type Match struct {
	matched  bool
	mappings []Mapping
}

var (
	Matched = Match{matched: true}
	NoMatch = Match{}
)

// MatchResult converts a boolean into Matched or NoMatch.
func MatchResult(ok bool) Match {
	if ok {
		return Matched
	}
	return NoMatch
}

// Map builds a Match binding p to t. Binding a Parameter to a type that
// contains it fails.
func Map(p *Parameter, t Type) Match {
	if t.Involves(p) {
		return NoMatch
	}
	m := Match{matched: true}
	if !m.add(Mapping{Parameter: p, Type: t}) {
		return NoMatch
	}
	return m
}

func (m Match) Matches() bool { return m.matched }

// Mappings returns the bindings. The slice must not be modified.
func (m Match) Mappings() []Mapping { return m.mappings }

func (m Match) String() string {
	if !m.matched {
		return "no match"
	}
	parts := make([]string, len(m.mappings))
	for i, mapping := range m.mappings {
		parts[i] = mapping.String()
	}
	return "match{" + strings.Join(parts, ", ") + "}"
}

// Combine merges two matches. The same Parameter bound on both sides must
// unify, and the unifying bindings are folded into the result.
func (m Match) Combine(other Match) Match {
	if !m.matched || !other.matched {
		return NoMatch
	}
	if len(m.mappings) == 0 {
		return other
	}
	if len(other.mappings) == 0 {
		return m
	}
	combined := Match{matched: true, mappings: slices.Clone(other.mappings)}
	for _, mapping := range m.mappings {
		if !combined.add(mapping) {
			return NoMatch
		}
	}
	return combined
}

func (m *Match) find(p *Parameter) int {
	for i, mapping := range m.mappings {
		if mapping.Parameter == p {
			return i
		}
	}
	return -1
}

func (m *Match) add(toAdd Mapping) bool {
	i := m.find(toAdd.Parameter)
	if i < 0 {
		return m.addAndSubstitute(toAdd)
	}
	same := m.mappings[i]
	if same.Type.Equal(toAdd.Type) {
		return true
	}
	unify := same.Type.Match(toAdd.Type)
	if !unify.matched {
		unify = toAdd.Type.Match(same.Type)
		if !unify.matched {
			return false
		}
	}
	for _, mapping := range unify.mappings {
		if !m.add(mapping) {
			return false
		}
	}
	return true
}

func (m *Match) addAndSubstitute(toAdd Mapping) bool {
	toAdd.Type = toAdd.Type.Substitute(m.mappings)
	if toAdd.Type.Involves(toAdd.Parameter) {
		return false
	}
	single := []Mapping{toAdd}
	for i, existing := range m.mappings {
		if toAdd.Type.Involves(existing.Parameter) {
			return false
		}
		m.mappings[i].Type = existing.Type.Substitute(single)
	}
	m.mappings = append(m.mappings, toAdd)
	return true
}
