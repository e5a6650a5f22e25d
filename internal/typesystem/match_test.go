package typesystem

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

var typeOpts = cmp.Options{
	cmp.Comparer(func(a, b Type) bool { return a.Equal(b) }),
}

func TestMatchResult(t *testing.T) {
	if !MatchResult(true).Matches() || len(MatchResult(true).Mappings()) != 0 {
		t.Errorf("MatchResult(true) = %v", MatchResult(true))
	}
	if MatchResult(false).Matches() {
		t.Errorf("MatchResult(false) should not match")
	}
}

func TestMapConstruct(t *testing.T) {
	p := NewParameter()
	m := Map(p, FixNum)
	want := []Mapping{{Parameter: p, Type: FixNum}}
	if diff := cmp.Diff(want, m.Mappings(), typeOpts); diff != "" {
		t.Errorf("Map mismatch (-want +got):\n%s", diff)
	}
	if Map(p, NewList(p)).Matches() {
		t.Errorf("binding a parameter to a type containing it must fail")
	}
}

func TestCombinePassFail(t *testing.T) {
	p := NewParameter()
	m := Map(p, FixNum)
	tests := []struct {
		name string
		a, b Match
		want bool
	}{
		{"pass pass", Matched, Matched, true},
		{"pass fail", Matched, NoMatch, false},
		{"fail pass", NoMatch, Matched, false},
		{"fail fail", NoMatch, NoMatch, false},
		{"map fail", m, NoMatch, false},
		{"fail map", NoMatch, m, false},
		{"map pass", m, Matched, true},
		{"pass map", Matched, m, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Combine(tt.b).Matches(); got != tt.want {
				t.Errorf("Combine() = %v, want %v", got, tt.want)
			}
		})
	}
	if diff := cmp.Diff(m.Mappings(), m.Combine(Matched).Mappings(), typeOpts); diff != "" {
		t.Errorf("combining with an empty match changed mappings:\n%s", diff)
	}
}

func TestCombine(t *testing.T) {
	p, q := NewParameter(), NewParameter()
	combined := Map(p, FixNum).Combine(Map(q, Real))
	want := []Mapping{{Parameter: q, Type: Real}, {Parameter: p, Type: FixNum}}
	if diff := cmp.Diff(want, combined.Mappings(), typeOpts); diff != "" {
		t.Errorf("Combine mismatch (-want +got):\n%s", diff)
	}
	if Map(p, FixNum).Combine(Map(p, Real)).Matches() {
		t.Errorf("incompatible bindings must not combine")
	}
}

func TestCombineNested(t *testing.T) {
	for _, flip := range []bool{false, true} {
		p, q := NewParameter(), NewParameter()
		a := Map(p, NewList(q))
		b := Map(p, NewList(String))
		if flip {
			a, b = b, a
		}
		combined := a.Combine(b)
		if !combined.Matches() {
			t.Fatalf("flip=%v: expected a match", flip)
		}
		got := map[*Parameter]Type{}
		for _, m := range combined.Mappings() {
			got[m.Parameter] = m.Type
		}
		want := map[*Parameter]Type{p: NewList(String), q: String}
		if diff := cmp.Diff(want, got, typeOpts); diff != "" {
			t.Errorf("flip=%v: mismatch (-want +got):\n%s", flip, diff)
		}
	}
}

func TestBaseMatch(t *testing.T) {
	if !FixNum.Match(FixNum).Matches() {
		t.Errorf("FixNum should match itself")
	}
	if FixNum.Match(NewParameter()).Matches() {
		t.Errorf("a base type never binds the candidate's parameters")
	}
	if FixNum.Match(Real).Matches() || FixNum.Match(Bool).Matches() {
		t.Errorf("distinct types must not match")
	}
}

func TestMaybeMatch(t *testing.T) {
	p := NewParameter()
	maybeP := NewMaybe(p)
	tests := []struct {
		name      string
		candidate Type
		want      Type
	}{
		{"null", Null, nil},
		{"maybe", NewMaybe(FixNum), FixNum},
		{"direct", String, String},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := maybeP.Match(tt.candidate)
			if !m.Matches() {
				t.Fatalf("Match(%v) failed", tt.candidate)
			}
			if tt.want == nil {
				if len(m.Mappings()) != 0 {
					t.Errorf("expected no mappings, got %v", m)
				}
				return
			}
			if diff := cmp.Diff([]Mapping{{Parameter: p, Type: tt.want}}, m.Mappings(), typeOpts); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
	if NewMaybe(FixNum).Match(Real).Matches() {
		t.Errorf("Maybe FixNum must not match Real")
	}
}

func TestFunctionMatch(t *testing.T) {
	p, q := NewParameter(), NewParameter()
	pattern := NewFunction(p, p, q)
	candidate := NewFunction(FixNum, FixNum, String)
	m := pattern.Match(candidate)
	if !m.Matches() {
		t.Fatalf("expected match")
	}
	if got := pattern.Substitute(m.Mappings()); !got.Equal(candidate) {
		t.Errorf("Substitute() = %v, want %v", got, candidate)
	}
	if pattern.Match(NewFunction(FixNum, Real, String)).Matches() {
		t.Errorf("conflicting parameter bindings must fail")
	}
	if pattern.Match(NewFunction(FixNum, FixNum)).Matches() {
		t.Errorf("arity mismatch must fail")
	}
}

func TestSubstituteRoundTrip(t *testing.T) {
	p, q := NewParameter(), NewParameter()
	tests := []struct {
		pattern  Type
		concrete Type
	}{
		{p, FixNum},
		{NewList(p), NewList(Real)},
		{NewCons(p, q), NewCons(String, NewList(Symbol))},
		{NewMaybe(p), NewMaybe(FixNum)},
		{NewFunction(NewList(p), p, q), NewFunction(NewList(True), True, Null)},
		{NewCons(NewMaybe(p), NewFunction(q, p)), NewCons(NewMaybe(Real), NewFunction(String, Real))},
	}
	for _, tt := range tests {
		t.Run(tt.pattern.String(), func(t *testing.T) {
			self := tt.pattern.Match(tt.pattern)
			if !self.Matches() || len(self.Mappings()) != 0 {
				t.Errorf("self match = %v", self)
			}
			m := tt.pattern.Match(tt.concrete)
			if !m.Matches() {
				t.Fatalf("no match against %v", tt.concrete)
			}
			if got := tt.pattern.Substitute(m.Mappings()); !got.Equal(tt.concrete) {
				t.Errorf("Substitute() = %v, want %v", got, tt.concrete)
			}
		})
	}
}

func TestSubstituteIdentity(t *testing.T) {
	p, q := NewParameter(), NewParameter()
	types := []Type{FixNum, NewList(p), NewCons(p, Real), NewMaybe(p), NewFunction(p, q)}
	unrelated := []Mapping{{Parameter: NewParameter(), Type: String}}
	for _, typ := range types {
		if got := typ.Substitute(unrelated); got != typ {
			t.Errorf("%v: Substitute returned a new instance", typ)
		}
	}
}
