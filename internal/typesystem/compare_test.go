package typesystem

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewMaybe(t *testing.T) {
	inner := NewMaybe(FixNum)
	if got := NewMaybe(inner); got != inner {
		t.Errorf("nested Maybe did not collapse: %v", got)
	}
	if got := NewMaybe(Null); got != Null {
		t.Errorf("Maybe(Null) = %v, want Null", got)
	}
	if !Bool.Equal(NewMaybe(True)) {
		t.Errorf("Bool should equal Maybe True")
	}
}

func TestParameterEquality(t *testing.T) {
	p, q := NewParameter(), NewParameter()
	if p.Equal(q) || !p.Equal(p) {
		t.Errorf("parameters are equal only to themselves")
	}
	if NewList(p).Equal(NewList(q)) {
		t.Errorf("structural equality must respect parameter identity")
	}
}

func TestUniqueParameters(t *testing.T) {
	p, q := NewParameter(), NewParameter()
	original := NewFunction(p, p, q)
	unique := UniqueParameters(original).(*Function)
	params := FindParameters(unique)
	if len(params) != 2 {
		t.Fatalf("FindParameters() = %v", params)
	}
	for _, param := range params {
		if param == p || param == q {
			t.Errorf("parameter %v was not replaced", param)
		}
	}
	if unique.Return() != unique.Arguments()[0] {
		t.Errorf("shared parameter must stay shared")
	}
	if !EqualModuloParameters(original, unique) {
		t.Errorf("unique copy should equal the original modulo parameters")
	}
	if UniqueParameters(FixNum) != FixNum {
		t.Errorf("concrete types are returned unchanged")
	}
}

func TestEqualModuloParameters(t *testing.T) {
	p, q, r := NewParameter(), NewParameter(), NewParameter()
	tests := []struct {
		name string
		a, b Type
		want bool
	}{
		{"same base", FixNum, FixNum, true},
		{"different base", FixNum, Real, false},
		{"renamed", NewFunction(p, p), NewFunction(q, q), true},
		{"distinct parameters", NewFunction(r, r, r), NewFunction(p, p, q), false},
		{"concrete binding", NewList(p), NewList(FixNum), false},
		{"identical", NewCons(p, q), NewCons(p, q), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EqualModuloParameters(tt.a, tt.b); got != tt.want {
				t.Errorf("EqualModuloParameters(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestFindConcreteTypes(t *testing.T) {
	p := NewParameter()
	typ := NewFunction(NewCons(NewMaybe(FixNum), NewList(String)), Real, p)
	result := NewTypeSet()
	FindConcreteTypes(typ, result)
	FindConcreteTypes(p, result)
	got := SortedTypes(result)
	want := []Type{FixNum, String}
	if diff := cmp.Diff(want, got, typeOpts); diff != "" {
		t.Errorf("FindConcreteTypes mismatch (-want +got):\n%s", diff)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"FixNum", "FixNum"},
		{"Bool", "Bool"},
		{"(Maybe True)", "Bool"},
		{"(Maybe (Maybe Real))", "(Maybe Real)"},
		{"(Maybe Null)", "Null"},
		{"(List String)", "(List String)"},
		{"(Cons Symbol (List FixNum))", "(Cons Symbol (List FixNum))"},
		{"(-> FixNum FixNum)", "(-> FixNum FixNum)"},
		{"(-> Null)", "(-> Null)"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := Parse(tt.text)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.text, err)
			}
			if got.String() != tt.want {
				t.Errorf("Parse(%q) = %s, want %s", tt.text, got, tt.want)
			}
		})
	}
}

func TestParseParameters(t *testing.T) {
	typ, err := Parse("(-> 'a 'a 'b)")
	if err != nil {
		t.Fatal(err)
	}
	fn := typ.(*Function)
	if fn.Return() != fn.Arguments()[0] || fn.Return() == fn.Arguments()[1] {
		t.Errorf("parameter names must map to shared parameters: %v", fn)
	}
	again, err := Parse(fn.String())
	if err != nil {
		t.Fatal(err)
	}
	if !EqualModuloParameters(fn, again) {
		t.Errorf("printed form did not round trip: %v vs %v", fn, again)
	}
}

func TestParseErrors(t *testing.T) {
	for _, text := range []string{"", "Int", "(List)", "(Maybe FixNum", "(Cons FixNum)", "FixNum)", "(Foo FixNum)", "'"} {
		if _, err := Parse(text); err == nil {
			t.Errorf("Parse(%q) should fail", text)
		}
	}
}
