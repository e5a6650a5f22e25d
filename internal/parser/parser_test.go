package parser

import (
	"testing"

	"github.com/funvibe/pipevo/internal/evaluator"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"42", "42"},
		{"-7", "-7"},
		{"3.5", "3.5"},
		{"-.5", "-0.5"},
		{"1e3", "1000.0"},
		{"2.5e-1", "0.25"},
		{"#t", "#t"},
		{"()", "()"},
		{"abc", "abc"},
		{"-", "-"},
		{"is?", "is?"},
		{`"a\"b"`, `"a\"b"`},
		{`"a\nb"`, `"anb"`},
		{"'x", "(quote x)"},
		{"(a b c)", "(a b c)"},
		{"(a . b)", "(a . b)"},
		{"(a b . c)", "(a b . c)"},
		{"( . b)", "(() . b)"},
		{"(+ 1 (* 2 3))", "(+ 1 (* 2 3))"},
		{"; comment\n (a ; inner\n b)", "(a b)"},
		{"(a .5)", "(a 0.5)"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.input, err)
			}
			if got.String() != tt.want {
				t.Errorf("Parse(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseTypes(t *testing.T) {
	tests := []struct {
		input string
		check func(evaluator.Object) bool
	}{
		{"12", func(o evaluator.Object) bool { return o == evaluator.FixNum(12) }},
		{"1.0", func(o evaluator.Object) bool { return o == evaluator.Real(1) }},
		{`"s"`, func(o evaluator.Object) bool { return o == evaluator.String("s") }},
		{"sym", func(o evaluator.Object) bool { return o == evaluator.Symbol("sym") }},
		{"()", evaluator.IsNull},
	}
	for _, tt := range tests {
		got, err := Parse(tt.input)
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", tt.input, err)
		}
		if !tt.check(got) {
			t.Errorf("Parse(%q) = %#v", tt.input, got)
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input      string
		incomplete bool
	}{
		{"(a b", true},
		{`"abc`, true},
		{"'", true},
		{"12a", false},
		{"(a . b c)", false},
		{"(a . . b)", false},
		{"(a . )", false},
		{")", false},
		{"ab#", false},
		{".", false},
		{"1e", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := Parse(tt.input)
			if err == nil {
				t.Fatalf("Parse(%q) should fail", tt.input)
			}
			if got := IsIncomplete(err); got != tt.incomplete {
				t.Errorf("IsIncomplete(%v) = %v, want %v", err, got, tt.incomplete)
			}
		})
	}
}

func TestParseAll(t *testing.T) {
	forms, err := ParseAll("(define x 1) x\n; done\n")
	if err != nil {
		t.Fatal(err)
	}
	if len(forms) != 2 {
		t.Fatalf("ParseAll returned %d forms, want 2", len(forms))
	}
	if forms, err := ParseAll("  ; only a comment"); err != nil || len(forms) != 0 {
		t.Errorf("ParseAll(comment) = %v, %v", forms, err)
	}
}

func TestRoundTrip(t *testing.T) {
	src := `(define (f x . rest) (if (< x 1.5) "lo\\w" '(a . b)))`
	first, err := Parse(src)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Parse(first.String())
	if err != nil {
		t.Fatal(err)
	}
	if first.String() != second.String() {
		t.Errorf("round trip changed the form: %s vs %s", first, second)
	}
}
