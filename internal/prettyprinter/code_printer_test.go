package prettyprinter

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/funvibe/pipevo/internal/genes"
	"github.com/funvibe/pipevo/internal/parser"
)

const fact = "(define (f x) (if (< x 2) 1 (* x (f (- x 1)))))"

func TestFormat(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		width int
		want  string
	}{
		{"unlimited", fact, 0, fact},
		{"fits", "(+ 1 2)", 7, "(+ 1 2)"},
		{"atom", "12345", 2, "12345"},
		{"aligned arguments", "(+ 100 200 300)", 10, "(+ 100\n   200\n   300)"},
		{"body indent", fact, 20, "(define (f x)\n" +
			"  (if (< x 2)\n" +
			"      1\n" +
			"      (* x\n" +
			"         (f (- x 1)))))"},
		{"dotted pair kept flat", "(1 . 2)", 3, "(1 . 2)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form, err := parser.Parse(tt.src)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, Format(form, tt.width)); diff != "" {
				t.Errorf("Format mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestProgram(t *testing.T) {
	forms, err := parser.ParseAll("(lambda (x) x) (+ 1 2)")
	if err != nil {
		t.Fatal(err)
	}
	phenome := []genes.Phene{{Name: "crA1", Form: forms[0]}, {Name: "crA2", Form: forms[1]}}
	want := "crA1 = (lambda (x) x)\ncrA2 = (+ 1 2)\n"
	if diff := cmp.Diff(want, Program(phenome, DefaultWidth)); diff != "" {
		t.Errorf("Program mismatch (-want +got):\n%s", diff)
	}
}
