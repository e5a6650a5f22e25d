package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/funvibe/pipevo/internal/evaluator"
	"github.com/funvibe/pipevo/internal/parser"
)

func TestEvalSource(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"empty", "", ""},
		{"one form", "(+ 1 2)", "3\n"},
		{"each result", "(define (sq x) (* x x)) (sq 7)", "sq\n49\n"},
		{"comments", "; nothing\n(- 10 4) ; six\n", "6\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := evalSource(&buf, evaluator.NewBaseEnvironment(), tt.src); err != nil {
				t.Fatal(err)
			}
			if got := buf.String(); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEvalSourceStopsAtError(t *testing.T) {
	var buf bytes.Buffer
	err := evalSource(&buf, evaluator.NewBaseEnvironment(), "(+ 1 1) (car 5) (+ 2 2)")
	var invocation *evaluator.InvocationError
	if !errors.As(err, &invocation) {
		t.Fatalf("evalSource = %v, want InvocationError", err)
	}
	if got := buf.String(); got != "2\n" {
		t.Errorf("output = %q, want the first result only", got)
	}
}

func TestEvalSourceIncomplete(t *testing.T) {
	err := evalSource(&bytes.Buffer{}, evaluator.NewBaseEnvironment(), "(+ 1")
	if !parser.IsIncomplete(err) {
		t.Errorf("evalSource = %v, want incomplete input", err)
	}
}

func TestEvolveFlags(t *testing.T) {
	f := newEvolveFlags("evolve")
	if err := f.fs.Parse([]string{"-runner", "parity", "-population", "7", "-seed", "9", "-archive", "a.db"}); err != nil {
		t.Fatal(err)
	}
	s, err := f.settings()
	if err != nil {
		t.Fatal(err)
	}
	if s.Runner != "parity" || s.Population != 7 || s.Seed != 9 || s.Output.Archive != "a.db" {
		t.Errorf("settings = %+v", s)
	}
	if s.Generations != 50 || s.Output.History != "" {
		t.Errorf("unset flags changed defaults: %+v", s)
	}
}

func TestEvolveFlagsRejectEmptyPopulation(t *testing.T) {
	f := newEvolveFlags("evolve")
	if err := f.fs.Parse([]string{"-population", "0"}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.settings(); err == nil {
		t.Error("population 0 accepted")
	}
}
