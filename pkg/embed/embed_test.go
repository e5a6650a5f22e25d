package pipevo_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	pipevo "github.com/funvibe/pipevo/pkg/embed"
)

func TestEval(t *testing.T) {
	e := pipevo.New()
	tests := []struct {
		src  string
		want any
	}{
		{"(+ 40 2)", int64(42)},
		{"(/ 1.0 4)", 0.25},
		{`"hi"`, "hi"},
		{"(list 1 2 3)", []any{int64(1), int64(2), int64(3)}},
		{"(< 1 2)", true},
		{"(> 1 2)", nil},
	}
	for _, tt := range tests {
		got, err := e.Eval(tt.src)
		if err != nil {
			t.Fatalf("Eval(%s): %v", tt.src, err)
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("Eval(%s) mismatch (-want +got):\n%s", tt.src, diff)
		}
	}
}

func TestBind(t *testing.T) {
	e := pipevo.New()
	if err := e.Bind("double", func(x int) int { return x * 2 }); err != nil {
		t.Fatal(err)
	}
	if err := e.Bind("total", func(xs []float64) float64 {
		sum := 0.0
		for _, x := range xs {
			sum += x
		}
		return sum
	}); err != nil {
		t.Fatal(err)
	}
	failure := errors.New("refused")
	if err := e.Bind("refuse", func(s string) (string, error) { return "", failure }); err != nil {
		t.Fatal(err)
	}

	got, err := e.Eval("(double 21)")
	if err != nil || got != int64(42) {
		t.Errorf("(double 21) = %v, %v; want 42", got, err)
	}
	got, err = e.Eval("(total (list 1.5 2.5))")
	if err != nil || got != 4.0 {
		t.Errorf("(total ...) = %v, %v; want 4", got, err)
	}
	if _, err := e.Eval(`(refuse "x")`); !errors.Is(err, failure) {
		t.Errorf("(refuse) = %v, want the host error", err)
	}
}

func TestBindRejects(t *testing.T) {
	tests := []struct {
		name string
		fn   any
	}{
		{"not a function", 3},
		{"variadic", func(xs ...int) int { return 0 }},
		{"no result", func(int) {}},
		{"second result not error", func(int) (int, int) { return 0, 0 }},
		{"unsupported argument", func(map[string]int) int { return 0 }},
		{"unsupported result", func(int) chan int { return nil }},
	}
	for _, tt := range tests {
		if err := pipevo.New().Bind("f", tt.fn); err == nil {
			t.Errorf("%s: Bind succeeded", tt.name)
		}
	}
}

func TestMarshaller(t *testing.T) {
	m := pipevo.NewMarshaller()
	tests := []struct {
		in     any
		target reflect.Type
		want   any
	}{
		{7, reflect.TypeOf(0), 7},
		{int8(-3), reflect.TypeOf(int64(0)), int64(-3)},
		{2.5, reflect.TypeOf(0.0), 2.5},
		{true, reflect.TypeOf(false), true},
		{false, reflect.TypeOf(false), false},
		{"s", reflect.TypeOf(""), "s"},
		{[]int{1, 2}, reflect.TypeOf([]int(nil)), []int{1, 2}},
		{[]int{}, reflect.TypeOf([]int(nil)), []int{}},
	}
	for _, tt := range tests {
		obj, err := m.ToValue(tt.in)
		if err != nil {
			t.Fatalf("ToValue(%v): %v", tt.in, err)
		}
		got, err := m.FromValue(obj, tt.target)
		if err != nil {
			t.Fatalf("FromValue(%s): %v", obj, err)
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("%v as %s mismatch (-want +got):\n%s", tt.in, tt.target, diff)
		}
	}

	obj, _ := m.ToValue(65)
	if _, err := m.FromValue(obj, reflect.TypeOf("")); err == nil {
		t.Error("FixNum converted to string")
	}
	if _, err := m.ToValue(map[int]int{}); err == nil {
		t.Error("map converted")
	}
}

func TestEvolveIdentity(t *testing.T) {
	e := pipevo.New()
	result, err := e.Evolve(context.Background(), pipevo.Options{
		Target: "(-> FixNum FixNum)",
		Fitness: func(call pipevo.Func, rng *rand.Rand) (float64, error) {
			x := rng.IntN(100)
			got, err := call(x)
			if err != nil {
				return 0, err
			}
			if got == int64(x) {
				return 1, nil
			}
			return 0, nil
		},
		MaxScore:    1,
		Iterations:  5,
		Timeout:     time.Second,
		Population:  20,
		Generations: 20,
		Seed:        1,
		Workers:     2,
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Score != 1 {
		t.Fatalf("best score %v, want 1:\n%s", result.Score, result.Program)
	}
	if !strings.Contains(result.Program, "crTarget") {
		t.Errorf("program lacks the target chromosome:\n%s", result.Program)
	}
	if got, err := result.Call(7); err != nil || got != int64(7) {
		t.Errorf("Call(7) = %v, %v; want 7", got, err)
	}
}

func TestEvolveRejectsOptions(t *testing.T) {
	fitness := func(pipevo.Func, *rand.Rand) (float64, error) { return 0, nil }
	tests := []struct {
		name string
		opts pipevo.Options
	}{
		{"no fitness", pipevo.Options{Target: "(-> FixNum FixNum)"}},
		{"bad target", pipevo.Options{Target: "(-> FixNum", Fitness: fitness}},
		{"target not a function", pipevo.Options{Target: "FixNum", Fitness: fitness}},
	}
	for _, tt := range tests {
		if _, err := pipevo.New().Evolve(context.Background(), tt.opts); err == nil {
			t.Errorf("%s: Evolve succeeded", tt.name)
		}
	}
}
