package evaluator_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/funvibe/pipevo/internal/evaluator"
	"github.com/funvibe/pipevo/internal/parser"
)

func run(t *testing.T, env *evaluator.Environment, src string) (evaluator.Object, error) {
	t.Helper()
	forms, err := parser.ParseAll(src)
	if err != nil {
		t.Fatalf("ParseAll(%q): %v", src, err)
	}
	return evaluator.EvalForms(env, forms)
}

func TestEval(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"fixnum", "(+ 1 2)", "3"},
		{"promote", "(+ 1 2.5)", "3.5"},
		{"integer division", "(/ 7 2)", "3"},
		{"real division", "(/ 7.0 2)", "3.5"},
		{"relational", "(< 1 2.5)", "#t"},
		{"relational false", "(>= 1 2)", "()"},
		{"min max", "(list (min 3 4) (max 3.0 4))", "(3 4.0)"},
		{"abs", "(list (abs -3) (abs -2.5))", "(3 2.5)"},
		{"rounding", "(list (floor 2.7) (ciel 2.1) (round 2.5) (round -2.5) (trunc -2.7))", "(2 3 3 -2 -2)"},
		{"real funcs accept fixnums", "(pow 2 10)", "1024.0"},
		{"not", "(list (not ()) (not 1))", "(#t ())"},
		{"if without else", "(if () 1)", "()"},
		{"if", "(if #t 1 2)", "1"},
		{"cond", "(cond ((= 1 2) 'a) ((= 1 1) 'b))", "b"},
		{"cond no match", "(cond (() 1))", "()"},
		{"and", "(list (and 1 2) (and 1 ()))", "(#t ())"},
		{"or", "(list (or () 2) (or () ()))", "(#t ())"},
		{"quote", "'(a . b)", "(a . b)"},
		{"let", "(let ((x 1) (y 2)) (+ x y))", "3"},
		{"let parallel", "(define x 10) (let ((x 1) (y x)) y)", "10"},
		{"let sequential", "(define x 10) (let* ((x 1) (y x)) y)", "1"},
		{"lambda", "((lambda (x y) (* x y)) 6 7)", "42"},
		{"rest", "((lambda (x . r) r) 1 2 3)", "(2 3)"},
		{"closure", "(define (adder n) (lambda (x) (+ x n))) ((adder 3) 4)", "7"},
		{"define value", "(define x (* 2 21)) x", "42"},
		{"define returns name", "(define (f) 1)", "f"},
		{"recursion", "(define (fact n) (if (< n 2) 1 (* n (fact (- n 1))))) (fact 10)", "3628800"},
		{"labels", "(labels ((even (n) (if (= n 0) #t (odd (- n 1)))) (odd (n) (if (= n 0) () (even (- n 1))))) (even 10))", "#t"},
		{"cons", "(list (car (cons 1 2)) (cdr (cons 1 2)))", "(1 2)"},
		{"predicates", "(list (isList? '(1 2)) (isList? (cons 1 2)) (isFn? car) (isMacro? if) (isSym? 'a) (isNull? ()))", "(#t () #t #t #t #t)"},
		{"number predicates", "(list (isFixNum? 1) (isReal? 1) (isString? \"s\"))", "(#t () #t)"},
		{"data head", "(1 2 3)", "(1 2 3)"},
		{"library", "(list (length '(1 2 3)) (first '(1 2)) (last '(1 2)) (nth '(4 5 6) 1) (reverse '(1 2)))", "(3 1 2 5 (2 1))"},
		{"map", "(map (lambda (x) (* x x)) '(1 2 3))", "(1 4 9)"},
		{"reduce", "(reduce + '(1 2 3) 0)", "6"},
		{"remove", "(remove '(1 2 3 4) (lambda (x) (> x 2)))", "(1 2)"},
		{"append", "(append '(1 2) 3)", "(1 2 3)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := run(t, evaluator.NewBaseEnvironment(), tt.src)
			if err != nil {
				t.Fatalf("eval %q: %v", tt.src, err)
			}
			if got.String() != tt.want {
				t.Errorf("eval %q = %s, want %s", tt.src, got, tt.want)
			}
		})
	}
}

func TestEvalErrors(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		target any
	}{
		{"unbound", "(foo 1)", new(*evaluator.LookupError)},
		{"insufficient", "((lambda (x y) x) 1)", new(*evaluator.InvocationError)},
		{"too many", "((lambda (x) x) 1 2)", new(*evaluator.InvocationError)},
		{"builtin arity", "(car)", new(*evaluator.InvocationError)},
		{"division by zero", "(/ 1 0)", new(*evaluator.InvocationError)},
		{"bad operands", "(+ 1 \"a\")", new(*evaluator.InvocationError)},
		{"car of atom", "(car 1)", new(*evaluator.InvocationError)},
		{"malformed if", "(if)", new(*evaluator.SyntaxError)},
		{"malformed let", "(let ((x)) x)", new(*evaluator.SyntaxError)},
		{"malformed define", "(define 1 2)", new(*evaluator.SyntaxError)},
		{"empty and", "(and)", new(*evaluator.SyntaxError)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, evaluator.NewBaseEnvironment(), tt.src)
			if err == nil {
				t.Fatalf("eval %q should fail", tt.src)
			}
			if !errors.As(err, tt.target) {
				t.Errorf("eval %q: unexpected error %T: %v", tt.src, err, err)
			}
		})
	}
}

func TestInvocationReason(t *testing.T) {
	_, err := run(t, evaluator.NewBaseEnvironment(), "((lambda (x y) x) 1)")
	var ie *evaluator.InvocationError
	if !errors.As(err, &ie) || ie.Reason != "Insufficient Arguments" {
		t.Errorf("got %v", err)
	}
}

const loop = "(define (loop n) (if (= n 0) 'done (loop (- n 1))))"

func TestTailCalls(t *testing.T) {
	env := evaluator.NewRunFrame(context.Background(), evaluator.NewBaseEnvironment())
	got, err := run(t, env, loop+" (loop 100000)")
	if err != nil {
		t.Fatalf("tail recursion failed: %v", err)
	}
	if got != evaluator.Symbol("done") {
		t.Errorf("got %v, want done", got)
	}

	got, err = run(t, env, "(define (count n acc) (cond ((= n 0) acc) (#t (let ((m (- n 1))) (count m (+ acc 1)))))) (count 50000 0)")
	if err != nil {
		t.Fatalf("tail call through cond and let failed: %v", err)
	}
	if got != evaluator.FixNum(50000) {
		t.Errorf("got %v, want 50000", got)
	}
}

func TestDepthLimitWithoutTails(t *testing.T) {
	_, err := run(t, evaluator.NewBaseEnvironment(), loop+" (loop 100000)")
	var ie *evaluator.InvocationError
	if !errors.As(err, &ie) {
		t.Fatalf("expected a depth error, got %v", err)
	}
}

func TestAbort(t *testing.T) {
	ctx, cancel := context.WithCancelCause(context.Background())
	env := evaluator.NewRunFrame(ctx, evaluator.NewBaseEnvironment())
	if _, err := run(t, env, "(define (spin) (spin))"); err != nil {
		t.Fatal(err)
	}
	timer := time.AfterFunc(20*time.Millisecond, func() { cancel(evaluator.ErrTimeout) })
	defer timer.Stop()

	_, err := run(t, env, "(spin)")
	if !errors.Is(err, evaluator.ErrTimeout) {
		t.Errorf("spin returned %v, want ErrTimeout", err)
	}
}

func TestAbortedBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancelCause(context.Background())
	cancel(evaluator.ErrAborted)
	env := evaluator.NewRunFrame(ctx, evaluator.NewBaseEnvironment())
	if _, err := run(t, env, "(+ 1 2)"); !errors.Is(err, evaluator.ErrAborted) {
		t.Errorf("got %v, want ErrAborted", err)
	}
}

func TestApply(t *testing.T) {
	env := evaluator.NewRunFrame(context.Background(), evaluator.NewBaseEnvironment())
	if _, err := run(t, env, loop); err != nil {
		t.Fatal(err)
	}
	fn, err := env.Lookup("loop")
	if err != nil {
		t.Fatal(err)
	}
	got, err := evaluator.Apply(env, fn, evaluator.FixNum(20000))
	if err != nil || got != evaluator.Symbol("done") {
		t.Errorf("Apply = %v, %v", got, err)
	}

	cons, err := env.Lookup("cons")
	if err != nil {
		t.Fatal(err)
	}
	got, err = evaluator.Apply(env, cons, evaluator.Symbol("a"), evaluator.List(evaluator.FixNum(1)))
	if err != nil || got.String() != "(a 1)" {
		t.Errorf("Apply(cons) = %v, %v", got, err)
	}
}

func TestShadow(t *testing.T) {
	outer := evaluator.NewBaseEnvironment()
	outer.Set("x", evaluator.FixNum(1))
	inner := evaluator.NewEnclosedEnvironment(outer)
	inner.Shadow("x")
	if _, ok := inner.Get("x"); ok {
		t.Errorf("shadowed name should not be visible")
	}
	var le *evaluator.LookupError
	if _, err := inner.Lookup("x"); !errors.As(err, &le) || !le.Shadowed {
		t.Errorf("Lookup of a shadowed name = %v, want a shadowed LookupError", err)
	}
	if _, err := inner.Lookup("y"); !errors.As(err, &le) || le.Shadowed {
		t.Errorf("Lookup of an undefined name = %v, want a plain LookupError", err)
	}
	inner.Set("x", evaluator.FixNum(2))
	if v, _ := inner.Get("x"); v != evaluator.FixNum(2) {
		t.Errorf("Get after Set = %v", v)
	}
}

func TestCompileKeepsParametersSymbolic(t *testing.T) {
	env := evaluator.NewBaseEnvironment()
	if _, err := run(t, env, "(define x 100) (define (f x) (+ x 1))"); err != nil {
		t.Fatal(err)
	}
	got, err := run(t, env, "(f 1)")
	if err != nil || got != evaluator.FixNum(2) {
		t.Errorf("(f 1) = %v, %v", got, err)
	}
}
