// Package pipevo embeds the genetic programming engine in Go programs:
// host functions become building blocks and a Go fitness function scores
// the evolved programs.
package pipevo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"reflect"
	"time"

	"github.com/funvibe/pipevo/internal/builder"
	"github.com/funvibe/pipevo/internal/config"
	"github.com/funvibe/pipevo/internal/entropy"
	"github.com/funvibe/pipevo/internal/evaluator"
	"github.com/funvibe/pipevo/internal/evolve"
	"github.com/funvibe/pipevo/internal/genes"
	"github.com/funvibe/pipevo/internal/parser"
	"github.com/funvibe/pipevo/internal/prettyprinter"
	"github.com/funvibe/pipevo/internal/report"
	"github.com/funvibe/pipevo/internal/symbols"
	"github.com/funvibe/pipevo/internal/typesystem"
)

// Func calls an evolved function with Go arguments.
type Func func(args ...any) (any, error)

// Fitness scores one iteration of a candidate. Inputs should be drawn from
// rng so that runs are reproducible.
type Fitness func(call Func, rng *rand.Rand) (float64, error)

// Options describe one evolution. Zero values keep the settings defaults.
type Options struct {
	// Target is the type of the evolved function, e.g. "(-> FixNum FixNum)".
	Target   string
	Fitness  Fitness
	MaxScore float64

	Iterations  int
	Timeout     time.Duration
	Population  int
	Generations int
	Seed        int64
	Workers     int
	// SettingsFile is a YAML settings file applied before the fields above.
	SettingsFile string
	// Progress receives console progress when set.
	Progress io.Writer
}

// Result is the best program found.
type Result struct {
	Score   float64
	Program string
	// Call invokes the best program's entry point.
	Call Func
}

// Engine holds the environment and typed registry the programs are built
// from.
type Engine struct {
	registry   *symbols.Registry
	env        *evaluator.Environment
	marshaller *Marshaller
}

// New creates an engine with the built-in library.
func New() *Engine {
	return &Engine{
		registry:   symbols.NewBaseRegistry(),
		env:        evaluator.NewBaseEnvironment(),
		marshaller: NewMarshaller(),
	}
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Bind makes the Go function fn callable as name, both from Eval and as a
// building block of evolved programs. fn takes and returns integers,
// floats, booleans, strings or slices of them, optionally followed by an
// error result.
func (e *Engine) Bind(name string, fn any) error {
	v := reflect.ValueOf(fn)
	t := v.Type()
	if t.Kind() != reflect.Func || t.IsVariadic() {
		return fmt.Errorf("bind %s: need a non-variadic function, got %T", name, fn)
	}
	if t.NumOut() == 0 || t.NumOut() > 2 || t.NumOut() == 2 && t.Out(1) != errorType {
		return fmt.Errorf("bind %s: need one result, optionally followed by an error", name)
	}

	args := make([]typesystem.Type, t.NumIn())
	for i := range args {
		var err error
		if args[i], err = TypeOf(t.In(i)); err != nil {
			return fmt.Errorf("bind %s argument %d: %w", name, i, err)
		}
	}
	ret, err := TypeOf(t.Out(0))
	if err != nil {
		return fmt.Errorf("bind %s result: %w", name, err)
	}

	e.env.Set(name, &evaluator.Builtin{Name: name, Arity: t.NumIn(), Fn: func(_ *evaluator.Environment, objs []evaluator.Object) (evaluator.Object, error) {
		return e.hostCall(name, v, objs)
	}})
	e.registry.Add(name, typesystem.NewFunction(ret, args...))
	return nil
}

func (e *Engine) hostCall(name string, fn reflect.Value, args []evaluator.Object) (evaluator.Object, error) {
	t := fn.Type()
	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		val, err := e.marshaller.FromValue(arg, t.In(i))
		if err != nil {
			return nil, evaluator.NewInvocationError(name, err.Error(), arg)
		}
		if val == nil {
			in[i] = reflect.Zero(t.In(i))
		} else {
			in[i] = reflect.ValueOf(val)
		}
	}
	out := fn.Call(in)
	if len(out) == 2 && !out[1].IsNil() {
		return nil, fmt.Errorf("%s: %w", name, out[1].Interface().(error))
	}
	return e.marshaller.ToValue(out[0].Interface())
}

// Eval evaluates every form of src and returns the last result.
func (e *Engine) Eval(src string) (any, error) {
	forms, err := parser.ParseAll(src)
	if err != nil {
		return nil, err
	}
	result, err := evaluator.EvalForms(e.env, forms)
	if err != nil {
		return nil, err
	}
	return e.marshaller.FromValue(result, nil)
}

func (e *Engine) caller(env *evaluator.Environment, entry string) Func {
	return func(args ...any) (any, error) {
		fn, err := env.Lookup(entry)
		if err != nil {
			return nil, err
		}
		objs := make([]evaluator.Object, len(args))
		for i, arg := range args {
			if objs[i], err = e.marshaller.ToValue(arg); err != nil {
				return nil, err
			}
		}
		result, err := evaluator.Apply(env, fn, objs...)
		if err != nil {
			return nil, err
		}
		return e.marshaller.FromValue(result, nil)
	}
}

// runner adapts a Fitness to the evolution engine.
type runner struct {
	engine     *Engine
	target     *typesystem.Function
	fitness    Fitness
	maxScore   float64
	iterations int
	timeout    time.Duration
}

func (r *runner) Registry() *symbols.Registry         { return r.engine.registry }
func (r *runner) Environment() *evaluator.Environment { return r.engine.env }
func (r *runner) TargetType() *typesystem.Function    { return r.target }
func (r *runner) MaxScore() float64                   { return r.maxScore }
func (r *runner) Iterations() int                     { return r.iterations }
func (r *runner) Timeout() time.Duration              { return r.timeout }
func (r *runner) Constraints() []builder.Constraint   { return nil }

func (r *runner) Run(env *evaluator.Environment, entry string, rng *entropy.Entropy) (float64, error) {
	seed := uint64(rng.RandomSeed())
	return r.fitness(r.engine.caller(env, entry), rand.New(rand.NewPCG(seed, seed>>1)))
}

func (e *Engine) settings(opts Options) (*config.Settings, error) {
	s := config.DefaultSettings()
	if opts.SettingsFile != "" {
		var err error
		if s, err = config.LoadSettings(opts.SettingsFile); err != nil {
			return nil, err
		}
	}
	for _, o := range []struct {
		from int
		to   *int
	}{
		{opts.Population, &s.Population},
		{opts.Generations, &s.Generations},
		{opts.Workers, &s.Workers},
	} {
		if o.from > 0 {
			*o.to = o.from
		}
	}
	if opts.Seed != 0 {
		s.Seed = opts.Seed
	}
	return s, nil
}

// Evolve searches for a function of the target type maximizing the fitness.
// It stops after the configured generations, once MaxScore is reached, or
// when ctx is cancelled, which returns an error wrapping the cancellation.
func (e *Engine) Evolve(ctx context.Context, opts Options) (*Result, error) {
	if opts.Fitness == nil {
		return nil, errors.New("evolve: no fitness function")
	}
	t, err := typesystem.Parse(opts.Target)
	if err != nil {
		return nil, fmt.Errorf("evolve: target: %w", err)
	}
	target, ok := t.(*typesystem.Function)
	if !ok {
		return nil, fmt.Errorf("evolve: target %s is not a function type", t)
	}
	s, err := e.settings(opts)
	if err != nil {
		return nil, err
	}
	r := &runner{
		engine:     e,
		target:     target,
		fitness:    opts.Fitness,
		maxScore:   opts.MaxScore,
		iterations: max(opts.Iterations, 1),
		timeout:    opts.Timeout,
	}

	var reporter evolve.Reporter = evolve.NopReporter{}
	if opts.Progress != nil {
		console := report.NewConsole(opts.Progress, e.registry)
		defer console.Done()
		reporter = console
	}
	darwin, err := evolve.NewDarwin(r, reporter, s)
	if err != nil {
		return nil, err
	}
	population, err := darwin.InitializePopulation(s.Population)
	if err != nil {
		return nil, err
	}
	best, err := darwin.Evolve(ctx, population, s.Generations)
	if err != nil {
		return nil, err
	}
	if best == nil {
		return nil, errors.New("evolve: no generation was evaluated")
	}

	env, entry, _, err := evolve.Bind(best.Genome, e.registry, e.env, target)
	if err != nil {
		return nil, err
	}
	phenome, err := best.Genome.Express(genes.NewContext(e.registry))
	if err != nil {
		return nil, err
	}
	return &Result{
		Score:   best.Score,
		Program: prettyprinter.Program(phenome, prettyprinter.DefaultWidth),
		Call:    e.caller(env, entry),
	}, nil
}
