// Package runners holds sample fitness providers.
package runners

import (
	"fmt"
	"sort"
	"time"

	"github.com/funvibe/pipevo/internal/builder"
	"github.com/funvibe/pipevo/internal/entropy"
	"github.com/funvibe/pipevo/internal/evaluator"
	"github.com/funvibe/pipevo/internal/evolve"
	"github.com/funvibe/pipevo/internal/symbols"
	"github.com/funvibe/pipevo/internal/typesystem"
)

// base carries what every sample runner shares: the standard registry and
// environment and the settings of a run.
type base struct {
	registry   *symbols.Registry
	env        *evaluator.Environment
	target     *typesystem.Function
	iterations int
	timeout    time.Duration
}

func newBase(target *typesystem.Function, iterations int, timeout time.Duration) base {
	return base{
		registry:   symbols.NewBaseRegistry(),
		env:        evaluator.NewBaseEnvironment(),
		target:     target,
		iterations: iterations,
		timeout:    timeout,
	}
}

func (b *base) Registry() *symbols.Registry         { return b.registry }
func (b *base) Environment() *evaluator.Environment { return b.env }
func (b *base) TargetType() *typesystem.Function    { return b.target }
func (b *base) Iterations() int                     { return b.iterations }
func (b *base) Timeout() time.Duration              { return b.timeout }
func (b *base) Constraints() []builder.Constraint   { return nil }

// call applies the entry point bound in env to args.
func call(env *evaluator.Environment, entryPoint string, args ...evaluator.Object) (evaluator.Object, error) {
	fn, err := env.Lookup(entryPoint)
	if err != nil {
		return nil, err
	}
	return evaluator.Apply(env, fn, args...)
}

// Square rewards programs computing x*x.
type Square struct {
	base
}

func NewSquare() *Square {
	return &Square{base: newBase(typesystem.NewFunction(typesystem.FixNum, typesystem.FixNum), 5, time.Second)}
}

func (s *Square) MaxScore() float64 { return 1 }

// Run scores 1/(1+|f(x)-x*x|) for a random x in [0, 20). A result that is
// not a FixNum scores zero.
func (s *Square) Run(env *evaluator.Environment, entryPoint string, rng *entropy.Entropy) (float64, error) {
	x := int64(rng.RandomInt(20))
	result, err := call(env, entryPoint, evaluator.FixNum(x))
	if err != nil {
		return 0, err
	}
	n, ok := result.(evaluator.FixNum)
	if !ok {
		return 0, nil
	}
	diff := int64(n) - x*x
	if diff < 0 {
		diff = -diff
	}
	return 1 / (1 + float64(diff)), nil
}

// Parity rewards programs telling whether a number is even.
type Parity struct {
	base
}

func NewParity() *Parity {
	return &Parity{base: newBase(typesystem.NewFunction(typesystem.Bool, typesystem.FixNum), 10, time.Second)}
}

func (p *Parity) MaxScore() float64 { return 1 }

// Run scores 1 when f(x) is true exactly for even x, for a random x in
// [0, 100).
func (p *Parity) Run(env *evaluator.Environment, entryPoint string, rng *entropy.Entropy) (float64, error) {
	x := int64(rng.RandomInt(100))
	result, err := call(env, entryPoint, evaluator.FixNum(x))
	if err != nil {
		return 0, err
	}
	if !evaluator.IsNull(result) == (x%2 == 0) {
		return 1, nil
	}
	return 0, nil
}

var byName = map[string]func() evolve.Runner{
	"square": func() evolve.Runner { return NewSquare() },
	"parity": func() evolve.Runner { return NewParity() },
}

// Names lists the runners New knows.
func Names() []string {
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New returns the runner registered under name.
func New(name string) (evolve.Runner, error) {
	mk, ok := byName[name]
	if !ok {
		return nil, fmt.Errorf("unknown runner %q, known runners: %v", name, Names())
	}
	return mk(), nil
}
