// Package evolve runs the evolution loop: it scores populations of genomes
// concurrently, breeds and mutates them and keeps track of the best.
package evolve

import (
	"time"

	"github.com/funvibe/pipevo/internal/builder"
	"github.com/funvibe/pipevo/internal/entropy"
	"github.com/funvibe/pipevo/internal/evaluator"
	"github.com/funvibe/pipevo/internal/genes"
	"github.com/funvibe/pipevo/internal/logutil"
	"github.com/funvibe/pipevo/internal/symbols"
	"github.com/funvibe/pipevo/internal/typesystem"
)

var logger = logutil.GetLogger("[evolve] ")

// Runner is a fitness provider. Run is called concurrently from several
// workers and must not change shared state.
type Runner interface {
	Registry() *symbols.Registry
	Environment() *evaluator.Environment
	// Run scores the function bound to entryPoint in env.
	Run(env *evaluator.Environment, entryPoint string, rng *entropy.Entropy) (float64, error)
	TargetType() *typesystem.Function
	MaxScore() float64
	Iterations() int
	// Timeout is the allowance of one iteration. Zero disables the watchdog.
	Timeout() time.Duration
	Constraints() []builder.Constraint
}

// Evaluation is a scored genome.
type Evaluation struct {
	Score  float64
	Genome *genes.Genome
}

// Reporter observes an evolution run.
type Reporter interface {
	OnFail(err error, context string)
	Notify(msg string)
	UpdateBest(best Evaluation)
	UpdateProgress(current, total int)
	Push(name string)
	Pop()
	CurrentPopulation(evaluated []Evaluation)
}

// NopReporter ignores everything.
type NopReporter struct{}

func (NopReporter) OnFail(error, string)           {}
func (NopReporter) Notify(string)                  {}
func (NopReporter) UpdateBest(Evaluation)          {}
func (NopReporter) UpdateProgress(int, int)        {}
func (NopReporter) Push(string)                    {}
func (NopReporter) Pop()                           {}
func (NopReporter) CurrentPopulation([]Evaluation) {}

// overrides replaces the iteration count and timeout of a runner.
type overrides struct {
	Runner
	iterations int
	timeout    time.Duration
}

func (o *overrides) Iterations() int {
	if o.iterations > 0 {
		return o.iterations
	}
	return o.Runner.Iterations()
}

func (o *overrides) Timeout() time.Duration {
	if o.timeout > 0 {
		return o.timeout
	}
	return o.Runner.Timeout()
}

// WithOverrides returns runner with its iteration count and timeout replaced
// by the non-zero values given.
func WithOverrides(runner Runner, iterations int, timeout time.Duration) Runner {
	if iterations <= 0 && timeout <= 0 {
		return runner
	}
	return &overrides{Runner: runner, iterations: iterations, timeout: timeout}
}
