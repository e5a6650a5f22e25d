package evolve

import (
	"sync"
	"time"

	"github.com/funvibe/pipevo/internal/builder"
	"github.com/funvibe/pipevo/internal/config"
	"github.com/funvibe/pipevo/internal/entropy"
	"github.com/funvibe/pipevo/internal/evaluator"
	"github.com/funvibe/pipevo/internal/genes"
	"github.com/funvibe/pipevo/internal/symbols"
	"github.com/funvibe/pipevo/internal/typesystem"
)

var (
	fixFix    = typesystem.NewFunction(typesystem.FixNum, typesystem.FixNum)
	fixFixFix = typesystem.NewFunction(typesystem.FixNum, typesystem.FixNum, typesystem.FixNum)
	realReal  = typesystem.NewFunction(typesystem.Real, typesystem.Real)
)

// testRunner scores FixNum -> FixNum programs through score, which is
// given the iteration number counted from one.
type testRunner struct {
	registry   *symbols.Registry
	env        *evaluator.Environment
	iterations int
	timeout    time.Duration
	score      func(iteration int, env *evaluator.Environment, entry string, rng *entropy.Entropy) (float64, error)

	mu    sync.Mutex
	calls int
}

func newTestRunner(iterations int, timeout time.Duration) *testRunner {
	return &testRunner{
		registry:   symbols.NewBaseRegistry(),
		env:        evaluator.NewBaseEnvironment(),
		iterations: iterations,
		timeout:    timeout,
		score:      squareScore,
	}
}

// squareScore is 1 when f(x) = x*x for a random x and 0 otherwise.
func squareScore(_ int, env *evaluator.Environment, entry string, rng *entropy.Entropy) (float64, error) {
	x := int64(rng.RandomInt(20))
	fn, err := env.Lookup(entry)
	if err != nil {
		return 0, err
	}
	result, err := evaluator.Apply(env, fn, evaluator.FixNum(x))
	if err != nil {
		return 0, err
	}
	if result == evaluator.FixNum(x*x) {
		return 1, nil
	}
	return 0, nil
}

func (r *testRunner) Registry() *symbols.Registry         { return r.registry }
func (r *testRunner) Environment() *evaluator.Environment { return r.env }
func (r *testRunner) TargetType() *typesystem.Function    { return fixFix }
func (r *testRunner) MaxScore() float64                   { return 1 }
func (r *testRunner) Iterations() int                     { return r.iterations }
func (r *testRunner) Timeout() time.Duration              { return r.timeout }
func (r *testRunner) Constraints() []builder.Constraint   { return nil }

func (r *testRunner) Run(env *evaluator.Environment, entry string, rng *entropy.Entropy) (float64, error) {
	r.mu.Lock()
	r.calls++
	iteration := r.calls
	r.mu.Unlock()
	return r.score(iteration, env, entry, rng)
}

// recorder is a Reporter keeping the failures it was told about.
type recorder struct {
	NopReporter
	mu     sync.Mutex
	failed []error
	best   []float64
}

func (r *recorder) OnFail(err error, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = append(r.failed, err)
}

func (r *recorder) UpdateBest(best Evaluation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.best = append(r.best, best.Score)
}

func target(body genes.Gene) *genes.Genome {
	fn := genes.NewFunctionGene(fixFix, "crTarget1", body, false)
	return genes.NewGenome(genes.NewChromosome(config.TargetChromosomeName, fn))
}

// squareGenome is crTarget1(x) = x*x.
func squareGenome() *genes.Genome {
	x := genes.NewLookupGene(typesystem.FixNum, "crTarget1p0", 0)
	return target(genes.NewApplicationGene(fixFixFix, genes.NewLookupGene(fixFixFix, "*", 0), x, x))
}

// constantGenome is crTarget1(x) = n.
func constantGenome(n int64) *genes.Genome {
	return target(genes.NewFixNumGenerator(0, n, n))
}

// loopGenome is crTarget1(x) = crTarget1(x), which never returns.
func loopGenome() *genes.Genome {
	x := genes.NewLookupGene(typesystem.FixNum, "crTarget1p0", 0)
	return target(genes.NewApplicationGene(fixFix, genes.NewLookupGene(fixFix, "crTarget1", 0), x))
}

// untargetedGenome holds no gene of the target type.
func untargetedGenome() *genes.Genome {
	fn := genes.NewFunctionGene(realReal, "cr1", genes.NewRealGenerator(0, 0, 1), false)
	return genes.NewGenome(genes.NewChromosome("cr", fn))
}

func testSettings() *config.Settings {
	s := config.DefaultSettings()
	s.Seed = 1
	s.Workers = 2
	return s
}

func testGenomeBuilder(registry *symbols.Registry, seed int64) *builder.GenomeBuilder {
	s := config.DefaultSettings()
	probs, err := builder.NewTypeProbabilities(s.Types)
	if err != nil {
		panic(err)
	}
	rng := entropy.New(seed)
	return builder.NewGenomeBuilder(registry, builder.NewTypeBuilder(rng, probs, nil), builder.NewGeneRandomizer(rng, s.Genes), s.BuildDepth)
}
