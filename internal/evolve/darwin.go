package evolve

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/funvibe/pipevo/internal/builder"
	"github.com/funvibe/pipevo/internal/config"
	"github.com/funvibe/pipevo/internal/entropy"
	"github.com/funvibe/pipevo/internal/evaluator"
	"github.com/funvibe/pipevo/internal/genes"
	"github.com/funvibe/pipevo/internal/typesystem"
)

const (
	// maxBuildAttempts bounds retries of one initial genome.
	maxBuildAttempts = 100
	// maxMutationAttempts bounds retries of one mutation. The genome is kept
	// unchanged after that.
	maxMutationAttempts = 10
)

// Darwin drives the evolution of populations for one runner.
type Darwin struct {
	runner    Runner
	reporter  Reporter
	genomes   *builder.GenomeBuilder
	mutator   *Mutator
	evaluator *Evaluator
	survival  config.SurvivalRatios
	rng       *entropy.Entropy
	store     PopulationStore

	mu      sync.Mutex
	stopped bool
	abort   context.CancelCauseFunc
}

// NewDarwin wires the builders, mutator and evaluator described by
// settings around runner.
func NewDarwin(runner Runner, reporter Reporter, settings *config.Settings) (*Darwin, error) {
	probs, err := builder.NewTypeProbabilities(settings.Types)
	if err != nil {
		return nil, err
	}
	runner = WithOverrides(runner, settings.Iterations, settings.Timeout)
	rng := entropy.New(settings.Seed)

	types := builder.NewTypeBuilder(rng, probs, runner.Constraints())
	random := builder.NewGeneRandomizer(rng, settings.Genes)
	genomes := builder.NewGenomeBuilder(runner.Registry(), types, random, settings.BuildDepth)
	return &Darwin{
		runner:    runner,
		reporter:  reporter,
		genomes:   genomes,
		mutator:   NewMutator(NewMutation(settings.Mutation, genomes), runner.Registry()),
		evaluator: NewEvaluator(runner, reporter, settings.Workers),
		survival:  settings.Survival,
		rng:       rng,
	}, nil
}

// SetStore makes every generation persist through store before it is
// evaluated.
func (d *Darwin) SetStore(store PopulationStore) { d.store = store }

func (d *Darwin) target() *typesystem.Function { return d.runner.TargetType() }

// InitializePopulation builds size random genomes sharing one structure.
// Genomes that cannot be built are reported and rebuilt.
func (d *Darwin) InitializePopulation(size int) (*Population, error) {
	d.start()
	population := NewPopulation(d.target())
	structure := d.genomes.BuildGenomeStructure(d.target())

	d.reporter.Push("Generate Population")
	defer d.reporter.Pop()
	failures := 0
	for population.Len() < size && !d.isStopped() {
		d.reporter.UpdateProgress(population.Len(), size)
		genome, err := d.genomes.Build(structure)
		if err != nil {
			var exhausted *builder.BuildExhaustionError
			if !errors.As(err, &exhausted) {
				return nil, err
			}
			d.reporter.OnFail(err, "Generating population: ")
			if failures++; failures >= maxBuildAttempts*size {
				return nil, fmt.Errorf("generating population: %w", err)
			}
			continue
		}
		population.Add(genome)
	}
	return population, nil
}

// Evolve runs up to generations generations starting from population and
// returns the best evaluation seen. It stops early once the runner's
// maximum score is reached or Stop is called; a Stop made before Evolve
// starts holds until the next InitializePopulation. Cancelling ctx aborts
// the run with ErrAborted.
func (d *Darwin) Evolve(ctx context.Context, population *Population, generations int) (*Evaluation, error) {
	if !population.IsTarget(d.target()) {
		d.reporter.Notify("Incompatible population.")
		return nil, NewTargetMismatchError(population.Target, d.target())
	}
	ctx, abort := context.WithCancelCause(ctx)
	defer abort(nil)
	d.mu.Lock()
	d.abort = abort
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		d.abort = nil
		d.mu.Unlock()
	}()

	var best *Evaluation
	d.reporter.UpdateProgress(0, generations)
	for i := 0; i < generations && !d.isStopped(); i++ {
		next, err := d.generation(ctx, i, population, &best)
		if errors.Is(err, evaluator.ErrAborted) && d.isStopped() {
			return best, nil
		}
		if err != nil {
			return best, err
		}
		if next == nil {
			break
		}
		population = next
		d.reporter.UpdateProgress(i+1, generations)
	}
	return best, nil
}

// generation evaluates population and breeds the next one. It returns nil
// once the best score reached the runner's maximum.
func (d *Darwin) generation(ctx context.Context, i int, population *Population, best **Evaluation) (*Population, error) {
	d.reporter.Push(fmt.Sprintf("Generation %d", i))
	defer d.reporter.Pop()
	d.reporter.UpdateProgress(0, 2)

	if d.store != nil {
		if err := d.store.SavePopulation(i, population); err != nil {
			d.reporter.OnFail(err, "Storing population: ")
		}
	}

	d.reporter.Push("Evaluating")
	evaluated, err := d.evaluator.Evaluate(ctx, population.Genomes, d.rng)
	d.reporter.Pop()
	if err != nil {
		return nil, err
	}
	if len(evaluated) == 0 {
		return nil, nil
	}

	if current := evaluated[0]; *best == nil || current.Score > (*best).Score {
		*best = &current
		d.reporter.UpdateBest(current)
		logger.Printf("generation %d: new best score %g", i, current.Score)
	}
	d.reporter.CurrentPopulation(evaluated)
	if (*best).Score >= d.runner.MaxScore() {
		return nil, nil
	}

	d.reporter.UpdateProgress(1, 2)
	return d.NextPopulation(evaluated)
}

// NextPopulation builds the next generation from ranked evaluations:
// survivors, bred offspring, mutated survivors and mutants.
func (d *Darwin) NextPopulation(evaluated []Evaluation) (*Population, error) {
	count := len(evaluated)
	survivors := max(int(float64(count)*d.survival.Survivors), 1)
	mutatedSurvivors := int(float64(count) * d.survival.MutatedSurvivors)
	mutants := int(float64(count) * d.survival.Mutants)
	offspring := max(count-(survivors+mutatedSurvivors+mutants), 0)

	d.reporter.Push("Breeding/mutating")
	defer d.reporter.Pop()
	d.reporter.UpdateProgress(0, 4)

	next, err := d.breed(evaluated, offspring, survivors)
	if err != nil {
		return nil, err
	}
	d.reporter.UpdateProgress(1, 4)
	for i := 0; i < survivors; i++ {
		next.Add(evaluated[i].Genome)
	}

	d.reporter.UpdateProgress(2, 4)
	d.reporter.Push("Mutating Survivors")
	for i := 0; i < mutatedSurvivors; i++ {
		next.Add(d.mutate(evaluated[d.rng.RandomInt(survivors)].Genome))
		d.reporter.UpdateProgress(i, mutatedSurvivors)
	}
	d.reporter.Pop()

	d.reporter.UpdateProgress(3, 4)
	d.reporter.Push("Mutating")
	for i := 0; i < mutants; i++ {
		next.Add(d.mutate(evaluated[d.rng.RandomInt(count)].Genome))
		d.reporter.UpdateProgress(i, mutants)
	}
	d.reporter.Pop()
	return next, nil
}

// breed produces count children of parents drawn from the first selectFrom
// evaluations. The first crossover-only share of them is left unmutated.
func (d *Darwin) breed(evaluated []Evaluation, count, selectFrom int) (*Population, error) {
	pure := int(d.survival.CrossoverOnly * float64(count))
	offspring := NewPopulation(d.target())

	d.reporter.Push("Breeding")
	defer d.reporter.Pop()
	for i := 0; i < count; i++ {
		a := evaluated[d.rng.RandomInt(selectFrom)].Genome
		b := evaluated[d.rng.RandomInt(selectFrom)].Genome
		child, err := Breed(a, b, d.target(), d.rng)
		if err != nil {
			return nil, err
		}
		if i >= pure {
			child = d.mutate(child)
		}
		offspring.Add(child)
	}
	return offspring, nil
}

// mutate retries failed mutations and falls back to the genome itself.
func (d *Darwin) mutate(genome *genes.Genome) *genes.Genome {
	for attempt := 0; attempt < maxMutationAttempts; attempt++ {
		mutated, err := d.mutator.Mutate(genome, d.target(), true)
		if err == nil {
			return mutated
		}
		d.reporter.OnFail(err, "Mutating: ")
		d.reporter.Notify("Failure during mutation.")
	}
	return genome
}

func (d *Darwin) start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = false
}

func (d *Darwin) isStopped() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stopped
}

// Stop ends a running Evolve after aborting the current evaluation. Evolve
// then returns the best evaluation so far.
func (d *Darwin) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.reporter.Notify("Aborting...")
	if d.abort != nil {
		d.abort(evaluator.ErrAborted)
	}
}
