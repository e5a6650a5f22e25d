package evolve

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/funvibe/pipevo/internal/config"
	"github.com/funvibe/pipevo/internal/entropy"
	"github.com/funvibe/pipevo/internal/evaluator"
	"github.com/funvibe/pipevo/internal/genes"
	"github.com/funvibe/pipevo/internal/symbols"
	"github.com/funvibe/pipevo/internal/typesystem"
)

// Evaluator scores genomes on a pool of workers. Workers pull tasks in
// chunks from a shared cursor; the calling goroutine acts as watchdog.
type Evaluator struct {
	runner   Runner
	reporter Reporter
	workers  int

	mu     sync.Mutex
	tasks  []*Task
	cursor int
	chunk  int
}

// NewEvaluator returns an evaluator with the given pool size. A size below
// one uses runtime.NumCPU().
func NewEvaluator(runner Runner, reporter Reporter, workers int) *Evaluator {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	return &Evaluator{runner: runner, reporter: reporter, workers: workers}
}

// pollInterval is how often the watchdog looks at running tasks.
func pollInterval(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return config.MaxWatchdogPoll
	}
	return max(min(timeout/2, config.MaxWatchdogPoll), time.Millisecond)
}

// Evaluate scores every genome and returns them ranked by descending score.
// Ties keep their input order. Cancelling ctx aborts running iterations,
// drops the remaining work and returns ErrAborted.
func (e *Evaluator) Evaluate(ctx context.Context, population []*genes.Genome, rng *entropy.Entropy) ([]Evaluation, error) {
	e.setup(population, rng)

	runCtx, abort := context.WithCancelCause(ctx)
	defer abort(nil)

	var g errgroup.Group
	for i := 0; i < e.workers; i++ {
		g.Go(func() error {
			e.work(runCtx)
			return nil
		})
	}
	finished := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(finished)
	}()

	timeout := e.runner.Timeout()
	ticker := time.NewTicker(pollInterval(timeout))
	defer ticker.Stop()
watch:
	for {
		select {
		case <-finished:
			break watch
		case <-ctx.Done():
			abort(evaluator.ErrAborted)
			<-finished
			break watch
		case now := <-ticker.C:
			for _, t := range e.tasks {
				t.checkTime(now, timeout)
			}
		}
	}

	if ctx.Err() != nil {
		return nil, fmt.Errorf("evaluating population: %w", evaluator.ErrAborted)
	}
	return e.results(), nil
}

func (e *Evaluator) setup(population []*genes.Genome, rng *entropy.Entropy) {
	e.mu.Lock()
	defer e.mu.Unlock()
	iterations := e.runner.Iterations()
	e.tasks = make([]*Task, len(population))
	for i, genome := range population {
		e.tasks[i] = newTask(genome, i, iterations, rng.RandomSeed())
	}
	e.cursor = 0
	e.chunk = max(min(config.EvaluatorChunk, len(e.tasks)/e.workers), 1)
}

// assign hands out the next chunk of tasks, or nil when none are left.
func (e *Evaluator) assign() []*Task {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reporter.UpdateProgress(e.cursor, len(e.tasks))
	if e.cursor == len(e.tasks) {
		return nil
	}
	end := min(e.cursor+e.chunk, len(e.tasks))
	chunk := e.tasks[e.cursor:end]
	e.cursor = end
	return chunk
}

func (e *Evaluator) work(ctx context.Context) {
	for ctx.Err() == nil {
		chunk := e.assign()
		if chunk == nil {
			return
		}
		for _, t := range chunk {
			e.drive(ctx, t)
		}
	}
}

// drive takes a task through expression and all of its iterations.
func (e *Evaluator) drive(ctx context.Context, t *Task) {
	for ctx.Err() == nil {
		switch t.status() {
		case unexpressed:
			e.express(t)
		case expressed:
			env, entry, rng := t.begin(ctx)
			score, err := e.runner.Run(env, entry, rng)
			t.finish(score, err)
		default:
			return
		}
	}
}

func (e *Evaluator) express(t *Task) {
	env, entry, view, err := Bind(t.genome, e.runner.Registry(), e.runner.Environment(), e.runner.TargetType())
	if err != nil {
		t.failExpression(err, view)
		return
	}
	t.setExpression(env, entry, view)
}

// Bind expresses genome and evaluates every phene into a new environment
// enclosed by env. It returns that environment, the name of the entry point
// for target and the printed phenome, which is empty if expression failed.
func Bind(genome *genes.Genome, registry *symbols.Registry, env *evaluator.Environment, target *typesystem.Function) (*evaluator.Environment, string, string, error) {
	phenome, err := genome.Express(genes.NewContext(registry))
	if err != nil {
		return nil, "", "", err
	}
	view := phenomeView(phenome)

	bound := evaluator.NewEnclosedEnvironment(env)
	for _, p := range phenome {
		compiled, err := p.Form.Compile(bound)
		if err != nil {
			return nil, "", view, genes.NewExpressionError("", p.Name, err)
		}
		value, err := compiled.Eval(bound)
		if err != nil {
			return nil, "", view, genes.NewExpressionError("", p.Name, err)
		}
		if !evaluator.IsDefinition(compiled) {
			bound.Set(p.Name, value)
		}
	}

	entry, ok := genome.FindLastMatching(target)
	if !ok {
		return nil, "", view, &TargetNotFoundError{Target: target}
	}
	return bound, entry, view, nil
}

func phenomeView(phenome []genes.Phene) string {
	var sb strings.Builder
	for _, p := range phenome {
		sb.WriteString(p.Name)
		sb.WriteString(" = ")
		sb.WriteString(p.Form.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// results reports the failures of every task and ranks the genomes.
func (e *Evaluator) results() []Evaluation {
	evaluated := make([]Evaluation, len(e.tasks))
	for i, t := range e.tasks {
		shown := false
		for _, te := range t.errors {
			where := fmt.Sprintf("Genome %d: ", i)
			if !shown && te.view != "" {
				where = fmt.Sprintf("**** Genome %d ****\n%s", i, te.view) + where
				shown = true
			}
			if !errors.Is(te.err, evaluator.ErrTimeout) {
				logger.Printf("genome %d failed: %v", i, te.err)
			}
			e.reporter.OnFail(te.err, where)
		}
		evaluated[i] = Evaluation{Score: t.Score(), Genome: t.genome}
	}
	slices.SortStableFunc(evaluated, func(a, b Evaluation) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
	return evaluated
}
