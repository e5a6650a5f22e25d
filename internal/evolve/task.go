package evolve

import (
	"context"
	"sync"
	"time"

	"github.com/funvibe/pipevo/internal/config"
	"github.com/funvibe/pipevo/internal/entropy"
	"github.com/funvibe/pipevo/internal/evaluator"
	"github.com/funvibe/pipevo/internal/genes"
)

type taskState int

const (
	unexpressed taskState = iota
	expressed
	running
	done
)

func (s taskState) String() string {
	switch s {
	case unexpressed:
		return "unexpressed"
	case expressed:
		return "expressed"
	case running:
		return "running"
	case done:
		return "done"
	}
	return "unknown"
}

type taskError struct {
	err  error
	view string
}

// Task is the evaluation state of one genome. Workers drive it while the
// watchdog inspects it, so every field is guarded by mu.
type Task struct {
	mu sync.Mutex

	genome     *genes.Genome
	index      int
	iterations int
	seed       int64
	state      taskState

	env   *evaluator.Environment
	entry string
	view  string

	score     float64
	completed int

	started time.Time
	cancel  context.CancelCauseFunc
	errors  []taskError
}

func newTask(genome *genes.Genome, index, iterations int, seed int64) *Task {
	return &Task{genome: genome, index: index, iterations: iterations, seed: seed}
}

func (t *Task) status() taskState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Task) setExpression(env *evaluator.Environment, entry, view string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.env, t.entry, t.view = env, entry, view
	t.state = expressed
	if t.iterations <= 0 {
		t.state = done
	}
}

func (t *Task) failExpression(err error, view string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.view = view
	t.errors = append(t.errors, taskError{err: err, view: view})
	t.state = done
}

// begin starts the next iteration: a fresh run frame over the expressed
// environment, cancelled through the returned context, and a random source
// seeded from the chain of iteration seeds.
func (t *Task) begin(ctx context.Context) (*evaluator.Environment, string, *entropy.Entropy) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rng := entropy.New(t.seed)
	t.seed = rng.RandomSeed()

	runCtx, cancel := context.WithCancelCause(ctx)
	t.cancel = cancel
	t.started = time.Now()
	t.state = running
	return evaluator.NewRunFrame(runCtx, t.env), t.entry, rng
}

// finish records the outcome of the running iteration.
func (t *Task) finish(score float64, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != running {
		return
	}
	t.cancel(nil)
	t.cancel = nil
	if err != nil {
		t.errors = append(t.errors, taskError{err: err, view: t.view})
		score = config.FailedIterationScore
	}
	t.score += score
	t.completed++
	t.state = expressed
	if t.completed >= t.iterations {
		t.state = done
	}
}

// checkTime aborts the running iteration once it exceeded allowance.
func (t *Task) checkTime(now time.Time, allowance time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == running && allowance > 0 && now.Sub(t.started) > allowance {
		t.cancel(evaluator.ErrTimeout)
	}
}

// Score is the mean iteration score. A genome that could not be expressed
// scores a penalty proportional to the iteration count.
func (t *Task) Score() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.env == nil {
		return config.ExpressionPenalty * float64(t.iterations)
	}
	if t.completed == 0 {
		return 0
	}
	return t.score / float64(t.completed)
}

func (t *Task) Errors() []error {
	t.mu.Lock()
	defer t.mu.Unlock()
	errs := make([]error, len(t.errors))
	for i, e := range t.errors {
		errs[i] = e.err
	}
	return errs
}
