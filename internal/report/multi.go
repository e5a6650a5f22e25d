package report

import "github.com/funvibe/pipevo/internal/evolve"

// Multi forwards every event to each of its reporters in order.
type Multi []evolve.Reporter

// NewMulti drops nil reporters.
func NewMulti(reporters ...evolve.Reporter) Multi {
	m := make(Multi, 0, len(reporters))
	for _, r := range reporters {
		if r != nil {
			m = append(m, r)
		}
	}
	return m
}

func (m Multi) OnFail(err error, where string) {
	for _, r := range m {
		r.OnFail(err, where)
	}
}

func (m Multi) Notify(msg string) {
	for _, r := range m {
		r.Notify(msg)
	}
}

func (m Multi) UpdateBest(best evolve.Evaluation) {
	for _, r := range m {
		r.UpdateBest(best)
	}
}

func (m Multi) UpdateProgress(current, total int) {
	for _, r := range m {
		r.UpdateProgress(current, total)
	}
}

func (m Multi) Push(name string) {
	for _, r := range m {
		r.Push(name)
	}
}

func (m Multi) Pop() {
	for _, r := range m {
		r.Pop()
	}
}

func (m Multi) CurrentPopulation(evaluated []evolve.Evaluation) {
	for _, r := range m {
		r.CurrentPopulation(evaluated)
	}
}
