package store

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/funvibe/pipevo/internal/evolve"
	"github.com/funvibe/pipevo/internal/symbols"
	"github.com/funvibe/pipevo/internal/typesystem"
)

var createHistory = []string{
	`create table if not exists runs (
		id text primary key,
		runner text not null,
		target text not null,
		seed integer not null,
		started text not null
	)`,
	`create table if not exists generations (
		run text not null references runs(id),
		generation integer not null,
		size integer not null,
		best real not null,
		mean real not null,
		worst real not null,
		failures integer not null,
		program text not null,
		primary key (run, generation)
	)`,
}

// Run is one recorded evolution run.
type Run struct {
	ID      string
	Runner  string
	Target  string
	Seed    int64
	Started time.Time
}

// Generation holds the statistics of one evaluated generation.
type Generation struct {
	Number   int
	Size     int
	Best     float64
	Mean     float64
	Worst    float64
	Failures int
	Program  string
}

// History records a row per evaluated generation of the current run. It is
// an evolve.Reporter; write failures are logged and kept for Err.
type History struct {
	evolve.NopReporter

	db       *sql.DB
	registry *symbols.Registry

	mu         sync.Mutex
	run        string
	generation int
	failures   int
	err        error
}

func OpenHistory(path string, registry *symbols.Registry) (*History, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	for _, q := range createHistory {
		if _, err := db.Exec(q); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize history: %w", err)
		}
	}
	return &History{db: db, registry: registry}, nil
}

func (h *History) Close() error { return h.db.Close() }

// StartRun records a new run and makes it current. An empty id is replaced
// with a random one.
func (h *History) StartRun(id, runner string, target typesystem.Type, seed int64) (string, error) {
	if id == "" {
		id = uuid.NewString()
	}
	_, err := h.db.Exec(`insert into runs (id, runner, target, seed, started) values (?, ?, ?, ?, ?)`,
		id, runner, target.String(), seed, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", err
	}
	h.Resume(id, 0)
	return id, nil
}

// Resume continues recording run from generation.
func (h *History) Resume(run string, generation int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.run, h.generation, h.failures = run, generation, 0
}

// Err returns the first failed write.
func (h *History) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

func (h *History) OnFail(error, string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failures++
}

func (h *History) CurrentPopulation(evaluated []evolve.Evaluation) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.run == "" {
		return
	}
	s := evolve.Summarize(evaluated)
	program := ""
	if len(evaluated) > 0 {
		var err error
		if program, err = evaluated[0].Genome.Program(h.registry); err != nil {
			program = "; " + err.Error()
		}
	}
	_, err := h.db.Exec(`insert or replace into generations
		(run, generation, size, best, mean, worst, failures, program)
		values (?, ?, ?, ?, ?, ?, ?, ?)`,
		h.run, h.generation, s.Size, s.Best, s.Mean, s.Worst, h.failures, program)
	if err != nil {
		logger.Printf("recording generation %d of %s: %v", h.generation, h.run, err)
		if h.err == nil {
			h.err = err
		}
	}
	h.generation++
	h.failures = 0
}

// Runs lists recorded runs, oldest first.
func (h *History) Runs() ([]Run, error) {
	rows, err := h.db.Query(`select id, runner, target, seed, started from runs order by started, rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var runs []Run
	for rows.Next() {
		var (
			r       Run
			started string
		)
		if err := rows.Scan(&r.ID, &r.Runner, &r.Target, &r.Seed, &started); err != nil {
			return nil, err
		}
		if r.Started, err = time.Parse(time.RFC3339, started); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Generations lists the recorded generations of run in order.
func (h *History) Generations(run string) ([]Generation, error) {
	rows, err := h.db.Query(`select generation, size, best, mean, worst, failures, program
		from generations where run = ? order by generation`, run)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var generations []Generation
	for rows.Next() {
		var g Generation
		if err := rows.Scan(&g.Number, &g.Size, &g.Best, &g.Mean, &g.Worst, &g.Failures, &g.Program); err != nil {
			return nil, err
		}
		generations = append(generations, g)
	}
	return generations, rows.Err()
}
