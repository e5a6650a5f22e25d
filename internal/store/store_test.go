package store

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/funvibe/pipevo/internal/config"
	"github.com/funvibe/pipevo/internal/evolve"
	"github.com/funvibe/pipevo/internal/genes"
	"github.com/funvibe/pipevo/internal/symbols"
	"github.com/funvibe/pipevo/internal/typesystem"
)

var fixFix = typesystem.NewFunction(typesystem.FixNum, typesystem.FixNum)

func constantGenome(n int64) *genes.Genome {
	fn := genes.NewFunctionGene(fixFix, "crTarget1", genes.NewFixNumGenerator(0, n, n), false)
	return genes.NewGenome(genes.NewChromosome(config.TargetChromosomeName, fn))
}

func population(values ...int64) *evolve.Population {
	p := evolve.NewPopulation(fixFix)
	for _, v := range values {
		p.Add(constantGenome(v))
	}
	return p
}

func programs(t *testing.T, p *evolve.Population) []string {
	t.Helper()
	var out []string
	for _, g := range p.Genomes {
		src, err := g.Program(symbols.NewBaseRegistry())
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, src)
	}
	return out
}

func openArchive(t *testing.T) *Archive {
	t.Helper()
	a, err := OpenArchive(filepath.Join(t.TempDir(), "archive.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestArchiveGenerations(t *testing.T) {
	a := openArchive(t)
	for gen, p := range []*evolve.Population{population(1), population(2, 3), population(4)} {
		if err := a.SavePopulation(gen, p); err != nil {
			t.Fatal(err)
		}
	}
	run := a.Run()
	if run == "" {
		t.Fatal("no run was started")
	}

	generations, err := a.Generations(run)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{0, 1, 2}, generations); diff != "" {
		t.Errorf("generations mismatch (-want +got):\n%s", diff)
	}

	latestRun, gen, latest, err := a.Latest("")
	if err != nil {
		t.Fatal(err)
	}
	if latestRun != run || gen != 2 {
		t.Errorf("Latest = %s/%d, want %s/2", latestRun, gen, run)
	}
	if diff := cmp.Diff(programs(t, population(4)), programs(t, latest)); diff != "" {
		t.Errorf("latest population mismatch (-want +got):\n%s", diff)
	}

	second, err := a.Load(run, 1)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(programs(t, population(2, 3)), programs(t, second)); diff != "" {
		t.Errorf("generation 1 mismatch (-want +got):\n%s", diff)
	}
}

func TestArchiveResume(t *testing.T) {
	a := openArchive(t)
	first, err := a.StartRun("first")
	if err != nil {
		t.Fatal(err)
	}
	if err := a.SavePopulation(0, population(1)); err != nil {
		t.Fatal(err)
	}
	if _, err := a.StartRun("second"); err != nil {
		t.Fatal(err)
	}
	if err := a.SavePopulation(0, population(2)); err != nil {
		t.Fatal(err)
	}

	a.Resume(first, 5)
	if err := a.SavePopulation(1, population(3)); err != nil {
		t.Fatal(err)
	}
	generations, err := a.Generations(first)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{0, 6}, generations); diff != "" {
		t.Errorf("generations mismatch (-want +got):\n%s", diff)
	}

	runs, err := a.Runs()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"first", "second"}, runs); diff != "" {
		t.Errorf("runs mismatch (-want +got):\n%s", diff)
	}
	if run, err := a.LatestRun(); err != nil || run != "second" {
		t.Errorf("LatestRun = %q, %v; want second", run, err)
	}
}

func TestArchiveNotFound(t *testing.T) {
	a := openArchive(t)
	tests := []struct {
		name string
		call func() error
	}{
		{"latest of empty archive", func() error { _, _, _, err := a.Latest(""); return err }},
		{"unknown run", func() error { _, err := a.Generations("nope"); return err }},
		{"unknown generation", func() error {
			if _, err := a.StartRun("r"); err != nil {
				return err
			}
			_, err := a.Load("r", 3)
			return err
		}},
		{"run without generations", func() error { _, _, _, err := a.Latest("r"); return err }},
	}
	for _, tt := range tests {
		if err := tt.call(); !errors.Is(err, ErrNotFound) {
			t.Errorf("%s: got %v, want ErrNotFound", tt.name, err)
		}
	}
}

func TestArchiveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.db")
	a, err := OpenArchive(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := a.SavePopulation(0, population(7)); err != nil {
		t.Fatal(err)
	}
	run := a.Run()
	if err := a.Close(); err != nil {
		t.Fatal(err)
	}

	a, err = OpenArchive(path)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	got, gen, _, err := a.Latest("")
	if err != nil || got != run || gen != 0 {
		t.Errorf("Latest = %q, %d, %v; want %q, 0", got, gen, err, run)
	}
}

func openHistory(t *testing.T) *History {
	t.Helper()
	h, err := OpenHistory(filepath.Join(t.TempDir(), "history.db"), symbols.NewBaseRegistry())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { h.Close() })
	return h
}

func evaluations(scores ...float64) []evolve.Evaluation {
	evaluated := make([]evolve.Evaluation, len(scores))
	for i, s := range scores {
		evaluated[i] = evolve.Evaluation{Score: s, Genome: constantGenome(int64(i))}
	}
	return evaluated
}

func TestHistoryRecordsGenerations(t *testing.T) {
	h := openHistory(t)
	run, err := h.StartRun("", "square", fixFix, 42)
	if err != nil {
		t.Fatal(err)
	}

	h.CurrentPopulation(evaluations(1, 0, -1))
	h.OnFail(errors.New("boom"), "")
	h.OnFail(errors.New("boom"), "")
	h.CurrentPopulation(evaluations(2, 2))
	if err := h.Err(); err != nil {
		t.Fatal(err)
	}

	generations, err := h.Generations(run)
	if err != nil {
		t.Fatal(err)
	}
	want := []Generation{
		{Number: 0, Size: 3, Best: 1, Mean: 0, Worst: -1, Failures: 0},
		{Number: 1, Size: 2, Best: 2, Mean: 2, Worst: 2, Failures: 2},
	}
	if diff := cmp.Diff(want, generations, cmpopts.IgnoreFields(Generation{}, "Program")); diff != "" {
		t.Errorf("generations mismatch (-want +got):\n%s", diff)
	}
	for _, g := range generations {
		if !strings.HasPrefix(g.Program, "crTarget1 = ") {
			t.Errorf("generation %d program = %q", g.Number, g.Program)
		}
	}

	runs, err := h.Runs()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(runs))
	}
	got := runs[0]
	if got.ID != run || got.Runner != "square" || got.Target != fixFix.String() || got.Seed != 42 || got.Started.IsZero() {
		t.Errorf("run = %+v", got)
	}
}

func TestHistoryResume(t *testing.T) {
	h := openHistory(t)
	run, err := h.StartRun("run", "parity", fixFix, 1)
	if err != nil {
		t.Fatal(err)
	}
	h.CurrentPopulation(evaluations(0))
	h.Resume(run, 4)
	h.CurrentPopulation(evaluations(1))

	generations, err := h.Generations(run)
	if err != nil {
		t.Fatal(err)
	}
	var numbers []int
	for _, g := range generations {
		numbers = append(numbers, g.Number)
	}
	if diff := cmp.Diff([]int{0, 4}, numbers); diff != "" {
		t.Errorf("generation numbers mismatch (-want +got):\n%s", diff)
	}
}

func TestHistoryWithoutRun(t *testing.T) {
	h := openHistory(t)
	h.CurrentPopulation(evaluations(1))
	if runs, err := h.Runs(); err != nil || len(runs) != 0 {
		t.Errorf("Runs = %v, %v; want none", runs, err)
	}
}
