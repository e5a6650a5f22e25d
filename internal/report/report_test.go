package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/funvibe/pipevo/internal/config"
	"github.com/funvibe/pipevo/internal/evolve"
	"github.com/funvibe/pipevo/internal/genes"
	"github.com/funvibe/pipevo/internal/symbols"
	"github.com/funvibe/pipevo/internal/typesystem"
)

func constantGenome(n int64) *genes.Genome {
	fn := genes.NewFunctionGene(typesystem.NewFunction(typesystem.FixNum, typesystem.FixNum),
		"crTarget1", genes.NewFixNumGenerator(0, n, n), false)
	return genes.NewGenome(genes.NewChromosome(config.TargetChromosomeName, fn))
}

func TestBar(t *testing.T) {
	tests := []struct {
		current, total, width int
		want                  string
	}{
		{0, 10, 4, "[    ]"},
		{5, 10, 4, "[##  ]"},
		{10, 10, 4, "[####]"},
		{12, 10, 4, "[####]"},
		{3, 0, 4, "[    ]"},
	}
	for _, tt := range tests {
		if got := Bar(tt.current, tt.total, tt.width); got != tt.want {
			t.Errorf("Bar(%d, %d, %d) = %q, want %q", tt.current, tt.total, tt.width, got, tt.want)
		}
	}
}

func TestConsolePlain(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, symbols.NewBaseRegistry())
	if c.Terminal {
		t.Fatal("buffer detected as terminal")
	}

	c.Push("Generation 0")
	c.Push("Evaluating")
	c.UpdateProgress(3, 10)
	c.OnFail(errors.New("boom"), "Genome 1: ")
	c.Pop()
	c.UpdateBest(evolve.Evaluation{Score: 0.5, Genome: constantGenome(4)})
	c.CurrentPopulation([]evolve.Evaluation{{Score: 0.5}, {Score: -0.5}})
	c.Pop()

	out := buf.String()
	for _, want := range []string{
		"Generation 0\n",
		"New best score 0.5:\ncrTarget1 = ",
		"2 genomes: best 0.5, mean 0, worst -0.5, 1 failures\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
	for _, unwanted := range []string{"Evaluating", "boom", "\r"} {
		if strings.Contains(out, unwanted) {
			t.Errorf("output holds %q:\n%s", unwanted, out)
		}
	}
}

func TestConsoleVerbose(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, symbols.NewBaseRegistry())
	c.Verbose = true
	c.OnFail(errors.New("boom"), "Genome 1: ")
	if got, want := buf.String(), "Genome 1: boom\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestConsoleTerminal(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, symbols.NewBaseRegistry())
	c.Terminal = true

	c.Push("Generation 0")
	c.UpdateProgress(1, 2)
	c.Notify("hello")
	c.Done()

	want := "Generation 0" +
		"\r\033[2KGeneration 0 " + Bar(1, 2, barWidth) + " 1/2" +
		"\r\033[2Khello\n" +
		"Generation 0 " + Bar(1, 2, barWidth) + " 1/2" +
		"\r\033[2K"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("terminal output mismatch (-want +got):\n%s", diff)
	}
}

type events struct{ log []string }

func (e *events) OnFail(err error, where string)        { e.log = append(e.log, "fail "+where+err.Error()) }
func (e *events) Notify(msg string)                     { e.log = append(e.log, "notify "+msg) }
func (e *events) UpdateBest(evolve.Evaluation)          { e.log = append(e.log, "best") }
func (e *events) UpdateProgress(int, int)               { e.log = append(e.log, "progress") }
func (e *events) Push(name string)                      { e.log = append(e.log, "push "+name) }
func (e *events) Pop()                                  { e.log = append(e.log, "pop") }
func (e *events) CurrentPopulation([]evolve.Evaluation) { e.log = append(e.log, "population") }

func TestMulti(t *testing.T) {
	a, b := &events{}, &events{}
	m := NewMulti(a, nil, b)
	if len(m) != 2 {
		t.Fatalf("got %d reporters, want 2", len(m))
	}
	m.Push("x")
	m.UpdateProgress(1, 2)
	m.OnFail(errors.New("e"), "w: ")
	m.Notify("n")
	m.UpdateBest(evolve.Evaluation{})
	m.CurrentPopulation(nil)
	m.Pop()

	want := []string{"push x", "progress", "fail w: e", "notify n", "best", "population", "pop"}
	for _, e := range []*events{a, b} {
		if diff := cmp.Diff(want, e.log); diff != "" {
			t.Errorf("events mismatch (-want +got):\n%s", diff)
		}
	}
}
