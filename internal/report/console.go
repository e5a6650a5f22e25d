// Package report holds the progress sinks used while evolving.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"

	"github.com/funvibe/pipevo/internal/evolve"
	"github.com/funvibe/pipevo/internal/genes"
	"github.com/funvibe/pipevo/internal/prettyprinter"
	"github.com/funvibe/pipevo/internal/symbols"
)

const barWidth = 30

// Console writes progress to a terminal or a plain stream. On a terminal the
// phase stack and progress are redrawn in place on one line; elsewhere only
// generation headers, summaries and best programs are written.
type Console struct {
	// Terminal enables the in-place progress line.
	Terminal bool
	// Verbose prints every failure instead of counting them.
	Verbose bool

	mu       sync.Mutex
	out      io.Writer
	registry *symbols.Registry
	phases   []string
	current  int
	total    int
	failures int
	drawn    bool
}

func NewConsole(out io.Writer, registry *symbols.Registry) *Console {
	return &Console{out: out, registry: registry, Terminal: isTerminal(out)}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (c *Console) OnFail(err error, where string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures++
	if c.Verbose {
		c.println(where + err.Error())
	}
}

func (c *Console) Notify(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.println(msg)
}

func (c *Console) UpdateBest(best evolve.Evaluation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var src string
	if phenome, err := best.Genome.Express(genes.NewContext(c.registry)); err != nil {
		src = fmt.Sprintf("; cannot express: %v", err)
	} else {
		src = prettyprinter.Program(phenome, prettyprinter.DefaultWidth)
	}
	c.println(fmt.Sprintf("New best score %g:\n%s", best.Score, strings.TrimRight(src, "\n")))
}

func (c *Console) UpdateProgress(current, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current, c.total = current, total
	c.draw()
}

func (c *Console) Push(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.phases = append(c.phases, name)
	c.current, c.total = 0, 0
	if !c.Terminal && len(c.phases) == 1 {
		fmt.Fprintln(c.out, name)
	}
	c.draw()
}

func (c *Console) Pop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.phases) > 0 {
		c.phases = c.phases[:len(c.phases)-1]
	}
	c.current, c.total = 0, 0
	c.draw()
}

func (c *Console) CurrentPopulation(evaluated []evolve.Evaluation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := evolve.Summarize(evaluated)
	c.println(fmt.Sprintf("  %d genomes: best %.4g, mean %.4g, worst %.4g, %d failures",
		s.Size, s.Best, s.Mean, s.Worst, c.failures))
	c.failures = 0
}

// Done erases the progress line.
func (c *Console) Done() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clear()
}

// println writes a line above the progress line.
func (c *Console) println(line string) {
	c.clear()
	fmt.Fprintln(c.out, line)
	c.draw()
}

func (c *Console) clear() {
	if c.drawn {
		fmt.Fprint(c.out, "\r\033[2K")
		c.drawn = false
	}
}

func (c *Console) draw() {
	if !c.Terminal {
		return
	}
	c.clear()
	if len(c.phases) == 0 {
		return
	}
	line := strings.Join(c.phases, " > ")
	if c.total > 0 {
		line += " " + Bar(c.current, c.total, barWidth) + fmt.Sprintf(" %d/%d", c.current, c.total)
	}
	fmt.Fprint(c.out, line)
	c.drawn = true
}

// Bar renders current out of total as a bar of width cells.
func Bar(current, total, width int) string {
	filled := 0
	if total > 0 {
		filled = min(max(current*width/total, 0), width)
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat(" ", width-filled) + "]"
}
