package main

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/funvibe/pipevo/internal/evolve"
	"github.com/funvibe/pipevo/internal/genes"
	"github.com/funvibe/pipevo/internal/prettyprinter"
	"github.com/funvibe/pipevo/internal/store"
	"github.com/funvibe/pipevo/internal/symbols"
)

func cmdShow(args []string) int {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	archive := fs.String("archive", "", "read from this archive instead of a population file")
	run := fs.String("run", "", "archived run, the latest one by default")
	generation := fs.Int("generation", -1, "archived generation, the latest one by default")
	width := fs.Int("width", prettyprinter.DefaultWidth, "line width, 0 prints each form on one line")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	var (
		population *evolve.Population
		err        error
	)
	switch {
	case *archive != "":
		population, err = loadArchived(*archive, *run, *generation)
	case fs.NArg() == 1:
		population, err = evolve.LoadFile(fs.Arg(0))
	default:
		fmt.Fprintln(os.Stderr, "usage: pipevo show pop.bin | pipevo show -archive a.db [-run id] [-generation n]")
		return 2
	}
	if err != nil {
		return fail(err)
	}

	registry := symbols.NewBaseRegistry()
	fmt.Printf("Target: %s\n", population.Target)
	for i, g := range population.Genomes {
		fmt.Printf("\n**** Genome %d ****\n", i)
		phenome, err := g.Express(genes.NewContext(registry))
		if err != nil {
			fmt.Printf("; cannot express: %v\n", err)
			continue
		}
		fmt.Print(prettyprinter.Program(phenome, *width))
	}
	return 0
}

func loadArchived(path, run string, generation int) (*evolve.Population, error) {
	a, err := store.OpenArchive(path)
	if err != nil {
		return nil, err
	}
	defer a.Close()
	if generation < 0 {
		_, _, p, err := a.Latest(run)
		return p, err
	}
	if run == "" {
		if run, err = a.LatestRun(); err != nil {
			return nil, err
		}
	}
	return a.Load(run, generation)
}

func cmdHistory(args []string) int {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	programs := fs.Bool("programs", false, "print the best program of every generation")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 || fs.NArg() > 2 {
		fmt.Fprintln(os.Stderr, "usage: pipevo history [-programs] h.db [run]")
		return 2
	}
	h, err := store.OpenHistory(fs.Arg(0), symbols.NewBaseRegistry())
	if err != nil {
		return fail(err)
	}
	defer h.Close()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()
	if fs.NArg() == 1 {
		runs, err := h.Runs()
		if err != nil {
			return fail(err)
		}
		fmt.Fprintln(w, "RUN\tRUNNER\tTARGET\tSEED\tSTARTED")
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", r.ID, r.Runner, r.Target, r.Seed, r.Started.Local().Format("2006-01-02 15:04:05"))
		}
		return 0
	}

	generations, err := h.Generations(fs.Arg(1))
	if err != nil {
		return fail(err)
	}
	fmt.Fprintln(w, "GEN\tSIZE\tBEST\tMEAN\tWORST\tFAILURES")
	for _, g := range generations {
		fmt.Fprintf(w, "%d\t%d\t%.4g\t%.4g\t%.4g\t%d\n", g.Number, g.Size, g.Best, g.Mean, g.Worst, g.Failures)
		if *programs {
			w.Flush()
			fmt.Print(g.Program)
		}
	}
	return 0
}
