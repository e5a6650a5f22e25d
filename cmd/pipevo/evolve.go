package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"

	"github.com/funvibe/pipevo/internal/config"
	"github.com/funvibe/pipevo/internal/evolve"
	"github.com/funvibe/pipevo/internal/report"
	"github.com/funvibe/pipevo/internal/runners"
	"github.com/funvibe/pipevo/internal/store"
)

type evolveFlags struct {
	fs *flag.FlagSet

	config      string
	runner      string
	population  int
	generations int
	seed        int64
	workers     int
	out         string
	archive     string
	history     string
	log         string
	verbose     bool
	run         string
}

func newEvolveFlags(name string) *evolveFlags {
	f := &evolveFlags{fs: flag.NewFlagSet(name, flag.ContinueOnError)}
	f.fs.StringVar(&f.config, "config", "", "YAML settings file")
	f.fs.StringVar(&f.runner, "runner", "", fmt.Sprintf("fitness runner, one of %v", runners.Names()))
	f.fs.IntVar(&f.population, "population", 0, "population size")
	f.fs.IntVar(&f.generations, "generations", 0, "number of generations")
	f.fs.Int64Var(&f.seed, "seed", 0, "random seed, 0 picks one from the clock")
	f.fs.IntVar(&f.workers, "workers", 0, "evaluation workers, 0 for one per CPU")
	f.fs.StringVar(&f.out, "out", "", "file keeping the latest population")
	f.fs.StringVar(&f.archive, "archive", "", "bbolt archive of every generation")
	f.fs.StringVar(&f.history, "history", "", "SQLite database of generation statistics")
	f.fs.StringVar(&f.log, "log", "", "write debug logs to this file")
	f.fs.BoolVar(&f.verbose, "v", false, "print every evaluation failure")
	return f
}

// settings loads the config file and applies the flags that were set.
func (f *evolveFlags) settings() (*config.Settings, error) {
	s := config.DefaultSettings()
	if f.config != "" {
		var err error
		if s, err = config.LoadSettings(f.config); err != nil {
			return nil, err
		}
	}
	f.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "runner":
			s.Runner = f.runner
		case "population":
			s.Population = f.population
		case "generations":
			s.Generations = f.generations
		case "seed":
			s.Seed = f.seed
		case "workers":
			s.Workers = f.workers
		case "out":
			s.Output.PopulationFile = f.out
		case "archive":
			s.Output.Archive = f.archive
		case "history":
			s.Output.History = f.history
		case "log":
			s.Output.LogFile = f.log
		}
	})
	if s.Population < 1 || s.Generations < 0 || s.Workers < 0 {
		return nil, errors.New("population must be positive, generations and workers not negative")
	}
	if s.Seed == 0 {
		s.Seed = time.Now().UnixNano()
	}
	return s, nil
}

// session holds what one evolution run opened.
type session struct {
	settings *config.Settings
	runner   evolve.Runner
	console  *report.Console
	archive  *store.Archive
	history  *store.History
	darwin   *evolve.Darwin
	closeLog func()
}

func openSession(s *config.Settings, verbose bool) (_ *session, err error) {
	ss := &session{settings: s, closeLog: func() {}}
	defer func() {
		if err != nil {
			ss.Close()
		}
	}()
	closeLog, err := setupLog(s.Output.LogFile)
	if err != nil {
		return nil, err
	}
	ss.closeLog = closeLog
	if ss.runner, err = runners.New(s.Runner); err != nil {
		return nil, err
	}
	ss.console = report.NewConsole(os.Stdout, ss.runner.Registry())
	ss.console.Verbose = verbose

	reporters := []evolve.Reporter{ss.console}
	if s.Output.History != "" {
		if ss.history, err = store.OpenHistory(s.Output.History, ss.runner.Registry()); err != nil {
			return nil, fmt.Errorf("opening history: %w", err)
		}
		reporters = append(reporters, ss.history)
	}
	var stores evolve.Stores
	if s.Output.PopulationFile != "" {
		stores = append(stores, evolve.FileStore{Path: s.Output.PopulationFile})
	}
	if s.Output.Archive != "" {
		if ss.archive, err = store.OpenArchive(s.Output.Archive); err != nil {
			return nil, fmt.Errorf("opening archive: %w", err)
		}
		stores = append(stores, ss.archive)
	}

	if ss.darwin, err = evolve.NewDarwin(ss.runner, report.NewMulti(reporters...), s); err != nil {
		return nil, err
	}
	if len(stores) > 0 {
		ss.darwin.SetStore(stores)
	}
	return ss, nil
}

func (ss *session) Close() {
	if ss.archive != nil {
		ss.archive.Close()
	}
	if ss.history != nil {
		ss.history.Close()
	}
	ss.closeLog()
}

// start registers a new run under one id in the archive and the history.
func (ss *session) start() (string, error) {
	id := uuid.NewString()
	if ss.archive != nil {
		if _, err := ss.archive.StartRun(id); err != nil {
			return "", err
		}
	}
	if ss.history != nil {
		if _, err := ss.history.StartRun(id, ss.settings.Runner, ss.runner.TargetType(), ss.settings.Seed); err != nil {
			return "", err
		}
	}
	return id, nil
}

func (ss *session) resume(run string, generation int) {
	ss.archive.Resume(run, generation)
	if ss.history != nil {
		ss.history.Resume(run, generation)
	}
}

// evolve runs the generations until done or interrupted and prints the best
// program.
func (ss *session) evolve(population *evolve.Population) int {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	defer signal.Stop(sig)
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-sig:
			ss.darwin.Stop()
		case <-done:
		}
	}()

	best, err := ss.darwin.Evolve(context.Background(), population, ss.settings.Generations)
	ss.console.Done()
	if err != nil {
		return fail(err)
	}
	if ss.history != nil {
		if err := ss.history.Err(); err != nil {
			fmt.Fprintf(os.Stderr, "%s: history incomplete: %v\n", appName, err)
		}
	}
	if best == nil {
		fmt.Println("No generation was evaluated.")
		return 0
	}
	src, err := best.Genome.Program(ss.runner.Registry())
	if err != nil {
		return fail(err)
	}
	fmt.Printf("Best score %g (max %g):\n%s", best.Score, ss.runner.MaxScore(), src)
	return 0
}

func cmdEvolve(args []string) int {
	f := newEvolveFlags("evolve")
	if err := f.fs.Parse(args); err != nil {
		return 2
	}
	s, err := f.settings()
	if err != nil {
		return fail(err)
	}
	ss, err := openSession(s, f.verbose)
	if err != nil {
		return fail(err)
	}
	defer ss.Close()

	run, err := ss.start()
	if err != nil {
		return fail(err)
	}
	fmt.Printf("Run %s: runner %s, target %s, seed %d\n", run, s.Runner, ss.runner.TargetType(), s.Seed)
	population, err := ss.darwin.InitializePopulation(s.Population)
	if err != nil {
		return fail(err)
	}
	return ss.evolve(population)
}

func cmdResume(args []string) int {
	f := newEvolveFlags("resume")
	f.fs.StringVar(&f.run, "run", "", "run to resume, the latest one by default")
	if err := f.fs.Parse(args); err != nil {
		return 2
	}
	s, err := f.settings()
	if err != nil {
		return fail(err)
	}
	if s.Output.Archive == "" {
		return fail(errors.New("resume needs -archive"))
	}
	ss, err := openSession(s, f.verbose)
	if err != nil {
		return fail(err)
	}
	defer ss.Close()

	run, generation, population, err := ss.archive.Latest(f.run)
	if err != nil {
		return fail(err)
	}
	fmt.Printf("Resuming run %s at generation %d with %d genomes\n", run, generation, population.Len())
	ss.resume(run, generation)
	return ss.evolve(population)
}
