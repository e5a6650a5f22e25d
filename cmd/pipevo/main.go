package main

import (
	"fmt"
	"os"

	"github.com/funvibe/pipevo/internal/logutil"
)

const appName = "pipevo"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd := os.Args[1]
	switch cmd {
	case "evolve":
		os.Exit(cmdEvolve(os.Args[2:]))
	case "resume":
		os.Exit(cmdResume(os.Args[2:]))
	case "show":
		os.Exit(cmdShow(os.Args[2:]))
	case "eval":
		os.Exit(cmdEval(os.Args[2:]))
	case "repl":
		os.Exit(cmdRepl(os.Args[2:]))
	case "history":
		os.Exit(cmdHistory(os.Args[2:]))
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", appName, cmd)
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Printf(`Usage:
  %[1]s evolve [flags]            Evolve a program for a runner.
  %[1]s resume -archive a.db      Continue the latest archived generation.
  %[1]s show pop.bin              Print the programs of a saved population.
  %[1]s eval [file]               Evaluate a file, or stdin.
  %[1]s repl                      Start the read-eval-print loop.
  %[1]s history h.db [run]        Print recorded runs or one run's generations.

Run "%[1]s <command> -h" for the flags of a command.
`, appName)
}

// setupLog sends the package loggers to path. The returned function closes
// the file.
func setupLog(path string) (func(), error) {
	if path == "" {
		return func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	logutil.SetOutput(f)
	return func() { f.Close() }, nil
}

func fail(err error) int {
	fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
	return 1
}
