package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/funvibe/pipevo/internal/evaluator"
	"github.com/funvibe/pipevo/internal/parser"
)

const (
	historyFile = ".pipevo_history"
	promptMain  = "> "
	promptCont  = ". "
)

// cmdEval evaluates every form of a file, or of stdin, printing each result.
func cmdEval(args []string) int {
	var (
		src []byte
		err error
	)
	switch len(args) {
	case 0:
		src, err = io.ReadAll(os.Stdin)
	case 1:
		src, err = os.ReadFile(args[0])
	default:
		fmt.Fprintln(os.Stderr, "usage: pipevo eval [file]")
		return 2
	}
	if err != nil {
		return fail(err)
	}
	if err := evalSource(os.Stdout, evaluator.NewBaseEnvironment(), string(src)); err != nil {
		return fail(err)
	}
	return 0
}

// evalSource evaluates the forms of src in env one by one and writes each
// result to w.
func evalSource(w io.Writer, env *evaluator.Environment, src string) error {
	p := parser.New(src)
	for {
		form, err := p.Next()
		if err != nil {
			return err
		}
		if form == nil {
			return nil
		}
		result, err := evaluator.EvalForms(env, []evaluator.Object{form})
		if err != nil {
			return err
		}
		fmt.Fprintln(w, result)
	}
}

func cmdRepl(_ []string) int {
	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	env := evaluator.NewBaseEnvironment()
	for {
		code, ok := readByParseProbe(ln)
		if !ok {
			fmt.Println()
			return 0
		}
		code = strings.TrimSpace(code)
		switch {
		case code == "":
			continue
		case code == ":quit":
			return 0
		case strings.HasPrefix(code, ":"):
			fmt.Println("unknown command. Type :quit to exit.")
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
		if err := evalSource(os.Stdout, env, code); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
}

// readByParseProbe reads lines until they hold complete forms. It reports
// false at end of input or when the prompt was aborted.
func readByParseProbe(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			return "", false
		}
		if err != nil {
			return "", true
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if _, err := parser.ParseAll(src); !parser.IsIncomplete(err) {
			return src, true
		}
	}
}
