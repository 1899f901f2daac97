package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	lithp "github.com/SirJoeth3rd/Lithp/core"
	"github.com/SirJoeth3rd/Lithp/journal"
)

type action int

const (
	proceed action = iota
	stop
)

const helpText = `Enter an expression such as + 1 (* 2 3).
Commands:
  :help          Show this help
  :history [n]   Show the last n journaled evaluations (default 10)
  :quit          Exit
`

type repl struct {
	eval    *lithp.Evaluator
	journal *journal.Journal
	out     io.Writer
	errw    io.Writer
}

// handle runs one complete input: a ':' command or an expression.
func (r *repl) handle(code string) action {
	if cmd := strings.TrimSpace(code); strings.HasPrefix(cmd, ":") {
		return r.command(cmd)
	}
	r.evalLine(code)
	return proceed
}

// evalLine evaluates code and prints the result. It reports false when the
// input did not parse.
func (r *repl) evalLine(code string) bool {
	v, trace, err := r.eval.Run(code)
	if err != nil {
		fmt.Fprint(r.errw, lithp.FormatParseError(err, code))
		return false
	}
	lithp.Fprintln(r.out, v)

	if r.journal != nil {
		if err := r.journal.Record(context.Background(), trace); err != nil {
			fmt.Fprintf(r.errw, "journal: %v\n", err)
		}
	}
	return true
}

func (r *repl) command(cmd string) action {
	fields := strings.Fields(strings.ToLower(cmd))
	switch fields[0] {
	case ":quit", ":q":
		return stop
	case ":help":
		fmt.Fprint(r.out, helpText)
	case ":history":
		r.history(fields[1:])
	default:
		fmt.Fprintf(r.out, "unknown command %s. Type :help for help.\n", fields[0])
	}
	return proceed
}

func (r *repl) history(args []string) {
	if r.journal == nil {
		fmt.Fprintln(r.errw, "no journal open; start with -journal <path>")
		return
	}
	n := 10
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 0 {
			fmt.Fprintf(r.errw, "invalid count %q\n", args[0])
			return
		}
		n = v
	}
	traces, err := r.journal.Recent(context.Background(), n)
	if err != nil {
		fmt.Fprintf(r.errw, "journal: %v\n", err)
		return
	}
	total, err := r.journal.Count(context.Background())
	if err != nil {
		fmt.Fprintf(r.errw, "journal: %v\n", err)
		return
	}
	fmt.Fprintf(r.out, "%d of %d evaluations in %s\n", len(traces), total, r.journal.Path())
	// Oldest first, like a scrollback.
	for i := len(traces) - 1; i >= 0; i-- {
		t := traces[i]
		fmt.Fprintf(r.out, "%s  %s => %s\n", t.Timestamp.Local().Format("15:04:05"), t.Input, t.Output)
	}
}
