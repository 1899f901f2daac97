package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterh/liner"

	lithp "github.com/SirJoeth3rd/Lithp/core"
	"github.com/SirJoeth3rd/Lithp/journal"
)

const (
	historyFile = ".lithp_history"
	promptMain  = "lithp> "
	promptCont  = "...    "
)

func main() {
	os.Exit(run())
}

func run() int {
	expr := flag.String("e", "", "evaluate `expr`, print the result and exit")
	journalPath := flag.String("journal", os.Getenv("LITHP_JOURNAL"), "record evaluations to the SQLite database at `path`")
	flag.Parse()

	r := &repl{
		eval: lithp.NewEvaluator(),
		out:  os.Stdout,
		errw: os.Stderr,
	}

	if *journalPath != "" {
		j, err := journal.Open(*journalPath)
		if err != nil {
			log.Fatalf("failed to open journal: %v", err)
		}
		defer j.Close()
		r.journal = j
	}

	if *expr != "" {
		if !r.evalLine(*expr) {
			return 1
		}
		return 0
	}
	return runInteractive(r)
}

func runInteractive(r *repl) int {
	fmt.Fprintf(r.out, "Lithp version %s\n", lithp.Version)
	fmt.Fprintln(r.out, "Press Ctrl-C to exit")

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

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	for {
		code, ok := readByParseProbe(ln, promptMain, promptCont)
		if !ok {
			fmt.Fprintln(r.out)
			return 0
		}
		if strings.TrimSpace(code) == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
		if r.handle(code) == stop {
			return 0
		}
	}
}

// readByParseProbe reads lines until they form input the parser does not
// consider incomplete. ok is false at end of input or on Ctrl-C.
func readByParseProbe(ln *liner.State, prompt, cont string) (string, bool) {
	var b strings.Builder

	for {
		p := prompt
		if b.Len() > 0 {
			p = cont
		}
		line, err := ln.Prompt(p)
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			return "", false
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "read input: %v\n", err)
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if _, err := lithp.Parse(src); lithp.IsIncomplete(err) {
			continue
		}
		return src, true
	}
}
