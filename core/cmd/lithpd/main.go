package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	lithp "github.com/SirJoeth3rd/Lithp/core"
	"github.com/SirJoeth3rd/Lithp/journal"
)

func main() {
	sockPath := os.Getenv("LITHP_SOCK")
	if sockPath == "" {
		sockPath = "/tmp/lithp.sock"
	}

	var sink lithp.TraceSink
	var jrnl *journal.Journal
	if path := os.Getenv("LITHP_JOURNAL"); path != "" {
		j, err := journal.Open(path)
		if err != nil {
			log.Fatalf("failed to open journal: %v", err)
		}
		jrnl = j
		sink = j
	}

	core, err := lithp.NewCore(sockPath, sink)
	if err != nil {
		log.Fatalf("failed to start core: %v", err)
	}

	// Handle shutdown signals
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Println("shutting down...")
		core.Shutdown()
	}()

	log.Printf("lithp core listening (cli: %s)", sockPath)
	core.Run()

	if jrnl != nil {
		if err := jrnl.Close(); err != nil {
			log.Printf("close journal: %v", err)
		}
	}
	os.Remove(sockPath)
}
