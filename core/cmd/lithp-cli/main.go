package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net"
	"os"

	lithp "github.com/SirJoeth3rd/Lithp/core"
)

func main() {
	expr := flag.String("e", "", "evaluate `expr` and print the result")
	traces := flag.Int("traces", -1, "print the last `n` traces")
	raw := flag.Bool("json", false, "print the full JSON response")
	flag.Parse()

	sockPath := os.Getenv("LITHP_SOCK")
	if sockPath == "" {
		sockPath = "/tmp/lithp.sock"
	}

	msg, err := buildRequest(*expr, *traces)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	// Add id if missing
	if _, ok := msg["id"]; !ok {
		msg["id"] = lithp.NextID()
	}

	// Connect to core
	conn, err := net.Dial("unix", sockPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	if err := lithp.WriteMsg(conn, msg); err != nil {
		fmt.Fprintf(os.Stderr, "send: %v\n", err)
		os.Exit(1)
	}

	resp, err := lithp.ReadMsg(conn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "receive: %v\n", err)
		os.Exit(1)
	}

	if ok, _ := resp["ok"].(bool); !ok && !*raw {
		errMsg, _ := resp["error"].(string)
		fmt.Fprintln(os.Stderr, errMsg)
		os.Exit(1)
	}

	if msg["op"] == "eval" && !*raw {
		value, _ := resp["value"].(map[string]any)
		fmt.Println(value["result"])
		return
	}

	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "format response: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

// buildRequest turns the flags into a request. Without flags the request is
// read as JSON from stdin.
func buildRequest(expr string, traces int) (map[string]any, error) {
	switch {
	case expr != "":
		return map[string]any{"op": "eval", "expr": expr}, nil
	case traces >= 0:
		return map[string]any{"op": "traces", "limit": traces}, nil
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	var msg map[string]any
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("parse JSON: %w", err)
	}
	return msg, nil
}
