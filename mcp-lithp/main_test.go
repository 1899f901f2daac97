package main

import (
	"context"
	"encoding/json"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	lithp "github.com/SirJoeth3rd/Lithp/core"
)

func startBridge(t *testing.T) *bridge {
	t.Helper()
	sock := filepath.Join(t.TempDir(), "lithp.sock")
	c, err := lithp.NewCore(sock, nil)
	if err != nil {
		t.Fatal(err)
	}
	go c.Run()
	t.Cleanup(c.Shutdown)

	b := newBridge(sock)
	t.Cleanup(b.close)
	return b
}

// slowCore echoes eval expressions as results, holding back its first
// reply for delay.
func slowCore(t *testing.T, delay time.Duration) string {
	t.Helper()
	sock := filepath.Join(t.TempDir(), "slow.sock")
	ln, err := net.Listen("unix", sock)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })

	var first sync.Once
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				for {
					msg, err := lithp.ReadMsg(conn)
					if err != nil {
						return
					}
					first.Do(func() { time.Sleep(delay) })
					resp := map[string]any{"id": msg["id"], "ok": true, "value": map[string]any{"result": msg["expr"]}}
					if err := lithp.WriteMsg(conn, resp); err != nil {
						return
					}
				}
			}()
		}
	}()
	return sock
}

func callTool(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	}
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) != 1 {
		t.Fatalf("expected one content item, got %d", len(res.Content))
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	return text.Text
}

func TestHandleEval(t *testing.T) {
	b := startBridge(t)
	ctx := context.Background()

	res, err := b.handleEval(ctx, callTool("lithp_eval", map[string]any{"expr": "+ 1 (* 2 3)"}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, res))
	}
	var value map[string]any
	if err := json.Unmarshal([]byte(resultText(t, res)), &value); err != nil {
		t.Fatal(err)
	}
	if value["result"] != "7" || value["kind"] != "Number" {
		t.Fatalf("unexpected value %v", value)
	}

	res, _ = b.handleEval(ctx, callTool("lithp_eval", map[string]any{"expr": "(+ 1"}))
	if !res.IsError {
		t.Fatal("expected parse failure to be a tool error")
	}

	res, _ = b.handleEval(ctx, callTool("lithp_eval", map[string]any{}))
	if !res.IsError {
		t.Fatal("expected missing expr to be a tool error")
	}
}

func TestHandleTracesAndClear(t *testing.T) {
	b := startBridge(t)
	ctx := context.Background()
	for _, expr := range []string{"+ 1 1", "- 2", "* 3 3"} {
		b.handleEval(ctx, callTool("lithp_eval", map[string]any{"expr": expr}))
	}

	res, err := b.handleTraces(ctx, callTool("lithp_traces", map[string]any{"limit": float64(1)}))
	if err != nil || res.IsError {
		t.Fatalf("traces failed: %v", err)
	}
	var traces []map[string]any
	if err := json.Unmarshal([]byte(resultText(t, res)), &traces); err != nil {
		t.Fatal(err)
	}
	if len(traces) != 1 || traces[0]["output"] != "9" {
		t.Fatalf("unexpected traces %v", traces)
	}

	res, _ = b.handleClear(ctx, callTool("lithp_clear", nil))
	if res.IsError {
		t.Fatalf("clear failed: %s", resultText(t, res))
	}

	res, _ = b.handleTraces(ctx, callTool("lithp_traces", nil))
	traces = nil
	if err := json.Unmarshal([]byte(resultText(t, res)), &traces); err != nil {
		t.Fatal(err)
	}
	if len(traces) != 0 {
		t.Fatalf("expected no traces after clear, got %v", traces)
	}
}

func TestBridgeRedialsAfterTimeout(t *testing.T) {
	b := newBridge(slowCore(t, 300*time.Millisecond))
	b.timeout = 100 * time.Millisecond
	t.Cleanup(b.close)
	ctx := context.Background()

	res, _ := b.handleEval(ctx, callTool("lithp_eval", map[string]any{"expr": "first"}))
	if !res.IsError {
		t.Fatalf("expected timeout to be a tool error, got %s", resultText(t, res))
	}
	time.Sleep(300 * time.Millisecond)

	res, _ = b.handleEval(ctx, callTool("lithp_eval", map[string]any{"expr": "second"}))
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, res))
	}
	var value map[string]any
	if err := json.Unmarshal([]byte(resultText(t, res)), &value); err != nil {
		t.Fatal(err)
	}
	if value["result"] != "second" {
		t.Fatalf("got another request's reply: %v", value)
	}
}

func TestFormatResult(t *testing.T) {
	res, err := formatResult(map[string]any{"ok": false})
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError || resultText(t, res) != "unknown error" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestNewServerRegistersTools(t *testing.T) {
	s := newServer(newBridge(""))
	for _, name := range []string{"lithp_eval", "lithp_traces", "lithp_clear"} {
		if s.GetTool(name) == nil {
			t.Fatalf("tool %s not registered", name)
		}
	}
}
