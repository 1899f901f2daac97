package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"os"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	lithp "github.com/SirJoeth3rd/Lithp/core"
)

// bridge forwards MCP tool calls to a lithp core over its socket.
type bridge struct {
	sockPath string
	timeout  time.Duration

	conn   net.Conn // nil until dialed, and again after a failed exchange
	connMu sync.Mutex
}

func newBridge(sockPath string) *bridge {
	return &bridge{sockPath: sockPath, timeout: 30 * time.Second}
}

// connect dials the core unless a connection is already open.
func (b *bridge) connect() error {
	b.connMu.Lock()
	defer b.connMu.Unlock()
	return b.connectLocked()
}

func (b *bridge) connectLocked() error {
	if b.conn != nil {
		return nil
	}
	conn, err := net.Dial("unix", b.sockPath)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", b.sockPath, err)
	}
	b.conn = conn
	return nil
}

// dropLocked discards the connection; after a failed exchange the stream
// can no longer be trusted to line up with requests.
func (b *bridge) dropLocked() {
	if b.conn != nil {
		b.conn.Close()
		b.conn = nil
	}
}

func (b *bridge) close() {
	b.connMu.Lock()
	defer b.connMu.Unlock()
	b.dropLocked()
}

// send sends a request to the lithp core and returns the response.
func (b *bridge) send(req map[string]any) (map[string]any, error) {
	id := lithp.NextID()
	req["id"] = id

	b.connMu.Lock()
	defer b.connMu.Unlock()
	if err := b.connectLocked(); err != nil {
		return nil, err
	}
	resp, err := b.exchange(req)
	if err != nil {
		b.dropLocked()
		return nil, err
	}
	if got, _ := resp["id"].(string); got != id {
		b.dropLocked()
		return nil, fmt.Errorf("reply id %q does not match request %q", got, id)
	}
	return resp, nil
}

func (b *bridge) exchange(req map[string]any) (map[string]any, error) {
	if b.timeout > 0 {
		if err := b.conn.SetDeadline(time.Now().Add(b.timeout)); err != nil {
			return nil, fmt.Errorf("set deadline: %w", err)
		}
	}
	if err := lithp.WriteMsg(b.conn, req); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}
	resp, err := lithp.ReadMsg(b.conn)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return resp, nil
}

// formatResult turns a core response into an MCP tool result.
func formatResult(resp map[string]any) (*mcp.CallToolResult, error) {
	ok, _ := resp["ok"].(bool)
	if !ok {
		errMsg, _ := resp["error"].(string)
		if errMsg == "" {
			errMsg = "unknown error"
		}
		return mcp.NewToolResultError(errMsg), nil
	}
	out, err := json.MarshalIndent(resp["value"], "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal value: %w", err)
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (b *bridge) handleEval(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	expr, err := request.RequireString("expr")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	resp, err := b.send(map[string]any{"op": "eval", "expr": expr})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return formatResult(resp)
}

func (b *bridge) handleTraces(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req := map[string]any{"op": "traces"}
	if limit := request.GetInt("limit", -1); limit >= 0 {
		req["limit"] = limit
	}
	resp, err := b.send(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return formatResult(resp)
}

func (b *bridge) handleClear(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	resp, err := b.send(map[string]any{"op": "clear"})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return formatResult(resp)
}

func newServer(b *bridge) *server.MCPServer {
	s := server.NewMCPServer(
		"lithp",
		lithp.Version,
		server.WithToolCapabilities(false),
	)

	s.AddTool(
		mcp.NewTool("lithp_eval",
			mcp.WithDescription("Evaluate a lithp arithmetic expression. Returns the printed result; evaluation errors such as division by zero come back as results of kind Error."),
			mcp.WithString("expr",
				mcp.Required(),
				mcp.Description("Expression to evaluate, e.g. + 1 (* 2 3)"),
			),
		),
		b.handleEval,
	)

	s.AddTool(
		mcp.NewTool("lithp_traces",
			mcp.WithDescription("List recent evaluations held by the core, oldest first."),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of traces to return"),
			),
		),
		b.handleTraces,
	)

	s.AddTool(
		mcp.NewTool("lithp_clear",
			mcp.WithDescription("Drop the core's in-memory trace buffer."),
		),
		b.handleClear,
	)

	return s
}

func main() {
	sockPath := os.Getenv("LITHP_SOCK")
	if sockPath == "" {
		sockPath = "/tmp/lithp.sock"
	}

	b := newBridge(sockPath)
	if err := b.connect(); err != nil {
		log.Fatalf("%v", err)
	}
	defer b.close()
	log.Printf("connected to lithp core: %s", sockPath)

	if err := server.ServeStdio(newServer(b)); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
