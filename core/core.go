package lithp

import (
	"context"
	"fmt"
	"io"
	"log"
	"math"
	"net"
	"os"
	"sync"
)

// Version is reported by the core manual and the REPL banner.
const Version = "1.0"

// Core is the central actor that owns the evaluator and handles requests.
// Every request is served by a single goroutine, so evaluation is never
// entered concurrently.
type Core struct {
	eval      *Evaluator
	sink      TraceSink
	requests  chan coreRequest
	quit      chan struct{}
	closeOnce sync.Once
	listener  net.Listener
	traces    []Trace
	maxTraces int
}

type coreRequest struct {
	msg      map[string]any
	response chan map[string]any
}

// NewCore listens on sockPath. sink may be nil; otherwise every successful
// evaluation is recorded to it.
func NewCore(sockPath string, sink TraceSink) (*Core, error) {
	// Clean up a stale socket
	os.Remove(sockPath)

	listener, err := net.Listen("unix", sockPath)
	if err != nil {
		return nil, fmt.Errorf("listen cli: %w", err)
	}
	return &Core{
		eval:      NewEvaluator(),
		sink:      sink,
		requests:  make(chan coreRequest, 64),
		quit:      make(chan struct{}),
		listener:  listener,
		maxTraces: 1000,
	}, nil
}

// Run starts the actor goroutine and accepts connections. Blocks until
// Shutdown.
func (c *Core) Run() {
	go c.actorLoop()
	c.acceptClients()
}

func (c *Core) acceptClients() {
	for {
		conn, err := c.listener.Accept()
		if err != nil {
			return
		}
		go c.handleClientConnection(conn)
	}
}

// Shutdown stops accepting connections and stops the actor.
func (c *Core) Shutdown() {
	c.closeOnce.Do(func() {
		close(c.quit)
		c.listener.Close()
	})
}

func (c *Core) actorLoop() {
	for {
		select {
		case req := <-c.requests:
			req.response <- c.handleRequest(req.msg)
		case <-c.quit:
			return
		}
	}
}

// sendToActor sends a request to the core actor and waits for the response.
func (c *Core) sendToActor(msg map[string]any) map[string]any {
	id, _ := msg["id"].(string)
	resp := make(chan map[string]any, 1)
	select {
	case c.requests <- coreRequest{msg: msg, response: resp}:
	case <-c.quit:
		return errorResponse(id, "core is shutting down")
	}
	select {
	case r := <-resp:
		return r
	case <-c.quit:
		return errorResponse(id, "core is shutting down")
	}
}

func (c *Core) handleRequest(msg map[string]any) map[string]any {
	id, _ := msg["id"].(string)

	op, _ := msg["op"].(string)
	if op == "" {
		// Empty request or no op: return manual
		return c.coreManual(id)
	}

	switch op {
	case "eval":
		return c.handleEval(id, msg)
	case "traces":
		return c.handleTraces(id, msg)
	case "clear":
		return c.handleClear(id)
	default:
		return errorResponse(id, fmt.Sprintf("unknown op: %s", op))
	}
}

func (c *Core) coreManual(id string) map[string]any {
	builtins := make([]any, 0, len(opNames))
	for _, name := range opNames {
		builtins = append(builtins, name)
	}
	return map[string]any{
		"id": id,
		"ok": true,
		"value": map[string]any{
			"name":    "lithp-core",
			"version": Version,
			"ops": map[string]any{
				"eval":   "Evaluate a lithp expression. Params: expr (string)",
				"traces": "List recent evaluations, oldest first. Params: limit (int, optional)",
				"clear":  "Drop the in-memory trace buffer.",
			},
			"builtins": builtins,
		},
	}
}

func (c *Core) handleEval(id string, msg map[string]any) map[string]any {
	expr, ok := msg["expr"].(string)
	if !ok {
		return errorResponse(id, "eval: missing 'expr' string")
	}

	v, trace, err := c.eval.Run(expr)
	if err != nil {
		return errorResponse(id, err.Error())
	}
	c.appendTrace(trace)

	if c.sink != nil {
		if err := c.sink.Record(context.Background(), trace); err != nil {
			log.Printf("record trace: %v", err)
		}
	}

	return map[string]any{
		"id": id,
		"ok": true,
		"value": map[string]any{
			"result": trace.Output,
			"kind":   v.Kind().String(),
			"error":  trace.IsError,
		},
	}
}

func (c *Core) handleTraces(id string, msg map[string]any) map[string]any {
	n := len(c.traces)
	if raw, ok := msg["limit"]; ok {
		limit, ok := raw.(float64)
		if !ok || limit < 0 || limit != math.Trunc(limit) {
			return errorResponse(id, "traces: 'limit' must be a non-negative integer")
		}
		// Clamp before converting: huge floats do not fit in an int.
		n = int(min(limit, float64(n)))
	}
	recent := c.traces[len(c.traces)-n:]
	result := make([]any, len(recent))
	for i, t := range recent {
		result[i] = t.ToGo()
	}
	return map[string]any{"id": id, "ok": true, "value": result}
}

func (c *Core) handleClear(id string) map[string]any {
	c.traces = nil
	return map[string]any{"id": id, "ok": true, "value": "cleared"}
}

func (c *Core) appendTrace(t Trace) {
	c.traces = append(c.traces, t)
	if len(c.traces) > c.maxTraces {
		c.traces = c.traces[len(c.traces)-c.maxTraces:]
	}
}

func errorResponse(id, errMsg string) map[string]any {
	return map[string]any{"id": id, "ok": false, "error": errMsg}
}

// --- Connection handling ---

func (c *Core) handleClientConnection(conn net.Conn) {
	defer conn.Close()

	for {
		msg, err := ReadMsg(conn)
		if err != nil {
			if err != io.EOF {
				log.Printf("read client message: %v", err)
			}
			return
		}

		resp := c.sendToActor(msg)
		if err := WriteMsg(conn, resp); err != nil {
			log.Printf("write client response: %v", err)
			return
		}
	}
}
