package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cast"

	lithp "github.com/SirJoeth3rd/Lithp/core"
)

const maxBodySize = 1 << 20

// gateway serves HTTP requests by forwarding them to a lithp core.
type gateway struct {
	gatewayID string
	sockPath  string
	timeout   time.Duration

	conn   net.Conn   // nil until dialed, and again after a failed round trip
	connMu sync.Mutex // one request in flight on conn
}

type evalBody struct {
	Expr string `json:"expr"`
}

func newGateway(sockPath string) *gateway {
	return &gateway{
		gatewayID: uuid.NewString(),
		sockPath:  sockPath,
		timeout:   30 * time.Second,
	}
}

// connect dials the core unless a connection is already open.
func (g *gateway) connect() error {
	g.connMu.Lock()
	defer g.connMu.Unlock()
	return g.connectLocked()
}

func (g *gateway) connectLocked() error {
	if g.conn != nil {
		return nil
	}
	conn, err := net.Dial("unix", g.sockPath)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", g.sockPath, err)
	}
	g.conn = conn
	return nil
}

// dropLocked discards the connection. A reply to an abandoned request may still
// arrive on it, so it is never reused.
func (g *gateway) dropLocked() {
	if g.conn != nil {
		g.conn.Close()
		g.conn = nil
	}
}

func (g *gateway) close() {
	g.connMu.Lock()
	defer g.connMu.Unlock()
	g.dropLocked()
}

// call sends req to the core under a fresh request ID and waits for the
// reply carrying that ID.
func (g *gateway) call(req map[string]any) (map[string]any, error) {
	id := uuid.NewString()
	req["id"] = id

	g.connMu.Lock()
	defer g.connMu.Unlock()

	if err := g.connectLocked(); err != nil {
		return nil, err
	}
	resp, err := g.roundTrip(req)
	if err != nil {
		g.dropLocked()
		return nil, err
	}
	if got := cast.ToString(resp["id"]); got != id {
		g.dropLocked()
		return nil, fmt.Errorf("reply id %q does not match request %q", got, id)
	}
	return resp, nil
}

func (g *gateway) roundTrip(req map[string]any) (map[string]any, error) {
	if err := g.conn.SetDeadline(time.Now().Add(g.timeout)); err != nil {
		return nil, fmt.Errorf("set deadline: %w", err)
	}
	if err := lithp.WriteMsg(g.conn, req); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}
	resp, err := lithp.ReadMsg(g.conn)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return resp, nil
}

func (g *gateway) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", g.handleManual)
	mux.HandleFunc("POST /eval", g.handleEval)
	mux.HandleFunc("GET /traces", g.handleTraces)
	mux.HandleFunc("POST /clear", g.handleClear)
	return mux
}

func (g *gateway) handleManual(w http.ResponseWriter, r *http.Request) {
	g.forward(w, map[string]any{})
}

func (g *gateway) handleEval(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	// JSON bodies carry {"expr": ...}; anything else is the expression itself.
	expr := string(body)
	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "application/json" {
		var eb evalBody
		if err := json.Unmarshal(body, &eb); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON body: %v", err))
			return
		}
		expr = eb.Expr
	}
	g.forward(w, map[string]any{"op": "eval", "expr": expr})
}

func (g *gateway) handleTraces(w http.ResponseWriter, r *http.Request) {
	req := map[string]any{"op": "traces"}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := cast.ToIntE(raw)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", raw))
			return
		}
		req["limit"] = limit
	}
	g.forward(w, req)
}

func (g *gateway) handleClear(w http.ResponseWriter, r *http.Request) {
	g.forward(w, map[string]any{"op": "clear"})
}

// forward relays req and maps the core's reply onto an HTTP status. A
// request the core rejects is the client's fault; a core that cannot be
// reached is a bad gateway.
func (g *gateway) forward(w http.ResponseWriter, req map[string]any) {
	resp, err := g.call(req)
	if err != nil {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			writeError(w, http.StatusGatewayTimeout, "core timeout")
			return
		}
		log.Printf("core call: %v", err)
		writeError(w, http.StatusBadGateway, "failed to reach core")
		return
	}

	w.Header().Set("X-Request-Id", cast.ToString(resp["id"]))
	if ok, _ := resp["ok"].(bool); !ok {
		writeError(w, http.StatusBadRequest, cast.ToString(resp["error"]))
		return
	}
	writeJSON(w, http.StatusOK, resp["value"])
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	sockPath := envOr("LITHP_SOCK", "/tmp/lithp.sock")
	addr := envOr("LITHP_HTTP_ADDR", ":8080")

	g := newGateway(sockPath)
	if err := g.connect(); err != nil {
		log.Fatalf("%v", err)
	}
	defer g.close()
	log.Printf("connected to lithp core: %s", sockPath)
	log.Printf("gateway id: %s", g.gatewayID)

	srv := &http.Server{
		Addr:              addr,
		Handler:           g.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatalf("listen %s: %v", addr, err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}()

	log.Printf("listening on %s", addr)
	if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
		log.Fatalf("http server: %v", err)
	}
}
