package web

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"helpdesk/pkg/api"
	"helpdesk/pkg/monitor"
	"helpdesk/pkg/tools"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for decoupled UI
	},
}

type WebConfig struct {
	Port int `json:"port"` // Default: 9453
}

// SafeConn serializes concurrent writes on one websocket connection.
type SafeConn struct {
	*websocket.Conn
	mu sync.Mutex
}

func (sc *SafeConn) WriteJSON(v any) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.Conn.WriteJSON(v)
}

// WebChannel serves the REST API, the websocket chat endpoint and the
// live monitor feed.
type WebChannel struct {
	config   WebConfig
	runner   api.TurnRunner
	gateway  *tools.Gateway
	server   *http.Server
	mu       sync.RWMutex
	watchers map[*SafeConn]struct{} // live monitor subscribers
}

func NewWebChannel(cfg WebConfig, runner api.TurnRunner, gateway *tools.Gateway) *WebChannel {
	if cfg.Port == 0 {
		cfg.Port = 9453
	}
	return &WebChannel{
		config:   cfg,
		runner:   runner,
		gateway:  gateway,
		watchers: make(map[*SafeConn]struct{}),
	}
}

func (c *WebChannel) ID() string {
	return "web"
}

// routes builds the HTTP mux served by Start.
func (c *WebChannel) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat", c.handleChat)
	mux.HandleFunc("POST /session/new", c.handleNewSession)
	mux.HandleFunc("POST /session/{id}/clear", c.handleClearSession)
	mux.HandleFunc("GET /session/{id}/history", c.handleHistory)
	mux.HandleFunc("GET /health", c.handleHealth)
	mux.HandleFunc("GET /admin/tools", c.handleAdminTools)
	mux.HandleFunc("/ws", c.handleWebSocket)
	mux.HandleFunc("/monitor", c.handleMonitorSocket)
	return mux
}

func (c *WebChannel) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", c.config.Port)
	c.server = &http.Server{
		Addr:    addr,
		Handler: c.routes(),
	}

	slog.Info("Web API listening", "port", c.config.Port)

	go func() {
		if err := c.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Web API server error", "error", err)
		}
	}()

	return nil
}

func (c *WebChannel) Stop() error {
	if c.server != nil {
		return c.server.Close()
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("Failed to marshal response", "error", err)
		return
	}
	w.Write(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (c *WebChannel) handleChat(w http.ResponseWriter, r *http.Request) {
	var req api.TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Channel = c.ID()

	result, err := c.runner.RunTurn(r.Context(), &req)
	if err != nil {
		if vErr := req.Validate(); vErr != nil {
			writeError(w, http.StatusBadRequest, vErr.Error())
			return
		}
		slog.Error("Turn failed", "session", req.SessionID, "error", err)
		writeError(w, http.StatusBadGateway, "the assistant is temporarily unavailable, please try again")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (c *WebChannel) handleNewSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"session_id": c.runner.NewSession()})
}

func (c *WebChannel) handleClearSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !c.runner.ClearSession(id) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"session_id": id, "status": "cleared"})
}

func (c *WebChannel) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	entries, ok := c.runner.SessionHistory(id)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": id,
		"history":    entries,
	})
}

func (c *WebChannel) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "healthy",
		"tools_ready": c.gateway != nil && c.gateway.Ready(),
	})
}

// handleAdminTools exposes the merged tool catalog for debugging.
func (c *WebChannel) handleAdminTools(w http.ResponseWriter, r *http.Request) {
	if c.gateway == nil {
		writeJSON(w, http.StatusOK, map[string]any{"tools": []any{}})
		return
	}
	defs, err := c.gateway.Catalog(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tools": defs})
}

// handleWebSocket runs a chat conversation over one websocket. Each
// inbound frame is a TurnRequest, each outbound frame a TurnResult.
func (c *WebChannel) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	rawConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("WS Upgrade failed", "error", err)
		return
	}
	conn := &SafeConn{Conn: rawConn}
	defer conn.Close()

	// One websocket maps to one session by default
	sessionID := c.runner.NewSession()

	for {
		_, msgBytes, err := conn.ReadMessage()
		if err != nil {
			break
		}

		var req api.TurnRequest
		if err := json.Unmarshal(msgBytes, &req); err != nil {
			// Fallback: treat the frame as plain text
			req = api.TurnRequest{Message: string(msgBytes)}
		}
		if req.SessionID == "" {
			req.SessionID = sessionID
		}
		req.Channel = c.ID()

		result, err := c.runner.RunTurn(r.Context(), &req)
		if err != nil {
			conn.WriteJSON(map[string]string{"error": err.Error()})
			continue
		}
		if err := conn.WriteJSON(result); err != nil {
			break
		}
	}
}

// handleMonitorSocket subscribes a websocket to the live turn feed.
func (c *WebChannel) handleMonitorSocket(w http.ResponseWriter, r *http.Request) {
	rawConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("WS Upgrade failed", "error", err)
		return
	}
	conn := &SafeConn{Conn: rawConn}

	c.mu.Lock()
	c.watchers[conn] = struct{}{}
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.watchers, conn)
		c.mu.Unlock()
		conn.Close()
	}()

	// Hold the connection open until the client goes away
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// OnTurn broadcasts a completed turn to every /monitor subscriber.
func (c *WebChannel) OnTurn(ev monitor.TurnEvent) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for conn := range c.watchers {
		if err := conn.WriteJSON(ev); err != nil {
			slog.Debug("Monitor subscriber write failed", "error", err)
		}
	}
}
