// Package httpapi exposes the app over HTTP: REST endpoints for the
// inventory and projects, the tool-call router, and a /ws chat socket.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jkmcrg/diybot/internal/chat"
	"github.com/jkmcrg/diybot/internal/inventory"
	"github.com/jkmcrg/diybot/internal/llm"
	"github.com/jkmcrg/diybot/internal/server"
	"go.uber.org/zap"
)

// Server is the HTTP adapter over an App.
type Server struct {
	app      *server.App
	origins  []string
	mux      *http.ServeMux
	upgrader websocket.Upgrader
	log      *zap.Logger

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

// New creates a Server. allowedOrigins may contain "*".
func New(app *server.App, allowedOrigins []string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		app:     app,
		origins: allowedOrigins,
		mux:     http.NewServeMux(),
		log:     logger,
		conns:   map[*websocket.Conn]struct{}{},
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     func(r *http.Request) bool { return s.originAllowed(r.Header.Get("Origin")) },
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /{$}", s.handleRoot)
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("GET /api/tools", s.handleTools)
	s.mux.HandleFunc("GET /api/tools/{id}", s.handleTool)
	s.mux.HandleFunc("GET /api/house-objects", s.handleHouseObjects)
	s.mux.HandleFunc("GET /api/house-objects/{id}", s.handleHouseObject)
	s.mux.HandleFunc("GET /api/projects", s.handleProjects)
	s.mux.HandleFunc("POST /api/projects", s.handleCreateProject)
	s.mux.HandleFunc("GET /api/projects/{id}", s.handleProject)
	s.mux.HandleFunc("POST /api/projects/{id}/generate-steps", s.handleGenerateSteps)
	s.mux.HandleFunc("POST /api/projects/{id}/complete-step", s.handleCompleteStep)
	s.mux.HandleFunc("POST /api/projects/{id}/status", s.handleProjectStatus)

	s.mux.HandleFunc("POST /api/tool-calls", s.handleToolCall)
	s.mux.HandleFunc("GET /api/tool-calls/schema", s.handleToolSchema)

	s.mux.HandleFunc("GET /api/sessions", s.handleSessions)
	s.mux.HandleFunc("GET /api/sessions/{id}/history", s.handleSessionHistory)
	s.mux.HandleFunc("DELETE /api/sessions/{id}", s.handleClearSession)

	s.mux.HandleFunc("GET /ws", s.handleWS)
}

// Handler returns the root handler with CORS applied.
func (s *Server) Handler() http.Handler {
	return s.cors(s.mux)
}

// Close drops every open chat socket.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.conns {
		_ = c.Close()
		delete(s.conns, c)
	}
}

// ── CORS ────────────────────────────────────────────────

func (s *Server) originAllowed(origin string) bool {
	if origin == "" {
		return true
	}
	return slices.Contains(s.origins, "*") || slices.Contains(s.origins, origin)
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.originAllowed(origin) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			h.Add("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ── Helpers ─────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, inventory.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, inventory.ErrNoActiveStep):
		return http.StatusConflict
	case errors.Is(err, chat.ErrEmptyDescription), errors.Is(err, chat.ErrEmptyMessage),
		errors.Is(err, inventory.ErrInvalidStatus):
		return http.StatusBadRequest
	case errors.Is(err, llm.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	writeError(w, status, err.Error())
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
