// Package devtools exposes a runtime's internals over HTTP: the
// interned path index, scheduler status, the error code catalog,
// Prometheus metrics, and a live WebSocket stream of pass summaries.
// It is meant for development and diagnostics, not production
// traffic.
package devtools

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/structivejs/structive/internal/errors"
	"github.com/structivejs/structive/pkg/update"
)

// Server serves the devtools endpoints for one updater.
type Server struct {
	updater  *update.Updater
	logger   *slog.Logger
	gatherer prometheus.Gatherer
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithGatherer sets the Prometheus gatherer backing /metrics. Pass
// the registry the runtime's metrics were created with.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// NewServer creates a devtools server over u. The server subscribes
// to u's passes; create it before traffic you want streamed.
func NewServer(u *update.Updater, opts ...Option) *Server {
	s := &Server{
		updater:  u,
		logger:   slog.Default(),
		gatherer: prometheus.DefaultGatherer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // dev tooling, same-origin not enforced
			},
		},
		clients: make(map[*websocket.Conn]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	u.AddPassListener(s.broadcast)
	return s
}

// Router builds the devtools route tree.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/debug/paths", s.handlePaths)
	r.Get("/debug/status", s.handleStatus)
	r.Get("/debug/errors", s.handleErrors)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	r.Get("/ws/passes", s.handlePassStream)
	return r
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// handlePaths dumps every interned pattern in sorted order.
func (s *Server) handlePaths(w http.ResponseWriter, _ *http.Request) {
	patterns := s.updater.Caches().Patterns()
	sort.Strings(patterns)
	writeJSON(w, map[string]any{"patterns": patterns})
}

// handleStatus reports the scheduler's counters.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]any{
		"version": s.updater.Version(),
		"pending": s.updater.Pending(),
	})
}

// handleErrors lists the registered error codes.
func (s *Server) handleErrors(w http.ResponseWriter, _ *http.Request) {
	codes := errors.Codes()
	sort.Strings(codes)
	out := make([]map[string]string, 0, len(codes))
	for _, code := range codes {
		e := errors.New(code)
		out = append(out, map[string]string{
			"code":     code,
			"message":  e.Message,
			"docs_url": e.DocURL,
		})
	}
	writeJSON(w, map[string]any{"errors": out})
}

// handlePassStream upgrades to WebSocket and streams a JSON pass
// summary per completed pass until the client disconnects.
func (s *Server) handlePassStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("pass stream upgrade failed", "error", err)
		return
	}
	s.mu.Lock()
	s.clients[conn] = true
	s.mu.Unlock()
	s.logger.Debug("pass stream client connected", "remote", conn.RemoteAddr())

	// reader loop only to detect disconnect
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.drop(conn)
				return
			}
		}
	}()
}

func (s *Server) drop(conn *websocket.Conn) {
	s.mu.Lock()
	delete(s.clients, conn)
	s.mu.Unlock()
	conn.Close()
}

// broadcast sends one pass summary to every connected client.
func (s *Server) broadcast(info update.PassInfo) {
	s.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.clients))
	for conn := range s.clients {
		conns = append(conns, conn)
	}
	s.mu.Unlock()

	for _, conn := range conns {
		if err := conn.WriteJSON(info); err != nil {
			s.logger.Debug("pass stream client dropped", "error", err)
			s.drop(conn)
		}
	}
}

// Close disconnects every streaming client.
func (s *Server) Close() {
	s.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.clients))
	for conn := range s.clients {
		conns = append(conns, conn)
	}
	s.clients = make(map[*websocket.Conn]bool)
	s.mu.Unlock()
	for _, conn := range conns {
		conn.Close()
	}
}
