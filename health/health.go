package health

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"time"
)

// Server exposes liveness endpoints for the hosting platform's
// keep-alive pings.
type Server struct {
	startedAt time.Time
	connected func() bool
	srv       *http.Server
}

func New(port int, connected func() bool) *Server {
	s := &Server{
		startedAt: time.Now(),
		connected: connected,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", s.handlePing)
	mux.HandleFunc("GET /health", s.handleHealth)

	s.srv = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	return s
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

func (s *Server) Start() error {
	slog.Info("health server listening", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	writeJSON(w, http.StatusOK, map[string]any{
		"status":             "ok",
		"timestamp":          time.Now().UTC().Format(time.RFC3339),
		"uptime_seconds":     int(time.Since(s.startedAt).Seconds()),
		"memory_alloc_bytes": mem.Alloc,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	connected := s.connected != nil && s.connected()

	status := http.StatusOK
	if !connected {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, map[string]any{
		"status":             map[bool]string{true: "ok", false: "degraded"}[connected],
		"connected":          connected,
		"timestamp":          time.Now().UTC().Format(time.RFC3339),
		"uptime_seconds":     int(time.Since(s.startedAt).Seconds()),
		"memory_alloc_bytes": mem.Alloc,
		"goroutines":         runtime.NumGoroutine(),
	})
}

func writeJSON(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode health response", "error", err)
	}
}
