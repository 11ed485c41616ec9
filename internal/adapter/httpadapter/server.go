package httpadapter

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/weather-warning-service/internal/domain"
)

// BoardSource provides the most recently built warning board.
type BoardSource interface {
	Latest() (domain.Board, bool)
}

// Server exposes the warning board plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	boards     BoardSource
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /warnings, /healthz, /readyz, and /metrics routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, boards BoardSource, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		boards: boards,
		logger: logger,
	}

	mux.HandleFunc("GET /warnings", s.handleWarnings)
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// handleWarnings serves the latest board. ?section=current or ?section=advance
// narrows the response to one list.
func (s *Server) handleWarnings(w http.ResponseWriter, r *http.Request) {
	board, ok := s.boards.Latest()
	if !ok {
		sharedobs.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  "no warning board built yet",
		})
		return
	}

	switch section := r.URL.Query().Get("section"); section {
	case "":
		sharedobs.WriteJSON(w, http.StatusOK, board)
	case "current":
		sharedobs.WriteJSON(w, http.StatusOK, nonNil(board.Current))
	case "advance":
		sharedobs.WriteJSON(w, http.StatusOK, nonNil(board.Advance))
	default:
		sharedobs.WriteJSON(w, http.StatusBadRequest, map[string]string{
			"error": "unknown section " + section,
		})
	}
}

func nonNil(ds []domain.Display) []domain.Display {
	if ds == nil {
		return []domain.Display{}
	}
	return ds
}
