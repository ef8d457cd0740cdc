package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"audiofeeder/internal/config"
	"audiofeeder/internal/feed"
	"audiofeeder/internal/layout"
	"audiofeeder/internal/logging"
	"audiofeeder/internal/services"
)

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	mux      *http.ServeMux
	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil
	}

	srv := &apiServer{
		bind:   bind,
		logger: logging.NewComponentLogger(logger, "api-server"),
		daemon: d,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", srv.handleStatus)
	mux.HandleFunc("GET /api/entries", srv.handleEntries)
	mux.HandleFunc("GET /api/entries/{id}/modes", srv.handleModes)
	mux.HandleFunc("GET /api/entries/{id}/render/{mode}", srv.handleRender)
	srv.mux = mux

	srv.server = &http.Server{
		Handler:           srv.correlate(mux),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Render builds can dominate the response time on a cold cache.
		WriteTimeout: 15 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
	return srv
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// correlate tags every request with a correlation identifier so one
// request's log lines can be followed through the engine.
func (s *apiServer) correlate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(services.WithRequestID(r.Context(), requestID)))
	})
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.daemon.Status(r.Context()))
}

type entriesResponse struct {
	Entries []string `json:"entries"`
}

func (s *apiServer) handleEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := s.daemon.engine.Entries(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, entriesResponse{Entries: entries})
}

func (s *apiServer) handleModes(w http.ResponseWriter, r *http.Request) {
	entryID := r.PathValue("id")
	statuses, err := s.daemon.engine.Modes(r.Context(), entryID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"entry_id": entryID,
		"modes":    statuses,
	})
}

type renderResponse struct {
	EntryID     string      `json:"entry_id"`
	Mode        layout.Mode `json:"mode"`
	Fingerprint string      `json:"fingerprint"`
	CreatedAt   time.Time   `json:"created_at"`
	Items       []feed.Item `json:"items"`
}

func (s *apiServer) handleRender(w http.ResponseWriter, r *http.Request) {
	entryID := r.PathValue("id")
	mode, err := layout.ParseMode(r.PathValue("mode"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	artifact, err := s.daemon.engine.Render(r.Context(), entryID, mode)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, renderResponse{
		EntryID:     entryID,
		Mode:        mode,
		Fingerprint: artifact.Fingerprint,
		CreatedAt:   artifact.CreatedAt,
		Items:       feed.Items(artifact),
	})
}

// writeServiceError maps the error taxonomy onto HTTP statuses. Render
// failures read as an explicit temporarily-unavailable condition rather
// than a broken feed.
func (s *apiServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := services.HTTPStatus(err)
	message := err.Error()
	if status == http.StatusServiceUnavailable {
		message = "feed temporarily unavailable: " + message
	}
	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed",
			logging.String("path", r.URL.Path),
			logging.Error(err),
		)
	}
	s.writeError(w, status, message)
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
