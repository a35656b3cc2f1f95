// Package server exposes the viewer over an HTTP JSON API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	vererrors "github.com/mkviewer/mkviewer/internal/errors"
	"github.com/mkviewer/mkviewer/internal/search"
	"github.com/mkviewer/mkviewer/internal/service"
	"github.com/mkviewer/mkviewer/internal/syncer"
)

// Config configures the HTTP server.
type Config struct {
	Host string
	Port int
	// SiteTitle is echoed in status responses for the client UI.
	SiteTitle string
	// SyncInterval enables the background sync loop when positive.
	SyncInterval time.Duration
}

// Server serves the viewer API and owns the background sync loop.
type Server struct {
	cfg    Config
	svc    *service.Service
	http   *http.Server
	runner *syncer.Runner
}

// New creates a server around svc.
func New(cfg Config, svc *service.Service) *Server {
	s := &Server{cfg: cfg, svc: svc}
	s.http = &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port)),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if cfg.SyncInterval > 0 {
		s.runner = syncer.NewRunner(svc.Syncer(), cfg.SyncInterval)
	}
	return s
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/tree", s.handleTree)
	mux.HandleFunc("POST /api/refresh", s.handleRefresh)
	mux.HandleFunc("GET /api/doc", s.handleDoc)
	mux.HandleFunc("GET /api/search", s.handleSearch)
	mux.HandleFunc("POST /api/sync", s.handleSync)
	mux.HandleFunc("POST /api/cache/clear", s.handleCacheClear)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	return logRequests(mux)
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if s.runner != nil {
		s.runner.Start(ctx)
		defer s.runner.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server_listening", slog.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	tree, err := s.svc.Tree(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	result, err := s.svc.Refresh(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleDoc(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		writeError(w, vererrors.New(vererrors.ErrCodeInvalidInput, "missing key parameter", nil))
		return
	}
	view, err := s.svc.Document(r.Context(), key)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	mode, ok := search.ParseMode(r.URL.Query().Get("mode"))
	if !ok {
		writeError(w, vererrors.New(vererrors.ErrCodeInvalidInput, "unknown search mode", nil))
		return
	}
	results, err := s.svc.Search(r.Context(), r.URL.Query().Get("q"), mode)
	if err != nil {
		writeError(w, err)
		return
	}
	if results == nil {
		results = []search.Result{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	force := r.URL.Query().Get("force") == "1"
	report, err := s.svc.Sync(r.Context(), force)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	cleared := s.svc.ClearCache()
	writeJSON(w, http.StatusOK, map[string]int{"cleared": cleared})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Site string `json:"site,omitempty"`
		service.Status
	}{Site: s.cfg.SiteTitle, Status: s.svc.Status()})
}

// logRequests logs one line per request.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Info("http_request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("duration", time.Since(start)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
