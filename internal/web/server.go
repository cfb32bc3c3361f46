// Package web serves search artifacts and a JSON search API over HTTP.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/Paintersrp/textsearch/internal/logging"
	"github.com/Paintersrp/textsearch/internal/runtime"
	indexsvc "github.com/Paintersrp/textsearch/internal/services/index"
)

// ArtifactsPrefix is the path the artifact directory is served under.
const ArtifactsPrefix = "/search/"

// Options configures a Server.
type Options struct {
	Searcher runtime.Searcher
	// Stats reports index instrumentation for /healthz. Nil omits it.
	Stats        func() indexsvc.Stats
	ArtifactsDir string
	BaseURL      string
	Limit        int
	Logger       *slog.Logger
}

type Server struct {
	opts   Options
	logger *slog.Logger
}

type searchResponse struct {
	Query   string   `json:"query"`
	Results []Result `json:"results"`
}

type healthResponse struct {
	Status      string     `json:"status"`
	Documents   int        `json:"documents"`
	Pending     int        `json:"pending"`
	LastRebuild *time.Time `json:"lastRebuild,omitempty"`
}

func NewServer(opts Options) *Server {
	return &Server{opts: opts, logger: logging.OrDiscard(opts.Logger)}
}

// Handler routes /healthz, /api/search and the artifact directory.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/search", s.handleSearch)
	if s.opts.ArtifactsDir != "" {
		mux.Handle("GET "+ArtifactsPrefix, allowCORS(
			http.StripPrefix(ArtifactsPrefix, http.FileServer(http.Dir(s.opts.ArtifactsDir))),
		))
	}
	return s.logRequests(mux)
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	if s.opts.Stats != nil {
		stats := s.opts.Stats()
		resp.Documents = stats.Documents
		resp.Pending = stats.Pending
		if !stats.LastRebuild.IsZero() {
			resp.LastRebuild = &stats.LastRebuild
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	limit := parseIntQuery(r, "limit", s.opts.Limit)

	if s.opts.Searcher == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": runtime.ErrUnavailable.Error()})
		return
	}

	docs, err := s.opts.Searcher.Query(query, limit)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, runtime.ErrUnavailable) {
			status = http.StatusServiceUnavailable
		}
		s.logger.Warn("search failed", "query", query, "error", err)
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	results, err := NewResults(s.opts.BaseURL, query, docs)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{Query: query, Results: results})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func parseIntQuery(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func allowCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		next.ServeHTTP(w, r)
	})
}

// responseWriter captures the status code for request logging.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.statusCode = http.StatusOK
		rw.written = true
	}
	return rw.ResponseWriter.Write(b)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w}
		next.ServeHTTP(rw, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", filepath.ToSlash(filepath.Clean(r.URL.Path)),
			"status", rw.statusCode,
			"duration", time.Since(start),
		)
	})
}
