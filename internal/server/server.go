// Package server exposes the HTTP surface: stream info lookup and the proxy
// relay used as the transfer fallback. Handlers are stateless and
// independently concurrent; every request re-resolves from the external
// service.
package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vidgrab/vidgrab/internal/catalog"
)

// Server wires the handlers to the resolution service.
type Server struct {
	source     catalog.Source
	builder    *catalog.Builder
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a Server. A nil logger uses slog.Default; a nil httpClient
// uses http.DefaultClient for direct stream fetches.
func New(source catalog.Source, httpClient *http.Client, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Server{
		source:     source,
		builder:    catalog.NewBuilder(source, slogWarnLogger{logger}),
		httpClient: httpClient,
		logger:     logger,
	}
}

// Router builds the chi router with CORS on every response and preflight
// handling on both endpoints.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.recoverer)
	r.Use(s.requestLogger)
	r.Use(corsHeaders)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/info", s.handleInfo)
	r.Options("/info", handlePreflight)
	r.Get("/download", s.handleDownload)
	r.Options("/download", handlePreflight)
	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, envelope{Success: true})
}

func handlePreflight(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// corsHeaders carries permissive cross-origin headers so a browser-side
// caller can read every response, streaming ones included.
func corsHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Accept, Range")
		h.Set("Access-Control-Expose-Headers", "Content-Length, Content-Range, Accept-Ranges")
		next.ServeHTTP(w, r)
	})
}

// recoverer keeps panics inside the one JSON error shape.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("handler panic", "path", r.URL.Path, "panic", rec)
				writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// envelope is the one JSON shape every non-binary response follows.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, env envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, envelope{Success: false, Error: code, Message: message})
}

type slogWarnLogger struct {
	logger *slog.Logger
}

func (l slogWarnLogger) Warnf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}
