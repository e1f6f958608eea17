// Package web serves generated schema documentation over HTTP.
package web

import (
	"bytes"
	"errors"
	"net/http"
	"time"

	"github.com/artpar/api2html/app"
	"github.com/artpar/api2html/config"
	"github.com/artpar/api2html/core/formatter"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// contentTypes maps formatter names to response content types.
var contentTypes = map[string]string{
	"html":  "text/html; charset=utf-8",
	"table": "text/plain; charset=utf-8",
	"json":  "application/x-ndjson",
	"yaml":  "application/yaml",
}

// ConfigSource provides the current configuration.
type ConfigSource interface {
	Get() *config.Config
}

// DocsHandler serves documentation for one input document. Every request
// performs its own run, so edits to the input show up on the next request.
type DocsHandler struct {
	service *app.Service
	input   string
	config  ConfigSource
	metrics http.Handler
	logger  zerolog.Logger
}

// DocsDeps contains dependencies for the docs handler.
type DocsDeps struct {
	Service *app.Service
	Input   string
	Config  ConfigSource
	Metrics http.Handler // optional, mounted at /metrics
	Logger  zerolog.Logger
}

// NewDocsHandler creates a new documentation handler.
func NewDocsHandler(deps DocsDeps) *DocsHandler {
	return &DocsHandler{
		service: deps.Service,
		input:   deps.Input,
		config:  deps.Config,
		metrics: deps.Metrics,
		logger:  deps.Logger,
	}
}

// Router returns the documentation router.
func (h *DocsHandler) Router() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggingMiddleware(h.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.Health)
	if h.metrics != nil {
		r.Handle("/metrics", h.metrics)
	}

	r.Get("/", h.All)
	r.Get("/schemas/{id}", h.One)

	return r
}

// Health reports liveness.
func (h *DocsHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}

// All renders every schema of the document.
func (h *DocsHandler) All(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, nil)
}

// One renders a single top-level schema and whatever it reaches.
func (h *DocsHandler) One(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, []string{chi.URLParam(r, "id")})
}

func (h *DocsHandler) serve(w http.ResponseWriter, r *http.Request, selection []string) {
	cfg := h.config.Get()

	format := cfg.Output.Format
	if f := r.URL.Query().Get("format"); f != "" {
		format = f
	}

	req := app.Request{
		Input:              h.input,
		Selection:          selection,
		Format:             format,
		IncludeDescription: cfg.Output.Descriptions(),
	}

	var buf bytes.Buffer
	report, err := h.service.Generate(r.Context(), req, &buf)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, formatter.ErrUnknownFormat) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}
	if len(selection) > 0 && len(report.Missing) > 0 {
		http.Error(w, "schema not found: "+report.Missing[0], http.StatusNotFound)
		return
	}

	if ct, ok := contentTypes[report.Format]; ok {
		w.Header().Set("Content-Type", ct)
	}
	w.Header().Set("X-Run-ID", report.RunID)
	w.Write(buf.Bytes())
}

// NewLoggingMiddleware logs each request at debug level.
func NewLoggingMiddleware(logger zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			// Skip logging for health checks and metrics
			if r.URL.Path == "/healthz" || r.URL.Path == "/metrics" {
				return
			}

			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http request")
		})
	}
}
