// Package schemeservice implements the scheme service: it publishes a scheme
// catalog over HTTP and converts raw scores into weighted totals.
package schemeservice

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/klauspost/compress/gzhttp"
	"github.com/spboyer/kansan/internal/scheme"
)

// maxRequestBytes bounds the size of a conversion request body.
const maxRequestBytes = 1 << 20

// HealthResponse is the health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// CatalogResponse is the body of GET /schemes.
type CatalogResponse struct {
	Schemes []*scheme.Scheme `json:"schemes"`
}

// ErrorResponse is returned for every non-2xx answer.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// CatalogSource supplies the catalog to serve. *scheme.Holder satisfies it,
// so a reload becomes visible to the next request.
type CatalogSource interface {
	Load() *scheme.Catalog
}

// Handlers holds the HTTP handler methods for the scheme service.
type Handlers struct {
	catalogs CatalogSource
	logger   *slog.Logger
}

// NewHandlers creates handlers serving the catalog held by catalogs.
func NewHandlers(catalogs CatalogSource, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{catalogs: catalogs, logger: logger}
}

// HandleHealth returns a simple health check response.
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// HandleSchemes lists every scheme in catalog order.
func (h *Handlers) HandleSchemes(w http.ResponseWriter, _ *http.Request) {
	schemes := h.catalogs.Load().Schemes()
	if schemes == nil {
		schemes = []*scheme.Scheme{}
	}
	writeJSON(w, http.StatusOK, CatalogResponse{Schemes: schemes})
}

// HandleScheme returns a single scheme by key.
func (h *Handlers) HandleScheme(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	s, ok := h.catalogs.Load().Get(key)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("scheme not found: %s", key))
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// HandleConvert converts the scores of a ConversionRequest.
func (h *Handlers) HandleConvert(w http.ResponseWriter, r *http.Request) {
	var req scheme.ConversionRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if req.SchemeKey == "" {
		writeError(w, http.StatusUnprocessableEntity, "scheme_key is required")
		return
	}

	s, ok := h.catalogs.Load().Get(req.SchemeKey)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown scheme_key: %s", req.SchemeKey))
		return
	}

	total, breakdown, err := Convert(s, req.Scores, req.Bases)
	if err != nil {
		var baseErr *InvalidBaseError
		if errors.As(err, &baseErr) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.logger.Debug("Converted scores", "scheme", s.Key, "total", total)
	writeJSON(w, http.StatusOK, scheme.ConversionResult{
		SchemeKey: s.Key,
		Total:     total,
		MaxTotal:  s.MaxTotal,
		Breakdown: breakdown,
	})
}

// NewRouter builds the service router. allowedOrigins controls CORS; an
// empty list allows every origin.
func NewRouter(catalogs CatalogSource, logger *slog.Logger, allowedOrigins ...string) http.Handler {
	h := NewHandlers(catalogs, logger)
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer)
	r.Use(requestLogger(h.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.HandleHealth)
	r.Get("/schemes", h.HandleSchemes)
	r.Get("/schemes/{key}", h.HandleScheme)
	r.Post("/convert", h.HandleConvert)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	return gzhttp.GzipHandler(r)
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("HTTP request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, ErrorResponse{Detail: msg})
}
