// Package api exposes the HTTP interface for the price tracker service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pricewatch/pricewatch/internal/batch"
	"github.com/pricewatch/pricewatch/internal/config"
	"github.com/pricewatch/pricewatch/internal/metrics"
	"github.com/pricewatch/pricewatch/internal/tracker"
)

// ProductReader is the read surface the API needs from a product store.
type ProductReader interface {
	ListAll(ctx context.Context) ([]tracker.TrackedProduct, error)
	Get(ctx context.Context, locator string) (tracker.TrackedProduct, error)
}

// Server wires HTTP handlers to the batch coordinator and product store.
type Server struct {
	router      chi.Router
	coordinator *batch.Coordinator
	products    ProductReader
	cfg         config.Config
	logger      *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(
	coordinator *batch.Coordinator,
	products ProductReader,
	cfg config.Config,
	logger *zap.Logger,
) *Server {
	s := &Server{
		coordinator: coordinator,
		products:    products,
		cfg:         cfg,
		logger:      logger,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(timeoutMiddleware(5 * time.Minute))
	if cfg.Auth.Enabled {
		r.Use(apiKeyMiddleware(cfg.Auth.APIKey))
	}

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/batch/run", s.runBatch)
		r.Route("/products", func(r chi.Router) {
			r.Get("/", s.listProducts)
			r.Get("/{locator}", s.getProduct)
		})
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(s.logger, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	// The store is the only hard downstream; one cheap read proves it.
	if _, err := s.products.ListAll(r.Context()); err != nil {
		writeError(s.logger, w, http.StatusServiceUnavailable, "store unreachable")
		return
	}
	writeJSON(s.logger, w, http.StatusOK, map[string]string{"status": "ready"})
}

// batchRunResponse is the body returned by POST /v1/batch/run. A run with
// per-product failures still answers 200; only fatal errors produce 500.
type batchRunResponse struct {
	Message string                   `json:"message"`
	RunID   string                   `json:"run_id"`
	Data    []tracker.TrackedProduct `json:"data"`
	Failed  []tracker.FailedRefresh  `json:"failed"`
}

func (s *Server) runBatch(w http.ResponseWriter, r *http.Request) {
	result, err := s.coordinator.Run(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, tracker.ErrNoProductsTracked):
			writeError(s.logger, w, http.StatusInternalServerError, "no products tracked")
		case errors.Is(err, tracker.ErrStoreUnreachable):
			writeError(s.logger, w, http.StatusInternalServerError, "store unreachable")
		default:
			writeError(s.logger, w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	message := "ok"
	if len(result.Failed) > 0 {
		message = "completed with failures"
	}
	writeJSON(s.logger, w, http.StatusOK, batchRunResponse{
		Message: message,
		RunID:   result.RunID,
		Data:    result.Succeeded,
		Failed:  result.Failed,
	})
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.products.ListAll(r.Context())
	if err != nil {
		writeError(s.logger, w, http.StatusInternalServerError, "failed to list products")
		return
	}
	writeJSON(s.logger, w, http.StatusOK, map[string]any{"products": products})
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	locator := chi.URLParam(r, "locator")
	product, err := s.products.Get(r.Context(), locator)
	if err != nil {
		if errors.Is(err, tracker.ErrNotFound) {
			writeError(s.logger, w, http.StatusNotFound, "product not found")
			return
		}
		writeError(s.logger, w, http.StatusInternalServerError, "failed to load product")
		return
	}
	writeJSON(s.logger, w, http.StatusOK, map[string]any{"product": product})
}

type requestIDKey struct{}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func loggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request completed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.status),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			)
		})
	}
}

func recoverMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered", zap.Any("panic", rec))
					writeError(logger, w, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

func apiKeyMiddleware(expected string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key == "" {
				key = r.URL.Query().Get("api_key")
			}
			if key != expected {
				writeJSON(zap.L(), w, http.StatusForbidden, map[string]string{"error": "unauthorized"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func writeJSON(logger *zap.Logger, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("write JSON failed", zap.Error(err))
	}
}

func writeError(logger *zap.Logger, w http.ResponseWriter, status int, msg string) {
	writeJSON(logger, w, status, map[string]string{"error": msg})
}
