package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dvocr/dvocr/internal/config"
	"github.com/dvocr/dvocr/internal/models"
	"github.com/dvocr/dvocr/internal/ocr"
)

// Server wires the OCR pipeline to HTTP: a multipart upload endpoint, a
// quick-check endpoint, a WebSocket streaming endpoint, health, and metrics.
type Server struct {
	cfg         config.ServerConfig
	processor   *ocr.Processor
	modelStatus models.Status
	mux         *http.ServeMux
}

// New builds a Server around an already-initialized Processor.
func New(cfg config.ServerConfig, processor *ocr.Processor, modelStatus models.Status) *Server {
	s := &Server{cfg: cfg, processor: processor, modelStatus: modelStatus, mux: http.NewServeMux()}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.withMetrics("/healthz", s.healthHandler))
	s.mux.HandleFunc("/api/v1/detect", s.withMetrics("/api/v1/detect", s.detectHandler))
	s.mux.HandleFunc("/api/v1/has-text", s.withMetrics("/api/v1/has-text", s.hasTextHandler))
	s.mux.HandleFunc("/ws/ocr", s.ocrWebSocketHandler)
	if s.cfg.MetricsEnabled {
		s.mux.Handle("/metrics", promhttp.Handler())
	}
}

// Handler returns the configured http.Handler, with CORS applied when
// cfg.CORSOrigin is set.
func (s *Server) Handler() http.Handler {
	if s.cfg.CORSOrigin == "" {
		return s.mux
	}
	return s.corsMiddleware(s.mux)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.cfg.CORSOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withMetrics wraps a handler with request-count and duration observation.
func (s *Server) withMetrics(endpoint string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		httpRequestsTotal.WithLabelValues(r.Method, endpoint, http.StatusText(rec.status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Run starts an HTTP server on addr and blocks until ctx is canceled, then
// shuts down within cfg.ShutdownTimeout seconds.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(s.cfg.ShutdownTimeout)*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
