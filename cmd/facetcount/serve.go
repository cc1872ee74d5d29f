package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hupe1980/facetcount"
	"github.com/hupe1980/facetcount/blobstore"
	"github.com/hupe1980/facetcount/internal/config"
	"github.com/hupe1980/facetcount/metrics"
	"github.com/hupe1980/facetcount/model"
)

const (
	maxRequestBody  = 1 << 20
	shutdownTimeout = 10 * time.Second
)

func serve(ctx context.Context, store blobstore.BlobStore, cfg config.Config, logger *zap.Logger) error {
	reg := prometheus.NewRegistry()
	mc := metrics.New()
	if err := mc.Register(reg); err != nil {
		return err
	}

	eng, err := openEngine(ctx, store, cfg, logger, mc)
	if err != nil {
		return err
	}
	defer eng.Close()

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           newRouter(eng, cfg.Request, reg, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", cfg.HTTP.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}

type server struct {
	eng     *facetcount.Engine
	request config.RequestConfig
	logger  *zap.Logger
}

func newRouter(eng *facetcount.Engine, rc config.RequestConfig, reg *prometheus.Registry, logger *zap.Logger) http.Handler {
	s := &server{eng: eng, request: rc, logger: logger}

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/stats", s.stats)
	r.Get("/facets", s.configuredFacets)
	r.Post("/facets", s.facets)
	r.Delete("/segments/{segment}/rows/{row}", s.deleteRow)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type facetsResponse struct {
	Results []model.FacetResult `json:"results"`
}

func (s *server) stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.eng.Stats())
}

// configuredFacets handles GET /facets.
func (s *server) configuredFacets(w http.ResponseWriter, r *http.Request) {
	s.count(w, r, s.request)
}

// facets handles POST /facets.
func (s *server) facets(w http.ResponseWriter, r *http.Request) {
	var rc config.RequestConfig
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&rc); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	if err := rc.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}
	s.count(w, r, rc)
}

func (s *server) count(w http.ResponseWriter, r *http.Request, rc config.RequestConfig) {
	results, err := count(r.Context(), s.eng, rc)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, facetsResponse{Results: results})
}

// deleteRow handles DELETE /segments/{segment}/rows/{row}.
func (s *server) deleteRow(w http.ResponseWriter, r *http.Request) {
	seg, err := strconv.ParseUint(chi.URLParam(r, "segment"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid segment id")
		return
	}
	row, err := strconv.ParseUint(chi.URLParam(r, "row"), 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid row id")
		return
	}
	if err := s.eng.Delete(r.Context(), model.SegmentID(seg), uint32(row)); err != nil {
		s.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, facetcount.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, facetcount.ErrInvalidFacet):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, facetcount.ErrReadOnly):
		writeError(w, http.StatusConflict, "read_only", err.Error())
	case errors.Is(err, facetcount.ErrClosed), errors.Is(err, context.Canceled):
		writeError(w, http.StatusServiceUnavailable, "unavailable", "engine unavailable")
	default:
		s.logger.Error("Request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", chiMiddleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
