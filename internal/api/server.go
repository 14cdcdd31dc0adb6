package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sivamaran/reddit-scraper/internal/metrics"
	"github.com/sivamaran/reddit-scraper/internal/post"
	"github.com/sivamaran/reddit-scraper/internal/store"
	"github.com/sivamaran/reddit-scraper/internal/urlnorm"
)

const (
	defaultRequestTimeout = 5 * time.Minute
	defaultMaxURLs        = 50
	defaultMaxBodyBytes   = 1 << 20
	healthTimeout         = 3 * time.Second
)

// Extractor runs one extraction batch.
type Extractor interface {
	Run(ctx context.Context, urls []string) ([]post.Document, error)
}

// IDGenerator mints run identifiers.
type IDGenerator interface {
	NewID() (string, error)
}

// Config bounds request handling.
type Config struct {
	RequestTimeout time.Duration
	MaxURLs        int
	// MaxBodyBytes caps the extract request body.
	MaxBodyBytes int64
}

// Server wires HTTP handlers to the extraction pipeline and store.
type Server struct {
	router    chi.Router
	extractor Extractor
	store     store.Upserter
	ids       IDGenerator
	cfg       Config
	logger    *zap.Logger
}

// NewServer constructs a Server with middleware and routes. st may be nil,
// in which case documents are only returned.
func NewServer(extractor Extractor, st store.Upserter, ids IDGenerator, cfg Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.MaxURLs <= 0 {
		cfg.MaxURLs = defaultMaxURLs
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	s := &Server{
		extractor: extractor,
		store:     st,
		ids:       ids,
		cfg:       cfg,
		logger:    logger,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(metrics.Middleware)

	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Route("/v1", func(r chi.Router) {
		r.Post("/extract", s.extract)
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok"}
	pinger, ok := s.store.(store.Pinger)
	if !ok {
		writeJSON(w, http.StatusOK, status)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()
	if err := pinger.Ping(ctx); err != nil {
		s.logger.Warn("store health check failed", zap.String("driver", s.store.Driver()), zap.Error(err))
		status["status"] = "degraded"
		status["store"] = err.Error()
		writeJSON(w, http.StatusServiceUnavailable, status)
		return
	}
	status["store"] = "ok"
	writeJSON(w, http.StatusOK, status)
}

type extractRequest struct {
	URLs []string `json:"urls"`
}

type extractResponse struct {
	RunID      string          `json:"run_id"`
	Documents  []post.Document `json:"documents"`
	Stored     *storeSummary   `json:"stored,omitempty"`
	StoreError string          `json:"store_error,omitempty"`
}

type storeSummary struct {
	Driver   string `json:"driver"`
	Matched  int    `json:"matched"`
	Modified int    `json:"modified"`
	Upserted int    `json:"upserted"`
}

func (s *Server) extract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	urls := urlnorm.Dedupe(req.URLs)
	if len(urls) == 0 {
		writeError(w, http.StatusBadRequest, "urls required")
		return
	}
	if len(urls) > s.cfg.MaxURLs {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("at most %d urls per request", s.cfg.MaxURLs))
		return
	}
	runID, err := s.ids.NewID()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	logger := s.logger.With(zap.String("run_id", runID))

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()
	docs, err := s.extractor.Run(ctx, urls)
	if err != nil {
		logger.Error("extraction failed", zap.Error(err))
		writeError(w, statusFor(err), err.Error())
		return
	}

	resp := extractResponse{RunID: runID, Documents: docs}
	if s.store != nil {
		res, upsertErr := s.store.Upsert(ctx, docs)
		if upsertErr != nil {
			logger.Error("store upsert failed", zap.String("driver", s.store.Driver()), zap.Error(upsertErr))
			resp.StoreError = upsertErr.Error()
		} else {
			resp.Stored = &storeSummary{Driver: s.store.Driver(), Matched: res.Matched, Modified: res.Modified, Upserted: res.Upserted}
			logger.Info("documents stored",
				zap.String("driver", s.store.Driver()),
				zap.Int("matched", res.Matched),
				zap.Int("modified", res.Modified),
				zap.Int("upserted", res.Upserted),
			)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, post.ErrSessionAcquisition):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
