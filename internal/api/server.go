// Package api exposes the fact-check pipeline over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/nroshak/marketcheck/internal/model"
)

// FactChecker runs one question through the pipeline
type FactChecker interface {
	Run(ctx context.Context, question string) (*model.FactCheckResult, error)
}

// Catalog is the read side the API serves directly
type Catalog interface {
	PopularMarkets(ctx context.Context, limit, offset int, now time.Time) ([]model.MarketRecord, error)
	RecentQueries(ctx context.Context, limit int) ([]model.QueryLogEntry, error)
}

// Server wires handlers onto a chi router
type Server struct {
	checker FactChecker
	catalog Catalog
	log     zerolog.Logger
}

// NewServer builds a Server
func NewServer(checker FactChecker, catalog Catalog, log zerolog.Logger) *Server {
	return &Server{checker: checker, catalog: catalog, log: log}
}

// Router assembles the HTTP routes
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(3 * time.Minute))

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/factcheck", s.handleFactCheck)
		r.Get("/popular", s.handlePopular)
		r.Get("/queries", s.handleQueries)
	})
	return r
}

type factCheckRequest struct {
	Question string `json:"question"`
}

func (s *Server) handleFactCheck(w http.ResponseWriter, r *http.Request) {
	var req factCheckRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		s.writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	result, err := s.checker.Run(r.Context(), question)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			s.writeError(w, http.StatusGatewayTimeout, "request timed out")
			return
		}
		// The pipeline only errors on claim parsing, so this is a client
		// problem, not a server one.
		s.log.Warn().Err(err).Str("question", question).Msg("fact check failed")
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handlePopular(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20, 100)
	offset := queryInt(r, "offset", 0, 10000)

	markets, err := s.catalog.PopularMarkets(r.Context(), limit, offset, time.Now())
	if err != nil {
		s.log.Error().Err(err).Msg("popular markets query failed")
		s.writeError(w, http.StatusInternalServerError, "storage error")
		return
	}
	if markets == nil {
		markets = []model.MarketRecord{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"markets": markets})
}

func (s *Server) handleQueries(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20, 100)

	queries, err := s.catalog.RecentQueries(r.Context(), limit)
	if err != nil {
		s.log.Error().Err(err).Msg("recent queries lookup failed")
		s.writeError(w, http.StatusInternalServerError, "storage error")
		return
	}
	if queries == nil {
		queries = []model.QueryLogEntry{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"queries": queries})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("http request")
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("response encode failed")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func queryInt(r *http.Request, name string, def, max int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	if v > max {
		return max
	}
	return v
}
