/*
Package api serves recommendations over HTTP with the chi router.

Routes:

	POST /recommend   {"ratings": [["Toy Story", 5], ...]} -> {"recommendations": [...]}
	GET  /search      ?q=toy&limit=10
	GET  /health
	GET  /metrics     Prometheus exposition

The index and catalog are loaded once before the server starts and are
only read by handlers.
*/
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/khanglvm/movie-picker/internal/recommend"
	"github.com/khanglvm/movie-picker/internal/search"
)

// maxBodyBytes bounds a /recommend payload.
const maxBodyBytes = 1 << 20

// Recommender scores a profile.
type Recommender interface {
	Recommend(ctx context.Context, profile []recommend.Rating) ([]recommend.Recommendation, error)
	Mode() recommend.Mode
}

// Searcher looks up catalog titles by keyword.
type Searcher interface {
	SearchTitles(keyword string, limit int) ([]search.SearchResult, error)
}

// Options configures the HTTP layer.
type Options struct {
	CORSOrigins []string

	// RateLimit is requests per RateWindow per client IP; 0 disables.
	RateLimit  int
	RateWindow time.Duration

	// MinRating and MaxRating bound accepted profile ratings.
	MinRating float64
	MaxRating float64

	// IndexName and BuildID are reported by /health.
	IndexName string
	BuildID   string
}

// DefaultOptions allows every origin, 100 requests a minute and the
// 0.5..5 rating scale.
func DefaultOptions() Options {
	return Options{
		CORSOrigins: []string{"*"},
		RateLimit:   100,
		RateWindow:  time.Minute,
		MinRating:   0.5,
		MaxRating:   5,
	}
}

// Server holds the handlers' read-only dependencies.
type Server struct {
	recommender Recommender
	searcher    Searcher
	opts        Options
	logger      zerolog.Logger
	started     time.Time
}

// NewServer wires handlers. searcher may be nil, in which case /search
// answers 503.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewServer(recommender Recommender, searcher Searcher, opts Options, logger zerolog.Logger) *Server {
	return &Server{
		recommender: recommender,
		searcher:    searcher,
		opts:        opts,
		logger:      logger.With().Str("component", "api").Logger(),
		started:     time.Now(),
	}
}

// Router builds the HTTP handler with the full middleware stack.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	// Applied to ALL routes in order
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.cors()) // CORS must be global to handle OPTIONS preflight

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if limiter := s.rateLimit(); limiter != nil {
			r.Use(limiter)
		}
		r.Use(s.metrics)

		r.Post("/recommend", s.handleRecommend)
		r.Get("/search", s.handleSearch)
	})

	return r
}
