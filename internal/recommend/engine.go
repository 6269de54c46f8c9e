package recommend

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/khanglvm/movie-picker/internal/metrics"
	"github.com/khanglvm/movie-picker/internal/resolver"
)

// Options tunes an Engine.
type Options struct {
	// TopK caps the result list.
	TopK int
	// Midpoint is subtracted from each rating to form its weight.
	Midpoint float64
	// Cutoff is the exclusive title-match confidence floor.
	Cutoff float64
}

// DefaultOptions returns top 10, midpoint 2.5 and cutoff 0.6.
func DefaultOptions() Options {
	return Options{
		TopK:     10,
		Midpoint: 2.5,
		Cutoff:   resolver.DefaultCutoff,
	}
}

// Validate checks option ranges.
func (o Options) Validate() error {
	if o.TopK <= 0 {
		return fmt.Errorf("top_k must be positive, got %d", o.TopK)
	}
	if o.Cutoff < 0 || o.Cutoff >= 1 {
		return fmt.Errorf("cutoff must be in [0, 1), got %v", o.Cutoff)
	}
	return nil
}

// Engine resolves profiles and delegates scoring to a Strategy.
// It holds no per-request state and is safe for concurrent use.
type Engine struct {
	strategy Strategy
	resolver *resolver.Resolver
	opts     Options
	logger   zerolog.Logger
}

// NewEngine builds the resolver over the strategy's titles.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(strategy Strategy, opts Options, logger zerolog.Logger) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	return &Engine{
		strategy: strategy,
		resolver: resolver.New(strategy.Titles(), opts.Cutoff),
		opts:     opts,
		logger:   logger.With().Str("component", "recommend").Str("mode", string(strategy.Mode())).Logger(),
	}, nil
}

// Mode reports the active strategy.
func (e *Engine) Mode() Mode { return e.strategy.Mode() }

// Titles returns the canonical titles the engine resolves against.
func (e *Engine) Titles() []string { return e.strategy.Titles() }

// Options returns the engine options.
func (e *Engine) Options() Options { return e.opts }

// Resolve maps the profile to canonical titles.
//
// Entries without a confident match are skipped and logged. Order of the
// surviving entries follows the input.
func (e *Engine) Resolve(profile []Rating) []Resolved {
	resolved := make([]Resolved, 0, len(profile))
	for _, entry := range profile {
		match, ok := e.resolver.Resolve(entry.Title)
		metrics.RecordResolution(ok)
		if !ok {
			e.logger.Debug().
				Err(&UnknownTitleError{Title: entry.Title, Cutoff: e.resolver.Cutoff()}).
				Msg("skipping profile entry")
			continue
		}

		resolved = append(resolved, Resolved{
			Query:    entry.Title,
			Title:    match.Title,
			Position: match.Position,
			Rating:   entry.Rating,
			Weight:   entry.Rating - e.opts.Midpoint,
		})
	}
	return resolved
}

// Recommend returns up to TopK unseen titles ranked by score.
//
// A profile with no resolvable entry yields an empty slice and a nil error.
// The only error is the context's.
func (e *Engine) Recommend(ctx context.Context, profile []Rating) ([]Recommendation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	resolved := e.Resolve(profile)
	if len(resolved) == 0 {
		e.logger.Debug().Err(&EmptyProfileError{Entries: len(profile)}).Msg("nothing to recommend")
		metrics.RecordRecommendation(string(e.Mode()), time.Since(start), true)
		return []Recommendation{}, nil
	}

	recs := e.strategy.Rank(resolved, e.opts.TopK)
	metrics.RecordRecommendation(string(e.Mode()), time.Since(start), false)

	e.logger.Debug().
		Int("profile", len(profile)).
		Int("resolved", len(resolved)).
		Int("results", len(recs)).
		Dur("took", time.Since(start)).
		Msg("recommendation complete")

	return recs, nil
}
