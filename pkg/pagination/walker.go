// Package pagination provides sequential walking of paginated catalog endpoints
package pagination

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrInvalidStart is returned when a walk is asked to start before page 1.
var ErrInvalidStart = errors.New("start page must be >= 1")

// StopReason explains why a walk ended.
type StopReason string

const (
	// StopComplete means the visitor reported it had everything it needed.
	StopComplete StopReason = "complete"

	// StopExhausted means the source reported no further pages.
	StopExhausted StopReason = "exhausted"

	// StopFailed means a page visit returned an error.
	StopFailed StopReason = "failed"

	// StopCancelled means the context was cancelled between pages.
	StopCancelled StopReason = "cancelled"

	// StopLimit means Config.MaxPages was reached.
	StopLimit StopReason = "limit"
)

// Config holds walker configuration
type Config struct {
	// MaxPages caps the number of pages visited in one walk (0 = unlimited)
	MaxPages int
	// Timeout per page visit (0 = inherit the walk context deadline)
	Timeout time.Duration
}

// DefaultConfig returns the default walker configuration
func DefaultConfig() Config {
	return Config{
		MaxPages: 0,
		Timeout:  30 * time.Second,
	}
}

// Cursor is the paging position reported by a visited page.
type Cursor struct {
	CurrentPage int
	TotalPages  int
}

// VisitFunc fetches and consumes one page. It returns the cursor reported by
// the source and whether the walk has gathered enough.
type VisitFunc func(ctx context.Context, page int) (cursor Cursor, done bool, err error)

// Result summarises a finished walk.
type Result struct {
	PagesFetched int
	LastPage     int
	Reason       StopReason
	Duration     time.Duration
}

// Walker visits pages strictly one after another
type Walker struct {
	config Config
	logger zerolog.Logger
}

// NewWalker creates a new walker
func NewWalker(config Config) *Walker {
	if config.MaxPages < 0 {
		config.MaxPages = 0
	}
	return &Walker{
		config: config,
		logger: log.With().Str("component", "pagination").Logger(),
	}
}

// WithLogger returns a copy of the walker that logs through logger.
func (w *Walker) WithLogger(logger zerolog.Logger) *Walker {
	cp := *w
	cp.logger = logger
	return &cp
}

// Walk visits pages from start upward until the visitor is done, the source is
// exhausted, a visit fails or ctx is cancelled. On failure the returned error
// wraps the visitor's error and Result still describes the pages that
// succeeded.
func (w *Walker) Walk(ctx context.Context, start int, visit VisitFunc) (Result, error) {
	if start < 1 {
		return Result{Reason: StopFailed}, fmt.Errorf("%w (got %d)", ErrInvalidStart, start)
	}

	begin := time.Now()
	result := Result{}
	finish := func(reason StopReason) Result {
		result.Reason = reason
		result.Duration = time.Since(begin)
		return result
	}

	page := start
	for {
		if err := ctx.Err(); err != nil {
			w.logger.Debug().
				Int("page", page).
				Int("pages_fetched", result.PagesFetched).
				Msg("Walk stopping (context cancelled)")
			return finish(StopCancelled), err
		}

		if w.config.MaxPages > 0 && result.PagesFetched >= w.config.MaxPages {
			w.logger.Warn().
				Int("max_pages", w.config.MaxPages).
				Msg("Walk stopped at page limit")
			return finish(StopLimit), nil
		}

		pageCtx, cancel := w.pageContext(ctx)
		cursor, done, err := visit(pageCtx, page)
		cancel()

		if err != nil {
			w.logger.Warn().
				Err(err).
				Int("page", page).
				Int("pages_fetched", result.PagesFetched).
				Msg("Page visit failed - keeping partial results")
			return finish(StopFailed), fmt.Errorf("visit page %d: %w", page, err)
		}

		result.PagesFetched++
		result.LastPage = page

		w.logger.Debug().
			Int("page", page).
			Int("current_page", cursor.CurrentPage).
			Int("total_pages", cursor.TotalPages).
			Bool("done", done).
			Msg("Page visited")

		if done {
			return finish(StopComplete), nil
		}

		// The source reports where it is; trust it over our own counter so a
		// clamped or redirected page cannot loop forever.
		next := page + 1
		if cursor.CurrentPage >= page {
			next = cursor.CurrentPage + 1
		}
		if next > cursor.TotalPages {
			return finish(StopExhausted), nil
		}
		page = next
	}
}

func (w *Walker) pageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if w.config.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, w.config.Timeout)
}
