package pagination

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/Sternrassler/maps-review-scraper/pkg/client"
	"github.com/Sternrassler/maps-review-scraper/pkg/envelope"
	"github.com/Sternrassler/maps-review-scraper/pkg/listing"
	"github.com/rs/zerolog"
)

// ErrEmptyBatch marks a structurally valid page whose review batch is
// missing or empty. The provider returns these on pages that do have more
// content, so they are retried like a failure.
var ErrEmptyBatch = errors.New("empty review batch")

// PageSource performs a single fetch of one page: build URL, GET, decode.
type PageSource interface {
	FetchPage(ctx context.Context, req listing.Request) (envelope.Page, error)
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// RetryConfig holds the retry tuning for one logical page fetch.
type RetryConfig struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	// BaseDelay is the wait before the first retry; it doubles each retry.
	BaseDelay time.Duration
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  2 * time.Second,
	}
}

// maxBackoff is where the doubling saturates instead of overflowing.
const maxBackoff = time.Duration(math.MaxInt64)

// Backoff returns the delay after the given 0-indexed failed attempt.
func (c RetryConfig) Backoff(attempt int) time.Duration {
	if c.BaseDelay <= 0 {
		return 0
	}
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= 63 || c.BaseDelay > maxBackoff>>uint(attempt) {
		return maxBackoff
	}
	return c.BaseDelay << uint(attempt)
}

// Outcome is the variant of a Result.
type Outcome int

const (
	// OutcomePage carries a page with a non-empty review batch.
	OutcomePage Outcome = iota

	// OutcomeExhausted means no data was obtainable after all attempts.
	// It is a normal termination signal, not a fault.
	OutcomeExhausted

	// OutcomeCancelled means the context ended between attempts.
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomePage:
		return "page"
	case OutcomeExhausted:
		return "exhausted"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Result is what Fetcher.Fetch returns instead of an error.
type Result struct {
	Outcome Outcome

	// Page is set only for OutcomePage.
	Page envelope.Page

	Attempts int

	// LastErr is the last failure seen, for logging. It is ErrEmptyBatch
	// when the final attempt was an empty batch.
	LastErr error
}

// Fetcher fetches one logical page, retrying transport failures, decode
// failures and empty batches with exponential backoff.
type Fetcher struct {
	source PageSource
	config RetryConfig
	sleep  SleepFunc
	logger zerolog.Logger
}

// NewFetcher creates a retrying fetcher.
func NewFetcher(source PageSource, cfg RetryConfig, logger zerolog.Logger) *Fetcher {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BaseDelay < 0 {
		cfg.BaseDelay = 0
	}
	return &Fetcher{
		source: source,
		config: cfg,
		sleep:  sleepContext,
		logger: logger,
	}
}

// SetSleepFunc replaces the backoff sleep (for testing).
func (f *Fetcher) SetSleepFunc(fn SleepFunc) {
	f.sleep = fn
}

// Config returns the retry configuration in use.
func (f *Fetcher) Config() RetryConfig {
	return f.config
}

// Fetch performs up to MaxRetries+1 attempts. It never returns an error:
// exhaustion and cancellation are reported through Result.Outcome.
func (f *Fetcher) Fetch(ctx context.Context, req listing.Request) Result {
	var lastErr error

	for attempt := 0; attempt <= f.config.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return Result{Outcome: OutcomeCancelled, Attempts: attempt, LastErr: err}
		}

		page, err := f.source.FetchPage(ctx, req)
		switch {
		case err != nil:
			lastErr = err
		case !page.HasReviews || len(page.Reviews) == 0:
			lastErr = ErrEmptyBatch
		default:
			if attempt > 0 {
				f.logger.Info().
					Int("attempt", attempt+1).
					Msg("Page fetch succeeded after retry")
			}
			return Result{Outcome: OutcomePage, Page: page, Attempts: attempt + 1}
		}

		if attempt == f.config.MaxRetries {
			break
		}

		if err := ctx.Err(); err != nil {
			return Result{Outcome: OutcomeCancelled, Attempts: attempt + 1, LastErr: err}
		}

		cause := causeOf(lastErr)
		delay := f.config.Backoff(attempt)

		pageRetriesTotal.WithLabelValues(cause).Inc()
		pageRetryBackoffSeconds.Observe(delay.Seconds())

		f.logger.Warn().
			Err(lastErr).
			Int("attempt", attempt+1).
			Int("max_attempts", f.config.MaxRetries+1).
			Dur("delay", delay).
			Str("cause", cause).
			Msg("Retrying page fetch")

		if err := f.sleep(ctx, delay); err != nil {
			return Result{Outcome: OutcomeCancelled, Attempts: attempt + 1, LastErr: err}
		}
	}

	if err := ctx.Err(); err != nil {
		return Result{Outcome: OutcomeCancelled, Attempts: f.config.MaxRetries + 1, LastErr: err}
	}

	pageFetchExhaustedTotal.Inc()
	f.logger.Warn().
		Err(lastErr).
		Int("attempts", f.config.MaxRetries+1).
		Msg("Page fetch exhausted")

	return Result{Outcome: OutcomeExhausted, Attempts: f.config.MaxRetries + 1, LastErr: lastErr}
}

// causeOf labels a failure for metrics and logs.
func causeOf(err error) string {
	var te *client.TransportError
	var de *envelope.DecodeError
	switch {
	case errors.Is(err, ErrEmptyBatch):
		return "empty_batch"
	case errors.As(err, &te):
		return "transport"
	case errors.As(err, &de):
		return "decode"
	default:
		return "other"
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
