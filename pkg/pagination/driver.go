package pagination

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Sternrassler/maps-review-scraper/pkg/envelope"
	"github.com/Sternrassler/maps-review-scraper/pkg/listing"
	"github.com/Sternrassler/maps-review-scraper/pkg/review"
	"github.com/rs/zerolog"
)

// DefaultPageDelay is the pause between successful follow-up pages.
const DefaultPageDelay = 1 * time.Second

// StopReason records why a retrieval ended. All reasons except
// StopCancelled are ordinary completions.
type StopReason string

const (
	StopBudgetReached   StopReason = "budget_reached"
	StopCursorExhausted StopReason = "cursor_exhausted"
	StopFetchExhausted  StopReason = "fetch_exhausted"
	StopCancelled       StopReason = "cancelled"
)

// Complete reports whether the walk covered everything that was asked for.
// A fetch_exhausted walk usually ended on throttling and is only partial.
func (r StopReason) Complete() bool {
	return r == StopBudgetReached || r == StopCursorExhausted
}

// Options are the per-retrieval parameters of Driver.Run.
type Options struct {
	// Request is the first page's request; follow-ups reuse it with the
	// next cursor.
	Request listing.Request
	Budget  Budget

	// Clean applies the cleaner to the complete sequence once at the end.
	Clean bool
}

// Output is the accumulated result of one retrieval.
type Output struct {
	// Reviews holds every raw record in arrival order: page order, then
	// provider order within a page.
	Reviews []json.RawMessage

	// Cleaned is set only when Options.Clean was requested.
	Cleaned []review.Review

	// Pages counts pages whose batch was accumulated, including page 1.
	Pages int
	Stop  StopReason
}

// Count returns the number of accumulated records.
func (o Output) Count() int {
	return len(o.Reviews)
}

// MarshalJSON emits the cleaned reviews when present, raw records otherwise.
func (o Output) MarshalJSON() ([]byte, error) {
	if o.Cleaned != nil {
		return json.Marshal(o.Cleaned)
	}
	if o.Reviews == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(o.Reviews)
}

// Driver walks follow-up pages in cursor order until the cursor runs out,
// the budget is reached or a page cannot be fetched.
type Driver struct {
	fetcher   *Fetcher
	cleaner   review.Cleaner
	pageDelay time.Duration
	sleep     SleepFunc
	logger    zerolog.Logger
}

// NewDriver creates a pagination driver. A nil cleaner selects
// review.DefaultCleaner.
func NewDriver(fetcher *Fetcher, cleaner review.Cleaner, pageDelay time.Duration, logger zerolog.Logger) *Driver {
	if cleaner == nil {
		cleaner = review.DefaultCleaner{}
	}
	if pageDelay < 0 {
		pageDelay = 0
	}
	return &Driver{
		fetcher:   fetcher,
		cleaner:   cleaner,
		pageDelay: pageDelay,
		sleep:     sleepContext,
		logger:    logger,
	}
}

// SetSleepFunc replaces the inter-page sleep (for testing).
func (d *Driver) SetSleepFunc(fn SleepFunc) {
	d.sleep = fn
}

// Run accumulates the first page and every follow-up page the budget
// allows. Fetch exhaustion ends the walk normally with the records
// collected so far. The returned error is non-nil only when ctx ends
// (Output still holds the partial result) or the cleaner fails.
func (d *Driver) Run(ctx context.Context, first envelope.Page, opts Options) (Output, error) {
	out := Output{
		Reviews: make([]json.RawMessage, 0, len(first.Reviews)),
		Pages:   1,
	}
	if first.HasReviews {
		out.Reviews = append(out.Reviews, first.Reviews...)
	}
	reviewsCollectedTotal.Add(float64(len(out.Reviews)))

	cursor, hasCursor := first.NextCursor()
	pageNum := 2

	var runErr error

walk:
	for {
		if !hasCursor {
			out.Stop = StopCursorExhausted
			break
		}
		if !opts.Budget.Allows(pageNum) {
			out.Stop = StopBudgetReached
			break
		}

		d.logger.Info().Int("page", pageNum).Msg("Fetching page")

		res := d.fetcher.Fetch(ctx, opts.Request.WithCursor(cursor))
		switch res.Outcome {
		case OutcomeExhausted:
			out.Stop = StopFetchExhausted
			break walk
		case OutcomeCancelled:
			out.Stop = StopCancelled
			runErr = fmt.Errorf("pagination cancelled at page %d: %w", pageNum, res.LastErr)
			break walk
		case OutcomePage:
		}

		out.Reviews = append(out.Reviews, res.Page.Reviews...)
		out.Pages++
		pagesFetchedTotal.Inc()
		reviewsCollectedTotal.Add(float64(len(res.Page.Reviews)))

		d.logger.Info().
			Int("page", pageNum).
			Int("reviews", len(res.Page.Reviews)).
			Int("total", len(out.Reviews)).
			Msg("Page fetched")

		cursor, hasCursor = res.Page.NextCursor()
		if !hasCursor {
			out.Stop = StopCursorExhausted
			break
		}

		if err := d.sleep(ctx, d.pageDelay); err != nil {
			out.Stop = StopCancelled
			runErr = fmt.Errorf("pagination cancelled after page %d: %w", pageNum, err)
			break
		}
		pageNum++
	}

	paginationStopsTotal.WithLabelValues(string(out.Stop)).Inc()
	d.logger.Info().
		Str("reason", string(out.Stop)).
		Int("pages", out.Pages).
		Int("total", len(out.Reviews)).
		Msg("Pagination finished")

	if opts.Clean && runErr == nil {
		cleaned, err := d.cleaner.Clean(ctx, out.Reviews)
		if err != nil {
			return out, fmt.Errorf("clean reviews: %w", err)
		}
		out.Cleaned = cleaned
	}

	return out, runErr
}
