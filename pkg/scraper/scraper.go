// Package scraper wires the transport, envelope decoder and pagination
// driver into a single retrieval call for one location.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/maps-review-scraper/pkg/client"
	"github.com/Sternrassler/maps-review-scraper/pkg/envelope"
	"github.com/Sternrassler/maps-review-scraper/pkg/listing"
	"github.com/Sternrassler/maps-review-scraper/pkg/pagination"
	"github.com/Sternrassler/maps-review-scraper/pkg/review"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/Sternrassler/maps-review-scraper/pkg/scraper"

// ErrFirstPage wraps any failure to obtain the first page. It is the only
// fetch failure that reaches the caller.
var ErrFirstPage = errors.New("first page unavailable")

// Getter performs one GET and returns the body text. *client.Client
// implements it.
type Getter interface {
	Get(ctx context.Context, rawURL string) (string, error)
}

// Config holds the scraper wiring.
type Config struct {
	// Client is the transport (required).
	Client Getter

	// Endpoint overrides listing.DefaultEndpoint.
	Endpoint string

	Retry     pagination.RetryConfig
	PageDelay time.Duration

	// Cleaner defaults to review.DefaultCleaner.
	Cleaner review.Cleaner
}

// DefaultConfig returns a configuration with default retry and pacing.
func DefaultConfig(c *client.Client) Config {
	return Config{
		Client:    c,
		Endpoint:  listing.DefaultEndpoint,
		Retry:     pagination.DefaultRetryConfig(),
		PageDelay: pagination.DefaultPageDelay,
	}
}

// Scraper retrieves review histories. Each Scrape call owns its own
// accumulated result and retry timers, so concurrent calls for different
// locations do not share state.
type Scraper struct {
	config Config
	logger zerolog.Logger
}

// New creates a scraper.
func New(cfg Config) (*Scraper, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("client is required")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = listing.DefaultEndpoint
	}

	return &Scraper{
		config: cfg,
		logger: log.With().Str("component", "scraper").Logger(),
	}, nil
}

// FetchPage implements pagination.PageSource: one URL build, GET and decode.
func (s *Scraper) FetchPage(ctx context.Context, req listing.Request) (envelope.Page, error) {
	endpointURL, err := listing.BuildURL(s.config.Endpoint, req)
	if err != nil {
		return envelope.Page{}, err
	}

	body, err := s.config.Client.Get(ctx, endpointURL)
	if err != nil {
		return envelope.Page{}, err
	}

	return envelope.Decode(body)
}

// Scrape validates p, fetches the first page once, and hands it to the
// pagination driver. Validation errors and a first-page failure are
// returned as errors; after that a (possibly partial) Output is always
// returned.
func (s *Scraper) Scrape(ctx context.Context, p Params) (pagination.Output, error) {
	v, err := p.Validate()
	if err != nil {
		return pagination.Output{}, err
	}
	return s.Run(ctx, v)
}

// Run is Scrape for already validated parameters.
func (s *Scraper) Run(ctx context.Context, v Validated) (pagination.Output, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "scrape",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("place_id", v.PlaceID),
			attribute.String("sort", v.Request.Sort.String()),
			attribute.String("pages", v.Budget.String()),
		),
	)
	defer span.End()

	logger := s.logger.With().Str("place_id", v.PlaceID).Logger()

	first, err := s.FetchPage(ctx, v.Request)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "first page")
		logger.Error().Err(err).Str("error_class", string(client.ClassOf(err))).Msg("First page fetch failed")
		return pagination.Output{}, fmt.Errorf("%w: %w", ErrFirstPage, err)
	}

	logger.Info().Int("reviews", len(first.Reviews)).Msg("Initial page fetched")

	fetcher := pagination.NewFetcher(s, s.config.Retry, logger)
	driver := pagination.NewDriver(fetcher, s.config.Cleaner, s.config.PageDelay, logger)

	out, err := driver.Run(ctx, first, pagination.Options{
		Request: v.Request,
		Budget:  v.Budget,
		Clean:   v.Clean,
	})

	span.SetAttributes(
		attribute.Int("reviews", out.Count()),
		attribute.Int("pages_fetched", out.Pages),
		attribute.String("stop_reason", string(out.Stop)),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "pagination")
	}

	logger.Info().
		Int("total", out.Count()).
		Str("reason", string(out.Stop)).
		Msg("Scrape complete")

	return out, err
}
