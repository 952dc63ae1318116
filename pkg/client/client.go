// Package client provides the HTTP transport for the maps listing endpoint:
// one GET per call with the required headers, a circuit breaker, and
// classified errors. Retrying is the caller's job.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

// Prometheus metrics for listing requests.
var (
	mapsRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "maps_requests_total",
		Help: "Total listing requests by HTTP status",
	}, []string{"status"})

	mapsRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "maps_request_duration_seconds",
		Help:    "Listing request duration in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	})

	mapsErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "maps_errors_total",
		Help: "Total transport errors by class",
	}, []string{"class"})
)

// ErrorClass represents a classification of transport failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx responses other than 429.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx responses.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 Too Many Requests.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents DNS, dial, timeout and read failures.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassCircuitOpen is reported while the breaker rejects calls.
	ErrorClassCircuitOpen ErrorClass = "circuit_open"
)

// Client issues single GET requests against fully built listing URLs.
type Client struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	config     Config
	logger     zerolog.Logger
}

// Config holds the transport configuration.
type Config struct {
	// User-Agent header sent with every request (required).
	UserAgent string

	// Cookie header content. Empty means an unauthenticated attempt,
	// which the provider may reject.
	Cookie string

	// Timeout bounds a single request including body read.
	Timeout time.Duration

	// BreakerThreshold is the number of consecutive failures that opens
	// the circuit breaker. Zero disables the breaker.
	BreakerThreshold uint32

	// BreakerTimeout is how long the breaker stays open before a probe.
	BreakerTimeout time.Duration
}

// DefaultConfig returns a default transport configuration.
func DefaultConfig(userAgent string) Config {
	return Config{
		UserAgent:        userAgent,
		Timeout:          30 * time.Second,
		BreakerThreshold: 5,
		BreakerTimeout:   30 * time.Second,
	}
}

// New creates a new transport client.
func New(cfg Config) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be > 0 (got %s)", cfg.Timeout)
	}

	logger := log.With().Str("component", "maps-client").Logger()

	c := &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		config: cfg,
		logger: logger,
	}

	if cfg.BreakerThreshold > 0 {
		c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "maps-listing",
			MaxRequests: 1,
			Timeout:     cfg.BreakerTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= cfg.BreakerThreshold
			},
			IsSuccessful: func(err error) bool {
				// Caller cancellation says nothing about the provider.
				return err == nil || errors.Is(err, context.Canceled)
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				logger.Warn().
					Str("breaker", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("Circuit breaker state changed")
			},
		})
	}

	return c, nil
}

// Get performs one GET request and returns the response body as text.
// Any non-2xx status or network failure is returned as *TransportError.
func (c *Client) Get(ctx context.Context, rawURL string) (string, error) {
	startTime := time.Now()
	defer func() {
		mapsRequestDuration.Observe(time.Since(startTime).Seconds())
	}()

	if c.breaker == nil {
		return c.get(ctx, rawURL)
	}

	body, err := c.breaker.Execute(func() (interface{}, error) {
		return c.get(ctx, rawURL)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			mapsErrorsTotal.WithLabelValues(string(ErrorClassCircuitOpen)).Inc()
			return "", &TransportError{
				Class:   ErrorClassCircuitOpen,
				Message: "circuit breaker open",
				Err:     err,
			}
		}
		return "", err
	}

	return body.(string), nil
}

func (c *Client) get(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "*/*")
	if c.config.Cookie != "" {
		req.Header.Set("Cookie", c.config.Cookie)
	}

	c.logger.Debug().Str("url", rawURL).Bool("cookie", c.config.Cookie != "").Msg("Executing listing request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		mapsErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		mapsRequestsTotal.WithLabelValues("network_error").Inc()
		return "", &TransportError{
			Class:   ErrorClassNetwork,
			Message: "request failed",
			Err:     err,
		}
	}
	defer resp.Body.Close()

	status := strconv.Itoa(resp.StatusCode)
	mapsRequestsTotal.WithLabelValues(status).Inc()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)

		class := classifyStatus(resp.StatusCode)
		mapsErrorsTotal.WithLabelValues(string(class)).Inc()

		c.logger.Debug().
			Int("status", resp.StatusCode).
			Str("error_class", string(class)).
			Msg("Listing request error")

		return "", &TransportError{
			StatusCode: resp.StatusCode,
			Class:      class,
			Message:    resp.Status,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		mapsErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		return "", &TransportError{
			StatusCode: resp.StatusCode,
			Class:      ErrorClassNetwork,
			Message:    "read response body",
			Err:        err,
		}
	}

	return string(body), nil
}

// classifyStatus categorizes a non-2xx status code.
func classifyStatus(code int) ErrorClass {
	switch {
	case code == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case code >= 500:
		return ErrorClassServer
	default:
		return ErrorClassClient
	}
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// BreakerState reports the current breaker state, or "disabled".
func (c *Client) BreakerState() string {
	if c.breaker == nil {
		return "disabled"
	}
	return c.breaker.State().String()
}
