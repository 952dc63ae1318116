package main

import (
	"context"
	"fmt"

	"github.com/Sternrassler/maps-review-scraper/pkg/client"
	"github.com/Sternrassler/maps-review-scraper/pkg/config"
	"github.com/Sternrassler/maps-review-scraper/pkg/logging"
	"github.com/Sternrassler/maps-review-scraper/pkg/scraper"
	"github.com/Sternrassler/maps-review-scraper/pkg/store"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// app carries state shared by all subcommands.
type app struct {
	cfg      *config.Config
	logger   zerolog.Logger
	logLevel string
	pretty   bool
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "review-scraper",
		Short: "Retrieve the review history of a map location",
		Long: `review-scraper pages through the public reviews of a map location and
prints them as JSON.

Configuration comes from the environment or a .env file (MAPS_COOKIE,
USER_AGENT, MAX_RETRIES, PAGE_DELAY, REDIS_URL, ...).

Example usage:
  review-scraper scrape --url "https://www.google.com/maps/place/..." --sort newest --pages 5
  review-scraper scrape --url "..." --clean --out reviews.json
  review-scraper serve --port 8080`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")
	root.PersistentFlags().BoolVar(&a.pretty, "pretty", false, "human-readable log output")

	root.AddCommand(newScrapeCmd(a), newServeCmd(a))
	return root
}

// init loads configuration and sets up logging.
func (a *app) init(cmd *cobra.Command) error {
	a.cfg = config.Load()

	lc := a.cfg.Logging()
	if a.logLevel != "" {
		lc.Level = logging.ParseLevel(a.logLevel)
	}
	if a.pretty {
		lc.Pretty = true
	}
	lc.Output = cmd.ErrOrStderr()
	logging.Setup(lc)

	a.logger = logging.NewLogger("cli")
	a.logger.Debug().
		Str("endpoint", a.cfg.ListingEndpoint).
		Bool("cookie", a.cfg.Cookie != "").
		Bool("store", a.cfg.RedisURL != "").
		Msg("Configuration loaded")

	if a.cfg.Cookie == "" {
		a.logger.Warn().Msg("MAPS_COOKIE not set, provider may reject requests")
	}

	return nil
}

func (a *app) newScraper() (*scraper.Scraper, error) {
	c, err := client.New(a.cfg.Client())
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return scraper.New(a.cfg.Scraper(c))
}

// openStore connects to the result store. It returns nil without error
// when REDIS_URL is unset.
func (a *app) openStore(ctx context.Context) (*store.Manager, error) {
	if a.cfg.RedisURL == "" {
		return nil, nil
	}

	m, err := store.NewManagerFromURL(ctx, a.cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("open result store: %w", err)
	}
	a.logger.Info().Msg("Connected to result store")
	return m, nil
}
