package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Sternrassler/maps-review-scraper/pkg/pagination"
	"github.com/Sternrassler/maps-review-scraper/pkg/scraper"
	"github.com/Sternrassler/maps-review-scraper/pkg/store"
	"github.com/spf13/cobra"
)

func newScrapeCmd(a *app) *cobra.Command {
	var (
		p       scraper.Params
		pages   pagination.Budget
		outPath string
	)

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Retrieve reviews for one location and print them as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p.Pages = pages.String()
			return a.runScrape(cmd.Context(), cmd.OutOrStdout(), p, outPath)
		},
	}

	cmd.Flags().StringVar(&p.URL, "url", "", "location URL (https://www.google.com/maps/place/...)")
	cmd.Flags().StringVar(&p.Sort, "sort", "relevant", "sort order: relevant, newest, highest_rating, lowest_rating")
	cmd.Flags().Var(&pages, "pages", "page budget: a positive integer or \"max\"")
	cmd.Flags().StringVar(&p.Query, "query", "", "only reviews matching this search term")
	cmd.Flags().BoolVar(&p.Clean, "clean", false, "map raw records to structured reviews")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write JSON to this file instead of stdout")
	_ = cmd.MarkFlagRequired("url")

	return cmd
}

func (a *app) runScrape(ctx context.Context, w io.Writer, p scraper.Params, outPath string) error {
	v, err := p.Validate()
	if err != nil {
		return err
	}

	s, err := a.newScraper()
	if err != nil {
		return err
	}

	results, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if results != nil {
		defer results.Close()
	}

	out, runErr := s.Run(ctx, v)
	if errors.Is(runErr, scraper.ErrFirstPage) {
		return runErr
	}

	// A cancelled walk still prints what it collected.
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode reviews: %w", err)
	}
	data = append(data, '\n')

	if outPath != "" {
		if err := os.WriteFile(outPath, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", outPath, err)
		}
		a.logger.Info().Str("path", outPath).Int("total", out.Count()).Msg("Reviews written")
	} else if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write reviews: %w", err)
	}

	if runErr != nil {
		return runErr
	}

	if results != nil && !out.Stop.Complete() {
		a.logger.Info().Str("reason", string(out.Stop)).Msg("Partial result not stored")
	} else if results != nil {
		key := store.KeyFor(v)
		if _, err := results.Save(ctx, key, out, a.cfg.ResultTTL); err != nil {
			a.logger.Warn().Err(err).Str("key", key.String()).Msg("Failed to save result")
		}
	}

	return nil
}
