package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Sternrassler/maps-review-scraper/pkg/listing"
	"github.com/Sternrassler/maps-review-scraper/pkg/metrics"
	"github.com/Sternrassler/maps-review-scraper/pkg/scraper"
	"github.com/Sternrassler/maps-review-scraper/pkg/store"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve review retrievals over HTTP",
		Long: `serve exposes GET /reviews?url=&sort=&pages=&query=&clean= together with
/health and /metrics. Results are stored in Redis when REDIS_URL is set and
served from there until RESULT_TTL passes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port == "" {
				port = a.cfg.Port
			}
			return a.runServe(cmd.Context(), port)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "listen port (overrides PORT)")
	return cmd
}

func (a *app) runServe(ctx context.Context, port string) error {
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

	srv := &server{
		scraper: s,
		store:   results,
		ttl:     a.cfg.ResultTTL,
		logger:  a.logger.With().Str("component", "server").Logger(),
	}

	httpServer := &http.Server{
		Addr:              ":" + port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		srv.logger.Info().Str("address", httpServer.Addr).Msg("Starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	srv.logger.Info().Msg("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// server handles HTTP retrieval requests. store may be nil.
type server struct {
	scraper *scraper.Scraper
	store   *store.Manager
	ttl     time.Duration
	logger  zerolog.Logger
}

func (s *server) routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler())
	r.HandleFunc("/reviews", s.handleReviews).Methods(http.MethodGet)
	return r
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		if err := s.store.Ping(r.Context()); err != nil {
			http.Error(w, "result store unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

func (s *server) handleReviews(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	p := scraper.Params{
		URL:   q.Get("url"),
		Sort:  q.Get("sort"),
		Pages: q.Get("pages"),
		Query: q.Get("query"),
	}
	if raw := q.Get("clean"); raw != "" {
		clean, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, &listing.ValidationError{Field: "clean", Value: raw, Reason: "must be a boolean", Err: err})
			return
		}
		p.Clean = clean
	}

	v, err := p.Validate()
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	key := store.KeyFor(v)
	logger := s.logger.With().Str("key", key.String()).Logger()

	if s.store != nil {
		entry, err := s.store.Load(r.Context(), key)
		switch {
		case err == nil:
			logger.Debug().Int("total", entry.Count).Msg("Serving stored result")
			w.Header().Set("X-Result-Source", "store")
			w.Header().Set("X-Stop-Reason", entry.StopReason)
			writeRaw(w, http.StatusOK, entry.Reviews)
			return
		case !errors.Is(err, store.ErrNotFound):
			logger.Warn().Err(err).Msg("Result store lookup failed")
		}
	}

	out, err := s.scraper.Run(r.Context(), v)
	switch {
	case errors.Is(err, scraper.ErrFirstPage):
		writeError(w, http.StatusBadGateway, err)
		return
	case err != nil && r.Context().Err() != nil:
		// Client went away
		logger.Info().Err(err).Msg("Request cancelled")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	data, err := json.Marshal(out)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	switch {
	case s.store == nil:
	case !out.Stop.Complete():
		logger.Info().Str("reason", string(out.Stop)).Msg("Partial result not stored")
	default:
		if _, err := s.store.Save(r.Context(), key, out, s.ttl); err != nil {
			logger.Warn().Err(err).Msg("Failed to save result")
		}
	}

	w.Header().Set("X-Result-Source", "live")
	w.Header().Set("X-Stop-Reason", string(out.Stop))
	writeRaw(w, http.StatusOK, data)
}

func writeRaw(w http.ResponseWriter, status int, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	data, _ := json.Marshal(map[string]string{"error": err.Error()})
	writeRaw(w, status, data)
}
