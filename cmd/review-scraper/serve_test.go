package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/Sternrassler/maps-review-scraper/internal/testutil"
	"github.com/Sternrassler/maps-review-scraper/pkg/client"
	"github.com/Sternrassler/maps-review-scraper/pkg/config"
	"github.com/Sternrassler/maps-review-scraper/pkg/pagination"
	"github.com/Sternrassler/maps-review-scraper/pkg/scraper"
	"github.com/Sternrassler/maps-review-scraper/pkg/store"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func newTestServer(t *testing.T, mock *testutil.MockProvider) *server {
	t.Helper()

	c, err := client.New(client.DefaultConfig("serve-test/1.0"))
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	s, err := scraper.New(scraper.Config{
		Client:   c,
		Endpoint: mock.URL(),
		Retry:    pagination.RetryConfig{MaxRetries: 1, BaseDelay: time.Millisecond},
	})
	if err != nil {
		t.Fatalf("Failed to create scraper: %v", err)
	}

	return &server{scraper: s, ttl: time.Minute, logger: zerolog.Nop()}
}

func get(t *testing.T, h http.Handler, target string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w.Result()
}

func reviewsPath(params string) string {
	return "/reviews?url=" + url.QueryEscape(testutil.PlaceURL) + params
}

func TestHealthEndpoint(t *testing.T) {
	mock := testutil.NewMockProvider()
	defer mock.Close()

	resp := get(t, newTestServer(t, mock).routes(), "/health")
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	if string(body) != "OK" {
		t.Errorf("Expected body 'OK', got %s", string(body))
	}
}

func TestMetricsEndpoint(t *testing.T) {
	mock := testutil.NewMockProvider()
	defer mock.Close()
	mock.SetPage("", "", testutil.Record("m1"))

	h := newTestServer(t, mock).routes()
	get(t, h, reviewsPath(""))

	resp := get(t, h, "/metrics")
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "maps_requests_total") {
		t.Error("Expected metrics output to contain maps_requests_total")
	}
}

func TestReviewsEndpoint(t *testing.T) {
	mock := testutil.NewMockProvider()
	defer mock.Close()
	mock.SetPage("", "tok2", testutil.Records("a", 10)...)
	mock.SetPage("tok2", "", testutil.Records("b", 5)...)

	resp := get(t, newTestServer(t, mock).routes(), reviewsPath("&sort=newest&clean=true"))

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("X-Result-Source"); got != "live" {
		t.Errorf("X-Result-Source = %q, want live", got)
	}
	if got := resp.Header.Get("X-Stop-Reason"); got != string(pagination.StopCursorExhausted) {
		t.Errorf("X-Stop-Reason = %q", got)
	}

	var reviews []struct {
		ID string `json:"review_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&reviews); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(reviews) != 15 {
		t.Fatalf("got %d reviews, want 15", len(reviews))
	}
	if reviews[10].ID != "b1" {
		t.Errorf("reviews[10].ID = %q, want b1", reviews[10].ID)
	}
}

// withTestStore attaches a Redis backed store to s, skipping when no local
// Redis is running.
func withTestStore(t *testing.T, s *server) *store.Manager {
	t.Helper()

	rdb := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   14, // pkg/store tests use 15
	})
	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}
	if err := rdb.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test DB: %v", err)
	}
	t.Cleanup(func() {
		rdb.FlushDB(context.Background())
		rdb.Close()
	})

	s.store = store.NewManager(rdb)
	return s.store
}

func TestReviewsEndpoint_StoresCompleteResult(t *testing.T) {
	mock := testutil.NewMockProvider()
	defer mock.Close()
	mock.SetPage("", "", testutil.Records("a", 3)...)

	srv := newTestServer(t, mock)
	withTestStore(t, srv)
	h := srv.routes()

	first := get(t, h, reviewsPath(""))
	if got := first.Header.Get("X-Result-Source"); got != "live" {
		t.Fatalf("first X-Result-Source = %q, want live", got)
	}

	second := get(t, h, reviewsPath(""))
	if got := second.Header.Get("X-Result-Source"); got != "store" {
		t.Errorf("second X-Result-Source = %q, want store", got)
	}
	if mock.GetRequestCount() != 1 {
		t.Errorf("provider requests = %d, want 1", mock.GetRequestCount())
	}
}

func TestReviewsEndpoint_PartialResultNotStored(t *testing.T) {
	mock := testutil.NewMockProvider()
	defer mock.Close()
	mock.SetPage("", "tok2", testutil.Records("a", 10)...)
	mock.QueueResponses("tok2",
		testutil.NewStatusResponse(http.StatusTooManyRequests),
		testutil.NewStatusResponse(http.StatusTooManyRequests),
	)

	srv := newTestServer(t, mock)
	results := withTestStore(t, srv)
	h := srv.routes()

	resp := get(t, h, reviewsPath(""))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("X-Stop-Reason"); got != string(pagination.StopFetchExhausted) {
		t.Fatalf("X-Stop-Reason = %q, want fetch_exhausted", got)
	}

	v, err := scraper.Params{URL: testutil.PlaceURL}.Validate()
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if _, err := results.Load(context.Background(), store.KeyFor(v)); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Load after partial result = %v, want ErrNotFound", err)
	}

	again := get(t, h, reviewsPath(""))
	if got := again.Header.Get("X-Result-Source"); got != "live" {
		t.Errorf("retry X-Result-Source = %q, want live", got)
	}
}

func TestReviewsEndpoint_Errors(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		setup      func(*testutil.MockProvider)
		wantStatus int
	}{
		{"foreign url", "/reviews?url=https://example.com/", nil, http.StatusBadRequest},
		{"missing url", "/reviews", nil, http.StatusBadRequest},
		{"bad sort", reviewsPath("&sort=oldest"), nil, http.StatusBadRequest},
		{"bad pages", reviewsPath("&pages=0"), nil, http.StatusBadRequest},
		{"bad clean", reviewsPath("&clean=perhaps"), nil, http.StatusBadRequest},
		{
			"first page failure",
			reviewsPath(""),
			func(m *testutil.MockProvider) {
				m.QueueResponses("", testutil.NewStatusResponse(http.StatusInternalServerError))
			},
			http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := testutil.NewMockProvider()
			defer mock.Close()
			if tt.setup != nil {
				tt.setup(mock)
			}

			resp := get(t, newTestServer(t, mock).routes(), tt.target)
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d", tt.wantStatus, resp.StatusCode)
			}

			var body map[string]string
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if body["error"] == "" {
				t.Error("error body missing message")
			}
		})
	}
}

func TestReviewsEndpoint_MethodNotAllowed(t *testing.T) {
	mock := testutil.NewMockProvider()
	defer mock.Close()

	req := httptest.NewRequest(http.MethodPost, reviewsPath(""), nil)
	w := httptest.NewRecorder()
	newTestServer(t, mock).routes().ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Code)
	}
}

func TestRunServe_ShutsDownOnCancel(t *testing.T) {
	setupEnv(t, "http://127.0.0.1:1/unused")

	a := &app{cfg: config.Load(), logger: zerolog.Nop()}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.runServe(ctx, "0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("runServe returned %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("runServe did not return after cancel")
	}
}
