package pagination

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Sternrassler/maps-review-scraper/pkg/envelope"
	"github.com/Sternrassler/maps-review-scraper/pkg/listing"
)

// step scripts one FetchPage call.
type step struct {
	page envelope.Page
	err  error
}

// scriptedSource replays steps in order and records every request.
type scriptedSource struct {
	t     *testing.T
	mu    sync.Mutex
	steps []step
	calls []listing.Request
}

func newScriptedSource(t *testing.T, steps ...step) *scriptedSource {
	return &scriptedSource{t: t, steps: steps}
}

func (s *scriptedSource) FetchPage(ctx context.Context, req listing.Request) (envelope.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.calls)
	s.calls = append(s.calls, req)
	if n >= len(s.steps) {
		s.t.Errorf("unexpected FetchPage call #%d (cursor %q)", n+1, req.Cursor)
		return envelope.Page{}, fmt.Errorf("no scripted step")
	}
	return s.steps[n].page, s.steps[n].err
}

func (s *scriptedSource) cursors() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.calls))
	for _, c := range s.calls {
		out = append(out, c.Cursor)
	}
	return out
}

// sleepRecorder records requested delays without sleeping.
type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
	return ctx.Err()
}

func (r *sleepRecorder) total() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sum time.Duration
	for _, d := range r.delays {
		sum += d
	}
	return sum
}

// page builds a page the way the provider sends it: the cursor wrapped in
// literal quotes, or no cursor when cursor is empty.
func page(cursor string, ids ...string) envelope.Page {
	p := envelope.Page{HasReviews: true, Reviews: make([]json.RawMessage, 0, len(ids))}
	if cursor != "" {
		p.Cursor = `"` + cursor + `"`
		p.HasCursor = true
	}
	for _, id := range ids {
		p.Reviews = append(p.Reviews, json.RawMessage(fmt.Sprintf("%q", id)))
	}
	return p
}

// emptyPage is a structurally valid response with no reviews.
func emptyPage(cursor string) envelope.Page {
	p := page(cursor)
	p.Reviews = nil
	return p
}

func ids(raw []json.RawMessage) []string {
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		var s string
		_ = json.Unmarshal(r, &s)
		out = append(out, s)
	}
	return out
}

func seq(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s%d", prefix, i+1)
	}
	return out
}

func mustBudget(t *testing.T, n int) Budget {
	t.Helper()
	b, err := MaxPages(n)
	if err != nil {
		t.Fatalf("MaxPages(%d): %v", n, err)
	}
	return b
}
