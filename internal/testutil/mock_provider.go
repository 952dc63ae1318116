// Package testutil provides testing utilities for the review scraper.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"time"
)

// ListingPath is the path the mock serves listing pages on.
const ListingPath = "/maps/rpc/listugcposts"

// PlaceURL is a location URL accepted by the request builder.
const PlaceURL = "https://www.google.com/maps/place/Test+Cafe/@6.9,79.8,17z/data=!4m6!3m5!1s0x3ae2:0x1!8m2!3d6.9!4d79.8!1s0x3ae25:0xabc123!5e0"

var cursorPattern = regexp.MustCompile(`!2s([^!]*)!`)

// MockResponse is a scripted non-page response.
type MockResponse struct {
	StatusCode int
	Body       string
	Delay      time.Duration
}

// mockPage is a page served for a requested cursor.
type mockPage struct {
	next    string
	reviews []json.RawMessage
}

// MockProvider is a configurable listing endpoint for tests. Pages are
// keyed by the cursor in the request; the first page has cursor "".
type MockProvider struct {
	server *httptest.Server
	mu     sync.Mutex
	pages  map[string]mockPage
	queued map[string][]MockResponse

	// Tracking
	RequestCount      int
	LastRequestHeader http.Header
	cursors           []string
}

// NewMockProvider creates and starts a mock listing endpoint.
func NewMockProvider() *MockProvider {
	mock := &MockProvider{
		pages:  make(map[string]mockPage),
		queued: make(map[string][]MockResponse),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(mock.handle))
	return mock
}

// URL returns the listing endpoint URL.
func (m *MockProvider) URL() string {
	return m.server.URL + ListingPath
}

// Addr returns the host:port the mock listens on.
func (m *MockProvider) Addr() string {
	return m.server.Listener.Addr().String()
}

// Close shuts down the mock server.
func (m *MockProvider) Close() {
	m.server.Close()
}

// Reset clears tracking counters. Pages and queued responses are kept.
func (m *MockProvider) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.LastRequestHeader = nil
	m.cursors = nil
}

// SetPage serves reviews for cursor. next is the following page's cursor;
// "" marks the final page.
func (m *MockProvider) SetPage(cursor, next string, reviews ...json.RawMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages[cursor] = mockPage{next: next, reviews: reviews}
}

// QueueResponses makes the next requests for cursor receive resps, in
// order, before the configured page is served.
func (m *MockProvider) QueueResponses(cursor string, resps ...MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queued[cursor] = append(m.queued[cursor], resps...)
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockProvider) GetRequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.RequestCount
}

// Cursors returns the cursors of all requests in arrival order.
func (m *MockProvider) Cursors() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.cursors...)
}

// Header returns the headers of the most recent request.
func (m *MockProvider) Header() http.Header {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.LastRequestHeader
}

func (m *MockProvider) handle(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != ListingPath {
		http.NotFound(w, r)
		return
	}

	cursor := ""
	if match := cursorPattern.FindStringSubmatch(r.URL.RawQuery); match != nil {
		cursor = match[1]
	}

	m.mu.Lock()
	m.RequestCount++
	m.LastRequestHeader = r.Header.Clone()
	m.cursors = append(m.cursors, cursor)

	var scripted *MockResponse
	if q := m.queued[cursor]; len(q) > 0 {
		scripted = &q[0]
		m.queued[cursor] = q[1:]
	}
	pg, ok := m.pages[cursor]
	m.mu.Unlock()

	if scripted != nil {
		if scripted.Delay > 0 {
			time.Sleep(scripted.Delay)
		}
		w.WriteHeader(scripted.StatusCode)
		w.Write([]byte(scripted.Body))
		return
	}

	if !ok {
		http.Error(w, fmt.Sprintf("no page for cursor %q", cursor), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(Envelope(pg.next, pg.reviews...)))
}

// Envelope renders a listing response body. The cursor is wrapped in
// literal quotes the way the provider sends it; "" renders null.
func Envelope(next string, reviews ...json.RawMessage) string {
	cursor := []byte("null")
	if next != "" {
		cursor, _ = json.Marshal(`"` + next + `"`)
	}
	if reviews == nil {
		reviews = []json.RawMessage{}
	}
	batch, _ := json.Marshal(reviews)
	return fmt.Sprintf(")]}'\n[null,%s,%s]", cursor, batch)
}

// Record returns a minimal raw review record with the given id.
func Record(id string) json.RawMessage {
	b, _ := json.Marshal([]any{[]any{id}})
	return b
}

// Records returns Record(prefix1)..Record(prefixN).
func Records(prefix string, n int) []json.RawMessage {
	out := make([]json.RawMessage, n)
	for i := range out {
		out[i] = Record(fmt.Sprintf("%s%d", prefix, i+1))
	}
	return out
}

// NewStatusResponse creates an error status response.
func NewStatusResponse(code int) MockResponse {
	return MockResponse{StatusCode: code, Body: http.StatusText(code)}
}

// NewEmptyBatchResponse creates a valid envelope with no reviews.
func NewEmptyBatchResponse(next string) MockResponse {
	return MockResponse{StatusCode: http.StatusOK, Body: Envelope(next)}
}

// NewGarbageResponse creates a 200 response without the envelope marker.
func NewGarbageResponse() MockResponse {
	return MockResponse{StatusCode: http.StatusOK, Body: "<html>unusual traffic</html>"}
}
