package scraper

import (
	"context"
	"net/http"
	"testing"

	"github.com/Sternrassler/maps-review-scraper/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	spanRecorder := tracetest.NewSpanRecorder()
	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(spanRecorder),
	)

	originalProvider := otel.GetTracerProvider()
	otel.SetTracerProvider(tracerProvider)
	t.Cleanup(func() {
		otel.SetTracerProvider(originalProvider)
	})

	return spanRecorder
}

func attrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestRun_RecordsSpan(t *testing.T) {
	spanRecorder := setupTestTracer(t)

	mock := testutil.NewMockProvider()
	defer mock.Close()
	mock.SetPage("", "tok2", testutil.Records("a", 3)...)
	mock.SetPage("tok2", "", testutil.Records("b", 2)...)

	_, err := newTestScraper(t, mock).Scrape(context.Background(), Params{URL: testutil.PlaceURL, Sort: "newest", Pages: "4"})
	require.NoError(t, err)

	spans := spanRecorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "scrape", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)

	a := attrs(spans[0])
	assert.Equal(t, "0x3ae25:0xabc123", a["place_id"].AsString())
	assert.Equal(t, "newest", a["sort"].AsString())
	assert.Equal(t, "4", a["pages"].AsString())
	assert.Equal(t, int64(5), a["reviews"].AsInt64())
	assert.Equal(t, int64(2), a["pages_fetched"].AsInt64())
	assert.Equal(t, "cursor_exhausted", a["stop_reason"].AsString())
}

func TestRun_SpanErrorOnFirstPage(t *testing.T) {
	spanRecorder := setupTestTracer(t)

	mock := testutil.NewMockProvider()
	defer mock.Close()
	mock.QueueResponses("", testutil.NewStatusResponse(http.StatusServiceUnavailable))

	_, err := newTestScraper(t, mock).Scrape(context.Background(), Params{URL: testutil.PlaceURL})
	require.Error(t, err)

	spans := spanRecorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.NotEmpty(t, spans[0].Events(), "error recorded as span event")
}
