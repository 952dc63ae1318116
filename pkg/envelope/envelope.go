// Package envelope decodes the listing endpoint's response envelope: an
// anti-hijacking prefix followed by a JSON array whose index 1 is the next
// page cursor and index 2 the batch of raw review records.
package envelope

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Marker is the anti-JSON-hijacking prefix the provider prepends.
const Marker = ")]}'"

const (
	cursorIndex  = 1
	reviewsIndex = 2
)

var (
	// ErrMarkerNotFound indicates the response did not contain Marker.
	ErrMarkerNotFound = errors.New("anti-hijacking marker not found")

	// ErrNotArray indicates the payload parsed but is not a JSON array.
	ErrNotArray = errors.New("payload is not a JSON array")
)

// DecodeError is returned when a response body cannot be turned into a Page.
type DecodeError struct {
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode envelope: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("decode envelope: %s", e.Reason)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Page is the decoded response of a single listing request. It is created
// per decode and never mutated afterwards.
type Page struct {
	// Cursor is the provider cursor as sent, still wrapped in quote
	// characters. Use NextCursor for the reusable form.
	Cursor    string
	HasCursor bool

	// Reviews holds the raw records of index 2 in provider order.
	// HasReviews is false when index 2 is absent, null or not an array.
	Reviews    []json.RawMessage
	HasReviews bool

	// Fields is the complete top-level array, including entries the
	// scraper ignores.
	Fields []json.RawMessage
}

// Decode strips everything up to and including the first Marker and parses
// the remainder as a Page.
func Decode(raw string) (Page, error) {
	idx := strings.Index(raw, Marker)
	if idx < 0 {
		return Page{}, &DecodeError{Reason: "missing prefix", Err: ErrMarkerNotFound}
	}

	payload := raw[idx+len(Marker):]

	var fields []json.RawMessage
	if err := json.Unmarshal([]byte(payload), &fields); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return Page{}, &DecodeError{Reason: "unexpected payload", Err: ErrNotArray}
		}
		return Page{}, &DecodeError{Reason: "invalid JSON", Err: err}
	}
	if fields == nil {
		// Top-level null.
		return Page{}, &DecodeError{Reason: "unexpected payload", Err: ErrNotArray}
	}

	page := Page{Fields: fields}

	if len(fields) > cursorIndex {
		var cursor string
		if err := json.Unmarshal(fields[cursorIndex], &cursor); err == nil && !isNull(fields[cursorIndex]) {
			page.Cursor = cursor
			page.HasCursor = true
		}
	}

	if len(fields) > reviewsIndex && !isNull(fields[reviewsIndex]) {
		var reviews []json.RawMessage
		if err := json.Unmarshal(fields[reviewsIndex], &reviews); err == nil {
			page.Reviews = reviews
			page.HasReviews = true
		}
	}

	return page, nil
}

// NextCursor returns the cursor with quote characters removed. It reports
// false when the page carries no cursor or the cursor is empty once
// unquoted; either is the final-page signal.
func (p Page) NextCursor() (string, bool) {
	if !p.HasCursor {
		return "", false
	}
	c := UnquoteCursor(p.Cursor)
	if c == "" {
		return "", false
	}
	return c, true
}

// UnquoteCursor removes every literal double-quote character. Applying it to
// an already unquoted cursor is a no-op.
func UnquoteCursor(cursor string) string {
	return strings.ReplaceAll(cursor, `"`, "")
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}
