// Package listing builds request URLs for the maps review listing endpoint.
package listing

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// DefaultEndpoint is the provider's internal review listing endpoint.
const DefaultEndpoint = "https://www.google.com/maps/rpc/listugcposts"

// PlacePrefix is the required prefix of a location URL.
const PlacePrefix = "https://www.google.com/maps/place/"

// PageSize is the number of reviews requested per page.
const PageSize = 10

// SortMode selects the order in which the provider returns reviews.
type SortMode int

const (
	SortRelevant      SortMode = 1
	SortNewest        SortMode = 2
	SortHighestRating SortMode = 3
	SortLowestRating  SortMode = 4
)

var sortNames = map[SortMode]string{
	SortRelevant:      "relevant",
	SortNewest:        "newest",
	SortHighestRating: "highest_rating",
	SortLowestRating:  "lowest_rating",
}

// String returns the user facing sort key.
func (s SortMode) String() string {
	if name, ok := sortNames[s]; ok {
		return name
	}
	return "sort(" + strconv.Itoa(int(s)) + ")"
}

// Valid reports whether s is one of the known sort modes.
func (s SortMode) Valid() bool {
	_, ok := sortNames[s]
	return ok
}

// ParseSortMode accepts a sort key such as "newest". An empty key selects
// SortRelevant.
func ParseSortMode(key string) (SortMode, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return SortRelevant, nil
	}
	// Accepted for compatibility with older callers.
	if key == "relevent" {
		return SortRelevant, nil
	}
	for mode, name := range sortNames {
		if name == key {
			return mode, nil
		}
	}
	return 0, &ValidationError{Field: "sort", Value: key, Reason: "must be one of relevant, newest, highest_rating, lowest_rating"}
}

var placeIDPattern = regexp.MustCompile(`!1s([a-zA-Z0-9_:]+)!`)

// PlaceID extracts the feature id from a location URL. Place URLs carry a
// map token first and the feature id second; the second match wins when
// present.
func PlaceID(locationURL string) (string, error) {
	matches := placeIDPattern.FindAllStringSubmatch(locationURL, -1)
	switch len(matches) {
	case 0:
		return "", &ValidationError{Field: "url", Value: locationURL, Reason: "no place id found", Err: ErrInvalidURL}
	case 1:
		return matches[0][1], nil
	default:
		return matches[1][1], nil
	}
}

// Request identifies one page of reviews. It is a value type; each fetch
// attempt builds its own.
type Request struct {
	// URL is the location URL the user supplied.
	URL    string
	Sort   SortMode
	Cursor string

	// Query optionally restricts reviews to those matching a search term.
	Query string
}

// WithCursor returns a copy of r pointing at another page.
func (r Request) WithCursor(cursor string) Request {
	r.Cursor = cursor
	return r
}

// BuildURL renders r against endpoint. An empty endpoint selects
// DefaultEndpoint.
func BuildURL(endpoint string, r Request) (string, error) {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	placeID, err := PlaceID(r.URL)
	if err != nil {
		return "", err
	}

	sort := r.Sort
	if !sort.Valid() {
		sort = SortRelevant
	}

	var pb strings.Builder
	fmt.Fprintf(&pb, "!1m6!1s%s!6m4!4m1!1e1!4m1!1e3!2m2!1i%d!2s%s", placeID, PageSize, r.Cursor)
	pb.WriteString("!5m2!1s!7e81!8m9!2b1!3b1!5b1!7b1!12m4!1b1!2b1!4m1!1e1!11m4!1e3!2e1!6m1!1i2")
	fmt.Fprintf(&pb, "!13m1!1e%d", int(sort))
	if r.Query != "" {
		fmt.Fprintf(&pb, "!24m1!1s%s", url.QueryEscape(r.Query))
	}

	q := url.Values{}
	q.Set("authuser", "0")
	q.Set("hl", "en")
	q.Set("gl", "in")

	// pb is appended verbatim: the provider expects its '!' separators unescaped.
	return endpoint + "?" + q.Encode() + "&pb=" + pb.String(), nil
}
