package store

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/Sternrassler/maps-review-scraper/pkg/listing"
	"github.com/Sternrassler/maps-review-scraper/pkg/pagination"
	"github.com/Sternrassler/maps-review-scraper/pkg/scraper"
)

// ResultKey identifies a stored retrieval. Two retrievals with the same
// key asked the provider the same question.
type ResultKey struct {
	PlaceID string
	Sort    listing.SortMode
	Query   string
	Pages   pagination.Budget

	// Clean distinguishes cleaned from raw results; their shapes differ.
	Clean bool
}

// KeyFor builds the key for validated retrieval parameters.
func KeyFor(v scraper.Validated) ResultKey {
	return ResultKey{
		PlaceID: v.PlaceID,
		Sort:    v.Request.Sort,
		Query:   v.Request.Query,
		Pages:   v.Budget,
		Clean:   v.Clean,
	}
}

// String generates a deterministic key string.
// Format: maps:reviews:<place>:sort=<mode>:pages=<budget>[:q=<query>][:clean]
//
// Example:
//
//	maps:reviews:0x3ae25:0xabc123:sort=newest:pages=max:q=flat+white:clean
func (k ResultKey) String() string {
	parts := []string{"maps", "reviews", k.PlaceID}

	parts = append(parts,
		fmt.Sprintf("sort=%s", k.Sort),
		fmt.Sprintf("pages=%s", k.Pages),
	)

	// Escaped so a query cannot inject separators
	if q := strings.TrimSpace(k.Query); q != "" {
		parts = append(parts, "q="+url.QueryEscape(q))
	}

	if k.Clean {
		parts = append(parts, "clean")
	}

	return strings.Join(parts, ":")
}
