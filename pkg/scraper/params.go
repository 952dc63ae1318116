package scraper

import (
	"strings"

	"github.com/Sternrassler/maps-review-scraper/pkg/listing"
	"github.com/Sternrassler/maps-review-scraper/pkg/pagination"
)

// Params are the user supplied parameters of one retrieval, as strings,
// the way they arrive from flags or query strings.
type Params struct {
	URL   string
	Sort  string
	Pages string
	Query string
	Clean bool
}

// Validated is the parsed form of Params.
type Validated struct {
	Request listing.Request
	PlaceID string
	Budget  pagination.Budget
	Clean   bool
}

// Validate parses p. It returns a *listing.ValidationError for the first
// malformed field.
func (p Params) Validate() (Validated, error) {
	if !strings.HasPrefix(p.URL, listing.PlacePrefix) {
		return Validated{}, &listing.ValidationError{
			Field:  "url",
			Value:  p.URL,
			Reason: "must start with " + listing.PlacePrefix,
			Err:    listing.ErrInvalidURL,
		}
	}

	placeID, err := listing.PlaceID(p.URL)
	if err != nil {
		return Validated{}, err
	}

	sort, err := listing.ParseSortMode(p.Sort)
	if err != nil {
		return Validated{}, err
	}

	pages := p.Pages
	if strings.TrimSpace(pages) == "" {
		pages = "max"
	}
	budget, err := pagination.ParseBudget(pages)
	if err != nil {
		return Validated{}, err
	}

	return Validated{
		Request: listing.Request{
			URL:   p.URL,
			Sort:  sort,
			Query: p.Query,
		},
		PlaceID: placeID,
		Budget:  budget,
		Clean:   p.Clean,
	}, nil
}
