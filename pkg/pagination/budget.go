package pagination

import (
	"strconv"
	"strings"

	"github.com/Sternrassler/maps-review-scraper/pkg/listing"
)

// unboundedKeyword is the user facing spelling of an unbounded budget.
const unboundedKeyword = "max"

// Budget caps the number of pages a retrieval may fetch. Page 1 is the
// caller supplied first page. The zero value is unbounded.
type Budget struct {
	max int
}

// Unbounded returns a budget without a page limit.
func Unbounded() Budget {
	return Budget{}
}

// MaxPages returns a budget allowing pages 1..n.
func MaxPages(n int) (Budget, error) {
	if n < 1 {
		return Budget{}, &listing.ValidationError{
			Field:  "pages",
			Value:  strconv.Itoa(n),
			Reason: "must be a positive integer or \"max\"",
		}
	}
	return Budget{max: n}, nil
}

// ParseBudget accepts "max" or a positive integer.
func ParseBudget(s string) (Budget, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, unboundedKeyword) {
		return Unbounded(), nil
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return Budget{}, &listing.ValidationError{
			Field:  "pages",
			Value:  s,
			Reason: "must be a positive integer or \"max\"",
			Err:    err,
		}
	}
	return MaxPages(n)
}

// IsUnbounded reports whether the budget has no page limit.
func (b Budget) IsUnbounded() bool {
	return b.max == 0
}

// Max returns the last allowed page number, or 0 when unbounded.
func (b Budget) Max() int {
	return b.max
}

// Allows reports whether page (1-indexed) is within the budget.
func (b Budget) Allows(page int) bool {
	return b.IsUnbounded() || page <= b.max
}

// String returns "max" or the page limit.
func (b Budget) String() string {
	if b.IsUnbounded() {
		return unboundedKeyword
	}
	return strconv.Itoa(b.max)
}

// Set implements pflag.Value so a Budget can be bound to a CLI flag.
func (b *Budget) Set(s string) error {
	parsed, err := ParseBudget(s)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// Type implements pflag.Value.
func (b *Budget) Type() string {
	return "pages"
}
