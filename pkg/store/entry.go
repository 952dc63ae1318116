package store

import (
	"encoding/json"
	"time"
)

// Entry is a stored retrieval result.
type Entry struct {
	// Key is the ResultKey string the entry was saved under.
	Key string `json:"key"`

	// Reviews is the JSON form of the pagination output: cleaned reviews
	// when the retrieval was cleaned, raw records otherwise.
	Reviews json.RawMessage `json:"reviews"`

	// Count is the number of reviews in Reviews.
	Count int `json:"count"`

	// Pages is the number of pages that contributed reviews.
	Pages int `json:"pages"`

	// StopReason records why pagination ended.
	StopReason string `json:"stop_reason"`

	SavedAt time.Time `json:"saved_at"`
	Expires time.Time `json:"expires"`
}

// IsExpired returns true if the entry has expired.
func (e *Entry) IsExpired() bool {
	return time.Now().After(e.Expires)
}

// TTL returns the time until expiration.
// Returns 0 if already expired.
func (e *Entry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}
