// Package review turns raw listing records into a normalized Review shape.
//
// A raw record is a positional JSON array. Fields are read by index path;
// a path that does not exist yields the zero value so that provider layout
// drift degrades individual fields instead of failing the whole batch.
package review

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

// Review is the cleaned representation of one review.
type Review struct {
	ID       string    `json:"review_id"`
	Time     Time      `json:"time"`
	Author   Author    `json:"author"`
	Review   Body      `json:"review"`
	Images   []Image   `json:"images"`
	Source   string    `json:"source"`
	Response *Response `json:"response"`
}

// Time holds provider timestamps in microseconds since the Unix epoch.
type Time struct {
	Published  int64 `json:"published"`
	LastEdited int64 `json:"last_edited"`
}

type Author struct {
	Name       string `json:"name"`
	ProfileURL string `json:"profile_url"`
	URL        string `json:"url"`
	ID         string `json:"id"`
}

type Body struct {
	Rating   int    `json:"rating"`
	Text     string `json:"text"`
	Language string `json:"language"`
}

type Image struct {
	ID       string   `json:"id"`
	URL      string   `json:"url"`
	Size     Size     `json:"size"`
	Location Location `json:"location"`
	Caption  string   `json:"caption"`
}

type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type Location struct {
	Friendly string  `json:"friendly"`
	Lat      float64 `json:"lat"`
	Long     float64 `json:"long"`
}

// Response is the owner's reply to a review.
type Response struct {
	Text string `json:"text"`
	Time Time   `json:"time"`
}

// Cleaner transforms a complete sequence of raw records. It is invoked once
// per retrieval, never per page.
type Cleaner interface {
	Clean(ctx context.Context, raw []json.RawMessage) ([]Review, error)
}

// DefaultCleaner maps records using the listing endpoint's field layout.
type DefaultCleaner struct{}

// Clean implements Cleaner. Output order matches input order.
func (DefaultCleaner) Clean(ctx context.Context, raw []json.RawMessage) ([]Review, error) {
	out := make([]Review, 0, len(raw))
	for i, r := range raw {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rv, err := CleanOne(r)
		if err != nil {
			return nil, fmt.Errorf("clean record %d: %w", i, err)
		}
		out = append(out, rv)
	}
	return out, nil
}

// CleanOne maps a single raw record.
func CleanOne(raw json.RawMessage) (Review, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var record any
	if err := dec.Decode(&record); err != nil {
		return Review{}, fmt.Errorf("decode record: %w", err)
	}

	r := at(record, 0)

	out := Review{
		ID: str(at(r, 0)),
		Time: Time{
			Published:  i64(at(r, 1, 2)),
			LastEdited: i64(at(r, 1, 3)),
		},
		Author: Author{
			Name:       str(at(r, 1, 4, 5, 0)),
			ProfileURL: str(at(r, 1, 4, 5, 1)),
			URL:        str(at(r, 1, 4, 5, 2, 0)),
			ID:         str(at(r, 1, 4, 5, 3)),
		},
		Review: Body{
			Rating:   int(i64(at(r, 2, 0, 0))),
			Text:     str(at(r, 2, 15, 0, 0)),
			Language: str(at(r, 2, 14, 0)),
		},
		Source: str(at(r, 1, 13, 0)),
	}

	if images, ok := at(r, 2, 2).([]any); ok {
		out.Images = make([]Image, 0, len(images))
		for _, img := range images {
			out.Images = append(out.Images, Image{
				ID:  str(at(img, 0)),
				URL: str(at(img, 1, 6, 0)),
				Size: Size{
					Width:  int(i64(at(img, 1, 6, 2, 0))),
					Height: int(i64(at(img, 1, 6, 2, 1))),
				},
				Location: Location{
					Friendly: str(at(img, 1, 21, 3, 7, 0)),
					Lat:      f64(at(img, 1, 8, 0, 2)),
					Long:     f64(at(img, 1, 8, 0, 1)),
				},
				Caption: str(at(img, 1, 21, 3, 5, 0)),
			})
		}
	}

	if text := str(at(r, 3, 14, 0, 0)); text != "" {
		out.Response = &Response{
			Text: text,
			Time: Time{
				Published:  i64(at(r, 3, 1)),
				LastEdited: i64(at(r, 3, 2)),
			},
		}
	}

	return out, nil
}

// at walks nested arrays by index and returns nil when any step is missing.
func at(v any, path ...int) any {
	for _, i := range path {
		arr, ok := v.([]any)
		if !ok || i < 0 || i >= len(arr) {
			return nil
		}
		v = arr[i]
	}
	return v
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func i64(v any) int64 {
	n, ok := v.(json.Number)
	if !ok {
		return 0
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	f, _ := n.Float64()
	return int64(f)
}

func f64(v any) float64 {
	n, ok := v.(json.Number)
	if !ok {
		return 0
	}
	f, _ := n.Float64()
	return f
}
