package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/maps-review-scraper/pkg/pagination"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrNotFound indicates no result is stored under the key
	ErrNotFound = errors.New("result not found")

	// ErrInvalidEntry indicates the stored entry is invalid or corrupted
	ErrInvalidEntry = errors.New("invalid result entry")
)

// Manager saves and loads retrieval results with a Redis backend.
type Manager struct {
	redis *redis.Client
}

// NewManager creates a new result store with Redis backend.
func NewManager(redisClient *redis.Client) *Manager {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &Manager{
		redis: redisClient,
	}
}

// NewManagerFromURL parses a redis:// URL and verifies the connection.
func NewManagerFromURL(ctx context.Context, redisURL string) (*Manager, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return NewManager(client), nil
}

// Close closes the underlying Redis client.
func (m *Manager) Close() error {
	return m.redis.Close()
}

// Ping checks the Redis connection.
func (m *Manager) Ping(ctx context.Context) error {
	return m.redis.Ping(ctx).Err()
}

// Save stores out under key for ttl. A non-positive ttl stores nothing.
func (m *Manager) Save(ctx context.Context, key ResultKey, out pagination.Output, ttl time.Duration) (*Entry, error) {
	if ttl <= 0 {
		return nil, nil
	}

	reviews, err := json.Marshal(out)
	if err != nil {
		StoreErrors.WithLabelValues("save").Inc()
		return nil, fmt.Errorf("marshal reviews: %w", err)
	}

	now := time.Now()
	entry := &Entry{
		Key:        key.String(),
		Reviews:    reviews,
		Count:      out.Count(),
		Pages:      out.Pages,
		StopReason: string(out.Stop),
		SavedAt:    now,
		Expires:    now.Add(ttl),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		StoreErrors.WithLabelValues("save").Inc()
		return nil, fmt.Errorf("marshal result entry: %w", err)
	}

	if err := m.redis.Set(ctx, entry.Key, data, ttl).Err(); err != nil {
		StoreErrors.WithLabelValues("save").Inc()
		return nil, fmt.Errorf("redis set: %w", err)
	}

	StoreWrites.Inc()
	StoreEntryBytes.Observe(float64(len(data)))

	return entry, nil
}

// Load retrieves the result stored under key.
// Returns ErrNotFound if the key doesn't exist or the entry is expired.
func (m *Manager) Load(ctx context.Context, key ResultKey) (*Entry, error) {
	storeKey := key.String()

	data, err := m.redis.Get(ctx, storeKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			StoreMisses.Inc()
			return nil, ErrNotFound
		}
		StoreErrors.WithLabelValues("load").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		StoreErrors.WithLabelValues("load").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	if entry.IsExpired() {
		_ = m.Delete(ctx, key)
		StoreMisses.Inc()
		return nil, ErrNotFound
	}

	StoreHits.Inc()
	return &entry, nil
}

// Delete removes a stored result.
func (m *Manager) Delete(ctx context.Context, key ResultKey) error {
	if err := m.redis.Del(ctx, key.String()).Err(); err != nil {
		StoreErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}

	return nil
}
