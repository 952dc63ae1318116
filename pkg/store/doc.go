// Package store persists finished review retrievals in Redis.
//
// A retrieval is saved as a single entry after pagination ends. The store
// never takes part in pagination itself: pages are always fetched live and
// a stored entry is only ever a finished result.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//	manager := store.NewManager(redisClient)
//
//	key := store.KeyFor(validated)
//
//	entry, err := manager.Load(ctx, key)
//	if errors.Is(err, store.ErrNotFound) {
//		out, err := s.Run(ctx, validated)
//		// ...
//		entry, err = manager.Save(ctx, key, out, 24*time.Hour)
//	}
//
// Partial results from a cancelled retrieval should not be saved; callers
// decide what to persist.
//
// # Metrics
//
//   - maps_store_writes_total - Saved results
//   - maps_store_hits_total - Loads served from the store
//   - maps_store_misses_total - Loads without a stored result
//   - maps_store_entry_bytes - Encoded entry size
//   - maps_store_errors_total{operation} - Store operation errors
package store
