// Package cache stores catalog responses in Redis so that repeated page loads
// can be revalidated instead of re-downloaded.
//
// The store is deliberately not an offline cache: the client always contacts
// the catalog. A stored entry only contributes validators (ETag,
// Last-Modified) to the next request, and its body is reused when the catalog
// answers 304 Not Modified.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	store := cache.NewStore(redisClient)
//
//	key := cache.PageKey{Page: 3, Fields: []string{"id", "title"}}
//
//	entry, err := store.Lookup(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// plain request
//	}
//
// # Revalidation
//
//	entry.SetConditionalHeaders(req)
//	// on 304: reuse entry.Body, then
//	store.Revalidated(ctx, key, newExpires)
//	// on 200:
//	store.Save(ctx, key, cache.NewEntry(resp.Header, body, time.Now()))
//
// Every page and field projection is its own Redis hash under KeyPrefix.
//
// # Metrics
//
//   - artic_cache_hits_total{layer="redis"}
//   - artic_cache_misses_total
//   - artic_cache_stored_bytes_total
//   - artic_304_responses_total
//   - artic_conditional_requests_total
//   - artic_cache_errors_total{operation}
//
// Entries expire with the Expires header of the response they came from, or
// after DefaultTTL when the catalog sends none.
package cache
