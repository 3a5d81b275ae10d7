package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrCacheMiss indicates no live entry exists for the page
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates a stored page could not be decoded
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// Store keeps revalidatable listing pages in Redis, one hash per page key.
// Redis expires each hash together with the page's Expires header.
type Store struct {
	redis *redis.Client
}

// NewStore creates a store on top of redisClient. It panics on nil.
func NewStore(redisClient *redis.Client) *Store {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &Store{redis: redisClient}
}

// Lookup returns the live entry for key, or ErrCacheMiss.
func (s *Store) Lookup(ctx context.Context, key PageKey) (*Entry, error) {
	h, err := s.redis.HGetAll(ctx, key.String()).Result()
	if err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis hgetall: %w", err)
	}
	if len(h) == 0 {
		CacheMisses.Inc()
		return nil, ErrCacheMiss
	}

	entry, err := entryFromHash(h)
	if err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		_ = s.Forget(ctx, key)
		return nil, err
	}

	// Redis expiry has second resolution; the stored Expires is exact.
	if entry.IsExpired() {
		_ = s.Forget(ctx, key)
		CacheMisses.Inc()
		return nil, ErrCacheMiss
	}

	CacheHits.WithLabelValues("redis").Inc()
	return entry, nil
}

// Save stores entry for key until entry.Expires. Entries without validators
// or already expired cannot serve a revalidation and are skipped.
func (s *Store) Save(ctx context.Context, key PageKey, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}
	if !entry.HasValidators() || entry.TTL() <= 0 {
		return nil
	}

	k := key.String()
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, k)
		pipe.HSet(ctx, k, entry.hash())
		pipe.ExpireAt(ctx, k, entry.Expires)
		return nil
	})
	if err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis store page %d: %w", key.Page, err)
	}

	StoredBytes.Add(float64(len(entry.Body)))
	return nil
}

// Revalidated records that the catalog confirmed the stored page with a 304
// and moves its expiry to expires. It returns ErrCacheMiss when the page is
// no longer stored.
func (s *Store) Revalidated(ctx context.Context, key PageKey, expires time.Time) error {
	k := key.String()
	ok, err := s.redis.ExpireAt(ctx, k, expires).Result()
	if err != nil {
		CacheErrors.WithLabelValues("refresh").Inc()
		return fmt.Errorf("redis expireat: %w", err)
	}
	if !ok {
		return ErrCacheMiss
	}
	if err := s.redis.HSet(ctx, k, fieldExpires, formatTime(expires)).Err(); err != nil {
		CacheErrors.WithLabelValues("refresh").Inc()
		return fmt.Errorf("redis hset: %w", err)
	}
	return nil
}

// Forget removes the stored page for key.
func (s *Store) Forget(ctx context.Context, key PageKey) error {
	if err := s.redis.Del(ctx, key.String()).Err(); err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.redis.Ping(ctx).Err()
}
