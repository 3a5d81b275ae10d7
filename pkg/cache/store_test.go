package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// setupTestRedis connects to a local Redis on DB 15 and skips when none runs.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}
	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test DB: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	return client
}

func TestNewStore_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewStore should panic with nil redis client")
		}
	}()
	NewStore(nil)
}

func TestStore_SaveLookup(t *testing.T) {
	store := NewStore(setupTestRedis(t))
	ctx := context.Background()
	key := PageKey{Page: 2, Fields: []string{"id", "title"}}

	if _, err := store.Lookup(ctx, key); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("Lookup() on empty store error = %v, want ErrCacheMiss", err)
	}

	entry := &Entry{
		Body:     []byte(`{"data":[{"id":13}]}`),
		ETag:     `W/"p2"`,
		Expires:  time.Now().Add(time.Hour),
		StoredAt: time.Now(),
	}
	if err := store.Save(ctx, key, entry); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Lookup(ctx, key)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if string(got.Body) != string(entry.Body) || got.ETag != entry.ETag {
		t.Errorf("Lookup() = %+v, want %+v", got, entry)
	}

	// Same page under another projection is a separate entry.
	other := PageKey{Page: 2, Fields: []string{"id"}}
	if _, err := store.Lookup(ctx, other); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Lookup(%s) error = %v, want ErrCacheMiss", other, err)
	}
}

func TestStore_SaveSkips(t *testing.T) {
	store := NewStore(setupTestRedis(t))
	ctx := context.Background()

	tests := []struct {
		name  string
		entry *Entry
	}{
		{"no validators", &Entry{Body: []byte("{}"), Expires: time.Now().Add(time.Hour)}},
		{"already expired", &Entry{Body: []byte("{}"), ETag: `"x"`, Expires: time.Now().Add(-time.Second)}},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := PageKey{Page: i + 1}
			if err := store.Save(ctx, key, tt.entry); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			if _, err := store.Lookup(ctx, key); !errors.Is(err, ErrCacheMiss) {
				t.Errorf("Lookup() error = %v, want ErrCacheMiss", err)
			}
		})
	}

	if err := store.Save(ctx, PageKey{Page: 9}, nil); err == nil {
		t.Error("Save(nil) should fail")
	}
}

func TestStore_Revalidated(t *testing.T) {
	store := NewStore(setupTestRedis(t))
	ctx := context.Background()
	key := PageKey{Page: 1}

	if err := store.Revalidated(ctx, key, time.Now().Add(time.Hour)); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("Revalidated() on missing page error = %v, want ErrCacheMiss", err)
	}

	entry := &Entry{Body: []byte("{}"), ETag: `"x"`, Expires: time.Now().Add(time.Minute)}
	if err := store.Save(ctx, key, entry); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	later := time.Now().Add(2 * time.Hour)
	if err := store.Revalidated(ctx, key, later); err != nil {
		t.Fatalf("Revalidated() error = %v", err)
	}

	got, err := store.Lookup(ctx, key)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if !got.Expires.Equal(later) {
		t.Errorf("Expires = %v, want %v", got.Expires, later)
	}
	if ttl := got.TTL(); ttl < time.Hour {
		t.Errorf("TTL() = %v, want > 1h", ttl)
	}
}

func TestStore_Forget(t *testing.T) {
	store := NewStore(setupTestRedis(t))
	ctx := context.Background()
	key := PageKey{Page: 4, Limit: 12}

	entry := &Entry{Body: []byte("{}"), ETag: `"x"`, Expires: time.Now().Add(time.Hour)}
	if err := store.Save(ctx, key, entry); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Forget(ctx, key); err != nil {
		t.Fatalf("Forget() error = %v", err)
	}
	if _, err := store.Lookup(ctx, key); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Lookup() after Forget error = %v, want ErrCacheMiss", err)
	}
}

func TestStore_LookupCorruptEntry(t *testing.T) {
	rdb := setupTestRedis(t)
	store := NewStore(rdb)
	ctx := context.Background()
	key := PageKey{Page: 7}

	if err := rdb.HSet(ctx, key.String(), fieldETag, `"x"`).Err(); err != nil {
		t.Fatalf("HSet() error = %v", err)
	}
	if _, err := store.Lookup(ctx, key); !errors.Is(err, ErrInvalidEntry) {
		t.Fatalf("Lookup() error = %v, want ErrInvalidEntry", err)
	}
	if n, _ := rdb.Exists(ctx, key.String()).Result(); n != 0 {
		t.Error("corrupt entry should be removed")
	}
}
