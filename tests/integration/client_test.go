package integration

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Sternrassler/artic-table/internal/testutil"
	"github.com/Sternrassler/artic-table/pkg/cache"
	"github.com/Sternrassler/artic-table/pkg/client"
	"github.com/Sternrassler/artic-table/pkg/table"
)

// setupRedis creates a Redis container for integration testing.
func setupRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	cleanup := func() {
		redisClient.Close()
		container.Terminate(ctx)
	}

	return redisClient, cleanup
}

// newSession builds a client with the revalidation store and a controller on
// top of it.
func newSession(t *testing.T, mock *testutil.MockCatalog, rdb *redis.Client) (*client.Client, *table.Controller) {
	t.Helper()

	cfg := client.DefaultConfig("TestApp/1.0.0 (integration@test.com)")
	cfg.BaseURL = mock.BaseURL()
	cfg.Redis = rdb
	c, err := client.New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	t.Cleanup(func() { c.Close() })

	ctrl, err := table.New(c, table.DefaultConfig())
	if err != nil {
		t.Fatalf("Failed to create controller: %v", err)
	}
	return c, ctrl
}

func pageKey(page int) cache.PageKey {
	return cache.PageKey{Page: page, Fields: client.DefaultConfig("").Fields}
}

func ids(from, to int) []int {
	var out []int
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}

// TestBrowseSession walks the cross-page selection scenario: select on page 1
// and page 3, go back to page 1 and see only the page 1 pick.
func TestBrowseSession(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockCatalog(100, 12)
	defer mock.Close()
	mock.EnableETags()

	_, ctrl := newSession(t, mock, redisClient)
	ctx := context.Background()

	t.Log("Page 1: select 5")
	if _, err := ctrl.LoadPage(ctx, 1); err != nil {
		t.Fatalf("LoadPage(1) failed: %v", err)
	}
	ctrl.Toggle(5)

	t.Log("Page 3: select 30")
	if _, err := ctrl.LoadPage(ctx, 3); err != nil {
		t.Fatalf("LoadPage(3) failed: %v", err)
	}
	ctrl.Toggle(30)

	if got := ctrl.SelectedIDs(); !reflect.DeepEqual(got, []int{5, 30}) {
		t.Errorf("SelectedIDs() = %v, want [5 30]", got)
	}

	t.Log("Back to page 1: revalidated")
	if _, err := ctrl.LoadPage(ctx, 1); err != nil {
		t.Fatalf("LoadPage(1) again failed: %v", err)
	}
	visible := ctrl.Visible()
	if len(visible) != 1 || visible[0].ID != 5 {
		t.Errorf("Visible() = %v, want [5]", visible)
	}

	if mock.RequestCount() != 3 {
		t.Errorf("catalog requests = %d, want 3 (store never skips a request)", mock.RequestCount())
	}
	if mock.ConditionalCount() != 1 {
		t.Errorf("conditional requests = %d, want 1", mock.ConditionalCount())
	}
}

// TestSelectFirstN_Revalidated runs the same bulk walk twice; the second walk
// revalidates every page it visits.
func TestSelectFirstN_Revalidated(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockCatalog(100, 12)
	defer mock.Close()
	mock.EnableETags()

	_, ctrl := newSession(t, mock, redisClient)
	ctx := context.Background()

	first, err := ctrl.SelectFirstN(ctx, 15)
	if err != nil {
		t.Fatalf("first SelectFirstN failed: %v", err)
	}
	second, err := ctrl.SelectFirstN(ctx, 15)
	if err != nil {
		t.Fatalf("second SelectFirstN failed: %v", err)
	}

	if !reflect.DeepEqual(first, ids(1, 15)) || !reflect.DeepEqual(second, first) {
		t.Errorf("walks = %v / %v, want 1..15 twice", first, second)
	}
	if !reflect.DeepEqual(mock.RequestedPages(), []int{1, 2, 1, 2}) {
		t.Errorf("requested pages = %v, want [1 2 1 2]", mock.RequestedPages())
	}
	if mock.ConditionalCount() != 2 {
		t.Errorf("conditional requests = %d, want 2", mock.ConditionalCount())
	}
	if mock.MaxInFlight() != 1 {
		t.Errorf("max in flight = %d, want 1 (walks are sequential)", mock.MaxInFlight())
	}
}

// TestSelectFirstN_PartialFailure checks that a failed page keeps what was
// already accumulated and that nothing is retried.
func TestSelectFirstN_PartialFailure(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockCatalog(100, 12)
	defer mock.Close()
	mock.FailPage(3, http.StatusServiceUnavailable)

	_, ctrl := newSession(t, mock, redisClient)

	got, err := ctrl.SelectFirstN(context.Background(), 40)
	var ne *client.NetworkError
	if !errors.As(err, &ne) || ne.Class != client.ErrorClassServer || ne.Page != 3 {
		t.Fatalf("err = %v, want server error on page 3", err)
	}
	if !reflect.DeepEqual(got, ids(1, 24)) {
		t.Errorf("SelectFirstN() = %v, want 1..24", got)
	}
	if ctrl.SelectedCount() != 24 {
		t.Errorf("SelectedCount() = %d, want 24", ctrl.SelectedCount())
	}
	if !reflect.DeepEqual(mock.RequestedPages(), []int{1, 2, 3}) {
		t.Errorf("requested pages = %v, want [1 2 3] (no retry)", mock.RequestedPages())
	}
}

// TestPageFailure_NoRetry checks that a failed page load is attempted once
// and leaves the previous page displayed.
func TestPageFailure_NoRetry(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockCatalog(100, 12)
	defer mock.Close()
	mock.FailPage(2, http.StatusInternalServerError)

	_, ctrl := newSession(t, mock, redisClient)
	ctx := context.Background()

	if _, err := ctrl.LoadPage(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := ctrl.LoadPage(ctx, 2); !client.IsNetworkError(err) {
		t.Fatalf("err = %v, want network error", err)
	}
	if ctrl.Page().CurrentPage != 1 {
		t.Errorf("CurrentPage = %d, want 1", ctrl.Page().CurrentPage)
	}
	if mock.RequestCount() != 2 {
		t.Errorf("catalog requests = %d, want 2", mock.RequestCount())
	}
}

// TestStoreExpiration checks that an expired entry is dropped and the next
// request goes out without validators.
func TestStoreExpiration(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockCatalog(100, 12)
	defer mock.Close()

	var conditional atomic.Int32
	mock.SetHandler(testutil.APIPrefix+client.ArtworksEndpoint, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") != "" {
			conditional.Add(1)
		}
		w.Header().Set("ETag", `"short-lived"`)
		w.Header().Set("Expires", time.Now().Add(3*time.Second).UTC().Format(http.TimeFormat))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(testutil.BuildPage(100, 12, 1))
	})

	c, ctrl := newSession(t, mock, redisClient)
	ctx := context.Background()

	if _, err := ctrl.LoadPage(ctx, 1); err != nil {
		t.Fatalf("first load failed: %v", err)
	}

	entry, err := c.Cache().Lookup(ctx, pageKey(1))
	if err != nil {
		t.Fatalf("store lookup failed: %v", err)
	}
	if entry.IsExpired() {
		t.Error("entry should not be expired yet")
	}

	time.Sleep(4 * time.Second)

	if _, err := c.Cache().Lookup(ctx, pageKey(1)); !errors.Is(err, cache.ErrCacheMiss) {
		t.Errorf("expected store miss after expiration, got %v", err)
	}

	if _, err := ctrl.LoadPage(ctx, 1); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if conditional.Load() != 0 {
		t.Errorf("conditional requests = %d, want 0 after expiry", conditional.Load())
	}
}
