// Package testutil provides testing utilities for the artworks catalog client.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Sternrassler/artic-table/pkg/artwork"
)

// APIPrefix is the path under which the mock serves the catalog, mirroring
// the public /api/v1 root.
const APIPrefix = "/api/v1"

// MockResponse defines a canned response for one page.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockCatalog is a configurable in-process artworks catalog.
// Records have ids 1..total and are served in id order.
type MockCatalog struct {
	server *httptest.Server

	mu         sync.Mutex
	total      int
	pageSize   int
	etags      bool
	overrides  map[int]MockResponse
	handlers   map[string]http.HandlerFunc
	inFlight   int
	pages      []int
	headers    []http.Header
	conditions int

	maxInFlight int
}

// NewMockCatalog creates a catalog holding total records served pageSize at
// a time unless the request carries a limit.
func NewMockCatalog(total, pageSize int) *MockCatalog {
	m := &MockCatalog{
		total:     total,
		pageSize:  pageSize,
		overrides: make(map[int]MockResponse),
		handlers:  make(map[string]http.HandlerFunc),
	}
	m.server = httptest.NewServer(http.HandlerFunc(m.serve))
	return m
}

// URL returns the server root URL.
func (m *MockCatalog) URL() string {
	return m.server.URL
}

// BaseURL returns the URL to configure as the client base URL.
func (m *MockCatalog) BaseURL() string {
	return m.server.URL + APIPrefix
}

// Close shuts down the server.
func (m *MockCatalog) Close() {
	m.server.Close()
}

// EnableETags makes pages carry an ETag and answer 304 to a matching
// If-None-Match.
func (m *MockCatalog) EnableETags() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.etags = true
}

// SetPageResponse overrides the response for one page number.
func (m *MockCatalog) SetPageResponse(page int, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overrides[page] = resp
}

// FailPage makes page answer with status.
func (m *MockCatalog) FailPage(page, status int) {
	m.SetPageResponse(page, MockResponse{
		StatusCode: status,
		Body:       `{"status": ` + strconv.Itoa(status) + `, "error": "injected"}`,
		Headers:    map[string]string{"Content-Type": "application/json"},
	})
}

// SetHandler replaces the handler for an exact path.
func (m *MockCatalog) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// Reset clears request tracking.
func (m *MockCatalog) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages = nil
	m.headers = nil
	m.conditions = 0
	m.maxInFlight = 0
}

// RequestCount returns the number of artworks requests served.
func (m *MockCatalog) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pages)
}

// RequestedPages returns the requested page numbers in arrival order.
func (m *MockCatalog) RequestedPages() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.pages...)
}

// LastRequestHeader returns the headers of the most recent request.
func (m *MockCatalog) LastRequestHeader() http.Header {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.headers) == 0 {
		return nil
	}
	return m.headers[len(m.headers)-1]
}

// ConditionalCount returns how many requests carried validators.
func (m *MockCatalog) ConditionalCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conditions
}

// MaxInFlight returns the highest number of concurrent requests observed.
func (m *MockCatalog) MaxInFlight() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxInFlight
}

// Record returns the record the catalog serves for id.
func Record(id int) artwork.Record {
	start := 1800 + id%200
	end := start + id%3
	return artwork.Record{
		ID:            id,
		Title:         fmt.Sprintf("Artwork %d", id),
		PlaceOfOrigin: "Chicago",
		ArtistDisplay: fmt.Sprintf("Artist %d", id%17),
		DateStart:     &start,
		DateEnd:       &end,
	}
}

// PageIDs returns the ids a catalog of total records serves on page.
func PageIDs(total, pageSize, page int) []int {
	var ids []int
	for id := (page-1)*pageSize + 1; id <= page*pageSize && id <= total; id++ {
		ids = append(ids, id)
	}
	return ids
}

func (m *MockCatalog) serve(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	handler, custom := m.handlers[r.URL.Path]
	m.mu.Unlock()
	if custom {
		handler(w, r)
		return
	}

	if !strings.HasSuffix(r.URL.Path, "/artworks") {
		http.NotFound(w, r)
		return
	}

	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil || p < 1 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"status": 403, "error": "Invalid number of page"}`))
			return
		}
		page = p
	}

	m.mu.Lock()
	m.inFlight++
	if m.inFlight > m.maxInFlight {
		m.maxInFlight = m.inFlight
	}
	m.pages = append(m.pages, page)
	m.headers = append(m.headers, r.Header.Clone())
	if r.Header.Get("If-None-Match") != "" || r.Header.Get("If-Modified-Since") != "" {
		m.conditions++
	}
	override, hasOverride := m.overrides[page]
	etags := m.etags
	total := m.total
	limit := m.pageSize
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.inFlight--
		m.mu.Unlock()
	}()

	if hasOverride {
		if override.Delay > 0 {
			time.Sleep(override.Delay)
		}
		for k, v := range override.Headers {
			w.Header().Set(k, v)
		}
		status := override.StatusCode
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		if override.Body != "" {
			w.Write([]byte(override.Body))
		}
		return
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		if l, err := strconv.Atoi(raw); err == nil && l > 0 {
			limit = l
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Expires", time.Now().Add(5*time.Minute).UTC().Format(http.TimeFormat))

	etag := fmt.Sprintf(`"page-%d-%d"`, page, limit)
	if etags {
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", etag)
	}

	json.NewEncoder(w).Encode(BuildPage(total, limit, page))
}

// BuildPage renders the wire response for one page of a catalog.
func BuildPage(total, limit, page int) artwork.ListResponse {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}

	data := []artwork.Record{}
	for _, id := range PageIDs(total, limit, page) {
		data = append(data, Record(id))
	}

	var next *string
	if page < totalPages {
		u := fmt.Sprintf("https://api.artic.edu/api/v1/artworks?page=%d", page+1)
		next = &u
	}

	return artwork.ListResponse{
		Pagination: artwork.Pagination{
			Total:       total,
			Limit:       limit,
			Offset:      (page - 1) * limit,
			TotalPages:  totalPages,
			CurrentPage: page,
			NextURL:     next,
		},
		Data: data,
	}
}
