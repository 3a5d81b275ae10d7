// Package client provides the HTTP client for the Art Institute of Chicago
// artworks catalog, with optional ETag revalidation and error classification.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-querystring/query"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/artic-table/pkg/artwork"
	"github.com/Sternrassler/artic-table/pkg/cache"
)

// DefaultBaseURL is the public catalog API root.
const DefaultBaseURL = "https://api.artic.edu/api/v1"

// ArtworksEndpoint is the paginated artworks listing.
const ArtworksEndpoint = "/artworks"

// Prometheus metrics for catalog client operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "artic_requests_total",
		Help: "Total catalog requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "artic_request_duration_seconds",
		Help:    "Catalog request duration in seconds by endpoint",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "artic_errors_total",
		Help: "Total catalog errors by class",
	}, []string{"class"})
)

// Client fetches catalog pages.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	cache      *cache.Store
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the catalog API (default DefaultBaseURL)
	BaseURL string

	// User-Agent header sent with every request
	UserAgent string

	// Timeout for a single HTTP request
	Timeout time.Duration

	// Limit is the page size requested from the catalog.
	// 0 leaves the catalog default in place.
	Limit int

	// Fields restricts the returned record fields (empty = all)
	Fields []string

	// Redis enables the revalidation store when non-nil
	Redis *redis.Client
}

// DefaultConfig returns a configuration for the public catalog.
func DefaultConfig(userAgent string) Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		UserAgent: userAgent,
		Timeout:   30 * time.Second,
		Fields: []string{
			"id", "title", "place_of_origin", "artist_display",
			"inscriptions", "date_start", "date_end",
		},
	}
}

// ListOptions are the query parameters of the artworks listing.
type ListOptions struct {
	Page   int      `url:"page"`
	Limit  int      `url:"limit,omitempty"`
	Fields []string `url:"fields,comma,omitempty"`
}

// New creates a new catalog client.
func New(cfg Config) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url must be absolute (got %q)", cfg.BaseURL)
	}

	if cfg.Limit < 0 {
		return nil, fmt.Errorf("limit must be >= 0 (got %d)", cfg.Limit)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	logger := log.With().Str("component", "artic-client").Logger()

	var store *cache.Store
	if cfg.Redis != nil {
		store = cache.NewStore(cfg.Redis)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: base,
		cache:   store,
		config:  cfg,
		logger:  logger,
	}, nil
}

// Do performs one HTTP attempt. Transport failures come back as
// *NetworkError; HTTP error statuses are returned with the response so the
// caller decides what they mean.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	endpoint := req.URL.Path

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("query", req.URL.RawQuery).
		Msg("Executing catalog request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("HTTP request failed")
		return nil, &NetworkError{Class: ErrorClassNetwork, Err: err}
	}

	requestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if class := classifyStatus(resp.StatusCode); class != "" {
		errorsTotal.WithLabelValues(string(class)).Inc()
		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Str("error_class", string(class)).
			Msg("Catalog request error")
	}

	return resp, nil
}

// fetchListing returns the raw listing body for opts. With the revalidation
// store enabled the request carries the stored page's validators and a 304
// is answered from the stored body.
func (c *Client) fetchListing(ctx context.Context, opts ListOptions) ([]byte, error) {
	params, err := query.Values(opts)
	if err != nil {
		return nil, fmt.Errorf("encode list options: %w", err)
	}

	u := *c.baseURL
	u.Path = c.baseURL.Path + ArtworksEndpoint
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	key := cache.PageKey{Page: opts.Page, Limit: opts.Limit, Fields: opts.Fields}
	var stored *cache.Entry
	if c.cache != nil {
		entry, err := c.cache.Lookup(ctx, key)
		if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.Warn().Err(err).Int("page", opts.Page).Msg("Revalidation store lookup failed")
		}
		if entry.HasValidators() {
			stored = entry
			entry.SetConditionalHeaders(req)
			cache.ConditionalRequestsSent.Inc()
			c.logger.Debug().
				Int("page", opts.Page).
				Str("etag", entry.ETag).
				Msg("Making conditional request")
		}
	}

	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified && stored != nil {
		cache.NotModifiedResponses.Inc()
		c.logger.Debug().Int("page", opts.Page).Msg("304 Not Modified - reusing stored body")

		if raw := resp.Header.Get("Expires"); raw != "" {
			if expires, err := http.ParseTime(raw); err == nil {
				if err := c.cache.Revalidated(ctx, key, expires); err != nil {
					c.logger.Warn().Err(err).Int("page", opts.Page).Msg("Failed to extend stored page")
				}
			}
		}
		return stored.Body, nil
	}

	if resp.StatusCode != http.StatusOK {
		class := classifyStatus(resp.StatusCode)
		if class == "" {
			class = ErrorClassClient
		}
		return nil, &NetworkError{
			Class:      class,
			StatusCode: resp.StatusCode,
			Message:    resp.Status,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		return nil, &NetworkError{Class: ErrorClassNetwork, Message: "read body", Err: err}
	}

	if c.cache != nil {
		if err := c.cache.Save(ctx, key, cache.NewEntry(resp.Header, body, time.Now())); err != nil {
			c.logger.Warn().Err(err).Int("page", opts.Page).Msg("Failed to store page")
		}
	}

	return body, nil
}

// FetchPage fetches one page of the artworks listing. It does not retry; any
// failure is returned as *NetworkError.
func (c *Client) FetchPage(ctx context.Context, page int) (*artwork.Page, error) {
	if page < 1 {
		return nil, fmt.Errorf("%w (got %d)", ErrInvalidPage, page)
	}

	raw, err := c.fetchListing(ctx, ListOptions{
		Page:   page,
		Limit:  c.config.Limit,
		Fields: c.config.Fields,
	})
	if err != nil {
		var ne *NetworkError
		if errors.As(err, &ne) {
			ne.Page = page
			return nil, ne
		}
		return nil, &NetworkError{Class: ErrorClassNetwork, Page: page, Err: err}
	}

	var body artwork.ListResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
		return nil, &NetworkError{
			Class:   ErrorClassDecode,
			Page:    page,
			Message: "decode page",
			Err:     err,
		}
	}

	result := body.Page()
	c.logger.Debug().
		Int("page", page).
		Int("records", len(result.Records)).
		Int("total", result.Total).
		Int("total_pages", result.TotalPages).
		Msg("Fetched page")

	return result, nil
}

// Ping checks the revalidation store, if one is configured.
func (c *Client) Ping(ctx context.Context) error {
	if c.cache == nil {
		return nil
	}
	return c.cache.Ping(ctx)
}

// Close releases the client's idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// Cache returns the revalidation store, or nil when disabled.
func (c *Client) Cache() *cache.Store {
	return c.cache
}
