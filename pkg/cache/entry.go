package cache

import (
	"fmt"
	"time"
)

// Entry is a stored page body together with the validators the catalog sent
// with it.
type Entry struct {
	// Body is the raw listing response
	Body []byte

	// ETag sent back as If-None-Match
	ETag string

	// LastModified sent back as If-Modified-Since when there is no ETag
	LastModified time.Time

	// Expires is when the entry is dropped from the store
	Expires time.Time

	// StoredAt is when the page was written to the store
	StoredAt time.Time
}

// Hash field names of a stored page.
const (
	fieldBody         = "body"
	fieldETag         = "etag"
	fieldLastModified = "last_modified"
	fieldExpires      = "expires"
	fieldStoredAt     = "stored_at"
)

// IsExpired returns true if the entry has passed its expiry.
func (e *Entry) IsExpired() bool {
	return !time.Now().Before(e.Expires)
}

// TTL returns the time left before expiry, or 0.
func (e *Entry) TTL() time.Duration {
	if ttl := time.Until(e.Expires); ttl > 0 {
		return ttl
	}
	return 0
}

// Age returns how long ago the entry was stored.
func (e *Entry) Age() time.Duration {
	if e.StoredAt.IsZero() {
		return 0
	}
	return time.Since(e.StoredAt)
}

// hash flattens e into Redis hash fields.
func (e *Entry) hash() map[string]any {
	return map[string]any{
		fieldBody:         e.Body,
		fieldETag:         e.ETag,
		fieldLastModified: formatTime(e.LastModified),
		fieldExpires:      formatTime(e.Expires),
		fieldStoredAt:     formatTime(e.StoredAt),
	}
}

// entryFromHash is the inverse of hash.
func entryFromHash(h map[string]string) (*Entry, error) {
	body, ok := h[fieldBody]
	if !ok {
		return nil, fmt.Errorf("%w: no body", ErrInvalidEntry)
	}
	e := &Entry{Body: []byte(body), ETag: h[fieldETag]}

	for name, dst := range map[string]*time.Time{
		fieldLastModified: &e.LastModified,
		fieldExpires:      &e.Expires,
		fieldStoredAt:     &e.StoredAt,
	} {
		t, err := parseTime(h[name])
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidEntry, name, err)
		}
		*dst = t
	}
	return e, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
