package cache

import (
	"net/http"
	"time"
)

// DefaultTTL applies when a response carries no usable Expires header.
const DefaultTTL = 5 * time.Minute

// NewEntry builds the entry for a 200 listing response with the given
// headers and body.
func NewEntry(header http.Header, body []byte, now time.Time) *Entry {
	entry := &Entry{
		Body:     body,
		ETag:     header.Get("ETag"),
		StoredAt: now,
		Expires:  parseExpires(header, now),
	}

	if lm := header.Get("Last-Modified"); lm != "" {
		if t, err := http.ParseTime(lm); err == nil {
			entry.LastModified = t
		}
	}

	return entry
}

// parseExpires returns the Expires time, now+DefaultTTL when missing or
// unparseable, and now when it lies in the past.
func parseExpires(headers http.Header, now time.Time) time.Time {
	raw := headers.Get("Expires")
	if raw == "" {
		return now.Add(DefaultTTL)
	}

	expires, err := http.ParseTime(raw)
	if err != nil {
		return now.Add(DefaultTTL)
	}
	if expires.Before(now) {
		return now
	}
	return expires
}

// HasValidators reports whether the entry can be revalidated.
func (e *Entry) HasValidators() bool {
	return e != nil && (e.ETag != "" || !e.LastModified.IsZero())
}

// SetConditionalHeaders sets If-None-Match, or If-Modified-Since when the
// entry has no ETag.
func (e *Entry) SetConditionalHeaders(req *http.Request) {
	if e == nil || req == nil {
		return
	}

	if e.ETag != "" {
		req.Header.Set("If-None-Match", e.ETag)
	} else if !e.LastModified.IsZero() {
		req.Header.Set("If-Modified-Since", e.LastModified.UTC().Format(http.TimeFormat))
	}
}
