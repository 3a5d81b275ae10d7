// Package artwork defines the catalog records and page envelopes returned by
// the Art Institute of Chicago artworks endpoint.
package artwork

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
)

// DefaultInscriptionWidth is the number of runes shown before an inscription
// is truncated for table display.
const DefaultInscriptionWidth = 30

// Record is one artwork in the catalog.
type Record struct {
	ID            int    `json:"id"`
	Title         string `json:"title"`
	PlaceOfOrigin string `json:"place_of_origin"`
	ArtistDisplay string `json:"artist_display"`
	Inscriptions  string `json:"inscriptions"`

	// DateStart and DateEnd bound the creation date range (inclusive).
	// Either may be nil when the catalog does not know it.
	DateStart *int `json:"date_start"`
	DateEnd   *int `json:"date_end"`
}

// UnmarshalJSON tolerates null string fields, which the catalog returns for
// unknown titles, origins and inscriptions.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID            int     `json:"id"`
		Title         *string `json:"title"`
		PlaceOfOrigin *string `json:"place_of_origin"`
		ArtistDisplay *string `json:"artist_display"`
		Inscriptions  *string `json:"inscriptions"`
		DateStart     *int    `json:"date_start"`
		DateEnd       *int    `json:"date_end"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = Record{
		ID:            raw.ID,
		Title:         deref(raw.Title),
		PlaceOfOrigin: deref(raw.PlaceOfOrigin),
		ArtistDisplay: deref(raw.ArtistDisplay),
		Inscriptions:  deref(raw.Inscriptions),
		DateStart:     raw.DateStart,
		DateEnd:       raw.DateEnd,
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// DisplayTitle returns the title or "Untitled".
func (r Record) DisplayTitle() string {
	if r.Title == "" {
		return "Untitled"
	}
	return r.Title
}

// DisplayOrigin returns the place of origin or "-".
func (r Record) DisplayOrigin() string {
	if r.PlaceOfOrigin == "" {
		return "-"
	}
	return r.PlaceOfOrigin
}

// DisplayArtist returns the artist line or "Unknown".
func (r Record) DisplayArtist() string {
	if r.ArtistDisplay == "" {
		return "Unknown"
	}
	return r.ArtistDisplay
}

// DisplayInscriptions truncates the inscription to max runes followed by
// "...". A non-positive max uses DefaultInscriptionWidth.
func (r Record) DisplayInscriptions(max int) string {
	if r.Inscriptions == "" {
		return "-"
	}
	if max <= 0 {
		max = DefaultInscriptionWidth
	}
	runes := []rune(r.Inscriptions)
	if len(runes) <= max {
		return r.Inscriptions
	}
	return string(runes[:max]) + "..."
}

// DisplayDateRange renders the creation range. A zero bound counts as
// unknown, matching how the catalog table has always shown it.
func (r Record) DisplayDateRange() string {
	if r.DateStart == nil || r.DateEnd == nil || *r.DateStart == 0 || *r.DateEnd == 0 {
		return "Unknown"
	}
	if *r.DateStart == *r.DateEnd {
		return strconv.Itoa(*r.DateStart)
	}
	return fmt.Sprintf("%d - %d", *r.DateStart, *r.DateEnd)
}

// Pagination is the paging metadata reported by the catalog.
type Pagination struct {
	Total       int     `json:"total"`
	Limit       int     `json:"limit"`
	Offset      int     `json:"offset"`
	TotalPages  int     `json:"total_pages"`
	CurrentPage int     `json:"current_page"`
	NextURL     *string `json:"next_url"`
}

// Page is one fetch result: ordered records plus pagination counters.
type Page struct {
	Pagination
	Records []Record
}

// IDs returns the record identifiers in page order.
func (p *Page) IDs() []int {
	if p == nil {
		return nil
	}
	ids := make([]int, len(p.Records))
	for i, rec := range p.Records {
		ids[i] = rec.ID
	}
	return ids
}

// Exhausted reports whether no page follows this one.
func (p *Page) Exhausted() bool {
	return p == nil || p.CurrentPage >= p.TotalPages
}

// ListResponse is the wire envelope of GET /artworks.
type ListResponse struct {
	Pagination Pagination `json:"pagination"`
	Data       []Record   `json:"data"`
}

// Page converts the envelope into a Page.
func (l *ListResponse) Page() *Page {
	records := l.Data
	if records == nil {
		records = []Record{}
	}
	return &Page{Pagination: l.Pagination, Records: records}
}

// Showing renders the footer range "first-last of total" for the given
// one-based page and displayed row count.
func Showing(currentPage, rows, total int) string {
	if total <= 0 || rows <= 0 || currentPage < 1 {
		return fmt.Sprintf("0-0 of %s", humanize.Comma(int64(total)))
	}
	first := (currentPage-1)*rows + 1
	last := currentPage * rows
	if last > total {
		last = total
	}
	if first > total {
		first = total
	}
	return fmt.Sprintf("%d-%d of %s", first, last, humanize.Comma(int64(total)))
}
