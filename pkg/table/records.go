package table

import (
	"sort"

	"github.com/Sternrassler/artic-table/pkg/artwork"
)

// RecordCache holds every record fetched during a session, keyed by id.
// Entries are never evicted, so selected records stay displayable after the
// page they came from is gone.
type RecordCache struct {
	byID map[int]artwork.Record
}

// NewRecordCache returns an empty cache.
func NewRecordCache() *RecordCache {
	return &RecordCache{byID: make(map[int]artwork.Record)}
}

// Put stores rec, replacing an older copy with the same id.
func (rc *RecordCache) Put(rec artwork.Record) {
	rc.byID[rec.ID] = rec
}

// PutAll stores every record of recs.
func (rc *RecordCache) PutAll(recs []artwork.Record) {
	for _, rec := range recs {
		rc.byID[rec.ID] = rec
	}
}

// Get returns the cached record for id.
func (rc *RecordCache) Get(id int) (artwork.Record, bool) {
	rec, ok := rc.byID[id]
	return rec, ok
}

// Len returns the number of cached records.
func (rc *RecordCache) Len() int {
	return len(rc.byID)
}

// Lookup returns the cached records among ids, sorted by id. Unknown ids are
// skipped.
func (rc *RecordCache) Lookup(ids []int) []artwork.Record {
	out := make([]artwork.Record, 0, len(ids))
	for _, id := range ids {
		if rec, ok := rc.byID[id]; ok {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
