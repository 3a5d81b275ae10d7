// Package selection tracks which catalog records are selected across pages.
//
// The Set is global to a table session: membership does not depend on which
// page is currently loaded. Page-scoped operations only ever touch the
// identifiers of the page they are given, so selections made on other pages
// survive any amount of paging.
//
// A Set is not safe for concurrent use. The table controller mutates it from
// one logical thread.
package selection

import (
	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/Sternrassler/artic-table/pkg/artwork"
)

// Set is the set of selected record identifiers. Only valid identifiers
// (see Valid) are ever stored; the others are ignored.
type Set struct {
	ids *roaring64.Bitmap
}

// New returns an empty Set.
func New() *Set {
	return &Set{ids: roaring64.New()}
}

// Of returns a Set holding the given identifiers.
func Of(ids ...int) *Set {
	s := New()
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Valid reports whether id can identify a catalog record. Catalog ids are
// positive.
func Valid(id int) bool {
	return id > 0
}

func key(id int) (uint64, bool) {
	if !Valid(id) {
		return 0, false
	}
	return uint64(id), true
}

// Add selects id. It reports whether id was newly added.
func (s *Set) Add(id int) bool {
	k, ok := key(id)
	if !ok {
		return false
	}
	return s.ids.CheckedAdd(k)
}

// Remove deselects id. It reports whether id was present.
func (s *Set) Remove(id int) bool {
	k, ok := key(id)
	if !ok {
		return false
	}
	return s.ids.CheckedRemove(k)
}

// Has reports whether id is selected.
func (s *Set) Has(id int) bool {
	k, ok := key(id)
	return ok && s.ids.Contains(k)
}

// Toggle adds id if absent and removes it if present. It returns the new
// membership of id.
func (s *Set) Toggle(id int) bool {
	if s.Remove(id) {
		return false
	}
	return s.Add(id)
}

// Len returns the number of selected identifiers.
func (s *Set) Len() int {
	return int(s.ids.GetCardinality())
}

// IDs returns the selected identifiers in ascending order.
func (s *Set) IDs() []int {
	raw := s.ids.ToArray()
	ids := make([]int, len(raw))
	for i, v := range raw {
		ids[i] = int(v)
	}
	return ids
}

// Clone returns an independent copy.
func (s *Set) Clone() *Set {
	return &Set{ids: s.ids.Clone()}
}

// Equal reports whether both sets hold the same identifiers.
func (s *Set) Equal(other *Set) bool {
	return s.ids.Equals(other.ids)
}

// SetPageSelection replaces the selection of one page: every identifier of
// pageRecords is removed, then every identifier of selected is added.
// Identifiers of other pages are left untouched.
func (s *Set) SetPageSelection(pageRecords, selected []artwork.Record) {
	for _, rec := range pageRecords {
		s.Remove(rec.ID)
	}
	for _, rec := range selected {
		s.Add(rec.ID)
	}
}

// SelectAllOnPage adds every identifier of pageRecords.
func (s *Set) SelectAllOnPage(pageRecords []artwork.Record) {
	for _, rec := range pageRecords {
		s.Add(rec.ID)
	}
}

// DeselectAllOnPage removes every identifier of pageRecords.
func (s *Set) DeselectAllOnPage(pageRecords []artwork.Record) {
	for _, rec := range pageRecords {
		s.Remove(rec.ID)
	}
}

// AllOnPageSelected reports whether pageRecords is non-empty and every one of
// its identifiers is selected.
func (s *Set) AllOnPageSelected(pageRecords []artwork.Record) bool {
	if len(pageRecords) == 0 {
		return false
	}
	for _, rec := range pageRecords {
		if !s.Has(rec.ID) {
			return false
		}
	}
	return true
}

// ClearAll empties the set.
func (s *Set) ClearAll() {
	s.ids.Clear()
}

// Replace discards the current selection and selects exactly ids.
func (s *Set) Replace(ids []int) {
	s.ids.Clear()
	for _, id := range ids {
		s.Add(id)
	}
}

// Visible returns the records of pageRecords whose identifiers are selected,
// in page order. It is always recomputed and never stored.
func (s *Set) Visible(pageRecords []artwork.Record) []artwork.Record {
	visible := make([]artwork.Record, 0, len(pageRecords))
	for _, rec := range pageRecords {
		if s.Has(rec.ID) {
			visible = append(visible, rec)
		}
	}
	return visible
}
