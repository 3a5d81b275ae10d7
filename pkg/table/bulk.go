package table

import (
	"context"

	"github.com/Sternrassler/artic-table/pkg/artwork"
	"github.com/Sternrassler/artic-table/pkg/pagination"
	"github.com/Sternrassler/artic-table/pkg/selection"
)

// BulkResult is what a select-first-N walk accumulated.
type BulkResult struct {
	Requested int
	// IDs are the accumulated identifiers in catalog order.
	IDs     []int
	Records []artwork.Record
	Pages   int
	Reason  pagination.StopReason
	// Err is the failure that ended the walk early, if any.
	Err error
}

// CollectFirstN walks the catalog from page 1, one page at a time, and
// accumulates the first n distinct records with valid ids. It does not change controller
// state. The walk ends when n records are collected, the catalog runs out of
// pages, a fetch fails, or ctx is cancelled; in the last two cases the result
// still holds everything accumulated before the failure and the error is
// returned as well.
//
// n <= 0 returns a nil result.
func (c *Controller) CollectFirstN(ctx context.Context, n int) (*BulkResult, error) {
	if n <= 0 {
		return nil, nil
	}

	result := &BulkResult{Requested: n}
	seen := make(map[int]struct{}, n)

	visit := func(ctx context.Context, page int) (pagination.Cursor, bool, error) {
		p, err := c.source.FetchPage(ctx, page)
		if err != nil {
			return pagination.Cursor{}, false, err
		}
		for _, rec := range p.Records {
			if len(result.IDs) >= n {
				break
			}
			if !selection.Valid(rec.ID) {
				c.logger.Warn().Int("id", rec.ID).Int("page", page).Msg("Skipping record with invalid id")
				continue
			}
			if _, dup := seen[rec.ID]; dup {
				continue
			}
			seen[rec.ID] = struct{}{}
			result.IDs = append(result.IDs, rec.ID)
			result.Records = append(result.Records, rec)
		}
		cursor := pagination.Cursor{CurrentPage: p.CurrentPage, TotalPages: p.TotalPages}
		return cursor, len(result.IDs) >= n, nil
	}

	walk, err := c.walker.Walk(ctx, 1, visit)
	result.Pages = walk.PagesFetched
	result.Reason = walk.Reason
	result.Err = err

	bulkSelectionsTotal.WithLabelValues(string(walk.Reason)).Inc()
	bulkPagesFetched.Observe(float64(walk.PagesFetched))

	if err != nil {
		c.logger.Error().
			Err(err).
			Int("requested", n).
			Int("accumulated", len(result.IDs)).
			Msg("Error fetching artworks for selection")
		return result, err
	}

	c.logger.Info().
		Int("requested", n).
		Int("selected", len(result.IDs)).
		Int("pages", walk.PagesFetched).
		Str("reason", string(walk.Reason)).
		Dur("duration", walk.Duration).
		Msg("Bulk selection collected")

	return result, nil
}

// ApplyBulk replaces the whole selection with the ids of r and caches its
// records. The previous selection is discarded, not merged. A nil r is a
// no-op.
func (c *Controller) ApplyBulk(r *BulkResult) {
	if r == nil {
		return
	}
	c.selected.Replace(r.IDs)
	c.records.PutAll(r.Records)
	recordCacheSize.Set(float64(c.records.Len()))
	c.selectionChanged()
}

// SelectFirstN selects exactly the first n records of the catalog, replacing
// the current selection, and returns the selected ids in catalog order.
// n <= 0 is a no-op. If the walk fails midway the ids accumulated so far are
// still applied and returned alongside the error.
func (c *Controller) SelectFirstN(ctx context.Context, n int) ([]int, error) {
	r, err := c.CollectFirstN(ctx, n)
	if r == nil {
		return nil, err
	}
	c.ApplyBulk(r)
	return r.IDs, err
}
