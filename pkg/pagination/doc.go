// Package pagination walks page-numbered catalog endpoints one page at a time.
//
// The artworks endpoint reports total_pages on every response, so page k+1 is
// only known to exist after page k has been read. The Walker therefore keeps
// exactly one request in flight and never fetches speculatively.
//
// Example usage:
//
//	walker := pagination.NewWalker(pagination.DefaultConfig())
//	result, err := walker.Walk(ctx, 1, func(ctx context.Context, page int) (pagination.Cursor, bool, error) {
//		p, err := catalog.FetchPage(ctx, page)
//		if err != nil {
//			return pagination.Cursor{}, false, err
//		}
//		done := consume(p.Records)
//		return pagination.Cursor{CurrentPage: p.CurrentPage, TotalPages: p.TotalPages}, done, nil
//	})
//
// The walker:
//   - Starts at the given page and visits pages in ascending order
//   - Stops when the visitor reports done, when the next page would exceed
//     total_pages, when a visit fails, or when the context is cancelled
//   - Keeps whatever the visitor accumulated before a failure (no rollback)
//   - Does not retry failed pages
package pagination
