// Package table implements the selection-aware paged table controller: it
// loads one catalog page at a time, keeps a selection that spans pages, and
// can select the first N records of the catalog.
//
// A Controller is driven from a single logical thread. Fetches are split from
// state changes (FetchPage/ShowPage, CollectFirstN/ApplyBulk) so an event loop
// can run the network part elsewhere and apply the result on its own thread.
// LoadPage and SelectFirstN combine both halves for synchronous callers.
package table

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/artic-table/pkg/artwork"
	"github.com/Sternrassler/artic-table/pkg/pagination"
	"github.com/Sternrassler/artic-table/pkg/selection"
)

// DefaultRows is the number of rows the table displays per page.
const DefaultRows = 12

// PageSource fetches one catalog page. *client.Client implements it.
type PageSource interface {
	FetchPage(ctx context.Context, page int) (*artwork.Page, error)
}

// Config holds controller configuration.
type Config struct {
	// Rows is the displayed page size used for the paginator and footer.
	Rows int

	// Walker configures the bulk selector's page walk.
	Walker pagination.Config
}

// DefaultConfig returns the default controller configuration.
func DefaultConfig() Config {
	return Config{
		Rows:   DefaultRows,
		Walker: pagination.DefaultConfig(),
	}
}

// Controller owns the state of one table session.
type Controller struct {
	source   PageSource
	config   Config
	selected *selection.Set
	records  *RecordCache
	page     *artwork.Page
	walker   *pagination.Walker
	logger   zerolog.Logger
}

// New creates a controller with an empty selection and record cache.
func New(source PageSource, cfg Config) (*Controller, error) {
	if source == nil {
		return nil, errors.New("page source is required")
	}
	if cfg.Rows <= 0 {
		cfg.Rows = DefaultRows
	}

	logger := log.With().Str("component", "table").Logger()

	return &Controller{
		source:   source,
		config:   cfg,
		selected: selection.New(),
		records:  NewRecordCache(),
		walker:   pagination.NewWalker(cfg.Walker).WithLogger(logger),
		logger:   logger,
	}, nil
}

// FetchPage fetches page n without touching controller state. Failures are
// logged and returned; nothing is retried.
func (c *Controller) FetchPage(ctx context.Context, n int) (*artwork.Page, error) {
	p, err := c.source.FetchPage(ctx, n)
	if err != nil {
		pageLoadsTotal.WithLabelValues("failed").Inc()
		c.logger.Error().Err(err).Int("page", n).Msg("Failed to fetch artworks")
		return nil, fmt.Errorf("load page %d: %w", n, err)
	}
	pageLoadsTotal.WithLabelValues("ok").Inc()
	return p, nil
}

// ShowPage makes p the displayed page and remembers its records.
func (c *Controller) ShowPage(p *artwork.Page) {
	if p == nil {
		return
	}
	c.page = p
	c.records.PutAll(p.Records)
	recordCacheSize.Set(float64(c.records.Len()))

	c.logger.Debug().
		Int("page", p.CurrentPage).
		Int("records", len(p.Records)).
		Int("visible_selected", len(c.Visible())).
		Msg("Page displayed")
}

// LoadPage fetches page n and displays it. On failure the previous page stays
// displayed.
func (c *Controller) LoadPage(ctx context.Context, n int) (*artwork.Page, error) {
	p, err := c.FetchPage(ctx, n)
	if err != nil {
		return nil, err
	}
	c.ShowPage(p)
	return p, nil
}

// Page returns the displayed page, or nil before the first load.
func (c *Controller) Page() *artwork.Page {
	return c.page
}

// Records returns the records of the displayed page.
func (c *Controller) Records() []artwork.Record {
	if c.page == nil {
		return nil
	}
	return c.page.Records
}

// Rows returns the displayed page size.
func (c *Controller) Rows() int {
	return c.config.Rows
}

// Toggle flips the selection of id and returns its new state.
func (c *Controller) Toggle(id int) bool {
	on := c.selected.Toggle(id)
	c.selectionChanged()
	return on
}

// SetPageSelection replaces the selection of the displayed page with subset.
// Selections on other pages are kept.
func (c *Controller) SetPageSelection(subset []artwork.Record) {
	c.selected.SetPageSelection(c.Records(), subset)
	c.selectionChanged()
}

// SelectPage selects every record of the displayed page.
func (c *Controller) SelectPage() {
	c.selected.SelectAllOnPage(c.Records())
	c.selectionChanged()
}

// ClearPage deselects every record of the displayed page.
func (c *Controller) ClearPage() {
	c.selected.DeselectAllOnPage(c.Records())
	c.selectionChanged()
}

// SetAllOnPage selects or deselects the whole displayed page, as the header
// checkbox does.
func (c *Controller) SetAllOnPage(checked bool) {
	if checked {
		c.SelectPage()
		return
	}
	c.ClearPage()
}

// AllOnPageSelected reports whether every displayed record is selected.
func (c *Controller) AllOnPageSelected() bool {
	return c.selected.AllOnPageSelected(c.Records())
}

// ClearAll empties the selection.
func (c *Controller) ClearAll() {
	c.selected.ClearAll()
	c.selectionChanged()
}

// IsSelected reports whether id is selected.
func (c *Controller) IsSelected(id int) bool {
	return c.selected.Has(id)
}

// Visible returns the displayed records that are selected, in page order.
func (c *Controller) Visible() []artwork.Record {
	return c.selected.Visible(c.Records())
}

// SelectedIDs returns every selected id in ascending order.
func (c *Controller) SelectedIDs() []int {
	return c.selected.IDs()
}

// SelectedCount returns the size of the selection.
func (c *Controller) SelectedCount() int {
	return c.selected.Len()
}

// Selection returns a copy of the selection.
func (c *Controller) Selection() *selection.Set {
	return c.selected.Clone()
}

// CachedRecord returns a record seen earlier in the session.
func (c *Controller) CachedRecord(id int) (artwork.Record, bool) {
	return c.records.Get(id)
}

// SelectedRecords returns the cached records of the selection, sorted by id.
// Selected ids whose record was never fetched are skipped.
func (c *Controller) SelectedRecords() []artwork.Record {
	return c.records.Lookup(c.selected.IDs())
}

// Done logs the selection and returns it, as the options panel does when it
// is closed.
func (c *Controller) Done() []int {
	ids := c.selected.IDs()
	c.logger.Info().
		Ints("selected_ids", ids).
		Int("count", len(ids)).
		Msg("Selected IDs")
	return ids
}

// Summary describes the table header and footer.
type Summary struct {
	Selected    int
	Total       int
	CurrentPage int
	TotalPages  int
	Rows        int
	// First is the zero-based offset of the first displayed row.
	First   int
	Showing string
}

// Summary returns the header/footer values for the displayed page.
func (c *Controller) Summary() Summary {
	s := Summary{
		Selected: c.selected.Len(),
		Rows:     c.config.Rows,
	}
	if c.page != nil {
		s.Total = c.page.Total
		s.CurrentPage = c.page.CurrentPage
		s.TotalPages = c.page.TotalPages
		if s.CurrentPage > 0 {
			s.First = (s.CurrentPage - 1) * s.Rows
		}
	}
	s.Showing = artwork.Showing(s.CurrentPage, s.Rows, s.Total)
	return s
}

func (c *Controller) selectionChanged() {
	selectionSize.Set(float64(c.selected.Len()))
}
