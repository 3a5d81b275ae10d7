// Package tui provides the terminal table for browsing and selecting
// artworks.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tbl "github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/artic-table/pkg/artwork"
	"github.com/Sternrassler/artic-table/pkg/logging"
	"github.com/Sternrassler/artic-table/pkg/table"
)

// panelItem is a focusable element of the options panel.
type panelItem int

const (
	itemCount panelItem = iota
	itemGo
	itemSelectPage
	itemClearPage
	itemClearAll
	itemDone
	panelItems
)

var panelLabels = map[panelItem]string{
	itemGo:         "Go",
	itemSelectPage: "Select Page",
	itemClearPage:  "Clear Page",
	itemClearAll:   "Clear All",
	itemDone:       "Done",
}

// Options configures the model.
type Options struct {
	// StartPage is the first page loaded (default 1).
	StartPage int
}

// Model is the table UI. All controller state changes happen in Update.
type Model struct {
	ctx    context.Context
	ctrl   *table.Controller
	logger zerolog.Logger

	startPage int
	rows      tbl.Model
	help      help.Model

	// Options panel
	panelOpen  bool
	panelFocus panelItem
	countInput textinput.Model

	// Page jump
	jumpActive bool
	jumpInput  textinput.Model

	loading     bool
	bulkRunning bool
	status      string
	err         error

	// pageRequestID identifies the newest page request; older results are
	// dropped.
	pageRequestID uint64

	width    int
	quitting bool
}

// New creates a model driving ctrl. ctx bounds every fetch the model starts.
func New(ctx context.Context, ctrl *table.Controller, opts Options) Model {
	count := textinput.New()
	count.Placeholder = "Number of rows..."
	count.CharLimit = 7
	count.Width = 18
	count.Validate = digitsOnly

	jump := textinput.New()
	jump.Placeholder = "page"
	jump.CharLimit = 6
	jump.Width = 8
	jump.Validate = digitsOnly

	start := opts.StartPage
	if start < 1 {
		start = 1
	}

	// Header takes two lines with its border; the rest is the viewport.
	rows := tbl.New(
		tbl.WithColumns(columns(false)),
		tbl.WithRows([]tbl.Row{}),
		tbl.WithStyles(tableStyles()),
		tbl.WithFocused(true),
		tbl.WithHeight(ctrl.Rows()+2),
	)

	return Model{
		ctx:        ctx,
		ctrl:       ctrl,
		logger:     logging.NewLogger("tui"),
		startPage:  start,
		rows:       rows,
		help:       help.New(),
		countInput: count,
		jumpInput:  jump,
		loading:    true,
	}
}

var errDigitsOnly = errors.New("digits only")

func digitsOnly(s string) error {
	for _, r := range s {
		if r < '0' || r > '9' {
			return errDigitsOnly
		}
	}
	return nil
}

// pageLoadedMsg carries the result of a page fetch.
type pageLoadedMsg struct {
	page      *artwork.Page
	target    int
	err       error
	requestID uint64
}

// bulkDoneMsg carries the result of a select-first-N walk.
type bulkDoneMsg struct {
	result *table.BulkResult
	err    error
}

// safeCmdWithPanic turns a panic inside fn into the message built by errMsg.
func safeCmdWithPanic(fn func() tea.Msg, errMsg func(any) tea.Msg) tea.Cmd {
	return func() (msg tea.Msg) {
		defer func() {
			if r := recover(); r != nil {
				msg = errMsg(r)
			}
		}()
		return fn()
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.loadPage(m.startPage)
}

// loadPage fetches page n. The controller is only read here.
func (m Model) loadPage(n int) tea.Cmd {
	ctx, ctrl, requestID := m.ctx, m.ctrl, m.pageRequestID
	return safeCmdWithPanic(
		func() tea.Msg {
			p, err := ctrl.FetchPage(ctx, n)
			return pageLoadedMsg{page: p, target: n, err: err, requestID: requestID}
		},
		func(r any) tea.Msg {
			return pageLoadedMsg{target: n, err: fmt.Errorf("page load panic: %v", r), requestID: requestID}
		},
	)
}

// collectFirstN runs the bulk walk. The controller is only read here.
func (m Model) collectFirstN(n int) tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return safeCmdWithPanic(
		func() tea.Msg {
			r, err := ctrl.CollectFirstN(ctx, n)
			return bulkDoneMsg{result: r, err: err}
		},
		func(r any) tea.Msg {
			return bulkDoneMsg{err: fmt.Errorf("bulk selection panic: %v", r)}
		},
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case pageLoadedMsg:
		return m.handlePageLoaded(msg), nil

	case bulkDoneMsg:
		return m.handleBulkDone(msg), nil

	case tea.KeyMsg:
		if key.Matches(msg, forceQuit) {
			m.quitting = true
			return m, tea.Quit
		}
		if m.jumpActive {
			return m.handleJumpKey(msg)
		}
		if m.panelOpen {
			return m.handlePanelKey(msg)
		}
		return m.handleTableKey(msg)
	}
	return m, nil
}

func (m Model) handlePageLoaded(msg pageLoadedMsg) Model {
	if msg.requestID != m.pageRequestID {
		return m
	}
	m.loading = m.bulkRunning
	if msg.err != nil {
		m.err = msg.err
		m.status = fmt.Sprintf("Failed to load page %d", msg.target)
		return m
	}
	m.err = nil
	if !m.bulkRunning {
		m.status = ""
	}
	m.ctrl.ShowPage(msg.page)
	m.syncRows()
	m.rows.GotoTop()
	return m
}

// syncRows rebuilds the table rows and the header checkbox from the
// controller. It runs after every page or selection change.
func (m *Model) syncRows() {
	records := m.ctrl.Records()
	rows := make([]tbl.Row, 0, len(records))
	for _, rec := range records {
		rows = append(rows, tbl.Row{
			checkbox(m.ctrl.IsSelected(rec.ID)),
			oneLine(rec.DisplayTitle()),
			oneLine(rec.DisplayOrigin()),
			oneLine(rec.DisplayArtist()),
			oneLine(rec.DisplayInscriptions(artwork.DefaultInscriptionWidth)),
			rec.DisplayDateRange(),
		})
	}
	m.rows.SetColumns(columns(m.ctrl.AllOnPageSelected()))
	m.rows.SetRows(rows)
}

// oneLine folds line breaks so a cell stays on its row.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func (m Model) handleBulkDone(msg bulkDoneMsg) Model {
	m.bulkRunning = false
	m.loading = false
	if msg.result == nil {
		m.err = msg.err
		return m
	}
	m.ctrl.ApplyBulk(msg.result)
	m.syncRows()
	if msg.err != nil {
		m.err = msg.err
		m.status = fmt.Sprintf("Selection stopped early: %d of %d selected", len(msg.result.IDs), msg.result.Requested)
		return m
	}
	m.err = nil
	m.status = fmt.Sprintf("Selected first %d rows", len(msg.result.IDs))
	return m
}

// requestPage starts loading page n and invalidates any older request.
func (m Model) requestPage(n int) (Model, tea.Cmd) {
	if n < 1 {
		return m, nil
	}
	if s := m.ctrl.Summary(); s.TotalPages > 0 && n > s.TotalPages {
		return m, nil
	}
	m.pageRequestID++
	m.loading = true
	return m, m.loadPage(n)
}

func (m Model) handleTableKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.ctrl.Summary()

	switch {
	case key.Matches(msg, tableKeys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, tableKeys.Up):
		m.rows.MoveUp(1)
	case key.Matches(msg, tableKeys.Down):
		m.rows.MoveDown(1)

	case key.Matches(msg, tableKeys.Toggle):
		records := m.ctrl.Records()
		if c := m.rows.Cursor(); c >= 0 && c < len(records) {
			m.ctrl.Toggle(records[c].ID)
			m.syncRows()
		}
	case key.Matches(msg, tableKeys.TogglePage):
		m.ctrl.SetAllOnPage(!m.ctrl.AllOnPageSelected())
		m.syncRows()

	case key.Matches(msg, tableKeys.Next):
		return m.requestPage(s.CurrentPage + 1)
	case key.Matches(msg, tableKeys.Prev):
		return m.requestPage(s.CurrentPage - 1)
	case key.Matches(msg, tableKeys.First):
		return m.requestPage(1)
	case key.Matches(msg, tableKeys.Last):
		return m.requestPage(s.TotalPages)
	case key.Matches(msg, tableKeys.Jump):
		m.jumpActive = true
		m.jumpInput.SetValue("")
		m.jumpInput.Focus()
		m.rows.Blur()

	case key.Matches(msg, tableKeys.Options):
		m.panelOpen = true
		m.panelFocus = itemCount
		m.countInput.Focus()
		m.rows.Blur()

	case key.Matches(msg, tableKeys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m Model) handleJumpKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, panelKeys.Close):
		m.jumpActive = false
		m.jumpInput.Blur()
		m.rows.Focus()
		return m, nil
	case key.Matches(msg, panelKeys.Activate):
		m.jumpActive = false
		m.jumpInput.Blur()
		m.rows.Focus()
		n, err := strconv.Atoi(strings.TrimSpace(m.jumpInput.Value()))
		if err != nil {
			return m, nil
		}
		return m.requestPage(n)
	}
	var cmd tea.Cmd
	m.jumpInput, cmd = m.jumpInput.Update(msg)
	return m, cmd
}

func (m Model) handlePanelKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, panelKeys.Close):
		m.closePanel()
		return m, nil
	case key.Matches(msg, panelKeys.Next):
		m.focusPanel((m.panelFocus + 1) % panelItems)
		return m, nil
	case key.Matches(msg, panelKeys.Prev):
		m.focusPanel((m.panelFocus + panelItems - 1) % panelItems)
		return m, nil
	case key.Matches(msg, panelKeys.Activate):
		return m.activate(m.panelFocus)
	}

	if m.panelFocus == itemCount {
		var cmd tea.Cmd
		m.countInput, cmd = m.countInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) focusPanel(item panelItem) {
	m.panelFocus = item
	if item == itemCount {
		m.countInput.Focus()
		return
	}
	m.countInput.Blur()
}

func (m *Model) closePanel() {
	m.panelOpen = false
	m.countInput.Blur()
	m.rows.Focus()
}

// activate runs the action of a panel element.
func (m Model) activate(item panelItem) (tea.Model, tea.Cmd) {
	switch item {
	case itemCount, itemGo:
		return m.startBulk()
	case itemSelectPage:
		m.ctrl.SelectPage()
		m.syncRows()
	case itemClearPage:
		m.ctrl.ClearPage()
		m.syncRows()
	case itemClearAll:
		m.ctrl.ClearAll()
		m.syncRows()
		m.status = "Selection cleared"
	case itemDone:
		ids := m.ctrl.Done()
		m.closePanel()
		m.status = fmt.Sprintf("%d rows selected", len(ids))
	}
	return m, nil
}

func (m Model) startBulk() (tea.Model, tea.Cmd) {
	if m.bulkRunning {
		return m, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(m.countInput.Value()))
	m.countInput.SetValue("")
	if err != nil || n <= 0 {
		m.status = "Enter a positive number of rows"
		return m, nil
	}

	m.logger.Debug().Int("n", n).Msg("Starting bulk selection")
	m.bulkRunning = true
	m.loading = true
	m.status = fmt.Sprintf("Selecting first %d rows...", n)
	return m, m.collectFirstN(n)
}
