package tui

import (
	"fmt"
	"strconv"
	"strings"

	tbl "github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// Column widths in cells.
const (
	colCheck  = 3
	colTitle  = 32
	colOrigin = 16
	colArtist = 28
	colInscr  = 34
	colDates  = 11
)

// pageLinks is the number of numbered page links shown in the paginator.
const pageLinks = 5

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	loadingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	currentStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	panelStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("12")).
			Padding(0, 1)
	buttonStyle  = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("15"))
	focusedStyle = buttonStyle.Background(lipgloss.Color("12")).Foreground(lipgloss.Color("0"))
)

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	sections := []string{
		m.renderHeader(),
		m.renderTable(),
		m.renderFooter(),
	}
	if m.panelOpen {
		sections = append(sections, m.renderPanel())
	}
	if m.jumpActive {
		sections = append(sections, "Go to page: "+m.jumpInput.View())
	}
	sections = append(sections, m.renderStatus(), m.renderHelp())

	out := lipgloss.JoinVertical(lipgloss.Left, sections...)
	if m.width > 0 {
		out = lipgloss.NewStyle().MaxWidth(m.width).Render(out)
	}
	return out
}

func (m Model) renderHeader() string {
	s := m.ctrl.Summary()
	title := titleStyle.Render("Artworks")
	info := fmt.Sprintf("Selected: %d  Total: %s  Page %d of %d",
		s.Selected, humanize.Comma(int64(s.Total)), s.CurrentPage, s.TotalPages)
	return title + "  " + dimStyle.Render(info)
}

func (m Model) renderTable() string {
	if len(m.ctrl.Records()) > 0 {
		return m.rows.View()
	}
	if m.loading {
		return loadingStyle.Render("Loading artworks...")
	}
	return dimStyle.Render("No artworks found.")
}

// columns returns the table columns; the first header mirrors the "select
// all on page" checkbox.
func columns(allOnPage bool) []tbl.Column {
	return []tbl.Column{
		{Title: checkbox(allOnPage), Width: colCheck},
		{Title: "Title", Width: colTitle},
		{Title: "Place of Origin", Width: colOrigin},
		{Title: "Artist", Width: colArtist},
		{Title: "Inscriptions", Width: colInscr},
		{Title: "Dates", Width: colDates},
	}
}

func tableStyles() tbl.Styles {
	s := tbl.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("8")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("0")).
		Background(lipgloss.Color("12")).
		Bold(false)
	return s
}

func (m Model) renderFooter() string {
	s := m.ctrl.Summary()
	showing := dimStyle.Render("Showing " + s.Showing)
	if s.TotalPages == 0 {
		return showing
	}
	return showing + "   " + paginator(s.CurrentPage, s.TotalPages)
}

// paginator renders first/prev, up to pageLinks numbered links around the
// current page, and next/last.
func paginator(current, total int) string {
	start := current - pageLinks/2
	if start < 1 {
		start = 1
	}
	end := start + pageLinks - 1
	if end > total {
		end = total
		start = end - pageLinks + 1
		if start < 1 {
			start = 1
		}
	}

	parts := []string{navLink("«", current > 1), navLink("‹", current > 1)}
	for p := start; p <= end; p++ {
		label := strconv.Itoa(p)
		if p == current {
			label = currentStyle.Render(label)
		}
		parts = append(parts, label)
	}
	parts = append(parts, navLink("›", current < total), navLink("»", current < total))
	return strings.Join(parts, " ")
}

func navLink(label string, enabled bool) string {
	if enabled {
		return label
	}
	return dimStyle.Render(label)
}

func (m Model) renderPanel() string {
	input := m.countInput.View()
	if m.panelFocus == itemCount {
		input = "> " + input
	} else {
		input = "  " + input
	}

	buttons := make([]string, 0, len(panelLabels))
	for item := itemGo; item < panelItems; item++ {
		style := buttonStyle
		if item == m.panelFocus {
			style = focusedStyle
		}
		buttons = append(buttons, style.Render(panelLabels[item]))
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		headerStyle.Render("Select rows"),
		input,
		lipgloss.JoinHorizontal(lipgloss.Top, buttons...),
	)
	return panelStyle.Render(body)
}

func (m Model) renderStatus() string {
	switch {
	case m.err != nil:
		return errorStyle.Render(m.statusText() + ": " + m.err.Error())
	case m.loading:
		return loadingStyle.Render(m.statusText())
	default:
		return dimStyle.Render(m.statusText())
	}
}

func (m Model) statusText() string {
	if m.status != "" {
		return m.status
	}
	if m.loading {
		return "Loading..."
	}
	return "Ready"
}

func (m Model) renderHelp() string {
	if m.panelOpen || m.jumpActive {
		return m.help.View(panelKeys)
	}
	return m.help.View(tableKeys)
}

func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}
