package tui

import "github.com/charmbracelet/bubbles/key"

// tableKeyMap holds the bindings active while the table has focus.
type tableKeyMap struct {
	Up         key.Binding
	Down       key.Binding
	Toggle     key.Binding
	TogglePage key.Binding
	Next       key.Binding
	Prev       key.Binding
	First      key.Binding
	Last       key.Binding
	Jump       key.Binding
	Options    key.Binding
	Help       key.Binding
	Quit       key.Binding
}

func (k tableKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Toggle, k.TogglePage, k.Prev, k.Next, k.Options, k.Help, k.Quit}
}

func (k tableKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Toggle, k.TogglePage},
		{k.Prev, k.Next, k.First, k.Last, k.Jump},
		{k.Options, k.Help, k.Quit},
	}
}

var tableKeys = tableKeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Toggle: key.NewBinding(
		key.WithKeys(" ", "x"),
		key.WithHelp("space", "toggle"),
	),
	TogglePage: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "toggle page"),
	),
	Next: key.NewBinding(
		key.WithKeys("right", "l", "n"),
		key.WithHelp("→", "next page"),
	),
	Prev: key.NewBinding(
		key.WithKeys("left", "h", "p"),
		key.WithHelp("←", "prev page"),
	),
	First: key.NewBinding(
		key.WithKeys("home"),
		key.WithHelp("home", "first page"),
	),
	Last: key.NewBinding(
		key.WithKeys("end"),
		key.WithHelp("end", "last page"),
	),
	Jump: key.NewBinding(
		key.WithKeys("g"),
		key.WithHelp("g", "go to page"),
	),
	Options: key.NewBinding(
		key.WithKeys("o"),
		key.WithHelp("o", "options"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "more keys"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// panelKeyMap holds the bindings of the options panel and the page jump
// prompt.
type panelKeyMap struct {
	Next     key.Binding
	Prev     key.Binding
	Activate key.Binding
	Close    key.Binding
}

func (k panelKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Prev, k.Activate, k.Close}
}

func (k panelKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var panelKeys = panelKeyMap{
	Next: key.NewBinding(
		key.WithKeys("tab", "down"),
		key.WithHelp("tab", "next"),
	),
	Prev: key.NewBinding(
		key.WithKeys("shift+tab", "up"),
		key.WithHelp("shift+tab", "prev"),
	),
	Activate: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "activate"),
	),
	Close: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "close"),
	),
}

var forceQuit = key.NewBinding(key.WithKeys("ctrl+c"))
