// Package menu is the TUI start screen.
package menu

import (
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/styles"
)

// Item is one menu entry. Selecting it switches to View, or exits when
// Quit is set.
type Item struct {
	Label string
	Hint  string
	View  messages.ViewType
	Quit  bool

	// Disabled holds the reason the entry cannot be chosen, if any.
	Disabled string
}

// View lists the top-level screens. Entries can also be chosen by
// their 1-based number.
type View struct {
	styles   *styles.Styles
	keymap   *keymap.KeyMap
	items    []Item
	selected int
	width    int
	height   int
	ready    bool
}

// NewView builds the menu with the default key map.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles: s,
		keymap: keymap.DefaultKeyMap(),
		items: []Item{
			{Label: "Ask", Hint: "answer a question with citations", View: messages.ViewAsk},
			{Label: "Retrieve", Hint: "list the most relevant chunks", View: messages.ViewRetrieve},
			{Label: "Index Stats", Hint: "corpus size and pipeline check", View: messages.ViewStats},
			{Label: "Settings", Hint: "embedding and LLM providers", View: messages.ViewSettings},
			{Label: "Help", View: messages.ViewHelp},
			{Label: "Quit", Quit: true},
		},
		width:  80,
		height: 24,
	}
}

// Disable greys out the entry for view with the given reason.
func (v *View) Disable(view messages.ViewType, reason string) {
	for i := range v.items {
		if !v.items[i].Quit && v.items[i].View == view {
			v.items[i].Disabled = reason
		}
	}
}

func (v *View) Init() tea.Cmd {
	return nil
}

func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)

	case tea.KeyMsg:
		k := msg.String()
		switch {
		case keymap.Matches(k, v.keymap.Up):
			v.selected = max(v.selected-1, 0)
		case keymap.Matches(k, v.keymap.Down):
			v.selected = min(v.selected+1, len(v.items)-1)
		case keymap.Matches(k, v.keymap.Select):
			return v, v.choose(v.selected)
		case keymap.Matches(k, v.keymap.Quit):
			return v, tea.Quit
		default:
			if n, err := strconv.Atoi(k); err == nil && n >= 1 && n <= len(v.items) {
				v.selected = n - 1
				return v, v.choose(v.selected)
			}
		}
	}
	return v, nil
}

func (v *View) choose(i int) tea.Cmd {
	item := v.items[i]
	switch {
	case item.Quit:
		return tea.Quit
	case item.Disabled != "":
		return nil
	}
	return func() tea.Msg {
		return messages.ViewChanged{View: item.View}
	}
}

func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("docrag") + "\n\n")
	b.WriteString(v.styles.Muted.Render("Grounded answers from your documents") + "\n\n")

	for i, item := range v.items {
		label := strconv.Itoa(i+1) + ". " + item.Label
		hint := item.Hint
		style := v.styles.Normal
		if item.Disabled != "" {
			style = v.styles.Muted
			hint = item.Disabled
		}

		if i == v.selected {
			b.WriteString("> " + v.styles.Selected.Render(label))
		} else {
			b.WriteString("  " + style.Render(label))
		}
		if hint != "" {
			b.WriteString("  " + v.styles.Muted.Render(hint))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n" + v.styles.Help.Render("[j/k] Navigate  [1-6/Enter] Select  [q] Quit"))
	return b.String()
}

// SetDimensions records the window size and marks the view ready.
func (v *View) SetDimensions(width, height int) {
	v.width, v.height = width, height
	v.ready = true
}

func (v *View) Selected() int {
	return v.selected
}

func (v *View) Items() []Item {
	return v.items
}
