// Package keymap holds the TUI key bindings and the hints shown for them.
package keymap

import (
	"slices"

	"github.com/charmbracelet/bubbles/key"
)

// Mode selects which bindings are hinted in the status bar.
type Mode int

const (
	// ModeInput is a view waiting for a typed query.
	ModeInput Mode = iota
	// ModeResults is a view showing retrieved chunks or an answer.
	ModeResults
	// ModeStats is the index statistics view.
	ModeStats
)

// KeyMap is the set of bindings shared by all views.
// Submit, Select and Expand share "enter"; which applies depends on the view.
type KeyMap struct {
	Quit     key.Binding
	Help     key.Binding
	Back     key.Binding
	Submit   key.Binding
	Up       key.Binding
	Down     key.Binding
	Select   key.Binding
	NewQuery key.Binding
	Expand   key.Binding

	// More and Fewer adjust how many chunks the retrieve view asks for.
	More  key.Binding
	Fewer key.Binding

	// Check runs the end-to-end pipeline check from the stats view.
	Check key.Binding
}

func bind(hint, desc string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(hint, desc))
}

// DefaultKeyMap returns the stock bindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit:     bind("q", "quit", "q", "ctrl+c"),
		Help:     bind("?", "help", "?"),
		Back:     bind("esc", "back", "esc"),
		Submit:   bind("enter", "submit", "enter"),
		Up:       bind("↑/k", "up", "up", "k"),
		Down:     bind("↓/j", "down", "down", "j"),
		Select:   bind("enter", "select", "enter"),
		NewQuery: bind("n", "new query", "n"),
		Expand:   bind("enter", "expand", "enter"),
		More:     bind("+", "more chunks", "+", "="),
		Fewer:    bind("-", "fewer chunks", "-"),
		Check:    bind("t", "test pipeline", "t"),
	}
}

// HelpFor returns the hints for a mode, most useful first.
func (k *KeyMap) HelpFor(mode Mode) []key.Binding {
	switch mode {
	case ModeResults:
		return []key.Binding{k.NewQuery, k.Up, k.Expand, k.Back}
	case ModeStats:
		return []key.Binding{k.Check, k.Back}
	default:
		return []key.Binding{k.Submit, k.Back}
	}
}

// ShortHelp is HelpFor(ModeInput).
func (k *KeyMap) ShortHelp() []key.Binding {
	return k.HelpFor(ModeInput)
}

// FullHelp groups every binding as navigation, query and app actions.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select},
		{k.Submit, k.NewQuery, k.Expand, k.More, k.Fewer, k.Back},
		{k.Check, k.Help, k.Quit},
	}
}

// Matches reports whether keyStr triggers an enabled binding.
func Matches(keyStr string, binding key.Binding) bool {
	return binding.Enabled() && slices.Contains(binding.Keys(), keyStr)
}
