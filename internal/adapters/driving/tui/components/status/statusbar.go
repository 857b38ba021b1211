// Package status renders the one-line status bar at the foot of the TUI.
package status

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/styles"
)

// State is what the bar reports on its left side.
type State string

const (
	StateReady      State = "ready"
	StateRetrieving State = "retrieving"
	StateGenerating State = "generating"
	StateError      State = "error"
	StateHelp       State = "help"
	StateResults    State = "results"
	StateAnswered   State = "answered"
)

const hintSeparator = " | "

// Bar shows the current state on the left and key hints on the right.
// It is passive: views drive it through the setters.
type Bar struct {
	styles      *styles.Styles
	keymap      *keymap.KeyMap
	state       State
	message     string
	resultCount int
	width       int
}

// NewBar returns a bar in StateReady. Nil arguments use the defaults.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &Bar{styles: s, keymap: km, state: StateReady, width: 80}
}

func (s *Bar) Init() tea.Cmd { return nil }

func (s *Bar) Update(_ tea.Msg) (*Bar, tea.Cmd) { return s, nil }

// View renders the bar padded to its width.
func (s *Bar) View() string {
	left, right := s.status(), s.hints()
	gap := max(s.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return s.styles.StatusBar.Width(s.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (s *Bar) status() string {
	st := s.styles
	switch s.state {
	case StateRetrieving:
		return st.Muted.Render("Retrieving...")
	case StateGenerating:
		return st.Muted.Render("Generating answer...")
	case StateError:
		if s.message == "" {
			return st.Error.Render("Error")
		}
		return st.Error.Render("Error: " + s.message)
	case StateHelp:
		return st.Normal.Render("Help")
	case StateAnswered:
		return st.Normal.Render("Answered from " + countOf(s.resultCount, "chunk"))
	}

	switch {
	case s.message != "":
		return st.Normal.Render(s.message)
	case s.resultCount > 0:
		return st.Normal.Render(countOf(s.resultCount, "result"))
	default:
		return st.Muted.Render("Ready")
	}
}

func (s *Bar) hints() string {
	mode := keymap.ModeInput
	if s.state == StateResults && s.resultCount > 0 {
		mode = keymap.ModeResults
	}

	var parts []string
	for _, b := range s.keymap.HelpFor(mode) {
		h := b.Help()
		parts = append(parts, h.Key+": "+h.Desc)
	}
	return s.styles.Muted.Render(strings.Join(parts, hintSeparator))
}

func countOf(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func (s *Bar) SetState(state State) { s.state = state }
func (s *Bar) State() State { return s.state }
func (s *Bar) SetMessage(msg string) { s.message = msg }
func (s *Bar) Message() string { return s.message }
func (s *Bar) SetResultCount(n int) { s.resultCount = n }
func (s *Bar) ResultCount() int { return s.resultCount }
func (s *Bar) SetWidth(width int) { s.width = width }
func (s *Bar) Width() int { return s.width }

// Clear returns the bar to StateReady with no message or count.
func (s *Bar) Clear() {
	s.state, s.message, s.resultCount = StateReady, "", 0
}
