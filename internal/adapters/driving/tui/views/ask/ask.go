// Package ask provides the question-answering view for the TUI.
package ask

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

// ErrNoAnswerService indicates that answer generation is not configured.
var ErrNoAnswerService = errors.New("answer generation is not configured")

// View asks a question and shows the grounded answer with its references.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.QueryInput
	statusbar *status.Bar

	answerService driving.AnswerService
	ctx           context.Context

	answer     *domain.AnswerPackage
	err        error
	width      int
	height     int
	ready      bool
	focusInput bool
	pending    bool
}

// NewView creates a new ask view.
func NewView(s *styles.Styles, km *keymap.KeyMap, answerService driving.AnswerService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:        s,
		keymap:        km,
		input:         input.NewQueryInput(s, "Ask"),
		statusbar:     status.NewBar(s, km),
		answerService: answerService,
		ctx:           context.Background(),
		width:         80,
		height:        24,
		focusInput:    true,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the ask view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.AnswerCompleted:
		v.handleAnswerCompleted(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	if v.focusInput {
		v.input, cmd = v.input.Update(msg)
	}
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if msg.Type == tea.KeyEsc {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	// ignore input while a generation is in flight
	if v.pending {
		return v, nil
	}

	if v.focusInput {
		if msg.Type == tea.KeyEnter {
			question := strings.TrimSpace(v.input.Value())
			if question == "" {
				return v, nil
			}
			v.pending = true
			v.err = nil
			v.statusbar.SetState(status.StateGenerating)
			v.focusInput = false
			v.input.Blur()
			return v, v.generate(question)
		}
		v.input, _ = v.input.Update(msg)
		return v, nil
	}

	if keymap.Matches(msg.String(), v.keymap.NewQuery) {
		v.focusInput = true
		v.answer = nil
		v.input.SetValue("")
		v.statusbar.Clear()
		return v, v.input.Focus()
	}
	return v, nil
}

func (v *View) generate(question string) tea.Cmd {
	svc := v.answerService
	ctx := v.ctx
	return func() tea.Msg {
		if svc == nil {
			return messages.ErrorOccurred{Err: ErrNoAnswerService}
		}
		pkg, err := svc.GenerateAnswer(ctx, question, domain.AnswerOptions{})
		return messages.AnswerCompleted{Package: pkg, Err: err}
	}
}

func (v *View) handleAnswerCompleted(msg messages.AnswerCompleted) {
	v.pending = false
	if msg.Err != nil {
		v.setError(msg.Err)
		return
	}

	v.answer = msg.Package
	v.statusbar.SetMessage("")
	if msg.Package != nil && msg.Package.HasResults() {
		v.statusbar.SetResultCount(msg.Package.RetrievedCount)
		v.statusbar.SetState(status.StateAnswered)
	} else {
		v.statusbar.SetResultCount(0)
		v.statusbar.SetMessage("Nothing relevant was found")
		v.statusbar.SetState(status.StateReady)
	}
}

func (v *View) setError(err error) {
	v.pending = false
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
	v.focusInput = true
	v.input.Focus()
}

// View renders the ask view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 10)
	sections = append(sections, v.styles.Title.Render("Ask"), "", v.input.View(), "")

	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}

	if v.answer != nil {
		sections = append(sections, v.renderAnswer(), "")
	}

	sections = append(sections, v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (v *View) renderAnswer() string {
	body := v.styles.Answer.Width(max(v.width-4, 20)).Render(v.answer.Answer)
	if len(v.answer.References) == 0 {
		return body
	}

	lines := []string{body, "", v.styles.Subtitle.Render("References")}
	for i := range v.answer.References {
		lines = append(lines, v.styles.Reference.Render(fmt.Sprintf("[%d] %s", i+1, Reference(&v.answer.References[i]))))
	}
	return strings.Join(lines, "\n")
}

// Reference formats a citation as "doc, p.N, section".
func Reference(ref *domain.Reference) string {
	parts := []string{ref.DocName}
	if ref.PageNumber != nil {
		parts = append(parts, fmt.Sprintf("p.%d", *ref.PageNumber))
	}
	if ref.SectionTitle != "" {
		parts = append(parts, ref.SectionTitle)
	}
	return strings.Join(parts, ", ")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.statusbar.SetWidth(width)
}

// Question returns the current question text.
func (v *View) Question() string {
	return v.input.Value()
}

// SetQuestion sets the question text.
func (v *View) SetQuestion(q string) {
	v.input.SetValue(q)
}

// Answer returns the last answer, if any.
func (v *View) Answer() *domain.AnswerPackage {
	return v.answer
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Pending reports whether an answer is being generated.
func (v *View) Pending() bool {
	return v.pending
}

// InputFocused returns whether the input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}

// Reset clears the question and answer.
func (v *View) Reset() {
	v.focusInput = true
	v.pending = false
	v.input.Focus()
	v.input.SetValue("")
	v.answer = nil
	v.err = nil
	v.statusbar.Clear()
}
