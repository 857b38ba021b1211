// Package stats provides the index statistics and pipeline check view.
package stats

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

// View shows corpus statistics and the last pipeline check.
type View struct {
	styles *styles.Styles
	keymap *keymap.KeyMap

	retrievalService driving.RetrievalService
	answerService    driving.AnswerService
	ctx              context.Context

	stats    *domain.IndexStats
	report   *domain.PipelineReport
	checking bool
	width    int
	height   int
	ready    bool
}

// NewView creates a new stats view. answerService may be nil, in which case
// the pipeline check is unavailable.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	retrievalService driving.RetrievalService,
	answerService driving.AnswerService,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:           s,
		keymap:           km,
		retrievalService: retrievalService,
		answerService:    answerService,
		ctx:              context.Background(),
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the statistics.
func (v *View) Init() tea.Cmd {
	return v.loadStats()
}

func (v *View) loadStats() tea.Cmd {
	svc := v.retrievalService
	if svc == nil {
		return nil
	}
	return func() tea.Msg {
		return messages.StatsLoaded{Stats: svc.Stats()}
	}
}

func (v *View) checkPipeline() tea.Cmd {
	svc := v.answerService
	ctx := v.ctx
	return func() tea.Msg {
		return messages.PipelineChecked{Report: svc.TestPipeline(ctx)}
	}
}

// Update handles messages for the stats view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)

	case messages.StatsLoaded:
		st := msg.Stats
		v.stats = &st

	case messages.PipelineChecked:
		r := msg.Report
		v.report = &r
		v.checking = false

	case tea.KeyMsg:
		switch {
		case keymap.Matches(msg.String(), v.keymap.Back):
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewMenu}
			}
		case keymap.Matches(msg.String(), v.keymap.Check):
			if v.answerService == nil || v.checking {
				return v, nil
			}
			v.checking = true
			v.report = nil
			return v, v.checkPipeline()
		}
	}
	return v, nil
}

// View renders the stats view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := []string{v.styles.Title.Render("Index Stats"), ""}

	if v.stats == nil {
		sections = append(sections, v.styles.Muted.Render("No index loaded"))
	} else {
		sections = append(sections,
			v.row("Chunks", v.stats.TotalChunks),
			v.row("Embedding dimension", v.stats.EmbeddingDimension),
			v.row("Metadata entries", v.stats.MetadataCount),
			v.row("Documents", v.stats.UniqueDocuments),
		)
	}
	sections = append(sections, "")

	switch {
	case v.answerService == nil:
		sections = append(sections, v.styles.Muted.Render("Answer generation is not configured"))
	case v.checking:
		sections = append(sections, v.styles.Muted.Render("Checking pipeline..."))
	case v.report != nil:
		sections = append(sections, v.renderReport())
	}

	sections = append(sections, "", v.styles.Help.Render(v.hints()))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (v *View) row(label string, n int) string {
	return v.styles.Normal.Render(fmt.Sprintf("%-22s", label)) + v.styles.Title.Render(fmt.Sprintf("%d", n))
}

func (v *View) renderReport() string {
	style := v.styles.Success
	switch v.report.Status {
	case domain.PipelineWarning:
		style = v.styles.Warning
	case domain.PipelineError:
		style = v.styles.Error
	}

	lines := []string{style.Render(fmt.Sprintf("Pipeline %s: %s", v.report.Status, v.report.Message))}
	if tr := v.report.TestResult; tr != nil {
		lines = append(lines, v.styles.Muted.Render(fmt.Sprintf(
			"  query %q, answer %d chars, %d references", tr.Query, tr.AnswerLength, tr.ReferencesCount)))
	}
	return strings.Join(lines, "\n")
}

func (v *View) hints() string {
	hints := make([]string, 0, 2)
	if v.answerService != nil {
		h := v.keymap.Check.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	h := v.keymap.Back.Help()
	hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	return strings.Join(hints, " | ")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Stats returns the loaded statistics, if any.
func (v *View) Stats() *domain.IndexStats {
	return v.stats
}

// Report returns the last pipeline report, if any.
func (v *View) Report() *domain.PipelineReport {
	return v.report
}

// Checking reports whether a pipeline check is running.
func (v *View) Checking() bool {
	return v.checking
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}
