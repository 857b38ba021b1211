package list

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docrag/internal/core/domain"
)

func sampleResults() []domain.RetrievalResult {
	return []domain.RetrievalResult{
		domain.NewRetrievalResult(0, 0.95, domain.Chunk{
			ID: "c0", Text: "Alpha chunk text.", SourceDocument: "alpha.pdf",
			PageNumber: domain.IntPtr(3), SectionTitle: "Intro",
		}),
		domain.NewRetrievalResult(1, 0.85, domain.Chunk{ID: "c1", Text: "Beta chunk text.", SourceDocument: "beta.md"}),
		domain.NewRetrievalResult(2, 0.75, domain.Chunk{ID: "c2", Text: "Gamma chunk text."}),
	}
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewResultList(t *testing.T) {
	list := NewResultList(styles.DefaultStyles())

	require.NotNil(t, list)
	assert.Equal(t, 0, list.Selected())
	assert.True(t, list.IsEmpty())
	assert.Nil(t, list.Init())
	assert.Equal(t, 80, list.Width())
	assert.Equal(t, 10, list.Height())
}

func TestNewResultList_NilStyles(t *testing.T) {
	list := NewResultList(nil)

	require.NotNil(t, list)
	assert.NotNil(t, list.styles)
}

func TestResultList_SetResults(t *testing.T) {
	list := NewResultList(nil)
	list.SetSelected(0)
	list.SetResults(sampleResults())
	list.MoveDown()
	list.ToggleExpanded()

	list.SetResults(sampleResults())

	assert.Equal(t, 3, list.Count())
	assert.Equal(t, 0, list.Selected())
	assert.False(t, list.Expanded())
	assert.Equal(t, sampleResults(), list.Results())
}

func TestResultList_SetSelected(t *testing.T) {
	tests := []struct {
		name  string
		index int
		want  int
	}{
		{"valid", 2, 2},
		{"out of bounds", 3, 0},
		{"negative", -1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := NewResultList(nil)
			list.SetResults(sampleResults())

			list.SetSelected(tt.index)

			assert.Equal(t, tt.want, list.Selected())
		})
	}
}

func TestResultList_SelectedResult(t *testing.T) {
	list := NewResultList(nil)
	assert.Nil(t, list.SelectedResult())

	list.SetResults(sampleResults())
	list.SetSelected(1)

	require.NotNil(t, list.SelectedResult())
	assert.Equal(t, "c1", list.SelectedResult().ChunkID)
}

func TestResultList_Navigation(t *testing.T) {
	list := NewResultList(nil)
	list.SetResults(sampleResults())

	list.MoveUp()
	assert.Equal(t, 0, list.Selected(), "stays at top")

	list.Update(tea.KeyMsg{Type: tea.KeyDown})
	list.Update(keyRunes("j"))
	assert.Equal(t, 2, list.Selected())

	list.MoveDown()
	assert.Equal(t, 2, list.Selected(), "stays at bottom")

	list.Update(tea.KeyMsg{Type: tea.KeyUp})
	list.Update(keyRunes("k"))
	assert.Equal(t, 0, list.Selected())
}

func TestResultList_ExpandCollapsesOnMove(t *testing.T) {
	list := NewResultList(nil)
	list.SetResults(sampleResults())

	list.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, list.Expanded())

	list.MoveDown()
	assert.False(t, list.Expanded())
}

func TestResultList_ToggleExpanded_Empty(t *testing.T) {
	list := NewResultList(nil)

	list.ToggleExpanded()

	assert.False(t, list.Expanded())
}

func TestResultList_View_Empty(t *testing.T) {
	list := NewResultList(nil)

	assert.Contains(t, list.View(), "No relevant chunks")
}

func TestResultList_View_WithResults(t *testing.T) {
	list := NewResultList(nil)
	list.SetDimensions(100, 20)
	list.SetResults(sampleResults())

	view := list.View()

	assert.Contains(t, view, "Chunks (3)")
	assert.Contains(t, view, "> [1] alpha.pdf, p.3, Intro")
	assert.Contains(t, view, "0.950")
	assert.Contains(t, view, "[3] unknown")
	assert.Contains(t, view, "Beta chunk text.")
}

func TestResultList_View_Expanded(t *testing.T) {
	long := strings.Repeat("word ", 60)
	list := NewResultList(nil)
	list.SetDimensions(60, 20)
	list.SetResults([]domain.RetrievalResult{
		domain.NewRetrievalResult(0, 0.5, domain.Chunk{ID: "long", Text: long}),
	})

	assert.Contains(t, list.View(), "...", "collapsed preview is truncated")

	list.ToggleExpanded()

	assert.NotContains(t, list.View(), "...")
}

func TestCitation(t *testing.T) {
	tests := []struct {
		name   string
		chunk  domain.Chunk
		expect string
	}{
		{"document only", domain.Chunk{SourceDocument: "a.pdf"}, "a.pdf"},
		{"with page", domain.Chunk{SourceDocument: "a.pdf", PageNumber: domain.IntPtr(0)}, "a.pdf, p.0"},
		{"with section", domain.Chunk{SourceDocument: "a.pdf", SectionTitle: "Setup"}, "a.pdf, Setup"},
		{"unknown document", domain.Chunk{}, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := domain.NewRetrievalResult(0, 1, tt.chunk)

			assert.Equal(t, tt.expect, Citation(&result))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "äöüäöüä...", truncate("äöüäöüäöüäöü", 10))
}
