package stats

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docrag/internal/core/domain"
)

type mockRetrievalService struct {
	stats domain.IndexStats
}

func (m *mockRetrievalService) Retrieve(
	_ context.Context, _ string, _ domain.RetrieveOptions,
) ([]domain.RetrievalResult, error) {
	return nil, nil
}

func (m *mockRetrievalService) Stats() domain.IndexStats {
	return m.stats
}

type mockAnswerService struct {
	report domain.PipelineReport
	calls  int
}

func (m *mockAnswerService) GenerateAnswer(
	_ context.Context, _ string, _ domain.AnswerOptions,
) (*domain.AnswerPackage, error) {
	return nil, nil
}

func (m *mockAnswerService) TestPipeline(_ context.Context) domain.PipelineReport {
	m.calls++
	return m.report
}

func testStats() domain.IndexStats {
	return domain.IndexStats{TotalChunks: 120, EmbeddingDimension: 768, MetadataCount: 120, UniqueDocuments: 7}
}

func key(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestView_Init_LoadsStats(t *testing.T) {
	view := NewView(nil, nil, &mockRetrievalService{stats: testStats()}, nil)

	cmd := view.Init()

	require.NotNil(t, cmd)
	loaded, ok := cmd().(messages.StatsLoaded)
	require.True(t, ok)
	assert.Equal(t, 7, loaded.Stats.UniqueDocuments)
}

func TestView_Init_NoService(t *testing.T) {
	assert.Nil(t, NewView(nil, nil, nil, nil).Init())
}

func TestView_View_NotReady(t *testing.T) {
	assert.Contains(t, NewView(nil, nil, nil, nil).View(), "Initialising")
}

func TestView_View_Stats(t *testing.T) {
	view := NewView(nil, nil, &mockRetrievalService{}, nil)
	view.SetDimensions(80, 24)
	view.Update(messages.StatsLoaded{Stats: testStats()})

	output := view.View()

	assert.Contains(t, output, "Index Stats")
	assert.Contains(t, output, "120")
	assert.Contains(t, output, "768")
	assert.Contains(t, output, "Documents")
	assert.Contains(t, output, "not configured")
	assert.NotContains(t, output, "test pipeline")
}

func TestView_View_NoStats(t *testing.T) {
	view := NewView(nil, nil, nil, nil)
	view.SetDimensions(80, 24)

	assert.Contains(t, view.View(), "No index loaded")
}

func TestView_Check(t *testing.T) {
	answers := &mockAnswerService{report: domain.PipelineReport{
		Status:  domain.PipelineSuccess,
		Message: "RAG pipeline is working correctly",
		TestResult: &domain.PipelineTestResult{
			Query: "What is this document about?", AnswerLength: 42, ReferencesCount: 2,
		},
	}}
	view := NewView(nil, nil, &mockRetrievalService{}, answers)
	view.SetDimensions(80, 24)

	_, cmd := view.Update(key('t'))

	require.NotNil(t, cmd)
	assert.True(t, view.Checking())
	assert.Contains(t, view.View(), "Checking pipeline")

	// a second press while running is ignored
	_, again := view.Update(key('t'))
	assert.Nil(t, again)

	view.Update(cmd())

	assert.Equal(t, 1, answers.calls)
	assert.False(t, view.Checking())
	require.NotNil(t, view.Report())
	output := view.View()
	assert.Contains(t, output, "Pipeline success")
	assert.Contains(t, output, "42 chars")
	assert.Contains(t, output, "2 references")
}

func TestView_Check_NoAnswerService(t *testing.T) {
	view := NewView(nil, nil, &mockRetrievalService{}, nil)

	_, cmd := view.Update(key('t'))

	assert.Nil(t, cmd)
	assert.False(t, view.Checking())
}

func TestView_Check_ErrorReport(t *testing.T) {
	view := NewView(nil, nil, nil, &mockAnswerService{})
	view.SetDimensions(80, 24)

	view.Update(messages.PipelineChecked{Report: domain.PipelineReport{
		Status: domain.PipelineError, Message: "llm unavailable",
	}})

	assert.Contains(t, view.View(), "Pipeline error: llm unavailable")
}

func TestView_Back(t *testing.T) {
	view := NewView(nil, nil, nil, nil)

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEsc})

	require.NotNil(t, cmd)
	changed, ok := cmd().(messages.ViewChanged)
	require.True(t, ok)
	assert.Equal(t, messages.ViewMenu, changed.View)
}

func TestView_WindowSize(t *testing.T) {
	view := NewView(nil, nil, nil, nil)

	view.Update(tea.WindowSizeMsg{Width: 90, Height: 20})

	assert.True(t, view.Ready())
}
