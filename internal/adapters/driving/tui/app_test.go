package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docrag/internal/core/domain"
)

func newTestApp(t *testing.T, ports *Ports) *App {
	t.Helper()
	if ports == nil {
		ports = &Ports{Retrieval: &MockRetrievalService{}, Answer: &MockAnswerService{}}
	}
	app, err := NewApp(ports)
	require.NoError(t, err)
	app.SetDimensions(80, 24)
	return app
}

func typeText(app *App, text string) {
	for _, r := range text {
		app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestNewApp_Success(t *testing.T) {
	app, err := NewApp(&Ports{Retrieval: &MockRetrievalService{}})

	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
	assert.False(t, app.Ready())
}

func TestNewApp_InvalidPorts(t *testing.T) {
	app, err := NewApp(&Ports{Answer: &MockAnswerService{}})

	assert.ErrorIs(t, err, ErrMissingRetrievalService)
	assert.Nil(t, app)
}

func TestApp_WithContext(t *testing.T) {
	app := newTestApp(t, nil)
	type contextKey string
	ctx := context.WithValue(context.Background(), contextKey("key"), "value")

	assert.Equal(t, app, app.WithContext(ctx))
	assert.Equal(t, ctx, app.ctx)
}

func TestApp_Init(t *testing.T) {
	app := newTestApp(t, nil)

	assert.NotNil(t, app.Init())
}

func TestApp_Update_WindowSize(t *testing.T) {
	app, err := NewApp(&Ports{Retrieval: &MockRetrievalService{}})
	require.NoError(t, err)

	model, cmd := app.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	assert.Equal(t, app, model)
	assert.Nil(t, cmd)
	assert.True(t, app.Ready())
}

func TestApp_View_NotReady(t *testing.T) {
	app, err := NewApp(&Ports{Retrieval: &MockRetrievalService{}})
	require.NoError(t, err)

	assert.Equal(t, "Initialising...", app.View())
}

func TestApp_CtrlC_Quits(t *testing.T) {
	app := newTestApp(t, nil)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestApp_QuitMessage(t *testing.T) {
	app := newTestApp(t, nil)

	_, cmd := app.Update(messages.Quit{})

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestApp_ViewChanged(t *testing.T) {
	tests := []struct {
		view     messages.ViewType
		contains string
		wantCmd  bool
	}{
		{messages.ViewAsk, "Ask", true},
		{messages.ViewRetrieve, "Retrieve", true},
		{messages.ViewStats, "Index Stats", true},
		{messages.ViewSettings, "Settings", true},
		{messages.ViewHelp, "Help", false},
		{messages.ViewMenu, "docrag", false},
	}

	for _, tt := range tests {
		t.Run(tt.view.String(), func(t *testing.T) {
			app := newTestApp(t, nil)

			_, cmd := app.Update(messages.ViewChanged{View: tt.view})

			assert.Equal(t, tt.view, app.CurrentView())
			assert.Equal(t, tt.wantCmd, cmd != nil)
			assert.Contains(t, app.View(), tt.contains)
		})
	}
}

func TestApp_MenuNavigatesToAsk(t *testing.T) {
	app := newTestApp(t, nil)

	// Ask is the first menu item
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	app.Update(cmd())

	assert.Equal(t, messages.ViewAsk, app.CurrentView())
}

func TestApp_MenuDisablesAskWithoutAnswer(t *testing.T) {
	app := newTestApp(t, &Ports{Retrieval: &MockRetrievalService{}})

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
	assert.Contains(t, app.View(), "no LLM configured")
}

func TestApp_RetrieveFlow(t *testing.T) {
	var gotQuery string
	retrieval := &MockRetrievalService{
		RetrieveFunc: func(_ context.Context, query string, _ domain.RetrieveOptions) ([]domain.RetrievalResult, error) {
			gotQuery = query
			return []domain.RetrievalResult{
				{ChunkID: "c1", Text: "Refunds take five days.", Score: 0.8, DocName: "refunds.pdf"},
			}, nil
		},
	}
	app := newTestApp(t, &Ports{Retrieval: retrieval})
	app.Update(messages.ViewChanged{View: messages.ViewRetrieve})

	typeText(app, "refund")
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	app.Update(cmd())

	assert.Equal(t, "refund", gotQuery)
	assert.NoError(t, app.Err())
	assert.Contains(t, app.View(), "refunds.pdf")
}

func TestApp_AskFlow(t *testing.T) {
	answer := &MockAnswerService{
		GenerateAnswerFunc: func(_ context.Context, query string, _ domain.AnswerOptions) (*domain.AnswerPackage, error) {
			return &domain.AnswerPackage{
				Query:          query,
				Answer:         "Five business days.",
				References:     []domain.Reference{{DocName: "refunds.pdf", ChunkID: "c1"}},
				RetrievedCount: 1,
				Outcome:        domain.OutcomeAnswered,
			}, nil
		},
	}
	app := newTestApp(t, &Ports{Retrieval: &MockRetrievalService{}, Answer: answer})
	app.Update(messages.ViewChanged{View: messages.ViewAsk})

	typeText(app, "how long?")
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	app.Update(cmd())

	output := app.View()
	assert.Contains(t, output, "Five business days.")
	assert.Contains(t, output, "[1] refunds.pdf")
}

func TestApp_AskFlow_Error(t *testing.T) {
	answer := &MockAnswerService{
		GenerateAnswerFunc: func(context.Context, string, domain.AnswerOptions) (*domain.AnswerPackage, error) {
			return nil, domain.ErrLLMUnavailable
		},
	}
	app := newTestApp(t, &Ports{Retrieval: &MockRetrievalService{}, Answer: answer})
	app.Update(messages.ViewChanged{View: messages.ViewAsk})

	typeText(app, "q")
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	app.Update(cmd())

	assert.ErrorIs(t, app.Err(), domain.ErrLLMUnavailable)
	assert.Equal(t, messages.ViewAsk, app.CurrentView())
}

func TestApp_StatsFlow(t *testing.T) {
	retrieval := &MockRetrievalService{StatsValue: domain.IndexStats{TotalChunks: 42, UniqueDocuments: 3}}
	app := newTestApp(t, &Ports{Retrieval: retrieval})

	_, cmd := app.Update(messages.ViewChanged{View: messages.ViewStats})
	require.NotNil(t, cmd)
	app.Update(cmd())

	assert.Contains(t, app.View(), "42")
}

func TestApp_ErrorOccurred(t *testing.T) {
	app := newTestApp(t, nil)
	app.Update(messages.ViewChanged{View: messages.ViewRetrieve})

	app.Update(messages.ErrorOccurred{Err: errors.New("boom")})

	assert.EqualError(t, app.Err(), "boom")
	assert.Contains(t, app.View(), "boom")
}

func TestApp_HelpEscReturnsToMenu(t *testing.T) {
	app := newTestApp(t, nil)
	app.Update(messages.ViewChanged{View: messages.ViewHelp})

	assert.Contains(t, app.View(), "new query")
	assert.Contains(t, app.View(), "more chunks")

	app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	assert.Equal(t, messages.ViewHelp, app.CurrentView())

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
}

func TestApp_EscFromView_ReturnsToMenu(t *testing.T) {
	app := newTestApp(t, nil)
	app.Update(messages.ViewChanged{View: messages.ViewRetrieve})

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	app.Update(cmd())

	assert.Equal(t, messages.ViewMenu, app.CurrentView())
}

func TestApp_SettingsWithoutService(t *testing.T) {
	app := newTestApp(t, nil)

	_, cmd := app.Update(messages.ViewChanged{View: messages.ViewSettings})
	require.NotNil(t, cmd)
	app.Update(cmd())

	assert.Contains(t, app.View(), "settings service not available")
}
