// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/docrag/internal/core/domain"
)

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewAsk asks a question and shows the grounded answer.
	ViewAsk
	// ViewRetrieve shows ranked chunks for a query.
	ViewRetrieve
	// ViewStats shows index statistics and the pipeline check.
	ViewStats
	// ViewSettings configures providers.
	ViewSettings
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewAsk:
		return "ask"
	case ViewRetrieve:
		return "retrieve"
	case ViewStats:
		return "stats"
	case ViewSettings:
		return "settings"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// RetrievalCompleted carries ranked chunks back to the model.
type RetrievalCompleted struct {
	Query   string
	Results []domain.RetrievalResult
	Err     error
}

// AnswerCompleted carries a generated answer back to the model.
type AnswerCompleted struct {
	Package *domain.AnswerPackage
	Err     error
}

// StatsLoaded carries index statistics.
type StatsLoaded struct {
	Stats domain.IndexStats
}

// PipelineChecked carries the result of a pipeline smoke test.
type PipelineChecked struct {
	Report domain.PipelineReport
}

// SettingsLoaded carries the current settings.
type SettingsLoaded struct {
	Settings *domain.AppSettings
	Err      error
}

// SettingsSaved reports the result of a settings change.
type SettingsSaved struct {
	Err error
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
