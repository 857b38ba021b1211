// Package tui provides an interactive terminal user interface for docrag.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces used by the TUI.
type Ports struct {
	// Retrieval ranks chunks for a query. Required.
	Retrieval driving.RetrievalService

	// Answer generates grounded answers. Optional; without it the Ask view
	// reports that generation is not configured.
	Answer driving.AnswerService

	// Settings manages provider configuration. Optional.
	Settings driving.SettingsService
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(retrieval driving.RetrievalService, answer driving.AnswerService) *Ports {
	return &Ports{
		Retrieval: retrieval,
		Answer:    answer,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
