package mcp

import (
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Retrieval finds relevant chunks and describes the corpus.
	Retrieval driving.RetrievalService

	// Answer produces grounded answers. Optional: without it the answer
	// and check_pipeline tools are not registered.
	Answer driving.AnswerService

	// Inspector exposes individual chunks. Optional.
	Inspector driving.CorpusInspector
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
