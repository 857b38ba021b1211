package driving

import (
	"context"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// CorpusInspector exposes the loaded corpus for diagnostics.
type CorpusInspector interface {
	// Chunks returns up to limit chunks starting at position offset.
	Chunks(offset, limit int) []domain.Chunk

	// Embed returns the query embedding for text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbeddingModel returns the embedding model name.
	EmbeddingModel() string
}
