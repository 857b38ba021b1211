package driven

import "github.com/custodia-labs/docrag/internal/core/domain"

// MetadataStore provides chunk metadata aligned by position with a VectorIndex.
// Implementations are read-only after load and safe for concurrent use.
type MetadataStore interface {
	// Get returns the chunk at the given position.
	// The boolean is false when the position is out of range.
	Get(position int) (domain.Chunk, bool)

	// Len returns the number of chunks.
	Len() int

	// Close releases resources.
	Close() error
}
