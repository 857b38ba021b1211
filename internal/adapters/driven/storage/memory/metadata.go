package memory

import (
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// Ensure MetadataStore implements the interface.
var _ driven.MetadataStore = (*MetadataStore)(nil)

// MetadataStore holds chunk metadata in a positional slice.
// It is immutable after construction, so reads need no locking.
type MetadataStore struct {
	chunks []domain.Chunk
}

// NewMetadataStore creates a store over the given chunks.
// The slice is copied so later changes by the caller are not observed.
func NewMetadataStore(chunks []domain.Chunk) *MetadataStore {
	return &MetadataStore{chunks: append([]domain.Chunk(nil), chunks...)}
}

// Get returns the chunk at the given position.
func (s *MetadataStore) Get(position int) (domain.Chunk, bool) {
	if position < 0 || position >= len(s.chunks) {
		return domain.Chunk{}, false
	}
	return s.chunks[position], true
}

// Len returns the number of chunks.
func (s *MetadataStore) Len() int {
	return len(s.chunks)
}

// Close is a no-op.
func (s *MetadataStore) Close() error {
	return nil
}
