// Package flat provides an exact, in-memory nearest-neighbour index.
//
// Vectors are stored contiguously and searched by brute force using squared
// Euclidean distance. The index is persisted with a compact binary codec.
package flat

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index is a flat L2 index. Search is safe for concurrent use; Add takes
// an exclusive lock.
type Index struct {
	mu         sync.RWMutex
	dimensions int
	vectors    []float32

	// decodeLimit caps the number of components DecodeBinary may allocate.
	decodeLimit int
}

// New creates an empty index for vectors of the given size.
func New(dimensions int) (*Index, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("%w: dimensions must be positive, got %d", domain.ErrInvalidInput, dimensions)
	}
	return &Index{dimensions: dimensions}, nil
}

// Add appends vectors and returns the position of the first one.
func (idx *Index) Add(vectors ...[]float32) (int, error) {
	for i, v := range vectors {
		if len(v) != idx.dimensions {
			return 0, fmt.Errorf("%w: vector %d has %d dimensions, index has %d",
				domain.ErrDimensionMismatch, i, len(v), idx.dimensions)
		}
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	first := len(idx.vectors) / idx.dimensions
	for _, v := range vectors {
		idx.vectors = append(idx.vectors, v...)
	}
	return first, nil
}

// Vector returns a copy of the vector at position.
func (idx *Index) Vector(position int) ([]float32, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if position < 0 || position >= len(idx.vectors)/idx.dimensions {
		return nil, false
	}
	start := position * idx.dimensions
	return slices.Clone(idx.vectors[start : start+idx.dimensions]), true
}

// Search returns the k closest vectors by squared L2 distance.
// Equal distances are ordered by position.
func (idx *Index) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if len(query) != idx.dimensions {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			domain.ErrDimensionMismatch, len(query), idx.dimensions)
	}
	if k <= 0 {
		return []driven.VectorHit{}, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	n := len(idx.vectors) / idx.dimensions
	hits := make([]driven.VectorHit, n)
	for pos := range n {
		if pos%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		row := idx.vectors[pos*idx.dimensions : (pos+1)*idx.dimensions]
		hits[pos] = driven.VectorHit{Position: pos, Distance: squaredL2(query, row)}
	}

	slices.SortStableFunc(hits, func(a, b driven.VectorHit) int {
		return cmp.Compare(a.Distance, b.Distance)
	})
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// Len returns the number of vectors.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.vectors) / idx.dimensions
}

// Dimensions returns the vector size.
func (idx *Index) Dimensions() int {
	return idx.dimensions
}

func squaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
