package driven

import "context"

// VectorIndex provides nearest-neighbour search over precomputed vectors.
// Implementations are read-only after load and safe for concurrent use.
type VectorIndex interface {
	// Search returns up to k hits ordered by ascending distance.
	// Ties are ordered by position.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Len returns the number of vectors in the index.
	Len() int

	// Dimensions returns the vector size.
	Dimensions() int
}

// VectorHit is a single nearest-neighbour match.
type VectorHit struct {
	// Position is the vector's position in the index. Implementations may
	// return -1 for unfilled slots; callers skip out-of-range positions.
	Position int

	// Distance is the squared L2 distance to the query. Smaller is closer.
	Distance float32
}
