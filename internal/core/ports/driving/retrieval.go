package driving

import (
	"context"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// RetrievalService finds the chunks most relevant to a query.
type RetrievalService interface {
	// Retrieve returns ranked, thresholded, filtered results, at most TopK.
	// An empty slice means nothing relevant was found.
	Retrieve(ctx context.Context, query string, opts domain.RetrieveOptions) ([]domain.RetrievalResult, error)

	// Stats describes the loaded corpus.
	Stats() domain.IndexStats
}
