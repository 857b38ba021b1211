package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
	"github.com/custodia-labs/docrag/internal/logger"
)

// Ensure Retriever implements the interfaces.
var (
	_ driving.RetrievalService = (*Retriever)(nil)
	_ driving.CorpusInspector  = (*Retriever)(nil)
)

// overfetchFactor widens the nearest-neighbour window so that results
// dropped by the threshold or filters can still leave TopK survivors.
const overfetchFactor = 2

// RetrieverConfig holds retrieval defaults.
type RetrieverConfig struct {
	// TopK is used when a request does not set one.
	TopK int

	// Threshold is used when a request does not set one.
	Threshold float64
}

// DefaultRetrieverConfig returns the standard retrieval defaults.
func DefaultRetrieverConfig() RetrieverConfig {
	return RetrieverConfig{
		TopK:      domain.DefaultTopK,
		Threshold: domain.DefaultThreshold,
	}
}

// corpus is an immutable snapshot of the loaded stores.
type corpus struct {
	index    driven.VectorIndex
	metadata driven.MetadataStore
	stats    domain.IndexStats
}

// Retriever turns queries into ranked chunk results.
// The stores are read-only, so concurrent Retrieve calls share nothing
// mutable. Swap replaces the whole snapshot atomically.
type Retriever struct {
	embedder driven.EmbeddingService
	config   RetrieverConfig
	corpus   atomic.Pointer[corpus]
}

// NewRetriever creates a retriever over the given stores.
// It fails with domain.ErrDimensionMismatch when the embedder's vectors
// cannot be compared with the index.
func NewRetriever(
	index driven.VectorIndex,
	metadata driven.MetadataStore,
	embedder driven.EmbeddingService,
	config RetrieverConfig,
) (*Retriever, error) {
	if embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if config.TopK <= 0 {
		config.TopK = domain.DefaultTopK
	}

	r := &Retriever{
		embedder: embedder,
		config:   config,
	}
	if err := r.Swap(index, metadata); err != nil {
		return nil, err
	}
	return r, nil
}

// Swap installs a new index and metadata pair after validating it.
// In-flight requests keep using the snapshot they started with.
func (r *Retriever) Swap(index driven.VectorIndex, metadata driven.MetadataStore) error {
	if index == nil || metadata == nil {
		return fmt.Errorf("%w: index and metadata are required", domain.ErrInvalidInput)
	}
	if index.Len() != metadata.Len() {
		return fmt.Errorf("%w: index has %d vectors but metadata has %d records",
			domain.ErrCorruptData, index.Len(), metadata.Len())
	}
	if dims := r.embedder.Dimensions(); dims > 0 && index.Len() > 0 && dims != index.Dimensions() {
		return fmt.Errorf("%w: model %s produces %d dimensions, index has %d",
			domain.ErrDimensionMismatch, r.embedder.ModelName(), dims, index.Dimensions())
	}

	r.corpus.Store(&corpus{
		index:    index,
		metadata: metadata,
		stats:    computeStats(index, metadata),
	})
	return nil
}

// Retrieve returns up to TopK chunks scoring at least the threshold and
// matching every filter, in index order.
func (r *Retriever) Retrieve(
	ctx context.Context,
	query string,
	opts domain.RetrieveOptions,
) ([]domain.RetrievalResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidInput)
	}

	topK := opts.TopK
	if topK <= 0 {
		topK = r.config.TopK
	}
	threshold := r.config.Threshold
	if opts.Threshold != nil {
		threshold = *opts.Threshold
	}

	c := r.corpus.Load()
	total := c.index.Len()
	k := min(topK*overfetchFactor, total)

	logger.Section("Retrieval")
	logger.Debug("Query: %q", truncate(query, 50))
	logger.Debug("top_k=%d threshold=%.4f filters=%v window=%d/%d", topK, threshold, opts.Filters, k, total)

	results := make([]domain.RetrievalResult, 0, topK)
	if k == 0 {
		logger.Debug("Index is empty")
		return results, nil
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		if !errors.Is(err, domain.ErrEmbedding) {
			err = fmt.Errorf("%w: %w", domain.ErrEmbedding, err)
		}
		return nil, fmt.Errorf("%w: query %q: %w", domain.ErrRetrieval, truncate(query, 50), err)
	}

	hits, err := c.index.Search(ctx, vec, k)
	if err != nil {
		return nil, fmt.Errorf("%w: query %q: search index: %w", domain.ErrRetrieval, truncate(query, 50), err)
	}

	for i, hit := range hits {
		if hit.Position < 0 {
			continue
		}
		chunk, ok := c.metadata.Get(hit.Position)
		if !ok {
			logger.Warn("No metadata for index position %d", hit.Position)
			continue
		}

		score := domain.Similarity(hit.Distance)
		if score < threshold {
			logger.Debug("Skipping result %d: similarity %.4f < %.4f", i, score, threshold)
			continue
		}
		if len(opts.Filters) > 0 && !domain.MatchFilters(&chunk, opts.Filters) {
			continue
		}

		results = append(results, domain.NewRetrievalResult(hit.Position, score, chunk))
		if len(results) >= topK {
			break
		}
	}

	logger.Debug("Retrieved %d relevant chunks", len(results))
	return results, nil
}

// Stats describes the loaded corpus. It is computed once per snapshot.
func (r *Retriever) Stats() domain.IndexStats {
	return r.corpus.Load().stats
}

// Chunks returns up to limit chunks starting at offset, in index order.
func (r *Retriever) Chunks(offset, limit int) []domain.Chunk {
	c := r.corpus.Load()
	offset = max(offset, 0)
	end := min(offset+max(limit, 0), c.metadata.Len())

	chunks := make([]domain.Chunk, 0, max(end-offset, 0))
	for pos := offset; pos < end; pos++ {
		if chunk, ok := c.metadata.Get(pos); ok {
			chunks = append(chunks, chunk)
		}
	}
	return chunks
}

// Embed returns the embedding the retriever would search with.
func (r *Retriever) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: text is empty", domain.ErrInvalidInput)
	}
	vec, err := r.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbedding, err)
	}
	return vec, nil
}

// EmbeddingModel returns the embedder's model name.
func (r *Retriever) EmbeddingModel() string {
	return r.embedder.ModelName()
}

func computeStats(index driven.VectorIndex, metadata driven.MetadataStore) domain.IndexStats {
	docs := make(map[string]struct{})
	for i := range metadata.Len() {
		if chunk, ok := metadata.Get(i); ok {
			docs[chunk.SourceDocument] = struct{}{}
		}
	}
	return domain.IndexStats{
		TotalChunks:        index.Len(),
		EmbeddingDimension: index.Dimensions(),
		MetadataCount:      metadata.Len(),
		UniqueDocuments:    len(docs),
	}
}

// truncate shortens s to n runes for log and error messages.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
