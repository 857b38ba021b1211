package mcp

import (
	"context"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	results  []domain.RetrievalResult
	stats    domain.IndexStats
	err      error
	lastOpts domain.RetrieveOptions
}

func (m *mockRetrievalService) Retrieve(
	_ context.Context,
	_ string,
	opts domain.RetrieveOptions,
) ([]domain.RetrievalResult, error) {
	m.lastOpts = opts
	return m.results, m.err
}

func (m *mockRetrievalService) Stats() domain.IndexStats {
	return m.stats
}

// mockAnswerService is a mock implementation of driving.AnswerService.
type mockAnswerService struct {
	pkg      *domain.AnswerPackage
	report   domain.PipelineReport
	err      error
	lastOpts domain.AnswerOptions
}

func (m *mockAnswerService) GenerateAnswer(
	_ context.Context,
	_ string,
	opts domain.AnswerOptions,
) (*domain.AnswerPackage, error) {
	m.lastOpts = opts
	return m.pkg, m.err
}

func (m *mockAnswerService) TestPipeline(_ context.Context) domain.PipelineReport {
	return m.report
}

// mockInspector is a mock implementation of driving.CorpusInspector.
type mockInspector struct {
	chunks []domain.Chunk
}

func (m *mockInspector) Chunks(offset, limit int) []domain.Chunk {
	if offset >= len(m.chunks) {
		return nil
	}
	end := min(offset+limit, len(m.chunks))
	return m.chunks[offset:end]
}

func (m *mockInspector) Embed(_ context.Context, _ string) ([]float32, error) {
	return []float32{0.1, 0.2}, nil
}

func (m *mockInspector) EmbeddingModel() string {
	return "all-minilm"
}
