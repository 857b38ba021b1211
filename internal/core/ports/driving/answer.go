package driving

import (
	"context"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// AnswerService produces grounded answers with source references.
type AnswerService interface {
	// GenerateAnswer retrieves context for the query and asks the LLM to
	// answer from it. When nothing is retrieved, the fallback answer is
	// returned with OutcomeNoResults and no error.
	GenerateAnswer(ctx context.Context, query string, opts domain.AnswerOptions) (*domain.AnswerPackage, error)

	// TestPipeline runs a smoke-test query end to end and reports health.
	TestPipeline(ctx context.Context) domain.PipelineReport
}
