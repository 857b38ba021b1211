package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
	"github.com/custodia-labs/docrag/internal/logger"
)

// Ensure AnswerService implements the interfaces.
var (
	_ driving.AnswerService   = (*AnswerService)(nil)
	_ driven.PromptStoreAware = (*AnswerService)(nil)
)

// Smoke-test parameters used by TestPipeline.
const (
	pipelineTestQuery = "What is AI?"
	pipelineTestTopK  = 3
)

// AnswerConfig holds generation defaults.
type AnswerConfig struct {
	// MaxTokens bounds generated answers.
	MaxTokens int

	// Temperature controls sampling.
	Temperature float64
}

// DefaultAnswerConfig returns the standard generation defaults.
func DefaultAnswerConfig() AnswerConfig {
	return AnswerConfig{
		MaxTokens:   domain.DefaultMaxTokens,
		Temperature: domain.DefaultTemperature,
	}
}

// AnswerService generates grounded answers from retrieved chunks.
// It holds no per-request state and is safe for concurrent use.
type AnswerService struct {
	retriever driving.RetrievalService
	llm       driven.LLMService
	prompts   driven.PromptStore
	config    AnswerConfig
}

// NewAnswerService creates an answer service.
// llm may be nil, in which case only the no-results fallback can be served.
func NewAnswerService(retriever driving.RetrievalService, llm driven.LLMService, config AnswerConfig) *AnswerService {
	if config.MaxTokens <= 0 {
		config.MaxTokens = domain.DefaultMaxTokens
	}
	return &AnswerService{
		retriever: retriever,
		llm:       llm,
		config:    config,
	}
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (s *AnswerService) SetPromptStore(store driven.PromptStore) {
	s.prompts = store
}

// GenerateAnswer retrieves context for the query and generates an answer.
func (s *AnswerService) GenerateAnswer(
	ctx context.Context,
	query string,
	opts domain.AnswerOptions,
) (*domain.AnswerPackage, error) {
	logger.Section("Answer Generation")
	logger.Debug("Query: %q", truncate(query, 50))

	results, err := s.retriever.Retrieve(ctx, query, opts.Retrieve)
	if err != nil {
		return nil, err
	}

	pkg := &domain.AnswerPackage{
		ID:    uuid.New().String(),
		Query: query,
	}

	if len(results) == 0 {
		logger.Warn("No relevant chunks found")
		pkg.Answer = domain.InsufficientInformationAnswer
		pkg.References = []domain.Reference{}
		pkg.Outcome = domain.OutcomeNoResults
		return pkg, nil
	}

	if s.llm == nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrGeneration, domain.ErrLLMUnavailable)
	}

	contextText := BuildContext(results)
	logger.Debug("Context built from %d chunks (%d chars)", len(results), len(contextText))

	genOpts := driven.GenerateOptions{
		MaxTokens:   s.config.MaxTokens,
		Temperature: s.config.Temperature,
	}
	if opts.MaxTokens > 0 {
		genOpts.MaxTokens = opts.MaxTokens
	}
	if opts.Temperature != nil {
		genOpts.Temperature = *opts.Temperature
	}

	system := s.loadPrompt(driven.PromptAnswerSystem, domain.DefaultAnswerSystemPrompt)
	user := fmt.Sprintf(s.loadPrompt(driven.PromptAnswerUser, domain.DefaultAnswerUserPrompt), contextText, query)

	answer, err := s.llm.Generate(ctx, system, user, genOpts)
	if err != nil {
		logger.Error("Answer generation failed: %v", err)
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrGeneration, s.llm.ModelName(), err)
	}
	logger.Debug("Answer generated (%d chars)", len(answer))

	pkg.Answer = answer
	pkg.References = domain.BuildReferences(results)
	pkg.RetrievedCount = len(results)
	pkg.RetrievedChunks = domain.BuildSnippets(results)
	pkg.Outcome = domain.OutcomeAnswered
	return pkg, nil
}

// TestPipeline runs a smoke-test query and reports pipeline health.
func (s *AnswerService) TestPipeline(ctx context.Context) domain.PipelineReport {
	logger.Section("Pipeline Test")

	results, err := s.retriever.Retrieve(ctx, pipelineTestQuery, domain.RetrieveOptions{TopK: pipelineTestTopK})
	if err != nil {
		logger.Error("Pipeline test failed: %v", err)
		return domain.PipelineReport{Status: domain.PipelineError, Message: err.Error()}
	}
	logger.Debug("Retrieval: %d chunks found", len(results))

	if s.llm == nil || s.llm.Ping(ctx) != nil {
		logger.Error("LLM connection failed")
		return domain.PipelineReport{Status: domain.PipelineError, Message: "LLM connection failed"}
	}

	if len(results) == 0 {
		logger.Warn("No chunks retrieved for test query")
		return domain.PipelineReport{
			Status:  domain.PipelineWarning,
			Message: "RAG pipeline works but no relevant documents found for test query",
		}
	}

	pkg, err := s.GenerateAnswer(ctx, pipelineTestQuery, domain.AnswerOptions{})
	if err != nil {
		logger.Error("Pipeline test failed: %v", err)
		return domain.PipelineReport{Status: domain.PipelineError, Message: err.Error()}
	}

	return domain.PipelineReport{
		Status:  domain.PipelineSuccess,
		Message: "RAG pipeline is functional",
		TestResult: &domain.PipelineTestResult{
			Query:           pkg.Query,
			AnswerLength:    len(pkg.Answer),
			ReferencesCount: len(pkg.References),
		},
	}
}

// BuildContext renders retrieved chunks as the grounding payload.
// Each chunk contributes a header line, its text and a blank line.
func BuildContext(results []domain.RetrievalResult) string {
	parts := make([]string, 0, len(results)*3)
	for i := range results {
		r := &results[i]

		var header strings.Builder
		fmt.Fprintf(&header, "[Chunk %d - Doc: %s", i+1, r.DocName)
		if r.PageNumber != nil && *r.PageNumber != 0 {
			fmt.Fprintf(&header, ", Page: %d", *r.PageNumber)
		}
		if r.SectionTitle != "" {
			fmt.Fprintf(&header, ", Section: %s", r.SectionTitle)
		}
		fmt.Fprintf(&header, ", Score: %.2f]", r.Score)

		parts = append(parts, header.String(), r.Text, "")
	}
	return strings.Join(parts, "\n")
}

func (s *AnswerService) loadPrompt(name, fallback string) string {
	if s.prompts == nil {
		return fallback
	}
	prompt, err := s.prompts.Load(name)
	if err != nil || prompt == "" {
		logger.Warn("Prompt %q unavailable, using built-in: %v", name, err)
		return fallback
	}
	return prompt
}
