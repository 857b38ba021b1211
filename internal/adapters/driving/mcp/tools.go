package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	Query     string         `json:"query" jsonschema:"the question or search text"`
	TopK      int            `json:"top_k,omitempty" jsonschema:"maximum number of chunks to return (default from settings)"`
	Threshold *float64       `json:"threshold,omitempty" jsonschema:"minimum similarity score between 0 and 1"`
	Filters   map[string]any `json:"filters,omitempty" jsonschema:"metadata fields that must match exactly, e.g. source or page"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Results []domain.RetrievalResult `json:"results"`
	Count   int                      `json:"count"`
}

// AnswerInput is the input schema for the answer tool.
type AnswerInput struct {
	Query       string         `json:"query" jsonschema:"the question to answer"`
	TopK        int            `json:"top_k,omitempty" jsonschema:"maximum number of chunks used as context"`
	Threshold   *float64       `json:"threshold,omitempty" jsonschema:"minimum similarity score between 0 and 1"`
	Filters     map[string]any `json:"filters,omitempty" jsonschema:"metadata fields that must match exactly"`
	MaxTokens   int            `json:"max_tokens,omitempty" jsonschema:"upper bound on answer length in tokens"`
	Temperature *float64       `json:"temperature,omitempty" jsonschema:"sampling temperature between 0 and 2"`
}

// StatsInput is the empty input of the index_stats tool.
type StatsInput struct{}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve",
		Description: "Find the document chunks most relevant to a query",
	}, s.handleRetrieve)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "index_stats",
		Description: "Describe the loaded document index",
	}, s.handleStats)

	if s.ports.Answer == nil {
		return
	}

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "answer",
		Description: "Answer a question from the indexed documents, with source references",
	}, s.handleAnswer)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "check_pipeline",
		Description: "Run a test query through retrieval and generation",
	}, s.handleCheckPipeline)
}

func retrieveOptions(topK int, threshold *float64, filters map[string]any) domain.RetrieveOptions {
	return domain.RetrieveOptions{TopK: topK, Threshold: threshold, Filters: filters}
}

// handleRetrieve handles the retrieve tool invocation.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	results, err := s.ports.Retrieval.Retrieve(ctx, input.Query,
		retrieveOptions(input.TopK, input.Threshold, input.Filters))
	if err != nil {
		return nil, RetrieveOutput{}, err
	}
	if results == nil {
		results = []domain.RetrievalResult{}
	}

	return nil, RetrieveOutput{Results: results, Count: len(results)}, nil
}

// handleAnswer handles the answer tool invocation.
func (s *Server) handleAnswer(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AnswerInput,
) (*mcp.CallToolResult, domain.AnswerPackage, error) {
	opts := domain.AnswerOptions{
		Retrieve:    retrieveOptions(input.TopK, input.Threshold, input.Filters),
		MaxTokens:   input.MaxTokens,
		Temperature: input.Temperature,
	}

	pkg, err := s.ports.Answer.GenerateAnswer(ctx, input.Query, opts)
	if err != nil {
		return nil, domain.AnswerPackage{}, err
	}
	return nil, *pkg, nil
}

// handleStats handles the index_stats tool invocation.
func (s *Server) handleStats(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ StatsInput,
) (*mcp.CallToolResult, domain.IndexStats, error) {
	return nil, s.ports.Retrieval.Stats(), nil
}

// handleCheckPipeline handles the check_pipeline tool invocation.
func (s *Server) handleCheckPipeline(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ StatsInput,
) (*mcp.CallToolResult, domain.PipelineReport, error) {
	return nil, s.ports.Answer.TestPipeline(ctx), nil
}
