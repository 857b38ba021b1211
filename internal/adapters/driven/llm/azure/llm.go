// Package azure provides an LLM service adapter for Azure OpenAI deployments.
package azure

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"

	openaillm "github.com/custodia-labs/docrag/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultDeployment = "gpt-4"
	DefaultTimeout    = 120 * time.Second
)

// pingMaxTokens bounds the connection-check completion.
const pingMaxTokens = 10

// Config holds configuration for an Azure OpenAI deployment.
type Config struct {
	// Endpoint is the resource URL, e.g. https://name.openai.azure.com (required).
	Endpoint string

	// APIKey is the resource key (required).
	APIKey string

	// Deployment is the model deployment name (default: gpt-4).
	Deployment string

	// APIVersion is the REST API version (default: 2025-01-01-preview).
	APIVersion string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// LLMService generates answers with an Azure OpenAI chat deployment.
type LLMService struct {
	*openaillm.LLMService
}

// NewLLMService creates a new Azure OpenAI LLM service.
func NewLLMService(cfg Config) (*LLMService, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("azure: endpoint is required")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("azure: API key is required")
	}
	if cfg.Deployment == "" {
		cfg.Deployment = DefaultDeployment
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = domain.DefaultAzureAPIVersion
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	client := openai.NewClient(
		azure.WithEndpoint(cfg.Endpoint, cfg.APIVersion),
		azure.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(cfg.Timeout),
		option.WithMaxRetries(openaillm.DefaultMaxRetries),
	)

	return &LLMService{
		LLMService: openaillm.NewWithClient(client, cfg.Deployment, "azure"),
	}, nil
}

// Ping sends a short "Hello" completion to the deployment.
func (s *LLMService) Ping(ctx context.Context) error {
	_, err := s.Generate(ctx, "", "Hello", driven.GenerateOptions{MaxTokens: pingMaxTokens})
	if err != nil {
		return fmt.Errorf("azure: connection test failed: %w", err)
	}
	return nil
}
