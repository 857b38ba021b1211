package driven

import "github.com/custodia-labs/docrag/internal/core/domain"

// AIConfigValidator checks that provider settings reach a live service
// before they are relied on. Both methods return nil for settings whose
// provider is unset, so a partially configured install still validates.
type AIConfigValidator interface {
	ValidateEmbedding(config *domain.EmbeddingSettings) error
	ValidateLLM(config *domain.LLMSettings) error
}
