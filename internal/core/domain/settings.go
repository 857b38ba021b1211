package domain

const unknownDescription = "Unknown"

// Retrieval and generation defaults.
const (
	// DefaultTopK is the number of chunks retrieved when none is requested.
	DefaultTopK = 10

	// DefaultThreshold is the minimum similarity score when none is requested.
	DefaultThreshold = 0.1

	// DefaultMaxTokens bounds generated answers.
	DefaultMaxTokens = 500

	// DefaultTemperature is the sampling temperature for answers.
	DefaultTemperature = 0.7

	// DefaultAzureAPIVersion is the Azure OpenAI API version used when unset.
	DefaultAzureAPIVersion = "2025-01-01-preview"

	// DefaultOllamaURL is the base URL of a local Ollama instance.
	DefaultOllamaURL = "http://localhost:11434"
)

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAzure is an Azure OpenAI deployment.
	AIProviderAzure AIProvider = "azure"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAzure, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAzure || p == AIProviderAnthropic
}

// RequiresEndpoint returns true if this provider has no public default URL.
func (p AIProvider) RequiresEndpoint() bool {
	return p == AIProviderAzure
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAzure:
		return "Azure OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// CorpusSettings locates the pre-built corpus artifacts.
type CorpusSettings struct {
	// IndexPath is the vector index file.
	IndexPath string

	// MetadataPath is the chunk metadata file (.json or .db).
	MetadataPath string
}

// RetrievalSettings holds retrieval defaults.
type RetrievalSettings struct {
	// TopK is the default result cap.
	TopK int

	// Threshold is the default minimum similarity.
	Threshold float64
}

// GenerationSettings holds answer generation defaults.
type GenerationSettings struct {
	// MaxTokens bounds generated answers.
	MaxTokens int

	// Temperature controls sampling.
	Temperature float64
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Dimensions overrides the model's known vector size. Zero means
	// look it up in EmbeddingDimensions.
	Dimensions int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// ResolvedDimensions returns the configured or known vector size, or 0.
func (e EmbeddingSettings) ResolvedDimensions() int {
	if e.Dimensions > 0 {
		return e.Dimensions
	}
	return EmbeddingDimensions()[e.Model]
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name. For Azure this is the deployment name.
	Model string

	// BaseURL is the API endpoint (for Ollama and Azure).
	BaseURL string

	// APIKey is the API key (for OpenAI/Azure/Anthropic).
	APIKey string

	// APIVersion is the Azure OpenAI API version.
	APIVersion string

	// RequestsPerSecond limits calls to the backend. Zero disables limiting.
	RequestsPerSecond float64
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	if l.Provider.RequiresEndpoint() && l.BaseURL == "" {
		return false
	}
	return true
}

// ServerSettings holds the HTTP API listen address.
type ServerSettings struct {
	Host string
	Port int
}

// LogSettings holds logging configuration.
type LogSettings struct {
	// Level is one of DEBUG, INFO, WARNING, ERROR.
	Level string

	// Dir enables file logging when non-empty.
	Dir string
}

// AppSettings holds all application settings.
type AppSettings struct {
	Corpus     CorpusSettings
	Retrieval  RetrievalSettings
	Generation GenerationSettings
	Embedding  EmbeddingSettings
	LLM        LLMSettings
	Server     ServerSettings
	Log        LogSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// Both AI providers default to a local Ollama instance so that docrag
// works without any API keys.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Corpus: CorpusSettings{
			IndexPath:    "data/vector.index",
			MetadataPath: "data/metadata.json",
		},
		Retrieval: RetrievalSettings{
			TopK:      DefaultTopK,
			Threshold: DefaultThreshold,
		},
		Generation: GenerationSettings{
			MaxTokens:   DefaultMaxTokens,
			Temperature: DefaultTemperature,
		},
		Embedding: EmbeddingSettings{
			Provider: AIProviderOllama,
			Model:    "all-minilm",
			BaseURL:  DefaultOllamaURL,
		},
		LLM: LLMSettings{
			Provider:   AIProviderOllama,
			Model:      "llama3.2",
			BaseURL:    DefaultOllamaURL,
			APIVersion: DefaultAzureAPIVersion,
		},
		Server: ServerSettings{
			Host: "0.0.0.0",
			Port: 8000,
		},
		Log: LogSettings{
			Level: "INFO",
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAzure,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "all-minilm",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAzure:     "gpt-4",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// sentence-transformers name used by most offline indexers
		"all-MiniLM-L6-v2": 384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
