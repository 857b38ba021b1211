package services

import (
	"errors"
	"fmt"
	"slices"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyIndexPath     = "corpus.index_path"
	keyMetadataPath  = "corpus.metadata_path"
	keyTopK          = "retrieval.top_k"
	keyThreshold     = "retrieval.threshold"
	keyMaxTokens     = "generation.max_tokens"
	keyTemperature   = "generation.temperature"
	keyEmbedProvider = "embedding.provider"
	keyEmbedModel    = "embedding.model"
	keyEmbedBaseURL  = "embedding.base_url"
	keyEmbedAPIKey   = "embedding.api_key"
	keyEmbedDims     = "embedding.dimensions"
	keyLLMProvider   = "llm.provider"
	keyLLMModel      = "llm.model"
	keyLLMBaseURL    = "llm.base_url"
	keyLLMAPIKey     = "llm.api_key"
	keyLLMAPIVersion = "llm.api_version"
	keyLLMRateLimit  = "llm.requests_per_second"
	keyServerHost    = "server.host"
	keyServerPort    = "server.port"
	keyLogLevel      = "log.level"
	keyLogDir        = "log.dir"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Corpus: domain.CorpusSettings{
			IndexPath:    s.getString(keyIndexPath, defaults.Corpus.IndexPath),
			MetadataPath: s.getString(keyMetadataPath, defaults.Corpus.MetadataPath),
		},
		Retrieval: domain.RetrievalSettings{
			TopK:      s.getInt(keyTopK, defaults.Retrieval.TopK),
			Threshold: s.getFloat(keyThreshold, defaults.Retrieval.Threshold),
		},
		Generation: domain.GenerationSettings{
			MaxTokens:   s.getInt(keyMaxTokens, defaults.Generation.MaxTokens),
			Temperature: s.getFloat(keyTemperature, defaults.Generation.Temperature),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:   s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:      s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:    s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:     s.configStore.GetString(keyEmbedAPIKey),
			Dimensions: s.configStore.GetInt(keyEmbedDims),
		},
		LLM: domain.LLMSettings{
			Provider:          s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:             s.getString(keyLLMModel, defaults.LLM.Model),
			BaseURL:           s.configStore.GetString(keyLLMBaseURL),
			APIKey:            s.configStore.GetString(keyLLMAPIKey),
			APIVersion:        s.getString(keyLLMAPIVersion, defaults.LLM.APIVersion),
			RequestsPerSecond: s.configStore.GetFloat(keyLLMRateLimit),
		},
		Server: domain.ServerSettings{
			Host: s.getString(keyServerHost, defaults.Server.Host),
			Port: s.getInt(keyServerPort, defaults.Server.Port),
		},
		Log: domain.LogSettings{
			Level: s.getString(keyLogLevel, defaults.Log.Level),
			Dir:   s.configStore.GetString(keyLogDir),
		},
	}

	// A fresh install has no stored base URL; local providers need one.
	if settings.Embedding.Provider.IsLocal() && settings.Embedding.BaseURL == "" {
		settings.Embedding.BaseURL = domain.DefaultOllamaURL
	}
	if settings.LLM.Provider.IsLocal() && settings.LLM.BaseURL == "" {
		settings.LLM.BaseURL = domain.DefaultOllamaURL
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	type setting struct {
		key   string
		value any
	}
	values := []setting{
		{keyIndexPath, settings.Corpus.IndexPath},
		{keyMetadataPath, settings.Corpus.MetadataPath},
		{keyTopK, settings.Retrieval.TopK},
		{keyThreshold, settings.Retrieval.Threshold},
		{keyMaxTokens, settings.Generation.MaxTokens},
		{keyTemperature, settings.Generation.Temperature},
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedDims, settings.Embedding.Dimensions},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyLLMAPIVersion, settings.LLM.APIVersion},
		{keyLLMRateLimit, settings.LLM.RequestsPerSecond},
		{keyServerHost, settings.Server.Host},
		{keyServerPort, settings.Server.Port},
		{keyLogLevel, settings.Log.Level},
		{keyLogDir, settings.Log.Dir},
	}
	// API keys are only written when set so that an empty form never wipes them.
	if settings.Embedding.APIKey != "" {
		values = append(values, setting{keyEmbedAPIKey, settings.Embedding.APIKey})
	}
	if settings.LLM.APIKey != "" {
		values = append(values, setting{keyLLMAPIKey, settings.LLM.APIKey})
	}

	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return nil
}

// SetCorpus updates the index and metadata paths.
func (s *SettingsService) SetCorpus(indexPath, metadataPath string) error {
	if indexPath == "" || metadataPath == "" {
		return fmt.Errorf("%w: index and metadata paths are required", domain.ErrInvalidInput)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.Corpus.IndexPath = indexPath
	settings.Corpus.MetadataPath = metadataPath
	return s.Save(settings)
}

// SetRetrievalDefaults updates the default top-k and threshold.
func (s *SettingsService) SetRetrievalDefaults(topK int, threshold float64) error {
	if topK <= 0 {
		return fmt.Errorf("%w: top_k must be positive, got %d", domain.ErrInvalidInput, topK)
	}
	if threshold < 0 || threshold > 1 {
		return fmt.Errorf("%w: threshold must be within [0, 1], got %g", domain.ErrInvalidInput, threshold)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.Retrieval.TopK = topK
	settings.Retrieval.Threshold = threshold
	return s.Save(settings)
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}
	if !slices.Contains(domain.AllEmbeddingProviders(), provider) {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = modelOrDefault(model, domain.DefaultEmbeddingModels()[provider])
	if provider.IsLocal() {
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = domain.DefaultOllamaURL
		}
	} else {
		settings.Embedding.BaseURL = ""
	}
	settings.Embedding.APIKey = apiKey
	settings.Embedding.Dimensions = 0

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
// For Azure the endpoint is kept from the existing settings.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	previous := settings.LLM.Provider
	settings.LLM.Provider = provider
	settings.LLM.Model = modelOrDefault(model, domain.DefaultLLMModels()[provider])
	switch {
	case provider.IsLocal():
		if settings.LLM.BaseURL == "" || previous != provider {
			settings.LLM.BaseURL = domain.DefaultOllamaURL
		}
	case provider.RequiresEndpoint():
		if previous != provider {
			settings.LLM.BaseURL = ""
		}
	default:
		settings.LLM.BaseURL = ""
	}
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// SetAzureEndpoint stores the Azure OpenAI endpoint and API version.
func (s *SettingsService) SetAzureEndpoint(endpoint, apiVersion string) error {
	if endpoint == "" {
		return fmt.Errorf("%w: endpoint is required", domain.ErrInvalidInput)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.LLM.BaseURL = endpoint
	if apiVersion != "" {
		settings.LLM.APIVersion = apiVersion
	}
	return s.Save(settings)
}

// Validate checks that current settings are usable.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	var errs []error
	if settings.Corpus.IndexPath == "" || settings.Corpus.MetadataPath == "" {
		errs = append(errs, errors.New("corpus index and metadata paths must be set"))
	}
	if settings.Retrieval.TopK <= 0 {
		errs = append(errs, fmt.Errorf("retrieval top_k must be positive, got %d", settings.Retrieval.TopK))
	}
	if settings.Retrieval.Threshold < 0 || settings.Retrieval.Threshold > 1 {
		errs = append(errs, fmt.Errorf("retrieval threshold must be within [0, 1], got %g", settings.Retrieval.Threshold))
	}
	if !settings.Embedding.IsConfigured() {
		errs = append(errs, fmt.Errorf("embedding provider %q is not configured", settings.Embedding.Provider))
	}
	if !settings.LLM.IsConfigured() {
		errs = append(errs, fmt.Errorf("LLM provider %q is not configured", settings.LLM.Provider))
	}
	return errors.Join(errs...)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

// getFloat treats a stored zero as a real value, since 0 is a valid
// threshold and temperature.
func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func modelOrDefault(model, defaultModel string) string {
	if model != "" {
		return model
	}
	return defaultModel
}
