package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docrag/internal/core/domain"
)

// mockAIValidator implements driven.AIConfigValidator for testing.
type mockAIValidator struct {
	embeddingErr error
	llmErr       error
	lastLLM      *domain.LLMSettings
}

func (m *mockAIValidator) ValidateEmbedding(_ *domain.EmbeddingSettings) error {
	return m.embeddingErr
}

func (m *mockAIValidator) ValidateLLM(config *domain.LLMSettings) error {
	m.lastLLM = config
	return m.llmErr
}

func TestNewSettingsService(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)

	require.NotNil(t, service)
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultAppSettings(), *settings)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("corpus.index_path", "/srv/rag/vector.index")
	_ = store.Set("retrieval.top_k", 5)
	_ = store.Set("retrieval.threshold", 0.35)
	_ = store.Set("embedding.provider", "openai")
	_ = store.Set("embedding.model", "text-embedding-3-large")
	_ = store.Set("llm.provider", "azure")
	_ = store.Set("llm.base_url", "https://example.openai.azure.com")
	_ = store.Set("server.port", 9090)

	service := NewSettingsService(store, nil)

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, "/srv/rag/vector.index", settings.Corpus.IndexPath)
	assert.Equal(t, domain.DefaultAppSettings().Corpus.MetadataPath, settings.Corpus.MetadataPath)
	assert.Equal(t, 5, settings.Retrieval.TopK)
	assert.InDelta(t, 0.35, settings.Retrieval.Threshold, 1e-9)
	assert.Equal(t, domain.AIProviderOpenAI, settings.Embedding.Provider)
	assert.Equal(t, "text-embedding-3-large", settings.Embedding.Model)
	assert.Empty(t, settings.Embedding.BaseURL)
	assert.Equal(t, domain.AIProviderAzure, settings.LLM.Provider)
	assert.Equal(t, "https://example.openai.azure.com", settings.LLM.BaseURL)
	assert.Equal(t, 9090, settings.Server.Port)
}

func TestSettingsService_Get_ZeroThresholdIsKept(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("retrieval.threshold", 0.0)
	_ = store.Set("generation.temperature", 0.0)

	settings, err := NewSettingsService(store, nil).Get()

	require.NoError(t, err)
	assert.Zero(t, settings.Retrieval.Threshold)
	assert.Zero(t, settings.Generation.Temperature)
}

func TestSettingsService_Get_InvalidProviderReturnsDefault(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("embedding.provider", "invalid_provider")
	_ = store.Set("llm.provider", "nope")

	settings, err := NewSettingsService(store, nil).Get()

	require.NoError(t, err)
	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.Embedding.Provider, settings.Embedding.Provider)
	assert.Equal(t, defaults.LLM.Provider, settings.LLM.Provider)
}

func TestSettingsService_SaveRoundTrip(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil)

	want := domain.DefaultAppSettings()
	want.Corpus.MetadataPath = "data/chunks.db"
	want.Retrieval.TopK = 7
	want.LLM.Provider = domain.AIProviderAnthropic
	want.LLM.Model = "claude-3-5-sonnet-latest"
	want.LLM.BaseURL = ""
	want.LLM.APIKey = "sk-ant-test"
	want.LLM.RequestsPerSecond = 2.5
	want.Log.Dir = "/var/log/docrag"

	require.NoError(t, service.Save(&want))
	got, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, want, *got)
}

func TestSettingsService_Save_KeepsAPIKeyWhenEmpty(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("llm.api_key", "sk-existing")
	service := NewSettingsService(store, nil)

	settings := domain.DefaultAppSettings()
	settings.LLM.APIKey = ""
	require.NoError(t, service.Save(&settings))

	assert.Equal(t, "sk-existing", store.GetString("llm.api_key"))
}

func TestSettingsService_SetCorpus(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)

	require.NoError(t, service.SetCorpus("idx.bin", "meta.json"))

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, "idx.bin", settings.Corpus.IndexPath)
	assert.Equal(t, "meta.json", settings.Corpus.MetadataPath)

	assert.ErrorIs(t, service.SetCorpus("", "meta.json"), domain.ErrInvalidInput)
}

func TestSettingsService_SetRetrievalDefaults(t *testing.T) {
	tests := []struct {
		name      string
		topK      int
		threshold float64
		wantErr   bool
	}{
		{"valid", 4, 0.25, false},
		{"zero threshold", 4, 0, false},
		{"zero top_k", 0, 0.25, true},
		{"negative threshold", 4, -0.1, true},
		{"threshold above one", 4, 1.5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewSettingsService(memory.NewConfigStore(), nil)

			err := service.SetRetrievalDefaults(tt.topK, tt.threshold)

			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			settings, err := service.Get()
			require.NoError(t, err)
			assert.Equal(t, tt.topK, settings.Retrieval.TopK)
			assert.InDelta(t, tt.threshold, settings.Retrieval.Threshold, 1e-9)
		})
	}
}

func TestSettingsService_SetEmbeddingProvider(t *testing.T) {
	t.Run("ollama keeps local base URL", func(t *testing.T) {
		service := NewSettingsService(memory.NewConfigStore(), nil)

		require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOllama, "nomic-embed-text", ""))

		settings, _ := service.Get()
		assert.Equal(t, "nomic-embed-text", settings.Embedding.Model)
		assert.Equal(t, domain.DefaultOllamaURL, settings.Embedding.BaseURL)
		assert.Equal(t, 768, settings.Embedding.ResolvedDimensions())
	})

	t.Run("openai uses default model", func(t *testing.T) {
		service := NewSettingsService(memory.NewConfigStore(), nil)

		require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOpenAI, "", "sk-test"))

		settings, _ := service.Get()
		assert.Equal(t, domain.AIProviderOpenAI, settings.Embedding.Provider)
		assert.Equal(t, "text-embedding-3-small", settings.Embedding.Model)
		assert.Empty(t, settings.Embedding.BaseURL)
		assert.Equal(t, "sk-test", settings.Embedding.APIKey)
	})

	t.Run("rejections", func(t *testing.T) {
		service := NewSettingsService(memory.NewConfigStore(), nil)

		assert.Error(t, service.SetEmbeddingProvider(domain.AIProviderOpenAI, "", ""))
		assert.Error(t, service.SetEmbeddingProvider("bogus", "", ""))
		assert.Error(t, service.SetEmbeddingProvider(domain.AIProviderAnthropic, "", "key"))
	})
}

func TestSettingsService_SetLLMProvider(t *testing.T) {
	t.Run("openai clears base URL", func(t *testing.T) {
		service := NewSettingsService(memory.NewConfigStore(), nil)

		require.NoError(t, service.SetLLMProvider(domain.AIProviderOpenAI, "", "sk-test"))

		settings, _ := service.Get()
		assert.Equal(t, "gpt-4o-mini", settings.LLM.Model)
		assert.Empty(t, settings.LLM.BaseURL)
	})

	t.Run("azure keeps endpoint for same provider", func(t *testing.T) {
		store := memory.NewConfigStore()
		service := NewSettingsService(store, nil)
		require.NoError(t, service.SetLLMProvider(domain.AIProviderAzure, "", "az-key"))
		require.NoError(t, service.SetAzureEndpoint("https://res.openai.azure.com", "2024-10-21"))

		require.NoError(t, service.SetLLMProvider(domain.AIProviderAzure, "gpt-4o", "az-key-2"))

		settings, _ := service.Get()
		assert.Equal(t, "gpt-4o", settings.LLM.Model)
		assert.Equal(t, "https://res.openai.azure.com", settings.LLM.BaseURL)
		assert.Equal(t, "2024-10-21", settings.LLM.APIVersion)
		assert.Equal(t, "az-key-2", settings.LLM.APIKey)
	})

	t.Run("switching to azure drops previous URL", func(t *testing.T) {
		service := NewSettingsService(memory.NewConfigStore(), nil)

		require.NoError(t, service.SetLLMProvider(domain.AIProviderAzure, "", "az-key"))

		settings, _ := service.Get()
		assert.Equal(t, "gpt-4", settings.LLM.Model)
		assert.Empty(t, settings.LLM.BaseURL)
		assert.False(t, settings.LLM.IsConfigured())
	})

	t.Run("rejections", func(t *testing.T) {
		service := NewSettingsService(memory.NewConfigStore(), nil)

		assert.Error(t, service.SetLLMProvider(domain.AIProviderAnthropic, "", ""))
		assert.Error(t, service.SetLLMProvider("bogus", "", ""))
	})
}

func TestSettingsService_SetAzureEndpoint_RequiresEndpoint(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)

	assert.ErrorIs(t, service.SetAzureEndpoint("", ""), domain.ErrInvalidInput)
}

func TestSettingsService_Validate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		service := NewSettingsService(memory.NewConfigStore(), nil)

		assert.NoError(t, service.Validate())
	})

	t.Run("reports every problem", func(t *testing.T) {
		store := memory.NewConfigStore()
		_ = store.Set("retrieval.threshold", 2.0)
		_ = store.Set("embedding.provider", "openai")
		_ = store.Set("llm.provider", "azure")
		service := NewSettingsService(store, nil)

		err := service.Validate()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "threshold")
		assert.Contains(t, err.Error(), "embedding provider")
		assert.Contains(t, err.Error(), "LLM provider")
	})
}

func TestSettingsService_ValidateConfigs(t *testing.T) {
	t.Run("no validator", func(t *testing.T) {
		service := NewSettingsService(memory.NewConfigStore(), nil)

		assert.NoError(t, service.ValidateEmbeddingConfig())
		assert.NoError(t, service.ValidateLLMConfig())
	})

	t.Run("delegates to validator", func(t *testing.T) {
		pingErr := errors.New("unreachable")
		validator := &mockAIValidator{embeddingErr: pingErr}
		service := NewSettingsService(memory.NewConfigStore(), validator)

		assert.ErrorIs(t, service.ValidateEmbeddingConfig(), pingErr)
		require.NoError(t, service.ValidateLLMConfig())
		require.NotNil(t, validator.lastLLM)
		assert.Equal(t, domain.AIProviderOllama, validator.lastLLM.Provider)
	})
}

func TestSettingsService_GetDefaults(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)

	assert.Equal(t, domain.DefaultAppSettings(), service.GetDefaults())
}
