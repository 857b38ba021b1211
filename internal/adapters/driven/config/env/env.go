// Package env overlays environment variables onto application settings.
package env

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/logger"
)

// Recognised variables.
const (
	IndexPath           = "DOCRAG_INDEX_PATH"
	MetadataPath        = "DOCRAG_METADATA_PATH"
	RetrievalTopK       = "RETRIEVAL_TOP_K"
	SimilarityThreshold = "SIMILARITY_THRESHOLD"
	EmbeddingsModel     = "EMBEDDINGS_MODEL"
	AzureAPIKey         = "AZURE_OPENAI_API_KEY"
	AzureEndpoint       = "AZURE_OPENAI_ENDPOINT"
	AzureDeployment     = "AZURE_OPENAI_DEPLOYMENT"
	AzureAPIVersion     = "AZURE_OPENAI_API_VERSION"
	OpenAIAPIKey        = "OPENAI_API_KEY"
	AnthropicAPIKey     = "ANTHROPIC_API_KEY"
	LLMRequestsPerSec   = "LLM_REQUESTS_PER_SECOND"
	LogLevel            = "LOG_LEVEL"
	LogDir              = "LOG_DIR"
	APIHost             = "API_HOST"
	APIPort             = "API_PORT"
)

// LoadDotEnv loads variables from the given files, or ./.env when none are
// given. Variables already set in the process win. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
		logger.Debug("Loaded environment from %s", p)
	}
	return nil
}

// Apply overrides settings with any recognised variables that are set.
// Malformed numbers are logged and ignored.
func Apply(s *domain.AppSettings) {
	if v, ok := lookup(IndexPath); ok {
		s.Corpus.IndexPath = v
	}
	if v, ok := lookup(MetadataPath); ok {
		s.Corpus.MetadataPath = v
	}

	if n, ok := lookupInt(RetrievalTopK); ok && n > 0 {
		s.Retrieval.TopK = n
	}
	if f, ok := lookupFloat(SimilarityThreshold); ok {
		s.Retrieval.Threshold = f
	}

	if v, ok := lookup(EmbeddingsModel); ok {
		s.Embedding.Model = v
		s.Embedding.Dimensions = 0
	}
	if v, ok := lookup(OpenAIAPIKey); ok {
		if s.Embedding.Provider == domain.AIProviderOpenAI {
			s.Embedding.APIKey = v
		}
		if s.LLM.Provider == domain.AIProviderOpenAI {
			s.LLM.APIKey = v
		}
	}

	applyAzure(&s.LLM)
	if v, ok := lookup(AnthropicAPIKey); ok && s.LLM.Provider == domain.AIProviderAnthropic {
		s.LLM.APIKey = v
	}
	if f, ok := lookupFloat(LLMRequestsPerSec); ok && f >= 0 {
		s.LLM.RequestsPerSecond = f
	}

	if v, ok := lookup(LogLevel); ok {
		s.Log.Level = strings.ToUpper(v)
	}
	if v, ok := lookup(LogDir); ok {
		s.Log.Dir = v
	}
	if v, ok := lookup(APIHost); ok {
		s.Server.Host = v
	}
	if n, ok := lookupInt(APIPort); ok && n > 0 && n < 65536 {
		s.Server.Port = n
	}
}

// applyAzure switches generation to Azure OpenAI when an endpoint is set.
func applyAzure(l *domain.LLMSettings) {
	endpoint, ok := lookup(AzureEndpoint)
	if !ok {
		if l.Provider != domain.AIProviderAzure {
			return
		}
		endpoint = l.BaseURL
	}

	if l.Provider != domain.AIProviderAzure {
		l.Provider = domain.AIProviderAzure
		l.Model = domain.DefaultLLMModels()[domain.AIProviderAzure]
		l.APIKey = ""
	}
	l.BaseURL = endpoint
	if v, ok := lookup(AzureAPIKey); ok {
		l.APIKey = v
	}
	if v, ok := lookup(AzureDeployment); ok {
		l.Model = v
	}
	if v, ok := lookup(AzureAPIVersion); ok {
		l.APIVersion = v
	}
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func lookupInt(key string) (int, bool) {
	v, ok := lookup(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logger.Warn("Ignoring %s=%q: not an integer", key, v)
		return 0, false
	}
	return n, true
}

func lookupFloat(key string) (float64, bool) {
	v, ok := lookup(key)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		logger.Warn("Ignoring %s=%q: not a number", key, v)
		return 0, false
	}
	return f, true
}
