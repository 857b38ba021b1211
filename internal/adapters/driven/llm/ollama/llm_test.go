package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

func TestNewLLMService_Defaults(t *testing.T) {
	svc := NewLLMService(LLMConfig{})

	assert.Equal(t, DefaultLLMModel, svc.ModelName())
	assert.Equal(t, domain.DefaultOllamaURL, svc.baseURL)
}

func TestNewLLMService_TrimsTrailingSlash(t *testing.T) {
	svc := NewLLMService(LLMConfig{BaseURL: "http://gpu-box:11434/", Model: "mistral"})

	assert.Equal(t, "http://gpu-box:11434", svc.baseURL)
	assert.Equal(t, "mistral", svc.ModelName())
}

func TestGenerate(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"grounded answer"},"done":true}`))
	}))
	defer server.Close()

	svc := NewLLMService(LLMConfig{BaseURL: server.URL})
	answer, err := svc.Generate(context.Background(), "system rules", "context and question", driven.GenerateOptions{
		MaxTokens:   200,
		Temperature: 0,
	})

	require.NoError(t, err)
	assert.Equal(t, "grounded answer", answer)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, chatMessage{Role: "system", Content: "system rules"}, got.Messages[0])
	assert.Equal(t, chatMessage{Role: "user", Content: "context and question"}, got.Messages[1])
	assert.False(t, got.Stream)
	require.NotNil(t, got.Options)
	assert.Equal(t, 200, got.Options.NumPredict)
	require.NotNil(t, got.Options.Temperature, "zero temperature is sent explicitly")
	assert.Zero(t, *got.Options.Temperature)
}

func TestGenerate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"rate limited", http.StatusTooManyRequests, "busy", domain.ErrRateLimited},
		{"server error", http.StatusInternalServerError, "boom", nil},
		{"model missing", http.StatusNotFound, `{"error":"model not found"}`, domain.ErrLLMUnavailable},
		{"model error", http.StatusOK, `{"error":"model 'x' not found"}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			svc := NewLLMService(LLMConfig{BaseURL: server.URL})
			_, err := svc.Generate(context.Background(), "s", "u", driven.GenerateOptions{})

			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestGenerate_Unreachable(t *testing.T) {
	svc := NewLLMService(LLMConfig{BaseURL: "http://127.0.0.1:1"})

	_, err := svc.Generate(context.Background(), "s", "u", driven.GenerateOptions{})

	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc := NewLLMService(LLMConfig{BaseURL: server.URL})

	assert.NoError(t, svc.Ping(context.Background()))
	assert.NoError(t, svc.Close())
}

func TestPing_Unhealthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	svc := NewLLMService(LLMConfig{BaseURL: server.URL})

	assert.ErrorIs(t, svc.Ping(context.Background()), domain.ErrLLMUnavailable)
}
