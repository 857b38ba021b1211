// Package anthropic implements LLMService over the Anthropic Messages API.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

var _ driven.LLMService = (*LLMService)(nil)

const (
	DefaultBaseURL = "https://api.anthropic.com"
	DefaultModel   = "claude-3-5-sonnet-latest"
	DefaultTimeout = 120 * time.Second

	// DefaultMaxTokens is used when the caller leaves MaxTokens unset;
	// the API rejects requests without it.
	DefaultMaxTokens = 1024

	anthropicVersion = "2023-06-01"

	// statusOverloaded is returned when the API is temporarily at capacity.
	statusOverloaded = 529
)

// Config configures an LLMService. APIKey is required.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// LLMService sends one user turn per request, with the system prompt in
// the top-level system field.
type LLMService struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

type messagesMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model       string            `json:"model"`
	System      string            `json:"system,omitempty"`
	Messages    []messagesMessage `json:"messages"`
	MaxTokens   int               `json:"max_tokens"`
	Temperature float64           `json:"temperature"`
	StopSeqs    []string          `json:"stop_sequences,omitempty"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type messagesResponse struct {
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
	Error      *apiError      `json:"error,omitempty"`
}

// NewLLMService validates cfg and fills in defaults.
func NewLLMService(cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &LLMService{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}, nil
}

func (s *LLMService) Generate(ctx context.Context, systemPrompt, userPrompt string, opts driven.GenerateOptions) (string, error) {
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	payload, err := json.Marshal(messagesRequest{
		Model:       s.model,
		System:      systemPrompt,
		Messages:    []messagesMessage{{Role: "user", Content: userPrompt}},
		MaxTokens:   maxTokens,
		Temperature: opts.Temperature,
		StopSeqs:    opts.StopWords,
	})
	if err != nil {
		return "", fmt.Errorf("anthropic: encode request: %w", err)
	}

	status, body, err := s.send(ctx, http.MethodPost, "/v1/messages", payload)
	if err != nil {
		return "", err
	}

	var resp messagesResponse
	decodeErr := json.Unmarshal(body, &resp)
	if status != http.StatusOK {
		return "", statusError(status, resp.Error, body)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("anthropic: decode response: %w", decodeErr)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", errors.New("anthropic: response has no text content")
	}
	return text.String(), nil
}

func (s *LLMService) ModelName() string {
	return s.model
}

// Ping lists models, which checks both reachability and the API key.
func (s *LLMService) Ping(ctx context.Context) error {
	status, body, err := s.send(ctx, http.MethodGet, "/v1/models", nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		var resp messagesResponse
		_ = json.Unmarshal(body, &resp)
		return statusError(status, resp.Error, body)
	}
	return nil
}

func (s *LLMService) Close() error {
	return nil
}

func (s *LLMService) send(ctx context.Context, method, path string, payload []byte) (int, []byte, error) {
	var body io.Reader = http.NoBody
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return 0, nil, fmt.Errorf("anthropic: build request: %w", err)
	}
	req.Header.Set("x-api-key", s.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: anthropic: %w", domain.ErrLLMUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("anthropic: read response: %w", err)
	}
	return resp.StatusCode, data, nil
}

// statusError maps a non-200 response onto the domain errors callers
// branch on.
func statusError(status int, apiErr *apiError, body []byte) error {
	msg := strings.TrimSpace(string(body))
	if apiErr != nil {
		msg = apiErr.Type + ": " + apiErr.Message
	}

	switch status {
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: anthropic: %s", domain.ErrRateLimited, msg)
	case http.StatusUnauthorized, http.StatusForbidden, statusOverloaded:
		return fmt.Errorf("%w: anthropic: status %d: %s", domain.ErrLLMUnavailable, status, msg)
	default:
		return fmt.Errorf("anthropic: status %d: %s", status, msg)
	}
}
