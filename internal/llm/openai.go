package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
)

// OpenAIClient implements Client for OpenAI-compatible chat completion endpoints
type OpenAIClient struct {
	config     Config
	httpClient *http.Client
}

// OpenAIOption configures an OpenAIClient
type OpenAIOption func(*OpenAIClient)

// WithHTTPClient swaps the HTTP client used for outbound calls
func WithHTTPClient(hc *http.Client) OpenAIOption {
	return func(c *OpenAIClient) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewOpenAIClient creates a new OpenAI-compatible client.
// An empty API key, base URL or model yields a *ConfigurationError.
func NewOpenAIClient(cfg Config, opts ...OpenAIOption) (*OpenAIClient, error) {
	if cfg.Provider == "" {
		cfg.Provider = ProviderOpenAI
	}
	c := &OpenAIClient{
		config:     cfg,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.checkConfig(); err != nil {
		return nil, err
	}
	return c, nil
}

type chatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type       string          `json:"type"`
	JSONSchema *jsonSchemaSpec `json:"json_schema,omitempty"`
}

type jsonSchemaSpec struct {
	Name   string         `json:"name"`
	Schema map[string]any `json:"schema"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// GenerateText sends the messages to /chat/completions and returns the first choice
func (c *OpenAIClient) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	log.Printf("[openai] Generating text with %d messages", len(req.Messages))
	return c.complete(ctx, req, nil)
}

// GenerateStructured asks for a JSON response. With a schema the json_schema
// response format is used, otherwise plain json_object mode.
func (c *OpenAIClient) GenerateStructured(ctx context.Context, req StructuredRequest) (string, error) {
	log.Printf("[openai] Generating structured output with %d messages", len(req.Messages))

	format := &responseFormat{Type: "json_object"}
	if req.Schema != nil {
		name := req.SchemaName
		if name == "" {
			name = "response"
		}
		format = &responseFormat{
			Type:       "json_schema",
			JSONSchema: &jsonSchemaSpec{Name: name, Schema: req.Schema},
		}
	}
	return c.complete(ctx, req.TextRequest, format)
}

// Provider returns ProviderOpenAI
func (c *OpenAIClient) Provider() Provider {
	return ProviderOpenAI
}

// Close is a no-op; the HTTP client owns no per-client resources
func (c *OpenAIClient) Close() error {
	return nil
}

func (c *OpenAIClient) checkConfig() error {
	if err := requireField(ProviderOpenAI, "api_key", c.config.APIKey); err != nil {
		return err
	}
	if err := requireField(ProviderOpenAI, "base_url", c.config.BaseURL); err != nil {
		return err
	}
	return requireField(ProviderOpenAI, "model", c.config.Model)
}

func (c *OpenAIClient) complete(ctx context.Context, req TextRequest, format *responseFormat) (string, error) {
	if err := c.checkConfig(); err != nil {
		return "", err
	}

	payload := chatCompletionRequest{
		Model:          c.config.Model,
		Messages:       req.Messages,
		Temperature:    resolveTemperature(req.Temperature, c.config.Temperature),
		MaxTokens:      resolveMaxTokens(req.MaxTokens, c.config.MaxTokens),
		ResponseFormat: format,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	url := strings.TrimRight(c.config.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", &ProviderError{Provider: ProviderOpenAI, Message: "request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &ProviderError{Provider: ProviderOpenAI, StatusCode: resp.StatusCode, Message: "failed to read response", Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("[openai] Error: status %d", resp.StatusCode)
		return "", &ProviderError{
			Provider:   ProviderOpenAI,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
			Message:    "non-2xx response",
		}
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(respBody, &completion); err != nil {
		return "", &ProviderError{
			Provider:   ProviderOpenAI,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
			Message:    "malformed completion body",
			Cause:      err,
		}
	}

	if len(completion.Choices) == 0 || strings.TrimSpace(completion.Choices[0].Message.Content) == "" {
		return "", &ProviderError{Provider: ProviderOpenAI, StatusCode: resp.StatusCode, Message: "empty completion"}
	}

	text := completion.Choices[0].Message.Content
	log.Printf("[openai] Generated text length: %d", len(text))
	return text, nil
}
