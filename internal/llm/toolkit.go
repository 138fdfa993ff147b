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

// toolkitJSONInstruction is appended to structured prompts because the toolkit
// endpoint has no native schema mode.
const toolkitJSONInstruction = "IMPORTANT: Respond ONLY with valid JSON, no additional text.\nThe JSON must follow exactly the requested structure."

// ToolkitClient implements Client for a hosted toolkit text endpoint.
// The endpoint takes {"messages": [...]} and answers {"completion": "..."}.
type ToolkitClient struct {
	config     Config
	httpClient *http.Client
}

// NewToolkitClient creates a new toolkit passthrough client.
// The toolkit needs no credential, only a base URL.
func NewToolkitClient(cfg Config) (*ToolkitClient, error) {
	c := &ToolkitClient{
		config:     cfg,
		httpClient: &http.Client{},
	}
	if err := requireField(ProviderToolkit, "base_url", cfg.BaseURL); err != nil {
		return nil, err
	}
	return c, nil
}

type toolkitRequest struct {
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type toolkitResponse struct {
	Completion string `json:"completion"`
}

// GenerateText posts the conversation and returns the completion text
func (c *ToolkitClient) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	log.Printf("[toolkit] Generating text with %d messages", len(req.Messages))
	return c.complete(ctx, c.newRequest(req.Messages, req))
}

// GenerateStructured folds every instruction into a single user prompt that
// spells out the schema, then returns the completion text.
func (c *ToolkitClient) GenerateStructured(ctx context.Context, req StructuredRequest) (string, error) {
	log.Printf("[toolkit] Generating object with %d messages", len(req.Messages))

	var parts []string
	for _, m := range req.Messages {
		if m.Role == RoleSystem || m.Role == RoleUser {
			if s := strings.TrimSpace(m.Content); s != "" {
				parts = append(parts, s)
			}
		}
	}
	if req.Schema != nil {
		schemaJSON, err := json.MarshalIndent(req.Schema, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal schema: %w", err)
		}
		parts = append(parts, "JSON Schema:\n"+string(schemaJSON))
	}
	parts = append(parts, toolkitJSONInstruction)

	folded := []Message{{Role: RoleUser, Content: strings.Join(parts, "\n\n")}}
	return c.complete(ctx, c.newRequest(folded, req.TextRequest))
}

// Provider returns ProviderToolkit
func (c *ToolkitClient) Provider() Provider {
	return ProviderToolkit
}

// Close is a no-op
func (c *ToolkitClient) Close() error {
	return nil
}

// newRequest pairs messages with the sampling settings of req or the config.
func (c *ToolkitClient) newRequest(messages []Message, req TextRequest) toolkitRequest {
	temperature := resolveTemperature(req.Temperature, c.config.Temperature)
	return toolkitRequest{
		Messages:    messages,
		Temperature: &temperature,
		MaxTokens:   resolveMaxTokens(req.MaxTokens, c.config.MaxTokens),
	}
}

func (c *ToolkitClient) complete(ctx context.Context, payload toolkitRequest) (string, error) {
	if err := requireField(ProviderToolkit, "base_url", c.config.BaseURL); err != nil {
		return "", err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal toolkit request: %w", err)
	}

	url := strings.TrimRight(c.config.BaseURL, "/") + "/text/llm/"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build toolkit request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", &ProviderError{Provider: ProviderToolkit, Message: "request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &ProviderError{Provider: ProviderToolkit, StatusCode: resp.StatusCode, Message: "failed to read response", Cause: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("[toolkit] Error: status %d", resp.StatusCode)
		return "", &ProviderError{
			Provider:   ProviderToolkit,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
			Message:    "non-2xx response",
		}
	}

	var out toolkitResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", &ProviderError{
			Provider:   ProviderToolkit,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
			Message:    "malformed completion body",
			Cause:      err,
		}
	}
	if strings.TrimSpace(out.Completion) == "" {
		return "", &ProviderError{Provider: ProviderToolkit, StatusCode: resp.StatusCode, Message: "empty completion"}
	}

	log.Printf("[toolkit] Generated text length: %d", len(out.Completion))
	return out.Completion, nil
}
