package llm

import (
	"context"
	"fmt"
	"strings"
)

// Role identifies the author of a chat message
type Role string

// Message roles understood by every provider
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single chat turn sent to the provider
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// TextRequest asks for a free-text completion.
// Zero Temperature/MaxTokens fall back to the client's configured values.
type TextRequest struct {
	Messages    []Message
	Temperature *float64
	MaxTokens   int
}

// StructuredRequest asks the provider to constrain its output to a JSON Schema.
type StructuredRequest struct {
	TextRequest
	SchemaName string
	Schema     map[string]any
}

// Client is an abstraction over LLM providers
type Client interface {
	// GenerateText returns the raw completion text
	GenerateText(ctx context.Context, req TextRequest) (string, error)
	// GenerateStructured returns JSON text produced in the provider's schema-guided mode
	GenerateStructured(ctx context.Context, req StructuredRequest) (string, error)
	// Provider reports which backend this client talks to
	Provider() Provider
	// Close releases any resources held by the client
	Close() error
}

// NewClient creates a new LLM client based on configuration.
// Misconfiguration is reported as *ConfigurationError without touching the network.
func NewClient(ctx context.Context, config *Config) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	cfg := config.Normalize()

	// Return an untyped nil on error.
	switch cfg.Provider {
	case ProviderOpenAI:
		c, err := NewOpenAIClient(cfg)
		if err != nil {
			return nil, err
		}
		return c, nil
	case ProviderGemini:
		c, err := NewGeminiClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return c, nil
	case ProviderToolkit:
		c, err := NewToolkitClient(cfg)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, &ConfigurationError{
			Provider: cfg.Provider,
			Field:    "provider",
			Message:  fmt.Sprintf("unsupported provider %q", cfg.Provider),
		}
	}
}

// requireField returns a ConfigurationError when value is blank
func requireField(provider Provider, field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ConfigurationError{Provider: provider, Field: field, Message: "is required"}
	}
	return nil
}

// resolveTemperature picks the request override or the configured default
func resolveTemperature(override *float64, fallback float64) float64 {
	if override != nil {
		return *override
	}
	return fallback
}

// resolveMaxTokens picks the request override or the configured default
func resolveMaxTokens(override, fallback int) int {
	if override > 0 {
		return override
	}
	return fallback
}

// splitSystem separates system instructions from the conversational turns
func splitSystem(messages []Message) (string, []Message) {
	var system []string
	var rest []Message
	for _, m := range messages {
		if m.Role == RoleSystem {
			if s := strings.TrimSpace(m.Content); s != "" {
				system = append(system, s)
			}
			continue
		}
		rest = append(rest, m)
	}
	return strings.Join(system, "\n\n"), rest
}
