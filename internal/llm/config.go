// Package llm provides centralized LLM configuration and client abstractions.
// A single Client interface hides which text-generation backend is selected.
package llm

import "strings"

// Provider represents an LLM provider
type Provider string

// Provider constants define supported LLM providers
const (
	// ProviderOpenAI is any OpenAI-compatible chat completions endpoint
	ProviderOpenAI Provider = "openai"
	// ProviderGemini is the Google Gemini provider
	ProviderGemini Provider = "gemini"
	// ProviderToolkit is a hosted toolkit that exposes a plain text-completion endpoint
	ProviderToolkit Provider = "toolkit"
)

// Default values applied by Normalize.
const (
	DefaultTemperature    = 0.7
	DefaultMaxTokens      = 4096
	DefaultOpenAIBaseURL  = "https://api.openai.com/v1"
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultGeminiModel    = "gemini-2.5-flash"
	DefaultToolkitBaseURL = "https://toolkit.rork.com"
)

// Config holds the provider configuration for the application
type Config struct {
	Provider    Provider
	BaseURL     string
	Model       string
	APIKey      string
	Temperature float64
	MaxTokens   int
}

// DefaultConfig returns the default configuration (OpenAI-compatible)
func DefaultConfig() *Config {
	return &Config{
		Provider:    ProviderOpenAI,
		BaseURL:     DefaultOpenAIBaseURL,
		Model:       DefaultOpenAIModel,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
	}
}

// Normalize returns a copy of the config with provider-specific defaults filled in.
// The API key is never defaulted.
func (c Config) Normalize() Config {
	c.Provider = Provider(strings.ToLower(strings.TrimSpace(string(c.Provider))))
	if c.Provider == "" {
		c.Provider = ProviderOpenAI
	}
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")

	switch c.Provider {
	case ProviderOpenAI:
		if c.BaseURL == "" {
			c.BaseURL = DefaultOpenAIBaseURL
		}
		if c.Model == "" {
			c.Model = DefaultOpenAIModel
		}
	case ProviderGemini:
		if c.Model == "" {
			c.Model = DefaultGeminiModel
		}
	case ProviderToolkit:
		if c.BaseURL == "" {
			c.BaseURL = DefaultToolkitBaseURL
		}
	}

	if c.Temperature == 0 {
		c.Temperature = DefaultTemperature
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	return c
}

// WithModel returns a new Config with a different model
func (c *Config) WithModel(model string) *Config {
	newConfig := *c
	newConfig.Model = model
	return &newConfig
}
