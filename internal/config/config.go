// Package config loads service configuration from an optional YAML file and
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jonathan/idea-studio/internal/llm"
)

// DefaultPath is read when no config path is given. It may be absent.
const DefaultPath = "config.yaml"

// ProviderConfig holds the connection settings of one LLM provider.
type ProviderConfig struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"api_key"`
}

// Config is the process-wide configuration, read once at startup.
type Config struct {
	Provider    string         `yaml:"provider" validate:"oneof=openai gemini toolkit"`
	OpenAI      ProviderConfig `yaml:"openai"`
	Gemini      ProviderConfig `yaml:"gemini"`
	Toolkit     ProviderConfig `yaml:"toolkit"`
	Temperature float64        `yaml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int            `yaml:"max_tokens" validate:"gte=1,lte=65536"`
	Mode        string         `yaml:"mode" validate:"oneof=text structured"`
	MaxIdeas    int            `yaml:"max_ideas" validate:"gte=1,lte=20"`

	Port        int    `yaml:"port" validate:"gte=1,lte=65535"`
	DatabaseURL string `yaml:"database_url"`

	JWTSecret          string `yaml:"jwt_secret"`
	JWTExpirationHours int    `yaml:"jwt_expiration_hours" validate:"gte=1"`
}

// Default returns the configuration used before the file and environment are applied.
func Default() *Config {
	return &Config{
		Provider:           string(llm.ProviderOpenAI),
		Temperature:        llm.DefaultTemperature,
		MaxTokens:          llm.DefaultMaxTokens,
		Mode:               "text",
		MaxIdeas:           20,
		Port:               8080,
		JWTExpirationHours: 24,
	}
}

// Load reads path (or IDEAS_CONFIG, or config.yaml), applies environment
// overrides and validates the result. A missing file is only an error when
// the path was given explicitly.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = os.Getenv("IDEAS_CONFIG")
		explicit = path != ""
	}
	if path == "" {
		path = DefaultPath
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// defaults and environment only
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	cfg.Mode = strings.ToLower(strings.TrimSpace(cfg.Mode))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Provider, "AI_PROVIDER")
	setString(&c.OpenAI.APIKey, "OPENAI_API_KEY")
	setString(&c.OpenAI.BaseURL, "OPENAI_BASE_URL")
	setString(&c.OpenAI.Model, "OPENAI_MODEL")
	setString(&c.Gemini.APIKey, "GEMINI_API_KEY")
	setString(&c.Gemini.BaseURL, "GEMINI_BASE_URL")
	setString(&c.Gemini.Model, "GEMINI_MODEL")
	setString(&c.Toolkit.BaseURL, "EXPO_PUBLIC_TOOLKIT_URL")
	setString(&c.Toolkit.BaseURL, "TOOLKIT_URL")
	setString(&c.Toolkit.APIKey, "TOOLKIT_API_KEY")
	setString(&c.Mode, "AI_MODE")
	setString(&c.DatabaseURL, "DATABASE_URL")
	setString(&c.JWTSecret, "JWT_SECRET")

	if err := setFloat(&c.Temperature, "AI_TEMPERATURE"); err != nil {
		return err
	}
	for key, dst := range map[string]*int{
		"AI_MAX_TOKENS":        &c.MaxTokens,
		"MAX_IDEAS":            &c.MaxIdeas,
		"PORT":                 &c.Port,
		"JWT_EXPIRATION_HOURS": &c.JWTExpirationHours,
	} {
		if err := setInt(dst, key); err != nil {
			return err
		}
	}
	return nil
}

func setString(dst *string, key string) {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		*dst = value
	}
}

func setInt(dst *int, key string) error {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("config error: invalid %s %q: %w", key, value, err)
	}
	*dst = n
	return nil
}

func setFloat(dst *float64, key string) error {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("config error: invalid %s %q: %w", key, value, err)
	}
	*dst = f
	return nil
}

// Validate checks value ranges. Credentials are checked later by the LLM
// client so that commands which never call a provider still start.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("config error: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("'%s' failed %s=%s (got %v)", yamlName(fe.Field()), fe.Tag(), fe.Param(), fe.Value()))
	}
	return fmt.Errorf("config error: %s", strings.Join(msgs, "; "))
}

var yamlNames = map[string]string{
	"Provider":           "provider",
	"Temperature":        "temperature",
	"MaxTokens":          "max_tokens",
	"Mode":               "mode",
	"MaxIdeas":           "max_ideas",
	"Port":               "port",
	"JWTExpirationHours": "jwt_expiration_hours",
}

func yamlName(field string) string {
	if name, ok := yamlNames[field]; ok {
		return name
	}
	return field
}

// LLMConfig returns the client settings of the selected provider.
func (c *Config) LLMConfig() *llm.Config {
	provider := llm.Provider(c.Provider)

	var pc ProviderConfig
	switch provider {
	case llm.ProviderGemini:
		pc = c.Gemini
	case llm.ProviderToolkit:
		pc = c.Toolkit
	default:
		pc = c.OpenAI
	}

	return &llm.Config{
		Provider:    provider,
		BaseURL:     pc.BaseURL,
		Model:       pc.Model,
		APIKey:      pc.APIKey,
		Temperature: c.Temperature,
		MaxTokens:   c.MaxTokens,
	}
}
