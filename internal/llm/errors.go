package llm

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// ConfigurationError indicates the provider cannot be used with the current settings.
// It is always returned before any network call is attempted.
type ConfigurationError struct {
	Provider Provider
	Field    string
	Message  string
}

func (e *ConfigurationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s provider misconfigured: %s: %s", e.Provider, e.Field, e.Message)
	}
	return fmt.Sprintf("%s provider misconfigured: %s", e.Provider, e.Message)
}

// ProviderError indicates the generation backend failed or answered with a non-2xx status.
// StatusCode is zero for transport failures.
type ProviderError struct {
	Provider   Provider
	StatusCode int
	Body       string
	Message    string
	Cause      error
}

func (e *ProviderError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "request failed"
	}
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Body != "" {
		msg = fmt.Sprintf("%s: %s", msg, truncate(e.Body, 512))
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s API error: %s: %v", e.Provider, msg, e.Cause)
	}
	return fmt.Sprintf("%s API error: %s", e.Provider, msg)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// Errors returned by ExtractJSON.
var (
	ErrNoJSON     = errors.New("no JSON object or array found")
	ErrUnbalanced = errors.New("unbalanced brackets in JSON")
)

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
