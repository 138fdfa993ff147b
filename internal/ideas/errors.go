package ideas

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jonathan/idea-studio/internal/llm"
)

// Error kinds reported by ErrorKind.
const (
	KindValidation    = "validation"
	KindConfiguration = "configuration"
	KindProvider      = "provider"
	KindParse         = "parse"
	KindSchema        = "schema"
	KindCanceled      = "canceled"
	KindUnknown       = "unknown"
)

// FieldError names one offending field and what is wrong with it.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports every problem found in a request.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	return "invalid request: " + joinFieldErrors(e.Errors)
}

// ParseError means no JSON value could be recovered from the provider output.
type ParseError struct {
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// SchemaError means the provider output was JSON but not a valid result.
type SchemaError struct {
	Violations []FieldError
}

func (e *SchemaError) Error() string {
	return "result does not match schema: " + joinFieldErrors(e.Violations)
}

func joinFieldErrors(errs []FieldError) string {
	parts := make([]string, 0, len(errs))
	for _, fe := range errs {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return strings.Join(parts, "; ")
}

// ErrorKind classifies a pipeline error for logs and history records.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}

	var (
		validationErr *ValidationError
		configErr     *llm.ConfigurationError
		providerErr   *llm.ProviderError
		parseErr      *ParseError
		schemaErr     *SchemaError
	)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	case errors.As(err, &validationErr):
		return KindValidation
	case errors.As(err, &configErr):
		return KindConfiguration
	case errors.As(err, &providerErr):
		return KindProvider
	case errors.As(err, &parseErr):
		return KindParse
	case errors.As(err, &schemaErr):
		return KindSchema
	default:
		return KindUnknown
	}
}
