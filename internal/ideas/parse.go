package ideas

import (
	"encoding/json"
	"errors"
	"log"

	"github.com/jonathan/idea-studio/internal/llm"
	"github.com/jonathan/idea-studio/internal/schemas"
)

// ParseResult recovers a GenerationResult from raw provider output.
// Ideas beyond count are dropped; a count of zero or less keeps them all.
func ParseResult(raw string, count int) (*GenerationResult, error) {
	text, err := llm.ExtractJSON(raw)
	if err != nil {
		return nil, &ParseError{Message: "no JSON value in provider output", Cause: err}
	}

	var doc any
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return nil, &ParseError{Message: "provider output is not valid JSON", Cause: err}
	}

	// Some models answer with the ideas array alone.
	if list, ok := doc.([]any); ok {
		doc = map[string]any{"ideas": list}
	}

	if err := schemas.Validate(schemas.IdeasOutput, doc); err != nil {
		return nil, toSchemaError(err)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, &ParseError{Message: "failed to re-encode result", Cause: err}
	}
	var result GenerationResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, &ParseError{Message: "failed to decode result", Cause: err}
	}

	if count > 0 {
		switch {
		case len(result.Ideas) > count:
			result.Ideas = result.Ideas[:count]
		case len(result.Ideas) < count:
			log.Printf("[generate] provider returned %d of %d requested ideas", len(result.Ideas), count)
		}
	}

	return &result, nil
}

// ValidateDocument checks data as a finished result document. Unlike
// ParseResult it tolerates no fences, prose or bare ideas array.
func ValidateDocument(data []byte) (*GenerationResult, error) {
	if !json.Valid(data) {
		return nil, &ParseError{Message: "document is not valid JSON"}
	}
	if err := schemas.ValidateJSON(schemas.IdeasOutput, data); err != nil {
		return nil, toSchemaError(err)
	}

	var result GenerationResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, &ParseError{Message: "failed to decode result", Cause: err}
	}
	return &result, nil
}

func toSchemaError(err error) error {
	var validationErr *schemas.ValidationError
	if !errors.As(err, &validationErr) {
		return err
	}
	schemaErr := &SchemaError{Violations: make([]FieldError, 0, len(validationErr.Errors))}
	for _, fe := range validationErr.Errors {
		schemaErr.Violations = append(schemaErr.Violations, FieldError{Field: fe.Field, Message: fe.Message})
	}
	return schemaErr
}
