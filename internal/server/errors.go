package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/idea-studio/internal/ideas"
)

// genericFailure is the only detail clients see for non-validation failures.
const genericFailure = "could not generate ideas right now"

// ErrGenerationNotFound indicates no history record has the ID
type ErrGenerationNotFound struct {
	ID uuid.UUID
}

func (e *ErrGenerationNotFound) Error() string {
	return fmt.Sprintf("generation not found: %s", e.ID)
}

// ErrValidation indicates a malformed path or query parameter
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		requestErr  *ideas.ValidationError
		paramErr    *ErrValidation
		notFoundErr *ErrGenerationNotFound
	)
	switch {
	case errors.As(err, &requestErr), errors.As(err, &paramErr):
		return http.StatusBadRequest
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
