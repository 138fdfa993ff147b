package server

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/idea-studio/internal/ideas"
)

// validationResponse is the 400 body for a rejected request.
type validationResponse struct {
	Error  string             `json:"error"`
	Fields []ideas.FieldError `json:"fields,omitempty"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	requestID := RequestID(r.Context())

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		message := "request body could not be read"
		if errors.As(err, &tooLarge) {
			message = "request body is too large"
		}
		s.writeGenerateError(w, requestID, &ideas.ValidationError{
			Errors: []ideas.FieldError{{Field: "(root)", Message: message}},
		})
		return
	}

	req, err := ideas.ParseRequest(body)
	if err != nil {
		s.writeGenerateError(w, requestID, err)
		return
	}

	runID := s.recordStart(r.Context(), req)

	result, err := s.generator.Generate(r.Context(), *req)
	if err != nil {
		s.recordFailure(r.Context(), runID, err)
		s.writeGenerateError(w, requestID, err)
		return
	}

	s.recordSuccess(r.Context(), runID, result)
	log.Printf("[generate] request_id=%s niche=%q ideas=%d", requestID, req.Niche, len(result.Ideas))
	s.jsonResponse(w, http.StatusOK, result)
}

// writeGenerateError sends a 400 with field details or a generic 500.
func (s *Server) writeGenerateError(w http.ResponseWriter, requestID string, err error) {
	status := HTTPStatus(err)
	if status == http.StatusBadRequest {
		resp := validationResponse{Error: err.Error()}
		var validationErr *ideas.ValidationError
		if errors.As(err, &validationErr) {
			resp.Fields = validationErr.Errors
		}
		log.Printf("[generate] request_id=%s rejected: %v", requestID, err)
		s.jsonResponse(w, status, resp)
		return
	}

	log.Printf("[generate] request_id=%s kind=%s err=%v", requestID, ideas.ErrorKind(err), err)
	s.errorResponse(w, http.StatusInternalServerError, genericFailure)
}

// recordStart opens a history record. It returns uuid.Nil when history is
// disabled or the write failed.
func (s *Server) recordStart(ctx context.Context, req *ideas.GenerationRequest) uuid.UUID {
	if s.history == nil {
		return uuid.Nil
	}
	id, err := s.history.CreateGeneration(context.WithoutCancel(ctx), req.Niche, s.provider, req)
	if err != nil {
		log.Printf("[history] failed to record generation start: %v", err)
		return uuid.Nil
	}
	return id
}

func (s *Server) recordSuccess(ctx context.Context, id uuid.UUID, result *ideas.GenerationResult) {
	if id == uuid.Nil {
		return
	}
	if err := s.history.CompleteGeneration(context.WithoutCancel(ctx), id, len(result.Ideas), result); err != nil {
		log.Printf("[history] failed to complete generation %s: %v", id, err)
	}
}

func (s *Server) recordFailure(ctx context.Context, id uuid.UUID, cause error) {
	if id == uuid.Nil {
		return
	}
	if err := s.history.FailGeneration(context.WithoutCancel(ctx), id, ideas.ErrorKind(cause), cause.Error()); err != nil {
		log.Printf("[history] failed to record failure for generation %s: %v", id, err)
	}
}
