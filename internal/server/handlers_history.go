package server

import (
	"log"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/jonathan/idea-studio/internal/db"
)

func (s *Server) handleListGenerations(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", db.DefaultListLimit)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	limit, offset = db.ClampPage(limit, offset)

	generations, err := s.history.ListGenerations(r.Context(), limit, offset)
	if err != nil {
		log.Printf("[history] list failed: %v", err)
		s.errorResponse(w, http.StatusInternalServerError, "could not list generations")
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"generations": generations,
		"limit":       limit,
		"offset":      offset,
	})
}

func (s *Server) handleGetGeneration(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		paramErr := &ErrValidation{Field: "id", Message: "must be a UUID"}
		s.errorResponse(w, HTTPStatus(paramErr), paramErr.Error())
		return
	}

	generation, err := s.history.GetGeneration(r.Context(), id)
	if err != nil {
		log.Printf("[history] get %s failed: %v", id, err)
		s.errorResponse(w, http.StatusInternalServerError, "could not load generation")
		return
	}
	if generation == nil {
		notFound := &ErrGenerationNotFound{ID: id}
		s.errorResponse(w, HTTPStatus(notFound), notFound.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, generation)
}

// queryInt reads a non-negative integer query parameter.
func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, &ErrValidation{Field: name, Message: "must be a non-negative integer"}
	}
	return n, nil
}
