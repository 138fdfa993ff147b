package db

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Generation status values
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Generation is one recorded pipeline invocation.
type Generation struct {
	ID           uuid.UUID       `json:"id"`
	Niche        string          `json:"niche"`
	Request      json.RawMessage `json:"request"`
	Status       string          `json:"status"`
	Provider     string          `json:"provider,omitempty"`
	ErrorKind    *string         `json:"error_kind,omitempty"`
	ErrorMessage *string         `json:"error_message,omitempty"`
	IdeaCount    int             `json:"idea_count"`
	Result       json.RawMessage `json:"result,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
}

// Finished reports whether the run reached a terminal status.
func (g *Generation) Finished() bool {
	return g.Status == StatusSucceeded || g.Status == StatusFailed
}

// Duration returns how long a finished run took, or zero.
func (g *Generation) Duration() time.Duration {
	if g.CompletedAt == nil {
		return 0
	}
	return g.CompletedAt.Sub(g.CreatedAt)
}
