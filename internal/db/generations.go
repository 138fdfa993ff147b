package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Paging limits for ListGenerations
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

const generationColumns = `id, niche, request, status, provider, error_kind, error_message,
	idea_count, result, created_at, completed_at`

// CreateGeneration records the start of a run and returns its ID
func (db *DB) CreateGeneration(ctx context.Context, niche, provider string, request any) (uuid.UUID, error) {
	requestJSON, err := json.Marshal(request)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var id uuid.UUID
	err = db.pool.QueryRow(ctx,
		`INSERT INTO generation_runs (niche, provider, request, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		niche, provider, requestJSON, StatusRunning,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create generation: %w", err)
	}
	return id, nil
}

// CompleteGeneration stores the result of a successful run
func (db *DB) CompleteGeneration(ctx context.Context, id uuid.UUID, ideaCount int, result any) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`UPDATE generation_runs
		 SET status = $1, idea_count = $2, result = $3, completed_at = NOW()
		 WHERE id = $4`,
		StatusSucceeded, ideaCount, resultJSON, id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete generation: %w", err)
	}
	return nil
}

// FailGeneration marks a run as failed with a classified error
func (db *DB) FailGeneration(ctx context.Context, id uuid.UUID, kind, message string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE generation_runs
		 SET status = $1, error_kind = $2, error_message = $3, completed_at = NOW()
		 WHERE id = $4`,
		StatusFailed, kind, message, id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark generation failed: %w", err)
	}
	return nil
}

// GetGeneration retrieves one run. It returns nil, nil when no run has the ID.
func (db *DB) GetGeneration(ctx context.Context, id uuid.UUID) (*Generation, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+generationColumns+` FROM generation_runs WHERE id = $1`, id)

	g, err := scanGeneration(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get generation: %w", err)
	}
	return g, nil
}

// ListGenerations returns runs newest first
func (db *DB) ListGenerations(ctx context.Context, limit, offset int) ([]Generation, error) {
	limit, offset = ClampPage(limit, offset)

	rows, err := db.pool.Query(ctx,
		`SELECT `+generationColumns+` FROM generation_runs
		 ORDER BY created_at DESC
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list generations: %w", err)
	}
	defer rows.Close()

	generations := []Generation{}
	for rows.Next() {
		g, err := scanGeneration(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan generation: %w", err)
		}
		generations = append(generations, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list generations: %w", err)
	}
	return generations, nil
}

// ClampPage bounds paging parameters to sane values.
func ClampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func scanGeneration(row pgx.Row) (*Generation, error) {
	var g Generation
	var requestJSON, resultJSON []byte
	if err := row.Scan(&g.ID, &g.Niche, &requestJSON, &g.Status, &g.Provider,
		&g.ErrorKind, &g.ErrorMessage, &g.IdeaCount, &resultJSON,
		&g.CreatedAt, &g.CompletedAt); err != nil {
		return nil, err
	}
	g.Request = requestJSON
	if resultJSON != nil {
		g.Result = resultJSON
	}
	return &g, nil
}
