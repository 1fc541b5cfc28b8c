package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// InteractionRepo is the session log of answered queries.
type InteractionRepo struct {
	db *sql.DB
}

// NewInteractionRepo creates a new InteractionRepo.
func NewInteractionRepo(db *sql.DB) *InteractionRepo {
	return &InteractionRepo{db: db}
}

// Record appends one interaction and sets its ID.
func (r *InteractionRepo) Record(ctx context.Context, in *Interaction) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO interactions (session_id, query, response, confidence) VALUES (?, ?, ?, ?)",
		in.SessionID, in.Query, in.Response, in.Confidence,
	)
	if err != nil {
		return fmt.Errorf("failed to record interaction: %w", err)
	}
	if in.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("failed to read interaction id: %w", err)
	}
	return nil
}

// ListBySession returns a session's interactions, oldest first.
func (r *InteractionRepo) ListBySession(ctx context.Context, sessionID string) ([]Interaction, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, session_id, query, response, confidence, created_at FROM interactions WHERE session_id = ? ORDER BY id",
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query interactions: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	out := []Interaction{}
	for rows.Next() {
		var in Interaction
		if err := rows.Scan(&in.ID, &in.SessionID, &in.Query, &in.Response, &in.Confidence, &in.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan interaction: %w", err)
		}
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return out, nil
}
