package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ErrSessionNotFound is returned when a session id is unknown or expired.
var ErrSessionNotFound = errors.New("session not found")

// SessionsRepository persists encoded browser sessions.
type SessionsRepository interface {
	Find(ctx context.Context, id string) (string, error)
	Upsert(ctx context.Context, id, data string, expiresAt time.Time) error
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// PGXSessionsRepository implements SessionsRepository with pgx.
type PGXSessionsRepository struct {
	pool DBTX
}

// NewPGXSessionsRepository instantiates a sessions repository.
func NewPGXSessionsRepository(pool DBTX) *PGXSessionsRepository {
	return &PGXSessionsRepository{pool: pool}
}

// Find returns the encoded payload of a live session.
func (r *PGXSessionsRepository) Find(ctx context.Context, id string) (string, error) {
	var data string
	err := r.pool.QueryRow(ctx, `SELECT data FROM sessions WHERE id = $1 AND expires_at > NOW()`, id).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrSessionNotFound
		}
		return "", fmt.Errorf("query session: %w", err)
	}
	return data, nil
}

// Upsert stores the payload and pushes the expiry forward.
func (r *PGXSessionsRepository) Upsert(ctx context.Context, id, data string, expiresAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
        INSERT INTO sessions (id, data, expires_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, expires_at = EXCLUDED.expires_at, updated_at = NOW()
    `, id, data, expiresAt)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

// Delete removes a session; unknown ids are not an error.
func (r *PGXSessionsRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpired purges sessions past their expiry and reports how many were removed.
func (r *PGXSessionsRepository) DeleteExpired(ctx context.Context) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return cmd.RowsAffected(), nil
}
