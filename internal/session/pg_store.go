package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gatehouse/gatehouse/internal/shared"
)

// PGStore persists {user_id, session_id} pairs in the user_sessions table.
// Unlike Redis the table has no native TTL; the sweep job handles eviction.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore constructs a PGStore.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// Save records the session pair.
func (s *PGStore) Save(ctx context.Context, sessionID string, record Record, _ time.Duration) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO user_sessions (session_id, user_id, created_at)
VALUES ($1, $2, $3)
ON CONFLICT (session_id) DO UPDATE SET user_id = EXCLUDED.user_id, created_at = EXCLUDED.created_at`,
		sessionID, record.UserID, record.CreatedAt)
	if err != nil {
		return fmt.Errorf("session/pg: save: %w", err)
	}
	return nil
}

// Find loads the session pair.
func (s *PGStore) Find(ctx context.Context, sessionID string) (Record, error) {
	var record Record
	err := s.pool.QueryRow(ctx, `SELECT user_id, created_at FROM user_sessions WHERE session_id = $1`,
		sessionID).Scan(&record.UserID, &record.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, shared.ErrInvalidSession
		}
		return Record{}, fmt.Errorf("session/pg: find: %w", err)
	}
	return record, nil
}

// Delete removes the session pair.
func (s *PGStore) Delete(ctx context.Context, sessionID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM user_sessions WHERE session_id = $1`, sessionID)
	if err != nil {
		return fmt.Errorf("session/pg: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrInvalidSession
	}
	return nil
}

// SweepExpired deletes session rows older than ttl, returning the count
// removed. A ttl <= 0 deletes nothing.
func (s *PGStore) SweepExpired(ctx context.Context, ttl time.Duration) (int, error) {
	if ttl <= 0 {
		return 0, nil
	}
	cutoff := time.Now().UTC().Add(-ttl)
	tag, err := s.pool.Exec(ctx, `DELETE FROM user_sessions WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("session/pg: sweep: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

var _ Store = (*PGStore)(nil)
