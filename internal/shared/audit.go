package shared

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditEntry represents a record stored in audit_logs.
type AuditEntry struct {
	ActorID int64
	Action  string
	Meta    map[string]any
	At      time.Time
}

// AuditLogger writes authentication events into audit_logs.
type AuditLogger struct {
	pool *pgxpool.Pool
}

// NewAuditLogger constructs an AuditLogger. A nil pool disables recording.
func NewAuditLogger(pool *pgxpool.Pool) *AuditLogger {
	return &AuditLogger{pool: pool}
}

// Record persists a single audit entry. Recording is best-effort from the
// caller's point of view; failures surface as errors but must not abort the
// authentication flow itself.
func (a *AuditLogger) Record(ctx context.Context, entry AuditEntry) error {
	if a == nil || a.pool == nil {
		return nil
	}
	meta := entry.Meta
	if meta == nil {
		meta = map[string]any{}
	}
	payload, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	at := entry.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	_, err = a.pool.Exec(ctx, `INSERT INTO audit_logs (actor_id, action, meta, at)
VALUES ($1, $2, $3, $4)`, entry.ActorID, entry.Action, payload, at)
	return err
}
