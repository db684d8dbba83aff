package session

import (
	"context"
	"time"
)

// Store mirrors session state into durable storage so that sessions survive
// restarts and externally-driven invalidation is observed by the Authority.
type Store interface {
	// Save records the session. When ttl > 0 the store may expire the entry
	// on its own.
	Save(ctx context.Context, sessionID string, record Record, ttl time.Duration) error
	// Find returns the stored record or an error when it does not exist.
	Find(ctx context.Context, sessionID string) (Record, error)
	// Delete removes the stored record. Deleting an unknown id is an error.
	Delete(ctx context.Context, sessionID string) error
}
