// Package session issues, resolves and destroys opaque session tokens.
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gatehouse/gatehouse/internal/shared"
	"github.com/gatehouse/gatehouse/internal/users"
)

// Record holds the per-session state tracked by the Authority.
type Record struct {
	UserID    int64
	CreatedAt time.Time
}

// UserLookup verifies that a user id resolves to an existing account before
// a session is issued. users.Repository satisfies it.
type UserLookup interface {
	FindByID(ctx context.Context, id int64) (*users.User, error)
}

// Authority owns the process-wide session mapping. It composes an optional
// durable Store and a fixed expiration duration instead of layering policy
// through inheritance: duration <= 0 disables expiration, a nil store keeps
// sessions purely in memory. The duration is set at construction and never
// changes afterward.
type Authority struct {
	mu       sync.Mutex
	sessions map[string]Record

	lookup   UserLookup
	duration time.Duration
	store    Store

	now func() time.Time
}

// NewAuthority constructs an Authority.
func NewAuthority(lookup UserLookup, duration time.Duration, store Store) *Authority {
	return &Authority{
		sessions: make(map[string]Record),
		lookup:   lookup,
		duration: duration,
		store:    store,
		now:      time.Now,
	}
}

// Duration exposes the configured session lifetime.
func (a *Authority) Duration() time.Duration {
	return a.duration
}

// Create issues a fresh unguessable session id for userID. It fails with
// shared.ErrUserNotFound when the id does not resolve to an existing user.
// Previously issued sessions for the same user stay live.
func (a *Authority) Create(ctx context.Context, userID int64) (string, error) {
	if a.lookup != nil {
		if _, err := a.lookup.FindByID(ctx, userID); err != nil {
			return "", shared.ErrUserNotFound
		}
	}

	id := generateSessionID()
	record := Record{UserID: userID, CreatedAt: a.now().UTC()}

	a.mu.Lock()
	a.sessions[id] = record
	a.mu.Unlock()

	if a.store != nil {
		if err := a.store.Save(ctx, id, record, a.duration); err != nil {
			a.mu.Lock()
			delete(a.sessions, id)
			a.mu.Unlock()
			return "", fmt.Errorf("session: persist: %w", err)
		}
	}
	return id, nil
}

// Resolve returns the user id owning sessionID. Unknown ids yield
// shared.ErrInvalidSession; ids past the configured duration yield
// shared.ErrExpiredSession. The expiry check is lazy and non-destructive:
// expired entries stay in the mapping until swept or destroyed. With a
// durable store attached, the store is re-read first so externally-driven
// invalidation is observed.
func (a *Authority) Resolve(ctx context.Context, sessionID string) (int64, error) {
	if sessionID == "" {
		return 0, shared.ErrInvalidSession
	}

	if a.store != nil {
		record, err := a.store.Find(ctx, sessionID)
		if err != nil {
			a.mu.Lock()
			delete(a.sessions, sessionID)
			a.mu.Unlock()
			return 0, shared.ErrInvalidSession
		}
		a.mu.Lock()
		a.sessions[sessionID] = record
		a.mu.Unlock()
	}

	a.mu.Lock()
	record, ok := a.sessions[sessionID]
	a.mu.Unlock()
	if !ok {
		return 0, shared.ErrInvalidSession
	}
	if a.expired(record) {
		return 0, shared.ErrExpiredSession
	}
	return record.UserID, nil
}

// Destroy removes sessionID from the mapping and the durable store. It
// reports false when the id is unknown.
func (a *Authority) Destroy(ctx context.Context, sessionID string) bool {
	a.mu.Lock()
	_, ok := a.sessions[sessionID]
	delete(a.sessions, sessionID)
	a.mu.Unlock()

	if a.store != nil {
		if err := a.store.Delete(ctx, sessionID); err == nil {
			ok = true
		}
	}
	return ok
}

// Sweep evicts expired entries from the in-memory mapping and the durable
// store, returning the number removed. The read path never evicts, so the
// worker runs this periodically to bound growth.
func (a *Authority) Sweep(ctx context.Context) int {
	if a.duration <= 0 {
		return 0
	}

	a.mu.Lock()
	var expired []string
	for id, record := range a.sessions {
		if a.expired(record) {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		delete(a.sessions, id)
	}
	a.mu.Unlock()

	if a.store != nil {
		for _, id := range expired {
			_ = a.store.Delete(ctx, id)
		}
	}
	return len(expired)
}

// Len returns the number of tracked sessions, expired entries included.
func (a *Authority) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.sessions)
}

func (a *Authority) expired(record Record) bool {
	if a.duration <= 0 {
		return false
	}
	return a.now().After(record.CreatedAt.Add(a.duration))
}

func generateSessionID() string {
	if id, err := uuid.NewRandom(); err == nil {
		return id.String()
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return base64.RawURLEncoding.EncodeToString([]byte(time.Now().Format(time.RFC3339Nano)))
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
