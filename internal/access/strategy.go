package access

import (
	"context"
	"net/http"

	"github.com/gatehouse/gatehouse/internal/shared"
	"github.com/gatehouse/gatehouse/internal/users"
)

// PasswordVerifier checks a plaintext password against a stored hash.
// password.Hasher satisfies it.
type PasswordVerifier interface {
	Verify(plaintext, hash string) bool
}

// SessionResolver maps a session id to a user id. session.Authority
// satisfies it.
type SessionResolver interface {
	Resolve(ctx context.Context, sessionID string) (int64, error)
}

// Strategy resolves the caller's identity from a request. Every failure
// collapses to shared.ErrInvalidCredentials so the response never reveals
// which step broke.
type Strategy interface {
	ResolveIdentity(r *http.Request) (*users.User, error)
}

// BasicStrategy authenticates via a Basic Authorization header.
type BasicStrategy struct {
	store    users.Repository
	verifier PasswordVerifier
}

// NewBasicStrategy constructs a BasicStrategy.
func NewBasicStrategy(store users.Repository, verifier PasswordVerifier) *BasicStrategy {
	return &BasicStrategy{store: store, verifier: verifier}
}

// ResolveIdentity decodes the Basic credential, looks the user up by email
// and verifies the password.
func (s *BasicStrategy) ResolveIdentity(r *http.Request) (*users.User, error) {
	header := AuthorizationHeader(r)
	if header == "" {
		return nil, shared.ErrInvalidCredentials
	}
	email, pass, ok := DecodeBasic(header)
	if !ok {
		return nil, shared.ErrInvalidCredentials
	}
	user, err := s.store.FindBy(r.Context(), users.FieldEmail, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !s.verifier.Verify(pass, user.HashedPassword) {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// SessionStrategy authenticates via the session cookie.
type SessionStrategy struct {
	store      users.Repository
	sessions   SessionResolver
	cookieName string
}

// NewSessionStrategy constructs a SessionStrategy.
func NewSessionStrategy(store users.Repository, sessions SessionResolver, cookieName string) *SessionStrategy {
	return &SessionStrategy{store: store, sessions: sessions, cookieName: cookieName}
}

// ResolveIdentity resolves the cookie's session id and loads the user.
func (s *SessionStrategy) ResolveIdentity(r *http.Request) (*users.User, error) {
	sessionID := SessionCookie(r, s.cookieName)
	if sessionID == "" {
		return nil, shared.ErrInvalidCredentials
	}
	userID, err := s.sessions.Resolve(r.Context(), sessionID)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	user, err := s.store.FindByID(r.Context(), userID)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

var (
	_ Strategy = (*BasicStrategy)(nil)
	_ Strategy = (*SessionStrategy)(nil)
)
