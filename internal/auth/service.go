package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/gatehouse/gatehouse/internal/password"
	"github.com/gatehouse/gatehouse/internal/session"
	"github.com/gatehouse/gatehouse/internal/shared"
	"github.com/gatehouse/gatehouse/internal/users"
)

// ResetNotifier delivers a password-reset token to the account holder,
// typically by enqueueing a mail job. Implementations must treat the token
// as a secret.
type ResetNotifier interface {
	NotifyReset(ctx context.Context, email, token string) error
}

// Service is the single entry point combining the credential hasher, the
// user store and the session authority. The HTTP layer talks only to it.
type Service struct {
	users    users.Repository
	hasher   *password.Hasher
	sessions *session.Authority
	audit    *shared.AuditLogger
	notifier ResetNotifier
	logger   *slog.Logger
}

// NewService constructs a Service. audit and notifier may be nil.
func NewService(repo users.Repository, hasher *password.Hasher, sessions *session.Authority, audit *shared.AuditLogger, notifier ResetNotifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		users:    repo,
		hasher:   hasher,
		sessions: sessions,
		audit:    audit,
		notifier: notifier,
		logger:   logger,
	}
}

// Sessions exposes the owned session authority for wiring middleware and
// the sweep job.
func (s *Service) Sessions() *session.Authority {
	return s.sessions
}

// Register creates a new account. An already-registered email fails with
// shared.ErrDuplicateUser.
func (s *Service) Register(ctx context.Context, email, plaintext string) (*users.User, error) {
	if _, err := s.users.FindBy(ctx, users.FieldEmail, email); err == nil {
		return nil, shared.ErrDuplicateUser
	} else if !errors.Is(err, shared.ErrUserNotFound) {
		return nil, err
	}

	hashed, err := s.hasher.Hash(plaintext)
	if err != nil {
		return nil, err
	}
	user, err := s.users.Create(ctx, email, hashed)
	if err != nil {
		return nil, err
	}
	s.record(ctx, user.ID, "auth.register", map[string]any{"email": email})
	return user, nil
}

// Login validates credentials and issues a session. Unknown emails and
// wrong passwords are indistinguishable: both fail with
// shared.ErrInvalidCredentials, and storage errors never escape raw.
// A successful login records the new session id on the user row; sessions
// from earlier logins stay valid.
func (s *Service) Login(ctx context.Context, email, plaintext string) (string, error) {
	user, err := s.users.FindBy(ctx, users.FieldEmail, email)
	if err != nil {
		return "", shared.ErrInvalidCredentials
	}
	if !s.hasher.Verify(plaintext, user.HashedPassword) {
		return "", shared.ErrInvalidCredentials
	}

	sessionID, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return "", shared.ErrInvalidCredentials
	}
	if err := s.users.Update(ctx, user.ID, users.Changes{SessionID: &sessionID}); err != nil {
		s.sessions.Destroy(ctx, sessionID)
		return "", err
	}
	s.record(ctx, user.ID, "auth.login", nil)
	return sessionID, nil
}

// Logout clears the user's session association. It is idempotent: a user
// without a live session logs out as a no-op.
func (s *Service) Logout(ctx context.Context, userID int64) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrUserNotFound) {
			return nil
		}
		return err
	}
	if user.SessionID != nil {
		s.sessions.Destroy(ctx, *user.SessionID)
	}
	if err := s.users.Update(ctx, userID, users.Changes{ClearSessionID: true}); err != nil {
		return err
	}
	s.record(ctx, userID, "auth.logout", nil)
	return nil
}

// DestroySession tears down a single session by id, clearing the user row's
// association when it points at that session. It reports false when the id
// is unknown.
func (s *Service) DestroySession(ctx context.Context, sessionID string) bool {
	userID, err := s.sessions.Resolve(ctx, sessionID)
	destroyed := s.sessions.Destroy(ctx, sessionID)
	if err != nil || !destroyed {
		return destroyed
	}
	user, err := s.users.FindByID(ctx, userID)
	if err == nil && user.SessionID != nil && *user.SessionID == sessionID {
		if err := s.users.Update(ctx, userID, users.Changes{ClearSessionID: true}); err != nil {
			s.logger.Warn("clear session column", slog.Any("error", err))
		}
	}
	s.record(ctx, userID, "auth.logout", nil)
	return true
}

// IdentityForSession resolves a session id to its owning user.
func (s *Service) IdentityForSession(ctx context.Context, sessionID string) (*users.User, error) {
	userID, err := s.sessions.Resolve(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.users.FindByID(ctx, userID)
}

// RequestPasswordReset issues a fresh single-use reset token for email,
// replacing any outstanding one. Unknown emails fail with
// shared.ErrUserNotFound.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	user, err := s.users.FindBy(ctx, users.FieldEmail, email)
	if err != nil {
		return "", shared.ErrUserNotFound
	}

	token := uuid.NewString()
	if err := s.users.Update(ctx, user.ID, users.Changes{ResetToken: &token}); err != nil {
		return "", err
	}
	if s.notifier != nil {
		if err := s.notifier.NotifyReset(ctx, email, token); err != nil {
			s.logger.Warn("enqueue reset notification", slog.Any("error", err))
		}
	}
	s.record(ctx, user.ID, "auth.reset_requested", nil)
	return token, nil
}

// ConsumePasswordReset exchanges a reset token for a new password. The
// token is single-use: a successful consume clears it atomically with the
// password change, so it can never be replayed.
func (s *Service) ConsumePasswordReset(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return shared.ErrInvalidResetToken
	}
	user, err := s.users.FindBy(ctx, users.FieldResetToken, token)
	if err != nil {
		return shared.ErrInvalidResetToken
	}

	hashed, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.Update(ctx, user.ID, users.Changes{HashedPassword: &hashed, ClearResetToken: true}); err != nil {
		return err
	}
	s.record(ctx, user.ID, "auth.reset_consumed", nil)
	return nil
}

func (s *Service) record(ctx context.Context, actorID int64, action string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditEntry{ActorID: actorID, Action: action, Meta: meta}); err != nil {
		s.logger.Warn("record audit entry", slog.String("action", action), slog.Any("error", err))
	}
}
