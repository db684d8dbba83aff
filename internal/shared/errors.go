package shared

import "errors"

var (
	// ErrUserNotFound indicates no user matched the lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateUser indicates the email is already registered.
	ErrDuplicateUser = errors.New("user already registered")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidSession indicates an unknown or destroyed session id.
	ErrInvalidSession = errors.New("invalid session")
	// ErrExpiredSession indicates a session past its configured duration.
	ErrExpiredSession = errors.New("session expired")
	// ErrInvalidResetToken indicates a stale or unknown reset token.
	ErrInvalidResetToken = errors.New("invalid reset token")
	// ErrUnknownField indicates a store update addressed no recognized attribute.
	ErrUnknownField = errors.New("unknown user field")
	// ErrMalformedCredentialHeader indicates an Authorization header that could
	// not be decoded.
	ErrMalformedCredentialHeader = errors.New("malformed credential header")
)
