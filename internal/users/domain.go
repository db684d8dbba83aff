package users

import "time"

// User represents a registered account.
type User struct {
	ID             int64
	Email          string
	HashedPassword string
	SessionID      *string
	ResetToken     *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Field enumerates the attributes FindBy may search on. Lookups are limited
// to this set; arbitrary column names are rejected at the call boundary.
type Field string

const (
	// FieldEmail searches by email address.
	FieldEmail Field = "email"
	// FieldSessionID searches by the current session token column.
	FieldSessionID Field = "session_id"
	// FieldResetToken searches by the password-reset token column.
	FieldResetToken Field = "reset_token"
)

// Valid reports whether the field is a recognized searchable attribute.
func (f Field) Valid() bool {
	switch f {
	case FieldEmail, FieldSessionID, FieldResetToken:
		return true
	}
	return false
}

// Changes describes a partial update to a user row. Only non-nil members are
// applied; the update is atomic across all of them. ClearSessionID and
// ClearResetToken null the respective columns.
type Changes struct {
	HashedPassword  *string
	SessionID       *string
	ResetToken      *string
	ClearSessionID  bool
	ClearResetToken bool
}

// Empty reports whether the change set addresses no recognized attribute.
func (c Changes) Empty() bool {
	return c.HashedPassword == nil && c.SessionID == nil && c.ResetToken == nil &&
		!c.ClearSessionID && !c.ClearResetToken
}
