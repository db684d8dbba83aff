package users

import (
	"testing"

	"github.com/stretchr/testify/require"

	_ "github.com/gatehouse/gatehouse/testing"
)

func TestFieldValid(t *testing.T) {
	require.True(t, FieldEmail.Valid())
	require.True(t, FieldSessionID.Valid())
	require.True(t, FieldResetToken.Valid())
	require.False(t, Field("id").Valid())
	require.False(t, Field("hashed_password").Valid())
	require.False(t, Field("email; DROP TABLE users").Valid())
}

func TestChangesEmpty(t *testing.T) {
	require.True(t, Changes{}.Empty())

	token := "tok"
	require.False(t, Changes{ResetToken: &token}.Empty())
	require.False(t, Changes{ClearSessionID: true}.Empty())
	require.False(t, Changes{ClearResetToken: true}.Empty())
}

func TestBuildAssignments(t *testing.T) {
	hash := "new-hash"
	sid := "sess-1"

	assignments, args := buildAssignments(Changes{
		HashedPassword:  &hash,
		SessionID:       &sid,
		ClearResetToken: true,
	})

	require.Equal(t, []string{
		"hashed_password = $1",
		"session_id = $2",
		"reset_token = NULL",
	}, assignments)
	require.Equal(t, []any{hash, sid}, args)
}

func TestBuildAssignmentsClearSession(t *testing.T) {
	assignments, args := buildAssignments(Changes{ClearSessionID: true})

	require.Equal(t, []string{"session_id = NULL"}, assignments)
	require.Empty(t, args)
}
