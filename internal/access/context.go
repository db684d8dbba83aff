package access

import (
	"context"

	"github.com/gatehouse/gatehouse/internal/users"
)

type userContextKey struct{}

// ContextWithUser stores the authenticated user in context.
func ContextWithUser(ctx context.Context, user *users.User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext extracts the authenticated user from context.
func UserFromContext(ctx context.Context) *users.User {
	user, _ := ctx.Value(userContextKey{}).(*users.User)
	return user
}
