package auth

import (
	"context"

	"github.com/nightapi/nightapi/internal/model"
)

type contextKey string

const userContextKey contextKey = "user"

// ContextWithUser stores the caller resolved from x-api-key.
func ContextWithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext returns the caller, or nil for anonymous requests.
func UserFromContext(ctx context.Context) *model.User {
	user, _ := ctx.Value(userContextKey).(*model.User)
	return user
}

// UserIDFromContext returns the caller's id, or nil when anonymous.
func UserIDFromContext(ctx context.Context) *int64 {
	user := UserFromContext(ctx)
	if user == nil {
		return nil
	}
	id := user.ID
	return &id
}
