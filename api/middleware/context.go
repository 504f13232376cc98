package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/restaurant-backend/pkg/db/models"
)

type contextKey string

const (
	ctxAuthUID contextKey = "auth_uid"
	ctxUser    contextKey = "user"
)

// AuthUIDFromContext returns the verified identity-provider uid, or "" for guests.
func AuthUIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAuthUID).(string); ok {
		return v
	}
	return ""
}

// UserFromContext returns the registered local user, if any.
func UserFromContext(ctx context.Context) *models.User {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxUser).(*models.User); ok {
		return v
	}
	return nil
}

// CallerIDFromContext returns the local user id, nil for guests and
// unregistered identities.
func CallerIDFromContext(ctx context.Context) *uuid.UUID {
	user := UserFromContext(ctx)
	if user == nil {
		return nil
	}
	id := user.ID
	return &id
}

func RoleFromContext(ctx context.Context) string {
	user := UserFromContext(ctx)
	if user == nil {
		return ""
	}
	return string(user.Role)
}

// WithAuthUID injects the verified uid into the context.
func WithAuthUID(ctx context.Context, uid string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxAuthUID, uid)
}

// WithUser injects the resolved local user into the context.
func WithUser(ctx context.Context, user *models.User) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUser, user)
}
