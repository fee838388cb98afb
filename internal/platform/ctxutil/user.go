package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

type userIDKey struct{}

// WithUserID stamps the authenticated caller's id onto the context; set by
// the auth middleware after a JWT verifies, read by handlers that need a
// CreatedBy value (e.g. POST /jobs).
func WithUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey{}, id)
}

func GetUserID(ctx context.Context) uuid.UUID {
	if v, ok := ctx.Value(userIDKey{}).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}
