package userctx

import "context"

type contextKey string

const userIDContextKey contextKey = "user_id"

// DefaultOwner is the owner scope used when no authenticated user is
// attached (single-trainer deployments running with AUTH_MODE=none).
const DefaultOwner = "default"

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	return userID, ok
}

// OwnerID returns the authenticated user ID, or DefaultOwner when the
// request carries none.
func OwnerID(ctx context.Context) string {
	if userID, ok := GetUserID(ctx); ok && userID != "" {
		return userID
	}
	return DefaultOwner
}
