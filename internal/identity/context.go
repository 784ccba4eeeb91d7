package identity

import "context"

type ctxKey string

const (
	ctxUserIDKey    ctxKey = "user_id"
	ctxSessionIDKey ctxKey = "session_id"
)

func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxUserIDKey, userID)
}

// WithSession records the login session that authenticated the request so
// logout can revoke it.
func WithSession(ctx context.Context, userID, sessionID string) context.Context {
	ctx = WithUser(ctx, userID)
	return context.WithValue(ctx, ctxSessionIDKey, sessionID)
}

func UserID(ctx context.Context) (string, bool) {
	v := ctx.Value(ctxUserIDKey)
	id, ok := v.(string)
	return id, ok
}

func SessionID(ctx context.Context) (string, bool) {
	v := ctx.Value(ctxSessionIDKey)
	id, ok := v.(string)
	return id, ok
}
