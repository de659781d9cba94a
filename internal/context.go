package internal

import (
	"context"
	"time"
)

type ctxKey string

const (
	ContextSessionKey  ctxKey = "sessionID"
	ContextUsernameKey ctxKey = "username"
	contextIdentityKey ctxKey = "identity"
)

// identity is filled in by ContextWithSession so middleware outside the
// authentication layer can still see who made the request.
type identity struct {
	username string
}

// ContextWithIdentitySlot prepares ctx to report the username resolved by
// inner handlers.
func ContextWithIdentitySlot(ctx context.Context) context.Context {
	return context.WithValue(ctx, contextIdentityKey, &identity{})
}

func SessionIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(ContextSessionKey).(string); ok {
		return id
	}
	return ""
}

func UsernameFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if name, ok := ctx.Value(ContextUsernameKey).(string); ok {
		return name
	}
	if id, ok := ctx.Value(contextIdentityKey).(*identity); ok {
		return id.username
	}
	return ""
}

// ContextWithSession records the authenticated console session on ctx.
func ContextWithSession(ctx context.Context, sessionID, username string) context.Context {
	if id, ok := ctx.Value(contextIdentityKey).(*identity); ok {
		id.username = username
	}
	ctx = context.WithValue(ctx, ContextSessionKey, sessionID)
	return context.WithValue(ctx, ContextUsernameKey, username)
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}

// SessionPrefix shortens a session id for logs; the full id is a bearer
// credential.
func SessionPrefix(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
