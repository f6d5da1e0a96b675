// Package reqctx carries request-scoped values (caller identity, request id,
// request clock) from the HTTP layer into services without importing gin.
package reqctx

import (
	"context"
	"time"
)

type (
	identityKey    struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Identity is the authenticated caller.
type Identity struct {
	UserID uint
	Name   string
	Email  string
	Role   string
}

// IsZero reports whether no caller is attached.
func (i Identity) IsZero() bool {
	return i.UserID == 0 && i.Role == ""
}

// WithIdentity attaches the caller to ctx.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFrom returns the caller and whether one was set.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(Identity)
	return identity, ok
}

func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(requestIDKey{}).(string); ok {
		return reqID
	}
	return ""
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Now returns the request clock, falling back to time.Now.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithNow pins the clock for everything downstream of ctx.
func WithNow(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
