package model

import "context"

type sessionKey struct{}

// WithSessionID attaches the run's session id to the context. The graph's
// state generator and logging pick it up from there.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey{}, id)
}

// SessionIDFrom returns the session id attached to the context, if any.
func SessionIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}
