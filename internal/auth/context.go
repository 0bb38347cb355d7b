package auth

import "context"

type sessionContextKey struct{}

// SetSessionContext stores the resolved session on the context for downstream handlers.
func SetSessionContext(ctx context.Context, session Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, session)
}

// GetSessionFromContext retrieves the session stored by SetSessionContext.
func GetSessionFromContext(ctx context.Context) (Session, bool) {
	session, ok := ctx.Value(sessionContextKey{}).(Session)
	return session, ok
}
