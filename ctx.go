package joalistay

import "context"

var navigatorCtxKey = &contextKey{"navigator"}
var sessionCtxKey = &contextKey{"session"}

type contextKey struct {
	name string
}

// WithNavigator registers the navigation handle the gateway uses to force a
// login redirect for calls made with this context.
func WithNavigator(ctx context.Context, nav Navigator) context.Context {
	return context.WithValue(ctx, navigatorCtxKey, nav)
}

// NavigatorFromContext finds the navigation handle registered in ctx.
func NavigatorFromContext(ctx context.Context) (Navigator, bool) {
	if ctx == nil {
		return nil, false
	}
	nav, ok := ctx.Value(navigatorCtxKey).(Navigator)
	return nav, ok && nav != nil
}

// WithSession stores a session snapshot in ctx, used by request scoped code
// that should not read storage again.
func WithSession(ctx context.Context, session Session) context.Context {
	return context.WithValue(ctx, sessionCtxKey, session)
}

// SessionFromContext finds the session snapshot stored in ctx.
func SessionFromContext(ctx context.Context) (Session, bool) {
	if ctx == nil {
		return Session{}, false
	}
	s, ok := ctx.Value(sessionCtxKey).(Session)
	return s, ok
}
