package auth

import "context"

type contextKey struct{}

// WithAdmin marks ctx as carrying an authenticated admin request.
func WithAdmin(ctx context.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, true)
}

// IsAdmin reports whether ctx was marked by WithAdmin.
func IsAdmin(ctx context.Context) bool {
	ok, _ := ctx.Value(contextKey{}).(bool)
	return ok
}
