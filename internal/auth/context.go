package auth

import "context"

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// identityKey is the context key for the authenticated identity.
const identityKey contextKey = "identity"

// Identity is the authenticated caller attached to a request by the
// token middleware.
type Identity struct {
	UserID string
}

// ContextWithIdentity adds the authenticated identity to the context.
func ContextWithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext retrieves the authenticated identity from the context.
// Returns nil if not present.
func IdentityFromContext(ctx context.Context) *Identity {
	id, ok := ctx.Value(identityKey).(*Identity)
	if !ok {
		return nil
	}
	return id
}

// UserIDFromContext is a convenience function to get the caller's user id.
// Returns empty string if not authenticated.
func UserIDFromContext(ctx context.Context) string {
	id := IdentityFromContext(ctx)
	if id == nil {
		return ""
	}
	return id.UserID
}
