package authgate

import (
	"context"

	"github.com/goliatone/go-router"
)

var claimsCtxKey = &contextKey{"claims"}

type contextKey struct {
	name string
}

// WithClaimsContext sets the verified Claims in the given context
func WithClaimsContext(r context.Context, claims *Claims) context.Context {
	return context.WithValue(r, claimsCtxKey, claims)
}

// ClaimsFromContext extracts the verified Claims from the standard context
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	raw, ok := ctx.Value(claimsCtxKey).(*Claims)
	return raw, ok
}

// GetRouterClaims extracts the verified Claims from the router context
func GetRouterClaims(ctx router.Context, key string) (*Claims, bool) {
	if key == "" {
		key = "user" // Default key used by the gate middleware
	}
	raw := ctx.Locals(key)
	if raw == nil {
		return nil, false
	}
	claims, ok := raw.(*Claims)
	return claims, ok
}
