package claims

import "context"

type claimsContextKey struct{}

// ContextWithClaims attaches the verified claims to the request context.
func ContextWithClaims(ctx context.Context, c *Claims) context.Context {
	if c == nil {
		return ctx
	}
	return context.WithValue(ctx, claimsContextKey{}, c)
}

// FromContext extracts the verified claims attached by the authorization
// layer, if any.
func FromContext(ctx context.Context) (*Claims, bool) {
	if ctx == nil {
		return nil, false
	}
	c, ok := ctx.Value(claimsContextKey{}).(*Claims)
	if !ok || c == nil {
		return nil, false
	}
	return c, true
}
