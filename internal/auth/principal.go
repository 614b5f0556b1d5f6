package auth

import "context"

// Principal identifies the acting API user and the company scope every
// core operation executes in. It is threaded explicitly through the
// request context; there is no ambient current-user state.
type Principal struct {
	UserID    string
	CompanyID string
	Label     string
}

type principalKey struct{}

// WithPrincipal returns a context carrying the authenticated principal.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom extracts the authenticated principal from the context.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
