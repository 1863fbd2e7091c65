// Package tenantctx carries the authenticated caller through a request.
package tenantctx

import "context"

type (
	ctxKeyTenantID struct{}
	ctxKeySubject  struct{}
)

// DefaultTenantID is the single-tenant fallback used by dev tooling and feedctl.
const DefaultTenantID uint64 = 1

func WithTenantID(ctx context.Context, tenantID uint64) context.Context {
	return context.WithValue(ctx, ctxKeyTenantID{}, tenantID)
}

func TenantID(ctx context.Context) uint64 {
	if id, ok := ctx.Value(ctxKeyTenantID{}).(uint64); ok && id > 0 {
		return id
	}
	return DefaultTenantID
}

// WithSubject records the token subject that pushed catalog data or pulled a
// feed, for logs.
func WithSubject(ctx context.Context, sub string) context.Context {
	if sub == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKeySubject{}, sub)
}

// Subject returns "anonymous" for requests that never passed token auth.
func Subject(ctx context.Context) string {
	if s, ok := ctx.Value(ctxKeySubject{}).(string); ok {
		return s
	}
	return "anonymous"
}
