package middleware

import (
	"crypto/rsa"
	"net/http"
	"strings"

	"github.com/ETAnderson/shopfeed/internal/api/auth"
	"github.com/ETAnderson/shopfeed/internal/api/tenantctx"
)

type AuthMiddleware struct {
	Env       string
	PublicKey *rsa.PublicKey
	Next      http.Handler
}

func (m AuthMiddleware) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if m.Next == nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	authz := strings.TrimSpace(r.Header.Get("Authorization"))

	// In dev, an X-Tenant-ID override or a missing Authorization header passes
	// through so local tooling keeps working.
	if isDev(m.Env) {
		if tenantctx.TenantID(r.Context()) != tenantctx.DefaultTenantID || authz == "" {
			m.Next.ServeHTTP(w, r)
			return
		}
	}

	if !strings.HasPrefix(authz, "Bearer ") {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}

	tokenString := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
	if tokenString == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", "empty bearer token")
		return
	}

	claims, err := auth.ParseAndValidateRS256(tokenString, m.PublicKey)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
		return
	}

	ctx := tenantctx.WithTenantID(r.Context(), claims.TenantID)
	ctx = tenantctx.WithSubject(ctx, claims.Subject)
	m.Next.ServeHTTP(w, r.WithContext(ctx))
}
