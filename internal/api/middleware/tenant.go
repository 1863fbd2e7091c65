package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/ETAnderson/shopfeed/internal/api/tenantctx"
)

const TenantHeaderKey = "X-Tenant-ID"

// TenantMiddleware seeds the request tenant. Outside dev the tenant only ever
// comes from a verified token (AuthMiddleware).
type TenantMiddleware struct {
	Env  string
	Next http.Handler
}

func (m TenantMiddleware) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if m.Next == nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	tenantID := tenantctx.DefaultTenantID

	if isDev(m.Env) {
		raw := strings.TrimSpace(r.Header.Get(TenantHeaderKey))
		if raw != "" {
			v, err := strconv.ParseUint(raw, 10, 64)
			if err != nil || v == 0 {
				writeError(w, http.StatusBadRequest, "invalid_tenant_id", "X-Tenant-ID must be a positive integer")
				return
			}
			tenantID = v
		}
	}

	ctx := tenantctx.WithTenantID(r.Context(), tenantID)
	m.Next.ServeHTTP(w, r.WithContext(ctx))
}
