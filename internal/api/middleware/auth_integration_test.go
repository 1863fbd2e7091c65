package middleware

import (
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ETAnderson/shopfeed/internal/api/auth"
	"github.com/ETAnderson/shopfeed/internal/api/tenantctx"
)

func testKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("keygen: %v", err)
	}
	return priv
}

func mint(t *testing.T, priv *rsa.PrivateKey, tenantID uint64, ttl time.Duration) string {
	t.Helper()
	tok, err := auth.MintRS256(priv, auth.MintOptions{TenantID: tenantID, Subject: "test-client", TTL: ttl})
	if err != nil {
		t.Fatalf("sign token failed: %v", err)
	}
	return tok
}

func TestAuthMiddleware_Prod_Rejects(t *testing.T) {
	priv := testKey(t)
	other := testKey(t)

	cases := map[string]string{
		"missing token": "",
		"not a bearer":  "Basic abc",
		"empty bearer":  "Bearer ",
		"garbage":       "Bearer not-a-jwt",
		"expired":       "Bearer " + mint(t, priv, 1, -time.Minute),
		"wrong key":     "Bearer " + mint(t, other, 1, time.Minute),
	}

	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			h := AuthMiddleware{
				Env:       "prod",
				PublicKey: &priv.PublicKey,
				Next: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					t.Fatalf("next should not be called")
				}),
			}

			req := httptest.NewRequest(http.MethodGet, "/v1/feed-runs", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestAuthMiddleware_Prod_AllowsValidToken_InjectsTenant(t *testing.T) {
	priv := testKey(t)

	nextCalls := 0
	h := AuthMiddleware{
		Env:       "prod",
		PublicKey: &priv.PublicKey,
		Next: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			nextCalls++
			if got := tenantctx.TenantID(r.Context()); got != 42 {
				t.Fatalf("expected tenant=42, got %d", got)
			}
			w.WriteHeader(http.StatusOK)
		}),
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/feed-runs", nil)
	req.Header.Set("Authorization", "Bearer "+mint(t, priv, 42, 10*time.Minute))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || nextCalls != 1 {
		t.Fatalf("expected 200 and one call, got %d / %d", rec.Code, nextCalls)
	}
}

func chain(env string, pub *rsa.PublicKey, next http.Handler) http.Handler {
	return TenantMiddleware{
		Env: env,
		Next: AuthMiddleware{
			Env:       env,
			PublicKey: pub,
			Next:      next,
		},
	}
}

func TestAuthAndTenantMiddleware_Dev_AllowsXTenantIDWithoutToken(t *testing.T) {
	priv := testKey(t)

	root := chain("dev", &priv.PublicKey, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := tenantctx.TenantID(r.Context()); got != 7 {
			t.Fatalf("expected tenant=7, got %d", got)
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/feed-runs", nil)
	req.Header.Set(TenantHeaderKey, "7")
	rec := httptest.NewRecorder()
	root.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAuthAndTenantMiddleware_Prod_IgnoresXTenantIDWithoutToken(t *testing.T) {
	priv := testKey(t)

	root := chain("prod", &priv.PublicKey, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next should not be called when token is missing in prod")
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/feed-runs", nil)
	req.Header.Set(TenantHeaderKey, "7")
	rec := httptest.NewRecorder()
	root.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestTenantMiddleware_Dev_RejectsBadHeader(t *testing.T) {
	h := TenantMiddleware{
		Env: "local",
		Next: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatalf("next should not be called")
		}),
	}

	for _, v := range []string{"0", "-3", "abc"} {
		req := httptest.NewRequest(http.MethodGet, "/v1/feed-runs", nil)
		req.Header.Set(TenantHeaderKey, v)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%q: expected 400, got %d", v, rec.Code)
		}
	}
}
