package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ETAnderson/shopfeed/internal/api/tenantctx"
)

// HTTP header used for idempotent requests
const IdempotencyHeaderKey = "Idempotency-Key"

// IdempotencyMiddleware replays the first response for a repeated
// Idempotency-Key on write methods. Only 2xx responses are cached so a
// failed attempt can be retried with the same key.
type IdempotencyMiddleware struct {
	Store  IdempotencyStore
	Logger *logrus.Entry
	Next   http.Handler
}

func (m IdempotencyMiddleware) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if m.Next == nil || m.Store == nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		m.Next.ServeHTTP(w, r)
		return
	}

	idemKey := strings.TrimSpace(r.Header.Get(IdempotencyHeaderKey))
	if idemKey == "" {
		m.Next.ServeHTTP(w, r)
		return
	}

	endpoint := strings.TrimSpace(r.URL.Path)
	if endpoint == "" {
		endpoint = "/"
	}

	tenantID := tenantctx.TenantID(r.Context())
	keyHash := sha256Hex(idemKey)

	rec, ok, err := m.Store.Get(r.Context(), tenantID, endpoint, keyHash)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "idempotency_lookup_failed", err.Error())
		return
	}

	if ok {
		if rec.ContentType != "" {
			w.Header().Set("Content-Type", rec.ContentType)
		}
		w.Header().Set("Idempotent-Replayed", "true")
		w.WriteHeader(rec.StatusCode)
		_, _ = w.Write(rec.Body)
		return
	}

	rr := httptest.NewRecorder()
	m.Next.ServeHTTP(rr, r)

	for k, vals := range rr.Header() {
		for _, v := range vals {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(rr.Code)
	_, _ = w.Write(rr.Body.Bytes())

	if rr.Code < 200 || rr.Code > 299 {
		return
	}

	err = m.Store.Put(r.Context(), tenantID, endpoint, keyHash, IdempotencyRecord{
		StatusCode:  rr.Code,
		ContentType: rr.Header().Get("Content-Type"),
		Body:        rr.Body.Bytes(),
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil && m.Logger != nil {
		// The response is already written; losing the cache entry only costs a replay.
		m.Logger.WithError(err).WithField("endpoint", endpoint).Warn("store idempotency record failed")
	}
}

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
