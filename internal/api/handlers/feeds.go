package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/ETAnderson/shopfeed/internal/api/tenantctx"
	"github.com/ETAnderson/shopfeed/internal/execute"
	"github.com/ETAnderson/shopfeed/internal/state"
)

const feedsPrefix = "/feeds/"

// FeedGenerator is satisfied by execute.Executor.
type FeedGenerator interface {
	ContentType(channel string) (string, error)
	Generate(ctx context.Context, tenantID uint64, channel string, w io.Writer) (state.FeedRunRecord, error)
}

// FeedHandler serves GET /feeds/{channel}.xml. The document is regenerated
// on every request; the ETag is the document hash so unchanged catalogs
// answer 304.
type FeedHandler struct {
	Feeds FeedGenerator
}

func (h FeedHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	name := strings.TrimPrefix(r.URL.Path, feedsPrefix)
	channel, ok := strings.CutSuffix(name, ".xml")
	if !ok || channel == "" || strings.Contains(channel, "/") {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "not_found", "message": "feed not found"})
		return
	}

	contentType, err := h.Feeds.ContentType(channel)
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown_channel", err)
		return
	}

	var buf bytes.Buffer
	run, err := h.Feeds.Generate(r.Context(), tenantctx.TenantID(r.Context()), channel, &buf)
	switch {
	case errors.Is(err, execute.ErrUnknownChannel):
		writeError(w, http.StatusNotFound, "unknown_channel", err)
		return
	case errors.Is(err, execute.ErrSiteNotFound):
		writeError(w, http.StatusConflict, "site_not_configured", err)
		return
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":   "feed_generation_failed",
			"message": err.Error(),
			"run_id":  run.RunID,
		})
		return
	}

	etag := `"` + run.ContentHash + `"`
	w.Header().Set("ETag", etag)
	w.Header().Set("X-Feed-Run-ID", run.RunID)

	if etagMatches(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = buf.WriteTo(w)
}

func etagMatches(header, etag string) bool {
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		part = strings.TrimPrefix(part, "W/")
		if part == "*" || part == etag {
			return true
		}
	}
	return false
}
