package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ETAnderson/shopfeed/internal/api/tenantctx"
	"github.com/ETAnderson/shopfeed/internal/state"
)

const feedRunsPath = "/v1/feed-runs"

// FeedRunsHandler serves the run ledger:
//
//	GET /v1/feed-runs?limit=N
//	GET /v1/feed-runs/{run_id}
type FeedRunsHandler struct {
	Store state.Store
}

func (h FeedRunsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	tenantID := tenantctx.TenantID(r.Context())

	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if r.URL.Path == feedRunsPath || r.URL.Path == feedRunsPath+"/" {
		limit := 50
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				limit = n
			}
		}
		if limit <= 0 {
			limit = 50
		}
		if limit > 200 {
			limit = 200
		}

		runs, err := h.Store.ListFeedRuns(r.Context(), tenantID, limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "list_feed_runs_failed", err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"items": runs,
		})
		return
	}

	runID := strings.Trim(strings.TrimPrefix(r.URL.Path, feedRunsPath+"/"), "/")
	if runID == "" || strings.Contains(runID, "/") {
		writeError(w, http.StatusBadRequest, "invalid_run_id", errors.New("run_id missing or invalid"))
		return
	}

	run, ok, err := h.Store.GetFeedRun(r.Context(), tenantID, runID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "get_feed_run_failed", err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", errors.New("feed run not found"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"run": run,
	})
}
