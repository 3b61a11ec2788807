package web

import (
	"context"
	"log"
	"net/http"
	"time"
)

// TriggerSync handles POST /api/sync. It responds 202 immediately and
// runs the orchestrator in a background goroutine; errors from the run
// only surface in logs, because the response has already been sent.
// Overlapping requests do not start a second run.
func (h *Handlers) TriggerSync(w http.ResponseWriter, r *http.Request) {
	h.startBackgroundSync(w)
}

// CronSync handles GET /api/cron, the scheduled-job trigger. When
// CRON_SECRET is configured the caller must present it as a bearer token.
func (h *Handlers) CronSync(w http.ResponseWriter, r *http.Request) {
	if h.cronSecret != "" && r.Header.Get("Authorization") != "Bearer "+h.cronSecret {
		writeError(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}
	h.startBackgroundSync(w)
}

func (h *Handlers) startBackgroundSync(w http.ResponseWriter) {
	if h.syncer == nil {
		writeError(w, http.StatusServiceUnavailable, "Sync is not configured", nil)
		return
	}

	hasUserToken := false
	if h.tokens != nil {
		hasUserToken, _ = h.tokens.UserTokenStatus()
	}

	if !h.syncRunning.CompareAndSwap(false, true) {
		writeJSON(w, http.StatusAccepted, map[string]any{
			"success":      true,
			"message":      "A sync is already running.",
			"timestamp":    time.Now().UTC().Format(time.RFC3339),
			"hasUserToken": hasUserToken,
		})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"success":      true,
		"message":      "Sync started. This can take a few minutes.",
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
		"hasUserToken": hasUserToken,
	})

	go func() {
		defer h.syncRunning.Store(false)

		// Detached from the request context: the response was already
		// sent, the run manages its own deadline.
		result, err := h.syncer.Run(context.Background())
		if err != nil {
			log.Printf("background sync failed: %v", err)
			return
		}
		log.Printf("background sync %s finished: %d saved", result.RunID, result.Saved)
	}()
}
