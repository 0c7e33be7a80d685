/**
 * @description
 * HTTP handlers for owner-gated administration: runtime configuration updates,
 * account unlock, and system-wide stats. The router only authenticates these
 * routes; the engine itself rejects callers other than the configured owner.
 */

package api

import (
	"encoding/json"
	"log"
	"net/http"
	"time"
)

type updateAuthTimeoutRequest struct {
	TimeoutSeconds int64 `json:"timeout_seconds"`
}

type updateMaxRetriesRequest struct {
	MaxRetryAttempts int `json:"max_retry_attempts"`
}

// UpdateAuthTimeoutHandler changes how long payment requests stay authenticatable.
func (h *Handlers) UpdateAuthTimeoutHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.callerAccount(w, r)
	if !ok {
		return
	}

	var payload updateAuthTimeoutRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if payload.TimeoutSeconds <= 0 {
		h.writeError(w, http.StatusBadRequest, "Timeout must be positive")
		return
	}

	timeout := time.Duration(payload.TimeoutSeconds) * time.Second
	if err := h.service.UpdateAuthTimeout(r.Context(), caller, timeout); err != nil {
		h.respondServiceError(w, "update_auth_timeout", err)
		return
	}

	log.Printf("level=info component=api endpoint=update_auth_timeout outcome=accepted caller=%s timeout_seconds=%d", caller, payload.TimeoutSeconds)
	h.writeJSON(w, http.StatusOK, map[string]int64{"timeout_seconds": payload.TimeoutSeconds})
}

// UpdateMaxRetriesHandler changes the failed-attempt lockout threshold.
func (h *Handlers) UpdateMaxRetriesHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.callerAccount(w, r)
	if !ok {
		return
	}

	var payload updateMaxRetriesRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if payload.MaxRetryAttempts <= 0 {
		h.writeError(w, http.StatusBadRequest, "Retry threshold must be positive")
		return
	}

	if err := h.service.UpdateMaxRetries(r.Context(), caller, payload.MaxRetryAttempts); err != nil {
		h.respondServiceError(w, "update_max_retries", err)
		return
	}

	log.Printf("level=info component=api endpoint=update_max_retries outcome=accepted caller=%s max_retry_attempts=%d", caller, payload.MaxRetryAttempts)
	h.writeJSON(w, http.StatusOK, map[string]int{"max_retry_attempts": payload.MaxRetryAttempts})
}

// UnlockAccountHandler clears the lockout state on the target account's profile.
func (h *Handlers) UnlockAccountHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.callerAccount(w, r)
	if !ok {
		return
	}
	account, ok := h.accountParam(w, r)
	if !ok {
		return
	}

	if err := h.service.UnlockAccount(r.Context(), caller, account); err != nil {
		h.respondServiceError(w, "unlock_account", err)
		return
	}

	log.Printf("level=info component=api endpoint=unlock_account outcome=accepted caller=%s account=%s", caller, account)
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "unlocked"})
}

// SystemStatsHandler returns system-wide counters for dashboards.
func (h *Handlers) SystemStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetSystemStats(r.Context())
	if err != nil {
		h.respondServiceError(w, "system_stats", err)
		return
	}

	h.writeJSON(w, http.StatusOK, stats)
}
