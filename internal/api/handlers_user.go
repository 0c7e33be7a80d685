/**
 * @description
 * HTTP handlers for user profiles, spending limits, merchants, and the query
 * surface. Spending-limit updates and merchant registration act on the
 * authenticated caller's own account.
 */

package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/transfa/biopay-service/internal/domain"
)

// UpdateSpendingLimitHandler replaces the caller's daily spending limit.
func (h *Handlers) UpdateSpendingLimitHandler(w http.ResponseWriter, r *http.Request) {
	account, ok := h.callerAccount(w, r)
	if !ok {
		return
	}

	var payload domain.UpdateSpendingLimitPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if payload.SpendingLimit <= 0 {
		h.writeError(w, http.StatusBadRequest, "Spending limit must be positive")
		return
	}

	if err := h.service.UpdateSpendingLimit(r.Context(), account, payload.SpendingLimit); err != nil {
		h.respondServiceError(w, "update_spending_limit", err)
		return
	}

	log.Printf("level=info component=api endpoint=update_spending_limit outcome=accepted account=%s limit=%d", account, payload.SpendingLimit)
	h.writeJSON(w, http.StatusOK, map[string]int64{"spending_limit": payload.SpendingLimit})
}

// GetUserProfileHandler fetches a user profile by account.
func (h *Handlers) GetUserProfileHandler(w http.ResponseWriter, r *http.Request) {
	account, ok := h.accountParam(w, r)
	if !ok {
		return
	}

	profile, err := h.service.GetUserProfile(r.Context(), account)
	if err != nil {
		h.respondServiceError(w, "get_user_profile", err)
		return
	}

	h.writeJSON(w, http.StatusOK, profile)
}

// GetUserStatsHandler returns the account's aggregated spending view.
func (h *Handlers) GetUserStatsHandler(w http.ResponseWriter, r *http.Request) {
	account, ok := h.accountParam(w, r)
	if !ok {
		return
	}

	stats, err := h.service.GetUserStats(r.Context(), account)
	if err != nil {
		h.respondServiceError(w, "get_user_stats", err)
		return
	}

	h.writeJSON(w, http.StatusOK, stats)
}

// UserVerifiedHandler reports whether the account has ever passed verification.
func (h *Handlers) UserVerifiedHandler(w http.ResponseWriter, r *http.Request) {
	account, ok := h.accountParam(w, r)
	if !ok {
		return
	}

	verified, err := h.service.IsUserVerified(r.Context(), account)
	if err != nil {
		h.respondServiceError(w, "user_verified", err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]bool{"verified": verified})
}

// RegisterMerchantHandler registers (or re-registers) the caller as a merchant.
// Re-registration updates the business name and keeps accumulated stats.
func (h *Handlers) RegisterMerchantHandler(w http.ResponseWriter, r *http.Request) {
	account, ok := h.callerAccount(w, r)
	if !ok {
		return
	}

	var payload domain.RegisterMerchantPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(payload.BusinessName) == "" {
		h.writeError(w, http.StatusBadRequest, "Business name is required")
		return
	}

	merchant, err := h.service.RegisterMerchant(r.Context(), account, payload.BusinessName)
	if err != nil {
		h.respondServiceError(w, "register_merchant", err)
		return
	}

	log.Printf("level=info component=api endpoint=register_merchant outcome=accepted account=%s business=%q", account, merchant.BusinessName)
	h.writeJSON(w, http.StatusCreated, merchant)
}

// GetMerchantHandler fetches merchant stats by account.
func (h *Handlers) GetMerchantHandler(w http.ResponseWriter, r *http.Request) {
	account, ok := h.accountParam(w, r)
	if !ok {
		return
	}

	merchant, err := h.service.GetMerchant(r.Context(), account)
	if err != nil {
		h.respondServiceError(w, "get_merchant", err)
		return
	}

	h.writeJSON(w, http.StatusOK, merchant)
}
