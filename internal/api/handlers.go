/**
 * @description
 * This file contains the shared plumbing for the biopay-service's HTTP handlers.
 * Handlers are responsible for parsing incoming requests, calling the appropriate
 * methods on the application service, and writing the HTTP response. They act as the
 * bridge between the web layer and the authorization engine.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - internal/app, internal/store: For engine logic and custom errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/transfa/biopay-service/internal/app"
	"github.com/transfa/biopay-service/internal/store"
)

// Handlers holds the application service that handlers will use.
type Handlers struct {
	service *app.Service
}

// NewHandlers creates a new instance of Handlers.
func NewHandlers(service *app.Service) *Handlers {
	return &Handlers{service: service}
}

// callerAccount resolves the authenticated caller's account UUID from the request
// context. It writes the error response itself when resolution fails.
func (h *Handlers) callerAccount(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	accountStr, ok := GetCallerAccount(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not get caller account from context")
		return uuid.Nil, false
	}
	account, err := uuid.Parse(accountStr)
	if err != nil {
		log.Printf("level=warn component=api outcome=reject reason=invalid_caller_account account=%s", accountStr)
		h.writeError(w, http.StatusUnauthorized, "Invalid account in token")
		return uuid.Nil, false
	}
	return account, true
}

// accountParam parses a {accountID} URL parameter.
func (h *Handlers) accountParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "accountID")
	account, err := uuid.Parse(raw)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid account id")
		return uuid.Nil, false
	}
	return account, true
}

// paymentIDParam parses a {paymentID} URL parameter.
func (h *Handlers) paymentIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "paymentID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		h.writeError(w, http.StatusBadRequest, "Invalid payment id")
		return 0, false
	}
	return id, true
}

// respondServiceError maps engine and store errors to HTTP statuses. Unknown
// errors are logged and surfaced as 500s without leaking internals.
func (h *Handlers) respondServiceError(w http.ResponseWriter, endpoint string, err error) {
	switch {
	case errors.Is(err, store.ErrBiometricAlreadyRegistered):
		h.writeError(w, http.StatusConflict, "An active biometric profile already exists for this account")
	case errors.Is(err, store.ErrInvalidBiometricData):
		h.writeError(w, http.StatusUnprocessableEntity, "Biometric digests must be non-empty")
	case errors.Is(err, store.ErrBiometricNotRegistered):
		h.writeError(w, http.StatusNotFound, "No active biometric profile for this account")
	case errors.Is(err, store.ErrBiometricVerificationFailed):
		h.writeError(w, http.StatusUnauthorized, "Biometric verification failed")
	case errors.Is(err, store.ErrPaymentNotFound):
		h.writeError(w, http.StatusNotFound, "Payment request not found")
	case errors.Is(err, store.ErrUserNotFound):
		h.writeError(w, http.StatusNotFound, "User profile not found")
	case errors.Is(err, store.ErrMerchantNotFound):
		h.writeError(w, http.StatusNotFound, "Merchant not found")
	case errors.Is(err, store.ErrInvalidAmount):
		h.writeError(w, http.StatusBadRequest, "Amount must be positive")
	case errors.Is(err, store.ErrPaymentExpired):
		h.writeError(w, http.StatusGone, "Payment request has expired")
	case errors.Is(err, store.ErrPaymentAlreadyProcessed):
		h.writeError(w, http.StatusConflict, "Payment request is no longer pending")
	case errors.Is(err, store.ErrInsufficientBalance):
		h.writeError(w, http.StatusPaymentRequired, "Insufficient balance")
	case errors.Is(err, store.ErrDailyLimitExceeded):
		h.writeError(w, http.StatusUnprocessableEntity, "Daily spending limit exceeded")
	case errors.Is(err, store.ErrUnauthorized):
		h.writeError(w, http.StatusForbidden, "Not authorized for this operation")
	case errors.Is(err, store.ErrOwnerOnly):
		h.writeError(w, http.StatusForbidden, "Owner-only operation")
	case errors.Is(err, app.ErrAuthRateLimited):
		h.writeError(w, http.StatusTooManyRequests, "Too many authentication attempts. Please wait and try again.")
	default:
		log.Printf("level=error component=api endpoint=%s msg=\"unhandled service error\" err=%v", endpoint, err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// writeJSON is a helper for writing JSON responses.
func (h *Handlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError is a helper for writing JSON error responses.
func (h *Handlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
