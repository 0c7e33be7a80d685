/**
 * @description
 * HTTP handlers for biometric enrollment and verification. Enrollment and
 * rotation always act on the authenticated caller's own account; deactivation
 * may target another account, with the engine enforcing who is allowed.
 */

package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/transfa/biopay-service/internal/domain"
)

// EnrollHandler enrolls the caller's biometric profile.
func (h *Handlers) EnrollHandler(w http.ResponseWriter, r *http.Request) {
	account, ok := h.callerAccount(w, r)
	if !ok {
		return
	}

	var payload domain.EnrollPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	profile, err := h.service.Enroll(r.Context(), account, payload)
	if err != nil {
		h.respondServiceError(w, "enroll", err)
		return
	}

	log.Printf("level=info component=api endpoint=enroll outcome=accepted account=%s registration_id=%d", account, profile.RegistrationID)
	h.writeJSON(w, http.StatusCreated, profile)
}

// RotateBiometricHandler replaces the caller's primary digest after verifying the
// current credential.
func (h *Handlers) RotateBiometricHandler(w http.ResponseWriter, r *http.Request) {
	account, ok := h.callerAccount(w, r)
	if !ok {
		return
	}

	var payload domain.RotateBiometricPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.service.RotateBiometric(r.Context(), account, payload); err != nil {
		h.respondServiceError(w, "rotate_biometric", err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "rotated"})
}

// VerifyBiometricHandler runs a standalone primary verification for the caller.
// Failed attempts count toward lockout exactly like payment authentication.
func (h *Handlers) VerifyBiometricHandler(w http.ResponseWriter, r *http.Request) {
	account, ok := h.callerAccount(w, r)
	if !ok {
		return
	}

	var payload domain.ProofPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.service.VerifyBiometric(r.Context(), account, payload.Proof); err != nil {
		h.respondServiceError(w, "verify_biometric", err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "verified"})
}

// DeactivateBiometricHandler soft-disables the target account's profile. The
// engine permits only the account holder or the owner.
func (h *Handlers) DeactivateBiometricHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.callerAccount(w, r)
	if !ok {
		return
	}
	account, ok := h.accountParam(w, r)
	if !ok {
		return
	}

	if err := h.service.DeactivateBiometric(r.Context(), caller, account); err != nil {
		h.respondServiceError(w, "deactivate_biometric", err)
		return
	}

	log.Printf("level=info component=api endpoint=deactivate_biometric outcome=accepted caller=%s account=%s", caller, account)
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

// GetBiometricProfileHandler returns the profile's public state. Digests are
// never serialized.
func (h *Handlers) GetBiometricProfileHandler(w http.ResponseWriter, r *http.Request) {
	account, ok := h.accountParam(w, r)
	if !ok {
		return
	}

	profile, err := h.service.GetBiometricProfile(r.Context(), account)
	if err != nil {
		h.respondServiceError(w, "get_biometric_profile", err)
		return
	}

	h.writeJSON(w, http.StatusOK, profile)
}

// BiometricRegisteredHandler reports whether the account has an active profile.
func (h *Handlers) BiometricRegisteredHandler(w http.ResponseWriter, r *http.Request) {
	account, ok := h.accountParam(w, r)
	if !ok {
		return
	}

	registered, err := h.service.IsBiometricRegistered(r.Context(), account)
	if err != nil {
		h.respondServiceError(w, "biometric_registered", err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]bool{"registered": registered})
}
