/**
 * @description
 * HTTP handlers for the payment-request lifecycle: create, authenticate (primary
 * and backup), process, cancel, and fetch. The payer is always the authenticated
 * caller for create and process; authentication endpoints are keyed by payment id
 * because the proof itself identifies the payer's credential.
 */

package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/transfa/biopay-service/internal/domain"
)

// CreatePaymentRequestHandler opens a new pending payment request from the
// caller to the payee in the body.
func (h *Handlers) CreatePaymentRequestHandler(w http.ResponseWriter, r *http.Request) {
	payer, ok := h.callerAccount(w, r)
	if !ok {
		return
	}

	var payload domain.CreatePaymentRequestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req, err := h.service.CreatePaymentRequest(r.Context(), payer, payload)
	if err != nil {
		h.respondServiceError(w, "create_payment_request", err)
		return
	}

	log.Printf("level=info component=api endpoint=create_payment_request outcome=accepted payment_id=%d payer=%s amount=%d", req.ID, payer, req.Amount)
	h.writeJSON(w, http.StatusCreated, req)
}

// AuthenticatePaymentHandler verifies the payer's primary proof against a
// pending request. A mismatch counts toward the payer's lockout.
func (h *Handlers) AuthenticatePaymentHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.callerAccount(w, r); !ok {
		return
	}
	paymentID, ok := h.paymentIDParam(w, r)
	if !ok {
		return
	}

	var payload domain.ProofPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req, err := h.service.AuthenticatePayment(r.Context(), paymentID, payload.Proof)
	if err != nil {
		h.respondServiceError(w, "authenticate_payment", err)
		return
	}

	h.writeJSON(w, http.StatusOK, req)
}

// BackupAuthenticatePaymentHandler verifies the payer's backup proof. A backup
// match also clears any lockout on the payer's profile.
func (h *Handlers) BackupAuthenticatePaymentHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.callerAccount(w, r); !ok {
		return
	}
	paymentID, ok := h.paymentIDParam(w, r)
	if !ok {
		return
	}

	var payload domain.ProofPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req, err := h.service.BackupAuthenticatePayment(r.Context(), paymentID, payload.Proof)
	if err != nil {
		h.respondServiceError(w, "backup_authenticate_payment", err)
		return
	}

	h.writeJSON(w, http.StatusOK, req)
}

// ProcessPaymentHandler settles an authenticated pending request. Only the payer
// may process their own request.
func (h *Handlers) ProcessPaymentHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.callerAccount(w, r)
	if !ok {
		return
	}
	paymentID, ok := h.paymentIDParam(w, r)
	if !ok {
		return
	}

	req, err := h.service.ProcessPayment(r.Context(), caller, paymentID)
	if err != nil {
		log.Printf("level=warn component=api endpoint=process_payment outcome=failed payment_id=%d caller=%s err=%v", paymentID, caller, err)
		h.respondServiceError(w, "process_payment", err)
		return
	}

	log.Printf("level=info component=api endpoint=process_payment outcome=completed payment_id=%d payer=%s payee=%s amount=%d", req.ID, req.Payer, req.Payee, req.Amount)
	h.writeJSON(w, http.StatusOK, req)
}

// CancelPaymentRequestHandler cancels a pending request. Payer and payee may
// both cancel.
func (h *Handlers) CancelPaymentRequestHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.callerAccount(w, r)
	if !ok {
		return
	}
	paymentID, ok := h.paymentIDParam(w, r)
	if !ok {
		return
	}

	req, err := h.service.CancelPaymentRequest(r.Context(), caller, paymentID)
	if err != nil {
		h.respondServiceError(w, "cancel_payment_request", err)
		return
	}

	h.writeJSON(w, http.StatusOK, req)
}

// GetPaymentRequestHandler fetches a payment request by id.
func (h *Handlers) GetPaymentRequestHandler(w http.ResponseWriter, r *http.Request) {
	paymentID, ok := h.paymentIDParam(w, r)
	if !ok {
		return
	}

	req, err := h.service.GetPaymentRequest(r.Context(), paymentID)
	if err != nil {
		h.respondServiceError(w, "get_payment_request", err)
		return
	}

	h.writeJSON(w, http.StatusOK, req)
}
