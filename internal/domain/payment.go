/**
 * @description
 * This file defines the payment request domain model and its lifecycle states.
 * A payment request is the unit of authorization: it is created pending, optionally
 * authenticated with a biometric proof, and then either processed (funds move) or
 * cancelled. Both outcomes are terminal and retained for audit.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Payment request lifecycle states. Pending is the only state from which a request
// can advance; completed and cancelled are terminal.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusCancelled = "cancelled"
)

// PaymentRequest represents one authorization-gated transfer. IDs come from a
// monotonic sequence owned by the store.
type PaymentRequest struct {
	ID                int64     `json:"id"`
	Payer             uuid.UUID `json:"payer"`
	Payee             uuid.UUID `json:"payee"`
	Amount            int64     `json:"amount"` // in kobo
	Description       string    `json:"description"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
	ExpiresAt         time.Time `json:"expires_at"`
	RequiresBiometric bool      `json:"requires_biometric"`
	BiometricVerified bool      `json:"biometric_verified"`
}

// CreatePaymentRequestPayload is the DTO for creating a new payment request.
type CreatePaymentRequestPayload struct {
	Payee             uuid.UUID `json:"payee"`
	Amount            int64     `json:"amount" validate:"required,gt=0"` // in kobo
	Description       string    `json:"description"`
	RequiresBiometric bool      `json:"requires_biometric"`
}

// SystemStats is the aggregated payment-system view returned by the query surface.
type SystemStats struct {
	TotalRequests     int64 `json:"total_requests"`
	PendingRequests   int64 `json:"pending_requests"`
	CompletedRequests int64 `json:"completed_requests"`
	CancelledRequests int64 `json:"cancelled_requests"`
	CompletedVolume   int64 `json:"completed_volume"` // in kobo
	EnrolledProfiles  int64 `json:"enrolled_profiles"`
	LockedProfiles    int64 `json:"locked_profiles"`
}
