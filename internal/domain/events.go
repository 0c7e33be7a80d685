/**
 * @description
 * This file defines the event payloads the biopay-service publishes to RabbitMQ.
 * Downstream consumers (notification, analytics) react to completed payments,
 * lockouts, and enrollments asynchronously; the engine never waits on them.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// PaymentCompletedEvent is published after a payment request has been processed
// and the ledger transfer confirmed.
type PaymentCompletedEvent struct {
	PaymentID   int64     `json:"payment_id"`
	Payer       uuid.UUID `json:"payer"`
	Payee       uuid.UUID `json:"payee"`
	Amount      int64     `json:"amount"` // in kobo
	Description string    `json:"description"`
	CompletedAt time.Time `json:"completed_at"`
}

// BiometricLockedEvent is published when an account crosses the retry threshold
// and its primary verification path locks.
type BiometricLockedEvent struct {
	Account        uuid.UUID `json:"account"`
	FailedAttempts int       `json:"failed_attempts"`
	LockedAt       time.Time `json:"locked_at"`
}

// BiometricEnrolledEvent is published after a successful enrollment.
type BiometricEnrolledEvent struct {
	Account        uuid.UUID `json:"account"`
	RegistrationID int64     `json:"registration_id"`
	EnrolledAt     time.Time `json:"enrolled_at"`
}
