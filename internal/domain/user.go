/**
 * @description
 * This file defines the user profile domain model. A user profile is created as a
 * side effect of biometric enrollment and owns the per-account daily spending
 * accumulator that ProcessPayment enforces.
 *
 * @notes
 * - Amounts are `int64` in the smallest currency unit (kobo), avoiding
 *   floating-point inaccuracies with financial data.
 * - `LastResetDay` is a UTC midnight; the accumulator lazily rolls to zero when the
 *   calendar day advances past it.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserProfile holds display identity and spend accounting for one account.
type UserProfile struct {
	Account          uuid.UUID `json:"account"`
	DisplayName      string    `json:"display_name"`
	SpendingLimit    int64     `json:"spending_limit"` // in kobo
	DailySpent       int64     `json:"daily_spent"`    // in kobo
	LastResetDay     time.Time `json:"last_reset_day"`
	Verified         bool      `json:"verified"`
	RegistrationDate time.Time `json:"registration_date"`
}

// UpdateSpendingLimitPayload is the DTO for the self-service limit update.
type UpdateSpendingLimitPayload struct {
	SpendingLimit int64 `json:"spending_limit"` // in kobo
}

// UserStats is the aggregated per-account view returned by the query surface.
type UserStats struct {
	Account          uuid.UUID `json:"account"`
	SpendingLimit    int64     `json:"spending_limit"`
	SpentToday       int64     `json:"spent_today"`
	RemainingToday   int64     `json:"remaining_today"`
	PaymentsSent     int64     `json:"payments_sent"`
	PaymentsReceived int64     `json:"payments_received"`
}
