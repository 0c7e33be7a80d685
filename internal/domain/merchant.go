/**
 * @description
 * This file defines the merchant domain model. Merchant registration is an
 * idempotent upsert; the received-payment statistics accumulate monotonically and
 * only as a side effect of successful payment processing.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Merchant is the receiving-side record for an account that registered a business.
type Merchant struct {
	Account          uuid.UUID `json:"account"`
	BusinessName     string    `json:"business_name"`
	Verified         bool      `json:"verified"`
	TotalReceived    int64     `json:"total_received"` // in kobo
	TransactionCount int64     `json:"transaction_count"`
	RegisteredAt     time.Time `json:"registered_at"`
}

// RegisterMerchantPayload is the DTO for merchant registration.
type RegisterMerchantPayload struct {
	BusinessName string `json:"business_name"`
}
