/**
 * @description
 * This file defines the runtime-mutable global parameters of the authorization
 * engine. The record is seeded once at bootstrap from environment defaults and
 * afterwards changes only through owner-gated admin operations.
 */

package domain

import "time"

// GlobalConfig holds the owner-tunable engine parameters. There is exactly one
// record; the payment and registration counters are store-owned sequences and are
// deliberately not part of it.
type GlobalConfig struct {
	AuthenticationTimeout time.Duration `json:"authentication_timeout"`
	MaxRetryAttempts      int           `json:"max_retry_attempts"`
	UpdatedAt             time.Time     `json:"updated_at"`
}
