/**
 * @description
 * This file defines the biometric enrollment and verification domain models for the
 * biopay-service. A biometric profile stores only fixed-size digests of the proof
 * payloads, never the raw sensor data, and carries the failed-attempt lockout state
 * that gates every primary verification.
 *
 * @notes
 * - Digests are opaque 32-byte values produced by the service's proof verifier.
 *   They are redacted from JSON responses; only their presence is reported.
 * - `Locked` is always kept consistent with `FailedAttempts` against the configured
 *   retry threshold; the engine re-establishes the invariant on every mutation.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// BiometricProfile is the enrollment record for one account. Profiles are never
// deleted; deactivation is a soft flag and re-enrollment replaces the record.
type BiometricProfile struct {
	Account        uuid.UUID `json:"account"`
	BiometricHash  []byte    `json:"-"`
	BackupHash     []byte    `json:"-"`
	Active         bool      `json:"active"`
	RegistrationID int64     `json:"registration_id"`
	LastUpdated    time.Time `json:"last_updated"`
	FailedAttempts int       `json:"failed_attempts"`
	Locked         bool      `json:"locked"`
}

// EnrollPayload is the DTO for enrolling an account. The hashes are the digests of
// the primary and backup proofs, computed on the sensor side. []byte fields travel
// as base64 strings in JSON.
type EnrollPayload struct {
	BiometricHash []byte `json:"biometric_hash"`
	BackupHash    []byte `json:"backup_hash"`
	DisplayName   string `json:"display_name"`
}

// RotateBiometricPayload is the DTO for replacing the primary digest. The caller
// proves possession of the current credential by supplying its raw proof payload.
type RotateBiometricPayload struct {
	NewHash []byte `json:"new_hash"`
	Proof   []byte `json:"proof"`
}

// ProofPayload carries a raw proof for authentication endpoints.
type ProofPayload struct {
	Proof []byte `json:"proof"`
}
