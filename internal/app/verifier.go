/**
 * @description
 * This file defines the pluggable proof verification strategy. The default
 * implementation reduces a raw proof payload to a BLAKE2b-256 digest and compares
 * it against the enrolled digest in constant time. Stronger schemes
 * (challenge-response, attested hardware) can replace it behind the same interface
 * without touching the engine.
 *
 * @dependencies
 * - crypto/subtle: Constant-time comparison.
 * - golang.org/x/crypto/blake2b: Digest function.
 */

package app

import (
	"crypto/subtle"

	"golang.org/x/crypto/blake2b"
)

// DigestSize is the fixed size of every stored biometric digest.
const DigestSize = blake2b.Size256

// ProofVerifier turns raw proof payloads into comparable digests and checks a
// proof against a previously stored digest.
type ProofVerifier interface {
	Digest(proof []byte) []byte
	Verify(proof []byte, digest []byte) bool
}

// DigestVerifier is the default ProofVerifier: BLAKE2b-256 digest equality.
type DigestVerifier struct{}

func (DigestVerifier) Digest(proof []byte) []byte {
	sum := blake2b.Sum256(proof)
	return sum[:]
}

func (v DigestVerifier) Verify(proof []byte, digest []byte) bool {
	if len(digest) != DigestSize {
		return false
	}
	return subtle.ConstantTimeCompare(v.Digest(proof), digest) == 1
}
