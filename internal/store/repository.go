/**
 * @description
 * This file defines the `Repository` interface, which specifies the contract for all
 * data access operations required by the biopay-service. By defining an interface,
 * we decouple the authorization engine from the specific database implementation
 * (PostgreSQL in production, in-memory for tests), making the code more modular and
 * easier to test.
 *
 * @notes
 * - Every mutation is whole-record replace keyed by account or payment id. Writes
 *   that touch more than one record (enrollment, the process-payment commit) are
 *   single methods so the implementation can make them atomic.
 * - The monotonic payment and registration sequences are owned by the store.
 *
 * @dependencies
 * - context, errors, time: Standard Go libraries.
 * - github.com/google/uuid: Account identity.
 * - internal/domain: For the service's domain models.
 */

package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/transfa/biopay-service/internal/domain"
)

// Sentinel errors for the authorization engine. The API layer maps each of these to
// a fixed HTTP status; the engine returns exactly one of them per failed operation.
var (
	ErrOwnerOnly                   = errors.New("operation restricted to the system owner")
	ErrInsufficientBalance         = errors.New("insufficient ledger balance")
	ErrPaymentNotFound             = errors.New("payment request not found")
	ErrInvalidAmount               = errors.New("payment amount must be positive")
	ErrBiometricNotRegistered      = errors.New("no biometric profile registered")
	ErrBiometricVerificationFailed = errors.New("biometric verification failed")
	ErrUserNotFound                = errors.New("user profile not found")
	ErrPaymentExpired              = errors.New("payment request expired")
	ErrUnauthorized                = errors.New("caller not authorized")
	ErrBiometricAlreadyRegistered  = errors.New("biometric profile already registered")
	ErrInvalidBiometricData        = errors.New("invalid biometric data")
	ErrPaymentAlreadyProcessed     = errors.New("payment request already processed")
	ErrDailyLimitExceeded          = errors.New("daily spending limit exceeded")
	ErrMerchantNotFound            = errors.New("merchant not found")
)

// Repository defines the set of methods for interacting with the data store.
type Repository interface {
	// Global configuration. There is exactly one record; EnsureGlobalConfig seeds it
	// on first boot and is a no-op afterwards.
	EnsureGlobalConfig(ctx context.Context, defaults *domain.GlobalConfig) error
	GetGlobalConfig(ctx context.Context) (*domain.GlobalConfig, error)
	SaveGlobalConfig(ctx context.Context, cfg *domain.GlobalConfig) error

	// Monotonic sequences.
	NextRegistrationID(ctx context.Context) (int64, error)
	NextPaymentID(ctx context.Context) (int64, error)

	// Biometric profiles.
	GetBiometricProfile(ctx context.Context, account uuid.UUID) (*domain.BiometricProfile, error)
	SaveBiometricProfile(ctx context.Context, profile *domain.BiometricProfile) error
	// CreateEnrollment atomically stores the biometric profile and its coupled user
	// profile. Re-enrollment over a deactivated profile replaces both records.
	CreateEnrollment(ctx context.Context, profile *domain.BiometricProfile, user *domain.UserProfile) error

	// User profiles.
	GetUserProfile(ctx context.Context, account uuid.UUID) (*domain.UserProfile, error)
	SaveUserProfile(ctx context.Context, profile *domain.UserProfile) error

	// Payment requests.
	CreatePaymentRequest(ctx context.Context, req *domain.PaymentRequest) error
	GetPaymentRequest(ctx context.Context, id int64) (*domain.PaymentRequest, error)
	SavePaymentRequest(ctx context.Context, req *domain.PaymentRequest) error
	// CommitProcessedPayment atomically persists the completed request, the payer's
	// updated spend accounting, and (when non-nil) the payee merchant's stats.
	CommitProcessedPayment(ctx context.Context, req *domain.PaymentRequest, payer *domain.UserProfile, payee *domain.Merchant) error

	// Merchants.
	GetMerchant(ctx context.Context, account uuid.UUID) (*domain.Merchant, error)
	UpsertMerchant(ctx context.Context, merchant *domain.Merchant) error

	// Aggregates and maintenance.
	CountPaymentsByAccount(ctx context.Context, account uuid.UUID) (sent int64, received int64, err error)
	GetSystemStats(ctx context.Context) (*domain.SystemStats, error)
	// ResetDailySpentBefore zeroes the daily accumulator for every profile whose
	// last reset day predates the given UTC day. Returns the number of profiles
	// touched. Used by the scheduled daily reset job.
	ResetDailySpentBefore(ctx context.Context, day time.Time) (int64, error)
}
