/**
 * @description
 * This file contains the core business logic for the biopay-service. The `Service`
 * struct is the authorization engine: it owns biometric enrollment and lockout,
 * the payment request lifecycle, per-user daily spend accounting, merchant stats,
 * and the owner-gated global parameters.
 *
 * Key features:
 * - Gates every processed payment behind biometric verification, expiry, ledger
 *   balance, and the payer's daily spending limit.
 * - Locks the primary verification path after repeated proof mismatches; only
 *   backup recovery or an administrative unlock clears the lock.
 * - Serializes state-changing operations behind a mutex and validates every
 *   precondition before committing any write, so a failed call leaves no partial
 *   mutation behind.
 * - Publishes events to RabbitMQ for asynchronous processing by other services.
 *
 * @dependencies
 * - context, errors, fmt, log, strconv, sync, time: Standard Go libraries.
 * - github.com/google/uuid: Account identity.
 * - internal/domain, internal/store: Domain models and data access.
 * - pkg/rabbitmq: Event publishing.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/transfa/biopay-service/internal/domain"
	"github.com/transfa/biopay-service/internal/store"
	"github.com/transfa/biopay-service/pkg/rabbitmq"
)

// EventsExchange is the RabbitMQ exchange all engine events are published to.
const EventsExchange = "biopay.events"

// ErrAuthRateLimited is returned when the distributed rate limiter rejects an
// authentication attempt before the lockout counter is even consulted.
var ErrAuthRateLimited = errors.New("too many authentication attempts")

// Service provides the core authorization logic.
type Service struct {
	// mu serializes state-changing operations; every such operation runs to
	// completion with exclusive access to the records it touches.
	mu sync.Mutex

	repo          store.Repository
	ledger        Ledger
	verifier      ProofVerifier
	clock         Clock
	eventProducer rabbitmq.Publisher

	ownerAccount         uuid.UUID
	defaultSpendingLimit int64
	merchantAutoVerify   bool

	authLimiter        AuthRateLimiter
	authAttemptsPerMin int
}

// NewService creates a new authorization engine instance. eventProducer may be nil
// when the broker is unavailable; events are then skipped.
func NewService(
	repo store.Repository,
	ledger Ledger,
	verifier ProofVerifier,
	clock Clock,
	producer rabbitmq.Publisher,
	ownerAccount uuid.UUID,
	defaultSpendingLimit int64,
	merchantAutoVerify bool,
) *Service {
	return &Service{
		repo:                 repo,
		ledger:               ledger,
		verifier:             verifier,
		clock:                clock,
		eventProducer:        producer,
		ownerAccount:         ownerAccount,
		defaultSpendingLimit: defaultSpendingLimit,
		merchantAutoVerify:   merchantAutoVerify,
	}
}

// SetAuthRateLimiter wires an optional distributed rate limiter in front of the
// authentication endpoints. A nil limiter or non-positive limit disables it.
func (s *Service) SetAuthRateLimiter(limiter AuthRateLimiter, attemptsPerMinute int) {
	s.authLimiter = limiter
	s.authAttemptsPerMin = attemptsPerMinute
}

// ---------------------------------------------------------------------------
// Biometric registry
// ---------------------------------------------------------------------------

// Enroll registers the account's biometric digests and, as a coupled side effect,
// creates the matching user profile with the default spending limit. An active
// profile cannot be overwritten; a deactivated one can be re-enrolled.
func (s *Service) Enroll(ctx context.Context, account uuid.UUID, payload domain.EnrollPayload) (*domain.BiometricProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.repo.GetBiometricProfile(ctx, account)
	if err == nil && existing.Active {
		return nil, store.ErrBiometricAlreadyRegistered
	}
	if err != nil && !errors.Is(err, store.ErrBiometricNotRegistered) {
		return nil, fmt.Errorf("failed to check existing enrollment: %w", err)
	}
	if len(payload.BiometricHash) == 0 || len(payload.BackupHash) == 0 {
		return nil, store.ErrInvalidBiometricData
	}

	registrationID, err := s.repo.NextRegistrationID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate registration id: %w", err)
	}

	now := s.clock.Now()
	profile := &domain.BiometricProfile{
		Account:        account,
		BiometricHash:  payload.BiometricHash,
		BackupHash:     payload.BackupHash,
		Active:         true,
		RegistrationID: registrationID,
		LastUpdated:    now,
		FailedAttempts: 0,
		Locked:         false,
	}
	user := &domain.UserProfile{
		Account:          account,
		DisplayName:      payload.DisplayName,
		SpendingLimit:    s.defaultSpendingLimit,
		DailySpent:       0,
		LastResetDay:     utcDay(now),
		Verified:         false,
		RegistrationDate: now,
	}

	if err := s.repo.CreateEnrollment(ctx, profile, user); err != nil {
		return nil, fmt.Errorf("failed to store enrollment: %w", err)
	}

	log.Printf("level=info component=engine op=enroll account=%s registration_id=%d", account, registrationID)
	s.publish(ctx, "biometric.enrolled", domain.BiometricEnrolledEvent{
		Account:        account,
		RegistrationID: registrationID,
		EnrolledAt:     now,
	})
	return profile, nil
}

// RotateBiometric replaces the primary digest after the caller proves possession
// of the current credential. A mismatched proof does not touch the failure counter.
func (s *Service) RotateBiometric(ctx context.Context, account uuid.UUID, payload domain.RotateBiometricPayload) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, err := s.repo.GetBiometricProfile(ctx, account)
	if err != nil {
		return err
	}
	if profile.Locked {
		return store.ErrUnauthorized
	}
	if len(payload.NewHash) == 0 {
		return store.ErrInvalidBiometricData
	}
	if !s.verifier.Verify(payload.Proof, profile.BiometricHash) {
		return store.ErrBiometricVerificationFailed
	}

	profile.BiometricHash = payload.NewHash
	profile.LastUpdated = s.clock.Now()
	if err := s.repo.SaveBiometricProfile(ctx, profile); err != nil {
		return fmt.Errorf("failed to store rotated digest: %w", err)
	}
	log.Printf("level=info component=engine op=rotate account=%s", account)
	return nil
}

// VerifyBiometric runs a primary proof verification. A match resets the failure
// counter; a mismatch increments it and locks the account when the configured
// threshold is reached. The counter mutation persists even though the call fails.
func (s *Service) VerifyBiometric(ctx context.Context, account uuid.UUID, proof []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.verifyPrimary(ctx, account, proof)
}

// verifyPrimary is the shared primary-path verification. Callers must hold s.mu.
func (s *Service) verifyPrimary(ctx context.Context, account uuid.UUID, proof []byte) error {
	profile, err := s.repo.GetBiometricProfile(ctx, account)
	if err != nil {
		return err
	}
	if profile.Locked {
		return store.ErrUnauthorized
	}

	cfg, err := s.repo.GetGlobalConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to load global config: %w", err)
	}

	if s.verifier.Verify(proof, profile.BiometricHash) {
		profile.FailedAttempts = 0
		profile.Locked = false
		if err := s.repo.SaveBiometricProfile(ctx, profile); err != nil {
			return fmt.Errorf("failed to reset failure counter: %w", err)
		}
		s.markUserVerified(ctx, account)
		return nil
	}

	profile.FailedAttempts++
	profile.Locked = profile.FailedAttempts >= cfg.MaxRetryAttempts
	if err := s.repo.SaveBiometricProfile(ctx, profile); err != nil {
		return fmt.Errorf("failed to record failed attempt: %w", err)
	}
	if profile.Locked {
		log.Printf("level=warn component=engine op=verify account=%s msg=\"account locked\" failed_attempts=%d", account, profile.FailedAttempts)
		s.publish(ctx, "biometric.locked", domain.BiometricLockedEvent{
			Account:        account,
			FailedAttempts: profile.FailedAttempts,
			LockedAt:       s.clock.Now(),
		})
	}
	return store.ErrBiometricVerificationFailed
}

// backupRecover verifies the backup proof and unconditionally clears the lock
// state on a match, regardless of whether the account is currently locked. A
// mismatch mutates nothing. Callers must hold s.mu.
func (s *Service) backupRecover(ctx context.Context, account uuid.UUID, proof []byte) error {
	profile, err := s.repo.GetBiometricProfile(ctx, account)
	if err != nil {
		return err
	}
	if !s.verifier.Verify(proof, profile.BackupHash) {
		return store.ErrBiometricVerificationFailed
	}
	profile.FailedAttempts = 0
	profile.Locked = false
	if err := s.repo.SaveBiometricProfile(ctx, profile); err != nil {
		return fmt.Errorf("failed to clear lock state: %w", err)
	}
	log.Printf("level=info component=engine op=backup_recover account=%s", account)
	s.markUserVerified(ctx, account)
	return nil
}

// markUserVerified flips the user profile's verified flag after the first
// successful proof verification. Best effort; enrollment precedes every verify.
func (s *Service) markUserVerified(ctx context.Context, account uuid.UUID) {
	user, err := s.repo.GetUserProfile(ctx, account)
	if err != nil || user.Verified {
		return
	}
	user.Verified = true
	if err := s.repo.SaveUserProfile(ctx, user); err != nil {
		log.Printf("level=warn component=engine op=verify account=%s msg=\"failed to mark user verified\" err=%v", account, err)
	}
}

// DeactivateBiometric soft-disables the account's profile. Callable by the account
// itself or by the system owner.
func (s *Service) DeactivateBiometric(ctx context.Context, caller, account uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if caller != account && caller != s.ownerAccount {
		return store.ErrUnauthorized
	}
	profile, err := s.repo.GetBiometricProfile(ctx, account)
	if err != nil {
		return err
	}
	profile.Active = false
	if err := s.repo.SaveBiometricProfile(ctx, profile); err != nil {
		return fmt.Errorf("failed to deactivate profile: %w", err)
	}
	log.Printf("level=info component=engine op=deactivate account=%s caller=%s", account, caller)
	return nil
}

// ---------------------------------------------------------------------------
// Payment request machine
// ---------------------------------------------------------------------------

// CreatePaymentRequest opens a pending request. The id sequence is only touched
// after every precondition passes, so a failed create allocates no id.
func (s *Service) CreatePaymentRequest(ctx context.Context, payer uuid.UUID, payload domain.CreatePaymentRequestPayload) (*domain.PaymentRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if payload.Amount <= 0 {
		return nil, store.ErrInvalidAmount
	}
	profile, err := s.repo.GetBiometricProfile(ctx, payer)
	if err != nil {
		return nil, err
	}
	if !profile.Active {
		return nil, store.ErrBiometricNotRegistered
	}

	cfg, err := s.repo.GetGlobalConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load global config: %w", err)
	}
	id, err := s.repo.NextPaymentID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate payment id: %w", err)
	}

	now := s.clock.Now()
	req := &domain.PaymentRequest{
		ID:                id,
		Payer:             payer,
		Payee:             payload.Payee,
		Amount:            payload.Amount,
		Description:       payload.Description,
		Status:            domain.PaymentStatusPending,
		CreatedAt:         now,
		ExpiresAt:         now.Add(cfg.AuthenticationTimeout),
		RequiresBiometric: payload.RequiresBiometric,
		BiometricVerified: false,
	}
	if err := s.repo.CreatePaymentRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to store payment request: %w", err)
	}
	log.Printf("level=info component=engine op=create_payment payment_id=%d payer=%s payee=%s amount=%d", id, payer, payload.Payee, payload.Amount)
	return req, nil
}

// AuthenticatePayment verifies the payer's primary proof against a pending,
// unexpired request. Expiry is checked before the proof is evaluated, and a
// mismatch's counter increment is not rolled back when the call fails.
func (s *Service) AuthenticatePayment(ctx context.Context, paymentID int64, proof []byte) (*domain.PaymentRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.consumeAuthBudget(ctx, paymentID); err != nil {
		return nil, err
	}

	req, err := s.repo.GetPaymentRequest(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetBiometricProfile(ctx, req.Payer); err != nil {
		return nil, err
	}
	if s.clock.Now().After(req.ExpiresAt) {
		return nil, store.ErrPaymentExpired
	}
	if req.Status != domain.PaymentStatusPending {
		return nil, store.ErrPaymentAlreadyProcessed
	}

	if err := s.verifyPrimary(ctx, req.Payer, proof); err != nil {
		return nil, err
	}

	req.BiometricVerified = true
	if err := s.repo.SavePaymentRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to mark payment verified: %w", err)
	}
	return req, nil
}

// BackupAuthenticatePayment authenticates a request through the backup proof
// path, clearing any lockout on the payer's profile as a side effect.
func (s *Service) BackupAuthenticatePayment(ctx context.Context, paymentID int64, proof []byte) (*domain.PaymentRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.consumeAuthBudget(ctx, paymentID); err != nil {
		return nil, err
	}

	req, err := s.repo.GetPaymentRequest(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetBiometricProfile(ctx, req.Payer); err != nil {
		return nil, err
	}
	if s.clock.Now().After(req.ExpiresAt) {
		return nil, store.ErrPaymentExpired
	}
	if req.Status != domain.PaymentStatusPending {
		return nil, store.ErrPaymentAlreadyProcessed
	}

	if err := s.backupRecover(ctx, req.Payer, proof); err != nil {
		return nil, err
	}

	req.BiometricVerified = true
	if err := s.repo.SavePaymentRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to mark payment verified: %w", err)
	}
	return req, nil
}

// ProcessPayment moves the funds for an authenticated, unexpired, within-limit
// request. The ledger transfer happens only after every check passes; a transfer
// failure aborts with no state change.
func (s *Service) ProcessPayment(ctx context.Context, caller uuid.UUID, paymentID int64) (*domain.PaymentRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, err := s.repo.GetPaymentRequest(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if caller != req.Payer {
		return nil, store.ErrUnauthorized
	}
	if req.Status != domain.PaymentStatusPending {
		return nil, store.ErrPaymentAlreadyProcessed
	}
	if !req.BiometricVerified {
		return nil, store.ErrBiometricVerificationFailed
	}
	now := s.clock.Now()
	if now.After(req.ExpiresAt) {
		return nil, store.ErrPaymentExpired
	}

	user, err := s.repo.GetUserProfile(ctx, req.Payer)
	if err != nil {
		return nil, err
	}

	balance, err := s.ledger.BalanceOf(ctx, req.Payer)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger balance: %w", err)
	}
	if balance < req.Amount {
		return nil, store.ErrInsufficientBalance
	}

	// Roll the spend accumulator when the UTC calendar day has advanced.
	day := utcDay(now)
	if user.LastResetDay.Before(day) {
		user.DailySpent = 0
		user.LastResetDay = day
	}
	newDailySpent := user.DailySpent + req.Amount
	if newDailySpent > user.SpendingLimit {
		return nil, store.ErrDailyLimitExceeded
	}

	var merchant *domain.Merchant
	merchant, err = s.repo.GetMerchant(ctx, req.Payee)
	if err != nil {
		if !errors.Is(err, store.ErrMerchantNotFound) {
			return nil, fmt.Errorf("failed to look up payee merchant: %w", err)
		}
		merchant = nil
	}

	if err := s.ledger.Transfer(ctx, req.Amount, req.Payer, req.Payee); err != nil {
		return nil, fmt.Errorf("ledger transfer failed: %w", err)
	}

	req.Status = domain.PaymentStatusCompleted
	user.DailySpent = newDailySpent
	if merchant != nil {
		merchant.TotalReceived += req.Amount
		merchant.TransactionCount++
	}
	if err := s.repo.CommitProcessedPayment(ctx, req, user, merchant); err != nil {
		// The ledger transfer is final at this point; a commit failure must be
		// surfaced loudly for reconciliation.
		log.Printf("level=error component=engine op=process payment_id=%d msg=\"commit failed after ledger transfer\" err=%v", paymentID, err)
		return nil, fmt.Errorf("failed to commit processed payment: %w", err)
	}

	log.Printf("level=info component=engine op=process payment_id=%d payer=%s payee=%s amount=%d", paymentID, req.Payer, req.Payee, req.Amount)
	s.publish(ctx, "payment.completed", domain.PaymentCompletedEvent{
		PaymentID:   req.ID,
		Payer:       req.Payer,
		Payee:       req.Payee,
		Amount:      req.Amount,
		Description: req.Description,
		CompletedAt: now,
	})
	return req, nil
}

// CancelPaymentRequest moves a pending request to its cancelled terminal state.
// Either side of the payment may cancel.
func (s *Service) CancelPaymentRequest(ctx context.Context, caller uuid.UUID, paymentID int64) (*domain.PaymentRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, err := s.repo.GetPaymentRequest(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if caller != req.Payer && caller != req.Payee {
		return nil, store.ErrUnauthorized
	}
	if req.Status != domain.PaymentStatusPending {
		return nil, store.ErrPaymentAlreadyProcessed
	}

	req.Status = domain.PaymentStatusCancelled
	if err := s.repo.SavePaymentRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to cancel payment request: %w", err)
	}
	log.Printf("level=info component=engine op=cancel payment_id=%d caller=%s", paymentID, caller)
	return req, nil
}

// ---------------------------------------------------------------------------
// User profile / spending limits
// ---------------------------------------------------------------------------

// UpdateSpendingLimit replaces the account's daily ceiling. Self-service; no
// floor or ceiling validation is applied.
func (s *Service) UpdateSpendingLimit(ctx context.Context, account uuid.UUID, newLimit int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.repo.GetUserProfile(ctx, account)
	if err != nil {
		return err
	}
	user.SpendingLimit = newLimit
	if err := s.repo.SaveUserProfile(ctx, user); err != nil {
		return fmt.Errorf("failed to store spending limit: %w", err)
	}
	return nil
}

// ResetDailyBudgets zeroes the spend accumulator of every profile whose window
// predates the current UTC day. Invoked by the daily cron job; the lazy roll in
// ProcessPayment keeps correctness even if the job never runs.
func (s *Service) ResetDailyBudgets(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.ResetDailySpentBefore(ctx, utcDay(s.clock.Now()))
}

// ---------------------------------------------------------------------------
// Merchant registry
// ---------------------------------------------------------------------------

// RegisterMerchant upserts the account's merchant record. Idempotent; stats on an
// existing record are preserved. The verified flag comes from configuration
// rather than any real verification step.
func (s *Service) RegisterMerchant(ctx context.Context, account uuid.UUID, businessName string) (*domain.Merchant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	merchant, err := s.repo.GetMerchant(ctx, account)
	if err != nil {
		if !errors.Is(err, store.ErrMerchantNotFound) {
			return nil, fmt.Errorf("failed to look up merchant: %w", err)
		}
		merchant = &domain.Merchant{
			Account:      account,
			RegisteredAt: s.clock.Now(),
		}
	}
	merchant.BusinessName = businessName
	merchant.Verified = s.merchantAutoVerify
	if err := s.repo.UpsertMerchant(ctx, merchant); err != nil {
		return nil, fmt.Errorf("failed to store merchant: %w", err)
	}
	log.Printf("level=info component=engine op=register_merchant account=%s business=%q", account, businessName)
	return merchant, nil
}

// ---------------------------------------------------------------------------
// Admin operations
// ---------------------------------------------------------------------------

// UpdateAuthTimeout replaces the payment authentication window. Owner-only.
func (s *Service) UpdateAuthTimeout(ctx context.Context, caller uuid.UUID, timeout time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if caller != s.ownerAccount {
		return store.ErrOwnerOnly
	}
	cfg, err := s.repo.GetGlobalConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to load global config: %w", err)
	}
	cfg.AuthenticationTimeout = timeout
	cfg.UpdatedAt = s.clock.Now()
	if err := s.repo.SaveGlobalConfig(ctx, cfg); err != nil {
		return fmt.Errorf("failed to store global config: %w", err)
	}
	log.Printf("level=info component=engine op=update_auth_timeout timeout=%s", timeout)
	return nil
}

// UpdateMaxRetries replaces the lockout threshold. Owner-only. Existing lock
// states are untouched; the new threshold applies from the next failed attempt.
func (s *Service) UpdateMaxRetries(ctx context.Context, caller uuid.UUID, maxRetries int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if caller != s.ownerAccount {
		return store.ErrOwnerOnly
	}
	cfg, err := s.repo.GetGlobalConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to load global config: %w", err)
	}
	cfg.MaxRetryAttempts = maxRetries
	cfg.UpdatedAt = s.clock.Now()
	if err := s.repo.SaveGlobalConfig(ctx, cfg); err != nil {
		return fmt.Errorf("failed to store global config: %w", err)
	}
	log.Printf("level=info component=engine op=update_max_retries max_retries=%d", maxRetries)
	return nil
}

// UnlockAccount clears the lockout state without a proof. Owner-only; same effect
// as a successful backup recovery.
func (s *Service) UnlockAccount(ctx context.Context, caller, account uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if caller != s.ownerAccount {
		return store.ErrOwnerOnly
	}
	profile, err := s.repo.GetBiometricProfile(ctx, account)
	if err != nil {
		return err
	}
	profile.FailedAttempts = 0
	profile.Locked = false
	if err := s.repo.SaveBiometricProfile(ctx, profile); err != nil {
		return fmt.Errorf("failed to clear lock state: %w", err)
	}
	log.Printf("level=info component=engine op=admin_unlock account=%s", account)
	return nil
}

// ---------------------------------------------------------------------------
// Query surface
// ---------------------------------------------------------------------------

func (s *Service) GetBiometricProfile(ctx context.Context, account uuid.UUID) (*domain.BiometricProfile, error) {
	return s.repo.GetBiometricProfile(ctx, account)
}

func (s *Service) GetUserProfile(ctx context.Context, account uuid.UUID) (*domain.UserProfile, error) {
	return s.repo.GetUserProfile(ctx, account)
}

func (s *Service) GetPaymentRequest(ctx context.Context, paymentID int64) (*domain.PaymentRequest, error) {
	return s.repo.GetPaymentRequest(ctx, paymentID)
}

func (s *Service) GetMerchant(ctx context.Context, account uuid.UUID) (*domain.Merchant, error) {
	return s.repo.GetMerchant(ctx, account)
}

// IsBiometricRegistered reports whether the account has an active profile.
func (s *Service) IsBiometricRegistered(ctx context.Context, account uuid.UUID) (bool, error) {
	profile, err := s.repo.GetBiometricProfile(ctx, account)
	if err != nil {
		if errors.Is(err, store.ErrBiometricNotRegistered) {
			return false, nil
		}
		return false, err
	}
	return profile.Active, nil
}

// IsUserVerified reports whether the account has completed a proof verification.
func (s *Service) IsUserVerified(ctx context.Context, account uuid.UUID) (bool, error) {
	user, err := s.repo.GetUserProfile(ctx, account)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return false, nil
		}
		return false, err
	}
	return user.Verified, nil
}

// GetUserStats aggregates the account's spend window and payment counts. The
// spent-today figure reflects the current UTC day even when the stored
// accumulator has not rolled yet.
func (s *Service) GetUserStats(ctx context.Context, account uuid.UUID) (*domain.UserStats, error) {
	user, err := s.repo.GetUserProfile(ctx, account)
	if err != nil {
		return nil, err
	}
	spentToday := user.DailySpent
	if user.LastResetDay.Before(utcDay(s.clock.Now())) {
		spentToday = 0
	}
	remaining := user.SpendingLimit - spentToday
	if remaining < 0 {
		remaining = 0
	}
	sent, received, err := s.repo.CountPaymentsByAccount(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to count payments: %w", err)
	}
	return &domain.UserStats{
		Account:          account,
		SpendingLimit:    user.SpendingLimit,
		SpentToday:       spentToday,
		RemainingToday:   remaining,
		PaymentsSent:     sent,
		PaymentsReceived: received,
	}, nil
}

func (s *Service) GetSystemStats(ctx context.Context) (*domain.SystemStats, error) {
	return s.repo.GetSystemStats(ctx)
}

// ---------------------------------------------------------------------------
// Internals
// ---------------------------------------------------------------------------

// consumeAuthBudget applies the optional distributed rate limit to an
// authentication attempt. Limiter failures are logged and ignored so Redis
// outages never block authentication.
func (s *Service) consumeAuthBudget(ctx context.Context, paymentID int64) error {
	if s.authLimiter == nil || s.authAttemptsPerMin <= 0 {
		return nil
	}
	subject := strconv.FormatInt(paymentID, 10)
	count, _, err := s.authLimiter.ConsumeRateLimit(ctx, "biometric_auth", subject, s.authAttemptsPerMin, time.Minute)
	if err != nil {
		log.Printf("level=warn component=engine op=authenticate msg=\"rate limiter unavailable\" err=%v", err)
		return nil
	}
	if count > s.authAttemptsPerMin {
		return ErrAuthRateLimited
	}
	return nil
}

func (s *Service) publish(ctx context.Context, routingKey string, body interface{}) {
	if s.eventProducer == nil {
		return
	}
	if err := s.eventProducer.Publish(ctx, EventsExchange, routingKey, body); err != nil {
		log.Printf("level=warn component=engine msg=\"event publish failed\" routing_key=%s err=%v", routingKey, err)
	}
}
