package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/transfa/biopay-service/internal/domain"
	"github.com/transfa/biopay-service/internal/store"
)

type manualClock struct {
	now time.Time
}

func (c *manualClock) Now() time.Time {
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

type ledgerTransfer struct {
	amount   int64
	from, to uuid.UUID
}

type fakeLedger struct {
	balances    map[uuid.UUID]int64
	transferErr error
	transfers   []ledgerTransfer
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{balances: make(map[uuid.UUID]int64)}
}

func (l *fakeLedger) BalanceOf(ctx context.Context, account uuid.UUID) (int64, error) {
	return l.balances[account], nil
}

func (l *fakeLedger) Transfer(ctx context.Context, amount int64, from, to uuid.UUID) error {
	if l.transferErr != nil {
		return l.transferErr
	}
	l.balances[from] -= amount
	l.balances[to] += amount
	l.transfers = append(l.transfers, ledgerTransfer{amount: amount, from: from, to: to})
	return nil
}

type publishedEvent struct {
	exchange   string
	routingKey string
	body       interface{}
}

type recordingPublisher struct {
	events []publishedEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	p.events = append(p.events, publishedEvent{exchange: exchange, routingKey: routingKey, body: body})
	return nil
}

func (p *recordingPublisher) Close() {}

func (p *recordingPublisher) byRoutingKey(key string) []publishedEvent {
	var matched []publishedEvent
	for _, ev := range p.events {
		if ev.routingKey == key {
			matched = append(matched, ev)
		}
	}
	return matched
}

type stubRateLimiter struct {
	count int
	err   error
}

func (l *stubRateLimiter) ConsumeRateLimit(ctx context.Context, scope, subject string, limit int, window time.Duration) (int, int, error) {
	if l.err != nil {
		return 0, 0, l.err
	}
	l.count++
	return l.count, 1, nil
}

type testEnv struct {
	repo    *store.MemoryRepository
	clock   *manualClock
	ledger  *fakeLedger
	events  *recordingPublisher
	owner   uuid.UUID
	service *Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	repo := store.NewMemoryRepository()
	clock := &manualClock{now: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
	if err := repo.EnsureGlobalConfig(context.Background(), &domain.GlobalConfig{
		AuthenticationTimeout: 300 * time.Second,
		MaxRetryAttempts:      3,
	}); err != nil {
		t.Fatalf("failed to seed global config: %v", err)
	}
	ledger := newFakeLedger()
	events := &recordingPublisher{}
	owner := uuid.New()
	service := NewService(repo, ledger, DigestVerifier{}, clock, events, owner, 10_000_000, true)
	return &testEnv{
		repo:    repo,
		clock:   clock,
		ledger:  ledger,
		events:  events,
		owner:   owner,
		service: service,
	}
}

// enroll registers the account with digests of the given primary and backup proofs.
func (env *testEnv) enroll(t *testing.T, account uuid.UUID, primaryProof, backupProof []byte) {
	t.Helper()
	verifier := DigestVerifier{}
	_, err := env.service.Enroll(context.Background(), account, domain.EnrollPayload{
		BiometricHash: verifier.Digest(primaryProof),
		BackupHash:    verifier.Digest(backupProof),
		DisplayName:   "test user",
	})
	if err != nil {
		t.Fatalf("enroll failed for %s: %v", account, err)
	}
}

func (env *testEnv) createRequest(t *testing.T, payer, payee uuid.UUID, amount int64) *domain.PaymentRequest {
	t.Helper()
	req, err := env.service.CreatePaymentRequest(context.Background(), payer, domain.CreatePaymentRequestPayload{
		Payee:             payee,
		Amount:            amount,
		Description:       "x",
		RequiresBiometric: true,
	})
	if err != nil {
		t.Fatalf("create payment request failed: %v", err)
	}
	return req
}

func (env *testEnv) profile(t *testing.T, account uuid.UUID) *domain.BiometricProfile {
	t.Helper()
	profile, err := env.repo.GetBiometricProfile(context.Background(), account)
	if err != nil {
		t.Fatalf("failed to load profile for %s: %v", account, err)
	}
	return profile
}

func (env *testEnv) user(t *testing.T, account uuid.UUID) *domain.UserProfile {
	t.Helper()
	user, err := env.repo.GetUserProfile(context.Background(), account)
	if err != nil {
		t.Fatalf("failed to load user for %s: %v", account, err)
	}
	return user
}

func (env *testEnv) request(t *testing.T, id int64) *domain.PaymentRequest {
	t.Helper()
	req, err := env.repo.GetPaymentRequest(context.Background(), id)
	if err != nil {
		t.Fatalf("failed to load payment request %d: %v", id, err)
	}
	return req
}

func TestEnroll_CreatesProfileAndUserProfile(t *testing.T) {
	env := newTestEnv(t)
	alice := uuid.New()

	env.enroll(t, alice, []byte("bioA"), []byte("backupA"))

	profile := env.profile(t, alice)
	if !profile.Active {
		t.Fatal("expected enrolled profile to be active")
	}
	if profile.RegistrationID != 1 {
		t.Fatalf("expected registration id 1, got %d", profile.RegistrationID)
	}
	if profile.FailedAttempts != 0 || profile.Locked {
		t.Fatalf("expected clean lockout state, got attempts=%d locked=%t", profile.FailedAttempts, profile.Locked)
	}

	user := env.user(t, alice)
	if user.SpendingLimit != 10_000_000 {
		t.Fatalf("expected default spending limit, got %d", user.SpendingLimit)
	}
	if user.Verified {
		t.Fatal("expected new user to start unverified")
	}
	if user.DailySpent != 0 {
		t.Fatalf("expected zero daily spent, got %d", user.DailySpent)
	}

	enrolled := env.events.byRoutingKey("biometric.enrolled")
	if len(enrolled) != 1 {
		t.Fatalf("expected one biometric.enrolled event, got %d", len(enrolled))
	}
	if enrolled[0].exchange != EventsExchange {
		t.Fatalf("expected event on %s, got %s", EventsExchange, enrolled[0].exchange)
	}
}

func TestEnroll_RejectsActiveDuplicateWithoutOverwrite(t *testing.T) {
	env := newTestEnv(t)
	alice := uuid.New()
	env.enroll(t, alice, []byte("bioA"), []byte("backupA"))
	original := env.profile(t, alice)

	_, err := env.service.Enroll(context.Background(), alice, domain.EnrollPayload{
		BiometricHash: DigestVerifier{}.Digest([]byte("other")),
		BackupHash:    DigestVerifier{}.Digest([]byte("other-backup")),
	})
	if !errors.Is(err, store.ErrBiometricAlreadyRegistered) {
		t.Fatalf("expected ErrBiometricAlreadyRegistered, got %v", err)
	}

	after := env.profile(t, alice)
	if string(after.BiometricHash) != string(original.BiometricHash) {
		t.Fatal("duplicate enrollment must not overwrite the stored digest")
	}
	if after.RegistrationID != original.RegistrationID {
		t.Fatalf("registration id changed from %d to %d", original.RegistrationID, after.RegistrationID)
	}
}

func TestEnroll_RejectsEmptyDigests(t *testing.T) {
	env := newTestEnv(t)
	digest := DigestVerifier{}.Digest([]byte("bio"))

	tests := []struct {
		name    string
		payload domain.EnrollPayload
	}{
		{name: "empty primary", payload: domain.EnrollPayload{BiometricHash: nil, BackupHash: digest}},
		{name: "empty backup", payload: domain.EnrollPayload{BiometricHash: digest, BackupHash: nil}},
		{name: "both empty", payload: domain.EnrollPayload{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			account := uuid.New()
			_, err := env.service.Enroll(context.Background(), account, tc.payload)
			if !errors.Is(err, store.ErrInvalidBiometricData) {
				t.Fatalf("expected ErrInvalidBiometricData, got %v", err)
			}
			if _, err := env.repo.GetBiometricProfile(context.Background(), account); !errors.Is(err, store.ErrBiometricNotRegistered) {
				t.Fatal("rejected enrollment must not create a profile")
			}
		})
	}
}

func TestEnroll_AllowsReEnrollmentAfterDeactivation(t *testing.T) {
	env := newTestEnv(t)
	alice := uuid.New()
	env.enroll(t, alice, []byte("bioA"), []byte("backupA"))

	if err := env.service.DeactivateBiometric(context.Background(), alice, alice); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}

	env.enroll(t, alice, []byte("bioB"), []byte("backupB"))
	profile := env.profile(t, alice)
	if !profile.Active {
		t.Fatal("expected re-enrolled profile to be active")
	}
	if profile.RegistrationID != 2 {
		t.Fatalf("expected a fresh registration id, got %d", profile.RegistrationID)
	}
}

func TestVerifyBiometric_LockoutAfterThreshold(t *testing.T) {
	env := newTestEnv(t)
	alice := uuid.New()
	env.enroll(t, alice, []byte("bioA"), []byte("backupA"))
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		if err := env.service.VerifyBiometric(ctx, alice, []byte("wrong")); !errors.Is(err, store.ErrBiometricVerificationFailed) {
			t.Fatalf("attempt %d: expected ErrBiometricVerificationFailed, got %v", i, err)
		}
		profile := env.profile(t, alice)
		if profile.FailedAttempts != i {
			t.Fatalf("attempt %d: expected counter %d, got %d", i, i, profile.FailedAttempts)
		}
		if profile.Locked {
			t.Fatalf("attempt %d: account locked below threshold", i)
		}
	}

	// Third mismatch crosses the threshold.
	if err := env.service.VerifyBiometric(ctx, alice, []byte("wrong")); !errors.Is(err, store.ErrBiometricVerificationFailed) {
		t.Fatalf("expected ErrBiometricVerificationFailed, got %v", err)
	}
	profile := env.profile(t, alice)
	if !profile.Locked || profile.FailedAttempts != 3 {
		t.Fatalf("expected locked at 3 attempts, got attempts=%d locked=%t", profile.FailedAttempts, profile.Locked)
	}
	locked := env.events.byRoutingKey("biometric.locked")
	if len(locked) != 1 {
		t.Fatalf("expected one biometric.locked event, got %d", len(locked))
	}

	// While locked even the correct proof is rejected and the counter is frozen.
	if err := env.service.VerifyBiometric(ctx, alice, []byte("bioA")); !errors.Is(err, store.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized while locked, got %v", err)
	}
	profile = env.profile(t, alice)
	if profile.FailedAttempts != 3 {
		t.Fatalf("locked rejection must not alter the counter, got %d", profile.FailedAttempts)
	}
	if len(env.events.byRoutingKey("biometric.locked")) != 1 {
		t.Fatal("locked rejection must not publish another lock event")
	}
}

func TestVerifyBiometric_SuccessResetsCounterAndMarksVerified(t *testing.T) {
	env := newTestEnv(t)
	alice := uuid.New()
	env.enroll(t, alice, []byte("bioA"), []byte("backupA"))
	ctx := context.Background()

	if err := env.service.VerifyBiometric(ctx, alice, []byte("wrong")); err == nil {
		t.Fatal("expected mismatch to fail")
	}
	if err := env.service.VerifyBiometric(ctx, alice, []byte("bioA")); err != nil {
		t.Fatalf("expected match to succeed, got %v", err)
	}

	profile := env.profile(t, alice)
	if profile.FailedAttempts != 0 || profile.Locked {
		t.Fatalf("expected counter reset, got attempts=%d locked=%t", profile.FailedAttempts, profile.Locked)
	}
	if !env.user(t, alice).Verified {
		t.Fatal("expected user to be marked verified after first success")
	}
}

func TestRotateBiometric(t *testing.T) {
	env := newTestEnv(t)
	alice := uuid.New()
	env.enroll(t, alice, []byte("bioA"), []byte("backupA"))
	ctx := context.Background()
	verifier := DigestVerifier{}

	// Wrong proof rejects without touching the failure counter.
	err := env.service.RotateBiometric(ctx, alice, domain.RotateBiometricPayload{
		NewHash: verifier.Digest([]byte("bioB")),
		Proof:   []byte("wrong"),
	})
	if !errors.Is(err, store.ErrBiometricVerificationFailed) {
		t.Fatalf("expected ErrBiometricVerificationFailed, got %v", err)
	}
	if env.profile(t, alice).FailedAttempts != 0 {
		t.Fatal("rotation mismatch must not count toward lockout")
	}

	// Empty replacement digest is invalid.
	err = env.service.RotateBiometric(ctx, alice, domain.RotateBiometricPayload{Proof: []byte("bioA")})
	if !errors.Is(err, store.ErrInvalidBiometricData) {
		t.Fatalf("expected ErrInvalidBiometricData, got %v", err)
	}

	// Valid rotation swaps the credential.
	err = env.service.RotateBiometric(ctx, alice, domain.RotateBiometricPayload{
		NewHash: verifier.Digest([]byte("bioB")),
		Proof:   []byte("bioA"),
	})
	if err != nil {
		t.Fatalf("rotation failed: %v", err)
	}
	if err := env.service.VerifyBiometric(ctx, alice, []byte("bioB")); err != nil {
		t.Fatalf("new credential should verify, got %v", err)
	}
	if err := env.service.VerifyBiometric(ctx, alice, []byte("bioA")); !errors.Is(err, store.ErrBiometricVerificationFailed) {
		t.Fatalf("old credential should no longer verify, got %v", err)
	}
}

func TestRotateBiometric_RejectedWhileLocked(t *testing.T) {
	env := newTestEnv(t)
	alice := uuid.New()
	env.enroll(t, alice, []byte("bioA"), []byte("backupA"))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_ = env.service.VerifyBiometric(ctx, alice, []byte("wrong"))
	}
	if !env.profile(t, alice).Locked {
		t.Fatal("expected account to be locked")
	}

	err := env.service.RotateBiometric(ctx, alice, domain.RotateBiometricPayload{
		NewHash: DigestVerifier{}.Digest([]byte("bioB")),
		Proof:   []byte("bioA"),
	})
	if !errors.Is(err, store.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized while locked, got %v", err)
	}
}

func TestDeactivateBiometric_Authorization(t *testing.T) {
	env := newTestEnv(t)
	alice := uuid.New()
	mallory := uuid.New()
	env.enroll(t, alice, []byte("bioA"), []byte("backupA"))
	ctx := context.Background()

	if err := env.service.DeactivateBiometric(ctx, mallory, alice); !errors.Is(err, store.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for third party, got %v", err)
	}
	if !env.profile(t, alice).Active {
		t.Fatal("rejected deactivation must not flip the active flag")
	}

	if err := env.service.DeactivateBiometric(ctx, env.owner, alice); err != nil {
		t.Fatalf("owner deactivation failed: %v", err)
	}
	if env.profile(t, alice).Active {
		t.Fatal("expected profile to be inactive after owner deactivation")
	}
}

func TestCreatePaymentRequest_SetsExpiryFromGlobalConfig(t *testing.T) {
	env := newTestEnv(t)
	alice := uuid.New()
	bob := uuid.New()
	env.enroll(t, alice, []byte("bioA"), []byte("backupA"))

	req := env.createRequest(t, alice, bob, 1_000_000)
	if req.Status != domain.PaymentStatusPending {
		t.Fatalf("expected pending, got %s", req.Status)
	}
	if req.BiometricVerified {
		t.Fatal("new request must start unverified")
	}
	wantExpiry := env.clock.Now().Add(300 * time.Second)
	if !req.ExpiresAt.Equal(wantExpiry) {
		t.Fatalf("expected expiry %v, got %v", wantExpiry, req.ExpiresAt)
	}
}

func TestCreatePaymentRequest_RequiresActiveProfile(t *testing.T) {
	env := newTestEnv(t)
	alice := uuid.New()
	bob := uuid.New()
	ctx := context.Background()

	_, err := env.service.CreatePaymentRequest(ctx, alice, domain.CreatePaymentRequestPayload{Payee: bob, Amount: 100})
	if !errors.Is(err, store.ErrBiometricNotRegistered) {
		t.Fatalf("expected ErrBiometricNotRegistered, got %v", err)
	}

	env.enroll(t, alice, []byte("bioA"), []byte("backupA"))
	if err := env.service.DeactivateBiometric(ctx, alice, alice); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}
	_, err = env.service.CreatePaymentRequest(ctx, alice, domain.CreatePaymentRequestPayload{Payee: bob, Amount: 100})
	if !errors.Is(err, store.ErrBiometricNotRegistered) {
		t.Fatalf("expected ErrBiometricNotRegistered for deactivated payer, got %v", err)
	}
}

func TestAuthenticatePayment_PrimaryPath(t *testing.T) {
	env := newTestEnv(t)
	alice := uuid.New()
	bob := uuid.New()
	env.enroll(t, alice, []byte("bioA"), []byte("backupA"))
	req := env.createRequest(t, alice, bob, 1_000_000)
	ctx := context.Background()

	authed, err := env.service.AuthenticatePayment(ctx, req.ID, []byte("bioA"))
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if !authed.BiometricVerified {
		t.Fatal("expected biometric_verified to be set")
	}
	if !env.request(t, req.ID).BiometricVerified {
		t.Fatal("expected verification flag to be persisted")
	}
}

func TestAuthenticatePayment_MismatchCountsTowardLockout(t *testing.T) {
	env := newTestEnv(t)
	alice := uuid.New()
	bob := uuid.New()
	env.enroll(t, alice, []byte("bioA"), []byte("backupA"))
	req := env.createRequest(t, alice, bob, 1_000_000)
	ctx := context.Background()

	_, err := env.service.AuthenticatePayment(ctx, req.ID, []byte("wrong"))
	if !errors.Is(err, store.ErrBiometricVerificationFailed) {
		t.Fatalf("expected ErrBiometricVerificationFailed, got %v", err)
	}
	if got := env.profile(t, alice).FailedAttempts; got != 1 {
		t.Fatalf("expected the failed attempt to persist, got counter %d", got)
	}
	if env.request(t, req.ID).BiometricVerified {
		t.Fatal("mismatch must not verify the request")
	}
}

func TestAuthenticatePayment_ExpiredBeforeProofEvaluation(t *testing.T) {
	env := newTestEnv(t)
	alice := uuid.New()
	bob := uuid.New()
	env.enroll(t, alice, []byte("bioA"), []byte("backupA"))
	req := env.createRequest(t, alice, bob, 1_000_000)
	ctx := context.Background()

	env.clock.Advance(301 * time.Second)

	// Even a wrong proof reports expiry, and no attempt is recorded.
	_, err := env.service.AuthenticatePayment(ctx, req.ID, []byte("wrong"))
	if !errors.Is(err, store.ErrPaymentExpired) {
		t.Fatalf("expected ErrPaymentExpired, got %v", err)
	}
	if got := env.profile(t, alice).FailedAttempts; got != 0 {
		t.Fatalf("expired authentication must not touch the counter, got %d", got)
	}
}

func TestAuthenticatePayment_TerminalStatusRejected(t *testing.T) {
	env := newTestEnv(t)
	alice := uuid.New()
	bob := uuid.New()
	env.enroll(t, alice, []byte("bioA"), []byte("backupA"))
	req := env.createRequest(t, alice, bob, 1_000_000)
	ctx := context.Background()

	if _, err := env.service.CancelPaymentRequest(ctx, alice, req.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	_, err := env.service.AuthenticatePayment(ctx, req.ID, []byte("bioA"))
	if !errors.Is(err, store.ErrPaymentAlreadyProcessed) {
		t.Fatalf("expected ErrPaymentAlreadyProcessed, got %v", err)
	}
}

func TestAuthenticatePayment_UnknownRequest(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.service.AuthenticatePayment(context.Background(), 42, []byte("bioA"))
	if !errors.Is(err, store.ErrPaymentNotFound) {
		t.Fatalf("expected ErrPaymentNotFound, got %v", err)
	}
}

func TestBackupAuthenticate_ClearsLockAndVerifies(t *testing.T) {
	env := newTestEnv(t)
	alice := uuid.New()
	bob := uuid.New()
	env.enroll(t, alice, []byte("bioA"), []byte("backupA"))
	req := env.createRequest(t, alice, bob, 1_000_000)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _ = env.service.AuthenticatePayment(ctx, req.ID, []byte("wrong"))
	}
	if !env.profile(t, alice).Locked {
		t.Fatal("expected account to be locked")
	}

	// Wrong backup proof mutates nothing.
	_, err := env.service.BackupAuthenticatePayment(ctx, req.ID, []byte("wrong-backup"))
	if !errors.Is(err, store.ErrBiometricVerificationFailed) {
		t.Fatalf("expected ErrBiometricVerificationFailed, got %v", err)
	}
	profile := env.profile(t, alice)
	if !profile.Locked || profile.FailedAttempts != 3 {
		t.Fatalf("failed backup must not alter lock state, got attempts=%d locked=%t", profile.FailedAttempts, profile.Locked)
	}

	authed, err := env.service.BackupAuthenticatePayment(ctx, req.ID, []byte("backupA"))
	if err != nil {
		t.Fatalf("backup authenticate failed: %v", err)
	}
	if !authed.BiometricVerified {
		t.Fatal("expected backup authentication to verify the request")
	}
	profile = env.profile(t, alice)
	if profile.Locked || profile.FailedAttempts != 0 {
		t.Fatalf("expected backup recovery to clear the lock, got attempts=%d locked=%t", profile.FailedAttempts, profile.Locked)
	}
	if !env.user(t, alice).Verified {
		t.Fatal("expected backup success to mark the user verified")
	}
}

func TestProcessPayment_HappyPathWithMerchant(t *testing.T) {
	env := newTestEnv(t)
	alice := uuid.New()
	bob := uuid.New()
	env.enroll(t, alice, []byte("bioA"), []byte("backupA"))
	env.ledger.balances[alice] = 5_000_000
	ctx := context.Background()

	if _, err := env.service.RegisterMerchant(ctx, bob, "Bob's Coffee"); err != nil {
		t.Fatalf("merchant registration failed: %v", err)
	}

	req := env.createRequest(t, alice, bob, 1_000_000)
	if _, err := env.service.AuthenticatePayment(ctx, req.ID, []byte("bioA")); err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}

	processed, err := env.service.ProcessPayment(ctx, alice, req.ID)
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if processed.Status != domain.PaymentStatusCompleted {
		t.Fatalf("expected completed, got %s", processed.Status)
	}
	if got := env.user(t, alice).DailySpent; got != 1_000_000 {
		t.Fatalf("expected daily spent 1000000, got %d", got)
	}

	merchant, err := env.repo.GetMerchant(ctx, bob)
	if err != nil {
		t.Fatalf("merchant lookup failed: %v", err)
	}
	if merchant.TotalReceived != 1_000_000 || merchant.TransactionCount != 1 {
		t.Fatalf("expected merchant stats to accumulate, got received=%d count=%d", merchant.TotalReceived, merchant.TransactionCount)
	}

	if len(env.ledger.transfers) != 1 {
		t.Fatalf("expected one ledger transfer, got %d", len(env.ledger.transfers))
	}
	if tr := env.ledger.transfers[0]; tr.amount != 1_000_000 || tr.from != alice || tr.to != bob {
		t.Fatalf("unexpected ledger transfer: %+v", tr)
	}
	if len(env.events.byRoutingKey("payment.completed")) != 1 {
		t.Fatal("expected a payment.completed event")
	}
}

func TestProcessPayment_Gates(t *testing.T) {
	type gateSetup func(t *testing.T, env *testEnv, alice, bob uuid.UUID, reqID int64) (caller uuid.UUID)

	tests := []struct {
		name    string
		setup   gateSetup
		wantErr error
	}{
		{
			name: "wrong caller",
			setup: func(t *testing.T, env *testEnv, alice, bob uuid.UUID, reqID int64) uuid.UUID {
				if _, err := env.service.AuthenticatePayment(context.Background(), reqID, []byte("bioA")); err != nil {
					t.Fatalf("authenticate failed: %v", err)
				}
				return bob
			},
			wantErr: store.ErrUnauthorized,
		},
		{
			name: "not authenticated",
			setup: func(t *testing.T, env *testEnv, alice, bob uuid.UUID, reqID int64) uuid.UUID {
				return alice
			},
			wantErr: store.ErrBiometricVerificationFailed,
		},
		{
			name: "expired",
			setup: func(t *testing.T, env *testEnv, alice, bob uuid.UUID, reqID int64) uuid.UUID {
				if _, err := env.service.AuthenticatePayment(context.Background(), reqID, []byte("bioA")); err != nil {
					t.Fatalf("authenticate failed: %v", err)
				}
				env.clock.Advance(301 * time.Second)
				return alice
			},
			wantErr: store.ErrPaymentExpired,
		},
		{
			name: "insufficient balance",
			setup: func(t *testing.T, env *testEnv, alice, bob uuid.UUID, reqID int64) uuid.UUID {
				if _, err := env.service.AuthenticatePayment(context.Background(), reqID, []byte("bioA")); err != nil {
					t.Fatalf("authenticate failed: %v", err)
				}
				env.ledger.balances[alice] = 999_999
				return alice
			},
			wantErr: store.ErrInsufficientBalance,
		},
		{
			name: "daily limit exceeded",
			setup: func(t *testing.T, env *testEnv, alice, bob uuid.UUID, reqID int64) uuid.UUID {
				if _, err := env.service.AuthenticatePayment(context.Background(), reqID, []byte("bioA")); err != nil {
					t.Fatalf("authenticate failed: %v", err)
				}
				if err := env.service.UpdateSpendingLimit(context.Background(), alice, 500_000); err != nil {
					t.Fatalf("limit update failed: %v", err)
				}
				return alice
			},
			wantErr: store.ErrDailyLimitExceeded,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)
			alice := uuid.New()
			bob := uuid.New()
			env.enroll(t, alice, []byte("bioA"), []byte("backupA"))
			env.ledger.balances[alice] = 5_000_000
			req := env.createRequest(t, alice, bob, 1_000_000)

			caller := tc.setup(t, env, alice, bob, req.ID)

			_, err := env.service.ProcessPayment(context.Background(), caller, req.ID)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}

			// A rejected process leaves the request pending and moves no funds.
			if got := env.request(t, req.ID).Status; got != domain.PaymentStatusPending {
				t.Fatalf("expected request to stay pending, got %s", got)
			}
			if got := env.user(t, alice).DailySpent; got != 0 {
				t.Fatalf("expected daily spent untouched, got %d", got)
			}
			if len(env.ledger.transfers) != 0 {
				t.Fatalf("expected no ledger transfer, got %d", len(env.ledger.transfers))
			}
		})
	}
}

func TestProcessPayment_LedgerFailureAbortsCleanly(t *testing.T) {
	env := newTestEnv(t)
	alice := uuid.New()
	bob := uuid.New()
	env.enroll(t, alice, []byte("bioA"), []byte("backupA"))
	env.ledger.balances[alice] = 5_000_000
	req := env.createRequest(t, alice, bob, 1_000_000)
	ctx := context.Background()

	if _, err := env.service.AuthenticatePayment(ctx, req.ID, []byte("bioA")); err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	env.ledger.transferErr = errors.New("ledger unavailable")

	if _, err := env.service.ProcessPayment(ctx, alice, req.ID); err == nil {
		t.Fatal("expected process to fail when the ledger transfer fails")
	}
	if got := env.request(t, req.ID).Status; got != domain.PaymentStatusPending {
		t.Fatalf("expected request to stay pending, got %s", got)
	}
	if got := env.user(t, alice).DailySpent; got != 0 {
		t.Fatalf("expected daily spent untouched, got %d", got)
	}

	// The request stays processable once the ledger recovers.
	env.ledger.transferErr = nil
	if _, err := env.service.ProcessPayment(ctx, alice, req.ID); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
}

func TestProcessPayment_ExactlyOnce(t *testing.T) {
	env := newTestEnv(t)
	alice := uuid.New()
	bob := uuid.New()
	env.enroll(t, alice, []byte("bioA"), []byte("backupA"))
	env.ledger.balances[alice] = 5_000_000
	req := env.createRequest(t, alice, bob, 1_000_000)
	ctx := context.Background()

	if _, err := env.service.AuthenticatePayment(ctx, req.ID, []byte("bioA")); err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if _, err := env.service.ProcessPayment(ctx, alice, req.ID); err != nil {
		t.Fatalf("first process failed: %v", err)
	}
	if _, err := env.service.ProcessPayment(ctx, alice, req.ID); !errors.Is(err, store.ErrPaymentAlreadyProcessed) {
		t.Fatalf("expected ErrPaymentAlreadyProcessed, got %v", err)
	}
	if len(env.ledger.transfers) != 1 {
		t.Fatalf("expected exactly one transfer, got %d", len(env.ledger.transfers))
	}
}

func TestProcessPayment_DailyWindowRollsOver(t *testing.T) {
	env := newTestEnv(t)
	alice := uuid.New()
	bob := uuid.New()
	env.enroll(t, alice, []byte("bioA"), []byte("backupA"))
	env.ledger.balances[alice] = 50_000_000
	ctx := context.Background()

	if err := env.service.UpdateSpendingLimit(ctx, alice, 1_000_000); err != nil {
		t.Fatalf("limit update failed: %v", err)
	}

	first := env.createRequest(t, alice, bob, 1_000_000)
	if _, err := env.service.AuthenticatePayment(ctx, first.ID, []byte("bioA")); err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if _, err := env.service.ProcessPayment(ctx, alice, first.ID); err != nil {
		t.Fatalf("first process failed: %v", err)
	}

	// Same day: the limit is exhausted.
	second := env.createRequest(t, alice, bob, 1_000_000)
	if _, err := env.service.AuthenticatePayment(ctx, second.ID, []byte("bioA")); err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if _, err := env.service.ProcessPayment(ctx, alice, second.ID); !errors.Is(err, store.ErrDailyLimitExceeded) {
		t.Fatalf("expected ErrDailyLimitExceeded, got %v", err)
	}

	// Next UTC day the accumulator rolls and a fresh request goes through.
	env.clock.Advance(24 * time.Hour)
	third := env.createRequest(t, alice, bob, 1_000_000)
	if _, err := env.service.AuthenticatePayment(ctx, third.ID, []byte("bioA")); err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if _, err := env.service.ProcessPayment(ctx, alice, third.ID); err != nil {
		t.Fatalf("expected next-day process to succeed, got %v", err)
	}
	user := env.user(t, alice)
	if user.DailySpent != 1_000_000 {
		t.Fatalf("expected rolled accumulator at 1000000, got %d", user.DailySpent)
	}
}

func TestCancelPaymentRequest(t *testing.T) {
	env := newTestEnv(t)
	alice := uuid.New()
	bob := uuid.New()
	mallory := uuid.New()
	env.enroll(t, alice, []byte("bioA"), []byte("backupA"))
	ctx := context.Background()

	req := env.createRequest(t, alice, bob, 1_000_000)

	if _, err := env.service.CancelPaymentRequest(ctx, mallory, req.ID); !errors.Is(err, store.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for third party, got %v", err)
	}
	if _, err := env.service.CancelPaymentRequest(ctx, bob, req.ID); err != nil {
		t.Fatalf("payee cancel failed: %v", err)
	}
	if got := env.request(t, req.ID).Status; got != domain.PaymentStatusCancelled {
		t.Fatalf("expected cancelled, got %s", got)
	}

	// Cancelled is terminal.
	if _, err := env.service.CancelPaymentRequest(ctx, alice, req.ID); !errors.Is(err, store.ErrPaymentAlreadyProcessed) {
		t.Fatalf("expected ErrPaymentAlreadyProcessed on re-cancel, got %v", err)
	}
	if _, err := env.service.ProcessPayment(ctx, alice, req.ID); !errors.Is(err, store.ErrPaymentAlreadyProcessed) {
		t.Fatalf("expected ErrPaymentAlreadyProcessed on process-after-cancel, got %v", err)
	}
}

func TestResetDailyBudgets(t *testing.T) {
	env := newTestEnv(t)
	alice := uuid.New()
	bob := uuid.New()
	env.enroll(t, alice, []byte("bioA"), []byte("backupA"))
	env.ledger.balances[alice] = 5_000_000
	ctx := context.Background()

	req := env.createRequest(t, alice, bob, 1_000_000)
	if _, err := env.service.AuthenticatePayment(ctx, req.ID, []byte("bioA")); err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if _, err := env.service.ProcessPayment(ctx, alice, req.ID); err != nil {
		t.Fatalf("process failed: %v", err)
	}

	// Same day: nothing to reset.
	touched, err := env.service.ResetDailyBudgets(ctx)
	if err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if touched != 0 {
		t.Fatalf("expected no profiles touched on the same day, got %d", touched)
	}

	env.clock.Advance(24 * time.Hour)
	touched, err = env.service.ResetDailyBudgets(ctx)
	if err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if touched != 1 {
		t.Fatalf("expected one profile reset, got %d", touched)
	}
	if got := env.user(t, alice).DailySpent; got != 0 {
		t.Fatalf("expected accumulator zeroed, got %d", got)
	}
}

func TestRegisterMerchant_IdempotentAndPreservesStats(t *testing.T) {
	env := newTestEnv(t)
	alice := uuid.New()
	bob := uuid.New()
	env.enroll(t, alice, []byte("bioA"), []byte("backupA"))
	env.ledger.balances[alice] = 5_000_000
	ctx := context.Background()

	merchant, err := env.service.RegisterMerchant(ctx, bob, "Bob's Coffee")
	if err != nil {
		t.Fatalf("registration failed: %v", err)
	}
	if !merchant.Verified {
		t.Fatal("expected auto-verified merchant")
	}

	req := env.createRequest(t, alice, bob, 1_000_000)
	if _, err := env.service.AuthenticatePayment(ctx, req.ID, []byte("bioA")); err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if _, err := env.service.ProcessPayment(ctx, alice, req.ID); err != nil {
		t.Fatalf("process failed: %v", err)
	}

	renamed, err := env.service.RegisterMerchant(ctx, bob, "Bob's Bakery")
	if err != nil {
		t.Fatalf("re-registration failed: %v", err)
	}
	if renamed.BusinessName != "Bob's Bakery" {
		t.Fatalf("expected updated business name, got %q", renamed.BusinessName)
	}
	if renamed.TotalReceived != 1_000_000 || renamed.TransactionCount != 1 {
		t.Fatalf("re-registration must preserve stats, got received=%d count=%d", renamed.TotalReceived, renamed.TransactionCount)
	}
}

func TestAdminOps_OwnerGating(t *testing.T) {
	env := newTestEnv(t)
	alice := uuid.New()
	env.enroll(t, alice, []byte("bioA"), []byte("backupA"))
	ctx := context.Background()

	if err := env.service.UpdateAuthTimeout(ctx, alice, time.Minute); !errors.Is(err, store.ErrOwnerOnly) {
		t.Fatalf("expected ErrOwnerOnly, got %v", err)
	}
	if err := env.service.UpdateMaxRetries(ctx, alice, 5); !errors.Is(err, store.ErrOwnerOnly) {
		t.Fatalf("expected ErrOwnerOnly, got %v", err)
	}
	if err := env.service.UnlockAccount(ctx, alice, alice); !errors.Is(err, store.ErrOwnerOnly) {
		t.Fatalf("expected ErrOwnerOnly, got %v", err)
	}

	// The new timeout applies to requests created afterwards.
	if err := env.service.UpdateAuthTimeout(ctx, env.owner, time.Minute); err != nil {
		t.Fatalf("owner timeout update failed: %v", err)
	}
	req := env.createRequest(t, alice, uuid.New(), 100)
	wantExpiry := env.clock.Now().Add(time.Minute)
	if !req.ExpiresAt.Equal(wantExpiry) {
		t.Fatalf("expected expiry %v under the new timeout, got %v", wantExpiry, req.ExpiresAt)
	}
}

func TestUnlockAccount_ClearsLockState(t *testing.T) {
	env := newTestEnv(t)
	alice := uuid.New()
	env.enroll(t, alice, []byte("bioA"), []byte("backupA"))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_ = env.service.VerifyBiometric(ctx, alice, []byte("wrong"))
	}
	if !env.profile(t, alice).Locked {
		t.Fatal("expected account to be locked")
	}

	if err := env.service.UnlockAccount(ctx, env.owner, alice); err != nil {
		t.Fatalf("unlock failed: %v", err)
	}
	profile := env.profile(t, alice)
	if profile.Locked || profile.FailedAttempts != 0 {
		t.Fatalf("expected clean state after unlock, got attempts=%d locked=%t", profile.FailedAttempts, profile.Locked)
	}
	if err := env.service.VerifyBiometric(ctx, alice, []byte("bioA")); err != nil {
		t.Fatalf("expected verification to work after unlock, got %v", err)
	}
}

func TestUpdateMaxRetries_NotRetroactive(t *testing.T) {
	env := newTestEnv(t)
	alice := uuid.New()
	env.enroll(t, alice, []byte("bioA"), []byte("backupA"))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_ = env.service.VerifyBiometric(ctx, alice, []byte("wrong"))
	}
	if err := env.service.UpdateMaxRetries(ctx, env.owner, 10); err != nil {
		t.Fatalf("retry threshold update failed: %v", err)
	}
	if !env.profile(t, alice).Locked {
		t.Fatal("raising the threshold must not unlock already-locked accounts")
	}
}

func TestGetUserStats(t *testing.T) {
	env := newTestEnv(t)
	alice := uuid.New()
	bob := uuid.New()
	env.enroll(t, alice, []byte("bioA"), []byte("backupA"))
	env.enroll(t, bob, []byte("bioB"), []byte("backupB"))
	env.ledger.balances[alice] = 5_000_000
	ctx := context.Background()

	req := env.createRequest(t, alice, bob, 1_000_000)
	if _, err := env.service.AuthenticatePayment(ctx, req.ID, []byte("bioA")); err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if _, err := env.service.ProcessPayment(ctx, alice, req.ID); err != nil {
		t.Fatalf("process failed: %v", err)
	}
	env.createRequest(t, bob, alice, 50)

	stats, err := env.service.GetUserStats(ctx, alice)
	if err != nil {
		t.Fatalf("user stats failed: %v", err)
	}
	if stats.SpentToday != 1_000_000 {
		t.Fatalf("expected spent today 1000000, got %d", stats.SpentToday)
	}
	if stats.RemainingToday != 9_000_000 {
		t.Fatalf("expected remaining 9000000, got %d", stats.RemainingToday)
	}
	if stats.PaymentsSent != 1 || stats.PaymentsReceived != 1 {
		t.Fatalf("expected sent=1 received=1, got sent=%d received=%d", stats.PaymentsSent, stats.PaymentsReceived)
	}

	// The view rolls with the calendar even before any write does.
	env.clock.Advance(24 * time.Hour)
	stats, err = env.service.GetUserStats(ctx, alice)
	if err != nil {
		t.Fatalf("user stats failed: %v", err)
	}
	if stats.SpentToday != 0 {
		t.Fatalf("expected day-aware spent today 0, got %d", stats.SpentToday)
	}
	if stats.RemainingToday != 10_000_000 {
		t.Fatalf("expected full budget after roll, got %d", stats.RemainingToday)
	}
}

func TestGetSystemStats(t *testing.T) {
	env := newTestEnv(t)
	alice := uuid.New()
	bob := uuid.New()
	env.enroll(t, alice, []byte("bioA"), []byte("backupA"))
	env.ledger.balances[alice] = 5_000_000
	ctx := context.Background()

	completed := env.createRequest(t, alice, bob, 1_000_000)
	if _, err := env.service.AuthenticatePayment(ctx, completed.ID, []byte("bioA")); err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if _, err := env.service.ProcessPayment(ctx, alice, completed.ID); err != nil {
		t.Fatalf("process failed: %v", err)
	}
	cancelled := env.createRequest(t, alice, bob, 200)
	if _, err := env.service.CancelPaymentRequest(ctx, alice, cancelled.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	env.createRequest(t, alice, bob, 300)

	stats, err := env.service.GetSystemStats(ctx)
	if err != nil {
		t.Fatalf("system stats failed: %v", err)
	}
	if stats.TotalRequests != 3 || stats.PendingRequests != 1 || stats.CompletedRequests != 1 || stats.CancelledRequests != 1 {
		t.Fatalf("unexpected request counts: %+v", stats)
	}
	if stats.CompletedVolume != 1_000_000 {
		t.Fatalf("expected completed volume 1000000, got %d", stats.CompletedVolume)
	}
	if stats.EnrolledProfiles != 1 || stats.LockedProfiles != 0 {
		t.Fatalf("unexpected profile counts: %+v", stats)
	}
}

func TestIsBiometricRegistered(t *testing.T) {
	env := newTestEnv(t)
	alice := uuid.New()
	ctx := context.Background()

	registered, err := env.service.IsBiometricRegistered(ctx, alice)
	if err != nil || registered {
		t.Fatalf("expected (false, nil) for unknown account, got (%t, %v)", registered, err)
	}

	env.enroll(t, alice, []byte("bioA"), []byte("backupA"))
	registered, err = env.service.IsBiometricRegistered(ctx, alice)
	if err != nil || !registered {
		t.Fatalf("expected (true, nil) after enrollment, got (%t, %v)", registered, err)
	}

	if err := env.service.DeactivateBiometric(ctx, alice, alice); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}
	registered, err = env.service.IsBiometricRegistered(ctx, alice)
	if err != nil || registered {
		t.Fatalf("expected (false, nil) after deactivation, got (%t, %v)", registered, err)
	}
}

func TestAuthRateLimiter(t *testing.T) {
	env := newTestEnv(t)
	alice := uuid.New()
	bob := uuid.New()
	env.enroll(t, alice, []byte("bioA"), []byte("backupA"))
	req := env.createRequest(t, alice, bob, 1_000_000)
	ctx := context.Background()

	limiter := &stubRateLimiter{}
	env.service.SetAuthRateLimiter(limiter, 2)

	if _, err := env.service.AuthenticatePayment(ctx, req.ID, []byte("wrong")); !errors.Is(err, store.ErrBiometricVerificationFailed) {
		t.Fatalf("attempt 1: expected verification failure, got %v", err)
	}
	if _, err := env.service.AuthenticatePayment(ctx, req.ID, []byte("wrong")); !errors.Is(err, store.ErrBiometricVerificationFailed) {
		t.Fatalf("attempt 2: expected verification failure, got %v", err)
	}
	if _, err := env.service.AuthenticatePayment(ctx, req.ID, []byte("bioA")); !errors.Is(err, ErrAuthRateLimited) {
		t.Fatalf("attempt 3: expected ErrAuthRateLimited, got %v", err)
	}
	// A rate-limited attempt never reaches the proof check.
	if got := env.profile(t, alice).FailedAttempts; got != 2 {
		t.Fatalf("expected counter frozen at 2, got %d", got)
	}
}

func TestAuthRateLimiter_FailuresAreIgnored(t *testing.T) {
	env := newTestEnv(t)
	alice := uuid.New()
	bob := uuid.New()
	env.enroll(t, alice, []byte("bioA"), []byte("backupA"))
	req := env.createRequest(t, alice, bob, 1_000_000)

	env.service.SetAuthRateLimiter(&stubRateLimiter{err: errors.New("redis down")}, 2)

	if _, err := env.service.AuthenticatePayment(context.Background(), req.ID, []byte("bioA")); err != nil {
		t.Fatalf("limiter outage must not block authentication, got %v", err)
	}
}

// TestScenarioA walks the canonical happy path: enroll, request, authenticate,
// process, with merchant stat accumulation.
func TestScenarioA(t *testing.T) {
	env := newTestEnv(t)
	alice := uuid.New()
	bob := uuid.New()
	env.ledger.balances[alice] = 10_000_000
	ctx := context.Background()

	env.enroll(t, alice, []byte("bioA"), []byte("backupA"))
	if _, err := env.service.RegisterMerchant(ctx, bob, "Bob"); err != nil {
		t.Fatalf("merchant registration failed: %v", err)
	}

	req := env.createRequest(t, alice, bob, 1_000_000)
	if req.ID != 1 {
		t.Fatalf("expected first payment id 1, got %d", req.ID)
	}

	authed, err := env.service.AuthenticatePayment(ctx, 1, []byte("bioA"))
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if !authed.BiometricVerified {
		t.Fatal("expected biometric_verified=true")
	}

	processed, err := env.service.ProcessPayment(ctx, alice, 1)
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if processed.Status != domain.PaymentStatusCompleted {
		t.Fatalf("expected completed, got %s", processed.Status)
	}
	if got := env.user(t, alice).DailySpent; got != 1_000_000 {
		t.Fatalf("expected alice.dailySpent 1000000, got %d", got)
	}
	merchant, err := env.repo.GetMerchant(ctx, bob)
	if err != nil {
		t.Fatalf("merchant lookup failed: %v", err)
	}
	if merchant.TotalReceived != 1_000_000 || merchant.TransactionCount != 1 {
		t.Fatalf("expected bob.totalReceived 1000000 and count 1, got %d/%d", merchant.TotalReceived, merchant.TransactionCount)
	}
}

// TestScenarioB locks the account with three mismatches, observes the frozen
// counter, and recovers through the backup path.
func TestScenarioB(t *testing.T) {
	env := newTestEnv(t)
	alice := uuid.New()
	bob := uuid.New()
	env.enroll(t, alice, []byte("bioA"), []byte("backupA"))
	req := env.createRequest(t, alice, bob, 1_000_000)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := env.service.AuthenticatePayment(ctx, req.ID, []byte("wrongProof")); !errors.Is(err, store.ErrBiometricVerificationFailed) {
			t.Fatalf("attempt %d: expected verification failure, got %v", i+1, err)
		}
	}
	if !env.profile(t, alice).Locked {
		t.Fatal("expected account locked after three mismatches")
	}

	if _, err := env.service.AuthenticatePayment(ctx, req.ID, []byte("wrongProof")); !errors.Is(err, store.ErrUnauthorized) {
		t.Fatalf("fourth attempt: expected ErrUnauthorized, got %v", err)
	}
	if got := env.profile(t, alice).FailedAttempts; got != 3 {
		t.Fatalf("fourth attempt must not alter failedAttempts, got %d", got)
	}

	authed, err := env.service.BackupAuthenticatePayment(ctx, req.ID, []byte("backupA"))
	if err != nil {
		t.Fatalf("backup authenticate failed: %v", err)
	}
	if !authed.BiometricVerified {
		t.Fatal("expected backup authentication to set biometric_verified")
	}
	profile := env.profile(t, alice)
	if profile.Locked || profile.FailedAttempts != 0 {
		t.Fatalf("expected unlocked clean state, got attempts=%d locked=%t", profile.FailedAttempts, profile.Locked)
	}
}

// TestScenarioC verifies that a rejected create allocates no payment id.
func TestScenarioC(t *testing.T) {
	env := newTestEnv(t)
	alice := uuid.New()
	bob := uuid.New()
	env.enroll(t, alice, []byte("bioA"), []byte("backupA"))
	ctx := context.Background()

	_, err := env.service.CreatePaymentRequest(ctx, alice, domain.CreatePaymentRequestPayload{Payee: bob, Amount: 0})
	if !errors.Is(err, store.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if got := env.repo.PaymentSequence(); got != 0 {
		t.Fatalf("expected payment sequence untouched, got %d", got)
	}

	req := env.createRequest(t, alice, bob, 100)
	if req.ID != 1 {
		t.Fatalf("expected next valid request to get id 1, got %d", req.ID)
	}
}
