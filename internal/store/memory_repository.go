/**
 * @description
 * This file provides an in-memory implementation of the `Repository` interface.
 * It backs the engine's unit tests and local development without a database. Records
 * are copied on the way in and out so every mutation is a whole-record replace, the
 * same discipline the PostgreSQL implementation enforces with row updates.
 */

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/transfa/biopay-service/internal/domain"
)

// MemoryRepository is a map-backed Repository guarded by a single mutex, which also
// makes the multi-record methods (CreateEnrollment, CommitProcessedPayment) atomic.
type MemoryRepository struct {
	mu sync.RWMutex

	config    *domain.GlobalConfig
	regSeq    int64
	paySeq    int64
	profiles  map[uuid.UUID]*domain.BiometricProfile
	users     map[uuid.UUID]*domain.UserProfile
	payments  map[int64]*domain.PaymentRequest
	merchants map[uuid.UUID]*domain.Merchant
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		profiles:  make(map[uuid.UUID]*domain.BiometricProfile),
		users:     make(map[uuid.UUID]*domain.UserProfile),
		payments:  make(map[int64]*domain.PaymentRequest),
		merchants: make(map[uuid.UUID]*domain.Merchant),
	}
}

func (r *MemoryRepository) EnsureGlobalConfig(ctx context.Context, defaults *domain.GlobalConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.config == nil {
		cfg := *defaults
		r.config = &cfg
	}
	return nil
}

func (r *MemoryRepository) GetGlobalConfig(ctx context.Context) (*domain.GlobalConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.config == nil {
		return nil, errors.New("global config not initialized")
	}
	cfg := *r.config
	return &cfg, nil
}

func (r *MemoryRepository) SaveGlobalConfig(ctx context.Context, cfg *domain.GlobalConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *cfg
	r.config = &clone
	return nil
}

func (r *MemoryRepository) NextRegistrationID(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.regSeq++
	return r.regSeq, nil
}

func (r *MemoryRepository) NextPaymentID(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paySeq++
	return r.paySeq, nil
}

// PaymentSequence reports the last allocated payment id without advancing it.
// Test helper for asserting that failed creates allocate no id.
func (r *MemoryRepository) PaymentSequence() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.paySeq
}

func (r *MemoryRepository) GetBiometricProfile(ctx context.Context, account uuid.UUID) (*domain.BiometricProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	profile, ok := r.profiles[account]
	if !ok {
		return nil, ErrBiometricNotRegistered
	}
	return copyBiometricProfile(profile), nil
}

func (r *MemoryRepository) SaveBiometricProfile(ctx context.Context, profile *domain.BiometricProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[profile.Account]; !ok {
		return ErrBiometricNotRegistered
	}
	r.profiles[profile.Account] = copyBiometricProfile(profile)
	return nil
}

func (r *MemoryRepository) CreateEnrollment(ctx context.Context, profile *domain.BiometricProfile, user *domain.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	userClone := *user
	r.profiles[profile.Account] = copyBiometricProfile(profile)
	r.users[user.Account] = &userClone
	return nil
}

func (r *MemoryRepository) GetUserProfile(ctx context.Context, account uuid.UUID) (*domain.UserProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[account]
	if !ok {
		return nil, ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *MemoryRepository) SaveUserProfile(ctx context.Context, profile *domain.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[profile.Account]; !ok {
		return ErrUserNotFound
	}
	clone := *profile
	r.users[profile.Account] = &clone
	return nil
}

func (r *MemoryRepository) CreatePaymentRequest(ctx context.Context, req *domain.PaymentRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *req
	r.payments[req.ID] = &clone
	return nil
}

func (r *MemoryRepository) GetPaymentRequest(ctx context.Context, id int64) (*domain.PaymentRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	req, ok := r.payments[id]
	if !ok {
		return nil, ErrPaymentNotFound
	}
	clone := *req
	return &clone, nil
}

func (r *MemoryRepository) SavePaymentRequest(ctx context.Context, req *domain.PaymentRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.payments[req.ID]; !ok {
		return ErrPaymentNotFound
	}
	clone := *req
	r.payments[req.ID] = &clone
	return nil
}

func (r *MemoryRepository) CommitProcessedPayment(ctx context.Context, req *domain.PaymentRequest, payer *domain.UserProfile, payee *domain.Merchant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.payments[req.ID]; !ok {
		return ErrPaymentNotFound
	}
	if _, ok := r.users[payer.Account]; !ok {
		return ErrUserNotFound
	}
	reqClone := *req
	payerClone := *payer
	r.payments[req.ID] = &reqClone
	r.users[payer.Account] = &payerClone
	if payee != nil {
		merchantClone := *payee
		r.merchants[payee.Account] = &merchantClone
	}
	return nil
}

func (r *MemoryRepository) GetMerchant(ctx context.Context, account uuid.UUID) (*domain.Merchant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	merchant, ok := r.merchants[account]
	if !ok {
		return nil, ErrMerchantNotFound
	}
	clone := *merchant
	return &clone, nil
}

func (r *MemoryRepository) UpsertMerchant(ctx context.Context, merchant *domain.Merchant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *merchant
	r.merchants[merchant.Account] = &clone
	return nil
}

func (r *MemoryRepository) CountPaymentsByAccount(ctx context.Context, account uuid.UUID) (int64, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var sent, received int64
	for _, req := range r.payments {
		if req.Payer == account {
			sent++
		}
		if req.Payee == account {
			received++
		}
	}
	return sent, received, nil
}

func (r *MemoryRepository) GetSystemStats(ctx context.Context) (*domain.SystemStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stats := &domain.SystemStats{}
	for _, req := range r.payments {
		stats.TotalRequests++
		switch req.Status {
		case domain.PaymentStatusPending:
			stats.PendingRequests++
		case domain.PaymentStatusCompleted:
			stats.CompletedRequests++
			stats.CompletedVolume += req.Amount
		case domain.PaymentStatusCancelled:
			stats.CancelledRequests++
		}
	}
	for _, profile := range r.profiles {
		if profile.Active {
			stats.EnrolledProfiles++
		}
		if profile.Locked {
			stats.LockedProfiles++
		}
	}
	return stats, nil
}

func (r *MemoryRepository) ResetDailySpentBefore(ctx context.Context, day time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var touched int64
	for _, user := range r.users {
		if user.DailySpent != 0 && user.LastResetDay.Before(day) {
			user.DailySpent = 0
			user.LastResetDay = day
			touched++
		}
	}
	return touched, nil
}

func copyBiometricProfile(profile *domain.BiometricProfile) *domain.BiometricProfile {
	clone := *profile
	clone.BiometricHash = append([]byte(nil), profile.BiometricHash...)
	clone.BackupHash = append([]byte(nil), profile.BackupHash...)
	return &clone
}
