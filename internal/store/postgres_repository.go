/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository` interface
 * using the pgx driver and a connection pool. It contains all the SQL queries for
 * the biopay-service's data model.
 *
 * @notes
 * - The enrollment and process-payment commits run inside a single database
 *   transaction so a failure leaves no partial mutation behind.
 * - Payment and registration ids come from dedicated sequences, keeping the
 *   monotonic-counter guarantee out of application memory.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5: PostgreSQL driver and connection pooling.
 * - internal/domain: Domain models.
 */

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/transfa/biopay-service/internal/domain"
)

// PostgresRepository implements Repository against a pgx connection pool.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL-backed repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) EnsureGlobalConfig(ctx context.Context, defaults *domain.GlobalConfig) error {
	query := `
		INSERT INTO global_config (id, auth_timeout_seconds, max_retry_attempts, updated_at)
		VALUES (TRUE, $1, $2, NOW())
		ON CONFLICT (id) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query, int64(defaults.AuthenticationTimeout/time.Second), defaults.MaxRetryAttempts)
	if err != nil {
		return fmt.Errorf("failed to seed global config: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetGlobalConfig(ctx context.Context) (*domain.GlobalConfig, error) {
	var cfg domain.GlobalConfig
	var timeoutSeconds int64
	query := `SELECT auth_timeout_seconds, max_retry_attempts, updated_at FROM global_config WHERE id = TRUE`
	err := r.db.QueryRow(ctx, query).Scan(&timeoutSeconds, &cfg.MaxRetryAttempts, &cfg.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to load global config: %w", err)
	}
	cfg.AuthenticationTimeout = time.Duration(timeoutSeconds) * time.Second
	return &cfg, nil
}

func (r *PostgresRepository) SaveGlobalConfig(ctx context.Context, cfg *domain.GlobalConfig) error {
	query := `
		UPDATE global_config
		SET auth_timeout_seconds = $1, max_retry_attempts = $2, updated_at = NOW()
		WHERE id = TRUE
	`
	_, err := r.db.Exec(ctx, query, int64(cfg.AuthenticationTimeout/time.Second), cfg.MaxRetryAttempts)
	return err
}

func (r *PostgresRepository) NextRegistrationID(ctx context.Context) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `SELECT nextval('biometric_registration_seq')`).Scan(&id)
	return id, err
}

func (r *PostgresRepository) NextPaymentID(ctx context.Context) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `SELECT nextval('payment_request_seq')`).Scan(&id)
	return id, err
}

func (r *PostgresRepository) GetBiometricProfile(ctx context.Context, account uuid.UUID) (*domain.BiometricProfile, error) {
	var profile domain.BiometricProfile
	query := `
		SELECT account, biometric_hash, backup_hash, active, registration_id,
		       last_updated, failed_attempts, locked
		FROM biometric_profiles
		WHERE account = $1
	`
	err := r.db.QueryRow(ctx, query, account).Scan(
		&profile.Account,
		&profile.BiometricHash,
		&profile.BackupHash,
		&profile.Active,
		&profile.RegistrationID,
		&profile.LastUpdated,
		&profile.FailedAttempts,
		&profile.Locked,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrBiometricNotRegistered
		}
		return nil, err
	}
	return &profile, nil
}

func (r *PostgresRepository) SaveBiometricProfile(ctx context.Context, profile *domain.BiometricProfile) error {
	query := `
		UPDATE biometric_profiles
		SET biometric_hash = $2, backup_hash = $3, active = $4, registration_id = $5,
		    last_updated = $6, failed_attempts = $7, locked = $8
		WHERE account = $1
	`
	tag, err := r.db.Exec(ctx, query,
		profile.Account,
		profile.BiometricHash,
		profile.BackupHash,
		profile.Active,
		profile.RegistrationID,
		profile.LastUpdated,
		profile.FailedAttempts,
		profile.Locked,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBiometricNotRegistered
	}
	return nil
}

func (r *PostgresRepository) CreateEnrollment(ctx context.Context, profile *domain.BiometricProfile, user *domain.UserProfile) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin enrollment transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	profileQuery := `
		INSERT INTO biometric_profiles
			(account, biometric_hash, backup_hash, active, registration_id,
			 last_updated, failed_attempts, locked)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (account) DO UPDATE SET
			biometric_hash = EXCLUDED.biometric_hash,
			backup_hash = EXCLUDED.backup_hash,
			active = EXCLUDED.active,
			registration_id = EXCLUDED.registration_id,
			last_updated = EXCLUDED.last_updated,
			failed_attempts = EXCLUDED.failed_attempts,
			locked = EXCLUDED.locked
	`
	if _, err := tx.Exec(ctx, profileQuery,
		profile.Account,
		profile.BiometricHash,
		profile.BackupHash,
		profile.Active,
		profile.RegistrationID,
		profile.LastUpdated,
		profile.FailedAttempts,
		profile.Locked,
	); err != nil {
		return fmt.Errorf("failed to store biometric profile: %w", err)
	}

	userQuery := `
		INSERT INTO user_profiles
			(account, display_name, spending_limit, daily_spent, last_reset_day,
			 verified, registration_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (account) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			spending_limit = EXCLUDED.spending_limit,
			daily_spent = EXCLUDED.daily_spent,
			last_reset_day = EXCLUDED.last_reset_day,
			verified = EXCLUDED.verified,
			registration_date = EXCLUDED.registration_date
	`
	if _, err := tx.Exec(ctx, userQuery,
		user.Account,
		user.DisplayName,
		user.SpendingLimit,
		user.DailySpent,
		user.LastResetDay,
		user.Verified,
		user.RegistrationDate,
	); err != nil {
		return fmt.Errorf("failed to store user profile: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *PostgresRepository) GetUserProfile(ctx context.Context, account uuid.UUID) (*domain.UserProfile, error) {
	var user domain.UserProfile
	query := `
		SELECT account, display_name, spending_limit, daily_spent, last_reset_day,
		       verified, registration_date
		FROM user_profiles
		WHERE account = $1
	`
	err := r.db.QueryRow(ctx, query, account).Scan(
		&user.Account,
		&user.DisplayName,
		&user.SpendingLimit,
		&user.DailySpent,
		&user.LastResetDay,
		&user.Verified,
		&user.RegistrationDate,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *PostgresRepository) SaveUserProfile(ctx context.Context, profile *domain.UserProfile) error {
	query := `
		UPDATE user_profiles
		SET display_name = $2, spending_limit = $3, daily_spent = $4,
		    last_reset_day = $5, verified = $6
		WHERE account = $1
	`
	tag, err := r.db.Exec(ctx, query,
		profile.Account,
		profile.DisplayName,
		profile.SpendingLimit,
		profile.DailySpent,
		profile.LastResetDay,
		profile.Verified,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *PostgresRepository) CreatePaymentRequest(ctx context.Context, req *domain.PaymentRequest) error {
	query := `
		INSERT INTO payment_requests
			(id, payer, payee, amount, description, status, created_at, expires_at,
			 requires_biometric, biometric_verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.Exec(ctx, query,
		req.ID,
		req.Payer,
		req.Payee,
		req.Amount,
		req.Description,
		req.Status,
		req.CreatedAt,
		req.ExpiresAt,
		req.RequiresBiometric,
		req.BiometricVerified,
	)
	return err
}

func (r *PostgresRepository) GetPaymentRequest(ctx context.Context, id int64) (*domain.PaymentRequest, error) {
	var req domain.PaymentRequest
	query := `
		SELECT id, payer, payee, amount, description, status, created_at, expires_at,
		       requires_biometric, biometric_verified
		FROM payment_requests
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(
		&req.ID,
		&req.Payer,
		&req.Payee,
		&req.Amount,
		&req.Description,
		&req.Status,
		&req.CreatedAt,
		&req.ExpiresAt,
		&req.RequiresBiometric,
		&req.BiometricVerified,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &req, nil
}

func (r *PostgresRepository) SavePaymentRequest(ctx context.Context, req *domain.PaymentRequest) error {
	query := `
		UPDATE payment_requests
		SET status = $2, biometric_verified = $3
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query, req.ID, req.Status, req.BiometricVerified)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPaymentNotFound
	}
	return nil
}

func (r *PostgresRepository) CommitProcessedPayment(ctx context.Context, req *domain.PaymentRequest, payer *domain.UserProfile, payee *domain.Merchant) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin process commit transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Only a pending row may advance; a concurrent commit loses this race and
	// aborts without touching anything.
	reqTag, err := tx.Exec(ctx,
		`UPDATE payment_requests SET status = $2, biometric_verified = $3 WHERE id = $1 AND status = 'pending'`,
		req.ID, req.Status, req.BiometricVerified,
	)
	if err != nil {
		return fmt.Errorf("failed to finalize payment request: %w", err)
	}
	if reqTag.RowsAffected() == 0 {
		return ErrPaymentAlreadyProcessed
	}

	userTag, err := tx.Exec(ctx,
		`UPDATE user_profiles SET daily_spent = $2, last_reset_day = $3 WHERE account = $1`,
		payer.Account, payer.DailySpent, payer.LastResetDay,
	)
	if err != nil {
		return fmt.Errorf("failed to commit spend accounting: %w", err)
	}
	if userTag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	if payee != nil {
		if _, err := tx.Exec(ctx,
			`UPDATE merchants SET total_received = $2, transaction_count = $3 WHERE account = $1`,
			payee.Account, payee.TotalReceived, payee.TransactionCount,
		); err != nil {
			return fmt.Errorf("failed to commit merchant stats: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (r *PostgresRepository) GetMerchant(ctx context.Context, account uuid.UUID) (*domain.Merchant, error) {
	var merchant domain.Merchant
	query := `
		SELECT account, business_name, verified, total_received, transaction_count, registered_at
		FROM merchants
		WHERE account = $1
	`
	err := r.db.QueryRow(ctx, query, account).Scan(
		&merchant.Account,
		&merchant.BusinessName,
		&merchant.Verified,
		&merchant.TotalReceived,
		&merchant.TransactionCount,
		&merchant.RegisteredAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrMerchantNotFound
		}
		return nil, err
	}
	return &merchant, nil
}

func (r *PostgresRepository) UpsertMerchant(ctx context.Context, merchant *domain.Merchant) error {
	query := `
		INSERT INTO merchants
			(account, business_name, verified, total_received, transaction_count, registered_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (account) DO UPDATE SET
			business_name = EXCLUDED.business_name,
			verified = EXCLUDED.verified
	`
	_, err := r.db.Exec(ctx, query,
		merchant.Account,
		merchant.BusinessName,
		merchant.Verified,
		merchant.TotalReceived,
		merchant.TransactionCount,
		merchant.RegisteredAt,
	)
	return err
}

func (r *PostgresRepository) CountPaymentsByAccount(ctx context.Context, account uuid.UUID) (int64, int64, error) {
	var sent, received int64
	query := `
		SELECT
			COUNT(*) FILTER (WHERE payer = $1),
			COUNT(*) FILTER (WHERE payee = $1)
		FROM payment_requests
	`
	if err := r.db.QueryRow(ctx, query, account).Scan(&sent, &received); err != nil {
		return 0, 0, err
	}
	return sent, received, nil
}

func (r *PostgresRepository) GetSystemStats(ctx context.Context) (*domain.SystemStats, error) {
	var stats domain.SystemStats
	paymentQuery := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'cancelled'),
			COALESCE(SUM(amount) FILTER (WHERE status = 'completed'), 0)
		FROM payment_requests
	`
	if err := r.db.QueryRow(ctx, paymentQuery).Scan(
		&stats.TotalRequests,
		&stats.PendingRequests,
		&stats.CompletedRequests,
		&stats.CancelledRequests,
		&stats.CompletedVolume,
	); err != nil {
		return nil, err
	}

	profileQuery := `
		SELECT
			COUNT(*) FILTER (WHERE active),
			COUNT(*) FILTER (WHERE locked)
		FROM biometric_profiles
	`
	if err := r.db.QueryRow(ctx, profileQuery).Scan(&stats.EnrolledProfiles, &stats.LockedProfiles); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *PostgresRepository) ResetDailySpentBefore(ctx context.Context, day time.Time) (int64, error) {
	query := `
		UPDATE user_profiles
		SET daily_spent = 0, last_reset_day = $1
		WHERE daily_spent <> 0 AND last_reset_day < $1
	`
	tag, err := r.db.Exec(ctx, query, day)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
