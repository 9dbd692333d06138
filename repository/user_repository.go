package repository

import (
	"context"
	"fmt"

	"refbounty/database"
	"refbounty/models"

	"github.com/jackc/pgx/v5"
)

const userColumns = `id, email, full_name, password_hash, referral_code,
		total_earnings, available_balance, total_referrals, referred_by,
		is_admin, created_at, updated_at`

// UserRepository implements the service.UserRepository interface
type UserRepository struct {
	q queryable
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{q: db.Pool}
}

// newUserRepositoryWithTx creates a new user repository with a transaction
func newUserRepositoryWithTx(tx queryable) *UserRepository {
	return &UserRepository{q: tx}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.FullName,
		&user.PasswordHash,
		&user.ReferralCode,
		&user.TotalEarnings,
		&user.AvailableBalance,
		&user.TotalReferrals,
		&user.ReferredBy,
		&user.IsAdmin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByID retrieves a user by their ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return user, nil
}

// GetByEmail retrieves a user by their email address
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.q.QueryRow(ctx, query, email))
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email %q: %w", email, err)
	}
	return user, nil
}

// GetByReferralCode retrieves a user by their referral code
func (r *UserRepository) GetByReferralCode(ctx context.Context, code string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE referral_code = $1`

	user, err := scanUser(r.q.QueryRow(ctx, query, code))
	if err != nil {
		return nil, fmt.Errorf("failed to get user by referral code: %w", err)
	}
	return user, nil
}

// Create inserts a new user and fills in generated fields
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, full_name, password_hash, referral_code, referred_by, is_admin)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, total_earnings, available_balance, total_referrals, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		user.Email,
		user.FullName,
		user.PasswordHash,
		user.ReferralCode,
		user.ReferredBy,
		user.IsAdmin,
	).Scan(
		&user.ID,
		&user.TotalEarnings,
		&user.AvailableBalance,
		&user.TotalReferrals,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user %q: %w", user.Email, err)
	}

	return nil
}

// CreditReferralReward atomically adds the reward to total earnings and
// available balance and bumps the referral counter
func (r *UserRepository) CreditReferralReward(ctx context.Context, userID int64, reward int64) error {
	if reward <= 0 {
		return fmt.Errorf("reward must be positive")
	}

	query := `
		UPDATE users
		SET total_earnings = total_earnings + $1,
		    available_balance = available_balance + $1,
		    total_referrals = total_referrals + 1,
		    updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.q.Exec(ctx, query, reward, userID)
	if err != nil {
		return fmt.Errorf("failed to credit referral reward for user %d: %w", userID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("credit referral reward: %w", models.ErrUserNotFound)
	}

	return nil
}

// DebitAvailableBalance atomically deducts from the available balance,
// failing if funds are insufficient. Total earnings are untouched.
func (r *UserRepository) DebitAvailableBalance(ctx context.Context, userID int64, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}

	// Update only if the user still has enough available balance
	query := `
		UPDATE users
		SET available_balance = available_balance - $1, updated_at = NOW()
		WHERE id = $2 AND available_balance >= $1
	`

	result, err := r.q.Exec(ctx, query, amount, userID)
	if err != nil {
		return fmt.Errorf("failed to debit balance for user %d: %w", userID, err)
	}

	if result.RowsAffected() == 0 {
		// Distinguish a missing user from insufficient funds
		user, err := r.GetByID(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to check user: %w", err)
		}
		if user == nil {
			return fmt.Errorf("debit balance: %w", models.ErrUserNotFound)
		}
		return fmt.Errorf("have %d available, need %d: %w", user.AvailableBalance, amount, models.ErrInsufficientBalance)
	}

	return nil
}

// GetAll returns all users, newest first
func (r *UserRepository) GetAll(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get all users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var user models.User
		err := rows.Scan(
			&user.ID,
			&user.Email,
			&user.FullName,
			&user.PasswordHash,
			&user.ReferralCode,
			&user.TotalEarnings,
			&user.AvailableBalance,
			&user.TotalReferrals,
			&user.ReferredBy,
			&user.IsAdmin,
			&user.CreatedAt,
			&user.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, &user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}
