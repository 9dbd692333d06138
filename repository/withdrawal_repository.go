package repository

import (
	"context"
	"fmt"

	"refbounty/database"
	"refbounty/models"

	"github.com/jackc/pgx/v5"
)

const withdrawalColumns = `id, user_id, amount, charge, account_name,
		account_number, bank_name, status, admin_notes, requested_at, processed_at`

// WithdrawalRepository implements the service.WithdrawalRepository interface
type WithdrawalRepository struct {
	q queryable
}

// NewWithdrawalRepository creates a new withdrawal repository
func NewWithdrawalRepository(db *database.DB) *WithdrawalRepository {
	return &WithdrawalRepository{q: db.Pool}
}

// newWithdrawalRepositoryWithTx creates a new withdrawal repository with a transaction
func newWithdrawalRepositoryWithTx(tx queryable) *WithdrawalRepository {
	return &WithdrawalRepository{q: tx}
}

func scanWithdrawal(row pgx.Row) (*models.Withdrawal, error) {
	var w models.Withdrawal
	err := row.Scan(
		&w.ID,
		&w.UserID,
		&w.Amount,
		&w.Charge,
		&w.AccountName,
		&w.AccountNumber,
		&w.BankName,
		&w.Status,
		&w.AdminNotes,
		&w.RequestedAt,
		&w.ProcessedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// Create inserts a new pending withdrawal
func (r *WithdrawalRepository) Create(ctx context.Context, withdrawal *models.Withdrawal) error {
	query := `
		INSERT INTO withdrawals (user_id, amount, charge, account_name, account_number, bank_name)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, status, requested_at
	`

	err := r.q.QueryRow(ctx, query,
		withdrawal.UserID,
		withdrawal.Amount,
		withdrawal.Charge,
		withdrawal.AccountName,
		withdrawal.AccountNumber,
		withdrawal.BankName,
	).Scan(&withdrawal.ID, &withdrawal.Status, &withdrawal.RequestedAt)
	if err != nil {
		return fmt.Errorf("failed to create withdrawal for user %d: %w", withdrawal.UserID, err)
	}

	return nil
}

// GetByID retrieves a withdrawal by its ID
func (r *WithdrawalRepository) GetByID(ctx context.Context, id int64) (*models.Withdrawal, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawals WHERE id = $1`

	w, err := scanWithdrawal(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get withdrawal %d: %w", id, err)
	}
	return w, nil
}

// GetByUser returns withdrawals for a specific user, newest first
func (r *WithdrawalRepository) GetByUser(ctx context.Context, userID int64) ([]*models.Withdrawal, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawals WHERE user_id = $1 ORDER BY requested_at DESC`

	rows, err := r.q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get withdrawals for user %d: %w", userID, err)
	}
	defer rows.Close()

	return collectWithdrawals(rows)
}

// GetByStatus returns withdrawals in a given state, oldest first so the
// review queue is first-come-first-served
func (r *WithdrawalRepository) GetByStatus(ctx context.Context, status models.WithdrawalStatus) ([]*models.Withdrawal, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawals WHERE status = $1 ORDER BY requested_at ASC`

	rows, err := r.q.Query(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("failed to get withdrawals with status %s: %w", status, err)
	}
	defer rows.Close()

	return collectWithdrawals(rows)
}

// MarkProcessed transitions a pending withdrawal to its terminal state.
// The conditional update serializes concurrent processors: the first one
// wins and the second observes models.ErrWithdrawalNotPending.
func (r *WithdrawalRepository) MarkProcessed(ctx context.Context, id int64, status models.WithdrawalStatus, notes *string) (*models.Withdrawal, error) {
	query := `
		UPDATE withdrawals
		SET status = $1, admin_notes = $2, processed_at = NOW()
		WHERE id = $3 AND status = 'pending'
		RETURNING ` + withdrawalColumns

	w, err := scanWithdrawal(r.q.QueryRow(ctx, query, status, notes, id))
	if err != nil {
		return nil, fmt.Errorf("failed to process withdrawal %d: %w", id, err)
	}
	if w != nil {
		return w, nil
	}

	// Distinguish an unknown id from an already processed withdrawal
	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to check withdrawal %d: %w", id, err)
	}
	if existing == nil {
		return nil, models.ErrWithdrawalNotFound
	}
	return nil, fmt.Errorf("withdrawal %d is %s: %w", id, existing.Status, models.ErrWithdrawalNotPending)
}

func collectWithdrawals(rows pgx.Rows) ([]*models.Withdrawal, error) {
	var withdrawals []*models.Withdrawal
	for rows.Next() {
		var w models.Withdrawal
		err := rows.Scan(
			&w.ID,
			&w.UserID,
			&w.Amount,
			&w.Charge,
			&w.AccountName,
			&w.AccountNumber,
			&w.BankName,
			&w.Status,
			&w.AdminNotes,
			&w.RequestedAt,
			&w.ProcessedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan withdrawal: %w", err)
		}
		withdrawals = append(withdrawals, &w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate withdrawals: %w", err)
	}

	return withdrawals, nil
}
