package service

import (
	"context"

	"refbounty/events"
	"refbounty/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// GetByID retrieves a user by their ID
	GetByID(ctx context.Context, id int64) (*models.User, error)

	// GetByEmail retrieves a user by their email address
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// GetByReferralCode retrieves a user by their referral code
	GetByReferralCode(ctx context.Context, code string) (*models.User, error)

	// Create inserts a new user and fills in generated fields
	Create(ctx context.Context, user *models.User) error

	// CreditReferralReward atomically adds the reward to total earnings and
	// available balance and bumps the referral counter
	CreditReferralReward(ctx context.Context, userID int64, reward int64) error

	// DebitAvailableBalance atomically deducts from the available balance,
	// failing with models.ErrInsufficientBalance when funds are short
	DebitAvailableBalance(ctx context.Context, userID int64, amount int64) error

	// GetAll returns all users, newest first
	GetAll(ctx context.Context) ([]*models.User, error)
}

// ReferralRepository defines the interface for referral data access
type ReferralRepository interface {
	// Create inserts a new referral record
	Create(ctx context.Context, referral *models.Referral) error

	// GetByReferrer returns referrals made by a specific user, newest first
	GetByReferrer(ctx context.Context, referrerID int64) ([]*models.Referral, error)
}

// WithdrawalRepository defines the interface for withdrawal data access
type WithdrawalRepository interface {
	// Create inserts a new pending withdrawal
	Create(ctx context.Context, withdrawal *models.Withdrawal) error

	// GetByID retrieves a withdrawal by its ID
	GetByID(ctx context.Context, id int64) (*models.Withdrawal, error)

	// GetByUser returns withdrawals for a specific user, newest first
	GetByUser(ctx context.Context, userID int64) ([]*models.Withdrawal, error)

	// GetByStatus returns withdrawals in a given state, oldest first
	GetByStatus(ctx context.Context, status models.WithdrawalStatus) ([]*models.Withdrawal, error)

	// MarkProcessed transitions a pending withdrawal to its terminal state.
	// Fails with models.ErrWithdrawalNotFound for unknown ids and
	// models.ErrWithdrawalNotPending when the row was already processed.
	MarkProcessed(ctx context.Context, id int64, status models.WithdrawalStatus, notes *string) (*models.Withdrawal, error)
}

// LedgerRepository defines the interface for balance change tracking
type LedgerRepository interface {
	// Record creates a new ledger entry
	Record(ctx context.Context, entry *models.LedgerEntry) error

	// GetByUser returns ledger entries for a specific user, newest first
	GetByUser(ctx context.Context, userID int64, limit int) ([]*models.LedgerEntry, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// AccountService defines the interface for signup, login and profile operations
type AccountService interface {
	// Register creates a new account and, when a referral code is supplied,
	// credits the referrer. Crediting failures never fail the signup.
	Register(ctx context.Context, params RegisterParams) (*models.User, error)

	// Login checks credentials and returns the matching user
	Login(ctx context.Context, email, password string) (*models.User, error)

	// GetProfile returns the current ledger state for a user
	GetProfile(ctx context.Context, userID int64) (*models.User, error)

	// GetReferrals returns referrals made by a user
	GetReferrals(ctx context.Context, userID int64) ([]*models.Referral, error)

	// ListUsers returns all users for the admin overview
	ListUsers(ctx context.Context, adminID int64) ([]*models.User, error)

	// EnsureAdmin creates an administrator account if the email is unknown
	EnsureAdmin(ctx context.Context, email, password string) error
}

// WithdrawalService defines the interface for the withdrawal lifecycle
type WithdrawalService interface {
	// Request validates and records a new pending withdrawal
	Request(ctx context.Context, userID int64, params WithdrawalParams) (*models.Withdrawal, error)

	// Process transitions a pending withdrawal to approved or declined,
	// debiting the owner's balance on approval. Admin only.
	Process(ctx context.Context, adminID, withdrawalID int64, decision models.WithdrawalStatus, notes string) (*models.Withdrawal, error)

	// ListByUser returns a user's withdrawal history
	ListByUser(ctx context.Context, userID int64) ([]*models.Withdrawal, error)

	// ListByStatus returns the admin review queue. Admin only.
	ListByStatus(ctx context.Context, adminID int64, status models.WithdrawalStatus) ([]*models.Withdrawal, error)
}

// RegisterParams carries the signup form fields
type RegisterParams struct {
	Email        string
	Password     string
	FullName     string
	ReferralCode string
}

// WithdrawalParams carries the withdrawal request form fields
type WithdrawalParams struct {
	Amount        int64
	AccountName   string
	AccountNumber string
	BankName      string
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	UserRepository() UserRepository
	ReferralRepository() ReferralRepository
	WithdrawalRepository() WithdrawalRepository
	LedgerRepository() LedgerRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	// Create returns a fresh, unstarted UnitOfWork
	Create() UnitOfWork
}
