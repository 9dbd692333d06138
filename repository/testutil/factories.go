package testutil

import (
	"context"
	"testing"

	"refbounty/database"
	"refbounty/models"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

// CreateTestUser creates a user value with default balances
func CreateTestUser(email, referralCode string) *models.User {
	return &models.User{
		Email:        email,
		FullName:     "Test User",
		PasswordHash: "$2a$10$testhashtesthashtesthashtesthashtesthashtesthashtest",
		ReferralCode: referralCode,
	}
}

// CreateTestUserWithBalance creates a user value with specific balances.
// Earnings default to the available balance so the balance check constraint
// holds.
func CreateTestUserWithBalance(email, referralCode string, available int64) *models.User {
	user := CreateTestUser(email, referralCode)
	user.TotalEarnings = available
	user.AvailableBalance = available
	return user
}

// SeedUser inserts a user directly, bypassing the repositories, and fills in
// the generated id
func SeedUser(t *testing.T, db *database.DB, user *models.User) {
	t.Helper()

	err := db.WithTransaction(context.Background(), func(tx pgx.Tx) error {
		return tx.QueryRow(context.Background(), `
			INSERT INTO users (email, full_name, password_hash, referral_code,
			                   total_earnings, available_balance, total_referrals,
			                   referred_by, is_admin)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id, created_at, updated_at`,
			user.Email, user.FullName, user.PasswordHash, user.ReferralCode,
			user.TotalEarnings, user.AvailableBalance, user.TotalReferrals,
			user.ReferredBy, user.IsAdmin,
		).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	})
	require.NoError(t, err)
}

// CreateTestWithdrawal creates a withdrawal value with typical bank details
func CreateTestWithdrawal(userID, amount, charge int64) *models.Withdrawal {
	return &models.Withdrawal{
		UserID:        userID,
		Amount:        amount,
		Charge:        charge,
		AccountName:   "Test User",
		AccountNumber: "0123456789",
		BankName:      "First Bank",
	}
}
