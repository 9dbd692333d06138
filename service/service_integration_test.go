package service_test

import (
	"context"
	"testing"

	"refbounty/events"
	"refbounty/models"
	"refbounty/repository"
	"refbounty/repository/testutil"
	"refbounty/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// End to end referral flow against a real database: the referrer signs up,
// shares their code, and every signup with it pays the fixed reward.
func TestReferralFlow_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	eventBus := events.NewBus()
	uowFactory := repository.NewUnitOfWorkFactory(testDB.DB, eventBus)
	accounts := service.NewAccountService(uowFactory, 100)

	referrer, err := accounts.Register(ctx, service.RegisterParams{
		Email:    "referrer@example.com",
		Password: "secret123",
		FullName: "Referrer",
	})
	require.NoError(t, err)
	assert.Zero(t, referrer.AvailableBalance)

	for i, email := range []string{"one@example.com", "two@example.com", "three@example.com"} {
		referred, err := accounts.Register(ctx, service.RegisterParams{
			Email:        email,
			Password:     "secret123",
			FullName:     "Referred",
			ReferralCode: referrer.ReferralCode,
		})
		require.NoError(t, err)
		require.NotNil(t, referred.ReferredBy)
		assert.Equal(t, referrer.ID, *referred.ReferredBy, "signup %d", i)
	}

	profile, err := accounts.GetProfile(ctx, referrer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(300), profile.TotalEarnings)
	assert.Equal(t, int64(300), profile.AvailableBalance)
	assert.Equal(t, int64(3), profile.TotalReferrals)

	referrals, err := accounts.GetReferrals(ctx, referrer.ID)
	require.NoError(t, err)
	assert.Len(t, referrals, 3)

	// The ledger carries one entry per reward with contiguous balances
	ledgerRepo := repository.NewLedgerRepository(testDB.DB)
	entries, err := ledgerRepo.GetByUser(ctx, referrer.ID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, int64(300), entries[0].BalanceAfter)
	assert.Equal(t, int64(200), entries[0].BalanceBefore)
}

// Full withdrawal lifecycle against a real database, including the balance
// re-check at approval time.
func TestWithdrawalFlow_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	eventBus := events.NewBus()
	uowFactory := repository.NewUnitOfWorkFactory(testDB.DB, eventBus)
	accounts := service.NewAccountService(uowFactory, 100)
	withdrawals := service.NewWithdrawalService(uowFactory, 500, 50)

	require.NoError(t, accounts.EnsureAdmin(ctx, "admin@example.com", "adminpass"))
	admin, err := accounts.Login(ctx, "admin@example.com", "adminpass")
	require.NoError(t, err)

	user := testutil.CreateTestUserWithBalance("earner@example.com", "EARNER01", 1000)
	testutil.SeedUser(t, testDB.DB, user)

	// File two requests against the same 1000 balance. Nothing is held, so
	// both are accepted.
	first, err := withdrawals.Request(ctx, user.ID, service.WithdrawalParams{
		Amount:        600,
		AccountName:   "Earner",
		AccountNumber: "0123456789",
		BankName:      "First Bank",
	})
	require.NoError(t, err)
	second, err := withdrawals.Request(ctx, user.ID, service.WithdrawalParams{
		Amount:        500,
		AccountName:   "Earner",
		AccountNumber: "0123456789",
		BankName:      "First Bank",
	})
	require.NoError(t, err)

	// Approving the first debits 600 plus the 50 charge
	processed, err := withdrawals.Process(ctx, admin.ID, first.ID, models.WithdrawalStatusApproved, "")
	require.NoError(t, err)
	assert.Equal(t, models.WithdrawalStatusApproved, processed.Status)

	profile, err := accounts.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(350), profile.AvailableBalance)
	assert.Equal(t, int64(1000), profile.TotalEarnings, "earnings are a lifetime total")

	// The second request no longer fits; approval fails and it stays pending
	_, err = withdrawals.Process(ctx, admin.ID, second.ID, models.WithdrawalStatusApproved, "")
	assert.ErrorIs(t, err, models.ErrInsufficientBalance)

	pending, err := withdrawals.ListByStatus(ctx, admin.ID, models.WithdrawalStatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second.ID, pending[0].ID)

	profile, err = accounts.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(350), profile.AvailableBalance, "failed approval must not debit")

	// Declining closes it without touching the balance
	declined, err := withdrawals.Process(ctx, admin.ID, second.ID, models.WithdrawalStatusDeclined, "insufficient funds")
	require.NoError(t, err)
	assert.Equal(t, models.WithdrawalStatusDeclined, declined.Status)

	profile, err = accounts.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(350), profile.AvailableBalance)

	// Both are now terminal
	_, err = withdrawals.Process(ctx, admin.ID, first.ID, models.WithdrawalStatusDeclined, "")
	assert.ErrorIs(t, err, models.ErrWithdrawalNotPending)
}
