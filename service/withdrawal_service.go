package service

import (
	"context"
	"fmt"
	"strings"

	"refbounty/events"
	"refbounty/models"
)

type withdrawalService struct {
	uowFactory UnitOfWorkFactory
	minAmount  int64
	flatCharge int64
}

// NewWithdrawalService creates a new withdrawal service. minAmount is the
// smallest acceptable request; flatCharge is the fixed fee debited on top of
// the amount at approval time.
func NewWithdrawalService(uowFactory UnitOfWorkFactory, minAmount, flatCharge int64) WithdrawalService {
	return &withdrawalService{
		uowFactory: uowFactory,
		minAmount:  minAmount,
		flatCharge: flatCharge,
	}
}

// Request validates and records a new pending withdrawal. The available
// balance is checked but not debited: a pending request is a claim, and the
// authoritative check happens again at approval time.
func (s *withdrawalService) Request(ctx context.Context, userID int64, params WithdrawalParams) (*models.Withdrawal, error) {
	if params.Amount < s.minAmount {
		return nil, fmt.Errorf("minimum withdrawal is %d: %w", s.minAmount, models.ErrAmountBelowMinimum)
	}
	if strings.TrimSpace(params.AccountName) == "" ||
		strings.TrimSpace(params.AccountNumber) == "" ||
		strings.TrimSpace(params.BankName) == "" {
		return nil, models.ErrBankDetailsRequired
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, models.ErrUserNotFound
	}

	if params.Amount+s.flatCharge > user.AvailableBalance {
		return nil, fmt.Errorf("have %d available, need %d: %w",
			user.AvailableBalance, params.Amount+s.flatCharge, models.ErrInsufficientBalance)
	}

	withdrawal := &models.Withdrawal{
		UserID:        userID,
		Amount:        params.Amount,
		Charge:        s.flatCharge,
		AccountName:   strings.TrimSpace(params.AccountName),
		AccountNumber: strings.TrimSpace(params.AccountNumber),
		BankName:      strings.TrimSpace(params.BankName),
	}
	if err := uow.WithdrawalRepository().Create(ctx, withdrawal); err != nil {
		return nil, fmt.Errorf("failed to create withdrawal: %w", err)
	}

	uow.EventBus().Publish(events.WithdrawalRequestedEvent{
		WithdrawalID: withdrawal.ID,
		UserID:       userID,
		Amount:       withdrawal.Amount,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return withdrawal, nil
}

// Process transitions a pending withdrawal to approved or declined. On
// approval the owner's available balance is debited by amount plus charge
// inside the same transaction; if the balance no longer covers it the whole
// operation fails and the withdrawal stays pending. Concurrent processors
// serialize on the conditional status update, so the loser sees
// models.ErrWithdrawalNotPending and no double debit can occur.
func (s *withdrawalService) Process(ctx context.Context, adminID, withdrawalID int64, decision models.WithdrawalStatus, notes string) (*models.Withdrawal, error) {
	if decision != models.WithdrawalStatusApproved && decision != models.WithdrawalStatusDeclined {
		return nil, models.ErrInvalidDecision
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	admin, err := uow.UserRepository().GetByID(ctx, adminID)
	if err != nil {
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}
	if admin == nil || !admin.IsAdmin {
		return nil, models.ErrForbidden
	}

	var notesPtr *string
	if notes = strings.TrimSpace(notes); notes != "" {
		notesPtr = &notes
	}

	// Claims the row: fails for unknown ids and already processed withdrawals
	processed, err := uow.WithdrawalRepository().MarkProcessed(ctx, withdrawalID, decision, notesPtr)
	if err != nil {
		return nil, err
	}

	if decision == models.WithdrawalStatusApproved {
		owner, err := uow.UserRepository().GetByID(ctx, processed.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to get withdrawal owner: %w", err)
		}
		if owner == nil {
			return nil, models.ErrUserNotFound
		}

		// Balance re-check at approval time; rolls everything back when the
		// balance moved since the request was filed
		total := processed.TotalDebit()
		if err := uow.UserRepository().DebitAvailableBalance(ctx, owner.ID, total); err != nil {
			return nil, err
		}

		relatedType := models.RelatedTypeWithdrawal
		entry := &models.LedgerEntry{
			UserID:        owner.ID,
			BalanceBefore: owner.AvailableBalance,
			BalanceAfter:  owner.AvailableBalance - total,
			ChangeAmount:  -total,
			EntryType:     models.EntryTypeWithdrawalDebit,
			Metadata: map[string]any{
				"amount":    processed.Amount,
				"charge":    processed.Charge,
				"bank_name": processed.BankName,
			},
			RelatedID:   &processed.ID,
			RelatedType: &relatedType,
		}
		if err := RecordBalanceChange(ctx, uow, entry); err != nil {
			return nil, fmt.Errorf("failed to record debit: %w", err)
		}
	}

	uow.EventBus().Publish(events.WithdrawalProcessedEvent{
		WithdrawalID: processed.ID,
		UserID:       processed.UserID,
		Amount:       processed.Amount,
		Status:       processed.Status,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return processed, nil
}

// ListByUser returns a user's withdrawal history
func (s *withdrawalService) ListByUser(ctx context.Context, userID int64) ([]*models.Withdrawal, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	withdrawals, err := uow.WithdrawalRepository().GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get withdrawals: %w", err)
	}

	return withdrawals, nil
}

// ListByStatus returns the admin review queue
func (s *withdrawalService) ListByStatus(ctx context.Context, adminID int64, status models.WithdrawalStatus) ([]*models.Withdrawal, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("unknown withdrawal status %q: %w", status, models.ErrInvalidRequest)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	admin, err := uow.UserRepository().GetByID(ctx, adminID)
	if err != nil {
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}
	if admin == nil || !admin.IsAdmin {
		return nil, models.ErrForbidden
	}

	withdrawals, err := uow.WithdrawalRepository().GetByStatus(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("failed to get withdrawals: %w", err)
	}

	return withdrawals, nil
}
