package service

import (
	"context"
	"fmt"

	"refbounty/events"
	"refbounty/models"
)

// RecordBalanceChange writes a ledger entry and queues the matching event.
// This is the single entry point for all balance changes in the system.
func RecordBalanceChange(ctx context.Context, uow UnitOfWork, entry *models.LedgerEntry) error {
	if err := uow.LedgerRepository().Record(ctx, entry); err != nil {
		return fmt.Errorf("failed to record ledger entry: %w", err)
	}

	// Queued on the transactional bus, emitted only after commit
	uow.EventBus().Publish(events.BalanceChangeEvent{
		UserID:       entry.UserID,
		OldBalance:   entry.BalanceBefore,
		NewBalance:   entry.BalanceAfter,
		EntryType:    entry.EntryType,
		ChangeAmount: entry.ChangeAmount,
	})

	return nil
}
