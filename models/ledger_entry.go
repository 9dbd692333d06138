package models

import (
	"time"
)

// EntryType represents the kind of balance change
type EntryType string

const (
	EntryTypeReferralReward  EntryType = "referral_reward"
	EntryTypeWithdrawalDebit EntryType = "withdrawal_debit"
)

// RelatedType represents what type of entity the related_id refers to
type RelatedType string

const (
	RelatedTypeReferral   RelatedType = "referral"
	RelatedTypeWithdrawal RelatedType = "withdrawal"
)

// LedgerEntry records a single change to a user's available balance.
// Every actual balance mutation writes exactly one entry; operations that do
// not move money (declined withdrawals, pending requests) write none.
type LedgerEntry struct {
	ID            int64          `db:"id"`
	UserID        int64          `db:"user_id"`
	BalanceBefore int64          `db:"balance_before"`
	BalanceAfter  int64          `db:"balance_after"`
	ChangeAmount  int64          `db:"change_amount"`
	EntryType     EntryType      `db:"entry_type"`
	Metadata      map[string]any `db:"metadata"`
	RelatedID     *int64         `db:"related_id"`
	RelatedType   *RelatedType   `db:"related_type"`
	CreatedAt     time.Time      `db:"created_at"`
}
