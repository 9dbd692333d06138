package models

import (
	"time"
)

// WithdrawalStatus represents the state of a withdrawal request
type WithdrawalStatus string

const (
	WithdrawalStatusPending  WithdrawalStatus = "pending"
	WithdrawalStatusApproved WithdrawalStatus = "approved"
	WithdrawalStatusDeclined WithdrawalStatus = "declined"
)

// Valid reports whether s is a known withdrawal status.
func (s WithdrawalStatus) Valid() bool {
	switch s {
	case WithdrawalStatusPending, WithdrawalStatusApproved, WithdrawalStatusDeclined:
		return true
	}
	return false
}

// Withdrawal is a user's request to cash out part of their available balance.
//
// A withdrawal is created pending and transitions exactly once to approved or
// declined; it is terminal afterwards. The balance is debited only on
// approval, so a pending request is a claim rather than a debit.
type Withdrawal struct {
	ID            int64            `db:"id"`
	UserID        int64            `db:"user_id"`
	Amount        int64            `db:"amount"`
	Charge        int64            `db:"charge"`
	AccountName   string           `db:"account_name"`
	AccountNumber string           `db:"account_number"`
	BankName      string           `db:"bank_name"`
	Status        WithdrawalStatus `db:"status"`
	AdminNotes    *string          `db:"admin_notes"`
	RequestedAt   time.Time        `db:"requested_at"`
	ProcessedAt   *time.Time       `db:"processed_at"`
}

// IsPending checks if the withdrawal can still be processed
func (w *Withdrawal) IsPending() bool {
	return w.Status == WithdrawalStatusPending
}

// TotalDebit returns the amount taken from the available balance on approval,
// the requested amount plus the flat charge snapshotted at request time.
func (w *Withdrawal) TotalDebit() int64 {
	return w.Amount + w.Charge
}
