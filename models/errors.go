package models

import "errors"

// Domain errors surfaced by services and mapped to HTTP statuses at the edge.
var (
	ErrInvalidRequest     = errors.New("invalid request")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")

	ErrAmountBelowMinimum   = errors.New("amount below minimum withdrawal")
	ErrInsufficientBalance  = errors.New("insufficient available balance")
	ErrBankDetailsRequired  = errors.New("bank details required")
	ErrWithdrawalNotFound   = errors.New("withdrawal not found")
	ErrWithdrawalNotPending = errors.New("withdrawal is not pending")
	ErrInvalidDecision      = errors.New("decision must be approved or declined")

	ErrForbidden = errors.New("administrator access required")
)
