package models

import (
	"time"
)

// User is a ledger account tied to one authenticated identity.
//
// TotalEarnings is a lifetime counter and never decreases; AvailableBalance
// grows with referral rewards and shrinks with approved withdrawals, and is
// never allowed to exceed TotalEarnings.
type User struct {
	ID               int64     `db:"id"`
	Email            string    `db:"email"`
	FullName         string    `db:"full_name"`
	PasswordHash     string    `db:"password_hash"`
	ReferralCode     string    `db:"referral_code"`
	TotalEarnings    int64     `db:"total_earnings"`
	AvailableBalance int64     `db:"available_balance"`
	TotalReferrals   int64     `db:"total_referrals"`
	ReferredBy       *int64    `db:"referred_by"`
	IsAdmin          bool      `db:"is_admin"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}
