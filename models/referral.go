package models

import (
	"time"
)

// Referral links a referrer to a user who signed up with their code.
// Exactly one row exists per rewarded signup; rows are immutable.
type Referral struct {
	ID           int64     `db:"id"`
	ReferrerID   int64     `db:"referrer_id"`
	ReferredID   int64     `db:"referred_id"`
	RewardAmount int64     `db:"reward_amount"`
	CreatedAt    time.Time `db:"created_at"`
}
