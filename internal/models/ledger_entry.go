package models

import "time"

// Ledger entry kinds. Every point movement caused by boosting is recorded as
// one of these.
const (
	LedgerKindBoostDebit   = "boost_debit"   // Viewer spent a point boosting a post
	LedgerKindBoostEarning = "boost_earning" // Author earned a point from a received boost
	LedgerKindBoostRefund  = "boost_refund"  // Viewer got their point back after unboosting
	LedgerKindEarningClaw  = "earning_claw"  // Author's earning reversed after an unboost
)

// LedgerEntry is one immutable row in the point ledger
type LedgerEntry struct {
	ID        string    `json:"id" gorm:"primaryKey"` // UUID
	UserID    uint      `json:"user_id" gorm:"index"`
	PostID    string    `json:"post_id" gorm:"index"`
	Amount    int64     `json:"amount"` // Signed; negative for debits
	Kind      string    `json:"kind" gorm:"index"`
	CreatedAt time.Time `json:"created_at"`
}
