package models

import (
	"time"

	"gorm.io/gorm"
)

// UnboostWindow is how long a viewer can undo their own boost after casting it.
const UnboostWindow = time.Minute

// BoostCost is the number of spendable points one boost debits.
const BoostCost int64 = 1

// Boost represents a boost cast on a post
type Boost struct {
	gorm.Model
	PostID string `json:"post_id" gorm:"index;uniqueIndex:idx_user_post_boost"` // ID of the boosted post (MongoDB ObjectID as string)
	UserID uint   `json:"user_id" gorm:"index;uniqueIndex:idx_user_post_boost"` // ID of the user who cast the boost
}

// WithinUnboostWindow reports whether the boost can still be undone at the given time.
func (b *Boost) WithinUnboostWindow(now time.Time) bool {
	return now.Sub(b.CreatedAt) < UnboostWindow
}
