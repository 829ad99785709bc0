package models

import "time"

// Like records that a user liked a post or a comment. The composite unique
// index is the source of truth for the at-most-one-like invariant: concurrent
// toggles race on the insert and the loser sees a duplicate-key error, which
// the handler treats as "already liked".
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_like_user_item" json:"user_id"`
	ItemType  string    `gorm:"size:16;not null;uniqueIndex:idx_like_user_item" json:"item_type"`
	ItemID    uint      `gorm:"not null;uniqueIndex:idx_like_user_item;index" json:"item_id"`
	CreatedAt time.Time `json:"created_at"`
}
