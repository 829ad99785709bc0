package models

import "time"

// Revision is an edit-history snapshot taken before an author edit is applied.
// One row per edit, oldest first.
type Revision struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	ItemType string    `gorm:"size:16;not null;index:idx_revision_item" json:"item_type"`
	ItemID   uint      `gorm:"not null;index:idx_revision_item" json:"item_id"`
	Title    string    `gorm:"size:255" json:"title"`
	Body     string    `gorm:"type:text;not null" json:"body"`
	Category string    `gorm:"size:32" json:"category"`
	EditedAt time.Time `gorm:"not null" json:"edited_at"`
}
