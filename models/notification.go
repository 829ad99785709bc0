package models

import "time"

// Notification kinds.
const (
	NotificationKindReply = "reply" // someone commented on your post
)

// Notification is an in-app alert for a registered user.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Kind      string    `gorm:"size:32;not null" json:"kind"`
	ActorName string    `gorm:"size:64" json:"actor_name"`
	Preview   string    `gorm:"size:255" json:"preview"`
	PostID    *uint     `json:"post_id"`
	CommentID *uint     `json:"comment_id"`
	Read      bool      `gorm:"not null;default:false;index" json:"read"`
	CreatedAt time.Time `json:"created_at"`
}
