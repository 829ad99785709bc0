package models

import (
	"time"

	"github.com/demaesdadas/aldeia/moderation"
)

// Comment belongs to a post. A non-nil ParentID makes it a reply to another
// comment of the same post; the handler enforces that the parent exists and
// is not itself a reply of a different thread.
type Comment struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	PostID     uint              `gorm:"not null;index" json:"post_id"`
	ParentID   *uint             `gorm:"index" json:"parent_id"`
	UserID     *uint             `gorm:"index" json:"user_id"`
	AuthorName string            `gorm:"size:64;not null;default:'Anônima'" json:"author_name"`
	Body       string            `gorm:"type:text;not null" json:"body"`
	Status     moderation.Status `gorm:"size:16;not null;default:'pending';index" json:"status"`
	LikeCount  int               `gorm:"not null;default:0" json:"like_count"`
	ReplyCount int               `gorm:"not null;default:0" json:"reply_count"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
	Post       *Post             `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Parent     *Comment          `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}
