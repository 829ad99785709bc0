package models

import (
	"time"

	"github.com/demaesdadas/aldeia/moderation"
)

// Post is a feed entry. UserID is nullable: the community allows anonymous
// sharing, in which case only AuthorName identifies the writer.
type Post struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	UserID       *uint             `gorm:"index" json:"user_id"`
	AuthorName   string            `gorm:"size:64;not null;default:'Anônima'" json:"author_name"`
	Title        string            `gorm:"size:255" json:"title"`
	Body         string            `gorm:"type:text;not null" json:"body"`
	Category     string            `gorm:"size:32;default:'Desabafo'" json:"category"`
	Status       moderation.Status `gorm:"size:16;not null;default:'pending';index" json:"status"`
	LikeCount    int               `gorm:"not null;default:0" json:"like_count"`
	CommentCount int               `gorm:"not null;default:0" json:"comment_count"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	User         *User             `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
	Comments     []Comment         `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"comments,omitempty"`
}

// Categories the product ships with; anything else is rejected at the handler.
var PostCategories = []string{
	"Desabafo",
	"Maternidade Solo",
	"Sono",
	"Volta ao Trabalho",
	"Vitória",
	"Dica",
	"Pergunta",
	"Geral",
}

// ValidCategory reports whether c is a known post category.
func ValidCategory(c string) bool {
	for _, known := range PostCategories {
		if c == known {
			return true
		}
	}
	return false
}
