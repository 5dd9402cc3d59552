package models

import (
	"time"

	"github.com/google/uuid"
)

// AnonymousAuthor is the byline stored on comments posted anonymously.
const AnonymousAuthor = "Anonymous"

// Comment is a reader reply attached to a post.
type Comment struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PostID      uuid.UUID `gorm:"type:uuid;not null;index" json:"post_id"`
	Author      string    `gorm:"not null" json:"author"`
	IsAnonymous bool      `gorm:"not null;default:false" json:"is_anonymous"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	CreatedAt   time.Time `gorm:"not null;index" json:"created_at"`
}

func (Comment) TableName() string { return "comments" }
