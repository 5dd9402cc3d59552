package models

import (
	"time"

	"github.com/google/uuid"
)

// Like records that an authenticated user likes a post.
type Like struct {
	PostID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"post_id"`
	UserID    string    `gorm:"primaryKey" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (Like) TableName() string { return "post_likes" }

// LikeResult is the ledger's answer after a like operation.
type LikeResult struct {
	IsLiked   bool  `json:"is_liked"`
	LikeCount int64 `json:"likes_count"`
	// Anonymous is set when the increment-only policy was applied.
	Anonymous bool `json:"anonymous"`
}
