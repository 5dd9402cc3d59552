// Package models contains data structures for the blog's domain models.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Category is one of the fixed editorial sections a post belongs to.
type Category string

const (
	CategoryEnvironmentalStorytelling Category = "Environmental Storytelling"
	CategoryVoicesForHer              Category = "Voices for Her"
	CategoryYouthEmpowerment          Category = "Youth Empowerment"
	CategoryCommunityImpact           Category = "Community Impact"
	CategoryNewsAndUpdates            Category = "News & Updates"
)

// Categories lists the accepted categories in display order.
var Categories = []Category{
	CategoryEnvironmentalStorytelling,
	CategoryVoicesForHer,
	CategoryYouthEmpowerment,
	CategoryCommunityImpact,
	CategoryNewsAndUpdates,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Author is the byline denormalized onto a post at creation time.
type Author struct {
	Name   string `gorm:"column:name;not null" json:"name"`
	Image  string `gorm:"column:image" json:"image"`
	Social string `gorm:"column:social" json:"social,omitempty"`
}

// Post is a blog article. Drafts (Published=false) are only visible to AuthorID.
type Post struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title      string    `gorm:"not null" json:"title"`
	Excerpt    string    `gorm:"type:text;not null" json:"excerpt"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	Author     Author    `gorm:"embedded;embeddedPrefix:author_" json:"author"`
	AuthorID   string    `gorm:"not null;index" json:"author_id"`
	Category   Category  `gorm:"not null" json:"category"`
	CoverImage string    `gorm:"type:text" json:"cover_image,omitempty"`
	ReadTime   string    `gorm:"not null" json:"read_time"`
	Published  bool      `gorm:"not null;default:false;index" json:"published"`
	LikeCount  int64     `gorm:"column:likes_count;not null;default:0" json:"likes_count"`
	// Liked indicates whether the current requesting user liked this post (computed)
	Liked     bool      `gorm:"-" json:"liked"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName pins the table the migrations create.
func (Post) TableName() string { return "blog_posts" }

// VisibleTo reports whether actor may read the post.
func (p *Post) VisibleTo(actor *ActingUser) bool {
	if p.Published {
		return true
	}
	return actor != nil && actor.ID == p.AuthorID
}

// OwnedBy reports whether actor is the post's author.
func (p *Post) OwnedBy(actor *ActingUser) bool {
	return actor != nil && actor.ID == p.AuthorID
}
