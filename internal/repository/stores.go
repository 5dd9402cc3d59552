package repository

import "gorm.io/gorm"

// Stores bundles the repositories the services are built from.
type Stores struct {
	Posts    PostRepository
	Comments CommentRepository
	Likes    LikeRepository
}

// NewStores returns GORM-backed repositories sharing db.
func NewStores(db *gorm.DB) Stores {
	return Stores{
		Posts:    NewPostRepository(db),
		Comments: NewCommentRepository(db),
		Likes:    NewLikeRepository(db),
	}
}

// Stores returns the store's repositories as a bundle.
func (s *MemoryStore) Stores() Stores {
	return Stores{Posts: s.Posts(), Comments: s.Comments(), Likes: s.Likes()}
}
