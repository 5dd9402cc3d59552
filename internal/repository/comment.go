package repository

import (
	"context"
	"iter"

	"lsablog/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	// StreamByPost yields the post's comments oldest first. Every call issues a new
	// query; rows are read as the caller iterates.
	StreamByPost(ctx context.Context, postID uuid.UUID) iter.Seq2[*models.Comment, error]
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return translate(r.db.WithContext(ctx).Create(comment).Error)
}

func (r *commentRepository) StreamByPost(ctx context.Context, postID uuid.UUID) iter.Seq2[*models.Comment, error] {
	return func(yield func(*models.Comment, error) bool) {
		db := r.db.WithContext(ctx)
		rows, err := db.Model(&models.Comment{}).
			Where("post_id = ?", postID).
			Order("created_at ASC").
			Order("id ASC").
			Rows()
		if err != nil {
			yield(nil, err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			var comment models.Comment
			if err := db.ScanRows(rows, &comment); err != nil {
				yield(nil, err)
				return
			}
			if !yield(&comment, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, err)
		}
	}
}
