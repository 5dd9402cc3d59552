package repository

import (
	"context"

	"lsablog/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LikeRepository stores per-user like records. Add and Remove move the post's
// counter in the same transaction, and only when a record was actually written.
type LikeRepository interface {
	Exists(ctx context.Context, postID uuid.UUID, userID string) (bool, error)
	Add(ctx context.Context, like *models.Like) (created bool, count int64, err error)
	Remove(ctx context.Context, postID uuid.UUID, userID string) (removed bool, count int64, err error)
	LikedPostIDs(ctx context.Context, userID string, postIDs []uuid.UUID) ([]uuid.UUID, error)
}

type likeRepository struct {
	db *gorm.DB
}

// NewLikeRepository creates a new LikeRepository
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

func (r *likeRepository) Exists(ctx context.Context, postID uuid.UUID, userID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Count(&n).Error
	return n > 0, err
}

func (r *likeRepository) Add(ctx context.Context, like *models.Like) (bool, int64, error) {
	var (
		created bool
		count   int64
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(like)
		if res.Error != nil {
			return translate(res.Error)
		}
		created = res.RowsAffected == 1

		delta := int64(0)
		if created {
			delta = 1
		}
		var err error
		count, err = adjustLikeCount(tx, like.PostID, delta)
		return err
	})
	return created, count, err
}

func (r *likeRepository) Remove(ctx context.Context, postID uuid.UUID, userID string) (bool, int64, error) {
	var (
		removed bool
		count   int64
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.Like{})
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected == 1

		delta := int64(0)
		if removed {
			delta = -1
		}
		var err error
		count, err = adjustLikeCount(tx, postID, delta)
		return err
	})
	return removed, count, err
}

func (r *likeRepository) LikedPostIDs(ctx context.Context, userID string, postIDs []uuid.UUID) ([]uuid.UUID, error) {
	if userID == "" || len(postIDs) == 0 {
		return nil, nil
	}
	var liked []uuid.UUID
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Pluck("post_id", &liked).Error
	return liked, err
}
