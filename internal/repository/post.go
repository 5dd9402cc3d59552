package repository

import (
	"context"
	"database/sql"
	"errors"

	"lsablog/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PostFilter selects which posts a listing returns.
type PostFilter struct {
	// Published includes every published post.
	Published bool
	// DraftsOf includes the unpublished posts of this author id.
	DraftsOf string
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error)
	List(ctx context.Context, filter PostFilter) ([]*models.Post, error)
	// Update writes the editable columns; likes_count and created_at are never touched.
	Update(ctx context.Context, post *models.Post) error
	// Delete removes the post together with its comments and like records.
	Delete(ctx context.Context, id uuid.UUID) error
	// AdjustLikeCount atomically adds delta to the counter, flooring at zero, and
	// returns the stored value. A zero delta only reads it.
	AdjustLikeCount(ctx context.Context, id uuid.UUID, delta int64) (int64, error)
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

var editablePostColumns = []string{
	"title", "excerpt", "content",
	"author_name", "author_image", "author_social",
	"category", "cover_image", "read_time", "published", "updated_at",
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, filter PostFilter) ([]*models.Post, error) {
	posts := []*models.Post{}
	q := r.db.WithContext(ctx).Model(&models.Post{})
	switch {
	case filter.Published && filter.DraftsOf != "":
		q = q.Where("published = ? OR author_id = ?", true, filter.DraftsOf)
	case filter.Published:
		q = q.Where("published = ?", true)
	case filter.DraftsOf != "":
		q = q.Where("published = ? AND author_id = ?", false, filter.DraftsOf)
	default:
		return posts, nil
	}
	err := q.Order("created_at DESC").Order("id").Find(&posts).Error
	return posts, err
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	res := r.db.WithContext(ctx).
		Model(&models.Post{ID: post.ID}).
		Select(editablePostColumns).
		Updates(post)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Post{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *postRepository) AdjustLikeCount(ctx context.Context, id uuid.UUID, delta int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		count, err = adjustLikeCount(tx, id, delta)
		return err
	})
	return count, err
}

// adjustLikeCount runs inside the caller's transaction so that like records and the
// counter move together.
func adjustLikeCount(tx *gorm.DB, id uuid.UUID, delta int64) (int64, error) {
	if delta != 0 {
		expr := gorm.Expr("likes_count + ?", delta)
		if delta < 0 {
			expr = gorm.Expr("CASE WHEN likes_count + ? < 0 THEN 0 ELSE likes_count + ? END", delta, delta)
		}
		res := tx.Model(&models.Post{}).Where("id = ?", id).UpdateColumn("likes_count", expr)
		if res.Error != nil {
			return 0, res.Error
		}
		if res.RowsAffected == 0 {
			return 0, ErrNotFound
		}
	}

	var count int64
	row := tx.Model(&models.Post{}).Select("likes_count").Where("id = ?", id).Row()
	if err := row.Scan(&count); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return count, nil
}
