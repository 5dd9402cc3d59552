package service

import (
	"context"
	"log/slog"

	"lsablog/internal/middleware"
	"lsablog/internal/models"
	"lsablog/internal/notifications"
	"lsablog/internal/observability"
	"lsablog/internal/repository"

	"github.com/google/uuid"
)

const (
	policyAnonymous = "anonymous"
	policyMember    = "member"
)

// LikeService is the like ledger. Signed-in users toggle a like record that moves the
// counter with it; anonymous visitors may only increment the counter.
type LikeService struct {
	posts repository.PostRepository
	likes repository.LikeRepository
	options
}

func NewLikeService(posts repository.PostRepository, likes repository.LikeRepository, opts ...Option) *LikeService {
	return &LikeService{
		posts:   posts,
		likes:   likes,
		options: buildOptions(opts),
	}
}

// Like applies the policy that matches the actor.
func (s *LikeService) Like(ctx context.Context, postID uuid.UUID, actor *models.ActingUser) (result *models.LikeResult, err error) {
	ctx, span := observability.StartSpan(ctx, "LikeService.Like")
	defer func() { observability.EndSpan(span, err) }()

	if actor == nil {
		count, err := s.IncrementAnonymous(ctx, postID)
		if err != nil {
			return nil, err
		}
		return &models.LikeResult{LikeCount: count, Anonymous: true}, nil
	}

	return s.ToggleLike(ctx, postID, actor.ID)
}

// IncrementAnonymous bumps the counter of a published post without recording who
// liked it. Repeated calls keep incrementing.
func (s *LikeService) IncrementAnonymous(ctx context.Context, postID uuid.UUID) (int64, error) {
	if _, err := loadVisiblePost(ctx, s.posts, postID, nil); err != nil {
		return 0, err
	}

	count, err := s.posts.AdjustLikeCount(ctx, postID, 1)
	if err != nil {
		return 0, storeError("increment like count", err, "Post", postID)
	}

	observability.LikesTotal.WithLabelValues(policyAnonymous, "up").Inc()
	s.afterChange(ctx, postID, "", false, count)
	return count, nil
}

// ToggleLike removes the user's like when present and adds it otherwise. When a
// concurrent request already made the same change the counter is left alone.
func (s *LikeService) ToggleLike(ctx context.Context, postID uuid.UUID, userID string) (*models.LikeResult, error) {
	if userID == "" {
		return nil, models.NewUnauthorizedError("Sign in to toggle likes")
	}
	if _, err := loadVisiblePost(ctx, s.posts, postID, &models.ActingUser{ID: userID}); err != nil {
		return nil, err
	}

	exists, err := s.likes.Exists(ctx, postID, userID)
	if err != nil {
		return nil, storeError("check like", err, "Post", postID)
	}

	var (
		changed bool
		count   int64
		liked   = !exists
	)
	if exists {
		changed, count, err = s.likes.Remove(ctx, postID, userID)
	} else {
		changed, count, err = s.likes.Add(ctx, &models.Like{PostID: postID, UserID: userID, CreatedAt: s.now()})
	}
	if err != nil {
		return nil, storeError("toggle like", err, "Post", postID)
	}

	result := &models.LikeResult{IsLiked: liked, LikeCount: count}
	if !changed {
		middleware.Logger.DebugContext(ctx, "like toggle raced",
			slog.String("post_id", postID.String()), slog.Bool("liked", liked))
		return result, nil
	}

	direction := "down"
	if liked {
		direction = "up"
	}
	observability.LikesTotal.WithLabelValues(policyMember, direction).Inc()
	s.afterChange(ctx, postID, userID, liked, count)
	return result, nil
}

// Status reports the post's current count and whether the actor holds a like.
func (s *LikeService) Status(ctx context.Context, postID uuid.UUID, actor *models.ActingUser) (*models.LikeResult, error) {
	post, err := loadVisiblePost(ctx, s.posts, postID, actor)
	if err != nil {
		return nil, err
	}

	result := &models.LikeResult{LikeCount: post.LikeCount}
	if actor == nil {
		return result, nil
	}
	result.IsLiked, err = s.likes.Exists(ctx, postID, actor.ID)
	if err != nil {
		return nil, storeError("check like", err, "Post", postID)
	}
	return result, nil
}

func (s *LikeService) afterChange(ctx context.Context, postID uuid.UUID, userID string, liked bool, count int64) {
	s.invalidatePost(ctx, postID)
	s.publish(ctx, notifications.Event{
		Type:    notifications.LikeChanged,
		PostID:  postID,
		ActorID: userID,
		Data:    map[string]any{"likes_count": count, "is_liked": liked},
	})
}
