package service

import (
	"context"
	"iter"
	"log/slog"
	"strings"
	"unicode/utf8"

	"lsablog/internal/middleware"
	"lsablog/internal/models"
	"lsablog/internal/notifications"
	"lsablog/internal/observability"
	"lsablog/internal/repository"

	"github.com/google/uuid"
)

type CommentService struct {
	posts    repository.PostRepository
	comments repository.CommentRepository
	options
}

type AddCommentInput struct {
	PostID      uuid.UUID `json:"-"`
	Author      string    `json:"author"`
	Content     string    `json:"content"`
	IsAnonymous bool      `json:"is_anonymous"`
}

func NewCommentService(posts repository.PostRepository, comments repository.CommentRepository, opts ...Option) *CommentService {
	return &CommentService{
		posts:    posts,
		comments: comments,
		options:  buildOptions(opts),
	}
}

// AddComment stores a reply on a post the actor can see. A missing or hidden post is
// reported before any field problem. Anonymous comments always carry the Anonymous byline.
func (s *CommentService) AddComment(ctx context.Context, in AddCommentInput, actor *models.ActingUser) (comment *models.Comment, err error) {
	ctx, span := observability.StartSpan(ctx, "CommentService.AddComment")
	defer func() { observability.EndSpan(span, err) }()

	if _, err := loadVisiblePost(ctx, s.posts, in.PostID, actor); err != nil {
		return nil, err
	}

	author, err := resolveCommentAuthor(in, actor)
	if err != nil {
		return nil, err
	}
	if err := requireText("content", "Content", in.Content, maxCommentLen); err != nil {
		return nil, err
	}

	comment = &models.Comment{
		ID:          uuid.New(),
		PostID:      in.PostID,
		Author:      author,
		IsAnonymous: in.IsAnonymous,
		Content:     in.Content,
		CreatedAt:   s.now(),
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, storeError("add comment", err, "Post", in.PostID)
	}

	observability.ObserveComment(comment.IsAnonymous)
	middleware.Logger.InfoContext(ctx, "comment added",
		slog.String("post_id", in.PostID.String()), slog.Bool("anonymous", comment.IsAnonymous))
	s.publish(ctx, notifications.Event{
		Type:    notifications.CommentAdded,
		PostID:  in.PostID,
		ActorID: models.ActorID(actor),
		Data:    comment,
	})
	return comment, nil
}

func resolveCommentAuthor(in AddCommentInput, actor *models.ActingUser) (string, error) {
	if in.IsAnonymous {
		return models.AnonymousAuthor, nil
	}
	author := strings.TrimSpace(in.Author)
	if author == "" && actor != nil {
		author = strings.TrimSpace(actor.DisplayName)
	}
	if author == "" {
		return "", models.NewValidationError("author", "Author name is required unless commenting anonymously")
	}
	if utf8.RuneCountInString(author) > maxAuthorLen {
		return "", models.NewValidationError("author", "Author name is too long")
	}
	return author, nil
}

// ListComments checks the post eagerly and then streams its comments oldest first.
// Ranging over the result more than once runs the query again.
func (s *CommentService) ListComments(ctx context.Context, postID uuid.UUID, actor *models.ActingUser) (iter.Seq2[*models.Comment, error], error) {
	if _, err := loadVisiblePost(ctx, s.posts, postID, actor); err != nil {
		return nil, err
	}

	rows := s.comments.StreamByPost(ctx, postID)
	return func(yield func(*models.Comment, error) bool) {
		for c, err := range rows {
			if err != nil {
				yield(nil, storeError("list comments", err, "Post", postID))
				return
			}
			if !yield(c, nil) {
				return
			}
		}
	}, nil
}
