package service

import (
	"context"
	"log/slog"

	"lsablog/internal/cache"
	"lsablog/internal/middleware"
	"lsablog/internal/models"
	"lsablog/internal/notifications"
	"lsablog/internal/observability"
	"lsablog/internal/readtime"
	"lsablog/internal/repository"

	"github.com/google/uuid"
)

// PostService manages the post lifecycle: drafting, editing, publishing and removal.
type PostService struct {
	posts repository.PostRepository
	likes repository.LikeRepository
	options
}

type CreatePostInput struct {
	Title      string          `json:"title"`
	Excerpt    string          `json:"excerpt"`
	Content    string          `json:"content"`
	Author     models.Author   `json:"author"`
	Category   models.Category `json:"category"`
	CoverImage string          `json:"cover_image"`
	Published  bool            `json:"published"`
}

// AuthorPatch updates individual byline fields.
type AuthorPatch struct {
	Name   *string `json:"name"`
	Image  *string `json:"image"`
	Social *string `json:"social"`
}

// UpdatePostInput is a partial update; nil fields are left unchanged. It has no like
// count field, so counts sent by clients are dropped during decoding.
type UpdatePostInput struct {
	Title      *string          `json:"title"`
	Excerpt    *string          `json:"excerpt"`
	Content    *string          `json:"content"`
	Author     *AuthorPatch     `json:"author"`
	Category   *models.Category `json:"category"`
	CoverImage *string          `json:"cover_image"`
	Published  *bool            `json:"published"`
}

type ListPostsInput struct {
	PublishedOnly bool
	Actor         *models.ActingUser
}

func NewPostService(posts repository.PostRepository, likes repository.LikeRepository, opts ...Option) *PostService {
	return &PostService{
		posts:   posts,
		likes:   likes,
		options: buildOptions(opts),
	}
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput, actor *models.ActingUser) (post *models.Post, err error) {
	ctx, span := observability.StartSpan(ctx, "PostService.CreatePost")
	defer func() { observability.EndSpan(span, err) }()

	if actor == nil {
		return nil, models.NewUnauthorizedError("Sign in to create posts")
	}

	author := in.Author
	if author.Name == "" {
		author.Name = actor.DisplayName
	}
	if author.Image == "" {
		author.Image = actor.AvatarURL
	}

	now := s.now()
	post = &models.Post{
		ID:         uuid.New(),
		Title:      in.Title,
		Excerpt:    in.Excerpt,
		Content:    in.Content,
		Author:     author,
		AuthorID:   actor.ID,
		Category:   in.Category,
		CoverImage: in.CoverImage,
		ReadTime:   readtime.Calculate(in.Content),
		Published:  in.Published,
		LikeCount:  0,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := validatePost(post); err != nil {
		return nil, err
	}

	if err := s.posts.Create(ctx, post); err != nil {
		return nil, storeError("create post", err, "Post", post.ID)
	}

	if post.Published {
		s.invalidatePost(ctx, post.ID)
	}
	observability.PostTransitions.WithLabelValues("create").Inc()
	middleware.Logger.InfoContext(ctx, "post created",
		slog.String("post_id", post.ID.String()), slog.Bool("published", post.Published))
	s.publish(ctx, notifications.Event{Type: notifications.PostCreated, PostID: post.ID, ActorID: actor.ID})
	return post, nil
}

func (s *PostService) UpdatePost(ctx context.Context, id uuid.UUID, in UpdatePostInput, actor *models.ActingUser) (post *models.Post, err error) {
	ctx, span := observability.StartSpan(ctx, "PostService.UpdatePost")
	defer func() { observability.EndSpan(span, err) }()

	post, err = s.loadOwned(ctx, id, actor)
	if err != nil {
		return nil, err
	}

	applyPatch(post, in)
	post.UpdatedAt = s.now()
	if err := validatePost(post); err != nil {
		return nil, err
	}

	if err := s.posts.Update(ctx, post); err != nil {
		return nil, storeError("update post", err, "Post", id)
	}

	s.invalidatePost(ctx, id)
	observability.PostTransitions.WithLabelValues("update").Inc()
	s.publish(ctx, notifications.Event{Type: notifications.PostUpdated, PostID: id, ActorID: actor.ID})
	return post, nil
}

func applyPatch(post *models.Post, in UpdatePostInput) {
	if in.Title != nil {
		post.Title = *in.Title
	}
	if in.Excerpt != nil {
		post.Excerpt = *in.Excerpt
	}
	if in.Content != nil && *in.Content != post.Content {
		post.Content = *in.Content
		post.ReadTime = readtime.Calculate(post.Content)
	}
	if in.Author != nil {
		if in.Author.Name != nil {
			post.Author.Name = *in.Author.Name
		}
		if in.Author.Image != nil {
			post.Author.Image = *in.Author.Image
		}
		if in.Author.Social != nil {
			post.Author.Social = *in.Author.Social
		}
	}
	if in.Category != nil {
		post.Category = *in.Category
	}
	if in.CoverImage != nil {
		post.CoverImage = *in.CoverImage
	}
	if in.Published != nil {
		post.Published = *in.Published
	}
}

func (s *PostService) DeletePost(ctx context.Context, id uuid.UUID, actor *models.ActingUser) (err error) {
	ctx, span := observability.StartSpan(ctx, "PostService.DeletePost")
	defer func() { observability.EndSpan(span, err) }()

	if _, err := s.loadOwned(ctx, id, actor); err != nil {
		return err
	}
	if err := s.posts.Delete(ctx, id); err != nil {
		return storeError("delete post", err, "Post", id)
	}

	s.invalidatePost(ctx, id)
	observability.PostTransitions.WithLabelValues("delete").Inc()
	middleware.Logger.InfoContext(ctx, "post deleted", slog.String("post_id", id.String()))
	s.publish(ctx, notifications.Event{Type: notifications.PostDeleted, PostID: id, ActorID: actor.ID})
	return nil
}

// Publish makes a draft visible to everyone.
func (s *PostService) Publish(ctx context.Context, id uuid.UUID, actor *models.ActingUser) (*models.Post, error) {
	return s.setPublished(ctx, id, actor, true)
}

// Unpublish returns a post to draft state.
func (s *PostService) Unpublish(ctx context.Context, id uuid.UUID, actor *models.ActingUser) (*models.Post, error) {
	return s.setPublished(ctx, id, actor, false)
}

func (s *PostService) setPublished(ctx context.Context, id uuid.UUID, actor *models.ActingUser, published bool) (post *models.Post, err error) {
	transition, eventType := "unpublish", notifications.PostUnpublished
	if published {
		transition, eventType = "publish", notifications.PostPublished
	}
	ctx, span := observability.StartSpan(ctx, "PostService."+transition)
	defer func() { observability.EndSpan(span, err) }()

	post, err = s.loadOwned(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if post.Published == published {
		return post, nil
	}

	post.Published = published
	post.UpdatedAt = s.now()
	if err := s.posts.Update(ctx, post); err != nil {
		return nil, storeError(transition+" post", err, "Post", id)
	}

	s.invalidatePost(ctx, id)
	observability.PostTransitions.WithLabelValues(transition).Inc()
	s.publish(ctx, notifications.Event{Type: eventType, PostID: id, ActorID: actor.ID})
	return post, nil
}

// ListPosts returns posts newest first. With PublishedOnly unset the actor also sees
// their own drafts.
func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) (posts []*models.Post, err error) {
	ctx, span := observability.StartSpan(ctx, "PostService.ListPosts")
	defer func() { observability.EndSpan(span, err) }()

	if in.PublishedOnly || in.Actor == nil {
		err = s.cache.Aside(ctx, cache.PublishedPostsKey, &posts, func() error {
			var fetchErr error
			posts, fetchErr = s.posts.List(ctx, repository.PostFilter{Published: true})
			return fetchErr
		})
	} else {
		posts, err = s.posts.List(ctx, repository.PostFilter{Published: true, DraftsOf: in.Actor.ID})
	}
	if err != nil {
		return nil, storeError("list posts", err, "Post", nil)
	}
	if posts == nil {
		posts = []*models.Post{}
	}

	if err := s.enrichLiked(ctx, posts, in.Actor); err != nil {
		return nil, err
	}
	return posts, nil
}

// ListDrafts returns the actor's unpublished posts, newest first.
func (s *PostService) ListDrafts(ctx context.Context, actor *models.ActingUser) ([]*models.Post, error) {
	if actor == nil {
		return nil, models.NewUnauthorizedError("Sign in to see drafts")
	}
	posts, err := s.posts.List(ctx, repository.PostFilter{DraftsOf: actor.ID})
	if err != nil {
		return nil, storeError("list drafts", err, "Post", nil)
	}
	if posts == nil {
		posts = []*models.Post{}
	}
	if err := s.enrichLiked(ctx, posts, actor); err != nil {
		return nil, err
	}
	return posts, nil
}

// GetPost returns one post. Drafts of other users are reported as missing.
func (s *PostService) GetPost(ctx context.Context, id uuid.UUID, actor *models.ActingUser) (*models.Post, error) {
	key := cache.PostKey(id)
	var cached models.Post
	found, err := s.cache.GetJSON(ctx, key, &cached)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}

	post := &cached
	if !found {
		gen, cacheable := s.cache.Generation(ctx)
		post, err = loadVisiblePost(ctx, s.posts, id, actor)
		if err != nil {
			return nil, err
		}
		if cacheable && post.Published {
			if err := s.cache.SetJSONAt(ctx, key, post, gen); err != nil {
				middleware.Logger.WarnContext(ctx, "cache write failed", slog.String("key", key), slog.String("error", err.Error()))
			}
		}
	}

	if err := s.enrichLiked(ctx, []*models.Post{post}, actor); err != nil {
		return nil, err
	}
	return post, nil
}

// loadOwned enforces the author-only rule shared by every mutation.
func (s *PostService) loadOwned(ctx context.Context, id uuid.UUID, actor *models.ActingUser) (*models.Post, error) {
	if actor == nil {
		return nil, models.NewUnauthorizedError("Sign in to manage posts")
	}
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("load post", err, "Post", id)
	}
	// Writes by a non-owner are refused outright, drafts included. Only reads hide drafts.
	if !post.OwnedBy(actor) {
		return nil, models.NewForbiddenError("Only the author can change this post")
	}
	return post, nil
}

func (s *PostService) enrichLiked(ctx context.Context, posts []*models.Post, actor *models.ActingUser) error {
	if actor == nil || len(posts) == 0 || s.likes == nil {
		return nil
	}
	ids := make([]uuid.UUID, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	liked, err := s.likes.LikedPostIDs(ctx, actor.ID, ids)
	if err != nil {
		return storeError("load liked posts", err, "Post", nil)
	}
	likedSet := make(map[uuid.UUID]bool, len(liked))
	for _, id := range liked {
		likedSet[id] = true
	}
	for _, p := range posts {
		p.Liked = likedSet[p.ID]
	}
	return nil
}
