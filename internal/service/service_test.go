package service

import (
	"context"
	"errors"
	"iter"
	"sync"
	"testing"

	"lsablog/internal/models"
	"lsablog/internal/notifications"
	"lsablog/internal/repository"
	"lsablog/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn          func(context.Context, *models.Post) error
	getByIDFn         func(context.Context, uuid.UUID) (*models.Post, error)
	listFn            func(context.Context, repository.PostFilter) ([]*models.Post, error)
	updateFn          func(context.Context, *models.Post) error
	deleteFn          func(context.Context, uuid.UUID) error
	adjustLikeCountFn func(context.Context, uuid.UUID, int64) (int64, error)
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) List(ctx context.Context, filter repository.PostFilter) ([]*models.Post, error) {
	return s.listFn(ctx, filter)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	return s.updateFn(ctx, post)
}
func (s *postRepoStub) Delete(ctx context.Context, id uuid.UUID) error {
	return s.deleteFn(ctx, id)
}
func (s *postRepoStub) AdjustLikeCount(ctx context.Context, id uuid.UUID, delta int64) (int64, error) {
	return s.adjustLikeCountFn(ctx, id, delta)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn:          func(_ context.Context, _ *models.Post) error { return nil },
		getByIDFn:         func(_ context.Context, id uuid.UUID) (*models.Post, error) { return &models.Post{ID: id, Published: true}, nil },
		listFn:            func(_ context.Context, _ repository.PostFilter) ([]*models.Post, error) { return nil, nil },
		updateFn:          func(_ context.Context, _ *models.Post) error { return nil },
		deleteFn:          func(_ context.Context, _ uuid.UUID) error { return nil },
		adjustLikeCountFn: func(_ context.Context, _ uuid.UUID, _ int64) (int64, error) { return 0, nil },
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn       func(context.Context, *models.Comment) error
	streamByPostFn func(context.Context, uuid.UUID) iter.Seq2[*models.Comment, error]
}

func (s *commentRepoStub) Create(ctx context.Context, comment *models.Comment) error {
	return s.createFn(ctx, comment)
}
func (s *commentRepoStub) StreamByPost(ctx context.Context, postID uuid.UUID) iter.Seq2[*models.Comment, error] {
	return s.streamByPostFn(ctx, postID)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn: func(_ context.Context, _ *models.Comment) error { return nil },
		streamByPostFn: func(_ context.Context, _ uuid.UUID) iter.Seq2[*models.Comment, error] {
			return func(func(*models.Comment, error) bool) {}
		},
	}
}

// likeRepoStub is a stub for repository.LikeRepository.
type likeRepoStub struct {
	existsFn       func(context.Context, uuid.UUID, string) (bool, error)
	addFn          func(context.Context, *models.Like) (bool, int64, error)
	removeFn       func(context.Context, uuid.UUID, string) (bool, int64, error)
	likedPostIDsFn func(context.Context, string, []uuid.UUID) ([]uuid.UUID, error)
}

func (s *likeRepoStub) Exists(ctx context.Context, postID uuid.UUID, userID string) (bool, error) {
	return s.existsFn(ctx, postID, userID)
}
func (s *likeRepoStub) Add(ctx context.Context, like *models.Like) (bool, int64, error) {
	return s.addFn(ctx, like)
}
func (s *likeRepoStub) Remove(ctx context.Context, postID uuid.UUID, userID string) (bool, int64, error) {
	return s.removeFn(ctx, postID, userID)
}
func (s *likeRepoStub) LikedPostIDs(ctx context.Context, userID string, postIDs []uuid.UUID) ([]uuid.UUID, error) {
	return s.likedPostIDsFn(ctx, userID, postIDs)
}

func noopLikeRepo() *likeRepoStub {
	return &likeRepoStub{
		existsFn:       func(_ context.Context, _ uuid.UUID, _ string) (bool, error) { return false, nil },
		addFn:          func(_ context.Context, _ *models.Like) (bool, int64, error) { return true, 1, nil },
		removeFn:       func(_ context.Context, _ uuid.UUID, _ string) (bool, int64, error) { return true, 0, nil },
		likedPostIDsFn: func(_ context.Context, _ string, _ []uuid.UUID) ([]uuid.UUID, error) { return nil, nil },
	}
}

// eventRecorder captures published events.
type eventRecorder struct {
	mu     sync.Mutex
	events []notifications.Event
}

func (r *eventRecorder) Publish(_ context.Context, e notifications.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *eventRecorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

var errStoreDown = errors.New("connection refused")

// assertAppError asserts that err is an AppError with the given code.
func assertAppError(t *testing.T, err error, code string) *models.AppError {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
	return appErr
}

// assertValidationError asserts a VALIDATION_ERROR on field.
func assertValidationError(t *testing.T, err error, field string) {
	t.Helper()
	appErr := assertAppError(t, err, models.CodeValidation)
	assert.Equal(t, field, appErr.Field)
}

// blog wires all three services over one in-memory store.
type blog struct {
	store    *repository.MemoryStore
	clock    *testutil.Clock
	events   *eventRecorder
	posts    *PostService
	comments *CommentService
	likes    *LikeService
}

func newBlog(t *testing.T) *blog {
	t.Helper()
	b := &blog{
		store:  repository.NewMemoryStore(),
		clock:  testutil.NewClock(),
		events: &eventRecorder{},
	}
	opts := []Option{WithClock(b.clock.Now), WithEvents(b.events)}
	b.posts = NewPostService(b.store.Posts(), b.store.Likes(), opts...)
	b.comments = NewCommentService(b.store.Posts(), b.store.Comments(), opts...)
	b.likes = NewLikeService(b.store.Posts(), b.store.Likes(), opts...)
	return b
}

func validDraft() CreatePostInput {
	return CreatePostInput{
		Title:    "Planting mangroves in Lamu",
		Excerpt:  "A weekend with the youth volunteers.",
		Content:  "We met at dawn by the jetty and worked until the tide came back in.",
		Category: models.CategoryEnvironmentalStorytelling,
	}
}

func (b *blog) createPost(t *testing.T, actor *models.ActingUser, published bool) *models.Post {
	t.Helper()
	in := validDraft()
	in.Published = published
	post, err := b.posts.CreatePost(context.Background(), in, actor)
	require.NoError(t, err)
	return post
}
