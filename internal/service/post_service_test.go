package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"lsablog/internal/cache"
	"lsablog/internal/models"
	"lsablog/internal/notifications"
	"lsablog/internal/repository"
	"lsablog/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestPostService_CreatePost_Validation(t *testing.T) {
	t.Parallel()

	repo := noopPostRepo()
	repo.createFn = func(_ context.Context, _ *models.Post) error {
		t.Error("invalid post must not be persisted")
		return nil
	}
	svc := NewPostService(repo, noopLikeRepo())
	ctx := context.Background()

	tests := []struct {
		name  string
		edit  func(*CreatePostInput)
		field string
	}{
		{"empty title", func(in *CreatePostInput) { in.Title = "   " }, "title"},
		{"title too long", func(in *CreatePostInput) { in.Title = strings.Repeat("x", 301) }, "title"},
		{"empty excerpt", func(in *CreatePostInput) { in.Excerpt = "" }, "excerpt"},
		{"excerpt too long", func(in *CreatePostInput) { in.Excerpt = strings.Repeat("x", 1001) }, "excerpt"},
		{"empty content", func(in *CreatePostInput) { in.Content = "\n\t" }, "content"},
		{"content too long", func(in *CreatePostInput) { in.Content = strings.Repeat("x", 100001) }, "content"},
		{"missing category", func(in *CreatePostInput) { in.Category = "" }, "category"},
		{"unknown category", func(in *CreatePostInput) { in.Category = "Gardening" }, "category"},
		{"relative cover image", func(in *CreatePostInput) { in.CoverImage = "/uploads/cover.png" }, "cover_image"},
		{"ftp cover image", func(in *CreatePostInput) { in.CoverImage = "ftp://example.org/cover.png" }, "cover_image"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			in := validDraft()
			tt.edit(&in)
			_, err := svc.CreatePost(ctx, in, testutil.Alice)
			assertValidationError(t, err, tt.field)
		})
	}
}

func TestPostService_CreatePost_AuthorNameRequired(t *testing.T) {
	t.Parallel()

	svc := NewPostService(noopPostRepo(), noopLikeRepo())
	_, err := svc.CreatePost(context.Background(), validDraft(), &models.ActingUser{ID: "u-1"})
	assertValidationError(t, err, "author.name")
}

func TestPostService_CreatePost_RequiresActor(t *testing.T) {
	t.Parallel()

	svc := NewPostService(noopPostRepo(), noopLikeRepo())
	_, err := svc.CreatePost(context.Background(), validDraft(), nil)
	assertAppError(t, err, models.CodeUnauthorized)
	assert.True(t, models.IsAuthError(err))
}

func TestPostService_CreatePost_Defaults(t *testing.T) {
	b := newBlog(t)
	in := validDraft()
	in.CoverImage = "data:image/png;base64,iVBORw0KGgo="

	post, err := b.posts.CreatePost(context.Background(), in, testutil.Alice)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, post.ID)
	assert.Equal(t, testutil.Alice.ID, post.AuthorID)
	assert.Equal(t, testutil.Alice.DisplayName, post.Author.Name)
	assert.Equal(t, testutil.Alice.AvatarURL, post.Author.Image)
	assert.Equal(t, "1 min read", post.ReadTime)
	assert.False(t, post.Published)
	assert.Zero(t, post.LikeCount)
	assert.Equal(t, testutil.Epoch, post.CreatedAt)
	assert.Equal(t, []string{notifications.PostCreated}, b.events.types())

	stored, err := b.store.Posts().GetByID(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.Title, stored.Title)
}

func TestPostService_CreatePost_KeepsSuppliedByline(t *testing.T) {
	b := newBlog(t)
	in := validDraft()
	in.Author = models.Author{Name: "Guest Writer", Social: "@guest"}

	post, err := b.posts.CreatePost(context.Background(), in, testutil.Alice)
	require.NoError(t, err)
	assert.Equal(t, "Guest Writer", post.Author.Name)
	assert.Equal(t, "@guest", post.Author.Social)
	assert.Equal(t, testutil.Alice.AvatarURL, post.Author.Image)
	assert.Equal(t, testutil.Alice.ID, post.AuthorID)
}

func TestPostService_CreatePost_StoreFailure(t *testing.T) {
	t.Parallel()

	repo := noopPostRepo()
	repo.createFn = func(_ context.Context, _ *models.Post) error { return errStoreDown }
	svc := NewPostService(repo, noopLikeRepo())

	_, err := svc.CreatePost(context.Background(), validDraft(), testutil.Alice)
	assertAppError(t, err, models.CodeTransport)
	assert.ErrorIs(t, err, errStoreDown)
}

func TestPostService_UpdatePost_Ownership(t *testing.T) {
	b := newBlog(t)
	ctx := context.Background()
	published := b.createPost(t, testutil.Alice, true)
	draft := b.createPost(t, testutil.Alice, false)
	patch := UpdatePostInput{Title: strPtr("Hijacked")}

	_, err := b.posts.UpdatePost(ctx, published.ID, patch, nil)
	assertAppError(t, err, models.CodeUnauthorized)

	_, err = b.posts.UpdatePost(ctx, published.ID, patch, testutil.Bob)
	assertAppError(t, err, models.CodeForbidden)

	_, err = b.posts.UpdatePost(ctx, draft.ID, patch, testutil.Bob)
	assertAppError(t, err, models.CodeForbidden)
	assertAppError(t, b.posts.DeletePost(ctx, draft.ID, testutil.Bob), models.CodeForbidden)

	_, err = b.posts.UpdatePost(ctx, uuid.New(), patch, testutil.Alice)
	assertAppError(t, err, models.CodeNotFound)

	stored, err := b.store.Posts().GetByID(ctx, published.ID)
	require.NoError(t, err)
	assert.Equal(t, published.Title, stored.Title)
}

func TestPostService_UpdatePost_RecomputesReadTime(t *testing.T) {
	b := newBlog(t)
	post := b.createPost(t, testutil.Alice, true)

	long := strings.Repeat("word ", 450)
	updated, err := b.posts.UpdatePost(context.Background(), post.ID, UpdatePostInput{Content: &long}, testutil.Alice)
	require.NoError(t, err)

	assert.Equal(t, "3 min read", updated.ReadTime)
	assert.Equal(t, post.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(post.UpdatedAt))
	assert.Equal(t, []string{notifications.PostCreated, notifications.PostUpdated}, b.events.types())
}

func TestPostService_UpdatePost_IgnoresClientLikeCount(t *testing.T) {
	b := newBlog(t)
	ctx := context.Background()
	post := b.createPost(t, testutil.Alice, true)

	_, err := b.likes.Like(ctx, post.ID, testutil.Bob)
	require.NoError(t, err)

	var patch UpdatePostInput
	require.NoError(t, json.Unmarshal([]byte(`{"title":"Retitled","likes_count":999,"likeCount":999}`), &patch))

	_, err = b.posts.UpdatePost(ctx, post.ID, patch, testutil.Alice)
	require.NoError(t, err)

	stored, err := b.store.Posts().GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Retitled", stored.Title)
	assert.Equal(t, int64(1), stored.LikeCount)
}

func TestPostService_UpdatePost_EmptiedFieldFails(t *testing.T) {
	b := newBlog(t)
	post := b.createPost(t, testutil.Alice, false)

	_, err := b.posts.UpdatePost(context.Background(), post.ID, UpdatePostInput{Excerpt: strPtr("  ")}, testutil.Alice)
	assertValidationError(t, err, "excerpt")
}

func TestPostService_DeletePost_Cascades(t *testing.T) {
	b := newBlog(t)
	ctx := context.Background()
	post := b.createPost(t, testutil.Alice, true)

	_, err := b.comments.AddComment(ctx, AddCommentInput{PostID: post.ID, Content: "Lovely work"}, testutil.Bob)
	require.NoError(t, err)
	_, err = b.likes.Like(ctx, post.ID, testutil.Bob)
	require.NoError(t, err)

	assertAppError(t, b.posts.DeletePost(ctx, post.ID, testutil.Bob), models.CodeForbidden)
	require.NoError(t, b.posts.DeletePost(ctx, post.ID, testutil.Alice))

	_, err = b.posts.GetPost(ctx, post.ID, testutil.Alice)
	assertAppError(t, err, models.CodeNotFound)
	_, err = b.comments.ListComments(ctx, post.ID, nil)
	assertAppError(t, err, models.CodeNotFound)

	liked, err := b.store.Likes().Exists(ctx, post.ID, testutil.Bob.ID)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Contains(t, b.events.types(), notifications.PostDeleted)
}

func TestPostService_ListPosts_Visibility(t *testing.T) {
	b := newBlog(t)
	ctx := context.Background()
	public := b.createPost(t, testutil.Alice, true)
	aliceDraft := b.createPost(t, testutil.Alice, false)
	b.createPost(t, testutil.Bob, false)

	ids := func(posts []*models.Post) []uuid.UUID {
		out := make([]uuid.UUID, len(posts))
		for i, p := range posts {
			out[i] = p.ID
		}
		return out
	}

	anon, err := b.posts.ListPosts(ctx, ListPostsInput{})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{public.ID}, ids(anon))

	mine, err := b.posts.ListPosts(ctx, ListPostsInput{Actor: testutil.Alice})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{aliceDraft.ID, public.ID}, ids(mine))

	publishedOnly, err := b.posts.ListPosts(ctx, ListPostsInput{PublishedOnly: true, Actor: testutil.Alice})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{public.ID}, ids(publishedOnly))

	drafts, err := b.posts.ListDrafts(ctx, testutil.Alice)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{aliceDraft.ID}, ids(drafts))

	_, err = b.posts.ListDrafts(ctx, nil)
	assertAppError(t, err, models.CodeUnauthorized)
}

func TestPostService_ListPosts_MarksLiked(t *testing.T) {
	b := newBlog(t)
	ctx := context.Background()
	liked := b.createPost(t, testutil.Alice, true)
	other := b.createPost(t, testutil.Alice, true)

	_, err := b.likes.Like(ctx, liked.ID, testutil.Bob)
	require.NoError(t, err)

	posts, err := b.posts.ListPosts(ctx, ListPostsInput{Actor: testutil.Bob})
	require.NoError(t, err)
	require.Len(t, posts, 2)
	byID := map[uuid.UUID]*models.Post{posts[0].ID: posts[0], posts[1].ID: posts[1]}
	assert.True(t, byID[liked.ID].Liked)
	assert.Equal(t, int64(1), byID[liked.ID].LikeCount)
	assert.False(t, byID[other.ID].Liked)
}

func TestPostService_ListPosts_StoreFailure(t *testing.T) {
	t.Parallel()

	repo := noopPostRepo()
	repo.listFn = func(_ context.Context, _ repository.PostFilter) ([]*models.Post, error) { return nil, errStoreDown }
	svc := NewPostService(repo, noopLikeRepo())

	_, err := svc.ListPosts(context.Background(), ListPostsInput{PublishedOnly: true})
	assertAppError(t, err, models.CodeTransport)
}

func TestPostService_ListPosts_LikeLookupFailure(t *testing.T) {
	t.Parallel()

	repo := noopPostRepo()
	repo.listFn = func(_ context.Context, _ repository.PostFilter) ([]*models.Post, error) {
		return []*models.Post{{ID: uuid.New(), Published: true}}, nil
	}
	likes := noopLikeRepo()
	likes.likedPostIDsFn = func(_ context.Context, _ string, _ []uuid.UUID) ([]uuid.UUID, error) { return nil, errStoreDown }
	svc := NewPostService(repo, likes)

	_, err := svc.ListPosts(context.Background(), ListPostsInput{Actor: testutil.Bob})
	assertAppError(t, err, models.CodeTransport)
}

func TestPostService_GetPost_HidesForeignDrafts(t *testing.T) {
	b := newBlog(t)
	ctx := context.Background()
	draft := b.createPost(t, testutil.Alice, false)

	_, err := b.posts.GetPost(ctx, draft.ID, nil)
	assertAppError(t, err, models.CodeNotFound)
	_, err = b.posts.GetPost(ctx, draft.ID, testutil.Bob)
	assertAppError(t, err, models.CodeNotFound)

	got, err := b.posts.GetPost(ctx, draft.ID, testutil.Alice)
	require.NoError(t, err)
	assert.Equal(t, draft.ID, got.ID)
}

func TestPostService_PublishUnpublish(t *testing.T) {
	b := newBlog(t)
	ctx := context.Background()
	post := b.createPost(t, testutil.Alice, false)

	_, err := b.posts.Publish(ctx, post.ID, testutil.Bob)
	assertAppError(t, err, models.CodeForbidden)

	published, err := b.posts.Publish(ctx, post.ID, testutil.Alice)
	require.NoError(t, err)
	assert.True(t, published.Published)

	_, err = b.posts.Publish(ctx, post.ID, testutil.Alice)
	require.NoError(t, err)

	_, err = b.posts.Unpublish(ctx, post.ID, testutil.Bob)
	assertAppError(t, err, models.CodeForbidden)

	unpublished, err := b.posts.Unpublish(ctx, post.ID, testutil.Alice)
	require.NoError(t, err)
	assert.False(t, unpublished.Published)

	_, err = b.posts.GetPost(ctx, post.ID, testutil.Bob)
	assertAppError(t, err, models.CodeNotFound)

	assert.Equal(t, []string{
		notifications.PostCreated,
		notifications.PostPublished,
		notifications.PostUnpublished,
	}, b.events.types())
}

func TestPostService_PublishedListingIsCached(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := repository.NewMemoryStore()
	calls := 0
	repo := noopPostRepo()
	repo.createFn = store.Posts().Create
	repo.getByIDFn = store.Posts().GetByID
	repo.listFn = func(ctx context.Context, f repository.PostFilter) ([]*models.Post, error) {
		calls++
		return store.Posts().List(ctx, f)
	}
	svc := NewPostService(repo, store.Likes(), WithCache(cache.New(rdb, 0)), WithClock(testutil.NewClock().Now))
	ctx := context.Background()

	first, err := svc.ListPosts(ctx, ListPostsInput{PublishedOnly: true})
	require.NoError(t, err)
	assert.Empty(t, first)
	assert.True(t, mr.Exists(cache.PublishedPostsKey))

	_, err = svc.ListPosts(ctx, ListPostsInput{PublishedOnly: true})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	in := validDraft()
	in.Published = true
	post, err := svc.CreatePost(ctx, in, testutil.Alice)
	require.NoError(t, err)
	assert.False(t, mr.Exists(cache.PublishedPostsKey))

	after, err := svc.ListPosts(ctx, ListPostsInput{PublishedOnly: true})
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, post.ID, after[0].ID)
	assert.Equal(t, 2, calls)
}

func TestPostService_UnpublishDuringPublicReadIsNotCached(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := repository.NewMemoryStore()
	repo := noopPostRepo()
	repo.createFn = store.Posts().Create
	repo.getByIDFn = store.Posts().GetByID
	repo.updateFn = store.Posts().Update
	repo.listFn = store.Posts().List
	svc := NewPostService(repo, store.Likes(), WithCache(cache.New(rdb, 0)), WithClock(testutil.NewClock().Now))
	ctx := context.Background()

	in := validDraft()
	in.Published = true
	post, err := svc.CreatePost(ctx, in, testutil.Alice)
	require.NoError(t, err)

	t.Run("listing", func(t *testing.T) {
		var once sync.Once
		repo.listFn = func(ctx context.Context, f repository.PostFilter) ([]*models.Post, error) {
			posts, err := store.Posts().List(ctx, f)
			once.Do(func() {
				_, uerr := svc.Unpublish(ctx, post.ID, testutil.Alice)
				require.NoError(t, uerr)
			})
			return posts, err
		}

		raced, err := svc.ListPosts(ctx, ListPostsInput{PublishedOnly: true})
		require.NoError(t, err)
		assert.Len(t, raced, 1)
		assert.False(t, mr.Exists(cache.PublishedPostsKey))

		later, err := svc.ListPosts(ctx, ListPostsInput{PublishedOnly: true})
		require.NoError(t, err)
		assert.Empty(t, later)
	})

	t.Run("single post", func(t *testing.T) {
		repo.listFn = store.Posts().List
		_, err := svc.Publish(ctx, post.ID, testutil.Alice)
		require.NoError(t, err)

		armed := true
		repo.getByIDFn = func(ctx context.Context, id uuid.UUID) (*models.Post, error) {
			p, err := store.Posts().GetByID(ctx, id)
			if armed {
				armed = false
				_, uerr := svc.Unpublish(ctx, post.ID, testutil.Alice)
				require.NoError(t, uerr)
			}
			return p, err
		}

		raced, err := svc.GetPost(ctx, post.ID, nil)
		require.NoError(t, err)
		assert.True(t, raced.Published)
		assert.False(t, mr.Exists(cache.PostKey(post.ID)))

		_, err = svc.GetPost(ctx, post.ID, nil)
		assertAppError(t, err, models.CodeNotFound)
	})
}
