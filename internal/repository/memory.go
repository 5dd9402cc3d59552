package repository

import (
	"context"
	"iter"
	"slices"
	"sync"

	"lsablog/internal/models"

	"github.com/google/uuid"
)

type likeKey struct {
	postID uuid.UUID
	userID string
}

// MemoryStore keeps posts, comments and likes in process memory. All three
// repositories it hands out share one lock, so a cascade delete or a like toggle is
// observed atomically.
type MemoryStore struct {
	mu       sync.RWMutex
	posts    map[uuid.UUID]*models.Post
	comments map[uuid.UUID][]*models.Comment
	likes    map[likeKey]*models.Like
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		posts:    make(map[uuid.UUID]*models.Post),
		comments: make(map[uuid.UUID][]*models.Comment),
		likes:    make(map[likeKey]*models.Like),
	}
}

func (s *MemoryStore) Posts() PostRepository       { return memoryPosts{s} }
func (s *MemoryStore) Comments() CommentRepository { return memoryComments{s} }
func (s *MemoryStore) Likes() LikeRepository       { return memoryLikes{s} }

type memoryPosts struct{ s *MemoryStore }

func (m memoryPosts) Create(ctx context.Context, post *models.Post) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	cp := *post
	cp.Liked = false
	m.s.posts[post.ID] = &cp
	return nil
}

func (m memoryPosts) GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	p, ok := m.s.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m memoryPosts) List(ctx context.Context, filter PostFilter) ([]*models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	out := []*models.Post{}
	for _, p := range m.s.posts {
		include := (filter.Published && p.Published) ||
			(filter.DraftsOf != "" && !p.Published && p.AuthorID == filter.DraftsOf)
		if include {
			cp := *p
			out = append(out, &cp)
		}
	}
	slices.SortFunc(out, func(a, b *models.Post) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return slices.Compare(a.ID[:], b.ID[:])
	})
	return out, nil
}

func (m memoryPosts) Update(ctx context.Context, post *models.Post) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	cur, ok := m.s.posts[post.ID]
	if !ok {
		return ErrNotFound
	}
	cp := *post
	cp.LikeCount = cur.LikeCount
	cp.CreatedAt = cur.CreatedAt
	cp.AuthorID = cur.AuthorID
	cp.Liked = false
	m.s.posts[post.ID] = &cp
	return nil
}

func (m memoryPosts) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.posts[id]; !ok {
		return ErrNotFound
	}
	delete(m.s.comments, id)
	for k := range m.s.likes {
		if k.postID == id {
			delete(m.s.likes, k)
		}
	}
	delete(m.s.posts, id)
	return nil
}

func (m memoryPosts) AdjustLikeCount(ctx context.Context, id uuid.UUID, delta int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return m.s.adjustLocked(id, delta)
}

func (s *MemoryStore) adjustLocked(id uuid.UUID, delta int64) (int64, error) {
	p, ok := s.posts[id]
	if !ok {
		return 0, ErrNotFound
	}
	p.LikeCount = max(0, p.LikeCount+delta)
	return p.LikeCount, nil
}

type memoryComments struct{ s *MemoryStore }

func (m memoryComments) Create(ctx context.Context, comment *models.Comment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.posts[comment.PostID]; !ok {
		return ErrNotFound
	}
	cp := *comment
	m.s.comments[comment.PostID] = append(m.s.comments[comment.PostID], &cp)
	return nil
}

func (m memoryComments) StreamByPost(ctx context.Context, postID uuid.UUID) iter.Seq2[*models.Comment, error] {
	return func(yield func(*models.Comment, error) bool) {
		if err := ctx.Err(); err != nil {
			yield(nil, err)
			return
		}
		m.s.mu.RLock()
		snapshot := slices.Clone(m.s.comments[postID])
		m.s.mu.RUnlock()

		// Stable sort keeps insertion order for equal timestamps.
		slices.SortStableFunc(snapshot, func(a, b *models.Comment) int {
			return a.CreatedAt.Compare(b.CreatedAt)
		})
		for _, c := range snapshot {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			cp := *c
			if !yield(&cp, nil) {
				return
			}
		}
	}
}

type memoryLikes struct{ s *MemoryStore }

func (m memoryLikes) Exists(ctx context.Context, postID uuid.UUID, userID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	_, ok := m.s.likes[likeKey{postID, userID}]
	return ok, nil
}

func (m memoryLikes) Add(ctx context.Context, like *models.Like) (bool, int64, error) {
	if err := ctx.Err(); err != nil {
		return false, 0, err
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.posts[like.PostID]; !ok {
		return false, 0, ErrNotFound
	}
	key := likeKey{like.PostID, like.UserID}
	if _, ok := m.s.likes[key]; ok {
		count, err := m.s.adjustLocked(like.PostID, 0)
		return false, count, err
	}
	cp := *like
	m.s.likes[key] = &cp
	count, err := m.s.adjustLocked(like.PostID, 1)
	return true, count, err
}

func (m memoryLikes) Remove(ctx context.Context, postID uuid.UUID, userID string) (bool, int64, error) {
	if err := ctx.Err(); err != nil {
		return false, 0, err
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.posts[postID]; !ok {
		return false, 0, ErrNotFound
	}
	key := likeKey{postID, userID}
	if _, ok := m.s.likes[key]; !ok {
		count, err := m.s.adjustLocked(postID, 0)
		return false, count, err
	}
	delete(m.s.likes, key)
	count, err := m.s.adjustLocked(postID, -1)
	return true, count, err
}

func (m memoryLikes) LikedPostIDs(ctx context.Context, userID string, postIDs []uuid.UUID) ([]uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	var liked []uuid.UUID
	for _, id := range postIDs {
		if _, ok := m.s.likes[likeKey{id, userID}]; ok {
			liked = append(liked, id)
		}
	}
	return liked, nil
}
