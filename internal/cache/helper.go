package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"lsablog/internal/middleware"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// PublishedPostsKey holds the public listing.
const PublishedPostsKey = "posts:published"

// generationKey counts invalidations. Results fetched under an older generation are
// never written back.
const generationKey = "posts:generation"

var errStaleGeneration = errors.New("cache generation moved")

// PostKey holds a single published post.
func PostKey(id uuid.UUID) string {
	return "posts:" + id.String()
}

// Cache is a JSON cache-aside helper. A nil *Cache or a Cache without a client is a
// pass-through.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New returns a cache storing entries for ttl.
func New(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Enabled reports whether reads can be served from Redis.
func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

// GetJSON attempts to get the key from Redis and unmarshal into dest.
// Returns (true, nil) if found and unmarshaled, (false, nil) if not found.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}
	b, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals v and sets the key with the cache TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, v any) error {
	if !c.Enabled() {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, b, c.ttl).Err()
}

// Generation returns the current invalidation counter. ok is false when Redis cannot
// be read; callers must then skip the write-back.
func (c *Cache) Generation(ctx context.Context) (gen int64, ok bool) {
	if !c.Enabled() {
		return 0, false
	}
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, true
	}
	if err != nil {
		middleware.Logger.WarnContext(ctx, "cache generation read failed", slog.String("error", err.Error()))
		return 0, false
	}
	return gen, true
}

// SetJSONAt stores v only while the generation still equals gen. An Invalidate that
// lands between the caller's read and this write leaves the key untouched.
func (c *Cache) SetJSONAt(ctx context.Context, key string, v any, gen int64) error {
	if !c.Enabled() {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, generationKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != gen {
			return errStaleGeneration
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, b, c.ttl)
			return nil
		})
		return err
	}, generationKey)
	if errors.Is(err, errStaleGeneration) || errors.Is(err, redis.TxFailedErr) {
		middleware.Logger.DebugContext(ctx, "skipped stale cache write", slog.String("key", key))
		return nil
	}
	return err
}

// Aside tries Redis first; on a miss or a Redis failure it calls fetch, which must
// populate dest, and stores the result best-effort unless an invalidation ran meanwhile.
func (c *Cache) Aside(ctx context.Context, key string, dest any, fetch func() error) error {
	found, err := c.GetJSON(ctx, key, dest)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	if found {
		return nil
	}

	gen, ok := c.Generation(ctx)
	if err := fetch(); err != nil {
		return err
	}
	if !ok {
		return nil
	}

	if err := c.SetJSONAt(ctx, key, dest, gen); err != nil {
		middleware.Logger.WarnContext(ctx, "cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return nil
}

// Invalidate bumps the generation and deletes keys in one transaction, logging rather
// than failing on Redis errors.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if !c.Enabled() || len(keys) == 0 {
		return
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey)
		pipe.Del(ctx, keys...)
		return nil
	})
	if err != nil {
		middleware.Logger.WarnContext(ctx, "cache invalidation failed", slog.Any("keys", keys), slog.String("error", err.Error()))
	}
}
