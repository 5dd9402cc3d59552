// Package notifications publishes blog activity events into Redis channels.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"lsablog/internal/featureflags"
	"lsablog/internal/middleware"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Event types.
const (
	PostCreated     = "post.created"
	PostUpdated     = "post.updated"
	PostDeleted     = "post.deleted"
	PostPublished   = "post.published"
	PostUnpublished = "post.unpublished"
	CommentAdded    = "comment.added"
	LikeChanged     = "like.changed"
	FormSubmitted   = "form.submitted"
)

const (
	// BroadcastChannel carries post lifecycle events.
	BroadcastChannel = "blog:broadcast"
	// FormsChannel carries newsletter and contact submissions for the editors.
	FormsChannel     = "blog:forms"
	channelPattern   = "blog:*"
)

// PostChannel carries comment and like activity for one post.
func PostChannel(postID uuid.UUID) string {
	return "blog:post:" + postID.String()
}

// Event is the JSON payload published for every activity.
type Event struct {
	Type    string    `json:"type"`
	PostID  uuid.UUID `json:"post_id"`
	ActorID string    `json:"actor_id,omitempty"`
	Data    any       `json:"data,omitempty"`
	At      time.Time `json:"at"`
}

func (e Event) channel() string {
	switch e.Type {
	case CommentAdded, LikeChanged:
		return PostChannel(e.PostID)
	case FormSubmitted:
		return FormsChannel
	default:
		return BroadcastChannel
	}
}

// Notifier provides helpers to publish events into Redis channels
type Notifier struct {
	rdb   *redis.Client
	flags *featureflags.Manager
}

// NewNotifier creates a new Notifier. Publishing is a no-op without a Redis client or
// when the realtime_events flag is off for the acting user.
func NewNotifier(rdb *redis.Client, flags *featureflags.Manager) *Notifier {
	return &Notifier{rdb: rdb, flags: flags}
}

// Publish sends the event to its channel.
func (n *Notifier) Publish(ctx context.Context, e Event) error {
	if n == nil || n.rdb == nil || !n.flags.Enabled(featureflags.RealtimeEvents, e.ActorID) {
		return nil
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return n.rdb.Publish(ctx, e.channel(), payload).Err()
}

// Subscribe listens on every blog channel and calls onEvent for each decoded message
// until ctx is cancelled.
func (n *Notifier) Subscribe(ctx context.Context, onEvent func(channel string, e Event)) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, channelPattern)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", channelPattern, err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var e Event
				if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
					middleware.Logger.Warn("dropping malformed event", slog.String("channel", msg.Channel), slog.String("error", err.Error()))
					continue
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in event subscriber",
								slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
						}
					}()
					onEvent(msg.Channel, e)
				}()
			}
		}
	}()

	return nil
}
