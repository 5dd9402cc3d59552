package notifications

import (
	"context"
	"testing"
	"time"

	"lsablog/internal/featureflags"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestNotifier_NilRedisIsNoop(t *testing.T) {
	n := NewNotifier(nil, featureflags.NewManager("realtime_events=on"))
	assert.NoError(t, n.Publish(context.Background(), Event{Type: PostCreated}))
	assert.NoError(t, n.Subscribe(context.Background(), func(string, Event) {}))

	var nilNotifier *Notifier
	assert.NoError(t, nilNotifier.Publish(context.Background(), Event{Type: PostCreated}))
}

func TestEventChannel(t *testing.T) {
	t.Parallel()
	id := uuid.New()
	assert.Equal(t, BroadcastChannel, Event{Type: PostPublished, PostID: id}.channel())
	assert.Equal(t, "blog:post:"+id.String(), Event{Type: CommentAdded, PostID: id}.channel())
	assert.Equal(t, PostChannel(id), Event{Type: LikeChanged, PostID: id}.channel())
	assert.Equal(t, FormsChannel, Event{Type: FormSubmitted}.channel())
}

func TestNotifier_PublishAndSubscribe(t *testing.T) {
	rdb := setupRedis(t)
	n := NewNotifier(rdb, featureflags.NewManager("realtime_events=on"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type received struct {
		channel string
		event   Event
	}
	got := make(chan received, 4)
	require.NoError(t, n.Subscribe(ctx, func(channel string, e Event) {
		got <- received{channel, e}
	}))

	postID := uuid.New()
	require.NoError(t, n.Publish(context.Background(), Event{Type: CommentAdded, PostID: postID, ActorID: "u1"}))

	select {
	case r := <-got:
		assert.Equal(t, PostChannel(postID), r.channel)
		assert.Equal(t, CommentAdded, r.event.Type)
		assert.Equal(t, postID, r.event.PostID)
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestNotifier_FlagOffSuppressesPublish(t *testing.T) {
	rdb := setupRedis(t)
	n := NewNotifier(rdb, featureflags.NewManager(""))

	sub := rdb.Subscribe(context.Background(), BroadcastChannel)
	defer func() { _ = sub.Close() }()
	_, err := sub.Receive(context.Background())
	require.NoError(t, err)

	require.NoError(t, n.Publish(context.Background(), Event{Type: PostCreated, ActorID: "u1"}))

	assert.Never(t, func() bool {
		select {
		case <-sub.Channel():
			return true
		default:
			return false
		}
	}, 100*time.Millisecond, 10*time.Millisecond)
}
