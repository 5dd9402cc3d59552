// Package service implements the blog's business rules on top of the repositories.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"lsablog/internal/cache"
	"lsablog/internal/middleware"
	"lsablog/internal/models"
	"lsablog/internal/notifications"
	"lsablog/internal/repository"

	"github.com/google/uuid"
)

// EventPublisher receives activity events after successful mutations.
type EventPublisher interface {
	Publish(ctx context.Context, e notifications.Event) error
}

type options struct {
	now    func() time.Time
	cache  *cache.Cache
	events EventPublisher
}

// Option configures a service.
type Option func(*options)

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithCache enables cache-aside reads of published posts.
func WithCache(c *cache.Cache) Option {
	return func(o *options) { o.cache = c }
}

// WithEvents publishes activity events.
func WithEvents(p EventPublisher) Option {
	return func(o *options) { o.events = p }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) publish(ctx context.Context, e notifications.Event) {
	if o.events == nil {
		return
	}
	if e.At.IsZero() {
		e.At = o.now()
	}
	if err := o.events.Publish(ctx, e); err != nil {
		middleware.Logger.WarnContext(ctx, "event publish failed",
			slog.String("type", e.Type), slog.String("post_id", e.PostID.String()), slog.String("error", err.Error()))
	}
}

// invalidatePost drops every cached view that may contain the post.
func (o options) invalidatePost(ctx context.Context, id uuid.UUID) {
	o.cache.Invalidate(ctx, cache.PublishedPostsKey, cache.PostKey(id))
}

// storeError classifies a repository failure. Missing rows become NOT_FOUND, anything
// else is a transport failure.
func storeError(op string, err error, resource string, id any) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, repository.ErrNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewTransportError(op, err)
}

// loadVisiblePost fetches a post and hides drafts from everyone but their author.
func loadVisiblePost(ctx context.Context, posts repository.PostRepository, id uuid.UUID, actor *models.ActingUser) (*models.Post, error) {
	post, err := posts.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("load post", err, "Post", id)
	}
	if !post.VisibleTo(actor) {
		return nil, models.NewNotFoundError("Post", id)
	}
	return post, nil
}
