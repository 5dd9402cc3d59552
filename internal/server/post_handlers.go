package server

import (
	"lsablog/internal/middleware"
	"lsablog/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListPosts handles GET /api/posts?published_only=true|false
func (s *Server) ListPosts(c *fiber.Ctx) error {
	posts, err := s.postService.ListPosts(c.UserContext(), service.ListPostsInput{
		PublishedOnly: c.QueryBool("published_only", false),
		Actor:         middleware.Actor(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// ListDrafts handles GET /api/posts/drafts
func (s *Server) ListDrafts(c *fiber.Ctx) error {
	posts, err := s.postService.ListDrafts(c.UserContext(), middleware.Actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.GetPost(c.UserContext(), id, middleware.Actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// CreatePost handles POST /api/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req service.CreatePostInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	post, err := s.postService.CreatePost(c.UserContext(), req, middleware.Actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpdatePost handles PUT /api/posts/:id
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req service.UpdatePostInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	post, err := s.postService.UpdatePost(c.UserContext(), id, req, middleware.Actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postService.DeletePost(c.UserContext(), id, middleware.Actor(c)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// PublishPost handles POST /api/posts/:id/publish
func (s *Server) PublishPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.Publish(c.UserContext(), id, middleware.Actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// UnpublishPost handles POST /api/posts/:id/unpublish
func (s *Server) UnpublishPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.Unpublish(c.UserContext(), id, middleware.Actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}
