package server

import (
	"lsablog/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// LikeStatus handles GET /api/posts/:id/like
func (s *Server) LikeStatus(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	result, err := s.likeService.Status(c.UserContext(), postID, middleware.Actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// Like handles POST /api/posts/:id/like. Signed-in callers toggle their like;
// anonymous callers increment the counter.
func (s *Server) Like(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	result, err := s.likeService.Like(c.UserContext(), postID, middleware.Actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}
