package server

import (
	"lsablog/internal/middleware"
	"lsablog/internal/models"
	"lsablog/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListComments handles GET /api/posts/:id/comments
func (s *Server) ListComments(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	seq, err := s.commentService.ListComments(c.UserContext(), postID, middleware.Actor(c))
	if err != nil {
		return respondError(c, err)
	}

	comments := []*models.Comment{}
	for comment, err := range seq {
		if err != nil {
			return respondError(c, err)
		}
		comments = append(comments, comment)
	}
	return c.JSON(comments)
}

// AddComment handles POST /api/posts/:id/comments
func (s *Server) AddComment(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req service.AddCommentInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.PostID = postID

	comment, err := s.commentService.AddComment(c.UserContext(), req, middleware.Actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}
