package server

import (
	"context"
	"log/slog"
	"time"

	"lsablog/internal/middleware"
	"lsablog/internal/notifications"
	"lsablog/internal/outbound"

	"github.com/gofiber/fiber/v2"
)

// Subscribe handles POST /api/newsletter
func (s *Server) Subscribe(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	if err := s.forwarder.Subscribe(c.UserContext(), req.Email); err != nil {
		return respondError(c, err)
	}
	s.publishForm(c.UserContext(), map[string]any{"form": "newsletter"})
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Newsletter subscription processed successfully",
	})
}

// Contact handles POST /api/contact
func (s *Server) Contact(c *fiber.Ctx) error {
	var req outbound.ContactMessage
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	if err := s.forwarder.Contact(c.UserContext(), req); err != nil {
		return respondError(c, err)
	}
	s.publishForm(c.UserContext(), map[string]any{"form": "contact", "interest": req.Interest})
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Thank you for reaching out! We'll get back to you soon.",
	})
}

// publishForm announces a delivered submission. Addresses stay out of the event.
func (s *Server) publishForm(ctx context.Context, data map[string]any) {
	e := notifications.Event{Type: notifications.FormSubmitted, Data: data, At: time.Now().UTC()}
	if err := s.notifier.Publish(ctx, e); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to publish form event", slog.String("error", err.Error()))
	}
}
