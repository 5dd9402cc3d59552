package middleware

import (
	"context"
	"errors"
	"log/slog"

	"lsablog/internal/identity"
	"lsablog/internal/models"

	"github.com/gofiber/fiber/v2"
)

const actorLocal = "actor"

// Authenticator resolves bearer tokens into acting users.
type Authenticator interface {
	FromAuthorizationHeader(header string) (*models.ActingUser, error)
}

// OptionalAuth attaches the acting user when the request carries a valid token.
// Missing or invalid tokens leave the request anonymous.
func OptionalAuth(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.FromAuthorizationHeader(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			if !errors.Is(err, identity.ErrNoToken) {
				Logger.DebugContext(c.UserContext(), "ignoring invalid token on public route", slog.String("error", err.Error()))
			}
			return c.Next()
		}
		setActor(c, user)
		return c.Next()
	}
}

// AuthRequired rejects requests without a valid token with 401.
func AuthRequired(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.FromAuthorizationHeader(c.Get(fiber.HeaderAuthorization))
		if errors.Is(err, identity.ErrNoToken) {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}
		setActor(c, user)
		return c.Next()
	}
}

func setActor(c *fiber.Ctx, user *models.ActingUser) {
	c.Locals(actorLocal, user)
	c.Locals("userID", user.ID)
	// Sync to UserContext for logging and downstream services
	c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, user.ID))
}

// Actor returns the acting user stored by the auth middleware, or nil for anonymous
// requests.
func Actor(c *fiber.Ctx) *models.ActingUser {
	user, _ := c.Locals(actorLocal).(*models.ActingUser)
	return user
}
