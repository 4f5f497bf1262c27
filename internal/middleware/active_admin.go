package middleware

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/society-api/internal/models"
	"github.com/noah-isme/society-api/internal/utils"
)

// AdminResolver looks up an active admin account by email.
type AdminResolver interface {
	Resolve(ctx context.Context, email string) (models.AdminUser, error)
}

// ActiveAdmin rejects tokens whose account was removed and refreshes the
// identity Locals from the stored account, so role and faculty changes apply
// without reissuing tokens. notFound is the resolver's not-found error.
func ActiveAdmin(resolver AdminResolver, notFound error, logger zerolog.Logger) fiber.Handler {
	log := logger.With().Str("component", "active_admin").Logger()

	return func(c *fiber.Ctx) error {
		email, _ := c.Locals("user_email").(string)
		if email == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "token has no email claim")
		}

		user, err := resolver.Resolve(c.UserContext(), email)
		if err != nil {
			if errors.Is(err, notFound) {
				return utils.SendError(c, fiber.StatusUnauthorized, "admin account is not active")
			}
			log.Error().Err(err).Str("correlation_id", GetCorrelationID(c)).Msg("failed to resolve admin")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to verify admin")
		}

		c.Locals("user_id", user.ID)
		c.Locals("user_role", user.Role)
		c.Locals("user_name", user.Name)
		c.Locals("user_faculty", user.Faculty)

		return c.Next()
	}
}
