package handler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/society-api/internal/middleware"
	"github.com/noah-isme/society-api/internal/policy"
	"github.com/noah-isme/society-api/internal/service"
	"github.com/noah-isme/society-api/internal/utils"
	"github.com/noah-isme/society-api/internal/wizard"
	"github.com/noah-isme/society-api/internal/workflow"
)

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func parseUintParam(c *fiber.Ctx, key string) (uint, error) {
	value := strings.TrimSpace(c.Params(key))
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil || parsed == 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return uint(parsed), nil
}

func userIDFromContext(c *fiber.Ctx) uint {
	if v := c.Locals("user_id"); v != nil {
		if id, ok := v.(uint); ok {
			return id
		}
		if id, ok := v.(int); ok {
			if id < 0 {
				return 0
			}
			return uint(id)
		}
	}
	return 0
}

func localString(c *fiber.Ctx, key string) string {
	if v := c.Locals(key); v != nil {
		if value, ok := v.(string); ok {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

// actorFromContext builds the acting admin from the claims placed in Locals by
// the JWT middleware.
func actorFromContext(c *fiber.Ctx) policy.Actor {
	return policy.Actor{
		ID:      userIDFromContext(c),
		Name:    localString(c, "user_name"),
		Role:    localString(c, "user_role"),
		Faculty: localString(c, "user_faculty"),
	}
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}

// validationDetails flattens validator errors into field -> message, keyed by
// the struct path without the root type.
func validationDetails(err error) map[string]string {
	details := map[string]string{}
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, fe := range validationErrors {
			field := fe.Namespace()
			if idx := strings.Index(field, "."); idx >= 0 {
				field = field[idx+1:]
			}
			details[field] = fmt.Sprintf("failed on the '%s' rule", fe.Tag())
		}
		return details
	}

	var fieldErr *workflow.ValidationError
	if errors.As(err, &fieldErr) && fieldErr.Field != "" {
		details[fieldErr.Field] = fieldErr.Message
	}
	return details
}

// writeServiceError maps service errors to the JSON envelope. Unknown errors
// are logged and reported as 500 with the fallback message.
func writeServiceError(c *fiber.Ctx, logger zerolog.Logger, err error, fallback string) error {
	var (
		fieldErr *workflow.ValidationError
		stateErr *workflow.InvalidStateError
		authErr  *policy.AuthorizationError
	)

	switch {
	case isValidationError(err):
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", validationDetails(err))
	case errors.As(err, &fieldErr):
		return utils.Fail(c, fiber.StatusBadRequest, fieldErr.Error(), validationDetails(err))
	case errors.As(err, &authErr):
		return utils.SendError(c, fiber.StatusForbidden, authErr.Error())
	case errors.As(err, &stateErr):
		return utils.SendError(c, fiber.StatusConflict, stateErr.Error())
	case errors.Is(err, service.ErrNoQueue):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrApplicationNotFound),
		errors.Is(err, service.ErrSocietyNotFound),
		errors.Is(err, service.ErrAdminNotFound),
		errors.Is(err, wizard.ErrDraftNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrAdminEmailTaken),
		errors.Is(err, wizard.ErrAlreadySubmitted),
		errors.Is(err, wizard.ErrDraftLocked),
		errors.Is(err, wizard.ErrNotOnReview):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, wizard.ErrUnknownKind):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	requestLogger(logger, c).Error().Err(err).Msg(fallback)
	return utils.SendError(c, fiber.StatusInternalServerError, fallback)
}
