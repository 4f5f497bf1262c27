package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/society-api/internal/dto"
	"github.com/noah-isme/society-api/internal/service"
	"github.com/noah-isme/society-api/internal/utils"
)

// AdminUserHandler lets the assistant registrar manage admin accounts.
type AdminUserHandler struct {
	service service.AdminUserService
	logger  zerolog.Logger
}

// NewAdminUserHandler constructs the handler.
func NewAdminUserHandler(service service.AdminUserService, logger zerolog.Logger) *AdminUserHandler {
	return &AdminUserHandler{
		service: service,
		logger:  logger.With().Str("component", "admin_user_handler").Logger(),
	}
}

// Register attaches manage-admin routes to the router group.
func (h *AdminUserHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("/add", h.add)
	router.Post("/remove", h.remove)
}

func (h *AdminUserHandler) list(c *fiber.Ctx) error {
	users, err := h.service.List(c.UserContext(), actorFromContext(c))
	if err != nil {
		return writeServiceError(c, h.logger, err, "failed to list admins")
	}
	return utils.OK(c, users, "admins", fiber.Map{"total": len(users)})
}

func (h *AdminUserHandler) add(c *fiber.Ctx) error {
	var payload dto.AdminUserCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	user, err := h.service.Add(c.UserContext(), actorFromContext(c), payload)
	if err != nil {
		return writeServiceError(c, h.logger, err, "failed to add admin")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "admin added", user)
}

func (h *AdminUserHandler) remove(c *fiber.Ctx) error {
	var payload dto.AdminUserRemoveRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	user, err := h.service.Remove(c.UserContext(), actorFromContext(c), payload)
	if err != nil {
		return writeServiceError(c, h.logger, err, "failed to remove admin")
	}
	return utils.SendSuccess(c, "admin removed", user)
}
