package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/society-api/internal/dto"
	"github.com/noah-isme/society-api/internal/service"
	"github.com/noah-isme/society-api/internal/utils"
)

// SocietyHandler serves the public society directory.
type SocietyHandler struct {
	service service.SocietyService
	logger  zerolog.Logger
}

// NewSocietyHandler constructs the handler.
func NewSocietyHandler(service service.SocietyService, logger zerolog.Logger) *SocietyHandler {
	return &SocietyHandler{
		service: service,
		logger:  logger.With().Str("component", "society_handler").Logger(),
	}
}

// Register attaches the public directory routes to the societies group.
func (h *SocietyHandler) Register(router fiber.Router) {
	router.Get("/public", h.list)
	router.Get("/public/:id", h.get)
	router.Get("/statistics", h.statistics)
}

func (h *SocietyHandler) list(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page size")
	}

	resp, err := h.service.List(c.UserContext(), dto.SocietyListRequest{
		Page:     page,
		PageSize: pageSize,
		Search:   c.Query("search"),
		Faculty:  c.Query("faculty"),
		Status:   c.Query("status"),
	})
	if err != nil {
		return writeServiceError(c, h.logger, err, "failed to list societies")
	}
	return utils.OK(c, resp.Items, "societies", resp.Pagination)
}

func (h *SocietyHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid society id")
	}

	resp, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return writeServiceError(c, h.logger, err, "failed to load society")
	}
	return utils.SendSuccess(c, "society", resp)
}

func (h *SocietyHandler) statistics(c *fiber.Ctx) error {
	resp, err := h.service.Statistics(c.UserContext())
	if err != nil {
		return writeServiceError(c, h.logger, err, "failed to load statistics")
	}
	return utils.SendSuccess(c, "society statistics", resp)
}
