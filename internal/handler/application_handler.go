package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/society-api/internal/dto"
	"github.com/noah-isme/society-api/internal/service"
	"github.com/noah-isme/society-api/internal/utils"
)

// ApplicationHandler accepts public registration, renewal and event submissions.
type ApplicationHandler struct {
	service service.ApplicationService
	logger  zerolog.Logger
}

// NewApplicationHandler constructs the handler.
func NewApplicationHandler(service service.ApplicationService, logger zerolog.Logger) *ApplicationHandler {
	return &ApplicationHandler{
		service: service,
		logger:  logger.With().Str("component", "application_handler").Logger(),
	}
}

// RegisterSocietyRoutes attaches POST /register to the societies group. Guards
// run before the handler, e.g. a rate limiter.
func (h *ApplicationHandler) RegisterSocietyRoutes(router fiber.Router, guards ...fiber.Handler) {
	router.Post("/register", append(guards, h.submitRegistration)...)
}

// RegisterRenewalRoutes attaches POST /submit to the renewals group.
func (h *ApplicationHandler) RegisterRenewalRoutes(router fiber.Router, guards ...fiber.Handler) {
	router.Post("/submit", append(guards, h.submitRenewal)...)
}

// RegisterEventRoutes attaches POST /request to the events group.
func (h *ApplicationHandler) RegisterEventRoutes(router fiber.Router, guards ...fiber.Handler) {
	router.Post("/request", append(guards, h.submitEvent)...)
}

func (h *ApplicationHandler) submitRegistration(c *fiber.Ctx) error {
	var payload dto.RegistrationRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	resp, err := h.service.SubmitRegistration(c.UserContext(), payload)
	if err != nil {
		return writeServiceError(c, h.logger, err, "failed to submit registration")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "registration submitted", resp)
}

func (h *ApplicationHandler) submitRenewal(c *fiber.Ctx) error {
	var payload dto.RenewalRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	resp, err := h.service.SubmitRenewal(c.UserContext(), payload)
	if err != nil {
		return writeServiceError(c, h.logger, err, "failed to submit renewal")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "renewal submitted", resp)
}

func (h *ApplicationHandler) submitEvent(c *fiber.Ctx) error {
	var payload dto.EventRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	resp, err := h.service.SubmitEvent(c.UserContext(), payload)
	if err != nil {
		return writeServiceError(c, h.logger, err, "failed to submit event request")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "event request submitted", resp)
}
