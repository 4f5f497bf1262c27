package handler

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/society-api/internal/dto"
	"github.com/noah-isme/society-api/internal/utils"
	"github.com/noah-isme/society-api/internal/validation"
)

// ValidationHandler lets form clients check single fields before submitting.
type ValidationHandler struct {
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewValidationHandler constructs the handler.
func NewValidationHandler(validate *validator.Validate, logger zerolog.Logger) *ValidationHandler {
	return &ValidationHandler{
		validator: validate,
		logger:    logger.With().Str("component", "validation_handler").Logger(),
	}
}

// Register attaches field check routes to the validation group.
func (h *ValidationHandler) Register(router fiber.Router) {
	router.Post("/email", h.email)
	router.Post("/mobile", h.mobile)
	router.Post("/registration-number", h.registrationNumber)
	router.Post("/bulk-emails", h.bulkEmails)
}

func (h *ValidationHandler) email(c *fiber.Ctx) error {
	var payload dto.EmailCheckRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	label := strings.TrimSpace(payload.Position)
	if label == "" {
		label = "Email"
	} else {
		label += " email"
	}
	email := strings.TrimSpace(payload.Email)
	return utils.SendSuccess(c, "email checked", fieldCheck(validation.Required(email, label), validation.Email(email)))
}

func (h *ValidationHandler) mobile(c *fiber.Ctx) error {
	var payload dto.MobileCheckRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	mobile := strings.TrimSpace(payload.Mobile)
	return utils.SendSuccess(c, "mobile checked", fieldCheck(validation.Required(mobile, "Mobile number"), validation.Mobile(mobile)))
}

func (h *ValidationHandler) registrationNumber(c *fiber.Ctx) error {
	var payload dto.RegNoCheckRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	regNo := strings.TrimSpace(payload.RegNo)
	return utils.SendSuccess(c, "registration number checked", fieldCheck(validation.Required(regNo, "Registration number"), validation.RegistrationNumber(regNo)))
}

func (h *ValidationHandler) bulkEmails(c *fiber.Ctx) error {
	var payload dto.BulkEmailCheckRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", validationDetails(err))
	}

	invalid := validation.InvalidEmails(payload.Emails)
	return utils.SendSuccess(c, "emails checked", dto.BulkEmailCheckResponse{
		TotalEmails:   len(payload.Emails),
		ValidEmails:   len(payload.Emails) - len(invalid),
		InvalidEmails: invalid,
		IsAllValid:    len(invalid) == 0,
	})
}

func fieldCheck(messages ...string) dto.FieldCheckResponse {
	for _, msg := range messages {
		if msg != "" {
			return dto.FieldCheckResponse{IsValid: false, Error: msg}
		}
	}
	return dto.FieldCheckResponse{IsValid: true}
}
