package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/society-api/internal/dto"
	"github.com/noah-isme/society-api/internal/service"
	"github.com/noah-isme/society-api/internal/utils"
	"github.com/noah-isme/society-api/internal/wizard"
)

// DraftHandler drives server-held application wizards.
type DraftHandler struct {
	service   service.DraftService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewDraftHandler constructs the handler.
func NewDraftHandler(service service.DraftService, validate *validator.Validate, logger zerolog.Logger) *DraftHandler {
	return &DraftHandler{
		service:   service,
		validator: validate,
		logger:    logger.With().Str("component", "draft_handler").Logger(),
	}
}

// Register attaches wizard routes to the drafts group.
func (h *DraftHandler) Register(router fiber.Router) {
	router.Post("", h.create)
	router.Get("/:id", h.get)
	router.Patch("/:id", h.update)
	router.Post("/:id/next", h.next)
	router.Post("/:id/prev", h.prev)
	router.Post("/:id/submit", h.submit)
}

func (h *DraftHandler) create(c *fiber.Ctx) error {
	var payload dto.DraftCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", validationDetails(err))
	}

	draft, err := h.service.Create(c.UserContext(), payload)
	if err != nil {
		return writeServiceError(c, h.logger, err, "failed to create draft")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "draft created", draft)
}

func (h *DraftHandler) get(c *fiber.Ctx) error {
	draft, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeServiceError(c, h.logger, err, "failed to load draft")
	}
	return utils.SendSuccess(c, "draft", draft)
}

func (h *DraftHandler) update(c *fiber.Ctx) error {
	var payload dto.DraftUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	draft, err := h.service.Update(c.UserContext(), c.Params("id"), payload)
	return h.respond(c, draft, err, "draft updated")
}

func (h *DraftHandler) next(c *fiber.Ctx) error {
	draft, err := h.service.Next(c.UserContext(), c.Params("id"))
	return h.respond(c, draft, err, "step completed")
}

func (h *DraftHandler) prev(c *fiber.Ctx) error {
	draft, err := h.service.Prev(c.UserContext(), c.Params("id"))
	return h.respond(c, draft, err, "moved to previous step")
}

func (h *DraftHandler) submit(c *fiber.Ctx) error {
	draft, err := h.service.Submit(c.UserContext(), c.Params("id"))
	return h.respond(c, draft, err, "draft submitted")
}

// respond reports step validation and submit failures together with the
// draft, so the client can render field errors in place.
func (h *DraftHandler) respond(c *fiber.Ctx, draft dto.DraftResponse, err error, message string) error {
	switch {
	case err == nil:
		return utils.SendSuccess(c, message, draft)
	case errors.Is(err, wizard.ErrStepInvalid):
		return utils.Fail(c, fiber.StatusUnprocessableEntity, err.Error(), draft)
	case draft.SubmitError != "" && draft.SubmitError == err.Error():
		return utils.Fail(c, fiber.StatusUnprocessableEntity, draft.SubmitError, draft)
	}
	return writeServiceError(c, h.logger, err, "failed to update draft")
}
