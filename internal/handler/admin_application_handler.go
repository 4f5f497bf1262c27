package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/society-api/internal/dto"
	"github.com/noah-isme/society-api/internal/models"
	"github.com/noah-isme/society-api/internal/service"
	"github.com/noah-isme/society-api/internal/utils"
	"github.com/noah-isme/society-api/internal/workflow"
)

// AdminApplicationHandler exposes the approval pipeline to admins.
type AdminApplicationHandler struct {
	applications service.ApplicationService
	approvals    service.ApprovalService
	dashboard    service.DashboardService
	logger       zerolog.Logger
}

// NewAdminApplicationHandler constructs the handler.
func NewAdminApplicationHandler(applications service.ApplicationService, approvals service.ApprovalService, dashboard service.DashboardService, logger zerolog.Logger) *AdminApplicationHandler {
	return &AdminApplicationHandler{
		applications: applications,
		approvals:    approvals,
		dashboard:    dashboard,
		logger:       logger.With().Str("component", "admin_application_handler").Logger(),
	}
}

// Register attaches dashboard, queue and registration decision routes to the admin group.
func (h *AdminApplicationHandler) Register(router fiber.Router) {
	router.Get("/dashboard", h.getDashboard)
	router.Get("/pending", h.pending)
	router.Get("/applications", h.list)
	router.Get("/applications/:id", h.get)
	router.Post("/approve-registration/:id", h.decide(models.KindRegistration, workflow.Approve))
	router.Post("/reject-registration/:id", h.decide(models.KindRegistration, workflow.Reject))
}

// RegisterDecisionRoutes attaches approve/:id and reject/:id for one application kind.
func (h *AdminApplicationHandler) RegisterDecisionRoutes(router fiber.Router, kind models.ApplicationKind) {
	router.Post("/approve/:id", h.decide(kind, workflow.Approve))
	router.Post("/reject/:id", h.decide(kind, workflow.Reject))
}

func (h *AdminApplicationHandler) getDashboard(c *fiber.Ctx) error {
	resp, err := h.dashboard.Get(c.UserContext(), actorFromContext(c))
	if err != nil {
		return writeServiceError(c, h.logger, err, "failed to load dashboard")
	}
	return utils.SendSuccess(c, "dashboard", resp)
}

func (h *AdminApplicationHandler) pending(c *fiber.Ctx) error {
	req, err := parseApplicationListRequest(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	resp, err := h.approvals.Pending(c.UserContext(), actorFromContext(c), req)
	if err != nil {
		return writeServiceError(c, h.logger, err, "failed to list pending applications")
	}
	return utils.OK(c, resp.Items, "pending applications", resp.Pagination)
}

func (h *AdminApplicationHandler) list(c *fiber.Ctx) error {
	req, err := parseApplicationListRequest(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	resp, err := h.applications.List(c.UserContext(), req)
	if err != nil {
		return writeServiceError(c, h.logger, err, "failed to list applications")
	}
	return utils.OK(c, resp.Items, "applications", resp.Pagination)
}

func (h *AdminApplicationHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid application id")
	}

	resp, err := h.applications.Get(c.UserContext(), id)
	if err != nil {
		return writeServiceError(c, h.logger, err, "failed to load application")
	}
	return utils.SendSuccess(c, "application", resp)
}

func (h *AdminApplicationHandler) decide(kind models.ApplicationKind, decision workflow.Decision) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseUintParam(c, "id")
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid application id")
		}

		var payload dto.DecisionRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&payload); err != nil {
				return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
			}
		}

		actor := actorFromContext(c)
		resp, err := h.approvals.Decide(c.UserContext(), actor, id, kind, decision, payload.Reason)
		if err != nil {
			return writeServiceError(c, h.logger, err, "failed to record decision")
		}

		requestLogger(h.logger, c).Info().
			Uint("application_id", id).
			Str("kind", string(kind)).
			Str("decision", string(decision)).
			Str("role", actor.Role).
			Str("status", resp.Application.Status).
			Msg("application decision recorded")

		return utils.SendSuccess(c, resp.Activity.Action, resp)
	}
}

func parseApplicationListRequest(c *fiber.Ctx) (dto.ApplicationListRequest, error) {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return dto.ApplicationListRequest{}, errors.New("invalid page")
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return dto.ApplicationListRequest{}, errors.New("invalid page size")
	}
	year, err := parseQueryInt(c, "year")
	if err != nil {
		return dto.ApplicationListRequest{}, errors.New("invalid year")
	}

	return dto.ApplicationListRequest{
		Page:     page,
		PageSize: pageSize,
		Kind:     c.Query("kind"),
		Status:   c.Query("status"),
		Faculty:  c.Query("faculty"),
		Year:     year,
		Search:   c.Query("search"),
		Sort:     c.Query("sort"),
	}, nil
}
