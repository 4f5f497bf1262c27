package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/society-api/internal/config"
	"github.com/noah-isme/society-api/internal/handler"
	"github.com/noah-isme/society-api/internal/middleware"
	"github.com/noah-isme/society-api/internal/models"
	"github.com/noah-isme/society-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ApplicationHandler      *handler.ApplicationHandler
	AdminApplicationHandler *handler.AdminApplicationHandler
	AdminActivityHandler    *handler.AdminActivityHandler
	AdminUserHandler        *handler.AdminUserHandler
	SocietyHandler          *handler.SocietyHandler
	ValidationHandler       *handler.ValidationHandler
	DraftHandler            *handler.DraftHandler
	HealthProbes            map[string]handler.HealthProbe
	JWTMiddleware           fiber.Handler
	AdminMiddleware         fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes))
	app.Get("/metrics", observability.MetricsHandler())

	submitLimit := middleware.RateLimit("submissions", cfg.RateLimitMax, time.Minute)

	// Public submissions and directory
	societies := app.Group("/api/societies")
	renewals := app.Group("/api/renewals")
	events := app.Group("/api/events")
	if deps.ApplicationHandler != nil {
		deps.ApplicationHandler.RegisterSocietyRoutes(societies, submitLimit)
		deps.ApplicationHandler.RegisterRenewalRoutes(renewals, submitLimit)
		deps.ApplicationHandler.RegisterEventRoutes(events, submitLimit)
	}
	if deps.SocietyHandler != nil {
		deps.SocietyHandler.Register(societies)
	}
	if deps.ValidationHandler != nil {
		deps.ValidationHandler.Register(app.Group("/api/validation"))
	}
	if deps.DraftHandler != nil {
		deps.DraftHandler.Register(api.Group("/drafts"))
	}

	// Admin routes require a valid token and, when configured, an active account.
	guards := []fiber.Handler{noop}
	if deps.JWTMiddleware != nil {
		guards = append(guards, deps.JWTMiddleware)
	}
	if deps.AdminMiddleware != nil {
		guards = append(guards, deps.AdminMiddleware)
	}

	admin := app.Group("/api/admin", guards...)
	if deps.AdminApplicationHandler != nil {
		deps.AdminApplicationHandler.Register(admin)
		deps.AdminApplicationHandler.RegisterDecisionRoutes(app.Group("/api/renewals/admin", guards...), models.KindRenewal)
		deps.AdminApplicationHandler.RegisterDecisionRoutes(app.Group("/api/events/admin", guards...), models.KindEvent)
	}
	if deps.AdminActivityHandler != nil {
		deps.AdminActivityHandler.Register(admin.Group("/activity-logs"))
	}
	if deps.AdminUserHandler != nil {
		deps.AdminUserHandler.Register(admin.Group("/ar/manage-admin", middleware.RequireRole(models.RoleAssistantRegistrar)))
	}
}

func noop(c *fiber.Ctx) error {
	return c.Next()
}
