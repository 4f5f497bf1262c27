package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/society-api/internal/config"
	"github.com/noah-isme/society-api/internal/database"
	"github.com/noah-isme/society-api/internal/handler"
	"github.com/noah-isme/society-api/internal/middleware"
	"github.com/noah-isme/society-api/internal/models"
	"github.com/noah-isme/society-api/internal/repository"
	"github.com/noah-isme/society-api/internal/router"
	"github.com/noah-isme/society-api/internal/service"
	"github.com/noah-isme/society-api/internal/validation"
	"github.com/noah-isme/society-api/internal/wizard"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()

	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	notifiers := service.MultiDecisionNotifier{service.NewLogDecisionNotifier(logger)}
	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Drain()
		notifiers = append(notifiers, service.NewNATSDecisionNotifier(natsConn, cfg.NATSSubject))
	} else {
		logger.Warn().Msg("nats url not configured; decision events are only logged")
	}

	validate := validation.New()

	applicationRepo := repository.NewApplicationRepository(db)
	societyRepo := repository.NewSocietyRepository(db)
	adminUserRepo := repository.NewAdminUserRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	if err := bootstrapAdmin(context.Background(), adminUserRepo, cfg.BootstrapAdmin, logger); err != nil {
		log.Fatalf("failed to bootstrap admin: %v", err)
	}

	activityService := service.NewActivityService(activityRepo, logger)
	dashboardService := service.NewDashboardService(applicationRepo, societyRepo, redisClient, cfg.DashboardCacheTTL, logger)
	applicationService := service.NewApplicationService(applicationRepo, activityService, dashboardService, validate, logger)
	approvalService := service.NewApprovalService(applicationRepo, societyRepo, notifiers, dashboardService, logger)
	adminUserService := service.NewAdminUserService(adminUserRepo, activityService, validate, logger)
	societyService := service.NewSocietyService(societyRepo, applicationRepo, logger)
	draftService := service.NewDraftService(wizard.NewRedisStore(redisClient, cfg.DraftTTL), applicationService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: cfg.RequestTimeout,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, CORSOrigins: cfg.CORSOrigins})
	router.Register(app, cfg, router.Dependencies{
		ApplicationHandler:      handler.NewApplicationHandler(applicationService, logger),
		AdminApplicationHandler: handler.NewAdminApplicationHandler(applicationService, approvalService, dashboardService, logger),
		AdminActivityHandler:    handler.NewAdminActivityHandler(activityService, logger),
		AdminUserHandler:        handler.NewAdminUserHandler(adminUserService, logger),
		SocietyHandler:          handler.NewSocietyHandler(societyService, logger),
		ValidationHandler:       handler.NewValidationHandler(validate, logger),
		DraftHandler:            handler.NewDraftHandler(draftService, validate, logger),
		HealthProbes:            healthProbes(db, redisClient, natsConn),
		JWTMiddleware:           middleware.JWTProtected(cfg.JWTSecret),
		AdminMiddleware:         middleware.ActiveAdmin(adminUserService, service.ErrAdminNotFound, logger),
	})

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddress()).Str("env", cfg.AppEnv).Msg("http server starting")
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

// bootstrapAdmin makes sure the configured assistant registrar exists, so a
// fresh deployment has someone able to add the other admins.
func bootstrapAdmin(ctx context.Context, repo repository.AdminUserRepository, email string, logger zerolog.Logger) error {
	if email == "" {
		return nil
	}

	existing, err := repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if !existing.Active {
			existing.Active = true
			return repo.Save(ctx, &existing)
		}
		return nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}

	logger.Info().Msg("creating bootstrap assistant registrar")
	return repo.Create(ctx, &models.AdminUser{
		Name:   "Assistant Registrar",
		Email:  email,
		Role:   models.RoleAssistantRegistrar,
		Active: true,
	})
}

func healthProbes(db *gorm.DB, cache *redis.Client, conn *nats.Conn) map[string]handler.HealthProbe {
	probes := map[string]handler.HealthProbe{
		"database": func(ctx context.Context) error { return database.Ping(ctx, db) },
		"redis":    func(ctx context.Context) error { return cache.Ping(ctx).Err() },
	}
	if conn != nil {
		probes["nats"] = func(ctx context.Context) error {
			if !conn.IsConnected() {
				return errors.New("nats disconnected")
			}
			return nil
		}
	}
	return probes
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
