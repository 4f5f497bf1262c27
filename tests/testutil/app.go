// Package testutil assembles the full HTTP stack over in-memory stores for the
// end-to-end, contract and performance suites.
package testutil

import (
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/society-api/internal/config"
	"github.com/noah-isme/society-api/internal/database"
	"github.com/noah-isme/society-api/internal/dto"
	"github.com/noah-isme/society-api/internal/handler"
	"github.com/noah-isme/society-api/internal/middleware"
	"github.com/noah-isme/society-api/internal/models"
	"github.com/noah-isme/society-api/internal/repository"
	"github.com/noah-isme/society-api/internal/router"
	"github.com/noah-isme/society-api/internal/service"
	"github.com/noah-isme/society-api/internal/validation"
	"github.com/noah-isme/society-api/internal/wizard"
)

// JWTSecret signs every token issued by Token.
const JWTSecret = "integration-secret"

// App is a fully wired API backed by sqlite and miniredis.
type App struct {
	Fiber  *fiber.App
	DB     *gorm.DB
	Admins map[string]models.AdminUser
}

// NewApp builds the API with the default admin roster: an engineering dean,
// an arts dean, the assistant registrar, the vice chancellor and student service.
func NewApp(t testing.TB) *App {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.ConnectSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)
	cache := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = cache.Close() })

	logger := zerolog.New(io.Discard)
	validate := validation.New()

	applicationRepo := repository.NewApplicationRepository(db)
	societyRepo := repository.NewSocietyRepository(db)
	adminRepo := repository.NewAdminUserRepository(db)

	admins := map[string]models.AdminUser{
		"eng_dean":  {Name: "Dean Engineering", Email: "dean@eng.pdn.ac.lk", Role: models.RoleDean, Faculty: "Faculty of Engineering", Active: true},
		"arts_dean": {Name: "Dean Arts", Email: "dean@arts.pdn.ac.lk", Role: models.RoleDean, Faculty: "Faculty of Arts", Active: true},
		"ar":        {Name: "AR Silva", Email: "ar@pdn.ac.lk", Role: models.RoleAssistantRegistrar, Active: true},
		"vc":        {Name: "VC Jayasinghe", Email: "vc@pdn.ac.lk", Role: models.RoleViceChancellor, Active: true},
		"ss":        {Name: "Student Service", Email: "ss@pdn.ac.lk", Role: models.RoleStudentService, Active: true},
	}
	for key, admin := range admins {
		admin := admin
		require.NoError(t, db.Create(&admin).Error)
		admins[key] = admin
	}

	activityService := service.NewActivityService(repository.NewActivityLogRepository(db), logger)
	dashboardService := service.NewDashboardService(applicationRepo, societyRepo, cache, time.Minute, logger)
	applicationService := service.NewApplicationService(applicationRepo, activityService, dashboardService, validate, logger)
	approvalService := service.NewApprovalService(applicationRepo, societyRepo, service.NewLogDecisionNotifier(logger), dashboardService, logger)
	adminUserService := service.NewAdminUserService(adminRepo, activityService, validate, logger)
	draftService := service.NewDraftService(wizard.NewRedisStore(cache, time.Hour), applicationService, logger)

	cfg := config.Config{AppName: "Society Management API", AppEnv: "test", JWTSecret: JWTSecret, RateLimitMax: 10000}
	app := fiber.New()
	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		ApplicationHandler:      handler.NewApplicationHandler(applicationService, logger),
		AdminApplicationHandler: handler.NewAdminApplicationHandler(applicationService, approvalService, dashboardService, logger),
		AdminActivityHandler:    handler.NewAdminActivityHandler(activityService, logger),
		AdminUserHandler:        handler.NewAdminUserHandler(adminUserService, logger),
		SocietyHandler:          handler.NewSocietyHandler(service.NewSocietyService(societyRepo, applicationRepo, logger), logger),
		ValidationHandler:       handler.NewValidationHandler(validate, logger),
		DraftHandler:            handler.NewDraftHandler(draftService, validate, logger),
		JWTMiddleware:           middleware.JWTProtected(JWTSecret),
		AdminMiddleware:         middleware.ActiveAdmin(adminUserService, service.ErrAdminNotFound, logger),
	})

	return &App{Fiber: app, DB: db, Admins: admins}
}

// Token issues a bearer token for one of the seeded admins.
func (a *App) Token(t testing.TB, key string) string {
	t.Helper()
	admin, ok := a.Admins[key]
	require.True(t, ok, "unknown admin %s", key)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":     fmt.Sprintf("%d", admin.ID),
		"role":    strings.ToUpper(admin.Role),
		"email":   admin.Email,
		"name":    admin.Name,
		"faculty": admin.Faculty,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(JWTSecret))
	require.NoError(t, err)
	return token
}

// Registration returns a valid registration payload for society in faculty.
func Registration(society, faculty string) dto.RegistrationRequest {
	official := func(name, regNo string) dto.OfficialRequest {
		return dto.OfficialRequest{RegNo: regNo, Name: name, Address: "Peradeniya", Email: "official@pdn.ac.lk", Mobile: "0771234567"}
	}
	return dto.RegistrationRequest{
		SocietyApplicationRequest: dto.SocietyApplicationRequest{
			ApplicantFullName: "Kasun Perera",
			ApplicantRegNo:    "E/19/123",
			ApplicantEmail:    "kasun@pdn.ac.lk",
			ApplicantFaculty:  faculty,
			ApplicantMobile:   "0771234567",
			SocietyName:       society,
			AGMDate:           time.Now().AddDate(0, -1, 0).Format(validation.DateLayout),
			SeniorTreasurer: dto.SeniorTreasurerRequest{
				Title: "Dr.", Name: "Silva", Designation: "Senior Lecturer", Department: "EE",
				Email: "silva@pdn.ac.lk", Address: "Peradeniya", Mobile: "0712345678",
			},
			President:        official("President", "E/19/101"),
			VicePresident:    official("Vice President", "E/19/102"),
			Secretary:        official("Secretary", "E/19/103"),
			JointSecretary:   official("Joint Secretary", "E/19/104"),
			JuniorTreasurer:  official("Junior Treasurer", "E/19/105"),
			Editor:           official("Editor", "E/19/106"),
			CommitteeMembers: []dto.MemberRequest{{RegNo: "E/19/200", Name: "Amal"}},
			Members:          []dto.MemberRequest{{RegNo: "E/19/201", Name: "Bimal"}},
			PlanningEvents:   []dto.PlannedActivityRequest{{Month: "April", Activity: "Workshop"}},
		},
		Aims:          "Build robots together",
		AdvisoryBoard: []dto.AdvisoryBoardRequest{{Name: "Prof. Fernando"}},
	}
}

// Event returns a valid event permission payload dated a month ahead.
func Event(society string) dto.EventRequest {
	return dto.EventRequest{
		SocietyName:                society,
		ApplicantName:              "Nimal",
		ApplicantRegNo:             "E/20/010",
		ApplicantEmail:             "nimal@pdn.ac.lk",
		ApplicantPosition:          "Secretary",
		ApplicantMobile:            "0771234567",
		EventName:                  "Robot Expo",
		EventDate:                  time.Now().AddDate(0, 1, 0).Format(validation.DateLayout),
		TimeFrom:                   "09:00",
		TimeTo:                     "16:00",
		Place:                      "E-Block",
		BudgetEstimate:             "LKR 50,000",
		FundCollectionMethods:      "Sponsorships",
		SeniorTreasurerName:        "Dr. Silva",
		SeniorTreasurerDepartment:  "EE",
		SeniorTreasurerMobile:      "0712345678",
		PremisesOfficerName:        "Mr. Bandara",
		PremisesOfficerDesignation: "Works Engineer",
		PremisesOfficerDivision:    "Maintenance",
	}
}
