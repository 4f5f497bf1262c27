package handler_test

import (
	"bytes"
	"context"
	"errors"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/society-api/internal/config"
	"github.com/noah-isme/society-api/internal/dto"
	"github.com/noah-isme/society-api/internal/handler"
	"github.com/noah-isme/society-api/internal/models"
	"github.com/noah-isme/society-api/internal/policy"
	"github.com/noah-isme/society-api/internal/repository"
	"github.com/noah-isme/society-api/internal/router"
	"github.com/noah-isme/society-api/internal/service"
	"github.com/noah-isme/society-api/internal/validation"
	"github.com/noah-isme/society-api/internal/wizard"
)

var (
	engineeringDean = policy.Actor{ID: 10, Name: "Dean Engineering", Role: models.RoleDean, Faculty: "Faculty of Engineering"}
	artsDean        = policy.Actor{ID: 11, Name: "Dean Arts", Role: models.RoleDean, Faculty: "Faculty of Arts"}
	registrar       = policy.Actor{ID: 20, Name: "AR Silva", Role: models.RoleAssistantRegistrar}
	chancellor      = policy.Actor{ID: 30, Name: "VC Jayasinghe", Role: models.RoleViceChancellor}
	studentService  = policy.Actor{ID: 40, Name: "Student Service", Role: models.RoleStudentService}
	testUser        = policy.Actor{ID: 50, Name: "Tester", Role: models.RoleTestUser}
)

type envelope struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Data    json.RawMessage        `json:"data"`
	Meta    json.RawMessage        `json:"meta"`
	Details map[string]interface{} `json:"details"`
}

type testEnv struct {
	app *fiber.App
	db  *gorm.DB
}

// headerIdentity stands in for the JWT middleware: the acting admin is read
// from X-Test-* headers.
func headerIdentity(c *fiber.Ctx) error {
	if role := c.Get("X-Test-Role"); role != "" {
		c.Locals("user_role", role)
	}
	if id, err := strconv.ParseUint(c.Get("X-Test-ID"), 10, 64); err == nil {
		c.Locals("user_id", uint(id))
	}
	c.Locals("user_name", c.Get("X-Test-Name"))
	c.Locals("user_faculty", c.Get("X-Test-Faculty"))
	return c.Next()
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Application{}, &models.Society{}, &models.AdminUser{}, &models.ActivityLog{}))

	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)
	cache := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = cache.Close() })

	logger := zerolog.Nop()
	validate := validation.New()

	applications := repository.NewApplicationRepository(db)
	societies := repository.NewSocietyRepository(db)

	activity := service.NewActivityService(repository.NewActivityLogRepository(db), logger)
	dashboard := service.NewDashboardService(applications, societies, cache, time.Minute, logger)
	appService := service.NewApplicationService(applications, activity, dashboard, validate, logger)
	approvals := service.NewApprovalService(applications, societies, service.NewLogDecisionNotifier(logger), dashboard, logger)
	admins := service.NewAdminUserService(repository.NewAdminUserRepository(db), activity, validate, logger)
	drafts := service.NewDraftService(wizard.NewRedisStore(cache, time.Hour), appService, logger)

	app := fiber.New()
	cfg := config.Config{AppName: "Society Management API", AppEnv: "test", RateLimitMax: 1000}
	router.Register(app, cfg, router.Dependencies{
		ApplicationHandler:      handler.NewApplicationHandler(appService, logger),
		AdminApplicationHandler: handler.NewAdminApplicationHandler(appService, approvals, dashboard, logger),
		AdminActivityHandler:    handler.NewAdminActivityHandler(activity, logger),
		AdminUserHandler:        handler.NewAdminUserHandler(admins, logger),
		SocietyHandler:          handler.NewSocietyHandler(service.NewSocietyService(societies, applications, logger), logger),
		ValidationHandler:       handler.NewValidationHandler(validate, logger),
		DraftHandler:            handler.NewDraftHandler(drafts, validate, logger),
		JWTMiddleware:           headerIdentity,
	})

	return testEnv{app: app, db: db}
}

func (e testEnv) do(t *testing.T, method, path string, actor *policy.Actor, body interface{}) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if actor != nil {
		req.Header.Set("X-Test-Role", actor.Role)
		req.Header.Set("X-Test-ID", strconv.FormatUint(uint64(actor.ID), 10))
		req.Header.Set("X-Test-Name", actor.Name)
		req.Header.Set("X-Test-Faculty", actor.Faculty)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var payload envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return resp.StatusCode, payload
}

func decodeData(t *testing.T, payload envelope, target interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(payload.Data, target))
}

func official(name, regNo string) dto.OfficialRequest {
	return dto.OfficialRequest{RegNo: regNo, Name: name, Address: "Peradeniya", Email: "official@eng.pdn.ac.lk", Mobile: "0771234567"}
}

func registrationPayload(society, faculty string) dto.RegistrationRequest {
	return dto.RegistrationRequest{
		SocietyApplicationRequest: dto.SocietyApplicationRequest{
			ApplicantFullName: "Kasun Perera",
			ApplicantRegNo:    "E/19/123",
			ApplicantEmail:    "kasun@eng.pdn.ac.lk",
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

func eventPayload(society string) dto.EventRequest {
	return dto.EventRequest{
		SocietyName:                society,
		ApplicantName:              "Nimal",
		ApplicantRegNo:             "E/20/010",
		ApplicantEmail:             "nimal@eng.pdn.ac.lk",
		ApplicantPosition:          "Secretary",
		ApplicantMobile:            "+94771234567",
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

func (e testEnv) submit(t *testing.T, path string, body interface{}) dto.SubmissionResponse {
	t.Helper()
	status, payload := e.do(t, http.MethodPost, path, nil, body)
	require.Equal(t, http.StatusCreated, status, payload.Message)

	var submitted dto.SubmissionResponse
	decodeData(t, payload, &submitted)
	return submitted
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t)

	status, payload := env.do(t, http.MethodGet, "/api/v1/health", nil, nil)
	require.Equal(t, http.StatusOK, status)

	var health handler.HealthResponse
	decodeData(t, payload, &health)
	require.Equal(t, "ok", health.Status)
	require.Equal(t, "test", health.Environment)
}

func TestHealthCheckReportsFailingProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/health", handler.HealthCheck(config.Config{AppName: "sms"}, map[string]handler.HealthProbe{
		"redis": func(ctx context.Context) error { return errors.New("connection refused") },
	}))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
