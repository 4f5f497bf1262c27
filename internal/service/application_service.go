package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/society-api/internal/dto"
	"github.com/noah-isme/society-api/internal/models"
	"github.com/noah-isme/society-api/internal/observability"
	"github.com/noah-isme/society-api/internal/repository"
	"github.com/noah-isme/society-api/internal/validation"
	"github.com/noah-isme/society-api/internal/wizard"
	"github.com/noah-isme/society-api/internal/workflow"
)

// ErrApplicationNotFound indicates the application does not exist or is of another kind.
var ErrApplicationNotFound = errors.New("application not found")

// DashboardInvalidator drops cached dashboards after the pipeline changes.
type DashboardInvalidator interface {
	Invalidate(ctx context.Context)
}

// ApplicationService accepts and reads society applications.
type ApplicationService interface {
	wizard.Submitter
	SubmitRegistration(ctx context.Context, req dto.RegistrationRequest) (dto.SubmissionResponse, error)
	SubmitRenewal(ctx context.Context, req dto.RenewalRequest) (dto.SubmissionResponse, error)
	SubmitEvent(ctx context.Context, req dto.EventRequest) (dto.SubmissionResponse, error)
	Get(ctx context.Context, id uint) (dto.ApplicationResponse, error)
	List(ctx context.Context, req dto.ApplicationListRequest) (dto.ApplicationListResponse, error)
}

type applicationService struct {
	repo      repository.ApplicationRepository
	activity  ActivityRecorder
	dashboard DashboardInvalidator
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	tracer    trace.Tracer
	logger    zerolog.Logger
	now       func() time.Time
}

// NewApplicationService constructs the submission service.
func NewApplicationService(repo repository.ApplicationRepository, activity ActivityRecorder, dashboard DashboardInvalidator, validate *validator.Validate, logger zerolog.Logger) ApplicationService {
	return &applicationService{
		repo:      repo,
		activity:  activity,
		dashboard: dashboard,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		tracer:    otel.Tracer("github.com/noah-isme/society-api/internal/service/application"),
		logger:    logger.With().Str("component", "application_service").Logger(),
		now:       time.Now,
	}
}

func (s *applicationService) SubmitRegistration(ctx context.Context, req dto.RegistrationRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.SubmissionResponse{}, err
	}
	now := s.now()
	if msg := validation.PastDate(req.AGMDate, "AGM date", now); msg != "" {
		return dto.SubmissionResponse{}, &workflow.ValidationError{Field: "agm_date", Message: msg}
	}

	app := s.newApplication(models.KindRegistration, req.SocietyApplicationRequest, now)
	details := s.registrationDetails(req.SocietyApplicationRequest, req.Aims, req.AdvisoryBoard)
	if err := app.SetDetails(details); err != nil {
		return dto.SubmissionResponse{}, err
	}

	return s.store(ctx, &app)
}

func (s *applicationService) SubmitRenewal(ctx context.Context, req dto.RenewalRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.SubmissionResponse{}, err
	}
	now := s.now()
	if msg := validation.PastDate(req.AGMDate, "AGM date", now); msg != "" {
		return dto.SubmissionResponse{}, &workflow.ValidationError{Field: "agm_date", Message: msg}
	}

	app := s.newApplication(models.KindRenewal, req.SocietyApplicationRequest, now)
	details := models.RenewalDetails{
		RegistrationDetails: s.registrationDetails(req.SocietyApplicationRequest, req.Aims, req.AdvisoryBoard),
		PreviousActivities:  s.activities(req.PreviousActivities),
		Difficulties:        s.clean(req.Difficulties),
		Website:             strings.TrimSpace(req.Website),
	}
	if err := app.SetDetails(details); err != nil {
		return dto.SubmissionResponse{}, err
	}

	return s.store(ctx, &app)
}

func (s *applicationService) SubmitEvent(ctx context.Context, req dto.EventRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.SubmissionResponse{}, err
	}
	now := s.now()
	if msg := validation.FutureDate(req.EventDate, "Event date", now); msg != "" {
		return dto.SubmissionResponse{}, &workflow.ValidationError{Field: "event_date", Message: msg}
	}
	from, err := time.Parse(validation.TimeLayout, strings.TrimSpace(req.TimeFrom))
	if err != nil {
		return dto.SubmissionResponse{}, &workflow.ValidationError{Field: "time_from", Message: "Start time must be a valid time (HH:MM)"}
	}
	to, err := time.Parse(validation.TimeLayout, strings.TrimSpace(req.TimeTo))
	if err != nil {
		return dto.SubmissionResponse{}, &workflow.ValidationError{Field: "time_to", Message: "End time must be a valid time (HH:MM)"}
	}
	if !to.After(from) {
		return dto.SubmissionResponse{}, &workflow.ValidationError{Field: "time_to", Message: "End time must be after the start time"}
	}

	app := models.Application{
		ReferenceID:       referenceID(models.KindEvent, now),
		Kind:              models.KindEvent,
		Status:            workflow.InitialStatus(models.KindEvent),
		ApplicantName:     s.clean(req.ApplicantName),
		ApplicantRegNo:    strings.TrimSpace(req.ApplicantRegNo),
		ApplicantEmail:    strings.ToLower(strings.TrimSpace(req.ApplicantEmail)),
		ApplicantFaculty:  strings.TrimSpace(req.ApplicantFaculty),
		ApplicantMobile:   strings.TrimSpace(req.ApplicantMobile),
		ApplicantPosition: s.clean(req.ApplicantPosition),
		SocietyName:       s.clean(req.SocietyName),
		Year:              now.Year(),
		SubmittedAt:       now.UTC(),
	}
	details := models.EventDetails{
		EventName:                  s.clean(req.EventName),
		EventDate:                  req.EventDate,
		TimeFrom:                   req.TimeFrom,
		TimeTo:                     req.TimeTo,
		Place:                      s.clean(req.Place),
		IsInsideUniversity:         req.IsInsideUniversity,
		LatePassRequired:           req.LatePassRequired,
		OutsidersInvited:           req.OutsidersInvited,
		FirstYearParticipation:     req.FirstYearParticipation,
		BudgetEstimate:             s.clean(req.BudgetEstimate),
		FundCollectionMethods:      s.clean(req.FundCollectionMethods),
		StudentFeeAmount:           s.clean(req.StudentFeeAmount),
		SeniorTreasurerName:        s.clean(req.SeniorTreasurerName),
		SeniorTreasurerDepartment:  s.clean(req.SeniorTreasurerDepartment),
		SeniorTreasurerMobile:      strings.TrimSpace(req.SeniorTreasurerMobile),
		PremisesOfficerName:        s.clean(req.PremisesOfficerName),
		PremisesOfficerDesignation: s.clean(req.PremisesOfficerDesignation),
		PremisesOfficerDivision:    s.clean(req.PremisesOfficerDivision),
		ReceiptNumber:              strings.TrimSpace(req.ReceiptNumber),
		PaymentDate:                req.PaymentDate,
	}
	if req.OutsidersInvited {
		details.OutsidersList = s.clean(req.OutsidersList)
	}
	if err := app.SetDetails(details); err != nil {
		return dto.SubmissionResponse{}, err
	}

	return s.store(ctx, &app)
}

// SubmitDraft turns a completed wizard draft into an application.
func (s *applicationService) SubmitDraft(ctx context.Context, kind models.ApplicationKind, draft wizard.Draft) (uint, error) {
	var (
		resp dto.SubmissionResponse
		err  error
	)
	switch kind {
	case models.KindRegistration:
		resp, err = s.SubmitRegistration(ctx, dto.RegistrationRequestFromDraft(draft))
	case models.KindRenewal:
		resp, err = s.SubmitRenewal(ctx, dto.RenewalRequestFromDraft(draft))
	case models.KindEvent:
		resp, err = s.SubmitEvent(ctx, dto.EventRequestFromDraft(draft))
	default:
		return 0, wizard.ErrUnknownKind
	}
	if err != nil {
		return 0, err
	}
	return resp.ID, nil
}

func (s *applicationService) Get(ctx context.Context, id uint) (dto.ApplicationResponse, error) {
	app, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ApplicationResponse{}, ErrApplicationNotFound
		}
		return dto.ApplicationResponse{}, err
	}
	return dto.NewApplicationResponse(app), nil
}

func (s *applicationService) List(ctx context.Context, req dto.ApplicationListRequest) (dto.ApplicationListResponse, error) {
	filter := repository.ApplicationFilter{
		Page:     normalizePage(req.Page),
		PageSize: clampPageSize(req.PageSize),
		Kind:     models.ApplicationKind(strings.ToLower(strings.TrimSpace(req.Kind))),
		Faculty:  strings.TrimSpace(req.Faculty),
		Year:     req.Year,
		Search:   strings.TrimSpace(req.Search),
		Sort:     strings.ToLower(strings.TrimSpace(req.Sort)),
	}
	if filter.Kind != "" && !filter.Kind.Valid() {
		return dto.ApplicationListResponse{}, &workflow.ValidationError{Field: "kind", Message: fmt.Sprintf("unknown kind %q", req.Kind)}
	}
	if status := strings.ToLower(strings.TrimSpace(req.Status)); status != "" {
		filter.Statuses = []models.ApplicationStatus{models.ApplicationStatus(status)}
	}

	return s.list(ctx, filter)
}

func (s *applicationService) list(ctx context.Context, filter repository.ApplicationFilter) (dto.ApplicationListResponse, error) {
	apps, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return dto.ApplicationListResponse{}, err
	}

	return dto.ApplicationListResponse{
		Items: dto.NewApplicationResponseSlice(apps),
		Pagination: dto.PaginationMeta{
			Page:       filter.Page,
			PageSize:   filter.PageSize,
			TotalItems: total,
			TotalPages: calculateTotalPages(total, filter.PageSize),
		},
	}, nil
}

func (s *applicationService) store(ctx context.Context, app *models.Application) (dto.SubmissionResponse, error) {
	spanCtx, span := s.tracer.Start(ctx, "applications.submit", trace.WithAttributes(
		attribute.String("application.kind", string(app.Kind)),
		attribute.String("application.reference_id", app.ReferenceID),
	))
	defer span.End()

	if err := s.repo.Create(spanCtx, app); err != nil {
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}

	if s.activity != nil {
		id := app.ID
		if _, err := s.activity.Record(spanCtx, ActivityEntry{
			ActorName:  app.ApplicantName,
			ActorRole:  "applicant",
			Action:     fmt.Sprintf("%s submitted", app.Kind),
			Target:     app.SocietyName,
			EntityType: "application",
			EntityID:   &id,
			Metadata: map[string]interface{}{
				"reference_id":    app.ReferenceID,
				"applicant_email": app.ApplicantEmail,
			},
		}); err != nil {
			s.logger.Warn().Err(err).Str("reference_id", app.ReferenceID).Msg("failed to record submission activity")
		}
	}

	if s.dashboard != nil {
		s.dashboard.Invalidate(spanCtx)
	}
	observability.ApplicationsSubmitted().WithLabelValues(string(app.Kind)).Inc()

	s.logger.Info().
		Str("reference_id", app.ReferenceID).
		Str("kind", string(app.Kind)).
		Str("applicant_email", maskEmailAddress(app.ApplicantEmail)).
		Msg("application submitted")

	return dto.SubmissionResponse{
		ID:          app.ID,
		ReferenceID: app.ReferenceID,
		Kind:        string(app.Kind),
		Status:      string(app.Status),
	}, nil
}

func (s *applicationService) newApplication(kind models.ApplicationKind, req dto.SocietyApplicationRequest, now time.Time) models.Application {
	return models.Application{
		ReferenceID:      referenceID(kind, now),
		Kind:             kind,
		Status:           workflow.InitialStatus(kind),
		ApplicantName:    s.clean(req.ApplicantFullName),
		ApplicantRegNo:   strings.TrimSpace(req.ApplicantRegNo),
		ApplicantEmail:   strings.ToLower(strings.TrimSpace(req.ApplicantEmail)),
		ApplicantFaculty: strings.TrimSpace(req.ApplicantFaculty),
		ApplicantMobile:  strings.TrimSpace(req.ApplicantMobile),
		SocietyName:      s.clean(req.SocietyName),
		Year:             now.Year(),
		SubmittedAt:      now.UTC(),
	}
}

func (s *applicationService) registrationDetails(req dto.SocietyApplicationRequest, aims string, board []dto.AdvisoryBoardRequest) models.RegistrationDetails {
	advisory := make([]models.AdvisoryBoardMember, 0, len(board))
	for _, member := range board {
		advisory = append(advisory, models.AdvisoryBoardMember{
			Name:        s.clean(member.Name),
			Designation: s.clean(member.Designation),
			Department:  s.clean(member.Department),
		})
	}

	return models.RegistrationDetails{
		Aims:        s.clean(aims),
		AGMDate:     req.AGMDate,
		BankAccount: strings.TrimSpace(req.BankAccount),
		BankName:    s.clean(req.BankName),
		SeniorTreasurer: models.ContactInfo{
			Title:       s.clean(req.SeniorTreasurer.Title),
			Name:        s.clean(req.SeniorTreasurer.Name),
			Designation: s.clean(req.SeniorTreasurer.Designation),
			Department:  s.clean(req.SeniorTreasurer.Department),
			Email:       strings.ToLower(strings.TrimSpace(req.SeniorTreasurer.Email)),
			Address:     s.clean(req.SeniorTreasurer.Address),
			Mobile:      strings.TrimSpace(req.SeniorTreasurer.Mobile),
		},
		AdvisoryBoard: advisory,
		Officials: models.Officials{
			President:       s.official(req.President),
			VicePresident:   s.official(req.VicePresident),
			Secretary:       s.official(req.Secretary),
			JointSecretary:  s.official(req.JointSecretary),
			JuniorTreasurer: s.official(req.JuniorTreasurer),
			Editor:          s.official(req.Editor),
		},
		CommitteeMembers: s.members(req.CommitteeMembers),
		Members:          s.members(req.Members),
		PlanningEvents:   s.activities(req.PlanningEvents),
	}
}

func (s *applicationService) official(req dto.OfficialRequest) models.ContactInfo {
	return models.ContactInfo{
		RegNo:   strings.TrimSpace(req.RegNo),
		Name:    s.clean(req.Name),
		Address: s.clean(req.Address),
		Email:   strings.ToLower(strings.TrimSpace(req.Email)),
		Mobile:  strings.TrimSpace(req.Mobile),
	}
}

func (s *applicationService) members(rows []dto.MemberRequest) []models.Member {
	out := make([]models.Member, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.Member{RegNo: strings.TrimSpace(row.RegNo), Name: s.clean(row.Name)})
	}
	return out
}

func (s *applicationService) activities(rows []dto.PlannedActivityRequest) []models.PlannedActivity {
	out := make([]models.PlannedActivity, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.PlannedActivity{Month: s.clean(row.Month), Activity: s.clean(row.Activity)})
	}
	return out
}

func (s *applicationService) clean(value string) string {
	return strings.TrimSpace(s.sanitizer.Sanitize(value))
}

func referenceID(kind models.ApplicationKind, now time.Time) string {
	prefix := map[models.ApplicationKind]string{
		models.KindRegistration: "REG",
		models.KindRenewal:      "REN",
		models.KindEvent:        "EVT",
	}[kind]
	return fmt.Sprintf("%s-%d-%s", prefix, now.Year(), strings.ToUpper(uuid.NewString()[:8]))
}
