package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/society-api/internal/dto"
	"github.com/noah-isme/society-api/internal/models"
	"github.com/noah-isme/society-api/internal/observability"
	"github.com/noah-isme/society-api/internal/policy"
	"github.com/noah-isme/society-api/internal/repository"
	"github.com/noah-isme/society-api/internal/workflow"
)

// ErrNoQueue indicates the actor's role has no approval queue.
var ErrNoQueue = errors.New("role has no approval queue")

// ApprovalService applies approve and reject decisions.
type ApprovalService interface {
	Decide(ctx context.Context, actor policy.Actor, id uint, kind models.ApplicationKind, decision workflow.Decision, reason string) (dto.DecisionResponse, error)
	Pending(ctx context.Context, actor policy.Actor, req dto.ApplicationListRequest) (dto.ApplicationListResponse, error)
}

type approvalService struct {
	apps      repository.ApplicationRepository
	societies repository.SocietyRepository
	notifier  DecisionNotifier
	dashboard DashboardInvalidator
	sanitizer *bluemonday.Policy
	tracer    trace.Tracer
	logger    zerolog.Logger
	now       func() time.Time
}

// NewApprovalService constructs the approval workflow service.
func NewApprovalService(apps repository.ApplicationRepository, societies repository.SocietyRepository, notifier DecisionNotifier, dashboard DashboardInvalidator, logger zerolog.Logger) ApprovalService {
	return &approvalService{
		apps:      apps,
		societies: societies,
		notifier:  notifier,
		dashboard: dashboard,
		sanitizer: bluemonday.StrictPolicy(),
		tracer:    otel.Tracer("github.com/noah-isme/society-api/internal/service/approval"),
		logger:    logger.With().Str("component", "approval_service").Logger(),
		now:       time.Now,
	}
}

// Decide loads the application, checks the state and the actor, applies the
// transition and records it. kind may be empty to accept any kind.
func (s *approvalService) Decide(ctx context.Context, actor policy.Actor, id uint, kind models.ApplicationKind, decision workflow.Decision, reason string) (dto.DecisionResponse, error) {
	spanCtx, span := s.tracer.Start(ctx, "applications.decide", trace.WithAttributes(
		attribute.Int64("application.id", int64(id)),
		attribute.String("application.decision", string(decision)),
		attribute.String("actor.role", actor.Role),
	))
	defer span.End()

	app, err := s.apps.GetByID(spanCtx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DecisionResponse{}, ErrApplicationNotFound
		}
		span.RecordError(err)
		return dto.DecisionResponse{}, err
	}
	if kind != "" && app.Kind != kind {
		return dto.DecisionResponse{}, ErrApplicationNotFound
	}

	if workflow.IsTerminal(app.Status) {
		return dto.DecisionResponse{}, &workflow.InvalidStateError{Status: app.Status, Decision: decision}
	}

	if err := policy.Authorize(actor, app); err != nil {
		s.logger.Warn().
			Uint("application_id", app.ID).
			Str("role", actor.Role).
			Str("status", string(app.Status)).
			Msg("unauthorized decision attempt")
		return dto.DecisionResponse{}, err
	}

	reason = strings.TrimSpace(s.sanitizer.Sanitize(reason))
	next, err := workflow.Transition(app.Status, decision, reason)
	if err != nil {
		return dto.DecisionResponse{}, err
	}

	now := s.now().UTC()
	previous := app.Status
	stamp(&app, previous, next, reason, now)

	society, err := s.societyFor(spanCtx, app, next, now)
	if err != nil {
		span.RecordError(err)
		return dto.DecisionResponse{}, err
	}

	appID := app.ID
	entry, err := buildActivityLog(ActivityEntry{
		ActorID:    actor.ID,
		ActorName:  actor.Name,
		ActorRole:  policy.ParseRole(actor.Role),
		Action:     activityAction(app.Kind, decision),
		Target:     app.SocietyName,
		EntityType: "application",
		EntityID:   &appID,
		Metadata: map[string]interface{}{
			"reference_id":    app.ReferenceID,
			"previous_status": string(previous),
			"status":          string(next),
			"reason":          reason,
		},
	}, now)
	if err != nil {
		return dto.DecisionResponse{}, err
	}

	if err := s.apps.ApplyDecision(spanCtx, repository.Decision{
		Application:    &app,
		PreviousStatus: previous,
		Activity:       &entry,
		Society:        society,
	}); err != nil {
		if errors.Is(err, repository.ErrStatusChanged) {
			current, getErr := s.apps.GetByID(spanCtx, id)
			if getErr == nil {
				return dto.DecisionResponse{}, &workflow.InvalidStateError{Status: current.Status, Decision: decision}
			}
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist decision")
		s.logger.Error().Err(err).Uint("application_id", app.ID).Msg("failed to persist decision")
		return dto.DecisionResponse{}, err
	}

	observability.ApplicationDecisions().WithLabelValues(string(app.Kind), string(decision), string(next)).Inc()
	if s.dashboard != nil {
		s.dashboard.Invalidate(spanCtx)
	}
	if s.notifier != nil {
		if err := s.notifier.Notify(spanCtx, DecisionEvent{
			ApplicationID:  app.ID,
			ReferenceID:    app.ReferenceID,
			Kind:           string(app.Kind),
			SocietyName:    app.SocietyName,
			ApplicantName:  app.ApplicantName,
			ApplicantEmail: app.ApplicantEmail,
			PreviousStatus: string(previous),
			Status:         string(next),
			Decision:       string(decision),
			Reason:         reason,
			ActorName:      entry.ActorName,
			ActorRole:      entry.ActorRole,
			DecidedAt:      now,
		}); err != nil {
			s.logger.Warn().Err(err).Str("reference_id", app.ReferenceID).Msg("failed to notify decision")
		}
	}

	s.logger.Info().
		Uint("application_id", app.ID).
		Str("kind", string(app.Kind)).
		Str("from", string(previous)).
		Str("to", string(next)).
		Str("actor_role", entry.ActorRole).
		Msg("application decision applied")

	return dto.DecisionResponse{
		Application:    dto.NewApplicationResponse(app),
		PreviousStatus: string(previous),
		Activity:       dto.NewActivityResponse(entry),
	}, nil
}

// Pending lists the applications waiting on the actor. Deans only see their own faculty.
func (s *approvalService) Pending(ctx context.Context, actor policy.Actor, req dto.ApplicationListRequest) (dto.ApplicationListResponse, error) {
	statuses := policy.QueueStatuses(actor)
	if len(statuses) == 0 {
		return dto.ApplicationListResponse{}, ErrNoQueue
	}

	filter := repository.ApplicationFilter{
		Page:     normalizePage(req.Page),
		PageSize: clampPageSize(req.PageSize),
		Kind:     models.ApplicationKind(strings.ToLower(strings.TrimSpace(req.Kind))),
		Statuses: statuses,
		Search:   strings.TrimSpace(req.Search),
		Sort:     strings.ToLower(strings.TrimSpace(req.Sort)),
		Year:     req.Year,
	}
	if policy.ParseRole(actor.Role) == models.RoleDean {
		if strings.TrimSpace(actor.Faculty) == "" {
			return dto.ApplicationListResponse{Items: []dto.ApplicationResponse{}, Pagination: dto.PaginationMeta{Page: filter.Page, PageSize: filter.PageSize, TotalPages: 1}}, nil
		}
		filter.Faculty = actor.Faculty
	}
	if status := strings.ToLower(strings.TrimSpace(req.Status)); status != "" && policy.ParseRole(actor.Role) == models.RoleStudentService {
		filter.Statuses = []models.ApplicationStatus{models.ApplicationStatus(status)}
	}

	apps, total, err := s.apps.List(ctx, filter)
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

// societyFor returns the society row to write alongside a final approval, or nil.
func (s *approvalService) societyFor(ctx context.Context, app models.Application, next models.ApplicationStatus, now time.Time) (*models.Society, error) {
	if next != models.StatusApproved || app.Kind == models.KindEvent {
		return nil, nil
	}

	society, err := s.societies.FindByName(ctx, app.SocietyName)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		society = models.Society{Name: app.SocietyName, RegisteredAt: now}
	case err != nil:
		return nil, err
	}

	var details models.RegistrationDetails
	if app.Kind == models.KindRenewal {
		renewal, err := app.RenewalDetails()
		if err != nil {
			return nil, fmt.Errorf("decode renewal details: %w", err)
		}
		details = renewal.RegistrationDetails
		if renewal.Website != "" {
			society.Website = renewal.Website
		}
		society.LastRenewalYear = app.Year
	} else {
		registration, err := app.RegistrationDetails()
		if err != nil {
			return nil, fmt.Errorf("decode registration details: %w", err)
		}
		details = registration
		id := app.ID
		society.RegistrationID = &id
	}

	if details.Aims != "" {
		society.Aims = details.Aims
	}
	if app.ApplicantFaculty != "" {
		society.PrimaryFaculty = app.ApplicantFaculty
	}
	society.AGMDate = details.AGMDate
	society.BankAccount = details.BankAccount
	society.BankName = details.BankName
	society.SeniorTreasurerName = strings.TrimSpace(details.SeniorTreasurer.Title + " " + details.SeniorTreasurer.Name)
	society.SeniorTreasurerMail = details.SeniorTreasurer.Email
	society.Status = models.SocietyStatusActive
	society.DeactivatedAt = nil

	return &society, nil
}

// stamp records the decision on the application in memory.
func stamp(app *models.Application, previous, next models.ApplicationStatus, reason string, now time.Time) {
	app.Status = next
	app.UpdatedAt = now

	if next == models.StatusRejected {
		app.RejectionReason = reason
		return
	}

	switch previous {
	case models.StatusPendingDean:
		app.DeanApprovedAt = &now
	case models.StatusPendingAR:
		app.ARApprovedAt = &now
	case models.StatusPendingVC:
		app.VCApprovedAt = &now
	}
	if next == models.StatusApproved {
		app.ApprovedAt = &now
	}
}

func activityAction(kind models.ApplicationKind, decision workflow.Decision) string {
	verb := "approved"
	if decision == workflow.Reject {
		verb = "rejected"
	}
	return fmt.Sprintf("%s %s", kind, verb)
}
