package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/society-api/internal/dto"
	"github.com/noah-isme/society-api/internal/models"
	"github.com/noah-isme/society-api/internal/policy"
	"github.com/noah-isme/society-api/internal/repository"
	"github.com/noah-isme/society-api/internal/workflow"
)

type recordingNotifier struct {
	events []DecisionEvent
	err    error
}

func (r *recordingNotifier) Notify(ctx context.Context, event DecisionEvent) error {
	r.events = append(r.events, event)
	return r.err
}

var (
	engineeringDean = policy.Actor{ID: 10, Name: "Dean Engineering", Role: "DEAN", Faculty: "faculty of engineering "}
	artsDean        = policy.Actor{ID: 11, Name: "Dean Arts", Role: models.RoleDean, Faculty: "Faculty of Arts"}
	registrar       = policy.Actor{ID: 20, Name: "AR Silva", Role: "ASSISTANT_REGISTRAR"}
	chancellor      = policy.Actor{ID: 30, Name: "VC Jayasinghe", Role: models.RoleViceChancellor}
	studentService  = policy.Actor{ID: 40, Name: "Student Service", Role: models.RoleStudentService}
)

type approvalFixture struct {
	db        *gorm.DB
	apps      ApplicationService
	svc       ApprovalService
	notifier  *recordingNotifier
	dashboard *countingInvalidator
}

func newApprovalFixture(t *testing.T) approvalFixture {
	t.Helper()
	fx := newApplicationFixture(t)
	notifier := &recordingNotifier{}
	svc := NewApprovalService(
		repository.NewApplicationRepository(fx.db),
		repository.NewSocietyRepository(fx.db),
		notifier,
		fx.dashboard,
		testLogger(),
	)
	svc.(*approvalService).now = fixedClock
	return approvalFixture{db: fx.db, apps: fx.svc, svc: svc, notifier: notifier, dashboard: fx.dashboard}
}

func (fx approvalFixture) activityActions(t *testing.T, id uint) []string {
	t.Helper()
	var logs []models.ActivityLog
	require.NoError(t, fx.db.Where("entity_id = ?", id).Order("id ASC").Find(&logs).Error)
	actions := make([]string, 0, len(logs))
	for _, log := range logs {
		actions = append(actions, log.Action)
	}
	return actions
}

func TestRegistrationApprovalChain(t *testing.T) {
	fx := newApprovalFixture(t)
	ctx := context.Background()

	submitted, err := fx.apps.SubmitRegistration(ctx, validRegistration("Robotics Society", "Faculty of Engineering"))
	require.NoError(t, err)

	resp, err := fx.svc.Decide(ctx, engineeringDean, submitted.ID, models.KindRegistration, workflow.Approve, "")
	require.NoError(t, err)
	require.Equal(t, string(models.StatusPendingAR), resp.Application.Status)
	require.Equal(t, string(models.StatusPendingDean), resp.PreviousStatus)
	require.NotNil(t, resp.Application.DeanApprovedAt)
	require.Equal(t, "registration approved", resp.Activity.Action)
	require.Equal(t, "Dean Engineering", resp.Activity.ActorName)
	require.Equal(t, models.RoleDean, resp.Activity.ActorRole)
	require.Equal(t, testNow, resp.Activity.Timestamp)
	require.Equal(t, []string{"registration approved"}, fx.activityActions(t, submitted.ID))

	resp, err = fx.svc.Decide(ctx, registrar, submitted.ID, models.KindRegistration, workflow.Approve, "")
	require.NoError(t, err)
	require.Equal(t, string(models.StatusPendingVC), resp.Application.Status)

	resp, err = fx.svc.Decide(ctx, chancellor, submitted.ID, models.KindRegistration, workflow.Approve, "")
	require.NoError(t, err)
	require.Equal(t, string(models.StatusApproved), resp.Application.Status)
	require.NotNil(t, resp.Application.ApprovedAt)

	var society models.Society
	require.NoError(t, fx.db.Where("name = ?", "Robotics Society").First(&society).Error)
	require.Equal(t, models.SocietyStatusActive, society.Status)
	require.Equal(t, "Faculty of Engineering", society.PrimaryFaculty)
	require.Equal(t, "Dr. Silva", society.SeniorTreasurerName)
	require.NotNil(t, society.RegistrationID)

	_, err = fx.svc.Decide(ctx, chancellor, submitted.ID, models.KindRegistration, workflow.Approve, "")
	var stateErr *workflow.InvalidStateError
	require.ErrorAs(t, err, &stateErr)
	require.Equal(t, models.StatusApproved, stateErr.Status)

	require.Len(t, fx.activityActions(t, submitted.ID), 3)
	require.Len(t, fx.notifier.events, 3)
	require.Equal(t, string(models.StatusApproved), fx.notifier.events[2].Status)
}

func TestRejectRequiresReasonAndIsFinal(t *testing.T) {
	fx := newApprovalFixture(t)
	ctx := context.Background()

	submitted, err := fx.apps.SubmitEvent(ctx, validEvent("Robotics Society"))
	require.NoError(t, err)

	_, err = fx.svc.Decide(ctx, registrar, submitted.ID, models.KindEvent, workflow.Reject, "   ")
	var fieldErr *workflow.ValidationError
	require.ErrorAs(t, err, &fieldErr)
	require.Empty(t, fx.activityActions(t, submitted.ID))

	resp, err := fx.svc.Decide(ctx, registrar, submitted.ID, models.KindEvent, workflow.Reject, "incomplete documents")
	require.NoError(t, err)
	require.Equal(t, string(models.StatusRejected), resp.Application.Status)
	require.Equal(t, "incomplete documents", resp.Application.RejectionReason)
	require.Equal(t, []string{"event rejected"}, fx.activityActions(t, submitted.ID))

	for _, actor := range []policy.Actor{registrar, chancellor, studentService} {
		for _, decision := range []workflow.Decision{workflow.Approve, workflow.Reject} {
			_, err = fx.svc.Decide(ctx, actor, submitted.ID, models.KindEvent, decision, "again")
			var stateErr *workflow.InvalidStateError
			require.ErrorAs(t, err, &stateErr, "terminal state is reported before authorization")
		}
	}
}

func TestDecideEnforcesRoleAndFaculty(t *testing.T) {
	fx := newApprovalFixture(t)
	ctx := context.Background()

	submitted, err := fx.apps.SubmitRegistration(ctx, validRegistration("Robotics Society", "Faculty of Engineering"))
	require.NoError(t, err)

	for _, actor := range []policy.Actor{artsDean, registrar, chancellor, studentService} {
		_, err = fx.svc.Decide(ctx, actor, submitted.ID, models.KindRegistration, workflow.Approve, "")
		var authErr *policy.AuthorizationError
		require.ErrorAs(t, err, &authErr, "role %s", actor.Role)
	}

	var stored models.Application
	require.NoError(t, fx.db.First(&stored, submitted.ID).Error)
	require.Equal(t, models.StatusPendingDean, stored.Status)
	require.Empty(t, fx.activityActions(t, submitted.ID))
	require.Empty(t, fx.notifier.events)
}

func TestDecideChecksRouteKind(t *testing.T) {
	fx := newApprovalFixture(t)
	ctx := context.Background()

	submitted, err := fx.apps.SubmitEvent(ctx, validEvent("Robotics Society"))
	require.NoError(t, err)

	_, err = fx.svc.Decide(ctx, registrar, submitted.ID, models.KindRegistration, workflow.Approve, "")
	require.ErrorIs(t, err, ErrApplicationNotFound)

	_, err = fx.svc.Decide(ctx, registrar, 404, "", workflow.Approve, "")
	require.ErrorIs(t, err, ErrApplicationNotFound)

	resp, err := fx.svc.Decide(ctx, registrar, submitted.ID, "", workflow.Approve, "")
	require.NoError(t, err)
	require.Equal(t, string(models.StatusPendingVC), resp.Application.Status)
}

func TestRenewalApprovalRefreshesSociety(t *testing.T) {
	fx := newApprovalFixture(t)
	ctx := context.Background()

	existing := models.Society{Name: "Robotics Society", Aims: "old aims", Status: models.SocietyStatusInactive, RegisteredAt: testNow.AddDate(-3, 0, 0)}
	require.NoError(t, fx.db.Create(&existing).Error)

	submitted, err := fx.apps.SubmitRenewal(ctx, validRenewal("robotics society", "Faculty of Engineering"))
	require.NoError(t, err)

	for _, actor := range []policy.Actor{engineeringDean, registrar, chancellor} {
		_, err = fx.svc.Decide(ctx, actor, submitted.ID, models.KindRenewal, workflow.Approve, "")
		require.NoError(t, err)
	}

	var societies []models.Society
	require.NoError(t, fx.db.Find(&societies).Error)
	require.Len(t, societies, 1)
	require.Equal(t, existing.ID, societies[0].ID)
	require.Equal(t, models.SocietyStatusActive, societies[0].Status)
	require.Equal(t, 2025, societies[0].LastRenewalYear)
	require.Equal(t, "Keep building robots", societies[0].Aims)
	require.Equal(t, "https://robotics.example.org", societies[0].Website)
}

func TestNotifierFailureDoesNotUndoDecision(t *testing.T) {
	fx := newApprovalFixture(t)
	fx.notifier.err = errors.New("broker down")
	ctx := context.Background()

	submitted, err := fx.apps.SubmitEvent(ctx, validEvent("Robotics Society"))
	require.NoError(t, err)

	resp, err := fx.svc.Decide(ctx, registrar, submitted.ID, models.KindEvent, workflow.Approve, "")
	require.NoError(t, err)
	require.Equal(t, string(models.StatusPendingVC), resp.Application.Status)
	require.Len(t, fx.notifier.events, 1)
}

func TestPendingIsScopedToActor(t *testing.T) {
	fx := newApprovalFixture(t)
	ctx := context.Background()

	_, err := fx.apps.SubmitRegistration(ctx, validRegistration("Robotics Society", "Faculty of Engineering"))
	require.NoError(t, err)
	_, err = fx.apps.SubmitRegistration(ctx, validRegistration("Drama Circle", "Faculty of Arts"))
	require.NoError(t, err)
	_, err = fx.apps.SubmitEvent(ctx, validEvent("Robotics Society"))
	require.NoError(t, err)

	resp, err := fx.svc.Pending(ctx, engineeringDean, dto.ApplicationListRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	require.Equal(t, "Robotics Society", resp.Items[0].SocietyName)

	resp, err = fx.svc.Pending(ctx, registrar, dto.ApplicationListRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	require.Equal(t, string(models.KindEvent), resp.Items[0].Kind)

	resp, err = fx.svc.Pending(ctx, studentService, dto.ApplicationListRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Items, 3)

	resp, err = fx.svc.Pending(ctx, policy.Actor{Role: models.RoleDean}, dto.ApplicationListRequest{})
	require.NoError(t, err)
	require.Empty(t, resp.Items)

	_, err = fx.svc.Pending(ctx, policy.Actor{Role: models.RoleTestUser}, dto.ApplicationListRequest{})
	require.ErrorIs(t, err, ErrNoQueue)
}
