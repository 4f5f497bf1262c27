package workflow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/society-api/internal/models"
)

func TestTransitionApproveAdvancesOneStage(t *testing.T) {
	cases := map[models.ApplicationStatus]models.ApplicationStatus{
		models.StatusPendingDean: models.StatusPendingAR,
		models.StatusPendingAR:   models.StatusPendingVC,
		models.StatusPendingVC:   models.StatusApproved,
	}

	for current, want := range cases {
		next, err := Transition(current, Approve, "")
		require.NoError(t, err, current)
		require.Equal(t, want, next)
		require.NotEqual(t, models.StatusRejected, next)
	}
}

func TestTransitionRejectFromAnyPendingState(t *testing.T) {
	for _, current := range PendingStatuses() {
		next, err := Transition(current, Reject, "incomplete documents")
		require.NoError(t, err)
		require.Equal(t, models.StatusRejected, next)
	}
}

func TestTransitionRejectRequiresReason(t *testing.T) {
	for _, reason := range []string{"", "   ", "\t\n"} {
		next, err := Transition(models.StatusPendingAR, Reject, reason)
		var validationErr *ValidationError
		require.True(t, errors.As(err, &validationErr))
		require.Equal(t, "reason", validationErr.Field)
		require.Equal(t, models.StatusPendingAR, next)
	}
}

func TestTransitionTerminalStatesAreImmutable(t *testing.T) {
	for _, current := range []models.ApplicationStatus{models.StatusApproved, models.StatusRejected} {
		for _, decision := range []Decision{Approve, Reject} {
			next, err := Transition(current, decision, "reason")
			var stateErr *InvalidStateError
			require.True(t, errors.As(err, &stateErr))
			require.Equal(t, current, next)
		}
	}
}

func TestTransitionApproveTwiceFails(t *testing.T) {
	status := models.StatusPendingVC
	status, err := Transition(status, Approve, "")
	require.NoError(t, err)
	require.Equal(t, models.StatusApproved, status)

	_, err = Transition(status, Approve, "")
	var stateErr *InvalidStateError
	require.ErrorAs(t, err, &stateErr)
	require.Contains(t, err.Error(), "already approved")
}

func TestTransitionUnknownInput(t *testing.T) {
	_, err := Transition("archived", Approve, "")
	var stateErr *InvalidStateError
	require.ErrorAs(t, err, &stateErr)

	_, err = Transition(models.StatusPendingAR, Decision("escalate"), "")
	require.ErrorAs(t, err, &stateErr)
}

func TestInitialStatus(t *testing.T) {
	require.Equal(t, models.StatusPendingDean, InitialStatus(models.KindRegistration))
	require.Equal(t, models.StatusPendingDean, InitialStatus(models.KindRenewal))
	require.Equal(t, models.StatusPendingAR, InitialStatus(models.KindEvent))
}

func TestParseDecision(t *testing.T) {
	d, err := ParseDecision(" APPROVE ")
	require.NoError(t, err)
	require.Equal(t, Approve, d)

	_, err = ParseDecision("maybe")
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestStageRole(t *testing.T) {
	require.Equal(t, models.RoleDean, StageRole(models.StatusPendingDean))
	require.Equal(t, models.RoleAssistantRegistrar, StageRole(models.StatusPendingAR))
	require.Equal(t, models.RoleViceChancellor, StageRole(models.StatusPendingVC))
	require.Empty(t, StageRole(models.StatusApproved))
}
