// Package workflow implements the approval state machine shared by
// registrations, renewals and event permissions.
//
//	pending_dean --approve--> pending_ar --approve--> pending_vc --approve--> approved
//	any pending  --reject-->  rejected
//
// approved and rejected are terminal.
package workflow

import (
	"fmt"
	"strings"

	"github.com/noah-isme/society-api/internal/models"
)

// Decision is the reviewer's verdict on the current stage.
type Decision string

// Supported decisions.
const (
	Approve Decision = "approve"
	Reject  Decision = "reject"
)

// ParseDecision normalises a decision string.
func ParseDecision(value string) (Decision, error) {
	switch Decision(strings.ToLower(strings.TrimSpace(value))) {
	case Approve:
		return Approve, nil
	case Reject:
		return Reject, nil
	}
	return "", &ValidationError{Field: "decision", Message: fmt.Sprintf("unknown decision %q", value)}
}

// ValidationError reports missing or malformed input to a transition.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// InvalidStateError reports a transition requested from a status that has none.
type InvalidStateError struct {
	Status   models.ApplicationStatus
	Decision Decision
}

func (e *InvalidStateError) Error() string {
	if IsTerminal(e.Status) {
		return fmt.Sprintf("application is already %s", e.Status)
	}
	return fmt.Sprintf("cannot %s application in status %q", e.Decision, e.Status)
}

var approveNext = map[models.ApplicationStatus]models.ApplicationStatus{
	models.StatusPendingDean: models.StatusPendingAR,
	models.StatusPendingAR:   models.StatusPendingVC,
	models.StatusPendingVC:   models.StatusApproved,
}

// Transition returns the status that follows current under decision.
// A reject requires a non-blank reason.
func Transition(current models.ApplicationStatus, decision Decision, reason string) (models.ApplicationStatus, error) {
	if !IsPending(current) {
		return current, &InvalidStateError{Status: current, Decision: decision}
	}

	switch decision {
	case Approve:
		return approveNext[current], nil
	case Reject:
		if strings.TrimSpace(reason) == "" {
			return current, &ValidationError{Field: "reason", Message: "rejection reason is required"}
		}
		return models.StatusRejected, nil
	default:
		return current, &InvalidStateError{Status: current, Decision: decision}
	}
}

// InitialStatus is the entry stage for a new application of the given kind.
// Event permissions skip the dean.
func InitialStatus(kind models.ApplicationKind) models.ApplicationStatus {
	if kind == models.KindEvent {
		return models.StatusPendingAR
	}
	return models.StatusPendingDean
}

// IsPending reports whether the status still awaits a decision.
func IsPending(status models.ApplicationStatus) bool {
	_, ok := approveNext[status]
	return ok
}

// IsTerminal reports whether no further transition is possible.
func IsTerminal(status models.ApplicationStatus) bool {
	return status == models.StatusApproved || status == models.StatusRejected
}

// StageRole returns the admin role responsible for a pending stage, or "".
func StageRole(status models.ApplicationStatus) string {
	switch status {
	case models.StatusPendingDean:
		return models.RoleDean
	case models.StatusPendingAR:
		return models.RoleAssistantRegistrar
	case models.StatusPendingVC:
		return models.RoleViceChancellor
	}
	return ""
}

// PendingStatuses lists the non-terminal statuses in pipeline order.
func PendingStatuses() []models.ApplicationStatus {
	return []models.ApplicationStatus{models.StatusPendingDean, models.StatusPendingAR, models.StatusPendingVC}
}
