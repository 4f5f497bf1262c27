// Package policy decides which admin may act on which application and which
// dashboard tabs each role sees.
package policy

import (
	"fmt"
	"strings"

	"github.com/noah-isme/society-api/internal/models"
	"github.com/noah-isme/society-api/internal/workflow"
)

// Actor is the authenticated admin performing an action.
type Actor struct {
	ID      uint
	Name    string
	Role    string
	Faculty string
}

// Tab identifiers for the admin dashboard.
type Tab string

// Dashboard tabs.
const (
	TabOverview      Tab = "overview"
	TabDeanQueue     Tab = "dean_approvals"
	TabARQueue       Tab = "ar_approvals"
	TabVCQueue       Tab = "vc_approvals"
	TabMonitoring    Tab = "monitoring"
	TabSocieties     Tab = "societies"
	TabEvents        Tab = "events"
	TabActivityLogs  Tab = "activity_logs"
	TabAdminAccounts Tab = "admin_accounts"
)

var roleTabs = map[string][]Tab{
	models.RoleDean:               {TabOverview, TabDeanQueue, TabSocieties, TabEvents},
	models.RoleAssistantRegistrar: {TabOverview, TabARQueue, TabSocieties, TabEvents, TabActivityLogs, TabAdminAccounts},
	models.RoleViceChancellor:     {TabOverview, TabVCQueue, TabSocieties, TabEvents},
	models.RoleStudentService:     {TabOverview, TabMonitoring, TabSocieties, TabEvents, TabActivityLogs},
	models.RoleTestUser:           {TabOverview},
}

// AuthorizationError reports that the actor may not act on the record.
type AuthorizationError struct {
	Role   string
	Status models.ApplicationStatus
	Reason string
}

func (e *AuthorizationError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return fmt.Sprintf("role %q cannot act on applications in status %q", e.Role, e.Status)
}

// ParseRole normalises role strings such as "ASSISTANT_REGISTRAR" or "ROLE_DEAN".
// Unknown roles return "".
func ParseRole(value string) string {
	role := strings.ToLower(strings.TrimSpace(value))
	role = strings.TrimPrefix(role, "role_")
	if _, ok := roleTabs[role]; ok {
		return role
	}
	return ""
}

// CanAct reports whether actor may approve or reject record in its current status.
func CanAct(actor Actor, record models.Application) bool {
	return Authorize(actor, record) == nil
}

// Authorize is CanAct with an explanation.
func Authorize(actor Actor, record models.Application) error {
	role := ParseRole(actor.Role)
	stageRole := workflow.StageRole(record.Status)
	if role == "" || stageRole == "" || role != stageRole {
		return &AuthorizationError{Role: actor.Role, Status: record.Status}
	}

	if role == models.RoleDean && !SameFaculty(actor.Faculty, record.ApplicantFaculty) {
		return &AuthorizationError{
			Role:   actor.Role,
			Status: record.Status,
			Reason: fmt.Sprintf("dean is not authorized for faculty %q", record.ApplicantFaculty),
		}
	}

	return nil
}

// SameFaculty compares faculty names ignoring case and surrounding space.
// A blank faculty never matches.
func SameFaculty(a, b string) bool {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	return a != "" && strings.EqualFold(a, b)
}

// Tabs returns the dashboard tabs visible to the actor.
func Tabs(actor Actor) []Tab {
	tabs := roleTabs[ParseRole(actor.Role)]
	return append([]Tab(nil), tabs...)
}

// CanSeeTab reports whether tab is visible to the actor.
func CanSeeTab(actor Actor, tab Tab) bool {
	for _, t := range roleTabs[ParseRole(actor.Role)] {
		if t == tab {
			return true
		}
	}
	return false
}

// CanManageAdmins reports whether the actor may add or deactivate admin accounts.
func CanManageAdmins(actor Actor) bool {
	return ParseRole(actor.Role) == models.RoleAssistantRegistrar
}

// QueueStatuses returns the statuses the actor reviews. Student service monitors
// every status; roles without a queue get nil.
func QueueStatuses(actor Actor) []models.ApplicationStatus {
	switch ParseRole(actor.Role) {
	case models.RoleDean:
		return []models.ApplicationStatus{models.StatusPendingDean}
	case models.RoleAssistantRegistrar:
		return []models.ApplicationStatus{models.StatusPendingAR}
	case models.RoleViceChancellor:
		return []models.ApplicationStatus{models.StatusPendingVC}
	case models.RoleStudentService:
		return []models.ApplicationStatus{
			models.StatusPendingDean, models.StatusPendingAR, models.StatusPendingVC,
			models.StatusApproved, models.StatusRejected,
		}
	}
	return nil
}
