package dto

import (
	"time"

	"gorm.io/datatypes"

	"github.com/noah-isme/society-api/internal/models"
)

// ActivityListRequest defines filters for retrieving activity logs.
type ActivityListRequest struct {
	Page     int
	PageSize int
	User     string
	Action   string
}

// ActivityResponse serializes activity log entries.
type ActivityResponse struct {
	ID         uint                   `json:"id"`
	Action     string                 `json:"action"`
	Target     string                 `json:"target"`
	ActorID    uint                   `json:"actor_id"`
	ActorName  string                 `json:"actor_name"`
	ActorRole  string                 `json:"actor_role"`
	EntityType string                 `json:"entity_type,omitempty"`
	EntityID   *uint                  `json:"entity_id,omitempty"`
	Metadata   map[string]interface{} `json:"metadata"`
	Timestamp  time.Time              `json:"timestamp"`
}

// ActivityListResponse wraps paginated activity logs.
type ActivityListResponse struct {
	Items      []ActivityResponse `json:"items"`
	Pagination PaginationMeta     `json:"pagination"`
}

// NewActivityResponse converts a model into an activity DTO.
func NewActivityResponse(entry models.ActivityLog) ActivityResponse {
	return ActivityResponse{
		ID:         entry.ID,
		Action:     entry.Action,
		Target:     entry.Target,
		ActorID:    entry.ActorID,
		ActorName:  entry.ActorName,
		ActorRole:  entry.ActorRole,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Metadata:   metadataFromJSON(entry.Metadata),
		Timestamp:  entry.CreatedAt,
	}
}

func metadataFromJSON(data datatypes.JSONMap) map[string]interface{} {
	if data == nil {
		return map[string]interface{}{}
	}
	return map[string]interface{}(data)
}

// AdminUserCreateRequest captures the payload for adding an admin account.
type AdminUserCreateRequest struct {
	Name    string `json:"name" validate:"required,max=255"`
	Email   string `json:"email" validate:"required,email"`
	Role    string `json:"role" validate:"required,oneof=dean assistant_registrar vice_chancellor student_service"`
	Faculty string `json:"faculty" validate:"required_if=Role dean,max=128"`
}

// AdminUserRemoveRequest identifies the admin account to deactivate.
type AdminUserRemoveRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// AdminUserResponse serializes an admin account.
type AdminUserResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Faculty   string    `json:"faculty,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// NewAdminUserResponse converts a model into a DTO.
func NewAdminUserResponse(user models.AdminUser) AdminUserResponse {
	return AdminUserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		Faculty:   user.Faculty,
		Active:    user.Active,
		CreatedAt: user.CreatedAt,
	}
}

// UpcomingEvent is an approved event that has not happened yet.
type UpcomingEvent struct {
	ID          uint   `json:"id"`
	EventName   string `json:"event_name"`
	EventDate   string `json:"event_date"`
	Place       string `json:"place"`
	SocietyName string `json:"society_name"`
}

// AdminInfo describes the signed-in admin.
type AdminInfo struct {
	ID      uint   `json:"id"`
	Name    string `json:"name"`
	Role    string `json:"role"`
	Faculty string `json:"faculty,omitempty"`
}

// DashboardResponse aggregates the admin overview.
type DashboardResponse struct {
	TotalSocieties           int64           `json:"total_societies"`
	ActiveSocieties          int64           `json:"active_societies"`
	CurrentYearRegistrations int64           `json:"current_year_registrations"`
	CurrentYearRenewals      int64           `json:"current_year_renewals"`
	PendingApprovals         int64           `json:"pending_approvals"`
	UpcomingEvents           []UpcomingEvent `json:"upcoming_events"`
	Tabs                     []string        `json:"tabs"`
	AdminInfo                AdminInfo       `json:"admin_info"`
	GeneratedAt              time.Time       `json:"generated_at"`
	CacheHit                 bool            `json:"cache_hit"`
}
