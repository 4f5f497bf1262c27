package dto

import (
	"time"

	"github.com/noah-isme/society-api/internal/models"
)

// SocietyListRequest defines filters for the public society directory.
type SocietyListRequest struct {
	Page     int
	PageSize int
	Search   string
	Faculty  string
	Status   string
}

// SocietyResponse is the public view of a society.
type SocietyResponse struct {
	ID                  uint      `json:"id"`
	Name                string    `json:"name"`
	Aims                string    `json:"aims"`
	PrimaryFaculty      string    `json:"primary_faculty"`
	Website             string    `json:"website,omitempty"`
	SeniorTreasurerName string    `json:"senior_treasurer_name"`
	Status              string    `json:"status"`
	RegisteredAt        time.Time `json:"registered_at"`
	LastRenewalYear     int       `json:"last_renewal_year,omitempty"`
}

// SocietyListResponse wraps a page of societies.
type SocietyListResponse struct {
	Items      []SocietyResponse `json:"items"`
	Pagination PaginationMeta    `json:"pagination"`
}

// NewSocietyResponse converts a model into a DTO.
func NewSocietyResponse(society models.Society) SocietyResponse {
	return SocietyResponse{
		ID:                  society.ID,
		Name:                society.Name,
		Aims:                society.Aims,
		PrimaryFaculty:      society.PrimaryFaculty,
		Website:             society.Website,
		SeniorTreasurerName: society.SeniorTreasurerName,
		Status:              society.Status,
		RegisteredAt:        society.RegisteredAt,
		LastRenewalYear:     society.LastRenewalYear,
	}
}

// SocietyStatistics summarises the society directory and application pipeline.
type SocietyStatistics struct {
	TotalSocieties    int64            `json:"total_societies"`
	ActiveSocieties   int64            `json:"active_societies"`
	ByFaculty         map[string]int64 `json:"by_faculty"`
	ApplicationsByKey map[string]int64 `json:"applications_by_status"`
}

// EmailCheckRequest is the body of POST /api/validation/email.
type EmailCheckRequest struct {
	Email    string `json:"email"`
	Position string `json:"position"`
}

// MobileCheckRequest is the body of POST /api/validation/mobile.
type MobileCheckRequest struct {
	Mobile string `json:"mobile"`
}

// RegNoCheckRequest is the body of POST /api/validation/registration-number.
type RegNoCheckRequest struct {
	RegNo string `json:"reg_no"`
}

// BulkEmailCheckRequest is the body of POST /api/validation/bulk-emails.
type BulkEmailCheckRequest struct {
	Emails []string `json:"emails" validate:"required,min=1,max=500"`
}

// FieldCheckResponse reports a single field validation.
type FieldCheckResponse struct {
	IsValid bool   `json:"is_valid"`
	Error   string `json:"error,omitempty"`
}

// BulkEmailCheckResponse reports a bulk email validation.
type BulkEmailCheckResponse struct {
	TotalEmails   int      `json:"total_emails"`
	ValidEmails   int      `json:"valid_emails"`
	InvalidEmails []string `json:"invalid_emails"`
	IsAllValid    bool     `json:"is_all_valid"`
}
