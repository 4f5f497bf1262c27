package dto

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/society-api/internal/models"
)

// PaginationMeta captures pagination metadata for list responses.
type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// OfficialRequest is a student office bearer.
type OfficialRequest struct {
	RegNo   string `json:"reg_no" validate:"required,reg_no"`
	Name    string `json:"name" validate:"required,max=255"`
	Address string `json:"address" validate:"required,max=500"`
	Email   string `json:"email" validate:"required,lk_email"`
	Mobile  string `json:"mobile" validate:"required,lk_mobile"`
}

// SeniorTreasurerRequest is the staff treasurer of a society.
type SeniorTreasurerRequest struct {
	Title       string `json:"title" validate:"required,max=32"`
	Name        string `json:"name" validate:"required,max=255"`
	Designation string `json:"designation" validate:"required,max=128"`
	Department  string `json:"department" validate:"required,max=128"`
	Email       string `json:"email" validate:"required,lk_email"`
	Address     string `json:"address" validate:"required,max=500"`
	Mobile      string `json:"mobile" validate:"required,lk_mobile"`
}

// AdvisoryBoardRequest is one advisory board row.
type AdvisoryBoardRequest struct {
	Name        string `json:"name" validate:"required"`
	Designation string `json:"designation"`
	Department  string `json:"department"`
}

// MemberRequest is one member or committee member row.
type MemberRequest struct {
	RegNo string `json:"reg_no" validate:"required,reg_no"`
	Name  string `json:"name" validate:"required"`
}

// PlannedActivityRequest is one planned or previous activity row.
type PlannedActivityRequest struct {
	Month    string `json:"month" validate:"required"`
	Activity string `json:"activity" validate:"required"`
}

// SocietyApplicationRequest holds the fields shared by registrations and renewals.
type SocietyApplicationRequest struct {
	ApplicantFullName string                   `json:"applicant_full_name" validate:"required,max=255"`
	ApplicantRegNo    string                   `json:"applicant_reg_no" validate:"required,reg_no"`
	ApplicantEmail    string                   `json:"applicant_email" validate:"required,lk_email"`
	ApplicantFaculty  string                   `json:"applicant_faculty" validate:"required,max=128"`
	ApplicantMobile   string                   `json:"applicant_mobile" validate:"required,lk_mobile"`
	SocietyName       string                   `json:"society_name" validate:"required,max=255"`
	AGMDate           string                   `json:"agm_date" validate:"required,datetime=2006-01-02"`
	BankAccount       string                   `json:"bank_account" validate:"omitempty,max=64"`
	BankName          string                   `json:"bank_name" validate:"omitempty,max=128"`
	SeniorTreasurer   SeniorTreasurerRequest   `json:"senior_treasurer"`
	President         OfficialRequest          `json:"president"`
	VicePresident     OfficialRequest          `json:"vice_president"`
	Secretary         OfficialRequest          `json:"secretary"`
	JointSecretary    OfficialRequest          `json:"joint_secretary"`
	JuniorTreasurer   OfficialRequest          `json:"junior_treasurer"`
	Editor            OfficialRequest          `json:"editor"`
	CommitteeMembers  []MemberRequest          `json:"committee_members" validate:"min=1,dive"`
	Members           []MemberRequest          `json:"members" validate:"min=1,dive"`
	PlanningEvents    []PlannedActivityRequest `json:"planning_events" validate:"min=1,dive"`
}

// RegistrationRequest is the payload of POST /api/societies/register.
type RegistrationRequest struct {
	SocietyApplicationRequest
	Aims          string                 `json:"aims" validate:"required,max=5000"`
	AdvisoryBoard []AdvisoryBoardRequest `json:"advisory_board" validate:"min=1,dive"`
}

// RenewalRequest is the payload of POST /api/renewals/submit.
type RenewalRequest struct {
	SocietyApplicationRequest
	Aims               string                   `json:"aims" validate:"omitempty,max=5000"`
	AdvisoryBoard      []AdvisoryBoardRequest   `json:"advisory_board" validate:"dive"`
	PreviousActivities []PlannedActivityRequest `json:"previous_activities" validate:"min=1,dive"`
	Difficulties       string                   `json:"difficulties" validate:"required,max=5000"`
	Website            string                   `json:"website" validate:"omitempty,url"`
}

// EventRequest is the payload of POST /api/events/request.
type EventRequest struct {
	SocietyName                string `json:"society_name" validate:"required,max=255"`
	ApplicantName              string `json:"applicant_name" validate:"required,max=255"`
	ApplicantRegNo             string `json:"applicant_reg_no" validate:"required,reg_no"`
	ApplicantEmail             string `json:"applicant_email" validate:"required,lk_email"`
	ApplicantPosition          string `json:"applicant_position" validate:"required,max=128"`
	ApplicantMobile            string `json:"applicant_mobile" validate:"required,lk_mobile"`
	ApplicantFaculty           string `json:"applicant_faculty" validate:"omitempty,max=128"`
	EventName                  string `json:"event_name" validate:"required,max=255"`
	EventDate                  string `json:"event_date" validate:"required,datetime=2006-01-02"`
	TimeFrom                   string `json:"time_from" validate:"required"`
	TimeTo                     string `json:"time_to" validate:"required"`
	Place                      string `json:"place" validate:"required,max=255"`
	IsInsideUniversity         bool   `json:"is_inside_university"`
	LatePassRequired           bool   `json:"late_pass_required"`
	OutsidersInvited           bool   `json:"outsiders_invited"`
	OutsidersList              string `json:"outsiders_list" validate:"required_if=OutsidersInvited true,max=5000"`
	FirstYearParticipation     bool   `json:"first_year_participation"`
	BudgetEstimate             string `json:"budget_estimate" validate:"required,max=255"`
	FundCollectionMethods      string `json:"fund_collection_methods" validate:"required,max=2000"`
	StudentFeeAmount           string `json:"student_fee_amount" validate:"omitempty,max=64"`
	SeniorTreasurerName        string `json:"senior_treasurer_name" validate:"required,max=255"`
	SeniorTreasurerDepartment  string `json:"senior_treasurer_department" validate:"required,max=128"`
	SeniorTreasurerMobile      string `json:"senior_treasurer_mobile" validate:"required,lk_mobile"`
	PremisesOfficerName        string `json:"premises_officer_name" validate:"required,max=255"`
	PremisesOfficerDesignation string `json:"premises_officer_designation" validate:"required,max=128"`
	PremisesOfficerDivision    string `json:"premises_officer_division" validate:"required,max=128"`
	ReceiptNumber              string `json:"receipt_number" validate:"omitempty,max=64"`
	PaymentDate                string `json:"payment_date" validate:"omitempty,datetime=2006-01-02"`
}

// ApplicationListRequest defines filters for listing applications.
type ApplicationListRequest struct {
	Page     int
	PageSize int
	Kind     string
	Status   string
	Faculty  string
	Year     int
	Search   string
	Sort     string
}

// ApplicationResponse serializes an application of any kind.
type ApplicationResponse struct {
	ID                uint            `json:"id"`
	ReferenceID       string          `json:"reference_id"`
	Kind              string          `json:"kind"`
	Status            string          `json:"status"`
	ApplicantName     string          `json:"applicant_name"`
	ApplicantRegNo    string          `json:"applicant_reg_no"`
	ApplicantEmail    string          `json:"applicant_email"`
	ApplicantFaculty  string          `json:"applicant_faculty,omitempty"`
	ApplicantMobile   string          `json:"applicant_mobile"`
	ApplicantPosition string          `json:"applicant_position,omitempty"`
	SocietyName       string          `json:"society_name"`
	Year              int             `json:"year"`
	RejectionReason   string          `json:"rejection_reason,omitempty"`
	Details           json.RawMessage `json:"details,omitempty"`
	DeanApprovedAt    *time.Time      `json:"dean_approved_at,omitempty"`
	ARApprovedAt      *time.Time      `json:"ar_approved_at,omitempty"`
	VCApprovedAt      *time.Time      `json:"vc_approved_at,omitempty"`
	ApprovedAt        *time.Time      `json:"approved_at,omitempty"`
	SubmittedAt       time.Time       `json:"submitted_at"`
}

// ApplicationListResponse wraps a page of applications.
type ApplicationListResponse struct {
	Items      []ApplicationResponse `json:"items"`
	Pagination PaginationMeta        `json:"pagination"`
}

// NewApplicationResponse converts a model into a DTO.
func NewApplicationResponse(app models.Application) ApplicationResponse {
	var details json.RawMessage
	if len(app.Details) > 0 {
		details = json.RawMessage(app.Details)
	}

	return ApplicationResponse{
		ID:                app.ID,
		ReferenceID:       app.ReferenceID,
		Kind:              string(app.Kind),
		Status:            string(app.Status),
		ApplicantName:     app.ApplicantName,
		ApplicantRegNo:    app.ApplicantRegNo,
		ApplicantEmail:    app.ApplicantEmail,
		ApplicantFaculty:  app.ApplicantFaculty,
		ApplicantMobile:   app.ApplicantMobile,
		ApplicantPosition: app.ApplicantPosition,
		SocietyName:       app.SocietyName,
		Year:              app.Year,
		RejectionReason:   app.RejectionReason,
		Details:           details,
		DeanApprovedAt:    app.DeanApprovedAt,
		ARApprovedAt:      app.ARApprovedAt,
		VCApprovedAt:      app.VCApprovedAt,
		ApprovedAt:        app.ApprovedAt,
		SubmittedAt:       app.SubmittedAt,
	}
}

// NewApplicationResponseSlice converts a slice of models into DTOs.
func NewApplicationResponseSlice(apps []models.Application) []ApplicationResponse {
	out := make([]ApplicationResponse, 0, len(apps))
	for _, app := range apps {
		out = append(out, NewApplicationResponse(app))
	}
	return out
}

// SubmissionResponse is returned after a successful submission.
type SubmissionResponse struct {
	ID          uint   `json:"id"`
	ReferenceID string `json:"reference_id"`
	Kind        string `json:"kind"`
	Status      string `json:"status"`
}

// DecisionRequest is the body of approve/reject calls.
type DecisionRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=2000"`
}

// DecisionResponse reports the outcome of an approve or reject.
type DecisionResponse struct {
	Application    ApplicationResponse `json:"application"`
	PreviousStatus string              `json:"previous_status"`
	Activity       ActivityResponse    `json:"activity"`
}
