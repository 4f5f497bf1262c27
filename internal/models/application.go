package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// ApplicationKind discriminates the three application variants.
type ApplicationKind string

// Application kinds.
const (
	KindRegistration ApplicationKind = "registration"
	KindRenewal      ApplicationKind = "renewal"
	KindEvent        ApplicationKind = "event"
)

// Valid reports whether the kind is one of the known variants.
func (k ApplicationKind) Valid() bool {
	switch k {
	case KindRegistration, KindRenewal, KindEvent:
		return true
	}
	return false
}

// ApplicationStatus is the approval stage of an application.
type ApplicationStatus string

// Application statuses.
const (
	StatusPendingDean ApplicationStatus = "pending_dean"
	StatusPendingAR   ApplicationStatus = "pending_ar"
	StatusPendingVC   ApplicationStatus = "pending_vc"
	StatusApproved    ApplicationStatus = "approved"
	StatusRejected    ApplicationStatus = "rejected"
)

// Application is a submitted registration, renewal or event permission request.
// Applications are never deleted; rejected ones stay for audit.
type Application struct {
	ID                uint              `gorm:"primaryKey" json:"id"`
	ReferenceID       string            `gorm:"size:64;uniqueIndex;not null" json:"reference_id"`
	Kind              ApplicationKind   `gorm:"size:16;index;not null" json:"kind"`
	Status            ApplicationStatus `gorm:"size:16;index;not null" json:"status"`
	ApplicantName     string            `gorm:"size:255;not null" json:"applicant_name"`
	ApplicantRegNo    string            `gorm:"size:64;not null" json:"applicant_reg_no"`
	ApplicantEmail    string            `gorm:"size:255;not null" json:"applicant_email"`
	ApplicantFaculty  string            `gorm:"size:128;index" json:"applicant_faculty"`
	ApplicantMobile   string            `gorm:"size:32" json:"applicant_mobile"`
	ApplicantPosition string            `gorm:"size:128" json:"applicant_position"`
	SocietyName       string            `gorm:"size:255;index;not null" json:"society_name"`
	Year              int               `gorm:"index" json:"year"`
	RejectionReason   string            `gorm:"type:text" json:"rejection_reason"`
	Details           datatypes.JSON    `json:"details"`
	DeanApprovedAt    *time.Time        `json:"dean_approved_at"`
	ARApprovedAt      *time.Time        `json:"ar_approved_at"`
	VCApprovedAt      *time.Time        `json:"vc_approved_at"`
	ApprovedAt        *time.Time        `json:"approved_at"`
	SubmittedAt       time.Time         `gorm:"index" json:"submitted_at"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// ContactInfo describes a society official or the senior treasurer.
type ContactInfo struct {
	Title       string `json:"title,omitempty"`
	RegNo       string `json:"reg_no,omitempty"`
	Name        string `json:"name"`
	Address     string `json:"address,omitempty"`
	Email       string `json:"email"`
	Mobile      string `json:"mobile"`
	Designation string `json:"designation,omitempty"`
	Department  string `json:"department,omitempty"`
}

// AdvisoryBoardMember is a staff member advising the society.
type AdvisoryBoardMember struct {
	Name        string `json:"name"`
	Designation string `json:"designation"`
	Department  string `json:"department"`
}

// Member is a registered student member or committee member.
type Member struct {
	RegNo string `json:"reg_no"`
	Name  string `json:"name"`
}

// PlannedActivity is one row of the planned or previous activity tables.
type PlannedActivity struct {
	Month    string `json:"month"`
	Activity string `json:"activity"`
}

// Officials groups the student office bearers of a society.
type Officials struct {
	President       ContactInfo `json:"president"`
	VicePresident   ContactInfo `json:"vice_president"`
	Secretary       ContactInfo `json:"secretary"`
	JointSecretary  ContactInfo `json:"joint_secretary"`
	JuniorTreasurer ContactInfo `json:"junior_treasurer"`
	Editor          ContactInfo `json:"editor"`
}

// RegistrationDetails holds the registration-only part of an application.
type RegistrationDetails struct {
	Aims             string                `json:"aims"`
	AGMDate          string                `json:"agm_date"`
	BankAccount      string                `json:"bank_account,omitempty"`
	BankName         string                `json:"bank_name,omitempty"`
	SeniorTreasurer  ContactInfo           `json:"senior_treasurer"`
	AdvisoryBoard    []AdvisoryBoardMember `json:"advisory_board"`
	Officials        Officials             `json:"officials"`
	CommitteeMembers []Member              `json:"committee_members"`
	Members          []Member              `json:"members"`
	PlanningEvents   []PlannedActivity     `json:"planning_events"`
}

// RenewalDetails extends the registration data with the previous year's report.
type RenewalDetails struct {
	RegistrationDetails
	PreviousActivities []PlannedActivity `json:"previous_activities"`
	Difficulties       string            `json:"difficulties"`
	Website            string            `json:"website,omitempty"`
}

// EventDetails holds the event permission specific fields.
type EventDetails struct {
	EventName                  string `json:"event_name"`
	EventDate                  string `json:"event_date"`
	TimeFrom                   string `json:"time_from"`
	TimeTo                     string `json:"time_to"`
	Place                      string `json:"place"`
	IsInsideUniversity         bool   `json:"is_inside_university"`
	LatePassRequired           bool   `json:"late_pass_required"`
	OutsidersInvited           bool   `json:"outsiders_invited"`
	OutsidersList              string `json:"outsiders_list,omitempty"`
	FirstYearParticipation     bool   `json:"first_year_participation"`
	BudgetEstimate             string `json:"budget_estimate"`
	FundCollectionMethods      string `json:"fund_collection_methods"`
	StudentFeeAmount           string `json:"student_fee_amount,omitempty"`
	SeniorTreasurerName        string `json:"senior_treasurer_name"`
	SeniorTreasurerDepartment  string `json:"senior_treasurer_department"`
	SeniorTreasurerMobile      string `json:"senior_treasurer_mobile"`
	PremisesOfficerName        string `json:"premises_officer_name"`
	PremisesOfficerDesignation string `json:"premises_officer_designation"`
	PremisesOfficerDivision    string `json:"premises_officer_division"`
	ReceiptNumber              string `json:"receipt_number,omitempty"`
	PaymentDate                string `json:"payment_date,omitempty"`
}

// SetDetails encodes the kind-specific payload. The value type must match the kind.
func (a *Application) SetDetails(details interface{}) error {
	switch details.(type) {
	case RegistrationDetails:
		if a.Kind != KindRegistration {
			return fmt.Errorf("registration details on %s application", a.Kind)
		}
	case RenewalDetails:
		if a.Kind != KindRenewal {
			return fmt.Errorf("renewal details on %s application", a.Kind)
		}
	case EventDetails:
		if a.Kind != KindEvent {
			return fmt.Errorf("event details on %s application", a.Kind)
		}
	default:
		return fmt.Errorf("unsupported details type %T", details)
	}

	raw, err := json.Marshal(details)
	if err != nil {
		return err
	}
	a.Details = datatypes.JSON(raw)
	return nil
}

// RegistrationDetails decodes the registration payload.
func (a Application) RegistrationDetails() (RegistrationDetails, error) {
	var out RegistrationDetails
	if a.Kind != KindRegistration {
		return out, fmt.Errorf("application %d is a %s", a.ID, a.Kind)
	}
	return out, decodeDetails(a.Details, &out)
}

// RenewalDetails decodes the renewal payload.
func (a Application) RenewalDetails() (RenewalDetails, error) {
	var out RenewalDetails
	if a.Kind != KindRenewal {
		return out, fmt.Errorf("application %d is a %s", a.ID, a.Kind)
	}
	return out, decodeDetails(a.Details, &out)
}

// EventDetails decodes the event permission payload.
func (a Application) EventDetails() (EventDetails, error) {
	var out EventDetails
	if a.Kind != KindEvent {
		return out, fmt.Errorf("application %d is a %s", a.ID, a.Kind)
	}
	return out, decodeDetails(a.Details, &out)
}

func decodeDetails(raw datatypes.JSON, target interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, target)
}
