package dto

import (
	"strings"
	"time"

	"github.com/noah-isme/society-api/internal/wizard"
)

// DraftCreateRequest starts a new wizard.
type DraftCreateRequest struct {
	Kind string `json:"kind" validate:"required,oneof=registration renewal event"`
}

// DraftUpdateRequest merges field values and list rows into a draft.
type DraftUpdateRequest struct {
	Fields map[string]string              `json:"fields"`
	Lists  map[string][]map[string]string `json:"lists"`
}

// DraftResponse exposes the wizard state.
type DraftResponse struct {
	ID            string            `json:"id"`
	Kind          string            `json:"kind"`
	Step          int               `json:"step"`
	StepName      string            `json:"step_name"`
	Steps         []string          `json:"steps"`
	Draft         wizard.Draft      `json:"draft"`
	Errors        map[string]string `json:"errors"`
	SubmitError   string            `json:"submit_error,omitempty"`
	Submitted     bool              `json:"submitted"`
	ApplicationID uint              `json:"application_id,omitempty"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// NewDraftResponse converts wizard state into a DTO.
func NewDraftResponse(w *wizard.Wizard) DraftResponse {
	steps := w.Steps()
	names := make([]string, 0, len(steps))
	for _, step := range steps {
		names = append(names, step.Name)
	}
	errs := w.Errors
	if errs == nil {
		errs = map[string]string{}
	}
	return DraftResponse{
		ID:            w.ID,
		Kind:          string(w.Kind),
		Step:          w.Step,
		StepName:      w.Current().Name,
		Steps:         names,
		Draft:         w.Draft,
		Errors:        errs,
		SubmitError:   w.SubmitError,
		Submitted:     w.Submitted,
		ApplicationID: w.ApplicationID,
		UpdatedAt:     w.UpdatedAt,
	}
}

func field(d wizard.Draft, key string) string {
	return strings.TrimSpace(d.Fields[key])
}

func officialFromDraft(d wizard.Draft, prefix string) OfficialRequest {
	c := d.Contact(prefix)
	return OfficialRequest{RegNo: c.RegNo, Name: c.Name, Address: c.Address, Email: c.Email, Mobile: c.Mobile}
}

func membersFromDraft(d wizard.Draft, list string) []MemberRequest {
	rows := d.Rows(list, "name")
	out := make([]MemberRequest, 0, len(rows))
	for _, row := range rows {
		out = append(out, MemberRequest{RegNo: strings.TrimSpace(row["reg_no"]), Name: strings.TrimSpace(row["name"])})
	}
	return out
}

func activitiesFromDraft(d wizard.Draft, list string) []PlannedActivityRequest {
	rows := d.Rows(list, "activity")
	out := make([]PlannedActivityRequest, 0, len(rows))
	for _, row := range rows {
		out = append(out, PlannedActivityRequest{Month: strings.TrimSpace(row["month"]), Activity: strings.TrimSpace(row["activity"])})
	}
	return out
}

func advisoryFromDraft(d wizard.Draft) []AdvisoryBoardRequest {
	rows := d.Rows(wizard.ListAdvisoryBoard, "name")
	out := make([]AdvisoryBoardRequest, 0, len(rows))
	for _, row := range rows {
		out = append(out, AdvisoryBoardRequest{
			Name:        strings.TrimSpace(row["name"]),
			Designation: strings.TrimSpace(row["designation"]),
			Department:  strings.TrimSpace(row["department"]),
		})
	}
	return out
}

func societyApplicationFromDraft(d wizard.Draft) SocietyApplicationRequest {
	st := d.Contact("senior_treasurer")
	return SocietyApplicationRequest{
		ApplicantFullName: field(d, "applicant_full_name"),
		ApplicantRegNo:    field(d, "applicant_reg_no"),
		ApplicantEmail:    field(d, "applicant_email"),
		ApplicantFaculty:  field(d, "applicant_faculty"),
		ApplicantMobile:   field(d, "applicant_mobile"),
		SocietyName:       field(d, "society_name"),
		AGMDate:           field(d, "agm_date"),
		BankAccount:       field(d, "bank_account"),
		BankName:          field(d, "bank_name"),
		SeniorTreasurer: SeniorTreasurerRequest{
			Title:       st.Title,
			Name:        st.Name,
			Designation: st.Designation,
			Department:  st.Department,
			Email:       st.Email,
			Address:     st.Address,
			Mobile:      st.Mobile,
		},
		President:        officialFromDraft(d, "president"),
		VicePresident:    officialFromDraft(d, "vice_president"),
		Secretary:        officialFromDraft(d, "secretary"),
		JointSecretary:   officialFromDraft(d, "joint_secretary"),
		JuniorTreasurer:  officialFromDraft(d, "junior_treasurer"),
		Editor:           officialFromDraft(d, "editor"),
		CommitteeMembers: membersFromDraft(d, wizard.ListCommitteeMembers),
		Members:          membersFromDraft(d, wizard.ListMembers),
		PlanningEvents:   activitiesFromDraft(d, wizard.ListPlanningEvents),
	}
}

// RegistrationRequestFromDraft maps a completed registration wizard onto the API payload.
func RegistrationRequestFromDraft(d wizard.Draft) RegistrationRequest {
	return RegistrationRequest{
		SocietyApplicationRequest: societyApplicationFromDraft(d),
		Aims:                      field(d, "aims"),
		AdvisoryBoard:             advisoryFromDraft(d),
	}
}

// RenewalRequestFromDraft maps a completed renewal wizard onto the API payload.
func RenewalRequestFromDraft(d wizard.Draft) RenewalRequest {
	return RenewalRequest{
		SocietyApplicationRequest: societyApplicationFromDraft(d),
		Aims:                      field(d, "aims"),
		AdvisoryBoard:             advisoryFromDraft(d),
		PreviousActivities:        activitiesFromDraft(d, wizard.ListPreviousActivities),
		Difficulties:              field(d, "difficulties"),
		Website:                   field(d, "website"),
	}
}

// EventRequestFromDraft maps a completed event wizard onto the API payload.
func EventRequestFromDraft(d wizard.Draft) EventRequest {
	return EventRequest{
		SocietyName:                field(d, "society_name"),
		ApplicantName:              field(d, "applicant_full_name"),
		ApplicantRegNo:             field(d, "applicant_reg_no"),
		ApplicantEmail:             field(d, "applicant_email"),
		ApplicantPosition:          field(d, "applicant_position"),
		ApplicantMobile:            field(d, "applicant_mobile"),
		ApplicantFaculty:           field(d, "applicant_faculty"),
		EventName:                  field(d, "event_name"),
		EventDate:                  field(d, "event_date"),
		TimeFrom:                   field(d, "time_from"),
		TimeTo:                     field(d, "time_to"),
		Place:                      field(d, "place"),
		IsInsideUniversity:         d.Bool("is_inside_university"),
		LatePassRequired:           d.Bool("late_pass_required"),
		OutsidersInvited:           d.Bool("outsiders_invited"),
		OutsidersList:              field(d, "outsiders_list"),
		FirstYearParticipation:     d.Bool("first_year_participation"),
		BudgetEstimate:             field(d, "budget_estimate"),
		FundCollectionMethods:      field(d, "fund_collection_methods"),
		StudentFeeAmount:           field(d, "student_fee_amount"),
		SeniorTreasurerName:        field(d, "senior_treasurer_name"),
		SeniorTreasurerDepartment:  field(d, "senior_treasurer_department"),
		SeniorTreasurerMobile:      field(d, "senior_treasurer_mobile"),
		PremisesOfficerName:        field(d, "premises_officer_name"),
		PremisesOfficerDesignation: field(d, "premises_officer_designation"),
		PremisesOfficerDivision:    field(d, "premises_officer_division"),
		ReceiptNumber:              field(d, "receipt_number"),
		PaymentDate:                field(d, "payment_date"),
	}
}
