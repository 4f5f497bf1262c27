package wizard

import (
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/society-api/internal/models"
	"github.com/noah-isme/society-api/internal/validation"
)

// Rule checks a single field value. It returns "" when the value is valid.
type Rule func(value string) string

// Field is one input of a wizard step.
type Field struct {
	Name     string
	Label    string
	Required bool
	Rules    []Rule
}

// Step is one page of the wizard. Check runs after the field rules and may
// inspect the whole draft, e.g. for repeated rows.
type Step struct {
	Name   string
	Fields []Field
	Check  func(d Draft, now time.Time) map[string]string
}

// Validate runs every rule for the step and returns the field errors.
func (s Step) Validate(d Draft, now time.Time) map[string]string {
	errs := map[string]string{}
	for _, field := range s.Fields {
		value := strings.TrimSpace(d.Fields[field.Name])
		if value == "" {
			if field.Required {
				errs[field.Name] = field.Label + " is required"
			}
			continue
		}
		for _, rule := range field.Rules {
			if msg := rule(value); msg != "" {
				errs[field.Name] = msg
				break
			}
		}
	}
	if s.Check != nil {
		for key, msg := range s.Check(d, now) {
			if _, exists := errs[key]; !exists {
				errs[key] = msg
			}
		}
	}
	return errs
}

// Step names.
const (
	StepApplicant = "applicant"
	StepSociety   = "society"
	StepOfficials = "officials"
	StepMembers   = "members"
	StepEvent     = "event"
	StepFinance   = "finance"
	StepReview    = "review"
)

// Official positions captured in the officials step, in form order.
var OfficialPositions = []struct {
	Key   string
	Label string
}{
	{"president", "President"},
	{"vice_president", "Vice president"},
	{"secretary", "Secretary"},
	{"joint_secretary", "Joint secretary"},
	{"junior_treasurer", "Junior treasurer"},
	{"editor", "Editor"},
}

// List names used for repeated rows.
const (
	ListAdvisoryBoard      = "advisory_board"
	ListCommitteeMembers   = "committee_members"
	ListMembers            = "members"
	ListPlanningEvents     = "planning_events"
	ListPreviousActivities = "previous_activities"
)

// StepsFor returns the step sequence for an application kind. The last step is
// always the review step.
func StepsFor(kind models.ApplicationKind) []Step {
	switch kind {
	case models.KindRegistration:
		return []Step{applicantStep(), societyStep(false), officialsStep(), membersStep(false), reviewStep()}
	case models.KindRenewal:
		return []Step{applicantStep(), societyStep(true), officialsStep(), membersStep(true), reviewStep()}
	case models.KindEvent:
		return []Step{eventApplicantStep(), eventStep(), financeStep(), reviewStep()}
	}
	return nil
}

func applicantStep() Step {
	return Step{
		Name: StepApplicant,
		Fields: []Field{
			{Name: "applicant_full_name", Label: "Full name", Required: true, Rules: []Rule{validation.MaxLength(255)}},
			{Name: "applicant_reg_no", Label: "Registration number", Required: true, Rules: []Rule{validation.RegistrationNumber}},
			{Name: "applicant_email", Label: "Email", Required: true, Rules: []Rule{validation.Email}},
			{Name: "applicant_faculty", Label: "Faculty", Required: true, Rules: []Rule{validation.MaxLength(128)}},
			{Name: "applicant_mobile", Label: "Mobile number", Required: true, Rules: []Rule{validation.Mobile}},
		},
	}
}

func societyStep(renewal bool) Step {
	step := Step{
		Name: StepSociety,
		Fields: []Field{
			{Name: "society_name", Label: "Society name", Required: true, Rules: []Rule{validation.MaxLength(255)}},
			{Name: "aims", Label: "Aims", Required: !renewal, Rules: []Rule{validation.MaxLength(5000)}},
			{Name: "bank_account", Label: "Bank account", Rules: []Rule{validation.MaxLength(64)}},
			{Name: "bank_name", Label: "Bank name", Rules: []Rule{validation.MaxLength(128)}},
		},
		Check: func(d Draft, now time.Time) map[string]string {
			errs := map[string]string{}
			if msg := validation.PastDate(d.Fields["agm_date"], "AGM date", now); msg != "" {
				errs["agm_date"] = msg
			}
			for key, msg := range validation.SeniorTreasurer(d.Contact("senior_treasurer")) {
				errs["senior_treasurer_"+key] = msg
			}
			if !renewal && len(d.Rows(ListAdvisoryBoard, "name")) == 0 {
				errs[ListAdvisoryBoard] = "Please add at least one advisory board member"
			}
			return errs
		},
	}
	if renewal {
		step.Fields = append(step.Fields,
			Field{Name: "website", Label: "Website", Rules: []Rule{validation.URL}},
			Field{Name: "difficulties", Label: "Difficulties faced", Required: true, Rules: []Rule{validation.MaxLength(5000)}},
		)
	}
	return step
}

func officialsStep() Step {
	return Step{
		Name: StepOfficials,
		Check: func(d Draft, _ time.Time) map[string]string {
			errs := map[string]string{}
			for _, pos := range OfficialPositions {
				for key, msg := range validation.Official(d.Contact(pos.Key), pos.Label) {
					errs[pos.Key+"_"+key] = msg
				}
			}
			return errs
		},
	}
}

func membersStep(renewal bool) Step {
	return Step{
		Name: StepMembers,
		Check: func(d Draft, _ time.Time) map[string]string {
			errs := map[string]string{}
			if len(d.Rows(ListCommitteeMembers, "name")) == 0 {
				errs[ListCommitteeMembers] = "Please add at least one committee member"
			}
			if len(d.Rows(ListMembers, "name")) == 0 {
				errs[ListMembers] = "Please add at least one general member"
			}
			if len(d.Rows(ListPlanningEvents, "activity")) == 0 {
				errs[ListPlanningEvents] = "Please add at least one planning event"
			}
			if renewal && len(d.Rows(ListPreviousActivities, "activity")) == 0 {
				errs[ListPreviousActivities] = "Please add at least one previous activity"
			}
			for _, list := range []string{ListCommitteeMembers, ListMembers} {
				for i, row := range d.Rows(list, "name") {
					regNo := strings.TrimSpace(row["reg_no"])
					if msg := firstMessage(validation.Required(regNo, "Registration number"), validation.RegistrationNumber(regNo)); msg != "" {
						errs[fmt.Sprintf("%s.%d.reg_no", list, i)] = msg
					}
				}
			}
			activityLists := []string{ListPlanningEvents}
			if renewal {
				activityLists = append(activityLists, ListPreviousActivities)
			}
			for _, list := range activityLists {
				for i, row := range d.Rows(list, "activity") {
					if msg := validation.Required(row["month"], "Month"); msg != "" {
						errs[fmt.Sprintf("%s.%d.month", list, i)] = msg
					}
				}
			}
			return errs
		},
	}
}

func firstMessage(messages ...string) string {
	for _, msg := range messages {
		if msg != "" {
			return msg
		}
	}
	return ""
}

func eventApplicantStep() Step {
	return Step{
		Name: StepApplicant,
		Fields: []Field{
			{Name: "society_name", Label: "Society name", Required: true},
			{Name: "applicant_full_name", Label: "Applicant name", Required: true},
			{Name: "applicant_reg_no", Label: "Registration number", Required: true, Rules: []Rule{validation.RegistrationNumber}},
			{Name: "applicant_email", Label: "Email", Required: true, Rules: []Rule{validation.Email}},
			{Name: "applicant_position", Label: "Position", Required: true, Rules: []Rule{validation.MaxLength(128)}},
			{Name: "applicant_mobile", Label: "Mobile number", Required: true, Rules: []Rule{validation.Mobile}},
		},
	}
}

func eventStep() Step {
	return Step{
		Name: StepEvent,
		Fields: []Field{
			{Name: "event_name", Label: "Event name", Required: true, Rules: []Rule{validation.MaxLength(255)}},
			{Name: "time_from", Label: "Start time", Required: true, Rules: []Rule{validation.ClockTime}},
			{Name: "time_to", Label: "End time", Required: true, Rules: []Rule{validation.ClockTime}},
			{Name: "place", Label: "Place", Required: true, Rules: []Rule{validation.MaxLength(255)}},
		},
		Check: func(d Draft, now time.Time) map[string]string {
			errs := map[string]string{}
			if msg := validation.FutureDate(d.Fields["event_date"], "Event date", now); msg != "" {
				errs["event_date"] = msg
			}
			if d.Bool("outsiders_invited") && strings.TrimSpace(d.Fields["outsiders_list"]) == "" {
				errs["outsiders_list"] = "Please list the invited outsiders"
			}
			from, errFrom := time.Parse(validation.TimeLayout, strings.TrimSpace(d.Fields["time_from"]))
			to, errTo := time.Parse(validation.TimeLayout, strings.TrimSpace(d.Fields["time_to"]))
			if errFrom == nil && errTo == nil && !to.After(from) {
				errs["time_to"] = "End time must be after the start time"
			}
			return errs
		},
	}
}

func financeStep() Step {
	return Step{
		Name: StepFinance,
		Fields: []Field{
			{Name: "budget_estimate", Label: "Budget estimate", Required: true, Rules: []Rule{validation.MaxLength(255)}},
			{Name: "fund_collection_methods", Label: "Fund collection methods", Required: true, Rules: []Rule{validation.MaxLength(2000)}},
			{Name: "student_fee_amount", Label: "Student fee amount", Rules: []Rule{validation.MaxLength(64)}},
			{Name: "senior_treasurer_name", Label: "Senior treasurer name", Required: true, Rules: []Rule{validation.MaxLength(255)}},
			{Name: "senior_treasurer_department", Label: "Senior treasurer department", Required: true, Rules: []Rule{validation.MaxLength(128)}},
			{Name: "senior_treasurer_mobile", Label: "Senior treasurer mobile", Required: true, Rules: []Rule{validation.Mobile}},
			{Name: "premises_officer_name", Label: "Premises officer name", Required: true, Rules: []Rule{validation.MaxLength(255)}},
			{Name: "premises_officer_designation", Label: "Premises officer designation", Required: true, Rules: []Rule{validation.MaxLength(128)}},
			{Name: "premises_officer_division", Label: "Premises officer division", Required: true, Rules: []Rule{validation.MaxLength(128)}},
			{Name: "receipt_number", Label: "Receipt number", Rules: []Rule{validation.MaxLength(64)}},
			{Name: "payment_date", Label: "Payment date", Rules: []Rule{validation.Date}},
		},
	}
}

func reviewStep() Step {
	return Step{Name: StepReview}
}
