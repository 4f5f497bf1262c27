package wizard

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/society-api/internal/models"
	"github.com/noah-isme/society-api/internal/validation"
	"github.com/noah-isme/society-api/internal/workflow"
)

var testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type submitterStub struct {
	calls int
	err   error
	kind  models.ApplicationKind
	draft Draft
}

func (s *submitterStub) SubmitDraft(ctx context.Context, kind models.ApplicationKind, draft Draft) (uint, error) {
	s.calls++
	s.kind = kind
	s.draft = draft
	if s.err != nil {
		return 0, s.err
	}
	return 42, nil
}

func applicantFields() map[string]string {
	return map[string]string{
		"applicant_full_name": "Kasun Perera",
		"applicant_reg_no":    "E/19/123",
		"applicant_email":     "kasun@eng.pdn.ac.lk",
		"applicant_faculty":   "Faculty of Engineering",
		"applicant_mobile":    "0771234567",
	}
}

func societyFields() map[string]string {
	fields := map[string]string{
		"society_name": "Robotics Society",
		"aims":         "Build robots",
		"agm_date":     "2025-02-01",
	}
	for key, value := range map[string]string{
		"title": "Dr.", "name": "Silva", "designation": "Senior Lecturer", "department": "EE",
		"email": "silva@pdn.ac.lk", "mobile": "0712345678", "address": "Peradeniya",
	} {
		fields["senior_treasurer_"+key] = value
	}
	return fields
}

func officialFields() map[string]string {
	fields := map[string]string{}
	for i, pos := range OfficialPositions {
		fields[pos.Key+"_name"] = pos.Label
		fields[pos.Key+"_reg_no"] = "E/19/10" + string(rune('0'+i))
		fields[pos.Key+"_email"] = pos.Key + "@eng.pdn.ac.lk"
		fields[pos.Key+"_mobile"] = "0771234567"
		fields[pos.Key+"_address"] = "Kandy"
	}
	return fields
}

func registrationLists() map[string][]map[string]string {
	return map[string][]map[string]string{
		ListAdvisoryBoard:    {{"name": "Prof. Fernando", "designation": "Professor", "department": "ME"}},
		ListCommitteeMembers: {{"reg_no": "E/19/200", "name": "Amal"}},
		ListMembers:          {{"reg_no": "E/19/201", "name": "Bimal"}},
		ListPlanningEvents:   {{"month": "April", "activity": "Workshop"}},
	}
}

func TestNextBlocksOnErrors(t *testing.T) {
	w, err := New("d1", models.KindRegistration, testNow)
	require.NoError(t, err)

	require.NoError(t, w.Update(map[string]string{"applicant_email": "a@b", "applicant_mobile": "12345"}, nil, testNow))
	err = w.Next(testNow)
	require.ErrorIs(t, err, ErrStepInvalid)
	require.Equal(t, 0, w.Step)
	require.Equal(t, "Please enter a valid email address", w.Errors["applicant_email"])
	require.Contains(t, w.Errors["applicant_mobile"], "Sri Lankan")
	require.Equal(t, "Full name is required", w.Errors["applicant_full_name"])
}

func TestUpdateClearsTouchedErrors(t *testing.T) {
	w, err := New("d1", models.KindRegistration, testNow)
	require.NoError(t, err)
	require.Error(t, w.Next(testNow))
	require.Contains(t, w.Errors, "applicant_email")

	require.NoError(t, w.Update(map[string]string{"applicant_email": "x@y.lk"}, nil, testNow))
	require.NotContains(t, w.Errors, "applicant_email")
	require.Contains(t, w.Errors, "applicant_full_name")
}

func TestPrevNeverValidates(t *testing.T) {
	w, err := New("d1", models.KindRegistration, testNow)
	require.NoError(t, err)
	require.NoError(t, w.Update(applicantFields(), nil, testNow))
	require.NoError(t, w.Next(testNow))
	require.Equal(t, 1, w.Step)

	w.Prev(testNow)
	require.Equal(t, 0, w.Step)
	w.Prev(testNow)
	require.Equal(t, 0, w.Step)
}

func TestFullRegistrationFlowSubmitsOnce(t *testing.T) {
	w, err := New("d1", models.KindRegistration, testNow)
	require.NoError(t, err)
	require.Len(t, w.Steps(), 5)

	require.NoError(t, w.Update(applicantFields(), nil, testNow))
	require.NoError(t, w.Next(testNow))
	require.NoError(t, w.Update(societyFields(), registrationLists(), testNow))
	require.NoError(t, w.Next(testNow))
	require.NoError(t, w.Update(officialFields(), nil, testNow))
	require.NoError(t, w.Next(testNow))
	require.NoError(t, w.Next(testNow))
	require.True(t, w.OnReview())
	require.Equal(t, StepReview, w.Current().Name)

	submitter := &submitterStub{}
	require.NoError(t, w.Submit(context.Background(), submitter, testNow))
	require.Equal(t, 1, submitter.calls)
	require.Equal(t, models.KindRegistration, submitter.kind)
	require.Equal(t, "Robotics Society", submitter.draft.Fields["society_name"])
	require.True(t, w.Submitted)
	require.Equal(t, uint(42), w.ApplicationID)

	require.ErrorIs(t, w.Submit(context.Background(), submitter, testNow), ErrAlreadySubmitted)
	require.Equal(t, 1, submitter.calls)
}

func TestSubmitFailureStaysOnReview(t *testing.T) {
	w, err := New("d1", models.KindRegistration, testNow)
	require.NoError(t, err)
	require.NoError(t, w.Update(applicantFields(), registrationLists(), testNow))
	require.NoError(t, w.Update(societyFields(), nil, testNow))
	require.NoError(t, w.Update(officialFields(), nil, testNow))
	w.Step = len(w.Steps()) - 1

	submitter := &submitterStub{err: errors.New("backend unavailable")}
	err = w.Submit(context.Background(), submitter, testNow)
	require.EqualError(t, err, "backend unavailable")
	require.True(t, w.OnReview())
	require.Equal(t, "backend unavailable", w.SubmitError)
	require.False(t, w.Submitted)

	submitter.err = nil
	require.NoError(t, w.Submit(context.Background(), submitter, testNow))
	require.Empty(t, w.SubmitError)
	require.Equal(t, 2, submitter.calls)
}

func TestSubmitRequiresReviewStep(t *testing.T) {
	w, err := New("d1", models.KindEvent, testNow)
	require.NoError(t, err)
	require.ErrorIs(t, w.Submit(context.Background(), &submitterStub{}, testNow), ErrNotOnReview)
}

func TestSubmitJumpsBackToInvalidStep(t *testing.T) {
	w, err := New("d1", models.KindRegistration, testNow)
	require.NoError(t, err)
	require.NoError(t, w.Update(applicantFields(), registrationLists(), testNow))
	require.NoError(t, w.Update(officialFields(), nil, testNow))
	w.Step = len(w.Steps()) - 1

	submitter := &submitterStub{}
	require.ErrorIs(t, w.Submit(context.Background(), submitter, testNow), ErrStepInvalid)
	require.Equal(t, 1, w.Step, "society step is missing data")
	require.Zero(t, submitter.calls)
}

func TestMembersStepRequiresRows(t *testing.T) {
	w, err := New("d1", models.KindRenewal, testNow)
	require.NoError(t, err)
	w.Step = 3

	require.ErrorIs(t, w.Next(testNow), ErrStepInvalid)
	require.Contains(t, w.Errors, ListCommitteeMembers)
	require.Contains(t, w.Errors, ListPreviousActivities)
}

func TestEventStepChecks(t *testing.T) {
	w, err := New("d1", models.KindEvent, testNow)
	require.NoError(t, err)
	w.Step = 1
	require.NoError(t, w.Update(map[string]string{
		"event_name":        "Night Hackathon",
		"event_date":        "2025-03-01",
		"time_from":         "18:00",
		"time_to":           "17:00",
		"place":             "E-Block",
		"outsiders_invited": "true",
	}, nil, testNow))

	require.ErrorIs(t, w.Next(testNow), ErrStepInvalid)
	require.Contains(t, w.Errors["event_date"], "future")
	require.Contains(t, w.Errors, "outsiders_list")
	require.Contains(t, w.Errors, "time_to")
}

func TestMembersStepChecksRowColumns(t *testing.T) {
	w, err := New("d1", models.KindRenewal, testNow)
	require.NoError(t, err)
	w.Step = 3
	require.NoError(t, w.Update(nil, map[string][]map[string]string{
		ListCommitteeMembers:   {{"name": "Amal"}},
		ListMembers:            {{"reg_no": "12345", "name": "Bimal"}},
		ListPlanningEvents:     {{"activity": "Workshop"}},
		ListPreviousActivities: {{"month": " ", "activity": "Robot race"}},
	}, testNow))

	require.ErrorIs(t, w.Next(testNow), ErrStepInvalid)
	require.Equal(t, "Registration number is required", w.Errors["committee_members.0.reg_no"])
	require.Contains(t, w.Errors["members.0.reg_no"], "letters and numbers")
	require.Equal(t, "Month is required", w.Errors["planning_events.0.month"])
	require.Equal(t, "Month is required", w.Errors["previous_activities.0.month"])
	require.Equal(t, 3, w.Step)
}

func TestEventAndFinanceStepsCheckFormats(t *testing.T) {
	w, err := New("d1", models.KindEvent, testNow)
	require.NoError(t, err)
	w.Step = 1
	require.NoError(t, w.Update(map[string]string{
		"event_name": "Robot Expo",
		"event_date": "2025-04-01",
		"time_from":  "9am",
		"time_to":    "16:00",
		"place":      "E-Block",
	}, nil, testNow))

	require.ErrorIs(t, w.Next(testNow), ErrStepInvalid)
	require.Equal(t, "Please enter a valid time (HH:MM)", w.Errors["time_from"])

	require.NoError(t, w.Update(map[string]string{"time_from": "09:00"}, nil, testNow))
	require.NoError(t, w.Next(testNow))
	require.Equal(t, 2, w.Step)

	require.NoError(t, w.Update(map[string]string{
		"budget_estimate":              "LKR 50,000",
		"fund_collection_methods":      "Sponsorships",
		"senior_treasurer_name":        "Dr. Silva",
		"senior_treasurer_department":  "EE",
		"senior_treasurer_mobile":      "0712345678",
		"premises_officer_name":        "Mr. Bandara",
		"premises_officer_designation": "Works Engineer",
		"premises_officer_division":    "Maintenance",
		"payment_date":                 "01/03/2025",
	}, nil, testNow))
	require.ErrorIs(t, w.Next(testNow), ErrStepInvalid)
	require.Equal(t, "Please enter a valid date (YYYY-MM-DD)", w.Errors["payment_date"])
}

func TestSubmitPointsErrorsAtFields(t *testing.T) {
	w, err := New("d1", models.KindRegistration, testNow)
	require.NoError(t, err)
	require.NoError(t, w.Update(applicantFields(), registrationLists(), testNow))
	require.NoError(t, w.Update(societyFields(), nil, testNow))
	require.NoError(t, w.Update(officialFields(), nil, testNow))
	w.Step = len(w.Steps()) - 1

	type official struct {
		Address string `validate:"max=3"`
	}
	type request struct {
		President official
	}
	tagErr := validation.New().Struct(request{President: official{Address: "Kandy"}})
	require.Error(t, tagErr)

	submitter := &submitterStub{err: tagErr}
	require.Error(t, w.Submit(context.Background(), submitter, testNow))
	require.True(t, w.OnReview())
	require.Contains(t, w.Errors, "president_address")
	require.NotEmpty(t, w.SubmitError)

	submitter.err = &workflow.ValidationError{Field: "agm_date", Message: "AGM date cannot be in the future"}
	require.Error(t, w.Submit(context.Background(), submitter, testNow))
	require.Equal(t, map[string]string{"agm_date": "AGM date cannot be in the future"}, w.Errors)
}

func TestRedisStoreLockIsExclusive(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	store := NewRedisStore(client, time.Hour)
	ctx := context.Background()

	release, err := store.Lock(ctx, "draft-1", time.Minute)
	require.NoError(t, err)

	_, err = store.Lock(ctx, "draft-1", time.Minute)
	require.ErrorIs(t, err, ErrDraftLocked)

	other, err := store.Lock(ctx, "draft-2", time.Minute)
	require.NoError(t, err)
	other()

	release()
	again, err := store.Lock(ctx, "draft-1", time.Minute)
	require.NoError(t, err)
	defer again()

	server.FastForward(2 * time.Minute)
	expired, err := store.Lock(ctx, "draft-1", time.Minute)
	require.NoError(t, err, "an abandoned hold expires")
	expired()
}

func TestNewRejectsUnknownKind(t *testing.T) {
	_, err := New("d1", models.ApplicationKind("club"), testNow)
	require.ErrorIs(t, err, ErrUnknownKind)
}

func TestRedisStoreRoundTrip(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	store := NewRedisStore(client, time.Hour)
	ctx := context.Background()

	w, err := New("draft-1", models.KindEvent, testNow)
	require.NoError(t, err)
	require.NoError(t, w.Update(map[string]string{"event_name": "Quiz"}, nil, testNow))
	require.NoError(t, store.Save(ctx, w))

	loaded, err := store.Load(ctx, "draft-1")
	require.NoError(t, err)
	require.Equal(t, "Quiz", loaded.Draft.Fields["event_name"])
	require.Equal(t, models.KindEvent, loaded.Kind)

	server.FastForward(2 * time.Hour)
	_, err = store.Load(ctx, "draft-1")
	require.ErrorIs(t, err, ErrDraftNotFound)
}
