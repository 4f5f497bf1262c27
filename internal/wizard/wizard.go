// Package wizard drives the multi-step application forms: it keeps the draft,
// the current step and the per-field errors, and submits once at the end.
package wizard

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/society-api/internal/models"
	"github.com/noah-isme/society-api/internal/validation"
	"github.com/noah-isme/society-api/internal/workflow"
)

var (
	// ErrUnknownKind indicates a wizard for an unsupported application kind.
	ErrUnknownKind = errors.New("unknown application kind")
	// ErrNotOnReview indicates a submit outside the review step.
	ErrNotOnReview = errors.New("wizard is not on the review step")
	// ErrAlreadySubmitted indicates the draft was already turned into an application.
	ErrAlreadySubmitted = errors.New("wizard already submitted")
	// ErrStepInvalid indicates the current step has field errors.
	ErrStepInvalid = errors.New("step has validation errors")
)

// Draft is the flat form state. Repeated tables live in Lists.
type Draft struct {
	Fields map[string]string              `json:"fields"`
	Lists  map[string][]map[string]string `json:"lists"`
}

// Contact reads the <prefix>_name, <prefix>_email, ... fields as a contact block.
func (d Draft) Contact(prefix string) models.ContactInfo {
	get := func(key string) string { return strings.TrimSpace(d.Fields[prefix+"_"+key]) }
	return models.ContactInfo{
		Title:       get("title"),
		RegNo:       get("reg_no"),
		Name:        get("name"),
		Address:     get("address"),
		Email:       get("email"),
		Mobile:      get("mobile"),
		Designation: get("designation"),
		Department:  get("department"),
	}
}

// Rows returns the rows of a list whose key column is not blank.
func (d Draft) Rows(list, key string) []map[string]string {
	rows := make([]map[string]string, 0, len(d.Lists[list]))
	for _, row := range d.Lists[list] {
		if strings.TrimSpace(row[key]) != "" {
			rows = append(rows, row)
		}
	}
	return rows
}

// Bool interprets a checkbox field.
func (d Draft) Bool(name string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(d.Fields[name]))
	return err == nil && v
}

// Submitter turns a completed draft into a stored application.
type Submitter interface {
	SubmitDraft(ctx context.Context, kind models.ApplicationKind, draft Draft) (uint, error)
}

// Wizard is the serialisable wizard state.
type Wizard struct {
	ID            string                 `json:"id"`
	Kind          models.ApplicationKind `json:"kind"`
	Step          int                    `json:"step"`
	Draft         Draft                  `json:"draft"`
	Errors        map[string]string      `json:"errors"`
	SubmitError   string                 `json:"submit_error,omitempty"`
	Submitted     bool                   `json:"submitted"`
	ApplicationID uint                   `json:"application_id,omitempty"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

// New starts a wizard on the first step.
func New(id string, kind models.ApplicationKind, now time.Time) (*Wizard, error) {
	if len(StepsFor(kind)) == 0 {
		return nil, ErrUnknownKind
	}
	return &Wizard{
		ID:   id,
		Kind: kind,
		Draft: Draft{
			Fields: map[string]string{},
			Lists:  map[string][]map[string]string{},
		},
		Errors:    map[string]string{},
		UpdatedAt: now,
	}, nil
}

// Steps returns the step sequence of this wizard.
func (w *Wizard) Steps() []Step {
	return StepsFor(w.Kind)
}

// Current returns the active step.
func (w *Wizard) Current() Step {
	return w.Steps()[w.Step]
}

// OnReview reports whether the wizard is on its last step.
func (w *Wizard) OnReview() bool {
	return w.Step == len(w.Steps())-1
}

// Update merges field values and replaces the given lists. Errors for the
// touched fields are cleared.
func (w *Wizard) Update(fields map[string]string, lists map[string][]map[string]string, now time.Time) error {
	if w.Submitted {
		return ErrAlreadySubmitted
	}
	if w.Draft.Fields == nil {
		w.Draft.Fields = map[string]string{}
	}
	if w.Draft.Lists == nil {
		w.Draft.Lists = map[string][]map[string]string{}
	}
	for key, value := range fields {
		w.Draft.Fields[key] = value
		delete(w.Errors, key)
	}
	for key, rows := range lists {
		w.Draft.Lists[key] = rows
		delete(w.Errors, key)
	}
	w.UpdatedAt = now
	return nil
}

// Next validates the current step and advances when it has no errors.
func (w *Wizard) Next(now time.Time) error {
	if w.Submitted {
		return ErrAlreadySubmitted
	}
	errs := w.Current().Validate(w.Draft, now)
	w.Errors = errs
	w.UpdatedAt = now
	if len(errs) > 0 {
		return ErrStepInvalid
	}
	if !w.OnReview() {
		w.Step++
	}
	return nil
}

// Prev moves back one step without validating.
func (w *Wizard) Prev(now time.Time) {
	if w.Step > 0 {
		w.Step--
	}
	w.UpdatedAt = now
}

// Submit re-validates every step and hands the draft to submitter once. On
// failure the wizard stays on review with SubmitError set, so the call can be
// retried.
func (w *Wizard) Submit(ctx context.Context, submitter Submitter, now time.Time) error {
	if w.Submitted {
		return ErrAlreadySubmitted
	}
	if !w.OnReview() {
		return ErrNotOnReview
	}

	w.UpdatedAt = now
	for i, step := range w.Steps() {
		if errs := step.Validate(w.Draft, now); len(errs) > 0 {
			w.Step = i
			w.Errors = errs
			return ErrStepInvalid
		}
	}

	id, err := submitter.SubmitDraft(ctx, w.Kind, w.Draft)
	if err != nil {
		w.SubmitError = err.Error()
		w.Errors = submitFieldErrors(err)
		return err
	}

	w.SubmitError = ""
	w.Errors = map[string]string{}
	w.Submitted = true
	w.ApplicationID = id
	return nil
}

// submitFieldErrors points a failed submission back at the form keys that
// caused it, so the draft can be corrected field by field.
func submitFieldErrors(err error) map[string]string {
	if fields := validation.FieldErrors(err); len(fields) > 0 {
		return fields
	}
	var fieldErr *workflow.ValidationError
	if errors.As(err, &fieldErr) && fieldErr.Field != "" {
		return map[string]string{fieldErr.Field: fieldErr.Message}
	}
	return map[string]string{}
}
