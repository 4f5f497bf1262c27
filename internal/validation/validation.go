// Package validation holds the field rules shared by the submission forms.
// Every rule returns "" when the value is acceptable and a human-readable
// message otherwise.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/society-api/internal/models"
)

// DateLayout is the wire format of calendar dates in form payloads.
const DateLayout = "2006-01-02"

// TimeLayout is the wire format of clock times in form payloads.
const TimeLayout = "15:04"

var (
	emailPattern  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	mobilePattern = regexp.MustCompile(`^(\+94|0)?[7][0-9]{8}$`)

	urlChecker = validator.New()
)

// Email accepts any address of the form local@domain.tld. Empty is allowed.
func Email(email string) string {
	if email == "" {
		return ""
	}
	if !emailPattern.MatchString(email) {
		return "Please enter a valid email address"
	}
	return ""
}

// Mobile accepts Sri Lankan mobile numbers, ignoring whitespace. Empty is allowed.
func Mobile(mobile string) string {
	mobile = stripSpace(mobile)
	if mobile == "" {
		return ""
	}
	if !mobilePattern.MatchString(mobile) {
		return "Please enter a valid Sri Lankan mobile number (e.g., 0771234567)"
	}
	return ""
}

// RegistrationNumber requires at least one letter and one digit. Empty is allowed.
func RegistrationNumber(regNo string) string {
	if regNo == "" {
		return ""
	}
	var hasLetter, hasDigit bool
	for _, r := range regNo {
		switch {
		case r < unicode.MaxASCII && unicode.IsLetter(r):
			hasLetter = true
		case r >= '0' && r <= '9':
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return "Registration number must contain both letters and numbers"
	}
	return ""
}

// Date checks the YYYY-MM-DD format. Empty is allowed.
func Date(value string) string {
	if value == "" {
		return ""
	}
	if _, err := time.Parse(DateLayout, value); err != nil {
		return "Please enter a valid date (YYYY-MM-DD)"
	}
	return ""
}

// ClockTime checks the 24 hour HH:MM format. Empty is allowed.
func ClockTime(value string) string {
	if value == "" {
		return ""
	}
	if _, err := time.Parse(TimeLayout, value); err != nil {
		return "Please enter a valid time (HH:MM)"
	}
	return ""
}

// URL accepts absolute URLs with a scheme. Empty is allowed.
func URL(value string) string {
	if value == "" {
		return ""
	}
	if urlChecker.Var(value, "url") != nil {
		return "Please enter a valid URL (e.g., https://example.org)"
	}
	return ""
}

// MaxLength returns a rule that caps the value at n characters.
func MaxLength(n int) func(string) string {
	return func(value string) string {
		if utf8.RuneCountInString(value) > n {
			return fmt.Sprintf("Must be at most %d characters", n)
		}
		return ""
	}
}

// Required rejects blank values.
func Required(value, field string) string {
	if strings.TrimSpace(value) == "" {
		return field + " is required"
	}
	return ""
}

// PastDate requires a date that is not in the future and not more than ten years old.
func PastDate(date, field string, now time.Time) string {
	if date == "" {
		return field + " is required"
	}
	parsed, err := time.Parse(DateLayout, date)
	if err != nil {
		return field + " must be a valid date"
	}
	today := truncateDay(now)
	if parsed.After(today) {
		return field + " cannot be in the future"
	}
	if parsed.Before(today.AddDate(-10, 0, 0)) {
		return field + " seems too old. Please verify the date"
	}
	return ""
}

// FutureDate requires today or a later date.
func FutureDate(date, field string, now time.Time) string {
	if date == "" {
		return field + " is required"
	}
	parsed, err := time.Parse(DateLayout, date)
	if err != nil {
		return field + " must be a valid date"
	}
	if parsed.Before(truncateDay(now)) {
		return field + " must be today or in the future"
	}
	return ""
}

// Official validates a student office bearer. Keys of the result are field names.
func Official(official models.ContactInfo, position string) map[string]string {
	errs := map[string]string{}

	setFirst(errs, "name", Required(official.Name, position+" name"))
	setFirst(errs, "reg_no", Required(official.RegNo, position+" registration number"), RegistrationNumber(official.RegNo))
	setFirst(errs, "email", Required(official.Email, position+" email"), Email(official.Email))
	setFirst(errs, "mobile", Required(official.Mobile, position+" mobile number"), Mobile(official.Mobile))
	setFirst(errs, "address", Required(official.Address, position+" address"))

	return errs
}

// SeniorTreasurer validates the staff treasurer block.
func SeniorTreasurer(treasurer models.ContactInfo) map[string]string {
	errs := map[string]string{}

	setFirst(errs, "name", Required(treasurer.Name, "Senior treasurer name"))
	setFirst(errs, "title", Required(treasurer.Title, "Senior treasurer title"))
	setFirst(errs, "designation", Required(treasurer.Designation, "Senior treasurer designation"))
	setFirst(errs, "department", Required(treasurer.Department, "Senior treasurer department"))
	setFirst(errs, "email", Required(treasurer.Email, "Senior treasurer email"), Email(treasurer.Email))
	setFirst(errs, "mobile", Required(treasurer.Mobile, "Senior treasurer mobile number"), Mobile(treasurer.Mobile))
	setFirst(errs, "address", Required(treasurer.Address, "Senior treasurer address"))

	return errs
}

// InvalidEmails returns the addresses that fail Email, treating blanks as invalid.
func InvalidEmails(emails []string) []string {
	invalid := make([]string, 0)
	for _, email := range emails {
		if strings.TrimSpace(email) == "" || Email(email) != "" {
			invalid = append(invalid, email)
		}
	}
	return invalid
}

// fieldAliases maps request field names onto the form keys that carry them
// when the two differ.
var fieldAliases = map[string]string{
	"applicant_name": "applicant_full_name",
}

// FieldErrors converts validator errors into form keys: nested structs join
// with "_" (president_email) and list rows with "." (committee_members.0.reg_no).
// It returns nil for any other error.
func FieldErrors(err error) map[string]string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}

	out := make(map[string]string, len(validationErrors))
	for _, fe := range validationErrors {
		key := formKey(fe.StructNamespace())
		if alias, ok := fieldAliases[key]; ok {
			key = alias
		}
		if _, exists := out[key]; !exists {
			out[key] = fmt.Sprintf("%s failed on the '%s' rule", fe.Field(), fe.Tag())
		}
	}
	return out
}

func formKey(namespace string) string {
	segments := strings.Split(namespace, ".")
	if len(segments) > 1 {
		segments = segments[1:]
	}

	var b strings.Builder
	afterIndex := false
	for _, segment := range segments {
		if segment == "SocietyApplicationRequest" {
			continue
		}
		name, index := segment, ""
		if open := strings.IndexByte(segment, '['); open >= 0 && strings.HasSuffix(segment, "]") {
			name, index = segment[:open], segment[open+1:len(segment)-1]
		}
		if b.Len() > 0 {
			if afterIndex {
				b.WriteByte('.')
			} else {
				b.WriteByte('_')
			}
		}
		b.WriteString(snakeCase(name))
		afterIndex = index != ""
		if afterIndex {
			b.WriteByte('.')
			b.WriteString(index)
		}
	}
	return b.String()
}

func snakeCase(name string) string {
	runes := []rune(name)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			prevLower := i > 0 && !unicode.IsUpper(runes[i-1])
			nextLower := i > 0 && i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevLower || nextLower {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Register installs the rules as validator tags: lk_email, lk_mobile and reg_no.
func Register(v *validator.Validate) error {
	rules := map[string]func(string) string{
		"lk_email":  Email,
		"lk_mobile": Mobile,
		"reg_no":    RegistrationNumber,
	}
	for tag, rule := range rules {
		rule := rule
		if err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			value := fl.Field().String()
			if value != "" && strings.TrimSpace(value) == "" {
				return false
			}
			return rule(value) == ""
		}); err != nil {
			return fmt.Errorf("register %s: %w", tag, err)
		}
	}
	return nil
}

// New builds a validator with the form rules registered.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := Register(v); err != nil {
		panic(err)
	}
	return v
}

func setFirst(errs map[string]string, field string, messages ...string) {
	for _, msg := range messages {
		if msg != "" {
			errs[field] = msg
			return
		}
	}
}

func stripSpace(value string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, value)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
