package enrollment

import (
	"errors"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldErrors maps a field to its validation message. Entries with an empty
// message are cleared errors and do not block submission.
type FieldErrors map[Field]string

// Empty reports whether no field has an error message
func (e FieldErrors) Empty() bool {
	for _, msg := range e {
		if msg != "" {
			return false
		}
	}
	return true
}

// ValidationError blocks a submission. It never leaves the client.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for f, msg := range e.Fields {
		if msg != "" {
			keys = append(keys, string(f))
		}
	}
	sort.Strings(keys)
	return "validation failed: " + strings.Join(keys, ", ")
}

// draftRules carries the validation tags. Values are validated after Normalize,
// except a non-blank ID number, whose 12-digit rule applies to the value as typed.
type draftRules struct {
	IDNumber  string `validate:"required,len=12,number"`
	FullName  string `validate:"required"`
	Gender    string `validate:"required,oneof=male female other"`
	BirthDate string `validate:"required,datetime=2006-01-02"`
	Address   string `validate:"required"`
}

var ruleFields = map[string]Field{
	"IDNumber":  FieldIDNumber,
	"FullName":  FieldFullName,
	"Gender":    FieldGender,
	"BirthDate": FieldBirthDate,
	"Address":   FieldAddress,
}

var requiredMessages = map[Field]string{
	FieldIDNumber:  "CCCD number is required",
	FieldFullName:  "Full name is required",
	FieldGender:    "Gender is required",
	FieldBirthDate: "Birth date is required",
	FieldAddress:   "Permanent address is required",
}

var formatMessages = map[Field]string{
	FieldIDNumber:  "CCCD number must be 12 digits",
	FieldGender:    "Gender must be male, female or other",
	FieldBirthDate: "Birth date must be a date in YYYY-MM-DD format",
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the draft and returns an error message per failing field.
// The result is empty iff every rule passes. It has no side effects.
func Validate(d Draft) FieldErrors {
	n := d.Normalize()
	rules := draftRules(n)
	if n.IDNumber != "" {
		rules.IDNumber = d.IDNumber
	}

	errs := FieldErrors{}
	err := validate.Struct(rules)
	if err == nil {
		return errs
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		// Only possible for programming errors such as a bad tag.
		panic("enrollment: unexpected validation error: " + err.Error())
	}
	for _, fe := range verrs {
		field := ruleFields[fe.StructField()]
		if _, seen := errs[field]; seen {
			continue
		}
		if fe.Tag() == "required" {
			errs[field] = requiredMessages[field]
		} else {
			errs[field] = formatMessages[field]
		}
	}
	return errs
}
