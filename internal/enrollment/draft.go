package enrollment

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/kozaktomas/face-enroll/internal/faceapi"
)

// Field names a draft attribute. The values double as JSON keys.
type Field string

const (
	FieldIDNumber  Field = "id_number"
	FieldFullName  Field = "full_name"
	FieldGender    Field = "gender"
	FieldBirthDate Field = "birth_date"
	FieldAddress   Field = "address"
)

// Fields lists the draft fields in form order
var Fields = []Field{FieldIDNumber, FieldFullName, FieldGender, FieldBirthDate, FieldAddress}

// Genders accepted by the backend
var Genders = []string{"male", "female", "other"}

// Draft is the identity data of one enrollment attempt, as entered.
type Draft struct {
	IDNumber  string `json:"id_number"`
	FullName  string `json:"full_name"`
	Gender    string `json:"gender"`
	BirthDate string `json:"birth_date"`
	Address   string `json:"address"`
}

// Set changes one field
func (d *Draft) Set(f Field, value string) error {
	switch f {
	case FieldIDNumber:
		d.IDNumber = value
	case FieldFullName:
		d.FullName = value
	case FieldGender:
		d.Gender = value
	case FieldBirthDate:
		d.BirthDate = value
	case FieldAddress:
		d.Address = value
	default:
		return fmt.Errorf("unknown field %q", f)
	}
	return nil
}

// Get returns one field value
func (d Draft) Get(f Field) string {
	switch f {
	case FieldIDNumber:
		return d.IDNumber
	case FieldFullName:
		return d.FullName
	case FieldGender:
		return d.Gender
	case FieldBirthDate:
		return d.BirthDate
	case FieldAddress:
		return d.Address
	}
	return ""
}

// Normalize trims surrounding whitespace and composes unicode (NFC) so that
// names typed with combining marks are submitted in one canonical form.
// Gender is lower-cased.
func (d Draft) Normalize() Draft {
	clean := func(s string) string {
		return norm.NFC.String(strings.TrimSpace(s))
	}
	return Draft{
		IDNumber:  clean(d.IDNumber),
		FullName:  clean(d.FullName),
		Gender:    strings.ToLower(clean(d.Gender)),
		BirthDate: clean(d.BirthDate),
		Address:   clean(d.Address),
	}
}

// EnrollFields converts the draft into the API payload
func (d Draft) EnrollFields() faceapi.EnrollFields {
	return faceapi.EnrollFields{
		IDNumber:  d.IDNumber,
		FullName:  d.FullName,
		Gender:    d.Gender,
		BirthDate: d.BirthDate,
		Address:   d.Address,
	}
}

// IsEmpty reports whether no field was filled in
func (d Draft) IsEmpty() bool {
	return d == Draft{}
}
