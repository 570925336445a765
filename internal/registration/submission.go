package registration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Field names a registration input. Values are the wire names the form posts.
type Field string

const (
	FieldFullName        Field = "fullName"
	FieldGender          Field = "gender"
	FieldAge             Field = "age"
	FieldPhone           Field = "phone"
	FieldEmail           Field = "email"
	FieldLocation        Field = "location"
	FieldChurch          Field = "church"
	FieldAffiliation     Field = "affiliation"
	FieldHowHeard        Field = "howHeard"
	FieldDramaMinistry   Field = "dramaMINISTRY"
	FieldWorshipMinister Field = "worshipMinister"
	FieldExpectations    Field = "expectations"
	FieldHelpNeeded      Field = "helpNeeded"
	FieldPrayerRequests  Field = "prayerRequests"
	FieldConfirmation    Field = "confirmation"
	FieldPhoto           Field = "photo"
)

// Fields lists every text field in form order.
var Fields = []Field{
	FieldFullName, FieldGender, FieldAge, FieldPhone, FieldEmail, FieldLocation,
	FieldChurch, FieldAffiliation, FieldHowHeard, FieldDramaMinistry,
	FieldWorshipMinister, FieldExpectations, FieldHelpNeeded, FieldPrayerRequests,
	FieldConfirmation,
}

// Choice values offered by the form's select inputs.
const (
	GenderMale   = "Male"
	GenderFemale = "Female"

	AffiliationElohims = "ELOHIM'S"
	AffiliationRDG     = "RDG"
	AffiliationNone    = "Nil"

	HeardElohims = "ELOHIM'S"
	HeardRDG     = "RDG"
	HeardFriend  = "FRIEND"
	HeardChurch  = "CHURCH"
	HeardStatus  = "STATUS"
	HeardOther   = "OTHER"

	AnswerYes     = "Yes"
	AnswerNo      = "No"
	AnswerNotSure = "Not Sure Yet"
)

// Photo is an optional binary attachment with its declared media type.
type Photo struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Empty reports whether there is nothing to store.
func (p *Photo) Empty() bool {
	return p == nil || len(p.Data) == 0
}

// Form carries raw field values exactly as entered. It is the wire shape
// for both multipart and JSON bodies.
type Form struct {
	FullName        string `form:"fullName" json:"fullName" yaml:"fullName"`
	Gender          string `form:"gender" json:"gender" yaml:"gender"`
	Age             string `form:"age" json:"age" yaml:"age"`
	Phone           string `form:"phone" json:"phone" yaml:"phone"`
	Email           string `form:"email" json:"email" yaml:"email"`
	Location        string `form:"location" json:"location" yaml:"location"`
	Church          string `form:"church" json:"church,omitempty" yaml:"church"`
	Affiliation     string `form:"affiliation" json:"affiliation" yaml:"affiliation"`
	HowHeard        string `form:"howHeard" json:"howHeard,omitempty" yaml:"howHeard"`
	DramaMinistry   string `form:"dramaMINISTRY" json:"dramaMINISTRY,omitempty" yaml:"dramaMINISTRY"`
	WorshipMinister string `form:"worshipMinister" json:"worshipMinister,omitempty" yaml:"worshipMinister"`
	Expectations    string `form:"expectations" json:"expectations,omitempty" yaml:"expectations"`
	HelpNeeded      string `form:"helpNeeded" json:"helpNeeded,omitempty" yaml:"helpNeeded"`
	PrayerRequests  string `form:"prayerRequests" json:"prayerRequests,omitempty" yaml:"prayerRequests"`
	Confirmation    string `form:"confirmation" json:"confirmation" yaml:"confirmation"`
}

// UnmarshalJSON accepts age and confirmation as JSON numbers and booleans
// as well as strings, so API clients may send them typed.
func (f *Form) UnmarshalJSON(data []byte) error {
	type plain Form
	aux := struct {
		*plain
		Age          json.RawMessage `json:"age"`
		Confirmation json.RawMessage `json:"confirmation"`
	}{plain: (*plain)(f)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	var err error
	if f.Age, err = scalarString(aux.Age); err != nil {
		return fmt.Errorf("age: %w", err)
	}
	if f.Confirmation, err = scalarString(aux.Confirmation); err != nil {
		return fmt.Errorf("confirmation: %w", err)
	}
	return nil
}

// scalarString returns a JSON string's value or a number or boolean's
// literal text. null and a missing value give "".
func scalarString(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	switch raw[0] {
	case '"':
		var s string
		err := json.Unmarshal(raw, &s)
		return s, err
	case '{', '[':
		return "", fmt.Errorf("want a string, number or boolean, got %s", raw)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", err
	}
	return string(raw), nil
}

func (f *Form) ref(field Field) *string {
	switch field {
	case FieldFullName:
		return &f.FullName
	case FieldGender:
		return &f.Gender
	case FieldAge:
		return &f.Age
	case FieldPhone:
		return &f.Phone
	case FieldEmail:
		return &f.Email
	case FieldLocation:
		return &f.Location
	case FieldChurch:
		return &f.Church
	case FieldAffiliation:
		return &f.Affiliation
	case FieldHowHeard:
		return &f.HowHeard
	case FieldDramaMinistry:
		return &f.DramaMinistry
	case FieldWorshipMinister:
		return &f.WorshipMinister
	case FieldExpectations:
		return &f.Expectations
	case FieldHelpNeeded:
		return &f.HelpNeeded
	case FieldPrayerRequests:
		return &f.PrayerRequests
	case FieldConfirmation:
		return &f.Confirmation
	}
	return nil
}

// Get returns the raw value of field, or "" for an unknown field.
func (f Form) Get(field Field) string {
	if p := f.ref(field); p != nil {
		return *p
	}
	return ""
}

// Set stores value for field. Unknown fields are ignored.
func (f *Form) Set(field Field, value string) {
	if p := f.ref(field); p != nil {
		*p = value
	}
}

// Submission is a validated registration with typed values.
type Submission struct {
	FullName        string
	Gender          string
	Age             int
	Phone           string
	Email           string
	Location        string
	Church          string
	Affiliation     string
	Photo           *Photo
	HowHeard        string
	DramaMinistry   string
	WorshipMinister string
	Expectations    string
	HelpNeeded      string
	PrayerRequests  string
	Confirmed       bool
}

// Submission converts raw values into a typed submission. Callers validate
// first; conversion only fails when age or confirmation cannot be parsed.
func (f Form) Submission() (Submission, error) {
	age, err := strconv.Atoi(strings.TrimSpace(f.Age))
	if err != nil {
		return Submission{}, fmt.Errorf("parse age: %w", err)
	}
	confirmed, err := parseConfirmation(f.Confirmation)
	if err != nil {
		return Submission{}, fmt.Errorf("parse confirmation: %w", err)
	}
	return Submission{
		FullName:        strings.TrimSpace(f.FullName),
		Gender:          strings.TrimSpace(f.Gender),
		Age:             age,
		Phone:           strings.TrimSpace(f.Phone),
		Email:           strings.TrimSpace(f.Email),
		Location:        strings.TrimSpace(f.Location),
		Church:          strings.TrimSpace(f.Church),
		Affiliation:     strings.TrimSpace(f.Affiliation),
		HowHeard:        strings.TrimSpace(f.HowHeard),
		DramaMinistry:   strings.TrimSpace(f.DramaMinistry),
		WorshipMinister: strings.TrimSpace(f.WorshipMinister),
		Expectations:    f.Expectations,
		HelpNeeded:      f.HelpNeeded,
		PrayerRequests:  f.PrayerRequests,
		Confirmed:       confirmed,
	}, nil
}

// parseConfirmation accepts "on", the value an HTML checkbox posts, besides
// the strconv boolean forms.
func parseConfirmation(v string) (bool, error) {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, "on") {
		return true, nil
	}
	return strconv.ParseBool(v)
}

// Form returns the wire representation of s. Optional values stay empty
// when unset so encoders can omit them.
func (s Submission) Form() Form {
	return Form{
		FullName:        s.FullName,
		Gender:          s.Gender,
		Age:             strconv.Itoa(s.Age),
		Phone:           s.Phone,
		Email:           s.Email,
		Location:        s.Location,
		Church:          s.Church,
		Affiliation:     s.Affiliation,
		HowHeard:        s.HowHeard,
		DramaMinistry:   s.DramaMinistry,
		WorshipMinister: s.WorshipMinister,
		Expectations:    s.Expectations,
		HelpNeeded:      s.HelpNeeded,
		PrayerRequests:  s.PrayerRequests,
		Confirmation:    strconv.FormatBool(s.Confirmed),
	}
}
