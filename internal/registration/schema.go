package registration

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// DefaultMaxPhotoBytes caps photo uploads at 10 MiB.
const DefaultMaxPhotoBytes int64 = 10 << 20

// RuleKind tags the constraint a Rule applies.
type RuleKind int

const (
	KindRequiredText RuleKind = iota
	KindBoundedNumber
	KindChoice
	KindOptionalText
	KindMustBeTrue
)

func (k RuleKind) String() string {
	switch k {
	case KindRequiredText:
		return "required-text"
	case KindBoundedNumber:
		return "bounded-number"
	case KindChoice:
		return "enumerated-choice"
	case KindOptionalText:
		return "optional-text"
	case KindMustBeTrue:
		return "boolean-must-be-true"
	default:
		return "unknown"
	}
}

// Rule is a single field constraint. Only the parameters relevant to Kind
// are read.
type Rule struct {
	Kind RuleKind

	// KindRequiredText
	MinLen int
	Format string // validator tag applied after the length check, e.g. "email"

	// KindBoundedNumber
	Min, Max int

	// KindChoice
	Choices  []string
	Optional bool

	Message      string
	RangeMessage string // KindBoundedNumber: reported above Max
}

var validate = validator.New()

// Check evaluates value against the rule. It returns ok=false with a
// human-readable reason when the value is rejected.
func (r Rule) Check(value string) (reason string, ok bool) {
	v := strings.TrimSpace(value)
	switch r.Kind {
	case KindRequiredText:
		minLen := max(r.MinLen, 1)
		if utf8.RuneCountInString(v) < minLen {
			return r.Message, false
		}
		if r.Format != "" && validate.Var(v, r.Format) != nil {
			return r.Message, false
		}
	case KindBoundedNumber:
		n, err := strconv.Atoi(v)
		if err != nil || n < r.Min {
			return r.Message, false
		}
		if n > r.Max {
			if r.RangeMessage != "" {
				return r.RangeMessage, false
			}
			return r.Message, false
		}
	case KindChoice:
		if v == "" {
			if r.Optional {
				return "", true
			}
			return r.Message, false
		}
		if !slices.Contains(r.Choices, v) {
			return r.Message, false
		}
	case KindMustBeTrue:
		b, err := parseConfirmation(v)
		if err != nil || !b {
			return r.Message, false
		}
	case KindOptionalText:
	}
	return "", true
}

// FieldErrors maps each invalid field to its rejection reason.
type FieldErrors map[Field]string

func (e FieldErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, f := range append(slices.Clone(Fields), FieldPhoto) {
		if reason, ok := e[f]; ok {
			parts = append(parts, fmt.Sprintf("%s: %s", f, reason))
		}
	}
	return "invalid submission: " + strings.Join(parts, "; ")
}

func (e FieldErrors) Unwrap() error { return ErrInvalidSubmission }

// Schema is the fixed mapping from field to rule used on both sides of the
// wire.
type Schema struct {
	rules         map[Field]Rule
	maxPhotoBytes int64
}

// NewSchema returns the registration schema. maxPhotoBytes <= 0 selects
// DefaultMaxPhotoBytes.
func NewSchema(maxPhotoBytes int64) Schema {
	if maxPhotoBytes <= 0 {
		maxPhotoBytes = DefaultMaxPhotoBytes
	}
	yesNo := []string{AnswerYes, AnswerNo}
	return Schema{
		maxPhotoBytes: maxPhotoBytes,
		rules: map[Field]Rule{
			FieldFullName: {Kind: KindRequiredText, MinLen: 2, Message: "Please share your full name"},
			FieldGender: {
				Kind:    KindChoice,
				Choices: []string{GenderMale, GenderFemale},
				Message: "Please select your gender",
			},
			FieldAge: {
				Kind:         KindBoundedNumber,
				Min:          1,
				Max:          120,
				Message:      "Your age is important",
				RangeMessage: "Please enter a valid age",
			},
			FieldPhone:    {Kind: KindRequiredText, MinLen: 10, Message: "Please provide a valid phone number"},
			FieldEmail:    {Kind: KindRequiredText, Format: "email", Message: "Please enter a valid email address"},
			FieldLocation: {Kind: KindRequiredText, MinLen: 2, Message: "Please share your location"},
			FieldChurch:   {Kind: KindOptionalText},
			FieldAffiliation: {
				Kind:    KindChoice,
				Choices: []string{AffiliationElohims, AffiliationRDG, AffiliationNone},
				Message: "Please select your affiliation",
			},
			FieldHowHeard: {
				Kind:     KindChoice,
				Optional: true,
				Choices:  []string{HeardElohims, HeardRDG, HeardFriend, HeardChurch, HeardStatus, HeardOther},
				Message:  "Please pick one of the listed options",
			},
			FieldDramaMinistry: {
				Kind:     KindChoice,
				Optional: true,
				Choices:  []string{AnswerYes, AnswerNo, AnswerNotSure},
				Message:  "Please pick one of the listed options",
			},
			FieldWorshipMinister: {
				Kind:     KindChoice,
				Optional: true,
				Choices:  yesNo,
				Message:  "Please pick one of the listed options",
			},
			FieldExpectations:   {Kind: KindOptionalText},
			FieldHelpNeeded:     {Kind: KindOptionalText},
			FieldPrayerRequests: {Kind: KindOptionalText},
			FieldConfirmation:   {Kind: KindMustBeTrue, Message: "Please confirm to proceed"},
		},
	}
}

// Rule returns the rule bound to field.
func (s Schema) Rule(field Field) (Rule, bool) {
	r, ok := s.rules[field]
	return r, ok
}

// MaxPhotoBytes is the largest accepted photo.
func (s Schema) MaxPhotoBytes() int64 { return s.maxPhotoBytes }

// Check validates a single field value. Fields without a rule are accepted.
func (s Schema) Check(field Field, value string) (string, bool) {
	r, ok := s.rules[field]
	if !ok {
		return "", true
	}
	return r.Check(value)
}

// CheckPhoto accepts a missing photo, otherwise requires an image media type
// within the size cap.
func (s Schema) CheckPhoto(p *Photo) (string, bool) {
	if p.Empty() {
		return "", true
	}
	if !strings.HasPrefix(strings.ToLower(p.ContentType), "image/") {
		return "Please upload an image file", false
	}
	if int64(len(p.Data)) > s.maxPhotoBytes {
		return fmt.Sprintf("Please upload a photo smaller than %d MB", s.maxPhotoBytes>>20), false
	}
	return "", true
}

// Validate checks every field of form plus the optional photo. The result
// is empty when the submission is acceptable.
func (s Schema) Validate(form Form, photo *Photo) FieldErrors {
	errs := FieldErrors{}
	for _, f := range Fields {
		if reason, ok := s.Check(f, form.Get(f)); !ok {
			errs[f] = reason
		}
	}
	if reason, ok := s.CheckPhoto(photo); !ok {
		errs[FieldPhoto] = reason
	}
	return errs
}
