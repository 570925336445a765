package registration

import (
	"errors"
	"time"
)

var (
	// ErrInvalidSubmission wraps field validation failures.
	ErrInvalidSubmission = errors.New("invalid submission")
	// ErrNotificationFailed is returned when the email could not be dispatched.
	ErrNotificationFailed = errors.New("notification dispatch failed")
)

// Outcome is the terminal state of a registration.
type Outcome string

const (
	OutcomeCompleted        Outcome = "COMPLETED"
	OutcomeCompletedNoPhoto Outcome = "COMPLETED_NO_PHOTO"
	OutcomeFailed           Outcome = "FAILED"
)

// Succeeded reports whether the registration reached the organisers.
func (o Outcome) Succeeded() bool {
	return o == OutcomeCompleted || o == OutcomeCompletedNoPhoto
}

// Receipt describes how a registration ended.
type Receipt struct {
	ID          string
	Outcome     Outcome
	PhotoURL    string
	SubmittedAt time.Time
}

// SuccessMessage is returned to the submitter on completion.
const SuccessMessage = "Registration submitted successfully"

// Result is the JSON document exchanged between the submission client and
// the registration endpoint. Success is authoritative; an HTTP 2xx alone
// does not mean the registration went through.
type Result struct {
	Success  bool        `json:"success"`
	Message  string      `json:"message,omitempty"`
	PhotoURL string      `json:"photoUrl,omitempty"`
	Error    string      `json:"error,omitempty"`
	Errors   FieldErrors `json:"errors,omitempty"`
}
