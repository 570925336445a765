// Package form holds the client-side state of the registration form.
package form

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"retreat/internal/notice"
	"retreat/internal/registration"
)

// DramaMessage is shown while the drama ministry answer is Yes.
const DramaMessage = "We're glad to have passionate vessels of expression."

// ErrInFlight is returned when Submit is called while another submission is
// still pending.
var ErrInFlight = errors.New("submission already in progress")

// Submitter delivers a validated submission to the backend.
type Submitter interface {
	Submit(ctx context.Context, sub registration.Submission) (registration.Result, error)
}

// Controller owns the form's values and validation state. Fields are only
// re-validated on change after the first submit attempt.
type Controller struct {
	mu         sync.Mutex
	schema     registration.Schema
	submitter  Submitter
	bus        *notice.Bus
	log        zerolog.Logger
	values     registration.Form
	photo      *registration.Photo
	errs       registration.FieldErrors
	attempted  bool
	submitting bool
}

// NewController returns an empty form. bus may be nil when nobody listens
// for notices.
func NewController(schema registration.Schema, s Submitter, bus *notice.Bus, log zerolog.Logger) *Controller {
	return &Controller{
		schema:    schema,
		submitter: s,
		bus:       bus,
		log:       log,
		errs:      registration.FieldErrors{},
	}
}

// Set records a value. After the first submit attempt the field is checked
// again so its error appears or clears immediately.
func (c *Controller) Set(field registration.Field, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.values.Set(field, value)
	if !c.attempted {
		return
	}
	if reason, ok := c.schema.Check(field, value); ok {
		delete(c.errs, field)
	} else {
		c.errs[field] = reason
	}
}

// SetPhoto attaches or, with nil, removes the photo.
func (c *Controller) SetPhoto(p *registration.Photo) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.photo = p
	if !c.attempted {
		return
	}
	if reason, ok := c.schema.CheckPhoto(p); ok {
		delete(c.errs, registration.FieldPhoto)
	} else {
		c.errs[registration.FieldPhoto] = reason
	}
}

// Load replaces every text value with those in f.
func (c *Controller) Load(f registration.Form) {
	for _, field := range registration.Fields {
		c.Set(field, f.Get(field))
	}
}

// Value returns the current raw value of field.
func (c *Controller) Value(field registration.Field) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.values.Get(field)
}

// Values returns a copy of every text value.
func (c *Controller) Values() registration.Form {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.values
}

// Photo returns the attached photo, if any.
func (c *Controller) Photo() *registration.Photo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.photo
}

// Errors returns a copy of the current field errors.
func (c *Controller) Errors() registration.FieldErrors {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(registration.FieldErrors, len(c.errs))
	for f, reason := range c.errs {
		out[f] = reason
	}
	return out
}

// ShowDramaMessage reports whether DramaMessage should be visible.
func (c *Controller) ShowDramaMessage() bool {
	return c.Value(registration.FieldDramaMinistry) == registration.AnswerYes
}

// Submitting reports whether a submission is in flight.
func (c *Controller) Submitting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitting
}

// Validate checks the whole form and replaces the current errors.
func (c *Controller) Validate() registration.FieldErrors {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.validateLocked()
}

func (c *Controller) validateLocked() registration.FieldErrors {
	c.attempted = true
	c.errs = c.schema.Validate(c.values, c.photo)
	out := make(registration.FieldErrors, len(c.errs))
	for f, reason := range c.errs {
		out[f] = reason
	}
	return out
}

// Submit validates and, when the form is valid, sends it once. A rejected
// form returns registration.FieldErrors and makes no request. On success
// the form is reset and a success notice is published; on failure the
// values are kept and a failure notice is published.
func (c *Controller) Submit(ctx context.Context) (registration.Result, error) {
	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return registration.Result{}, ErrInFlight
	}
	if errs := c.validateLocked(); len(errs) > 0 {
		c.mu.Unlock()
		return registration.Result{}, errs
	}
	sub, err := c.values.Submission()
	if err != nil {
		c.mu.Unlock()
		return registration.Result{}, fmt.Errorf("%w: %w", registration.ErrInvalidSubmission, err)
	}
	sub.Photo = c.photo
	c.submitting = true
	c.mu.Unlock()

	res, err := c.submitter.Submit(ctx, sub)

	c.mu.Lock()
	c.submitting = false
	if err != nil {
		c.mu.Unlock()
		c.log.Error().Err(err).Msg("submission failed")
		c.publish(notice.SubmissionFailed)
		return res, err
	}
	c.resetLocked()
	c.mu.Unlock()

	c.log.Info().Str("photo_url", res.PhotoURL).Msg("submission accepted")
	n := notice.SubmissionSucceeded
	n.PhotoURL = res.PhotoURL
	c.publish(n)
	return res, nil
}

// Reset clears every value and error without a notice.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

// Clear resets the form and tells the user it was cleared.
func (c *Controller) Clear() {
	c.Reset()
	c.publish(notice.FormCleared)
}

func (c *Controller) resetLocked() {
	c.values = registration.Form{}
	c.photo = nil
	c.errs = registration.FieldErrors{}
	c.attempted = false
}

func (c *Controller) publish(n notice.Notice) {
	if c.bus != nil {
		c.bus.Publish(n)
	}
}
