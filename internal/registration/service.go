package registration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PhotoStore writes a photo once under name and returns its public URL.
type PhotoStore interface {
	Put(ctx context.Context, name string, photo *Photo) (string, error)
}

// Notifier delivers the organiser notification for a submission.
type Notifier interface {
	Notify(ctx context.Context, sub Submission, photoURL string, at time.Time) error
}

// Ledger records completed registrations.
type Ledger interface {
	Record(ctx context.Context, entry Entry) error
}

// Observer receives pipeline measurements.
type Observer interface {
	ObserveOutcome(Outcome)
	ObservePhotoUpload(ok bool)
	ObserveDispatch(time.Duration)
}

type noopObserver struct{}

func (noopObserver) ObserveOutcome(Outcome)        {}
func (noopObserver) ObservePhotoUpload(bool)       {}
func (noopObserver) ObserveDispatch(time.Duration) {}

// Service runs a registration through photo storage and notification.
type Service struct {
	photos   PhotoStore
	notifier Notifier
	ledger   Ledger
	observer Observer
	log      zerolog.Logger
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithPhotoStore enables photo persistence. Without a store every photo
// ends as OutcomeCompletedNoPhoto.
func WithPhotoStore(p PhotoStore) Option { return func(s *Service) { s.photos = p } }

// WithLedger records completed registrations.
func WithLedger(l Ledger) Option { return func(s *Service) { s.ledger = l } }

// WithObserver attaches metrics.
func WithObserver(o Observer) Option { return func(s *Service) { s.observer = o } }

// WithLogger sets the service logger.
func WithLogger(l zerolog.Logger) Option { return func(s *Service) { s.log = l } }

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// NewService creates a service that notifies through n.
func NewService(n Notifier, opts ...Option) *Service {
	s := &Service{
		notifier: n,
		observer: noopObserver{},
		log:      zerolog.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register stores the photo (best effort), sends the notification and
// records the result. A storage failure degrades to OutcomeCompletedNoPhoto;
// a dispatch failure is fatal and returns ErrNotificationFailed.
func (s *Service) Register(ctx context.Context, sub Submission) (Receipt, error) {
	at := s.now()
	receipt := Receipt{ID: uuid.NewString(), Outcome: OutcomeCompleted, SubmittedAt: at}
	log := s.log.With().Str("registration_id", receipt.ID).Logger()

	if !sub.Photo.Empty() {
		url, err := s.storePhoto(ctx, at, sub)
		if err != nil {
			log.Warn().Err(err).Msg("photo upload failed, continuing without photo")
			receipt.Outcome = OutcomeCompletedNoPhoto
		} else {
			log.Info().Str("photo_url", url).Msg("photo uploaded")
			receipt.PhotoURL = url
		}
	}

	start := time.Now()
	err := s.notifier.Notify(ctx, sub, receipt.PhotoURL, at)
	s.observer.ObserveDispatch(time.Since(start))
	if err != nil {
		log.Error().Err(err).Msg("notification dispatch failed")
		s.observer.ObserveOutcome(OutcomeFailed)
		return Receipt{ID: receipt.ID, Outcome: OutcomeFailed, SubmittedAt: at},
			fmt.Errorf("%w: %w", ErrNotificationFailed, err)
	}
	s.observer.ObserveOutcome(receipt.Outcome)
	log.Info().Str("outcome", string(receipt.Outcome)).Msg("registration notified")

	if s.ledger != nil {
		if err := s.ledger.Record(ctx, newEntry(receipt, sub)); err != nil {
			log.Warn().Err(err).Msg("ledger write failed")
		}
	}
	return receipt, nil
}

var errNoPhotoStore = errors.New("photo storage not configured")

func (s *Service) storePhoto(ctx context.Context, at time.Time, sub Submission) (string, error) {
	if s.photos == nil {
		s.observer.ObservePhotoUpload(false)
		return "", errNoPhotoStore
	}
	name := PhotoObjectName(at, sub.FullName, sub.Photo.Filename)
	url, err := s.photos.Put(ctx, name, sub.Photo)
	s.observer.ObservePhotoUpload(err == nil)
	if err != nil {
		return "", fmt.Errorf("store %s: %w", name, err)
	}
	return url, nil
}
