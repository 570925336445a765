package registration

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type fakePhotos struct {
	err   error
	names []string
}

func (f *fakePhotos) Put(_ context.Context, name string, _ *Photo) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.names = append(f.names, name)
	return "https://cdn.example.com/" + name, nil
}

type sentNotice struct {
	sub      Submission
	photoURL string
	at       time.Time
}

type fakeNotifier struct {
	err  error
	sent []sentNotice
}

func (f *fakeNotifier) Notify(_ context.Context, sub Submission, photoURL string, at time.Time) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentNotice{sub: sub, photoURL: photoURL, at: at})
	return nil
}

type fakeLedger struct {
	err     error
	entries []Entry
}

func (f *fakeLedger) Record(_ context.Context, e Entry) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, e)
	return nil
}

type countingObserver struct {
	mu       sync.Mutex
	outcomes []Outcome
	uploads  []bool
}

func (o *countingObserver) ObserveOutcome(out Outcome) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, out)
}

func (o *countingObserver) ObservePhotoUpload(ok bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.uploads = append(o.uploads, ok)
}

func (o *countingObserver) ObserveDispatch(time.Duration) {}

type ServiceSuite struct {
	suite.Suite
	photos   *fakePhotos
	notifier *fakeNotifier
	ledger   *fakeLedger
	observer *countingObserver
	now      time.Time
	svc      *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.photos = &fakePhotos{}
	s.notifier = &fakeNotifier{}
	s.ledger = &fakeLedger{}
	s.observer = &countingObserver{}
	s.now = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	s.svc = NewService(s.notifier,
		WithPhotoStore(s.photos),
		WithLedger(s.ledger),
		WithObserver(s.observer),
		WithClock(func() time.Time { return s.now }),
	)
}

func (s *ServiceSuite) submission(withPhoto bool) Submission {
	sub, err := validForm().Submission()
	s.Require().NoError(err)
	if withPhoto {
		sub.Photo = &Photo{Filename: "me.jpg", ContentType: "image/jpeg", Data: []byte{0xff, 0xd8}}
	}
	return sub
}

func (s *ServiceSuite) TestRegisterWithoutPhoto() {
	receipt, err := s.svc.Register(context.Background(), s.submission(false))
	s.Require().NoError(err)

	s.Equal(OutcomeCompleted, receipt.Outcome)
	s.Empty(receipt.PhotoURL)
	s.NotEmpty(receipt.ID)
	s.Empty(s.photos.names)
	s.Require().Len(s.notifier.sent, 1)
	s.Empty(s.notifier.sent[0].photoURL)
	s.Equal(s.now, s.notifier.sent[0].at)
}

func (s *ServiceSuite) TestRegisterWithPhoto() {
	receipt, err := s.svc.Register(context.Background(), s.submission(true))
	s.Require().NoError(err)

	s.Equal(OutcomeCompleted, receipt.Outcome)
	s.Require().Len(s.photos.names, 1)
	s.Contains(s.photos.names[0], "Ada_Obi_")
	s.Equal("https://cdn.example.com/"+s.photos.names[0], receipt.PhotoURL)
	s.Require().Len(s.notifier.sent, 1)
	s.Equal(receipt.PhotoURL, s.notifier.sent[0].photoURL)
	s.Equal([]bool{true}, s.observer.uploads)

	s.Require().Len(s.ledger.entries, 1)
	s.Equal(receipt.ID, s.ledger.entries[0].ID)
	s.Equal(receipt.PhotoURL, s.ledger.entries[0].PhotoURL)
}

func (s *ServiceSuite) TestStorageFailureStillNotifies() {
	s.photos.err = errors.New("bucket unavailable")

	receipt, err := s.svc.Register(context.Background(), s.submission(true))
	s.Require().NoError(err)

	s.Equal(OutcomeCompletedNoPhoto, receipt.Outcome)
	s.True(receipt.Outcome.Succeeded())
	s.Empty(receipt.PhotoURL)
	s.Require().Len(s.notifier.sent, 1)
	s.Empty(s.notifier.sent[0].photoURL)
	s.Equal([]bool{false}, s.observer.uploads)
	s.Equal([]Outcome{OutcomeCompletedNoPhoto}, s.observer.outcomes)
}

func (s *ServiceSuite) TestNotificationFailure() {
	s.notifier.err = errors.New("resend: 401")

	receipt, err := s.svc.Register(context.Background(), s.submission(true))
	s.Require().Error(err)

	s.ErrorIs(err, ErrNotificationFailed)
	s.Equal(OutcomeFailed, receipt.Outcome)
	s.False(receipt.Outcome.Succeeded())
	s.Empty(receipt.PhotoURL)
	s.Empty(s.ledger.entries)
	s.Equal([]Outcome{OutcomeFailed}, s.observer.outcomes)
}

func (s *ServiceSuite) TestLedgerFailureIsNotSurfaced() {
	s.ledger.err = errors.New("disk full")

	receipt, err := s.svc.Register(context.Background(), s.submission(false))
	s.Require().NoError(err)
	s.Equal(OutcomeCompleted, receipt.Outcome)
}

func TestRegisterWithoutPhotoStore(t *testing.T) {
	notifier := &fakeNotifier{}
	svc := NewService(notifier)

	sub, err := validForm().Submission()
	require.NoError(t, err)
	sub.Photo = &Photo{Filename: "me.jpg", ContentType: "image/jpeg", Data: []byte{1}}

	receipt, err := svc.Register(context.Background(), sub)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCompletedNoPhoto, receipt.Outcome)
	assert.Len(t, notifier.sent, 1)
}
