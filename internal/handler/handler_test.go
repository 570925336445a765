package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/suite"

	"retreat/internal/auth"
	"retreat/internal/registration"
)

const (
	testSigningKey = "test-signing-key"
	testIssuer     = "retreat-test"
)

type stubPhotos struct {
	err   error
	calls int
}

func (s *stubPhotos) Put(_ context.Context, name string, _ *registration.Photo) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return "https://storage.example.com/retreat-photos/" + name, nil
}

type stubNotifier struct {
	err      error
	photoURL string
	calls    int
}

func (s *stubNotifier) Notify(_ context.Context, _ registration.Submission, photoURL string, _ time.Time) error {
	s.calls++
	s.photoURL = photoURL
	return s.err
}

type stubLedger struct {
	entries []registration.Entry
}

func (s *stubLedger) Record(_ context.Context, e registration.Entry) error {
	s.entries = append(s.entries, e)
	return nil
}

func (s *stubLedger) List(_ context.Context, limit, offset int) ([]registration.Entry, error) {
	if offset >= len(s.entries) {
		return []registration.Entry{}, nil
	}
	end := min(offset+limit, len(s.entries))
	return s.entries[offset:end], nil
}

type HandlerSuite struct {
	suite.Suite
	photos   *stubPhotos
	notifier *stubNotifier
	ledger   *stubLedger
	router   *gin.Engine
}

func TestHandlerSuite(t *testing.T) {
	gin.SetMode(gin.TestMode)
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.photos = &stubPhotos{}
	s.notifier = &stubNotifier{}
	s.ledger = &stubLedger{}
	svc := registration.NewService(s.notifier,
		registration.WithPhotoStore(s.photos),
		registration.WithLedger(s.ledger),
	)
	h := New(svc, s.ledger, registration.NewSchema(1<<20), nil, zerolog.Nop())
	s.router = NewRouter(h, RouterConfig{
		JWTSigningKey: testSigningKey,
		JWTIssuer:     testIssuer,
		MaxBodyBytes:  1 << 20,
		Log:           zerolog.Nop(),
	})
}

func validFields() map[string]string {
	return map[string]string{
		"fullName":      "Ada Obi",
		"gender":        "Female",
		"age":           "29",
		"phone":         "08012345678",
		"email":         "ada@example.com",
		"location":      "Lagos",
		"affiliation":   "RDG",
		"dramaMINISTRY": "Yes",
		"confirmation":  "true",
	}
}

func multipartRequest(fields map[string]string, photo []byte, contentType string) *http.Request {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = w.WriteField(k, v)
	}
	if photo != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="photo"; filename="me.jpg"`)
		h.Set("Content-Type", contentType)
		part, _ := w.CreatePart(h)
		_, _ = part.Write(photo)
	}
	_ = w.Close()

	req := httptest.NewRequest(http.MethodPost, SubmitPath, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func jsonRequest(fields map[string]string) *http.Request {
	body, _ := json.Marshal(fields)
	req := httptest.NewRequest(http.MethodPost, SubmitPath, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func (s *HandlerSuite) serve(req *http.Request) (*httptest.ResponseRecorder, registration.Result) {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	var res registration.Result
	if rec.Body.Len() > 0 {
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &res), rec.Body.String())
	}
	return rec, res
}

func (s *HandlerSuite) TestSubmitWithPhoto() {
	req := multipartRequest(validFields(), []byte{0xff, 0xd8, 0xff, 0xe0}, "image/jpeg")
	req.Header.Set("Origin", "https://oog.lovable.app")
	rec, res := s.serve(req)

	s.Equal(http.StatusOK, rec.Code)
	s.True(res.Success)
	s.Equal(registration.SuccessMessage, res.Message)
	s.Contains(res.PhotoURL, "https://storage.example.com/retreat-photos/")
	s.Contains(res.PhotoURL, "_Ada_Obi_")
	s.Equal(res.PhotoURL, s.notifier.photoURL)
	s.Equal("*", rec.Header().Get("Access-Control-Allow-Origin"))
	s.Require().Len(s.ledger.entries, 1)
	s.Equal(registration.OutcomeCompleted, s.ledger.entries[0].Outcome)
}

func (s *HandlerSuite) TestSubmitJSONWithoutPhoto() {
	rec, res := s.serve(jsonRequest(validFields()))

	s.Equal(http.StatusOK, rec.Code)
	s.True(res.Success)
	s.Empty(res.PhotoURL)
	s.Zero(s.photos.calls)
	s.Equal(1, s.notifier.calls)
}

func (s *HandlerSuite) TestSubmitJSONTypedAgeAndConfirmation() {
	body := `{"fullName":"Ada Obi","gender":"Female","age":29,"phone":"08012345678",` +
		`"email":"ada@example.com","location":"Lagos","affiliation":"RDG","confirmation":true}`
	req := httptest.NewRequest(http.MethodPost, SubmitPath, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec, res := s.serve(req)

	s.Equal(http.StatusOK, rec.Code)
	s.True(res.Success)
	s.Equal(1, s.notifier.calls)
}

func (s *HandlerSuite) TestSubmitMultipartWithoutPhoto() {
	rec, res := s.serve(multipartRequest(validFields(), nil, ""))

	s.Equal(http.StatusOK, rec.Code)
	s.True(res.Success)
	s.Empty(res.PhotoURL)
	s.Zero(s.photos.calls)
}

func (s *HandlerSuite) TestStorageFailureStillSucceeds() {
	s.photos.err = errors.New("bucket offline")

	rec, res := s.serve(multipartRequest(validFields(), []byte{0xff, 0xd8}, "image/jpeg"))

	s.Equal(http.StatusOK, rec.Code)
	s.True(res.Success)
	s.Empty(res.PhotoURL)
	s.Equal(1, s.notifier.calls)
	s.Empty(s.notifier.photoURL)
	s.Require().Len(s.ledger.entries, 1)
	s.Equal(registration.OutcomeCompletedNoPhoto, s.ledger.entries[0].Outcome)
}

func (s *HandlerSuite) TestNotificationFailureReturns500() {
	s.notifier.err = errors.New("resend: 401 invalid api key")

	rec, res := s.serve(jsonRequest(validFields()))

	s.Equal(http.StatusInternalServerError, rec.Code)
	s.False(res.Success)
	s.Contains(res.Error, "invalid api key")
	s.Empty(s.ledger.entries)
}

func (s *HandlerSuite) TestValidationFailure() {
	fields := validFields()
	fields["age"] = "121"
	delete(fields, "confirmation")

	rec, res := s.serve(jsonRequest(fields))

	s.Equal(http.StatusBadRequest, rec.Code)
	s.False(res.Success)
	s.Equal("Please enter a valid age", res.Errors[registration.FieldAge])
	s.Equal("Please confirm to proceed", res.Errors[registration.FieldConfirmation])
	s.Zero(s.notifier.calls)
}

func (s *HandlerSuite) TestRejectsNonImagePhoto() {
	rec, res := s.serve(multipartRequest(validFields(), []byte("%PDF-1.4"), "application/pdf"))

	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("Please upload an image file", res.Errors[registration.FieldPhoto])
	s.Zero(s.photos.calls)
}

func (s *HandlerSuite) TestRejectsOversizedPhoto() {
	rec, res := s.serve(multipartRequest(validFields(), make([]byte, 1<<20+1), "image/png"))

	s.Equal(http.StatusBadRequest, rec.Code)
	s.False(res.Success)
	s.Zero(s.notifier.calls)
}

func (s *HandlerSuite) TestRejectsBodyOverCap() {
	// three times the photo cap, spread across text fields so no single
	// part trips the photo limit
	fields := validFields()
	fields["expectations"] = strings.Repeat("a", 3<<20)
	req := multipartRequest(fields, nil, "")
	rec, res := s.serve(req)

	s.Equal(http.StatusRequestEntityTooLarge, rec.Code)
	s.False(res.Success)
	s.Zero(s.notifier.calls)
	s.Empty(s.ledger.entries)
}

func (s *HandlerSuite) TestRejectsStreamedBodyOverCap() {
	fields := validFields()
	fields["expectations"] = strings.Repeat("a", 3<<20)
	req := multipartRequest(fields, nil, "")
	req.ContentLength = -1
	rec, res := s.serve(req)

	s.Equal(http.StatusRequestEntityTooLarge, rec.Code)
	s.False(res.Success)
	s.Zero(s.notifier.calls)
}

func (s *HandlerSuite) TestPreflight() {
	for _, origin := range []string{"", "https://oog.lovable.app"} {
		req := httptest.NewRequest(http.MethodOptions, SubmitPath, nil)
		if origin != "" {
			req.Header.Set("Origin", origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		}
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)

		s.Equal(http.StatusOK, rec.Code, "origin %q", origin)
		s.Equal("*", rec.Header().Get("Access-Control-Allow-Origin"), "origin %q", origin)
		s.Empty(rec.Body.String())
	}
	s.Zero(s.notifier.calls)
}

func (s *HandlerSuite) TestListRegistrationsRequiresAdmin() {
	req := httptest.NewRequest(http.MethodGet, "/v1/registrations", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Equal(http.StatusUnauthorized, rec.Code)

	tok, err := auth.Issue("someone", "viewer", testIssuer, testSigningKey, time.Hour)
	s.Require().NoError(err)
	req = httptest.NewRequest(http.MethodGet, "/v1/registrations", nil)
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Equal(http.StatusForbidden, rec.Code)
}

func (s *HandlerSuite) TestListRegistrations() {
	_, res := s.serve(jsonRequest(validFields()))
	s.Require().True(res.Success)

	tok, err := auth.Issue("ops", auth.RoleAdmin, testIssuer, testSigningKey, time.Hour)
	s.Require().NoError(err)
	req := httptest.NewRequest(http.MethodGet, "/v1/registrations?limit=10", nil)
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	s.Equal(http.StatusOK, rec.Code)
	var body struct {
		Registrations []registration.Entry `json:"registrations"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Require().Len(body.Registrations, 1)
	s.Equal("ada@example.com", body.Registrations[0].Email)
}

func (s *HandlerSuite) TestHealthz() {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	s.Equal(http.StatusOK, rec.Code)
}

func TestHealthzDegraded(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := New(nil, nil, registration.NewSchema(0), map[string]HealthCheck{
		"db": func(context.Context) bool { return false },
	}, zerolog.Nop())
	r := NewRouter(h, RouterConfig{Log: zerolog.Nop()})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 with a failing check, got %d", rec.Code)
	}
}

type denyAll struct{}

func (denyAll) Allow(context.Context, string) (bool, error) { return false, nil }

func TestSubmitRateLimited(t *testing.T) {
	gin.SetMode(gin.TestMode)
	notifier := &stubNotifier{}
	h := New(registration.NewService(notifier), nil, registration.NewSchema(0), nil, zerolog.Nop())
	r := NewRouter(h, RouterConfig{Limiter: denyAll{}, Log: zerolog.Nop()})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, jsonRequest(validFields()))

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if notifier.calls != 0 {
		t.Fatalf("expected no notification, got %d", notifier.calls)
	}
}
