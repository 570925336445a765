package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"retreat/internal/registration"
)

// Registrar runs a validated submission through the pipeline.
type Registrar interface {
	Register(ctx context.Context, sub registration.Submission) (registration.Receipt, error)
}

// Lister reads the registration ledger.
type Lister interface {
	List(ctx context.Context, limit, offset int) ([]registration.Entry, error)
}

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) bool

type Handler struct {
	registrar Registrar
	ledger    Lister // nil when no database is configured
	schema    registration.Schema
	checks    map[string]HealthCheck
	log       zerolog.Logger
}

func New(r Registrar, ledger Lister, schema registration.Schema, checks map[string]HealthCheck, log zerolog.Logger) *Handler {
	return &Handler{
		registrar: r,
		ledger:    ledger,
		schema:    schema,
		checks:    checks,
		log:       log.With().Str("component", "handler").Logger(),
	}
}

// ---------- Health ----------

func (h *Handler) Healthz(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{"status": "ok"}
	for name, check := range h.checks {
		ok := check(c.Request.Context())
		body[name] = ok
		if !ok {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
		}
	}
	c.JSON(status, body)
}

// ---------- Submit Registration ----------

// SubmitRegistration accepts a multipart form (fields plus optional "photo"
// file) or a JSON document with the same field names. Fields are validated
// again here before anything is stored or sent.
func (h *Handler) SubmitRegistration(c *gin.Context) {
	var form registration.Form
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(readStatus(err), registration.Result{Success: false, Error: "could not read registration: " + err.Error()})
		return
	}

	photo, err := h.readPhoto(c)
	if err != nil {
		h.log.Warn().Err(err).Msg("photo read failed")
		c.JSON(readStatus(err), registration.Result{Success: false, Error: err.Error()})
		return
	}

	if errs := h.schema.Validate(form, photo); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, registration.Result{
			Success: false,
			Error:   "Please correct the highlighted fields",
			Errors:  errs,
		})
		return
	}

	sub, err := form.Submission()
	if err != nil {
		c.JSON(http.StatusBadRequest, registration.Result{Success: false, Error: err.Error()})
		return
	}
	sub.Photo = photo

	receipt, err := h.registrar.Register(c.Request.Context(), sub)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, registration.ErrInvalidSubmission) {
			status = http.StatusBadRequest
		}
		c.JSON(status, registration.Result{Success: false, Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, registration.Result{
		Success:  true,
		Message:  registration.SuccessMessage,
		PhotoURL: receipt.PhotoURL,
	})
}

var errPhotoTooLarge = errors.New("photo exceeds the upload size limit")

// readStatus maps a body read failure to 413 when the request outgrew the
// body cap and 400 otherwise.
func readStatus(err error) int {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

// readPhoto returns the uploaded photo, or nil when the request has none or
// the part is empty.
func (h *Handler) readPhoto(c *gin.Context) (*registration.Photo, error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return nil, nil
	}
	file, header, err := c.Request.FormFile(string(registration.FieldPhoto))
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	limit := h.schema.MaxPhotoBytes()
	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, errPhotoTooLarge
	}
	if len(data) == 0 {
		return nil, nil
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return &registration.Photo{Filename: header.Filename, ContentType: contentType, Data: data}, nil
}

// ---------- Ledger ----------

func (h *Handler) ListRegistrations(c *gin.Context) {
	if h.ledger == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "registration ledger not configured"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	entries, err := h.ledger.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.log.Error().Err(err).Msg("list registrations failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list registrations"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"registrations": entries})
}
