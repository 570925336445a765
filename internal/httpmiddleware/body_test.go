package httpmiddleware

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestMaxBody(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var readErr error
	r := gin.New()
	r.Use(MaxBody(8))
	r.POST("/", func(c *gin.Context) {
		_, readErr = io.ReadAll(c.Request.Body)
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("12345678"))))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, readErr)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("123456789"))))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	// no declared length, so the cap trips while reading
	readErr = nil
	req := httptest.NewRequest(http.MethodPost, "/", io.NopCloser(bytes.NewReader([]byte("123456789"))))
	req.ContentLength = -1
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	var maxErr *http.MaxBytesError
	assert.True(t, errors.As(readErr, &maxErr), "got %v", readErr)
}

func TestMaxBodyDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(MaxBody(0))
	r.POST("/", func(c *gin.Context) {
		b, _ := io.ReadAll(c.Request.Body)
		c.String(http.StatusOK, "%d", len(b))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(make([]byte, 1<<10))))
	assert.Equal(t, "1024", rec.Body.String())
}
