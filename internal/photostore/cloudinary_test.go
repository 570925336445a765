package photostore

import (
	"context"
	"crypto/sha1"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloudinaryPut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1_1/demo/image/upload", r.URL.Path)
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}

		assert.Equal(t, "1_Ada_abc", r.FormValue("public_id"))
		assert.Equal(t, "false", r.FormValue("overwrite"))
		assert.Equal(t, "retreat-photos", r.FormValue("folder"))
		assert.Equal(t, "1700000000", r.FormValue("timestamp"))
		assert.Equal(t, "key", r.FormValue("api_key"))

		var pairs []string
		for k, v := range r.MultipartForm.Value {
			if k == "api_key" || k == "signature" {
				continue
			}
			pairs = append(pairs, k+"="+v[0])
		}
		sort.Strings(pairs)
		want := fmt.Sprintf("%x", sha1.Sum([]byte(strings.Join(pairs, "&")+"secret")))
		assert.Equal(t, want, r.FormValue("signature"))

		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer file.Close()
		assert.Equal(t, "image/jpeg", header.Header.Get("Content-Type"))
		data, _ := io.ReadAll(file)
		assert.Equal(t, []byte{0xff, 0xd8, 0xff}, data)

		_, _ = w.Write([]byte(`{"public_id":"retreat-photos/1_Ada_abc","secure_url":"https://res.cloudinary.com/demo/image/upload/retreat-photos/1_Ada_abc.jpg"}`))
	}))
	defer srv.Close()

	c := NewCloudinary("demo", "key", "secret", "retreat-photos")
	c.APIBase = srv.URL
	c.now = func() time.Time { return time.Unix(1700000000, 0) }

	url, err := c.Put(context.Background(), "1_Ada_abc.jpg", testPhoto())
	require.NoError(t, err)
	assert.Equal(t, "https://res.cloudinary.com/demo/image/upload/retreat-photos/1_Ada_abc.jpg", url)
}

func TestCloudinaryPutError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"public_id already exists"}}`))
	}))
	defer srv.Close()

	c := NewCloudinary("demo", "key", "secret", "")
	c.APIBase = srv.URL

	_, err := c.Put(context.Background(), "1_Ada_abc.jpg", testPhoto())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}
