package photostore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"retreat/internal/registration"
)

// DefaultBucket holds retreat photos.
const DefaultBucket = "retreat-photos"

// Supabase writes photos to a Supabase Storage bucket over its REST API.
type Supabase struct {
	BaseURL string
	Key     string
	Bucket  string
	HTTP    *http.Client
}

// NewSupabase creates a store for bucket using a service role key.
func NewSupabase(baseURL, key, bucket string) *Supabase {
	if bucket == "" {
		bucket = DefaultBucket
	}
	return &Supabase{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Key:     key,
		Bucket:  bucket,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Put uploads with upsert disabled, so an existing object is never replaced,
// and returns the object's public URL.
func (s *Supabase) Put(ctx context.Context, name string, photo *registration.Photo) (string, error) {
	objectPath := s.Bucket + "/" + url.PathEscape(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.BaseURL+"/storage/v1/object/"+objectPath, bytes.NewReader(photo.Data))
	if err != nil {
		return "", fmt.Errorf("supabase: create request failed: %w", err)
	}
	contentType := photo.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Authorization", "Bearer "+s.Key)
	req.Header.Set("apikey", s.Key)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "false")

	resp, err := s.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("supabase: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("supabase: upload failed (%d): %s", resp.StatusCode, string(body))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return s.PublicURL(name), nil
}

// PublicURL is the anonymous read URL of an object in the bucket.
func (s *Supabase) PublicURL(name string) string {
	return s.BaseURL + "/storage/v1/object/public/" + s.Bucket + "/" + url.PathEscape(name)
}
