// Package submitclient sends registrations to the registration endpoint.
package submitclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"retreat/internal/registration"
)

var (
	// ErrTransport covers network failures and non-2xx responses.
	ErrTransport = errors.New("registration endpoint unreachable")
	// ErrRejected means the endpoint answered with success=false.
	ErrRejected = errors.New("registration rejected")
)

// Client posts registrations to a fixed endpoint. It makes exactly one
// request per Submit and never retries.
type Client struct {
	Endpoint string
	HTTP     *http.Client
}

// New returns a client for endpoint. The zero http.Client has no timeout;
// callers bound the call through ctx.
func New(endpoint string) *Client {
	return &Client{Endpoint: endpoint, HTTP: &http.Client{}}
}

// Submit sends sub as multipart when it carries a photo and as JSON
// otherwise. The returned Result is the decoded response when one was
// received; the error is nil only when Result.Success is true.
func (c *Client) Submit(ctx context.Context, sub registration.Submission) (registration.Result, error) {
	body, contentType, err := encode(sub)
	if err != nil {
		return registration.Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, body)
	if err != nil {
		return registration.Result{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return registration.Result{}, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return registration.Result{}, fmt.Errorf("%w: read response: %w", ErrTransport, err)
	}
	var result registration.Result
	decodeErr := json.Unmarshal(raw, &result)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := result.Error
		if decodeErr != nil || msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return result, fmt.Errorf("%w: status %d: %s", ErrTransport, resp.StatusCode, msg)
	}
	if decodeErr != nil {
		return registration.Result{}, fmt.Errorf("%w: decode response: %w", ErrTransport, decodeErr)
	}
	if !result.Success {
		msg := result.Error
		if msg == "" {
			msg = "Submission failed"
		}
		return result, fmt.Errorf("%w: %s", ErrRejected, msg)
	}
	return result, nil
}

func encode(sub registration.Submission) (io.Reader, string, error) {
	form := sub.Form()
	if sub.Photo.Empty() {
		raw, err := json.Marshal(form)
		if err != nil {
			return nil, "", fmt.Errorf("encode registration: %w", err)
		}
		return bytes.NewReader(raw), "application/json", nil
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range registration.Fields {
		v := form.Get(f)
		if v == "" {
			continue
		}
		if err := w.WriteField(string(f), v); err != nil {
			return nil, "", fmt.Errorf("encode %s: %w", f, err)
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, registration.FieldPhoto, sub.Photo.Filename))
	h.Set("Content-Type", sub.Photo.ContentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("encode photo: %w", err)
	}
	if _, err := part.Write(sub.Photo.Data); err != nil {
		return nil, "", fmt.Errorf("encode photo: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("encode registration: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
