package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"
)

// DefaultResendURL is the production Resend API.
const DefaultResendURL = "https://api.resend.com"

// Email is a single outgoing message.
type Email struct {
	From    string
	To      []string
	Subject string
	HTML    string
}

// ResendClient sends email through the Resend SDK.
type ResendClient struct {
	client *resend.Client
	apiKey string
}

// NewResend creates a client for baseURL, DefaultResendURL when empty, with
// a bounded request timeout.
func NewResend(baseURL, apiKey string) (*ResendClient, error) {
	if baseURL == "" {
		baseURL = DefaultResendURL
	}
	// the SDK resolves "emails" relative to the base, so it must end in "/"
	u, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("resend: parse base url: %w", err)
	}
	c := resend.NewCustomClient(&http.Client{Timeout: 30 * time.Second}, apiKey)
	c.BaseURL = u
	return &ResendClient{client: c, apiKey: apiKey}, nil
}

// Send delivers the email and returns the provider message id.
func (c *ResendClient) Send(ctx context.Context, e Email) (string, error) {
	if c.apiKey == "" {
		return "", errors.New("resend: api key not configured")
	}
	resp, err := c.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    e.From,
		To:      e.To,
		Subject: e.Subject,
		Html:    e.HTML,
	})
	if err != nil {
		return "", fmt.Errorf("resend: send failed: %w", err)
	}
	return resp.Id, nil
}
