package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const defaultEmailAPIURL = "https://api.postmarkapp.com/email"

// EmailClient sends HTML email through the Postmark HTTP API.
type EmailClient struct {
	serverToken string
	fromName    string
	fromEmail   string
	apiURL      string
	httpClient  *http.Client
}

// EmailOption configures an EmailClient.
type EmailOption func(*EmailClient)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) EmailOption {
	return func(cl *EmailClient) { cl.httpClient = c }
}

// WithAPIURL overrides the API endpoint. Test hook.
func WithAPIURL(url string) EmailOption {
	return func(cl *EmailClient) { cl.apiURL = url }
}

// NewEmailClient creates a client. fromName labels the sender
// ("Planificación Casa <from@...>").
func NewEmailClient(serverToken, fromName, fromEmail string, opts ...EmailOption) *EmailClient {
	c := &EmailClient{
		serverToken: serverToken,
		fromName:    fromName,
		fromEmail:   fromEmail,
		apiURL:      defaultEmailAPIURL,
		httpClient:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if the server token is set.
func (c *EmailClient) Configured() bool {
	return c != nil && c.serverToken != ""
}

type emailPayload struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	HtmlBody string `json:"HtmlBody"`
}

// Send delivers one HTML email to the listed recipients.
func (c *EmailClient) Send(ctx context.Context, to []string, subject, htmlBody string) error {
	if !c.Configured() {
		return fmt.Errorf("email client not configured: missing server token")
	}
	if len(to) == 0 {
		return fmt.Errorf("no recipients")
	}

	payload := emailPayload{
		From:     fmt.Sprintf("%q <%s>", c.fromName, c.fromEmail),
		To:       strings.Join(to, ","),
		Subject:  subject,
		HtmlBody: htmlBody,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Postmark-Server-Token", c.serverToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("postmark API error: status %d", resp.StatusCode)
	}

	return nil
}
