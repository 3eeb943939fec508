package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/phrazzld/taskflow/internal/config"
)

const brevoSendPath = "/v3/smtp/email"

// maxErrorBody caps how much of a failed response is kept in the error.
const maxErrorBody = 512

type brevoContact struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

type brevoRequest struct {
	Sender      brevoContact   `json:"sender"`
	To          []brevoContact `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent"`
}

// BrevoSender delivers mail through the Brevo transactional email API.
type BrevoSender struct {
	baseURL string
	apiKey  string
	sender  brevoContact
	client  *http.Client
}

// NewBrevoSender creates a BrevoSender.
func NewBrevoSender(cfg config.BrevoConfig, fromAddress, fromName string, timeout time.Duration) *BrevoSender {
	return &BrevoSender{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		sender:  brevoContact{Name: fromName, Email: fromAddress},
		client:  &http.Client{Timeout: timeout},
	}
}

// Send implements Sender. Any non-2xx response is a failure.
func (b *BrevoSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	if to == "" {
		return ErrInvalidRecipient
	}

	payload, err := json.Marshal(brevoRequest{
		Sender:      b.sender,
		To:          []brevoContact{{Email: to}},
		Subject:     subject,
		HTMLContent: htmlBody,
	})
	if err != nil {
		return fmt.Errorf("encoding brevo request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+brevoSendPath, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating brevo request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("api-key", b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("brevo request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("brevo returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
