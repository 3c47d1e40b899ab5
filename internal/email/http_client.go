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
)

// messageStream is the Postmark stream used for transactional sends.
const messageStream = "outbound"

// HTTPClient sends email through a Postmark-compatible JSON API.
type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
	sender     string
	authToken  string
}

// NewHTTPClient creates an HTTPClient whose requests are bounded by timeout.
func NewHTTPClient(baseURL, sender, authToken string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		sender:     sender,
		authToken:  authToken,
	}
}

type sendEmailRequest struct {
	From          string `json:"From"`
	To            string `json:"To"`
	Subject       string `json:"Subject"`
	HTMLBody      string `json:"HtmlBody"`
	TextBody      string `json:"TextBody"`
	MessageStream string `json:"MessageStream"`
}

// Send posts the message to {baseURL}/email. Client errors other than 408
// and 429 are permanent; server errors, throttling and network failures are
// transient.
func (c *HTTPClient) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(sendEmailRequest{
		From:          c.sender,
		To:            msg.To,
		Subject:       msg.Subject,
		HTMLBody:      msg.HTMLBody,
		TextBody:      msg.TextBody,
		MessageStream: messageStream,
	})
	if err != nil {
		return Permanent(fmt.Errorf("failed to encode email request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/email", bytes.NewReader(payload))
	if err != nil {
		return Permanent(fmt.Errorf("failed to build email request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Postmark-Server-Token", c.authToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	statusErr := fmt.Errorf("email api returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))

	if isPermanentStatus(resp.StatusCode) {
		return Permanent(statusErr)
	}
	return statusErr
}

func isPermanentStatus(code int) bool {
	if code == http.StatusRequestTimeout || code == http.StatusTooManyRequests {
		return false
	}
	return code >= 400 && code < 500
}
