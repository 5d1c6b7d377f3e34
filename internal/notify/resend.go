// Package notify delivers the daily briefing by email through Resend.
package notify

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dgimm/journalmon/internal/config"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

const defaultResendURL = "https://api.resend.com/emails"

// Mailer sends briefing emails through the Resend API. The Markdown report
// is converted to HTML for the body and attached as-is.
type Mailer struct {
	// BaseURL can be overridden in tests.
	BaseURL string

	apiKey string
	from   string
	to     string
	client *http.Client
}

// NewMailer creates a Mailer from the email configuration.
func NewMailer(cfg config.EmailConfig) *Mailer {
	return &Mailer{
		BaseURL: defaultResendURL,
		apiKey:  cfg.APIKey,
		from:    cfg.From,
		to:      cfg.To,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// resendRequest is the request body for the Resend send-email API.
type resendRequest struct {
	From        string             `json:"from"`
	To          []string           `json:"to"`
	Subject     string             `json:"subject"`
	HTML        string             `json:"html"`
	Attachments []resendAttachment `json:"attachments,omitempty"`
}

// resendAttachment carries a base64-encoded file.
type resendAttachment struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// resendResponse is the response body from the Resend API.
type resendResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// SendReport emails the rendered briefing. The Markdown becomes the HTML
// body and is also attached under the given filename.
func (m *Mailer) SendReport(ctx context.Context, subject, markdown, attachmentName string) error {
	html, err := markdownToHTML(markdown)
	if err != nil {
		return fmt.Errorf("converting report to HTML: %w", err)
	}

	reqBody := resendRequest{
		From:    m.from,
		To:      []string{m.to},
		Subject: subject,
		HTML:    html,
		Attachments: []resendAttachment{{
			Filename: attachmentName,
			Content:  base64.StdEncoding.EncodeToString([]byte(markdown)),
		}},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.BaseURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiResp resendResponse
		if json.Unmarshal(respBody, &apiResp) == nil && apiResp.Message != "" {
			return fmt.Errorf("resend API error (status %d): %s", resp.StatusCode, apiResp.Message)
		}
		return fmt.Errorf("resend API status %d", resp.StatusCode)
	}

	var apiResp resendResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}

	slog.Info("briefing email sent", "to", m.to, "id", apiResp.ID)
	return nil
}

// markdownToHTML renders GitHub-flavored Markdown, including the tables
// the report relies on.
func markdownToHTML(markdown string) (string, error) {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
	)

	var b strings.Builder
	if err := md.Convert([]byte(markdown), &b); err != nil {
		return "", err
	}
	return b.String(), nil
}
