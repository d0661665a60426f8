package notify

import (
	"context"
	"net/http"
	"strings"
	"time"

	"homeservices/internal/config"
)

// EmailSender posts to a Resend-compatible HTTP email API.
type EmailSender struct {
	cfg    config.EmailConfig
	client *http.Client
}

type emailPayload struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Text    string   `json:"text,omitempty"`
}

func NewEmailSender(cfg config.EmailConfig, timeout time.Duration) *EmailSender {
	return &EmailSender{cfg: cfg, client: newHTTPClient(timeout)}
}

func (s *EmailSender) Channel() Channel { return ChannelEmail }

func (s *EmailSender) Enabled() bool {
	return s.cfg.APIKey != "" && s.cfg.From != ""
}

func (s *EmailSender) Send(ctx context.Context, msg Message) (string, error) {
	r, err := jsonRequest("email", strings.TrimRight(s.cfg.BaseURL, "/")+"/emails", emailPayload{
		From:    s.cfg.From,
		To:      []string{msg.To},
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
	})
	if err != nil {
		return "", err
	}
	r.header.Set("Authorization", "Bearer "+s.cfg.APIKey)

	var out struct {
		ID string `json:"id"`
	}
	if err := do(ctx, s.client, r, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}
