package notify

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"homeservices/internal/config"
)

// WhatsAppSender sends plain text messages through the WhatsApp Cloud API.
type WhatsAppSender struct {
	cfg    config.WhatsAppConfig
	client *http.Client
}

type whatsAppPayload struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		Body string `json:"body"`
	} `json:"text"`
}

func NewWhatsAppSender(cfg config.WhatsAppConfig, timeout time.Duration) *WhatsAppSender {
	return &WhatsAppSender{cfg: cfg, client: newHTTPClient(timeout)}
}

func (s *WhatsAppSender) Channel() Channel { return ChannelWhatsApp }

func (s *WhatsAppSender) Enabled() bool {
	return s.cfg.AccessToken != "" && s.cfg.PhoneNumberID != ""
}

func (s *WhatsAppSender) Send(ctx context.Context, msg Message) (string, error) {
	payload := whatsAppPayload{
		MessagingProduct: "whatsapp",
		To:               strings.TrimPrefix(msg.To, "+"),
		Type:             "text",
	}
	payload.Text.Body = msg.Text

	endpoint := strings.TrimRight(s.cfg.BaseURL, "/") + "/" + url.PathEscape(s.cfg.PhoneNumberID) + "/messages"
	r, err := jsonRequest("whatsapp", endpoint, payload)
	if err != nil {
		return "", err
	}
	r.header.Set("Authorization", "Bearer "+s.cfg.AccessToken)

	var out struct {
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
	}
	if err := do(ctx, s.client, r, &out); err != nil {
		return "", err
	}
	if len(out.Messages) == 0 {
		return "", nil
	}
	return out.Messages[0].ID, nil
}
