package notify

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/url"
	"strings"
	"time"

	"homeservices/internal/config"
)

// SMSSender uses the Twilio Messages REST resource.
type SMSSender struct {
	cfg    config.SMSConfig
	client *http.Client
}

func NewSMSSender(cfg config.SMSConfig, timeout time.Duration) *SMSSender {
	return &SMSSender{cfg: cfg, client: newHTTPClient(timeout)}
}

func (s *SMSSender) Channel() Channel { return ChannelSMS }

func (s *SMSSender) Enabled() bool {
	return s.cfg.AccountSID != "" && s.cfg.AuthToken != "" && s.cfg.From != ""
}

func (s *SMSSender) Send(ctx context.Context, msg Message) (string, error) {
	endpoint := strings.TrimRight(s.cfg.BaseURL, "/") + "/2010-04-01/Accounts/" + url.PathEscape(s.cfg.AccountSID) + "/Messages.json"
	form := url.Values{}
	form.Set("To", msg.To)
	form.Set("From", s.cfg.From)
	form.Set("Body", msg.Text)

	r := formRequest("sms", endpoint, form)
	r.header.Set("Authorization", basicAuth(s.cfg.AccountSID, s.cfg.AuthToken))

	var out struct {
		SID string `json:"sid"`
	}
	if err := do(ctx, s.client, r, &out); err != nil {
		return "", err
	}
	return out.SID, nil
}

func basicAuth(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}
