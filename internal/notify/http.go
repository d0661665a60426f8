package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxErrorBody = 512

// APIError is a non-2xx response from a provider.
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error: status %d: %s", e.Provider, e.StatusCode, e.Body)
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

type request struct {
	provider string
	endpoint string
	body     io.Reader
	header   http.Header
}

func jsonRequest(provider, endpoint string, payload interface{}) (request, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return request{}, fmt.Errorf("failed to encode %s payload: %w", provider, err)
	}
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	return request{provider: provider, endpoint: endpoint, body: bytes.NewReader(raw), header: h}, nil
}

func formRequest(provider, endpoint string, form url.Values) request {
	h := http.Header{}
	h.Set("Content-Type", "application/x-www-form-urlencoded")
	return request{provider: provider, endpoint: endpoint, body: strings.NewReader(form.Encode()), header: h}
}

// do posts the request and decodes a 2xx JSON response into out.
func do(ctx context.Context, client *http.Client, r request, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, r.body)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", r.provider, err)
	}
	for k, v := range r.header {
		req.Header[k] = v
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", r.provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{Provider: r.provider, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", r.provider, err)
	}
	return nil
}
