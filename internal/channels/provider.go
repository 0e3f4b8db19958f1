package channels

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

// providerClient talks to the messaging provider's REST API. Business messages
// and SMS share the host and API key; only the endpoint differs.
type providerClient struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	client  *http.Client
}

// providerResult is the common response envelope: code "0" means accepted
type providerResult struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	MessageID string `json:"messageId"`
}

func newProviderClient(baseURL, apiKey string, timeout time.Duration, client *http.Client) *providerClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &providerClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		timeout: timeout,
		client:  client,
	}
}

func (p *providerClient) post(ctx context.Context, path string, payload any) (*providerResult, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %v", ErrProviderTimeout, err)
		}
		return nil, fmt.Errorf("%w: request failed: %v", ErrProviderRejected, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %v", ErrProviderTimeout, err)
		}
		return nil, fmt.Errorf("%w: failed to read response: %v", ErrProviderRejected, err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: provider error (%d): %s", ErrProviderRejected, resp.StatusCode, truncate(string(body), 200))
	}

	var result providerResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %s", ErrProviderRejected, truncate(string(body), 200))
	}
	if result.Code != "0" {
		return nil, fmt.Errorf("%w: result code %s: %s", ErrProviderRejected, result.Code, result.Message)
	}
	return &result, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
