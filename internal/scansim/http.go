package scansim

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client *http.Client
}

func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{client: &http.Client{Timeout: timeout}}
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body.
func (c *HTTPClient) Post(ctx context.Context, url string, body any) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// submitScan posts one token and classifies the answer.
func submitScan(ctx context.Context, client *HTTPClient, url, token string) (Outcome, string) {
	resp, err := client.Post(ctx, url, map[string]string{"token": token})
	if err != nil {
		return Failed, err.Error()
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Failed, err.Error()
	}

	switch resp.StatusCode {
	case StatusOK:
		var res ScanResponse
		if err := json.Unmarshal(body, &res); err != nil {
			return Failed, "undecodable scan result"
		}
		if res.Success {
			return Accepted, res.Message
		}
		return Rejected, res.Message
	case StatusConflict:
		var e ErrorResponse
		_ = json.Unmarshal(body, &e)
		if e.Code == "duplicate_scan" {
			return Duplicate, e.Message
		}
		return Cooldown, e.Message
	default:
		var e ErrorResponse
		_ = json.Unmarshal(body, &e)
		return Failed, fmt.Sprintf("status %d: %s", resp.StatusCode, e.Message)
	}
}
