// Package client implements HandlerClient and ProjectClient (C10), the
// CLI-side HTTP clients the deploy command uses to pull the remote
// handler set and push deploy plan steps.
//
// Grounded on original_source/crates/client/src/handler.rs for the
// operation set and on packages/sdk-go/client.go (vendored for reference
// as _teacherref/sdk-go) for the idiomatic Go shape: functional-options
// construction, a private doRequest helper doing JSON marshal/unmarshal
// with bounded retry on network errors only, and a typed APIError.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is the low-level HTTP client shared by HandlerClient and
// ProjectClient: bearer auth, JSON bodies, retry-on-network-error.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	maxRetries int
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the server base URL (default http://localhost:8080).
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithTimeout overrides the HTTP client's request timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) { c.httpClient.Timeout = timeout }
}

// WithHTTPClient overrides the underlying *http.Client entirely.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = httpClient }
}

// NewClient constructs a Client carrying token as a bearer credential on
// every request.
func NewClient(token string, opts ...ClientOption) *Client {
	c := &Client{
		token:      token,
		baseURL:    "http://localhost:8080",
		httpClient: &http.Client{Timeout: 30 * time.Second},
		maxRetries: 3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is returned for any non-2xx response, carrying the server's
// status code and its { error_message } body verbatim.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("client: server returned %d: %s", e.StatusCode, e.Message)
}

// ErrorResponse mirrors internal/api/response.ErrorBody, the wire shape
// every non-2xx response carries.
type ErrorResponse struct {
	ErrorMessage string `json:"error_message"`
}

// doRequest marshals body (if any) as JSON, sends it with a bearer
// Authorization header, and unmarshals a 2xx response into result (if
// non-nil). Network errors are retried with exponential backoff up to
// maxRetries; 4xx/5xx responses are not retried, since they are not
// transient.
func (c *Client) doRequest(ctx context.Context, method, path string, body, result interface{}) error {
	var rawBody []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: marshal request body: %w", err)
		}
		rawBody = encoded
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * 100 * time.Millisecond
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		var bodyReader io.Reader
		if rawBody != nil {
			bodyReader = bytes.NewReader(rawBody)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
		if err != nil {
			return fmt.Errorf("client: build request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		if rawBody != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		respBody, err := readAndClose(resp)
		if err != nil {
			return fmt.Errorf("client: read response body: %w", err)
		}

		if resp.StatusCode >= 400 {
			var errResp ErrorResponse
			_ = json.Unmarshal(respBody, &errResp)
			return &APIError{StatusCode: resp.StatusCode, Message: errResp.ErrorMessage}
		}

		if result != nil && len(respBody) > 0 {
			if err := json.Unmarshal(respBody, result); err != nil {
				return fmt.Errorf("client: decode response body: %w", err)
			}
		}
		return nil
	}

	return fmt.Errorf("client: request failed after %d retries: %w", c.maxRetries, lastErr)
}

func readAndClose(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}
