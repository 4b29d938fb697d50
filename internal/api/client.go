package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// AuthError indicates that the server refused the request for
// authentication or authorization reasons (HTTP 401 or 403).
type AuthError struct {
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%d): %s", e.StatusCode, e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// APIError is a server-rejected operation carrying the server's own
// message (e.g. "request already taken"). It is distinct from transport
// failures so the UI can surface the message verbatim.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("server error (%d)", e.StatusCode)
}

// envelope is the server's uniform response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Client is a typed HTTP client for the RoadAssist REST API. It handles
// Bearer token authentication, the success/data/message envelope, and
// automatic retry with backoff on HTTP 429. A 401 anywhere invokes the
// single onUnauthorized hook so the session can be torn down uniformly
// instead of per call site.
type Client struct {
	baseURL        string
	token          func() string
	httpClient     *http.Client
	maxRetries     int
	onUnauthorized func()
}

// NewClient creates a new API client. baseURL is the API root
// (e.g. https://api.example.com/api/v1). token is consulted per request
// so a session refresh or teardown takes effect immediately.
func NewClient(baseURL string, token func() string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		maxRetries: 3,
	}
}

// OnUnauthorized registers the hook invoked whenever the server answers
// 401. At most one hook is held; registering replaces the previous one.
func (c *Client) OnUnauthorized(fn func()) {
	c.onUnauthorized = fn
}

// Get performs an HTTP GET request and unmarshals the enveloped response.
func (c *Client) Get(ctx context.Context, path string, result interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, result)
}

// Post performs an HTTP POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, result interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, result)
}

// Put performs an HTTP PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, result interface{}) error {
	return c.do(ctx, http.MethodPut, path, body, result)
}

// do is the core HTTP method that builds the request, handles auth,
// rate limiting with backoff, and envelope (de)serialization.
func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	body interface{},
	result interface{},
) error {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		// Rebuild the body reader on retries since it was consumed.
		if attempt > 0 && body != nil {
			data, _ := json.Marshal(body)
			bodyReader = bytes.NewReader(data)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}

		if tok := c.token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("executing request %s %s: %w", method, path, err)
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return fmt.Errorf("reading response body: %w", readErr)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			waitDuration := retryAfterDuration(resp, attempt)
			lastErr = fmt.Errorf("rate limited (429) on %s %s", method, path)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(waitDuration):
				continue
			}
		}

		if resp.StatusCode == http.StatusUnauthorized {
			if c.onUnauthorized != nil {
				c.onUnauthorized()
			}
			return &AuthError{
				StatusCode: resp.StatusCode,
				Message:    serverMessage(respBody, "session expired"),
			}
		}

		if resp.StatusCode == http.StatusForbidden {
			return &AuthError{
				StatusCode: resp.StatusCode,
				Message:    serverMessage(respBody, "forbidden"),
			}
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &APIError{
				StatusCode: resp.StatusCode,
				Message:    serverMessage(respBody, ""),
			}
		}

		// No content to parse (e.g. 204).
		if result == nil || resp.StatusCode == http.StatusNoContent {
			return nil
		}

		return decodeEnvelope(respBody, result, method, path)
	}

	return fmt.Errorf("max retries (%d) exceeded: %w", c.maxRetries, lastErr)
}

// decodeEnvelope unwraps the success/data/message envelope and
// unmarshals data into result. Responses that are not enveloped are
// decoded directly for endpoints that return bare payloads.
func decodeEnvelope(respBody []byte, result interface{}, method, path string) error {
	var env envelope
	if err := json.Unmarshal(respBody, &env); err == nil && env.Data != nil {
		if !env.Success {
			return &APIError{Message: env.Message}
		}
		if err := json.Unmarshal(env.Data, result); err != nil {
			return fmt.Errorf("unmarshaling response from %s %s: %w", method, path, err)
		}
		return nil
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("unmarshaling response from %s %s: %w", method, path, err)
	}
	return nil
}

// serverMessage extracts the envelope message from an error body,
// falling back to the given default.
func serverMessage(respBody []byte, fallback string) string {
	var env envelope
	if json.Unmarshal(respBody, &env) == nil && env.Message != "" {
		return env.Message
	}
	if fallback != "" {
		return fallback
	}
	return strings.TrimSpace(string(respBody))
}

// retryAfterDuration reads the Retry-After header and computes a wait
// duration. Falls back to exponential backoff if the header is missing.
func retryAfterDuration(resp *http.Response, attempt int) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}

	// Exponential backoff: 1s, 2s, 4s, ...
	backoff := time.Duration(1<<uint(attempt)) * time.Second
	if backoff > 30*time.Second {
		backoff = 30 * time.Second
	}
	return backoff
}
