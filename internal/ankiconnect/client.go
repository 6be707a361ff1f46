// Package ankiconnect is a client for the flashcard application's local
// control API: every call is one {action, version, params} request answered
// by one {result, error} response.
package ankiconnect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// APIVersion is the control API version sent with every request.
const APIVersion = 6

// PermissionGranted is the permission value that allows further calls.
const PermissionGranted = "granted"

type request struct {
	Action  string `json:"action"`
	Version int    `json:"version"`
	Params  any    `json:"params,omitempty"`
}

type response struct {
	Result json.RawMessage `json:"result"`
	Error  *string         `json:"error"`
}

// RemoteError is a non-null error field returned by the control API.
type RemoteError struct {
	Action  string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("ankiconnect %s: %s", e.Action, e.Message)
}

// HTTPError is returned when the endpoint answers with a non-200 status.
type HTTPError struct {
	Action     string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("ankiconnect %s: HTTP %d", e.Action, e.StatusCode)
}

// Client talks to one control endpoint. It applies no timeout of its own;
// calls are bounded only by the caller's context.
type Client struct {
	endpoint string
	http     *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// New creates a client for host, given either as host:port or as a full URL.
func New(host string, opts ...ClientOption) *Client {
	endpoint := host
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "http://" + endpoint
	}
	c := &Client{endpoint: endpoint, http: &http.Client{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the URL requests are posted to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Invoke performs action with params and decodes a non-null result into
// result (which may be nil). A non-null error field yields *RemoteError; in
// that case result is still decoded when the response carries one.
func (c *Client) Invoke(ctx context.Context, action string, params, result any) error {
	body, err := json.Marshal(request{Action: action, Version: APIVersion, Params: params})
	if err != nil {
		return fmt.Errorf("ankiconnect %s: encode request: %w", action, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("ankiconnect %s: build request: %w", action, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ankiconnect %s: %w", action, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &HTTPError{Action: action, StatusCode: resp.StatusCode}
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("ankiconnect %s: decode response: %w", action, err)
	}

	if result != nil && len(out.Result) > 0 && string(out.Result) != "null" {
		if err := json.Unmarshal(out.Result, result); err != nil {
			return fmt.Errorf("ankiconnect %s: decode result: %w", action, err)
		}
	}

	if out.Error != nil {
		return &RemoteError{Action: action, Message: *out.Error}
	}
	return nil
}
