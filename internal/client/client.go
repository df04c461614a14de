// Package client talks to a running lifeform server over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/scrypster/ephemera/pkg/types"
)

// DefaultTimeout bounds a single request when no http.Client is supplied.
const DefaultTimeout = 15 * time.Second

// APIError is returned for non-2xx responses. Message is the response
// text; Reason is the error field of a JSON error body, when there is one.
type APIError struct {
	StatusCode int
	Message    string
	Reason     string
}

func (e *APIError) Error() string {
	return e.Message
}

// Friendly returns Reason when set, otherwise Message.
func (e *APIError) Friendly() string {
	if e.Reason != "" {
		return e.Reason
	}
	return e.Message
}

// Client is a lifeform API client.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the server address without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FetchState loads the current state. The server generates a question when
// none is pending.
func (c *Client) FetchState(ctx context.Context) (*types.StatePayload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/state", nil)
	if err != nil {
		return nil, fmt.Errorf("client: build request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-store")
	return c.doState(req)
}

// PostReply answers questionID with text.
func (c *Client) PostReply(ctx context.Context, questionID int64, text string) (*types.StatePayload, error) {
	body, err := json.Marshal(types.ReplyRequest{QuestionID: questionID, Text: text})
	if err != nil {
		return nil, fmt.Errorf("client: encode reply: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/reply", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("client: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.doState(req)
}

// Seed asks the server to make sure the state and a pending question exist.
func (c *Client) Seed(ctx context.Context) (*types.StatePayload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/admin/seed", nil)
	if err != nil {
		return nil, fmt.Errorf("client: build request: %w", err)
	}
	return c.doState(req)
}

func (c *Client) doState(req *http.Request) (*types.StatePayload, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("client: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkResponse(resp); err != nil {
		return nil, err
	}

	var payload types.StatePayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("client: decode state: %w", err)
	}
	return &payload, nil
}

// checkResponse turns a non-2xx response into an *APIError whose message is
// the trimmed response text, or "Request failed with status N" for an empty
// body.
func checkResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	message := strings.TrimSpace(string(data))

	if message == "" {
		message = fmt.Sprintf("Request failed with status %d", resp.StatusCode)
	}

	apiErr := &APIError{StatusCode: resp.StatusCode, Message: message}
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &body) == nil {
		apiErr.Reason = body.Error
	}
	return apiErr
}
