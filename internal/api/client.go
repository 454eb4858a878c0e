package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"classhelper/internal/metrics"
)

// TokenSource supplies the bearer credential for outbound requests.
// An empty token means the request is sent unauthenticated.
type TokenSource interface {
	Token() string
}

// StaticToken is a TokenSource holding a fixed credential.
type StaticToken string

// Token returns the credential.
func (t StaticToken) Token() string { return string(t) }

// Client calls the classroom REST API.
type Client struct {
	BaseURL       string
	DictionaryURL string
	HTTP          *http.Client

	tokens TokenSource
}

// New creates an unauthenticated client with the given per-request timeout.
func New(baseURL, dictionaryURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		BaseURL:       strings.TrimRight(baseURL, "/"),
		DictionaryURL: strings.TrimRight(dictionaryURL, "/"),
		HTTP:          &http.Client{Timeout: timeout},
	}
}

// As returns a copy of the client that authenticates every request with
// the token supplied by ts. The token is read at send time.
func (c *Client) As(ts TokenSource) *Client {
	cp := *c
	cp.tokens = ts
	return &cp
}

func (c *Client) token() string {
	if c.tokens == nil {
		return ""
	}
	return c.tokens.Token()
}

// Error is a non-2xx response from the API.
type Error struct {
	Endpoint string
	Status   int
	Message  string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: api error %d: %s", e.Endpoint, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: api error %d", e.Endpoint, e.Status)
}

// IsUnauthorized reports whether err is an API 401.
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// IsNotFound reports whether err is an API 404.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Message returns the server-supplied message carried by err, or fallback.
func Message(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

func newError(endpoint string, status int, body []byte) *Error {
	e := &Error{Endpoint: endpoint, Status: status}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil {
		e.Message = payload.Message
		if e.Message == "" {
			e.Message = payload.Error
		}
	}
	return e
}

func (c *Client) get(ctx context.Context, endpoint, path string, out any) error {
	return c.do(ctx, endpoint, http.MethodGet, c.BaseURL+path, true, nil, out)
}

func (c *Client) send(ctx context.Context, endpoint, method, path string, in, out any) error {
	return c.do(ctx, endpoint, method, c.BaseURL+path, true, in, out)
}

func (c *Client) do(ctx context.Context, endpoint, method, url string, authenticated bool, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", endpoint, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if authenticated {
		if tok := c.token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		metrics.ObserveUpstream(endpoint, 0, time.Since(start))
		return fmt.Errorf("%s: request failed: %w", endpoint, err)
	}
	defer resp.Body.Close()
	metrics.ObserveUpstream(endpoint, resp.StatusCode, time.Since(start))

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return newError(endpoint, resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%s: decode response: %w", endpoint, err)
	}
	return nil
}
