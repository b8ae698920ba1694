// Package backend provides typed clients for the executive administration
// REST API: the executive maintenance endpoints, the classification prompt
// endpoints and the message catalogue.
//
// Every failure is handed to the configured ErrorHandler (the side channel)
// and also returned to the caller wrapped with the operation name.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// DefaultTimeout bounds a request when Config.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// RequestIDHeader carries a per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// ErrorHandler receives every failed call.
type ErrorHandler func(op string, err error)

// Config holds the connection settings.
type Config struct {
	// BaseURL is the application origin, e.g. https://erp.example.com/app.
	BaseURL string
	// Token is sent as a bearer token when set.
	Token   string
	Timeout time.Duration
	// HTTPClient overrides the transport; mainly for tests.
	HTTPClient *http.Client
	OnError    ErrorHandler
	Logger     *slog.Logger
}

// Client is the shared HTTP plumbing used by the service facades.
type Client struct {
	base    *url.URL
	http    *http.Client
	onError ErrorHandler
	logger  *slog.Logger
}

// HTTPError is a non-2xx response.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("Error Code: %d\nMessage: %s", e.StatusCode, e.Message)
}

// NewClient validates cfg and builds the HTTP client.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("backend: base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("backend: invalid base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("backend: unsupported scheme %q", base.Scheme)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	if cfg.Token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, hc)
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		hc = oauth2.NewClient(ctx, ts)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	hc.Timeout = timeout

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{base: base, http: hc, onError: cfg.OnError, logger: logger}
	if c.onError == nil {
		c.onError = func(op string, err error) {
			logger.Error("backend call failed", "op", op, "error", err)
		}
	}
	return c, nil
}

// APIPrefix returns the origin the API paths are resolved against.
func (c *Client) APIPrefix() string { return c.base.String() }

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) get(ctx context.Context, op, path string, query url.Values, out any) error {
	return c.do(ctx, op, http.MethodGet, c.endpoint(path, query), nil, out)
}

func (c *Client) post(ctx context.Context, op, path string, body, out any) error {
	return c.do(ctx, op, http.MethodPost, c.endpoint(path, nil), body, out)
}

// do performs one round trip. Failures are reported to the side channel and
// returned as "<op>: <cause>".
func (c *Client) do(ctx context.Context, op, method, target string, body, out any) error {
	err := c.roundTrip(ctx, op, method, target, body, out)
	if err != nil {
		c.onError(op, err)
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, op, method, target string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, rdr)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	reqID := uuid.NewString()
	req.Header.Set(RequestIDHeader, reqID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("failed to close response body", "op", op, "error", closeErr)
		}
	}()
	c.logger.Debug("backend call", "op", op, "method", method, "status", resp.StatusCode,
		"requestID", reqID, "duration", time.Since(start))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPError{StatusCode: resp.StatusCode, Message: errorMessage(resp.StatusCode, data)}
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// errorMessage extracts a message from an error body: a JSON object with a
// Message/message field, a JSON string, or plain text.
func errorMessage(status int, data []byte) string {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 {
		var obj map[string]any
		if json.Unmarshal(trimmed, &obj) == nil {
			for k, v := range obj {
				if strings.EqualFold(k, "message") {
					if s, ok := v.(string); ok && s != "" {
						return s
					}
				}
			}
		}
		var s string
		if json.Unmarshal(trimmed, &s) == nil && s != "" {
			return s
		}
		if trimmed[0] != '{' && trimmed[0] != '[' {
			return string(trimmed)
		}
	}
	return http.StatusText(status)
}
