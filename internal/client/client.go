// Package client is the typed SmartStay API client used by the operator
// CLI and by front ends written in Go.  Inputs are validated before any
// request is sent, so a *model.ValidationError from the client means no
// network call was made.
package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// APIError is a non-2xx response.  Message is the server's "error" field,
// or the status text when the body carried none.
type APIError struct {
	Status  int
	Message string
	Field   string
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("smartstay: %d %s (%s)", e.Status, e.Message, e.Field)
	}
	return fmt.Sprintf("smartstay: %d %s", e.Status, e.Message)
}

// errorBody is the JSON error shape returned by every handler.
type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field"`
}

// Client talks to one SmartStay server.
type Client struct {
	http               *resty.Client
	log                *zap.Logger
	excludePlaceholder bool
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets the bearer token sent with every request.
func WithToken(token string) Option {
	return func(c *Client) { c.http.SetAuthToken(token) }
}

// WithTimeout overrides the default 15s request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.SetTimeout(d) }
}

// WithRetry retries transport failures count times.
func WithRetry(count int, wait time.Duration) Option {
	return func(c *Client) {
		c.http.SetRetryCount(count).SetRetryWaitTime(wait).SetRetryMaxWaitTime(4 * wait)
	}
}

// WithLogger logs failed requests to log.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithExcludePlaceholder controls whether payments and requests with the
// placeholder amount of 20 are dropped from listings.  It is on by default.
func WithExcludePlaceholder(on bool) Option {
	return func(c *Client) { c.excludePlaceholder = on }
}

// New returns a client for the server at baseURL (scheme and host, without
// the /api prefix).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetTimeout(15*time.Second).
			SetHeader("Accept", "application/json"),
		log:                zap.NewNop(),
		excludePlaceholder: true,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// do sends one request to path (relative to /api unless it starts with
// "/healthz") and decodes a 2xx body into result when result is non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, result any) (*resty.Response, error) {
	req := c.http.R().SetContext(ctx).SetError(&errorBody{})
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}
	if !strings.HasPrefix(path, "/healthz") {
		path = "/api" + path
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		c.log.Warn("request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		apiErr := &APIError{Status: resp.StatusCode(), Message: http.StatusText(resp.StatusCode())}
		if eb, ok := resp.Error().(*errorBody); ok && eb.Error != "" {
			apiErr.Message = eb.Error
			apiErr.Field = eb.Field
		}
		c.log.Debug("request rejected", zap.String("method", method), zap.String("path", path),
			zap.Int("status", apiErr.Status), zap.String("error", apiErr.Message))
		return resp, apiErr
	}
	return resp, nil
}
