// Package client talks to the scoring backend over its JSON HTTP contract.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/bullseye/pkg/logger"
	"github.com/okian/bullseye/pkg/metrics"
)

const (
	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 32 << 20

	// RequestIDHeader carries a per-call id for correlating backend logs.
	RequestIDHeader = "X-Request-ID"
)

// Client wraps http.Client with the backend base URL.
type Client struct {
	base    string
	http    *http.Client
	timeout time.Duration
	logger  logger.Logger
}

// New creates a client for the backend at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		base:    strings.TrimRight(baseURL, "/"),
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: c.timeout}
	}
	if c.logger == nil {
		c.logger = logger.Get().Named("backend")
	}
	return c
}

// BaseURL returns the backend root.
func (c *Client) BaseURL() string { return c.base }

type call struct {
	endpoint    string
	method      string
	path        string
	body        io.Reader
	contentType string
}

// errorBody is the failure shape every backend route shares.
type errorBody struct {
	Error   *string `json:"error"`
	Message *string `json:"message"`
}

func (c *Client) getJSON(ctx context.Context, endpoint, path string, out any) error {
	return c.do(ctx, call{endpoint: endpoint, method: http.MethodGet, path: path}, out)
}

func (c *Client) postJSON(ctx context.Context, endpoint, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	return c.do(ctx, call{
		endpoint:    endpoint,
		method:      http.MethodPost,
		path:        path,
		body:        body,
		contentType: "application/json",
	}, out)
}

// do issues the request and decodes the reply into out. Any {error} body is a
// ServerError, even on a 2xx status.
func (c *Client) do(ctx context.Context, cl call, out any) error {
	req, err := http.NewRequestWithContext(ctx, cl.method, c.base+cl.path, cl.body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if cl.contentType != "" {
		req.Header.Set("Content-Type", cl.contentType)
	}
	req.Header.Set("Accept", "application/json")
	reqID := uuid.NewString()
	req.Header.Set(RequestIDHeader, reqID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordBackendRequest(cl.endpoint, "transport", msSince(start))
		c.logger.Warn(ctx, "backend request failed",
			logger.String("endpoint", cl.endpoint),
			logger.String("request_id", reqID),
			logger.Error(err))
		return fmt.Errorf("%w: %s %s: %w", ErrTransport, cl.method, cl.path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	metrics.RecordBackendRequest(cl.endpoint, strconv.Itoa(resp.StatusCode), msSince(start))
	if err != nil {
		return fmt.Errorf("%w: read %s: %w", ErrTransport, cl.path, err)
	}

	if msg, ok := serverMessage(raw, resp.StatusCode); ok {
		c.logger.Warn(ctx, "backend reported failure",
			logger.String("endpoint", cl.endpoint),
			logger.Int("status", resp.StatusCode),
			logger.String("message", msg))
		return &ServerError{Endpoint: cl.endpoint, Status: resp.StatusCode, Message: msg}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s %s: status %d", ErrTransport, cl.method, cl.path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode %s: %w", ErrTransport, cl.path, err)
	}
	return nil
}

// serverMessage extracts {error}, or {message} on a failed status.
func serverMessage(raw []byte, status int) (string, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return "", false
	}
	var eb errorBody
	if json.Unmarshal(trimmed, &eb) != nil {
		return "", false
	}
	if eb.Error != nil && *eb.Error != "" {
		return *eb.Error, true
	}
	if status >= 400 && eb.Message != nil && *eb.Message != "" {
		return *eb.Message, true
	}
	return "", false
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}
