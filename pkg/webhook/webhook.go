// Package webhook delivers test-run reports to HTTP endpoints.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ccollicutt/testwise/pkg/output"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 10 * time.Second

// EventReport is the event name sent with every report delivery.
const EventReport = "testwise.report"

// Headers set on every delivery besides Content-Type and Authorization.
const (
	HeaderEvent = "X-Testwise-Event"
	HeaderRunID = "X-Testwise-Run-Id"
)

// maxResponseBody caps how much of an endpoint's reply is kept.
const maxResponseBody = 1 << 20

// Run outcomes carried in Payload.Status.
const (
	StatusPassed = "passed"
	StatusFailed = "failed"
)

// Payload is the JSON body posted to endpoints: the report fields at the top
// level plus the event name and an overall run status.
type Payload struct {
	Event  string `json:"event"`
	Status string `json:"status"`
	*output.Report
}

// NewPayload wraps report for delivery.
func NewPayload(report *output.Report) Payload {
	status := StatusPassed
	if report.HasFailures() {
		status = StatusFailed
	}
	return Payload{Event: EventReport, Status: status, Report: report}
}

// Client sends reports to webhook endpoints.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// NewClient creates a new webhook client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{},
		userAgent:  "testwise-webhook",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SendOptions configures a webhook request.
type SendOptions struct {
	URL     string
	Token   string        // Bearer token (optional)
	Timeout time.Duration // Request timeout (uses DefaultTimeout if zero)
}

// Response contains the result of a webhook request.
type Response struct {
	StatusCode int
	Body       string
	Duration   time.Duration
	Error      error
}

// Success returns true if the endpoint accepted the report (2xx status).
func (r *Response) Success() bool {
	return r.Error == nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Send posts report to one endpoint. Failures are reported in the returned
// Response rather than as an error so callers can log and continue.
func (c *Client) Send(ctx context.Context, report *output.Report, opts SendOptions) *Response {
	start := time.Now()
	resp := &Response{}
	finish := func(err error) *Response {
		resp.Error = err
		resp.Duration = time.Since(start)
		return resp
	}

	body, err := json.Marshal(NewPayload(report))
	if err != nil {
		return finish(fmt.Errorf("failed to marshal report: %w", err))
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, opts.URL, bytes.NewReader(body))
	if err != nil {
		return finish(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(HeaderEvent, EventReport)
	if report.Metadata.RunID != "" {
		req.Header.Set(HeaderRunID, report.Metadata.RunID)
	}
	if opts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+opts.Token)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return finish(fmt.Errorf("request failed: %w", err))
	}
	defer httpResp.Body.Close()

	reply, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBody))
	resp.StatusCode = httpResp.StatusCode
	resp.Body = string(reply)
	if err != nil {
		return finish(fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode >= 400 {
		return finish(fmt.Errorf("webhook returned status %d", resp.StatusCode))
	}
	return finish(nil)
}
