// Package llm is the client for the model service that turns a user's
// request into text, possibly containing a tool-call block.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/wayward-wolves/chronocall/internal/instrumentation"
)

// Roles used in chat messages.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// DefaultTimeout bounds a single generate call.
const DefaultTimeout = 120 * time.Second

const maxResponseBytes = 1 << 20

// ErrNoResponse is returned when the service answers 200 without a
// "response" string.
var ErrNoResponse = errors.New("no response from API")

// StatusError is returned for any non-200 answer. Body holds the raw text.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("model service returned %d: %s", e.StatusCode, e.Body)
}

// Message is one chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type generateRequest struct {
	Messages []Message `json:"messages"`
}

type generateResponse struct {
	Response *string `json:"response"`
}

// Client posts chat messages to the model service.
type Client struct {
	endpoint   string
	httpClient *http.Client
	metrics    *instrumentation.Metrics
}

// NewClient returns a client for endpoint. Requests are traced with otelhttp.
func NewClient(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// WithMetrics makes the client record model_requests metrics.
func (c *Client) WithMetrics(m *instrumentation.Metrics) *Client {
	c.metrics = m
	return c
}

// Endpoint returns the configured service URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Generate sends messages and returns the model's reply text.
//
// Errors: *StatusError for non-200 answers, ErrNoResponse for a 200 answer
// without a reply, and a wrapped transport or decoding error otherwise.
func (c *Client) Generate(ctx context.Context, messages []Message) (string, error) {
	ctx, span := instrumentation.StartModelSpan(ctx)
	defer span.End()

	start := time.Now()
	reply, status, err := c.generate(ctx, messages)
	c.metrics.RecordModelRequest(ctx, status, time.Since(start))

	if err != nil {
		instrumentation.SetSpanError(span, err)
		return "", err
	}
	instrumentation.SetSpanSuccess(span)
	return reply, nil
}

func (c *Client) generate(ctx context.Context, messages []Message) (string, string, error) {
	body, err := json.Marshal(generateRequest{Messages: messages})
	if err != nil {
		return "", instrumentation.StatusError, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", instrumentation.StatusError, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", instrumentation.StatusError, fmt.Errorf("model request failed: %w", err)
	}
	defer resp.Body.Close()

	status := strconv.Itoa(resp.StatusCode)
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", status, fmt.Errorf("failed to read model response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", status, &StatusError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var out generateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", status, fmt.Errorf("failed to decode model response: %w", err)
	}
	if out.Response == nil {
		return "", status, ErrNoResponse
	}
	return *out.Response, status, nil
}
