// Package webhook performs single-attempt JSON deliveries to a workflow webhook.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

const maxResponseBody = 1024 // 1KB is plenty for log context

var (
	// ErrTimeout means the webhook did not answer within the client timeout.
	// The payload may still have been received.
	ErrTimeout = errors.New("webhook: timed out")

	// ErrUnreachable means the request could not be delivered at all
	// (DNS, connection refused, TLS failure, reset).
	ErrUnreachable = errors.New("webhook: unreachable")
)

// Response is what the webhook answered.
type Response struct {
	StatusCode int
	Body       string
	Latency    time.Duration
}

// Client posts JSON payloads to webhooks.
type Client struct {
	client     *http.Client
	userAgent  string
	propagator propagation.TextMapPropagator
}

// NewClient creates a client with the given HTTP timeout.
func NewClient(timeout time.Duration, userAgent string) *Client {
	return &Client{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Post marshals payload and delivers it to url once. Transport failures are
// wrapped with ErrTimeout or ErrUnreachable; any status code is returned as a
// Response without error.
func (c *Client) Post(ctx context.Context, url string, payload any, headers map[string]string) (Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Response{}, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	propagator := c.propagator
	if propagator == nil {
		propagator = otel.GetTextMapPropagator()
	}
	propagator.Inject(ctx, propagation.HeaderCarrier(req.Header))

	start := time.Now()
	resp, err := c.client.Do(req) //nolint:gosec // URL is the operator-configured webhook.
	latency := time.Since(start)
	if err != nil {
		return Response{Latency: latency}, classify(err)
	}
	defer resp.Body.Close()

	respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	out := Response{
		StatusCode: resp.StatusCode,
		Body:       string(respBody),
		Latency:    latency,
	}
	if readErr != nil {
		// The status line already arrived; a truncated body only costs log context.
		out.Body = ""
	}
	return out, nil
}

func classify(err error) error {
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("post webhook: %w", err)
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %w", ErrUnreachable, err)
}
