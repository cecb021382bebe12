package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

// StatusError is a non-retryable HTTP response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// Client is an HTTP client with rate limiting and retries on backpressure.
type Client struct {
	baseURL  string
	http     *http.Client
	limiter  *rate.Limiter
	maxRetry time.Duration
	retries  atomic.Int64
}

// NewClient creates a client for cfg.BaseURL.
func NewClient(cfg Config) *Client {
	cfg.withDefaults()
	return &Client{
		baseURL:  cfg.BaseURL,
		http:     &http.Client{Timeout: cfg.Timeout},
		limiter:  rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), cfg.RequestsPerSec),
		maxRetry: cfg.MaxRetryTime,
	}
}

// Retries returns how many attempts were repeated.
func (c *Client) Retries() int { return int(c.retries.Load()) }

// Do sends body as JSON and decodes the response into out when it is non-nil.
// 429 and 5xx responses and transport errors are retried with exponential
// backoff; other non-2xx statuses fail immediately with a *StatusError.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) (int, error) {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return 0, fmt.Errorf("marshal request: %w", err)
		}
	}

	var status int
	attempt := 0
	operation := func() error {
		if attempt > 0 {
			c.retries.Add(1)
		}
		attempt++
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(err)
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		status = resp.StatusCode
		switch {
		case status == http.StatusTooManyRequests || status >= http.StatusInternalServerError:
			return &StatusError{StatusCode: status, Body: string(data)}
		case status >= http.StatusBadRequest:
			return backoff.Permanent(&StatusError{StatusCode: status, Body: string(data)})
		}
		if out != nil && len(data) > 0 {
			if err := json.Unmarshal(data, out); err != nil {
				return backoff.Permanent(fmt.Errorf("decode response: %w", err))
			}
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 20 * time.Millisecond
	b.MaxElapsedTime = c.maxRetry
	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return status, err
	}
	return status, nil
}
