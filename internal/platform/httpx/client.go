// Package httpx is the HTTP layer shared by every provider adapter:
// request construction, status checking and the retry policy.
package httpx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"place-route-service/internal/platform/metrics"
	"strings"
	"time"
)

// StatusError is returned for any response with status >= 400.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Code %d: %s", e.Code, e.Body)
}

// Client wraps an http.Client with a retry policy.
// It is safe for concurrent use.
type Client struct {
	session *http.Client
	policy  RetryPolicy
}

func NewClient(timeout time.Duration, policy RetryPolicy) *Client {
	return &Client{
		session: &http.Client{Timeout: timeout},
		policy:  policy,
	}
}

// NewRequest builds a JSON request bound to ctx with the given extra headers.
func NewRequest(
	ctx context.Context,
	method string,
	url string,
	body io.Reader,
	headers map[string]string,
) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req, nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.session.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &StatusError{
			Code: resp.StatusCode,
			Body: strings.TrimSpace(string(b)),
		}
	}
	return resp, nil
}

// Do sends the request produced by makeReq, retrying according to the client's policy.
// makeReq is called once per attempt so request bodies can be replayed.
func (c *Client) Do(
	ctx context.Context,
	makeReq func() (*http.Request, error),
) (*http.Response, error) {
	attempts := make([]int, len(c.policy.Rules))

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := makeReq()
		if err != nil {
			return nil, fmt.Errorf("make request: %w", err)
		}

		resp, err := c.do(req)
		if err == nil {
			return resp, nil
		}

		// The caller's own deadline is final.
		if ctx.Err() != nil {
			return nil, err
		}

		idx := c.policy.match(err)
		if idx < 0 {
			return nil, err
		}

		rule := c.policy.Rules[idx]
		attempts[idx]++
		if attempts[idx] >= rule.MaxAttempts {
			return nil, fmt.Errorf("retries exhausted after %d %s attempts: %w", attempts[idx], rule.Name, err)
		}

		metrics.ProviderRetriesTotal.WithLabelValues(rule.Name).Inc()
		if err := sleep(ctx, rule.Backoff(attempts[idx])); err != nil {
			return nil, err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	select {
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// IsRateLimited reports whether err is an HTTP 429.
func IsRateLimited(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusTooManyRequests
}
