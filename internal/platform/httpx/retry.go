package httpx

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
)

// RetryRule retries errors accepted by Match until MaxAttempts attempts
// matching this rule have failed. Backoff receives the number of failed
// attempts so far (1 for the first retry).
type RetryRule struct {
	Name        string
	Match       func(error) bool
	MaxAttempts int
	Backoff     func(failed int) time.Duration
}

// RetryPolicy is an ordered rule list; the first matching rule decides.
// An error matching no rule is returned immediately.
type RetryPolicy struct {
	Rules []RetryRule
}

func (p RetryPolicy) match(err error) int {
	for i, r := range p.Rules {
		if r.Match != nil && r.Match(err) {
			return i
		}
	}
	return -1
}

// SingleAttempt never retries.
func SingleAttempt() RetryPolicy { return RetryPolicy{} }

// TransitRetryPolicy retries rate limiting with exponential backoff from 1s
// and request timeouts with a fixed 1s delay, 3 attempts each.
func TransitRetryPolicy() RetryPolicy {
	return RateLimitTimeoutPolicy(3, Exponential(time.Second), 3, Fixed(time.Second))
}

func RateLimitTimeoutPolicy(
	rateLimitAttempts int,
	rateLimitBackoff func(int) time.Duration,
	timeoutAttempts int,
	timeoutBackoff func(int) time.Duration,
) RetryPolicy {
	return RetryPolicy{Rules: []RetryRule{
		{Name: "rate_limited", Match: IsRateLimited, MaxAttempts: rateLimitAttempts, Backoff: rateLimitBackoff},
		{Name: "timeout", Match: IsTimeout, MaxAttempts: timeoutAttempts, Backoff: timeoutBackoff},
	}}
}

// Exponential doubles base after every failed attempt.
func Exponential(base time.Duration) func(int) time.Duration {
	return func(failed int) time.Duration {
		if failed < 1 {
			failed = 1
		}
		return base << (failed - 1)
	}
}

func Fixed(d time.Duration) func(int) time.Duration {
	return func(int) time.Duration { return d }
}

// IsTimeout reports request timeouts: client-side deadline errors and HTTP 408.
func IsTimeout(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusRequestTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
