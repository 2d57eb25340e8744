// Package httpretry wraps an HTTP client with bounded retries for calls
// to external APIs. Transient failures back off exponentially with full
// jitter, and an explicit Retry-After hint from a throttling server takes
// precedence over the computed wait.
package httpretry

import (
	"context"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"time"
)

// HTTPDoer executes a single HTTP request. *http.Client satisfies it, and
// so does *RetryClient, so transports can be layered or faked in tests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RetryClient retries transient failures on behalf of the wrapped client.
type RetryClient struct {
	client     HTTPDoer
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// NewRetryClient wraps client with retry behavior. A nil client gets a
// default http.Client with a 30s timeout. maxRetries counts the retries
// after the initial attempt and defaults to 3 when non-positive.
func NewRetryClient(client HTTPDoer, maxRetries int) *RetryClient {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &RetryClient{
		client:     client,
		maxRetries: maxRetries,
		baseDelay:  1 * time.Second,
		maxDelay:   30 * time.Second,
	}
}

// Do sends the request, retrying on 429, 500, 502, 503, 504 and on
// network-level errors. Any other status returns immediately, as does a
// canceled context. When retries run out the last response is returned
// as-is so the caller can still read the status and body.
func (rc *RetryClient) Do(req *http.Request) (*http.Response, error) {
	var lastErr error
	var wait time.Duration

	for attempt := 0; attempt <= rc.maxRetries; attempt++ {
		if err := pause(req.Context(), wait); err != nil {
			if lastErr != nil {
				return nil, lastErr
			}
			return nil, err
		}
		if attempt > 0 {
			if err := rewindBody(req); err != nil {
				return nil, err
			}
			log.Printf("httpretry: attempt %d/%d for %s %s%s after %s",
				attempt, rc.maxRetries, req.Method, req.URL.Host, req.URL.Path, wait)
		}

		resp, err := rc.client.Do(req)
		if err != nil {
			if req.Context().Err() != nil {
				return nil, err
			}
			lastErr = err
			wait = rc.backoff(attempt + 1)
			continue
		}

		if !retryableStatus(resp.StatusCode) || attempt == rc.maxRetries {
			return resp, nil
		}

		wait = rc.backoff(attempt + 1)
		if resp.StatusCode == http.StatusTooManyRequests {
			if hint := retryAfterHint(resp.Header.Get("Retry-After")); hint > 0 {
				wait = hint
				if wait > rc.maxDelay {
					wait = rc.maxDelay
				}
			}
		}

		// Drain before closing so the connection can be reused.
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		lastErr = fmt.Errorf("httpretry: retryable status %d from %s", resp.StatusCode, req.URL.Host)
	}

	return nil, lastErr
}

// pause blocks for d or until ctx ends. A zero pause still reports a
// finished context, so a canceled request never reaches the wire.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// rewindBody restores the request body before a retry. Requests built from
// a seekable reader carry GetBody; bodiless requests pass through.
func rewindBody(req *http.Request) error {
	if req.GetBody == nil {
		return nil
	}
	body, err := req.GetBody()
	if err != nil {
		return fmt.Errorf("httpretry: resetting request body: %w", err)
	}
	req.Body = body
	return nil
}

// backoff returns the wait before the given attempt: baseDelay doubled per
// attempt, capped at maxDelay, with full jitter and a 100ms floor so a
// small random draw cannot turn retries into a busy loop.
func (rc *RetryClient) backoff(attempt int) time.Duration {
	capped := float64(rc.baseDelay) * math.Pow(2, float64(attempt-1))
	if capped > float64(rc.maxDelay) {
		capped = float64(rc.maxDelay)
	}
	d := time.Duration(rand.Float64() * capped)
	if d < 100*time.Millisecond {
		d = 100 * time.Millisecond
	}
	return d
}

// retryAfterHint reads a Retry-After value in delta-seconds form. The
// HTTP-date form and garbage both come back as 0, leaving the computed
// backoff in charge.
func retryAfterHint(v string) time.Duration {
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// retryableStatus reports whether a status is worth another attempt.
// Client errors other than 429 are the caller's problem and never retry.
func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
