// Package transport provides HTTP round trippers shared by the completion backends
package transport

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"
)

const defaultMaxRetries = 3

// RateLimitedTransport retries requests rejected with 429 Too Many Requests, honoring the server's retry-after header.
// Responses without a usable retry-after header are returned as-is.
type RateLimitedTransport struct {
	base       http.RoundTripper
	maxRetries int
	maxWait    time.Duration
	logger     *log.Logger
}

type Option func(*RateLimitedTransport)

// WithMaxRetries limits how many times a single request is retried
func WithMaxRetries(n int) Option {
	return func(t *RateLimitedTransport) {
		t.maxRetries = n
	}
}

// WithMaxWait gives up instead of waiting longer than d for a retry
func WithMaxWait(d time.Duration) Option {
	return func(t *RateLimitedTransport) {
		t.maxWait = d
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(t *RateLimitedTransport) {
		t.logger = logger
	}
}

func WithRateLimiting(base http.RoundTripper, opts ...Option) *RateLimitedTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	t := &RateLimitedTransport{
		base:       base,
		maxRetries: defaultMaxRetries,
		maxWait:    time.Minute,
		logger:     log.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewClient returns an HTTP client that retries rate-limited requests
func NewClient(timeout time.Duration, opts ...Option) *http.Client {
	return &http.Client{
		Transport: WithRateLimiting(nil, opts...),
		Timeout:   timeout,
	}
}

func (t *RateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Preserve the original request body for retries
	var bodyBytes []byte
	if req.Body != nil {
		var err error
		bodyBytes, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
		err = req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to close request body: %w", err)
		}
	}

	for attempt := 0; ; attempt++ {
		if bodyBytes != nil {
			req.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}

		resp, err := t.base.RoundTrip(req)
		if err != nil {
			return resp, err
		}
		if resp.StatusCode != http.StatusTooManyRequests || attempt >= t.maxRetries {
			return resp, nil
		}

		wait := retryAfter(resp.Header.Get("retry-after"))
		if wait <= 0 || wait > t.maxWait {
			return resp, nil
		}

		err = resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to close response body: %w", err)
		}

		t.logger.Printf("rate limited by %s, waiting %s (retry %d of %d)", req.URL.Host, wait, attempt+1, t.maxRetries)
		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(wait):
		}
	}
}

// retryAfter parses a retry-after header given either in seconds or as an HTTP date
func retryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if retryTime, err := http.ParseTime(value); err == nil {
		return time.Until(retryTime)
	}
	return 0
}
