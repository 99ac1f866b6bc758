package transport

import (
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// newRateLimitingServer rejects the first `rejections` requests with the given retry-after header
func newRateLimitingServer(t *testing.T, rejections int32, retryAfter string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.Equal(t, "payload", string(body))

		if calls.Add(1) <= rejections {
			w.Header().Set("retry-after", retryAfter)
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func post(t *testing.T, client *http.Client, url string) *http.Response {
	t.Helper()
	resp, err := client.Post(url, "text/plain", strings.NewReader("payload"))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestRoundTrip_RetriesAfterRateLimit(t *testing.T) {
	server, calls := newRateLimitingServer(t, 2, "1")

	client := NewClient(10*time.Second, WithLogger(quietLogger()))

	resp := post(t, client, server.URL)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRoundTrip_NoUsableRetryAfter(t *testing.T) {
	server, calls := newRateLimitingServer(t, 2, "0")

	client := NewClient(10*time.Second, WithLogger(quietLogger()))

	resp := post(t, client, server.URL)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRoundTrip_GivesUpAfterMaxRetries(t *testing.T) {
	server, calls := newRateLimitingServer(t, 10, "1")

	client := NewClient(10*time.Second, WithLogger(quietLogger()), WithMaxRetries(1))

	resp := post(t, client, server.URL)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRoundTrip_WaitTooLong(t *testing.T) {
	server, calls := newRateLimitingServer(t, 1, "3600")

	client := NewClient(10*time.Second, WithLogger(quietLogger()), WithMaxWait(time.Second))

	resp := post(t, client, server.URL)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRetryAfter(t *testing.T) {
	assert.Equal(t, time.Duration(0), retryAfter(""))
	assert.Equal(t, 5*time.Second, retryAfter("5"))
	assert.Equal(t, time.Duration(0), retryAfter("soon"))

	future := time.Now().Add(time.Hour).UTC().Format(http.TimeFormat)
	wait := retryAfter(future)
	assert.Greater(t, wait, 58*time.Minute)
	assert.LessOrEqual(t, wait, time.Hour)
}
