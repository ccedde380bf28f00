package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newTestLimiter(t *testing.T, perMinute int) (*Limiter, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	rl := NewLimiter(Config{RequestsPerMinute: perMinute, Now: clock.Now})
	t.Cleanup(rl.Stop)
	return rl, clock
}

func TestAllowWithinWindow(t *testing.T) {
	rl, clock := newTestLimiter(t, 2)

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"), "clients are counted separately")

	clock.t = clock.t.Add(61 * time.Second)
	assert.True(t, rl.Allow("a"), "new window resets the budget")

	assert.EqualValues(t, 1, rl.GetMetrics().Rejected)
	assert.EqualValues(t, 2, rl.GetMetrics().ClientCount)
}

func TestCleanupStaleEntries(t *testing.T) {
	rl, clock := newTestLimiter(t, 5)
	rl.Allow("a")
	clock.t = clock.t.Add(11 * time.Minute)
	rl.Allow("b")

	rl.cleanupStaleEntries()
	assert.EqualValues(t, 1, rl.GetMetrics().ClientCount)
}

func TestMiddlewareRejectsWithRetryAfter(t *testing.T) {
	rl, clock := newTestLimiter(t, 1)
	h := rl.Middleware(func(*http.Request) string { return "k" }, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	clock.t = clock.t.Add(20 * time.Second)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "40", rec.Header().Get("Retry-After"))
}

func TestStopIsIdempotent(t *testing.T) {
	rl := NewLimiter(Config{})
	rl.Stop()
	rl.Stop()
	assert.Equal(t, 120, rl.requestsPerMinute)
}
