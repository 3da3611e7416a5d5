package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-redis/redis_rate/v9"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkengderick/nkengdev/internal/instrumentation"
)

type fakeRateLimiter struct {
	allowed  int
	lastKey  string
	returned error
}

func (f *fakeRateLimiter) Allow(_ context.Context, key string, _ redis_rate.Limit) (*redis_rate.Result, error) {
	f.lastKey = key
	if f.returned != nil {
		return nil, f.returned
	}
	return &redis_rate.Result{Allowed: f.allowed}, nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimit(t *testing.T) {
	limiter := &fakeRateLimiter{allowed: 1}
	handler := RateLimit(limiter, "contact", 5)(okHandler())

	req := httptest.NewRequest("POST", "/contact", nil)
	req.Header.Set("X-Real-Ip", "1.2.3.4")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "contact::1.2.3.4", limiter.lastKey)
}

func TestRateLimit_Exceeded(t *testing.T) {
	limiter := &fakeRateLimiter{allowed: 0}
	handler := RateLimit(limiter, "contact", 5)(okHandler())

	req := httptest.NewRequest("POST", "/contact", nil)
	req.Header.Set("X-Real-Ip", "1.2.3.4")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusTooEarly, rr.Code)
}

func TestCors(t *testing.T) {
	handler := Cors()(okHandler())

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/blog/posts", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("no origin", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/blog/posts", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("unknown origin", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/blog/posts", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}

type trackedBody struct {
	io.Reader
	closed bool
}

func (b *trackedBody) Close() error {
	b.closed = true
	return nil
}

func TestDrainAndCloseRequest(t *testing.T) {
	handler := DrainAndCloseRequest()(okHandler())

	body := &trackedBody{Reader: strings.NewReader(`{"ignored":"payload"}`)}
	req := httptest.NewRequest("POST", "/contact", nil)
	req.Body = body
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, body.closed)

	// body was drained even though the handler never read it
	n, err := body.Read(make([]byte, 1))
	assert.Equal(t, 0, n)
	assert.Equal(t, io.EOF, err)
}

func TestPanicRecovery(t *testing.T) {
	instr := instrumentation.NewTestInstrumentation()
	handler := PanicRecovery(instr)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest("GET", "/blog/posts", nil)
	rr := httptest.NewRecorder()

	// must not propagate the panic
	require.NotPanics(t, func() {
		handler.ServeHTTP(rr, req)
	})
	assert.Equal(t, float64(1), testutil.ToFloat64(instr.CounterHandleRequestPanic))
}
