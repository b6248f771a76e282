package middleware

import (
	"net/http"
	"net/http/httptest"
	"rentacar/pkg/logger"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyRateLimiter_Allow(t *testing.T) {
	limiter := NewKeyRateLimiter(3, time.Minute, nil, "", logger.Discard())
	defer limiter.Stop()

	now := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		ok, _ := limiter.Allow("10.0.0.1")
		assert.True(t, ok, "attempt %d should pass", i+1)
	}

	ok, retry := limiter.Allow("10.0.0.1")
	assert.False(t, ok)
	assert.Equal(t, time.Minute, retry)

	ok, _ = limiter.Allow("10.0.0.2")
	assert.True(t, ok, "other keys are independent")

	now = now.Add(time.Minute)
	ok, _ = limiter.Allow("10.0.0.1")
	assert.True(t, ok, "window slid past the first attempts")

	ok, _ = limiter.Allow("")
	assert.True(t, ok, "empty key is never limited")
}

func TestKeyRateLimit_Middleware(t *testing.T) {
	limiter := NewKeyRateLimiter(2, time.Hour, nil, "Too many login attempts, try again later!", logger.Discard())
	defer limiter.Stop()

	handler := KeyRateLimit(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/user/login", nil)
		req.RemoteAddr = ip + ":4321"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send("192.0.2.1").Code)
	assert.Equal(t, http.StatusOK, send("192.0.2.1").Code)

	rec := send("192.0.2.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"error":"Too many login attempts, try again later!"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, send("192.0.2.9").Code)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.7:5555"
	assert.Equal(t, "198.51.100.7", ClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	assert.Equal(t, "203.0.113.5", ClientIP(req))
}
