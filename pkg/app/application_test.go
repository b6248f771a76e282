package app

import (
	"io"
	"net/http"
	"net/http/httptest"
	"rentacar/pkg/client"
	"rentacar/pkg/config"
	"rentacar/pkg/contracts"
	"rentacar/pkg/logger"
	"strings"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:                   "5000",
		FrontendURL:            "http://localhost:5173",
		LoginRateLimitRequests: 2,
		LoginRateLimitWindow:   time.Minute,
		RequestTimeout:         5 * time.Second,
		IdempotencyTTL:         time.Minute,
		MaxRequestSize:         1024,
		ShutdownTimeout:        time.Second,
		MetricsEnabled:         true,
		Log:                    logger.Discard(),
		Client:                 client.NewClient(),
	}
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func newTestApp(t *testing.T) *Application {
	t.Helper()
	a := NewApplication(testConfig())
	t.Cleanup(a.stopWorkers)

	err := a.SetApp(contracts.HandlerFunc(func(router *httprouter.Router) {
		router.GET("/ping", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
			_, _ = io.WriteString(w, "pong")
		})
		router.POST("/login", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
			a.LoginRateLimit()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			})).ServeHTTP(w, r)
		})
	}))
	require.NoError(t, err)
	return a
}

func serve(a *Application, method, path, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)
	return rec
}

func TestApplication_Routing(t *testing.T) {
	a := newTestApp(t)

	tests := []struct {
		name        string
		method      string
		path        string
		contentType string
		body        string
		wantStatus  int
	}{
		{"liveness", http.MethodGet, "/health", "", "", http.StatusOK},
		{"readiness without database", http.MethodGet, "/ready", "", "", http.StatusServiceUnavailable},
		{"application route", http.MethodGet, "/ping", "", "", http.StatusOK},
		{"unknown route", http.MethodGet, "/nope", "", "", http.StatusNotFound},
		{"non json body", http.MethodPost, "/login", "text/plain", "hello", http.StatusUnsupportedMediaType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(a, tt.method, tt.path, tt.contentType, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestApplication_SecurityHeadersOnAppRoutes(t *testing.T) {
	a := newTestApp(t)

	rec := serve(a, http.MethodGet, "/ping", "", "")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy-Report-Only"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestApplication_LoginRateLimit(t *testing.T) {
	a := newTestApp(t)

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, serve(a, http.MethodPost, "/login", "", "").Code)
	}
	rec := serve(a, http.MethodPost, "/login", "", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), loginRateLimitMessage)
}

func TestApplication_Metrics(t *testing.T) {
	a := newTestApp(t)

	serve(a, http.MethodGet, "/ping", "", "")
	rec := serve(a, http.MethodGet, "/metrics", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http_requests_total{method="GET",path="/ping",status="200"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestApplication_ShutdownClosesResources(t *testing.T) {
	a := newTestApp(t)
	closed := false
	a.OnShutdown(closerFunc(func() error {
		closed = true
		return nil
	}))

	a.gracefulShutdown()
	assert.True(t, closed)
}
