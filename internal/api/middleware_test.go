package api

import (
	"net/http"
	"net/http/httptest"
	"notifier/internal/ratelimit"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAuthMiddleware(t *testing.T) {
	router := SetupRoutes(newTestHandlers(t), WithAuth("app-1", "secret"))

	tests := []struct {
		name           string
		appID          string
		apiKey         string
		path           string
		expectedStatus int
	}{
		{"valid credentials", "app-1", "secret", "/api/v1/notify/messages", http.StatusOK},
		{"missing headers", "", "", "/api/v1/notify/messages", http.StatusUnauthorized},
		{"wrong key", "app-1", "nope", "/api/v1/notify/messages", http.StatusUnauthorized},
		{"wrong app", "app-2", "secret", "/api/v1/notify/messages", http.StatusUnauthorized},
		{"health skips auth", "", "", "/health", http.StatusOK},
		{"api health skips auth", "", "", "/api/v1/health", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.appID != "" {
				req.Header.Set("X-Application-Id", tt.appID)
			}
			if tt.apiKey != "" {
				req.Header.Set("X-Rest-Api-Key", tt.apiKey)
			}
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)
			assert.Equal(t, tt.expectedStatus, rr.Code)
		})
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := recoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "INTERNAL_ERROR")
}

func TestLoggingMiddlewareKeepsStatus(t *testing.T) {
	handler := loggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rr.Code)
}

func TestWithRateLimiter(t *testing.T) {
	limiter := ratelimit.NewMemoryLimiter(60, 1, time.Minute)
	defer limiter.Close()
	router := SetupRoutes(newTestHandlers(t), WithRateLimiter(ratelimit.Middleware(limiter, limiter)))

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/v1/notify/messages?guid=d", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/api/v1/notify/messages?guid=d", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}
