package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopward/shopward-backend/pkg/config"
)

type stubLimiter struct {
	allowed    bool
	count      int64
	retryAfter time.Duration
	err        error

	scopes []string
}

func (s *stubLimiter) FixedWindowAllow(_ context.Context, scope string, _ int64, _ time.Duration) (bool, int64, time.Duration, error) {
	s.scopes = append(s.scopes, scope)
	return s.allowed, s.count, s.retryAfter, s.err
}

func limitConfig() config.RateLimitConfig {
	return config.RateLimitConfig{Window: time.Minute, Requests: 10}
}

func TestRateLimitAllowsUnderLimit(t *testing.T) {
	limiter := &stubLimiter{allowed: true, count: 3}
	handler := RateLimit(limitConfig(), limiter, nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithUserID(req.Context(), "user-1"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if got := rec.Header().Get("X-RateLimit-Limit"); got != "10" {
		t.Fatalf("unexpected limit header %q", got)
	}
	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "7" {
		t.Fatalf("unexpected remaining header %q", got)
	}
	if len(limiter.scopes) != 1 || limiter.scopes[0] != "user-1" {
		t.Fatalf("unexpected scopes %v", limiter.scopes)
	}
}

func TestRateLimitBlocksOverLimit(t *testing.T) {
	limiter := &stubLimiter{allowed: false, count: 11, retryAfter: 42 * time.Second}
	handler := RateLimit(limitConfig(), limiter, nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "42" {
		t.Fatalf("unexpected retry-after %q", got)
	}
	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Fatalf("unexpected remaining header %q", got)
	}
}

func TestRateLimitFallsBackToClientIP(t *testing.T) {
	limiter := &stubLimiter{allowed: true}
	handler := RateLimit(limitConfig(), limiter, nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if len(limiter.scopes) != 1 || limiter.scopes[0] != "ip:203.0.113.9" {
		t.Fatalf("unexpected scopes %v", limiter.scopes)
	}
}

func TestRateLimitFailsOpenOnStoreError(t *testing.T) {
	limiter := &stubLimiter{err: errors.New("redis down")}
	called := false
	handler := RateLimit(limitConfig(), limiter, nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !called {
		t.Fatal("expected handler to run when limiter is unavailable")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
}

func TestRateLimitDisabledWithoutConfig(t *testing.T) {
	limiter := &stubLimiter{}
	handler := RateLimit(config.RateLimitConfig{}, limiter, nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if len(limiter.scopes) != 0 {
		t.Fatal("limiter should not be consulted when disabled")
	}
}
