package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

type stubRateLimiter struct {
	mu     sync.Mutex
	counts map[string]int64
}

func newStubRateLimiter() *stubRateLimiter {
	return &stubRateLimiter{counts: map[string]int64{}}
}

func (s *stubRateLimiter) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[scope]++
	count := s.counts[scope]
	return count <= limit, count, nil
}

func loginRequest(ip, email string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"`+email+`","password":"x"}`))
	req.Header.Set("X-Forwarded-For", ip)
	return req
}

func TestAuthRateLimitBlocksIPAfterLimit(t *testing.T) {
	store := newStubRateLimiter()
	policy := NewAuthRateLimitPolicy("login", time.Minute, 2, 0)
	calls := 0
	handler := AuthRateLimit(policy, store, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusOK)
		}),
	)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, loginRequest("10.0.0.1", "a@example.com"))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d should pass, got %d", i+1, w.Code)
		}
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, loginRequest("10.0.0.1", "a@example.com"))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after limit, got %d", w.Code)
	}
	if calls != 2 {
		t.Fatalf("expected 2 handler invocations, got %d", calls)
	}

	other := httptest.NewRecorder()
	handler.ServeHTTP(other, loginRequest("10.0.0.2", "a@example.com"))
	if other.Code != http.StatusOK {
		t.Fatalf("different ip should not be blocked, got %d", other.Code)
	}
}

func TestAuthRateLimitBlocksEmailAcrossIPs(t *testing.T) {
	store := newStubRateLimiter()
	policy := NewAuthRateLimitPolicy("login", time.Minute, 0, 1)
	handler := AuthRateLimit(policy, store, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	)

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, loginRequest("10.0.0.1", "Target@Example.com"))
	if first.Code != http.StatusOK {
		t.Fatalf("first attempt should pass, got %d", first.Code)
	}

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, loginRequest("10.0.0.9", "target@example.com"))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 for same email on another ip, got %d", second.Code)
	}
}

func TestAuthRateLimitDisabledPolicyPassesThrough(t *testing.T) {
	policy := NewAuthRateLimitPolicy("login", 0, 5, 5)
	calls := 0
	handler := AuthRateLimit(policy, newStubRateLimiter(), nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusOK)
		}),
	)

	for i := 0; i < 10; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), loginRequest("10.0.0.1", "a@example.com"))
	}
	if calls != 10 {
		t.Fatalf("expected all requests to pass with disabled policy, got %d", calls)
	}
}
