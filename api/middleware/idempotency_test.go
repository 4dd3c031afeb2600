package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type stubIdempotencyStore struct {
	values map[string]string
}

func newStubIdempotencyStore() *stubIdempotencyStore {
	return &stubIdempotencyStore{values: map[string]string{}}
}

func (s *stubIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	value, ok := s.values[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (s *stubIdempotencyStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, exists := s.values[key]; exists {
		return false, nil
	}
	s.values[key] = fmt.Sprint(value)
	return true, nil
}

func (s *stubIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "sf:idempotency:" + scope + ":" + id
}

func (s *stubIdempotencyStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.values, key)
	}
	return nil
}

func idempotentHandler(calls *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"data":{"order_id":%d}}`, *calls)
	})
}

func placeOrderRequest(userID uuid.UUID, key, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(body))
	req.Header.Set("Idempotency-Key", key)
	req = req.WithContext(WithUserID(req.Context(), userID))
	return req
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	store := newStubIdempotencyStore()
	calls := 0
	handler := Idempotency(store, time.Hour, nil)(idempotentHandler(&calls))
	userID := uuid.New()

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, placeOrderRequest(userID, "key-1", `{"shipping_address":"1 Main St"}`))

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, placeOrderRequest(userID, "key-1", `{"shipping_address":"1 Main St"}`))

	if calls != 1 {
		t.Fatalf("expected one handler invocation, got %d", calls)
	}
	if first.Code != http.StatusCreated || second.Code != http.StatusCreated {
		t.Fatalf("expected both responses 201, got %d and %d", first.Code, second.Code)
	}
	if first.Body.String() != second.Body.String() {
		t.Fatalf("expected replayed body %q, got %q", first.Body.String(), second.Body.String())
	}
}

func TestIdempotencyRejectsKeyReuseWithDifferentBody(t *testing.T) {
	store := newStubIdempotencyStore()
	calls := 0
	handler := Idempotency(store, time.Hour, nil)(idempotentHandler(&calls))
	userID := uuid.New()

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, placeOrderRequest(userID, "key-1", `{"shipping_address":"1 Main St"}`))

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, placeOrderRequest(userID, "key-1", `{"shipping_address":"2 Other St"}`))

	if calls != 1 {
		t.Fatalf("expected one handler invocation, got %d", calls)
	}
	if second.Code != http.StatusConflict {
		t.Fatalf("expected 409 for reused key, got %d", second.Code)
	}
}

func TestIdempotencyScopedPerUser(t *testing.T) {
	store := newStubIdempotencyStore()
	calls := 0
	handler := Idempotency(store, time.Hour, nil)(idempotentHandler(&calls))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, placeOrderRequest(uuid.New(), "key-1", `{}`))

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, placeOrderRequest(uuid.New(), "key-1", `{}`))

	if calls != 2 {
		t.Fatalf("expected separate users to run separately, got %d calls", calls)
	}
}

func TestIdempotencyPassthroughWithoutKey(t *testing.T) {
	store := newStubIdempotencyStore()
	calls := 0
	handler := Idempotency(store, time.Hour, nil)(idempotentHandler(&calls))

	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if calls != 1 {
		t.Fatalf("expected handler to run, got %d calls", calls)
	}
	if len(store.values) != 0 {
		t.Fatalf("expected nothing stored without a key, got %d entries", len(store.values))
	}
}

func TestIdempotencyIgnoresOtherRoutes(t *testing.T) {
	store := newStubIdempotencyStore()
	calls := 0
	handler := Idempotency(store, time.Hour, nil)(idempotentHandler(&calls))

	req := httptest.NewRequest(http.MethodPost, "/api/cart", strings.NewReader(`{}`))
	req.Header.Set("Idempotency-Key", "key-1")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	handler.ServeHTTP(httptest.NewRecorder(), placeOrderRequest(uuid.New(), "", `{}`))

	if len(store.values) != 0 {
		t.Fatalf("expected no records for non-order routes, got %d", len(store.values))
	}
}
