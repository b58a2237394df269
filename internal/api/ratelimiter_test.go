package api

import (
	"net/http"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/configme/internal/storage"
)

type staticLimiter struct {
	allow bool
}

func (s *staticLimiter) Allow() bool {
	return s.allow
}

func newLimitedRouter(t *testing.T, limiter rateLimiter) (http.Handler, *storage.Store) {
	t.Helper()

	store := storage.New("test")
	store.Set("options", map[string]any{"option": "x"})
	router := NewRouter(NewHandler(store), zaptest.NewLogger(t), WithLogging(false), WithRateLimiter(limiter))
	return router, store
}

func TestRateLimitedPutLeavesStoreUntouched(t *testing.T) {
	router, store := newLimitedRouter(t, &staticLimiter{allow: false})

	rec := serve(router, http.MethodPut, "/api/settings/options", []byte(`{"value":"changed"}`))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "1" {
		t.Fatalf("expected Retry-After 1, got %q", got)
	}

	got, _ := store.Get("options")
	if got.(map[string]any)["option"] != "x" {
		t.Fatalf("expected options to be unchanged, got %v", got)
	}
}

func TestRateLimitedPushLeavesStoreUntouched(t *testing.T) {
	router, store := newLimitedRouter(t, &staticLimiter{allow: false})

	rec := serve(router, http.MethodPost, "/api/settings/hosts/items", []byte(`{"values":["a"]}`))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if _, ok := store.Get("hosts"); ok {
		t.Fatalf("expected hosts to stay unset")
	}
}

func TestAllowedRequestReachesSettings(t *testing.T) {
	router, store := newLimitedRouter(t, &staticLimiter{allow: true})

	rec := serve(router, http.MethodPut, "/api/settings/options", []byte(`{"value":"changed"}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got, _ := store.Get("options"); got != "changed" {
		t.Fatalf("expected options to be replaced, got %v", got)
	}
}

func TestTokenBucketExhaustsOnSettingsWrites(t *testing.T) {
	router, store := newLimitedRouter(t, newTokenBucketLimiter(0.001, 1))

	first := serve(router, http.MethodPut, "/api/settings/options", []byte(`{"value":1}`))
	second := serve(router, http.MethodPut, "/api/settings/options", []byte(`{"value":2}`))
	if first.Code != http.StatusOK || second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 200 then 429, got %d then %d", first.Code, second.Code)
	}
	if got, _ := store.Get("options"); got != 1 {
		t.Fatalf("expected the first write to stick, got %v", got)
	}
}

func TestNewTokenBucketLimiterUsesDefaults(t *testing.T) {
	limiter := newTokenBucketLimiter(0, 0)
	if limiter == nil {
		t.Fatalf("expected limiter instance")
	}
	if !limiter.Allow() {
		t.Fatalf("expected first request to be allowed")
	}
}
