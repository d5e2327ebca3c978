package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

func TestClientKey_Precedence(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = net.JoinHostPort("203.0.113.9", "12345")

	c, _ := gin.CreateTestContext(w)
	c.Request = req

	// IP fallback when no identity is present.
	key := ClientKey()(c)
	if !strings.HasPrefix(key, "ip:") || !strings.Contains(key, "203.0.113.9") {
		t.Fatalf("expected ip-based key; got %q", key)
	}

	// The X-User-ID header wins over the IP: it is the identity feedback is
	// recorded under.
	req.Header.Set("X-User-ID", "header-user")
	if got := ClientKey()(c); got != "user:header-user" {
		t.Fatalf("expected header-based key; got %q", got)
	}

	// An authenticated user id in the context wins over everything.
	c.Set("userID", "u123")
	if got := ClientKey()(c); got != "user:u123" {
		t.Fatalf("expected context-based key; got %q", got)
	}
}

func TestNewRateLimiter_BurstCoercionAndBucketReuse(t *testing.T) {
	rl := NewRateLimiter(2.0, 0, ClientKey()) // burst<=0 coerced to 1
	if rl.burst != 1 {
		t.Fatalf("burst coercion failed, got %d", rl.burst)
	}

	lim := rl.bucketFor("k1")
	if lim == nil {
		t.Fatal("expected limiter")
	}
	if got := rl.bucketFor("k1"); got != lim {
		t.Fatal("expected same limiter instance to be reused")
	}
}

func TestRateLimiter_IdleBucketEviction(t *testing.T) {
	rl := NewRateLimiter(1.0, 1, ClientKey())
	rl.idleTTL = 1 * time.Nanosecond

	rl.mu.Lock()
	rl.buckets["old"] = &bucket{
		limiter:  rate.NewLimiter(1, 1),
		lastSeen: time.Now().Add(-time.Hour),
	}
	// Arm the sweep so the next lookup triggers it.
	rl.lookups = evictEvery - 1
	rl.mu.Unlock()

	_ = rl.bucketFor("new")

	rl.mu.Lock()
	_, existsOld := rl.buckets["old"]
	_, existsNew := rl.buckets["new"]
	rl.mu.Unlock()

	if existsOld {
		t.Fatal("expected idle bucket to be evicted by the sweep")
	}
	if !existsNew {
		t.Fatal("expected fresh bucket to be created")
	}
}

func TestRateLimiter_Handler_AllowThenDeny(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// rps=1, burst=1: first immediate request allowed, second denied.
	rl := NewRateLimiter(1.0, 1, ClientKey())

	r := gin.New()
	r.Use(func(c *gin.Context) { c.Header("X-Request-ID", "rid-1"); c.Next() })
	r.Use(rl.Handler())
	r.GET("/learn", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	w1 := httptest.NewRecorder()
	r.ServeHTTP(w1, httptest.NewRequest(http.MethodGet, "/learn", nil))
	if w1.Code != http.StatusOK {
		t.Fatalf("first request should be allowed, got %d", w1.Code)
	}

	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "/learn", nil))
	if w2.Code != http.StatusTooManyRequests {
		t.Fatalf("second request should be rate-limited, got %d", w2.Code)
	}
	if got := w2.Header().Get("Retry-After"); got != "1" {
		t.Fatalf("expected Retry-After=1, got %q", got)
	}
	var body map[string]any
	if err := json.Unmarshal(w2.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body["code"] != "rate_limited" || body["message"] != "rate limit exceeded" {
		t.Fatalf("unexpected JSON body: %v", body)
	}
	if body["request_id"] != "rid-1" {
		t.Fatalf("429 body should carry the request id, got %v", body)
	}
}

// Distinct callers must not drain each other's buckets: exhausting one user's
// quota leaves another user's requests untouched.
func TestRateLimiter_Handler_PerIdentityIsolation(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rl := NewRateLimiter(1.0, 1, ClientKey())
	r := gin.New()
	r.Use(rl.Handler())
	r.GET("/learn", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	get := func(user string) int {
		req := httptest.NewRequest(http.MethodGet, "/learn", nil)
		req.Header.Set("X-User-ID", user)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	if code := get("alice"); code != http.StatusOK {
		t.Fatalf("alice first request: %d", code)
	}
	if code := get("alice"); code != http.StatusTooManyRequests {
		t.Fatalf("alice second request should be limited, got %d", code)
	}
	if code := get("bob"); code != http.StatusOK {
		t.Fatalf("bob must get a separate bucket, got %d", code)
	}
}
