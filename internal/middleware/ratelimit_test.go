package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func testConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: 60,
		BurstSize:         3,
		CleanupInterval:   time.Minute,
	}
}

// ---------------------------------------------------------------------------
// Config defaults
// ---------------------------------------------------------------------------

func TestUploadRateLimitConfig_Defaults(t *testing.T) {
	cfg := UploadRateLimitConfig(0, 0)
	if cfg.RequestsPerMinute != 30 {
		t.Errorf("RequestsPerMinute = %d, want 30", cfg.RequestsPerMinute)
	}
	if cfg.BurstSize != 5 {
		t.Errorf("BurstSize = %d, want 5", cfg.BurstSize)
	}
}

func TestUploadRateLimitConfig_FromLimits(t *testing.T) {
	cfg := UploadRateLimitConfig(120, 10)
	if cfg.RequestsPerMinute != 120 || cfg.BurstSize != 10 {
		t.Errorf("config = %+v, want configured values", cfg)
	}
}

// ---------------------------------------------------------------------------
// Token bucket
// ---------------------------------------------------------------------------

func TestRateLimiter_NewClientGetsFullBurst(t *testing.T) {
	rl := NewRateLimiter(testConfig())
	defer rl.Stop()

	if !rl.Allow("ip:1.2.3.4") {
		t.Error("first request should be allowed")
	}
}

func TestRateLimiter_AllowsUpToBurstSize(t *testing.T) {
	rl := NewRateLimiter(testConfig())
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		if !rl.Allow("ip:1.2.3.4") {
			t.Fatalf("request %d within burst should be allowed", i+1)
		}
	}
	if rl.Allow("ip:1.2.3.4") {
		t.Error("request beyond burst should be denied")
	}
}

func TestRateLimiter_TokensRefillOverTime(t *testing.T) {
	// 60 rpm = 1 token per second.
	rl := NewRateLimiter(testConfig())
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		rl.Allow("ip:1.2.3.4")
	}
	if rl.Allow("ip:1.2.3.4") {
		t.Fatal("bucket should be empty")
	}

	time.Sleep(1100 * time.Millisecond)
	if !rl.Allow("ip:1.2.3.4") {
		t.Error("one token should have refilled after a second")
	}
}

func TestRateLimiter_DifferentKeysAreIndependent(t *testing.T) {
	rl := NewRateLimiter(testConfig())
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		rl.Allow("ip:1.1.1.1")
	}
	if !rl.Allow("ip:2.2.2.2") {
		t.Error("exhausting one key must not affect another")
	}
}

func TestRateLimiter_RemainingTokens(t *testing.T) {
	rl := NewRateLimiter(testConfig())
	defer rl.Stop()

	if got := rl.RemainingTokens("ip:9.9.9.9"); got != 3 {
		t.Errorf("RemainingTokens for new key = %d, want burst size 3", got)
	}

	rl.Allow("ip:9.9.9.9")
	rl.Allow("ip:9.9.9.9")
	if got := rl.RemainingTokens("ip:9.9.9.9"); got > 1 {
		t.Errorf("RemainingTokens after two requests = %d, want <= 1", got)
	}
}

// ---------------------------------------------------------------------------
// Middleware
// ---------------------------------------------------------------------------

func newRateLimitRouter(rl *RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(RateLimitMiddleware(rl))
	r.POST("/upload", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestRateLimitMiddleware_Allowed(t *testing.T) {
	rl := NewRateLimiter(testConfig())
	defer rl.Stop()
	r := newRateLimitRouter(rl)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/upload", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if w.Header().Get("X-RateLimit-Limit") != "60" {
		t.Errorf("X-RateLimit-Limit = %q, want 60", w.Header().Get("X-RateLimit-Limit"))
	}
}

func TestRateLimitMiddleware_Blocked(t *testing.T) {
	rl := NewRateLimiter(testConfig())
	defer rl.Stop()
	r := newRateLimitRouter(rl)

	var last *httptest.ResponseRecorder
	for i := 0; i < 4; i++ {
		last = httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/upload", nil)
		req.RemoteAddr = "10.0.0.1:12345"
		r.ServeHTTP(last, req)
	}

	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", last.Code)
	}
	if last.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q, want 60", last.Header().Get("Retry-After"))
	}
}

func TestRateLimiter_CleanupRemovesStaleEntries(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{
		RequestsPerMinute: 60,
		BurstSize:         3,
		CleanupInterval:   10 * time.Millisecond,
	})
	defer rl.Stop()

	rl.Allow("ip:stale")
	rl.mu.Lock()
	rl.entries["ip:stale"].lastUpdate = time.Now().Add(-time.Hour)
	rl.mu.Unlock()

	time.Sleep(50 * time.Millisecond)

	rl.mu.RLock()
	_, exists := rl.entries["ip:stale"]
	rl.mu.RUnlock()
	if exists {
		t.Error("stale entry not cleaned up")
	}
}
