package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"

	"coverletter-service/internal/logging"
)

func newTestRedisLimiter(t *testing.T, rpm int) (*RedisRateLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	rl, err := NewRedisRateLimiter("redis://"+mr.Addr()+"/0", rpm, logging.NewMultiLogger())
	if err != nil {
		t.Fatalf("NewRedisRateLimiter() error = %v", err)
	}
	t.Cleanup(func() { rl.Close() })

	fixed := time.Date(2024, 5, 1, 12, 0, 30, 0, time.UTC)
	rl.now = func() time.Time { return fixed }
	return rl, mr
}

func TestRedisRateLimiter_Allow(t *testing.T) {
	rl, mr := newTestRedisLimiter(t, 2)
	ctx := context.Background()

	got := []bool{rl.Allow(ctx, "10.0.0.1"), rl.Allow(ctx, "10.0.0.1"), rl.Allow(ctx, "10.0.0.1")}
	if !got[0] || !got[1] || got[2] {
		t.Errorf("Allow() sequence = %v, want [true true false]", got)
	}
	if !rl.Allow(ctx, "10.0.0.2") {
		t.Error("second client should have its own counter")
	}

	key := rl.windowKey("10.0.0.1")
	if v, err := mr.Get(key); err != nil || v != "3" {
		t.Errorf("counter %s = %q (%v), want 3", key, v, err)
	}
	if ttl := mr.TTL(key); ttl <= 0 || ttl > time.Minute {
		t.Errorf("TTL = %v, want within one minute", ttl)
	}
}

func TestRedisRateLimiter_NewWindowResets(t *testing.T) {
	rl, _ := newTestRedisLimiter(t, 1)
	ctx := context.Background()

	if !rl.Allow(ctx, "ip") || rl.Allow(ctx, "ip") {
		t.Fatal("expected one request per window")
	}

	next := rl.now().Add(time.Minute)
	rl.now = func() time.Time { return next }
	if !rl.Allow(ctx, "ip") {
		t.Error("request in the next window was rejected")
	}
}

func TestRedisRateLimiter_FailsOpen(t *testing.T) {
	rl, mr := newTestRedisLimiter(t, 1)
	mr.Close()

	for i := 0; i < 3; i++ {
		if !rl.Allow(context.Background(), "ip") {
			t.Fatalf("request %d rejected while redis is down", i)
		}
	}
}

func TestRedisRateLimiter_Middleware(t *testing.T) {
	rl, _ := newTestRedisLimiter(t, 1)

	e := echo.New()
	e.POST("/api/generate", okHandler, RateLimit(rl))

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/generate", nil)
		req.RemoteAddr = "10.0.0.9:5555"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Errorf("status codes = %v, want [200 429]", codes)
	}
}

func TestNewRedisRateLimiter_InvalidURL(t *testing.T) {
	if _, err := NewRedisRateLimiter("not-a-url://", 10, logging.NewMultiLogger()); err == nil {
		t.Fatal("expected error for invalid redis url")
	}
}
