package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestRateLimiterPerClient(t *testing.T) {
	l := NewRateLimiter(4)
	start := time.Date(2024, 11, 20, 9, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return start }

	for i := 0; i < 2; i++ {
		if !l.Allow("10.0.0.1") {
			t.Fatalf("request %d within burst rejected", i)
		}
	}
	if l.Allow("10.0.0.1") {
		t.Error("request over burst allowed")
	}
	if !l.Allow("10.0.0.2") {
		t.Error("other client should have its own bucket")
	}

	l.now = func() time.Time { return start.Add(15 * time.Second) }
	if !l.Allow("10.0.0.1") {
		t.Error("token should refill after 15s")
	}
}

func TestRateLimiterEvictsIdleClients(t *testing.T) {
	l := NewRateLimiter(1)
	start := time.Date(2024, 11, 20, 9, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return start }
	l.Allow("a")

	l.now = func() time.Time { return start.Add(limiterIdle + time.Second) }
	l.Allow("b")
	if _, ok := l.limiters["a"]; ok {
		t.Error("idle limiter not evicted")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/classify", NewRateLimiter(1).Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 2)
	for i := range codes {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/classify", nil))
		codes[i] = rec.Code
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Errorf("codes = %v", codes)
	}
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	var seen string
	r.GET("/", func(c *gin.Context) { seen = GetRequestID(c) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" || rec.Header().Get(RequestIDHeader) != seen {
		t.Errorf("generated id = %q header = %q", seen, rec.Header().Get(RequestIDHeader))
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if seen != "abc-123" {
		t.Errorf("propagated id = %q", seen)
	}
}
