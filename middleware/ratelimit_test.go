package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSlidingWindowLimit(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	now := base
	sw := NewSlidingWindow(3, time.Minute)
	sw.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if !sw.Allow("10.0.0.1") {
			t.Fatalf("request %d denied under the limit", i)
		}
	}
	if sw.Allow("10.0.0.1") {
		t.Fatal("request over the limit allowed")
	}

	// A different client has its own window.
	if !sw.Allow("10.0.0.2") {
		t.Fatal("independent client denied")
	}

	// Once the window slides past the first hits, capacity frees up.
	now = base.Add(61 * time.Second)
	if !sw.Allow("10.0.0.1") {
		t.Fatal("request denied after the window expired")
	}
}

func TestSlidingWindowPartialExpiry(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	now := base
	sw := NewSlidingWindow(2, time.Minute)
	sw.now = func() time.Time { return now }

	sw.Allow("c")
	now = base.Add(40 * time.Second)
	sw.Allow("c")
	if sw.Allow("c") {
		t.Fatal("third request inside the window allowed")
	}

	// The first hit falls out at t+60s; the second is still live.
	now = base.Add(70 * time.Second)
	if !sw.Allow("c") {
		t.Fatal("request denied after the oldest hit expired")
	}
	if sw.Allow("c") {
		t.Fatal("window should be full again")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	sw := NewSlidingWindow(1, time.Minute)
	handler := RateLimit(sw)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/villages", nil)
	req.RemoteAddr = "192.0.2.1:51000"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", rec.Code)
	}

	// Same host on a different source port shares the bucket.
	req2 := httptest.NewRequest(http.MethodGet, "/api/v1/villages", nil)
	req2.RemoteAddr = "192.0.2.1:52000"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req2)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("same-host request status = %d, want 429", rec.Code)
	}
}
