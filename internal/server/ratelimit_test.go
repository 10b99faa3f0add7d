package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/AritraCh2005/SmartSeva-4/internal/generator"
	"github.com/AritraCh2005/SmartSeva-4/internal/logging"
)

func Test_RateLimit_RejectsBurstOverflow(t *testing.T) {
	t.Parallel()

	ask := &fakeAsker{ans: &generator.Answer{Text: "x", Grounded: true}}
	s := newTestServer(t, ask, &Config{
		Registry:  prometheus.NewRegistry(),
		RateLimit: 1,
		RateBurst: 2,
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/ask", validAskBody())
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "203.0.113.7:1234"
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Errorf("first two requests = %v, want both 200", codes[:2])
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("third request = %d, want 429", codes[2])
	}
}

func Test_RateLimit_PerIPIsolation(t *testing.T) {
	t.Parallel()

	ask := &fakeAsker{ans: &generator.Answer{Text: "x", Grounded: true}}
	s := newTestServer(t, ask, &Config{
		Registry:  prometheus.NewRegistry(),
		RateLimit: 1,
		RateBurst: 1,
	})

	// Exhaust the first IP's bucket.
	req := httptest.NewRequest(http.MethodPost, "/api/ask", validAskBody())
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "203.0.113.1:1000"
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request = %d, want 200", rec.Code)
	}

	// A different IP still has a full bucket.
	req = httptest.NewRequest(http.MethodPost, "/api/ask", validAskBody())
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "203.0.113.2:1000"
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("other IP request = %d, want 200", rec.Code)
	}
}

func Test_RateLimiter_Evict(t *testing.T) {
	t.Parallel()

	rl, stop := newRateLimiter(1, 1, logging.New())
	defer stop()

	rl.getLimiter("203.0.113.1")
	rl.mu.Lock()
	rl.limiters["203.0.113.1"].lastSeen = time.Now().Add(-10 * time.Minute)
	rl.mu.Unlock()
	rl.getLimiter("203.0.113.2")

	rl.evict()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.limiters["203.0.113.1"]; ok {
		t.Error("stale entry not evicted")
	}
	if _, ok := rl.limiters["203.0.113.2"]; !ok {
		t.Error("fresh entry evicted")
	}
}

func Test_ClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		addr string
		want string
	}{
		{"192.0.2.1:8080", "192.0.2.1"},
		{"[::1]:8080", "[::1]"},
		{"noport", "noport"},
	}
	for _, tt := range tests {
		r := &http.Request{RemoteAddr: tt.addr}
		if got := clientIP(r); got != tt.want {
			t.Errorf("clientIP(%q) = %q, want %q", tt.addr, got, tt.want)
		}
	}
}
