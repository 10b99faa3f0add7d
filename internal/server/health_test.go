package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/AritraCh2005/SmartSeva-4/internal/generator"
)

// fakePinger reports a fixed health state.
type fakePinger struct {
	name string
	err  error
}

func (f *fakePinger) Ping(context.Context) error { return f.err }
func (f *fakePinger) Name() string               { return f.name }

func Test_HandleHealth(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeAsker{ans: &generator.Answer{}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("status field = %q, want ok", resp["status"])
	}
}

func Test_HandleReady_AllHealthy(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeAsker{ans: &generator.Answer{}}, &Config{
		Registry: prometheus.NewRegistry(),
		Pingers: []Pinger{
			&fakePinger{name: "qdrant"},
			&fakePinger{name: "ollama"},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/ready", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp readyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !resp.Ready || len(resp.Checks) != 2 {
		t.Errorf("response = %+v, want ready with 2 checks", resp)
	}
}

func Test_HandleReady_DependencyDown(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeAsker{ans: &generator.Answer{}}, &Config{
		Registry: prometheus.NewRegistry(),
		Pingers: []Pinger{
			&fakePinger{name: "qdrant"},
			&fakePinger{name: "ollama", err: errors.New("connection refused")},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/ready", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	var resp readyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Ready {
		t.Error("Ready = true, want false")
	}
	if len(resp.Checks) != 2 || resp.Checks[1].OK || resp.Checks[1].Error == "" {
		t.Errorf("checks = %+v, want failed second check with error", resp.Checks)
	}
}

func Test_MultiPinger_ReturnsFirstFailure(t *testing.T) {
	t.Parallel()

	mp := NewMultiPinger(
		&fakePinger{name: "a"},
		&fakePinger{name: "b", err: errors.New("down")},
		&fakePinger{name: "c"},
	)

	err := mp.Ping(context.Background())
	if err == nil {
		t.Fatal("Ping() error = nil, want error")
	}
	if got := err.Error(); got != "b: down" {
		t.Errorf("error = %q, want %q", got, "b: down")
	}
}
