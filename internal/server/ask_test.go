package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/AritraCh2005/SmartSeva-4/internal/generator"
	"github.com/AritraCh2005/SmartSeva-4/internal/orchestrator"
)

// fakeAsker returns a canned answer or error.
type fakeAsker struct {
	ans *generator.Answer
	err error
}

func (f *fakeAsker) Ask(_ context.Context, sessionID, _ string) (*generator.Answer, string, error) {
	if f.err != nil {
		return nil, sessionID, f.err
	}
	if sessionID == "" {
		sessionID = "new-session"
	}
	return f.ans, sessionID, nil
}

// fakeDropper records dropped session IDs.
type fakeDropper struct {
	dropped []string
	err     error
}

func (f *fakeDropper) Drop(_ context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	f.dropped = append(f.dropped, id)
	return nil
}

func newTestServer(t *testing.T, ask asker, cfg *Config) *Server {
	t.Helper()

	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}
	s, err := New(ask, &fakeDropper{}, nil, nil, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func postAsk(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/ask", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func Test_HandleAsk_GroundedAnswer(t *testing.T) {
	t.Parallel()

	ask := &fakeAsker{ans: &generator.Answer{
		Text:      "PMAY provides housing subsidies.",
		Grounded:  true,
		Citations: []string{"c1"},
	}}
	s := newTestServer(t, ask, nil)

	rec := postAsk(t, s.Handler(), `{"query":"what is PMAY?"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	var resp askResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !resp.Grounded {
		t.Error("Grounded = false, want true")
	}
	if resp.SessionID != "new-session" {
		t.Errorf("SessionID = %q, want new-session", resp.SessionID)
	}
	if len(resp.Citations) != 1 || resp.Citations[0] != "c1" {
		t.Errorf("Citations = %v, want [c1]", resp.Citations)
	}
}

func Test_HandleAsk_Refusal(t *testing.T) {
	t.Parallel()

	ask := &fakeAsker{ans: &generator.Answer{
		Text:     generator.RefusalText,
		Grounded: false,
	}}
	s := newTestServer(t, ask, nil)

	rec := postAsk(t, s.Handler(), `{"query":"unrelated question"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp askResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Grounded {
		t.Error("Grounded = true, want false")
	}
	if resp.Answer != generator.RefusalText {
		t.Errorf("Answer = %q, want refusal text", resp.Answer)
	}
}

func Test_HandleAsk_BadRequests(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeAsker{ans: &generator.Answer{Text: "x", Grounded: true}}, nil)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{not json`},
		{"missing query", `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := postAsk(t, s.Handler(), tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func Test_HandleAsk_InvalidQueryMapsTo400(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeAsker{err: orchestrator.ErrInvalidQuery}, nil)

	rec := postAsk(t, s.Handler(), `{"query":"   "}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func Test_HandleAsk_GenerationFailureMapsTo502(t *testing.T) {
	t.Parallel()

	ask := &fakeAsker{err: &generator.GenerationError{Err: errors.New("model timeout")}}
	s := newTestServer(t, ask, nil)

	rec := postAsk(t, s.Handler(), `{"query":"what is PMAY?"}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "temporarily unavailable") {
		t.Errorf("body = %q, want user-facing unavailable message", rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "model timeout") {
		t.Error("provider error leaked to the client")
	}
}

func Test_HandleDropSession(t *testing.T) {
	t.Parallel()

	dropper := &fakeDropper{}
	cfg := &Config{Registry: prometheus.NewRegistry()}
	s, err := New(&fakeAsker{ans: &generator.Answer{}}, dropper, nil, nil, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(s.Close)

	req := httptest.NewRequest(http.MethodDelete, "/api/sessions/sess-1", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if len(dropper.dropped) != 1 || dropper.dropped[0] != "sess-1" {
		t.Errorf("dropped = %v, want [sess-1]", dropper.dropped)
	}
}

func Test_HandleDropSession_NotFound(t *testing.T) {
	t.Parallel()

	cfg := &Config{Registry: prometheus.NewRegistry()}
	s, err := New(&fakeAsker{ans: &generator.Answer{}}, &fakeDropper{err: orchestrator.ErrSessionNotFound}, nil, nil, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(s.Close)

	req := httptest.NewRequest(http.MethodDelete, "/api/sessions/nope", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
