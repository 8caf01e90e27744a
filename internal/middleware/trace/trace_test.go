package trace

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"timetracker/internal/log"
)

func newTestMiddleware(buf *bytes.Buffer) *Middleware {
	logger := log.New(log.Config{Output: buf, Level: slog.LevelDebug})
	return NewMiddleware(logger, func(*http.Request) string { return "203.0.113.9" })
}

func TestMiddlewareAssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	m := newTestMiddleware(&buf)

	var seen string
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		log.FromContext(r.Context()).InfoContext(r.Context(), "inside handler")
		w.WriteHeader(http.StatusCreated)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/entries", nil))

	if !strings.HasPrefix(seen, "req_") {
		t.Fatalf("unexpected request id %q", seen)
	}
	if rec.Header().Get(RequestIDHeader) != seen {
		t.Fatalf("response header does not carry the request id")
	}
	out := buf.String()
	for _, want := range []string{"HTTP request started", "HTTP request completed", "status_code=201", "request_id=" + seen, "client_ip=203.0.113.9"} {
		if !strings.Contains(out, want) {
			t.Fatalf("log output missing %q:\n%s", want, out)
		}
	}
	if m.Total() != 1 {
		t.Fatalf("expected 1 request counted, got %d", m.Total())
	}
}

func TestMiddlewareReusesUpstreamID(t *testing.T) {
	var buf bytes.Buffer
	m := newTestMiddleware(&buf)
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	tests := []struct {
		upstream string
		reused   bool
	}{
		{"abc-123", true},
		{"bad id with spaces", false},
		{strings.Repeat("x", 65), false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/api/data", nil)
		r.Header.Set(RequestIDHeader, tt.upstream)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)

		got := rec.Header().Get(RequestIDHeader)
		if (got == tt.upstream) != tt.reused {
			t.Fatalf("upstream %q: got %q", tt.upstream, got)
		}
	}
}

func TestMiddlewareLogsServerErrors(t *testing.T) {
	var buf bytes.Buffer
	h := newTestMiddleware(&buf).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/data", nil))

	if !strings.Contains(buf.String(), "level=ERROR") {
		t.Fatalf("5xx responses should log at error level:\n%s", buf.String())
	}
}
