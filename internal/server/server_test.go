package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lazypower/reprise/internal/engine"
	"github.com/lazypower/reprise/internal/fsrs"
	"github.com/lazypower/reprise/internal/store"
)

var testNow = time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)

func testServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := fsrs.DefaultParameters()
	eng := engine.New(db, p,
		engine.WithLogger(logger),
		engine.WithScheduler(fsrs.NewScheduler(p, fsrs.WithoutJitter(), fsrs.WithLogger(logger))),
	)
	opts = append([]Option{WithLogger(logger), WithClock(func() time.Time { return testNow })}, opts...)
	return New(eng, "test-version", opts...)
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v (%s)", err, w.Body.String())
	}
	return body
}

func TestHealthEndpoint(t *testing.T) {
	srv := testServer(t)

	w := do(t, srv, "GET", "/api/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	body := decodeBody(t, w)
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
	if body["version"] != "test-version" {
		t.Errorf("version = %v, want test-version", body["version"])
	}
	if body["db"] != true {
		t.Errorf("db = %v, want true", body["db"])
	}
	if w.Header().Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q", w.Header().Get("Content-Type"))
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := testServer(t, WithCORSOrigins([]string{"http://app.test"}))

	req := httptest.NewRequest("OPTIONS", "/api/due", nil)
	req.Header.Set("Origin", "http://app.test")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://app.test" {
		t.Errorf("Allow-Origin = %q, want http://app.test", got)
	}
}

func TestUnknownRoute(t *testing.T) {
	srv := testServer(t)
	w := do(t, srv, "GET", "/api/nope", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
