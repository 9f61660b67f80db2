package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	handler := RequestLogger(logger, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	req := httptest.NewRequest("GET", "/api/validate-code/x", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	if !strings.Contains(out, "level=WARN") {
		t.Errorf("expected WARN level for 404, got %q", out)
	}
	if !strings.Contains(out, "status=404") {
		t.Errorf("expected status attr, got %q", out)
	}
	if !strings.Contains(out, "path=/api/validate-code/x") {
		t.Errorf("expected path attr, got %q", out)
	}
}

func TestRequestLoggerRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	handler := RequestLogger(logger, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/foods", nil))
	minted := rec.Header().Get(RequestIDHeader)
	if minted == "" {
		t.Fatal("expected a request id header")
	}
	if !strings.Contains(buf.String(), "request_id="+minted) {
		t.Errorf("log line missing request id: %q", buf.String())
	}

	const incoming = "0b9f5c6e-4d1a-4c39-9c1e-2f7f6c1e8a10"
	req := httptest.NewRequest("GET", "/api/foods", nil)
	req.Header.Set(RequestIDHeader, incoming)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got != incoming {
		t.Errorf("request id = %q, want %q", got, incoming)
	}

	req = httptest.NewRequest("GET", "/api/foods", nil)
	req.Header.Set(RequestIDHeader, "not a uuid")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got == "not a uuid" {
		t.Error("malformed request id should be replaced")
	}
}

func TestRequestLoggerHealthAtDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	handler := RequestLogger(logger, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/health", nil))
	if buf.Len() != 0 {
		t.Errorf("health check logged at info: %q", buf.String())
	}
}

func TestRequestLoggerIgnoresForwardedForByDefault(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	handler := RequestLogger(logger, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest("GET", "/api/foods", nil)
	req.RemoteAddr = "192.0.2.10:1234"
	req.Header.Set("X-Forwarded-For", "10.9.9.9")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !strings.Contains(buf.String(), "remote=192.0.2.10") {
		t.Errorf("expected peer address in log, got %q", buf.String())
	}
}
