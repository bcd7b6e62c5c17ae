package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"travelpay/pkg/logger"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func decodeEnvelope(t *testing.T, body io.Reader) map[string]any {
	t.Helper()
	var envelope map[string]any
	if err := json.NewDecoder(body).Decode(&envelope); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	return envelope
}

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute, nil, logger.Discard())
	defer rl.Stop()

	if !rl.Allow("10.0.0.1") || !rl.Allow("10.0.0.1") {
		t.Fatal("first two requests should pass")
	}
	if rl.Allow("10.0.0.1") {
		t.Error("third request inside the window should be rejected")
	}
	if !rl.Allow("10.0.0.2") {
		t.Error("a different client has its own budget")
	}
	if !rl.Allow("") {
		t.Error("empty key is never limited")
	}
}

func TestRateLimit_Rejects(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute, nil, logger.Discard())
	defer rl.Stop()
	h := RateLimit(rl)(okHandler())

	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", nil)
		req.RemoteAddr = "192.0.2.10:5555"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Code != want {
			t.Errorf("request %d: expected %d, got %d", i, want, w.Code)
		}
		if want == http.StatusTooManyRequests {
			if w.Header().Get("Retry-After") != "60" {
				t.Errorf("unexpected Retry-After %q", w.Header().Get("Retry-After"))
			}
			if env := decodeEnvelope(t, w.Body); env["success"] != false || env["code"] != "RATE_LIMITED" {
				t.Errorf("unexpected envelope %v", env)
			}
		}
	}
}

func TestClientIPExtractor(t *testing.T) {
	tests := []struct {
		name      string
		forwarded string
		remote    string
		want      string
	}{
		{"forwarded first hop", "203.0.113.5, 10.0.0.1", "10.0.0.2:1234", "203.0.113.5"},
		{"remote addr", "", "198.51.100.7:4321", "198.51.100.7"},
		{"remote without port", "", "198.51.100.7", "198.51.100.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if got := ClientIPExtractor(req); got != tt.want {
				t.Errorf("ClientIPExtractor() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestContentTypeValidation(t *testing.T) {
	h := ContentTypeValidation(logger.Discard())(okHandler())

	tests := []struct {
		name        string
		method      string
		contentType string
		want        int
	}{
		{"json post", http.MethodPost, "application/json", http.StatusOK},
		{"json with charset", http.MethodPost, "application/json; charset=utf-8", http.StatusOK},
		{"form post", http.MethodPost, "application/x-www-form-urlencoded", http.StatusUnsupportedMediaType},
		{"missing on post", http.MethodPost, "", http.StatusUnsupportedMediaType},
		{"get without body", http.MethodGet, "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/payments/webhook", strings.NewReader("{}"))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestMaxRequestSize(t *testing.T) {
	var readErr error
	h := MaxRequestSize(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":"0123456789"}`))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("declared oversized body: expected 413, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":"0123456789"}`))
	req.ContentLength = -1
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if readErr == nil {
		t.Error("reading past the limit should fail")
	}
}

func TestRequestLogging_RequestID(t *testing.T) {
	var seen string
	h := RequestLogging(logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "relay-123")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if seen != "relay-123" {
		t.Errorf("expected inbound request id, got %q", seen)
	}
	if w.Header().Get(RequestIDHeader) != "relay-123" {
		t.Error("request id should be echoed")
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen == "" || seen == "relay-123" {
		t.Errorf("expected a generated request id, got %q", seen)
	}
}

func TestRecovery(t *testing.T) {
	h := Recovery(logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
	if env := decodeEnvelope(t, w.Body); env["success"] != false {
		t.Errorf("unexpected envelope %v", env)
	}
}

func TestRequestTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	h := RequestTimeout(20 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusGatewayTimeout {
		t.Errorf("expected 504, got %d", w.Code)
	}
}

func TestRequestTimeout_FastHandler(t *testing.T) {
	h := RequestTimeout(time.Second)(okHandler())

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}
