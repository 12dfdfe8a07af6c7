package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"sim-sync/internal/config"
	"sim-sync/pkg/jwt"
)

const secret = "middleware-secret"

func echoUser(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(GetUserID(r)))
}

func TestAuthMiddleware(t *testing.T) {
	access, _ := jwt.GenerateToken("user-32", time.Hour, secret)
	refresh, _ := jwt.GenerateRefreshToken("user-32", time.Hour, secret)
	expired, _ := jwt.GenerateToken("user-32", -time.Minute, secret)

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{name: "valid", header: "Bearer " + access, wantStatus: http.StatusOK},
		{name: "missing", header: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Token " + access, wantStatus: http.StatusUnauthorized},
		{name: "expired", header: "Bearer " + expired, wantStatus: http.StatusUnauthorized},
		{name: "refresh token", header: "Bearer " + refresh, wantStatus: http.StatusUnauthorized},
	}

	handler := AuthMiddleware(secret)(http.HandlerFunc(echoUser))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/games", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK && rec.Body.String() != "user-32" {
				t.Errorf("user id = %q", rec.Body.String())
			}
			if tt.wantStatus == http.StatusUnauthorized && !strings.Contains(rec.Body.String(), `"errors"`) {
				t.Errorf("expected an errors body, got %q", rec.Body.String())
			}
		})
	}
}

func TestLoggerMiddleware(t *testing.T) {
	var buf bytes.Buffer
	access, _ := jwt.GenerateToken("user-32", time.Hour, secret)

	handler := LoggerMiddleware(zerolog.New(&buf))(AuthMiddleware(secret)(http.HandlerFunc(echoUser)))

	req := httptest.NewRequest(http.MethodGet, "/games", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	req.Header.Set(RequestIDHeader, "req-7")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Header().Get(RequestIDHeader) != "req-7" {
		t.Errorf("request id not echoed: %q", rec.Header().Get(RequestIDHeader))
	}
	out := buf.String()
	for _, want := range []string{`"user_id":"user-32"`, `"request_id":"req-7"`, `"status":200`} {
		if !strings.Contains(out, want) {
			t.Errorf("log line missing %s: %s", want, out)
		}
	}

	buf.Reset()
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/games", nil))
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("expected a generated request id")
	}
	if !strings.Contains(buf.String(), `"user_id":"anonymous"`) || !strings.Contains(buf.String(), `"status":401`) {
		t.Errorf("unexpected log line: %s", buf.String())
	}
}

func TestCORSMiddleware(t *testing.T) {
	handler := CORSMiddleware(config.CORSConfig{
		AllowedOrigins: "http://localhost:5173, https://sim.example",
		AllowedMethods: "GET,POST,PATCH,DELETE,OPTIONS",
		AllowedHeaders: "Content-Type,Authorization",
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/games", nil)
	req.Header.Set("Origin", "https://sim.example")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("preflight status = %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "https://sim.example" {
		t.Errorf("allow origin = %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}

	req = httptest.NewRequest(http.MethodGet, "/games", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("unknown origin must not be allowed")
	}
}
