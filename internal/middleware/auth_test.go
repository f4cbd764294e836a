package middleware

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/carhunt/carhunt/internal/auth"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func authTestHandler(t *testing.T, gotUserID *string) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*gotUserID = auth.UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuth_MissingToken(t *testing.T) {
	tokens := auth.NewTokenService("test-secret", time.Hour)
	mw := Auth(AuthConfig{Logger: discardLogger(), Tokens: tokens})

	var gotUserID string
	handler := mw(authTestHandler(t, &gotUserID))

	req := httptest.NewRequest(http.MethodGet, "/api/auth", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["msg"] != "Authorization Denied!" {
		t.Errorf("unexpected message: %s", body["msg"])
	}
	if gotUserID != "" {
		t.Error("downstream handler must not run without a token")
	}
}

func TestAuth_InvalidToken(t *testing.T) {
	tokens := auth.NewTokenService("test-secret", time.Hour)
	mw := Auth(AuthConfig{Logger: discardLogger(), Tokens: tokens})

	var gotUserID string
	handler := mw(authTestHandler(t, &gotUserID))

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"wrong secret", mustIssue(t, auth.NewTokenService("other-secret", time.Hour), "user-1")},
		{"tampered", mustIssue(t, tokens, "user-1") + "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotUserID = ""

			req := httptest.NewRequest(http.MethodGet, "/api/auth", nil)
			req.Header.Set(TokenHeader, tt.token)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("expected status 401, got %d", rec.Code)
			}

			var body map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if body["msg"] != "Invalid Token!" {
				t.Errorf("unexpected message: %s", body["msg"])
			}
			if gotUserID != "" {
				t.Error("downstream handler must not run with an invalid token")
			}
		})
	}
}

func TestAuth_ValidToken(t *testing.T) {
	tokens := auth.NewTokenService("test-secret", time.Hour)
	mw := Auth(AuthConfig{Logger: discardLogger(), Tokens: tokens})

	var gotUserID string
	handler := mw(authTestHandler(t, &gotUserID))

	req := httptest.NewRequest(http.MethodGet, "/api/auth", nil)
	req.Header.Set(TokenHeader, mustIssue(t, tokens, "user-42"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if gotUserID != "user-42" {
		t.Errorf("expected identity 'user-42' in context, got %q", gotUserID)
	}
}

func mustIssue(t *testing.T, svc *auth.TokenService, userID string) string {
	t.Helper()
	token, err := svc.Issue(userID)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	return token
}
