package middleware

import (
	"log/slog"
	"net/http"

	"github.com/carhunt/carhunt/internal/auth"
)

// TokenHeader is the header carrying the bearer credential.
// Clients send x-auth-token rather than Authorization.
const TokenHeader = "x-auth-token"

// TokenVerifier validates a bearer token and returns its claims.
type TokenVerifier interface {
	Verify(tokenString string) (*auth.Claims, error)
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger *slog.Logger
	Tokens TokenVerifier
}

// Auth returns a middleware that authenticates requests via the x-auth-token
// header. A missing token short-circuits with 401 "Authorization Denied!";
// any verification failure (expired, malformed, wrong secret) with 401
// "Invalid Token!". On success the decoded identity is attached to the
// request context and the downstream handler is invoked.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(TokenHeader)
			if token == "" {
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", "missing_token"),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeAuthError(w, "Authorization Denied!")
				return
			}

			claims, err := cfg.Tokens.Verify(token)
			if err != nil {
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", "invalid_token"),
					slog.String("error", err.Error()),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeAuthError(w, "Invalid Token!")
				return
			}

			ctx := auth.ContextWithIdentity(r.Context(), &auth.Identity{UserID: claims.UserID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// writeAuthError writes a 401 Unauthorized response with the given message.
func writeAuthError(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"msg":"` + msg + `"}`))
}
