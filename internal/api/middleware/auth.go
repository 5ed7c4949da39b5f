package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/TwinkleMedia/EASC-new-sub000/internal/auth"
)

type contextKey string

const sessionKey contextKey = "session"

// RequireSession rejects requests that do not carry a valid session token.
// The 401 payload includes the original path so the client can resume the
// interrupted flow after logging in.
func RequireSession(authn auth.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				unauthorized(w, r)
				return
			}

			sess, err := authn.Authenticate(r.Context(), token)
			if err != nil {
				if !errors.Is(err, auth.ErrAuthRequired) {
					log.Printf("auth lookup failed: %v", err)
				}
				unauthorized(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, *sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFrom returns the authenticated session stored by RequireSession.
func SessionFrom(ctx context.Context) (auth.SessionContext, bool) {
	sess, ok := ctx.Value(sessionKey).(auth.SessionContext)
	return sess, ok
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return ""
}

func unauthorized(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{
		"error": "authentication required",
		"login": "/login",
		"next":  r.URL.Path,
	})
}
