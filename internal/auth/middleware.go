package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

var errNoBearerToken = errors.New("auth: no bearer token in Authorization header")

// contextKey is an unexported type for context keys in this package. Using
// a package-private type means no other package can read or shadow the
// values this middleware stores.
type contextKey string

const accountIDKey contextKey = "accountID"

// RequireAuth enforces authentication on protected routes.
//
// It reads the access token from the Authorization header ("Bearer <jwt>"),
// validates it, and stores the account id in the request context. Missing
// or invalid tokens end the request with 401.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			accountID, err := extractAccountID(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				http.Error(w, `{"error":"unauthorized","message":"valid authentication required"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), accountIDKey, accountID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AccountIDFromContext retrieves the authenticated account id set by
// RequireAuth. Returns (0, false) on anonymous requests.
func AccountIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(accountIDKey).(int64)
	return id, ok && id > 0
}

func extractAccountID(r *http.Request, tokens *TokenService) (int64, error) {
	header := r.Header.Get("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return 0, errNoBearerToken
	}
	return tokens.ValidateAccess(raw)
}
