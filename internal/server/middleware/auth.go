package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/musicreward/musicreward/internal/model"
	"github.com/musicreward/musicreward/internal/service"
)

type contextKeyAuth string

const (
	// AuthPrincipalKey is the context key for the authenticated principal.
	AuthPrincipalKey contextKeyAuth = "auth_principal"
)

// Principal is the admin making the request.
type Principal struct {
	AdminID  int64
	Username string
	Token    string
}

// Authenticate returns an HTTP middleware that resolves the bearer token in
// the Authorization header to an admin session.
//
// With required set, a missing, unknown or expired token is rejected with
// 401. Without it, the request proceeds anonymously in those cases; a valid
// token still attaches its Principal so profile and logout keep working.
// A failing session lookup is a 500 either way.
func Authenticate(sessions *service.SessionManager, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				if required {
					WriteAuthError(w, "Authentication required")
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			admin, err := sessions.Validate(r.Context(), token)
			switch {
			case err == nil:
				ctx := context.WithValue(r.Context(), AuthPrincipalKey, &Principal{
					AdminID:  admin.ID,
					Username: admin.Username,
					Token:    token,
				})
				next.ServeHTTP(w, r.WithContext(ctx))
			case !errors.Is(err, service.ErrUnauthorized):
				writeError(w, http.StatusInternalServerError, "Failed to authenticate", err.Error())
			case required:
				WriteAuthError(w, "Invalid or expired token")
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

// BearerToken returns the token from an "Authorization: Bearer <token>"
// header, or "".
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) < 7 || !strings.EqualFold(header[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

// GetPrincipal extracts the authenticated principal from the context.
// Returns nil if no principal is present (i.e., unauthenticated request).
func GetPrincipal(ctx context.Context) *Principal {
	if p, ok := ctx.Value(AuthPrincipalKey).(*Principal); ok {
		return p
	}
	return nil
}

// WriteAuthError writes a 401 in the standard error envelope.
func WriteAuthError(w http.ResponseWriter, details string) {
	writeError(w, http.StatusUnauthorized, "Unauthorized", details)
}

func writeError(w http.ResponseWriter, status int, msg, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(model.ErrorResponse{Error: msg, Details: details})
}
