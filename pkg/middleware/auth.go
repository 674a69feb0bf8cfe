package middleware

import (
	"net/http"
	"strings"

	"github.com/seamdb/seam/pkg/contextkeys"
	"github.com/seamdb/seam/pkg/httputil"
)

// TokenValidator resolves a bearer token into a caller identity. It returns
// an error for unknown or expired tokens.
type TokenValidator func(token string) (identity string, err error)

// AuthMiddleware provides authentication middleware
type AuthMiddleware struct {
	validate TokenValidator
	optional bool // If true, allow requests without auth
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(validate TokenValidator, optional bool) *AuthMiddleware {
	return &AuthMiddleware{
		validate: validate,
		optional: optional,
	}
}

// Handler wraps an HTTP handler with authentication
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Extract token from Authorization header
		// Format: "Bearer <token>"
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			if m.optional {
				next.ServeHTTP(w, r)
				return
			}
			httputil.WriteErrorMessage(w, http.StatusUnauthorized, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			httputil.WriteErrorMessage(w, http.StatusUnauthorized, "invalid authorization header format")
			return
		}

		identity, err := m.validate(parts[1])
		if err != nil {
			httputil.WriteErrorMessage(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		ctx := contextkeys.WithIdentity(r.Context(), identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetIdentity extracts the authenticated identity from a request, returning
// the empty string when the request was not authenticated.
func GetIdentity(r *http.Request) string {
	return contextkeys.GetIdentity(r.Context())
}
