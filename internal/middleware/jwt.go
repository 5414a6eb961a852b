package myMiddleware

import (
	"context"
	"net/http"
	"strings"
)

// Context keys (Exported so handlers can read the injected identity)
type contextKey string

const (
	UserKey contextKey = "user_id"
	RoleKey contextKey = "role"
)

// TokenValidator is what we need from the auth service. Returns userID,
// role, error. The interface keeps 'middleware' decoupled from 'auth'.
type TokenValidator interface {
	ValidateToken(tokenString string) (int, string, error)
}

type AuthMiddleware struct {
	validator TokenValidator
	role      string // required role, "" = any authenticated user
}

// NewAuthMiddleware builds a middleware rejecting requests whose token is
// missing/invalid (401) or whose role differs from the required one (403).
func NewAuthMiddleware(v TokenValidator, requiredRole string) *AuthMiddleware {
	return &AuthMiddleware{validator: v, role: requiredRole}
}

func (am *AuthMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := ""

		// Check Authorization Header
		authHeader := r.Header.Get("Authorization")
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 {
				tokenString = parts[1]
			}
		}

		// Fallback: Query Param (websocket handshakes can't set headers)
		if tokenString == "" {
			tokenString = r.URL.Query().Get("token")
		}

		if tokenString == "" {
			http.Error(w, "Missing authentication token", http.StatusUnauthorized)
			return
		}

		userID, role, err := am.validator.ValidateToken(tokenString)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		if am.role != "" && role != am.role {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		// Inject into Context
		ctx := context.WithValue(r.Context(), UserKey, userID)
		ctx = context.WithValue(ctx, RoleKey, role)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
