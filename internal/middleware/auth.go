// Package middleware holds the HTTP middleware of the dashboard API.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/ukydev/logistics-dashboard/internal/apperr"
	"github.com/ukydev/logistics-dashboard/internal/auth"
	"github.com/ukydev/logistics-dashboard/internal/models"
)

type contextKey string

const UserContextKey contextKey = "user"

// publicPaths are served without a token.
var publicPaths = []string{
	"/api/auth/login",
	"/health",
}

// AuthMiddleware provides JWT authentication and permission checks
type AuthMiddleware struct {
	authService *auth.Service
}

func NewAuthMiddleware(authService *auth.Service) *AuthMiddleware {
	return &AuthMiddleware{authService: authService}
}

// Authenticate validates the bearer token and stores its claims in the request context.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if shouldSkipAuth(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, err := m.authService.ExtractTokenFromHeader(r.Header.Get("Authorization"))
		if err != nil {
			apperr.WriteJSON(w, apperr.Authentication("Authorization header required", nil))
			return
		}
		claims, err := m.authService.ValidateToken(token)
		if err != nil {
			msg := "Invalid token"
			if errors.Is(err, auth.ErrExpiredToken) {
				msg = "Token expired"
			}
			apperr.WriteJSON(w, apperr.Authentication(msg, nil))
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole allows requests from role or from an admin.
func (m *AuthMiddleware) RequireRole(role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetUserFromContext(r.Context())
			if !ok {
				apperr.WriteJSON(w, apperr.Authentication("User context not found", nil))
				return
			}
			if claims.Role != role && claims.Role != models.RoleAdmin {
				apperr.WriteJSON(w, apperr.Authorization("Insufficient permissions", apperr.Details{"required_role": string(role)}))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequirePermission allows requests whose role grants action.
func (m *AuthMiddleware) RequirePermission(action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetUserFromContext(r.Context())
			if !ok {
				apperr.WriteJSON(w, apperr.Authentication("User context not found", nil))
				return
			}
			user := &models.User{Role: claims.Role}
			if !user.HasPermission(action) {
				apperr.WriteJSON(w, apperr.Authorization("Insufficient permissions", apperr.Details{"action": action}))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetUserFromContext extracts user claims from request context
func GetUserFromContext(ctx context.Context) (*models.Claims, bool) {
	claims, ok := ctx.Value(UserContextKey).(*models.Claims)
	return claims, ok
}

func shouldSkipAuth(path string) bool {
	for _, p := range publicPaths {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}
