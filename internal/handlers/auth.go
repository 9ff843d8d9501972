package handlers

import (
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/logistics-dashboard/internal/apperr"
	"github.com/ukydev/logistics-dashboard/internal/auth"
	"github.com/ukydev/logistics-dashboard/internal/db"
	"github.com/ukydev/logistics-dashboard/internal/middleware"
	"github.com/ukydev/logistics-dashboard/internal/models"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	authService *auth.Service
	users       db.UserCollection
	log         log.FieldLogger
}

func NewAuthHandler(authService *auth.Service, users db.UserCollection, logger log.FieldLogger) *AuthHandler {
	return &AuthHandler{authService: authService, users: users, log: logger.WithField("component", "auth_handler")}
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, apperr.Validation("Username and password are required", nil))
		return
	}

	resp, err := h.authService.Login(r.Context(), h.users, req.Username, req.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, apperr.Authentication("Invalid credentials", nil))
		return
	case errors.Is(err, auth.ErrUserInactive):
		writeError(w, apperr.Authentication("Account is deactivated", nil))
		return
	case err != nil:
		writeError(w, apperr.FromBackend(err))
		return
	}

	h.log.WithField("username", req.Username).Info("User logged in")
	writeJSON(w, http.StatusOK, resp)
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, apperr.Authentication("User context not found", nil))
		return
	}
	user, err := h.users.FindUserByID(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, apperr.FromBackend(err))
		return
	}
	writeJSON(w, http.StatusOK, user)
}
