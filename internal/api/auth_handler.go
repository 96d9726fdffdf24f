package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dairy-backend-go/internal/core"
	"dairy-backend-go/internal/models"
)

// AuthHandler handles login and logout.
type AuthHandler struct {
	authService core.AuthService
	logger      *zap.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(as core.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{authService: as, logger: logger}
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Logout handles POST /api/auth/logout. The presented token stops working immediately.
func (h *AuthHandler) Logout(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}
	if err := h.authService.Logout(c.Request.Context(), identity); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Logged out"})
}

// UserHandler serves the caller's own profile.
type UserHandler struct {
	userService core.UserService
	logger      *zap.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(us core.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{userService: us, logger: logger}
}

// GetProfile handles GET /api/users/profile.
func (h *UserHandler) GetProfile(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}
	user, err := h.userService.GetProfile(c.Request.Context(), identity)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
