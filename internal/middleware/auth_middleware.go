package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dairy-backend-go/internal/auth"
	"dairy-backend-go/internal/models"
)

const identityKey = "identity"

// ErrorResponse mirrors api.ErrorResponse; it is redefined here to avoid an import cycle.
type ErrorResponse struct {
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// AuthMiddleware provides bearer-token authentication and role checks.
type AuthMiddleware struct {
	verifier auth.Verifier
	logger   *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware instance.
func NewAuthMiddleware(verifier auth.Verifier, logger *zap.Logger) *AuthMiddleware {
	if verifier == nil {
		logger.Fatal("Token verifier is not initialized for AuthMiddleware")
	}
	return &AuthMiddleware{verifier: verifier, logger: logger}
}

// VerifyToken validates the Authorization header and stores the caller identity in the context.
func (m *AuthMiddleware) VerifyToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Message: "No token, authorization denied"})
			return
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Message: "Authorization header format must be 'Bearer {token}'"})
			return
		}

		identity, err := m.verifier.Verify(c.Request.Context(), parts[1])
		if err != nil {
			if errors.Is(err, auth.ErrInvalidToken) {
				m.logger.Debug("Rejected bearer token", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Message: "Token is not valid"})
				return
			}
			m.logger.Error("Token verification failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Message: "Server error"})
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// RequireRoles allows the request through only when the caller's role is in roles.
// It must run after VerifyToken.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := GetIdentity(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Message: "No token, authorization denied"})
			return
		}
		for _, r := range roles {
			if identity.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{Message: "Access denied"})
	}
}

// GetIdentity returns the identity stored by VerifyToken.
func GetIdentity(c *gin.Context) (models.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return models.Identity{}, false
	}
	identity, ok := v.(models.Identity)
	return identity, ok
}
