package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dairy-backend-go/internal/core"
	"dairy-backend-go/internal/middleware"
	"dairy-backend-go/internal/models"
)

// respondError maps service errors to a status code and the JSON error body. Anything that
// is not a core error kind is logged and reported as a generic 500.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, core.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, core.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, core.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrConflict):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		logger.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		_ = c.Error(err)
		c.AbortWithStatusJSON(status, ErrorResponse{Message: "Server error"})
		return
	}

	message := err.Error()
	var coreErr *core.Error
	if errors.As(err, &coreErr) {
		message = coreErr.Message
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Message: message})
}

// bindJSON decodes the body into req and answers 400 on failure.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request payload", Details: err.Error()})
		return false
	}
	return true
}

// caller returns the authenticated identity, answering 401 when the auth middleware did not run.
func caller(c *gin.Context) (models.Identity, bool) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Message: "No token, authorization denied"})
	}
	return identity, ok
}
