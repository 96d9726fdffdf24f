package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dairy-backend-go/internal/core"
	"dairy-backend-go/internal/models"
)

// SubscriptionHandler handles the subscription plan endpoints.
type SubscriptionHandler struct {
	subscriptionService core.SubscriptionService
	logger              *zap.Logger
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(ss core.SubscriptionService, logger *zap.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionService: ss, logger: logger}
}

// ListSubscriptions handles GET /api/subscriptions. Only active plans are returned.
func (h *SubscriptionHandler) ListSubscriptions(c *gin.Context) {
	subs, err := h.subscriptionService.ListActive(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, subs)
}

func (h *SubscriptionHandler) GetSubscription(c *gin.Context) {
	sub, err := h.subscriptionService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (h *SubscriptionHandler) CreateSubscription(c *gin.Context) {
	var req models.SubscriptionRequest
	if !bindJSON(c, &req) {
		return
	}
	sub, err := h.subscriptionService.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

func (h *SubscriptionHandler) UpdateSubscription(c *gin.Context) {
	var req models.SubscriptionRequest
	if !bindJSON(c, &req) {
		return
	}
	sub, err := h.subscriptionService.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

// DeleteSubscription handles DELETE /api/subscriptions/:id as a soft delete.
func (h *SubscriptionHandler) DeleteSubscription(c *gin.Context) {
	if err := h.subscriptionService.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Subscription deactivated successfully"})
}
