package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dairy-backend-go/internal/core"
	"dairy-backend-go/internal/models"
)

// DeliveryHandler handles the delivery endpoints. Ownership checks live in the service.
type DeliveryHandler struct {
	deliveryService core.DeliveryService
	logger          *zap.Logger
}

// NewDeliveryHandler creates a new DeliveryHandler.
func NewDeliveryHandler(ds core.DeliveryService, logger *zap.Logger) *DeliveryHandler {
	return &DeliveryHandler{deliveryService: ds, logger: logger}
}

func (h *DeliveryHandler) ListDeliveries(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}
	list, err := h.deliveryService.List(c.Request.Context(), identity)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *DeliveryHandler) GetDelivery(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}
	d, err := h.deliveryService.Get(c.Request.Context(), identity, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *DeliveryHandler) CreateDelivery(c *gin.Context) {
	var req models.DeliveryRequest
	if !bindJSON(c, &req) {
		return
	}
	d, err := h.deliveryService.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

// UpdateDeliveryStatus handles PATCH /api/deliveries/:id/status.
func (h *DeliveryHandler) UpdateDeliveryStatus(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}
	var req models.DeliveryStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	d, err := h.deliveryService.UpdateStatus(c.Request.Context(), identity, c.Param("id"), req.Status)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *DeliveryHandler) UpdateDelivery(c *gin.Context) {
	var req models.DeliveryRequest
	if !bindJSON(c, &req) {
		return
	}
	d, err := h.deliveryService.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, d)
}
