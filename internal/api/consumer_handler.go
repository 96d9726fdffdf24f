package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dairy-backend-go/internal/core"
	"dairy-backend-go/internal/models"
)

// ConsumerHandler handles the admin consumer endpoints.
type ConsumerHandler struct {
	consumerService core.ConsumerService
	logger          *zap.Logger
}

// NewConsumerHandler creates a new ConsumerHandler.
func NewConsumerHandler(cs core.ConsumerService, logger *zap.Logger) *ConsumerHandler {
	return &ConsumerHandler{consumerService: cs, logger: logger}
}

// ListConsumers handles GET /api/consumers?page=&limit=&search=.
// Missing or non-numeric page and limit fall back to the service defaults.
func (h *ConsumerHandler) ListConsumers(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))

	result, err := h.consumerService.List(c.Request.Context(), models.ListConsumersParams{
		Page:   page,
		Limit:  limit,
		Search: c.Query("search"),
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// CreateConsumer handles POST /api/consumers.
func (h *ConsumerHandler) CreateConsumer(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}
	var req models.CreateConsumerRequest
	if !bindJSON(c, &req) {
		return
	}
	consumer, err := h.consumerService.Create(c.Request.Context(), identity, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, consumer)
}

// UpdateConsumer handles PUT /api/consumers/:id.
func (h *ConsumerHandler) UpdateConsumer(c *gin.Context) {
	var req models.UpdateConsumerRequest
	if !bindJSON(c, &req) {
		return
	}
	consumer, err := h.consumerService.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, consumer)
}

// DeleteConsumer handles DELETE /api/consumers/:id.
func (h *ConsumerHandler) DeleteConsumer(c *gin.Context) {
	if err := h.consumerService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Consumer deleted successfully"})
}
