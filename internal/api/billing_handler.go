package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dairy-backend-go/internal/core"
	"dairy-backend-go/internal/export"
	"dairy-backend-go/internal/models"
)

// BillingHandler handles the billing endpoints.
type BillingHandler struct {
	billingService core.BillingService
	logger         *zap.Logger
}

// NewBillingHandler creates a new BillingHandler.
func NewBillingHandler(bs core.BillingService, logger *zap.Logger) *BillingHandler {
	return &BillingHandler{billingService: bs, logger: logger}
}

func (h *BillingHandler) ListBills(c *gin.Context) {
	bills, err := h.billingService.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, bills)
}

// ListMyBills handles GET /api/bills/consumer.
func (h *BillingHandler) ListMyBills(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}
	bills, err := h.billingService.ListForCaller(c.Request.Context(), identity)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, bills)
}

// ExportBills handles GET /api/bills/export and streams every bill as an XLSX workbook.
func (h *BillingHandler) ExportBills(c *gin.Context) {
	bills, err := h.billingService.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	data, err := export.BillsWorkbook(bills)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	filename := fmt.Sprintf("bills-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, export.ContentType, data)
}

func (h *BillingHandler) GetBill(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}
	bill, err := h.billingService.Get(c.Request.Context(), identity, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, bill)
}

func (h *BillingHandler) CreateBill(c *gin.Context) {
	var req models.BillingRequest
	if !bindJSON(c, &req) {
		return
	}
	bill, err := h.billingService.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, bill)
}

// UpdateBillStatus handles PATCH /api/bills/:id/status for admins and the billed consumer.
func (h *BillingHandler) UpdateBillStatus(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}
	var req models.BillingStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	bill, err := h.billingService.UpdateStatus(c.Request.Context(), identity, c.Param("id"), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, bill)
}

func (h *BillingHandler) UpdateBill(c *gin.Context) {
	var req models.BillingRequest
	if !bindJSON(c, &req) {
		return
	}
	bill, err := h.billingService.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, bill)
}
