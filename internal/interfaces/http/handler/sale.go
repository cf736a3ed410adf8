package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	posapp "github.com/openpos/backend/internal/application/pos"
)

// SaleHandler handles sale API endpoints
type SaleHandler struct {
	BaseHandler
	saleService *posapp.SaleService
}

// NewSaleHandler creates a new SaleHandler
func NewSaleHandler(saleService *posapp.SaleService) *SaleHandler {
	return &SaleHandler{
		saleService: saleService,
	}
}

// RegisterRoutes registers sale routes on the API group
func (h *SaleHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sales := rg.Group("/sales")
	{
		sales.POST("", h.Create)
		sales.GET("", h.List)
		sales.GET("/:id", h.GetByID)
		sales.GET("/number/:number", h.GetBySaleNumber)
		sales.POST("/:id/items", h.AddItem)
		sales.PUT("/:id/items/:productId", h.UpdateItemQuantity)
		sales.DELETE("/:id/items/:productId", h.RemoveItem)
		sales.POST("/:id/discount", h.ApplyDiscount)
		sales.POST("/:id/confirm", h.Confirm)
		sales.POST("/:id/process", h.StartProcessing)
		sales.POST("/:id/complete", h.Complete)
		sales.POST("/:id/cancel", h.Cancel)
		sales.POST("/:id/refund", h.Refund)
	}
}

// Create opens a new sale
func (h *SaleHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.MissingTenant(c)
		return
	}

	var req posapp.CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	sale, err := h.saleService.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, sale)
}

// GetByID retrieves a sale by ID
func (h *SaleHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.MissingTenant(c)
		return
	}

	saleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid sale ID format")
		return
	}

	sale, err := h.saleService.GetByID(c.Request.Context(), tenantID, saleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, sale)
}

// GetBySaleNumber retrieves a sale by its human-readable number
func (h *SaleHandler) GetBySaleNumber(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.MissingTenant(c)
		return
	}

	sale, err := h.saleService.GetBySaleNumber(c.Request.Context(), tenantID, c.Param("number"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, sale)
}

// List retrieves sales with filtering and pagination
func (h *SaleHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.MissingTenant(c)
		return
	}

	var filter posapp.SaleListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	sales, total, err := h.saleService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	h.SuccessWithMeta(c, sales, total, page, pageSize)
}

// AddItem adds a line item to a draft sale
func (h *SaleHandler) AddItem(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.MissingTenant(c)
		return
	}

	saleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid sale ID format")
		return
	}

	var req posapp.AddSaleItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	sale, err := h.saleService.AddItem(c.Request.Context(), tenantID, saleID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, sale)
}

// UpdateItemQuantity changes the quantity of a line item
func (h *SaleHandler) UpdateItemQuantity(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.MissingTenant(c)
		return
	}

	saleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid sale ID format")
		return
	}

	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	var req posapp.UpdateSaleItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	sale, err := h.saleService.UpdateItemQuantity(c.Request.Context(), tenantID, saleID, productID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, sale)
}

// RemoveItem removes a line item from a draft sale
func (h *SaleHandler) RemoveItem(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.MissingTenant(c)
		return
	}

	saleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid sale ID format")
		return
	}

	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	sale, err := h.saleService.RemoveItem(c.Request.Context(), tenantID, saleID, productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, sale)
}

// ApplyDiscount applies a sale-level discount
func (h *SaleHandler) ApplyDiscount(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.MissingTenant(c)
		return
	}

	saleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid sale ID format")
		return
	}

	var req posapp.ApplyDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	sale, err := h.saleService.ApplyDiscount(c.Request.Context(), tenantID, saleID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, sale)
}

// Confirm locks the item list and moves the sale to CONFIRMED
func (h *SaleHandler) Confirm(c *gin.Context) {
	h.transition(c, h.saleService.Confirm)
}

// StartProcessing marks a confirmed sale as being processed
func (h *SaleHandler) StartProcessing(c *gin.Context) {
	h.transition(c, h.saleService.StartProcessing)
}

// Complete completes the sale with tendered payment
func (h *SaleHandler) Complete(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.MissingTenant(c)
		return
	}

	saleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid sale ID format")
		return
	}

	var req posapp.CompleteSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	sale, err := h.saleService.Complete(c.Request.Context(), tenantID, saleID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, sale)
}

// Cancel cancels a sale with a reason
func (h *SaleHandler) Cancel(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.MissingTenant(c)
		return
	}

	saleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid sale ID format")
		return
	}

	var req posapp.CancelSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	sale, err := h.saleService.Cancel(c.Request.Context(), tenantID, saleID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, sale)
}

// Refund refunds a completed sale with a reason
func (h *SaleHandler) Refund(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.MissingTenant(c)
		return
	}

	saleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid sale ID format")
		return
	}

	var req posapp.RefundSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	sale, err := h.saleService.Refund(c.Request.Context(), tenantID, saleID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, sale)
}

// transition handles the bodyless status transition endpoints
func (h *SaleHandler) transition(c *gin.Context, fn func(ctx context.Context, tenantID, saleID uuid.UUID) (*posapp.SaleResponse, error)) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.MissingTenant(c)
		return
	}

	saleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid sale ID format")
		return
	}

	sale, err := fn(c.Request.Context(), tenantID, saleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, sale)
}
