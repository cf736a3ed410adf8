package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	invapp "github.com/openpos/backend/internal/application/inventory"
)

// StockHandler handles stock level and low stock report endpoints
type StockHandler struct {
	BaseHandler
	stockService *invapp.StockService
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(stockService *invapp.StockService) *StockHandler {
	return &StockHandler{
		stockService: stockService,
	}
}

// RegisterRoutes registers stock routes on the API group
func (h *StockHandler) RegisterRoutes(rg *gin.RouterGroup) {
	stock := rg.Group("/stock")
	{
		stock.POST("/levels", h.GetOrCreate)
		stock.GET("/levels", h.List)
		stock.GET("/levels/lookup", h.GetByWarehouseAndProduct)
		stock.POST("/adjustments", h.Adjust)
		stock.PUT("/thresholds", h.SetThresholds)
		stock.GET("/reports/low-stock", h.GetLowStockReport)
	}
}

// GetOrCreate returns the stock level for a warehouse/product pair,
// creating a zero-quantity record when none exists yet
func (h *StockHandler) GetOrCreate(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.MissingTenant(c)
		return
	}

	var req invapp.CreateStockLevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	level, err := h.stockService.GetOrCreate(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, level)
}

// List retrieves stock levels with pagination and filtering
func (h *StockHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.MissingTenant(c)
		return
	}

	var filter invapp.StockListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	levels, total, err := h.stockService.List(c.Request.Context(), tenantID, filter)
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

	h.SuccessWithMeta(c, levels, total, page, pageSize)
}

// GetByWarehouseAndProduct looks up a single stock level by its natural key
func (h *StockHandler) GetByWarehouseAndProduct(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.MissingTenant(c)
		return
	}

	warehouseID, err := uuid.Parse(c.Query("warehouse_id"))
	if err != nil {
		h.BadRequest(c, "Invalid or missing warehouse_id query parameter")
		return
	}

	productID, err := uuid.Parse(c.Query("product_id"))
	if err != nil {
		h.BadRequest(c, "Invalid or missing product_id query parameter")
		return
	}

	level, err := h.stockService.GetByWarehouseAndProduct(c.Request.Context(), tenantID, warehouseID, productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, level)
}

// Adjust applies a signed quantity delta to a stock level
func (h *StockHandler) Adjust(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.MissingTenant(c)
		return
	}

	var req invapp.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	level, err := h.stockService.AdjustStock(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, level)
}

// SetThresholds updates reorder parameters for a stock level
func (h *StockHandler) SetThresholds(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.MissingTenant(c)
		return
	}

	var req invapp.SetThresholdsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	level, err := h.stockService.SetThresholds(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, level)
}

// GetLowStockReport produces the urgency-ranked reorder report
func (h *StockHandler) GetLowStockReport(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.MissingTenant(c)
		return
	}

	var filter invapp.LowStockReportFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	report, err := h.stockService.GetLowStockReport(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, report)
}
