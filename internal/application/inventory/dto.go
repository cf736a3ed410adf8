package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openpos/backend/internal/domain/inventory"
)

// ==================== Stock Level DTOs ====================

// CreateStockLevelRequest registers a product at a warehouse. The unit of
// measure is fixed at registration; later movements must carry the same unit.
type CreateStockLevelRequest struct {
	WarehouseID uuid.UUID `json:"warehouse_id" binding:"required"`
	ProductID   uuid.UUID `json:"product_id" binding:"required"`
	ProductName string    `json:"product_name" binding:"required,min=1,max=200"`
	ProductSKU  string    `json:"product_sku" binding:"max=100"`
	Unit        string    `json:"unit" binding:"max=20"`
}

// AdjustStockRequest applies a signed quantity delta to a stock level.
// The unit must match the unit the stock level was registered with.
type AdjustStockRequest struct {
	WarehouseID uuid.UUID       `json:"warehouse_id" binding:"required"`
	ProductID   uuid.UUID       `json:"product_id" binding:"required"`
	Delta       decimal.Decimal `json:"delta" binding:"required"`
	Unit        string          `json:"unit" binding:"max=20"`
	Reason      string          `json:"reason" binding:"required,min=1,max=200"`
}

// SetThresholdsRequest updates reorder parameters for a stock level
type SetThresholdsRequest struct {
	WarehouseID        uuid.UUID        `json:"warehouse_id" binding:"required"`
	ProductID          uuid.UUID        `json:"product_id" binding:"required"`
	ReorderLevel       *decimal.Decimal `json:"reorder_level"`
	MaxQuantity        *decimal.Decimal `json:"max_quantity"`
	AllowNegativeStock *bool            `json:"allow_negative_stock"`
}

// StockListFilter represents filter options for stock level lists
type StockListFilter struct {
	Search      string     `form:"search"`
	WarehouseID *uuid.UUID `form:"warehouse_id"`
	Page        int        `form:"page" binding:"min=0"`
	PageSize    int        `form:"page_size" binding:"min=0,max=100"`
	OrderBy     string     `form:"order_by"`
	OrderDir    string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// LowStockReportFilter narrows and paginates the low stock report
type LowStockReportFilter struct {
	WarehouseID    *uuid.UUID `form:"warehouse_id"`
	OutOfStockOnly bool       `form:"out_of_stock_only"`
	CriticalOnly   bool       `form:"critical_only"`
	Page           int        `form:"page" binding:"min=0"`
	PageSize       int        `form:"page_size" binding:"min=0,max=100"`
}

// StockLevelResponse represents a stock level in API responses
type StockLevelResponse struct {
	ID                 uuid.UUID       `json:"id"`
	TenantID           uuid.UUID       `json:"tenant_id"`
	WarehouseID        uuid.UUID       `json:"warehouse_id"`
	ProductID          uuid.UUID       `json:"product_id"`
	ProductName        string          `json:"product_name"`
	ProductSKU         string          `json:"product_sku"`
	Unit               string          `json:"unit,omitempty"`
	QuantityOnHand     decimal.Decimal `json:"quantity_on_hand"`
	ReorderLevel       decimal.Decimal `json:"reorder_level"`
	MaxQuantity        decimal.Decimal `json:"max_quantity"`
	AllowNegativeStock bool            `json:"allow_negative_stock"`
	Urgency            string          `json:"urgency"`
	IsLowStock         bool            `json:"is_low_stock"`
	IsOutOfStock       bool            `json:"is_out_of_stock"`
	LastMovementAt     *time.Time      `json:"last_movement_at,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// LowStockReportResponse is the paginated low stock report with its summary
type LowStockReportResponse struct {
	Items    []inventory.LowStockItem   `json:"items"`
	Total    int64                      `json:"total"`
	Page     int                        `json:"page"`
	PageSize int                        `json:"page_size"`
	Summary  *inventory.LowStockSummary `json:"summary"`
}

// ToStockLevelResponse converts a domain stock level to a response DTO
func ToStockLevelResponse(s *inventory.StockLevel) StockLevelResponse {
	return StockLevelResponse{
		ID:                 s.ID,
		TenantID:           s.TenantID,
		WarehouseID:        s.WarehouseID,
		ProductID:          s.ProductID,
		ProductName:        s.ProductName,
		ProductSKU:         s.ProductSKU,
		Unit:               s.Unit,
		QuantityOnHand:     s.QuantityOnHand,
		ReorderLevel:       s.ReorderLevel,
		MaxQuantity:        s.MaxQuantity,
		AllowNegativeStock: s.AllowNegativeStock,
		Urgency:            string(s.Urgency()),
		IsLowStock:         s.IsLowStock(),
		IsOutOfStock:       s.IsOutOfStock(),
		LastMovementAt:     s.LastMovementAt,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
}

// ToStockLevelResponses converts a slice of domain stock levels
func ToStockLevelResponses(levels []inventory.StockLevel) []StockLevelResponse {
	responses := make([]StockLevelResponse, len(levels))
	for i := range levels {
		responses[i] = ToStockLevelResponse(&levels[i])
	}
	return responses
}
