package pos

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openpos/backend/internal/domain/pos"
	"github.com/openpos/backend/internal/domain/shared/valueobject"
)

// ==================== Sale DTOs ====================

// CreateSaleRequest represents a request to open a new sale
type CreateSaleRequest struct {
	CashierID   uuid.UUID             `json:"cashier_id" binding:"required"`
	CustomerID  *uuid.UUID            `json:"customer_id"`
	WarehouseID *uuid.UUID            `json:"warehouse_id"`
	SaleType    pos.SaleType          `json:"sale_type"`
	Currency    valueobject.Currency  `json:"currency"`
	TaxRate     *decimal.Decimal      `json:"tax_rate"`
	Items       []CreateSaleItemInput `json:"items"`
	Discount    *decimal.Decimal      `json:"discount"`
}

// CreateSaleItemInput represents an item in the create sale request.
// Unit is the item's unit of measure; it sticks to the line, and later
// quantity changes must carry the same unit.
type CreateSaleItemInput struct {
	ProductID       uuid.UUID       `json:"product_id" binding:"required"`
	ProductName     string          `json:"product_name" binding:"required,min=1,max=200"`
	Quantity        decimal.Decimal `json:"quantity" binding:"required"`
	Unit            string          `json:"unit" binding:"max=20"`
	UnitPrice       decimal.Decimal `json:"unit_price" binding:"required"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
}

// AddSaleItemRequest represents a request to add an item to a draft sale
type AddSaleItemRequest struct {
	ProductID       uuid.UUID       `json:"product_id" binding:"required"`
	ProductName     string          `json:"product_name" binding:"required,min=1,max=200"`
	Quantity        decimal.Decimal `json:"quantity" binding:"required"`
	Unit            string          `json:"unit" binding:"max=20"`
	UnitPrice       decimal.Decimal `json:"unit_price" binding:"required"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
}

// UpdateSaleItemRequest represents a request to change a line item quantity
type UpdateSaleItemRequest struct {
	Quantity decimal.Decimal `json:"quantity" binding:"required"`
	Unit     string          `json:"unit" binding:"max=20"`
}

// ApplyDiscountRequest represents a request to apply a sale-level discount
type ApplyDiscountRequest struct {
	Discount decimal.Decimal `json:"discount" binding:"required"`
}

// CompleteSaleRequest represents a request to complete a sale with payment
type CompleteSaleRequest struct {
	Method      string          `json:"method" binding:"required"`
	AmountPaid  decimal.Decimal `json:"amount_paid" binding:"required"`
	Reference   string          `json:"reference"`
	WarehouseID *uuid.UUID      `json:"warehouse_id"` // Optional warehouse override
}

// CancelSaleRequest represents a request to cancel a sale
type CancelSaleRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// RefundSaleRequest represents a request to refund a completed sale
type RefundSaleRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// SaleListFilter represents filter options for the sale list
type SaleListFilter struct {
	Search     string           `form:"search"`
	CashierID  *uuid.UUID       `form:"cashier_id"`
	CustomerID *uuid.UUID       `form:"customer_id"`
	Status     *pos.SaleStatus  `form:"status"`
	SaleType   *pos.SaleType    `form:"sale_type"`
	StartDate  *time.Time       `form:"start_date"`
	EndDate    *time.Time       `form:"end_date"`
	MinAmount  *decimal.Decimal `form:"min_amount"`
	MaxAmount  *decimal.Decimal `form:"max_amount"`
	Page       int              `form:"page" binding:"min=0"`
	PageSize   int              `form:"page_size" binding:"min=0,max=100"`
	OrderBy    string           `form:"order_by"`
	OrderDir   string           `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// SaleItemResponse represents a sale line item in API responses
type SaleItemResponse struct {
	ID              uuid.UUID       `json:"id"`
	ProductID       uuid.UUID       `json:"product_id"`
	ProductName     string          `json:"product_name"`
	Quantity        decimal.Decimal `json:"quantity"`
	Unit            string          `json:"unit,omitempty"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	TotalPrice      decimal.Decimal `json:"total_price"`
}

// SaleResponse represents a sale in API responses
type SaleResponse struct {
	ID             uuid.UUID          `json:"id"`
	TenantID       uuid.UUID          `json:"tenant_id"`
	SaleNumber     string             `json:"sale_number"`
	CashierID      uuid.UUID          `json:"cashier_id"`
	CustomerID     *uuid.UUID         `json:"customer_id,omitempty"`
	WarehouseID    *uuid.UUID         `json:"warehouse_id,omitempty"`
	SaleType       string             `json:"sale_type"`
	Status         string             `json:"status"`
	Currency       string             `json:"currency"`
	TaxRate        decimal.Decimal    `json:"tax_rate"`
	Subtotal       decimal.Decimal    `json:"subtotal"`
	TaxAmount      decimal.Decimal    `json:"tax_amount"`
	DiscountAmount decimal.Decimal    `json:"discount_amount"`
	TotalAmount    decimal.Decimal    `json:"total_amount"`
	AmountPaid     decimal.Decimal    `json:"amount_paid"`
	ChangeAmount   decimal.Decimal    `json:"change_amount"`
	Items          []SaleItemResponse `json:"items"`
	ItemCount      int                `json:"item_count"`
	TotalQuantity  decimal.Decimal    `json:"total_quantity"`
	ConfirmedAt    *time.Time         `json:"confirmed_at,omitempty"`
	CompletedAt    *time.Time         `json:"completed_at,omitempty"`
	CancelledAt    *time.Time         `json:"cancelled_at,omitempty"`
	RefundedAt     *time.Time         `json:"refunded_at,omitempty"`
	CancelReason   string             `json:"cancel_reason,omitempty"`
	RefundReason   string             `json:"refund_reason,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// SaleListItemResponse represents a sale in list responses (without items)
type SaleListItemResponse struct {
	ID           uuid.UUID       `json:"id"`
	SaleNumber   string          `json:"sale_number"`
	CashierID    uuid.UUID       `json:"cashier_id"`
	CustomerID   *uuid.UUID      `json:"customer_id,omitempty"`
	SaleType     string          `json:"sale_type"`
	Status       string          `json:"status"`
	Currency     string          `json:"currency"`
	ItemCount    int             `json:"item_count"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	ChangeAmount decimal.Decimal `json:"change_amount"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// ToSaleItemResponse converts a domain sale item to a response DTO
func ToSaleItemResponse(item *pos.SaleItem) SaleItemResponse {
	return SaleItemResponse{
		ID:              item.ID,
		ProductID:       item.ProductID,
		ProductName:     item.ProductName,
		Quantity:        item.Quantity,
		Unit:            item.Unit,
		UnitPrice:       item.UnitPrice,
		DiscountPercent: item.DiscountPercent,
		DiscountAmount:  item.DiscountAmount,
		TotalPrice:      item.TotalPrice,
	}
}

// ToSaleResponse converts a domain sale to a response DTO
func ToSaleResponse(sale *pos.Sale) SaleResponse {
	items := make([]SaleItemResponse, len(sale.Items))
	for i := range sale.Items {
		items[i] = ToSaleItemResponse(&sale.Items[i])
	}

	return SaleResponse{
		ID:             sale.ID,
		TenantID:       sale.TenantID,
		SaleNumber:     sale.SaleNumber,
		CashierID:      sale.CashierID,
		CustomerID:     sale.CustomerID,
		WarehouseID:    sale.WarehouseID,
		SaleType:       string(sale.SaleType),
		Status:         string(sale.Status),
		Currency:       string(sale.Currency),
		TaxRate:        sale.TaxRate,
		Subtotal:       sale.Subtotal,
		TaxAmount:      sale.TaxAmount,
		DiscountAmount: sale.DiscountAmount,
		TotalAmount:    sale.TotalAmount,
		AmountPaid:     sale.AmountPaid,
		ChangeAmount:   sale.ChangeAmount,
		Items:          items,
		ItemCount:      sale.ItemCount(),
		TotalQuantity:  sale.TotalQuantity(),
		ConfirmedAt:    sale.ConfirmedAt,
		CompletedAt:    sale.CompletedAt,
		CancelledAt:    sale.CancelledAt,
		RefundedAt:     sale.RefundedAt,
		CancelReason:   sale.CancelReason,
		RefundReason:   sale.RefundReason,
		CreatedAt:      sale.CreatedAt,
		UpdatedAt:      sale.UpdatedAt,
	}
}

// ToSaleListItemResponse converts a domain sale to a list item DTO
func ToSaleListItemResponse(sale *pos.Sale) SaleListItemResponse {
	return SaleListItemResponse{
		ID:           sale.ID,
		SaleNumber:   sale.SaleNumber,
		CashierID:    sale.CashierID,
		CustomerID:   sale.CustomerID,
		SaleType:     string(sale.SaleType),
		Status:       string(sale.Status),
		Currency:     string(sale.Currency),
		ItemCount:    sale.ItemCount(),
		TotalAmount:  sale.TotalAmount,
		ChangeAmount: sale.ChangeAmount,
		CompletedAt:  sale.CompletedAt,
		CreatedAt:    sale.CreatedAt,
	}
}

// ToSaleListItemResponses converts a slice of domain sales to list item DTOs
func ToSaleListItemResponses(sales []pos.Sale) []SaleListItemResponse {
	responses := make([]SaleListItemResponse, len(sales))
	for i := range sales {
		responses[i] = ToSaleListItemResponse(&sales[i])
	}
	return responses
}
