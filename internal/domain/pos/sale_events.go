package pos

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openpos/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeSale = "Sale"

// Event type constants
const (
	EventTypeSaleCreated         = "SaleCreated"
	EventTypeSaleItemAdded       = "SaleItemAdded"
	EventTypeSaleItemUpdated     = "SaleItemUpdated"
	EventTypeSaleItemRemoved     = "SaleItemRemoved"
	EventTypeSaleDiscountApplied = "SaleDiscountApplied"
	EventTypeSaleConfirmed       = "SaleConfirmed"
	EventTypeSaleProcessing      = "SaleProcessing"
	EventTypeSaleCompleted       = "SaleCompleted"
	EventTypeSaleCancelled       = "SaleCancelled"
	EventTypeSaleRefunded        = "SaleRefunded"
)

// SaleCreatedEvent is raised when a new sale is created
type SaleCreatedEvent struct {
	shared.BaseDomainEvent
	SaleID     uuid.UUID  `json:"sale_id"`
	SaleNumber string     `json:"sale_number"`
	CashierID  uuid.UUID  `json:"cashier_id"`
	CustomerID *uuid.UUID `json:"customer_id,omitempty"`
	SaleType   string     `json:"sale_type"`
}

// NewSaleCreatedEvent creates a new SaleCreatedEvent
func NewSaleCreatedEvent(sale *Sale) *SaleCreatedEvent {
	return &SaleCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCreated, AggregateTypeSale, sale.ID, sale.TenantID),
		SaleID:          sale.ID,
		SaleNumber:      sale.SaleNumber,
		CashierID:       sale.CashierID,
		CustomerID:      sale.CustomerID,
		SaleType:        string(sale.SaleType),
	}
}

// SaleItemAddedEvent is raised when a line item is added (or merged into an
// existing line). AddedQuantity is the delta, Quantity the resulting line total.
type SaleItemAddedEvent struct {
	shared.BaseDomainEvent
	SaleID        uuid.UUID       `json:"sale_id"`
	ItemID        uuid.UUID       `json:"item_id"`
	ProductID     uuid.UUID       `json:"product_id"`
	ProductName   string          `json:"product_name"`
	AddedQuantity decimal.Decimal `json:"added_quantity"`
	Quantity      decimal.Decimal `json:"quantity"`
	Unit          string          `json:"unit,omitempty"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	Subtotal      decimal.Decimal `json:"subtotal"`
}

// NewSaleItemAddedEvent creates a new SaleItemAddedEvent
func NewSaleItemAddedEvent(sale *Sale, item *SaleItem, addedQuantity decimal.Decimal) *SaleItemAddedEvent {
	return &SaleItemAddedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleItemAdded, AggregateTypeSale, sale.ID, sale.TenantID),
		SaleID:          sale.ID,
		ItemID:          item.ID,
		ProductID:       item.ProductID,
		ProductName:     item.ProductName,
		AddedQuantity:   addedQuantity,
		Quantity:        item.Quantity,
		Unit:            item.Unit,
		UnitPrice:       item.UnitPrice,
		TotalPrice:      item.TotalPrice,
		Subtotal:        sale.Subtotal,
	}
}

// SaleItemUpdatedEvent is raised when a line item's quantity changes
type SaleItemUpdatedEvent struct {
	shared.BaseDomainEvent
	SaleID      uuid.UUID       `json:"sale_id"`
	ItemID      uuid.UUID       `json:"item_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	OldQuantity decimal.Decimal `json:"old_quantity"`
	NewQuantity decimal.Decimal `json:"new_quantity"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// NewSaleItemUpdatedEvent creates a new SaleItemUpdatedEvent
func NewSaleItemUpdatedEvent(sale *Sale, item *SaleItem, oldQuantity decimal.Decimal) *SaleItemUpdatedEvent {
	return &SaleItemUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleItemUpdated, AggregateTypeSale, sale.ID, sale.TenantID),
		SaleID:          sale.ID,
		ItemID:          item.ID,
		ProductID:       item.ProductID,
		OldQuantity:     oldQuantity,
		NewQuantity:     item.Quantity,
		Subtotal:        sale.Subtotal,
	}
}

// SaleItemRemovedEvent is raised when a line item is removed
type SaleItemRemovedEvent struct {
	shared.BaseDomainEvent
	SaleID    uuid.UUID       `json:"sale_id"`
	ItemID    uuid.UUID       `json:"item_id"`
	ProductID uuid.UUID       `json:"product_id"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// NewSaleItemRemovedEvent creates a new SaleItemRemovedEvent
func NewSaleItemRemovedEvent(sale *Sale, itemID, productID uuid.UUID) *SaleItemRemovedEvent {
	return &SaleItemRemovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleItemRemoved, AggregateTypeSale, sale.ID, sale.TenantID),
		SaleID:          sale.ID,
		ItemID:          itemID,
		ProductID:       productID,
		Subtotal:        sale.Subtotal,
	}
}

// SaleDiscountAppliedEvent is raised when a sale-level discount is applied
type SaleDiscountAppliedEvent struct {
	shared.BaseDomainEvent
	SaleID         uuid.UUID       `json:"sale_id"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
}

// NewSaleDiscountAppliedEvent creates a new SaleDiscountAppliedEvent
func NewSaleDiscountAppliedEvent(sale *Sale) *SaleDiscountAppliedEvent {
	return &SaleDiscountAppliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleDiscountApplied, AggregateTypeSale, sale.ID, sale.TenantID),
		SaleID:          sale.ID,
		DiscountAmount:  sale.DiscountAmount,
		TotalAmount:     sale.TotalAmount,
	}
}

// SaleConfirmedEvent is raised when a sale is confirmed
type SaleConfirmedEvent struct {
	shared.BaseDomainEvent
	SaleID      uuid.UUID       `json:"sale_id"`
	SaleNumber  string          `json:"sale_number"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// NewSaleConfirmedEvent creates a new SaleConfirmedEvent
func NewSaleConfirmedEvent(sale *Sale) *SaleConfirmedEvent {
	return &SaleConfirmedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleConfirmed, AggregateTypeSale, sale.ID, sale.TenantID),
		SaleID:          sale.ID,
		SaleNumber:      sale.SaleNumber,
		TotalAmount:     sale.TotalAmount,
	}
}

// SaleProcessingEvent is raised when a sale enters PROCESSING
type SaleProcessingEvent struct {
	shared.BaseDomainEvent
	SaleID     uuid.UUID `json:"sale_id"`
	SaleNumber string    `json:"sale_number"`
}

// NewSaleProcessingEvent creates a new SaleProcessingEvent
func NewSaleProcessingEvent(sale *Sale) *SaleProcessingEvent {
	return &SaleProcessingEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleProcessing, AggregateTypeSale, sale.ID, sale.TenantID),
		SaleID:          sale.ID,
		SaleNumber:      sale.SaleNumber,
	}
}

// SaleLineInfo carries the per-line data stock subscribers need
type SaleLineInfo struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	Unit      string          `json:"unit,omitempty"`
}

// SaleCompletedEvent is raised when a sale completes successfully.
// Stock decrement and accounting posting subscribe to this event.
type SaleCompletedEvent struct {
	shared.BaseDomainEvent
	SaleID        uuid.UUID       `json:"sale_id"`
	SaleNumber    string          `json:"sale_number"`
	WarehouseID   *uuid.UUID      `json:"warehouse_id,omitempty"`
	PaymentID     uuid.UUID       `json:"payment_id"`
	PaymentMethod string          `json:"payment_method"`
	Lines         []SaleLineInfo  `json:"lines"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	ChangeAmount  decimal.Decimal `json:"change_amount"`
}

// NewSaleCompletedEvent creates a new SaleCompletedEvent
func NewSaleCompletedEvent(sale *Sale, paymentID uuid.UUID, paymentMethod string) *SaleCompletedEvent {
	lines := make([]SaleLineInfo, len(sale.Items))
	for i, item := range sale.Items {
		lines[i] = SaleLineInfo{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Unit:      item.Unit,
		}
	}

	return &SaleCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCompleted, AggregateTypeSale, sale.ID, sale.TenantID),
		SaleID:          sale.ID,
		SaleNumber:      sale.SaleNumber,
		WarehouseID:     sale.WarehouseID,
		PaymentID:       paymentID,
		PaymentMethod:   paymentMethod,
		Lines:           lines,
		TotalAmount:     sale.TotalAmount,
		AmountPaid:      sale.AmountPaid,
		ChangeAmount:    sale.ChangeAmount,
	}
}

// SaleCancelledEvent is raised when a sale is cancelled
type SaleCancelledEvent struct {
	shared.BaseDomainEvent
	SaleID       uuid.UUID `json:"sale_id"`
	SaleNumber   string    `json:"sale_number"`
	CancelReason string    `json:"cancel_reason"`
}

// NewSaleCancelledEvent creates a new SaleCancelledEvent
func NewSaleCancelledEvent(sale *Sale) *SaleCancelledEvent {
	return &SaleCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCancelled, AggregateTypeSale, sale.ID, sale.TenantID),
		SaleID:          sale.ID,
		SaleNumber:      sale.SaleNumber,
		CancelReason:    sale.CancelReason,
	}
}

// SaleRefundedEvent is raised when a completed sale is refunded.
// Stock restoration subscribes to this event.
type SaleRefundedEvent struct {
	shared.BaseDomainEvent
	SaleID       uuid.UUID       `json:"sale_id"`
	SaleNumber   string          `json:"sale_number"`
	WarehouseID  *uuid.UUID      `json:"warehouse_id,omitempty"`
	RefundReason string          `json:"refund_reason"`
	Lines        []SaleLineInfo  `json:"lines"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
}

// NewSaleRefundedEvent creates a new SaleRefundedEvent
func NewSaleRefundedEvent(sale *Sale) *SaleRefundedEvent {
	lines := make([]SaleLineInfo, len(sale.Items))
	for i, item := range sale.Items {
		lines[i] = SaleLineInfo{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Unit:      item.Unit,
		}
	}

	return &SaleRefundedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleRefunded, AggregateTypeSale, sale.ID, sale.TenantID),
		SaleID:          sale.ID,
		SaleNumber:      sale.SaleNumber,
		WarehouseID:     sale.WarehouseID,
		RefundReason:    sale.RefundReason,
		Lines:           lines,
		TotalAmount:     sale.TotalAmount,
	}
}
