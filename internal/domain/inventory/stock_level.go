package inventory

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openpos/backend/internal/domain/shared"
)

// StockLevel tracks quantity on hand for a product at a specific warehouse.
// It is the aggregate root for stock operations. The composite identifier is
// WarehouseID + ProductID, unique per tenant.
type StockLevel struct {
	shared.TenantAggregateRoot
	WarehouseID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_level_warehouse_product,priority:2"`
	ProductID          uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_level_warehouse_product,priority:3"`
	ProductName        string          `gorm:"type:varchar(200);not null"`
	ProductSKU         string          `gorm:"type:varchar(100);not null;index"`
	Unit               string          `gorm:"type:varchar(20);not null;default:''"` // Unit of measure; empty means unitless
	QuantityOnHand     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ReorderLevel       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	MaxQuantity        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	AllowNegativeStock bool            `gorm:"not null;default:false"`
	LastMovementAt     *time.Time
}

// TableName returns the table name for GORM
func (StockLevel) TableName() string {
	return "stock_levels"
}

// NewStockLevel creates a stock level record for a warehouse-product pair.
// The unit of measure is fixed at registration; every later movement must
// carry the same unit.
func NewStockLevel(tenantID, warehouseID, productID uuid.UUID, productName, productSKU, unit string) (*StockLevel, error) {
	if warehouseID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Warehouse ID cannot be empty")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Product ID cannot be empty")
	}
	if productName == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Product name cannot be empty")
	}

	return &StockLevel{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		WarehouseID:         warehouseID,
		ProductID:           productID,
		ProductName:         productName,
		ProductSKU:          productSKU,
		Unit:                unit,
		QuantityOnHand:      decimal.Zero,
		ReorderLevel:        decimal.Zero,
		MaxQuantity:         decimal.Zero,
	}, nil
}

// Adjust applies a signed quantity delta carried in the stock's own unit of
// measure; mixed-unit movements are rejected. Outbound movements that would
// drive the quantity negative fail with INSUFFICIENT_STOCK unless the item
// allows negative stock.
func (s *StockLevel) Adjust(delta decimal.Decimal, unit, reason string) error {
	if delta.IsZero() {
		return shared.NewDomainError(shared.CodeValidation, "Adjustment delta cannot be zero")
	}
	if unit != s.Unit {
		return shared.NewDomainError(shared.CodeValidation,
			fmt.Sprintf("Adjustment unit %q does not match stock unit %q", unit, s.Unit))
	}
	if reason == "" {
		return shared.NewDomainError(shared.CodeValidation, "Adjustment reason is required")
	}

	oldQuantity := s.QuantityOnHand
	newQuantity := oldQuantity.Add(delta)
	if newQuantity.IsNegative() && !s.AllowNegativeStock {
		return shared.NewDomainError(shared.CodeInsufficientStock,
			fmt.Sprintf("Adjustment of %s would drive stock below zero (on hand: %s)",
				delta.StringFixed(2), oldQuantity.StringFixed(2)))
	}

	now := time.Now()
	s.QuantityOnHand = newQuantity
	s.LastMovementAt = &now
	s.UpdatedAt = now
	s.IncrementVersion()

	s.AddDomainEvent(NewStockAdjustedEvent(s, oldQuantity, newQuantity, delta, reason))

	return nil
}

// SetReorderLevel updates the reorder threshold
func (s *StockLevel) SetReorderLevel(level decimal.Decimal) error {
	if level.IsNegative() {
		return shared.NewDomainError(shared.CodeValidation, "Reorder level cannot be negative")
	}
	if !s.MaxQuantity.IsZero() && level.GreaterThan(s.MaxQuantity) {
		return shared.NewDomainError(shared.CodeValidation, "Reorder level cannot exceed max quantity")
	}

	s.ReorderLevel = level
	s.UpdatedAt = time.Now()
	s.IncrementVersion()

	return nil
}

// SetMaxQuantity updates the maximum stock threshold. Zero disables the cap.
func (s *StockLevel) SetMaxQuantity(max decimal.Decimal) error {
	if max.IsNegative() {
		return shared.NewDomainError(shared.CodeValidation, "Max quantity cannot be negative")
	}

	s.MaxQuantity = max
	s.UpdatedAt = time.Now()
	s.IncrementVersion()

	return nil
}

// SetAllowNegativeStock toggles the negative stock flag
func (s *StockLevel) SetAllowNegativeStock(allow bool) {
	s.AllowNegativeStock = allow
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
}

// Urgency returns the current reorder urgency, always recomputed from the
// live quantity and threshold, never stored.
func (s *StockLevel) Urgency() Urgency {
	return EvaluateUrgency(s.QuantityOnHand, s.ReorderLevel)
}

// IsLowStock returns true when the quantity is at or below the reorder level
func (s *StockLevel) IsLowStock() bool {
	return s.QuantityOnHand.LessThanOrEqual(s.ReorderLevel)
}

// IsOutOfStock returns true when nothing is on hand
func (s *StockLevel) IsOutOfStock() bool {
	return s.QuantityOnHand.LessThanOrEqual(decimal.Zero)
}
