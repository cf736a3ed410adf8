package inventory

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openpos/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeStockLevel = "StockLevel"

// Event type constants
const (
	EventTypeStockAdjusted = "StockAdjusted"
)

// StockAdjustedEvent is raised for every stock movement, carrying old and
// new quantities for audit.
type StockAdjustedEvent struct {
	shared.BaseDomainEvent
	StockLevelID uuid.UUID       `json:"stock_level_id"`
	ProductID    uuid.UUID       `json:"product_id"`
	WarehouseID  uuid.UUID       `json:"warehouse_id"`
	OldQuantity  decimal.Decimal `json:"old_quantity"`
	NewQuantity  decimal.Decimal `json:"new_quantity"`
	Delta        decimal.Decimal `json:"delta"`
	Reason       string          `json:"reason"`
}

// NewStockAdjustedEvent creates a new StockAdjustedEvent
func NewStockAdjustedEvent(s *StockLevel, oldQty, newQty, delta decimal.Decimal, reason string) *StockAdjustedEvent {
	return &StockAdjustedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockAdjusted, AggregateTypeStockLevel, s.ID, s.TenantID),
		StockLevelID:    s.ID,
		ProductID:       s.ProductID,
		WarehouseID:     s.WarehouseID,
		OldQuantity:     oldQty,
		NewQuantity:     newQty,
		Delta:           delta,
		Reason:          reason,
	}
}
