package inventory

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Urgency classifies how badly a stock level needs replenishment
type Urgency string

const (
	UrgencyCritical Urgency = "CRITICAL"
	UrgencyHigh     Urgency = "HIGH"
	UrgencyMedium   Urgency = "MEDIUM"
	UrgencyLow      Urgency = "LOW"
)

// String returns the string representation of Urgency
func (u Urgency) String() string {
	return string(u)
}

// Rank orders urgencies by severity, most severe first. Used for
// Critical-first sorting in the low stock report.
func (u Urgency) Rank() int {
	switch u {
	case UrgencyCritical:
		return 0
	case UrgencyHigh:
		return 1
	case UrgencyMedium:
		return 2
	default:
		return 3
	}
}

// EvaluateUrgency computes the reorder urgency for a stock level. Boundary
// values resolve to the stricter tier: at exactly 20% of the reorder level
// the result is Critical, at exactly 50% High, at exactly the reorder level
// Medium.
func EvaluateUrgency(currentStock, reorderLevel decimal.Decimal) Urgency {
	if currentStock.LessThanOrEqual(decimal.Zero) {
		return UrgencyCritical
	}
	if currentStock.LessThanOrEqual(reorderLevel.Mul(decimal.NewFromFloat(0.2))) {
		return UrgencyCritical
	}
	if currentStock.LessThanOrEqual(reorderLevel.Mul(decimal.NewFromFloat(0.5))) {
		return UrgencyHigh
	}
	if currentStock.LessThanOrEqual(reorderLevel) {
		return UrgencyMedium
	}
	return UrgencyLow
}

// LowStockItem is a read model row in the low stock report. It joins product
// metadata with the current stock level; urgency and deficit are recomputed
// at read time.
type LowStockItem struct {
	ProductID    uuid.UUID       `json:"product_id"`
	ProductName  string          `json:"product_name"`
	ProductSKU   string          `json:"product_sku"`
	WarehouseID  uuid.UUID       `json:"warehouse_id"`
	Unit         string          `json:"unit,omitempty"`
	CurrentStock decimal.Decimal `json:"current_stock"`
	ReorderLevel decimal.Decimal `json:"reorder_level"`
	StockDeficit decimal.Decimal `json:"stock_deficit"`
	Urgency      Urgency         `json:"urgency"`
}

// NewLowStockItem builds a report row from a stock level
func NewLowStockItem(s *StockLevel) LowStockItem {
	deficit := s.ReorderLevel.Sub(s.QuantityOnHand)
	if deficit.IsNegative() {
		deficit = decimal.Zero
	}
	return LowStockItem{
		ProductID:    s.ProductID,
		ProductName:  s.ProductName,
		ProductSKU:   s.ProductSKU,
		WarehouseID:  s.WarehouseID,
		Unit:         s.Unit,
		CurrentStock: s.QuantityOnHand,
		ReorderLevel: s.ReorderLevel,
		StockDeficit: deficit,
		Urgency:      s.Urgency(),
	}
}

// LowStockFilter narrows the low stock report
type LowStockFilter struct {
	WarehouseID    *uuid.UUID
	OutOfStockOnly bool
	CriticalOnly   bool
}

// Matches reports whether a stock level passes the filter. The report only
// ever contains levels at or below their reorder threshold; the filter
// narrows further.
func (f LowStockFilter) Matches(s *StockLevel) bool {
	if !s.IsLowStock() {
		return false
	}
	if f.WarehouseID != nil && s.WarehouseID != *f.WarehouseID {
		return false
	}
	if f.OutOfStockOnly && !s.IsOutOfStock() {
		return false
	}
	if f.CriticalOnly && s.Urgency() != UrgencyCritical {
		return false
	}
	return true
}

// LowStockSummary aggregates counts across the full (unpaginated) report
type LowStockSummary struct {
	TotalItems    int `json:"total_items"`
	CriticalCount int `json:"critical_count"`
	HighCount     int `json:"high_count"`
	MediumCount   int `json:"medium_count"`
	LowCount      int `json:"low_count"`
	OutOfStock    int `json:"out_of_stock"`
}

// Accumulate adds one report row to the summary counts
func (s *LowStockSummary) Accumulate(item LowStockItem) {
	s.TotalItems++
	switch item.Urgency {
	case UrgencyCritical:
		s.CriticalCount++
	case UrgencyHigh:
		s.HighCount++
	case UrgencyMedium:
		s.MediumCount++
	case UrgencyLow:
		s.LowCount++
	}
	if item.CurrentStock.LessThanOrEqual(decimal.Zero) {
		s.OutOfStock++
	}
}
