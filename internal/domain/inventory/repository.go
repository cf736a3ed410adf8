package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openpos/backend/internal/domain/shared"
)

// StockLevelRepository defines persistence operations for stock levels
type StockLevelRepository interface {
	// FindByID finds a stock level by its id
	FindByID(ctx context.Context, id uuid.UUID) (*StockLevel, error)

	// FindByWarehouseAndProduct finds the stock level for a warehouse-product pair
	FindByWarehouseAndProduct(ctx context.Context, tenantID, warehouseID, productID uuid.UUID) (*StockLevel, error)

	// FindAllForTenant returns stock levels for a tenant with pagination
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]StockLevel, error)

	// CountForTenant counts stock levels for a tenant
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// FindLowStock returns all stock levels at or below their reorder
	// threshold that pass the filter, unpaginated, for report assembly
	FindLowStock(ctx context.Context, tenantID uuid.UUID, filter LowStockFilter) ([]*StockLevel, error)

	// Save persists a stock level
	Save(ctx context.Context, s *StockLevel) error

	// SaveWithLock persists a stock level using optimistic locking. It
	// returns shared.ErrConcurrencyConflict when the stored version does
	// not match.
	SaveWithLock(ctx context.Context, s *StockLevel) error

	// AdjustQuantity applies a delta as a single guarded UPDATE statement
	// and returns the updated row together with the quantity the update
	// replaced. Both come out of the same statement, so the old/new pair
	// stays consistent under concurrent adjustments. The guard rejects
	// adjustments that would drive the quantity negative unless the row
	// allows negative stock (shared.ErrInsufficientStock) and adjustments
	// whose unit does not match the stored unit of measure
	// (VALIDATION_ERROR). There is no application-level read-modify-write
	// on this path.
	AdjustQuantity(ctx context.Context, tenantID, warehouseID, productID uuid.UUID, delta decimal.Decimal, unit string) (*StockLevel, decimal.Decimal, error)
}
