package pos

import (
	"context"

	"github.com/google/uuid"

	"github.com/openpos/backend/internal/domain/shared"
)

// SaleRepository defines the interface for sale persistence
type SaleRepository interface {
	// FindByID finds a sale by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Sale, error)

	// FindByIDForTenant finds a sale by ID for a specific tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Sale, error)

	// FindBySaleNumber finds a sale by sale number for a tenant
	FindBySaleNumber(ctx context.Context, tenantID uuid.UUID, saleNumber string) (*Sale, error)

	// FindAllForTenant finds all sales for a tenant with filtering
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Sale, error)

	// FindByStatus finds sales by status for a tenant
	FindByStatus(ctx context.Context, tenantID uuid.UUID, status SaleStatus, filter shared.Filter) ([]Sale, error)

	// Save creates or updates a sale
	Save(ctx context.Context, sale *Sale) error

	// SaveWithLock saves with optimistic locking. Serializes concurrent
	// mutators of the same sale: a version mismatch surfaces
	// shared.ErrConcurrencyConflict and the caller retries or gives up.
	SaveWithLock(ctx context.Context, sale *Sale) error

	// CountForTenant counts sales for a tenant with optional filters
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// GenerateSaleNumber generates a unique sale number for a tenant
	GenerateSaleNumber(ctx context.Context, tenantID uuid.UUID) (string, error)
}
