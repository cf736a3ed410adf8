package payment

import (
	"context"

	"github.com/google/uuid"

	"github.com/openpos/backend/internal/domain/shared"
)

// PaymentRepository defines persistence operations for payments
type PaymentRepository interface {
	// FindByID finds a payment by its id
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)

	// FindByIDForTenant finds a payment scoped to a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Payment, error)

	// FindBySale returns all payments recorded against a sale
	FindBySale(ctx context.Context, tenantID, saleID uuid.UUID) ([]Payment, error)

	// FindByStatus returns payments in the given status with pagination
	FindByStatus(ctx context.Context, tenantID uuid.UUID, status Status, filter shared.Filter) ([]Payment, error)

	// Save persists a payment
	Save(ctx context.Context, p *Payment) error

	// SaveWithLock persists a payment using optimistic locking. It returns
	// shared.ErrConcurrencyConflict when the stored version does not match.
	SaveWithLock(ctx context.Context, p *Payment) error
}
