package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openpos/backend/internal/domain/payment"
	"github.com/openpos/backend/internal/domain/shared"
)

// GormPaymentRepository implements payment.PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByID finds a payment by its ID
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	var p payment.Payment
	if err := r.db.WithContext(ctx).
		Preload("Splits").
		First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// FindByIDForTenant finds a payment by ID within a tenant
func (r *GormPaymentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*payment.Payment, error) {
	var p payment.Payment
	if err := r.db.WithContext(ctx).
		Preload("Splits").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// FindBySale finds all payments recorded against a sale
func (r *GormPaymentRepository) FindBySale(ctx context.Context, tenantID, saleID uuid.UUID) ([]payment.Payment, error) {
	var payments []payment.Payment
	if err := r.db.WithContext(ctx).
		Preload("Splits").
		Where("tenant_id = ? AND sale_id = ?", tenantID, saleID).
		Order("created_at ASC").
		Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

// FindByStatus finds payments by status for a tenant
func (r *GormPaymentRepository) FindByStatus(ctx context.Context, tenantID uuid.UUID, status payment.Status, filter shared.Filter) ([]payment.Payment, error) {
	var payments []payment.Payment
	query := r.db.WithContext(ctx).
		Preload("Splits").
		Where("tenant_id = ? AND status = ?", tenantID, status)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	if filter.OrderBy != "" {
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		query = query.Order(filter.OrderBy + " " + orderDir)
	} else {
		query = query.Order("created_at DESC")
	}

	if err := query.Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

// Save creates or updates a payment together with its splits
func (r *GormPaymentRepository) Save(ctx context.Context, p *payment.Payment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Splits").Save(p).Error; err != nil {
			return err
		}
		for i := range p.Splits {
			p.Splits[i].PaymentID = p.ID
			if err := tx.Save(&p.Splits[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveWithLock saves a payment with optimistic locking
func (r *GormPaymentRepository) SaveWithLock(ctx context.Context, p *payment.Payment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var currentVersion int
		if err := tx.Model(&payment.Payment{}).
			Where("id = ?", p.ID).
			Select("version").
			Scan(&currentVersion).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}

		if currentVersion != p.Version {
			return shared.ErrConcurrencyConflict
		}

		p.Version++
		p.UpdatedAt = time.Now()

		result := tx.Model(&payment.Payment{}).
			Where("id = ? AND version = ?", p.ID, currentVersion).
			Updates(map[string]interface{}{
				"status":             p.Status,
				"transaction_id":     p.TransactionID,
				"authorization_code": p.AuthorizationCode,
				"failure_reason":     p.FailureReason,
				"retry_count":        p.RetryCount,
				"refunded_amount":    p.RefundedAmount,
				"reconciled_at":      p.ReconciledAt,
				"reconciliation_ref": p.ReconciliationRef,
				"processed_at":       p.ProcessedAt,
				"completed_at":       p.CompletedAt,
				"failed_at":          p.FailedAt,
				"version":            p.Version,
				"updated_at":         p.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		for i := range p.Splits {
			p.Splits[i].PaymentID = p.ID
			if err := tx.Save(&p.Splits[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

var _ payment.PaymentRepository = (*GormPaymentRepository)(nil)
