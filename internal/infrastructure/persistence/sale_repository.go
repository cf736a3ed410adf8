package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openpos/backend/internal/domain/pos"
	"github.com/openpos/backend/internal/domain/shared"
)

// GormSaleRepository implements pos.SaleRepository using GORM
type GormSaleRepository struct {
	db           *gorm.DB
	numberPrefix string
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db, numberPrefix: "POS"}
}

// SetNumberPrefix overrides the prefix of generated sale numbers
func (r *GormSaleRepository) SetNumberPrefix(prefix string) {
	if prefix != "" {
		r.numberPrefix = prefix
	}
}

// FindByID finds a sale by its ID
func (r *GormSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*pos.Sale, error) {
	var sale pos.Sale
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&sale, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &sale, nil
}

// FindByIDForTenant finds a sale by ID within a tenant
func (r *GormSaleRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*pos.Sale, error) {
	var sale pos.Sale
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&sale).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &sale, nil
}

// FindBySaleNumber finds a sale by sale number for a tenant
func (r *GormSaleRepository) FindBySaleNumber(ctx context.Context, tenantID uuid.UUID, saleNumber string) (*pos.Sale, error) {
	var sale pos.Sale
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("tenant_id = ? AND sale_number = ?", tenantID, saleNumber).
		First(&sale).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &sale, nil
}

// FindAllForTenant finds all sales for a tenant with filtering
func (r *GormSaleRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]pos.Sale, error) {
	var sales []pos.Sale
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&pos.Sale{}).Preload("Items").Where("tenant_id = ?", tenantID),
		filter,
	)
	if err := query.Find(&sales).Error; err != nil {
		return nil, err
	}
	return sales, nil
}

// FindByStatus finds sales by status for a tenant
func (r *GormSaleRepository) FindByStatus(ctx context.Context, tenantID uuid.UUID, status pos.SaleStatus, filter shared.Filter) ([]pos.Sale, error) {
	var sales []pos.Sale
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&pos.Sale{}).Preload("Items").
			Where("tenant_id = ? AND status = ?", tenantID, status),
		filter,
	)
	if err := query.Find(&sales).Error; err != nil {
		return nil, err
	}
	return sales, nil
}

// Save creates or updates a sale together with its line items
func (r *GormSaleRepository) Save(ctx context.Context, sale *pos.Sale) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Save(sale).Error; err != nil {
			return err
		}
		return r.syncItems(tx, sale)
	})
}

// SaveWithLock saves a sale with optimistic locking. The stored version must
// match the loaded one; otherwise shared.ErrConcurrencyConflict is returned
// and no write happens.
func (r *GormSaleRepository) SaveWithLock(ctx context.Context, sale *pos.Sale) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var currentVersion int
		if err := tx.Model(&pos.Sale{}).
			Where("id = ?", sale.ID).
			Select("version").
			Scan(&currentVersion).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}

		if currentVersion != sale.Version {
			return shared.ErrConcurrencyConflict
		}

		sale.Version++
		sale.UpdatedAt = time.Now()

		result := tx.Model(&pos.Sale{}).
			Where("id = ? AND version = ?", sale.ID, currentVersion).
			Updates(map[string]interface{}{
				"customer_id":     sale.CustomerID,
				"cashier_id":      sale.CashierID,
				"warehouse_id":    sale.WarehouseID,
				"status":          sale.Status,
				"tax_rate":        sale.TaxRate,
				"subtotal":        sale.Subtotal,
				"tax_amount":      sale.TaxAmount,
				"discount_amount": sale.DiscountAmount,
				"total_amount":    sale.TotalAmount,
				"amount_paid":     sale.AmountPaid,
				"change_amount":   sale.ChangeAmount,
				"confirmed_at":    sale.ConfirmedAt,
				"processing_at":   sale.ProcessingAt,
				"completed_at":    sale.CompletedAt,
				"cancelled_at":    sale.CancelledAt,
				"refunded_at":     sale.RefundedAt,
				"cancel_reason":   sale.CancelReason,
				"refund_reason":   sale.RefundReason,
				"version":         sale.Version,
				"updated_at":      sale.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		return r.syncItems(tx, sale)
	})
}

// syncItems reconciles the persisted line items with the aggregate's items:
// removed lines are deleted, remaining ones upserted.
func (r *GormSaleRepository) syncItems(tx *gorm.DB, sale *pos.Sale) error {
	currentItemIDs := make([]uuid.UUID, len(sale.Items))
	for i, item := range sale.Items {
		currentItemIDs[i] = item.ID
	}

	if len(currentItemIDs) > 0 {
		if err := tx.Where("sale_id = ? AND id NOT IN ?", sale.ID, currentItemIDs).
			Delete(&pos.SaleItem{}).Error; err != nil {
			return err
		}
	} else {
		if err := tx.Where("sale_id = ?", sale.ID).
			Delete(&pos.SaleItem{}).Error; err != nil {
			return err
		}
	}

	for i := range sale.Items {
		sale.Items[i].SaleID = sale.ID
		if err := tx.Save(&sale.Items[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// CountForTenant counts sales for a tenant with optional filters
func (r *GormSaleRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&pos.Sale{}).Where("tenant_id = ?", tenantID),
		filter,
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// GenerateSaleNumber generates a unique sale number for a tenant.
// Format: <prefix>-YYYY-NNNNN (e.g., POS-2026-00001)
func (r *GormSaleRepository) GenerateSaleNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	year := time.Now().Year()
	prefix := fmt.Sprintf("%s-%d-", r.numberPrefix, year)

	var lastSale pos.Sale
	err := r.db.WithContext(ctx).
		Model(&pos.Sale{}).
		Where("tenant_id = ? AND sale_number LIKE ?", tenantID, prefix+"%").
		Order("sale_number DESC").
		First(&lastSale).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	var nextNum int64 = 1
	if err == nil && lastSale.SaleNumber != "" {
		parts := strings.Split(lastSale.SaleNumber, "-")
		if len(parts) == 3 {
			var num int64
			if _, parseErr := fmt.Sscanf(parts[2], "%d", &num); parseErr == nil {
				nextNum = num + 1
			}
		}
	}

	saleNumber := fmt.Sprintf("%s%05d", prefix, nextNum)

	// Probe for collisions caused by concurrent generation
	for i := 0; i < 100; i++ {
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&pos.Sale{}).
			Where("tenant_id = ? AND sale_number = ?", tenantID, saleNumber).
			Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return saleNumber, nil
		}
		nextNum++
		saleNumber = fmt.Sprintf("%s%05d", prefix, nextNum)
	}

	return saleNumber, nil
}

func (r *GormSaleRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

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

	return query
}

func (r *GormSaleRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("sale_number ILIKE ?", "%"+filter.Search+"%")
	}

	for key, value := range filter.Filters {
		switch key {
		case "customer_id":
			query = query.Where("customer_id = ?", value)
		case "cashier_id":
			query = query.Where("cashier_id = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		case "sale_type":
			query = query.Where("sale_type = ?", value)
		case "start_date":
			if t, ok := value.(time.Time); ok {
				query = query.Where("created_at >= ?", t)
			}
		case "end_date":
			if t, ok := value.(time.Time); ok {
				query = query.Where("created_at <= ?", t)
			}
		}
	}

	return query
}

var _ pos.SaleRepository = (*GormSaleRepository)(nil)
