package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/openpos/backend/internal/domain/inventory"
	"github.com/openpos/backend/internal/domain/shared"
)

// GormStockLevelRepository implements inventory.StockLevelRepository using GORM
type GormStockLevelRepository struct {
	db *gorm.DB
}

// NewGormStockLevelRepository creates a new GormStockLevelRepository
func NewGormStockLevelRepository(db *gorm.DB) *GormStockLevelRepository {
	return &GormStockLevelRepository{db: db}
}

// FindByID finds a stock level by its ID
func (r *GormStockLevelRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockLevel, error) {
	var level inventory.StockLevel
	if err := r.db.WithContext(ctx).First(&level, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &level, nil
}

// FindByWarehouseAndProduct finds the stock level for a warehouse-product pair
func (r *GormStockLevelRepository) FindByWarehouseAndProduct(ctx context.Context, tenantID, warehouseID, productID uuid.UUID) (*inventory.StockLevel, error) {
	var level inventory.StockLevel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND warehouse_id = ? AND product_id = ?", tenantID, warehouseID, productID).
		First(&level).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &level, nil
}

// FindAllForTenant finds stock levels for a tenant with filtering
func (r *GormStockLevelRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]inventory.StockLevel, error) {
	var levels []inventory.StockLevel
	query := r.db.WithContext(ctx).Model(&inventory.StockLevel{}).Where("tenant_id = ?", tenantID)
	query = r.applySearch(query, filter)

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
		query = query.Order("product_name ASC")
	}

	if err := query.Find(&levels).Error; err != nil {
		return nil, err
	}
	return levels, nil
}

// CountForTenant counts stock levels for a tenant
func (r *GormStockLevelRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&inventory.StockLevel{}).Where("tenant_id = ?", tenantID)
	query = r.applySearch(query, filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindLowStock returns stock levels at or below their reorder threshold
func (r *GormStockLevelRepository) FindLowStock(ctx context.Context, tenantID uuid.UUID, filter inventory.LowStockFilter) ([]*inventory.StockLevel, error) {
	query := r.db.WithContext(ctx).
		Model(&inventory.StockLevel{}).
		Where("tenant_id = ? AND quantity_on_hand <= reorder_level", tenantID)

	if filter.WarehouseID != nil {
		query = query.Where("warehouse_id = ?", *filter.WarehouseID)
	}
	if filter.OutOfStockOnly {
		query = query.Where("quantity_on_hand <= 0")
	}

	var levels []*inventory.StockLevel
	if err := query.Find(&levels).Error; err != nil {
		return nil, err
	}

	// Urgency is computed, not stored, so the critical-only cut happens here
	if filter.CriticalOnly {
		critical := levels[:0]
		for _, level := range levels {
			if level.Urgency() == inventory.UrgencyCritical {
				critical = append(critical, level)
			}
		}
		levels = critical
	}

	return levels, nil
}

// Save creates or updates a stock level
func (r *GormStockLevelRepository) Save(ctx context.Context, s *inventory.StockLevel) error {
	return r.db.WithContext(ctx).Save(s).Error
}

// SaveWithLock saves a stock level with optimistic locking
func (r *GormStockLevelRepository) SaveWithLock(ctx context.Context, s *inventory.StockLevel) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var currentVersion int
		if err := tx.Model(&inventory.StockLevel{}).
			Where("id = ?", s.ID).
			Select("version").
			Scan(&currentVersion).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}

		if currentVersion != s.Version {
			return shared.ErrConcurrencyConflict
		}

		s.Version++
		s.UpdatedAt = time.Now()

		result := tx.Model(&inventory.StockLevel{}).
			Where("id = ? AND version = ?", s.ID, currentVersion).
			Updates(map[string]interface{}{
				"quantity_on_hand":     s.QuantityOnHand,
				"reorder_level":        s.ReorderLevel,
				"max_quantity":         s.MaxQuantity,
				"allow_negative_stock": s.AllowNegativeStock,
				"last_movement_at":     s.LastMovementAt,
				"version":              s.Version,
				"updated_at":           s.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}
		return nil
	})
}

// AdjustQuantity applies a delta as a single guarded UPDATE. The WHERE clause
// carries the negative-stock and unit guards, so concurrent adjustments never
// lose updates and cannot oversell: the database serializes the row. The
// updated row comes back through RETURNING, and the pre-adjustment quantity
// is derived from it, so the old/new pair always describes this movement and
// not whatever a later re-read would see.
func (r *GormStockLevelRepository) AdjustQuantity(ctx context.Context, tenantID, warehouseID, productID uuid.UUID, delta decimal.Decimal, unit string) (*inventory.StockLevel, decimal.Decimal, error) {
	now := time.Now()
	var updated []inventory.StockLevel
	result := r.db.WithContext(ctx).
		Model(&updated).
		Clauses(clause.Returning{}).
		Where("tenant_id = ? AND warehouse_id = ? AND product_id = ?", tenantID, warehouseID, productID).
		Where("unit = ?", unit).
		Where("quantity_on_hand + ? >= 0 OR allow_negative_stock", delta).
		Updates(map[string]interface{}{
			"quantity_on_hand": gorm.Expr("quantity_on_hand + ?", delta),
			"last_movement_at": now,
			"updated_at":       now,
			"version":          gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return nil, decimal.Zero, result.Error
	}

	if result.RowsAffected == 0 {
		// The row is missing, the unit is wrong, or the guard rejected the delta
		level, err := r.FindByWarehouseAndProduct(ctx, tenantID, warehouseID, productID)
		if err != nil {
			return nil, decimal.Zero, err
		}
		if level.Unit != unit {
			return nil, decimal.Zero, shared.NewDomainError(shared.CodeValidation,
				fmt.Sprintf("Adjustment unit %q does not match stock unit %q", unit, level.Unit))
		}
		return nil, decimal.Zero, shared.ErrInsufficientStock
	}

	level := &updated[0]
	return level, level.QuantityOnHand.Sub(delta), nil
}

func (r *GormStockLevelRepository) applySearch(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("product_name ILIKE ? OR product_sku ILIKE ?", pattern, pattern)
	}
	for key, value := range filter.Filters {
		switch key {
		case "warehouse_id":
			query = query.Where("warehouse_id = ?", value)
		case "product_id":
			query = query.Where("product_id = ?", value)
		}
	}
	return query
}

var _ inventory.StockLevelRepository = (*GormStockLevelRepository)(nil)
