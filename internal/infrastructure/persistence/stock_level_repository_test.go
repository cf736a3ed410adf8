package persistence

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/openpos/backend/internal/domain/shared"
)

// newMockStockLevelRepository creates a GormStockLevelRepository with a mocked SQL connection
func newMockStockLevelRepository(t *testing.T) (*GormStockLevelRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormStockLevelRepository(gormDB), mock, mockDB
}

func TestGormStockLevelRepository_FindByWarehouseAndProduct(t *testing.T) {
	t.Run("finds existing stock level", func(t *testing.T) {
		repo, mock, mockDB := newMockStockLevelRepository(t)
		defer mockDB.Close()

		levelID := uuid.New()
		tenantID := uuid.New()
		warehouseID := uuid.New()
		productID := uuid.New()

		rows := sqlmock.NewRows([]string{
			"id", "tenant_id", "warehouse_id", "product_id",
			"product_name", "product_sku", "quantity_on_hand",
			"reorder_level", "max_quantity", "allow_negative_stock", "version",
		}).AddRow(
			levelID, tenantID, warehouseID, productID,
			"Espresso Beans 1kg", "SKU-ESP-1KG", decimal.NewFromInt(15),
			decimal.NewFromInt(20), decimal.NewFromInt(500), false, 1,
		)

		mock.ExpectQuery(`SELECT \* FROM "stock_levels" WHERE tenant_id = \$1 AND warehouse_id = \$2 AND product_id = \$3`).
			WithArgs(tenantID, warehouseID, productID, 1).
			WillReturnRows(rows)

		level, err := repo.FindByWarehouseAndProduct(context.Background(), tenantID, warehouseID, productID)

		require.NoError(t, err)
		assert.Equal(t, levelID, level.ID)
		assert.True(t, level.QuantityOnHand.Equal(decimal.NewFromInt(15)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found for missing pair", func(t *testing.T) {
		repo, mock, mockDB := newMockStockLevelRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		warehouseID := uuid.New()
		productID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "stock_levels"`).
			WithArgs(tenantID, warehouseID, productID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		_, err := repo.FindByWarehouseAndProduct(context.Background(), tenantID, warehouseID, productID)
		assert.True(t, errors.Is(err, shared.ErrNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStockLevelRepository_AdjustQuantity(t *testing.T) {
	stockColumns := []string{
		"id", "tenant_id", "warehouse_id", "product_id",
		"product_name", "product_sku", "unit", "quantity_on_hand",
		"reorder_level", "max_quantity", "allow_negative_stock", "version",
	}

	t.Run("applies delta and returns old and new from one statement", func(t *testing.T) {
		repo, mock, mockDB := newMockStockLevelRepository(t)
		defer mockDB.Close()

		levelID := uuid.New()
		tenantID := uuid.New()
		warehouseID := uuid.New()
		productID := uuid.New()
		delta := decimal.NewFromInt(-5)

		// The updated row comes back via RETURNING; no follow-up SELECT.
		rows := sqlmock.NewRows(stockColumns).AddRow(
			levelID, tenantID, warehouseID, productID,
			"Espresso Beans 1kg", "SKU-ESP-1KG", "kg", decimal.NewFromInt(10),
			decimal.NewFromInt(20), decimal.NewFromInt(500), false, 2,
		)
		mock.ExpectQuery(`UPDATE "stock_levels" SET .*"quantity_on_hand"=quantity_on_hand \+ \$\d+.*"version"=version \+ 1.*WHERE .*unit = \$\d+.*quantity_on_hand \+ \$\d+ >= 0 OR allow_negative_stock.*RETURNING`).
			WillReturnRows(rows)

		level, previous, err := repo.AdjustQuantity(context.Background(), tenantID, warehouseID, productID, delta, "kg")

		require.NoError(t, err)
		assert.True(t, level.QuantityOnHand.Equal(decimal.NewFromInt(10)))
		assert.True(t, previous.Equal(decimal.NewFromInt(15)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("guard rejects oversell", func(t *testing.T) {
		repo, mock, mockDB := newMockStockLevelRepository(t)
		defer mockDB.Close()

		levelID := uuid.New()
		tenantID := uuid.New()
		warehouseID := uuid.New()
		productID := uuid.New()

		mock.ExpectQuery(`UPDATE "stock_levels".*RETURNING`).
			WillReturnRows(sqlmock.NewRows(stockColumns))

		// Row exists with the right unit, so the zero-row update means the guard fired
		rows := sqlmock.NewRows(stockColumns).AddRow(
			levelID, tenantID, warehouseID, productID,
			"Espresso Beans 1kg", "SKU-ESP-1KG", "kg", decimal.NewFromInt(3),
			decimal.NewFromInt(20), decimal.NewFromInt(500), false, 1,
		)
		mock.ExpectQuery(`SELECT \* FROM "stock_levels"`).
			WithArgs(tenantID, warehouseID, productID, 1).
			WillReturnRows(rows)

		_, _, err := repo.AdjustQuantity(context.Background(), tenantID, warehouseID, productID, decimal.NewFromInt(-10), "kg")
		assert.True(t, errors.Is(err, shared.ErrInsufficientStock))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unit mismatch rejected without movement", func(t *testing.T) {
		repo, mock, mockDB := newMockStockLevelRepository(t)
		defer mockDB.Close()

		levelID := uuid.New()
		tenantID := uuid.New()
		warehouseID := uuid.New()
		productID := uuid.New()

		mock.ExpectQuery(`UPDATE "stock_levels".*RETURNING`).
			WillReturnRows(sqlmock.NewRows(stockColumns))

		rows := sqlmock.NewRows(stockColumns).AddRow(
			levelID, tenantID, warehouseID, productID,
			"Espresso Beans 1kg", "SKU-ESP-1KG", "kg", decimal.NewFromInt(30),
			decimal.NewFromInt(20), decimal.NewFromInt(500), false, 1,
		)
		mock.ExpectQuery(`SELECT \* FROM "stock_levels"`).
			WithArgs(tenantID, warehouseID, productID, 1).
			WillReturnRows(rows)

		_, _, err := repo.AdjustQuantity(context.Background(), tenantID, warehouseID, productID, decimal.NewFromInt(-1), "ea")
		assert.True(t, shared.IsDomainError(err, shared.CodeValidation))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row surfaces not found", func(t *testing.T) {
		repo, mock, mockDB := newMockStockLevelRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		warehouseID := uuid.New()
		productID := uuid.New()

		mock.ExpectQuery(`UPDATE "stock_levels".*RETURNING`).
			WillReturnRows(sqlmock.NewRows(stockColumns))
		mock.ExpectQuery(`SELECT \* FROM "stock_levels"`).
			WithArgs(tenantID, warehouseID, productID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		_, _, err := repo.AdjustQuantity(context.Background(), tenantID, warehouseID, productID, decimal.NewFromInt(-1), "")
		assert.True(t, errors.Is(err, shared.ErrNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
