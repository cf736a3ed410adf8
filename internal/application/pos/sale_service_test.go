package pos

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/openpos/backend/internal/domain/payment"
	"github.com/openpos/backend/internal/domain/pos"
	"github.com/openpos/backend/internal/domain/shared"
	"github.com/openpos/backend/internal/domain/shared/valueobject"
)

// MockSaleRepository is a mock implementation of SaleRepository
type MockSaleRepository struct {
	mock.Mock
}

func (m *MockSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*pos.Sale, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pos.Sale), args.Error(1)
}

func (m *MockSaleRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*pos.Sale, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pos.Sale), args.Error(1)
}

func (m *MockSaleRepository) FindBySaleNumber(ctx context.Context, tenantID uuid.UUID, saleNumber string) (*pos.Sale, error) {
	args := m.Called(ctx, tenantID, saleNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pos.Sale), args.Error(1)
}

func (m *MockSaleRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]pos.Sale, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]pos.Sale), args.Error(1)
}

func (m *MockSaleRepository) FindByStatus(ctx context.Context, tenantID uuid.UUID, status pos.SaleStatus, filter shared.Filter) ([]pos.Sale, error) {
	args := m.Called(ctx, tenantID, status, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]pos.Sale), args.Error(1)
}

func (m *MockSaleRepository) Save(ctx context.Context, sale *pos.Sale) error {
	args := m.Called(ctx, sale)
	return args.Error(0)
}

func (m *MockSaleRepository) SaveWithLock(ctx context.Context, sale *pos.Sale) error {
	args := m.Called(ctx, sale)
	return args.Error(0)
}

func (m *MockSaleRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSaleRepository) GenerateSaleNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	args := m.Called(ctx, tenantID)
	return args.String(0), args.Error(1)
}

// MockPaymentRepository is a mock implementation of PaymentRepository
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*payment.Payment, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindBySale(ctx context.Context, tenantID, saleID uuid.UUID) ([]payment.Payment, error) {
	args := m.Called(ctx, tenantID, saleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]payment.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByStatus(ctx context.Context, tenantID uuid.UUID, status payment.Status, filter shared.Filter) ([]payment.Payment, error) {
	args := m.Called(ctx, tenantID, status, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]payment.Payment), args.Error(1)
}

func (m *MockPaymentRepository) Save(ctx context.Context, p *payment.Payment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPaymentRepository) SaveWithLock(ctx context.Context, p *payment.Payment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

// Test helpers
var (
	testTenantID   = uuid.New()
	testCashierID  = uuid.New()
	testProductID  = uuid.New()
	testSaleID     = uuid.New()
	testSaleNumber = "POS-2026-00001"
)

func newTestService() (*SaleService, *MockSaleRepository, *MockPaymentRepository) {
	saleRepo := new(MockSaleRepository)
	paymentRepo := new(MockPaymentRepository)
	return NewSaleService(saleRepo, paymentRepo), saleRepo, paymentRepo
}

func createTestSale() *pos.Sale {
	sale, _ := pos.NewSale(testTenantID, testSaleNumber, testCashierID, nil,
		pos.SaleTypeRetail, valueobject.USD, decimal.NewFromFloat(0.10))
	return sale
}

func createTestSaleWithItem() *pos.Sale {
	sale := createTestSale()
	sale.AddItem(testProductID, "Espresso Beans 1kg", valueobject.MustNewQuantity(decimal.NewFromInt(2), ""),
		valueobject.NewMoneyUSD(decimal.NewFromInt(50)), decimal.Zero, decimal.Zero)
	return sale
}

func TestSaleService_Create(t *testing.T) {
	t.Run("create sale successfully", func(t *testing.T) {
		service, saleRepo, _ := newTestService()
		ctx := context.Background()

		saleRepo.On("GenerateSaleNumber", ctx, testTenantID).Return(testSaleNumber, nil)
		saleRepo.On("Save", ctx, mock.AnythingOfType("*pos.Sale")).Return(nil)

		taxRate := decimal.NewFromFloat(0.10)
		req := CreateSaleRequest{
			CashierID: testCashierID,
			TaxRate:   &taxRate,
			Items: []CreateSaleItemInput{
				{
					ProductID:   testProductID,
					ProductName: "Espresso Beans 1kg",
					Quantity:    decimal.NewFromInt(2),
					UnitPrice:   decimal.NewFromInt(50),
				},
			},
		}

		result, err := service.Create(ctx, testTenantID, req)

		assert.NoError(t, err)
		assert.NotNil(t, result)
		assert.Equal(t, testSaleNumber, result.SaleNumber)
		assert.Equal(t, "DRAFT", result.Status)
		assert.Equal(t, 1, result.ItemCount)
		assert.True(t, decimal.NewFromInt(100).Equal(result.Subtotal))
		assert.True(t, decimal.NewFromInt(110).Equal(result.TotalAmount))
		saleRepo.AssertExpectations(t)
	})

	t.Run("create sale with discount", func(t *testing.T) {
		service, saleRepo, _ := newTestService()
		ctx := context.Background()

		saleRepo.On("GenerateSaleNumber", ctx, testTenantID).Return(testSaleNumber, nil)
		saleRepo.On("Save", ctx, mock.AnythingOfType("*pos.Sale")).Return(nil)

		discount := decimal.NewFromInt(20)
		req := CreateSaleRequest{
			CashierID: testCashierID,
			Discount:  &discount,
			Items: []CreateSaleItemInput{
				{
					ProductID:   testProductID,
					ProductName: "Espresso Beans 1kg",
					Quantity:    decimal.NewFromInt(2),
					UnitPrice:   decimal.NewFromInt(50),
				},
			},
		}

		result, err := service.Create(ctx, testTenantID, req)

		assert.NoError(t, err)
		assert.True(t, discount.Equal(result.DiscountAmount))
		assert.True(t, decimal.NewFromInt(80).Equal(result.TotalAmount))
		saleRepo.AssertExpectations(t)
	})

	t.Run("defaults applied for sale type and currency", func(t *testing.T) {
		service, saleRepo, _ := newTestService()
		ctx := context.Background()

		saleRepo.On("GenerateSaleNumber", ctx, testTenantID).Return(testSaleNumber, nil)
		saleRepo.On("Save", ctx, mock.AnythingOfType("*pos.Sale")).Return(nil)

		result, err := service.Create(ctx, testTenantID, CreateSaleRequest{CashierID: testCashierID})

		assert.NoError(t, err)
		assert.Equal(t, "RETAIL", result.SaleType)
		assert.Equal(t, "USD", result.Currency)
		saleRepo.AssertExpectations(t)
	})

	t.Run("invalid item rejected without save", func(t *testing.T) {
		service, saleRepo, _ := newTestService()
		ctx := context.Background()

		saleRepo.On("GenerateSaleNumber", ctx, testTenantID).Return(testSaleNumber, nil)

		req := CreateSaleRequest{
			CashierID: testCashierID,
			Items: []CreateSaleItemInput{
				{
					ProductID:   testProductID,
					ProductName: "Espresso Beans 1kg",
					Quantity:    decimal.NewFromInt(-1),
					UnitPrice:   decimal.NewFromInt(50),
				},
			},
		}

		result, err := service.Create(ctx, testTenantID, req)

		assert.Error(t, err)
		assert.Nil(t, result)
		assert.True(t, shared.IsDomainError(err, shared.CodeValidation))
		saleRepo.AssertNotCalled(t, "Save")
	})
}

func TestSaleService_GetByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		service, saleRepo, _ := newTestService()
		ctx := context.Background()
		sale := createTestSaleWithItem()

		saleRepo.On("FindByIDForTenant", ctx, testTenantID, testSaleID).Return(sale, nil)

		result, err := service.GetByID(ctx, testTenantID, testSaleID)

		assert.NoError(t, err)
		assert.Equal(t, sale.SaleNumber, result.SaleNumber)
		assert.Len(t, result.Items, 1)
	})

	t.Run("not found", func(t *testing.T) {
		service, saleRepo, _ := newTestService()
		ctx := context.Background()

		saleRepo.On("FindByIDForTenant", ctx, testTenantID, testSaleID).Return(nil, shared.ErrNotFound)

		result, err := service.GetByID(ctx, testTenantID, testSaleID)

		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.Nil(t, result)
	})
}

func TestSaleService_AddItem(t *testing.T) {
	t.Run("adds item to draft sale", func(t *testing.T) {
		service, saleRepo, _ := newTestService()
		ctx := context.Background()
		sale := createTestSale()

		saleRepo.On("FindByIDForTenant", ctx, testTenantID, testSaleID).Return(sale, nil)
		saleRepo.On("SaveWithLock", ctx, sale).Return(nil)

		req := AddSaleItemRequest{
			ProductID:   testProductID,
			ProductName: "Espresso Beans 1kg",
			Quantity:    decimal.NewFromInt(3),
			UnitPrice:   decimal.NewFromInt(50),
		}

		result, err := service.AddItem(ctx, testTenantID, testSaleID, req)

		assert.NoError(t, err)
		assert.Equal(t, 1, result.ItemCount)
		assert.True(t, decimal.NewFromInt(150).Equal(result.Subtotal))
		saleRepo.AssertExpectations(t)
	})

	t.Run("rejects item on confirmed sale", func(t *testing.T) {
		service, saleRepo, _ := newTestService()
		ctx := context.Background()
		sale := createTestSaleWithItem()
		sale.Confirm()

		saleRepo.On("FindByIDForTenant", ctx, testTenantID, testSaleID).Return(sale, nil)

		req := AddSaleItemRequest{
			ProductID:   uuid.New(),
			ProductName: "Filter Paper",
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   decimal.NewFromInt(5),
		}

		result, err := service.AddItem(ctx, testTenantID, testSaleID, req)

		assert.Error(t, err)
		assert.Nil(t, result)
		assert.True(t, shared.IsDomainError(err, shared.CodeInvalidState))
		saleRepo.AssertNotCalled(t, "SaveWithLock")
	})
}

func TestSaleService_Complete(t *testing.T) {
	t.Run("completes sale and persists payment", func(t *testing.T) {
		service, saleRepo, paymentRepo := newTestService()
		ctx := context.Background()
		sale := createTestSaleWithItem()

		saleRepo.On("FindByIDForTenant", ctx, testTenantID, testSaleID).Return(sale, nil)
		saleRepo.On("SaveWithLock", ctx, sale).Return(nil)
		paymentRepo.On("Save", ctx, mock.AnythingOfType("*payment.Payment")).Return(nil)

		req := CompleteSaleRequest{
			Method:     "CASH",
			AmountPaid: decimal.NewFromInt(120),
		}

		result, err := service.Complete(ctx, testTenantID, testSaleID, req)

		assert.NoError(t, err)
		assert.Equal(t, "COMPLETED", result.Status)
		assert.True(t, decimal.NewFromInt(110).Equal(result.TotalAmount))
		assert.True(t, decimal.NewFromInt(10).Equal(result.ChangeAmount))
		saleRepo.AssertExpectations(t)
		paymentRepo.AssertExpectations(t)
	})

	t.Run("insufficient payment leaves state untouched", func(t *testing.T) {
		service, saleRepo, paymentRepo := newTestService()
		ctx := context.Background()
		sale := createTestSaleWithItem()

		saleRepo.On("FindByIDForTenant", ctx, testTenantID, testSaleID).Return(sale, nil)

		req := CompleteSaleRequest{
			Method:     "CASH",
			AmountPaid: decimal.NewFromInt(100), // total is 110
		}

		result, err := service.Complete(ctx, testTenantID, testSaleID, req)

		assert.Error(t, err)
		assert.Nil(t, result)
		assert.True(t, shared.IsDomainError(err, shared.CodeInsufficientPayment))
		assert.Equal(t, pos.SaleStatusDraft, sale.Status)
		saleRepo.AssertNotCalled(t, "SaveWithLock")
		paymentRepo.AssertNotCalled(t, "Save")
	})

	t.Run("concurrency conflict surfaces to caller", func(t *testing.T) {
		service, saleRepo, paymentRepo := newTestService()
		ctx := context.Background()
		sale := createTestSaleWithItem()

		saleRepo.On("FindByIDForTenant", ctx, testTenantID, testSaleID).Return(sale, nil)
		saleRepo.On("SaveWithLock", ctx, sale).Return(shared.ErrConcurrencyConflict)

		req := CompleteSaleRequest{
			Method:     "CASH",
			AmountPaid: decimal.NewFromInt(110),
		}

		result, err := service.Complete(ctx, testTenantID, testSaleID, req)

		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.Nil(t, result)
		paymentRepo.AssertNotCalled(t, "Save")
	})
}

func TestSaleService_Cancel(t *testing.T) {
	t.Run("cancels draft sale", func(t *testing.T) {
		service, saleRepo, _ := newTestService()
		ctx := context.Background()
		sale := createTestSaleWithItem()

		saleRepo.On("FindByIDForTenant", ctx, testTenantID, testSaleID).Return(sale, nil)
		saleRepo.On("SaveWithLock", ctx, sale).Return(nil)

		result, err := service.Cancel(ctx, testTenantID, testSaleID, CancelSaleRequest{Reason: "customer walked away"})

		assert.NoError(t, err)
		assert.Equal(t, "CANCELLED", result.Status)
		assert.Equal(t, "customer walked away", result.CancelReason)
		saleRepo.AssertExpectations(t)
	})

	t.Run("cannot cancel completed sale", func(t *testing.T) {
		service, saleRepo, _ := newTestService()
		ctx := context.Background()
		sale := createTestSaleWithItem()
		sale.Complete(payment.MethodCash, valueobject.NewMoneyUSD(decimal.NewFromInt(110)), "", 0)

		saleRepo.On("FindByIDForTenant", ctx, testTenantID, testSaleID).Return(sale, nil)

		result, err := service.Cancel(ctx, testTenantID, testSaleID, CancelSaleRequest{Reason: "too late"})

		assert.Error(t, err)
		assert.Nil(t, result)
		assert.True(t, shared.IsDomainError(err, shared.CodeInvalidState))
	})
}

func TestSaleService_Refund(t *testing.T) {
	t.Run("refunds completed sale", func(t *testing.T) {
		service, saleRepo, _ := newTestService()
		ctx := context.Background()
		sale := createTestSaleWithItem()
		sale.Complete(payment.MethodCash, valueobject.NewMoneyUSD(decimal.NewFromInt(110)), "", 0)

		saleRepo.On("FindByIDForTenant", ctx, testTenantID, testSaleID).Return(sale, nil)
		saleRepo.On("SaveWithLock", ctx, sale).Return(nil)

		result, err := service.Refund(ctx, testTenantID, testSaleID, RefundSaleRequest{Reason: "defective goods"})

		assert.NoError(t, err)
		assert.Equal(t, "REFUNDED", result.Status)
		assert.Equal(t, "defective goods", result.RefundReason)
		saleRepo.AssertExpectations(t)
	})
}

func TestSaleService_List(t *testing.T) {
	t.Run("applies default pagination", func(t *testing.T) {
		service, saleRepo, _ := newTestService()
		ctx := context.Background()

		expectedFilter := mock.MatchedBy(func(f shared.Filter) bool {
			return f.Page == 1 && f.PageSize == 20 && f.OrderBy == "created_at" && f.OrderDir == "desc"
		})
		saleRepo.On("FindAllForTenant", ctx, testTenantID, expectedFilter).Return([]pos.Sale{*createTestSaleWithItem()}, nil)
		saleRepo.On("CountForTenant", ctx, testTenantID, expectedFilter).Return(int64(1), nil)

		results, total, err := service.List(ctx, testTenantID, SaleListFilter{})

		assert.NoError(t, err)
		assert.Len(t, results, 1)
		assert.Equal(t, int64(1), total)
		saleRepo.AssertExpectations(t)
	})

	t.Run("status filter flows into domain filter", func(t *testing.T) {
		service, saleRepo, _ := newTestService()
		ctx := context.Background()

		status := pos.SaleStatusCompleted
		expectedFilter := mock.MatchedBy(func(f shared.Filter) bool {
			return f.Filters["status"] == "COMPLETED"
		})
		saleRepo.On("FindAllForTenant", ctx, testTenantID, expectedFilter).Return([]pos.Sale{}, nil)
		saleRepo.On("CountForTenant", ctx, testTenantID, expectedFilter).Return(int64(0), nil)

		_, _, err := service.ListByStatus(ctx, testTenantID, status, SaleListFilter{})

		assert.NoError(t, err)
		saleRepo.AssertExpectations(t)
	})
}
