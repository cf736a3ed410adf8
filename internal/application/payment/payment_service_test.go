package payment

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/openpos/backend/internal/domain/payment"
	"github.com/openpos/backend/internal/domain/shared"
	"github.com/openpos/backend/internal/domain/shared/valueobject"
)

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

var (
	testTenantID  = uuid.New()
	testSaleID    = uuid.New()
	testPaymentID = uuid.New()
)

func newTestService() (*PaymentService, *MockPaymentRepository) {
	repo := new(MockPaymentRepository)
	return NewPaymentService(repo), repo
}

func createTestPayment(t *testing.T) *payment.Payment {
	t.Helper()
	pmt, err := payment.NewPayment(testTenantID, testSaleID,
		valueobject.NewMoneyUSD(decimal.NewFromInt(110)), payment.MethodCard, "", payment.DefaultMaxRetries)
	require.NoError(t, err)
	return pmt
}

func createProcessingPayment(t *testing.T) *payment.Payment {
	pmt := createTestPayment(t)
	require.NoError(t, pmt.Process())
	return pmt
}

func createCompletedPayment(t *testing.T) *payment.Payment {
	pmt := createProcessingPayment(t)
	require.NoError(t, pmt.Complete("TXN-123", "AUTH-456"))
	return pmt
}

func TestPaymentService_Process(t *testing.T) {
	t.Run("moves pending payment to processing", func(t *testing.T) {
		service, repo := newTestService()
		ctx := context.Background()
		pmt := createTestPayment(t)

		repo.On("FindByIDForTenant", ctx, testTenantID, testPaymentID).Return(pmt, nil)
		repo.On("SaveWithLock", ctx, pmt).Return(nil)

		result, err := service.Process(ctx, testTenantID, testPaymentID)

		assert.NoError(t, err)
		assert.Equal(t, "PROCESSING", result.Status)
		repo.AssertExpectations(t)
	})

	t.Run("rejects processing a completed payment", func(t *testing.T) {
		service, repo := newTestService()
		ctx := context.Background()
		pmt := createCompletedPayment(t)

		repo.On("FindByIDForTenant", ctx, testTenantID, testPaymentID).Return(pmt, nil)

		result, err := service.Process(ctx, testTenantID, testPaymentID)

		assert.Error(t, err)
		assert.Nil(t, result)
		assert.True(t, shared.IsDomainError(err, shared.CodeInvalidState))
		repo.AssertNotCalled(t, "SaveWithLock")
	})
}

func TestPaymentService_Complete(t *testing.T) {
	service, repo := newTestService()
	ctx := context.Background()
	pmt := createProcessingPayment(t)

	repo.On("FindByIDForTenant", ctx, testTenantID, testPaymentID).Return(pmt, nil)
	repo.On("SaveWithLock", ctx, pmt).Return(nil)

	result, err := service.Complete(ctx, testTenantID, testPaymentID, CompletePaymentRequest{
		TransactionID:     "TXN-123",
		AuthorizationCode: "AUTH-456",
	})

	assert.NoError(t, err)
	assert.Equal(t, "COMPLETED", result.Status)
	assert.Equal(t, "TXN-123", result.TransactionID)
	assert.NotNil(t, result.CompletedAt)
	repo.AssertExpectations(t)
}

func TestPaymentService_FailAndRetry(t *testing.T) {
	t.Run("fail records reason", func(t *testing.T) {
		service, repo := newTestService()
		ctx := context.Background()
		pmt := createProcessingPayment(t)

		repo.On("FindByIDForTenant", ctx, testTenantID, testPaymentID).Return(pmt, nil)
		repo.On("SaveWithLock", ctx, pmt).Return(nil)

		result, err := service.Fail(ctx, testTenantID, testPaymentID, FailPaymentRequest{Reason: "card declined"})

		assert.NoError(t, err)
		assert.Equal(t, "FAILED", result.Status)
		assert.Equal(t, "card declined", result.FailureReason)
	})

	t.Run("retry returns failed payment to pending", func(t *testing.T) {
		service, repo := newTestService()
		ctx := context.Background()
		pmt := createProcessingPayment(t)
		require.NoError(t, pmt.Fail("card declined"))

		repo.On("FindByIDForTenant", ctx, testTenantID, testPaymentID).Return(pmt, nil)
		repo.On("SaveWithLock", ctx, pmt).Return(nil)

		result, err := service.Retry(ctx, testTenantID, testPaymentID)

		assert.NoError(t, err)
		assert.Equal(t, "PENDING", result.Status)
		assert.Equal(t, 1, result.RetryCount)
	})

	t.Run("retry budget exhaustion surfaces max retries error", func(t *testing.T) {
		service, repo := newTestService()
		ctx := context.Background()
		pmt := createTestPayment(t)
		for i := 0; i < payment.DefaultMaxRetries; i++ {
			require.NoError(t, pmt.Process())
			require.NoError(t, pmt.Fail("gateway timeout"))
			require.NoError(t, pmt.Retry())
		}
		require.NoError(t, pmt.Process())
		require.NoError(t, pmt.Fail("gateway timeout"))

		repo.On("FindByIDForTenant", ctx, testTenantID, testPaymentID).Return(pmt, nil)

		result, err := service.Retry(ctx, testTenantID, testPaymentID)

		assert.Error(t, err)
		assert.Nil(t, result)
		assert.True(t, shared.IsDomainError(err, shared.CodeMaxRetriesExceeded))
		repo.AssertNotCalled(t, "SaveWithLock")
	})
}

func TestPaymentService_PartialRefund(t *testing.T) {
	t.Run("refunds part of a completed payment", func(t *testing.T) {
		service, repo := newTestService()
		ctx := context.Background()
		pmt := createCompletedPayment(t)

		repo.On("FindByIDForTenant", ctx, testTenantID, testPaymentID).Return(pmt, nil)
		repo.On("SaveWithLock", ctx, pmt).Return(nil)

		result, err := service.PartialRefund(ctx, testTenantID, testPaymentID, PartialRefundRequest{
			Amount: decimal.NewFromInt(30),
			Reason: "damaged item",
		})

		assert.NoError(t, err)
		assert.True(t, decimal.NewFromInt(30).Equal(result.RefundedAmount))
		assert.True(t, decimal.NewFromInt(80).Equal(result.RefundableAmount))
	})

	t.Run("rejects refund above refundable amount", func(t *testing.T) {
		service, repo := newTestService()
		ctx := context.Background()
		pmt := createCompletedPayment(t)

		repo.On("FindByIDForTenant", ctx, testTenantID, testPaymentID).Return(pmt, nil)

		result, err := service.PartialRefund(ctx, testTenantID, testPaymentID, PartialRefundRequest{
			Amount: decimal.NewFromInt(200),
			Reason: "overreach",
		})

		assert.Error(t, err)
		assert.Nil(t, result)
		assert.True(t, shared.IsDomainError(err, shared.CodeValidation))
		repo.AssertNotCalled(t, "SaveWithLock")
	})
}

func TestPaymentService_Reconcile(t *testing.T) {
	service, repo := newTestService()
	ctx := context.Background()
	pmt := createCompletedPayment(t)

	repo.On("FindByIDForTenant", ctx, testTenantID, testPaymentID).Return(pmt, nil)
	repo.On("SaveWithLock", ctx, pmt).Return(nil)

	result, err := service.Reconcile(ctx, testTenantID, testPaymentID, ReconcileRequest{Reference: "STMT-2026-08"})

	assert.NoError(t, err)
	assert.NotNil(t, result.ReconciledAt)
	assert.Equal(t, "STMT-2026-08", result.ReconciliationRef)
	repo.AssertExpectations(t)
}

func TestPaymentService_ListBySale(t *testing.T) {
	service, repo := newTestService()
	ctx := context.Background()
	pmt := createTestPayment(t)

	repo.On("FindBySale", ctx, testTenantID, testSaleID).Return([]payment.Payment{*pmt}, nil)

	results, err := service.ListBySale(ctx, testTenantID, testSaleID)

	assert.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, testSaleID, results[0].SaleID)
}
