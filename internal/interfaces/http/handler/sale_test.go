package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	posapp "github.com/openpos/backend/internal/application/pos"
	"github.com/openpos/backend/internal/domain/payment"
	"github.com/openpos/backend/internal/domain/pos"
	"github.com/openpos/backend/internal/domain/shared"
	"github.com/openpos/backend/internal/domain/shared/valueobject"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// MockSaleRepository implements pos.SaleRepository for testing
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

var _ pos.SaleRepository = (*MockSaleRepository)(nil)

// MockPaymentRepository implements payment.PaymentRepository for testing
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

var _ payment.PaymentRepository = (*MockPaymentRepository)(nil)

// Test helpers

func setupSaleTestRouter() (*gin.Engine, *MockSaleRepository, *MockPaymentRepository) {
	saleRepo := new(MockSaleRepository)
	paymentRepo := new(MockPaymentRepository)
	service := posapp.NewSaleService(saleRepo, paymentRepo)
	saleHandler := NewSaleHandler(service)

	engine := gin.New()
	api := engine.Group("/api/v1")
	saleHandler.RegisterRoutes(api)

	return engine, saleRepo, paymentRepo
}

func createDraftSale(tenantID uuid.UUID) *pos.Sale {
	sale, _ := pos.NewSale(tenantID, "POS-2026-00001", uuid.New(), nil,
		pos.SaleTypeRetail, valueobject.USD, decimal.NewFromFloat(0.10))
	return sale
}

func doRequest(engine *gin.Engine, method, path string, tenantID *uuid.UUID, body any) *httptest.ResponseRecorder {
	var buf *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		buf = bytes.NewBuffer(b)
	} else {
		buf = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	if tenantID != nil {
		req.Header.Set("X-Tenant-ID", tenantID.String())
	}

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

// Tests

func TestSaleHandler_Create(t *testing.T) {
	t.Run("creates sale successfully", func(t *testing.T) {
		engine, saleRepo, _ := setupSaleTestRouter()
		tenantID := uuid.New()

		saleRepo.On("GenerateSaleNumber", mock.Anything, tenantID).
			Return("POS-2026-00001", nil)
		saleRepo.On("Save", mock.Anything, mock.AnythingOfType("*pos.Sale")).
			Return(nil)

		taxRate := decimal.NewFromFloat(0.10)
		reqBody := posapp.CreateSaleRequest{
			CashierID: uuid.New(),
			TaxRate:   &taxRate,
			Items: []posapp.CreateSaleItemInput{
				{
					ProductID:   uuid.New(),
					ProductName: "Espresso Beans 1kg",
					Quantity:    decimal.NewFromInt(2),
					UnitPrice:   decimal.NewFromInt(50),
				},
			},
		}

		w := doRequest(engine, http.MethodPost, "/api/v1/sales", &tenantID, reqBody)

		assert.Equal(t, http.StatusCreated, w.Code)

		var response map[string]interface{}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.True(t, response["success"].(bool))

		saleRepo.AssertExpectations(t)
	})

	t.Run("rejects request without tenant header", func(t *testing.T) {
		engine, saleRepo, _ := setupSaleTestRouter()

		reqBody := posapp.CreateSaleRequest{CashierID: uuid.New()}
		w := doRequest(engine, http.MethodPost, "/api/v1/sales", nil, reqBody)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var response map[string]interface{}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		errInfo := response["error"].(map[string]interface{})
		assert.Equal(t, "MISSING_TENANT", errInfo["code"])

		saleRepo.AssertNotCalled(t, "Save")
	})

	t.Run("rejects malformed body", func(t *testing.T) {
		engine, saleRepo, _ := setupSaleTestRouter()
		tenantID := uuid.New()

		req, _ := http.NewRequest(http.MethodPost, "/api/v1/sales", bytes.NewBufferString("{not json"))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Tenant-ID", tenantID.String())

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		saleRepo.AssertNotCalled(t, "Save")
	})
}

func TestSaleHandler_GetByID(t *testing.T) {
	t.Run("returns sale by id", func(t *testing.T) {
		engine, saleRepo, _ := setupSaleTestRouter()
		tenantID := uuid.New()
		sale := createDraftSale(tenantID)

		saleRepo.On("FindByIDForTenant", mock.Anything, tenantID, sale.ID).
			Return(sale, nil)

		w := doRequest(engine, http.MethodGet, "/api/v1/sales/"+sale.ID.String(), &tenantID, nil)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.True(t, response["success"].(bool))
		data := response["data"].(map[string]interface{})
		assert.Equal(t, "POS-2026-00001", data["sale_number"])

		saleRepo.AssertExpectations(t)
	})

	t.Run("returns 404 for unknown sale", func(t *testing.T) {
		engine, saleRepo, _ := setupSaleTestRouter()
		tenantID := uuid.New()
		saleID := uuid.New()

		saleRepo.On("FindByIDForTenant", mock.Anything, tenantID, saleID).
			Return(nil, shared.ErrNotFound)

		w := doRequest(engine, http.MethodGet, "/api/v1/sales/"+saleID.String(), &tenantID, nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("rejects malformed sale id", func(t *testing.T) {
		engine, _, _ := setupSaleTestRouter()
		tenantID := uuid.New()

		w := doRequest(engine, http.MethodGet, "/api/v1/sales/not-a-uuid", &tenantID, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSaleHandler_Complete(t *testing.T) {
	t.Run("completes sale and records payment", func(t *testing.T) {
		engine, saleRepo, paymentRepo := setupSaleTestRouter()
		tenantID := uuid.New()
		sale := createDraftSale(tenantID)
		sale.AddItem(uuid.New(), "Espresso Beans 1kg", valueobject.MustNewQuantity(decimal.NewFromInt(2), ""),
			valueobject.NewMoneyUSD(decimal.NewFromInt(50)), decimal.Zero, decimal.Zero)

		saleRepo.On("FindByIDForTenant", mock.Anything, tenantID, sale.ID).
			Return(sale, nil)
		saleRepo.On("SaveWithLock", mock.Anything, sale).Return(nil)
		paymentRepo.On("Save", mock.Anything, mock.AnythingOfType("*payment.Payment")).
			Return(nil)

		reqBody := posapp.CompleteSaleRequest{
			Method:     "CASH",
			AmountPaid: decimal.NewFromInt(120),
		}

		w := doRequest(engine, http.MethodPost, "/api/v1/sales/"+sale.ID.String()+"/complete", &tenantID, reqBody)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		data := response["data"].(map[string]interface{})
		assert.Equal(t, string(pos.SaleStatusCompleted), data["status"])

		saleRepo.AssertExpectations(t)
		paymentRepo.AssertExpectations(t)
	})

	t.Run("maps insufficient payment to 422", func(t *testing.T) {
		engine, saleRepo, paymentRepo := setupSaleTestRouter()
		tenantID := uuid.New()
		sale := createDraftSale(tenantID)
		sale.AddItem(uuid.New(), "Espresso Beans 1kg", valueobject.MustNewQuantity(decimal.NewFromInt(2), ""),
			valueobject.NewMoneyUSD(decimal.NewFromInt(50)), decimal.Zero, decimal.Zero)

		saleRepo.On("FindByIDForTenant", mock.Anything, tenantID, sale.ID).
			Return(sale, nil)

		reqBody := posapp.CompleteSaleRequest{
			Method:     "CASH",
			AmountPaid: decimal.NewFromInt(10),
		}

		w := doRequest(engine, http.MethodPost, "/api/v1/sales/"+sale.ID.String()+"/complete", &tenantID, reqBody)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

		var response map[string]interface{}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		errInfo := response["error"].(map[string]interface{})
		assert.Equal(t, shared.CodeInsufficientPayment, errInfo["code"])

		saleRepo.AssertNotCalled(t, "SaveWithLock")
		paymentRepo.AssertNotCalled(t, "Save")
	})
}

func TestSaleHandler_Cancel(t *testing.T) {
	t.Run("maps invalid state transition to 409", func(t *testing.T) {
		engine, saleRepo, _ := setupSaleTestRouter()
		tenantID := uuid.New()
		sale := createDraftSale(tenantID)
		sale.AddItem(uuid.New(), "Espresso Beans 1kg", valueobject.MustNewQuantity(decimal.NewFromInt(1), ""),
			valueobject.NewMoneyUSD(decimal.NewFromInt(50)), decimal.Zero, decimal.Zero)
		_, err := sale.Complete(payment.MethodCash, valueobject.NewMoneyUSD(decimal.NewFromInt(100)), "", 0)
		assert.NoError(t, err)

		saleRepo.On("FindByIDForTenant", mock.Anything, tenantID, sale.ID).
			Return(sale, nil)

		reqBody := posapp.CancelSaleRequest{Reason: "customer walked out"}

		w := doRequest(engine, http.MethodPost, "/api/v1/sales/"+sale.ID.String()+"/cancel", &tenantID, reqBody)

		assert.Equal(t, http.StatusConflict, w.Code)

		var response map[string]interface{}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		errInfo := response["error"].(map[string]interface{})
		assert.Equal(t, shared.CodeInvalidState, errInfo["code"])

		saleRepo.AssertNotCalled(t, "SaveWithLock")
	})
}

func TestSaleHandler_List(t *testing.T) {
	t.Run("returns paginated list with meta", func(t *testing.T) {
		engine, saleRepo, _ := setupSaleTestRouter()
		tenantID := uuid.New()
		sale := createDraftSale(tenantID)

		saleRepo.On("FindAllForTenant", mock.Anything, tenantID, mock.AnythingOfType("shared.Filter")).
			Return([]pos.Sale{*sale}, nil)
		saleRepo.On("CountForTenant", mock.Anything, tenantID, mock.AnythingOfType("shared.Filter")).
			Return(int64(1), nil)

		w := doRequest(engine, http.MethodGet, "/api/v1/sales?page=1&page_size=20", &tenantID, nil)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.True(t, response["success"].(bool))
		meta := response["meta"].(map[string]interface{})
		assert.Equal(t, float64(1), meta["total"])

		saleRepo.AssertExpectations(t)
	})
}
