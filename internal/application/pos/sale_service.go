package pos

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openpos/backend/internal/domain/payment"
	"github.com/openpos/backend/internal/domain/pos"
	"github.com/openpos/backend/internal/domain/shared"
	"github.com/openpos/backend/internal/domain/shared/valueobject"
)

// SaleServiceConfig carries tenant-independent defaults applied when
// create requests omit them
type SaleServiceConfig struct {
	DefaultTaxRate    decimal.Decimal
	PaymentMaxRetries int
}

// DefaultSaleServiceConfig returns the built-in service defaults
func DefaultSaleServiceConfig() SaleServiceConfig {
	return SaleServiceConfig{
		DefaultTaxRate:    decimal.Zero,
		PaymentMaxRetries: payment.DefaultMaxRetries,
	}
}

// SaleService handles sale business operations
type SaleService struct {
	saleRepo       pos.SaleRepository
	paymentRepo    payment.PaymentRepository
	eventPublisher shared.EventPublisher
	cfg            SaleServiceConfig
}

// NewSaleService creates a new SaleService with default configuration
func NewSaleService(saleRepo pos.SaleRepository, paymentRepo payment.PaymentRepository) *SaleService {
	return NewSaleServiceWithConfig(saleRepo, paymentRepo, DefaultSaleServiceConfig())
}

// NewSaleServiceWithConfig creates a new SaleService with explicit configuration
func NewSaleServiceWithConfig(saleRepo pos.SaleRepository, paymentRepo payment.PaymentRepository, cfg SaleServiceConfig) *SaleService {
	return &SaleService{
		saleRepo:    saleRepo,
		paymentRepo: paymentRepo,
		cfg:         cfg,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *SaleService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create opens a new sale in DRAFT status
func (s *SaleService) Create(ctx context.Context, tenantID uuid.UUID, req CreateSaleRequest) (*SaleResponse, error) {
	saleNumber, err := s.saleRepo.GenerateSaleNumber(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	saleType := req.SaleType
	if saleType == "" {
		saleType = pos.SaleTypeRetail
	}
	currency := req.Currency
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	taxRate := s.cfg.DefaultTaxRate
	if req.TaxRate != nil {
		taxRate = *req.TaxRate
	}

	sale, err := pos.NewSale(tenantID, saleNumber, req.CashierID, req.CustomerID, saleType, currency, taxRate)
	if err != nil {
		return nil, err
	}

	if req.WarehouseID != nil {
		if err := sale.SetWarehouse(*req.WarehouseID); err != nil {
			return nil, err
		}
	}

	for _, item := range req.Items {
		unitPrice, err := valueobject.NewMoney(item.UnitPrice, currency)
		if err != nil {
			return nil, err
		}
		quantity, err := valueobject.NewQuantity(item.Quantity, item.Unit)
		if err != nil {
			return nil, shared.NewDomainError(shared.CodeValidation, err.Error())
		}
		if _, err := sale.AddItem(item.ProductID, item.ProductName, quantity, unitPrice, item.DiscountPercent, item.DiscountAmount); err != nil {
			return nil, err
		}
	}

	if req.Discount != nil {
		discountMoney, err := valueobject.NewMoney(*req.Discount, currency)
		if err != nil {
			return nil, err
		}
		if err := sale.ApplyDiscount(discountMoney); err != nil {
			return nil, err
		}
	}

	if err := s.saleRepo.Save(ctx, sale); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, sale)

	response := ToSaleResponse(sale)
	return &response, nil
}

// GetByID retrieves a sale by ID
func (s *SaleService) GetByID(ctx context.Context, tenantID, saleID uuid.UUID) (*SaleResponse, error) {
	sale, err := s.saleRepo.FindByIDForTenant(ctx, tenantID, saleID)
	if err != nil {
		return nil, err
	}
	response := ToSaleResponse(sale)
	return &response, nil
}

// GetBySaleNumber retrieves a sale by its human-readable number
func (s *SaleService) GetBySaleNumber(ctx context.Context, tenantID uuid.UUID, saleNumber string) (*SaleResponse, error) {
	sale, err := s.saleRepo.FindBySaleNumber(ctx, tenantID, saleNumber)
	if err != nil {
		return nil, err
	}
	response := ToSaleResponse(sale)
	return &response, nil
}

// List retrieves sales with filtering and pagination
func (s *SaleService) List(ctx context.Context, tenantID uuid.UUID, filter SaleListFilter) ([]SaleListItemResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}

	if filter.CashierID != nil {
		domainFilter.Filters["cashier_id"] = *filter.CashierID
	}
	if filter.CustomerID != nil {
		domainFilter.Filters["customer_id"] = *filter.CustomerID
	}
	if filter.Status != nil {
		domainFilter.Filters["status"] = string(*filter.Status)
	}
	if filter.SaleType != nil {
		domainFilter.Filters["sale_type"] = string(*filter.SaleType)
	}
	if filter.StartDate != nil {
		domainFilter.Filters["start_date"] = *filter.StartDate
	}
	if filter.EndDate != nil {
		domainFilter.Filters["end_date"] = *filter.EndDate
	}
	if filter.MinAmount != nil {
		domainFilter.Filters["min_amount"] = *filter.MinAmount
	}
	if filter.MaxAmount != nil {
		domainFilter.Filters["max_amount"] = *filter.MaxAmount
	}

	sales, err := s.saleRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.saleRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToSaleListItemResponses(sales), total, nil
}

// ListByStatus retrieves sales in a specific status
func (s *SaleService) ListByStatus(ctx context.Context, tenantID uuid.UUID, status pos.SaleStatus, filter SaleListFilter) ([]SaleListItemResponse, int64, error) {
	filter.Status = &status
	return s.List(ctx, tenantID, filter)
}

// AddItem adds an item to a draft sale
func (s *SaleService) AddItem(ctx context.Context, tenantID, saleID uuid.UUID, req AddSaleItemRequest) (*SaleResponse, error) {
	sale, err := s.saleRepo.FindByIDForTenant(ctx, tenantID, saleID)
	if err != nil {
		return nil, err
	}

	unitPrice, err := valueobject.NewMoney(req.UnitPrice, sale.Currency)
	if err != nil {
		return nil, err
	}
	quantity, err := valueobject.NewQuantity(req.Quantity, req.Unit)
	if err != nil {
		return nil, shared.NewDomainError(shared.CodeValidation, err.Error())
	}
	if _, err := sale.AddItem(req.ProductID, req.ProductName, quantity, unitPrice, req.DiscountPercent, req.DiscountAmount); err != nil {
		return nil, err
	}

	if err := s.saleRepo.SaveWithLock(ctx, sale); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, sale)

	response := ToSaleResponse(sale)
	return &response, nil
}

// UpdateItemQuantity changes the quantity of a line item on a draft sale
func (s *SaleService) UpdateItemQuantity(ctx context.Context, tenantID, saleID, productID uuid.UUID, req UpdateSaleItemRequest) (*SaleResponse, error) {
	sale, err := s.saleRepo.FindByIDForTenant(ctx, tenantID, saleID)
	if err != nil {
		return nil, err
	}

	quantity, err := valueobject.NewQuantity(req.Quantity, req.Unit)
	if err != nil {
		return nil, shared.NewDomainError(shared.CodeValidation, err.Error())
	}
	if err := sale.UpdateItemQuantity(productID, quantity); err != nil {
		return nil, err
	}

	if err := s.saleRepo.SaveWithLock(ctx, sale); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, sale)

	response := ToSaleResponse(sale)
	return &response, nil
}

// RemoveItem removes a line item from a draft sale
func (s *SaleService) RemoveItem(ctx context.Context, tenantID, saleID, productID uuid.UUID) (*SaleResponse, error) {
	sale, err := s.saleRepo.FindByIDForTenant(ctx, tenantID, saleID)
	if err != nil {
		return nil, err
	}

	if err := sale.RemoveItem(productID); err != nil {
		return nil, err
	}

	if err := s.saleRepo.SaveWithLock(ctx, sale); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, sale)

	response := ToSaleResponse(sale)
	return &response, nil
}

// ApplyDiscount applies a sale-level discount to a draft sale
func (s *SaleService) ApplyDiscount(ctx context.Context, tenantID, saleID uuid.UUID, req ApplyDiscountRequest) (*SaleResponse, error) {
	sale, err := s.saleRepo.FindByIDForTenant(ctx, tenantID, saleID)
	if err != nil {
		return nil, err
	}

	discountMoney, err := valueobject.NewMoney(req.Discount, sale.Currency)
	if err != nil {
		return nil, err
	}
	if err := sale.ApplyDiscount(discountMoney); err != nil {
		return nil, err
	}

	if err := s.saleRepo.SaveWithLock(ctx, sale); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, sale)

	response := ToSaleResponse(sale)
	return &response, nil
}

// Confirm locks the sale's item list and moves it to CONFIRMED
func (s *SaleService) Confirm(ctx context.Context, tenantID, saleID uuid.UUID) (*SaleResponse, error) {
	sale, err := s.saleRepo.FindByIDForTenant(ctx, tenantID, saleID)
	if err != nil {
		return nil, err
	}

	if err := sale.Confirm(); err != nil {
		return nil, err
	}

	if err := s.saleRepo.SaveWithLock(ctx, sale); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, sale)

	response := ToSaleResponse(sale)
	return &response, nil
}

// StartProcessing marks a confirmed sale as being processed at the register
func (s *SaleService) StartProcessing(ctx context.Context, tenantID, saleID uuid.UUID) (*SaleResponse, error) {
	sale, err := s.saleRepo.FindByIDForTenant(ctx, tenantID, saleID)
	if err != nil {
		return nil, err
	}

	if err := sale.StartProcessing(); err != nil {
		return nil, err
	}

	if err := s.saleRepo.SaveWithLock(ctx, sale); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, sale)

	response := ToSaleResponse(sale)
	return &response, nil
}

// Complete completes a sale with tendered payment. The payment record
// created by the aggregate is persisted in the same flow; stock deduction
// happens asynchronously via the SaleCompletedEvent.
func (s *SaleService) Complete(ctx context.Context, tenantID, saleID uuid.UUID, req CompleteSaleRequest) (*SaleResponse, error) {
	sale, err := s.saleRepo.FindByIDForTenant(ctx, tenantID, saleID)
	if err != nil {
		return nil, err
	}

	if req.WarehouseID != nil {
		if err := sale.SetWarehouse(*req.WarehouseID); err != nil {
			return nil, err
		}
	}

	method := payment.Method(req.Method)
	amountPaid, err := valueobject.NewMoney(req.AmountPaid, sale.Currency)
	if err != nil {
		return nil, err
	}

	pmt, err := sale.Complete(method, amountPaid, req.Reference, s.cfg.PaymentMaxRetries)
	if err != nil {
		return nil, err
	}

	if err := s.saleRepo.SaveWithLock(ctx, sale); err != nil {
		return nil, err
	}
	if err := s.paymentRepo.Save(ctx, pmt); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, sale)
	s.publishPaymentEvents(ctx, pmt)

	response := ToSaleResponse(sale)
	return &response, nil
}

// Cancel cancels a sale that has not completed
func (s *SaleService) Cancel(ctx context.Context, tenantID, saleID uuid.UUID, req CancelSaleRequest) (*SaleResponse, error) {
	sale, err := s.saleRepo.FindByIDForTenant(ctx, tenantID, saleID)
	if err != nil {
		return nil, err
	}

	if err := sale.Cancel(req.Reason); err != nil {
		return nil, err
	}

	if err := s.saleRepo.SaveWithLock(ctx, sale); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, sale)

	response := ToSaleResponse(sale)
	return &response, nil
}

// Refund refunds a completed sale. Stock is restored asynchronously via the
// SaleRefundedEvent.
func (s *SaleService) Refund(ctx context.Context, tenantID, saleID uuid.UUID, req RefundSaleRequest) (*SaleResponse, error) {
	sale, err := s.saleRepo.FindByIDForTenant(ctx, tenantID, saleID)
	if err != nil {
		return nil, err
	}

	if err := sale.Refund(req.Reason); err != nil {
		return nil, err
	}

	if err := s.saleRepo.SaveWithLock(ctx, sale); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, sale)

	response := ToSaleResponse(sale)
	return &response, nil
}

// publishEvents drains the sale's pending domain events to the event bus.
// Publish failures do not fail the operation; handlers log their own errors.
func (s *SaleService) publishEvents(ctx context.Context, sale *pos.Sale) {
	if s.eventPublisher == nil {
		return
	}
	for _, event := range sale.GetDomainEvents() {
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			// Event handling is best-effort; the state change is already
			// persisted. TODO: outbox pattern for guaranteed delivery.
			continue
		}
	}
	sale.ClearDomainEvents()
}

func (s *SaleService) publishPaymentEvents(ctx context.Context, pmt *payment.Payment) {
	if s.eventPublisher == nil {
		return
	}
	for _, event := range pmt.GetDomainEvents() {
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			continue
		}
	}
	pmt.ClearDomainEvents()
}
