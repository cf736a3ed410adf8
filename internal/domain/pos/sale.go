package pos

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openpos/backend/internal/domain/payment"
	"github.com/openpos/backend/internal/domain/shared"
	"github.com/openpos/backend/internal/domain/shared/valueobject"
)

// SaleStatus represents the status of a sale
type SaleStatus string

const (
	SaleStatusDraft      SaleStatus = "DRAFT"
	SaleStatusConfirmed  SaleStatus = "CONFIRMED"
	SaleStatusProcessing SaleStatus = "PROCESSING"
	SaleStatusCompleted  SaleStatus = "COMPLETED"
	SaleStatusCancelled  SaleStatus = "CANCELLED"
	SaleStatusRefunded   SaleStatus = "REFUNDED"
)

// IsValid checks if the status is a valid SaleStatus
func (s SaleStatus) IsValid() bool {
	switch s {
	case SaleStatusDraft, SaleStatusConfirmed, SaleStatusProcessing,
		SaleStatusCompleted, SaleStatusCancelled, SaleStatusRefunded:
		return true
	}
	return false
}

// String returns the string representation of SaleStatus
func (s SaleStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status.
// CANCELLED and REFUNDED are absorbing states; COMPLETED only permits REFUNDED.
func (s SaleStatus) CanTransitionTo(target SaleStatus) bool {
	switch s {
	case SaleStatusDraft:
		return target == SaleStatusConfirmed || target == SaleStatusCompleted || target == SaleStatusCancelled
	case SaleStatusConfirmed:
		return target == SaleStatusProcessing || target == SaleStatusCompleted || target == SaleStatusCancelled
	case SaleStatusProcessing:
		return target == SaleStatusCompleted || target == SaleStatusCancelled
	case SaleStatusCompleted:
		return target == SaleStatusRefunded
	case SaleStatusCancelled, SaleStatusRefunded:
		return false // Terminal states
	}
	return false
}

// IsTerminal returns true for absorbing states
func (s SaleStatus) IsTerminal() bool {
	return s == SaleStatusCancelled || s == SaleStatusRefunded
}

// SaleType distinguishes retail POS sales from wholesale ones
type SaleType string

const (
	SaleTypeRetail    SaleType = "RETAIL"
	SaleTypeWholesale SaleType = "WHOLESALE"
)

// IsValid checks if the sale type is valid
func (t SaleType) IsValid() bool {
	return t == SaleTypeRetail || t == SaleTypeWholesale
}

// Sale represents a POS sale aggregate root.
// It owns its line items exclusively: items are mutated only through the
// sale's own methods and derived totals are recomputed after every mutation.
type Sale struct {
	shared.TenantAggregateRoot
	SaleNumber     string               `gorm:"type:varchar(50);not null;uniqueIndex:idx_sale_tenant_number,priority:2"`
	CustomerID     *uuid.UUID           `gorm:"type:uuid;index"` // nil for walk-in customers
	CashierID      uuid.UUID            `gorm:"type:uuid;not null;index"`
	WarehouseID    *uuid.UUID           `gorm:"type:uuid;index"` // Stock source for fulfilment
	SaleType       SaleType             `gorm:"type:varchar(20);not null;default:'RETAIL'"`
	Status         SaleStatus           `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	Currency       valueobject.Currency `gorm:"type:varchar(3);not null;default:'USD'"`
	TaxRate        decimal.Decimal      `gorm:"type:decimal(7,4);not null"` // Per-sale rate, e.g. 0.10 for 10%
	Subtotal       decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	TaxAmount      decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	DiscountAmount decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	TotalAmount    decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	AmountPaid     decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	ChangeAmount   decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	Items          []SaleItem           `gorm:"foreignKey:SaleID;references:ID"`
	PaymentIDs     []uuid.UUID          `gorm:"-"` // References to payments recorded for this sale
	ConfirmedAt    *time.Time
	ProcessingAt   *time.Time
	CompletedAt    *time.Time
	CancelledAt    *time.Time
	RefundedAt     *time.Time
	CancelReason   string `gorm:"type:varchar(500)"`
	RefundReason   string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (Sale) TableName() string {
	return "sales"
}

// NewSale creates a new sale in DRAFT status.
// The tax rate is an explicit per-sale parameter so per-jurisdiction rates can
// be applied; the domain never reads it from ambient configuration.
func NewSale(tenantID uuid.UUID, saleNumber string, cashierID uuid.UUID, customerID *uuid.UUID, saleType SaleType, currency valueobject.Currency, taxRate decimal.Decimal) (*Sale, error) {
	if saleNumber == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Sale number cannot be empty")
	}
	if len(saleNumber) > 50 {
		return nil, shared.NewDomainError(shared.CodeValidation, "Sale number cannot exceed 50 characters")
	}
	if cashierID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Cashier ID cannot be empty")
	}
	if !saleType.IsValid() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Sale type is not valid")
	}
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	if taxRate.IsNegative() || taxRate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, shared.NewDomainError(shared.CodeValidation, "Tax rate must be between 0 and 1")
	}

	sale := &Sale{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		SaleNumber:          saleNumber,
		CustomerID:          customerID,
		CashierID:           cashierID,
		SaleType:            saleType,
		Status:              SaleStatusDraft,
		Currency:            currency,
		TaxRate:             taxRate,
		Subtotal:            decimal.Zero,
		TaxAmount:           decimal.Zero,
		DiscountAmount:      decimal.Zero,
		TotalAmount:         decimal.Zero,
		AmountPaid:          decimal.Zero,
		ChangeAmount:        decimal.Zero,
		Items:               make([]SaleItem, 0),
		PaymentIDs:          make([]uuid.UUID, 0),
	}

	sale.AddDomainEvent(NewSaleCreatedEvent(sale))

	return sale, nil
}

// AddItem adds a line item to the sale. If the product is already present the
// added quantity is merged into the existing line instead of duplicating it;
// merging requires the incoming quantity to carry the line's unit of measure.
// Only allowed while the sale is in DRAFT status.
func (s *Sale) AddItem(productID uuid.UUID, productName string, quantity valueobject.Quantity, unitPrice valueobject.Money, discountPercent, discountAmount decimal.Decimal) (*SaleItem, error) {
	if s.Status != SaleStatusDraft {
		return nil, shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Cannot add items to a sale in %s status", s.Status))
	}
	if unitPrice.Currency() != s.Currency {
		return nil, shared.NewDomainError(shared.CodeValidation, "Unit price currency does not match sale currency")
	}

	// Merge into the existing line when the product is already on the sale
	for idx := range s.Items {
		if s.Items[idx].ProductID == productID {
			merged, err := s.Items[idx].MeasuredQuantity().Add(quantity)
			if err != nil {
				return nil, shared.NewDomainError(shared.CodeValidation, err.Error())
			}
			if err := s.Items[idx].updateQuantity(merged); err != nil {
				return nil, err
			}
			s.recalculateTotals()
			s.UpdatedAt = time.Now()
			s.AddDomainEvent(NewSaleItemAddedEvent(s, &s.Items[idx], quantity.Amount()))
			return &s.Items[idx], nil
		}
	}

	item, err := newSaleItem(s.ID, productID, productName, quantity, unitPrice.Amount(), discountPercent, discountAmount)
	if err != nil {
		return nil, err
	}

	s.Items = append(s.Items, *item)
	s.recalculateTotals()
	s.UpdatedAt = time.Now()

	added := &s.Items[len(s.Items)-1]
	s.AddDomainEvent(NewSaleItemAddedEvent(s, added, quantity.Amount()))

	return added, nil
}

// UpdateItemQuantity replaces the quantity of an existing line item. The
// incoming quantity must carry the line's unit of measure.
// Only allowed while the sale is in DRAFT status.
func (s *Sale) UpdateItemQuantity(productID uuid.UUID, quantity valueobject.Quantity) error {
	if s.Status != SaleStatusDraft {
		return shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Cannot update items on a sale in %s status", s.Status))
	}

	for idx := range s.Items {
		if s.Items[idx].ProductID == productID {
			oldQuantity := s.Items[idx].Quantity
			if err := s.Items[idx].updateQuantity(quantity); err != nil {
				return err
			}
			s.recalculateTotals()
			s.UpdatedAt = time.Now()
			s.AddDomainEvent(NewSaleItemUpdatedEvent(s, &s.Items[idx], oldQuantity))
			return nil
		}
	}

	return shared.NewDomainError(shared.CodeNotFound, "Sale item not found")
}

// RemoveItem removes a line item from the sale.
// Only allowed while the sale is in DRAFT status.
func (s *Sale) RemoveItem(productID uuid.UUID) error {
	if s.Status != SaleStatusDraft {
		return shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Cannot remove items from a sale in %s status", s.Status))
	}

	for idx := range s.Items {
		if s.Items[idx].ProductID == productID {
			removed := s.Items[idx]
			s.Items = append(s.Items[:idx], s.Items[idx+1:]...)
			s.recalculateTotals()
			s.UpdatedAt = time.Now()
			s.AddDomainEvent(NewSaleItemRemovedEvent(s, removed.ID, productID))
			return nil
		}
	}

	return shared.NewDomainError(shared.CodeNotFound, "Sale item not found")
}

// ApplyDiscount applies a sale-level discount.
// The discount may never exceed the current subtotal.
func (s *Sale) ApplyDiscount(discount valueobject.Money) error {
	if s.Status != SaleStatusDraft {
		return shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Cannot apply discount to a sale in %s status", s.Status))
	}
	if discount.Currency() != s.Currency {
		return shared.NewDomainError(shared.CodeValidation, "Discount currency does not match sale currency")
	}
	if discount.IsNegative() {
		return shared.NewDomainError(shared.CodeValidation, "Discount cannot be negative")
	}
	if discount.Amount().GreaterThan(s.Subtotal) {
		return shared.NewDomainError(shared.CodeValidation, "Discount cannot exceed subtotal")
	}

	s.DiscountAmount = discount.Amount()
	s.recalculateTotals()
	s.UpdatedAt = time.Now()

	s.AddDomainEvent(NewSaleDiscountAppliedEvent(s))

	return nil
}

// SetWarehouse sets the warehouse stock is fulfilled from. It can be set or
// changed until the sale reaches a settled status.
func (s *Sale) SetWarehouse(warehouseID uuid.UUID) error {
	if warehouseID == uuid.Nil {
		return shared.NewDomainError(shared.CodeValidation, "Warehouse ID cannot be empty")
	}
	if s.Status == SaleStatusCompleted || s.Status.IsTerminal() {
		return shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Cannot change warehouse of a sale in %s status", s.Status))
	}

	s.WarehouseID = &warehouseID
	s.UpdatedAt = time.Now()
	return nil
}

// Confirm transitions the sale from DRAFT to CONFIRMED.
// Confirmation is optional; a draft sale may be completed directly.
func (s *Sale) Confirm() error {
	if !s.Status.CanTransitionTo(SaleStatusConfirmed) {
		return shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Cannot confirm a sale in %s status", s.Status))
	}
	if len(s.Items) == 0 {
		return shared.NewDomainError(shared.CodeValidation, "Cannot confirm a sale without items")
	}

	now := time.Now()
	s.Status = SaleStatusConfirmed
	s.ConfirmedAt = &now
	s.UpdatedAt = now

	s.AddDomainEvent(NewSaleConfirmedEvent(s))

	return nil
}

// StartProcessing transitions the sale from CONFIRMED to PROCESSING
func (s *Sale) StartProcessing() error {
	if !s.Status.CanTransitionTo(SaleStatusProcessing) {
		return shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Cannot start processing a sale in %s status", s.Status))
	}

	now := time.Now()
	s.Status = SaleStatusProcessing
	s.ProcessingAt = &now
	s.UpdatedAt = now

	s.AddDomainEvent(NewSaleProcessingEvent(s))

	return nil
}

// Complete finalizes the sale: it validates payment coverage, records a
// payment, computes change and transitions to COMPLETED. Downstream stock
// decrement and accounting posting subscribe to the emitted SaleCompleted
// event. maxRetries bounds retry attempts on the created payment; zero
// selects the payment default.
func (s *Sale) Complete(method payment.Method, amountPaid valueobject.Money, reference string, maxRetries int) (*payment.Payment, error) {
	if !s.Status.CanTransitionTo(SaleStatusCompleted) {
		return nil, shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Cannot complete a sale in %s status", s.Status))
	}
	if len(s.Items) == 0 {
		return nil, shared.NewDomainError(shared.CodeValidation, "Cannot complete a sale without items")
	}
	if amountPaid.Currency() != s.Currency {
		return nil, shared.NewDomainError(shared.CodeValidation, "Payment currency does not match sale currency")
	}
	if amountPaid.Amount().LessThan(s.TotalAmount) {
		return nil, shared.NewDomainError(shared.CodeInsufficientPayment,
			fmt.Sprintf("Amount paid %s is less than total %s", amountPaid.Amount().StringFixed(2), s.TotalAmount.StringFixed(2)))
	}

	total, err := valueobject.NewMoney(s.TotalAmount, s.Currency)
	if err != nil {
		return nil, shared.NewDomainError(shared.CodeValidation, err.Error())
	}

	pmt, err := payment.NewPayment(s.TenantID, s.ID, total, method, reference, maxRetries)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	s.AmountPaid = amountPaid.Amount()
	s.ChangeAmount = amountPaid.Amount().Sub(s.TotalAmount)
	s.Status = SaleStatusCompleted
	s.CompletedAt = &now
	s.UpdatedAt = now
	s.PaymentIDs = append(s.PaymentIDs, pmt.ID)

	s.AddDomainEvent(NewSaleCompletedEvent(s, pmt.ID, string(method)))

	return pmt, nil
}

// Cancel cancels the sale. Allowed from any non-terminal state except
// COMPLETED; cancelling an already cancelled sale fails with an
// invalid-state error and leaves the first cancellation intact.
func (s *Sale) Cancel(reason string) error {
	if s.Status == SaleStatusCancelled {
		return shared.NewDomainError(shared.CodeInvalidState, "Sale is already cancelled")
	}
	if !s.Status.CanTransitionTo(SaleStatusCancelled) {
		return shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Cannot cancel a sale in %s status", s.Status))
	}
	if reason == "" {
		return shared.NewDomainError(shared.CodeValidation, "Cancel reason is required")
	}

	now := time.Now()
	s.Status = SaleStatusCancelled
	s.CancelledAt = &now
	s.CancelReason = reason
	s.UpdatedAt = now

	s.AddDomainEvent(NewSaleCancelledEvent(s))

	return nil
}

// Refund transitions a completed sale to REFUNDED
func (s *Sale) Refund(reason string) error {
	if !s.Status.CanTransitionTo(SaleStatusRefunded) {
		return shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Cannot refund a sale in %s status", s.Status))
	}
	if reason == "" {
		return shared.NewDomainError(shared.CodeValidation, "Refund reason is required")
	}

	now := time.Now()
	s.Status = SaleStatusRefunded
	s.RefundedAt = &now
	s.RefundReason = reason
	s.UpdatedAt = now

	s.AddDomainEvent(NewSaleRefundedEvent(s))

	return nil
}

// recalculateTotals recomputes all derived amounts.
// Invariants maintained here: subtotal equals the sum of line totals,
// tax = subtotal * rate, and the grand total is floored at zero.
func (s *Sale) recalculateTotals() {
	subtotal := decimal.Zero
	for _, item := range s.Items {
		subtotal = subtotal.Add(item.TotalPrice)
	}
	s.Subtotal = subtotal
	s.TaxAmount = subtotal.Mul(s.TaxRate).Round(2)

	// A discount applied before items were removed may exceed the new subtotal
	if s.DiscountAmount.GreaterThan(s.Subtotal) {
		s.DiscountAmount = s.Subtotal
	}

	total := s.Subtotal.Add(s.TaxAmount).Sub(s.DiscountAmount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	s.TotalAmount = total
}

// GetItemByProduct returns the line item for a product, or nil
func (s *Sale) GetItemByProduct(productID uuid.UUID) *SaleItem {
	for idx := range s.Items {
		if s.Items[idx].ProductID == productID {
			return &s.Items[idx]
		}
	}
	return nil
}

// ItemCount returns the number of line items
func (s *Sale) ItemCount() int {
	return len(s.Items)
}

// TotalQuantity returns the sum of all line quantities, ignoring units
func (s *Sale) TotalQuantity() decimal.Decimal {
	total := decimal.Zero
	for _, item := range s.Items {
		total = total.Add(item.Quantity)
	}
	return total
}

// GetSubtotalMoney returns the subtotal as Money
func (s *Sale) GetSubtotalMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(s.Subtotal, s.Currency)
	return m
}

// GetTotalAmountMoney returns the total as Money
func (s *Sale) GetTotalAmountMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(s.TotalAmount, s.Currency)
	return m
}

// GetChangeAmountMoney returns the change due as Money
func (s *Sale) GetChangeAmountMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(s.ChangeAmount, s.Currency)
	return m
}

// IsDraft returns true if the sale is in draft status
func (s *Sale) IsDraft() bool {
	return s.Status == SaleStatusDraft
}

// IsCompleted returns true if the sale is completed
func (s *Sale) IsCompleted() bool {
	return s.Status == SaleStatusCompleted
}

// IsCancelled returns true if the sale is cancelled
func (s *Sale) IsCancelled() bool {
	return s.Status == SaleStatusCancelled
}

// CanModify returns true if items and discount may still be mutated
func (s *Sale) CanModify() bool {
	return s.Status == SaleStatusDraft
}
