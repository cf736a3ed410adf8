package payment

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openpos/backend/internal/domain/shared"
	"github.com/openpos/backend/internal/domain/shared/valueobject"
)

// DefaultMaxRetries is the default bound on payment retry attempts
const DefaultMaxRetries = 3

// Status represents the status of a payment
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// IsValid checks if the status is a valid payment Status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status.
// Failed payments return to Pending via Retry; Completed is terminal (partial
// refunds and reconciliation do not change state).
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusPending:
		return target == StatusProcessing
	case StatusProcessing:
		return target == StatusCompleted || target == StatusFailed
	case StatusFailed:
		return target == StatusPending
	case StatusCompleted:
		return false
	}
	return false
}

// Method represents how a payment is made
type Method string

const (
	MethodCash         Method = "CASH"
	MethodCard         Method = "CARD"
	MethodMobile       Method = "MOBILE"
	MethodBankTransfer Method = "BANK_TRANSFER"
	MethodStoreCredit  Method = "STORE_CREDIT"
)

// IsValid checks if the payment method is valid
func (m Method) IsValid() bool {
	switch m {
	case MethodCash, MethodCard, MethodMobile, MethodBankTransfer, MethodStoreCredit:
		return true
	}
	return false
}

// Split represents one portion of a payment paid with a specific method
// (e.g. part cash, part card). Splits are recorded while the payment is
// still pending.
type Split struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key"`
	PaymentID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Method    Method          `gorm:"type:varchar(30);not null"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Reference string          `gorm:"type:varchar(100)"`
	CreatedAt time.Time
}

// TableName returns the table name for GORM
func (Split) TableName() string {
	return "payment_splits"
}

// NewSplit creates a new payment split
func NewSplit(paymentID uuid.UUID, method Method, amount valueobject.Money, reference string) (*Split, error) {
	if !method.IsValid() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Split payment method is not valid")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Split amount must be positive")
	}
	return &Split{
		ID:        uuid.New(),
		PaymentID: paymentID,
		Method:    method,
		Amount:    amount.Amount(),
		Reference: reference,
		CreatedAt: time.Now(),
	}, nil
}

// Payment represents a single payment attempt against a sale. It is
// referenced from the sale by id but persisted independently; one sale may
// carry many payments (splits, retries).
type Payment struct {
	shared.TenantAggregateRoot
	SaleID            uuid.UUID            `gorm:"type:uuid;not null;index"`
	Amount            decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	Currency          valueobject.Currency `gorm:"type:varchar(3);not null;default:'USD'"`
	Method            Method               `gorm:"type:varchar(30);not null"`
	Status            Status               `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	Reference         string               `gorm:"type:varchar(100)"`
	TransactionID     string               `gorm:"type:varchar(100)"`
	AuthorizationCode string               `gorm:"type:varchar(100)"`
	FailureReason     string               `gorm:"type:varchar(500)"`
	RetryCount        int                  `gorm:"not null;default:0"`
	MaxRetries        int                  `gorm:"not null;default:3"`
	RefundedAmount    decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	Splits            []Split              `gorm:"foreignKey:PaymentID;references:ID"`
	ReconciledAt      *time.Time
	ReconciliationRef string `gorm:"type:varchar(100)"`
	ProcessedAt       *time.Time
	CompletedAt       *time.Time
	FailedAt          *time.Time
}

// TableName returns the table name for GORM
func (Payment) TableName() string {
	return "payments"
}

// NewPayment creates a new pending payment for a sale
func NewPayment(tenantID, saleID uuid.UUID, amount valueobject.Money, method Method, reference string, maxRetries int) (*Payment, error) {
	if saleID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Sale ID cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Payment amount must be positive")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Payment method is not valid")
	}
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}

	p := &Payment{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		SaleID:              saleID,
		Amount:              amount.Amount(),
		Currency:            amount.Currency(),
		Method:              method,
		Status:              StatusPending,
		Reference:           reference,
		RetryCount:          0,
		MaxRetries:          maxRetries,
		RefundedAmount:      decimal.Zero,
		Splits:              make([]Split, 0),
	}

	p.AddDomainEvent(NewPaymentCreatedEvent(p))

	return p, nil
}

// Process marks the payment as being processed
func (p *Payment) Process() error {
	if !p.Status.CanTransitionTo(StatusProcessing) {
		return shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Cannot process a payment in %s status", p.Status))
	}

	now := time.Now()
	p.Status = StatusProcessing
	p.ProcessedAt = &now
	p.UpdatedAt = now
	p.IncrementVersion()

	p.AddDomainEvent(NewPaymentProcessingEvent(p))

	return nil
}

// Complete marks a processing payment as completed
func (p *Payment) Complete(transactionID, authorizationCode string) error {
	if !p.Status.CanTransitionTo(StatusCompleted) {
		return shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Cannot complete a payment in %s status", p.Status))
	}
	if transactionID == "" {
		return shared.NewDomainError(shared.CodeValidation, "Transaction ID is required")
	}

	now := time.Now()
	p.Status = StatusCompleted
	p.TransactionID = transactionID
	p.AuthorizationCode = authorizationCode
	p.CompletedAt = &now
	p.UpdatedAt = now
	p.IncrementVersion()

	p.AddDomainEvent(NewPaymentCompletedEvent(p))

	return nil
}

// Fail marks a processing payment as failed
func (p *Payment) Fail(errorMessage string) error {
	if !p.Status.CanTransitionTo(StatusFailed) {
		return shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Cannot fail a payment in %s status", p.Status))
	}
	if errorMessage == "" {
		return shared.NewDomainError(shared.CodeValidation, "Failure reason is required")
	}

	now := time.Now()
	p.Status = StatusFailed
	p.FailureReason = errorMessage
	p.FailedAt = &now
	p.UpdatedAt = now
	p.IncrementVersion()

	p.AddDomainEvent(NewPaymentFailedEvent(p))

	return nil
}

// Retry returns a failed payment to PENDING for another attempt.
// The retry count is bounded: once MaxRetries attempts have been used
// further retries fail with MAX_RETRIES_EXCEEDED.
func (p *Payment) Retry() error {
	if !p.Status.CanTransitionTo(StatusPending) {
		return shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Cannot retry a payment in %s status", p.Status))
	}
	if p.RetryCount >= p.MaxRetries {
		return shared.NewDomainError(shared.CodeMaxRetriesExceeded,
			fmt.Sprintf("Payment has reached the maximum of %d retry attempts", p.MaxRetries))
	}

	p.RetryCount++
	p.Status = StatusPending
	p.FailureReason = ""
	p.FailedAt = nil
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewPaymentRetriedEvent(p))

	return nil
}

// ProcessPartialRefund refunds part of a completed payment. The payment
// stays COMPLETED; only the refunded amount accumulates.
func (p *Payment) ProcessPartialRefund(amount valueobject.Money, reason string) error {
	if p.Status != StatusCompleted {
		return shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Cannot refund a payment in %s status", p.Status))
	}
	if amount.Currency() != p.Currency {
		return shared.NewDomainError(shared.CodeValidation, "Refund currency does not match payment currency")
	}
	if !amount.IsPositive() {
		return shared.NewDomainError(shared.CodeValidation, "Refund amount must be positive")
	}

	refundable := p.Amount.Sub(p.RefundedAmount)
	if amount.Amount().GreaterThan(refundable) {
		return shared.NewDomainError(shared.CodeValidation,
			fmt.Sprintf("Refund amount %s exceeds refundable amount %s", amount.Amount().StringFixed(2), refundable.StringFixed(2)))
	}

	p.RefundedAmount = p.RefundedAmount.Add(amount.Amount())
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewPaymentPartiallyRefundedEvent(p, amount.Amount(), reason))

	return nil
}

// AddPaymentSplit records a split while the payment is still pending.
// The cumulative split amount may not exceed the payment amount.
func (p *Payment) AddPaymentSplit(method Method, amount valueobject.Money, reference string) (*Split, error) {
	if p.Status != StatusPending {
		return nil, shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Cannot add splits to a payment in %s status", p.Status))
	}
	if amount.Currency() != p.Currency {
		return nil, shared.NewDomainError(shared.CodeValidation, "Split currency does not match payment currency")
	}

	split, err := NewSplit(p.ID, method, amount, reference)
	if err != nil {
		return nil, err
	}

	total := amount.Amount()
	for _, existing := range p.Splits {
		total = total.Add(existing.Amount)
	}
	if total.GreaterThan(p.Amount) {
		return nil, shared.NewDomainError(shared.CodeValidation,
			fmt.Sprintf("Cumulative split amount %s exceeds payment amount %s", total.StringFixed(2), p.Amount.StringFixed(2)))
	}

	p.Splits = append(p.Splits, *split)
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return &p.Splits[len(p.Splits)-1], nil
}

// Reconcile marks a completed payment as reconciled against an external
// statement. Reconciling an already reconciled payment is a no-op; the
// original reconciliation stands.
func (p *Payment) Reconcile(reference string) error {
	if p.Status != StatusCompleted {
		return shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Cannot reconcile a payment in %s status", p.Status))
	}
	if reference == "" {
		return shared.NewDomainError(shared.CodeValidation, "Reconciliation reference is required")
	}
	if p.ReconciledAt != nil {
		return nil
	}

	now := time.Now()
	p.ReconciledAt = &now
	p.ReconciliationRef = reference
	p.UpdatedAt = now
	p.IncrementVersion()

	p.AddDomainEvent(NewPaymentReconciledEvent(p))

	return nil
}

// RefundableAmount returns the amount still available for refund
func (p *Payment) RefundableAmount() decimal.Decimal {
	return p.Amount.Sub(p.RefundedAmount)
}

// GetAmountMoney returns the payment amount as Money
func (p *Payment) GetAmountMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(p.Amount, p.Currency)
	return m
}

// IsReconciled returns true once the payment has been reconciled
func (p *Payment) IsReconciled() bool {
	return p.ReconciledAt != nil
}

// CanRetry returns true if another retry attempt is permitted
func (p *Payment) CanRetry() bool {
	return p.Status == StatusFailed && p.RetryCount < p.MaxRetries
}
