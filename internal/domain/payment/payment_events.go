package payment

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openpos/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypePayment = "Payment"

// Event type constants
const (
	EventTypePaymentCreated           = "PaymentCreated"
	EventTypePaymentProcessing        = "PaymentProcessing"
	EventTypePaymentCompleted         = "PaymentCompleted"
	EventTypePaymentFailed            = "PaymentFailed"
	EventTypePaymentRetried           = "PaymentRetried"
	EventTypePaymentPartiallyRefunded = "PaymentPartiallyRefunded"
	EventTypePaymentReconciled        = "PaymentReconciled"
)

// PaymentCreatedEvent is raised when a payment is created
type PaymentCreatedEvent struct {
	shared.BaseDomainEvent
	PaymentID uuid.UUID       `json:"payment_id"`
	SaleID    uuid.UUID       `json:"sale_id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
}

// NewPaymentCreatedEvent creates a new PaymentCreatedEvent
func NewPaymentCreatedEvent(p *Payment) *PaymentCreatedEvent {
	return &PaymentCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentCreated, AggregateTypePayment, p.ID, p.TenantID),
		PaymentID:       p.ID,
		SaleID:          p.SaleID,
		Amount:          p.Amount,
		Method:          string(p.Method),
	}
}

// PaymentProcessingEvent is raised when payment processing starts
type PaymentProcessingEvent struct {
	shared.BaseDomainEvent
	PaymentID uuid.UUID `json:"payment_id"`
	SaleID    uuid.UUID `json:"sale_id"`
}

// NewPaymentProcessingEvent creates a new PaymentProcessingEvent
func NewPaymentProcessingEvent(p *Payment) *PaymentProcessingEvent {
	return &PaymentProcessingEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentProcessing, AggregateTypePayment, p.ID, p.TenantID),
		PaymentID:       p.ID,
		SaleID:          p.SaleID,
	}
}

// PaymentCompletedEvent is raised when a payment completes
type PaymentCompletedEvent struct {
	shared.BaseDomainEvent
	PaymentID     uuid.UUID       `json:"payment_id"`
	SaleID        uuid.UUID       `json:"sale_id"`
	Amount        decimal.Decimal `json:"amount"`
	TransactionID string          `json:"transaction_id"`
}

// NewPaymentCompletedEvent creates a new PaymentCompletedEvent
func NewPaymentCompletedEvent(p *Payment) *PaymentCompletedEvent {
	return &PaymentCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentCompleted, AggregateTypePayment, p.ID, p.TenantID),
		PaymentID:       p.ID,
		SaleID:          p.SaleID,
		Amount:          p.Amount,
		TransactionID:   p.TransactionID,
	}
}

// PaymentFailedEvent is raised when a payment attempt fails
type PaymentFailedEvent struct {
	shared.BaseDomainEvent
	PaymentID     uuid.UUID `json:"payment_id"`
	SaleID        uuid.UUID `json:"sale_id"`
	FailureReason string    `json:"failure_reason"`
	RetryCount    int       `json:"retry_count"`
}

// NewPaymentFailedEvent creates a new PaymentFailedEvent
func NewPaymentFailedEvent(p *Payment) *PaymentFailedEvent {
	return &PaymentFailedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentFailed, AggregateTypePayment, p.ID, p.TenantID),
		PaymentID:       p.ID,
		SaleID:          p.SaleID,
		FailureReason:   p.FailureReason,
		RetryCount:      p.RetryCount,
	}
}

// PaymentRetriedEvent is raised when a failed payment is retried
type PaymentRetriedEvent struct {
	shared.BaseDomainEvent
	PaymentID  uuid.UUID `json:"payment_id"`
	SaleID     uuid.UUID `json:"sale_id"`
	RetryCount int       `json:"retry_count"`
}

// NewPaymentRetriedEvent creates a new PaymentRetriedEvent
func NewPaymentRetriedEvent(p *Payment) *PaymentRetriedEvent {
	return &PaymentRetriedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentRetried, AggregateTypePayment, p.ID, p.TenantID),
		PaymentID:       p.ID,
		SaleID:          p.SaleID,
		RetryCount:      p.RetryCount,
	}
}

// PaymentPartiallyRefundedEvent is raised when part of a payment is refunded
type PaymentPartiallyRefundedEvent struct {
	shared.BaseDomainEvent
	PaymentID      uuid.UUID       `json:"payment_id"`
	SaleID         uuid.UUID       `json:"sale_id"`
	RefundAmount   decimal.Decimal `json:"refund_amount"`
	RefundedAmount decimal.Decimal `json:"refunded_amount"` // Cumulative
	Reason         string          `json:"reason"`
}

// NewPaymentPartiallyRefundedEvent creates a new PaymentPartiallyRefundedEvent
func NewPaymentPartiallyRefundedEvent(p *Payment, refundAmount decimal.Decimal, reason string) *PaymentPartiallyRefundedEvent {
	return &PaymentPartiallyRefundedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentPartiallyRefunded, AggregateTypePayment, p.ID, p.TenantID),
		PaymentID:       p.ID,
		SaleID:          p.SaleID,
		RefundAmount:    refundAmount,
		RefundedAmount:  p.RefundedAmount,
		Reason:          reason,
	}
}

// PaymentReconciledEvent is raised when a payment is reconciled
type PaymentReconciledEvent struct {
	shared.BaseDomainEvent
	PaymentID         uuid.UUID `json:"payment_id"`
	SaleID            uuid.UUID `json:"sale_id"`
	ReconciliationRef string    `json:"reconciliation_ref"`
}

// NewPaymentReconciledEvent creates a new PaymentReconciledEvent
func NewPaymentReconciledEvent(p *Payment) *PaymentReconciledEvent {
	return &PaymentReconciledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentReconciled, AggregateTypePayment, p.ID, p.TenantID),
		PaymentID:       p.ID,
		SaleID:          p.SaleID,
		ReconciliationRef: p.ReconciliationRef,
	}
}
