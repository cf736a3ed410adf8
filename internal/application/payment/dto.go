package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openpos/backend/internal/domain/payment"
)

// ==================== Payment DTOs ====================

// CompletePaymentRequest carries the gateway result for a processing payment
type CompletePaymentRequest struct {
	TransactionID     string `json:"transaction_id" binding:"required,min=1,max=100"`
	AuthorizationCode string `json:"authorization_code"`
}

// FailPaymentRequest records why a processing payment failed
type FailPaymentRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// PartialRefundRequest represents a request to refund part of a payment
type PartialRefundRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Reason string          `json:"reason" binding:"required,min=1,max=500"`
}

// AddSplitRequest records one tender of a multi-method payment
type AddSplitRequest struct {
	Method    string          `json:"method" binding:"required"`
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	Reference string          `json:"reference"`
}

// ReconcileRequest marks a payment as matched against a settlement record
type ReconcileRequest struct {
	Reference string `json:"reference" binding:"required,min=1,max=100"`
}

// PaymentListFilter represents filter options for payment lists
type PaymentListFilter struct {
	Page     int    `form:"page" binding:"min=0"`
	PageSize int    `form:"page_size" binding:"min=0,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// SplitResponse represents a payment split in API responses
type SplitResponse struct {
	ID        uuid.UUID       `json:"id"`
	Method    string          `json:"method"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID                uuid.UUID       `json:"id"`
	TenantID          uuid.UUID       `json:"tenant_id"`
	SaleID            uuid.UUID       `json:"sale_id"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency"`
	Method            string          `json:"method"`
	Status            string          `json:"status"`
	Reference         string          `json:"reference,omitempty"`
	TransactionID     string          `json:"transaction_id,omitempty"`
	AuthorizationCode string          `json:"authorization_code,omitempty"`
	FailureReason     string          `json:"failure_reason,omitempty"`
	RetryCount        int             `json:"retry_count"`
	MaxRetries        int             `json:"max_retries"`
	RefundedAmount    decimal.Decimal `json:"refunded_amount"`
	RefundableAmount  decimal.Decimal `json:"refundable_amount"`
	Splits            []SplitResponse `json:"splits,omitempty"`
	ReconciledAt      *time.Time      `json:"reconciled_at,omitempty"`
	ReconciliationRef string          `json:"reconciliation_ref,omitempty"`
	ProcessedAt       *time.Time      `json:"processed_at,omitempty"`
	CompletedAt       *time.Time      `json:"completed_at,omitempty"`
	FailedAt          *time.Time      `json:"failed_at,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// ToSplitResponse converts a domain split to a response DTO
func ToSplitResponse(split *payment.Split) SplitResponse {
	return SplitResponse{
		ID:        split.ID,
		Method:    string(split.Method),
		Amount:    split.Amount,
		Reference: split.Reference,
		CreatedAt: split.CreatedAt,
	}
}

// ToPaymentResponse converts a domain payment to a response DTO
func ToPaymentResponse(p *payment.Payment) PaymentResponse {
	splits := make([]SplitResponse, len(p.Splits))
	for i := range p.Splits {
		splits[i] = ToSplitResponse(&p.Splits[i])
	}

	return PaymentResponse{
		ID:                p.ID,
		TenantID:          p.TenantID,
		SaleID:            p.SaleID,
		Amount:            p.Amount,
		Currency:          string(p.Currency),
		Method:            string(p.Method),
		Status:            string(p.Status),
		Reference:         p.Reference,
		TransactionID:     p.TransactionID,
		AuthorizationCode: p.AuthorizationCode,
		FailureReason:     p.FailureReason,
		RetryCount:        p.RetryCount,
		MaxRetries:        p.MaxRetries,
		RefundedAmount:    p.RefundedAmount,
		RefundableAmount:  p.RefundableAmount(),
		Splits:            splits,
		ReconciledAt:      p.ReconciledAt,
		ReconciliationRef: p.ReconciliationRef,
		ProcessedAt:       p.ProcessedAt,
		CompletedAt:       p.CompletedAt,
		FailedAt:          p.FailedAt,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

// ToPaymentResponses converts a slice of domain payments to response DTOs
func ToPaymentResponses(payments []payment.Payment) []PaymentResponse {
	responses := make([]PaymentResponse, len(payments))
	for i := range payments {
		responses[i] = ToPaymentResponse(&payments[i])
	}
	return responses
}
