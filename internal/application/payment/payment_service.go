package payment

import (
	"context"

	"github.com/google/uuid"

	"github.com/openpos/backend/internal/domain/payment"
	"github.com/openpos/backend/internal/domain/shared"
	"github.com/openpos/backend/internal/domain/shared/valueobject"
)

// PaymentService handles payment processing operations. Payments are created
// by completing a sale; this service drives their lifecycle afterwards.
type PaymentService struct {
	paymentRepo    payment.PaymentRepository
	eventPublisher shared.EventPublisher
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(paymentRepo payment.PaymentRepository) *PaymentService {
	return &PaymentService{
		paymentRepo: paymentRepo,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *PaymentService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// GetByID retrieves a payment by ID
func (s *PaymentService) GetByID(ctx context.Context, tenantID, paymentID uuid.UUID) (*PaymentResponse, error) {
	pmt, err := s.paymentRepo.FindByIDForTenant(ctx, tenantID, paymentID)
	if err != nil {
		return nil, err
	}
	response := ToPaymentResponse(pmt)
	return &response, nil
}

// ListBySale retrieves all payments recorded against a sale
func (s *PaymentService) ListBySale(ctx context.Context, tenantID, saleID uuid.UUID) ([]PaymentResponse, error) {
	payments, err := s.paymentRepo.FindBySale(ctx, tenantID, saleID)
	if err != nil {
		return nil, err
	}
	return ToPaymentResponses(payments), nil
}

// ListByStatus retrieves payments in a given status with pagination
func (s *PaymentService) ListByStatus(ctx context.Context, tenantID uuid.UUID, status payment.Status, filter PaymentListFilter) ([]PaymentResponse, error) {
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
	}

	payments, err := s.paymentRepo.FindByStatus(ctx, tenantID, status, domainFilter)
	if err != nil {
		return nil, err
	}
	return ToPaymentResponses(payments), nil
}

// Process moves a pending payment into PROCESSING
func (s *PaymentService) Process(ctx context.Context, tenantID, paymentID uuid.UUID) (*PaymentResponse, error) {
	return s.mutate(ctx, tenantID, paymentID, func(pmt *payment.Payment) error {
		return pmt.Process()
	})
}

// Complete records a successful gateway result for a processing payment
func (s *PaymentService) Complete(ctx context.Context, tenantID, paymentID uuid.UUID, req CompletePaymentRequest) (*PaymentResponse, error) {
	return s.mutate(ctx, tenantID, paymentID, func(pmt *payment.Payment) error {
		return pmt.Complete(req.TransactionID, req.AuthorizationCode)
	})
}

// Fail records a gateway failure for a processing payment
func (s *PaymentService) Fail(ctx context.Context, tenantID, paymentID uuid.UUID, req FailPaymentRequest) (*PaymentResponse, error) {
	return s.mutate(ctx, tenantID, paymentID, func(pmt *payment.Payment) error {
		return pmt.Fail(req.Reason)
	})
}

// Retry returns a failed payment to PENDING for another attempt. The retry
// budget is enforced by the aggregate; exhaustion surfaces as
// MAX_RETRIES_EXCEEDED.
func (s *PaymentService) Retry(ctx context.Context, tenantID, paymentID uuid.UUID) (*PaymentResponse, error) {
	return s.mutate(ctx, tenantID, paymentID, func(pmt *payment.Payment) error {
		return pmt.Retry()
	})
}

// PartialRefund refunds part of a completed payment
func (s *PaymentService) PartialRefund(ctx context.Context, tenantID, paymentID uuid.UUID, req PartialRefundRequest) (*PaymentResponse, error) {
	return s.mutate(ctx, tenantID, paymentID, func(pmt *payment.Payment) error {
		amount, err := valueobject.NewMoney(req.Amount, pmt.Currency)
		if err != nil {
			return err
		}
		return pmt.ProcessPartialRefund(amount, req.Reason)
	})
}

// AddSplit records one tender of a multi-method payment
func (s *PaymentService) AddSplit(ctx context.Context, tenantID, paymentID uuid.UUID, req AddSplitRequest) (*PaymentResponse, error) {
	return s.mutate(ctx, tenantID, paymentID, func(pmt *payment.Payment) error {
		amount, err := valueobject.NewMoney(req.Amount, pmt.Currency)
		if err != nil {
			return err
		}
		_, err = pmt.AddPaymentSplit(payment.Method(req.Method), amount, req.Reference)
		return err
	})
}

// Reconcile marks a payment as matched against an external settlement
// record. Reconciling twice with the same reference is a no-op.
func (s *PaymentService) Reconcile(ctx context.Context, tenantID, paymentID uuid.UUID, req ReconcileRequest) (*PaymentResponse, error) {
	return s.mutate(ctx, tenantID, paymentID, func(pmt *payment.Payment) error {
		return pmt.Reconcile(req.Reference)
	})
}

// mutate loads a payment, applies a state change, saves with optimistic
// locking, and publishes the drained domain events.
func (s *PaymentService) mutate(ctx context.Context, tenantID, paymentID uuid.UUID, fn func(*payment.Payment) error) (*PaymentResponse, error) {
	pmt, err := s.paymentRepo.FindByIDForTenant(ctx, tenantID, paymentID)
	if err != nil {
		return nil, err
	}

	if err := fn(pmt); err != nil {
		return nil, err
	}

	if err := s.paymentRepo.SaveWithLock(ctx, pmt); err != nil {
		return nil, err
	}

	if s.eventPublisher != nil {
		for _, event := range pmt.GetDomainEvents() {
			if err := s.eventPublisher.Publish(ctx, event); err != nil {
				// Best-effort; the state change is already persisted.
				continue
			}
		}
		pmt.ClearDomainEvents()
	}

	response := ToPaymentResponse(pmt)
	return &response, nil
}
