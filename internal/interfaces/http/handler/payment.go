package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	paymentapp "github.com/openpos/backend/internal/application/payment"
	"github.com/openpos/backend/internal/domain/payment"
)

// PaymentHandler handles payment API endpoints
type PaymentHandler struct {
	BaseHandler
	paymentService *paymentapp.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService *paymentapp.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// RegisterRoutes registers payment routes on the API group
func (h *PaymentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	payments := rg.Group("/payments")
	{
		payments.GET("/:id", h.GetByID)
		payments.GET("", h.ListByStatus)
		payments.POST("/:id/process", h.Process)
		payments.POST("/:id/complete", h.Complete)
		payments.POST("/:id/fail", h.Fail)
		payments.POST("/:id/retry", h.Retry)
		payments.POST("/:id/refund", h.PartialRefund)
		payments.POST("/:id/splits", h.AddSplit)
		payments.POST("/:id/reconcile", h.Reconcile)
	}

	rg.GET("/sales/:id/payments", h.ListBySale)
}

// GetByID retrieves a payment by ID
func (h *PaymentHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.MissingTenant(c)
		return
	}

	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}

	pmt, err := h.paymentService.GetByID(c.Request.Context(), tenantID, paymentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, pmt)
}

// ListBySale retrieves all payments recorded against a sale
func (h *PaymentHandler) ListBySale(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.MissingTenant(c)
		return
	}

	saleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid sale ID format")
		return
	}

	payments, err := h.paymentService.ListBySale(c.Request.Context(), tenantID, saleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, payments)
}

// ListByStatus retrieves payments filtered by status
func (h *PaymentHandler) ListByStatus(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.MissingTenant(c)
		return
	}

	status := payment.Status(c.Query("status"))
	if !status.IsValid() {
		h.BadRequest(c, "A valid status query parameter is required")
		return
	}

	var filter paymentapp.PaymentListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	payments, err := h.paymentService.ListByStatus(c.Request.Context(), tenantID, status, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, payments)
}

// Process moves a pending payment into PROCESSING
func (h *PaymentHandler) Process(c *gin.Context) {
	h.transition(c, h.paymentService.Process)
}

// Retry returns a failed payment to PENDING for another attempt
func (h *PaymentHandler) Retry(c *gin.Context) {
	h.transition(c, h.paymentService.Retry)
}

// Complete records a successful gateway result
func (h *PaymentHandler) Complete(c *gin.Context) {
	tenantID, paymentID, ok := h.tenantAndID(c)
	if !ok {
		return
	}

	var req paymentapp.CompletePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	pmt, err := h.paymentService.Complete(c.Request.Context(), tenantID, paymentID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, pmt)
}

// Fail records a gateway failure
func (h *PaymentHandler) Fail(c *gin.Context) {
	tenantID, paymentID, ok := h.tenantAndID(c)
	if !ok {
		return
	}

	var req paymentapp.FailPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	pmt, err := h.paymentService.Fail(c.Request.Context(), tenantID, paymentID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, pmt)
}

// PartialRefund refunds part of a completed payment
func (h *PaymentHandler) PartialRefund(c *gin.Context) {
	tenantID, paymentID, ok := h.tenantAndID(c)
	if !ok {
		return
	}

	var req paymentapp.PartialRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	pmt, err := h.paymentService.PartialRefund(c.Request.Context(), tenantID, paymentID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, pmt)
}

// AddSplit records one tender of a multi-method payment
func (h *PaymentHandler) AddSplit(c *gin.Context) {
	tenantID, paymentID, ok := h.tenantAndID(c)
	if !ok {
		return
	}

	var req paymentapp.AddSplitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	pmt, err := h.paymentService.AddSplit(c.Request.Context(), tenantID, paymentID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, pmt)
}

// Reconcile marks a payment as matched against a settlement record
func (h *PaymentHandler) Reconcile(c *gin.Context) {
	tenantID, paymentID, ok := h.tenantAndID(c)
	if !ok {
		return
	}

	var req paymentapp.ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	pmt, err := h.paymentService.Reconcile(c.Request.Context(), tenantID, paymentID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, pmt)
}

func (h *PaymentHandler) tenantAndID(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.MissingTenant(c)
		return uuid.Nil, uuid.Nil, false
	}

	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return uuid.Nil, uuid.Nil, false
	}

	return tenantID, paymentID, true
}

func (h *PaymentHandler) transition(c *gin.Context, fn func(ctx context.Context, tenantID, paymentID uuid.UUID) (*paymentapp.PaymentResponse, error)) {
	tenantID, paymentID, ok := h.tenantAndID(c)
	if !ok {
		return
	}

	pmt, err := fn(c.Request.Context(), tenantID, paymentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, pmt)
}
