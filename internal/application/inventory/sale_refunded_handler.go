package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openpos/backend/internal/domain/pos"
	"github.com/openpos/backend/internal/domain/shared"
)

// SaleRefundedHandler handles SaleRefundedEvent and restores stock for each
// refunded line at the sale's warehouse
type SaleRefundedHandler struct {
	stockService *StockService
	logger       *zap.Logger
}

// NewSaleRefundedHandler creates a new handler for sale refunded events
func NewSaleRefundedHandler(stockService *StockService, logger *zap.Logger) *SaleRefundedHandler {
	return &SaleRefundedHandler{
		stockService: stockService,
		logger:       logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *SaleRefundedHandler) EventTypes() []string {
	return []string{pos.EventTypeSaleRefunded}
}

// Handle processes a SaleRefundedEvent by restoring stock per refunded line
func (h *SaleRefundedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	refundedEvent, ok := event.(*pos.SaleRefundedEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", pos.EventTypeSaleRefunded),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			pos.EventTypeSaleRefunded, event.EventType())
	}

	if refundedEvent.WarehouseID == nil || *refundedEvent.WarehouseID == uuid.Nil {
		h.logger.Warn("sale refunded without a warehouse, skipping stock restore",
			zap.String("sale_id", refundedEvent.SaleID.String()),
			zap.String("sale_number", refundedEvent.SaleNumber),
		)
		return nil
	}

	h.logger.Info("processing sale refunded event",
		zap.String("sale_id", refundedEvent.SaleID.String()),
		zap.String("sale_number", refundedEvent.SaleNumber),
		zap.Int("lines", len(refundedEvent.Lines)),
	)

	var failed []string
	for _, line := range refundedEvent.Lines {
		req := AdjustStockRequest{
			WarehouseID: *refundedEvent.WarehouseID,
			ProductID:   line.ProductID,
			Delta:       line.Quantity,
			Unit:        line.Unit,
			Reason:      fmt.Sprintf("Sale %s refunded", refundedEvent.SaleNumber),
		}
		if _, err := h.stockService.AdjustStock(ctx, refundedEvent.TenantID(), req); err != nil {
			h.logger.Error("failed to restore stock for refunded line",
				zap.String("sale_id", refundedEvent.SaleID.String()),
				zap.String("product_id", line.ProductID.String()),
				zap.Error(err),
			)
			failed = append(failed, line.ProductID.String())
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("failed to restore stock for %d of %d lines: %v",
			len(failed), len(refundedEvent.Lines), failed)
	}

	return nil
}
