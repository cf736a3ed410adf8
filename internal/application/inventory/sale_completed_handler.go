package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openpos/backend/internal/domain/pos"
	"github.com/openpos/backend/internal/domain/shared"
)

// SaleCompletedHandler handles SaleCompletedEvent and decrements stock for
// each sold line at the sale's warehouse
type SaleCompletedHandler struct {
	stockService *StockService
	logger       *zap.Logger
}

// NewSaleCompletedHandler creates a new handler for sale completed events
func NewSaleCompletedHandler(stockService *StockService, logger *zap.Logger) *SaleCompletedHandler {
	return &SaleCompletedHandler{
		stockService: stockService,
		logger:       logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *SaleCompletedHandler) EventTypes() []string {
	return []string{pos.EventTypeSaleCompleted}
}

// Handle processes a SaleCompletedEvent by decrementing stock per sold line
func (h *SaleCompletedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	completedEvent, ok := event.(*pos.SaleCompletedEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", pos.EventTypeSaleCompleted),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			pos.EventTypeSaleCompleted, event.EventType())
	}

	if completedEvent.WarehouseID == nil || *completedEvent.WarehouseID == uuid.Nil {
		h.logger.Warn("sale completed without a warehouse, skipping stock decrement",
			zap.String("sale_id", completedEvent.SaleID.String()),
			zap.String("sale_number", completedEvent.SaleNumber),
		)
		return nil
	}

	h.logger.Info("processing sale completed event",
		zap.String("sale_id", completedEvent.SaleID.String()),
		zap.String("sale_number", completedEvent.SaleNumber),
		zap.String("warehouse_id", completedEvent.WarehouseID.String()),
		zap.Int("lines", len(completedEvent.Lines)),
	)

	var failed []string
	for _, line := range completedEvent.Lines {
		req := AdjustStockRequest{
			WarehouseID: *completedEvent.WarehouseID,
			ProductID:   line.ProductID,
			Delta:       line.Quantity.Neg(),
			Unit:        line.Unit,
			Reason:      fmt.Sprintf("Sale %s completed", completedEvent.SaleNumber),
		}
		if _, err := h.stockService.AdjustStock(ctx, completedEvent.TenantID(), req); err != nil {
			h.logger.Error("failed to decrement stock for sold line",
				zap.String("sale_id", completedEvent.SaleID.String()),
				zap.String("product_id", line.ProductID.String()),
				zap.String("quantity", line.Quantity.String()),
				zap.Error(err),
			)
			failed = append(failed, line.ProductID.String())
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("failed to decrement stock for %d of %d lines: %v",
			len(failed), len(completedEvent.Lines), failed)
	}

	return nil
}
