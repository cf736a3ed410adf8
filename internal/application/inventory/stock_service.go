package inventory

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openpos/backend/internal/domain/inventory"
	"github.com/openpos/backend/internal/domain/shared"
)

// SummaryCache caches low stock report summaries per tenant.
// Implementations return a cache-miss error when no entry exists.
type SummaryCache interface {
	GetSummary(ctx context.Context, tenantID uuid.UUID) (*inventory.LowStockSummary, error)
	SetSummary(ctx context.Context, tenantID uuid.UUID, summary *inventory.LowStockSummary) error
	Invalidate(ctx context.Context, tenantID uuid.UUID) error
}

// StockService handles stock level operations and the low stock report
type StockService struct {
	stockRepo      inventory.StockLevelRepository
	summaryCache   SummaryCache
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewStockService creates a new StockService
func NewStockService(stockRepo inventory.StockLevelRepository, logger *zap.Logger) *StockService {
	return &StockService{
		stockRepo: stockRepo,
		logger:    logger,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *StockService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetSummaryCache enables caching of low stock report summaries
func (s *StockService) SetSummaryCache(cache SummaryCache) {
	s.summaryCache = cache
}

// GetByWarehouseAndProduct retrieves a stock level by its natural key
func (s *StockService) GetByWarehouseAndProduct(ctx context.Context, tenantID, warehouseID, productID uuid.UUID) (*StockLevelResponse, error) {
	level, err := s.stockRepo.FindByWarehouseAndProduct(ctx, tenantID, warehouseID, productID)
	if err != nil {
		return nil, err
	}
	response := ToStockLevelResponse(level)
	return &response, nil
}

// GetOrCreate returns the stock level for a warehouse-product pair, creating
// a zero-quantity record when none exists yet.
func (s *StockService) GetOrCreate(ctx context.Context, tenantID uuid.UUID, req CreateStockLevelRequest) (*StockLevelResponse, error) {
	level, err := s.stockRepo.FindByWarehouseAndProduct(ctx, tenantID, req.WarehouseID, req.ProductID)
	if err == nil {
		response := ToStockLevelResponse(level)
		return &response, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	level, err = inventory.NewStockLevel(tenantID, req.WarehouseID, req.ProductID, req.ProductName, req.ProductSKU, req.Unit)
	if err != nil {
		return nil, err
	}
	if err := s.stockRepo.Save(ctx, level); err != nil {
		return nil, err
	}

	response := ToStockLevelResponse(level)
	return &response, nil
}

// List retrieves stock levels with filtering and pagination
func (s *StockService) List(ctx context.Context, tenantID uuid.UUID, filter StockListFilter) ([]StockLevelResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "product_name"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "asc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}
	if filter.WarehouseID != nil {
		domainFilter.Filters["warehouse_id"] = *filter.WarehouseID
	}

	levels, err := s.stockRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.stockRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToStockLevelResponses(levels), total, nil
}

// AdjustStock applies a signed delta through the repository's atomic path.
// The negative-stock and unit guards run inside the database; there is no
// read-modify-write race to lose, and the audit event carries the old/new
// pair the statement itself produced.
func (s *StockService) AdjustStock(ctx context.Context, tenantID uuid.UUID, req AdjustStockRequest) (*StockLevelResponse, error) {
	if req.Delta.IsZero() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Adjustment delta cannot be zero")
	}
	if req.Reason == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Adjustment reason cannot be empty")
	}

	level, previous, err := s.stockRepo.AdjustQuantity(ctx, tenantID, req.WarehouseID, req.ProductID, req.Delta, req.Unit)
	if err != nil {
		return nil, err
	}

	s.invalidateSummary(ctx, tenantID)

	if s.eventPublisher != nil {
		event := inventory.NewStockAdjustedEvent(level, previous, level.QuantityOnHand, req.Delta, req.Reason)
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish stock adjusted event",
				zap.String("product_id", req.ProductID.String()),
				zap.Error(err),
			)
		}
	}

	response := ToStockLevelResponse(level)
	return &response, nil
}

// SetThresholds updates reorder parameters for a stock level
func (s *StockService) SetThresholds(ctx context.Context, tenantID uuid.UUID, req SetThresholdsRequest) (*StockLevelResponse, error) {
	level, err := s.stockRepo.FindByWarehouseAndProduct(ctx, tenantID, req.WarehouseID, req.ProductID)
	if err != nil {
		return nil, err
	}

	if req.MaxQuantity != nil {
		if err := level.SetMaxQuantity(*req.MaxQuantity); err != nil {
			return nil, err
		}
	}
	if req.ReorderLevel != nil {
		if err := level.SetReorderLevel(*req.ReorderLevel); err != nil {
			return nil, err
		}
	}
	if req.AllowNegativeStock != nil {
		level.SetAllowNegativeStock(*req.AllowNegativeStock)
	}

	if err := s.stockRepo.SaveWithLock(ctx, level); err != nil {
		return nil, err
	}

	s.invalidateSummary(ctx, tenantID)

	response := ToStockLevelResponse(level)
	return &response, nil
}

// GetLowStockReport assembles the low stock report: every stock level at or
// below its reorder threshold, most urgent first, with a tenant-wide summary.
// The summary is served from cache when warm; report rows are always fresh.
func (s *StockService) GetLowStockReport(ctx context.Context, tenantID uuid.UUID, filter LowStockReportFilter) (*LowStockReportResponse, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	domainFilter := inventory.LowStockFilter{
		WarehouseID:    filter.WarehouseID,
		OutOfStockOnly: filter.OutOfStockOnly,
		CriticalOnly:   filter.CriticalOnly,
	}

	levels, err := s.stockRepo.FindLowStock(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, err
	}

	items := make([]inventory.LowStockItem, len(levels))
	for i, level := range levels {
		items[i] = inventory.NewLowStockItem(level)
	}

	// Most urgent first, largest deficit breaking ties.
	sort.SliceStable(items, func(i, j int) bool {
		ri, rj := items[i].Urgency.Rank(), items[j].Urgency.Rank()
		if ri != rj {
			return ri < rj
		}
		return items[i].StockDeficit.GreaterThan(items[j].StockDeficit)
	})

	summary, err := s.getSummary(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	total := int64(len(items))
	start := (filter.Page - 1) * filter.PageSize
	if start > len(items) {
		start = len(items)
	}
	end := start + filter.PageSize
	if end > len(items) {
		end = len(items)
	}

	return &LowStockReportResponse{
		Items:    items[start:end],
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
		Summary:  summary,
	}, nil
}

// getSummary returns the tenant-wide low stock summary, computed over the
// unfiltered report so counts do not shift with the caller's filter.
func (s *StockService) getSummary(ctx context.Context, tenantID uuid.UUID) (*inventory.LowStockSummary, error) {
	if s.summaryCache != nil {
		if cached, err := s.summaryCache.GetSummary(ctx, tenantID); err == nil {
			return cached, nil
		}
	}

	levels, err := s.stockRepo.FindLowStock(ctx, tenantID, inventory.LowStockFilter{})
	if err != nil {
		return nil, err
	}

	summary := &inventory.LowStockSummary{}
	for _, level := range levels {
		summary.Accumulate(inventory.NewLowStockItem(level))
	}

	if s.summaryCache != nil {
		if err := s.summaryCache.SetSummary(ctx, tenantID, summary); err != nil {
			s.logger.Warn("failed to cache low stock summary",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err),
			)
		}
	}

	return summary, nil
}

func (s *StockService) invalidateSummary(ctx context.Context, tenantID uuid.UUID) {
	if s.summaryCache == nil {
		return
	}
	if err := s.summaryCache.Invalidate(ctx, tenantID); err != nil {
		s.logger.Warn("failed to invalidate low stock summary cache",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err),
		)
	}
}
