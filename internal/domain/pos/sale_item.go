package pos

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openpos/backend/internal/domain/shared"
	"github.com/openpos/backend/internal/domain/shared/valueobject"
)

// SaleItem represents a line item on a sale. It is owned exclusively by its
// Sale: there is no independent lifecycle and all mutation goes through the
// owning aggregate's methods. Quantity and Unit together form the line's
// measured quantity; lines only ever combine quantities of the same unit.
type SaleItem struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key"`
	SaleID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductName     string          `gorm:"type:varchar(200);not null"`
	Quantity        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Unit            string          `gorm:"type:varchar(20);not null;default:''"` // Unit of measure; empty means unitless
	UnitPrice       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(7,4);not null"`  // 0-100, exclusive with DiscountAmount
	DiscountAmount  decimal.Decimal `gorm:"type:decimal(18,4);not null"` // Absolute line discount
	TotalPrice      decimal.Decimal `gorm:"type:decimal(18,4);not null"` // quantity*unitPrice - line discount
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName returns the table name for GORM
func (SaleItem) TableName() string {
	return "sale_items"
}

// newSaleItem creates a new sale line item with a computed total
func newSaleItem(saleID, productID uuid.UUID, productName string, quantity valueobject.Quantity, unitPrice, discountPercent, discountAmount decimal.Decimal) (*SaleItem, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Product ID cannot be empty")
	}
	if productName == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Product name cannot be empty")
	}
	if !quantity.IsPositive() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Unit price cannot be negative")
	}
	if discountPercent.IsNegative() || discountPercent.GreaterThan(decimal.NewFromInt(100)) {
		return nil, shared.NewDomainError(shared.CodeValidation, "Discount percent must be between 0 and 100")
	}
	if discountAmount.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Discount amount cannot be negative")
	}
	if discountPercent.IsPositive() && discountAmount.IsPositive() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Specify either a discount percent or a discount amount, not both")
	}

	now := time.Now()
	item := &SaleItem{
		ID:              uuid.New(),
		SaleID:          saleID,
		ProductID:       productID,
		ProductName:     productName,
		Quantity:        quantity.Amount(),
		Unit:            quantity.Unit(),
		UnitPrice:       unitPrice,
		DiscountPercent: discountPercent,
		DiscountAmount:  discountAmount,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	item.recalculate()

	return item, nil
}

// MeasuredQuantity returns the line quantity together with its unit of measure
func (i *SaleItem) MeasuredQuantity() valueobject.Quantity {
	q, _ := valueobject.NewQuantity(i.Quantity, i.Unit)
	return q
}

// updateQuantity replaces the measured quantity and recomputes the line
// total. The incoming unit must match the line's unit.
func (i *SaleItem) updateQuantity(quantity valueobject.Quantity) error {
	if !quantity.IsPositive() {
		return shared.NewDomainError(shared.CodeValidation, "Quantity must be positive")
	}
	if quantity.Unit() != i.Unit {
		return shared.NewDomainError(shared.CodeValidation,
			fmt.Sprintf("Quantity unit %q does not match line unit %q", quantity.Unit(), i.Unit))
	}

	i.Quantity = quantity.Amount()
	i.recalculate()
	i.UpdatedAt = time.Now()

	return nil
}

// recalculate recomputes TotalPrice from quantity, price and line discount.
// The line total is floored at zero.
func (i *SaleItem) recalculate() {
	gross := i.Quantity.Mul(i.UnitPrice)

	discount := i.DiscountAmount
	if i.DiscountPercent.IsPositive() {
		discount = gross.Mul(i.DiscountPercent).Div(decimal.NewFromInt(100)).Round(2)
	}

	total := gross.Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	i.TotalPrice = total
}

// LineDiscount returns the effective discount applied to this line
func (i *SaleItem) LineDiscount() decimal.Decimal {
	gross := i.Quantity.Mul(i.UnitPrice)
	return gross.Sub(i.TotalPrice)
}
