package calculator

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/streck/internal/models"
)

var (
	ErrEmptyPurchase    = errors.New("purchase must contain at least one item")
	ErrInvalidQuantity  = errors.New("item count must be greater than 0")
	ErrNegativeAmount   = errors.New("amount must not be negative")
	ErrDuplicateItem    = errors.New("item appears more than once")
	ErrNegativeStock    = errors.New("stock must not be negative")
	ErrEmptyStockUpdate = errors.New("stock update must contain at least one item")
	ErrAmountOutOfRange = errors.New("amount out of range")
)

// Amounts live in NUMERIC columns, which SQLite reads back as 64-bit floats
// once they carry a fraction. Cents below MaxAmount come back exactly.
const AmountPlaces = 2

var MaxAmount = decimal.New(1, 13)

// ValidateAmount checks that d has at most AmountPlaces decimal places and
// an absolute value below MaxAmount.
func ValidateAmount(d decimal.Decimal) error {
	if d.Abs().GreaterThanOrEqual(MaxAmount) {
		return fmt.Errorf("%w: %s is not below %s", ErrAmountOutOfRange, d, MaxAmount)
	}
	if !d.Equal(d.Truncate(AmountPlaces)) {
		return fmt.Errorf("%w: %s has more than %d decimal places", ErrAmountOutOfRange, d, AmountPlaces)
	}
	return nil
}

// PurchaseTotal returns the sum of quantity times price over all lines.
func PurchaseTotal(lines []models.NewPurchaseLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.PurchasePrice.Amount.Mul(decimal.NewFromInt(line.Quantity)))
	}
	return total
}

// ValidatePurchaseLines checks quantities and prices of a purchase.
// The same item may appear on several lines, e.g. at different prices.
func ValidatePurchaseLines(lines []models.NewPurchaseLine) error {
	if len(lines) == 0 {
		return ErrEmptyPurchase
	}
	for i, line := range lines {
		if line.Quantity < 1 {
			return fmt.Errorf("line %d: %w", i, ErrInvalidQuantity)
		}
		if line.PurchasePrice.Amount.IsNegative() {
			return fmt.Errorf("line %d: %w", i, ErrNegativeAmount)
		}
		if err := ValidateAmount(line.PurchasePrice.Amount); err != nil {
			return fmt.Errorf("line %d: %w", i, err)
		}
	}
	return nil
}

// ValidateStockLines checks that each item appears once with a
// non-negative target stock.
func ValidateStockLines(lines []models.NewStockLine) error {
	if len(lines) == 0 {
		return ErrEmptyStockUpdate
	}
	seen := make(map[int64]bool, len(lines))
	for _, line := range lines {
		if seen[line.ItemID] {
			return fmt.Errorf("item %d: %w", line.ItemID, ErrDuplicateItem)
		}
		seen[line.ItemID] = true
		if line.After < 0 {
			return fmt.Errorf("item %d: %w", line.ItemID, ErrNegativeStock)
		}
	}
	return nil
}
