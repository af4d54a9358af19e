package calculator

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/mmynk/streck/internal/models"
)

func line(itemID, quantity int64, amount string) models.NewPurchaseLine {
	return models.NewPurchaseLine{
		ItemID:        itemID,
		Quantity:      quantity,
		PurchasePrice: models.Price{Amount: decimal.RequireFromString(amount), Label: "member"},
	}
}

func TestPurchaseTotal(t *testing.T) {
	tests := []struct {
		name  string
		lines []models.NewPurchaseLine
		want  string
	}{
		{"empty", nil, "0"},
		{"single line", []models.NewPurchaseLine{line(1, 3, "15")}, "45"},
		{"fractional prices", []models.NewPurchaseLine{line(1, 3, "0.10"), line(2, 1, "0.20")}, "0.5"},
		{"same item twice", []models.NewPurchaseLine{line(1, 1, "15"), line(1, 2, "20")}, "55"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PurchaseTotal(tt.lines)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestValidatePurchaseLines(t *testing.T) {
	tests := []struct {
		name  string
		lines []models.NewPurchaseLine
		want  error
	}{
		{"valid", []models.NewPurchaseLine{line(1, 1, "15"), line(1, 2, "0")}, nil},
		{"empty", nil, ErrEmptyPurchase},
		{"zero quantity", []models.NewPurchaseLine{line(1, 0, "15")}, ErrInvalidQuantity},
		{"negative quantity", []models.NewPurchaseLine{line(1, -2, "15")}, ErrInvalidQuantity},
		{"negative price", []models.NewPurchaseLine{line(1, 1, "-1")}, ErrNegativeAmount},
		{"sub-cent price", []models.NewPurchaseLine{line(1, 1, "0.005")}, ErrAmountOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePurchaseLines(tt.lines)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestValidateAmount(t *testing.T) {
	tests := []struct {
		amount string
		valid  bool
	}{
		{"0", true},
		{"0.10", true},
		{"-25.50", true},
		{"9999999999999.99", true},
		{"-9999999999999.99", true},
		{"10000000000000", false},
		{"-10000000000000", false},
		{"1234567890123456.78", false},
		{"12345678901234567890", false},
		{"0.001", false},
		{"1.230", true},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			err := ValidateAmount(decimal.RequireFromString(tt.amount))
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrAmountOutOfRange)
		})
	}
}

func TestValidateStockLines(t *testing.T) {
	tests := []struct {
		name  string
		lines []models.NewStockLine
		want  error
	}{
		{"valid", []models.NewStockLine{{ItemID: 1, After: 0}, {ItemID: 2, After: 24}}, nil},
		{"empty", nil, ErrEmptyStockUpdate},
		{"duplicate", []models.NewStockLine{{ItemID: 1, After: 1}, {ItemID: 1, After: 2}}, ErrDuplicateItem},
		{"negative", []models.NewStockLine{{ItemID: 1, After: -1}}, ErrNegativeStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStockLines(tt.lines)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}
