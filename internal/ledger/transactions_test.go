package ledger

import (
	"database/sql"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/streck/internal/models"
	"github.com/mmynk/streck/internal/storage"
)

func header(id int64) TransactionRow {
	return TransactionRow{
		ID:          id,
		GroupID:     1,
		CreatedBy:   2,
		CreatedTime: 1700000000,
	}
}

func depositRow(id, createdFor int64, total int64) TransactionRow {
	row := header(id)
	row.CreatedFor = sql.NullInt64{Int64: createdFor, Valid: true}
	row.Total = decimal.NewNullDecimal(decimal.NewFromInt(total))
	return row
}

func purchaseRow(id, createdFor, itemID int64, name string, price int64, quantity int64) TransactionRow {
	row := header(id)
	row.CreatedFor = sql.NullInt64{Int64: createdFor, Valid: true}
	row.ItemID = sql.NullInt64{Int64: itemID, Valid: true}
	row.DisplayName = sql.NullString{String: name, Valid: true}
	row.PurchasePrice = decimal.NewNullDecimal(decimal.NewFromInt(price))
	row.PurchasePriceLabel = sql.NullString{String: "member", Valid: true}
	row.Quantity = sql.NullInt64{Int64: quantity, Valid: true}
	return row
}

func stockRow(id, itemID, before, after int64) TransactionRow {
	row := header(id)
	row.StockItemID = sql.NullInt64{Int64: itemID, Valid: true}
	row.Before = sql.NullInt64{Int64: before, Valid: true}
	row.After = sql.NullInt64{Int64: after, Valid: true}
	return row
}

func TestDetermineTransactionKind(t *testing.T) {
	tests := []struct {
		name string
		rows []TransactionRow
		want models.TransactionKind
	}{
		{
			name: "deposit",
			rows: []TransactionRow{depositRow(1, 7, 50)},
			want: models.KindDeposit,
		},
		{
			name: "single line purchase",
			rows: []TransactionRow{purchaseRow(2, 7, 1, "Soda", 15, 1)},
			want: models.KindPurchase,
		},
		{
			name: "multi line purchase",
			rows: []TransactionRow{
				purchaseRow(2, 7, 1, "Soda", 15, 1),
				purchaseRow(2, 7, 2, "Chips", 10, 3),
			},
			want: models.KindPurchase,
		},
		{
			name: "stock update",
			rows: []TransactionRow{stockRow(3, 1, 0, 24), stockRow(3, 2, 5, 10)},
			want: models.KindStockUpdate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, err := DetermineTransactionKind(tt.rows)
			require.NoError(t, err)
			assert.Equal(t, tt.want, tx.Kind())
			assert.Equal(t, tt.rows[0].ID, tx.Header().ID)
		})
	}
}

func TestDetermineTransactionKindDeposit(t *testing.T) {
	tx, err := DetermineTransactionKind([]TransactionRow{depositRow(4, 7, 50)})
	require.NoError(t, err)

	deposit, ok := tx.(*models.Deposit)
	require.True(t, ok)
	assert.True(t, deposit.Total.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, int64(7), deposit.CreatedFor)
	assert.Equal(t, int64(1700000000), deposit.CreatedTime.Unix())
	assert.False(t, deposit.Flags.Removed)
}

func TestDetermineTransactionKindThreeLinePurchase(t *testing.T) {
	rows := []TransactionRow{
		purchaseRow(5, 7, 1, "Soda", 15, 2),
		purchaseRow(5, 7, 2, "Chips", 10, 1),
		purchaseRow(5, 7, 3, "Candy", 5, 4),
	}
	for i := range rows {
		rows[i].Total = decimal.NullDecimal{}
	}

	tx, err := DetermineTransactionKind(rows)
	require.NoError(t, err)

	purchase, ok := tx.(*models.Purchase)
	require.True(t, ok)
	require.Len(t, purchase.Items, 3)
	assert.Equal(t, "Soda", purchase.Items[0].DisplayName)
	assert.Equal(t, "Chips", purchase.Items[1].DisplayName)
	assert.Equal(t, "Candy", purchase.Items[2].DisplayName)
	assert.True(t, purchase.Total().Equal(decimal.NewFromInt(60)))
}

func TestDetermineTransactionKindKeepsSnapshots(t *testing.T) {
	row := purchaseRow(6, 7, 1, "Old Name", 12, 1)
	row.IconURL = sql.NullString{String: "https://example.com/old.png", Valid: true}
	row.PurchasePriceLabel = sql.NullString{String: "guest", Valid: true}

	tx, err := DetermineTransactionKind([]TransactionRow{row})
	require.NoError(t, err)

	line := tx.(*models.Purchase).Items[0]
	assert.Equal(t, "Old Name", line.DisplayName)
	assert.Equal(t, "https://example.com/old.png", line.IconURL)
	assert.Equal(t, "guest", line.PurchasePrice.Label)
	assert.True(t, line.PurchasePrice.Amount.Equal(decimal.NewFromInt(12)))
}

func TestDetermineTransactionKindRejects(t *testing.T) {
	ambiguous := purchaseRow(1, 7, 1, "Soda", 15, 1)
	ambiguous.Total = decimal.NewNullDecimal(decimal.NewFromInt(50))

	partialPurchase := header(2)
	partialPurchase.ItemID = sql.NullInt64{Int64: 1, Valid: true}

	tests := []struct {
		name string
		rows []TransactionRow
	}{
		{"empty", nil},
		{"no auxiliary columns", []TransactionRow{header(1)}},
		{"deposit and purchase", []TransactionRow{ambiguous}},
		{"purchase and stock", []TransactionRow{func() TransactionRow {
			r := purchaseRow(1, 7, 1, "Soda", 15, 1)
			r.StockItemID = sql.NullInt64{Int64: 1, Valid: true}
			r.Before = sql.NullInt64{Valid: true}
			r.After = sql.NullInt64{Int64: 3, Valid: true}
			return r
		}()}},
		{"partial purchase shape", []TransactionRow{partialPurchase}},
		{"deposit with extra rows", []TransactionRow{depositRow(1, 7, 50), depositRow(1, 7, 50)}},
		{"purchase followed by stock row", []TransactionRow{
			purchaseRow(1, 7, 1, "Soda", 15, 1),
			stockRow(1, 1, 0, 5),
		}},
		{"stock followed by purchase row", []TransactionRow{
			stockRow(1, 1, 0, 5),
			purchaseRow(1, 7, 1, "Soda", 15, 1),
		}},
		{"mixed transaction ids", []TransactionRow{stockRow(1, 1, 0, 5), stockRow(2, 1, 5, 6)}},
		{"deposit without beneficiary", []TransactionRow{func() TransactionRow {
			r := depositRow(1, 7, 50)
			r.CreatedFor = sql.NullInt64{}
			return r
		}()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, err := DetermineTransactionKind(tt.rows)
			require.ErrorIs(t, err, storage.ErrInvalidState)
			// a typed nil pointer inside the interface would pass assert.Nil
			assert.True(t, tx == nil, "got %T", tx)
		})
	}
}

func TestDetermineTransactionKindRemovedFlag(t *testing.T) {
	row := depositRow(1, 7, 50)
	row.Flags = sql.NullInt64{Int64: 1, Valid: true}
	row.Comment = sql.NullString{String: "refund", Valid: true}

	tx, err := DetermineTransactionKind([]TransactionRow{row})
	require.NoError(t, err)
	assert.True(t, tx.Header().Flags.Removed)
	assert.Equal(t, "refund", tx.Header().Comment)
}

func TestGroupTransactions(t *testing.T) {
	rows := []TransactionRow{
		purchaseRow(9, 7, 1, "Soda", 15, 1),
		purchaseRow(9, 7, 2, "Chips", 10, 1),
		depositRow(8, 7, 100),
		stockRow(3, 1, 0, 12),
	}

	txs, err := GroupTransactions(rows)
	require.NoError(t, err)
	require.Len(t, txs, 3)

	assert.Equal(t, int64(9), txs[0].Header().ID)
	assert.Equal(t, models.KindPurchase, txs[0].Kind())
	assert.Len(t, txs[0].(*models.Purchase).Items, 2)
	assert.Equal(t, models.KindDeposit, txs[1].Kind())
	assert.Equal(t, models.KindStockUpdate, txs[2].Kind())
}

func TestGroupTransactionsPropagatesInvalidState(t *testing.T) {
	_, err := GroupTransactions([]TransactionRow{depositRow(1, 7, 5), header(2)})
	require.ErrorIs(t, err, storage.ErrInvalidState)
}
