package ledger

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/streck/internal/flags"
	"github.com/mmynk/streck/internal/models"
	"github.com/mmynk/streck/internal/storage"
)

// TransactionRow is one row of a transaction left-joined against its
// deposit, purchased-item and stock-update rows. Header columns repeat on
// every row of one transaction.
type TransactionRow struct {
	ID          int64
	GroupID     int64
	CreatedBy   int64
	CreatedTime int64 // unix seconds
	Comment     sql.NullString
	Flags       sql.NullInt64

	// CreatedFor is set for deposits and purchases.
	CreatedFor sql.NullInt64

	// Deposit columns.
	Total decimal.NullDecimal

	// Purchased-item columns.
	ItemID             sql.NullInt64
	DisplayName        sql.NullString
	IconURL            sql.NullString
	PurchasePrice      decimal.NullDecimal
	PurchasePriceLabel sql.NullString
	Quantity           sql.NullInt64

	// Stock-update columns.
	StockItemID sql.NullInt64
	Before      sql.NullInt64
	After       sql.NullInt64
}

func (r TransactionRow) isDeposit() bool {
	return r.Total.Valid
}

func (r TransactionRow) isPurchasedItem() bool {
	return r.ItemID.Valid && r.DisplayName.Valid && r.PurchasePrice.Valid
}

func (r TransactionRow) isStockUpdate() bool {
	return r.StockItemID.Valid && r.Before.Valid && r.After.Valid
}

func (r TransactionRow) kinds() []models.TransactionKind {
	var kinds []models.TransactionKind
	if r.isDeposit() {
		kinds = append(kinds, models.KindDeposit)
	}
	if r.isPurchasedItem() {
		kinds = append(kinds, models.KindPurchase)
	}
	if r.isStockUpdate() {
		kinds = append(kinds, models.KindStockUpdate)
	}
	return kinds
}

// DetermineTransactionKind reconstructs one transaction from its joined rows.
//
// The kind is read from the first row: a deposit total, a purchased-item
// shape or a stock-update shape. Exactly one must match. Deposits are built
// from the first row alone and must not carry more rows; purchases and stock
// updates take one line per row and every row must have the same shape.
func DetermineTransactionKind(rows []TransactionRow) (models.Transaction, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: transaction has no rows", storage.ErrInvalidState)
	}

	first := rows[0]
	for _, row := range rows[1:] {
		if row.ID != first.ID {
			return nil, fmt.Errorf("%w: rows of transactions %d and %d mixed in one group",
				storage.ErrInvalidState, first.ID, row.ID)
		}
	}

	kinds := first.kinds()
	if len(kinds) != 1 {
		return nil, fmt.Errorf("%w: transaction %d matches %d kinds %v",
			storage.ErrInvalidState, first.ID, len(kinds), kinds)
	}

	header := headerFromRow(first)
	switch kinds[0] {
	case models.KindDeposit:
		d, err := depositFromRows(header, rows)
		if err != nil {
			return nil, err
		}
		return d, nil
	case models.KindPurchase:
		p, err := purchaseFromRows(header, rows)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		u, err := stockUpdateFromRows(header, rows)
		if err != nil {
			return nil, err
		}
		return u, nil
	}
}

// GroupTransactions reconstructs every transaction in rows, in the order
// their ids were first seen.
func GroupTransactions(rows []TransactionRow) ([]models.Transaction, error) {
	order, groups := partition(rows, func(r TransactionRow) int64 { return r.ID })

	transactions := make([]models.Transaction, 0, len(order))
	for _, id := range order {
		tx, err := DetermineTransactionKind(groups[id])
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}
	return transactions, nil
}

func headerFromRow(row TransactionRow) models.TransactionHeader {
	return models.TransactionHeader{
		ID:          row.ID,
		GroupID:     row.GroupID,
		CreatedBy:   row.CreatedBy,
		CreatedTime: time.Unix(row.CreatedTime, 0).UTC(),
		Comment:     row.Comment.String,
		Flags:       flags.TransactionFlagsFrom(nullableInt(row.Flags)),
	}
}

func depositFromRows(header models.TransactionHeader, rows []TransactionRow) (*models.Deposit, error) {
	if len(rows) != 1 {
		return nil, fmt.Errorf("%w: deposit %d has %d rows", storage.ErrInvalidState, header.ID, len(rows))
	}
	row := rows[0]
	if !row.CreatedFor.Valid {
		return nil, fmt.Errorf("%w: deposit %d has no beneficiary", storage.ErrInvalidState, header.ID)
	}
	return &models.Deposit{
		TransactionHeader: header,
		CreatedFor:        row.CreatedFor.Int64,
		Total:             row.Total.Decimal,
	}, nil
}

func purchaseFromRows(header models.TransactionHeader, rows []TransactionRow) (*models.Purchase, error) {
	if !rows[0].CreatedFor.Valid {
		return nil, fmt.Errorf("%w: purchase %d has no beneficiary", storage.ErrInvalidState, header.ID)
	}

	lines := make([]models.PurchasedItem, 0, len(rows))
	for i, row := range rows {
		if row.isDeposit() || row.isStockUpdate() || !row.isPurchasedItem() || !row.Quantity.Valid {
			return nil, fmt.Errorf("%w: purchase %d row %d is not a purchased item",
				storage.ErrInvalidState, header.ID, i)
		}
		lines = append(lines, models.PurchasedItem{
			ItemID:      row.ItemID.Int64,
			DisplayName: row.DisplayName.String,
			IconURL:     row.IconURL.String,
			Quantity:    row.Quantity.Int64,
			PurchasePrice: models.Price{
				Amount: row.PurchasePrice.Decimal,
				Label:  row.PurchasePriceLabel.String,
			},
		})
	}

	return &models.Purchase{
		TransactionHeader: header,
		CreatedFor:        rows[0].CreatedFor.Int64,
		Items:             lines,
	}, nil
}

func stockUpdateFromRows(header models.TransactionHeader, rows []TransactionRow) (*models.StockUpdate, error) {
	lines := make([]models.ItemStockUpdate, 0, len(rows))
	for i, row := range rows {
		if row.isDeposit() || row.isPurchasedItem() || !row.isStockUpdate() {
			return nil, fmt.Errorf("%w: stock update %d row %d is not a stock line",
				storage.ErrInvalidState, header.ID, i)
		}
		lines = append(lines, models.ItemStockUpdate{
			ItemID: row.StockItemID.Int64,
			Before: row.Before.Int64,
			After:  row.After.Int64,
		})
	}

	return &models.StockUpdate{
		TransactionHeader: header,
		Items:             lines,
	}, nil
}
