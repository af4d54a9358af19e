package sqlite

import (
	"database/sql"

	"github.com/shopspring/decimal"

	"github.com/mmynk/streck/internal/ledger"
	"github.com/mmynk/streck/internal/models"
)

// rowReader reads typed columns from a Row and keeps the first error, so a
// scan can read every column and check once at the end.
type rowReader struct {
	row Row
	err error
}

func (r *rowReader) readInt(column string) int64 {
	if r.err != nil {
		return 0
	}
	v, err := r.row.Int64(column)
	r.err = err
	return v
}

func (r *rowReader) readNullInt(column string) sql.NullInt64 {
	if r.err != nil {
		return sql.NullInt64{}
	}
	v, err := r.row.NullInt64(column)
	r.err = err
	return v
}

func (r *rowReader) readText(column string) string {
	if r.err != nil {
		return ""
	}
	v, err := r.row.String(column)
	r.err = err
	return v
}

func (r *rowReader) readNullText(column string) sql.NullString {
	if r.err != nil {
		return sql.NullString{}
	}
	v, err := r.row.NullString(column)
	r.err = err
	return v
}

func (r *rowReader) readBool(column string) bool {
	if r.err != nil {
		return false
	}
	v, err := r.row.Bool(column)
	r.err = err
	return v
}

func (r *rowReader) readDecimal(column string) decimal.Decimal {
	if r.err != nil {
		return decimal.Zero
	}
	v, err := r.row.Decimal(column)
	r.err = err
	return v
}

func (r *rowReader) readNullDecimal(column string) decimal.NullDecimal {
	if r.err != nil {
		return decimal.NullDecimal{}
	}
	v, err := r.row.NullDecimal(column)
	r.err = err
	return v
}

const userColumns = `id, external_id, group_id, group_external_id, balance`

func scanUser(row Row) (models.User, error) {
	r := rowReader{row: row}
	user := models.User{
		ID:              r.readInt("id"),
		ExternalID:      r.readText("external_id"),
		GroupID:         r.readInt("group_id"),
		GroupExternalID: r.readText("group_external_id"),
		Balance:         r.readDecimal("balance"),
	}
	return user, r.err
}

func scanUsers(res *Result) ([]models.User, error) {
	users := make([]models.User, 0, res.Len())
	for i := range res.Len() {
		user, err := scanUser(res.Row(i))
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func scanItemPriceRows(res *Result) ([]ledger.ItemPriceRow, error) {
	rows := make([]ledger.ItemPriceRow, 0, res.Len())
	for i := range res.Len() {
		r := rowReader{row: res.Row(i)}
		row := ledger.ItemPriceRow{
			ID:             r.readInt("id"),
			GroupID:        r.readInt("group_id"),
			DisplayName:    r.readText("display_name"),
			IconURL:        r.readNullText("icon_url"),
			CreatedTime:    r.readInt("created_time"),
			Flags:          r.readNullInt("flags"),
			Stock:          r.readInt("stock"),
			TimesPurchased: r.readInt("times_purchased"),
			Favorite:       r.readBool("favorite"),
			PriceAmount:    r.readDecimal("price_amount"),
			PriceLabel:     r.readText("price_label"),
		}
		if r.err != nil {
			return nil, r.err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func scanTransactionRows(res *Result) ([]ledger.TransactionRow, error) {
	rows := make([]ledger.TransactionRow, 0, res.Len())
	for i := range res.Len() {
		r := rowReader{row: res.Row(i)}
		row := ledger.TransactionRow{
			ID:                 r.readInt("id"),
			GroupID:            r.readInt("group_id"),
			CreatedBy:          r.readInt("created_by"),
			CreatedTime:        r.readInt("created_time"),
			Comment:            r.readNullText("comment"),
			Flags:              r.readNullInt("flags"),
			CreatedFor:         r.readNullInt("created_for"),
			Total:              r.readNullDecimal("total"),
			ItemID:             r.readNullInt("item_id"),
			DisplayName:        r.readNullText("display_name"),
			IconURL:            r.readNullText("icon_url"),
			PurchasePrice:      r.readNullDecimal("purchase_price"),
			PurchasePriceLabel: r.readNullText("purchase_price_label"),
			Quantity:           r.readNullInt("quantity"),
			StockItemID:        r.readNullInt("stock_item_id"),
			Before:             r.readNullInt("before_stock"),
			After:              r.readNullInt("after_stock"),
		}
		if r.err != nil {
			return nil, r.err
		}
		rows = append(rows, row)
	}
	return rows, nil
}
