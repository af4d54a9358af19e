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

// ItemPriceRow is one row of an item joined against one of its prices.
// Every column except PriceAmount and PriceLabel repeats across the rows of
// one item, Favorite included.
type ItemPriceRow struct {
	ID             int64
	GroupID        int64
	DisplayName    string
	IconURL        sql.NullString
	CreatedTime    int64 // unix seconds
	Flags          sql.NullInt64
	Stock          int64
	TimesPurchased int64
	Favorite       bool

	PriceAmount decimal.Decimal
	PriceLabel  string
}

// GroupItemWithPrices folds the rows of a single item. Scalar fields and the
// favorite flag come from the first row, one price per row in arrival order.
// An empty input is ErrInvalidState: an item always has at least one price.
func GroupItemWithPrices(rows []ItemPriceRow) (models.Item, []models.Price, bool, error) {
	if len(rows) == 0 {
		return models.Item{}, nil, false, fmt.Errorf("%w: item has no price rows", storage.ErrInvalidState)
	}

	first := rows[0]
	prices := make([]models.Price, 0, len(rows))
	for _, row := range rows {
		if row.ID != first.ID {
			return models.Item{}, nil, false, fmt.Errorf("%w: rows of items %d and %d mixed in one group",
				storage.ErrInvalidState, first.ID, row.ID)
		}
		prices = append(prices, models.Price{
			Amount: row.PriceAmount,
			Label:  row.PriceLabel,
		})
	}

	return itemFromRow(first), prices, first.Favorite, nil
}

// GroupItemsWithPrices folds rows of any number of items, keeping items in
// first-seen order and prices in arrival order within each item.
func GroupItemsWithPrices(rows []ItemPriceRow) ([]models.ItemWithPrices, error) {
	order, groups := partition(rows, func(r ItemPriceRow) int64 { return r.ID })

	items := make([]models.ItemWithPrices, 0, len(order))
	for _, id := range order {
		item, prices, favorite, err := GroupItemWithPrices(groups[id])
		if err != nil {
			return nil, err
		}
		items = append(items, models.ItemWithPrices{
			Item:     item,
			Prices:   prices,
			Favorite: favorite,
		})
	}
	return items, nil
}

func itemFromRow(row ItemPriceRow) models.Item {
	return models.Item{
		ID:             row.ID,
		GroupID:        row.GroupID,
		DisplayName:    row.DisplayName,
		IconURL:        row.IconURL.String,
		CreatedTime:    time.Unix(row.CreatedTime, 0).UTC(),
		Flags:          flags.ItemFlagsFrom(nullableInt(row.Flags)),
		Stock:          row.Stock,
		TimesPurchased: row.TimesPurchased,
	}
}

// partition groups rows by key, returning the keys in first-seen order.
func partition[R any](rows []R, key func(R) int64) ([]int64, map[int64][]R) {
	var order []int64
	groups := make(map[int64][]R)
	for _, row := range rows {
		k := key(row)
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], row)
	}
	return order, groups
}

func nullableInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	return &v.Int64
}
