package sqlite

import (
	"context"
	"fmt"

	"github.com/mmynk/streck/internal/calculator"
	"github.com/mmynk/streck/internal/flags"
	"github.com/mmynk/streck/internal/ledger"
	"github.com/mmynk/streck/internal/models"
	"github.com/mmynk/streck/internal/storage"
)

// selectItemWithPrices yields one row per price of each item. The first
// argument is the requesting user, for the favorite column.
const selectItemWithPrices = `
	SELECT
		fi.id AS id,
		fi.group_id AS group_id,
		fi.display_name AS display_name,
		fi.icon_url AS icon_url,
		fi.created_time AS created_time,
		fi.flags AS flags,
		fi.stock AS stock,
		fi.times_purchased AS times_purchased,
		EXISTS(SELECT 1 FROM favorite_items f WHERE f.item_id = fi.id AND f.user_id = ?) AS favorite,
		p.amount AS price_amount,
		p.label AS price_label
	FROM full_items fi
	JOIN prices p ON p.item_id = fi.id`

// Prices of one item are always read cheapest first, ties by insertion.
const priceOrder = `p.amount ASC, p.id ASC`

const lastItemID = `(SELECT seq FROM sqlite_sequence WHERE name = 'items')`

// ItemColumn is an item column that UpdateItem may set directly.
type ItemColumn int

const (
	ItemColumnDisplayName ItemColumn = iota
	ItemColumnIconURL
)

// updateItemColumn returns the UPDATE statement for column. Statements are
// fixed per column; the value is always bound as a parameter.
func updateItemColumn(column ItemColumn, itemID int64, value any) (Statement, error) {
	switch column {
	case ItemColumnDisplayName:
		return Stmt(`UPDATE items SET display_name = ? WHERE id = ?`, value, itemID), nil
	case ItemColumnIconURL:
		return Stmt(`UPDATE items SET icon_url = ? WHERE id = ?`, value, itemID), nil
	default:
		return Statement{}, fmt.Errorf("%w: item column %d cannot be updated", storage.ErrInvalidArgument, column)
	}
}

func updateItemFlags(itemID, set, mask int64) Statement {
	return Stmt(`UPDATE items SET flags = (COALESCE(flags, 0) & ~?) | ? WHERE id = ?`, mask, set, itemID)
}

func insertPrice(itemID int64, price models.Price) Statement {
	return Stmt(`INSERT INTO prices (item_id, amount, label) VALUES (?, ?, ?)`, itemID, price.Amount, price.Label)
}

// insertPriceForNewItem adds a price to the item inserted earlier in the
// same transaction.
func insertPriceForNewItem(price models.Price) Statement {
	return Stmt(`INSERT INTO prices (item_id, amount, label) VALUES (`+lastItemID+`, ?, ?)`, price.Amount, price.Label)
}

func validatePrices(prices []models.Price) error {
	if len(prices) == 0 {
		return fmt.Errorf("%w: an item needs at least one price", storage.ErrInvalidArgument)
	}
	for _, p := range prices {
		if p.Amount.IsNegative() {
			return fmt.Errorf("%w: price %q is negative", storage.ErrInvalidArgument, p.Label)
		}
		if err := calculator.ValidateAmount(p.Amount); err != nil {
			return fmt.Errorf("%w: price %q: %w", storage.ErrInvalidArgument, p.Label, err)
		}
	}
	return nil
}

// itemFromResult folds the rows of a single item read back from the store.
func itemFromResult(res *Result, itemID any) (*models.ItemWithPrices, error) {
	if res.Len() == 0 {
		return nil, fmt.Errorf("item %v: %w", itemID, storage.ErrEmptyResult)
	}
	rows, err := scanItemPriceRows(res)
	if err != nil {
		return nil, err
	}
	item, prices, favorite, err := ledger.GroupItemWithPrices(rows)
	if err != nil {
		return nil, err
	}
	return &models.ItemWithPrices{Item: item, Prices: prices, Favorite: favorite}, nil
}

// CreateItem creates an item and its prices in one transaction.
func (s *SQLiteStore) CreateItem(ctx context.Context, groupID, userID int64, displayName, iconURL string, prices []models.Price) (*models.ItemWithPrices, error) {
	if displayName == "" {
		return nil, fmt.Errorf("%w: display name is empty", storage.ErrInvalidArgument)
	}
	if err := validatePrices(prices); err != nil {
		return nil, err
	}

	exec, err := s.executor(ctx)
	if err != nil {
		return nil, err
	}

	statements := []Statement{
		Stmt(`INSERT INTO items (group_id, display_name, icon_url, created_time) VALUES (?, ?, ?, ?)`,
			groupID, displayName, nullString(iconURL), s.now().Unix()),
	}
	for _, p := range prices {
		statements = append(statements, insertPriceForNewItem(p))
	}
	statements = append(statements,
		Stmt(selectItemWithPrices+` WHERE fi.id = `+lastItemID+` ORDER BY `+priceOrder, userID))

	res, err := exec.ExecuteTransaction(ctx, statements)
	if err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}
	return itemFromResult(res, displayName)
}

// GetItem retrieves an item with its prices, as seen by userID.
func (s *SQLiteStore) GetItem(ctx context.Context, itemID, userID int64) (*models.ItemWithPrices, error) {
	exec, err := s.executor(ctx)
	if err != nil {
		return nil, err
	}

	res, err := exec.Execute(ctx, Stmt(selectItemWithPrices+` WHERE fi.id = ? ORDER BY `+priceOrder, userID, itemID))
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return itemFromResult(res, itemID)
}

// ListItems retrieves every item of the group with prices, in id order.
func (s *SQLiteStore) ListItems(ctx context.Context, groupID, userID int64) ([]models.ItemWithPrices, error) {
	exec, err := s.executor(ctx)
	if err != nil {
		return nil, err
	}

	res, err := exec.Execute(ctx, Stmt(selectItemWithPrices+` WHERE fi.group_id = ? ORDER BY fi.id ASC, `+priceOrder, userID, groupID))
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	rows, err := scanItemPriceRows(res)
	if err != nil {
		return nil, err
	}
	return ledger.GroupItemsWithPrices(rows)
}

// UpdateItem applies every part of update in one transaction and returns the
// item as it is afterwards.
func (s *SQLiteStore) UpdateItem(ctx context.Context, itemID, userID int64, update models.ItemUpdate) (*models.ItemWithPrices, error) {
	var statements []Statement

	if update.DisplayName != nil {
		if *update.DisplayName == "" {
			return nil, fmt.Errorf("%w: display name is empty", storage.ErrInvalidArgument)
		}
		st, err := updateItemColumn(ItemColumnDisplayName, itemID, *update.DisplayName)
		if err != nil {
			return nil, err
		}
		statements = append(statements, st)
	}

	if update.IconURL != nil {
		st, err := updateItemColumn(ItemColumnIconURL, itemID, nullString(*update.IconURL))
		if err != nil {
			return nil, err
		}
		statements = append(statements, st)
	}

	if update.Invisible != nil {
		set, mask, err := flags.Patch(map[string]bool{"invisible": *update.Invisible}, flags.ItemTable)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", storage.ErrInvalidArgument, err)
		}
		statements = append(statements, updateItemFlags(itemID, set, mask))
	}

	if update.Favorite != nil {
		if *update.Favorite {
			statements = append(statements, addFavorite(userID, itemID))
		} else {
			statements = append(statements, removeFavorite(userID, itemID))
		}
	}

	if update.Prices != nil {
		if err := validatePrices(update.Prices); err != nil {
			return nil, err
		}
		statements = append(statements, Stmt(`DELETE FROM prices WHERE item_id = ?`, itemID))
		for _, p := range update.Prices {
			statements = append(statements, insertPrice(itemID, p))
		}
	}

	statements = append(statements,
		Stmt(selectItemWithPrices+` WHERE fi.id = ? ORDER BY `+priceOrder, userID, itemID))

	exec, err := s.executor(ctx)
	if err != nil {
		return nil, err
	}

	res, err := exec.ExecuteTransaction(ctx, statements)
	if err != nil {
		return nil, fmt.Errorf("failed to update item: %w", err)
	}
	return itemFromResult(res, itemID)
}

// DeleteItem deletes an item that has never been purchased, with its prices,
// favorites and stock history. Stock updates left without lines are removed.
func (s *SQLiteStore) DeleteItem(ctx context.Context, itemID, groupID int64) error {
	found, err := s.ItemExistsInGroup(ctx, itemID, groupID)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("item %d: %w", itemID, storage.ErrEmptyResult)
	}

	purchased, err := s.ItemHasPurchases(ctx, itemID)
	if err != nil {
		return err
	}
	if purchased {
		return storage.ErrItemPurchased
	}

	exec, err := s.executor(ctx)
	if err != nil {
		return err
	}

	res, err := exec.ExecuteTransaction(ctx, []Statement{
		Stmt(`
			DELETE FROM transactions
			WHERE id IN (SELECT transaction_id FROM item_stock_updates WHERE item_id = ?)
			AND NOT EXISTS (
				SELECT 1 FROM item_stock_updates su
				WHERE su.transaction_id = transactions.id AND su.item_id <> ?
			)`, itemID, itemID),
		Stmt(`DELETE FROM item_stock_updates WHERE item_id = ?`, itemID),
		Stmt(`DELETE FROM prices WHERE item_id = ?`, itemID),
		Stmt(`DELETE FROM favorite_items WHERE item_id = ?`, itemID),
		Stmt(`DELETE FROM items WHERE id = ? AND group_id = ?`, itemID, groupID),
		Stmt(`SELECT changes() AS deleted`),
	})
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	deleted, err := res.Row(0).Int64("deleted")
	if err != nil {
		return err
	}
	if deleted == 0 {
		return fmt.Errorf("item %d: %w", itemID, storage.ErrEmptyResult)
	}
	return nil
}

// ItemExistsInGroup reports whether the item belongs to the group.
func (s *SQLiteStore) ItemExistsInGroup(ctx context.Context, itemID, groupID int64) (bool, error) {
	return s.exists(ctx, Stmt(`SELECT EXISTS(SELECT 1 FROM items WHERE id = ? AND group_id = ?)`, itemID, groupID))
}

// ItemNameExistsInGroup reports whether the group has an item with displayName.
func (s *SQLiteStore) ItemNameExistsInGroup(ctx context.Context, displayName string, groupID int64) (bool, error) {
	return s.exists(ctx, Stmt(`SELECT EXISTS(SELECT 1 FROM items WHERE display_name = ? AND group_id = ?)`, displayName, groupID))
}

// ItemHasPurchases reports whether any purchase line references the item,
// removed purchases included.
func (s *SQLiteStore) ItemHasPurchases(ctx context.Context, itemID int64) (bool, error) {
	return s.exists(ctx, Stmt(`SELECT EXISTS(SELECT 1 FROM purchased_items WHERE item_id = ?)`, itemID))
}

// IsItemVisible reports whether the item's invisible flag is clear.
func (s *SQLiteStore) IsItemVisible(ctx context.Context, itemID int64) (bool, error) {
	exec, err := s.executor(ctx)
	if err != nil {
		return false, err
	}

	row, err := exec.FirstRow(ctx, Stmt(`SELECT flags FROM items WHERE id = ?`, itemID))
	if err != nil {
		return false, fmt.Errorf("item %d: %w", itemID, err)
	}
	bits, err := row.NullInt64("flags")
	if err != nil {
		return false, err
	}

	var p *int64
	if bits.Valid {
		p = &bits.Int64
	}
	return !flags.ItemFlagsFrom(p).Invisible, nil
}
