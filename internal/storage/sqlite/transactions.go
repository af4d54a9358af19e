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

const selectFullTransactions = `
	SELECT
		id, group_id, created_by, created_time, comment, flags, created_for, total,
		item_id, display_name, icon_url, purchase_price, purchase_price_label, quantity,
		stock_item_id, before_stock, after_stock
	FROM full_transactions`

const lastTransactionID = `(SELECT seq FROM sqlite_sequence WHERE name = 'transactions')`

func (s *SQLiteStore) insertTransaction(groupID, createdBy int64, comment string) Statement {
	return Stmt(`INSERT INTO transactions (group_id, created_by, created_time, comment) VALUES (?, ?, ?, ?)`,
		groupID, createdBy, s.now().Unix(), nullComment(comment))
}

func readBackTransaction() Statement {
	return Stmt(selectFullTransactions + ` WHERE id = ` + lastTransactionID + ` ORDER BY line_id`)
}

// transactionFromResult reconstructs the single transaction in res.
func transactionFromResult(res *Result, transactionID any) (models.Transaction, error) {
	if res.Len() == 0 {
		return nil, fmt.Errorf("transaction %v: %w", transactionID, storage.ErrEmptyResult)
	}
	rows, err := scanTransactionRows(res)
	if err != nil {
		return nil, err
	}
	return ledger.DetermineTransactionKind(rows)
}

// CreatePurchase records a purchase. Display name and icon of each line are
// copied from the item inside the transaction; a line naming an item outside
// the group fails the whole purchase.
func (s *SQLiteStore) CreatePurchase(ctx context.Context, purchase models.NewPurchase) (*models.Purchase, error) {
	if err := calculator.ValidatePurchaseLines(purchase.Items); err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrInvalidArgument, err)
	}

	statements := []Statement{
		s.insertTransaction(purchase.GroupID, purchase.CreatedBy, purchase.Comment),
		Stmt(`INSERT INTO purchases (transaction_id, created_for) VALUES (`+lastTransactionID+`, ?)`, purchase.CreatedFor),
	}
	for _, line := range purchase.Items {
		statements = append(statements, Stmt(`
			INSERT INTO purchased_items (
				transaction_id, item_id, display_name, icon_url,
				purchase_price, purchase_price_label, quantity
			) VALUES (
				`+lastTransactionID+`, ?,
				(SELECT display_name FROM items WHERE id = ? AND group_id = ?),
				(SELECT icon_url FROM items WHERE id = ?),
				?, ?, ?
			)`,
			line.ItemID, line.ItemID, purchase.GroupID, line.ItemID,
			line.PurchasePrice.Amount, line.PurchasePrice.Label, line.Quantity))
	}
	statements = append(statements, readBackTransaction())

	exec, err := s.executor(ctx)
	if err != nil {
		return nil, err
	}

	res, err := exec.ExecuteTransaction(ctx, statements)
	if err != nil {
		return nil, fmt.Errorf("failed to create purchase: %w", err)
	}

	tx, err := transactionFromResult(res, "new purchase")
	if err != nil {
		return nil, err
	}
	created, ok := tx.(*models.Purchase)
	if !ok {
		return nil, fmt.Errorf("%w: created purchase read back as %s", storage.ErrInvalidState, tx.Kind())
	}
	return created, nil
}

// CreateDeposit records a deposit.
func (s *SQLiteStore) CreateDeposit(ctx context.Context, deposit models.NewDeposit) (*models.Deposit, error) {
	if err := calculator.ValidateAmount(deposit.Total); err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrInvalidArgument, err)
	}

	exec, err := s.executor(ctx)
	if err != nil {
		return nil, err
	}

	res, err := exec.ExecuteTransaction(ctx, []Statement{
		s.insertTransaction(deposit.GroupID, deposit.CreatedBy, deposit.Comment),
		Stmt(`INSERT INTO deposits (transaction_id, created_for, total) VALUES (`+lastTransactionID+`, ?, ?)`,
			deposit.CreatedFor, deposit.Total),
		readBackTransaction(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create deposit: %w", err)
	}

	tx, err := transactionFromResult(res, "new deposit")
	if err != nil {
		return nil, err
	}
	created, ok := tx.(*models.Deposit)
	if !ok {
		return nil, fmt.Errorf("%w: created deposit read back as %s", storage.ErrInvalidState, tx.Kind())
	}
	return created, nil
}

// CreateStockUpdate sets the stock of each listed item. The before count of
// each line is the item's stock at the time of the update.
func (s *SQLiteStore) CreateStockUpdate(ctx context.Context, update models.NewStockUpdate) (*models.StockUpdate, error) {
	if err := calculator.ValidateStockLines(update.Items); err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrInvalidArgument, err)
	}

	statements := []Statement{
		s.insertTransaction(update.GroupID, update.CreatedBy, update.Comment),
	}
	for _, line := range update.Items {
		statements = append(statements, Stmt(`
			INSERT INTO item_stock_updates (transaction_id, item_id, before_stock, after_stock)
			VALUES (
				`+lastTransactionID+`, ?,
				(SELECT stock FROM full_items WHERE id = ? AND group_id = ?),
				?
			)`,
			line.ItemID, line.ItemID, update.GroupID, line.After))
	}
	statements = append(statements, readBackTransaction())

	exec, err := s.executor(ctx)
	if err != nil {
		return nil, err
	}

	res, err := exec.ExecuteTransaction(ctx, statements)
	if err != nil {
		return nil, fmt.Errorf("failed to create stock update: %w", err)
	}

	tx, err := transactionFromResult(res, "new stock update")
	if err != nil {
		return nil, err
	}
	created, ok := tx.(*models.StockUpdate)
	if !ok {
		return nil, fmt.Errorf("%w: created stock update read back as %s", storage.ErrInvalidState, tx.Kind())
	}
	return created, nil
}

// GetTransaction retrieves one transaction of any kind.
func (s *SQLiteStore) GetTransaction(ctx context.Context, transactionID int64) (models.Transaction, error) {
	exec, err := s.executor(ctx)
	if err != nil {
		return nil, err
	}

	res, err := exec.Execute(ctx, Stmt(selectFullTransactions+` WHERE id = ? ORDER BY line_id`, transactionID))
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return transactionFromResult(res, transactionID)
}

// ListTransactions returns a page of the group's transactions, newest first.
// Limit and offset count transactions, not joined rows.
func (s *SQLiteStore) ListTransactions(ctx context.Context, groupID int64, limit, offset int) ([]models.Transaction, error) {
	if limit <= 0 || offset < 0 {
		return nil, fmt.Errorf("%w: limit %d offset %d", storage.ErrInvalidArgument, limit, offset)
	}

	exec, err := s.executor(ctx)
	if err != nil {
		return nil, err
	}

	res, err := exec.Execute(ctx, Stmt(selectFullTransactions+`
		WHERE id IN (
			SELECT id FROM transactions
			WHERE group_id = ?
			ORDER BY created_time DESC, id DESC
			LIMIT ? OFFSET ?
		)
		ORDER BY created_time DESC, id DESC, line_id ASC`,
		groupID, limit, offset))
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	rows, err := scanTransactionRows(res)
	if err != nil {
		return nil, err
	}
	return ledger.GroupTransactions(rows)
}

// CountTransactionsInGroup counts the group's transactions, removed included.
func (s *SQLiteStore) CountTransactionsInGroup(ctx context.Context, groupID int64) (int64, error) {
	exec, err := s.executor(ctx)
	if err != nil {
		return 0, err
	}
	return exec.FirstInt(ctx, Stmt(`SELECT COUNT(*) FROM transactions WHERE group_id = ?`, groupID))
}

// TransactionExistsInGroup reports whether the transaction belongs to the group.
func (s *SQLiteStore) TransactionExistsInGroup(ctx context.Context, transactionID, groupID int64) (bool, error) {
	return s.exists(ctx, Stmt(`SELECT EXISTS(SELECT 1 FROM transactions WHERE id = ? AND group_id = ?)`, transactionID, groupID))
}

// UpdateTransaction changes the flags named in update, leaving other bits
// untouched, and returns the transaction.
func (s *SQLiteStore) UpdateTransaction(ctx context.Context, transactionID int64, update models.TransactionUpdate) (models.Transaction, error) {
	var statements []Statement
	if update.Removed != nil {
		set, mask, err := flags.Patch(map[string]bool{"removed": *update.Removed}, flags.TransactionTable)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", storage.ErrInvalidArgument, err)
		}
		statements = append(statements,
			Stmt(`UPDATE transactions SET flags = (COALESCE(flags, 0) & ~?) | ? WHERE id = ?`, mask, set, transactionID))
	}
	statements = append(statements,
		Stmt(selectFullTransactions+` WHERE id = ? ORDER BY line_id`, transactionID))

	exec, err := s.executor(ctx)
	if err != nil {
		return nil, err
	}

	res, err := exec.ExecuteTransaction(ctx, statements)
	if err != nil {
		return nil, fmt.Errorf("failed to update transaction: %w", err)
	}
	return transactionFromResult(res, transactionID)
}
