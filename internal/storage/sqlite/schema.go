package sqlite

import (
	"context"
	"fmt"

	"github.com/mmynk/streck/internal/storage"
)

// RequiredTables are the tables and views every store operation relies on.
var RequiredTables = []string{
	"groups",
	"users",
	"items",
	"prices",
	"transactions",
	"purchases",
	"purchased_items",
	"deposits",
	"item_stock_updates",
	"favorite_items",
	"user_balances",
	"full_users",
	"full_items",
	"full_transactions",
}

const catalogQuery = `SELECT name FROM sqlite_master WHERE type IN ('table', 'view')`

// validateSchema checks that every name in required exists in the catalog.
// Missing names are reported in the order of required.
func validateSchema(ctx context.Context, q querier, required []string) error {
	res, err := query(ctx, q, Stmt(catalogQuery))
	if err != nil {
		return fmt.Errorf("failed to list tables: %w", err)
	}

	present := make(map[string]bool, res.Len())
	for i := range res.Len() {
		name, err := res.Row(i).String("name")
		if err != nil {
			return err
		}
		present[name] = true
	}

	var missing []string
	for _, name := range required {
		if !present[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &storage.MissingTablesError{Missing: missing}
	}
	return nil
}
