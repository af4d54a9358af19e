// Package storage provides abstractions for persistent ledger storage.
package storage

import (
	"context"

	"github.com/mmynk/streck/internal/models"
)

// Store defines the ledger operations the service layer relies on.
// Every method waits for the database to become ready before querying and
// returns the error kinds declared in errors.go.
type Store interface {
	// SoftCreateGroupAndUser creates the group and the user if they do not
	// exist yet and returns the user. Both ids must be UUIDs.
	SoftCreateGroupAndUser(ctx context.Context, externalGroupID, externalUserID string) (*models.User, error)

	// GetGroup returns the group with its members.
	GetGroup(ctx context.Context, groupID int64) (*models.Group, error)

	// GetUser returns the user with its current balance.
	GetUser(ctx context.Context, userID int64) (*models.User, error)

	ListUsersInGroup(ctx context.Context, groupID int64) ([]models.User, error)
	UserExistsInGroup(ctx context.Context, userID, groupID int64) (bool, error)

	// CreateItem creates an item together with its prices in one transaction.
	CreateItem(ctx context.Context, groupID, userID int64, displayName, iconURL string, prices []models.Price) (*models.ItemWithPrices, error)

	// GetItem returns the item with its prices, favorite flag as seen by userID.
	GetItem(ctx context.Context, itemID, userID int64) (*models.ItemWithPrices, error)

	// ListItems returns every item of the group with prices, in id order.
	ListItems(ctx context.Context, groupID, userID int64) ([]models.ItemWithPrices, error)

	// UpdateItem applies the update atomically and returns the new item.
	UpdateItem(ctx context.Context, itemID, userID int64, update models.ItemUpdate) (*models.ItemWithPrices, error)

	// DeleteItem deletes an item that has never been purchased.
	// Returns ErrItemPurchased otherwise.
	DeleteItem(ctx context.Context, itemID, groupID int64) error

	ItemExistsInGroup(ctx context.Context, itemID, groupID int64) (bool, error)
	ItemNameExistsInGroup(ctx context.Context, displayName string, groupID int64) (bool, error)
	ItemHasPurchases(ctx context.Context, itemID int64) (bool, error)
	IsItemVisible(ctx context.Context, itemID int64) (bool, error)

	AddFavorite(ctx context.Context, userID, itemID int64) error
	RemoveFavorite(ctx context.Context, userID, itemID int64) error
	IsFavorite(ctx context.Context, userID, itemID int64) (bool, error)

	CreatePurchase(ctx context.Context, purchase models.NewPurchase) (*models.Purchase, error)
	CreateDeposit(ctx context.Context, deposit models.NewDeposit) (*models.Deposit, error)
	CreateStockUpdate(ctx context.Context, update models.NewStockUpdate) (*models.StockUpdate, error)

	GetTransaction(ctx context.Context, transactionID int64) (models.Transaction, error)

	// ListTransactions returns a page of the group's transactions, newest first.
	ListTransactions(ctx context.Context, groupID int64, limit, offset int) ([]models.Transaction, error)

	CountTransactionsInGroup(ctx context.Context, groupID int64) (int64, error)
	TransactionExistsInGroup(ctx context.Context, transactionID, groupID int64) (bool, error)

	// UpdateTransaction changes the transaction's flags and returns it.
	UpdateTransaction(ctx context.Context, transactionID int64, update models.TransactionUpdate) (models.Transaction, error)

	// Close releases the connection. Safe to call more than once.
	Close() error
}
