package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/streck/internal/models"
)

// User is the wire form of a group member.
type User struct {
	ID         int64           `json:"id"`
	ExternalID string          `json:"externalId"`
	Balance    decimal.Decimal `json:"balance"`
}

// Group is the wire form of a group with its members.
type Group struct {
	ID         int64  `json:"id"`
	ExternalID string `json:"externalId"`
	Members    []User `json:"members"`
}

// Price is one price tier of an item.
type Price struct {
	Price       decimal.Decimal `json:"price"`
	DisplayName string          `json:"displayName"`
}

// Item is the wire form of an item with its prices.
type Item struct {
	ID             int64     `json:"id"`
	DisplayName    string    `json:"displayName"`
	Icon           string    `json:"icon,omitempty"`
	CreatedTime    time.Time `json:"createdTime"`
	Visible        bool      `json:"visible"`
	Favorite       bool      `json:"favorite"`
	Stock          int64     `json:"stock"`
	TimesPurchased int64     `json:"timesPurchased"`
	Prices         []Price   `json:"prices"`
}

// PurchasedItem is one line of a purchase.
type PurchasedItem struct {
	ItemID        int64  `json:"itemId"`
	DisplayName   string `json:"displayName"`
	Icon          string `json:"icon,omitempty"`
	Quantity      int64  `json:"quantity"`
	PurchasePrice Price  `json:"purchasePrice"`
}

// StockChange is the stock of one item before and after a stock update.
type StockChange struct {
	ItemID int64 `json:"itemId"`
	Before int64 `json:"before"`
	After  int64 `json:"after"`
}

// Transaction is the wire form of every transaction kind. Type is one of
// "purchase", "deposit" or "stockUpdate" and decides which of the optional
// fields are set.
type Transaction struct {
	Type        string    `json:"type"`
	ID          int64     `json:"id"`
	CreatedBy   int64     `json:"createdBy"`
	CreatedTime time.Time `json:"createdTime"`
	Comment     string    `json:"comment,omitempty"`
	Removed     bool      `json:"removed"`

	CreatedFor int64            `json:"createdFor,omitempty"`
	Total      *decimal.Decimal `json:"total,omitempty"`
	Items      []PurchasedItem  `json:"items,omitempty"`
	Stock      []StockChange    `json:"stock,omitempty"`
}

type GetUserRequest struct{}

type GetUserResponse struct {
	User User `json:"user"`
}

type GetGroupRequest struct{}

type GetGroupResponse struct {
	Group Group `json:"group"`
}

type ListItemsRequest struct {
	Sort string `json:"sort,omitempty"`

	// VisibleOnly defaults to true.
	VisibleOnly *bool `json:"visibleOnly,omitempty"`
}

type ListItemsResponse struct {
	Items []Item `json:"items"`
}

type GetItemRequest struct {
	ID int64 `json:"id"`
}

type ItemResponse struct {
	Item Item `json:"item"`
}

type CreateItemRequest struct {
	DisplayName string  `json:"displayName"`
	Icon        string  `json:"icon,omitempty"`
	Prices      []Price `json:"prices"`
}

// UpdateItemRequest changes the fields that are set. An empty Icon removes
// the icon.
type UpdateItemRequest struct {
	ID          int64   `json:"id"`
	DisplayName *string `json:"displayName,omitempty"`
	Icon        *string `json:"icon,omitempty"`
	Visible     *bool   `json:"visible,omitempty"`
	Favorite    *bool   `json:"favorite,omitempty"`
	Prices      []Price `json:"prices,omitempty"`
}

type DeleteItemRequest struct {
	ID int64 `json:"id"`
}

type DeleteItemResponse struct{}

type ListTransactionsRequest struct {
	// Limit defaults to 50 and may not exceed 100.
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

type ListTransactionsResponse struct {
	Transactions []Transaction `json:"transactions"`

	// Count is the number of transactions in the group, removed ones included.
	Count int64 `json:"count"`
}

type GetTransactionRequest struct {
	ID int64 `json:"id"`
}

type TransactionResponse struct {
	Transaction Transaction `json:"transaction"`
}

type PurchaseLine struct {
	ItemID        int64 `json:"itemId"`
	Quantity      int64 `json:"quantity"`
	PurchasePrice Price `json:"purchasePrice"`
}

type CreatePurchaseRequest struct {
	// UserID is the user the purchase is made for.
	UserID  int64          `json:"userId"`
	Comment string         `json:"comment,omitempty"`
	Items   []PurchaseLine `json:"items"`
}

type CreateDepositRequest struct {
	UserID  int64           `json:"userId"`
	Comment string          `json:"comment,omitempty"`
	Total   decimal.Decimal `json:"total"`
}

// CreatedTransactionResponse carries the new transaction and the balance of
// the user it was created for.
type CreatedTransactionResponse struct {
	Transaction Transaction     `json:"transaction"`
	Balance     decimal.Decimal `json:"balance"`
}

type StockLine struct {
	ItemID int64 `json:"itemId"`
	After  int64 `json:"after"`
}

type CreateStockUpdateRequest struct {
	Comment string      `json:"comment,omitempty"`
	Items   []StockLine `json:"items"`
}

type UpdateTransactionRequest struct {
	ID      int64 `json:"id"`
	Removed *bool `json:"removed,omitempty"`
}

func toUser(u models.User) User {
	return User{ID: u.ID, ExternalID: u.ExternalID, Balance: u.Balance}
}

func toGroup(g *models.Group) Group {
	members := make([]User, len(g.Members))
	for i, m := range g.Members {
		members[i] = toUser(m)
	}
	return Group{ID: g.ID, ExternalID: g.ExternalID, Members: members}
}

func toPrice(p models.Price) Price {
	return Price{Price: p.Amount, DisplayName: p.Label}
}

func fromPrices(prices []Price) []models.Price {
	if prices == nil {
		return nil
	}
	out := make([]models.Price, len(prices))
	for i, p := range prices {
		out[i] = models.Price{Amount: p.Price, Label: p.DisplayName}
	}
	return out
}

func toItem(item models.ItemWithPrices) Item {
	prices := make([]Price, len(item.Prices))
	for i, p := range item.Prices {
		prices[i] = toPrice(p)
	}
	return Item{
		ID:             item.ID,
		DisplayName:    item.DisplayName,
		Icon:           item.IconURL,
		CreatedTime:    item.CreatedTime,
		Visible:        !item.Flags.Invisible,
		Favorite:       item.Favorite,
		Stock:          item.Stock,
		TimesPurchased: item.TimesPurchased,
		Prices:         prices,
	}
}

func toItems(items []models.ItemWithPrices) []Item {
	out := make([]Item, len(items))
	for i, item := range items {
		out[i] = toItem(item)
	}
	return out
}

func toTransaction(tx models.Transaction) Transaction {
	h := tx.Header()
	out := Transaction{
		Type:        string(tx.Kind()),
		ID:          h.ID,
		CreatedBy:   h.CreatedBy,
		CreatedTime: h.CreatedTime,
		Comment:     h.Comment,
		Removed:     h.Flags.Removed,
	}

	switch t := tx.(type) {
	case *models.Purchase:
		total := t.Total()
		out.CreatedFor = t.CreatedFor
		out.Total = &total
		out.Items = make([]PurchasedItem, len(t.Items))
		for i, line := range t.Items {
			out.Items[i] = PurchasedItem{
				ItemID:        line.ItemID,
				DisplayName:   line.DisplayName,
				Icon:          line.IconURL,
				Quantity:      line.Quantity,
				PurchasePrice: toPrice(line.PurchasePrice),
			}
		}
	case *models.Deposit:
		total := t.Total
		out.CreatedFor = t.CreatedFor
		out.Total = &total
	case *models.StockUpdate:
		out.Stock = make([]StockChange, len(t.Items))
		for i, line := range t.Items {
			out.Stock[i] = StockChange{ItemID: line.ItemID, Before: line.Before, After: line.After}
		}
	}
	return out
}

func toTransactions(txs []models.Transaction) []Transaction {
	out := make([]Transaction, len(txs))
	for i, tx := range txs {
		out[i] = toTransaction(tx)
	}
	return out
}
