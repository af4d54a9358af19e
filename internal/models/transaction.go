package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/streck/internal/flags"
)

// TransactionKind is the discriminant of a Transaction.
type TransactionKind string

const (
	KindPurchase    TransactionKind = "purchase"
	KindDeposit     TransactionKind = "deposit"
	KindStockUpdate TransactionKind = "stockUpdate"
)

// Transaction is one ledger entry. It is exactly one of *Purchase, *Deposit
// or *StockUpdate; no other type can implement it.
type Transaction interface {
	Kind() TransactionKind
	Header() TransactionHeader
	isTransaction()
}

// TransactionHeader holds the fields common to every transaction kind.
type TransactionHeader struct {
	ID          int64
	GroupID     int64
	CreatedBy   int64
	CreatedTime time.Time

	// Comment is empty when the transaction has none.
	Comment string

	Flags flags.TransactionFlags
}

// Purchase records items bought by CreatedBy on behalf of CreatedFor.
type Purchase struct {
	TransactionHeader
	CreatedFor int64
	Items      []PurchasedItem
}

// PurchasedItem is one line of a purchase. The display name, icon and price
// are snapshots taken at purchase time.
type PurchasedItem struct {
	ItemID        int64
	DisplayName   string
	IconURL       string
	Quantity      int64
	PurchasePrice Price
}

// Total returns quantity times the snapshot price.
func (p PurchasedItem) Total() decimal.Decimal {
	return p.PurchasePrice.Amount.Mul(decimal.NewFromInt(p.Quantity))
}

// Deposit records money paid in for CreatedFor.
type Deposit struct {
	TransactionHeader
	CreatedFor int64
	Total      decimal.Decimal
}

// StockUpdate records stock adjustments of one or more items.
type StockUpdate struct {
	TransactionHeader
	Items []ItemStockUpdate
}

// ItemStockUpdate is the stock of one item before and after a StockUpdate.
type ItemStockUpdate struct {
	ItemID int64
	Before int64
	After  int64
}

func (*Purchase) Kind() TransactionKind    { return KindPurchase }
func (*Deposit) Kind() TransactionKind     { return KindDeposit }
func (*StockUpdate) Kind() TransactionKind { return KindStockUpdate }

func (p *Purchase) Header() TransactionHeader    { return p.TransactionHeader }
func (d *Deposit) Header() TransactionHeader     { return d.TransactionHeader }
func (s *StockUpdate) Header() TransactionHeader { return s.TransactionHeader }

func (*Purchase) isTransaction()    {}
func (*Deposit) isTransaction()     {}
func (*StockUpdate) isTransaction() {}

// Total returns the sum of all purchased lines.
func (p *Purchase) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range p.Items {
		total = total.Add(line.Total())
	}
	return total
}

// NewPurchaseLine is one requested line of a purchase. Name and icon are
// snapshotted from the current item by the store.
type NewPurchaseLine struct {
	ItemID        int64
	Quantity      int64
	PurchasePrice Price
}

// NewPurchase describes a purchase to create.
type NewPurchase struct {
	GroupID    int64
	CreatedBy  int64
	CreatedFor int64
	Comment    string
	Items      []NewPurchaseLine
}

// NewDeposit describes a deposit to create.
type NewDeposit struct {
	GroupID    int64
	CreatedBy  int64
	CreatedFor int64
	Comment    string
	Total      decimal.Decimal
}

// NewStockLine sets the stock of one item.
type NewStockLine struct {
	ItemID int64
	After  int64
}

// NewStockUpdate describes a stock update to create.
type NewStockUpdate struct {
	GroupID   int64
	CreatedBy int64
	Comment   string
	Items     []NewStockLine
}

// TransactionUpdate describes a partial change to a transaction's flags.
type TransactionUpdate struct {
	Removed *bool
}
