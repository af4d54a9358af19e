package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/streck/internal/flags"
)

// Item represents something a group keeps in stock and sells.
type Item struct {
	ID      int64
	GroupID int64

	// DisplayName is unique within the group.
	DisplayName string

	// IconURL is empty when the item has no icon.
	IconURL string

	CreatedTime time.Time

	Flags flags.ItemFlags

	// Stock is the sum of stock adjustments minus purchased quantities.
	Stock int64

	// TimesPurchased counts purchased units over non-removed purchases.
	TimesPurchased int64
}

// Price is one named price tier of an item (e.g. "member", "guest").
type Price struct {
	Amount decimal.Decimal
	Label  string
}

// ItemWithPrices is an item together with its prices and whether it is a
// favorite of the requesting user.
type ItemWithPrices struct {
	Item
	Prices   []Price
	Favorite bool
}

// ItemUpdate describes a partial change to an item. Nil fields are left untouched.
type ItemUpdate struct {
	DisplayName *string

	// IconURL set to "" removes the icon.
	IconURL *string

	Invisible *bool

	// Favorite adds or removes the item from the requesting user's favorites.
	Favorite *bool

	// Prices, when non-nil, replaces every price of the item.
	Prices []Price
}

// IsEmpty reports whether the update changes nothing.
func (u ItemUpdate) IsEmpty() bool {
	return u.DisplayName == nil && u.IconURL == nil && u.Invisible == nil &&
		u.Favorite == nil && u.Prices == nil
}
