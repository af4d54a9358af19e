package models

import "github.com/shopspring/decimal"

// User represents a member of a group.
type User struct {
	// ID is the internal numeric identifier.
	ID int64

	// ExternalID is the user's identity at the identity provider (UUID format).
	ExternalID string

	// GroupID is the group the user belongs to.
	GroupID int64

	// GroupExternalID is the external identity of the user's group.
	GroupExternalID string

	// Balance is deposits minus purchases made for this user, ignoring
	// removed transactions. Computed by the store, read-only here.
	Balance decimal.Decimal
}
