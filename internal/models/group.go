package models

// Group represents a group sharing one ledger.
type Group struct {
	// ID is the internal numeric identifier.
	ID int64

	// ExternalID is the group's identity at the identity provider (UUID format).
	ExternalID string

	// Members are the users of the group, with their balances.
	Members []User
}
