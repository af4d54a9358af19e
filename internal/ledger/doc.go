// Package ledger reconstructs domain records from flat, denormalized query rows.
//
// The store produces left joins of a parent against its children: an item
// repeated once per price, a transaction repeated once per purchased line or
// stock row. This package folds those rows back into nested models.
//
// # Ordering
//
// Grouping never sorts. Parents come out in the order their id was first seen
// and children in the order their rows arrived; queries are responsible for
// requesting a meaningful order (prices by amount, transactions newest first).
//
// # Transaction kinds
//
// A transaction's kind is decided from the shape of its auxiliary columns:
// a deposit total, purchased-item columns, or stock before/after columns.
// Exactly one shape must be present. Anything else is reported as
// storage.ErrInvalidState rather than guessed, since it can only come from a
// broken join or corrupt data.
package ledger
