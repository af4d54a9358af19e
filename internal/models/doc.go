// Package models defines the core domain models of the group ledger.
//
// # Entities
//
//   - Group: a group identified externally by a UUID, owning users, items and transactions
//   - User: a member of exactly one group, with a balance derived from the ledger
//   - Item: something a group sells, with one or more named Price tiers
//   - Transaction: the ledger's unit, exactly one of Purchase, Deposit or StockUpdate
//
// # Design Principles
//
// 1. **Closed transaction variants**: Transaction is a sealed interface; only
// the three concrete kinds in this package implement it.
// 2. **Snapshots over references**: purchased lines copy the item's name, icon
// and price at purchase time so later edits never rewrite history.
// 3. **IDs, not pointers**: relationships use numeric ids.
// 4. **Decimal money**: amounts are shopspring decimals, never floats.
package models
