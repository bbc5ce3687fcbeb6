// Package ledger implements the effect propagator and the status
// derivers: the pure arithmetic that keeps account balances and document
// payment states consistent with the transaction log.
//
// Effects are algebraically invertible. Applying a transaction Forward and
// then Reverse (or vice versa) restores every touched balance and paid
// amount to the exact decimal it held before. The reducer relies on this
// for edits (reverse-old then forward-new) and deletes (reverse once).
//
// The package never touches collections directly; it reads and mutates
// records through the Book interface, which the aggregate state implements.
package ledger
