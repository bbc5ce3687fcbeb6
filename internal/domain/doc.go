// Package domain defines the entity records shared by every component:
// accounts, transactions, financial documents, and the supporting
// collections synced to the remote service.
//
// Records are immutable by convention. Components that need a modified
// record build a copy; the only place a stored record is replaced is the
// reducer in internal/state.
//
// All monetary values are shopspring decimals. Floats are forbidden in the
// domain: effect reversal must restore balances exactly, and float
// arithmetic cannot guarantee that.
package domain
