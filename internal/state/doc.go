// Package state holds the aggregate state and the reducer that is the
// single serialization point for every mutation.
//
// ARCHITECTURE:
//
// Single-Writer Reducer:
// All mutations flow through Apply, which the engine calls from exactly
// one goroutine. This ensures:
// - Actions apply atomically and sequentially
// - No concurrent mutation of the aggregate state
// - A deterministic audit trail
//
// Apply is total: an unknown action kind returns with the state unchanged
// (forward compatibility with newer senders), and a validation failure is
// a no-op recorded in the error log, never a partial mutation.
//
// Every other component receives copies (State.Clone) or dispatches
// actions; nothing outside this package and the engine loop holds a
// mutable reference to the state.
package state
