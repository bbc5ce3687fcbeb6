package state

import "errors"

// Validation errors. The reducer never propagates these as failures: a
// validation error means the action was a no-op, recorded in the error
// log, with the state otherwise unchanged.
var (
	ErrMissingPayload   = errors.New("action payload missing")
	ErrUnknownTxKind    = errors.New("unknown transaction kind")
	ErrNotFound         = errors.New("entity not found")
	ErrPermanentAccount = errors.New("permanent account cannot be deleted")
	ErrAccountInUse     = errors.New("account has transactions")
	ErrDocumentInUse    = errors.New("document has linked payments")
	ErrContractInUse    = errors.New("contract has linked transactions")
)
