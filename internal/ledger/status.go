package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/ledgerkeep/ledgerkeep/internal/domain"
)

// Payment thresholds.
//
// The source system used 0.1 for invoices and 0.01 for bills; that split
// looks like a bug, so both document kinds share the finer epsilon here.
// Contracts keep a deliberately coarse 1.0 tolerance: contract totals are
// whole-unit figures and near-misses of less than one currency unit count
// as complete.
var (
	documentEpsilon = decimal.RequireFromString("0.01")
	contractEpsilon = decimal.NewFromInt(1)
)

// DeriveDocumentStatus computes the payment status from an amount and the
// accumulated paid amount. Paid when paid >= amount - epsilon, partially
// paid when paid > epsilon, unpaid otherwise.
func DeriveDocumentStatus(amount, paid decimal.Decimal) domain.DocumentStatus {
	switch {
	case paid.GreaterThanOrEqual(amount.Sub(documentEpsilon)):
		return domain.StatusPaid
	case paid.GreaterThan(documentEpsilon):
		return domain.StatusPartiallyPaid
	default:
		return domain.StatusUnpaid
	}
}

// DeriveInvoice recomputes the invoice status in place.
func DeriveInvoice(inv *domain.Invoice) {
	inv.Status = DeriveDocumentStatus(inv.Amount, inv.PaidAmount)
}

// DeriveBill recomputes the bill status in place.
func DeriveBill(b *domain.Bill) {
	b.Status = DeriveDocumentStatus(b.Amount, b.PaidAmount)
}

// DeriveContractStatus recomputes a contract's Active/Completed toggle
// from the sum of its linked transactions. Terminated is a sink: a
// terminated contract is never recomputed.
//
// Must run after every transaction create/update/delete/batch-insert that
// references the contract, and after any edit that rewires a document
// between contracts (old contract first, then new).
func DeriveContractStatus(book Book, contractID string) {
	c, ok := book.Contract(contractID)
	if !ok {
		return
	}
	if c.Status == domain.ContractTerminated {
		return
	}
	total := book.ContractTotal(contractID)
	if total.GreaterThanOrEqual(c.TotalAmount.Sub(contractEpsilon)) {
		c.Status = domain.ContractCompleted
	} else {
		c.Status = domain.ContractActive
	}
}
