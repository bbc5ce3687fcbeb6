package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ledgerkeep/ledgerkeep/internal/domain"
)

// Direction selects forward application (create) or its algebraic inverse
// (delete, or the first half of an update).
type Direction int

const (
	Forward Direction = 1
	Reverse Direction = -1
)

func (d Direction) String() string {
	if d == Reverse {
		return "reverse"
	}
	return "forward"
}

var (
	ErrAccountNotFound  = errors.New("account not found")
	ErrInvoiceNotFound  = errors.New("invoice not found")
	ErrBillNotFound     = errors.New("bill not found")
	ErrContractNotFound = errors.New("contract not found")
	ErrInvalidAmount    = errors.New("invalid amount (must be >= 0)")
)

// Book is the view of the aggregate state the propagator works through.
// Lookups return live records; mutations happen in place under the
// reducer's single-writer guarantee.
type Book interface {
	Account(id string) (*domain.Account, bool)
	Invoice(id string) (*domain.Invoice, bool)
	Bill(id string) (*domain.Bill, bool)
	Contract(id string) (*domain.Contract, bool)

	// ContractTotal sums the amounts of every transaction linked to the
	// contract. Used by contract status derivation.
	ContractTotal(contractID string) decimal.Decimal
}

// ApplyEffect propagates one transaction's effect through the book in the
// given direction, cascading into linked invoice/bill paid amounts and
// contract status.
//
// The application is all-or-nothing: every referenced record is resolved
// before the first mutation, so a missing reference leaves the book
// untouched. Callers apply exactly once per logical state transition
// (create = forward once, delete = reverse once, update = reverse the old
// record then forward the new one).
func ApplyEffect(book Book, tx *domain.Transaction, dir Direction) error {
	if tx.Amount.IsNegative() {
		return ErrInvalidAmount
	}

	// Resolve everything first. No mutation until all lookups succeed.
	var from, to *domain.Account
	switch tx.Kind {
	case domain.TxTransfer:
		var ok bool
		if from, ok = book.Account(tx.FromAccountID); !ok {
			return fmt.Errorf("%w: %s", ErrAccountNotFound, tx.FromAccountID)
		}
		if to, ok = book.Account(tx.ToAccountID); !ok {
			return fmt.Errorf("%w: %s", ErrAccountNotFound, tx.ToAccountID)
		}
	default:
		var ok bool
		if to, ok = book.Account(tx.AccountID); !ok {
			return fmt.Errorf("%w: %s", ErrAccountNotFound, tx.AccountID)
		}
	}

	var inv *domain.Invoice
	if tx.InvoiceID != "" {
		var ok bool
		if inv, ok = book.Invoice(tx.InvoiceID); !ok {
			return fmt.Errorf("%w: %s", ErrInvoiceNotFound, tx.InvoiceID)
		}
	}
	var bill *domain.Bill
	if tx.BillID != "" {
		var ok bool
		if bill, ok = book.Bill(tx.BillID); !ok {
			return fmt.Errorf("%w: %s", ErrBillNotFound, tx.BillID)
		}
	}
	if tx.ContractID != "" {
		if _, ok := book.Contract(tx.ContractID); !ok {
			return fmt.Errorf("%w: %s", ErrContractNotFound, tx.ContractID)
		}
	}

	signed := tx.Amount.Mul(decimal.NewFromInt(int64(dir)))

	switch tx.Kind {
	case domain.TxTransfer:
		from.Balance = from.Balance.Sub(signed)
		to.Balance = to.Balance.Add(signed)
	case domain.TxIncome:
		to.Balance = to.Balance.Add(signed)
	case domain.TxExpense:
		to.Balance = to.Balance.Sub(signed)
	case domain.TxLoan:
		if loanAdds(tx.LoanSubtype) {
			to.Balance = to.Balance.Add(signed)
		} else {
			to.Balance = to.Balance.Sub(signed)
		}
	}

	// Payment cascade: direction sign moves the paid amount, never below
	// zero. Status follows from the recomputed amount.
	if inv != nil {
		inv.PaidAmount = clampZero(inv.PaidAmount.Add(signed))
		DeriveInvoice(inv)
	}
	if bill != nil {
		bill.PaidAmount = clampZero(bill.PaidAmount.Add(signed))
		DeriveBill(bill)
	}
	if tx.ContractID != "" {
		DeriveContractStatus(book, tx.ContractID)
	}
	return nil
}

func loanAdds(sub domain.LoanSubtype) bool {
	return sub == domain.LoanReceive || sub == domain.LoanCollect
}

func clampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
