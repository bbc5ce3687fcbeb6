package state

import (
	"fmt"

	"github.com/ledgerkeep/ledgerkeep/internal/domain"
	"github.com/ledgerkeep/ledgerkeep/internal/ledger"
)

// Accounts -----------------------------------------------------------------

func accountCreate(s *State, a Action) (string, error) {
	if a.Account == nil {
		return "", ErrMissingPayload
	}
	if _, ok := s.Accounts[a.Account.ID]; ok {
		// Insert of a present id is an update, never a duplicate.
		return accountUpdate(s, a)
	}
	c := *a.Account
	s.Accounts[c.ID] = &c
	return fmt.Sprintf("created account %q", c.Name), nil
}

func accountUpdate(s *State, a Action) (string, error) {
	if a.Account == nil {
		return "", ErrMissingPayload
	}
	old, ok := s.Accounts[a.Account.ID]
	if !ok {
		if a.Origin == OriginRemote {
			return accountCreate(s, a)
		}
		return "", fmt.Errorf("%w: account %s", ErrNotFound, a.Account.ID)
	}
	c := *a.Account
	if a.Origin == OriginLocal {
		// Balances only move through transaction effects. A local edit
		// touches name/kind; the remote copy is authoritative for balance.
		c.Balance = old.Balance
	}
	s.Accounts[c.ID] = &c
	return fmt.Sprintf("updated account %q", c.Name), nil
}

func accountDelete(s *State, a Action) (string, error) {
	acc, ok := s.Accounts[a.EntityID]
	if !ok {
		if a.Origin == OriginRemote {
			return "account already absent", nil
		}
		return "", fmt.Errorf("%w: account %s", ErrNotFound, a.EntityID)
	}
	if acc.Permanent {
		return "", ErrPermanentAccount
	}
	if s.accountReferenced(a.EntityID) {
		return "", ErrAccountInUse
	}
	delete(s.Accounts, a.EntityID)
	return fmt.Sprintf("deleted account %q", acc.Name), nil
}

// Transactions --------------------------------------------------------------

// validateTransactionRefs resolves every entity the effect propagator will
// touch, without mutating anything. Keeping this ahead of the collection
// insert is what makes a failed create a clean no-op.
func validateTransactionRefs(s *State, tx *domain.Transaction) error {
	switch tx.Kind {
	case domain.TxIncome, domain.TxExpense, domain.TxTransfer, domain.TxLoan:
	default:
		// A kind the effect propagator cannot move must not reach it:
		// it would cascade document paid amounts without moving balance.
		return fmt.Errorf("%w: %q", ErrUnknownTxKind, tx.Kind)
	}
	if tx.Kind == domain.TxTransfer {
		if _, ok := s.Accounts[tx.FromAccountID]; !ok {
			return fmt.Errorf("%w: account %s", ErrNotFound, tx.FromAccountID)
		}
		if _, ok := s.Accounts[tx.ToAccountID]; !ok {
			return fmt.Errorf("%w: account %s", ErrNotFound, tx.ToAccountID)
		}
	} else {
		if _, ok := s.Accounts[tx.AccountID]; !ok {
			return fmt.Errorf("%w: account %s", ErrNotFound, tx.AccountID)
		}
	}
	if tx.InvoiceID != "" {
		if _, ok := s.Invoices[tx.InvoiceID]; !ok {
			return fmt.Errorf("%w: invoice %s", ErrNotFound, tx.InvoiceID)
		}
	}
	if tx.BillID != "" {
		if _, ok := s.Bills[tx.BillID]; !ok {
			return fmt.Errorf("%w: bill %s", ErrNotFound, tx.BillID)
		}
	}
	if tx.ContractID != "" {
		if _, ok := s.Contracts[tx.ContractID]; !ok {
			return fmt.Errorf("%w: contract %s", ErrNotFound, tx.ContractID)
		}
	}
	if tx.Amount.IsNegative() {
		return ledger.ErrInvalidAmount
	}
	return nil
}

func transactionCreate(s *State, a Action) (string, error) {
	if a.Transaction == nil {
		return "", ErrMissingPayload
	}
	if _, ok := s.Transactions[a.Transaction.ID]; ok {
		return transactionUpdate(s, a)
	}
	if err := validateTransactionRefs(s, a.Transaction); err != nil {
		return "", err
	}
	c := *a.Transaction
	s.Transactions[c.ID] = &c
	if err := ledger.ApplyEffect(s, &c, ledger.Forward); err != nil {
		delete(s.Transactions, c.ID)
		return "", err
	}
	return fmt.Sprintf("created %s transaction of %s", c.Kind, c.Amount), nil
}

func transactionUpdate(s *State, a Action) (string, error) {
	if a.Transaction == nil {
		return "", ErrMissingPayload
	}
	old, ok := s.Transactions[a.Transaction.ID]
	if !ok {
		if a.Origin == OriginRemote {
			return transactionCreate(s, a)
		}
		return "", fmt.Errorf("%w: transaction %s", ErrNotFound, a.Transaction.ID)
	}
	if err := validateTransactionRefs(s, a.Transaction); err != nil {
		return "", err
	}

	// Reverse the old effect with the record already out of the
	// collection, so contract derivation sums without it; then apply the
	// new record forward. Old contract re-derives before the new one.
	delete(s.Transactions, old.ID)
	if err := ledger.ApplyEffect(s, old, ledger.Reverse); err != nil {
		s.Transactions[old.ID] = old
		return "", err
	}
	c := *a.Transaction
	s.Transactions[c.ID] = &c
	if err := ledger.ApplyEffect(s, &c, ledger.Forward); err != nil {
		// Restore the old record and its effect.
		delete(s.Transactions, c.ID)
		s.Transactions[old.ID] = old
		_ = ledger.ApplyEffect(s, old, ledger.Forward)
		return "", err
	}
	return fmt.Sprintf("updated %s transaction of %s", c.Kind, c.Amount), nil
}

func transactionDelete(s *State, a Action) (string, error) {
	old, ok := s.Transactions[a.EntityID]
	if !ok {
		if a.Origin == OriginRemote {
			return "transaction already absent", nil
		}
		return "", fmt.Errorf("%w: transaction %s", ErrNotFound, a.EntityID)
	}
	delete(s.Transactions, old.ID)
	if err := ledger.ApplyEffect(s, old, ledger.Reverse); err != nil {
		s.Transactions[old.ID] = old
		return "", err
	}
	return fmt.Sprintf("deleted %s transaction of %s", old.Kind, old.Amount), nil
}

// transactionBatch inserts a sequence best-effort: each item applies
// all-or-nothing on its own, a failed item is error-logged and skipped,
// and the remaining items still proceed.
func transactionBatch(s *State, a Action) (string, error) {
	if len(a.Transactions) == 0 {
		return "", ErrMissingPayload
	}
	applied := 0
	for _, tx := range a.Transactions {
		item := a
		item.Kind = TransactionCreate
		item.Transaction = tx
		item.Transactions = nil
		if Apply(s, item) {
			applied++
		}
	}
	return fmt.Sprintf("batch inserted %d of %d transactions", applied, len(a.Transactions)), nil
}

// Invoices ------------------------------------------------------------------

func invoiceCreate(s *State, a Action) (string, error) {
	if a.Invoice == nil {
		return "", ErrMissingPayload
	}
	if _, ok := s.Invoices[a.Invoice.ID]; ok {
		return invoiceUpdate(s, a)
	}
	c := *a.Invoice
	ledger.DeriveInvoice(&c)
	s.Invoices[c.ID] = &c
	return fmt.Sprintf("created invoice for %s", c.Amount), nil
}

func invoiceUpdate(s *State, a Action) (string, error) {
	if a.Invoice == nil {
		return "", ErrMissingPayload
	}
	old, ok := s.Invoices[a.Invoice.ID]
	if !ok {
		if a.Origin == OriginRemote {
			return invoiceCreate(s, a)
		}
		return "", fmt.Errorf("%w: invoice %s", ErrNotFound, a.Invoice.ID)
	}
	c := *a.Invoice
	if a.Origin == OriginLocal {
		// Paid amounts only move through transaction effects.
		c.PaidAmount = old.PaidAmount
	}
	ledger.DeriveInvoice(&c)
	s.Invoices[c.ID] = &c
	if old.ContractID != c.ContractID {
		ledger.DeriveContractStatus(s, old.ContractID)
		ledger.DeriveContractStatus(s, c.ContractID)
	}
	return fmt.Sprintf("updated invoice for %s", c.Amount), nil
}

func invoiceDelete(s *State, a Action) (string, error) {
	old, ok := s.Invoices[a.EntityID]
	if !ok {
		if a.Origin == OriginRemote {
			return "invoice already absent", nil
		}
		return "", fmt.Errorf("%w: invoice %s", ErrNotFound, a.EntityID)
	}
	if s.invoiceReferenced(a.EntityID) {
		return "", ErrDocumentInUse
	}
	delete(s.Invoices, a.EntityID)
	return fmt.Sprintf("deleted invoice for %s", old.Amount), nil
}

// Bills ---------------------------------------------------------------------

func billCreate(s *State, a Action) (string, error) {
	if a.Bill == nil {
		return "", ErrMissingPayload
	}
	if _, ok := s.Bills[a.Bill.ID]; ok {
		return billUpdate(s, a)
	}
	c := *a.Bill
	ledger.DeriveBill(&c)
	s.Bills[c.ID] = &c
	return fmt.Sprintf("created bill for %s", c.Amount), nil
}

func billUpdate(s *State, a Action) (string, error) {
	if a.Bill == nil {
		return "", ErrMissingPayload
	}
	old, ok := s.Bills[a.Bill.ID]
	if !ok {
		if a.Origin == OriginRemote {
			return billCreate(s, a)
		}
		return "", fmt.Errorf("%w: bill %s", ErrNotFound, a.Bill.ID)
	}
	c := *a.Bill
	if a.Origin == OriginLocal {
		c.PaidAmount = old.PaidAmount
	}
	ledger.DeriveBill(&c)
	s.Bills[c.ID] = &c
	if old.ContractID != c.ContractID {
		ledger.DeriveContractStatus(s, old.ContractID)
		ledger.DeriveContractStatus(s, c.ContractID)
	}
	return fmt.Sprintf("updated bill for %s", c.Amount), nil
}

func billDelete(s *State, a Action) (string, error) {
	old, ok := s.Bills[a.EntityID]
	if !ok {
		if a.Origin == OriginRemote {
			return "bill already absent", nil
		}
		return "", fmt.Errorf("%w: bill %s", ErrNotFound, a.EntityID)
	}
	if s.billReferenced(a.EntityID) {
		return "", ErrDocumentInUse
	}
	delete(s.Bills, a.EntityID)
	return fmt.Sprintf("deleted bill for %s", old.Amount), nil
}

// Contracts -----------------------------------------------------------------

func contractCreate(s *State, a Action) (string, error) {
	if a.Contract == nil {
		return "", ErrMissingPayload
	}
	if _, ok := s.Contracts[a.Contract.ID]; ok {
		return contractUpdate(s, a)
	}
	c := *a.Contract
	if c.Status == "" {
		c.Status = domain.ContractActive
	}
	s.Contracts[c.ID] = &c
	ledger.DeriveContractStatus(s, c.ID)
	return fmt.Sprintf("created contract %q", c.Name), nil
}

func contractUpdate(s *State, a Action) (string, error) {
	if a.Contract == nil {
		return "", ErrMissingPayload
	}
	old, ok := s.Contracts[a.Contract.ID]
	if !ok {
		if a.Origin == OriginRemote {
			return contractCreate(s, a)
		}
		return "", fmt.Errorf("%w: contract %s", ErrNotFound, a.Contract.ID)
	}
	c := *a.Contract
	if a.Origin == OriginLocal {
		// Status is derived (or explicitly terminated), never edited.
		c.Status = old.Status
	}
	s.Contracts[c.ID] = &c
	ledger.DeriveContractStatus(s, c.ID)
	return fmt.Sprintf("updated contract %q", c.Name), nil
}

func contractTerminate(s *State, a Action) (string, error) {
	c, ok := s.Contracts[a.EntityID]
	if !ok {
		return "", fmt.Errorf("%w: contract %s", ErrNotFound, a.EntityID)
	}
	c.Status = domain.ContractTerminated
	return fmt.Sprintf("terminated contract %q", c.Name), nil
}

func contractDelete(s *State, a Action) (string, error) {
	old, ok := s.Contracts[a.EntityID]
	if !ok {
		if a.Origin == OriginRemote {
			return "contract already absent", nil
		}
		return "", fmt.Errorf("%w: contract %s", ErrNotFound, a.EntityID)
	}
	if s.contractReferenced(a.EntityID) {
		return "", ErrContractInUse
	}
	delete(s.Contracts, a.EntityID)
	return fmt.Sprintf("deleted contract %q", old.Name), nil
}
