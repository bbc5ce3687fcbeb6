package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountKind classifies an account for reporting purposes.
type AccountKind string

const (
	AccountBank      AccountKind = "bank"
	AccountAsset     AccountKind = "asset"
	AccountLiability AccountKind = "liability"
	AccountEquity    AccountKind = "equity"
)

// Account holds a running balance. The balance is never edited directly:
// it always equals the signed sum of every transaction effect applied to
// it, exactly once per transaction per direction.
type Account struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Kind      AccountKind     `json:"kind"`
	Balance   decimal.Decimal `json:"balance"`
	Permanent bool            `json:"permanent"` // system accounts cannot be deleted
	CreatedAt time.Time       `json:"created_at"`
}

// TransactionKind distinguishes the four effect shapes.
type TransactionKind string

const (
	TxIncome   TransactionKind = "income"
	TxExpense  TransactionKind = "expense"
	TxTransfer TransactionKind = "transfer"
	TxLoan     TransactionKind = "loan"
)

// LoanSubtype refines TxLoan. Receive and Collect add to the account;
// every other subtype subtracts.
type LoanSubtype string

const (
	LoanReceive LoanSubtype = "receive"
	LoanCollect LoanSubtype = "collect"
	LoanRepay   LoanSubtype = "repay"
	LoanExtend  LoanSubtype = "extend"
)

// Transaction is the only record that carries ledger effects. Amount is
// always non-negative; the sign of the effect comes from the kind and the
// application direction.
type Transaction struct {
	ID          string          `json:"id"`
	Kind        TransactionKind `json:"kind"`
	LoanSubtype LoanSubtype     `json:"loan_subtype,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`

	AccountID     string `json:"account_id,omitempty"`
	FromAccountID string `json:"from_account_id,omitempty"` // transfers only
	ToAccountID   string `json:"to_account_id,omitempty"`   // transfers only

	CategoryID  string `json:"category_id,omitempty"`
	ContactID   string `json:"contact_id,omitempty"`
	InvoiceID   string `json:"invoice_id,omitempty"`
	BillID      string `json:"bill_id,omitempty"`
	ContractID  string `json:"contract_id,omitempty"`
	AgreementID string `json:"agreement_id,omitempty"`

	// Generated marks transactions produced by a business workflow (for
	// example a cancellation penalty) rather than direct user input.
	Generated bool `json:"generated,omitempty"`
}

// DocumentStatus is the derived payment status of an invoice or bill.
// It is never set by a user edit; it only moves through paid-amount
// recomputation.
type DocumentStatus string

const (
	StatusUnpaid        DocumentStatus = "unpaid"
	StatusPartiallyPaid DocumentStatus = "partially_paid"
	StatusPaid          DocumentStatus = "paid"
)

// Invoice is money owed to the tenant.
type Invoice struct {
	ID         string          `json:"id"`
	ContactID  string          `json:"contact_id,omitempty"`
	ContractID string          `json:"contract_id,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
	PaidAmount decimal.Decimal `json:"paid_amount"`
	Status     DocumentStatus  `json:"status"`
	IssuedAt   time.Time       `json:"issued_at"`
}

// Bill is money the tenant owes.
type Bill struct {
	ID         string          `json:"id"`
	ContactID  string          `json:"contact_id,omitempty"`
	ContractID string          `json:"contract_id,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
	PaidAmount decimal.Decimal `json:"paid_amount"`
	Status     DocumentStatus  `json:"status"`
	IssuedAt   time.Time       `json:"issued_at"`
}

// ContractStatus tracks completion. Terminated is absorbing: once set, no
// transaction-driven recomputation may change it.
type ContractStatus string

const (
	ContractActive     ContractStatus = "active"
	ContractCompleted  ContractStatus = "completed"
	ContractTerminated ContractStatus = "terminated"
)

// Contract toggles between Active and Completed as linked transactions
// accumulate toward TotalAmount.
type Contract struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	ContactID   string          `json:"contact_id,omitempty"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      ContractStatus  `json:"status"`
	StartedAt   time.Time       `json:"started_at"`
}

// Contact, Category, Project and Setting carry no ledger effects; they
// exist so the sync paths exercise the full remote entity surface.

type Contact struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Kind string `json:"kind,omitempty"` // income | expense
}

type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Setting struct {
	ID    string `json:"id"`
	Key   string `json:"key"`
	Value string `json:"value"`
}
