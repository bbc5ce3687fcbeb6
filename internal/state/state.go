package state

import (
	"github.com/shopspring/decimal"

	"github.com/ledgerkeep/ledgerkeep/internal/domain"
)

// State is the full in-memory snapshot for one tenant: every synced
// collection keyed by entity id, the acting session, and the audit logs.
// Owned exclusively by the reducer; see the package doc.
type State struct {
	TenantID string `json:"tenant_id"`
	UserID   string `json:"user_id"`

	Accounts     map[string]*domain.Account     `json:"accounts"`
	Transactions map[string]*domain.Transaction `json:"transactions"`
	Invoices     map[string]*domain.Invoice     `json:"invoices"`
	Bills        map[string]*domain.Bill        `json:"bills"`
	Contracts    map[string]*domain.Contract    `json:"contracts"`
	Contacts     map[string]*domain.Contact     `json:"contacts"`
	Categories   map[string]*domain.Category    `json:"categories"`
	Projects     map[string]*domain.Project     `json:"projects"`
	Settings     map[string]*domain.Setting     `json:"settings"`

	// TxLog is the transaction audit trail, newest first, truncated
	// externally if at all. ErrorLog keeps only the most recent entries.
	TxLog    []AuditEntry `json:"tx_log"`
	ErrorLog []AuditEntry `json:"error_log"`
}

// New returns an empty state for a tenant session.
func New(tenantID, userID string) *State {
	s := &State{TenantID: tenantID, UserID: userID}
	s.resetCollections()
	return s
}

func (s *State) resetCollections() {
	s.Accounts = make(map[string]*domain.Account)
	s.Transactions = make(map[string]*domain.Transaction)
	s.Invoices = make(map[string]*domain.Invoice)
	s.Bills = make(map[string]*domain.Bill)
	s.Contracts = make(map[string]*domain.Contract)
	s.Contacts = make(map[string]*domain.Contact)
	s.Categories = make(map[string]*domain.Category)
	s.Projects = make(map[string]*domain.Project)
	s.Settings = make(map[string]*domain.Setting)
}

// EnsureCollections makes every collection map non-nil. JSON decoding of
// an older snapshot may leave a newly added collection unset.
func (s *State) EnsureCollections() {
	if s.Accounts == nil {
		s.Accounts = make(map[string]*domain.Account)
	}
	if s.Transactions == nil {
		s.Transactions = make(map[string]*domain.Transaction)
	}
	if s.Invoices == nil {
		s.Invoices = make(map[string]*domain.Invoice)
	}
	if s.Bills == nil {
		s.Bills = make(map[string]*domain.Bill)
	}
	if s.Contracts == nil {
		s.Contracts = make(map[string]*domain.Contract)
	}
	if s.Contacts == nil {
		s.Contacts = make(map[string]*domain.Contact)
	}
	if s.Categories == nil {
		s.Categories = make(map[string]*domain.Category)
	}
	if s.Projects == nil {
		s.Projects = make(map[string]*domain.Project)
	}
	if s.Settings == nil {
		s.Settings = make(map[string]*domain.Setting)
	}
}

// Clone returns a deep copy safe to hand to other components.
func (s *State) Clone() *State {
	out := &State{
		TenantID:     s.TenantID,
		UserID:       s.UserID,
		Accounts:     cloneMap(s.Accounts),
		Transactions: cloneMap(s.Transactions),
		Invoices:     cloneMap(s.Invoices),
		Bills:        cloneMap(s.Bills),
		Contracts:    cloneMap(s.Contracts),
		Contacts:     cloneMap(s.Contacts),
		Categories:   cloneMap(s.Categories),
		Projects:     cloneMap(s.Projects),
		Settings:     cloneMap(s.Settings),
	}
	out.TxLog = append([]AuditEntry(nil), s.TxLog...)
	out.ErrorLog = append([]AuditEntry(nil), s.ErrorLog...)
	return out
}

func cloneMap[V any](m map[string]*V) map[string]*V {
	out := make(map[string]*V, len(m))
	for k, v := range m {
		c := *v
		out[k] = &c
	}
	return out
}

// Book interface for the effect propagator ---------------------------------

func (s *State) Account(id string) (*domain.Account, bool) {
	a, ok := s.Accounts[id]
	return a, ok
}

func (s *State) Invoice(id string) (*domain.Invoice, bool) {
	inv, ok := s.Invoices[id]
	return inv, ok
}

func (s *State) Bill(id string) (*domain.Bill, bool) {
	b, ok := s.Bills[id]
	return b, ok
}

func (s *State) Contract(id string) (*domain.Contract, bool) {
	c, ok := s.Contracts[id]
	return c, ok
}

// ContractTotal sums every transaction linked to the contract.
func (s *State) ContractTotal(contractID string) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range s.Transactions {
		if tx.ContractID == contractID {
			total = total.Add(tx.Amount)
		}
	}
	return total
}

// accountReferenced reports whether any transaction touches the account.
func (s *State) accountReferenced(id string) bool {
	for _, tx := range s.Transactions {
		if tx.AccountID == id || tx.FromAccountID == id || tx.ToAccountID == id {
			return true
		}
	}
	return false
}

func (s *State) invoiceReferenced(id string) bool {
	for _, tx := range s.Transactions {
		if tx.InvoiceID == id {
			return true
		}
	}
	return false
}

func (s *State) billReferenced(id string) bool {
	for _, tx := range s.Transactions {
		if tx.BillID == id {
			return true
		}
	}
	return false
}

func (s *State) contractReferenced(id string) bool {
	for _, tx := range s.Transactions {
		if tx.ContractID == id {
			return true
		}
	}
	return false
}
