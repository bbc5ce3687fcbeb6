package state

import (
	"time"

	"github.com/ledgerkeep/ledgerkeep/internal/domain"
)

// Origin distinguishes locally authored actions from actions replayed out
// of remote events or reconciliation payloads.
type Origin int

const (
	OriginLocal Origin = iota
	OriginRemote
)

func (o Origin) String() string {
	if o == OriginRemote {
		return "remote"
	}
	return "local"
}

// Kind selects the reducer handler. String-typed so wire payloads and logs
// stay readable.
type Kind string

const (
	AccountCreate Kind = "account/create"
	AccountUpdate Kind = "account/update"
	AccountDelete Kind = "account/delete"

	TransactionCreate Kind = "transaction/create"
	TransactionUpdate Kind = "transaction/update"
	TransactionDelete Kind = "transaction/delete"
	TransactionBatch  Kind = "transaction/batch-insert"

	InvoiceCreate Kind = "invoice/create"
	InvoiceUpdate Kind = "invoice/update"
	InvoiceDelete Kind = "invoice/delete"

	BillCreate Kind = "bill/create"
	BillUpdate Kind = "bill/update"
	BillDelete Kind = "bill/delete"

	ContractCreate    Kind = "contract/create"
	ContractUpdate    Kind = "contract/update"
	ContractTerminate Kind = "contract/terminate"
	ContractDelete    Kind = "contract/delete"

	// Supporting collections share generic handlers keyed by
	// Action.EntityType. Create and update both upsert by id; the split
	// kinds exist so the sync queue knows whether the remote has ever
	// seen the entity.
	EntityCreate Kind = "entity/create"
	EntityUpdate Kind = "entity/update"
	EntityDelete Kind = "entity/delete"

	TenantReset    Kind = "tenant/reset"
	SnapshotLoad   Kind = "snapshot/load"
	ReconcileMerge Kind = "snapshot/merge"
)

// Action is the tagged record dispatched through the reducer. Exactly one
// payload field is set per kind; deletes carry only EntityID.
type Action struct {
	Kind   Kind
	Origin Origin
	Actor  string    // acting user id, or SystemActor
	At     time.Time // stamped at dispatch; audit entries use it

	Account      *domain.Account
	Transaction  *domain.Transaction
	Transactions []*domain.Transaction // TransactionBatch
	Invoice      *domain.Invoice
	Bill         *domain.Bill
	Contract     *domain.Contract
	Contact      *domain.Contact
	Category     *domain.Category
	Project      *domain.Project
	Setting      *domain.Setting

	EntityType domain.EntityType // EntityUpsert/EntityDelete
	EntityID   string            // deletes
	Tenant     string            // TenantReset
	Snapshot   *Snapshot         // SnapshotLoad / ReconcileMerge
}

// Snapshot is a full per-tenant collection payload, as loaded from the
// durable store or fetched from the remote service.
type Snapshot struct {
	Accounts     []*domain.Account     `json:"accounts,omitempty"`
	Transactions []*domain.Transaction `json:"transactions,omitempty"`
	Invoices     []*domain.Invoice     `json:"invoices,omitempty"`
	Bills        []*domain.Bill        `json:"bills,omitempty"`
	Contracts    []*domain.Contract    `json:"contracts,omitempty"`
	Contacts     []*domain.Contact     `json:"contacts,omitempty"`
	Categories   []*domain.Category    `json:"categories,omitempty"`
	Projects     []*domain.Project     `json:"projects,omitempty"`
	Settings     []*domain.Setting     `json:"settings,omitempty"`
}

// EnsureIDs assigns a fresh id to locally created records that arrive
// without one. The engine calls it at dispatch, so the applied action -
// and everything observing it, audit entries and outbound sync included -
// carries the final id. Remote-origin payloads keep the remote's id, and
// the caller's records are never mutated.
func EnsureIDs(a Action) Action {
	if a.Origin != OriginLocal {
		return a
	}
	switch a.Kind {
	case AccountCreate:
		if a.Account != nil && a.Account.ID == "" {
			c := *a.Account
			c.ID = domain.NewID()
			a.Account = &c
		}
	case TransactionCreate:
		if a.Transaction != nil && a.Transaction.ID == "" {
			c := *a.Transaction
			c.ID = domain.NewID()
			a.Transaction = &c
		}
	case TransactionBatch:
		copied := false
		for i, tx := range a.Transactions {
			if tx == nil || tx.ID != "" {
				continue
			}
			if !copied {
				a.Transactions = append([]*domain.Transaction(nil), a.Transactions...)
				copied = true
			}
			c := *tx
			c.ID = domain.NewID()
			a.Transactions[i] = &c
		}
	case InvoiceCreate:
		if a.Invoice != nil && a.Invoice.ID == "" {
			c := *a.Invoice
			c.ID = domain.NewID()
			a.Invoice = &c
		}
	case BillCreate:
		if a.Bill != nil && a.Bill.ID == "" {
			c := *a.Bill
			c.ID = domain.NewID()
			a.Bill = &c
		}
	case ContractCreate:
		if a.Contract != nil && a.Contract.ID == "" {
			c := *a.Contract
			c.ID = domain.NewID()
			a.Contract = &c
		}
	case EntityCreate:
		switch {
		case a.Contact != nil && a.Contact.ID == "":
			c := *a.Contact
			c.ID = domain.NewID()
			a.Contact = &c
		case a.Category != nil && a.Category.ID == "":
			c := *a.Category
			c.ID = domain.NewID()
			a.Category = &c
		case a.Project != nil && a.Project.ID == "":
			c := *a.Project
			c.ID = domain.NewID()
			a.Project = &c
		case a.Setting != nil && a.Setting.ID == "":
			c := *a.Setting
			c.ID = domain.NewID()
			a.Setting = &c
		}
	}
	return a
}
