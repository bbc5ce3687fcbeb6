package state

import (
	"github.com/ledgerkeep/ledgerkeep/internal/domain"
)

// handlerFunc applies one action kind. It returns the audit description on
// success. On error the state must be exactly as the handler found it.
type handlerFunc func(s *State, a Action) (string, error)

// handlers is the dispatch table. Adding an action kind means adding a row
// here; Apply itself never grows a switch. Populated in init because
// transactionBatch re-enters Apply, which a map literal cannot express.
var handlers map[Kind]handlerFunc

func init() {
	handlers = map[Kind]handlerFunc{
		AccountCreate: accountCreate,
		AccountUpdate: accountUpdate,
		AccountDelete: accountDelete,

		TransactionCreate: transactionCreate,
		TransactionUpdate: transactionUpdate,
		TransactionDelete: transactionDelete,
		TransactionBatch:  transactionBatch,

		InvoiceCreate: invoiceCreate,
		InvoiceUpdate: invoiceUpdate,
		InvoiceDelete: invoiceDelete,

		BillCreate: billCreate,
		BillUpdate: billUpdate,
		BillDelete: billDelete,

		ContractCreate:    contractCreate,
		ContractUpdate:    contractUpdate,
		ContractTerminate: contractTerminate,
		ContractDelete:    contractDelete,

		EntityCreate: entityUpsert,
		EntityUpdate: entityUpsert,
		EntityDelete: entityDelete,

		TenantReset:    tenantReset,
		SnapshotLoad:   snapshotLoad,
		ReconcileMerge: reconcileMerge,
	}
}

// Apply is the state transition function: total, deterministic, and
// synchronous. It reports whether the action mutated the state.
//
// Unknown kinds return false with the state unchanged - newer senders may
// emit kinds this build does not know. Validation failures are no-ops
// recorded in the error log. Successful applications append to the
// transaction audit trail.
func Apply(s *State, a Action) bool {
	h, ok := handlers[a.Kind]
	if !ok {
		return false
	}

	actor := a.Actor
	if actor == "" {
		actor = SystemActor
	}
	entityType, entityID := auditTarget(a)

	desc, err := h(s, a)
	if err != nil {
		s.recordError(AuditEntry{
			Action:      string(a.Kind),
			EntityType:  entityType,
			EntityID:    entityID,
			Description: err.Error(),
			Actor:       actor,
			At:          a.At,
		})
		return false
	}
	s.recordAudit(AuditEntry{
		Action:      string(a.Kind),
		EntityType:  entityType,
		EntityID:    entityID,
		Description: desc,
		Actor:       actor,
		At:          a.At,
	})
	return true
}

// auditTarget extracts the entity type and id an action is about, for the
// audit entry.
func auditTarget(a Action) (string, string) {
	switch {
	case a.Account != nil:
		return string(domain.EntityAccount), a.Account.ID
	case a.Transaction != nil:
		return string(domain.EntityTransaction), a.Transaction.ID
	case len(a.Transactions) > 0:
		return string(domain.EntityTransaction), ""
	case a.Invoice != nil:
		return string(domain.EntityInvoice), a.Invoice.ID
	case a.Bill != nil:
		return string(domain.EntityBill), a.Bill.ID
	case a.Contract != nil:
		return string(domain.EntityContract), a.Contract.ID
	case a.Contact != nil:
		return string(domain.EntityContact), a.Contact.ID
	case a.Category != nil:
		return string(domain.EntityCategory), a.Category.ID
	case a.Project != nil:
		return string(domain.EntityProject), a.Project.ID
	case a.Setting != nil:
		return string(domain.EntitySetting), a.Setting.ID
	case a.EntityType != "":
		return string(a.EntityType), a.EntityID
	default:
		// Deletion kinds carry only the id; infer the type from the kind.
		switch a.Kind {
		case AccountDelete:
			return string(domain.EntityAccount), a.EntityID
		case TransactionDelete:
			return string(domain.EntityTransaction), a.EntityID
		case InvoiceDelete:
			return string(domain.EntityInvoice), a.EntityID
		case BillDelete:
			return string(domain.EntityBill), a.EntityID
		case ContractDelete, ContractTerminate:
			return string(domain.EntityContract), a.EntityID
		}
		return "", a.EntityID
	}
}
