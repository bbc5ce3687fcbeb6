package sync

import (
	"github.com/ledgerkeep/ledgerkeep/internal/domain"
	"github.com/ledgerkeep/ledgerkeep/internal/state"
)

// mutation is one outbound remote operation derived from an applied
// local action.
type mutation struct {
	EntityType domain.EntityType
	EntityID   string
	Operation  domain.Operation
	Payload    map[string]any
}

// mutationsOf maps an applied action to the remote operations it implies.
// Read-only over the state snapshot; returns nil for actions that carry
// no remote mutation (snapshot loads, merges, tenant resets).
func mutationsOf(st *state.State, a state.Action) []mutation {
	switch a.Kind {
	case state.AccountCreate, state.AccountUpdate:
		op := opFor(a.Kind == state.AccountCreate)
		return []mutation{{domain.EntityAccount, a.Account.ID, op, accountToWire(a.Account)}}
	case state.AccountDelete:
		return deleteMutation(domain.EntityAccount, a.EntityID)

	case state.TransactionCreate, state.TransactionUpdate:
		op := opFor(a.Kind == state.TransactionCreate)
		return []mutation{{domain.EntityTransaction, a.Transaction.ID, op, transactionToWire(a.Transaction)}}
	case state.TransactionDelete:
		return deleteMutation(domain.EntityTransaction, a.EntityID)
	case state.TransactionBatch:
		muts := make([]mutation, 0, len(a.Transactions))
		for _, tx := range a.Transactions {
			// Only transactions the reducer actually accepted sync out.
			if _, ok := st.Transactions[tx.ID]; !ok {
				continue
			}
			muts = append(muts, mutation{domain.EntityTransaction, tx.ID, domain.OpCreate, transactionToWire(tx)})
		}
		return muts

	case state.InvoiceCreate, state.InvoiceUpdate:
		op := opFor(a.Kind == state.InvoiceCreate)
		// Send the stored record: the reducer derives status and owns
		// the paid amount.
		if stored, ok := st.Invoices[a.Invoice.ID]; ok {
			return []mutation{{domain.EntityInvoice, stored.ID, op, invoiceToWire(stored)}}
		}
		return []mutation{{domain.EntityInvoice, a.Invoice.ID, op, invoiceToWire(a.Invoice)}}
	case state.InvoiceDelete:
		return deleteMutation(domain.EntityInvoice, a.EntityID)

	case state.BillCreate, state.BillUpdate:
		op := opFor(a.Kind == state.BillCreate)
		if stored, ok := st.Bills[a.Bill.ID]; ok {
			return []mutation{{domain.EntityBill, stored.ID, op, billToWire(stored)}}
		}
		return []mutation{{domain.EntityBill, a.Bill.ID, op, billToWire(a.Bill)}}
	case state.BillDelete:
		return deleteMutation(domain.EntityBill, a.EntityID)

	case state.ContractCreate, state.ContractUpdate:
		op := opFor(a.Kind == state.ContractCreate)
		if stored, ok := st.Contracts[a.Contract.ID]; ok {
			return []mutation{{domain.EntityContract, stored.ID, op, contractToWire(stored)}}
		}
		return []mutation{{domain.EntityContract, a.Contract.ID, op, contractToWire(a.Contract)}}
	case state.ContractTerminate:
		if stored, ok := st.Contracts[a.EntityID]; ok {
			return []mutation{{domain.EntityContract, stored.ID, domain.OpUpdate, contractToWire(stored)}}
		}
		return nil
	case state.ContractDelete:
		return deleteMutation(domain.EntityContract, a.EntityID)

	case state.EntityCreate, state.EntityUpdate:
		op := opFor(a.Kind == state.EntityCreate)
		switch a.EntityType {
		case domain.EntityContact:
			return []mutation{{a.EntityType, a.Contact.ID, op, contactToWire(a.Contact)}}
		case domain.EntityCategory:
			return []mutation{{a.EntityType, a.Category.ID, op, categoryToWire(a.Category)}}
		case domain.EntityProject:
			return []mutation{{a.EntityType, a.Project.ID, op, projectToWire(a.Project)}}
		case domain.EntitySetting:
			return []mutation{{a.EntityType, a.Setting.ID, op, settingToWire(a.Setting)}}
		}
		return nil
	case state.EntityDelete:
		return deleteMutation(a.EntityType, a.EntityID)

	default:
		return nil
	}
}

func opFor(create bool) domain.Operation {
	if create {
		return domain.OpCreate
	}
	return domain.OpUpdate
}

func deleteMutation(entityType domain.EntityType, id string) []mutation {
	return []mutation{{entityType, id, domain.OpDelete, map[string]any{"id": id}}}
}
