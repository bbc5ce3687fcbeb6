package domain

// EntityType tags a synced collection. Tags match the wire names used by
// the remote service.
type EntityType string

const (
	EntityAccount     EntityType = "account"
	EntityTransaction EntityType = "transaction"
	EntityInvoice     EntityType = "invoice"
	EntityBill        EntityType = "bill"
	EntityContract    EntityType = "contract"
	EntityContact     EntityType = "contact"
	EntityCategory    EntityType = "category"
	EntityProject     EntityType = "project"
	EntitySetting     EntityType = "setting"
)

// SyncedTypes lists every collection the sync engine replicates, in the
// order reconciliation fetches them. Referenced entities (accounts,
// contacts) come before the records that point at them.
var SyncedTypes = []EntityType{
	EntityAccount,
	EntityContact,
	EntityCategory,
	EntityProject,
	EntityContract,
	EntityInvoice,
	EntityBill,
	EntityTransaction,
	EntitySetting,
}

// Operation is a mutation verb carried by sync-queue items and remote
// events.
type Operation string

const (
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)
