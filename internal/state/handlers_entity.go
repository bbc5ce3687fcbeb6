package state

import (
	"fmt"

	"github.com/ledgerkeep/ledgerkeep/internal/domain"
)

// Supporting collections carry no ledger effects, so their handlers are
// plain upsert/remove by identity.

func entityUpsert(s *State, a Action) (string, error) {
	switch a.EntityType {
	case domain.EntityContact:
		if a.Contact == nil {
			return "", ErrMissingPayload
		}
		c := *a.Contact
		s.Contacts[c.ID] = &c
		return fmt.Sprintf("saved contact %q", c.Name), nil
	case domain.EntityCategory:
		if a.Category == nil {
			return "", ErrMissingPayload
		}
		c := *a.Category
		s.Categories[c.ID] = &c
		return fmt.Sprintf("saved category %q", c.Name), nil
	case domain.EntityProject:
		if a.Project == nil {
			return "", ErrMissingPayload
		}
		c := *a.Project
		s.Projects[c.ID] = &c
		return fmt.Sprintf("saved project %q", c.Name), nil
	case domain.EntitySetting:
		if a.Setting == nil {
			return "", ErrMissingPayload
		}
		c := *a.Setting
		s.Settings[c.ID] = &c
		return fmt.Sprintf("saved setting %q", c.Key), nil
	default:
		return "", fmt.Errorf("%w: no collection for %q", ErrMissingPayload, a.EntityType)
	}
}

func entityDelete(s *State, a Action) (string, error) {
	var present bool
	switch a.EntityType {
	case domain.EntityContact:
		_, present = s.Contacts[a.EntityID]
		delete(s.Contacts, a.EntityID)
	case domain.EntityCategory:
		_, present = s.Categories[a.EntityID]
		delete(s.Categories, a.EntityID)
	case domain.EntityProject:
		_, present = s.Projects[a.EntityID]
		delete(s.Projects, a.EntityID)
	case domain.EntitySetting:
		_, present = s.Settings[a.EntityID]
		delete(s.Settings, a.EntityID)
	default:
		return "", fmt.Errorf("%w: no collection for %q", ErrMissingPayload, a.EntityType)
	}
	if !present && a.Origin == OriginLocal {
		return "", fmt.Errorf("%w: %s %s", ErrNotFound, a.EntityType, a.EntityID)
	}
	return fmt.Sprintf("deleted %s %s", a.EntityType, a.EntityID), nil
}

// tenantReset clears every cached collection before a new tenant's data
// loads. Cross-tenant leakage through a stale collection is the failure
// mode this guards against.
func tenantReset(s *State, a Action) (string, error) {
	if a.Tenant == "" {
		return "", ErrMissingPayload
	}
	s.TenantID = a.Tenant
	s.resetCollections()
	s.TxLog = nil
	s.ErrorLog = nil
	return fmt.Sprintf("switched to tenant %s", a.Tenant), nil
}

// snapshotLoad replaces every collection from a durable-store snapshot.
func snapshotLoad(s *State, a Action) (string, error) {
	if a.Snapshot == nil {
		return "", ErrMissingPayload
	}
	s.resetCollections()
	mergeSnapshot(s, a.Snapshot)
	return "loaded snapshot", nil
}

// reconcileMerge folds a remote snapshot into the local collections:
// every locally-known entity is kept by default, then every remote entity
// overwrites (or adds) by id. Local-only records that never reached the
// remote survive; anything the remote has seen is remote-authoritative.
func reconcileMerge(s *State, a Action) (string, error) {
	if a.Snapshot == nil {
		return "", ErrMissingPayload
	}
	mergeSnapshot(s, a.Snapshot)
	return "reconciled remote snapshot", nil
}

func mergeSnapshot(s *State, snap *Snapshot) {
	mergeSlice(s.Accounts, snap.Accounts, func(v *domain.Account) string { return v.ID })
	mergeSlice(s.Transactions, snap.Transactions, func(v *domain.Transaction) string { return v.ID })
	mergeSlice(s.Invoices, snap.Invoices, func(v *domain.Invoice) string { return v.ID })
	mergeSlice(s.Bills, snap.Bills, func(v *domain.Bill) string { return v.ID })
	mergeSlice(s.Contracts, snap.Contracts, func(v *domain.Contract) string { return v.ID })
	mergeSlice(s.Contacts, snap.Contacts, func(v *domain.Contact) string { return v.ID })
	mergeSlice(s.Categories, snap.Categories, func(v *domain.Category) string { return v.ID })
	mergeSlice(s.Projects, snap.Projects, func(v *domain.Project) string { return v.ID })
	mergeSlice(s.Settings, snap.Settings, func(v *domain.Setting) string { return v.ID })
}

func mergeSlice[V any](m map[string]*V, items []*V, id func(*V) string) {
	for _, item := range items {
		c := *item
		m[id(&c)] = &c
	}
}

// SnapshotOf captures the current collections for persistence.
func SnapshotOf(s *State) *Snapshot {
	snap := &Snapshot{}
	for _, v := range s.Accounts {
		snap.Accounts = append(snap.Accounts, v)
	}
	for _, v := range s.Transactions {
		snap.Transactions = append(snap.Transactions, v)
	}
	for _, v := range s.Invoices {
		snap.Invoices = append(snap.Invoices, v)
	}
	for _, v := range s.Bills {
		snap.Bills = append(snap.Bills, v)
	}
	for _, v := range s.Contracts {
		snap.Contracts = append(snap.Contracts, v)
	}
	for _, v := range s.Contacts {
		snap.Contacts = append(snap.Contacts, v)
	}
	for _, v := range s.Categories {
		snap.Categories = append(snap.Categories, v)
	}
	for _, v := range s.Projects {
		snap.Projects = append(snap.Projects, v)
	}
	for _, v := range s.Settings {
		snap.Settings = append(snap.Settings, v)
	}
	return snap
}
