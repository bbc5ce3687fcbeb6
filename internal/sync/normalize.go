package sync

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgerkeep/ledgerkeep/internal/domain"
	"github.com/ledgerkeep/ledgerkeep/internal/remote"
	"github.com/ledgerkeep/ledgerkeep/internal/state"
)

// The remote speaks camelCase JSON objects with decimals as strings and
// timestamps as RFC 3339. Everything crossing the boundary goes through
// these converters; domain records never leak wire shape and vice versa.

func wireString(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func wireBool(m map[string]any, key string) bool {
	v, ok := m[key].(bool)
	return ok && v
}

func wireDecimal(m map[string]any, key string) decimal.Decimal {
	switch v := m[key].(type) {
	case string:
		if d, err := decimal.NewFromString(v); err == nil {
			return d
		}
	case float64:
		// Tolerated on inbound payloads from older senders; outbound
		// payloads always use strings.
		return decimal.NewFromFloat(v)
	}
	return decimal.Zero
}

func wireTime(m map[string]any, key string) time.Time {
	if v, ok := m[key].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t
		}
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

func putTime(m map[string]any, key string, t time.Time) {
	if !t.IsZero() {
		m[key] = t.UTC().Format(time.RFC3339Nano)
	}
}

// Account ------------------------------------------------------------------

func accountToWire(a *domain.Account) map[string]any {
	m := map[string]any{
		"id":        a.ID,
		"name":      a.Name,
		"kind":      string(a.Kind),
		"balance":   a.Balance.String(),
		"permanent": a.Permanent,
	}
	putTime(m, "createdAt", a.CreatedAt)
	return m
}

func accountFromWire(m map[string]any) *domain.Account {
	return &domain.Account{
		ID:        wireString(m, "id"),
		Name:      wireString(m, "name"),
		Kind:      domain.AccountKind(wireString(m, "kind")),
		Balance:   wireDecimal(m, "balance"),
		Permanent: wireBool(m, "permanent"),
		CreatedAt: wireTime(m, "createdAt"),
	}
}

// Transaction ---------------------------------------------------------------

func transactionToWire(tx *domain.Transaction) map[string]any {
	m := map[string]any{
		"id":     tx.ID,
		"kind":   string(tx.Kind),
		"amount": tx.Amount.String(),
	}
	putTime(m, "date", tx.Date)
	if tx.LoanSubtype != "" {
		m["loanSubtype"] = string(tx.LoanSubtype)
	}
	if tx.AccountID != "" {
		m["accountId"] = tx.AccountID
	}
	if tx.FromAccountID != "" {
		m["fromAccountId"] = tx.FromAccountID
	}
	if tx.ToAccountID != "" {
		m["toAccountId"] = tx.ToAccountID
	}
	if tx.CategoryID != "" {
		m["categoryId"] = tx.CategoryID
	}
	if tx.ContactID != "" {
		m["contactId"] = tx.ContactID
	}
	if tx.InvoiceID != "" {
		m["invoiceId"] = tx.InvoiceID
	}
	if tx.BillID != "" {
		m["billId"] = tx.BillID
	}
	if tx.ContractID != "" {
		m["contractId"] = tx.ContractID
	}
	if tx.AgreementID != "" {
		m["agreementId"] = tx.AgreementID
	}
	if tx.Generated {
		m["generated"] = true
	}
	return m
}

func transactionFromWire(m map[string]any) *domain.Transaction {
	return &domain.Transaction{
		ID:            wireString(m, "id"),
		Kind:          domain.TransactionKind(wireString(m, "kind")),
		LoanSubtype:   domain.LoanSubtype(wireString(m, "loanSubtype")),
		Amount:        wireDecimal(m, "amount"),
		Date:          wireTime(m, "date"),
		AccountID:     wireString(m, "accountId"),
		FromAccountID: wireString(m, "fromAccountId"),
		ToAccountID:   wireString(m, "toAccountId"),
		CategoryID:    wireString(m, "categoryId"),
		ContactID:     wireString(m, "contactId"),
		InvoiceID:     wireString(m, "invoiceId"),
		BillID:        wireString(m, "billId"),
		ContractID:    wireString(m, "contractId"),
		AgreementID:   wireString(m, "agreementId"),
		Generated:     wireBool(m, "generated"),
	}
}

// Invoice / Bill ------------------------------------------------------------

func invoiceToWire(inv *domain.Invoice) map[string]any {
	m := map[string]any{
		"id":         inv.ID,
		"amount":     inv.Amount.String(),
		"paidAmount": inv.PaidAmount.String(),
		"status":     string(inv.Status),
	}
	if inv.ContactID != "" {
		m["contactId"] = inv.ContactID
	}
	if inv.ContractID != "" {
		m["contractId"] = inv.ContractID
	}
	putTime(m, "issuedAt", inv.IssuedAt)
	return m
}

func invoiceFromWire(m map[string]any) *domain.Invoice {
	return &domain.Invoice{
		ID:         wireString(m, "id"),
		ContactID:  wireString(m, "contactId"),
		ContractID: wireString(m, "contractId"),
		Amount:     wireDecimal(m, "amount"),
		PaidAmount: wireDecimal(m, "paidAmount"),
		Status:     domain.DocumentStatus(wireString(m, "status")),
		IssuedAt:   wireTime(m, "issuedAt"),
	}
}

func billToWire(b *domain.Bill) map[string]any {
	m := map[string]any{
		"id":         b.ID,
		"amount":     b.Amount.String(),
		"paidAmount": b.PaidAmount.String(),
		"status":     string(b.Status),
	}
	if b.ContactID != "" {
		m["contactId"] = b.ContactID
	}
	if b.ContractID != "" {
		m["contractId"] = b.ContractID
	}
	putTime(m, "issuedAt", b.IssuedAt)
	return m
}

func billFromWire(m map[string]any) *domain.Bill {
	return &domain.Bill{
		ID:         wireString(m, "id"),
		ContactID:  wireString(m, "contactId"),
		ContractID: wireString(m, "contractId"),
		Amount:     wireDecimal(m, "amount"),
		PaidAmount: wireDecimal(m, "paidAmount"),
		Status:     domain.DocumentStatus(wireString(m, "status")),
		IssuedAt:   wireTime(m, "issuedAt"),
	}
}

// Contract ------------------------------------------------------------------

func contractToWire(c *domain.Contract) map[string]any {
	m := map[string]any{
		"id":          c.ID,
		"name":        c.Name,
		"totalAmount": c.TotalAmount.String(),
		"status":      string(c.Status),
	}
	if c.ContactID != "" {
		m["contactId"] = c.ContactID
	}
	putTime(m, "startedAt", c.StartedAt)
	return m
}

func contractFromWire(m map[string]any) *domain.Contract {
	return &domain.Contract{
		ID:          wireString(m, "id"),
		Name:        wireString(m, "name"),
		ContactID:   wireString(m, "contactId"),
		TotalAmount: wireDecimal(m, "totalAmount"),
		Status:      domain.ContractStatus(wireString(m, "status")),
		StartedAt:   wireTime(m, "startedAt"),
	}
}

// Supporting collections ----------------------------------------------------

func contactToWire(c *domain.Contact) map[string]any {
	m := map[string]any{"id": c.ID, "name": c.Name}
	if c.Email != "" {
		m["email"] = c.Email
	}
	if c.Phone != "" {
		m["phone"] = c.Phone
	}
	return m
}

func contactFromWire(m map[string]any) *domain.Contact {
	return &domain.Contact{
		ID:    wireString(m, "id"),
		Name:  wireString(m, "name"),
		Email: wireString(m, "email"),
		Phone: wireString(m, "phone"),
	}
}

func categoryToWire(c *domain.Category) map[string]any {
	m := map[string]any{"id": c.ID, "name": c.Name}
	if c.Kind != "" {
		m["kind"] = c.Kind
	}
	return m
}

func categoryFromWire(m map[string]any) *domain.Category {
	return &domain.Category{
		ID:   wireString(m, "id"),
		Name: wireString(m, "name"),
		Kind: wireString(m, "kind"),
	}
}

func projectToWire(p *domain.Project) map[string]any {
	return map[string]any{"id": p.ID, "name": p.Name}
}

func projectFromWire(m map[string]any) *domain.Project {
	return &domain.Project{ID: wireString(m, "id"), Name: wireString(m, "name")}
}

func settingToWire(s *domain.Setting) map[string]any {
	return map[string]any{"id": s.ID, "key": s.Key, "value": s.Value}
}

func settingFromWire(m map[string]any) *domain.Setting {
	return &domain.Setting{
		ID:    wireString(m, "id"),
		Key:   wireString(m, "key"),
		Value: wireString(m, "value"),
	}
}

// Snapshot ------------------------------------------------------------------

// snapshotFromWire normalizes a full remote snapshot into the reducer's
// shape, collection by collection in replication order.
func snapshotFromWire(snap remote.Snapshot) *state.Snapshot {
	out := &state.Snapshot{}
	for _, et := range domain.SyncedTypes {
		for _, m := range snap[et] {
			switch et {
			case domain.EntityAccount:
				out.Accounts = append(out.Accounts, accountFromWire(m))
			case domain.EntityTransaction:
				out.Transactions = append(out.Transactions, transactionFromWire(m))
			case domain.EntityInvoice:
				out.Invoices = append(out.Invoices, invoiceFromWire(m))
			case domain.EntityBill:
				out.Bills = append(out.Bills, billFromWire(m))
			case domain.EntityContract:
				out.Contracts = append(out.Contracts, contractFromWire(m))
			case domain.EntityContact:
				out.Contacts = append(out.Contacts, contactFromWire(m))
			case domain.EntityCategory:
				out.Categories = append(out.Categories, categoryFromWire(m))
			case domain.EntityProject:
				out.Projects = append(out.Projects, projectFromWire(m))
			case domain.EntitySetting:
				out.Settings = append(out.Settings, settingFromWire(m))
			}
		}
	}
	return out
}

// Events --------------------------------------------------------------------

// actionFromEvent normalizes a real-time event into a remote-origin
// action. Reports false for entity types this build does not know.
func actionFromEvent(ev remote.Event) (state.Action, bool) {
	a := state.Action{Origin: state.OriginRemote, Actor: ev.UserID}

	if ev.Operation == domain.OpDelete {
		id := wireString(ev.Payload, "id")
		switch ev.EntityType {
		case domain.EntityAccount:
			a.Kind = state.AccountDelete
		case domain.EntityTransaction:
			a.Kind = state.TransactionDelete
		case domain.EntityInvoice:
			a.Kind = state.InvoiceDelete
		case domain.EntityBill:
			a.Kind = state.BillDelete
		case domain.EntityContract:
			a.Kind = state.ContractDelete
		case domain.EntityContact, domain.EntityCategory, domain.EntityProject, domain.EntitySetting:
			a.Kind = state.EntityDelete
			a.EntityType = ev.EntityType
		default:
			return state.Action{}, false
		}
		a.EntityID = id
		return a, true
	}

	// created and updated both land as upserts: insert-if-absent,
	// merge-if-present by id.
	switch ev.EntityType {
	case domain.EntityAccount:
		a.Kind = state.AccountUpdate
		a.Account = accountFromWire(ev.Payload)
	case domain.EntityTransaction:
		a.Kind = state.TransactionUpdate
		a.Transaction = transactionFromWire(ev.Payload)
	case domain.EntityInvoice:
		a.Kind = state.InvoiceUpdate
		a.Invoice = invoiceFromWire(ev.Payload)
	case domain.EntityBill:
		a.Kind = state.BillUpdate
		a.Bill = billFromWire(ev.Payload)
	case domain.EntityContract:
		a.Kind = state.ContractUpdate
		a.Contract = contractFromWire(ev.Payload)
	case domain.EntityContact:
		a.Kind = state.EntityUpdate
		a.EntityType = ev.EntityType
		a.Contact = contactFromWire(ev.Payload)
	case domain.EntityCategory:
		a.Kind = state.EntityUpdate
		a.EntityType = ev.EntityType
		a.Category = categoryFromWire(ev.Payload)
	case domain.EntityProject:
		a.Kind = state.EntityUpdate
		a.EntityType = ev.EntityType
		a.Project = projectFromWire(ev.Payload)
	case domain.EntitySetting:
		a.Kind = state.EntityUpdate
		a.EntityType = ev.EntityType
		a.Setting = settingFromWire(ev.Payload)
	default:
		return state.Action{}, false
	}
	return a, true
}
