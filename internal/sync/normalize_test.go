package sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerkeep/ledgerkeep/internal/domain"
	"github.com/ledgerkeep/ledgerkeep/internal/remote"
	"github.com/ledgerkeep/ledgerkeep/internal/state"
)

func TestTransactionWire_RoundTrip(t *testing.T) {
	tx := &domain.Transaction{
		ID:            "t1",
		Kind:          domain.TxTransfer,
		Amount:        dec("123.45"),
		Date:          time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		FromAccountID: "a",
		ToAccountID:   "b",
		CategoryID:    "cat",
		Generated:     true,
	}

	got := transactionFromWire(transactionToWire(tx))

	assert.Equal(t, tx.ID, got.ID)
	assert.Equal(t, tx.Kind, got.Kind)
	assert.True(t, got.Amount.Equal(tx.Amount))
	assert.True(t, got.Date.Equal(tx.Date))
	assert.Equal(t, tx.FromAccountID, got.FromAccountID)
	assert.Equal(t, tx.ToAccountID, got.ToAccountID)
	assert.Equal(t, tx.CategoryID, got.CategoryID)
	assert.True(t, got.Generated)
}

func TestWireDecimal_StringPreferredFloatTolerated(t *testing.T) {
	m := map[string]any{"exact": "0.1", "legacy": 0.5}

	assert.True(t, wireDecimal(m, "exact").Equal(dec("0.1")))
	assert.True(t, wireDecimal(m, "legacy").Equal(dec("0.5")))
	assert.True(t, wireDecimal(m, "absent").IsZero())
}

func TestAmountsTravelAsStrings(t *testing.T) {
	m := invoiceToWire(&domain.Invoice{ID: "inv", Amount: dec("300.10"), PaidAmount: dec("0.01")})

	// Decimal strings, never floats. Trailing zeros are not significant
	// to the decimal, so "300.10" travels as "300.1".
	assert.Equal(t, "300.1", m["amount"])
	assert.Equal(t, "0.01", m["paidAmount"])
}

func TestActionFromEvent_UpsertsMapToUpdates(t *testing.T) {
	a, ok := actionFromEvent(remote.Event{
		TenantID:   "acme",
		UserID:     "other-user",
		EntityType: domain.EntityInvoice,
		Operation:  domain.OpCreate,
		Payload:    map[string]any{"id": "inv-1", "amount": "300"},
	})

	require.True(t, ok)
	assert.Equal(t, state.InvoiceUpdate, a.Kind)
	assert.Equal(t, state.OriginRemote, a.Origin)
	require.NotNil(t, a.Invoice)
	assert.Equal(t, "inv-1", a.Invoice.ID)
}

func TestActionFromEvent_Deletes(t *testing.T) {
	a, ok := actionFromEvent(remote.Event{
		EntityType: domain.EntityContact,
		Operation:  domain.OpDelete,
		Payload:    map[string]any{"id": "c1"},
	})

	require.True(t, ok)
	assert.Equal(t, state.EntityDelete, a.Kind)
	assert.Equal(t, domain.EntityContact, a.EntityType)
	assert.Equal(t, "c1", a.EntityID)
}

func TestActionFromEvent_UnknownEntityType(t *testing.T) {
	_, ok := actionFromEvent(remote.Event{
		EntityType: "widget",
		Operation:  domain.OpCreate,
		Payload:    map[string]any{"id": "w1"},
	})

	assert.False(t, ok, "unknown entity types are skipped, not applied")
}

func TestSnapshotFromWire(t *testing.T) {
	snap := snapshotFromWire(remote.Snapshot{
		domain.EntityAccount: {
			{"id": "cash", "name": "Cash", "balance": "1000"},
		},
		domain.EntityInvoice: {
			{"id": "inv-1", "amount": "300", "status": "unpaid"},
			{"id": "inv-2", "amount": "50", "status": "paid"},
		},
	})

	require.Len(t, snap.Accounts, 1)
	assert.True(t, snap.Accounts[0].Balance.Equal(dec("1000")))
	require.Len(t, snap.Invoices, 2)
	assert.Equal(t, domain.StatusPaid, snap.Invoices[1].Status)
}
