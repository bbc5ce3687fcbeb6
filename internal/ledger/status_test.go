package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ledgerkeep/ledgerkeep/internal/domain"
)

func TestDeriveDocumentStatus(t *testing.T) {
	cases := []struct {
		name   string
		amount string
		paid   string
		want   domain.DocumentStatus
	}{
		{"zero paid", "100", "0", domain.StatusUnpaid},
		{"below epsilon", "100", "0.01", domain.StatusUnpaid},
		{"just above epsilon", "100", "0.02", domain.StatusPartiallyPaid},
		{"half paid", "100", "50", domain.StatusPartiallyPaid},
		{"within epsilon of full", "100", "99.99", domain.StatusPaid},
		{"exactly full", "100", "100", domain.StatusPaid},
		{"overpaid", "100", "120", domain.StatusPaid},
		{"zero amount", "0", "0", domain.StatusPaid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DeriveDocumentStatus(dec(tc.amount), dec(tc.paid))
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDeriveDocumentStatus_SameEpsilonForInvoicesAndBills(t *testing.T) {
	inv := &domain.Invoice{Amount: dec("200"), PaidAmount: dec("199.99")}
	bl := &domain.Bill{Amount: dec("200"), PaidAmount: dec("199.99")}

	DeriveInvoice(inv)
	DeriveBill(bl)

	assert.Equal(t, domain.StatusPaid, inv.Status)
	assert.Equal(t, domain.StatusPaid, bl.Status)
}

func TestDeriveContractStatus_TogglesBothWays(t *testing.T) {
	book := newTestBook()
	c := &domain.Contract{ID: "c1", TotalAmount: dec("500"), Status: domain.ContractActive}
	book.contracts["c1"] = c

	tx := &domain.Transaction{ID: "t1", Amount: dec("499.50"), ContractID: "c1"}
	book.linked = append(book.linked, tx)
	DeriveContractStatus(book, "c1")
	assert.Equal(t, domain.ContractCompleted, c.Status)

	// Removing the linked transaction reopens the contract.
	book.linked = nil
	DeriveContractStatus(book, "c1")
	assert.Equal(t, domain.ContractActive, c.Status)
}

func TestDeriveContractStatus_TerminatedIsAbsorbing(t *testing.T) {
	book := newTestBook()
	c := &domain.Contract{ID: "c1", TotalAmount: dec("100"), Status: domain.ContractTerminated}
	book.contracts["c1"] = c

	book.linked = append(book.linked, &domain.Transaction{ID: "t1", Amount: dec("100"), ContractID: "c1"})
	DeriveContractStatus(book, "c1")
	assert.Equal(t, domain.ContractTerminated, c.Status)
}

func TestDeriveContractStatus_UnknownContractIsNoop(t *testing.T) {
	book := newTestBook()
	// Must not panic on a dangling id.
	DeriveContractStatus(book, "ghost")
}
