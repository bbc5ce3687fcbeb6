package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerkeep/ledgerkeep/internal/domain"
)

// testBook is a minimal in-memory Book for propagator tests.
type testBook struct {
	accounts  map[string]*domain.Account
	invoices  map[string]*domain.Invoice
	bills     map[string]*domain.Bill
	contracts map[string]*domain.Contract
	linked    []*domain.Transaction
}

func newTestBook() *testBook {
	return &testBook{
		accounts:  make(map[string]*domain.Account),
		invoices:  make(map[string]*domain.Invoice),
		bills:     make(map[string]*domain.Bill),
		contracts: make(map[string]*domain.Contract),
	}
}

func (b *testBook) Account(id string) (*domain.Account, bool) {
	a, ok := b.accounts[id]
	return a, ok
}

func (b *testBook) Invoice(id string) (*domain.Invoice, bool) {
	inv, ok := b.invoices[id]
	return inv, ok
}

func (b *testBook) Bill(id string) (*domain.Bill, bool) {
	bl, ok := b.bills[id]
	return bl, ok
}

func (b *testBook) Contract(id string) (*domain.Contract, bool) {
	c, ok := b.contracts[id]
	return c, ok
}

func (b *testBook) ContractTotal(contractID string) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range b.linked {
		if tx.ContractID == contractID {
			total = total.Add(tx.Amount)
		}
	}
	return total
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestApplyEffect_IncomeAndExpense(t *testing.T) {
	book := newTestBook()
	book.accounts["cash"] = &domain.Account{ID: "cash", Name: "Cash"}

	income := &domain.Transaction{ID: "t1", Kind: domain.TxIncome, Amount: dec("150.25"), AccountID: "cash"}
	require.NoError(t, ApplyEffect(book, income, Forward))
	assert.True(t, book.accounts["cash"].Balance.Equal(dec("150.25")))

	expense := &domain.Transaction{ID: "t2", Kind: domain.TxExpense, Amount: dec("50.25"), AccountID: "cash"}
	require.NoError(t, ApplyEffect(book, expense, Forward))
	assert.True(t, book.accounts["cash"].Balance.Equal(dec("100")))
}

func TestApplyEffect_TransferMovesBothAccounts(t *testing.T) {
	book := newTestBook()
	book.accounts["a"] = &domain.Account{ID: "a", Balance: dec("500")}
	book.accounts["b"] = &domain.Account{ID: "b"}

	tx := &domain.Transaction{ID: "t1", Kind: domain.TxTransfer, Amount: dec("200"), FromAccountID: "a", ToAccountID: "b"}
	require.NoError(t, ApplyEffect(book, tx, Forward))

	assert.True(t, book.accounts["a"].Balance.Equal(dec("300")))
	assert.True(t, book.accounts["b"].Balance.Equal(dec("200")))
}

func TestApplyEffect_LoanSubtypes(t *testing.T) {
	cases := []struct {
		subtype domain.LoanSubtype
		want    string
	}{
		{domain.LoanReceive, "100"},
		{domain.LoanCollect, "100"},
		{domain.LoanRepay, "-100"},
		{domain.LoanExtend, "-100"},
	}
	for _, tc := range cases {
		t.Run(string(tc.subtype), func(t *testing.T) {
			book := newTestBook()
			book.accounts["cash"] = &domain.Account{ID: "cash"}

			tx := &domain.Transaction{ID: "t1", Kind: domain.TxLoan, LoanSubtype: tc.subtype, Amount: dec("100"), AccountID: "cash"}
			require.NoError(t, ApplyEffect(book, tx, Forward))
			assert.True(t, book.accounts["cash"].Balance.Equal(dec(tc.want)),
				"balance %s, want %s", book.accounts["cash"].Balance, tc.want)
		})
	}
}

func TestApplyEffect_ReverseIsExactInverse(t *testing.T) {
	book := newTestBook()
	book.accounts["a"] = &domain.Account{ID: "a", Balance: dec("123.45")}
	book.accounts["b"] = &domain.Account{ID: "b", Balance: dec("67.89")}
	book.invoices["inv"] = &domain.Invoice{ID: "inv", Amount: dec("300"), PaidAmount: dec("10.01")}

	txs := []*domain.Transaction{
		{ID: "t1", Kind: domain.TxIncome, Amount: dec("33.33"), AccountID: "a", InvoiceID: "inv"},
		{ID: "t2", Kind: domain.TxExpense, Amount: dec("0.07"), AccountID: "b"},
		{ID: "t3", Kind: domain.TxTransfer, Amount: dec("99.99"), FromAccountID: "a", ToAccountID: "b"},
	}
	for _, tx := range txs {
		require.NoError(t, ApplyEffect(book, tx, Forward))
	}
	// Reverse in any order; effects commute.
	for _, tx := range []*domain.Transaction{txs[1], txs[2], txs[0]} {
		require.NoError(t, ApplyEffect(book, tx, Reverse))
	}

	assert.True(t, book.accounts["a"].Balance.Equal(dec("123.45")))
	assert.True(t, book.accounts["b"].Balance.Equal(dec("67.89")))
	assert.True(t, book.invoices["inv"].PaidAmount.Equal(dec("10.01")))
}

func TestApplyEffect_InvoiceCascade(t *testing.T) {
	book := newTestBook()
	book.accounts["cash"] = &domain.Account{ID: "cash"}
	book.invoices["inv"] = &domain.Invoice{ID: "inv", Amount: dec("300"), Status: domain.StatusUnpaid}

	tx := &domain.Transaction{ID: "t1", Kind: domain.TxIncome, Amount: dec("100"), AccountID: "cash", InvoiceID: "inv"}
	require.NoError(t, ApplyEffect(book, tx, Forward))

	inv := book.invoices["inv"]
	assert.True(t, inv.PaidAmount.Equal(dec("100")))
	assert.Equal(t, domain.StatusPartiallyPaid, inv.Status)

	rest := &domain.Transaction{ID: "t2", Kind: domain.TxIncome, Amount: dec("200"), AccountID: "cash", InvoiceID: "inv"}
	require.NoError(t, ApplyEffect(book, rest, Forward))
	assert.Equal(t, domain.StatusPaid, inv.Status)
	assert.True(t, book.accounts["cash"].Balance.Equal(dec("300")))
}

func TestApplyEffect_PaidAmountClampsAtZero(t *testing.T) {
	book := newTestBook()
	book.accounts["cash"] = &domain.Account{ID: "cash", Balance: dec("50")}
	book.bills["bl"] = &domain.Bill{ID: "bl", Amount: dec("100"), PaidAmount: dec("20"), Status: domain.StatusPartiallyPaid}

	// Reversing more than was ever paid floors the paid amount at zero.
	tx := &domain.Transaction{ID: "t1", Kind: domain.TxExpense, Amount: dec("80"), AccountID: "cash", BillID: "bl"}
	require.NoError(t, ApplyEffect(book, tx, Reverse))

	bl := book.bills["bl"]
	assert.True(t, bl.PaidAmount.IsZero())
	assert.Equal(t, domain.StatusUnpaid, bl.Status)
}

func TestApplyEffect_MissingReferenceMutatesNothing(t *testing.T) {
	book := newTestBook()
	book.accounts["cash"] = &domain.Account{ID: "cash", Balance: dec("100")}

	tx := &domain.Transaction{ID: "t1", Kind: domain.TxIncome, Amount: dec("40"), AccountID: "cash", InvoiceID: "ghost"}
	err := ApplyEffect(book, tx, Forward)
	require.ErrorIs(t, err, ErrInvoiceNotFound)

	// The account lookup succeeded but nothing moved.
	assert.True(t, book.accounts["cash"].Balance.Equal(dec("100")))
}

func TestApplyEffect_NegativeAmountRejected(t *testing.T) {
	book := newTestBook()
	book.accounts["cash"] = &domain.Account{ID: "cash"}

	tx := &domain.Transaction{ID: "t1", Kind: domain.TxIncome, Amount: dec("-5"), AccountID: "cash"}
	assert.ErrorIs(t, ApplyEffect(book, tx, Forward), ErrInvalidAmount)
}

func TestApplyEffect_ContractDerivation(t *testing.T) {
	book := newTestBook()
	book.accounts["cash"] = &domain.Account{ID: "cash"}
	book.contracts["c1"] = &domain.Contract{ID: "c1", TotalAmount: dec("1000"), Status: domain.ContractActive}

	tx := &domain.Transaction{ID: "t1", Kind: domain.TxIncome, Amount: dec("999.50"), AccountID: "cash", ContractID: "c1"}
	book.linked = append(book.linked, tx)
	require.NoError(t, ApplyEffect(book, tx, Forward))

	// 999.50 >= 1000 - 1.0, so the contract completes.
	assert.Equal(t, domain.ContractCompleted, book.contracts["c1"].Status)
}
