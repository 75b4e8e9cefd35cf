package ledger_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keystone/ledger-engine/ledger"
	"github.com/keystone/ledger-engine/ledger/store"
)

// =============================================================================
// TRIAL BALANCE TESTS
// =============================================================================

func TestTrialBalance_AggregatesAndBalances(t *testing.T) {
	// GIVEN: Capital injection and a sale with GST
	// WHEN: Computing the trial balance
	// THEN: Rows are sorted by code and grand totals agree

	l := newTestLedger(t)
	ctx := context.Background()

	_, err := l.PostEntry(ctx, balancedEntry(ledger.NewDate(2024, 4, 1), 10000))
	require.NoError(t, err)

	_, err = l.PostEntry(ctx, ledger.JournalEntry{
		Org:  testOrg,
		Date: ledger.NewDate(2024, 4, 15),
		Lines: []ledger.JournalLine{
			ledger.DebitLine(ledger.AcctReceivables, amt(1180)),
			ledger.CreditLine(ledger.AcctSalesRevenue, amt(1000)),
			ledger.CreditLine(ledger.AcctGSTOutput, amt(180)),
		},
	})
	require.NoError(t, err)

	rows, err := l.TrialBalance(ctx, testOrg, ledger.NewDate(2024, 4, 30))
	require.NoError(t, err)
	require.Len(t, rows, 5)

	// Sorted by account code.
	for i := 1; i < len(rows); i++ {
		assert.Less(t, string(rows[i-1].AccountCode), string(rows[i].AccountCode))
	}

	totalDebits, totalCredits := ledger.ZeroAmount(), ledger.ZeroAmount()
	for _, row := range rows {
		totalDebits = totalDebits.Add(row.DebitTotal)
		totalCredits = totalCredits.Add(row.CreditTotal)
	}
	assert.True(t, totalDebits.Equal(totalCredits))
}

func TestTrialBalance_CutoffExcludesLaterEntries(t *testing.T) {
	// GIVEN: Entries in April and May
	// WHEN: Computing as of April 30
	// THEN: Only the April entry contributes

	l := newTestLedger(t)
	ctx := context.Background()

	_, err := l.PostEntry(ctx, balancedEntry(ledger.NewDate(2024, 4, 10), 100))
	require.NoError(t, err)
	_, err = l.PostEntry(ctx, balancedEntry(ledger.NewDate(2024, 5, 10), 900))
	require.NoError(t, err)

	rows, err := l.TrialBalance(ctx, testOrg, ledger.NewDate(2024, 4, 30))
	require.NoError(t, err)
	for _, row := range rows {
		if row.AccountCode == ledger.AcctBank {
			assert.Equal(t, "100.00", row.DebitTotal.String())
		}
	}
}

func TestTrialBalance_CorruptLedger_IntegrityError(t *testing.T) {
	// GIVEN: An unbalanced entry smuggled directly into the store,
	//        bypassing PostEntry validation
	// WHEN: Computing the trial balance
	// THEN: LedgerIntegrityError with both grand totals, no rows

	mem := store.NewMemory()
	l := ledger.New(mem, mem)
	ctx := context.Background()
	require.NoError(t, ledger.SeedDefaultChart(ctx, mem, testOrg))

	require.NoError(t, mem.AppendEntry(ctx, ledger.JournalEntry{
		ID:   "bad-1",
		Org:  testOrg,
		Date: ledger.NewDate(2024, 4, 1),
		Lines: []ledger.JournalLine{
			ledger.DebitLine(ledger.AcctBank, amt(100)),
			ledger.CreditLine(ledger.AcctCapital, amt(90)),
		},
	}))

	rows, err := l.TrialBalance(ctx, testOrg, ledger.NewDate(2024, 4, 30))
	require.Error(t, err)
	assert.Nil(t, rows)
	assert.True(t, errors.Is(err, ledger.ErrLedgerIntegrity))

	var ie *ledger.LedgerIntegrityError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "100.00", ie.TotalDebits.String())
	assert.Equal(t, "90.00", ie.TotalCredits.String())
}

// =============================================================================
// ACCOUNT BALANCE TESTS
// =============================================================================

func TestAccountBalance_NormalSide(t *testing.T) {
	// GIVEN: Bank (debit-normal) debited 500, Capital (credit-normal)
	//        credited 500
	// WHEN: Reading each balance
	// THEN: Both report +500 on their normal side

	l := newTestLedger(t)
	ctx := context.Background()

	_, err := l.PostEntry(ctx, balancedEntry(ledger.NewDate(2024, 4, 1), 500))
	require.NoError(t, err)

	asOf := ledger.NewDate(2024, 4, 30)
	bank, err := l.AccountBalance(ctx, testOrg, ledger.AcctBank, asOf)
	require.NoError(t, err)
	assert.Equal(t, "500.00", bank.String())

	capital, err := l.AccountBalance(ctx, testOrg, ledger.AcctCapital, asOf)
	require.NoError(t, err)
	assert.Equal(t, "500.00", capital.String())
}

func TestAccountBalance_UnknownAccount(t *testing.T) {
	// GIVEN: An account code that was never created
	// WHEN: Reading its balance
	// THEN: AccountNotFoundError; a known account with no movement reads zero

	l := newTestLedger(t)
	ctx := context.Background()

	_, err := l.AccountBalance(ctx, testOrg, "4242", ledger.NewDate(2024, 4, 30))
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)

	quiet, err := l.AccountBalance(ctx, testOrg, ledger.AcctCash, ledger.NewDate(2024, 4, 30))
	require.NoError(t, err)
	assert.True(t, quiet.IsZero())
}
