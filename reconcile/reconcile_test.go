package reconcile_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keystone/ledger-engine/ledger"
	"github.com/keystone/ledger-engine/ledger/store"
	"github.com/keystone/ledger-engine/reconcile"
	"github.com/keystone/ledger-engine/records"
)

const testOrg = "org-1"

func amt(s string) ledger.Amount { return ledger.MustParseAmount(s) }

func day(s string) ledger.Date {
	d, err := ledger.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newTestReconciler(t *testing.T) (*reconcile.Reconciler, *ledger.Ledger, *records.MemorySource) {
	t.Helper()
	ctx := context.Background()

	mem := store.NewMemory()
	require.NoError(t, ledger.SeedDefaultChart(ctx, mem, testOrg))
	l := ledger.New(mem, mem)

	source := records.NewMemorySource()
	r := reconcile.New(l, source, reconcile.NewMemoryRecordStore())
	return r, l, source
}

func post(t *testing.T, l *ledger.Ledger, date ledger.Date, lines ...ledger.JournalLine) {
	t.Helper()
	_, err := l.PostEntry(context.Background(), ledger.JournalEntry{
		Org:   testOrg,
		Date:  date,
		Memo:  "test posting",
		Lines: lines,
	})
	require.NoError(t, err)
}

func TestReconcile_CleanBooksReconcileToZero(t *testing.T) {
	// GIVEN an invoice posted to the GL with a matching sub-ledger record
	ctx := context.Background()
	r, l, source := newTestReconciler(t)

	post(t, l, day("2024-04-10"),
		ledger.DebitLine(ledger.AcctReceivables, amt("118.00")),
		ledger.CreditLine(ledger.AcctSalesRevenue, amt("100.00")),
		ledger.CreditLine(ledger.AcctGSTOutput, amt("18.00")),
	)
	source.AddInvoices(records.Invoice{
		ID: "inv-1", Org: testOrg, Number: "INV-001", Date: day("2024-04-10"),
		CustomerName: "Mehta Traders",
		TaxableValue: amt("100.00"), TaxAmount: amt("18.00"), Total: amt("118.00"),
	})

	// WHEN reconciling receivables
	result, err := r.Reconcile(ctx, testOrg, day("2024-04-30"), reconcile.ModuleReceivables)

	// THEN both sides match and the record is reconciled
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "118.00", result[0].GLBalance.String())
	assert.Equal(t, "118.00", result[0].SubledgerBalance.String())
	assert.Equal(t, "0.00", result[0].Variance.String())
	assert.True(t, result[0].IsReconciled)
}

func TestReconcile_VarianceIsGLMinusSubledger(t *testing.T) {
	// GIVEN a sub-ledger invoice with no matching GL posting
	ctx := context.Background()
	r, _, source := newTestReconciler(t)

	source.AddInvoices(records.Invoice{
		ID: "inv-1", Org: testOrg, Number: "INV-001", Date: day("2024-04-10"),
		Total: amt("120.00"),
	})

	// WHEN reconciling receivables
	result, err := r.Reconcile(ctx, testOrg, day("2024-04-30"), reconcile.ModuleReceivables)

	// THEN the variance is negative: GL balance minus sub-ledger total
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "-120.00", result[0].Variance.String())
	assert.False(t, result[0].IsReconciled)
}

func TestReconcile_ToleranceAbsorbsSmallVariance(t *testing.T) {
	// GIVEN a 2.00 variance and a 5.00 tolerance
	ctx := context.Background()
	r, l, source := newTestReconciler(t)
	r.Tolerance = amt("5.00")

	post(t, l, day("2024-04-10"),
		ledger.DebitLine(ledger.AcctReceivables, amt("118.00")),
		ledger.CreditLine(ledger.AcctSalesRevenue, amt("118.00")),
	)
	source.AddInvoices(records.Invoice{
		ID: "inv-1", Org: testOrg, Number: "INV-001", Date: day("2024-04-10"),
		Total: amt("120.00"),
	})

	// WHEN reconciling
	result, err := r.Reconcile(ctx, testOrg, day("2024-04-30"), reconcile.ModuleReceivables)

	// THEN the variance is reported but still counts as reconciled
	require.NoError(t, err)
	assert.Equal(t, "-2.00", result[0].Variance.String())
	assert.True(t, result[0].IsReconciled)
}

func TestReconcile_BankNetsDepositsAndWithdrawals(t *testing.T) {
	// GIVEN GL bank movements mirrored by bank transactions
	ctx := context.Background()
	r, l, source := newTestReconciler(t)

	post(t, l, day("2024-04-01"),
		ledger.DebitLine(ledger.AcctBank, amt("1000.00")),
		ledger.CreditLine(ledger.AcctCapital, amt("1000.00")),
	)
	post(t, l, day("2024-04-05"),
		ledger.DebitLine(ledger.AcctOperatingExpense, amt("300.00")),
		ledger.CreditLine(ledger.AcctBank, amt("300.00")),
	)
	source.AddBankTransactions(
		records.BankTransaction{ID: "bt-1", Org: testOrg, Date: day("2024-04-01"), Type: records.BankDeposit, Amount: amt("1000.00")},
		records.BankTransaction{ID: "bt-2", Org: testOrg, Date: day("2024-04-05"), Type: records.BankWithdrawal, Amount: amt("300.00")},
	)

	// WHEN reconciling the bank module
	result, err := r.Reconcile(ctx, testOrg, day("2024-04-30"), reconcile.ModuleBank)

	// THEN withdrawals net against deposits on both sides
	require.NoError(t, err)
	assert.Equal(t, "700.00", result[0].GLBalance.String())
	assert.Equal(t, "700.00", result[0].SubledgerBalance.String())
	assert.True(t, result[0].IsReconciled)
}

func TestReconcile_PayrollCountsOnlyUnpaidNetPay(t *testing.T) {
	// GIVEN one paid and one unpaid payroll record, with the unpaid one
	// accrued in the GL
	ctx := context.Background()
	r, l, source := newTestReconciler(t)

	post(t, l, day("2024-04-30"),
		ledger.DebitLine(ledger.AcctSalaryExpense, amt("68000.00")),
		ledger.CreditLine(ledger.AcctPayrollPayable, amt("68000.00")),
	)
	source.AddPayroll(
		records.PayrollRecord{ID: "pr-1", Org: testOrg, EmployeeCode: "E001", PeriodMonth: day("2024-04-01"), NetPay: amt("68000.00")},
		records.PayrollRecord{ID: "pr-2", Org: testOrg, EmployeeCode: "E002", PeriodMonth: day("2024-04-01"), NetPay: amt("52000.00"), Paid: true},
	)

	// WHEN reconciling payroll
	result, err := r.Reconcile(ctx, testOrg, day("2024-04-30"), reconcile.ModulePayroll)

	// THEN the paid record is excluded from the sub-ledger side
	require.NoError(t, err)
	assert.Equal(t, "68000.00", result[0].SubledgerBalance.String())
	assert.True(t, result[0].IsReconciled)
}

func TestReconcile_DefaultsToAllModules(t *testing.T) {
	// GIVEN an empty books setup
	ctx := context.Background()
	r, _, _ := newTestReconciler(t)

	// WHEN reconciling with no module filter
	result, err := r.Reconcile(ctx, testOrg, day("2024-04-30"))

	// THEN every sub-ledger gets a snapshot, all reconciled at zero
	require.NoError(t, err)
	require.Len(t, result, len(reconcile.AllModules))
	for i, module := range reconcile.AllModules {
		assert.Equal(t, module, result[i].Module)
		assert.True(t, result[i].IsReconciled)
	}
}

func TestReconcile_HistoryIsAppendOnly(t *testing.T) {
	// GIVEN two reconciliation runs for the same module
	ctx := context.Background()
	r, _, source := newTestReconciler(t)

	_, err := r.Reconcile(ctx, testOrg, day("2024-04-30"), reconcile.ModuleReceivables)
	require.NoError(t, err)

	source.AddInvoices(records.Invoice{
		ID: "inv-1", Org: testOrg, Number: "INV-001", Date: day("2024-05-02"),
		Total: amt("50.00"),
	})
	_, err = r.Reconcile(ctx, testOrg, day("2024-05-31"), reconcile.ModuleReceivables)
	require.NoError(t, err)

	// WHEN listing history
	history, err := r.Store.ListRecords(ctx, testOrg, reconcile.ModuleReceivables, 0)

	// THEN both snapshots survive, newest first
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "2024-05-31", history[0].AsOf.String())
	assert.Equal(t, "2024-04-30", history[1].AsOf.String())

	// AND a limit caps the result at the newest entries
	limited, err := r.Store.ListRecords(ctx, testOrg, reconcile.ModuleReceivables, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "2024-05-31", limited[0].AsOf.String())
}

func TestReconcile_UnknownControlAccountFails(t *testing.T) {
	// GIVEN a module with no configured control account
	ctx := context.Background()
	r, _, _ := newTestReconciler(t)
	delete(r.Controls, reconcile.ModuleBank)

	// WHEN reconciling that module
	_, err := r.Reconcile(ctx, testOrg, day("2024-04-30"), reconcile.ModuleBank)

	// THEN the run fails rather than reporting a bogus zero
	assert.Error(t, err)
}
