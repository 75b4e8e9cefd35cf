package audit_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keystone/ledger-engine/audit"
	"github.com/keystone/ledger-engine/ledger"
	"github.com/keystone/ledger-engine/ledger/store"
	"github.com/keystone/ledger-engine/period"
	"github.com/keystone/ledger-engine/reconcile"
	"github.com/keystone/ledger-engine/records"
	"github.com/keystone/ledger-engine/statutory"
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

type testEngine struct {
	engine *audit.Engine
	ledger *ledger.Ledger
	source *records.MemorySource
	recon  *reconcile.MemoryRecordStore
}

func newTestEngine(t *testing.T) *testEngine {
	t.Helper()
	ctx := context.Background()

	mem := store.NewMemory()
	require.NoError(t, ledger.SeedDefaultChart(ctx, mem, testOrg))
	l := ledger.New(mem, mem)

	source := records.NewMemorySource()
	recon := reconcile.NewMemoryRecordStore()
	e := audit.NewEngine(l, source, statutory.NewCompiler(source),
		recon, period.NewMemoryStore(), audit.NewMemoryRunStore())
	return &testEngine{engine: e, ledger: l, source: source, recon: recon}
}

func TestRunAudit_CleanBooksScoreStrong(t *testing.T) {
	// GIVEN an empty but structurally sound books setup
	ctx := context.Background()
	te := newTestEngine(t)

	// WHEN running the audit
	run, err := te.engine.RunAudit(ctx, testOrg, "2024-2025")

	// THEN nothing fails, the score is full, and the rating is Strong
	require.NoError(t, err)
	assert.Equal(t, 1, run.Version)
	assert.Equal(t, 100.0, run.ComplianceScore)
	assert.Equal(t, audit.IFCStrong, run.IFCRating)
	assert.Equal(t, 0.0, run.AIRiskIndex)
	assert.Len(t, run.Checks, 12)
	for _, c := range run.Checks {
		assert.NotEqual(t, audit.StatusFail, c.Status, c.Name)
	}
}

func TestRunAudit_VersionsIncreasePerFinancialYear(t *testing.T) {
	// GIVEN two successive runs for the same FY
	ctx := context.Background()
	te := newTestEngine(t)

	first, err := te.engine.RunAudit(ctx, testOrg, "2024-2025")
	require.NoError(t, err)
	second, err := te.engine.RunAudit(ctx, testOrg, "2024-2025")
	require.NoError(t, err)

	// THEN versions increase and the latest is authoritative
	assert.Equal(t, 1, first.Version)
	assert.Equal(t, 2, second.Version)

	latest, err := te.engine.Runs.LatestRun(ctx, testOrg, "2024-2025")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 2, latest.Version)

	// AND a different FY starts versioning from scratch
	other, err := te.engine.RunAudit(ctx, testOrg, "2025-2026")
	require.NoError(t, err)
	assert.Equal(t, 1, other.Version)
}

func TestRunAudit_UnpostedInvoicesFailTheGSTCheck(t *testing.T) {
	// GIVEN outward invoices in the sub-ledger with no GL tax posting
	ctx := context.Background()
	te := newTestEngine(t)
	te.source.AddInvoices(records.Invoice{
		ID: "inv-1", Org: testOrg, Number: "INV-001", Date: day("2024-04-10"),
		TaxableValue: amt("10000.00"), TaxAmount: amt("1800.00"), Total: amt("11800.00"),
	})

	// WHEN running the audit
	run, err := te.engine.RunAudit(ctx, testOrg, "2024-2025")

	// THEN the GL-vs-GSTR-1 check fails and drags the GST category to half
	require.NoError(t, err)
	var gstCheck *audit.Check
	for i, c := range run.Checks {
		if c.Name == "GST output tax matches GSTR-1 aggregate" {
			gstCheck = &run.Checks[i]
		}
	}
	require.NotNil(t, gstCheck)
	assert.Equal(t, audit.StatusFail, gstCheck.Status)
	assert.Equal(t, 12.5, run.ScoreBreakdown[audit.CategoryGST])
	assert.Equal(t, 87.5, run.ComplianceScore)
}

func TestRunAudit_UnreconciledControlFailsInternalControls(t *testing.T) {
	// GIVEN a latest reconciliation snapshot with an open variance
	ctx := context.Background()
	te := newTestEngine(t)
	require.NoError(t, te.recon.AppendRecord(ctx, reconcile.Record{
		ID: "rec-1", Org: testOrg, Module: reconcile.ModuleBank,
		AsOf:     day("2024-09-30"),
		Variance: amt("500.00"),
	}))

	// WHEN running the audit
	run, err := te.engine.RunAudit(ctx, testOrg, "2024-2025")

	// THEN the internal-controls category loses the reconciliation check
	require.NoError(t, err)
	assert.Equal(t, 10.0, run.ScoreBreakdown[audit.CategoryInternalControls])
}

func TestRunAudit_RevenueSpikeRaisesRiskAndAnomalies(t *testing.T) {
	// GIVEN eleven steady months and a March revenue spike
	ctx := context.Background()
	te := newTestEngine(t)
	monthStart := day("2024-04-01")
	for i := 0; i < 11; i++ {
		te.source.AddInvoices(records.Invoice{
			ID: fmt.Sprintf("inv-%02d", i), Org: testOrg,
			Number: fmt.Sprintf("INV-%03d", i+1), Date: monthStart.AddMonths(i),
			TaxableValue: amt("10000.00"), TaxAmount: amt("1800.00"), Total: amt("11800.00"),
		})
	}
	te.source.AddInvoices(records.Invoice{
		ID: "inv-12", Org: testOrg, Number: "INV-012", Date: day("2025-03-05"),
		TaxableValue: amt("90000.00"), TaxAmount: amt("16200.00"), Total: amt("106200.00"),
	})

	// WHEN running the audit
	run, err := te.engine.RunAudit(ctx, testOrg, "2024-2025")

	// THEN the spike shows up as revenue-pattern anomalies and theme score
	require.NoError(t, err)
	var revenueAnomalies []audit.Anomaly
	for _, a := range run.Anomalies {
		if a.Theme == audit.ThemeRevenuePattern {
			revenueAnomalies = append(revenueAnomalies, a)
		}
	}
	require.NotEmpty(t, revenueAnomalies)
	assert.Equal(t, "2025-03", revenueAnomalies[0].EntityRef)
	assert.Greater(t, run.RiskBreakdown[audit.ThemeRevenuePattern], 0.0)
	assert.Greater(t, run.AIRiskIndex, 0.0)
}

func TestRunAudit_FixedSeedMakesSamplingReproducible(t *testing.T) {
	// GIVEN two engines over identical data with the same seed
	ctx := context.Background()
	seed := func() *testEngine {
		te := newTestEngine(t)
		te.engine.Seed = 42
		for i := 0; i < 11; i++ {
			te.source.AddInvoices(records.Invoice{
				ID: fmt.Sprintf("inv-%02d", i), Org: testOrg,
				Number: fmt.Sprintf("INV-%03d", i+1), Date: day("2024-04-01").AddMonths(i),
				TaxableValue: amt("10000.00"), TaxAmount: amt("1800.00"), Total: amt("11800.00"),
			})
		}
		te.source.AddInvoices(records.Invoice{
			ID: "inv-12", Org: testOrg, Number: "INV-012", Date: day("2025-03-05"),
			TaxableValue: amt("90000.00"), TaxAmount: amt("16200.00"), Total: amt("106200.00"),
		})
		return te
	}
	a, b := seed(), seed()

	// WHEN each runs the audit
	runA, err := a.engine.RunAudit(ctx, testOrg, "2024-2025")
	require.NoError(t, err)
	runB, err := b.engine.RunAudit(ctx, testOrg, "2024-2025")
	require.NoError(t, err)

	// THEN the sample sets match exactly, strategy tags included
	require.Equal(t, len(runA.Samples), len(runB.Samples))
	assert.Equal(t, runA.Samples, runB.Samples)

	// AND every strategy contributed
	byStrategy := make(map[audit.SampleStrategy]int)
	for _, s := range runA.Samples {
		byStrategy[s.Strategy]++
	}
	assert.Greater(t, byStrategy[audit.StrategyHighRisk], 0)
	assert.Greater(t, byStrategy[audit.StrategyStratified], 0)
	assert.Greater(t, byStrategy[audit.StrategyRandom], 0)
}
