package period_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keystone/ledger-engine/ledger"
	"github.com/keystone/ledger-engine/period"
)

// =============================================================================
// DEPRECIATION BATCH TESTS
// =============================================================================

func laptopAsset() period.Asset {
	// 36000 over 36 months: 1000/month straight-line.
	return period.Asset{
		ID:         "asset-1",
		Org:        testOrg,
		Name:       "Laptops",
		AcquiredAt: ledger.NewDate(2024, 4, 1),
		Cost:       ledger.NewAmountFromInt(36000),
		Salvage:    ledger.ZeroAmount(),
		LifeMonths: 36,
	}
}

func TestMonthlyDepreciation_StraightLine(t *testing.T) {
	// GIVEN: Cost 36000, salvage 6000, 30-month life
	// WHEN: Computing the monthly charge
	// THEN: (36000-6000)/30 = 1000

	a := period.Asset{
		Cost:       ledger.NewAmountFromInt(36000),
		Salvage:    ledger.NewAmountFromInt(6000),
		LifeMonths: 30,
	}
	assert.Equal(t, "1000.00", a.MonthlyDepreciation().String())

	a.LifeMonths = 0
	assert.True(t, a.MonthlyDepreciation().IsZero())
}

func TestRunDepreciationBatch_PostsOnce(t *testing.T) {
	// GIVEN: One depreciable asset
	// WHEN: Running the batch twice for the same date
	// THEN: The first run posts one system entry; the second reports
	//       ran=false and posts nothing

	m, l := newTestManager(t)
	ctx := context.Background()
	require.NoError(t, m.Assets.SaveAsset(ctx, laptopAsset()))

	asOf := ledger.NewDate(2024, 4, 30)
	ran, tag, err := m.RunDepreciationBatch(ctx, testOrg, asOf)
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, "depreciation:2024-04-30", tag)

	ran, _, err = m.RunDepreciationBatch(ctx, testOrg, asOf)
	require.NoError(t, err)
	assert.False(t, ran, "second run for the same date must be a no-op")

	entries, err := l.Store.Entries(ctx, testOrg, ledger.Date{}, ledger.Date{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ledger.SourceSystem, entries[0].Source)
	assert.Equal(t, "1000.00", entries[0].TotalDebits().String())

	expense, err := l.AccountBalance(ctx, testOrg, ledger.AcctDepreciationExpense, asOf)
	require.NoError(t, err)
	assert.Equal(t, "1000.00", expense.String())
}

func TestRunDepreciationBatch_StopsAtDepreciableBase(t *testing.T) {
	// GIVEN: An asset with only 2.5 months of base left uncharged
	// WHEN: Running three successive month-ends
	// THEN: The final charge is capped at the remainder and later runs post
	//       nothing

	m, l := newTestManager(t)
	ctx := context.Background()

	a := laptopAsset()
	a.Cost = ledger.NewAmountFromInt(2500)
	a.LifeMonths = 1 // 2500/1 = 2500 monthly, capped at remaining 2500
	require.NoError(t, m.Assets.SaveAsset(ctx, a))

	ran, _, err := m.RunDepreciationBatch(ctx, testOrg, ledger.NewDate(2024, 4, 30))
	require.NoError(t, err)
	assert.True(t, ran)

	// Fully depreciated: nothing left for May.
	ran, _, err = m.RunDepreciationBatch(ctx, testOrg, ledger.NewDate(2024, 5, 31))
	require.NoError(t, err)
	assert.False(t, ran)

	accum, err := l.AccountBalance(ctx, testOrg, ledger.AcctAccumDepreciation, ledger.NewDate(2024, 6, 30))
	require.NoError(t, err)
	assert.Equal(t, "-2500.00", accum.String(), "contra-asset carries a credit balance")
}

func TestRunDepreciationBatch_OneEntryPerAsset(t *testing.T) {
	// GIVEN: Two assets, one exhausted after a single charge
	// WHEN: Running April then May
	// THEN: April posts one entry per asset carrying its asset ID; May charges
	//       only the asset with base left, and each asset's accumulated
	//       depreciation is attributable from its own entries

	m, l := newTestManager(t)
	ctx := context.Background()

	short := laptopAsset()
	short.ID = "asset-short"
	short.Cost = ledger.NewAmountFromInt(2500)
	short.LifeMonths = 1
	require.NoError(t, m.Assets.SaveAsset(ctx, short))
	require.NoError(t, m.Assets.SaveAsset(ctx, laptopAsset()))

	ran, _, err := m.RunDepreciationBatch(ctx, testOrg, ledger.NewDate(2024, 4, 30))
	require.NoError(t, err)
	assert.True(t, ran)

	april, err := l.Store.Entries(ctx, testOrg, ledger.Date{}, ledger.NewDate(2024, 4, 30))
	require.NoError(t, err)
	require.Len(t, april, 2)
	byRef := map[string]string{}
	for _, e := range april {
		byRef[e.RefID] = e.TotalDebits().String()
	}
	assert.Equal(t, "2500.00", byRef["asset-short"])
	assert.Equal(t, "1000.00", byRef["asset-1"])

	// May: the short-lived asset is exhausted, only the laptops charge.
	ran, _, err = m.RunDepreciationBatch(ctx, testOrg, ledger.NewDate(2024, 5, 31))
	require.NoError(t, err)
	assert.True(t, ran)

	may, err := l.Store.Entries(ctx, testOrg, ledger.NewDate(2024, 5, 1), ledger.NewDate(2024, 5, 31))
	require.NoError(t, err)
	require.Len(t, may, 1)
	assert.Equal(t, "asset-1", may[0].RefID)
	assert.Equal(t, "1000.00", may[0].TotalDebits().String())
}

func TestRunDepreciationBatch_SkipsFutureAssets(t *testing.T) {
	// GIVEN: An asset acquired in June
	// WHEN: Running the April batch
	// THEN: Nothing posts

	m, _ := newTestManager(t)
	ctx := context.Background()

	a := laptopAsset()
	a.AcquiredAt = ledger.NewDate(2024, 6, 1)
	require.NoError(t, m.Assets.SaveAsset(ctx, a))

	ran, _, err := m.RunDepreciationBatch(ctx, testOrg, ledger.NewDate(2024, 4, 30))
	require.NoError(t, err)
	assert.False(t, ran)
}

func TestClosePeriod_RunsDepreciation(t *testing.T) {
	// GIVEN: An asset and the generated FY periods
	// WHEN: Closing April
	// THEN: The close reports the depreciation batch and the trial balance
	//       reflects it

	m, _ := newTestManager(t)
	ctx := context.Background()
	require.NoError(t, m.Assets.SaveAsset(ctx, laptopAsset()))

	created, err := m.GeneratePeriods(ctx, testOrg, "2024-2025")
	require.NoError(t, err)

	result, err := m.ClosePeriod(ctx, testOrg, created[0].ID)
	require.NoError(t, err)
	assert.True(t, result.DepreciationRun)
	assert.Equal(t, "depreciation:2024-04-30", result.DepreciationTail)

	found := false
	for _, row := range result.TrialBalance {
		if row.AccountCode == ledger.AcctDepreciationExpense {
			found = true
			assert.Equal(t, "1000.00", row.DebitTotal.String())
		}
	}
	assert.True(t, found, "close snapshot should include the depreciation charge")
}
