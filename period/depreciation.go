/*
depreciation.go - Straight-line depreciation batch

PURPOSE:
  Posts one system journal entry per run date covering all depreciable
  assets: debit depreciation expense, credit accumulated depreciation.

IDEMPOTENCE:
  Each asset's entry carries batch tag "depreciation:YYYY-MM-DD:<assetID>".
  The ledger store enforces tag uniqueness per org, so re-running the batch
  for the same date - including concurrent retries - posts nothing the
  second time.

ATTRIBUTION:
  One entry per asset per run, with the asset ID in RefID. Accumulated
  depreciation for an asset is the sum of its own posted charges plus any
  opening balance, read straight from the journal.
*/
package period

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/keystone/ledger-engine/ledger"
)

// Asset is a depreciable fixed asset on a straight-line schedule.
type Asset struct {
	ID         string
	Org        string
	Name       string
	AcquiredAt ledger.Date
	Cost       ledger.Amount
	Salvage    ledger.Amount
	LifeMonths int

	// AccumulatedToDate is depreciation posted before this system took over
	// (opening balance from a prior books system).
	AccumulatedToDate ledger.Amount
}

// MonthlyDepreciation returns the straight-line charge per month.
func (a Asset) MonthlyDepreciation() ledger.Amount {
	if a.LifeMonths <= 0 {
		return ledger.ZeroAmount()
	}
	base := a.Cost.Sub(a.Salvage)
	return base.Mul(decimal.NewFromInt(1).Div(decimal.NewFromInt(int64(a.LifeMonths)))).Round()
}

// DepreciableRemaining returns how much can still be depreciated given what
// has already accumulated.
func (a Asset) DepreciableRemaining(accumulated ledger.Amount) ledger.Amount {
	remaining := a.Cost.Sub(a.Salvage).Sub(accumulated)
	if remaining.IsNegative() {
		return ledger.ZeroAmount()
	}
	return remaining
}

// DepreciationBatchTag is the tag prefix shared by all entries of a run date.
func DepreciationBatchTag(asOf ledger.Date) string {
	return "depreciation:" + asOf.String()
}

// assetBatchTag is the uniqueness tag for one asset's charge on a run date.
func assetBatchTag(asOf ledger.Date, assetID string) string {
	return DepreciationBatchTag(asOf) + ":" + assetID
}

// RunDepreciationBatch posts one depreciation entry per asset for asOf.
// Returns (ran, tag): ran is false when every asset already ran for that
// date or has nothing left to depreciate; tag is the run's shared prefix.
//
// Monthly charge per asset is straight-line, capped at the asset's remaining
// depreciable base; fully-depreciated assets are skipped entirely.
func (m *Manager) RunDepreciationBatch(ctx context.Context, org string, asOf ledger.Date) (bool, string, error) {
	tag := DepreciationBatchTag(asOf)

	assets, err := m.Assets.ListAssets(ctx, org)
	if err != nil {
		return false, tag, err
	}

	ran := false
	for _, a := range assets {
		if a.AcquiredAt.After(asOf) {
			continue
		}
		assetTag := assetBatchTag(asOf, a.ID)
		posted, err := m.Ledger.Store.HasBatchTag(ctx, org, assetTag)
		if err != nil {
			return ran, tag, err
		}
		if posted {
			continue
		}
		accumulated, err := m.accumulatedFor(ctx, a, asOf)
		if err != nil {
			return ran, tag, err
		}
		remaining := a.DepreciableRemaining(accumulated)
		if remaining.IsZero() {
			continue
		}
		charge := a.MonthlyDepreciation()
		if charge.GreaterThan(remaining) {
			charge = remaining
		}

		entry := ledger.JournalEntry{
			Org:      org,
			Date:     asOf,
			Source:   ledger.SourceSystem,
			Memo:     "depreciation " + asOf.String() + ": " + a.Name,
			RefType:  "depreciation",
			RefID:    a.ID,
			BatchTag: assetTag,
			Lines: []ledger.JournalLine{
				ledger.DebitLine(ledger.AcctDepreciationExpense, charge),
				ledger.CreditLine(ledger.AcctAccumDepreciation, charge),
			},
		}
		if _, err := m.Ledger.PostEntry(ctx, entry); err != nil {
			// A concurrent run won the race on this asset's tag. The charge
			// still posted exactly once.
			if errors.Is(err, ledger.ErrDuplicateBatch) {
				continue
			}
			return ran, tag, err
		}
		ran = true
	}
	return ran, tag, nil
}

// accumulatedFor sums the asset's opening accumulated depreciation with the
// charges posted against it up to asOf. Each entry carries the asset ID in
// RefID, so attribution reads straight from the journal.
func (m *Manager) accumulatedFor(ctx context.Context, a Asset, asOf ledger.Date) (ledger.Amount, error) {
	entries, err := m.Ledger.Store.EntriesByAccount(ctx, a.Org, ledger.AcctAccumDepreciation, ledger.Date{}, asOf)
	if err != nil {
		return ledger.Amount{}, err
	}
	total := a.AccumulatedToDate
	for _, e := range entries {
		if e.RefType != "depreciation" || e.RefID != a.ID {
			continue
		}
		for _, line := range e.Lines {
			if line.AccountCode == ledger.AcctAccumDepreciation {
				total = total.Add(line.Credit)
			}
		}
	}
	return total, nil
}
