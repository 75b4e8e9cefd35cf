/*
checks.go - The compliance check battery

PURPOSE:
  Each check inspects GL and sub-ledger data read-only and yields
  pass/fail/warning/na plus an affected-row count and a recommendation.
  Checks are grouped into scoring categories; the battery is fixed per run
  so scores are comparable across runs.
*/
package audit

import (
	"context"
	"errors"
	"fmt"

	"github.com/keystone/ledger-engine/ledger"
	"github.com/keystone/ledger-engine/period"
	"github.com/keystone/ledger-engine/reconcile"
)

// runChecks executes the battery for the financial year range.
func (e *Engine) runChecks(ctx context.Context, org string, fy period.Range) ([]Check, error) {
	var checks []Check

	add := func(c Check, err error) error {
		if err != nil {
			return err
		}
		checks = append(checks, c)
		return nil
	}

	steps := []func(context.Context, string, period.Range) (Check, error){
		e.checkGSTOutputMatchesGSTR1,
		e.checkInvoicesCarryTax,
		e.checkTDSPayableMatchesReturns,
		e.checkTDSBillsHavePAN,
		e.checkDepreciationPosted,
		e.checkRevenueClassification,
		e.checkControlAccountsReconciled,
		e.checkManualControlPostings,
		e.checkEntriesBalanced,
		e.checkTrialBalanceIdentity,
		e.checkInvoiceLineTotals,
		e.checkPayrollIdentifiers,
	}
	for _, step := range steps {
		c, err := step(ctx, org, fy)
		if err := add(c, err); err != nil {
			return nil, err
		}
	}
	return checks, nil
}

// --- GST ---

// checkGSTOutputMatchesGSTR1 compares the GST output liability in the GL
// against the tax aggregate of the compiled GSTR-1 rows.
func (e *Engine) checkGSTOutputMatchesGSTR1(ctx context.Context, org string, fy period.Range) (Check, error) {
	check := Check{
		Module:   "gst",
		Name:     "GST output tax matches GSTR-1 aggregate",
		Category: CategoryGST,
		Severity: SeverityCritical,
	}

	rows, err := e.Compiler.GSTR1(ctx, org, fy)
	if err != nil {
		return Check{}, err
	}
	if len(rows) == 0 {
		check.Status = StatusNA
		check.Recommendation = "No outward supplies in range."
		return check, nil
	}

	returnTax := ledger.ZeroAmount()
	for _, r := range rows {
		returnTax = returnTax.Add(r.CGST).Add(r.SGST).Add(r.IGST)
	}
	glBalance, err := e.Ledger.AccountBalance(ctx, org, ledger.AcctGSTOutput, fy.To)
	if err != nil {
		return Check{}, err
	}

	if glBalance.Equal(returnTax) {
		check.Status = StatusPass
		return check, nil
	}
	check.Status = StatusFail
	check.AffectedCount = len(rows)
	check.Recommendation = fmt.Sprintf(
		"GL output tax %s differs from GSTR-1 aggregate %s; trace missing invoice postings.",
		glBalance, returnTax)
	return check, nil
}

// checkInvoicesCarryTax flags taxable invoices with no GST rate and no tax
// amount - typically unconfigured items.
func (e *Engine) checkInvoicesCarryTax(ctx context.Context, org string, fy period.Range) (Check, error) {
	check := Check{
		Module:   "gst",
		Name:     "Outward invoices carry a GST rate",
		Category: CategoryGST,
		Severity: SeverityWarning,
	}
	invoices, err := e.Source.InvoicesInRange(ctx, org, fy.From, fy.To)
	if err != nil {
		return Check{}, err
	}
	if len(invoices) == 0 {
		check.Status = StatusNA
		return check, nil
	}
	missing := 0
	for _, inv := range invoices {
		if inv.GSTRate.IsZero() && inv.TaxAmount.IsZero() {
			missing++
		}
	}
	check.AffectedCount = missing
	if missing == 0 {
		check.Status = StatusPass
	} else {
		check.Status = StatusWarning
		check.Recommendation = "Review invoices without a GST rate; exempt supplies should be rated 0 explicitly."
	}
	return check, nil
}

// --- TDS ---

// checkTDSPayableMatchesReturns compares the TDS payable GL balance against
// the deducted totals of the compiled 24Q and 26Q returns.
func (e *Engine) checkTDSPayableMatchesReturns(ctx context.Context, org string, fy period.Range) (Check, error) {
	check := Check{
		Module:   "tds",
		Name:     "TDS deducted matches 24Q/26Q totals",
		Category: CategoryTDS,
		Severity: SeverityCritical,
	}

	rows24, err := e.Compiler.TDS24Q(ctx, org, fy)
	if err != nil {
		return Check{}, err
	}
	rows26, err := e.Compiler.TDS26Q(ctx, org, fy)
	if err != nil {
		return Check{}, err
	}
	if len(rows24)+len(rows26) == 0 {
		check.Status = StatusNA
		check.Recommendation = "No withholding activity in range."
		return check, nil
	}

	returnTotal := ledger.ZeroAmount()
	for _, r := range rows24 {
		returnTotal = returnTotal.Add(r.TotalDeducted)
	}
	for _, r := range rows26 {
		returnTotal = returnTotal.Add(r.TotalDeducted)
	}
	glBalance, err := e.Ledger.AccountBalance(ctx, org, ledger.AcctTDSPayable, fy.To)
	if err != nil {
		return Check{}, err
	}

	if glBalance.Equal(returnTotal) {
		check.Status = StatusPass
		return check, nil
	}
	check.Status = StatusFail
	check.AffectedCount = len(rows24) + len(rows26)
	check.Recommendation = fmt.Sprintf(
		"GL TDS payable %s differs from return total %s; verify withholding postings.",
		glBalance, returnTotal)
	return check, nil
}

func (e *Engine) checkTDSBillsHavePAN(ctx context.Context, org string, fy period.Range) (Check, error) {
	check := Check{
		Module:   "tds",
		Name:     "TDS-section bills carry vendor PAN",
		Category: CategoryTDS,
		Severity: SeverityWarning,
	}
	bills, err := e.Source.BillsInRange(ctx, org, fy.From, fy.To)
	if err != nil {
		return Check{}, err
	}
	subject := 0
	missing := 0
	for _, b := range bills {
		if b.TDSSection == "" {
			continue
		}
		subject++
		if b.VendorPAN == "" {
			missing++
		}
	}
	if subject == 0 {
		check.Status = StatusNA
		return check, nil
	}
	check.AffectedCount = missing
	if missing == 0 {
		check.Status = StatusPass
	} else {
		check.Status = StatusFail
		check.Recommendation = "Missing PAN forces higher withholding under 206AA; collect vendor PANs."
	}
	return check, nil
}

// --- Income tax ---

// checkDepreciationPosted verifies every closed period of the FY has its
// depreciation batch.
func (e *Engine) checkDepreciationPosted(ctx context.Context, org string, fy period.Range) (Check, error) {
	check := Check{
		Module:   "income_tax",
		Name:     "Depreciation posted for closed periods",
		Category: CategoryIncomeTax,
		Severity: SeverityWarning,
	}
	periods, err := e.Periods.ListPeriods(ctx, org)
	if err != nil {
		return Check{}, err
	}
	closed := 0
	missing := 0
	for _, p := range periods {
		if !p.IsClosed() || p.End.Before(fy.From) || p.End.After(fy.To) {
			continue
		}
		closed++
		ran, err := e.Ledger.Store.HasBatchTag(ctx, org, period.DepreciationBatchTag(p.End))
		if err != nil {
			return Check{}, err
		}
		if !ran {
			missing++
		}
	}
	if closed == 0 {
		check.Status = StatusNA
		return check, nil
	}
	check.AffectedCount = missing
	if missing == 0 {
		check.Status = StatusPass
	} else {
		check.Status = StatusWarning
		check.Recommendation = "Closed periods without a depreciation run understate expense; re-run the batch before filing."
	}
	return check, nil
}

// checkRevenueClassification flags revenue accounts sitting in debit - a
// sign of misclassified postings.
func (e *Engine) checkRevenueClassification(ctx context.Context, org string, fy period.Range) (Check, error) {
	check := Check{
		Module:   "income_tax",
		Name:     "Revenue accounts hold credit balances",
		Category: CategoryIncomeTax,
		Severity: SeverityWarning,
	}
	rows, err := e.Ledger.TrialBalance(ctx, org, fy.To)
	if err != nil {
		return Check{}, err
	}
	affected := 0
	seen := 0
	for _, row := range rows {
		if row.AccountType != ledger.AccountRevenue {
			continue
		}
		seen++
		if row.Net().IsNegative() {
			affected++
		}
	}
	if seen == 0 {
		check.Status = StatusNA
		return check, nil
	}
	check.AffectedCount = affected
	if affected == 0 {
		check.Status = StatusPass
	} else {
		check.Status = StatusWarning
		check.Recommendation = "Debit-balance revenue accounts usually hide misposted credit notes."
	}
	return check, nil
}

// --- Internal controls ---

// checkControlAccountsReconciled reads the latest reconciliation snapshot
// per module; anything unreconciled fails the check.
func (e *Engine) checkControlAccountsReconciled(ctx context.Context, org string, _ period.Range) (Check, error) {
	check := Check{
		Module:   "internal_controls",
		Name:     "Control accounts reconciled to sub-ledgers",
		Category: CategoryInternalControls,
		Severity: SeverityCritical,
	}
	unreconciled := 0
	seen := 0
	for _, module := range reconcile.AllModules {
		recs, err := e.Recon.ListRecords(ctx, org, module, 1)
		if err != nil {
			return Check{}, err
		}
		if len(recs) == 0 {
			continue
		}
		seen++
		if !recs[0].IsReconciled {
			unreconciled++
		}
	}
	if seen == 0 {
		check.Status = StatusNA
		check.Recommendation = "No reconciliation history; run the reconciler."
		return check, nil
	}
	check.AffectedCount = unreconciled
	if unreconciled == 0 {
		check.Status = StatusPass
	} else {
		check.Status = StatusFail
		check.Recommendation = "Variances are surfaced, never auto-corrected; resolve them before period close."
	}
	return check, nil
}

// checkManualControlPostings counts manual journals touching control
// accounts. Legitimate sometimes, but a control-override smell.
func (e *Engine) checkManualControlPostings(ctx context.Context, org string, fy period.Range) (Check, error) {
	check := Check{
		Module:   "internal_controls",
		Name:     "Manual journals avoid control accounts",
		Category: CategoryInternalControls,
		Severity: SeverityWarning,
	}
	count, err := e.manualControlPostings(ctx, org, fy)
	if err != nil {
		return Check{}, err
	}
	check.AffectedCount = count
	if count == 0 {
		check.Status = StatusPass
	} else {
		check.Status = StatusWarning
		check.Recommendation = "Control accounts should move only via sub-ledger postings; review the manual entries."
	}
	return check, nil
}

// --- Data integrity ---

func (e *Engine) checkEntriesBalanced(ctx context.Context, org string, fy period.Range) (Check, error) {
	check := Check{
		Module:   "data_integrity",
		Name:     "Journal entries individually balanced",
		Category: CategoryDataIntegrity,
		Severity: SeverityCritical,
	}
	entries, err := e.Ledger.Store.Entries(ctx, org, fy.From, fy.To)
	if err != nil {
		return Check{}, err
	}
	if len(entries) == 0 {
		check.Status = StatusNA
		return check, nil
	}
	unbalanced := 0
	for _, entry := range entries {
		if !entry.TotalDebits().Round().Equal(entry.TotalCredits().Round()) {
			unbalanced++
		}
	}
	check.AffectedCount = unbalanced
	if unbalanced == 0 {
		check.Status = StatusPass
	} else {
		check.Status = StatusFail
		check.Recommendation = "Unbalanced stored entries indicate corruption; investigate immediately."
	}
	return check, nil
}

func (e *Engine) checkTrialBalanceIdentity(ctx context.Context, org string, fy period.Range) (Check, error) {
	check := Check{
		Module:   "data_integrity",
		Name:     "Trial balance satisfies the accounting identity",
		Category: CategoryDataIntegrity,
		Severity: SeverityCritical,
	}
	_, err := e.Ledger.TrialBalance(ctx, org, fy.To)
	if err != nil {
		if errors.Is(err, ledger.ErrLedgerIntegrity) {
			check.Status = StatusFail
			check.AffectedCount = 1
			check.Recommendation = err.Error()
			return check, nil
		}
		return Check{}, err
	}
	check.Status = StatusPass
	return check, nil
}

func (e *Engine) checkInvoiceLineTotals(ctx context.Context, org string, fy period.Range) (Check, error) {
	check := Check{
		Module:   "data_integrity",
		Name:     "Invoice line items sum to headers",
		Category: CategoryDataIntegrity,
		Severity: SeverityWarning,
	}
	invoices, err := e.Source.InvoicesInRange(ctx, org, fy.From, fy.To)
	if err != nil {
		return Check{}, err
	}
	withLines := 0
	mismatched := 0
	for _, inv := range invoices {
		if len(inv.Lines) == 0 {
			continue
		}
		withLines++
		sum := ledger.ZeroAmount()
		for _, l := range inv.Lines {
			sum = sum.Add(l.TaxableValue)
		}
		if !sum.Equal(inv.TaxableValue) {
			mismatched++
		}
	}
	if withLines == 0 {
		check.Status = StatusNA
		return check, nil
	}
	check.AffectedCount = mismatched
	if mismatched == 0 {
		check.Status = StatusPass
	} else {
		check.Status = StatusWarning
		check.Recommendation = "Header/line mismatches skew GSTR taxable values; fix at the billing source."
	}
	return check, nil
}

func (e *Engine) checkPayrollIdentifiers(ctx context.Context, org string, fy period.Range) (Check, error) {
	check := Check{
		Module:   "data_integrity",
		Name:     "Payroll records carry PAN and UAN",
		Category: CategoryDataIntegrity,
		Severity: SeverityInfo,
	}
	payroll, err := e.Source.PayrollInRange(ctx, org, fy.From, fy.To)
	if err != nil {
		return Check{}, err
	}
	if len(payroll) == 0 {
		check.Status = StatusNA
		return check, nil
	}
	missing := 0
	for _, rec := range payroll {
		if rec.PAN == "" || rec.UAN == "" {
			missing++
		}
	}
	check.AffectedCount = missing
	if missing == 0 {
		check.Status = StatusPass
	} else {
		check.Status = StatusWarning
		check.Recommendation = "Returns with missing PAN/UAN bounce at the portal; complete the employee master."
	}
	return check, nil
}
