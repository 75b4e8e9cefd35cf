/*
engine.go - The compliance run orchestrator

PURPOSE:
  RunAudit drives one full compliance run for a financial year: the check
  battery, category scoring, themed anomaly detection, the risk index, IFC
  rating, and audit sampling. The result is saved as the next version for
  the FY; the latest version is authoritative.
*/
package audit

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/keystone/ledger-engine/ledger"
	"github.com/keystone/ledger-engine/period"
	"github.com/keystone/ledger-engine/reconcile"
	"github.com/keystone/ledger-engine/records"
	"github.com/keystone/ledger-engine/statutory"
)

// Engine executes compliance runs. All dependencies are read-only consumers
// of accounting state.
type Engine struct {
	Ledger   *ledger.Ledger
	Source   records.Source
	Compiler *statutory.Compiler
	Recon    reconcile.RecordStore
	Periods  period.Store
	Runs     RunStore

	Detector Detector

	// SampleSize is the target size per sampling strategy.
	SampleSize int

	// Seed drives the random strategies. A fixed seed makes a run
	// reproducible; zero means derive from the clock.
	Seed int64
}

func NewEngine(l *ledger.Ledger, source records.Source, compiler *statutory.Compiler,
	recon reconcile.RecordStore, periods period.Store, runs RunStore) *Engine {
	return &Engine{
		Ledger:     l,
		Source:     source,
		Compiler:   compiler,
		Recon:      recon,
		Periods:    periods,
		Runs:       runs,
		Detector:   NewDeviationDetector(),
		SampleSize: 5,
	}
}

// RunAudit executes the full battery for a financial year and persists the
// scored run as the next version.
func (e *Engine) RunAudit(ctx context.Context, org, financialYear string) (*Run, error) {
	fy, err := period.FinancialYearRange(financialYear)
	if err != nil {
		return nil, err
	}

	checks, err := e.runChecks(ctx, org, fy)
	if err != nil {
		return nil, fmt.Errorf("check battery: %w", err)
	}
	scoreBreakdown, complianceScore := scoreChecks(checks)

	themes, anomalies, err := e.assessRisk(ctx, org, fy)
	if err != nil {
		return nil, fmt.Errorf("risk assessment: %w", err)
	}
	riskBreakdown := make(map[Theme]float64, len(themes))
	riskIndex := 0.0
	for _, t := range themes {
		riskBreakdown[t.Theme] = t.Score
		riskIndex += t.Score
	}
	riskIndex = round1(math.Min(100, riskIndex))

	samples, err := e.drawSamples(ctx, org, fy, anomalies)
	if err != nil {
		return nil, fmt.Errorf("sampling: %w", err)
	}

	version, err := e.Runs.NextVersion(ctx, org, financialYear)
	if err != nil {
		return nil, err
	}

	run := Run{
		ID:              uuid.NewString(),
		Org:             org,
		FinancialYear:   financialYear,
		Version:         version,
		ComplianceScore: complianceScore,
		AIRiskIndex:     riskIndex,
		ScoreBreakdown:  scoreBreakdown,
		RiskBreakdown:   riskBreakdown,
		IFCRating:       rateIFC(complianceScore),
		Checks:          checks,
		Themes:          themes,
		Anomalies:       anomalies,
		Samples:         samples,
		CompletedAt:     time.Now().UTC(),
	}
	if err := e.Runs.SaveRun(ctx, run); err != nil {
		return nil, err
	}
	return &run, nil
}

// scoreChecks scales each category ceiling by its pass ratio. Warnings earn
// half credit; n/a checks are excluded from the ratio. Categories with no
// applicable checks contribute their full ceiling (nothing to fail).
func scoreChecks(checks []Check) (map[Category]float64, float64) {
	type tally struct {
		applicable float64
		earned     float64
	}
	tallies := make(map[Category]*tally)
	for _, c := range checks {
		t, ok := tallies[c.Category]
		if !ok {
			t = &tally{}
			tallies[c.Category] = t
		}
		switch c.Status {
		case StatusPass:
			t.applicable++
			t.earned++
		case StatusWarning:
			t.applicable++
			t.earned += 0.5
		case StatusFail:
			t.applicable++
		case StatusNA:
			// excluded
		}
	}

	breakdown := make(map[Category]float64, len(CategoryCeilings))
	total := 0.0
	for category, ceiling := range CategoryCeilings {
		score := ceiling
		if t, ok := tallies[category]; ok && t.applicable > 0 {
			score = ceiling * t.earned / t.applicable
		}
		score = round1(score)
		breakdown[category] = score
		total += score
	}
	return breakdown, round1(total)
}

func rateIFC(complianceScore float64) IFCRating {
	switch {
	case complianceScore >= 80:
		return IFCStrong
	case complianceScore >= 60:
		return IFCModerate
	default:
		return IFCWeak
	}
}

// =============================================================================
// RISK ASSESSMENT - Themed anomaly detection over monthly series
// =============================================================================

func (e *Engine) assessRisk(ctx context.Context, org string, fy period.Range) ([]RiskTheme, []Anomaly, error) {
	invoices, err := e.Source.InvoicesInRange(ctx, org, fy.From, fy.To)
	if err != nil {
		return nil, nil, err
	}
	bills, err := e.Source.BillsInRange(ctx, org, fy.From, fy.To)
	if err != nil {
		return nil, nil, err
	}
	bankTxs, err := e.Source.BankTransactionsInRange(ctx, org, fy.From, fy.To)
	if err != nil {
		return nil, nil, err
	}
	entries, err := e.Ledger.Store.Entries(ctx, org, fy.From, fy.To)
	if err != nil {
		return nil, nil, err
	}

	var themes []RiskTheme
	var anomalies []Anomaly

	series := func(theme Theme, points []SeriesPoint, detail string) {
		found := e.Detector.Detect(theme, points)
		anomalies = append(anomalies, found...)
		themes = append(themes, RiskTheme{
			Theme:  theme,
			Score:  themeScore(theme, points, found),
			Detail: detail,
		})
	}

	series(ThemeRevenuePattern, monthlySeries(fy, func(r period.Range) float64 {
		total := 0.0
		for _, inv := range invoices {
			if r.Contains(inv.Date) {
				total += amountFloat(inv.Total)
			}
		}
		return total
	}), "monthly outward invoice totals vs trailing mean")

	series(ThemeCashManipulation, monthlySeries(fy, func(r period.Range) float64 {
		total := 0.0
		for _, t := range bankTxs {
			if t.Type == records.BankWithdrawal && r.Contains(t.Date) {
				total += amountFloat(t.Amount)
			}
		}
		return total
	}), "monthly cash outflow vs trailing mean")

	series(ThemeGST, monthlySeries(fy, func(r period.Range) float64 {
		total := 0.0
		for _, inv := range invoices {
			if r.Contains(inv.Date) {
				total += amountFloat(inv.TaxAmount)
			}
		}
		return total
	}), "monthly output tax vs trailing mean")

	series(ThemeTDS, monthlySeries(fy, func(r period.Range) float64 {
		total := 0.0
		for _, b := range bills {
			if b.TDSSection != "" && r.Contains(b.Date) {
				total += amountFloat(b.TaxableValue)
			}
		}
		return total
	}), "monthly TDS-subject spend vs trailing mean")

	series(ThemeJournal, monthlySeries(fy, func(r period.Range) float64 {
		count := 0.0
		for _, entry := range entries {
			if entry.Source == ledger.SourceManual && r.Contains(entry.Date) {
				count++
			}
		}
		return count
	}), "monthly manual journal counts vs trailing mean")

	// Control override and vendor concentration are ratio-based, not
	// series-based.
	overrides, err := e.manualControlPostings(ctx, org, fy)
	if err != nil {
		return nil, nil, err
	}
	overrideScore := 0.0
	if len(entries) > 0 && overrides > 0 {
		ratio := float64(overrides) / float64(len(entries))
		overrideScore = round1(math.Min(1, ratio*5) * ThemeCeilings[ThemeControlOverride])
		anomalies = append(anomalies, Anomaly{
			Theme:        ThemeControlOverride,
			EntityRef:    fmt.Sprintf("%d manual control postings", overrides),
			Trigger:      "manual journals touching control accounts",
			RiskScore:    round1(math.Min(100, ratio*500)),
			DeviationPct: round1(ratio * 100),
		})
	}
	themes = append(themes, RiskTheme{
		Theme:  ThemeControlOverride,
		Score:  overrideScore,
		Detail: "share of journals overriding control accounts",
	})

	concScore, concAnomaly := vendorConcentration(bills)
	if concAnomaly != nil {
		anomalies = append(anomalies, *concAnomaly)
	}
	themes = append(themes, RiskTheme{
		Theme:  ThemeVendorConcentration,
		Score:  concScore,
		Detail: "largest vendor's share of bill value",
	})

	return themes, anomalies, nil
}

// themeScore scales the theme ceiling by the density and severity of
// detected anomalies.
func themeScore(theme Theme, points []SeriesPoint, anomalies []Anomaly) float64 {
	if len(points) == 0 || len(anomalies) == 0 {
		return 0
	}
	sum := 0.0
	for _, a := range anomalies {
		sum += a.RiskScore
	}
	density := sum / (100 * float64(len(points)))
	return round1(math.Min(1, density*3) * ThemeCeilings[theme])
}

// vendorConcentration scores the largest vendor's share of total bill value.
// Below 40% the theme is quiet.
func vendorConcentration(bills []records.Bill) (float64, *Anomaly) {
	total := 0.0
	byVendor := make(map[string]float64)
	var topVendor string
	for _, b := range bills {
		v := amountFloat(b.Total)
		total += v
		byVendor[b.VendorName] += v
		if topVendor == "" || byVendor[b.VendorName] > byVendor[topVendor] {
			topVendor = b.VendorName
		}
	}
	if total == 0 {
		return 0, nil
	}
	share := byVendor[topVendor] / total
	if share <= 0.4 {
		return 0, nil
	}
	score := round1((share - 0.4) / 0.6 * ThemeCeilings[ThemeVendorConcentration])
	return score, &Anomaly{
		Theme:        ThemeVendorConcentration,
		EntityRef:    topVendor,
		Trigger:      "vendor dominates purchase volume",
		RiskScore:    round1(share * 100),
		DeviationPct: round1(share * 100),
	}
}

// manualControlPostings counts manual journals with lines on control
// accounts. Shared by the check battery and the risk themes.
func (e *Engine) manualControlPostings(ctx context.Context, org string, fy period.Range) (int, error) {
	accounts, err := e.Ledger.Accounts.ListAccounts(ctx, org)
	if err != nil {
		return 0, err
	}
	controls := make(map[ledger.AccountCode]bool)
	for _, a := range accounts {
		if a.IsControlAccount {
			controls[a.Code] = true
		}
	}
	entries, err := e.Ledger.Store.Entries(ctx, org, fy.From, fy.To)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, entry := range entries {
		if entry.Source != ledger.SourceManual {
			continue
		}
		for _, line := range entry.Lines {
			if controls[line.AccountCode] {
				count++
				break
			}
		}
	}
	return count, nil
}

// monthlySeries evaluates fn per month of the FY range, labelled YYYY-MM.
func monthlySeries(fy period.Range, fn func(period.Range) float64) []SeriesPoint {
	points := make([]SeriesPoint, 0, 12)
	for start := fy.From; start.BeforeOrEqual(fy.To); start = start.AddMonths(1) {
		month := period.Range{From: start, To: start.EndOfMonth()}
		points = append(points, SeriesPoint{
			Label: start.Time.Format("2006-01"),
			Value: fn(month),
		})
	}
	return points
}

func amountFloat(a ledger.Amount) float64 {
	f, _ := a.Value.Float64()
	return f
}
