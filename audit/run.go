/*
Package audit runs the compliance check battery, risk scoring, anomaly
detection, and audit sampling over a financial year.

PURPOSE:
  A compliance run is a scored, versioned snapshot: a fixed battery of
  checks against GL and sub-ledger data, a weighted compliance score with
  per-category ceilings, an independent risk index built from themed
  anomaly detection, and three disjoint-by-construction audit sample sets.
  Runs are read-only consumers of the ledger - nothing here mutates
  accounting state.

SCORING:
  compliance_score: category ceilings GST 25, TDS 20, Income Tax 20,
  Internal Controls 20, Data Integrity 15 (total 100), each scaled by the
  check pass ratio within the category (warnings earn half credit, n/a
  checks are excluded from the ratio).

  ai_risk_index: theme ceilings revenue-pattern 20, cash-manipulation 15,
  GST 15, TDS 15, journal 15, control-override 10, vendor-concentration 10
  (total 100), each driven by anomaly detection over monthly series.

VERSIONING:
  One run per (financial_year, version); the latest version is
  authoritative. Versions only ever increase.
*/
package audit

import (
	"context"
	"sort"
	"sync"
	"time"
)

// =============================================================================
// CATEGORIES AND THEMES - Fixed weight ceilings
// =============================================================================

type Category string

const (
	CategoryGST              Category = "gst"
	CategoryTDS              Category = "tds"
	CategoryIncomeTax        Category = "income_tax"
	CategoryInternalControls Category = "internal_controls"
	CategoryDataIntegrity    Category = "data_integrity"
)

// CategoryCeilings is each category's maximum contribution to the
// compliance score. Totals 100.
var CategoryCeilings = map[Category]float64{
	CategoryGST:              25,
	CategoryTDS:              20,
	CategoryIncomeTax:        20,
	CategoryInternalControls: 20,
	CategoryDataIntegrity:    15,
}

type Theme string

const (
	ThemeRevenuePattern      Theme = "revenue_pattern"
	ThemeCashManipulation    Theme = "cash_manipulation"
	ThemeGST                 Theme = "gst"
	ThemeTDS                 Theme = "tds"
	ThemeJournal             Theme = "journal"
	ThemeControlOverride     Theme = "control_override"
	ThemeVendorConcentration Theme = "vendor_concentration"
)

// ThemeCeilings is each theme's maximum contribution to the risk index.
// Totals 100.
var ThemeCeilings = map[Theme]float64{
	ThemeRevenuePattern:      20,
	ThemeCashManipulation:    15,
	ThemeGST:                 15,
	ThemeTDS:                 15,
	ThemeJournal:             15,
	ThemeControlOverride:     10,
	ThemeVendorConcentration: 10,
}

// =============================================================================
// RUN RECORD AND CHILDREN
// =============================================================================

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

type CheckStatus string

const (
	StatusPass    CheckStatus = "pass"
	StatusFail    CheckStatus = "fail"
	StatusWarning CheckStatus = "warning"
	StatusNA      CheckStatus = "na"
)

// Check is one rule's outcome within a run.
type Check struct {
	Module         string
	Name           string
	Category       Category
	Severity       Severity
	Status         CheckStatus
	AffectedCount  int
	Recommendation string
}

// RiskTheme is one theme's contribution to the risk index.
type RiskTheme struct {
	Theme  Theme
	Score  float64 // 0..ceiling
	Detail string
}

// Anomaly flags a value that deviates beyond the configured threshold from
// its trailing historical mean. Read-only annotation; never ledger-mutating.
type Anomaly struct {
	Theme        Theme
	EntityRef    string // e.g. "2024-07" for a month, or a document id
	Trigger      string
	RiskScore    float64 // 0-100
	DeviationPct float64
}

type SampleStrategy string

const (
	StrategyHighRisk   SampleStrategy = "high_risk"
	StrategyStratified SampleStrategy = "stratified"
	StrategyRandom     SampleStrategy = "random"
)

// Sample is one candidate document selected for human audit. Each item
// records which strategy selected it, so overlapping selections across
// strategies are disclosed rather than silent.
type Sample struct {
	Strategy  SampleStrategy
	EntityRef string
	Detail    string
	RiskScore float64
}

type IFCRating string

const (
	IFCStrong   IFCRating = "Strong"
	IFCModerate IFCRating = "Moderate"
	IFCWeak     IFCRating = "Weak"
)

// Run is the full scored record for one (financial_year, version).
type Run struct {
	ID            string
	Org           string
	FinancialYear string
	Version       int

	ComplianceScore float64 // 0-100
	AIRiskIndex     float64 // 0-100
	ScoreBreakdown  map[Category]float64
	RiskBreakdown   map[Theme]float64
	IFCRating       IFCRating

	Checks    []Check
	Themes    []RiskTheme
	Anomalies []Anomaly
	Samples   []Sample

	CompletedAt time.Time
}

// =============================================================================
// RUN STORE
// =============================================================================

type RunStore interface {
	SaveRun(ctx context.Context, run Run) error

	// LatestRun returns the highest-version run for the FY, or nil.
	LatestRun(ctx context.Context, org, financialYear string) (*Run, error)

	ListRuns(ctx context.Context, org string) ([]Run, error)

	// NextVersion returns 1 + the highest stored version for the FY.
	NextVersion(ctx context.Context, org, financialYear string) (int, error)
}

// MemoryRunStore is an in-memory RunStore for tests.
type MemoryRunStore struct {
	mu   sync.RWMutex
	runs []Run
}

func NewMemoryRunStore() *MemoryRunStore { return &MemoryRunStore{} }

func (m *MemoryRunStore) SaveRun(_ context.Context, run Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return nil
}

func (m *MemoryRunStore) LatestRun(_ context.Context, org, fy string) (*Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *Run
	for i := range m.runs {
		r := m.runs[i]
		if r.Org != org || r.FinancialYear != fy {
			continue
		}
		if latest == nil || r.Version > latest.Version {
			latest = &m.runs[i]
		}
	}
	if latest == nil {
		return nil, nil
	}
	found := *latest
	return &found, nil
}

func (m *MemoryRunStore) ListRuns(_ context.Context, org string) ([]Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []Run
	for _, r := range m.runs {
		if r.Org == org {
			result = append(result, r)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].FinancialYear != result[j].FinancialYear {
			return result[i].FinancialYear < result[j].FinancialYear
		}
		return result[i].Version < result[j].Version
	})
	return result, nil
}

func (m *MemoryRunStore) NextVersion(_ context.Context, org, fy string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	max := 0
	for _, r := range m.runs {
		if r.Org == org && r.FinancialYear == fy && r.Version > max {
			max = r.Version
		}
	}
	return max + 1, nil
}
