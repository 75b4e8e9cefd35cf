package period_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keystone/ledger-engine/ledger"
	"github.com/keystone/ledger-engine/period"
)

// =============================================================================
// FINANCIAL YEAR RESOLUTION TESTS
// =============================================================================

func TestParseFinancialYear(t *testing.T) {
	// GIVEN: Well-formed and malformed FY labels
	// WHEN: Parsing
	// THEN: Only "YYYY-YYYY+1" passes

	start, err := period.ParseFinancialYear("2024-2025")
	require.NoError(t, err)
	assert.Equal(t, 2024, start)

	_, err = period.ParseFinancialYear("2024-2026")
	assert.Error(t, err)

	_, err = period.ParseFinancialYear("2024")
	assert.Error(t, err)

	_, err = period.ParseFinancialYear("FY2024-2025")
	assert.Error(t, err)
}

func TestFinancialYearRange_AprilToMarch(t *testing.T) {
	// GIVEN: FY 2024-2025
	// WHEN: Resolving the full range
	// THEN: April 1 2024 through March 31 2025

	r, err := period.FinancialYearRange("2024-2025")
	require.NoError(t, err)
	assert.Equal(t, "2024-04-01", r.From.String())
	assert.Equal(t, "2025-03-31", r.To.String())
}

func TestMonthRange_FiscalIndexing(t *testing.T) {
	// GIVEN: FY 2024-2025
	// WHEN: Resolving month indexes
	// THEN: Month 1 is April 2024; month 10 is January 2025 (calendar year
	//       rolls over); month 12 is March 2025

	r, err := period.MonthRange("2024-2025", 1)
	require.NoError(t, err)
	assert.Equal(t, "2024-04-01", r.From.String())
	assert.Equal(t, "2024-04-30", r.To.String())

	r, err = period.MonthRange("2024-2025", 10)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-01", r.From.String())
	assert.Equal(t, "2025-01-31", r.To.String())

	r, err = period.MonthRange("2024-2025", 12)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-01", r.From.String())
	assert.Equal(t, "2025-03-31", r.To.String())

	_, err = period.MonthRange("2024-2025", 0)
	assert.Error(t, err)
	_, err = period.MonthRange("2024-2025", 13)
	assert.Error(t, err)
}

func TestQuarterRange_FiscalIndexing(t *testing.T) {
	// GIVEN: FY 2024-2025
	// WHEN: Resolving quarters
	// THEN: Q1 is Apr-Jun 2024; Q4 is Jan-Mar 2025

	r, err := period.QuarterRange("2024-2025", 1)
	require.NoError(t, err)
	assert.Equal(t, "2024-04-01", r.From.String())
	assert.Equal(t, "2024-06-30", r.To.String())

	r, err = period.QuarterRange("2024-2025", 4)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-01", r.From.String())
	assert.Equal(t, "2025-03-31", r.To.String())

	_, err = period.QuarterRange("2024-2025", 5)
	assert.Error(t, err)
}

func TestFinancialYearLabel(t *testing.T) {
	// GIVEN: Dates either side of the April 1 boundary
	// WHEN: Deriving the FY label
	// THEN: March belongs to the prior FY, April starts the next

	assert.Equal(t, "2023-2024", period.FinancialYearLabel(ledger.NewDate(2024, 3, 31)))
	assert.Equal(t, "2024-2025", period.FinancialYearLabel(ledger.NewDate(2024, 4, 1)))
	assert.Equal(t, "2024-2025", period.FinancialYearLabel(ledger.NewDate(2024, 12, 25)))
}
