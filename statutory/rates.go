package statutory

import (
	"github.com/shopspring/decimal"

	"github.com/keystone/ledger-engine/ledger"
)

// =============================================================================
// RATE TABLES - Fixed, configurable; no tax-law interpretation
// =============================================================================

// PTSlab is one professional-tax band: monthly gross up to (and including)
// UpTo pays Tax. The last slab should have UpTo zero, meaning "no upper
// bound".
type PTSlab struct {
	UpTo ledger.Amount
	Tax  ledger.Amount
}

// Rates is the statutory rate configuration. Values are percentages unless
// noted. The engine applies these tables verbatim; keeping them current with
// law changes is the operator's responsibility.
type Rates struct {
	// TDS
	SalaryTDSRate decimal.Decimal            // section 192 flat effective rate
	SectionRates  map[string]decimal.Decimal // non-salary sections, e.g. 194C
	CessRate      decimal.Decimal            // health & education cess, % of base TDS

	// Provident fund
	PFEmployeeRate    decimal.Decimal
	PFEmployerEPSRate decimal.Decimal
	PFEmployerEPFRate decimal.Decimal
	EPSWageCeiling    ledger.Amount // EPS share computed on wages capped here

	// ESI
	ESIEmployeeRate decimal.Decimal
	ESIEmployerRate decimal.Decimal
	ESIWageCeiling  ledger.Amount // gross above this excludes the employee

	// Professional tax
	PTSlabs []PTSlab
}

// DefaultRates returns the statutory table in force for FY 2024-25.
func DefaultRates() Rates {
	return Rates{
		SalaryTDSRate: decimal.NewFromInt(10),
		SectionRates: map[string]decimal.Decimal{
			"194C": decimal.NewFromInt(2),  // contractors
			"194J": decimal.NewFromInt(10), // professional fees
			"194I": decimal.NewFromInt(10), // rent
			"194H": decimal.NewFromInt(5),  // commission
		},
		CessRate: decimal.NewFromInt(4),

		PFEmployeeRate:    decimal.NewFromInt(12),
		PFEmployerEPSRate: decimal.NewFromFloat(8.33),
		PFEmployerEPFRate: decimal.NewFromFloat(3.67),
		EPSWageCeiling:    ledger.NewAmountFromInt(15000),

		ESIEmployeeRate: decimal.NewFromFloat(0.75),
		ESIEmployerRate: decimal.NewFromFloat(3.25),
		ESIWageCeiling:  ledger.NewAmountFromInt(21000),

		PTSlabs: []PTSlab{
			{UpTo: ledger.NewAmountFromInt(7500), Tax: ledger.ZeroAmount()},
			{UpTo: ledger.NewAmountFromInt(10000), Tax: ledger.NewAmountFromInt(175)},
			{UpTo: ledger.ZeroAmount(), Tax: ledger.NewAmountFromInt(200)},
		},
	}
}

// pct applies a percentage rate to an amount, rounded to currency precision.
func pct(a ledger.Amount, rate decimal.Decimal) ledger.Amount {
	return a.Mul(rate.Div(decimal.NewFromInt(100))).Round()
}

// PTFor returns the professional tax for a monthly gross per the slab table.
func (r Rates) PTFor(gross ledger.Amount) ledger.Amount {
	for _, slab := range r.PTSlabs {
		if slab.UpTo.IsZero() || gross.LessThanOrEqual(slab.UpTo) {
			return slab.Tax
		}
	}
	return ledger.ZeroAmount()
}
