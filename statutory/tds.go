package statutory

import (
	"context"
	"sort"

	"github.com/keystone/ledger-engine/ledger"
	"github.com/keystone/ledger-engine/period"
)

// =============================================================================
// TDS - Withholding tax returns
// =============================================================================

// TDS24Q compiles per-employee salary withholding rows. One row per
// employee, aggregating the employee's taxable salary across the range's
// payroll months.
func (c *Compiler) TDS24Q(ctx context.Context, org string, r period.Range) ([]TDSRow, error) {
	payroll, err := c.Source.PayrollInRange(ctx, org, r.From, r.To)
	if err != nil {
		return nil, err
	}

	type empTotal struct {
		name    string
		pan     string
		taxable ledger.Amount
	}
	byEmployee := make(map[string]*empTotal)
	order := make([]string, 0)
	for _, rec := range payroll {
		t, ok := byEmployee[rec.EmployeeCode]
		if !ok {
			t = &empTotal{name: rec.EmployeeName, pan: rec.PAN, taxable: ledger.ZeroAmount()}
			byEmployee[rec.EmployeeCode] = t
			order = append(order, rec.EmployeeCode)
		}
		t.taxable = t.taxable.Add(rec.TaxableSalary)
	}
	sort.Strings(order)

	rows := make([]TDSRow, 0, len(order))
	for _, code := range order {
		t := byEmployee[code]
		if t.taxable.IsZero() {
			continue
		}
		tds := pct(t.taxable, c.Rates.SalaryTDSRate)
		cess := pct(tds, c.Rates.CessRate)
		rows = append(rows, TDSRow{
			Form:          FormTDS24Q,
			DeducteeName:  t.name,
			PAN:           t.pan,
			Section:       "192",
			TaxableAmount: t.taxable,
			TDS:           tds,
			Cess:          cess,
			TotalDeducted: tds.Add(cess),
		})
	}
	return rows, nil
}

// TDS26Q compiles per-deductee non-salary withholding rows from bills that
// carry a TDS section. One row per (vendor, section).
func (c *Compiler) TDS26Q(ctx context.Context, org string, r period.Range) ([]TDSRow, error) {
	bills, err := c.Source.BillsInRange(ctx, org, r.From, r.To)
	if err != nil {
		return nil, err
	}

	type key struct {
		pan     string
		section string
	}
	type deducteeTotal struct {
		name    string
		taxable ledger.Amount
	}
	byDeductee := make(map[key]*deducteeTotal)
	order := make([]key, 0)
	for _, b := range bills {
		if b.TDSSection == "" {
			continue
		}
		k := key{pan: b.VendorPAN, section: b.TDSSection}
		t, ok := byDeductee[k]
		if !ok {
			t = &deducteeTotal{name: b.VendorName, taxable: ledger.ZeroAmount()}
			byDeductee[k] = t
			order = append(order, k)
		}
		t.taxable = t.taxable.Add(b.TaxableValue)
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].pan != order[j].pan {
			return order[i].pan < order[j].pan
		}
		return order[i].section < order[j].section
	})

	rows := make([]TDSRow, 0, len(order))
	for _, k := range order {
		t := byDeductee[k]
		rate, ok := c.Rates.SectionRates[k.section]
		if !ok {
			// Unknown section: no configured rate, nothing to withhold.
			continue
		}
		tds := pct(t.taxable, rate)
		cess := pct(tds, c.Rates.CessRate)
		rows = append(rows, TDSRow{
			Form:          FormTDS26Q,
			DeducteeName:  t.name,
			PAN:           k.pan,
			Section:       k.section,
			TaxableAmount: t.taxable,
			TDS:           tds,
			Cess:          cess,
			TotalDeducted: tds.Add(cess),
		})
	}
	return rows, nil
}
