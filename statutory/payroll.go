package statutory

import (
	"context"

	"github.com/keystone/ledger-engine/period"
)

// =============================================================================
// PF / ESI / PROFESSIONAL TAX - Contribution returns
// =============================================================================

// PFECR compiles per-employee provident fund contribution rows. Employee
// share is computed on basic wages; the employer share splits into EPS (on
// ceiling-capped wages) and EPF (the remainder), so employee and employer
// contributions stay equal.
func (c *Compiler) PFECR(ctx context.Context, org string, r period.Range) ([]PFRow, error) {
	payroll, err := c.Source.PayrollInRange(ctx, org, r.From, r.To)
	if err != nil {
		return nil, err
	}

	rows := make([]PFRow, 0, len(payroll))
	for _, rec := range payroll {
		if rec.BasicWages.IsZero() {
			continue
		}
		epsWages := rec.BasicWages
		if epsWages.GreaterThan(c.Rates.EPSWageCeiling) {
			epsWages = c.Rates.EPSWageCeiling
		}

		employee := pct(rec.BasicWages, c.Rates.PFEmployeeRate)
		eps := pct(epsWages, c.Rates.PFEmployerEPSRate)
		// Employer's EPF share is the employee-equal total minus EPS, so the
		// EPS ceiling never shrinks the overall employer contribution.
		epf := employee.Sub(eps)

		rows = append(rows, PFRow{
			Form:         FormPFECR,
			UAN:          rec.UAN,
			EmployeeName: rec.EmployeeName,
			GrossWages:   rec.GrossWages,
			EPFWages:     rec.BasicWages,
			EmployeeEPF:  employee,
			EmployerEPS:  eps,
			EmployerEPF:  epf,
		})
	}
	return rows, nil
}

// ESI compiles per-employee insurance contribution rows. Employees whose
// gross wages exceed the eligibility ceiling are excluded from the return
// entirely - no zero-valued rows.
func (c *Compiler) ESI(ctx context.Context, org string, r period.Range) ([]ESIRow, error) {
	payroll, err := c.Source.PayrollInRange(ctx, org, r.From, r.To)
	if err != nil {
		return nil, err
	}

	rows := make([]ESIRow, 0, len(payroll))
	for _, rec := range payroll {
		if rec.GrossWages.GreaterThan(c.Rates.ESIWageCeiling) {
			continue
		}
		if rec.GrossWages.IsZero() {
			continue
		}
		rows = append(rows, ESIRow{
			Form:          FormESI,
			ESINumber:     rec.ESINumber,
			EmployeeName:  rec.EmployeeName,
			GrossWages:    rec.GrossWages,
			EmployeeShare: pct(rec.GrossWages, c.Rates.ESIEmployeeRate),
			EmployerShare: pct(rec.GrossWages, c.Rates.ESIEmployerRate),
		})
	}
	return rows, nil
}

// ProfessionalTax compiles per-employee PT rows against the slab table.
// Zero-tax slabs still produce a row: the return discloses covered
// employees, the slab just owes nothing.
func (c *Compiler) ProfessionalTax(ctx context.Context, org string, r period.Range) ([]PTRow, error) {
	payroll, err := c.Source.PayrollInRange(ctx, org, r.From, r.To)
	if err != nil {
		return nil, err
	}

	rows := make([]PTRow, 0, len(payroll))
	for _, rec := range payroll {
		if rec.GrossWages.IsZero() {
			continue
		}
		rows = append(rows, PTRow{
			Form:         FormPT,
			EmployeeCode: rec.EmployeeCode,
			EmployeeName: rec.EmployeeName,
			GrossWages:   rec.GrossWages,
			Tax:          c.Rates.PTFor(rec.GrossWages),
		})
	}
	return rows, nil
}
