package statutory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keystone/ledger-engine/records"
	"github.com/keystone/ledger-engine/statutory"
)

func TestPFECR_BelowCeilingSharesAreEqual(t *testing.T) {
	// GIVEN basic wages under the EPS ceiling
	ctx := context.Background()
	source := records.NewMemorySource()
	source.AddPayroll(records.PayrollRecord{
		ID: "pr-1", Org: testOrg, EmployeeCode: "E001", EmployeeName: "Priya Nair",
		UAN: "100200300400", PeriodMonth: day("2024-04-01"),
		GrossWages: amt("20000.00"), BasicWages: amt("10000.00"),
	})
	c := statutory.NewCompiler(source)

	// WHEN compiling the ECR
	rows, err := c.PFECR(ctx, testOrg, april2024(t))

	// THEN employee 12% and employer EPS 8.33% + EPF remainder match up
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "1200.00", rows[0].EmployeeEPF.String())
	assert.Equal(t, "833.00", rows[0].EmployerEPS.String())
	assert.Equal(t, "367.00", rows[0].EmployerEPF.String())
	employer := rows[0].EmployerEPS.Add(rows[0].EmployerEPF)
	assert.Equal(t, rows[0].EmployeeEPF.String(), employer.String())
}

func TestPFECR_EPSCappedAtWageCeiling(t *testing.T) {
	// GIVEN basic wages of 40000, well above the 15000 EPS ceiling
	ctx := context.Background()
	source := records.NewMemorySource()
	source.AddPayroll(records.PayrollRecord{
		ID: "pr-1", Org: testOrg, EmployeeCode: "E001", PeriodMonth: day("2024-04-01"),
		GrossWages: amt("80000.00"), BasicWages: amt("40000.00"),
	})
	c := statutory.NewCompiler(source)

	// WHEN compiling the ECR
	rows, err := c.PFECR(ctx, testOrg, april2024(t))

	// THEN EPS is 8.33% of 15000 only, and the employer EPF share absorbs
	// the rest so the employer total still equals the employee share
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "4800.00", rows[0].EmployeeEPF.String()) // 12% of 40000
	assert.Equal(t, "1249.50", rows[0].EmployerEPS.String()) // 8.33% of 15000
	assert.Equal(t, "3550.50", rows[0].EmployerEPF.String())
}

func TestPFECR_SkipsEmployeesWithoutBasicWages(t *testing.T) {
	// GIVEN a record with gross but no basic wage component
	ctx := context.Background()
	source := records.NewMemorySource()
	source.AddPayroll(records.PayrollRecord{
		ID: "pr-1", Org: testOrg, EmployeeCode: "E001", PeriodMonth: day("2024-04-01"),
		GrossWages: amt("5000.00"),
	})
	c := statutory.NewCompiler(source)

	// WHEN compiling the ECR
	rows, err := c.PFECR(ctx, testOrg, april2024(t))

	// THEN no contribution row is produced
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestESI_ExcludesEmployeesAboveCeiling(t *testing.T) {
	// GIVEN one employee under the 21000 ceiling and one above it
	ctx := context.Background()
	source := records.NewMemorySource()
	source.AddPayroll(
		records.PayrollRecord{
			ID: "pr-1", Org: testOrg, EmployeeCode: "E001", EmployeeName: "Priya Nair",
			ESINumber: "3100200300", PeriodMonth: day("2024-04-01"),
			GrossWages: amt("18000.00"),
		},
		records.PayrollRecord{
			ID: "pr-2", Org: testOrg, EmployeeCode: "E002", EmployeeName: "Arjun Rao",
			PeriodMonth: day("2024-04-01"), GrossWages: amt("80000.00"),
		},
	)
	c := statutory.NewCompiler(source)

	// WHEN compiling the ESI return
	rows, err := c.ESI(ctx, testOrg, april2024(t))

	// THEN the over-ceiling employee is absent entirely, no zero row
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Priya Nair", rows[0].EmployeeName)
	assert.Equal(t, "135.00", rows[0].EmployeeShare.String()) // 0.75% of 18000
	assert.Equal(t, "585.00", rows[0].EmployerShare.String()) // 3.25% of 18000
}

func TestESI_CeilingIsInclusive(t *testing.T) {
	// GIVEN gross wages exactly at the ceiling
	ctx := context.Background()
	source := records.NewMemorySource()
	source.AddPayroll(records.PayrollRecord{
		ID: "pr-1", Org: testOrg, EmployeeCode: "E001", PeriodMonth: day("2024-04-01"),
		GrossWages: amt("21000.00"),
	})
	c := statutory.NewCompiler(source)

	// WHEN compiling the ESI return
	rows, err := c.ESI(ctx, testOrg, april2024(t))

	// THEN the employee is still covered
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "157.50", rows[0].EmployeeShare.String())
}

func TestProfessionalTax_SlabTable(t *testing.T) {
	// GIVEN employees landing in each PT slab
	ctx := context.Background()
	source := records.NewMemorySource()
	source.AddPayroll(
		records.PayrollRecord{ID: "pr-1", Org: testOrg, EmployeeCode: "E001", PeriodMonth: day("2024-04-01"), GrossWages: amt("7000.00")},
		records.PayrollRecord{ID: "pr-2", Org: testOrg, EmployeeCode: "E002", PeriodMonth: day("2024-04-01"), GrossWages: amt("7500.00")},
		records.PayrollRecord{ID: "pr-3", Org: testOrg, EmployeeCode: "E003", PeriodMonth: day("2024-04-01"), GrossWages: amt("9000.00")},
		records.PayrollRecord{ID: "pr-4", Org: testOrg, EmployeeCode: "E004", PeriodMonth: day("2024-04-01"), GrossWages: amt("50000.00")},
	)
	c := statutory.NewCompiler(source)

	// WHEN compiling the PT return
	rows, err := c.ProfessionalTax(ctx, testOrg, april2024(t))

	// THEN each row carries its slab's tax, zero-tax slabs included
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "0.00", rows[0].Tax.String())   // under 7500
	assert.Equal(t, "0.00", rows[1].Tax.String())   // slab bound is inclusive
	assert.Equal(t, "175.00", rows[2].Tax.String()) // 7501-10000
	assert.Equal(t, "200.00", rows[3].Tax.String()) // above 10000
}
