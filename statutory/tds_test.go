package statutory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keystone/ledger-engine/period"
	"github.com/keystone/ledger-engine/records"
	"github.com/keystone/ledger-engine/statutory"
)

func q1FY2024(t *testing.T) period.Range {
	t.Helper()
	r, err := period.QuarterRange("2024-2025", 1)
	require.NoError(t, err)
	return r
}

func TestTDS24Q_AggregatesEmployeeAcrossMonths(t *testing.T) {
	// GIVEN the same employee paid in April and May
	ctx := context.Background()
	source := records.NewMemorySource()
	source.AddPayroll(
		records.PayrollRecord{
			ID: "pr-1", Org: testOrg, EmployeeCode: "E001", EmployeeName: "Priya Nair",
			PAN: "AAEPS1111F", PeriodMonth: day("2024-04-01"),
			GrossWages: amt("80000.00"), TaxableSalary: amt("60000.00"),
		},
		records.PayrollRecord{
			ID: "pr-2", Org: testOrg, EmployeeCode: "E001", EmployeeName: "Priya Nair",
			PAN: "AAEPS1111F", PeriodMonth: day("2024-05-01"),
			GrossWages: amt("80000.00"), TaxableSalary: amt("60000.00"),
		},
	)
	c := statutory.NewCompiler(source)

	// WHEN compiling 24Q for the quarter
	rows, err := c.TDS24Q(ctx, testOrg, q1FY2024(t))

	// THEN one row covers both months: 10% of 120000 plus 4% cess
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, statutory.FormTDS24Q, rows[0].Form)
	assert.Equal(t, "192", rows[0].Section)
	assert.Equal(t, "120000.00", rows[0].TaxableAmount.String())
	assert.Equal(t, "12000.00", rows[0].TDS.String())
	assert.Equal(t, "480.00", rows[0].Cess.String())
	assert.Equal(t, "12480.00", rows[0].TotalDeducted.String())
}

func TestTDS24Q_CessIsOnBaseTDSNotCompounded(t *testing.T) {
	// GIVEN one employee with a taxable salary of 50000
	ctx := context.Background()
	source := records.NewMemorySource()
	source.AddPayroll(records.PayrollRecord{
		ID: "pr-1", Org: testOrg, EmployeeCode: "E001", PeriodMonth: day("2024-04-01"),
		TaxableSalary: amt("50000.00"),
	})
	c := statutory.NewCompiler(source)

	// WHEN compiling 24Q
	rows, err := c.TDS24Q(ctx, testOrg, q1FY2024(t))

	// THEN cess is 4% of the 5000 base TDS, not 4% of TDS+cess
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "5000.00", rows[0].TDS.String())
	assert.Equal(t, "200.00", rows[0].Cess.String())
}

func TestTDS24Q_SkipsZeroTaxableEmployees(t *testing.T) {
	// GIVEN an employee below the taxable threshold
	ctx := context.Background()
	source := records.NewMemorySource()
	source.AddPayroll(records.PayrollRecord{
		ID: "pr-1", Org: testOrg, EmployeeCode: "E001", PeriodMonth: day("2024-04-01"),
		GrossWages: amt("20000.00"),
	})
	c := statutory.NewCompiler(source)

	// WHEN compiling 24Q
	rows, err := c.TDS24Q(ctx, testOrg, q1FY2024(t))

	// THEN no row is produced for them
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestTDS26Q_GroupsByVendorAndSection(t *testing.T) {
	// GIVEN two 194C bills from the same vendor and one 194J from another
	ctx := context.Background()
	source := records.NewMemorySource()
	source.AddBills(
		records.Bill{
			ID: "b-1", Org: testOrg, Number: "BILL-001", Date: day("2024-04-05"),
			VendorName: "Sharma Constructions", VendorPAN: "AAEPS1111F",
			TaxableValue: amt("40000.00"), Total: amt("47200.00"), TDSSection: "194C",
		},
		records.Bill{
			ID: "b-2", Org: testOrg, Number: "BILL-002", Date: day("2024-05-12"),
			VendorName: "Sharma Constructions", VendorPAN: "AAEPS1111F",
			TaxableValue: amt("60000.00"), Total: amt("70800.00"), TDSSection: "194C",
		},
		records.Bill{
			ID: "b-3", Org: testOrg, Number: "BILL-003", Date: day("2024-06-01"),
			VendorName: "Rao & Associates", VendorPAN: "AABPR2222G",
			TaxableValue: amt("25000.00"), Total: amt("29500.00"), TDSSection: "194J",
		},
	)
	c := statutory.NewCompiler(source)

	// WHEN compiling 26Q
	rows, err := c.TDS26Q(ctx, testOrg, q1FY2024(t))

	// THEN the same vendor+section pair collapses to one row, sorted by PAN
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "AABPR2222G", rows[0].PAN)
	assert.Equal(t, "194J", rows[0].Section)
	assert.Equal(t, "2500.00", rows[0].TDS.String()) // 10% of 25000

	assert.Equal(t, "AAEPS1111F", rows[1].PAN)
	assert.Equal(t, "194C", rows[1].Section)
	assert.Equal(t, "100000.00", rows[1].TaxableAmount.String())
	assert.Equal(t, "2000.00", rows[1].TDS.String()) // 2% of 100000
	assert.Equal(t, "80.00", rows[1].Cess.String())
	assert.Equal(t, "2080.00", rows[1].TotalDeducted.String())
}

func TestTDS26Q_IgnoresBillsWithoutSectionOrRate(t *testing.T) {
	// GIVEN a plain bill and one tagged with an unconfigured section
	ctx := context.Background()
	source := records.NewMemorySource()
	source.AddBills(
		records.Bill{
			ID: "b-1", Org: testOrg, Number: "BILL-001", Date: day("2024-04-05"),
			VendorName: "Stationery Mart", TaxableValue: amt("3000.00"), Total: amt("3540.00"),
		},
		records.Bill{
			ID: "b-2", Org: testOrg, Number: "BILL-002", Date: day("2024-04-06"),
			VendorName: "Mystery Vendor", VendorPAN: "AACPM3333H",
			TaxableValue: amt("9000.00"), Total: amt("10620.00"), TDSSection: "194Z",
		},
	)
	c := statutory.NewCompiler(source)

	// WHEN compiling 26Q
	rows, err := c.TDS26Q(ctx, testOrg, q1FY2024(t))

	// THEN neither bill yields a withholding row
	require.NoError(t, err)
	assert.Empty(t, rows)
}
