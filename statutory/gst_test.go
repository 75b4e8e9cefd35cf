package statutory_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keystone/ledger-engine/ledger"
	"github.com/keystone/ledger-engine/period"
	"github.com/keystone/ledger-engine/records"
	"github.com/keystone/ledger-engine/statutory"
)

const testOrg = "org-1"

func amt(s string) ledger.Amount { return ledger.MustParseAmount(s) }

func day(s string) ledger.Date {
	d, err := ledger.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func april2024(t *testing.T) period.Range {
	t.Helper()
	r, err := period.MonthRange("2024-2025", 1)
	require.NoError(t, err)
	return r
}

func TestGSTR1_SplitsIntraStateTaxEvenly(t *testing.T) {
	// GIVEN an intra-state B2B invoice taxed at 18%
	ctx := context.Background()
	source := records.NewMemorySource()
	source.AddInvoices(records.Invoice{
		ID: "inv-1", Org: testOrg, Number: "INV-001", Date: day("2024-04-10"),
		CustomerName: "Mehta Traders", CustomerGSTIN: "29AABCM9100C1ZK",
		TaxableValue: amt("10000.00"), TaxAmount: amt("1800.00"), Total: amt("11800.00"),
	})
	c := statutory.NewCompiler(source)

	// WHEN compiling GSTR-1 for April
	rows, err := c.GSTR1(ctx, testOrg, april2024(t))

	// THEN the tax splits evenly into CGST and SGST with no IGST
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, statutory.FormGSTR1, rows[0].Form)
	assert.Equal(t, statutory.CategoryB2B, rows[0].Category)
	assert.Equal(t, "900.00", rows[0].CGST.String())
	assert.Equal(t, "900.00", rows[0].SGST.String())
	assert.Equal(t, "0.00", rows[0].IGST.String())
}

func TestGSTR1_OddTaxStillSumsToTotal(t *testing.T) {
	// GIVEN a tax amount that does not halve cleanly
	ctx := context.Background()
	source := records.NewMemorySource()
	source.AddInvoices(records.Invoice{
		ID: "inv-1", Org: testOrg, Number: "INV-001", Date: day("2024-04-10"),
		TaxableValue: amt("1000.00"), TaxAmount: amt("180.01"), Total: amt("1180.01"),
	})
	c := statutory.NewCompiler(source)

	// WHEN compiling GSTR-1
	rows, err := c.GSTR1(ctx, testOrg, april2024(t))

	// THEN the CGST/SGST pair sums back to the original tax exactly
	require.NoError(t, err)
	require.Len(t, rows, 1)
	sum := rows[0].CGST.Add(rows[0].SGST)
	assert.Equal(t, "180.01", sum.String())
}

func TestGSTR1_InterStateGoesToIGST(t *testing.T) {
	// GIVEN an inter-state invoice
	ctx := context.Background()
	source := records.NewMemorySource()
	source.AddInvoices(records.Invoice{
		ID: "inv-1", Org: testOrg, Number: "INV-001", Date: day("2024-04-10"),
		InterState:   true,
		TaxableValue: amt("10000.00"), TaxAmount: amt("1800.00"), Total: amt("11800.00"),
	})
	c := statutory.NewCompiler(source)

	// WHEN compiling GSTR-1
	rows, err := c.GSTR1(ctx, testOrg, april2024(t))

	// THEN the entire tax lands on IGST
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "0.00", rows[0].CGST.String())
	assert.Equal(t, "0.00", rows[0].SGST.String())
	assert.Equal(t, "1800.00", rows[0].IGST.String())
}

func TestGSTR1_ComputesTaxFromRateWhenMissing(t *testing.T) {
	// GIVEN an invoice carrying a GST rate but no tax amount
	ctx := context.Background()
	source := records.NewMemorySource()
	source.AddInvoices(records.Invoice{
		ID: "inv-1", Org: testOrg, Number: "INV-001", Date: day("2024-04-10"),
		GSTRate:      decimal.NewFromInt(18),
		TaxableValue: amt("5000.00"), Total: amt("5900.00"),
	})
	c := statutory.NewCompiler(source)

	// WHEN compiling GSTR-1
	rows, err := c.GSTR1(ctx, testOrg, april2024(t))

	// THEN the tax is derived from the rate: 18% of 5000 split across heads
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "450.00", rows[0].CGST.String())
	assert.Equal(t, "450.00", rows[0].SGST.String())
}

func TestGSTR1_UnregisteredCustomerIsB2C(t *testing.T) {
	// GIVEN an invoice with no customer GSTIN
	ctx := context.Background()
	source := records.NewMemorySource()
	source.AddInvoices(records.Invoice{
		ID: "inv-1", Org: testOrg, Number: "INV-001", Date: day("2024-04-10"),
		CustomerName: "Walk-in",
		TaxableValue: amt("500.00"), TaxAmount: amt("90.00"), Total: amt("590.00"),
	})
	c := statutory.NewCompiler(source)

	// WHEN compiling GSTR-1
	rows, err := c.GSTR1(ctx, testOrg, april2024(t))

	// THEN the row is categorized B2C
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, statutory.CategoryB2C, rows[0].Category)
}

func TestGSTR1_OrderedByInvoiceNumber(t *testing.T) {
	// GIVEN invoices added out of document order
	ctx := context.Background()
	source := records.NewMemorySource()
	source.AddInvoices(
		records.Invoice{ID: "b", Org: testOrg, Number: "INV-002", Date: day("2024-04-12"), TaxableValue: amt("200.00"), TaxAmount: amt("36.00"), Total: amt("236.00")},
		records.Invoice{ID: "a", Org: testOrg, Number: "INV-001", Date: day("2024-04-10"), TaxableValue: amt("100.00"), TaxAmount: amt("18.00"), Total: amt("118.00")},
	)
	c := statutory.NewCompiler(source)

	// WHEN compiling GSTR-1 twice
	first, err := c.GSTR1(ctx, testOrg, april2024(t))
	require.NoError(t, err)
	second, err := c.GSTR1(ctx, testOrg, april2024(t))
	require.NoError(t, err)

	// THEN rows come back sorted by invoice number and the runs agree
	require.Len(t, first, 2)
	assert.Equal(t, "INV-001", first[0].InvoiceNumber)
	assert.Equal(t, "INV-002", first[1].InvoiceNumber)
	assert.Equal(t, first, second)
}

func TestGSTR3B_NetPayableCapsITCAtLiability(t *testing.T) {
	// GIVEN output tax of 1800 and input credit of 2500 on the same head split
	ctx := context.Background()
	source := records.NewMemorySource()
	source.AddInvoices(records.Invoice{
		ID: "inv-1", Org: testOrg, Number: "INV-001", Date: day("2024-04-10"),
		TaxableValue: amt("10000.00"), TaxAmount: amt("1800.00"), Total: amt("11800.00"),
	})
	source.AddBills(records.Bill{
		ID: "bill-1", Org: testOrg, Number: "BILL-001", Date: day("2024-04-15"),
		TaxableValue: amt("14000.00"), TaxAmount: amt("2500.00"), Total: amt("16500.00"),
	})
	c := statutory.NewCompiler(source)

	// WHEN compiling GSTR-3B
	summary, err := c.GSTR3B(ctx, testOrg, april2024(t))

	// THEN net payable floors at zero per head, never negative
	require.NoError(t, err)
	assert.Equal(t, "10000.00", summary.OutwardTaxableValue.String())
	assert.Equal(t, "1800.00", summary.OutputTax.Total().String())
	assert.Equal(t, "2500.00", summary.AvailableITC.Total().String())
	assert.Equal(t, "0.00", summary.NetPayable.Total().String())
}

func TestGSTR3B_PartialITCLeavesRemainder(t *testing.T) {
	// GIVEN output tax of 1800 and input credit of 600
	ctx := context.Background()
	source := records.NewMemorySource()
	source.AddInvoices(records.Invoice{
		ID: "inv-1", Org: testOrg, Number: "INV-001", Date: day("2024-04-10"),
		TaxableValue: amt("10000.00"), TaxAmount: amt("1800.00"), Total: amt("11800.00"),
	})
	source.AddBills(records.Bill{
		ID: "bill-1", Org: testOrg, Number: "BILL-001", Date: day("2024-04-15"),
		TaxableValue: amt("3333.33"), TaxAmount: amt("600.00"), Total: amt("3933.33"),
	})
	c := statutory.NewCompiler(source)

	// WHEN compiling GSTR-3B
	summary, err := c.GSTR3B(ctx, testOrg, april2024(t))

	// THEN the remainder is payable: 900-300 per intra-state head
	require.NoError(t, err)
	assert.Equal(t, "600.00", summary.NetPayable.CGST.String())
	assert.Equal(t, "600.00", summary.NetPayable.SGST.String())
	assert.Equal(t, "1200.00", summary.NetPayable.Total().String())
}

func TestGSTR3B_EmptyRangeYieldsZeroSummary(t *testing.T) {
	// GIVEN no records at all
	ctx := context.Background()
	c := statutory.NewCompiler(records.NewMemorySource())

	// WHEN compiling GSTR-3B
	summary, err := c.GSTR3B(ctx, testOrg, april2024(t))

	// THEN every figure is zero rather than missing
	require.NoError(t, err)
	assert.Equal(t, "0.00", summary.OutwardTaxableValue.String())
	assert.Equal(t, "0.00", summary.OutputTax.Total().String())
	assert.Equal(t, "0.00", summary.NetPayable.Total().String())
}
