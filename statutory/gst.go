package statutory

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/keystone/ledger-engine/ledger"
	"github.com/keystone/ledger-engine/period"
	"github.com/keystone/ledger-engine/records"
)

// Compiler turns sub-ledger records into statutory report rows. All methods
// are read-only and deterministic; empty ranges yield empty row sets.
type Compiler struct {
	Source records.Source
	Rates  Rates
}

func NewCompiler(source records.Source) *Compiler {
	return &Compiler{Source: source, Rates: DefaultRates()}
}

// splitTax apportions an invoice's tax across heads: intra-state supplies
// split evenly into CGST/SGST, inter-state goes entirely to IGST. The
// CGST+SGST pair is computed as (half, tax-half) so the split always sums
// back to the original tax after rounding.
func splitTax(tax ledger.Amount, interState bool) TaxHeads {
	heads := zeroHeads()
	if interState {
		heads.IGST = tax
		return heads
	}
	half := tax.Mul(decimal.NewFromFloat(0.5)).Round()
	heads.CGST = half
	heads.SGST = tax.Sub(half)
	return heads
}

// invoiceTax returns the invoice's tax amount, computing it from the rate
// when the source did not carry one.
func invoiceTax(taxable ledger.Amount, tax ledger.Amount, rate decimal.Decimal) ledger.Amount {
	if !tax.IsZero() {
		return tax
	}
	return pct(taxable, rate)
}

// GSTR1 compiles one row per outward invoice in the range, tagged B2B/B2C by
// counterparty registration status.
func (c *Compiler) GSTR1(ctx context.Context, org string, r period.Range) ([]GSTR1Row, error) {
	invoices, err := c.Source.InvoicesInRange(ctx, org, r.From, r.To)
	if err != nil {
		return nil, err
	}

	rows := make([]GSTR1Row, 0, len(invoices))
	for _, inv := range invoices {
		tax := invoiceTax(inv.TaxableValue, inv.TaxAmount, inv.GSTRate)
		heads := splitTax(tax, inv.InterState)

		category := CategoryB2C
		if inv.IsB2B() {
			category = CategoryB2B
		}
		rows = append(rows, GSTR1Row{
			Form:          FormGSTR1,
			InvoiceNumber: inv.Number,
			InvoiceDate:   inv.Date,
			CustomerName:  inv.CustomerName,
			CustomerGSTIN: inv.CustomerGSTIN,
			Category:      category,
			TaxableValue:  inv.TaxableValue,
			CGST:          heads.CGST,
			SGST:          heads.SGST,
			IGST:          heads.IGST,
			InvoiceTotal:  inv.Total,
		})
	}
	return rows, nil
}

// GSTR3B compiles the single aggregate summary for the range: outward
// taxable value, output tax by head, available input tax credit by head, and
// net payable per head = tax_payable - min(tax_payable, available_itc).
// Unconsumed ITC carries no visible carry-forward in this summary.
func (c *Compiler) GSTR3B(ctx context.Context, org string, r period.Range) (GSTR3BSummary, error) {
	summary := GSTR3BSummary{
		Form:                FormGSTR3B,
		Range:               r,
		OutwardTaxableValue: ledger.ZeroAmount(),
		OutputTax:           zeroHeads(),
		AvailableITC:        zeroHeads(),
		NetPayable:          zeroHeads(),
	}

	invoices, err := c.Source.InvoicesInRange(ctx, org, r.From, r.To)
	if err != nil {
		return GSTR3BSummary{}, err
	}
	for _, inv := range invoices {
		tax := invoiceTax(inv.TaxableValue, inv.TaxAmount, inv.GSTRate)
		summary.OutwardTaxableValue = summary.OutwardTaxableValue.Add(inv.TaxableValue)
		summary.OutputTax = summary.OutputTax.Add(splitTax(tax, inv.InterState))
	}

	bills, err := c.Source.BillsInRange(ctx, org, r.From, r.To)
	if err != nil {
		return GSTR3BSummary{}, err
	}
	for _, b := range bills {
		tax := invoiceTax(b.TaxableValue, b.TaxAmount, b.GSTRate)
		summary.AvailableITC = summary.AvailableITC.Add(splitTax(tax, b.InterState))
	}

	summary.NetPayable = TaxHeads{
		CGST: netPayable(summary.OutputTax.CGST, summary.AvailableITC.CGST),
		SGST: netPayable(summary.OutputTax.SGST, summary.AvailableITC.SGST),
		IGST: netPayable(summary.OutputTax.IGST, summary.AvailableITC.IGST),
	}
	return summary, nil
}

func netPayable(tax, itc ledger.Amount) ledger.Amount {
	credit := itc
	if tax.LessThan(credit) {
		credit = tax
	}
	return tax.Sub(credit)
}
