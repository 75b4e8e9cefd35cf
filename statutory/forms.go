/*
Package statutory compiles raw transaction records into filing-ready rows
for Indian regulatory forms.

PURPOSE:
  Each compiler method is a pure function of the underlying sub-ledger
  records for a resolved date range: no mutation, deterministic ordering,
  and re-running against unchanged data yields identical rows. The rows are
  the shapes the government portals expect; the actual upload file is
  produced by an export collaborator, not here.

FORMS:
  GSTR-1   per-invoice outward supply rows (B2B/B2C, CGST/SGST/IGST split)
  GSTR-3B  single aggregate summary per range with net payable per head
  TDS 24Q  per-employee salary withholding rows
  TDS 26Q  per-deductee non-salary withholding rows
  PF ECR   per-employee provident fund contribution rows
  ESI      per-employee insurance contribution rows (wage-ceiling gated)
  PT       per-employee professional tax rows (slab table)
*/
package statutory

import (
	"github.com/keystone/ledger-engine/ledger"
	"github.com/keystone/ledger-engine/period"
)

// Form discriminates the statutory row union. Every row type carries its
// Form so mixed-form collections stay type-checkable.
type Form string

const (
	FormGSTR1  Form = "gstr1"
	FormGSTR3B Form = "gstr3b"
	FormTDS24Q Form = "tds24q"
	FormTDS26Q Form = "tds26q"
	FormPFECR  Form = "pf_ecr"
	FormESI    Form = "esi"
	FormPT     Form = "pt"
)

// =============================================================================
// GST ROWS
// =============================================================================

// GSTCategory tags an outward supply by counterparty registration status.
type GSTCategory string

const (
	CategoryB2B GSTCategory = "B2B"
	CategoryB2C GSTCategory = "B2C"
)

// GSTR1Row is one outward invoice line of a GSTR-1 return.
type GSTR1Row struct {
	Form          Form
	InvoiceNumber string
	InvoiceDate   ledger.Date
	CustomerName  string
	CustomerGSTIN string
	Category      GSTCategory
	TaxableValue  ledger.Amount
	CGST          ledger.Amount
	SGST          ledger.Amount
	IGST          ledger.Amount
	InvoiceTotal  ledger.Amount
}

// TaxHeads carries a per-head (CGST/SGST/IGST) amount split.
type TaxHeads struct {
	CGST ledger.Amount
	SGST ledger.Amount
	IGST ledger.Amount
}

func zeroHeads() TaxHeads {
	return TaxHeads{CGST: ledger.ZeroAmount(), SGST: ledger.ZeroAmount(), IGST: ledger.ZeroAmount()}
}

func (h TaxHeads) Add(o TaxHeads) TaxHeads {
	return TaxHeads{CGST: h.CGST.Add(o.CGST), SGST: h.SGST.Add(o.SGST), IGST: h.IGST.Add(o.IGST)}
}

func (h TaxHeads) Total() ledger.Amount {
	return h.CGST.Add(h.SGST).Add(h.IGST)
}

// GSTR3BSummary is the single aggregate summary for a range. Net payable per
// head is tax_payable - min(tax_payable, available_itc): input credit never
// produces a negative net liability.
type GSTR3BSummary struct {
	Form                Form
	Range               period.Range
	OutwardTaxableValue ledger.Amount
	OutputTax           TaxHeads
	AvailableITC        TaxHeads
	NetPayable          TaxHeads
}

// =============================================================================
// TDS ROWS
// =============================================================================

// TDSRow is one deductee row of a 24Q (salary) or 26Q (non-salary) return.
// Cess is a fixed percentage of the base TDS, not compounded on itself.
type TDSRow struct {
	Form          Form
	DeducteeName  string
	PAN           string
	Section       string
	TaxableAmount ledger.Amount
	TDS           ledger.Amount
	Cess          ledger.Amount
	TotalDeducted ledger.Amount
}

// =============================================================================
// PAYROLL CONTRIBUTION ROWS
// =============================================================================

// PFRow is one employee line of a PF ECR upload.
type PFRow struct {
	Form         Form
	UAN          string
	EmployeeName string
	GrossWages   ledger.Amount
	EPFWages     ledger.Amount // PF wage base (basic, ceiling-capped for EPS)
	EmployeeEPF  ledger.Amount
	EmployerEPS  ledger.Amount
	EmployerEPF  ledger.Amount
}

// ESIRow is one employee line of an ESI contribution return. Employees above
// the wage ceiling are excluded from the return entirely, not zero-valued.
type ESIRow struct {
	Form          Form
	ESINumber     string
	EmployeeName  string
	GrossWages    ledger.Amount
	EmployeeShare ledger.Amount
	EmployerShare ledger.Amount
}

// PTRow is one employee line of a professional tax return.
type PTRow struct {
	Form         Form
	EmployeeCode string
	EmployeeName string
	GrossWages   ledger.Amount
	Tax          ledger.Amount
}
