/*
Package records defines the raw operational transaction tables that feed the
reconciler, the statutory report compiler, and the compliance audit engine.

PURPOSE:
  These are the sub-ledgers: invoices (receivables), bills (payables), bank
  transactions, and payroll. The GL mirrors each of them through a control
  account; the records themselves are supplied by external collaborators
  (billing, banking, payroll systems) and are read-only here.

SCOPING:
  Every record is keyed by an organization scope and carries a date usable
  for range filtering. All queries are pure range filters - no mutation.
*/
package records

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/keystone/ledger-engine/ledger"
)

// =============================================================================
// INVOICES - Outward supplies (receivables sub-ledger)
// =============================================================================

type InvoiceLine struct {
	Description  string
	HSNCode      string
	Quantity     decimal.Decimal
	Rate         ledger.Amount
	TaxableValue ledger.Amount
}

// Invoice is an outward supply. CustomerGSTIN empty means an unregistered
// (B2C) counterparty. InterState selects IGST over the CGST/SGST split.
type Invoice struct {
	ID            string
	Org           string
	Number        string
	Date          ledger.Date
	CustomerName  string
	CustomerGSTIN string
	InterState    bool
	GSTRate       decimal.Decimal // percent, e.g. 18
	TaxableValue  ledger.Amount
	TaxAmount     ledger.Amount
	Total         ledger.Amount
	AmountPaid    ledger.Amount
	Lines         []InvoiceLine
}

// Outstanding is the unpaid portion of the invoice.
func (inv Invoice) Outstanding() ledger.Amount {
	return inv.Total.Sub(inv.AmountPaid)
}

// IsB2B reports whether the counterparty is GST-registered.
func (inv Invoice) IsB2B() bool { return inv.CustomerGSTIN != "" }

// =============================================================================
// BILLS - Inward supplies (payables sub-ledger)
// =============================================================================

// Bill is an inward supply. TDSSection, when set, marks the payment as
// subject to withholding under that section (e.g. 194C, 194J).
type Bill struct {
	ID           string
	Org          string
	Number       string
	Date         ledger.Date
	VendorName   string
	VendorGSTIN  string
	VendorPAN    string
	InterState   bool
	GSTRate      decimal.Decimal
	TaxableValue ledger.Amount
	TaxAmount    ledger.Amount
	Total        ledger.Amount
	AmountPaid   ledger.Amount
	TDSSection   string
}

func (b Bill) Outstanding() ledger.Amount {
	return b.Total.Sub(b.AmountPaid)
}

// =============================================================================
// BANK TRANSACTIONS
// =============================================================================

type BankTxType string

const (
	BankDeposit    BankTxType = "deposit"
	BankWithdrawal BankTxType = "withdrawal"
)

type BankTransaction struct {
	ID          string
	Org         string
	Date        ledger.Date
	Type        BankTxType
	Description string
	Amount      ledger.Amount // always positive; Type carries the direction
	Category    string
}

// Signed returns the amount with deposits positive and withdrawals negative.
func (t BankTransaction) Signed() ledger.Amount {
	if t.Type == BankWithdrawal {
		return t.Amount.Neg()
	}
	return t.Amount
}

// =============================================================================
// PAYROLL
// =============================================================================

// PayrollRecord is one employee's pay for one month. PeriodMonth is the
// first day of the wage month.
type PayrollRecord struct {
	ID            string
	Org           string
	EmployeeCode  string
	EmployeeName  string
	PAN           string
	UAN           string
	ESINumber     string
	PeriodMonth   ledger.Date
	GrossWages    ledger.Amount
	BasicWages    ledger.Amount
	TaxableSalary ledger.Amount
	NetPay        ledger.Amount
	Paid          bool
}

// =============================================================================
// SOURCE - Read-only range queries over the tables
// =============================================================================

// Source supplies sub-ledger records for a date range. Implementations must
// return records in a stable order (by document number / employee code) so
// report compilation is deterministic.
type Source interface {
	InvoicesInRange(ctx context.Context, org string, from, to ledger.Date) ([]Invoice, error)
	BillsInRange(ctx context.Context, org string, from, to ledger.Date) ([]Bill, error)
	BankTransactionsInRange(ctx context.Context, org string, from, to ledger.Date) ([]BankTransaction, error)
	PayrollInRange(ctx context.Context, org string, from, to ledger.Date) ([]PayrollRecord, error)
}
