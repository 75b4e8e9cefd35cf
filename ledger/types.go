/*
Package ledger provides the double-entry general ledger core.

PURPOSE:
  This package contains the domain types and algorithms shared by every
  other component: monetary amounts, the chart of accounts, journal
  entries, and trial-balance aggregation. Reconciliation, period close,
  statutory reporting, and compliance audits are all built on top of it.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: A monetary quantity at 2-decimal currency precision
  - Date: A day-granularity point in time (ledger entries are dated, not timed)
  - Account: A chart-of-accounts node, optionally a sub-ledger control account
  - JournalEntry / JournalLine: The immutable unit of posting

DESIGN PRINCIPLES:
  1. Immutability: Posted entries are never modified, only reversed
  2. Precision: Uses decimal.Decimal to avoid floating-point errors
  3. Double entry: Every entry balances; every line has exactly one side
  4. Auditability: Entries carry source, reference, and batch tags

SEE ALSO:
  - entry.go: Posting and validation
  - trial_balance.go: Balance aggregation with the accounting identity check
  - store.go: Persistence interfaces
*/
package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Monetary quantity at currency precision
// =============================================================================

// Precision is the currency precision (decimal places) for posted amounts.
const Precision = 2

type Amount struct {
	Value decimal.Decimal
}

func NewAmount(value float64) Amount {
	return Amount{Value: decimal.NewFromFloat(value).Round(Precision)}
}

func NewAmountFromInt(value int64) Amount {
	return Amount{Value: decimal.NewFromInt(value)}
}

func ZeroAmount() Amount { return Amount{Value: decimal.Zero} }

// ParseAmount parses a decimal string at currency precision. The empty
// string parses to zero so optional fields round-trip cleanly.
func ParseAmount(s string) (Amount, error) {
	if s == "" {
		return ZeroAmount(), nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return Amount{Value: d.Round(Precision)}, nil
}

// MustParseAmount is ParseAmount for values the engine wrote itself (store
// scans); malformed input degrades to zero. External input goes through
// ParseAmount so typos surface as errors.
func MustParseAmount(s string) Amount {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return ZeroAmount()
	}
	return Amount{Value: d.Round(Precision)}
}

func (a Amount) Add(b Amount) Amount          { return Amount{Value: a.Value.Add(b.Value)} }
func (a Amount) Sub(b Amount) Amount          { return Amount{Value: a.Value.Sub(b.Value)} }
func (a Amount) Mul(s decimal.Decimal) Amount { return Amount{Value: a.Value.Mul(s)} }
func (a Amount) Neg() Amount                  { return Amount{Value: a.Value.Neg()} }
func (a Amount) Abs() Amount                  { return Amount{Value: a.Value.Abs()} }
func (a Amount) Round() Amount                { return Amount{Value: a.Value.Round(Precision)} }
func (a Amount) IsZero() bool                 { return a.Value.IsZero() }
func (a Amount) IsNegative() bool             { return a.Value.IsNegative() }
func (a Amount) IsPositive() bool             { return a.Value.IsPositive() }
func (a Amount) Equal(b Amount) bool          { return a.Value.Equal(b.Value) }
func (a Amount) GreaterThan(b Amount) bool    { return a.Value.GreaterThan(b.Value) }
func (a Amount) LessThan(b Amount) bool       { return a.Value.LessThan(b.Value) }
func (a Amount) LessThanOrEqual(b Amount) bool {
	return a.Value.LessThanOrEqual(b.Value)
}
func (a Amount) String() string { return a.Value.StringFixed(Precision) }

// =============================================================================
// DATE - Day-granularity time point
// =============================================================================

// Date is a calendar day in UTC. Every ledger operation is dated, not timed:
// two entries on the same day are ordered by creation, not by clock.
type Date struct {
	Time time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func Today() Date { return DateOf(time.Now().UTC()) }

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

func (d Date) normalize() time.Time {
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
}

func (d Date) Before(other Date) bool { return d.normalize().Before(other.normalize()) }
func (d Date) After(other Date) bool  { return d.normalize().After(other.normalize()) }
func (d Date) Equal(other Date) bool  { return d.normalize().Equal(other.normalize()) }
func (d Date) BeforeOrEqual(other Date) bool {
	return d.Before(other) || d.Equal(other)
}
func (d Date) AfterOrEqual(other Date) bool {
	return d.After(other) || d.Equal(other)
}

func (d Date) AddDays(n int) Date   { return Date{Time: d.Time.AddDate(0, 0, n)} }
func (d Date) AddMonths(n int) Date { return Date{Time: d.Time.AddDate(0, n, 0)} }
func (d Date) AddYears(n int) Date  { return Date{Time: d.Time.AddDate(n, 0, 0)} }

func (d Date) Year() int         { return d.Time.Year() }
func (d Date) Month() time.Month { return d.Time.Month() }
func (d Date) Day() int          { return d.Time.Day() }
func (d Date) IsZero() bool      { return d.Time.IsZero() }

func (d Date) String() string { return d.normalize().Format("2006-01-02") }

// EndOfMonth returns the last day of the month containing d.
func (d Date) EndOfMonth() Date {
	t := time.Date(d.Year(), d.Month()+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	return Date{Time: t}
}

// =============================================================================
// ACCOUNT - Chart-of-accounts node
// =============================================================================

type AccountCode string

type AccountType string

const (
	AccountAsset     AccountType = "asset"
	AccountLiability AccountType = "liability"
	AccountEquity    AccountType = "equity"
	AccountRevenue   AccountType = "revenue"
	AccountExpense   AccountType = "expense"
)

// Account is a node in the chart of accounts. An account that has been
// referenced by a posted entry is immutable: code, type, and control linkage
// cannot change once money has moved through it.
type Account struct {
	Code AccountCode
	Name string
	Type AccountType

	// IsControlAccount marks the account as the GL mirror of exactly one
	// operational sub-ledger (bank, receivables, payables, payroll).
	IsControlAccount bool
	ControlModule    string
}

// NormalSide returns which side increases the account under the usual
// debit/credit conventions.
func (t AccountType) NormalSide() Side {
	switch t {
	case AccountAsset, AccountExpense:
		return SideDebit
	default:
		return SideCredit
	}
}

type Side string

const (
	SideDebit  Side = "debit"
	SideCredit Side = "credit"
)

// =============================================================================
// JOURNAL ENTRY - Immutable unit of posting
// =============================================================================

type EntryID string

type EntrySource string

const (
	SourceManual EntrySource = "manual"
	SourceSystem EntrySource = "system"
)

// JournalLine is a single account movement. Exactly one of Debit/Credit is
// non-zero; this is validated at posting time.
type JournalLine struct {
	AccountCode AccountCode
	Debit       Amount
	Credit      Amount
}

// JournalEntry is the immutable unit of posting. Once stored it is never
// updated or deleted; corrections are reversing entries.
type JournalEntry struct {
	ID       EntryID
	Org      string
	Date     Date
	Source   EntrySource
	Memo     string
	RefType  string // originating document type: invoice, bill, payroll, ...
	RefID    string
	BatchTag string // uniqueness tag for system batches (e.g. depreciation runs)
	Lines    []JournalLine

	CreatedAt time.Time
}

// DebitLine builds a line debiting the account.
func DebitLine(code AccountCode, amount Amount) JournalLine {
	return JournalLine{AccountCode: code, Debit: amount.Round(), Credit: ZeroAmount()}
}

// CreditLine builds a line crediting the account.
func CreditLine(code AccountCode, amount Amount) JournalLine {
	return JournalLine{AccountCode: code, Debit: ZeroAmount(), Credit: amount.Round()}
}

// TotalDebits sums the debit side of the entry.
func (e JournalEntry) TotalDebits() Amount {
	total := ZeroAmount()
	for _, l := range e.Lines {
		total = total.Add(l.Debit)
	}
	return total
}

// TotalCredits sums the credit side of the entry.
func (e JournalEntry) TotalCredits() Amount {
	total := ZeroAmount()
	for _, l := range e.Lines {
		total = total.Add(l.Credit)
	}
	return total
}
