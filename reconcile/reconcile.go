/*
Package reconcile compares GL control-account balances against the
independently-aggregated totals of each operational sub-ledger.

PURPOSE:
  Under correct double posting the Accounts Receivable control balance
  equals the sum of outstanding invoices, the bank control equals the net
  of bank transactions, and so on. A non-zero variance means a sub-ledger
  posting was missed or someone adjusted the GL out of band. Variances are
  SURFACED, never auto-corrected - finance staff resolve them out of band.

HISTORY:
  Every run writes a fresh Record per module. Records are append-only, so
  drift over time stays auditable. A snapshot is point-in-time by
  definition; postings racing the run simply make the next run differ.
*/
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/keystone/ledger-engine/ledger"
	"github.com/keystone/ledger-engine/records"
)

// =============================================================================
// MODULES AND RECORDS
// =============================================================================

type Module string

const (
	ModuleBank        Module = "bank"
	ModuleReceivables Module = "receivables"
	ModulePayables    Module = "payables"
	ModulePayroll     Module = "payroll"
)

// AllModules lists the reconcilable sub-ledgers in reporting order.
var AllModules = []Module{ModuleBank, ModuleReceivables, ModulePayables, ModulePayroll}

// Record is one module's reconciliation snapshot. Recreated, not updated,
// on each run.
type Record struct {
	ID               string
	Org              string
	Module           Module
	AsOf             ledger.Date
	GLBalance        ledger.Amount
	SubledgerBalance ledger.Amount
	Variance         ledger.Amount // GLBalance - SubledgerBalance
	IsReconciled     bool
	ComputedAt       time.Time
}

// RecordStore persists reconciliation history. Append-only.
type RecordStore interface {
	AppendRecord(ctx context.Context, r Record) error
	ListRecords(ctx context.Context, org string, module Module, limit int) ([]Record, error)
}

// =============================================================================
// RECONCILER
// =============================================================================

type Reconciler struct {
	Ledger *ledger.Ledger
	Source records.Source
	Store  RecordStore

	// Controls maps each module to its GL control account. Defaults to the
	// control accounts of the default chart.
	Controls map[Module]ledger.AccountCode

	// Tolerance below which a variance still counts as reconciled.
	// Default zero: exact match expected under correct double posting.
	Tolerance ledger.Amount
}

func New(l *ledger.Ledger, source records.Source, store RecordStore) *Reconciler {
	return &Reconciler{
		Ledger: l,
		Source: source,
		Store:  store,
		Controls: map[Module]ledger.AccountCode{
			ModuleBank:        ledger.AcctBank,
			ModuleReceivables: ledger.AcctReceivables,
			ModulePayables:    ledger.AcctPayables,
			ModulePayroll:     ledger.AcctPayrollPayable,
		},
		Tolerance: ledger.ZeroAmount(),
	}
}

// Reconcile computes a fresh snapshot for each module as of the date and
// appends it to history. Variance is never an error.
func (r *Reconciler) Reconcile(ctx context.Context, org string, asOf ledger.Date, modules ...Module) ([]Record, error) {
	if len(modules) == 0 {
		modules = AllModules
	}

	results := make([]Record, 0, len(modules))
	for _, module := range modules {
		control, ok := r.Controls[module]
		if !ok {
			return nil, fmt.Errorf("no control account configured for module %q", module)
		}

		glBalance, err := r.Ledger.AccountBalance(ctx, org, control, asOf)
		if err != nil {
			return nil, fmt.Errorf("module %s: gl balance: %w", module, err)
		}

		subBalance, err := r.subledgerBalance(ctx, org, module, asOf)
		if err != nil {
			return nil, fmt.Errorf("module %s: subledger balance: %w", module, err)
		}

		variance := glBalance.Sub(subBalance)
		record := Record{
			ID:               uuid.NewString(),
			Org:              org,
			Module:           module,
			AsOf:             asOf,
			GLBalance:        glBalance,
			SubledgerBalance: subBalance,
			Variance:         variance,
			IsReconciled:     variance.Abs().LessThanOrEqual(r.Tolerance),
			ComputedAt:       time.Now().UTC(),
		}
		if err := r.Store.AppendRecord(ctx, record); err != nil {
			return nil, err
		}
		results = append(results, record)
	}
	return results, nil
}

// subledgerBalance aggregates the module's own transaction set, independent
// of the GL.
func (r *Reconciler) subledgerBalance(ctx context.Context, org string, module Module, asOf ledger.Date) (ledger.Amount, error) {
	total := ledger.ZeroAmount()
	switch module {
	case ModuleBank:
		txs, err := r.Source.BankTransactionsInRange(ctx, org, ledger.Date{}, asOf)
		if err != nil {
			return ledger.Amount{}, err
		}
		for _, t := range txs {
			total = total.Add(t.Signed())
		}

	case ModuleReceivables:
		invoices, err := r.Source.InvoicesInRange(ctx, org, ledger.Date{}, asOf)
		if err != nil {
			return ledger.Amount{}, err
		}
		for _, inv := range invoices {
			total = total.Add(inv.Outstanding())
		}

	case ModulePayables:
		bills, err := r.Source.BillsInRange(ctx, org, ledger.Date{}, asOf)
		if err != nil {
			return ledger.Amount{}, err
		}
		for _, b := range bills {
			total = total.Add(b.Outstanding())
		}

	case ModulePayroll:
		recs, err := r.Source.PayrollInRange(ctx, org, ledger.Date{}, asOf)
		if err != nil {
			return ledger.Amount{}, err
		}
		for _, rec := range recs {
			if !rec.Paid {
				total = total.Add(rec.NetPay)
			}
		}

	default:
		return ledger.Amount{}, fmt.Errorf("unknown module %q", module)
	}
	return total, nil
}

// MemoryRecordStore is an in-memory RecordStore for tests.
type MemoryRecordStore struct {
	records []Record
}

func NewMemoryRecordStore() *MemoryRecordStore { return &MemoryRecordStore{} }

func (m *MemoryRecordStore) AppendRecord(_ context.Context, r Record) error {
	m.records = append(m.records, r)
	return nil
}

func (m *MemoryRecordStore) ListRecords(_ context.Context, org string, module Module, limit int) ([]Record, error) {
	var result []Record
	for i := len(m.records) - 1; i >= 0; i-- {
		r := m.records[i]
		if r.Org != org {
			continue
		}
		if module != "" && r.Module != module {
			continue
		}
		result = append(result, r)
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}
