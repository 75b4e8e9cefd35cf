package records

import (
	"context"
	"sort"
	"sync"

	"github.com/keystone/ledger-engine/ledger"
)

// MemorySource is an in-memory Source for tests and development.
type MemorySource struct {
	mu       sync.RWMutex
	invoices []Invoice
	bills    []Bill
	bankTxs  []BankTransaction
	payroll  []PayrollRecord
}

func NewMemorySource() *MemorySource { return &MemorySource{} }

func (m *MemorySource) AddInvoices(invs ...Invoice) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invoices = append(m.invoices, invs...)
}

func (m *MemorySource) AddBills(bills ...Bill) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bills = append(m.bills, bills...)
}

func (m *MemorySource) AddBankTransactions(txs ...BankTransaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bankTxs = append(m.bankTxs, txs...)
}

func (m *MemorySource) AddPayroll(recs ...PayrollRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payroll = append(m.payroll, recs...)
}

func inRange(d, from, to ledger.Date) bool {
	if !from.IsZero() && d.Before(from) {
		return false
	}
	if !to.IsZero() && d.After(to) {
		return false
	}
	return true
}

func (m *MemorySource) InvoicesInRange(_ context.Context, org string, from, to ledger.Date) ([]Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []Invoice
	for _, inv := range m.invoices {
		if inv.Org == org && inRange(inv.Date, from, to) {
			result = append(result, inv)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Number < result[j].Number })
	return result, nil
}

func (m *MemorySource) BillsInRange(_ context.Context, org string, from, to ledger.Date) ([]Bill, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []Bill
	for _, b := range m.bills {
		if b.Org == org && inRange(b.Date, from, to) {
			result = append(result, b)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Number < result[j].Number })
	return result, nil
}

func (m *MemorySource) BankTransactionsInRange(_ context.Context, org string, from, to ledger.Date) ([]BankTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []BankTransaction
	for _, t := range m.bankTxs {
		if t.Org == org && inRange(t.Date, from, to) {
			result = append(result, t)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (m *MemorySource) PayrollInRange(_ context.Context, org string, from, to ledger.Date) ([]PayrollRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []PayrollRecord
	for _, r := range m.payroll {
		if r.Org == org && inRange(r.PeriodMonth, from, to) {
			result = append(result, r)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].PeriodMonth.Equal(result[j].PeriodMonth) {
			return result[i].PeriodMonth.Before(result[j].PeriodMonth)
		}
		return result[i].EmployeeCode < result[j].EmployeeCode
	})
	return result, nil
}
