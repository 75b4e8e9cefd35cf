// Package store provides in-memory ledger Store implementations for
// tests and development.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/keystone/ledger-engine/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	entries  map[string][]ledger.JournalEntry // keyed by org
	ids      map[ledger.EntryID]bool
	batches  map[string]bool // org + "\x00" + tag
	accounts map[accountKey]ledger.Account
}

type accountKey struct {
	Org  string
	Code ledger.AccountCode
}

func NewMemory() *Memory {
	return &Memory{
		entries:  make(map[string][]ledger.JournalEntry),
		ids:      make(map[ledger.EntryID]bool),
		batches:  make(map[string]bool),
		accounts: make(map[accountKey]ledger.Account),
	}
}

func batchKey(org, tag string) string { return org + "\x00" + tag }

// AppendEntry adds an entry. Append-only.
func (m *Memory) AppendEntry(_ context.Context, entry ledger.JournalEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appendLocked(entry)
}

func (m *Memory) appendLocked(entry ledger.JournalEntry) error {
	if m.ids[entry.ID] {
		return ledger.ErrDuplicateEntry
	}
	if entry.BatchTag != "" && m.batches[batchKey(entry.Org, entry.BatchTag)] {
		return ledger.ErrDuplicateBatch
	}

	list := m.entries[entry.Org]
	// Insert sorted by date, stable on creation order.
	i := sort.Search(len(list), func(i int) bool {
		return list[i].Date.After(entry.Date)
	})
	list = append(list, ledger.JournalEntry{})
	copy(list[i+1:], list[i:])
	list[i] = entry
	m.entries[entry.Org] = list

	m.ids[entry.ID] = true
	if entry.BatchTag != "" {
		m.batches[batchKey(entry.Org, entry.BatchTag)] = true
	}
	return nil
}

func (m *Memory) Entries(_ context.Context, org string, from, to ledger.Date) ([]ledger.JournalEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []ledger.JournalEntry
	for _, e := range m.entries[org] {
		if !from.IsZero() && e.Date.Before(from) {
			continue
		}
		if !to.IsZero() && e.Date.After(to) {
			continue
		}
		result = append(result, e)
	}
	return result, nil
}

func (m *Memory) EntriesByAccount(ctx context.Context, org string, code ledger.AccountCode, from, to ledger.Date) ([]ledger.JournalEntry, error) {
	all, err := m.Entries(ctx, org, from, to)
	if err != nil {
		return nil, err
	}
	var result []ledger.JournalEntry
	for _, e := range all {
		for _, l := range e.Lines {
			if l.AccountCode == code {
				result = append(result, e)
				break
			}
		}
	}
	return result, nil
}

func (m *Memory) HasBatchTag(_ context.Context, org, tag string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.batches[batchKey(org, tag)], nil
}

// =============================================================================
// ACCOUNT STORE
// =============================================================================

func (m *Memory) SaveAccount(_ context.Context, org string, account ledger.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := accountKey{Org: org, Code: account.Code}
	if _, exists := m.accounts[k]; exists {
		// Immutable once referenced by a posted line.
		if m.referencedLocked(org, account.Code) {
			return ledger.ErrImmutableAccount
		}
	}
	m.accounts[k] = account
	return nil
}

func (m *Memory) GetAccount(_ context.Context, org string, code ledger.AccountCode) (*ledger.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	account, ok := m.accounts[accountKey{Org: org, Code: code}]
	if !ok {
		return nil, nil
	}
	return &account, nil
}

func (m *Memory) ListAccounts(_ context.Context, org string) ([]ledger.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []ledger.Account
	for k, a := range m.accounts {
		if k.Org == org {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

func (m *Memory) AccountReferenced(_ context.Context, org string, code ledger.AccountCode) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.referencedLocked(org, code), nil
}

func (m *Memory) referencedLocked(org string, code ledger.AccountCode) bool {
	for _, e := range m.entries[org] {
		for _, l := range e.Lines {
			if l.AccountCode == code {
				return true
			}
		}
	}
	return false
}

// =============================================================================
// TRANSACTIONAL STORE
// =============================================================================

// WithTx executes fn with snapshot semantics: on error all writes made
// through the transactional view are rolled back.
func (m *Memory) WithTx(ctx context.Context, fn func(ledger.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.snapshotLocked()
	if err := fn(&txView{parent: m}); err != nil {
		m.restoreLocked(snapshot)
		return err
	}
	return nil
}

type memorySnapshot struct {
	entries map[string][]ledger.JournalEntry
	ids     map[ledger.EntryID]bool
	batches map[string]bool
}

func (m *Memory) snapshotLocked() memorySnapshot {
	entries := make(map[string][]ledger.JournalEntry, len(m.entries))
	for k, v := range m.entries {
		entries[k] = append([]ledger.JournalEntry{}, v...)
	}
	ids := make(map[ledger.EntryID]bool, len(m.ids))
	for k, v := range m.ids {
		ids[k] = v
	}
	batches := make(map[string]bool, len(m.batches))
	for k, v := range m.batches {
		batches[k] = v
	}
	return memorySnapshot{entries: entries, ids: ids, batches: batches}
}

func (m *Memory) restoreLocked(s memorySnapshot) {
	m.entries = s.entries
	m.ids = s.ids
	m.batches = s.batches
}

// txView writes directly into the parent while it holds the lock; the
// snapshot taken in WithTx provides rollback.
type txView struct {
	parent *Memory
}

func (tv *txView) AppendEntry(_ context.Context, entry ledger.JournalEntry) error {
	return tv.parent.appendLocked(entry)
}

func (tv *txView) Entries(_ context.Context, org string, from, to ledger.Date) ([]ledger.JournalEntry, error) {
	var result []ledger.JournalEntry
	for _, e := range tv.parent.entries[org] {
		if !from.IsZero() && e.Date.Before(from) {
			continue
		}
		if !to.IsZero() && e.Date.After(to) {
			continue
		}
		result = append(result, e)
	}
	return result, nil
}

func (tv *txView) EntriesByAccount(ctx context.Context, org string, code ledger.AccountCode, from, to ledger.Date) ([]ledger.JournalEntry, error) {
	all, err := tv.Entries(ctx, org, from, to)
	if err != nil {
		return nil, err
	}
	var result []ledger.JournalEntry
	for _, e := range all {
		for _, l := range e.Lines {
			if l.AccountCode == code {
				result = append(result, e)
				break
			}
		}
	}
	return result, nil
}

func (tv *txView) HasBatchTag(_ context.Context, org, tag string) (bool, error) {
	return tv.parent.batches[batchKey(org, tag)], nil
}
