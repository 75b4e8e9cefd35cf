package period

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/keystone/ledger-engine/ledger"
)

// MemoryStore is an in-memory period and asset store for tests.
type MemoryStore struct {
	mu      sync.RWMutex
	periods map[string]FiscalPeriod // keyed by org+"\x00"+id
	assets  map[string][]Asset      // keyed by org
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		periods: make(map[string]FiscalPeriod),
		assets:  make(map[string][]Asset),
	}
}

func periodKey(org, id string) string { return org + "\x00" + id }

func (m *MemoryStore) SavePeriod(_ context.Context, p FiscalPeriod) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.periods[periodKey(p.Org, p.ID)] = p
	return nil
}

func (m *MemoryStore) GetPeriod(_ context.Context, org, id string) (*FiscalPeriod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.periods[periodKey(org, id)]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *MemoryStore) PeriodFor(_ context.Context, org string, d ledger.Date) (*FiscalPeriod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.periods {
		if p.Org == org && p.Contains(d) {
			found := p
			return &found, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) ListPeriods(_ context.Context, org string) ([]FiscalPeriod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []FiscalPeriod
	for _, p := range m.periods {
		if p.Org == org {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Start.Before(result[j].Start) })
	return result, nil
}

func (m *MemoryStore) MarkClosed(_ context.Context, org, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.periods[periodKey(org, id)]
	if !ok {
		return ErrPeriodNotFound
	}
	if p.Status == StatusClosed {
		return ErrAlreadyClosed
	}
	p.Status = StatusClosed
	p.ClosedAt = &at
	m.periods[periodKey(org, id)] = p
	return nil
}

func (m *MemoryStore) SaveAsset(_ context.Context, a Asset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assets[a.Org] = append(m.assets[a.Org], a)
	return nil
}

func (m *MemoryStore) ListAssets(_ context.Context, org string) ([]Asset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]Asset, len(m.assets[org]))
	copy(result, m.assets[org])
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}
