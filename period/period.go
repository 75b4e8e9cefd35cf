/*
Package period manages the fiscal-period lifecycle and the depreciation batch.

PURPOSE:
  Fiscal periods partition the calendar into contiguous, non-overlapping
  month slices; exactly one period covers any date. A period moves
  open -> closed exactly once. Closing snapshots the trial balance, runs
  the depreciation batch for the period end (idempotently), and locks the
  period against further postings.

STATE MACHINE:
  open -> closed   (terminal; reopening is an administrative override this
                    package does not provide)

SERIALIZATION:
  A close in progress must block postings into the same period. The store's
  transactional close flips status and verifies the period is still open
  inside the same transaction; the ledger's PeriodGuard rejects postings
  once the flip is visible.
*/
package period

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/keystone/ledger-engine/ledger"
)

// =============================================================================
// FISCAL PERIOD
// =============================================================================

type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

type FiscalPeriod struct {
	ID     string
	Org    string
	Name   string // e.g. "Apr 2024"
	Start  ledger.Date
	End    ledger.Date
	Status Status

	ClosedAt *time.Time
}

func (p FiscalPeriod) Contains(d ledger.Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

func (p FiscalPeriod) IsClosed() bool { return p.Status == StatusClosed }

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrPeriodNotFound is returned by operations on a named period when
	// no period has that ID.
	ErrPeriodNotFound = errors.New("fiscal period not found")

	// ErrPeriodOverlap is returned when creating a period that overlaps an
	// existing one. Periods must be contiguous and non-overlapping.
	ErrPeriodOverlap = errors.New("fiscal period overlaps an existing period")

	// ErrAlreadyClosed is returned when closing a closed period.
	ErrAlreadyClosed = errors.New("fiscal period already closed")
)

// =============================================================================
// STORE
// =============================================================================

type Store interface {
	SavePeriod(ctx context.Context, p FiscalPeriod) error

	// GetPeriod and PeriodFor return (nil, nil) when no period matches;
	// ErrPeriodNotFound is reserved for operations on a named period.
	GetPeriod(ctx context.Context, org, id string) (*FiscalPeriod, error)
	PeriodFor(ctx context.Context, org string, d ledger.Date) (*FiscalPeriod, error)

	ListPeriods(ctx context.Context, org string) ([]FiscalPeriod, error)

	// MarkClosed flips open -> closed atomically. Fails with ErrAlreadyClosed
	// if the period is not open at commit time; this is what serializes a
	// close against concurrent closes.
	MarkClosed(ctx context.Context, org, id string, at time.Time) error
}

// AssetStore persists depreciable assets.
type AssetStore interface {
	SaveAsset(ctx context.Context, a Asset) error
	ListAssets(ctx context.Context, org string) ([]Asset, error)
}

// =============================================================================
// MANAGER
// =============================================================================

// Manager owns the fiscal-period lifecycle. It implements ledger.PeriodGuard
// so the posting path consults the same state the close path mutates.
type Manager struct {
	Store  Store
	Assets AssetStore
	Ledger *ledger.Ledger
}

func NewManager(store Store, assets AssetStore, l *ledger.Ledger) *Manager {
	return &Manager{Store: store, Assets: assets, Ledger: l}
}

// ClosedPeriodName implements ledger.PeriodGuard. Dates not covered by any
// period are postable; only an explicitly closed period blocks.
func (m *Manager) ClosedPeriodName(ctx context.Context, org string, d ledger.Date) (string, error) {
	p, err := m.Store.PeriodFor(ctx, org, d)
	if err != nil {
		return "", err
	}
	if p != nil && p.IsClosed() {
		return p.Name, nil
	}
	return "", nil
}

// CreatePeriod registers a new open period after checking it does not
// overlap an existing one.
func (m *Manager) CreatePeriod(ctx context.Context, p FiscalPeriod) error {
	if p.End.Before(p.Start) {
		return fmt.Errorf("period %q: end before start", p.Name)
	}
	existing, err := m.Store.ListPeriods(ctx, p.Org)
	if err != nil {
		return err
	}
	for _, other := range existing {
		if p.Start.BeforeOrEqual(other.End) && other.Start.BeforeOrEqual(p.End) {
			return fmt.Errorf("%w: %q overlaps %q", ErrPeriodOverlap, p.Name, other.Name)
		}
	}
	p.Status = StatusOpen
	return m.Store.SavePeriod(ctx, p)
}

// GeneratePeriods creates the twelve monthly periods of a financial year.
// Periods that already exist (by overlap) are skipped.
func (m *Manager) GeneratePeriods(ctx context.Context, org, fyLabel string) ([]FiscalPeriod, error) {
	fy, err := FinancialYearRange(fyLabel)
	if err != nil {
		return nil, err
	}
	var created []FiscalPeriod
	for i := 0; i < 12; i++ {
		start := fy.From.AddMonths(i)
		p := FiscalPeriod{
			ID:     fmt.Sprintf("%s-%s", org, start.Time.Format("200601")),
			Org:    org,
			Name:   start.Time.Format("Jan 2006"),
			Start:  start,
			End:    start.EndOfMonth(),
			Status: StatusOpen,
		}
		if err := m.CreatePeriod(ctx, p); err != nil {
			if errors.Is(err, ErrPeriodOverlap) {
				continue
			}
			return nil, err
		}
		created = append(created, p)
	}
	return created, nil
}

// CloseResult reports what a period close did.
type CloseResult struct {
	Period           FiscalPeriod
	TrialBalance     []ledger.TrialBalanceRow
	DepreciationRun  bool
	DepreciationTail string // batch tag used, for auditability
}

// ClosePeriod closes a fiscal period:
//  1. computes the trial balance as of the period end (integrity check
//     included - a corrupt ledger refuses to close),
//  2. runs the depreciation batch for the period end if it has not run,
//  3. flips the period to closed.
//
// After the flip, PostEntry for any date inside the period fails with
// ClosedPeriodError.
func (m *Manager) ClosePeriod(ctx context.Context, org, id string) (*CloseResult, error) {
	p, err := m.Store.GetPeriod(ctx, org, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPeriodNotFound
	}
	if p.IsClosed() {
		return nil, ErrAlreadyClosed
	}

	rows, err := m.Ledger.TrialBalance(ctx, org, p.End)
	if err != nil {
		return nil, fmt.Errorf("pre-close trial balance: %w", err)
	}

	depRun, tag, err := m.RunDepreciationBatch(ctx, org, p.End)
	if err != nil {
		return nil, fmt.Errorf("depreciation batch: %w", err)
	}

	now := time.Now().UTC()
	if err := m.Store.MarkClosed(ctx, org, id, now); err != nil {
		return nil, err
	}
	p.Status = StatusClosed
	p.ClosedAt = &now

	// Depreciation changed the ledger; recompute the snapshot we report.
	if depRun {
		rows, err = m.Ledger.TrialBalance(ctx, org, p.End)
		if err != nil {
			return nil, err
		}
	}

	return &CloseResult{
		Period:           *p,
		TrialBalance:     rows,
		DepreciationRun:  depRun,
		DepreciationTail: tag,
	}, nil
}
