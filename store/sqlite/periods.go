/*
periods.go - SQLite persistence for fiscal periods and depreciable assets.

The one subtle operation is MarkClosed: the status flip is a conditional
UPDATE (status = 'open' in the WHERE clause), so of two concurrent closes
exactly one sees RowsAffected == 1 and the other gets ErrAlreadyClosed.
*/
package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/keystone/ledger-engine/ledger"
	"github.com/keystone/ledger-engine/period"
)

// =============================================================================
// PERIOD STORE (period.Store interface)
// =============================================================================

func (s *Store) SavePeriod(ctx context.Context, p period.FiscalPeriod) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var closedAt any
	if p.ClosedAt != nil {
		closedAt = p.ClosedAt.UTC().Format(time.RFC3339Nano)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fiscal_periods (id, org, name, start_date, end_date, status, closed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(org, id) DO UPDATE SET
			name = excluded.name,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			status = excluded.status,
			closed_at = excluded.closed_at`,
		p.ID, p.Org, p.Name, p.Start.String(), p.End.String(), p.Status, closedAt,
	)
	return err
}

func (s *Store) GetPeriod(ctx context.Context, org, id string) (*period.FiscalPeriod, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, org, name, start_date, end_date, status, closed_at
		FROM fiscal_periods WHERE org = ? AND id = ?`, org, id)
	return scanPeriod(row)
}

// PeriodFor finds the period covering d, if any.
func (s *Store) PeriodFor(ctx context.Context, org string, d ledger.Date) (*period.FiscalPeriod, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, org, name, start_date, end_date, status, closed_at
		FROM fiscal_periods
		WHERE org = ? AND start_date <= ? AND end_date >= ?`,
		org, d.String(), d.String())
	return scanPeriod(row)
}

func (s *Store) ListPeriods(ctx context.Context, org string) ([]period.FiscalPeriod, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, org, name, start_date, end_date, status, closed_at
		FROM fiscal_periods WHERE org = ? ORDER BY start_date ASC`, org)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var periods []period.FiscalPeriod
	for rows.Next() {
		p, err := scanPeriodRow(rows)
		if err != nil {
			return nil, err
		}
		periods = append(periods, *p)
	}
	return periods, rows.Err()
}

// MarkClosed flips open -> closed. The WHERE status = 'open' predicate makes
// the flip happen at most once even under concurrent closes.
func (s *Store) MarkClosed(ctx context.Context, org, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx, `
		UPDATE fiscal_periods SET status = ?, closed_at = ?
		WHERE org = ? AND id = ? AND status = ?`,
		period.StatusClosed, at.UTC().Format(time.RFC3339Nano), org, id, period.StatusOpen,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		existing, err := s.GetPeriod(ctx, org, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return period.ErrPeriodNotFound
		}
		return period.ErrAlreadyClosed
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPeriod(row *sql.Row) (*period.FiscalPeriod, error) {
	p, err := scanPeriodRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func scanPeriodRow(row rowScanner) (*period.FiscalPeriod, error) {
	var (
		p        period.FiscalPeriod
		start    string
		end      string
		closedAt sql.NullString
	)
	err := row.Scan(&p.ID, &p.Org, &p.Name, &start, &end, &p.Status, &closedAt)
	if err != nil {
		return nil, err
	}
	p.Start, _ = ledger.ParseDate(start)
	p.End, _ = ledger.ParseDate(end)
	if closedAt.Valid {
		t, err := time.Parse(time.RFC3339Nano, closedAt.String)
		if err == nil {
			p.ClosedAt = &t
		}
	}
	return &p, nil
}

// =============================================================================
// ASSET STORE (period.AssetStore interface)
// =============================================================================

func (s *Store) SaveAsset(ctx context.Context, a period.Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO assets (id, org, name, acquired_at, cost, salvage, life_months, accumulated_to_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			acquired_at = excluded.acquired_at,
			cost = excluded.cost,
			salvage = excluded.salvage,
			life_months = excluded.life_months,
			accumulated_to_date = excluded.accumulated_to_date`,
		a.ID, a.Org, a.Name, a.AcquiredAt.String(),
		a.Cost.Value.String(), a.Salvage.Value.String(),
		a.LifeMonths, a.AccumulatedToDate.Value.String(),
	)
	return err
}

func (s *Store) ListAssets(ctx context.Context, org string) ([]period.Asset, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, org, name, acquired_at, cost, salvage, life_months, accumulated_to_date
		FROM assets WHERE org = ? ORDER BY id ASC`, org)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []period.Asset
	for rows.Next() {
		var (
			a           period.Asset
			acquiredAt  string
			cost        string
			salvage     string
			accumulated string
		)
		if err := rows.Scan(&a.ID, &a.Org, &a.Name, &acquiredAt, &cost, &salvage, &a.LifeMonths, &accumulated); err != nil {
			return nil, err
		}
		a.AcquiredAt, _ = ledger.ParseDate(acquiredAt)
		a.Cost = ledger.MustParseAmount(cost)
		a.Salvage = ledger.MustParseAmount(salvage)
		a.AccumulatedToDate = ledger.MustParseAmount(accumulated)
		assets = append(assets, a)
	}
	return assets, rows.Err()
}
