/*
compliance.go - SQLite persistence for reconciliation history and compliance
runs.

Reconciliation records are append-only; there is no UPDATE path. Compliance
runs persist the scored header in compliance_runs plus child rows per check,
theme, anomaly, and sample. Score breakdowns are stored as JSON columns - the
category and theme sets are fixed, so a flat JSON object is stable to read
back.
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/keystone/ledger-engine/audit"
	"github.com/keystone/ledger-engine/ledger"
	"github.com/keystone/ledger-engine/reconcile"
)

// =============================================================================
// RECONCILIATION RECORDS (reconcile.RecordStore interface)
// =============================================================================

func (s *Store) AppendRecord(ctx context.Context, r reconcile.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reconciliation_records
		(id, org, module, as_of, gl_balance, subledger_balance, variance, is_reconciled, computed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Org, r.Module, r.AsOf.String(),
		r.GLBalance.Value.String(), r.SubledgerBalance.Value.String(), r.Variance.Value.String(),
		r.IsReconciled, r.ComputedAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

// ListRecords returns reconciliation history newest-first. An empty module
// matches all modules; limit <= 0 means no limit.
func (s *Store) ListRecords(ctx context.Context, org string, module reconcile.Module, limit int) ([]reconcile.Record, error) {
	query := `
		SELECT id, org, module, as_of, gl_balance, subledger_balance, variance, is_reconciled, computed_at
		FROM reconciliation_records
		WHERE org = ?`
	args := []any{org}
	if module != "" {
		query += " AND module = ?"
		args = append(args, module)
	}
	query += " ORDER BY computed_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []reconcile.Record
	for rows.Next() {
		var (
			r          reconcile.Record
			asOf       string
			gl         string
			sub        string
			variance   string
			computedAt string
		)
		err := rows.Scan(&r.ID, &r.Org, &r.Module, &asOf, &gl, &sub, &variance, &r.IsReconciled, &computedAt)
		if err != nil {
			return nil, err
		}
		r.AsOf, _ = ledger.ParseDate(asOf)
		r.GLBalance = ledger.MustParseAmount(gl)
		r.SubledgerBalance = ledger.MustParseAmount(sub)
		r.Variance = ledger.MustParseAmount(variance)
		r.ComputedAt, _ = time.Parse(time.RFC3339Nano, computedAt)
		result = append(result, r)
	}
	return result, rows.Err()
}

// =============================================================================
// COMPLIANCE RUNS (audit.RunStore interface)
// =============================================================================

func (s *Store) SaveRun(ctx context.Context, run audit.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	scoreJSON, err := json.Marshal(run.ScoreBreakdown)
	if err != nil {
		return err
	}
	riskJSON, err := json.Marshal(run.RiskBreakdown)
	if err != nil {
		return err
	}

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer sqlTx.Rollback()

	_, err = sqlTx.ExecContext(ctx, `
		INSERT INTO compliance_runs
		(id, org, financial_year, version, compliance_score, ai_risk_index,
		 score_breakdown_json, risk_breakdown_json, ifc_rating, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Org, run.FinancialYear, run.Version,
		run.ComplianceScore, run.AIRiskIndex,
		string(scoreJSON), string(riskJSON), run.IFCRating,
		run.CompletedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}

	for i, c := range run.Checks {
		_, err := sqlTx.ExecContext(ctx, `
			INSERT INTO compliance_checks
			(run_id, seq, module, check_name, category, severity, status, affected_count, recommendation)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, i, c.Module, c.Name, c.Category, c.Severity, c.Status, c.AffectedCount, c.Recommendation,
		)
		if err != nil {
			return err
		}
	}
	for _, t := range run.Themes {
		_, err := sqlTx.ExecContext(ctx, `
			INSERT INTO risk_themes (run_id, theme, score, detail)
			VALUES (?, ?, ?, ?)`,
			run.ID, t.Theme, t.Score, t.Detail,
		)
		if err != nil {
			return err
		}
	}
	for i, a := range run.Anomalies {
		_, err := sqlTx.ExecContext(ctx, `
			INSERT INTO anomalies (run_id, seq, theme, entity_ref, trigger_text, risk_score, deviation_pct)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			run.ID, i, a.Theme, a.EntityRef, a.Trigger, a.RiskScore, a.DeviationPct,
		)
		if err != nil {
			return err
		}
	}
	for i, sm := range run.Samples {
		_, err := sqlTx.ExecContext(ctx, `
			INSERT INTO audit_samples (run_id, seq, strategy, entity_ref, detail, risk_score)
			VALUES (?, ?, ?, ?, ?, ?)`,
			run.ID, i, sm.Strategy, sm.EntityRef, sm.Detail, sm.RiskScore,
		)
		if err != nil {
			return err
		}
	}

	return sqlTx.Commit()
}

func (s *Store) LatestRun(ctx context.Context, org, financialYear string) (*audit.Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, org, financial_year, version, compliance_score, ai_risk_index,
		       score_breakdown_json, risk_breakdown_json, ifc_rating, completed_at
		FROM compliance_runs
		WHERE org = ? AND financial_year = ?
		ORDER BY version DESC LIMIT 1`, org, financialYear)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := s.loadRunChildren(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

func (s *Store) ListRuns(ctx context.Context, org string) ([]audit.Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, org, financial_year, version, compliance_score, ai_risk_index,
		       score_breakdown_json, risk_breakdown_json, ifc_rating, completed_at
		FROM compliance_runs
		WHERE org = ?
		ORDER BY financial_year ASC, version ASC`, org)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []audit.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range runs {
		if err := s.loadRunChildren(ctx, &runs[i]); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

func (s *Store) NextVersion(ctx context.Context, org, financialYear string) (int, error) {
	var max sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(version) FROM compliance_runs WHERE org = ? AND financial_year = ?`,
		org, financialYear,
	).Scan(&max)
	if err != nil {
		return 0, err
	}
	return int(max.Int64) + 1, nil
}

func scanRun(row rowScanner) (*audit.Run, error) {
	var (
		run         audit.Run
		scoreJSON   string
		riskJSON    string
		completedAt string
	)
	err := row.Scan(&run.ID, &run.Org, &run.FinancialYear, &run.Version,
		&run.ComplianceScore, &run.AIRiskIndex,
		&scoreJSON, &riskJSON, &run.IFCRating, &completedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(scoreJSON), &run.ScoreBreakdown); err != nil {
		return nil, fmt.Errorf("failed to decode score breakdown: %w", err)
	}
	if err := json.Unmarshal([]byte(riskJSON), &run.RiskBreakdown); err != nil {
		return nil, fmt.Errorf("failed to decode risk breakdown: %w", err)
	}
	run.CompletedAt, _ = time.Parse(time.RFC3339Nano, completedAt)
	return &run, nil
}

func (s *Store) loadRunChildren(ctx context.Context, run *audit.Run) error {
	checkRows, err := s.db.QueryContext(ctx, `
		SELECT module, check_name, category, severity, status, affected_count, recommendation
		FROM compliance_checks WHERE run_id = ? ORDER BY seq ASC`, run.ID)
	if err != nil {
		return err
	}
	defer checkRows.Close()
	for checkRows.Next() {
		var c audit.Check
		if err := checkRows.Scan(&c.Module, &c.Name, &c.Category, &c.Severity, &c.Status, &c.AffectedCount, &c.Recommendation); err != nil {
			return err
		}
		run.Checks = append(run.Checks, c)
	}
	if err := checkRows.Err(); err != nil {
		return err
	}

	themeRows, err := s.db.QueryContext(ctx, `
		SELECT theme, score, detail
		FROM risk_themes WHERE run_id = ? ORDER BY theme ASC`, run.ID)
	if err != nil {
		return err
	}
	defer themeRows.Close()
	for themeRows.Next() {
		var t audit.RiskTheme
		if err := themeRows.Scan(&t.Theme, &t.Score, &t.Detail); err != nil {
			return err
		}
		run.Themes = append(run.Themes, t)
	}
	if err := themeRows.Err(); err != nil {
		return err
	}

	anomalyRows, err := s.db.QueryContext(ctx, `
		SELECT theme, entity_ref, trigger_text, risk_score, deviation_pct
		FROM anomalies WHERE run_id = ? ORDER BY seq ASC`, run.ID)
	if err != nil {
		return err
	}
	defer anomalyRows.Close()
	for anomalyRows.Next() {
		var a audit.Anomaly
		if err := anomalyRows.Scan(&a.Theme, &a.EntityRef, &a.Trigger, &a.RiskScore, &a.DeviationPct); err != nil {
			return err
		}
		run.Anomalies = append(run.Anomalies, a)
	}
	if err := anomalyRows.Err(); err != nil {
		return err
	}

	sampleRows, err := s.db.QueryContext(ctx, `
		SELECT strategy, entity_ref, detail, risk_score
		FROM audit_samples WHERE run_id = ? ORDER BY seq ASC`, run.ID)
	if err != nil {
		return err
	}
	defer sampleRows.Close()
	for sampleRows.Next() {
		var sm audit.Sample
		if err := sampleRows.Scan(&sm.Strategy, &sm.EntityRef, &sm.Detail, &sm.RiskScore); err != nil {
			return err
		}
		run.Samples = append(run.Samples, sm)
	}
	return sampleRows.Err()
}
