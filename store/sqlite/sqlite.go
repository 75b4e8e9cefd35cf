/*
Package sqlite provides the SQLite-backed implementation of every storage
interface in the engine.

PURPOSE:
  One store, many interfaces: the ledger journal (append-only), the chart
  of accounts, fiscal periods and assets, the sub-ledger record tables,
  reconciliation history, and compliance runs. In production the same
  patterns apply to PostgreSQL - only minor SQL dialect differences.

APPEND-ONLY ENFORCEMENT:
  - No UPDATE or DELETE statements exist for journal_entries/journal_lines
  - Corrections happen via reversing entries
  - UNIQUE(org, batch_tag) makes system batches (depreciation) idempotent
    under concurrent retry: the losing writer gets ErrDuplicateBatch

CONCURRENCY:
  SQLite is opened in WAL mode. A sync.Mutex serializes writers in-process;
  a period close and a posting into the same period race on the period
  status row inside their transactions, so closed-period rejection is
  consistent.

SEE ALSO:
  - ledger/store.go: Interface contracts
  - ledger/store/memory.go: In-memory counterpart for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/keystone/ledger-engine/ledger"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// New creates a SQLite store. Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	-- Chart of accounts
	CREATE TABLE IF NOT EXISTS accounts (
		org TEXT NOT NULL,
		code TEXT NOT NULL,
		name TEXT NOT NULL,
		account_type TEXT NOT NULL,
		is_control_account BOOLEAN DEFAULT FALSE,
		control_module TEXT DEFAULT '',
		PRIMARY KEY (org, code)
	);

	-- Journal entries (append-only)
	CREATE TABLE IF NOT EXISTS journal_entries (
		id TEXT PRIMARY KEY,
		org TEXT NOT NULL,
		entry_date TEXT NOT NULL,
		source TEXT NOT NULL,
		memo TEXT,
		ref_type TEXT,
		ref_id TEXT,
		batch_tag TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_entries_org_date
		ON journal_entries(org, entry_date);

	-- CRITICAL: system batches post at most once per tag per org.
	-- This is what makes depreciation runs idempotent under retry.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_entries_batch_tag
		ON journal_entries(org, batch_tag)
		WHERE batch_tag IS NOT NULL AND batch_tag != '';

	CREATE TABLE IF NOT EXISTS journal_lines (
		entry_id TEXT NOT NULL REFERENCES journal_entries(id),
		line_no INTEGER NOT NULL,
		account_code TEXT NOT NULL,
		debit TEXT NOT NULL,
		credit TEXT NOT NULL,
		PRIMARY KEY (entry_id, line_no)
	);

	CREATE INDEX IF NOT EXISTS idx_lines_account
		ON journal_lines(account_code);

	-- Fiscal periods
	CREATE TABLE IF NOT EXISTS fiscal_periods (
		id TEXT NOT NULL,
		org TEXT NOT NULL,
		name TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'open',
		closed_at TEXT,
		PRIMARY KEY (org, id)
	);

	CREATE INDEX IF NOT EXISTS idx_periods_org_dates
		ON fiscal_periods(org, start_date, end_date);

	-- Depreciable assets
	CREATE TABLE IF NOT EXISTS assets (
		id TEXT PRIMARY KEY,
		org TEXT NOT NULL,
		name TEXT NOT NULL,
		acquired_at TEXT NOT NULL,
		cost TEXT NOT NULL,
		salvage TEXT NOT NULL,
		life_months INTEGER NOT NULL,
		accumulated_to_date TEXT NOT NULL DEFAULT '0'
	);

	-- Reconciliation history (append-only)
	CREATE TABLE IF NOT EXISTS reconciliation_records (
		id TEXT PRIMARY KEY,
		org TEXT NOT NULL,
		module TEXT NOT NULL,
		as_of TEXT NOT NULL,
		gl_balance TEXT NOT NULL,
		subledger_balance TEXT NOT NULL,
		variance TEXT NOT NULL,
		is_reconciled BOOLEAN NOT NULL,
		computed_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_recon_org_module
		ON reconciliation_records(org, module, computed_at DESC);

	-- Sub-ledger record tables
	CREATE TABLE IF NOT EXISTS invoices (
		id TEXT PRIMARY KEY,
		org TEXT NOT NULL,
		number TEXT NOT NULL,
		invoice_date TEXT NOT NULL,
		customer_name TEXT,
		customer_gstin TEXT DEFAULT '',
		inter_state BOOLEAN DEFAULT FALSE,
		gst_rate TEXT NOT NULL DEFAULT '0',
		taxable_value TEXT NOT NULL,
		tax_amount TEXT NOT NULL DEFAULT '0',
		total TEXT NOT NULL,
		amount_paid TEXT NOT NULL DEFAULT '0'
	);

	CREATE INDEX IF NOT EXISTS idx_invoices_org_date
		ON invoices(org, invoice_date);

	CREATE TABLE IF NOT EXISTS invoice_lines (
		invoice_id TEXT NOT NULL REFERENCES invoices(id),
		line_no INTEGER NOT NULL,
		description TEXT,
		hsn_code TEXT DEFAULT '',
		quantity TEXT NOT NULL DEFAULT '1',
		rate TEXT NOT NULL DEFAULT '0',
		taxable_value TEXT NOT NULL,
		PRIMARY KEY (invoice_id, line_no)
	);

	CREATE TABLE IF NOT EXISTS bills (
		id TEXT PRIMARY KEY,
		org TEXT NOT NULL,
		number TEXT NOT NULL,
		bill_date TEXT NOT NULL,
		vendor_name TEXT,
		vendor_gstin TEXT DEFAULT '',
		vendor_pan TEXT DEFAULT '',
		inter_state BOOLEAN DEFAULT FALSE,
		gst_rate TEXT NOT NULL DEFAULT '0',
		taxable_value TEXT NOT NULL,
		tax_amount TEXT NOT NULL DEFAULT '0',
		total TEXT NOT NULL,
		amount_paid TEXT NOT NULL DEFAULT '0',
		tds_section TEXT DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_bills_org_date
		ON bills(org, bill_date);

	CREATE TABLE IF NOT EXISTS bank_transactions (
		id TEXT PRIMARY KEY,
		org TEXT NOT NULL,
		tx_date TEXT NOT NULL,
		tx_type TEXT NOT NULL,
		description TEXT,
		amount TEXT NOT NULL,
		category TEXT DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_bank_org_date
		ON bank_transactions(org, tx_date);

	CREATE TABLE IF NOT EXISTS payroll_records (
		id TEXT PRIMARY KEY,
		org TEXT NOT NULL,
		employee_code TEXT NOT NULL,
		employee_name TEXT,
		pan TEXT DEFAULT '',
		uan TEXT DEFAULT '',
		esi_number TEXT DEFAULT '',
		period_month TEXT NOT NULL,
		gross_wages TEXT NOT NULL,
		basic_wages TEXT NOT NULL DEFAULT '0',
		taxable_salary TEXT NOT NULL DEFAULT '0',
		net_pay TEXT NOT NULL DEFAULT '0',
		paid BOOLEAN DEFAULT FALSE
	);

	CREATE INDEX IF NOT EXISTS idx_payroll_org_month
		ON payroll_records(org, period_month);

	-- Compliance runs
	CREATE TABLE IF NOT EXISTS compliance_runs (
		id TEXT PRIMARY KEY,
		org TEXT NOT NULL,
		financial_year TEXT NOT NULL,
		version INTEGER NOT NULL,
		compliance_score REAL NOT NULL,
		ai_risk_index REAL NOT NULL,
		score_breakdown_json TEXT NOT NULL,
		risk_breakdown_json TEXT NOT NULL,
		ifc_rating TEXT,
		completed_at TEXT NOT NULL,
		UNIQUE (org, financial_year, version)
	);

	CREATE TABLE IF NOT EXISTS compliance_checks (
		run_id TEXT NOT NULL REFERENCES compliance_runs(id),
		seq INTEGER NOT NULL,
		module TEXT NOT NULL,
		check_name TEXT NOT NULL,
		category TEXT NOT NULL,
		severity TEXT NOT NULL,
		status TEXT NOT NULL,
		affected_count INTEGER DEFAULT 0,
		recommendation TEXT,
		PRIMARY KEY (run_id, seq)
	);

	CREATE TABLE IF NOT EXISTS risk_themes (
		run_id TEXT NOT NULL REFERENCES compliance_runs(id),
		theme TEXT NOT NULL,
		score REAL NOT NULL,
		detail TEXT,
		PRIMARY KEY (run_id, theme)
	);

	CREATE TABLE IF NOT EXISTS anomalies (
		run_id TEXT NOT NULL REFERENCES compliance_runs(id),
		seq INTEGER NOT NULL,
		theme TEXT NOT NULL,
		entity_ref TEXT,
		trigger_text TEXT,
		risk_score REAL NOT NULL,
		deviation_pct REAL NOT NULL,
		PRIMARY KEY (run_id, seq)
	);

	CREATE TABLE IF NOT EXISTS audit_samples (
		run_id TEXT NOT NULL REFERENCES compliance_runs(id),
		seq INTEGER NOT NULL,
		strategy TEXT NOT NULL,
		entity_ref TEXT,
		detail TEXT,
		risk_score REAL NOT NULL,
		PRIMARY KEY (run_id, seq)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// JOURNAL STORE (ledger.Store interface)
// =============================================================================

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// AppendEntry adds a journal entry atomically: header and all lines commit
// or nothing does.
func (s *Store) AppendEntry(ctx context.Context, entry ledger.JournalEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := s.appendEntryTx(ctx, sqlTx, entry); err != nil {
		return err
	}
	return sqlTx.Commit()
}

func (s *Store) appendEntryTx(ctx context.Context, db execer, entry ledger.JournalEntry) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO journal_entries
		(id, org, entry_date, source, memo, ref_type, ref_id, batch_tag, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.Org,
		entry.Date.String(),
		entry.Source,
		entry.Memo,
		entry.RefType,
		entry.RefID,
		nullString(entry.BatchTag),
		entry.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			if strings.Contains(err.Error(), "batch_tag") {
				return ledger.ErrDuplicateBatch
			}
			return ledger.ErrDuplicateEntry
		}
		return fmt.Errorf("failed to append entry: %w", err)
	}

	for i, line := range entry.Lines {
		_, err := db.ExecContext(ctx, `
			INSERT INTO journal_lines (entry_id, line_no, account_code, debit, credit)
			VALUES (?, ?, ?, ?, ?)`,
			entry.ID, i, line.AccountCode, line.Debit.Value.String(), line.Credit.Value.String(),
		)
		if err != nil {
			return fmt.Errorf("failed to append line %d: %w", i, err)
		}
	}
	return nil
}

// Entries returns entries in [from, to]; a zero bound is open-ended.
func (s *Store) Entries(ctx context.Context, org string, from, to ledger.Date) ([]ledger.JournalEntry, error) {
	query := `
		SELECT id, org, entry_date, source, memo, ref_type, ref_id, batch_tag, created_at
		FROM journal_entries
		WHERE org = ?`
	args := []any{org}
	if !from.IsZero() {
		query += " AND entry_date >= ?"
		args = append(args, from.String())
	}
	if !to.IsZero() {
		query += " AND entry_date <= ?"
		args = append(args, to.String())
	}
	query += " ORDER BY entry_date ASC, created_at ASC"
	return s.queryEntries(ctx, query, args...)
}

// EntriesByAccount returns entries with at least one line on the account.
func (s *Store) EntriesByAccount(ctx context.Context, org string, code ledger.AccountCode, from, to ledger.Date) ([]ledger.JournalEntry, error) {
	query := `
		SELECT DISTINCT e.id, e.org, e.entry_date, e.source, e.memo, e.ref_type, e.ref_id, e.batch_tag, e.created_at
		FROM journal_entries e
		JOIN journal_lines l ON l.entry_id = e.id
		WHERE e.org = ? AND l.account_code = ?`
	args := []any{org, code}
	if !from.IsZero() {
		query += " AND e.entry_date >= ?"
		args = append(args, from.String())
	}
	if !to.IsZero() {
		query += " AND e.entry_date <= ?"
		args = append(args, to.String())
	}
	query += " ORDER BY e.entry_date ASC, e.created_at ASC"
	return s.queryEntries(ctx, query, args...)
}

// GetEntry fetches a single entry by ID, or nil if it does not exist.
func (s *Store) GetEntry(ctx context.Context, org string, id ledger.EntryID) (*ledger.JournalEntry, error) {
	entries, err := s.queryEntries(ctx, `
		SELECT id, org, entry_date, source, memo, ref_type, ref_id, batch_tag, created_at
		FROM journal_entries WHERE org = ? AND id = ?`, org, id)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}

func (s *Store) HasBatchTag(ctx context.Context, org, tag string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM journal_entries WHERE org = ? AND batch_tag = ?",
		org, tag,
	).Scan(&count)
	return count > 0, err
}

func (s *Store) queryEntries(ctx context.Context, query string, args ...any) ([]ledger.JournalEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []ledger.JournalEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range entries {
		lines, err := s.loadLines(ctx, entries[i].ID)
		if err != nil {
			return nil, err
		}
		entries[i].Lines = lines
	}
	return entries, nil
}

func scanEntry(rows *sql.Rows) (ledger.JournalEntry, error) {
	var (
		entry     ledger.JournalEntry
		entryDate string
		memo      sql.NullString
		refType   sql.NullString
		refID     sql.NullString
		batchTag  sql.NullString
		createdAt string
	)
	err := rows.Scan(&entry.ID, &entry.Org, &entryDate, &entry.Source,
		&memo, &refType, &refID, &batchTag, &createdAt)
	if err != nil {
		return entry, fmt.Errorf("failed to scan entry: %w", err)
	}
	entry.Date, _ = ledger.ParseDate(entryDate)
	entry.Memo = memo.String
	entry.RefType = refType.String
	entry.RefID = refID.String
	entry.BatchTag = batchTag.String
	entry.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return entry, nil
}

func (s *Store) loadLines(ctx context.Context, entryID ledger.EntryID) ([]ledger.JournalLine, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT account_code, debit, credit
		FROM journal_lines WHERE entry_id = ? ORDER BY line_no ASC`, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []ledger.JournalLine
	for rows.Next() {
		var code, debit, credit string
		if err := rows.Scan(&code, &debit, &credit); err != nil {
			return nil, err
		}
		lines = append(lines, ledger.JournalLine{
			AccountCode: ledger.AccountCode(code),
			Debit:       ledger.MustParseAmount(debit),
			Credit:      ledger.MustParseAmount(credit),
		})
	}
	return lines, rows.Err()
}

// =============================================================================
// TRANSACTIONAL STORE (ledger.TxStore interface)
// =============================================================================

// WithTx executes fn within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(ledger.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx, parent: s}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

type txStore struct {
	tx     *sql.Tx
	parent *Store
}

func (ts *txStore) AppendEntry(ctx context.Context, entry ledger.JournalEntry) error {
	return ts.parent.appendEntryTx(ctx, ts.tx, entry)
}

func (ts *txStore) Entries(ctx context.Context, org string, from, to ledger.Date) ([]ledger.JournalEntry, error) {
	return ts.parent.Entries(ctx, org, from, to)
}

func (ts *txStore) EntriesByAccount(ctx context.Context, org string, code ledger.AccountCode, from, to ledger.Date) ([]ledger.JournalEntry, error) {
	return ts.parent.EntriesByAccount(ctx, org, code, from, to)
}

func (ts *txStore) HasBatchTag(ctx context.Context, org, tag string) (bool, error) {
	return ts.parent.HasBatchTag(ctx, org, tag)
}

// =============================================================================
// ACCOUNT STORE (ledger.AccountStore interface)
// =============================================================================

func (s *Store) SaveAccount(ctx context.Context, org string, account ledger.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	referenced, err := s.accountReferenced(ctx, org, account.Code)
	if err != nil {
		return err
	}
	if referenced {
		return ledger.ErrImmutableAccount
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO accounts (org, code, name, account_type, is_control_account, control_module)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(org, code) DO UPDATE SET
			name = excluded.name,
			account_type = excluded.account_type,
			is_control_account = excluded.is_control_account,
			control_module = excluded.control_module`,
		org, account.Code, account.Name, account.Type, account.IsControlAccount, account.ControlModule,
	)
	return err
}

func (s *Store) GetAccount(ctx context.Context, org string, code ledger.AccountCode) (*ledger.Account, error) {
	var a ledger.Account
	err := s.db.QueryRowContext(ctx, `
		SELECT code, name, account_type, is_control_account, control_module
		FROM accounts WHERE org = ? AND code = ?`, org, code,
	).Scan(&a.Code, &a.Name, &a.Type, &a.IsControlAccount, &a.ControlModule)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) ListAccounts(ctx context.Context, org string) ([]ledger.Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT code, name, account_type, is_control_account, control_module
		FROM accounts WHERE org = ? ORDER BY code ASC`, org)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []ledger.Account
	for rows.Next() {
		var a ledger.Account
		if err := rows.Scan(&a.Code, &a.Name, &a.Type, &a.IsControlAccount, &a.ControlModule); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (s *Store) AccountReferenced(ctx context.Context, org string, code ledger.AccountCode) (bool, error) {
	return s.accountReferenced(ctx, org, code)
}

func (s *Store) accountReferenced(ctx context.Context, org string, code ledger.AccountCode) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM journal_lines l
		JOIN journal_entries e ON e.id = l.entry_id
		WHERE e.org = ? AND l.account_code = ?`, org, code,
	).Scan(&count)
	return count > 0, err
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
