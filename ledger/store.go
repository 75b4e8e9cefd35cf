/*
store.go - Persistence interfaces for the general ledger

PURPOSE:
  Defines the interface between ledger logic and the database. The journal
  store is append-only: posted entries are never updated or deleted, and
  corrections happen via reversing entries.

KEY INTERFACES:
  Store:        Append-only journal persistence
  AccountStore: Chart-of-accounts persistence
  TxStore:      Transactional wrapper for atomic multi-write operations

APPEND-ONLY CONTRACT:
  - AppendEntry(): the ONLY journal write operation
  - No Update() or Delete() methods exist
  - A batch tag, when set, is unique per org; a second append with the same
    tag fails with ErrDuplicateBatch. This is how depreciation runs stay
    idempotent under concurrent retry.

IMPLEMENTATIONS:
  - store/sqlite: production store
  - ledger/store: in-memory store for tests
*/
package ledger

import "context"

// =============================================================================
// STORE - Append-only journal persistence
// =============================================================================

type Store interface {
	// AppendEntry persists a journal entry atomically (header + all lines).
	// Fails with ErrDuplicateEntry if the ID exists, ErrDuplicateBatch if the
	// batch tag exists for the org.
	AppendEntry(ctx context.Context, entry JournalEntry) error

	// Entries returns all entries for the org dated in [from, to],
	// ordered by date then creation time.
	Entries(ctx context.Context, org string, from, to Date) ([]JournalEntry, error)

	// EntriesByAccount returns entries touching the account in [from, to].
	EntriesByAccount(ctx context.Context, org string, code AccountCode, from, to Date) ([]JournalEntry, error)

	// HasBatchTag reports whether a system batch with this tag was posted.
	HasBatchTag(ctx context.Context, org, tag string) (bool, error)
}

// AccountStore persists the chart of accounts.
type AccountStore interface {
	SaveAccount(ctx context.Context, org string, account Account) error
	GetAccount(ctx context.Context, org string, code AccountCode) (*Account, error)
	ListAccounts(ctx context.Context, org string) ([]Account, error)

	// AccountReferenced reports whether any posted line references the account.
	// Referenced accounts are immutable.
	AccountReferenced(ctx context.Context, org string, code AccountCode) (bool, error)
}

// TxStore wraps Store with transaction support for operations that must
// serialize against other writers (posting vs. period close).
type TxStore interface {
	Store

	// WithTx executes fn within a transaction. Rolled back on error.
	WithTx(ctx context.Context, fn func(Store) error) error
}

// =============================================================================
// PERIOD GUARD - Posting-time closed-period check
// =============================================================================

// PeriodGuard answers whether a date falls in a closed fiscal period.
// Implemented by the period manager; the ledger depends only on this
// narrow interface to avoid a package cycle.
type PeriodGuard interface {
	// ClosedPeriodName returns the period name if the date is inside a closed
	// period, or "" if posting is allowed.
	ClosedPeriodName(ctx context.Context, org string, date Date) (string, error)
}
