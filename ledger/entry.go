/*
entry.go - Journal posting and validation

PURPOSE:
  The Ledger is the write path for the general ledger. Every posting -
  manual journal, invoice, bill, payroll, depreciation - goes through
  PostEntry, which enforces the double-entry invariants before anything
  touches the store.

CRITICAL INVARIANTS:
  1. BALANCED: sum(debits) == sum(credits) at currency precision
  2. ONE SIDE: each line has exactly one non-zero side
  3. APPEND-ONLY: no update, no delete; corrections are reversing entries
  4. PERIOD GUARD: entries dated inside a closed period are rejected

SEE ALSO:
  - trial_balance.go: Read path and the accounting identity check
  - period: Owns the open/closed state consulted via PeriodGuard
*/
package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Ledger is the posting service for the general ledger.
type Ledger struct {
	Store    Store
	Accounts AccountStore

	// Guard is optional; when nil, closed-period checks are skipped
	// (tests and migrations).
	Guard PeriodGuard
}

func New(store Store, accounts AccountStore) *Ledger {
	return &Ledger{Store: store, Accounts: accounts}
}

// ValidateEntry checks the double-entry invariants without touching storage.
func ValidateEntry(entry JournalEntry) error {
	if len(entry.Lines) < 2 {
		return ErrEmptyEntry
	}
	for _, line := range entry.Lines {
		debitSet := !line.Debit.IsZero()
		creditSet := !line.Credit.IsZero()
		if debitSet == creditSet {
			return ErrInvalidLine
		}
		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			return ErrInvalidLine
		}
	}
	debits := entry.TotalDebits().Round()
	credits := entry.TotalCredits().Round()
	if !debits.Equal(credits) {
		return &UnbalancedEntryError{Debits: debits, Credits: credits}
	}
	return nil
}

// PostEntry validates and persists a journal entry.
//
// Rejections:
//   - UnbalancedEntryError / ErrInvalidLine / ErrEmptyEntry: invariant broken
//   - AccountNotFoundError: a line references an unknown account
//   - ClosedPeriodError: entry date falls in a closed period
//
// The append itself is atomic: either the header and all lines commit, or
// nothing does. On a transactional store the closed-period check is
// serialized against a concurrent period close, so an entry can never land
// inside a period that closed mid-post.
func (l *Ledger) PostEntry(ctx context.Context, entry JournalEntry) (JournalEntry, error) {
	if err := ValidateEntry(entry); err != nil {
		return JournalEntry{}, err
	}

	for _, line := range entry.Lines {
		account, err := l.Accounts.GetAccount(ctx, entry.Org, line.AccountCode)
		if err != nil {
			return JournalEntry{}, err
		}
		if account == nil {
			return JournalEntry{}, &AccountNotFoundError{Code: line.AccountCode}
		}
	}

	if err := l.guardOpen(ctx, entry.Org, entry.Date); err != nil {
		return JournalEntry{}, err
	}

	if entry.ID == "" {
		entry.ID = EntryID(uuid.NewString())
	}
	if entry.Source == "" {
		entry.Source = SourceManual
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	for i := range entry.Lines {
		entry.Lines[i].Debit = entry.Lines[i].Debit.Round()
		entry.Lines[i].Credit = entry.Lines[i].Credit.Round()
	}

	// The guard check above and the append must not interleave with a period
	// close. When the store is transactional, append first and re-verify the
	// period inside the same transaction: a close that committed in between
	// rolls the entry back.
	if tx, ok := l.Store.(TxStore); ok {
		err := tx.WithTx(ctx, func(s Store) error {
			if err := s.AppendEntry(ctx, entry); err != nil {
				return err
			}
			return l.guardOpen(ctx, entry.Org, entry.Date)
		})
		if err != nil {
			return JournalEntry{}, err
		}
		return entry, nil
	}

	if err := l.Store.AppendEntry(ctx, entry); err != nil {
		return JournalEntry{}, err
	}
	return entry, nil
}

// guardOpen rejects dates inside a closed fiscal period.
func (l *Ledger) guardOpen(ctx context.Context, org string, d Date) error {
	if l.Guard == nil {
		return nil
	}
	name, err := l.Guard.ClosedPeriodName(ctx, org, d)
	if err != nil {
		return err
	}
	if name != "" {
		return &ClosedPeriodError{PeriodName: name, EntryDate: d}
	}
	return nil
}

// Reverse builds the reversing entry for a posted entry: same lines with
// sides swapped, dated on the given day. The original stays in the ledger;
// the pair nets to zero.
func Reverse(entry JournalEntry, on Date) JournalEntry {
	lines := make([]JournalLine, len(entry.Lines))
	for i, l := range entry.Lines {
		lines[i] = JournalLine{AccountCode: l.AccountCode, Debit: l.Credit, Credit: l.Debit}
	}
	memo := entry.Memo
	if !strings.HasPrefix(memo, "reversal of ") {
		memo = "reversal of " + string(entry.ID)
	}
	return JournalEntry{
		Org:     entry.Org,
		Date:    on,
		Source:  entry.Source,
		Memo:    memo,
		RefType: entry.RefType,
		RefID:   string(entry.ID),
		Lines:   lines,
	}
}
