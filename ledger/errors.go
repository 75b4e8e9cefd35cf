/*
errors.go - Centralized error types for the ledger core

PURPOSE:
  All error types in one place for consistency and discoverability.
  Dependent packages wrap these errors with additional context.

ERROR CATEGORIES:
  1. Integrity errors - The accounting identity is violated. Fatal.
  2. Validation errors - A posting breaks a business rule. Rejected.
  3. Store errors - Persistence-level failures.

USAGE:
  Callers match with errors.Is / errors.As:

    var uerr *ledger.UnbalancedEntryError
    if errors.As(err, &uerr) { ... }

SEE ALSO:
  - entry.go: Raises validation errors
  - trial_balance.go: Raises LedgerIntegrityError
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrUnbalancedEntry is returned when an entry's debits do not equal its
	// credits at currency precision.
	ErrUnbalancedEntry = errors.New("unbalanced journal entry")

	// ErrLedgerIntegrity is returned when a computed trial balance violates
	// the accounting identity. This indicates a bug or data corruption and
	// must never be swallowed.
	ErrLedgerIntegrity = errors.New("ledger integrity violation")

	// ErrClosedPeriod is returned when posting into a closed fiscal period.
	// Recoverable at the caller level; never retried automatically.
	ErrClosedPeriod = errors.New("fiscal period is closed")

	// ErrAccountNotFound is returned when a line references an unknown account.
	ErrAccountNotFound = errors.New("account not found")

	// ErrImmutableAccount is returned when modifying an account already
	// referenced by a posted entry.
	ErrImmutableAccount = errors.New("account referenced by posted entries is immutable")

	// ErrEmptyEntry is returned when an entry has fewer than two lines.
	ErrEmptyEntry = errors.New("journal entry needs at least two lines")

	// ErrInvalidLine is returned when a line has both or neither side set.
	ErrInvalidLine = errors.New("journal line must have exactly one non-zero side")

	// ErrDuplicateBatch is returned when a system batch with the same tag has
	// already been posted. Expected under concurrent retry; callers treat it
	// as "already ran".
	ErrDuplicateBatch = errors.New("batch already posted")

	// ErrDuplicateEntry is returned when an entry ID already exists.
	ErrDuplicateEntry = errors.New("duplicate entry id")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// UnbalancedEntryError reports how far off an entry is.
type UnbalancedEntryError struct {
	Debits  Amount
	Credits Amount
}

func (e *UnbalancedEntryError) Error() string {
	return fmt.Sprintf("unbalanced entry: debits %s != credits %s (difference %s)",
		e.Debits, e.Credits, e.Debits.Sub(e.Credits))
}

func (e *UnbalancedEntryError) Unwrap() error { return ErrUnbalancedEntry }

// ClosedPeriodError identifies which period rejected the posting.
type ClosedPeriodError struct {
	PeriodName string
	EntryDate  Date
}

func (e *ClosedPeriodError) Error() string {
	return fmt.Sprintf("period %q is closed: cannot post entry dated %s", e.PeriodName, e.EntryDate)
}

func (e *ClosedPeriodError) Unwrap() error { return ErrClosedPeriod }

// LedgerIntegrityError reports a trial balance that failed the accounting
// identity post-condition. This is loud on purpose.
type LedgerIntegrityError struct {
	AsOf         Date
	TotalDebits  Amount
	TotalCredits Amount
}

func (e *LedgerIntegrityError) Error() string {
	return fmt.Sprintf("trial balance as of %s does not balance: debits %s != credits %s",
		e.AsOf, e.TotalDebits, e.TotalCredits)
}

func (e *LedgerIntegrityError) Unwrap() error { return ErrLedgerIntegrity }

// AccountNotFoundError identifies the missing account.
type AccountNotFoundError struct {
	Code AccountCode
}

func (e *AccountNotFoundError) Error() string {
	return fmt.Sprintf("account %q not found", e.Code)
}

func (e *AccountNotFoundError) Unwrap() error { return ErrAccountNotFound }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input
// rather than a system fault.
func IsClientError(err error) bool {
	return errors.Is(err, ErrUnbalancedEntry) ||
		errors.Is(err, ErrClosedPeriod) ||
		errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrEmptyEntry) ||
		errors.Is(err, ErrInvalidLine) ||
		errors.Is(err, ErrImmutableAccount)
}

// IsFatal returns true for errors that indicate corrupted accounting state.
func IsFatal(err error) bool {
	return errors.Is(err, ErrLedgerIntegrity)
}
