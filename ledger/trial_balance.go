/*
trial_balance.go - Balance aggregation and the accounting identity

PURPOSE:
  Computes per-account debit/credit running totals over all entries dated
  on or before a cutoff. This is the read path everything else trusts:
  reconciliation pulls control balances from it, period close snapshots it,
  and the audit engine checks statutory aggregates against it.

KEY INSIGHT:
  The accounting identity - total debits == total credits - is enforced as
  a POST-CONDITION of the computation, not just an input invariant. If the
  totals ever diverge the ledger is corrupt, and returning a crooked number
  silently would poison every downstream statement. We raise a loud
  LedgerIntegrityError instead.
*/
package ledger

import (
	"context"
	"sort"
)

// TrialBalanceRow is one account's totals as of the cutoff date.
type TrialBalanceRow struct {
	AccountCode AccountCode
	AccountName string
	AccountType AccountType
	DebitTotal  Amount
	CreditTotal Amount
}

// Net returns the row balance on the account's normal side:
// debit-normal accounts report debits minus credits, credit-normal the
// reverse.
func (r TrialBalanceRow) Net() Amount {
	if r.AccountType.NormalSide() == SideDebit {
		return r.DebitTotal.Sub(r.CreditTotal)
	}
	return r.CreditTotal.Sub(r.DebitTotal)
}

// TrialBalance aggregates all entries with Date <= asOf into per-account
// rows, sorted by account code. Accounts with no movement are omitted.
//
// Post-condition: sum of debit totals equals sum of credit totals, or a
// LedgerIntegrityError is returned and the rows are discarded.
func (l *Ledger) TrialBalance(ctx context.Context, org string, asOf Date) ([]TrialBalanceRow, error) {
	entries, err := l.Store.Entries(ctx, org, Date{}, asOf)
	if err != nil {
		return nil, err
	}

	type totals struct {
		debit  Amount
		credit Amount
	}
	byAccount := make(map[AccountCode]*totals)
	for _, entry := range entries {
		for _, line := range entry.Lines {
			t, ok := byAccount[line.AccountCode]
			if !ok {
				t = &totals{debit: ZeroAmount(), credit: ZeroAmount()}
				byAccount[line.AccountCode] = t
			}
			t.debit = t.debit.Add(line.Debit)
			t.credit = t.credit.Add(line.Credit)
		}
	}

	accounts, err := l.Accounts.ListAccounts(ctx, org)
	if err != nil {
		return nil, err
	}
	names := make(map[AccountCode]Account, len(accounts))
	for _, a := range accounts {
		names[a.Code] = a
	}

	rows := make([]TrialBalanceRow, 0, len(byAccount))
	grandDebit := ZeroAmount()
	grandCredit := ZeroAmount()
	for code, t := range byAccount {
		row := TrialBalanceRow{
			AccountCode: code,
			DebitTotal:  t.debit,
			CreditTotal: t.credit,
		}
		if a, ok := names[code]; ok {
			row.AccountName = a.Name
			row.AccountType = a.Type
		}
		rows = append(rows, row)
		grandDebit = grandDebit.Add(t.debit)
		grandCredit = grandCredit.Add(t.credit)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].AccountCode < rows[j].AccountCode })

	if !grandDebit.Round().Equal(grandCredit.Round()) {
		return nil, &LedgerIntegrityError{
			AsOf:         asOf,
			TotalDebits:  grandDebit.Round(),
			TotalCredits: grandCredit.Round(),
		}
	}
	return rows, nil
}

// AccountBalance returns the net balance of a single account as of the
// cutoff, on the account's normal side. Unknown accounts fail with
// AccountNotFoundError; accounts with no movement return zero.
func (l *Ledger) AccountBalance(ctx context.Context, org string, code AccountCode, asOf Date) (Amount, error) {
	account, err := l.Accounts.GetAccount(ctx, org, code)
	if err != nil {
		return Amount{}, err
	}
	if account == nil {
		return Amount{}, &AccountNotFoundError{Code: code}
	}

	entries, err := l.Store.EntriesByAccount(ctx, org, code, Date{}, asOf)
	if err != nil {
		return Amount{}, err
	}

	debit := ZeroAmount()
	credit := ZeroAmount()
	for _, entry := range entries {
		for _, line := range entry.Lines {
			if line.AccountCode != code {
				continue
			}
			debit = debit.Add(line.Debit)
			credit = credit.Add(line.Credit)
		}
	}
	if account.Type.NormalSide() == SideDebit {
		return debit.Sub(credit), nil
	}
	return credit.Sub(debit), nil
}
