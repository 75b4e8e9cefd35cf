package ledger

import "context"

// =============================================================================
// DEFAULT CHART OF ACCOUNTS
// =============================================================================

// Well-known account codes used by the sub-ledger postings, the depreciation
// batch, and the statutory compiler. A books setup can extend the chart but
// these codes are assumed present.
const (
	AcctCash                AccountCode = "1010"
	AcctBank                AccountCode = "1020"
	AcctReceivables         AccountCode = "1030"
	AcctFixedAssets         AccountCode = "1050"
	AcctAccumDepreciation   AccountCode = "1060"
	AcctGSTInput            AccountCode = "1070"
	AcctPayables            AccountCode = "2010"
	AcctGSTOutput           AccountCode = "2020"
	AcctTDSPayable          AccountCode = "2030"
	AcctPFPayable           AccountCode = "2040"
	AcctESIPayable          AccountCode = "2050"
	AcctPTPayable           AccountCode = "2060"
	AcctPayrollPayable      AccountCode = "2070"
	AcctCapital             AccountCode = "3010"
	AcctSalesRevenue        AccountCode = "4010"
	AcctOtherIncome         AccountCode = "4020"
	AcctPurchases           AccountCode = "5010"
	AcctSalaryExpense       AccountCode = "5020"
	AcctDepreciationExpense AccountCode = "5030"
	AcctOperatingExpense    AccountCode = "5040"
)

// DefaultChart is the minimal chart of accounts for an Indian books setup:
// assets 1xxx, liabilities 2xxx, equity 3xxx, revenue 4xxx, expenses 5xxx.
// Control accounts link to exactly one sub-ledger module.
var DefaultChart = []Account{
	{Code: AcctCash, Name: "Cash", Type: AccountAsset},
	{Code: AcctBank, Name: "Bank", Type: AccountAsset, IsControlAccount: true, ControlModule: "bank"},
	{Code: AcctReceivables, Name: "Accounts Receivable", Type: AccountAsset, IsControlAccount: true, ControlModule: "receivables"},
	{Code: AcctFixedAssets, Name: "Fixed Assets", Type: AccountAsset},
	{Code: AcctAccumDepreciation, Name: "Accumulated Depreciation", Type: AccountAsset},
	{Code: AcctGSTInput, Name: "GST Input Credit", Type: AccountAsset},

	{Code: AcctPayables, Name: "Accounts Payable", Type: AccountLiability, IsControlAccount: true, ControlModule: "payables"},
	{Code: AcctGSTOutput, Name: "GST Output Tax", Type: AccountLiability},
	{Code: AcctTDSPayable, Name: "TDS Payable", Type: AccountLiability},
	{Code: AcctPFPayable, Name: "PF Payable", Type: AccountLiability},
	{Code: AcctESIPayable, Name: "ESI Payable", Type: AccountLiability},
	{Code: AcctPTPayable, Name: "Professional Tax Payable", Type: AccountLiability},
	{Code: AcctPayrollPayable, Name: "Salaries Payable", Type: AccountLiability, IsControlAccount: true, ControlModule: "payroll"},

	{Code: AcctCapital, Name: "Owner's Capital", Type: AccountEquity},

	{Code: AcctSalesRevenue, Name: "Sales Revenue", Type: AccountRevenue},
	{Code: AcctOtherIncome, Name: "Other Income", Type: AccountRevenue},

	{Code: AcctPurchases, Name: "Purchases", Type: AccountExpense},
	{Code: AcctSalaryExpense, Name: "Salaries and Wages", Type: AccountExpense},
	{Code: AcctDepreciationExpense, Name: "Depreciation Expense", Type: AccountExpense},
	{Code: AcctOperatingExpense, Name: "Operating Expenses", Type: AccountExpense},
}

// SeedDefaultChart writes the default chart for an org. Existing accounts
// are left untouched, so re-seeding is safe.
func SeedDefaultChart(ctx context.Context, store AccountStore, org string) error {
	for _, account := range DefaultChart {
		existing, err := store.GetAccount(ctx, org, account.Code)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		if err := store.SaveAccount(ctx, org, account); err != nil {
			return err
		}
	}
	return nil
}

// ControlAccounts returns the control account for each sub-ledger module.
func ControlAccounts(accounts []Account) map[string]AccountCode {
	controls := make(map[string]AccountCode)
	for _, a := range accounts {
		if a.IsControlAccount && a.ControlModule != "" {
			controls[a.ControlModule] = a.Code
		}
	}
	return controls
}
