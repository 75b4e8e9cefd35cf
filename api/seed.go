/*
seed.go - Demo dataset loader

PURPOSE:
  Loads a small but coherent books-of-account dataset for demos and manual
  testing: the default chart, the FY 2024-2025 monthly periods, one
  depreciable asset, three months of invoices/bills/bank/payroll, and the
  matching double-entry postings so the control accounts reconcile cleanly.

  The dataset is deliberately clean. Break it yourself (post a manual entry
  against a control account, skip a sub-ledger posting) to watch the
  reconciler and the compliance engine flag it.
*/
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/keystone/ledger-engine/ledger"
	"github.com/keystone/ledger-engine/period"
	"github.com/keystone/ledger-engine/records"
)

// SeedDemo loads the demo dataset into the handler's default org.
func (h *Handler) SeedDemo(w http.ResponseWriter, r *http.Request) {
	org := h.org(r)
	if err := h.seedDemo(r.Context(), org); err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to seed demo data", err)
		return
	}
	h.Log.WithField("org", org).Info("demo dataset loaded")
	h.writeJSON(w, http.StatusCreated, map[string]string{
		"org":            org,
		"financial_year": "2024-2025",
	})
}

func (h *Handler) seedDemo(ctx context.Context, org string) error {
	if err := ledger.SeedDefaultChart(ctx, h.Store, org); err != nil {
		return fmt.Errorf("seed chart: %w", err)
	}
	if _, err := h.Periods.GeneratePeriods(ctx, org, "2024-2025"); err != nil {
		return fmt.Errorf("generate periods: %w", err)
	}

	asset := period.Asset{
		ID:         "asset-laptop-01",
		Org:        org,
		Name:       "Engineering laptops",
		AcquiredAt: ledger.NewDate(2024, 4, 1),
		Cost:       ledger.NewAmountFromInt(360000),
		Salvage:    ledger.NewAmountFromInt(0),
		LifeMonths: 36,
	}
	if err := h.Store.SaveAsset(ctx, asset); err != nil {
		return fmt.Errorf("save asset: %w", err)
	}
	// Capitalize the asset purchase.
	if _, err := h.Ledger.PostEntry(ctx, ledger.JournalEntry{
		Org:     org,
		Date:    asset.AcquiredAt,
		Source:  ledger.SourceSystem,
		Memo:    "asset purchase: " + asset.Name,
		RefType: "asset",
		RefID:   asset.ID,
		Lines: []ledger.JournalLine{
			ledger.DebitLine(ledger.AcctFixedAssets, asset.Cost),
			ledger.CreditLine(ledger.AcctBank, asset.Cost),
		},
	}); err != nil {
		return fmt.Errorf("capitalize asset: %w", err)
	}
	// Opening capital so the bank account has something to spend.
	opening := ledger.NewAmountFromInt(2000000)
	if _, err := h.Ledger.PostEntry(ctx, ledger.JournalEntry{
		Org:    org,
		Date:   ledger.NewDate(2024, 4, 1),
		Source: ledger.SourceSystem,
		Memo:   "opening capital",
		Lines: []ledger.JournalLine{
			ledger.DebitLine(ledger.AcctBank, opening),
			ledger.CreditLine(ledger.AcctCapital, opening),
		},
	}); err != nil {
		return fmt.Errorf("opening capital: %w", err)
	}
	if err := h.Store.SaveBankTransaction(ctx, records.BankTransaction{
		ID: "bank-opening", Org: org, Date: ledger.NewDate(2024, 4, 1),
		Type: records.BankDeposit, Description: "opening capital", Amount: opening,
	}); err != nil {
		return err
	}
	if err := h.Store.SaveBankTransaction(ctx, records.BankTransaction{
		ID: "bank-asset", Org: org, Date: asset.AcquiredAt,
		Type: records.BankWithdrawal, Description: "asset purchase", Amount: asset.Cost,
	}); err != nil {
		return err
	}

	// Three months of operating activity: Apr, May, Jun 2024.
	for i, month := range []ledger.Date{
		ledger.NewDate(2024, 4, 1),
		ledger.NewDate(2024, 5, 1),
		ledger.NewDate(2024, 6, 1),
	} {
		if err := h.seedMonth(ctx, org, month, i); err != nil {
			return fmt.Errorf("seed %s: %w", month, err)
		}
	}
	return nil
}

// seedMonth loads one month: a B2B invoice, a TDS-subject vendor bill, and a
// payroll record, each mirrored into the GL.
func (h *Handler) seedMonth(ctx context.Context, org string, month ledger.Date, i int) error {
	mid := month.AddDays(14)

	taxable := ledger.NewAmountFromInt(int64(500000 + i*50000))
	tax := taxable.Mul(decimal.NewFromFloat(0.18)).Round()
	inv := records.Invoice{
		ID:            fmt.Sprintf("inv-%s", month.Time.Format("200601")),
		Org:           org,
		Number:        fmt.Sprintf("INV-%03d", i+1),
		Date:          mid,
		CustomerName:  "Meridian Retail Pvt Ltd",
		CustomerGSTIN: "29AABCM9100C1ZK",
		GSTRate:       decimal.NewFromInt(18),
		TaxableValue:  taxable,
		TaxAmount:     tax,
		Total:         taxable.Add(tax),
	}
	if err := h.Store.SaveInvoice(ctx, inv); err != nil {
		return err
	}
	if _, err := h.Ledger.PostEntry(ctx, ledger.JournalEntry{
		Org: org, Date: inv.Date, Source: ledger.SourceSystem,
		Memo: "invoice " + inv.Number, RefType: "invoice", RefID: inv.ID,
		Lines: []ledger.JournalLine{
			ledger.DebitLine(ledger.AcctReceivables, inv.Total),
			ledger.CreditLine(ledger.AcctSalesRevenue, inv.TaxableValue),
			ledger.CreditLine(ledger.AcctGSTOutput, inv.TaxAmount),
		},
	}); err != nil {
		return err
	}

	billTaxable := ledger.NewAmountFromInt(100000)
	billTax := billTaxable.Mul(decimal.NewFromFloat(0.18)).Round()
	bill := records.Bill{
		ID:           fmt.Sprintf("bill-%s", month.Time.Format("200601")),
		Org:          org,
		Number:       fmt.Sprintf("BILL-%03d", i+1),
		Date:         mid,
		VendorName:   "Sharma Facilities Services",
		VendorPAN:    "AAEPS1111F",
		GSTRate:      decimal.NewFromInt(18),
		TaxableValue: billTaxable,
		TaxAmount:    billTax,
		Total:        billTaxable.Add(billTax),
		TDSSection:   "194C",
	}
	if err := h.Store.SaveBill(ctx, bill); err != nil {
		return err
	}
	if _, err := h.Ledger.PostEntry(ctx, ledger.JournalEntry{
		Org: org, Date: bill.Date, Source: ledger.SourceSystem,
		Memo: "bill " + bill.Number, RefType: "bill", RefID: bill.ID,
		Lines: []ledger.JournalLine{
			ledger.DebitLine(ledger.AcctOperatingExpense, bill.TaxableValue),
			ledger.DebitLine(ledger.AcctGSTInput, bill.TaxAmount),
			ledger.CreditLine(ledger.AcctPayables, bill.Total),
		},
	}); err != nil {
		return err
	}

	gross := ledger.NewAmountFromInt(80000)
	basic := ledger.NewAmountFromInt(40000)
	net := ledger.NewAmountFromInt(68000)
	pay := records.PayrollRecord{
		ID:            fmt.Sprintf("pay-%s-E001", month.Time.Format("200601")),
		Org:           org,
		EmployeeCode:  "E001",
		EmployeeName:  "Priya Nair",
		PAN:           "AAFPN2222G",
		UAN:           "100200300400",
		PeriodMonth:   month,
		GrossWages:    gross,
		BasicWages:    basic,
		TaxableSalary: gross,
		NetPay:        net,
	}
	if err := h.Store.SavePayrollRecord(ctx, pay); err != nil {
		return err
	}
	deductions := gross.Sub(net)
	_, err := h.Ledger.PostEntry(ctx, ledger.JournalEntry{
		Org: org, Date: month.EndOfMonth(), Source: ledger.SourceSystem,
		Memo: "payroll " + month.Time.Format("Jan 2006"), RefType: "payroll", RefID: pay.ID,
		Lines: []ledger.JournalLine{
			ledger.DebitLine(ledger.AcctSalaryExpense, gross),
			ledger.CreditLine(ledger.AcctPayrollPayable, net),
			ledger.CreditLine(ledger.AcctTDSPayable, deductions),
		},
	})
	return err
}
