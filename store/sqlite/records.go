/*
records.go - SQLite persistence for the operational sub-ledger tables.

Implements records.Source (read-only range queries, stable document-number
ordering for deterministic report compilation) plus the writer methods the
API/seeding paths use to load data.
*/
package sqlite

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/keystone/ledger-engine/ledger"
	"github.com/keystone/ledger-engine/records"
)

// =============================================================================
// WRITERS
// =============================================================================

func (s *Store) SaveInvoice(ctx context.Context, inv records.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer sqlTx.Rollback()

	_, err = sqlTx.ExecContext(ctx, `
		INSERT INTO invoices
		(id, org, number, invoice_date, customer_name, customer_gstin, inter_state,
		 gst_rate, taxable_value, tax_amount, total, amount_paid)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			number = excluded.number,
			invoice_date = excluded.invoice_date,
			customer_name = excluded.customer_name,
			customer_gstin = excluded.customer_gstin,
			inter_state = excluded.inter_state,
			gst_rate = excluded.gst_rate,
			taxable_value = excluded.taxable_value,
			tax_amount = excluded.tax_amount,
			total = excluded.total,
			amount_paid = excluded.amount_paid`,
		inv.ID, inv.Org, inv.Number, inv.Date.String(),
		inv.CustomerName, inv.CustomerGSTIN, inv.InterState,
		inv.GSTRate.String(), inv.TaxableValue.Value.String(),
		inv.TaxAmount.Value.String(), inv.Total.Value.String(), inv.AmountPaid.Value.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to save invoice %s: %w", inv.Number, err)
	}

	if _, err := sqlTx.ExecContext(ctx, "DELETE FROM invoice_lines WHERE invoice_id = ?", inv.ID); err != nil {
		return err
	}
	for i, line := range inv.Lines {
		_, err := sqlTx.ExecContext(ctx, `
			INSERT INTO invoice_lines (invoice_id, line_no, description, hsn_code, quantity, rate, taxable_value)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			inv.ID, i, line.Description, line.HSNCode,
			line.Quantity.String(), line.Rate.Value.String(), line.TaxableValue.Value.String(),
		)
		if err != nil {
			return err
		}
	}
	return sqlTx.Commit()
}

func (s *Store) SaveBill(ctx context.Context, b records.Bill) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bills
		(id, org, number, bill_date, vendor_name, vendor_gstin, vendor_pan, inter_state,
		 gst_rate, taxable_value, tax_amount, total, amount_paid, tds_section)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			number = excluded.number,
			bill_date = excluded.bill_date,
			vendor_name = excluded.vendor_name,
			vendor_gstin = excluded.vendor_gstin,
			vendor_pan = excluded.vendor_pan,
			inter_state = excluded.inter_state,
			gst_rate = excluded.gst_rate,
			taxable_value = excluded.taxable_value,
			tax_amount = excluded.tax_amount,
			total = excluded.total,
			amount_paid = excluded.amount_paid,
			tds_section = excluded.tds_section`,
		b.ID, b.Org, b.Number, b.Date.String(),
		b.VendorName, b.VendorGSTIN, b.VendorPAN, b.InterState,
		b.GSTRate.String(), b.TaxableValue.Value.String(),
		b.TaxAmount.Value.String(), b.Total.Value.String(), b.AmountPaid.Value.String(),
		b.TDSSection,
	)
	if err != nil {
		return fmt.Errorf("failed to save bill %s: %w", b.Number, err)
	}
	return nil
}

func (s *Store) SaveBankTransaction(ctx context.Context, t records.BankTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bank_transactions (id, org, tx_date, tx_type, description, amount, category)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			tx_date = excluded.tx_date,
			tx_type = excluded.tx_type,
			description = excluded.description,
			amount = excluded.amount,
			category = excluded.category`,
		t.ID, t.Org, t.Date.String(), t.Type, t.Description,
		t.Amount.Value.String(), t.Category,
	)
	return err
}

func (s *Store) SavePayrollRecord(ctx context.Context, p records.PayrollRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payroll_records
		(id, org, employee_code, employee_name, pan, uan, esi_number, period_month,
		 gross_wages, basic_wages, taxable_salary, net_pay, paid)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			employee_code = excluded.employee_code,
			employee_name = excluded.employee_name,
			pan = excluded.pan,
			uan = excluded.uan,
			esi_number = excluded.esi_number,
			period_month = excluded.period_month,
			gross_wages = excluded.gross_wages,
			basic_wages = excluded.basic_wages,
			taxable_salary = excluded.taxable_salary,
			net_pay = excluded.net_pay,
			paid = excluded.paid`,
		p.ID, p.Org, p.EmployeeCode, p.EmployeeName, p.PAN, p.UAN, p.ESINumber,
		p.PeriodMonth.String(),
		p.GrossWages.Value.String(), p.BasicWages.Value.String(),
		p.TaxableSalary.Value.String(), p.NetPay.Value.String(), p.Paid,
	)
	return err
}

// =============================================================================
// RANGE QUERIES (records.Source interface)
// =============================================================================

func (s *Store) InvoicesInRange(ctx context.Context, org string, from, to ledger.Date) ([]records.Invoice, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, org, number, invoice_date, customer_name, customer_gstin, inter_state,
		       gst_rate, taxable_value, tax_amount, total, amount_paid
		FROM invoices
		WHERE org = ? AND invoice_date >= ? AND invoice_date <= ?
		ORDER BY number ASC`,
		org, from.String(), to.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []records.Invoice
	for rows.Next() {
		var (
			inv          records.Invoice
			date         string
			gstRate      string
			taxableValue string
			taxAmount    string
			total        string
			paid         string
		)
		err := rows.Scan(&inv.ID, &inv.Org, &inv.Number, &date,
			&inv.CustomerName, &inv.CustomerGSTIN, &inv.InterState,
			&gstRate, &taxableValue, &taxAmount, &total, &paid)
		if err != nil {
			return nil, err
		}
		inv.Date, _ = ledger.ParseDate(date)
		inv.GSTRate = mustDecimal(gstRate)
		inv.TaxableValue = ledger.MustParseAmount(taxableValue)
		inv.TaxAmount = ledger.MustParseAmount(taxAmount)
		inv.Total = ledger.MustParseAmount(total)
		inv.AmountPaid = ledger.MustParseAmount(paid)
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range invoices {
		lines, err := s.loadInvoiceLines(ctx, invoices[i].ID)
		if err != nil {
			return nil, err
		}
		invoices[i].Lines = lines
	}
	return invoices, nil
}

func (s *Store) loadInvoiceLines(ctx context.Context, invoiceID string) ([]records.InvoiceLine, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT description, hsn_code, quantity, rate, taxable_value
		FROM invoice_lines WHERE invoice_id = ? ORDER BY line_no ASC`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []records.InvoiceLine
	for rows.Next() {
		var (
			line         records.InvoiceLine
			quantity     string
			rate         string
			taxableValue string
		)
		if err := rows.Scan(&line.Description, &line.HSNCode, &quantity, &rate, &taxableValue); err != nil {
			return nil, err
		}
		line.Quantity = mustDecimal(quantity)
		line.Rate = ledger.MustParseAmount(rate)
		line.TaxableValue = ledger.MustParseAmount(taxableValue)
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func (s *Store) BillsInRange(ctx context.Context, org string, from, to ledger.Date) ([]records.Bill, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, org, number, bill_date, vendor_name, vendor_gstin, vendor_pan, inter_state,
		       gst_rate, taxable_value, tax_amount, total, amount_paid, tds_section
		FROM bills
		WHERE org = ? AND bill_date >= ? AND bill_date <= ?
		ORDER BY number ASC`,
		org, from.String(), to.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bills []records.Bill
	for rows.Next() {
		var (
			b            records.Bill
			date         string
			gstRate      string
			taxableValue string
			taxAmount    string
			total        string
			paid         string
		)
		err := rows.Scan(&b.ID, &b.Org, &b.Number, &date,
			&b.VendorName, &b.VendorGSTIN, &b.VendorPAN, &b.InterState,
			&gstRate, &taxableValue, &taxAmount, &total, &paid, &b.TDSSection)
		if err != nil {
			return nil, err
		}
		b.Date, _ = ledger.ParseDate(date)
		b.GSTRate = mustDecimal(gstRate)
		b.TaxableValue = ledger.MustParseAmount(taxableValue)
		b.TaxAmount = ledger.MustParseAmount(taxAmount)
		b.Total = ledger.MustParseAmount(total)
		b.AmountPaid = ledger.MustParseAmount(paid)
		bills = append(bills, b)
	}
	return bills, rows.Err()
}

func (s *Store) BankTransactionsInRange(ctx context.Context, org string, from, to ledger.Date) ([]records.BankTransaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, org, tx_date, tx_type, description, amount, category
		FROM bank_transactions
		WHERE org = ? AND tx_date >= ? AND tx_date <= ?
		ORDER BY tx_date ASC, id ASC`,
		org, from.String(), to.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []records.BankTransaction
	for rows.Next() {
		var (
			t      records.BankTransaction
			date   string
			amount string
		)
		if err := rows.Scan(&t.ID, &t.Org, &date, &t.Type, &t.Description, &amount, &t.Category); err != nil {
			return nil, err
		}
		t.Date, _ = ledger.ParseDate(date)
		t.Amount = ledger.MustParseAmount(amount)
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

func (s *Store) PayrollInRange(ctx context.Context, org string, from, to ledger.Date) ([]records.PayrollRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, org, employee_code, employee_name, pan, uan, esi_number, period_month,
		       gross_wages, basic_wages, taxable_salary, net_pay, paid
		FROM payroll_records
		WHERE org = ? AND period_month >= ? AND period_month <= ?
		ORDER BY period_month ASC, employee_code ASC`,
		org, from.String(), to.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []records.PayrollRecord
	for rows.Next() {
		var (
			p       records.PayrollRecord
			month   string
			gross   string
			basic   string
			taxable string
			netPay  string
		)
		err := rows.Scan(&p.ID, &p.Org, &p.EmployeeCode, &p.EmployeeName,
			&p.PAN, &p.UAN, &p.ESINumber, &month,
			&gross, &basic, &taxable, &netPay, &p.Paid)
		if err != nil {
			return nil, err
		}
		p.PeriodMonth, _ = ledger.ParseDate(month)
		p.GrossWages = ledger.MustParseAmount(gross)
		p.BasicWages = ledger.MustParseAmount(basic)
		p.TaxableSalary = ledger.MustParseAmount(taxable)
		p.NetPay = ledger.MustParseAmount(netPay)
		recs = append(recs, p)
	}
	return recs, rows.Err()
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
