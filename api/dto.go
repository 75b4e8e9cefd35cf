/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY ON THE WIRE:
  All amounts travel as decimal strings ("1250.00"), never floats. Clients
  that want numbers can parse them; the engine never loses precision to
  JSON number encoding.

VALIDATION:
  Request types carry go-playground/validator struct tags; handlers run the
  validator before touching domain logic.

SEE ALSO:
  - handlers.go: Uses these types
  - ledger/types.go: Domain types these map from
*/
package api

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/keystone/ledger-engine/audit"
	"github.com/keystone/ledger-engine/ledger"
	"github.com/keystone/ledger-engine/period"
	"github.com/keystone/ledger-engine/reconcile"
	"github.com/keystone/ledger-engine/records"
	"github.com/keystone/ledger-engine/statutory"
)

// =============================================================================
// ACCOUNTS
// =============================================================================

// AccountDTO represents a chart-of-accounts node in API responses.
type AccountDTO struct {
	Code             string `json:"code"`
	Name             string `json:"name"`
	Type             string `json:"type"`
	IsControlAccount bool   `json:"is_control_account"`
	ControlModule    string `json:"control_module,omitempty"`
}

// CreateAccountRequest is the request to create or update an account.
type CreateAccountRequest struct {
	Code             string `json:"code" validate:"required"`
	Name             string `json:"name" validate:"required"`
	Type             string `json:"type" validate:"required,oneof=asset liability equity revenue expense"`
	IsControlAccount bool   `json:"is_control_account"`
	ControlModule    string `json:"control_module" validate:"omitempty,oneof=bank receivables payables payroll"`
}

// =============================================================================
// JOURNAL ENTRIES
// =============================================================================

// JournalLineDTO is one account movement within an entry.
type JournalLineDTO struct {
	AccountCode string `json:"account_code"`
	Debit       string `json:"debit"`
	Credit      string `json:"credit"`
}

// EntryDTO represents a posted journal entry.
type EntryDTO struct {
	ID        string           `json:"id"`
	Date      string           `json:"date"`
	Source    string           `json:"source"`
	Memo      string           `json:"memo,omitempty"`
	RefType   string           `json:"ref_type,omitempty"`
	RefID     string           `json:"ref_id,omitempty"`
	BatchTag  string           `json:"batch_tag,omitempty"`
	Lines     []JournalLineDTO `json:"lines"`
	CreatedAt string           `json:"created_at,omitempty"`
}

// PostEntryRequest is the request to post a manual journal entry.
type PostEntryRequest struct {
	Date    string `json:"date" validate:"required"`
	Memo    string `json:"memo"`
	RefType string `json:"ref_type"`
	RefID   string `json:"ref_id"`
	Lines   []struct {
		AccountCode string `json:"account_code" validate:"required"`
		Debit       string `json:"debit"`
		Credit      string `json:"credit"`
	} `json:"lines" validate:"required,min=2,dive"`
}

// ReverseEntryRequest selects the date for a reversing entry.
type ReverseEntryRequest struct {
	Date string `json:"date" validate:"required"`
}

// =============================================================================
// TRIAL BALANCE
// =============================================================================

// TrialBalanceRowDTO is one account's aggregated position.
type TrialBalanceRowDTO struct {
	AccountCode string `json:"account_code"`
	AccountName string `json:"account_name"`
	AccountType string `json:"account_type"`
	DebitTotal  string `json:"debit_total"`
	CreditTotal string `json:"credit_total"`
}

// TrialBalanceDTO is the full statement with grand totals.
type TrialBalanceDTO struct {
	AsOf        string               `json:"as_of"`
	Rows        []TrialBalanceRowDTO `json:"rows"`
	TotalDebits string               `json:"total_debits"`
	TotalCredit string               `json:"total_credits"`
}

// BalanceDTO is a single account balance.
type BalanceDTO struct {
	AccountCode string `json:"account_code"`
	AsOf        string `json:"as_of"`
	Balance     string `json:"balance"`
}

// =============================================================================
// FISCAL PERIODS AND ASSETS
// =============================================================================

// PeriodDTO represents a fiscal period.
type PeriodDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Status   string `json:"status"`
	ClosedAt string `json:"closed_at,omitempty"`
}

// GeneratePeriodsRequest creates the monthly periods of a financial year.
type GeneratePeriodsRequest struct {
	FinancialYear string `json:"financial_year" validate:"required"`
}

// ClosePeriodResponse reports what the close did.
type ClosePeriodResponse struct {
	Period          PeriodDTO            `json:"period"`
	TrialBalance    []TrialBalanceRowDTO `json:"trial_balance"`
	DepreciationRun bool                 `json:"depreciation_run"`
	BatchTag        string               `json:"batch_tag,omitempty"`
}

// CreateAssetRequest registers a depreciable asset.
type CreateAssetRequest struct {
	ID         string `json:"id" validate:"required"`
	Name       string `json:"name" validate:"required"`
	AcquiredAt string `json:"acquired_at" validate:"required"`
	Cost       string `json:"cost" validate:"required"`
	Salvage    string `json:"salvage"`
	LifeMonths int    `json:"life_months" validate:"required,gt=0"`

	AccumulatedToDate string `json:"accumulated_to_date"`
}

// AssetDTO represents a depreciable asset.
type AssetDTO struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	AcquiredAt string `json:"acquired_at"`
	Cost       string `json:"cost"`
	Salvage    string `json:"salvage"`
	LifeMonths int    `json:"life_months"`
}

// RunDepreciationRequest triggers the depreciation batch for a date.
type RunDepreciationRequest struct {
	AsOf string `json:"as_of" validate:"required"`
}

// RunDepreciationResponse reports whether the batch posted.
type RunDepreciationResponse struct {
	Ran      bool   `json:"ran"`
	BatchTag string `json:"batch_tag"`
}

// =============================================================================
// RECONCILIATION
// =============================================================================

// RunReconciliationRequest triggers a reconciliation snapshot.
type RunReconciliationRequest struct {
	AsOf    string   `json:"as_of" validate:"required"`
	Modules []string `json:"modules" validate:"omitempty,dive,oneof=bank receivables payables payroll"`
}

// ReconciliationRecordDTO is one module's snapshot.
type ReconciliationRecordDTO struct {
	ID               string `json:"id"`
	Module           string `json:"module"`
	AsOf             string `json:"as_of"`
	GLBalance        string `json:"gl_balance"`
	SubledgerBalance string `json:"subledger_balance"`
	Variance         string `json:"variance"`
	IsReconciled     bool   `json:"is_reconciled"`
	ComputedAt       string `json:"computed_at"`
}

// =============================================================================
// SUB-LEDGER RECORDS
// =============================================================================

// CreateInvoiceRequest loads an outward supply into the receivables
// sub-ledger.
type CreateInvoiceRequest struct {
	ID            string `json:"id" validate:"required"`
	Number        string `json:"number" validate:"required"`
	Date          string `json:"date" validate:"required"`
	CustomerName  string `json:"customer_name"`
	CustomerGSTIN string `json:"customer_gstin"`
	InterState    bool   `json:"inter_state"`
	GSTRate       string `json:"gst_rate"`
	TaxableValue  string `json:"taxable_value" validate:"required"`
	TaxAmount     string `json:"tax_amount"`
	Total         string `json:"total" validate:"required"`
	AmountPaid    string `json:"amount_paid"`
	Lines         []struct {
		Description  string `json:"description"`
		HSNCode      string `json:"hsn_code"`
		Quantity     string `json:"quantity"`
		Rate         string `json:"rate"`
		TaxableValue string `json:"taxable_value"`
	} `json:"lines"`
}

// CreateBillRequest loads an inward supply into the payables sub-ledger.
type CreateBillRequest struct {
	ID           string `json:"id" validate:"required"`
	Number       string `json:"number" validate:"required"`
	Date         string `json:"date" validate:"required"`
	VendorName   string `json:"vendor_name"`
	VendorGSTIN  string `json:"vendor_gstin"`
	VendorPAN    string `json:"vendor_pan"`
	InterState   bool   `json:"inter_state"`
	GSTRate      string `json:"gst_rate"`
	TaxableValue string `json:"taxable_value" validate:"required"`
	TaxAmount    string `json:"tax_amount"`
	Total        string `json:"total" validate:"required"`
	AmountPaid   string `json:"amount_paid"`
	TDSSection   string `json:"tds_section"`
}

// CreateBankTransactionRequest loads a bank statement line.
type CreateBankTransactionRequest struct {
	ID          string `json:"id" validate:"required"`
	Date        string `json:"date" validate:"required"`
	Type        string `json:"type" validate:"required,oneof=deposit withdrawal"`
	Description string `json:"description"`
	Amount      string `json:"amount" validate:"required"`
	Category    string `json:"category"`
}

// CreatePayrollRequest loads one employee-month of payroll.
type CreatePayrollRequest struct {
	ID            string `json:"id" validate:"required"`
	EmployeeCode  string `json:"employee_code" validate:"required"`
	EmployeeName  string `json:"employee_name"`
	PAN           string `json:"pan"`
	UAN           string `json:"uan"`
	ESINumber     string `json:"esi_number"`
	PeriodMonth   string `json:"period_month" validate:"required"`
	GrossWages    string `json:"gross_wages" validate:"required"`
	BasicWages    string `json:"basic_wages"`
	TaxableSalary string `json:"taxable_salary"`
	NetPay        string `json:"net_pay"`
	Paid          bool   `json:"paid"`
}

// =============================================================================
// STATUTORY REPORTS
// =============================================================================

// TaxHeadsDTO carries the three GST heads.
type TaxHeadsDTO struct {
	CGST string `json:"cgst"`
	SGST string `json:"sgst"`
	IGST string `json:"igst"`
}

// GSTR1RowDTO is one invoice-level outward supply row.
type GSTR1RowDTO struct {
	Form          string `json:"form"`
	Category      string `json:"category"`
	InvoiceNumber string `json:"invoice_number"`
	InvoiceDate   string `json:"invoice_date"`
	CustomerName  string `json:"customer_name,omitempty"`
	CustomerGSTIN string `json:"customer_gstin,omitempty"`
	TaxableValue  string `json:"taxable_value"`
	CGST          string `json:"cgst"`
	SGST          string `json:"sgst"`
	IGST          string `json:"igst"`
	InvoiceTotal  string `json:"invoice_total"`
}

// GSTR3BDTO is the aggregate summary return.
type GSTR3BDTO struct {
	Form            string      `json:"form"`
	From            string      `json:"from"`
	To              string      `json:"to"`
	OutwardTaxable  string      `json:"outward_taxable_value"`
	OutputTax       TaxHeadsDTO `json:"output_tax"`
	AvailableITC    TaxHeadsDTO `json:"available_itc"`
	NetPayable      TaxHeadsDTO `json:"net_payable"`
	NetPayableTotal string      `json:"net_payable_total"`
}

// TDSRowDTO is one deductee row of a TDS return.
type TDSRowDTO struct {
	Form          string `json:"form"`
	DeducteeName  string `json:"deductee_name"`
	PAN           string `json:"pan"`
	Section       string `json:"section"`
	TaxableAmount string `json:"taxable_amount"`
	TDS           string `json:"tds"`
	Cess          string `json:"cess"`
	TotalDeducted string `json:"total_deducted"`
}

// PFRowDTO is one employee row of the PF ECR.
type PFRowDTO struct {
	Form         string `json:"form"`
	UAN          string `json:"uan"`
	EmployeeName string `json:"employee_name"`
	GrossWages   string `json:"gross_wages"`
	EPFWages     string `json:"epf_wages"`
	EmployeeEPF  string `json:"employee_epf"`
	EmployerEPS  string `json:"employer_eps"`
	EmployerEPF  string `json:"employer_epf"`
}

// ESIRowDTO is one covered employee of the ESI return.
type ESIRowDTO struct {
	Form          string `json:"form"`
	ESINumber     string `json:"esi_number"`
	EmployeeName  string `json:"employee_name"`
	GrossWages    string `json:"gross_wages"`
	EmployeeShare string `json:"employee_share"`
	EmployerShare string `json:"employer_share"`
}

// PTRowDTO is one employee of the professional tax return.
type PTRowDTO struct {
	Form         string `json:"form"`
	EmployeeCode string `json:"employee_code"`
	EmployeeName string `json:"employee_name"`
	GrossWages   string `json:"gross_wages"`
	Tax          string `json:"tax"`
}

// =============================================================================
// COMPLIANCE RUNS
// =============================================================================

// RunComplianceRequest triggers a compliance run for a financial year.
type RunComplianceRequest struct {
	FinancialYear string `json:"financial_year" validate:"required"`
}

// CheckDTO is one rule outcome within a run.
type CheckDTO struct {
	Module         string `json:"module"`
	Name           string `json:"name"`
	Category       string `json:"category"`
	Severity       string `json:"severity"`
	Status         string `json:"status"`
	AffectedCount  int    `json:"affected_count,omitempty"`
	Recommendation string `json:"recommendation,omitempty"`
}

// RiskThemeDTO is one theme's risk contribution.
type RiskThemeDTO struct {
	Theme  string  `json:"theme"`
	Score  float64 `json:"score"`
	Detail string  `json:"detail,omitempty"`
}

// AnomalyDTO is one flagged deviation.
type AnomalyDTO struct {
	Theme        string  `json:"theme"`
	EntityRef    string  `json:"entity_ref"`
	Trigger      string  `json:"trigger"`
	RiskScore    float64 `json:"risk_score"`
	DeviationPct float64 `json:"deviation_pct"`
}

// SampleDTO is one document drawn for human audit.
type SampleDTO struct {
	Strategy  string  `json:"strategy"`
	EntityRef string  `json:"entity_ref"`
	Detail    string  `json:"detail,omitempty"`
	RiskScore float64 `json:"risk_score"`
}

// ComplianceRunDTO is the full scored run.
type ComplianceRunDTO struct {
	ID              string             `json:"id"`
	FinancialYear   string             `json:"financial_year"`
	Version         int                `json:"version"`
	ComplianceScore float64            `json:"compliance_score"`
	AIRiskIndex     float64            `json:"ai_risk_index"`
	ScoreBreakdown  map[string]float64 `json:"score_breakdown"`
	RiskBreakdown   map[string]float64 `json:"risk_breakdown"`
	IFCRating       string             `json:"ifc_rating"`
	Checks          []CheckDTO         `json:"checks"`
	Themes          []RiskThemeDTO     `json:"themes"`
	Anomalies       []AnomalyDTO       `json:"anomalies"`
	Samples         []SampleDTO        `json:"samples"`
	CompletedAt     string             `json:"completed_at"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toAccountDTO(a ledger.Account) AccountDTO {
	return AccountDTO{
		Code:             string(a.Code),
		Name:             a.Name,
		Type:             string(a.Type),
		IsControlAccount: a.IsControlAccount,
		ControlModule:    a.ControlModule,
	}
}

func toEntryDTO(e ledger.JournalEntry) EntryDTO {
	lines := make([]JournalLineDTO, len(e.Lines))
	for i, l := range e.Lines {
		lines[i] = JournalLineDTO{
			AccountCode: string(l.AccountCode),
			Debit:       l.Debit.String(),
			Credit:      l.Credit.String(),
		}
	}
	return EntryDTO{
		ID:        string(e.ID),
		Date:      e.Date.String(),
		Source:    string(e.Source),
		Memo:      e.Memo,
		RefType:   e.RefType,
		RefID:     e.RefID,
		BatchTag:  e.BatchTag,
		Lines:     lines,
		CreatedAt: e.CreatedAt.Format(time.RFC3339),
	}
}

func toEntryDTOs(entries []ledger.JournalEntry) []EntryDTO {
	dtos := make([]EntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toEntryDTO(e)
	}
	return dtos
}

func toTrialBalanceRowDTOs(rows []ledger.TrialBalanceRow) []TrialBalanceRowDTO {
	dtos := make([]TrialBalanceRowDTO, len(rows))
	for i, row := range rows {
		dtos[i] = TrialBalanceRowDTO{
			AccountCode: string(row.AccountCode),
			AccountName: row.AccountName,
			AccountType: string(row.AccountType),
			DebitTotal:  row.DebitTotal.String(),
			CreditTotal: row.CreditTotal.String(),
		}
	}
	return dtos
}

func toPeriodDTO(p period.FiscalPeriod) PeriodDTO {
	dto := PeriodDTO{
		ID:     p.ID,
		Name:   p.Name,
		Start:  p.Start.String(),
		End:    p.End.String(),
		Status: string(p.Status),
	}
	if p.ClosedAt != nil {
		dto.ClosedAt = p.ClosedAt.Format(time.RFC3339)
	}
	return dto
}

func toReconciliationRecordDTO(r reconcile.Record) ReconciliationRecordDTO {
	return ReconciliationRecordDTO{
		ID:               r.ID,
		Module:           string(r.Module),
		AsOf:             r.AsOf.String(),
		GLBalance:        r.GLBalance.String(),
		SubledgerBalance: r.SubledgerBalance.String(),
		Variance:         r.Variance.String(),
		IsReconciled:     r.IsReconciled,
		ComputedAt:       r.ComputedAt.Format(time.RFC3339),
	}
}

func toTaxHeadsDTO(h statutory.TaxHeads) TaxHeadsDTO {
	return TaxHeadsDTO{CGST: h.CGST.String(), SGST: h.SGST.String(), IGST: h.IGST.String()}
}

func toGSTR1RowDTOs(rows []statutory.GSTR1Row) []GSTR1RowDTO {
	dtos := make([]GSTR1RowDTO, len(rows))
	for i, row := range rows {
		dtos[i] = GSTR1RowDTO{
			Form:          string(row.Form),
			Category:      string(row.Category),
			InvoiceNumber: row.InvoiceNumber,
			InvoiceDate:   row.InvoiceDate.String(),
			CustomerName:  row.CustomerName,
			CustomerGSTIN: row.CustomerGSTIN,
			TaxableValue:  row.TaxableValue.String(),
			CGST:          row.CGST.String(),
			SGST:          row.SGST.String(),
			IGST:          row.IGST.String(),
			InvoiceTotal:  row.InvoiceTotal.String(),
		}
	}
	return dtos
}

func toGSTR3BDTO(s statutory.GSTR3BSummary) GSTR3BDTO {
	return GSTR3BDTO{
		Form:            string(s.Form),
		From:            s.Range.From.String(),
		To:              s.Range.To.String(),
		OutwardTaxable:  s.OutwardTaxableValue.String(),
		OutputTax:       toTaxHeadsDTO(s.OutputTax),
		AvailableITC:    toTaxHeadsDTO(s.AvailableITC),
		NetPayable:      toTaxHeadsDTO(s.NetPayable),
		NetPayableTotal: s.NetPayable.Total().String(),
	}
}

func toTDSRowDTOs(rows []statutory.TDSRow) []TDSRowDTO {
	dtos := make([]TDSRowDTO, len(rows))
	for i, row := range rows {
		dtos[i] = TDSRowDTO{
			Form:          string(row.Form),
			DeducteeName:  row.DeducteeName,
			PAN:           row.PAN,
			Section:       row.Section,
			TaxableAmount: row.TaxableAmount.String(),
			TDS:           row.TDS.String(),
			Cess:          row.Cess.String(),
			TotalDeducted: row.TotalDeducted.String(),
		}
	}
	return dtos
}

func toPFRowDTOs(rows []statutory.PFRow) []PFRowDTO {
	dtos := make([]PFRowDTO, len(rows))
	for i, row := range rows {
		dtos[i] = PFRowDTO{
			Form:         string(row.Form),
			UAN:          row.UAN,
			EmployeeName: row.EmployeeName,
			GrossWages:   row.GrossWages.String(),
			EPFWages:     row.EPFWages.String(),
			EmployeeEPF:  row.EmployeeEPF.String(),
			EmployerEPS:  row.EmployerEPS.String(),
			EmployerEPF:  row.EmployerEPF.String(),
		}
	}
	return dtos
}

func toESIRowDTOs(rows []statutory.ESIRow) []ESIRowDTO {
	dtos := make([]ESIRowDTO, len(rows))
	for i, row := range rows {
		dtos[i] = ESIRowDTO{
			Form:          string(row.Form),
			ESINumber:     row.ESINumber,
			EmployeeName:  row.EmployeeName,
			GrossWages:    row.GrossWages.String(),
			EmployeeShare: row.EmployeeShare.String(),
			EmployerShare: row.EmployerShare.String(),
		}
	}
	return dtos
}

func toPTRowDTOs(rows []statutory.PTRow) []PTRowDTO {
	dtos := make([]PTRowDTO, len(rows))
	for i, row := range rows {
		dtos[i] = PTRowDTO{
			Form:         string(row.Form),
			EmployeeCode: row.EmployeeCode,
			EmployeeName: row.EmployeeName,
			GrossWages:   row.GrossWages.String(),
			Tax:          row.Tax.String(),
		}
	}
	return dtos
}

func toComplianceRunDTO(run audit.Run) ComplianceRunDTO {
	scoreBreakdown := make(map[string]float64, len(run.ScoreBreakdown))
	for cat, v := range run.ScoreBreakdown {
		scoreBreakdown[string(cat)] = v
	}
	riskBreakdown := make(map[string]float64, len(run.RiskBreakdown))
	for theme, v := range run.RiskBreakdown {
		riskBreakdown[string(theme)] = v
	}
	checks := make([]CheckDTO, len(run.Checks))
	for i, c := range run.Checks {
		checks[i] = CheckDTO{
			Module:         c.Module,
			Name:           c.Name,
			Category:       string(c.Category),
			Severity:       string(c.Severity),
			Status:         string(c.Status),
			AffectedCount:  c.AffectedCount,
			Recommendation: c.Recommendation,
		}
	}
	themes := make([]RiskThemeDTO, len(run.Themes))
	for i, t := range run.Themes {
		themes[i] = RiskThemeDTO{Theme: string(t.Theme), Score: t.Score, Detail: t.Detail}
	}
	anomalies := make([]AnomalyDTO, len(run.Anomalies))
	for i, a := range run.Anomalies {
		anomalies[i] = AnomalyDTO{
			Theme:        string(a.Theme),
			EntityRef:    a.EntityRef,
			Trigger:      a.Trigger,
			RiskScore:    a.RiskScore,
			DeviationPct: a.DeviationPct,
		}
	}
	samples := make([]SampleDTO, len(run.Samples))
	for i, s := range run.Samples {
		samples[i] = SampleDTO{
			Strategy:  string(s.Strategy),
			EntityRef: s.EntityRef,
			Detail:    s.Detail,
			RiskScore: s.RiskScore,
		}
	}
	return ComplianceRunDTO{
		ID:              run.ID,
		FinancialYear:   run.FinancialYear,
		Version:         run.Version,
		ComplianceScore: run.ComplianceScore,
		AIRiskIndex:     run.AIRiskIndex,
		ScoreBreakdown:  scoreBreakdown,
		RiskBreakdown:   riskBreakdown,
		IFCRating:       string(run.IFCRating),
		Checks:          checks,
		Themes:          themes,
		Anomalies:       anomalies,
		Samples:         samples,
		CompletedAt:     run.CompletedAt.Format(time.RFC3339),
	}
}

// amountFields parses a set of named amount strings, stopping at the first
// malformed one so client typos surface as 400s instead of silent zeros.
func amountFields(fields map[string]*ledger.Amount, raw map[string]string) error {
	for name, dst := range fields {
		a, err := ledger.ParseAmount(raw[name])
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*dst = a
	}
	return nil
}

// parseRate parses a non-monetary decimal (GST rate, quantity). Empty means
// zero; anything else malformed is an error.
func parseRate(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func toInvoice(org string, req CreateInvoiceRequest) (records.Invoice, error) {
	date, err := ledger.ParseDate(req.Date)
	if err != nil {
		return records.Invoice{}, err
	}
	rate, err := parseRate(req.GSTRate)
	if err != nil {
		return records.Invoice{}, fmt.Errorf("gst_rate: %w", err)
	}
	inv := records.Invoice{
		ID:            req.ID,
		Org:           org,
		Number:        req.Number,
		Date:          date,
		CustomerName:  req.CustomerName,
		CustomerGSTIN: req.CustomerGSTIN,
		InterState:    req.InterState,
		GSTRate:       rate,
	}
	err = amountFields(map[string]*ledger.Amount{
		"taxable_value": &inv.TaxableValue,
		"tax_amount":    &inv.TaxAmount,
		"total":         &inv.Total,
		"amount_paid":   &inv.AmountPaid,
	}, map[string]string{
		"taxable_value": req.TaxableValue,
		"tax_amount":    req.TaxAmount,
		"total":         req.Total,
		"amount_paid":   req.AmountPaid,
	})
	if err != nil {
		return records.Invoice{}, err
	}
	for i, line := range req.Lines {
		quantity, err := parseRate(line.Quantity)
		if err != nil {
			return records.Invoice{}, fmt.Errorf("lines[%d].quantity: %w", i, err)
		}
		lineRate, err := ledger.ParseAmount(line.Rate)
		if err != nil {
			return records.Invoice{}, fmt.Errorf("lines[%d].rate: %w", i, err)
		}
		taxable, err := ledger.ParseAmount(line.TaxableValue)
		if err != nil {
			return records.Invoice{}, fmt.Errorf("lines[%d].taxable_value: %w", i, err)
		}
		inv.Lines = append(inv.Lines, records.InvoiceLine{
			Description:  line.Description,
			HSNCode:      line.HSNCode,
			Quantity:     quantity,
			Rate:         lineRate,
			TaxableValue: taxable,
		})
	}
	return inv, nil
}

func toBill(org string, req CreateBillRequest) (records.Bill, error) {
	date, err := ledger.ParseDate(req.Date)
	if err != nil {
		return records.Bill{}, err
	}
	rate, err := parseRate(req.GSTRate)
	if err != nil {
		return records.Bill{}, fmt.Errorf("gst_rate: %w", err)
	}
	bill := records.Bill{
		ID:          req.ID,
		Org:         org,
		Number:      req.Number,
		Date:        date,
		VendorName:  req.VendorName,
		VendorGSTIN: req.VendorGSTIN,
		VendorPAN:   req.VendorPAN,
		InterState:  req.InterState,
		GSTRate:     rate,
		TDSSection:  req.TDSSection,
	}
	err = amountFields(map[string]*ledger.Amount{
		"taxable_value": &bill.TaxableValue,
		"tax_amount":    &bill.TaxAmount,
		"total":         &bill.Total,
		"amount_paid":   &bill.AmountPaid,
	}, map[string]string{
		"taxable_value": req.TaxableValue,
		"tax_amount":    req.TaxAmount,
		"total":         req.Total,
		"amount_paid":   req.AmountPaid,
	})
	if err != nil {
		return records.Bill{}, err
	}
	return bill, nil
}

func toBankTransaction(org string, req CreateBankTransactionRequest) (records.BankTransaction, error) {
	date, err := ledger.ParseDate(req.Date)
	if err != nil {
		return records.BankTransaction{}, err
	}
	amount, err := ledger.ParseAmount(req.Amount)
	if err != nil {
		return records.BankTransaction{}, fmt.Errorf("amount: %w", err)
	}
	return records.BankTransaction{
		ID:          req.ID,
		Org:         org,
		Date:        date,
		Type:        records.BankTxType(req.Type),
		Description: req.Description,
		Amount:      amount,
		Category:    req.Category,
	}, nil
}

func toPayrollRecord(org string, req CreatePayrollRequest) (records.PayrollRecord, error) {
	month, err := ledger.ParseDate(req.PeriodMonth)
	if err != nil {
		return records.PayrollRecord{}, err
	}
	rec := records.PayrollRecord{
		ID:           req.ID,
		Org:          org,
		EmployeeCode: req.EmployeeCode,
		EmployeeName: req.EmployeeName,
		PAN:          req.PAN,
		UAN:          req.UAN,
		ESINumber:    req.ESINumber,
		PeriodMonth:  month,
		Paid:         req.Paid,
	}
	err = amountFields(map[string]*ledger.Amount{
		"gross_wages":    &rec.GrossWages,
		"basic_wages":    &rec.BasicWages,
		"taxable_salary": &rec.TaxableSalary,
		"net_pay":        &rec.NetPay,
	}, map[string]string{
		"gross_wages":    req.GrossWages,
		"basic_wages":    req.BasicWages,
		"taxable_salary": req.TaxableSalary,
		"net_pay":        req.NetPay,
	})
	if err != nil {
		return records.PayrollRecord{}, err
	}
	return rec, nil
}

func toAsset(org string, req CreateAssetRequest) (period.Asset, error) {
	acquiredAt, err := ledger.ParseDate(req.AcquiredAt)
	if err != nil {
		return period.Asset{}, err
	}
	asset := period.Asset{
		ID:         req.ID,
		Org:        org,
		Name:       req.Name,
		AcquiredAt: acquiredAt,
		LifeMonths: req.LifeMonths,
	}
	err = amountFields(map[string]*ledger.Amount{
		"cost":                &asset.Cost,
		"salvage":             &asset.Salvage,
		"accumulated_to_date": &asset.AccumulatedToDate,
	}, map[string]string{
		"cost":                req.Cost,
		"salvage":             req.Salvage,
		"accumulated_to_date": req.AccumulatedToDate,
	})
	if err != nil {
		return period.Asset{}, err
	}
	return asset, nil
}
