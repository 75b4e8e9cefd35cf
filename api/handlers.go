/*
handlers.go - HTTP API handlers for the ledger reconciliation engine

PURPOSE:
  Exposes the ledger engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Accounts:
    GET    /api/accounts                      List chart of accounts
    POST   /api/accounts                      Create account
    GET    /api/accounts/{code}/balance       Account balance as of a date

  Journal:
    GET    /api/entries                       List entries (date range)
    POST   /api/entries                       Post a manual journal entry
    POST   /api/entries/{id}/reverse          Post the reversing entry
    GET    /api/trial-balance                 Trial balance as of a date

  Periods:
    GET    /api/periods                       List fiscal periods
    POST   /api/periods/generate              Generate FY monthly periods
    POST   /api/periods/{id}/close            Close a period
    POST   /api/depreciation/run              Run the depreciation batch
    GET    /api/assets                        List depreciable assets
    POST   /api/assets                        Register an asset

  Reconciliation:
    POST   /api/reconciliation/run            Snapshot all (or named) modules
    GET    /api/reconciliation/records        Reconciliation history

  Records:
    POST   /api/records/invoices|bills|bank-transactions|payroll

  Statutory:
    GET    /api/statutory/{form}              Compile filing-ready rows

  Compliance:
    POST   /api/compliance/runs               Execute a compliance run
    GET    /api/compliance/runs               List runs
    GET    /api/compliance/runs/latest        Latest run for an FY

ORG SCOPING:
  Every route accepts ?org=; when absent the handler's default org is used.
  Single-tenant deployments never need to pass it.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed input (bad JSON, bad dates, failed validation)
  - 404: Unknown account, period, or entry
  - 409: Conflict (closed period, duplicate batch, already closed)
  - 422: Double-entry invariant violations
  - 500: Internal errors, including ledger integrity failures

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/keystone/ledger-engine/audit"
	"github.com/keystone/ledger-engine/ledger"
	"github.com/keystone/ledger-engine/period"
	"github.com/keystone/ledger-engine/reconcile"
	"github.com/keystone/ledger-engine/statutory"
	"github.com/keystone/ledger-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store      *sqlite.Store
	Ledger     *ledger.Ledger
	Periods    *period.Manager
	Reconciler *reconcile.Reconciler
	Compiler   *statutory.Compiler
	Audit      *audit.Engine

	Log        *logrus.Logger
	DefaultOrg string

	validate *validator.Validate
}

// NewHandler wires the full engine on top of one SQLite store.
func NewHandler(store *sqlite.Store, log *logrus.Logger, defaultOrg string) *Handler {
	l := ledger.New(store, store)
	periods := period.NewManager(store, store, l)
	l.Guard = periods

	compiler := statutory.NewCompiler(store)
	reconciler := reconcile.New(l, store, store)

	return &Handler{
		Store:      store,
		Ledger:     l,
		Periods:    periods,
		Reconciler: reconciler,
		Compiler:   compiler,
		Audit:      audit.NewEngine(l, store, compiler, store, store, store),
		Log:        log,
		DefaultOrg: defaultOrg,
		validate:   validator.New(),
	}
}

// org resolves the organization scope for a request.
func (h *Handler) org(r *http.Request) string {
	if org := r.URL.Query().Get("org"); org != "" {
		return org
	}
	return h.DefaultOrg
}

// =============================================================================
// ACCOUNT HANDLERS
// =============================================================================

// ListAccounts returns the chart of accounts.
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.Store.ListAccounts(r.Context(), h.org(r))
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to list accounts", err)
		return
	}
	dtos := make([]AccountDTO, len(accounts))
	for i, a := range accounts {
		dtos[i] = toAccountDTO(a)
	}
	h.writeJSON(w, http.StatusOK, dtos)
}

// CreateAccount creates or updates a chart-of-accounts node.
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if !h.decode(w, r, &req) {
		return
	}

	account := ledger.Account{
		Code:             ledger.AccountCode(req.Code),
		Name:             req.Name,
		Type:             ledger.AccountType(req.Type),
		IsControlAccount: req.IsControlAccount,
		ControlModule:    req.ControlModule,
	}
	if err := h.Store.SaveAccount(r.Context(), h.org(r), account); err != nil {
		if errors.Is(err, ledger.ErrImmutableAccount) {
			h.writeError(w, http.StatusConflict, "Account has posted entries and cannot change", err)
			return
		}
		h.writeError(w, http.StatusInternalServerError, "Failed to save account", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toAccountDTO(account))
}

// GetAccountBalance returns a single account's balance as of a date.
func (h *Handler) GetAccountBalance(w http.ResponseWriter, r *http.Request) {
	code := ledger.AccountCode(chi.URLParam(r, "code"))
	asOf, ok := h.dateParam(w, r, "as_of")
	if !ok {
		return
	}

	balance, err := h.Ledger.AccountBalance(r.Context(), h.org(r), code, asOf)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			h.writeError(w, http.StatusNotFound, "Account not found", err)
			return
		}
		h.writeError(w, http.StatusInternalServerError, "Failed to compute balance", err)
		return
	}
	h.writeJSON(w, http.StatusOK, BalanceDTO{
		AccountCode: string(code),
		AsOf:        asOf.String(),
		Balance:     balance.String(),
	})
}

// =============================================================================
// JOURNAL HANDLERS
// =============================================================================

// ListEntries returns journal entries in a date range. An account filter
// narrows to entries touching that account.
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	var from, to ledger.Date
	if s := r.URL.Query().Get("from"); s != "" {
		parsed, err := ledger.ParseDate(s)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid from date (use YYYY-MM-DD)", err)
			return
		}
		from = parsed
	}
	if s := r.URL.Query().Get("to"); s != "" {
		parsed, err := ledger.ParseDate(s)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid to date (use YYYY-MM-DD)", err)
			return
		}
		to = parsed
	}

	var (
		entries []ledger.JournalEntry
		err     error
	)
	if account := r.URL.Query().Get("account"); account != "" {
		entries, err = h.Store.EntriesByAccount(r.Context(), h.org(r), ledger.AccountCode(account), from, to)
	} else {
		entries, err = h.Store.Entries(r.Context(), h.org(r), from, to)
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to list entries", err)
		return
	}
	h.writeJSON(w, http.StatusOK, toEntryDTOs(entries))
}

// PostEntry posts a manual journal entry.
func (h *Handler) PostEntry(w http.ResponseWriter, r *http.Request) {
	var req PostEntryRequest
	if !h.decode(w, r, &req) {
		return
	}

	date, err := ledger.ParseDate(req.Date)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid date (use YYYY-MM-DD)", err)
		return
	}

	entry := ledger.JournalEntry{
		Org:     h.org(r),
		Date:    date,
		Source:  ledger.SourceManual,
		Memo:    req.Memo,
		RefType: req.RefType,
		RefID:   req.RefID,
	}
	for _, line := range req.Lines {
		debit, err := ledger.ParseAmount(line.Debit)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid debit amount", err)
			return
		}
		credit, err := ledger.ParseAmount(line.Credit)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid credit amount", err)
			return
		}
		entry.Lines = append(entry.Lines, ledger.JournalLine{
			AccountCode: ledger.AccountCode(line.AccountCode),
			Debit:       debit,
			Credit:      credit,
		})
	}

	posted, err := h.Ledger.PostEntry(r.Context(), entry)
	if err != nil {
		h.writePostError(w, err)
		return
	}
	h.Log.WithFields(logrus.Fields{
		"entry_id": posted.ID,
		"org":      posted.Org,
		"date":     posted.Date.String(),
		"debits":   posted.TotalDebits().String(),
	}).Info("journal entry posted")
	h.writeJSON(w, http.StatusCreated, toEntryDTO(posted))
}

// ReverseEntry posts the reversing entry for a posted entry.
func (h *Handler) ReverseEntry(w http.ResponseWriter, r *http.Request) {
	id := ledger.EntryID(chi.URLParam(r, "id"))
	var req ReverseEntryRequest
	if !h.decode(w, r, &req) {
		return
	}
	date, err := ledger.ParseDate(req.Date)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid date (use YYYY-MM-DD)", err)
		return
	}

	original, err := h.Store.GetEntry(r.Context(), h.org(r), id)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to load entry", err)
		return
	}
	if original == nil {
		h.writeError(w, http.StatusNotFound, "Entry not found", nil)
		return
	}

	posted, err := h.Ledger.PostEntry(r.Context(), ledger.Reverse(*original, date))
	if err != nil {
		h.writePostError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toEntryDTO(posted))
}

// GetTrialBalance returns the trial balance as of a date, with the
// accounting identity verified server-side.
func (h *Handler) GetTrialBalance(w http.ResponseWriter, r *http.Request) {
	asOf, ok := h.dateParam(w, r, "as_of")
	if !ok {
		return
	}

	rows, err := h.Ledger.TrialBalance(r.Context(), h.org(r), asOf)
	if err != nil {
		if errors.Is(err, ledger.ErrLedgerIntegrity) {
			h.writeError(w, http.StatusInternalServerError, "Ledger integrity violation", err)
			return
		}
		h.writeError(w, http.StatusInternalServerError, "Failed to compute trial balance", err)
		return
	}

	totalDebits, totalCredits := ledger.ZeroAmount(), ledger.ZeroAmount()
	for _, row := range rows {
		totalDebits = totalDebits.Add(row.DebitTotal)
		totalCredits = totalCredits.Add(row.CreditTotal)
	}
	h.writeJSON(w, http.StatusOK, TrialBalanceDTO{
		AsOf:        asOf.String(),
		Rows:        toTrialBalanceRowDTOs(rows),
		TotalDebits: totalDebits.String(),
		TotalCredit: totalCredits.String(),
	})
}

// =============================================================================
// PERIOD HANDLERS
// =============================================================================

// ListPeriods returns all fiscal periods for the org.
func (h *Handler) ListPeriods(w http.ResponseWriter, r *http.Request) {
	periods, err := h.Store.ListPeriods(r.Context(), h.org(r))
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to list periods", err)
		return
	}
	dtos := make([]PeriodDTO, len(periods))
	for i, p := range periods {
		dtos[i] = toPeriodDTO(p)
	}
	h.writeJSON(w, http.StatusOK, dtos)
}

// GeneratePeriods creates the twelve monthly periods of a financial year.
func (h *Handler) GeneratePeriods(w http.ResponseWriter, r *http.Request) {
	var req GeneratePeriodsRequest
	if !h.decode(w, r, &req) {
		return
	}

	created, err := h.Periods.GeneratePeriods(r.Context(), h.org(r), req.FinancialYear)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Failed to generate periods", err)
		return
	}
	dtos := make([]PeriodDTO, len(created))
	for i, p := range created {
		dtos[i] = toPeriodDTO(p)
	}
	h.writeJSON(w, http.StatusCreated, dtos)
}

// ClosePeriod closes a fiscal period: trial balance snapshot, depreciation
// batch, then the status flip.
func (h *Handler) ClosePeriod(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	result, err := h.Periods.ClosePeriod(r.Context(), h.org(r), id)
	if err != nil {
		switch {
		case errors.Is(err, period.ErrPeriodNotFound):
			h.writeError(w, http.StatusNotFound, "Period not found", err)
		case errors.Is(err, period.ErrAlreadyClosed):
			h.writeError(w, http.StatusConflict, "Period already closed", err)
		case errors.Is(err, ledger.ErrLedgerIntegrity):
			h.writeError(w, http.StatusInternalServerError, "Ledger integrity violation, close refused", err)
		default:
			h.writeError(w, http.StatusInternalServerError, "Failed to close period", err)
		}
		return
	}

	h.Log.WithFields(logrus.Fields{
		"period":           result.Period.Name,
		"org":              result.Period.Org,
		"depreciation_run": result.DepreciationRun,
	}).Info("fiscal period closed")
	h.writeJSON(w, http.StatusOK, ClosePeriodResponse{
		Period:          toPeriodDTO(result.Period),
		TrialBalance:    toTrialBalanceRowDTOs(result.TrialBalance),
		DepreciationRun: result.DepreciationRun,
		BatchTag:        result.DepreciationTail,
	})
}

// CreateAsset registers a depreciable asset.
func (h *Handler) CreateAsset(w http.ResponseWriter, r *http.Request) {
	var req CreateAssetRequest
	if !h.decode(w, r, &req) {
		return
	}
	asset, err := toAsset(h.org(r), req)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid asset payload", err)
		return
	}
	if err := h.Store.SaveAsset(r.Context(), asset); err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to save asset", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, AssetDTO{
		ID:         asset.ID,
		Name:       asset.Name,
		AcquiredAt: asset.AcquiredAt.String(),
		Cost:       asset.Cost.String(),
		Salvage:    asset.Salvage.String(),
		LifeMonths: asset.LifeMonths,
	})
}

// ListAssets returns the registered assets.
func (h *Handler) ListAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := h.Store.ListAssets(r.Context(), h.org(r))
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to list assets", err)
		return
	}
	dtos := make([]AssetDTO, len(assets))
	for i, a := range assets {
		dtos[i] = AssetDTO{
			ID:         a.ID,
			Name:       a.Name,
			AcquiredAt: a.AcquiredAt.String(),
			Cost:       a.Cost.String(),
			Salvage:    a.Salvage.String(),
			LifeMonths: a.LifeMonths,
		}
	}
	h.writeJSON(w, http.StatusOK, dtos)
}

// RunDepreciation triggers the depreciation batch for a date. Idempotent:
// re-running reports ran=false.
func (h *Handler) RunDepreciation(w http.ResponseWriter, r *http.Request) {
	var req RunDepreciationRequest
	if !h.decode(w, r, &req) {
		return
	}
	asOf, err := ledger.ParseDate(req.AsOf)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid as_of date (use YYYY-MM-DD)", err)
		return
	}

	ran, tag, err := h.Periods.RunDepreciationBatch(r.Context(), h.org(r), asOf)
	if err != nil {
		h.writePostError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, RunDepreciationResponse{Ran: ran, BatchTag: tag})
}

// =============================================================================
// RECONCILIATION HANDLERS
// =============================================================================

// RunReconciliation snapshots the named modules (default: all) against the
// GL as of a date.
func (h *Handler) RunReconciliation(w http.ResponseWriter, r *http.Request) {
	var req RunReconciliationRequest
	if !h.decode(w, r, &req) {
		return
	}
	asOf, err := ledger.ParseDate(req.AsOf)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid as_of date (use YYYY-MM-DD)", err)
		return
	}

	modules := make([]reconcile.Module, len(req.Modules))
	for i, m := range req.Modules {
		modules[i] = reconcile.Module(m)
	}

	results, err := h.Reconciler.Reconcile(r.Context(), h.org(r), asOf, modules...)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Reconciliation failed", err)
		return
	}
	dtos := make([]ReconciliationRecordDTO, len(results))
	for i, rec := range results {
		dtos[i] = toReconciliationRecordDTO(rec)
		if !rec.IsReconciled {
			h.Log.WithFields(logrus.Fields{
				"module":   rec.Module,
				"org":      rec.Org,
				"variance": rec.Variance.String(),
			}).Warn("reconciliation variance")
		}
	}
	h.writeJSON(w, http.StatusOK, dtos)
}

// ListReconciliationRecords returns reconciliation history, newest first.
func (h *Handler) ListReconciliationRecords(w http.ResponseWriter, r *http.Request) {
	module := reconcile.Module(r.URL.Query().Get("module"))
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		parsed, err := strconv.Atoi(s)
		if err != nil || parsed < 0 {
			h.writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = parsed
	}

	recs, err := h.Store.ListRecords(r.Context(), h.org(r), module, limit)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to list records", err)
		return
	}
	dtos := make([]ReconciliationRecordDTO, len(recs))
	for i, rec := range recs {
		dtos[i] = toReconciliationRecordDTO(rec)
	}
	h.writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// SUB-LEDGER RECORD HANDLERS
// =============================================================================

// CreateInvoice loads an invoice into the receivables sub-ledger.
func (h *Handler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req CreateInvoiceRequest
	if !h.decode(w, r, &req) {
		return
	}
	inv, err := toInvoice(h.org(r), req)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid invoice payload", err)
		return
	}
	if err := h.Store.SaveInvoice(r.Context(), inv); err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to save invoice", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]string{"id": inv.ID})
}

// CreateBill loads a bill into the payables sub-ledger.
func (h *Handler) CreateBill(w http.ResponseWriter, r *http.Request) {
	var req CreateBillRequest
	if !h.decode(w, r, &req) {
		return
	}
	bill, err := toBill(h.org(r), req)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid bill payload", err)
		return
	}
	if err := h.Store.SaveBill(r.Context(), bill); err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to save bill", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]string{"id": bill.ID})
}

// CreateBankTransaction loads a bank statement line.
func (h *Handler) CreateBankTransaction(w http.ResponseWriter, r *http.Request) {
	var req CreateBankTransactionRequest
	if !h.decode(w, r, &req) {
		return
	}
	tx, err := toBankTransaction(h.org(r), req)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid bank transaction payload", err)
		return
	}
	if err := h.Store.SaveBankTransaction(r.Context(), tx); err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to save bank transaction", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]string{"id": tx.ID})
}

// CreatePayrollRecord loads one employee-month of payroll.
func (h *Handler) CreatePayrollRecord(w http.ResponseWriter, r *http.Request) {
	var req CreatePayrollRequest
	if !h.decode(w, r, &req) {
		return
	}
	rec, err := toPayrollRecord(h.org(r), req)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid payroll payload", err)
		return
	}
	if err := h.Store.SavePayrollRecord(r.Context(), rec); err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to save payroll record", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]string{"id": rec.ID})
}

// =============================================================================
// STATUTORY HANDLERS
// =============================================================================

// CompileStatutory resolves the reporting range (fy plus optional month or
// quarter) and dispatches to the form compiler.
func (h *Handler) CompileStatutory(w http.ResponseWriter, r *http.Request) {
	form := statutory.Form(chi.URLParam(r, "form"))
	fy := r.URL.Query().Get("fy")
	if fy == "" {
		h.writeError(w, http.StatusBadRequest, "Missing fy query parameter (e.g. 2024-2025)", nil)
		return
	}

	rng, err := h.resolveRange(r, fy)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid reporting range", err)
		return
	}

	ctx := r.Context()
	org := h.org(r)
	var payload any
	switch form {
	case statutory.FormGSTR1:
		rows, cerr := h.Compiler.GSTR1(ctx, org, rng)
		payload, err = toGSTR1RowDTOs(rows), cerr
	case statutory.FormGSTR3B:
		summary, cerr := h.Compiler.GSTR3B(ctx, org, rng)
		payload, err = toGSTR3BDTO(summary), cerr
	case statutory.FormTDS24Q:
		rows, cerr := h.Compiler.TDS24Q(ctx, org, rng)
		payload, err = toTDSRowDTOs(rows), cerr
	case statutory.FormTDS26Q:
		rows, cerr := h.Compiler.TDS26Q(ctx, org, rng)
		payload, err = toTDSRowDTOs(rows), cerr
	case statutory.FormPFECR:
		rows, cerr := h.Compiler.PFECR(ctx, org, rng)
		payload, err = toPFRowDTOs(rows), cerr
	case statutory.FormESI:
		rows, cerr := h.Compiler.ESI(ctx, org, rng)
		payload, err = toESIRowDTOs(rows), cerr
	case statutory.FormPT:
		rows, cerr := h.Compiler.ProfessionalTax(ctx, org, rng)
		payload, err = toPTRowDTOs(rows), cerr
	default:
		h.writeError(w, http.StatusNotFound, "Unknown statutory form", nil)
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to compile report", err)
		return
	}
	h.writeJSON(w, http.StatusOK, payload)
}

// resolveRange maps fy + optional month/quarter to a concrete date range.
// Month indexes follow the fiscal calendar (1 = April).
func (h *Handler) resolveRange(r *http.Request, fy string) (period.Range, error) {
	if s := r.URL.Query().Get("month"); s != "" {
		month, err := strconv.Atoi(s)
		if err != nil {
			return period.Range{}, err
		}
		return period.MonthRange(fy, month)
	}
	if s := r.URL.Query().Get("quarter"); s != "" {
		quarter, err := strconv.Atoi(s)
		if err != nil {
			return period.Range{}, err
		}
		return period.QuarterRange(fy, quarter)
	}
	return period.FinancialYearRange(fy)
}

// =============================================================================
// COMPLIANCE HANDLERS
// =============================================================================

// RunCompliance executes a full compliance run for a financial year.
func (h *Handler) RunCompliance(w http.ResponseWriter, r *http.Request) {
	var req RunComplianceRequest
	if !h.decode(w, r, &req) {
		return
	}

	run, err := h.Audit.RunAudit(r.Context(), h.org(r), req.FinancialYear)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Compliance run failed", err)
		return
	}
	h.Log.WithFields(logrus.Fields{
		"org":              run.Org,
		"financial_year":   run.FinancialYear,
		"version":          run.Version,
		"compliance_score": run.ComplianceScore,
		"ai_risk_index":    run.AIRiskIndex,
		"ifc_rating":       run.IFCRating,
	}).Info("compliance run completed")
	h.writeJSON(w, http.StatusCreated, toComplianceRunDTO(*run))
}

// ListComplianceRuns returns all stored runs for the org.
func (h *Handler) ListComplianceRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.Store.ListRuns(r.Context(), h.org(r))
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to list runs", err)
		return
	}
	dtos := make([]ComplianceRunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = toComplianceRunDTO(run)
	}
	h.writeJSON(w, http.StatusOK, dtos)
}

// GetLatestComplianceRun returns the authoritative (highest-version) run
// for an FY.
func (h *Handler) GetLatestComplianceRun(w http.ResponseWriter, r *http.Request) {
	fy := r.URL.Query().Get("fy")
	if fy == "" {
		h.writeError(w, http.StatusBadRequest, "Missing fy query parameter", nil)
		return
	}
	run, err := h.Store.LatestRun(r.Context(), h.org(r), fy)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to load run", err)
		return
	}
	if run == nil {
		h.writeError(w, http.StatusNotFound, "No compliance run for this financial year", nil)
		return
	}
	h.writeJSON(w, http.StatusOK, toComplianceRunDTO(*run))
}

// =============================================================================
// HELPERS
// =============================================================================

// decode parses and validates a JSON request body. Writes the error response
// itself; callers just bail on false.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		h.writeError(w, http.StatusBadRequest, "Validation failed", err)
		return false
	}
	return true
}

// dateParam reads a required date query parameter, defaulting to today.
func (h *Handler) dateParam(w http.ResponseWriter, r *http.Request, name string) (ledger.Date, bool) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return ledger.Today(), true
	}
	d, err := ledger.ParseDate(s)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid "+name+" date (use YYYY-MM-DD)", err)
		return ledger.Date{}, false
	}
	return d, true
}

// writePostError maps posting failures onto HTTP statuses.
func (h *Handler) writePostError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrClosedPeriod):
		h.writeError(w, http.StatusConflict, "Entry date falls in a closed period", err)
	case errors.Is(err, ledger.ErrDuplicateBatch), errors.Is(err, ledger.ErrDuplicateEntry):
		h.writeError(w, http.StatusConflict, "Duplicate entry", err)
	case errors.Is(err, ledger.ErrAccountNotFound):
		h.writeError(w, http.StatusNotFound, "Account not found", err)
	case errors.Is(err, ledger.ErrUnbalancedEntry),
		errors.Is(err, ledger.ErrEmptyEntry),
		errors.Is(err, ledger.ErrInvalidLine):
		h.writeError(w, http.StatusUnprocessableEntity, "Entry violates double-entry rules", err)
	default:
		h.writeError(w, http.StatusInternalServerError, "Failed to post entry", err)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Log.WithError(err).Error("failed to encode response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
		if status >= 500 {
			h.Log.WithError(err).Error(message)
		}
	}
	h.writeJSON(w, status, resp)
}
