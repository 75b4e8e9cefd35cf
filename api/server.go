/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for dashboards

ROUTE GROUPS:
  /api/accounts/*        Chart of accounts and balances
  /api/entries/*         Journal posting and history
  /api/periods/*         Fiscal period lifecycle
  /api/reconciliation/*  Control account reconciliation
  /api/records/*         Sub-ledger record loading
  /api/statutory/*       Statutory report compilation
  /api/compliance/*      Compliance run engine

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public; deploy
  behind a gateway that handles auth.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Chart of accounts
		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", h.ListAccounts)
			r.Post("/", h.CreateAccount)
			r.Get("/{code}/balance", h.GetAccountBalance)
		})

		// Journal
		r.Route("/entries", func(r chi.Router) {
			r.Get("/", h.ListEntries)
			r.Post("/", h.PostEntry)
			r.Post("/{id}/reverse", h.ReverseEntry)
		})
		r.Get("/trial-balance", h.GetTrialBalance)

		// Fiscal periods and depreciation
		r.Route("/periods", func(r chi.Router) {
			r.Get("/", h.ListPeriods)
			r.Post("/generate", h.GeneratePeriods)
			r.Post("/{id}/close", h.ClosePeriod)
		})
		r.Route("/assets", func(r chi.Router) {
			r.Get("/", h.ListAssets)
			r.Post("/", h.CreateAsset)
		})
		r.Post("/depreciation/run", h.RunDepreciation)

		// Reconciliation
		r.Route("/reconciliation", func(r chi.Router) {
			r.Post("/run", h.RunReconciliation)
			r.Get("/records", h.ListReconciliationRecords)
		})

		// Sub-ledger records
		r.Route("/records", func(r chi.Router) {
			r.Post("/invoices", h.CreateInvoice)
			r.Post("/bills", h.CreateBill)
			r.Post("/bank-transactions", h.CreateBankTransaction)
			r.Post("/payroll", h.CreatePayrollRecord)
		})

		// Statutory reports
		r.Get("/statutory/{form}", h.CompileStatutory)

		// Admin
		r.Post("/admin/seed", h.SeedDemo)

		// Compliance runs
		r.Route("/compliance", func(r chi.Router) {
			r.Post("/runs", h.RunCompliance)
			r.Get("/runs", h.ListComplianceRuns)
			r.Get("/runs/latest", h.GetLatestComplianceRun)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return r
}
