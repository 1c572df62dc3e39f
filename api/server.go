/*
server.go - HTTP router and middleware configuration

PURPOSE:

	Configures the chi router, middleware stack, and route definitions.
	This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
 1. Logger:     Request logging
 2. Recoverer:  Panic recovery (500 instead of crash)
 3. RequestID:  Unique ID per request for tracing
 4. CORS:       Cross-origin requests for the frontend
 5. Auth:       Session cookie guard on everything but /healthz and login

ROUTE GROUPS:

	/api/employees/*     Employees, periods, requests
	/api/movements/*     Ledger corrections
	/api/agreements/*    Convenios and their letters
	/api/loans/*         Loans, amortizations, month close, export
	/api/reports/*       Vacation report

SEE ALSO:
  - handlers.go: vacation handler implementations
  - loans.go, export.go, documents.go
  - cmd/server/main.go: server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates the router with all routes configured.
func NewRouter(h *Handler, auth *Auth) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", h.Healthz)
	r.Post("/api/login", auth.Login)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware)

		r.Post("/api/logout", auth.Logout)

		r.Route("/api/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{id}", h.GetEmployee)
			r.Put("/{id}", h.UpdateEmployee)
			r.Delete("/{id}", h.DeleteEmployee)

			r.Get("/{id}/periods", h.ListPeriods)
			r.Post("/{id}/periods", h.CreatePeriod)
			r.Post("/{id}/requests/evaluate", h.EvaluateRequest)
			r.Post("/{id}/requests", h.ApplyRequest)
			r.Post("/{id}/agreements", h.CreateAgreement)
		})

		r.Route("/api/periods", func(r chi.Router) {
			r.Post("/{id}/recompute", h.RecomputePeriod)
		})
		r.Post("/api/reconcile", h.Reconcile)

		r.Route("/api/movements", func(r chi.Router) {
			r.Post("/adjustments", h.CreateAdjustment)
			r.Patch("/{id}", h.UpdateMovement)
			r.Delete("/{id}", h.DeleteMovement)
		})

		r.Route("/api/agreements", func(r chi.Router) {
			r.Get("/", h.ListAgreements)
			r.Get("/{id}", h.GetAgreement)
			r.Patch("/{id}", h.UpdateAgreementSignature)
			r.Get("/{id}/document", h.GetAgreementDocument)
		})

		r.Route("/api/loans", func(r chi.Router) {
			r.Get("/", h.ListLoans)
			r.Post("/", h.CreateLoan)
			r.Get("/export", h.ExportLoans)
			r.Post("/schedule/preview", h.PreviewSchedule)
			r.Post("/close-month", h.CloseMonth)
			r.Post("/reopen-month", h.ReopenMonth)
			r.Get("/{id}", h.GetLoan)
			r.Delete("/{id}", h.DeleteLoan)
			r.Post("/{id}/amortizations", h.AmortizeLoan)
			r.Get("/{id}/document", h.GetLoanDocument)
			r.Get("/{id}/documents", h.ListLoanDocuments)
		})

		r.Get("/api/reports/vacations", h.ExportVacations)
	})

	return r
}
