/*
handlers.go - HTTP handlers for employees, periods, requests and movements

PURPOSE:

	Exposes the vacation engine via REST. Handlers parse and validate the
	request, delegate to the services, and map domain errors to status
	codes. No business logic lives here.

ENDPOINTS:

	Employees:
	  GET    /api/employees                      List
	  POST   /api/employees                      Create
	  GET    /api/employees/{id}                 Get with periods
	  PUT    /api/employees/{id}                 Update (hire date locked)
	  DELETE /api/employees/{id}                 Delete

	Periods & requests:
	  GET    /api/employees/{id}/periods         List balances
	  POST   /api/employees/{id}/periods         Open next period
	  POST   /api/employees/{id}/requests/evaluate  Dry-run decision
	  POST   /api/employees/{id}/requests        Apply request
	  POST   /api/employees/{id}/agreements     Apply cross-period request
	  POST   /api/periods/{id}/recompute         Replay one period
	  POST   /api/reconcile                      Global reconciliation

	Movements:
	  POST   /api/movements/adjustments          Manual AJUSTE
	  PATCH  /api/movements/{id}                 Correct date range
	  DELETE /api/movements/{id}                 Delete + replay

	Agreements:
	  GET    /api/agreements                     List (?employee_id=)
	  GET    /api/agreements/{id}                Get
	  PATCH  /api/agreements/{id}                Signature status
	  GET    /api/agreements/{id}/document       Rendered letter

ERROR MAPPING:

	400 invalid input / range, 404 not found, 409 hire-date lock or
	duplicate, 422 insufficient balance, 500 otherwise.

SEE ALSO:
  - loans.go: loan endpoints
  - export.go: xlsx reports
  - documents.go: letter rendering
*/
package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/warp/hr-backend/service"
	"github.com/warp/hr-backend/store"
	"github.com/warp/hr-backend/vacation"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds every dependency the HTTP layer needs.
type Handler struct {
	Employees *service.EmployeeService
	Vacations *service.VacationService
	Loans     *service.LoanService

	Agreements store.AgreementRepository
	Documents  store.DocumentRepository
	Renderer   DocumentRenderer

	Log logrus.FieldLogger
}

func NewHandler(db *gorm.DB, log logrus.FieldLogger, documentDir string) *Handler {
	return &Handler{
		Employees:  service.NewEmployeeService(db, log),
		Vacations:  service.NewVacationService(db, log),
		Loans:      service.NewLoanService(db, log),
		Agreements: store.NewGormAgreementRepository(db),
		Documents:  store.NewGormDocumentRepository(db),
		Renderer:   NewTemplateRenderer(documentDir),
		Log:        log,
	}
}

func idParam(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	return uint(id), err
}

// writeDomainError translates service errors into HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	var ib *vacation.InsufficientBalanceError
	var verr *vacation.ValidationError
	switch {
	case errors.Is(err, vacation.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		writeError(w, http.StatusNotFound, "Not found", err)
	case errors.As(err, &ib), errors.Is(err, vacation.ErrInsufficientBalance):
		writeError(w, http.StatusUnprocessableEntity, "Insufficient balance", err)
	case errors.Is(err, vacation.ErrHireDateLocked):
		writeError(w, http.StatusConflict, "Hire date is locked", err)
	case errors.Is(err, vacation.ErrInvalidRange), errors.Is(err, vacation.ErrInvalidLabel):
		writeError(w, http.StatusBadRequest, "Invalid input", err)
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, "Invalid input", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Employees.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}
	writeJSON(w, http.StatusOK, employees)
}

func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if !decode(w, r, &req) {
		return
	}

	emp := &store.Employee{
		DNI:      req.DNI,
		Name:     req.Name,
		Position: req.Position,
		Address:  req.Address,
	}
	if req.HireDate != "" {
		hd, err := parseDate(req.HireDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid hire_date", err)
			return
		}
		hd = vacation.Day(hd)
		emp.HireDate = &hd
	}

	if err := h.Employees.Create(emp); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, emp)
}

func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid employee id", err)
		return
	}
	emp, err := h.Employees.Get(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, emp)
}

func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid employee id", err)
		return
	}
	var req UpdateEmployeeRequest
	if !decode(w, r, &req) {
		return
	}

	changes := &store.Employee{Name: req.Name, Position: req.Position, Address: req.Address}
	if req.HireDate != "" {
		hd, err := parseDate(req.HireDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid hire_date", err)
			return
		}
		changes.HireDate = &hd
	}

	emp, err := h.Employees.Update(id, changes)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, emp)
}

func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid employee id", err)
		return
	}
	if err := h.Employees.Delete(id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// PERIOD HANDLERS
// =============================================================================

func (h *Handler) ListPeriods(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid employee id", err)
		return
	}
	emp, err := h.Employees.Get(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, emp.Periods)
}

func (h *Handler) CreatePeriod(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid employee id", err)
		return
	}
	var req CreatePeriodRequest
	if !decode(w, r, &req) {
		return
	}
	period, err := h.Vacations.CreatePeriod(id, req.YearOffset)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, period)
}

func (h *Handler) RecomputePeriod(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period id", err)
		return
	}
	if err := h.Vacations.RecomputePeriod(id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	var req ReconcileRequest
	if !decode(w, r, &req) {
		return
	}
	asOf := time.Now()
	if req.AsOf != "" {
		var err error
		asOf, err = parseDate(req.AsOf)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid as_of", err)
			return
		}
	}
	n, err := h.Vacations.ReconcileAll(asOf)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Reconciliation failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"periods_updated": n})
}

// =============================================================================
// REQUEST HANDLERS
// =============================================================================

func (h *Handler) EvaluateRequest(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid employee id", err)
		return
	}
	var req VacationRequest
	if !decode(w, r, &req) {
		return
	}
	rng, err := req.Range()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid dates", err)
		return
	}
	decision, err := h.Vacations.EvaluateRequest(id, rng, req.PeriodID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, decision)
}

func (h *Handler) ApplyRequest(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid employee id", err)
		return
	}
	var req VacationRequest
	if !decode(w, r, &req) {
		return
	}
	rng, err := req.Range()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid dates", err)
		return
	}
	result, err := h.Vacations.ApplyRequest(id, rng, req.PeriodID, req.Description)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// CreateAgreement applies a request that must accumulate days across two
// periods. Single-period requests are rejected without touching the ledger.
func (h *Handler) CreateAgreement(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid employee id", err)
		return
	}
	var req VacationRequest
	if !decode(w, r, &req) {
		return
	}
	rng, err := req.Range()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid dates", err)
		return
	}
	result, err := h.Vacations.ApplyAgreementRequest(id, rng, req.PeriodID, req.Description)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// =============================================================================
// MOVEMENT HANDLERS
// =============================================================================

func (h *Handler) CreateAdjustment(w http.ResponseWriter, r *http.Request) {
	var req AdjustmentRequest
	if !decode(w, r, &req) {
		return
	}
	mov, err := h.Vacations.RegisterAdjustment(req.PeriodID, req.Days)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, mov)
}

func (h *Handler) UpdateMovement(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid movement id", err)
		return
	}
	var req UpdateMovementRequest
	if !decode(w, r, &req) {
		return
	}
	start, err := parseDate(req.RangeStart)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid range_start", err)
		return
	}
	end, err := parseDate(req.RangeEnd)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid range_end", err)
		return
	}
	if err := h.Vacations.UpdateMovementRange(id, start, end); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeleteMovement(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid movement id", err)
		return
	}
	if err := h.Vacations.DeleteMovement(id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// AGREEMENT HANDLERS
// =============================================================================

func (h *Handler) ListAgreements(w http.ResponseWriter, r *http.Request) {
	var (
		agreements []store.Agreement
		err        error
	)
	if v := r.URL.Query().Get("employee_id"); v != "" {
		employeeID, perr := strconv.ParseUint(v, 10, 32)
		if perr != nil {
			writeError(w, http.StatusBadRequest, "Invalid employee_id", perr)
			return
		}
		agreements, err = h.Agreements.ListByEmployee(uint(employeeID))
	} else {
		agreements, err = h.Agreements.List()
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list agreements", err)
		return
	}
	writeJSON(w, http.StatusOK, agreements)
}

func (h *Handler) GetAgreement(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid agreement id", err)
		return
	}
	agreement, err := h.Agreements.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get agreement", err)
		return
	}
	if agreement == nil {
		writeError(w, http.StatusNotFound, "Agreement not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, agreement)
}

// UpdateAgreementSignature tracks whether the printed convenio came back
// signed. Only the signature status is editable after creation.
func (h *Handler) UpdateAgreementSignature(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid agreement id", err)
		return
	}
	var req AgreementSignatureRequest
	if !decode(w, r, &req) {
		return
	}
	agreement, err := h.Agreements.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get agreement", err)
		return
	}
	if agreement == nil {
		writeError(w, http.StatusNotFound, "Agreement not found", nil)
		return
	}
	agreement.SignatureStatus = req.SignatureStatus
	if err := h.Agreements.Save(agreement); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update agreement", err)
		return
	}
	writeJSON(w, http.StatusOK, agreement)
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
