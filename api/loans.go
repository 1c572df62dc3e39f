/*
loans.go - Loan endpoints

Issue, preview, amortize, month close/reopen. Amounts cross the wire as
strings and are parsed into decimals here; the services never see raw
float input.
*/
package api

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/hr-backend/loans"
	"github.com/warp/hr-backend/service"
)

func (h *Handler) loanInputFromRequest(req CreateLoanRequest, user string) (service.LoanInput, error) {
	total, err := decimal.NewFromString(req.TotalAmount)
	if err != nil {
		return service.LoanInput{}, err
	}
	requestDate, err := parseDate(req.RequestDate)
	if err != nil {
		return service.LoanInput{}, err
	}
	signingDate, err := parseDate(req.SigningDate)
	if err != nil {
		return service.LoanInput{}, err
	}

	in := service.LoanInput{
		EmployeeID:    req.EmployeeID,
		Type:          req.Type,
		Reason:        req.Reason,
		RequestDate:   requestDate,
		SigningDate:   signingDate,
		TotalAmount:   total,
		Installments:  req.Installments,
		IncludeGrati:  req.IncludeGrati,
		GratiFromYear: req.GratiFromYear,
		StartMonth:    time.Month(req.StartMonth),
		StartYear:     req.StartYear,
		CreatedBy:     user,
	}
	for _, line := range req.Custom {
		amount, err := decimal.NewFromString(line.Amount)
		if err != nil {
			return service.LoanInput{}, err
		}
		in.Custom = append(in.Custom, loans.ScheduleLine{
			Label:           line.Label,
			Year:            line.Year,
			Month:           time.Month(line.Month),
			IsGratification: line.IsGratification,
			Amount:          amount,
		})
	}
	return in, nil
}

// =============================================================================
// LOAN CRUD
// =============================================================================

func (h *Handler) ListLoans(w http.ResponseWriter, r *http.Request) {
	out, err := h.Loans.ListLoans(r.URL.Query().Get("dni"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list loans", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var req CreateLoanRequest
	if !decode(w, r, &req) {
		return
	}
	in, err := h.loanInputFromRequest(req, currentUser(r))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid loan input", err)
		return
	}
	loan, err := h.Loans.CreateLoan(in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, loan)
}

func (h *Handler) GetLoan(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid loan id", err)
		return
	}
	loan, err := h.Loans.GetLoan(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loan)
}

// ListLoanDocuments returns the generated letters on record for a loan.
func (h *Handler) ListLoanDocuments(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid loan id", err)
		return
	}
	if _, err := h.Loans.GetLoan(id); err != nil {
		writeDomainError(w, err)
		return
	}
	docs, err := h.Documents.ListByLoan(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list documents", err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

func (h *Handler) DeleteLoan(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid loan id", err)
		return
	}
	if err := h.Loans.DeleteLoan(id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PreviewSchedule computes the installment plan without persisting it.
// POST /api/loans/schedule/preview
func (h *Handler) PreviewSchedule(w http.ResponseWriter, r *http.Request) {
	var req CreateLoanRequest
	if !decode(w, r, &req) {
		return
	}
	in, err := h.loanInputFromRequest(req, currentUser(r))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid loan input", err)
		return
	}
	lines, err := h.Loans.PreviewSchedule(in)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Could not build schedule", err)
		return
	}
	writeJSON(w, http.StatusOK, lines)
}

// =============================================================================
// AMORTIZATION & MONTH CLOSE
// =============================================================================

func (h *Handler) AmortizeLoan(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid loan id", err)
		return
	}
	var req AmortizeRequest
	if !decode(w, r, &req) {
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}
	loan, err := h.Loans.Amortize(id, amount, req.Note, currentUser(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loan)
}

func (h *Handler) CloseMonth(w http.ResponseWriter, r *http.Request) {
	var req MonthRequest
	if !decode(w, r, &req) {
		return
	}
	deductedAt := time.Now()
	if req.DeductedAt != "" {
		var err error
		deductedAt, err = parseDate(req.DeductedAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid deducted_at", err)
			return
		}
	}
	n, err := h.Loans.CloseMonth(req.Year, time.Month(req.Month), deductedAt)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Month close failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"installments_closed": n})
}

func (h *Handler) ReopenMonth(w http.ResponseWriter, r *http.Request) {
	var req MonthRequest
	if !decode(w, r, &req) {
		return
	}
	n, err := h.Loans.ReopenMonth(req.Year, time.Month(req.Month))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Month reopen failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"installments_reopened": n})
}
