/*
dto.go - Request/response data structures

All request DTOs carry validator tags; Handler.decode runs the shared
validator after JSON decoding so handlers only ever see valid input.
Dates travel as "2006-01-02" strings on the wire.
*/
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/warp/hr-backend/vacation"
)

var validate = validator.New()

const dateLayout = "2006-01-02"

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// EMPLOYEES
// =============================================================================

type CreateEmployeeRequest struct {
	DNI      string `json:"dni" validate:"required,min=8,max=12,alphanum"`
	Name     string `json:"name" validate:"required,max=120"`
	Position string `json:"position" validate:"max=120"`
	Address  string `json:"address" validate:"max=200"`
	HireDate string `json:"hire_date" validate:"omitempty,datetime=2006-01-02"`
}

type UpdateEmployeeRequest struct {
	Name     string `json:"name" validate:"omitempty,max=120"`
	Position string `json:"position" validate:"omitempty,max=120"`
	Address  string `json:"address" validate:"omitempty,max=200"`
	HireDate string `json:"hire_date" validate:"omitempty,datetime=2006-01-02"`
}

// =============================================================================
// PERIODS & REQUESTS
// =============================================================================

type CreatePeriodRequest struct {
	YearOffset int `json:"year_offset" validate:"min=0,max=60"`
}

type VacationRequest struct {
	StartDate   string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate     string `json:"end_date" validate:"required,datetime=2006-01-02"`
	PeriodID    *uint  `json:"period_id,omitempty"`
	Description string `json:"description" validate:"max=500"`
}

func (r VacationRequest) Range() (vacation.DateRange, error) {
	start, err := time.Parse(dateLayout, r.StartDate)
	if err != nil {
		return vacation.DateRange{}, err
	}
	end, err := time.Parse(dateLayout, r.EndDate)
	if err != nil {
		return vacation.DateRange{}, err
	}
	return vacation.NewDateRange(start, end), nil
}

type UpdateMovementRequest struct {
	RangeStart string `json:"range_start" validate:"required,datetime=2006-01-02"`
	RangeEnd   string `json:"range_end" validate:"required,datetime=2006-01-02"`
}

type AgreementSignatureRequest struct {
	SignatureStatus string `json:"signature_status" validate:"required,oneof=Pendiente Firmado"`
}

type AdjustmentRequest struct {
	PeriodID uint `json:"period_id" validate:"required"`
	Days     int  `json:"days" validate:"required"`
}

type ReconcileRequest struct {
	AsOf string `json:"as_of" validate:"omitempty,datetime=2006-01-02"`
}

// =============================================================================
// LOANS
// =============================================================================

type InstallmentLine struct {
	Label           string `json:"label" validate:"max=40"`
	Year            int    `json:"year" validate:"omitempty,min=2000,max=2100"`
	Month           int    `json:"month" validate:"omitempty,min=1,max=12"`
	IsGratification bool   `json:"is_gratification"`
	Amount          string `json:"amount" validate:"required"`
}

type CreateLoanRequest struct {
	EmployeeID    uint              `json:"employee_id" validate:"required"`
	Type          string            `json:"type" validate:"required,max=80"`
	Reason        string            `json:"reason" validate:"max=200"`
	RequestDate   string            `json:"request_date" validate:"required,datetime=2006-01-02"`
	SigningDate   string            `json:"signing_date" validate:"required,datetime=2006-01-02"`
	TotalAmount   string            `json:"total_amount" validate:"required"`
	Installments  int               `json:"installments" validate:"required,min=1,max=60"`
	IncludeGrati  bool              `json:"include_gratification"`
	GratiFromYear int               `json:"gratification_from_year" validate:"omitempty,min=2000,max=2100"`
	StartMonth    int               `json:"start_month" validate:"omitempty,min=1,max=12"`
	StartYear     int               `json:"start_year" validate:"omitempty,min=2000,max=2100"`
	Custom        []InstallmentLine `json:"custom_schedule,omitempty" validate:"dive"`
}

type AmortizeRequest struct {
	Amount string `json:"amount" validate:"required"`
	Note   string `json:"note" validate:"max=200"`
}

type MonthRequest struct {
	Year       int    `json:"year" validate:"required,min=2000,max=2100"`
	Month      int    `json:"month" validate:"required,min=1,max=12"`
	DeductedAt string `json:"deducted_at" validate:"omitempty,datetime=2006-01-02"`
}

// =============================================================================
// AUTH
// =============================================================================

type LoginRequest struct {
	Username string `json:"username" validate:"required,max=80"`
	Password string `json:"password" validate:"required,max=100"`
}

// =============================================================================
// HELPERS
// =============================================================================

// decode parses the JSON body into dst and validates it. A false return
// means the error response has already been written.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return false
	}
	return true
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	return time.Parse(dateLayout, s)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
