/*
export.go - Excel reports

Loan report: one row per loan with its base fields plus one column per
schedule month, columns ordered from the current month forward and a
gratification column half a step before its month. Amortized
installments show as zero (they will never hit payroll); deducted ones
keep their amount as payroll history.

Vacation report: one row per period with its counters.
*/
package api

import (
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/warp/hr-backend/loans"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// scheduleColumn is one month (or gratification) column of the loan sheet.
type scheduleColumn struct {
	label string
	key   float64 // months from today; gratifications sort half a step early
}

func columnLabel(year, month int, grati bool) string {
	label := fmt.Sprintf("%s %02d", loans.MonthAbbr(time.Month(month)), year%100)
	if grati {
		return "grati " + label
	}
	return label
}

func columnKey(year, month int, grati bool, today time.Time) float64 {
	key := float64((year-today.Year())*12 + (month - int(today.Month())))
	if grati {
		key -= 0.5
	}
	return key
}

// ExportLoans writes the loan workbook.
// GET /api/loans/export
func (h *Handler) ExportLoans(w http.ResponseWriter, r *http.Request) {
	allLoans, err := h.Loans.ListLoans(r.URL.Query().Get("dni"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list loans", err)
		return
	}

	today := time.Now()

	// Collect the distinct schedule columns across every loan.
	colSet := map[string]scheduleColumn{}
	for _, loan := range allLoans {
		for _, inst := range loan.Schedule {
			if inst.Year == 0 || inst.Month == 0 {
				continue
			}
			label := columnLabel(inst.Year, inst.Month, inst.IsGratification)
			colSet[label] = scheduleColumn{
				label: label,
				key:   columnKey(inst.Year, inst.Month, inst.IsGratification, today),
			}
		}
	}
	columns := make([]scheduleColumn, 0, len(colSet))
	for _, c := range colSet {
		columns = append(columns, c)
	}
	sort.Slice(columns, func(i, j int) bool { return columns[i].key < columns[j].key })

	f := excelize.NewFile()
	const sheet = "Prestamos"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"DNI", "NOMBRE", "PRESTAMO", "MONTO TOTAL", "FECHA DE SOLICITUD", "AÑO"}
	for _, c := range columns {
		headers = append(headers, c.label)
	}
	headers = append(headers, "MONTO DE AMORTIZACIÓN", "FECHA DE AMORTIZACIÓN", "OBS DE AMORTIZACIÓN", "ESTADO")
	for i, hd := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, hd)
	}

	for rowIdx, loan := range allLoans {
		row := rowIdx + 2

		amortTotal := decimal.Zero
		var lastAmort *time.Time
		notes := ""
		for i := range loan.Amortizations {
			a := &loan.Amortizations[i]
			amortTotal = amortTotal.Add(a.Amount)
			if lastAmort == nil || a.Date.After(*lastAmort) {
				lastAmort = &a.Date
			}
			if a.Note != "" {
				if notes != "" {
					notes += "; "
				}
				notes += a.Note
			}
		}

		// Per-column amounts: amortized installments are zeroed.
		amounts := map[string]decimal.Decimal{}
		for _, inst := range loan.Schedule {
			if inst.Year == 0 || inst.Month == 0 {
				continue
			}
			label := columnLabel(inst.Year, inst.Month, inst.IsGratification)
			amount := inst.Amount
			if inst.State == loans.StateAmortized || inst.State == loans.StateVoided {
				amount = decimal.Zero
			}
			amounts[label] = amounts[label].Add(amount)
		}

		values := []any{
			loan.Employee.DNI,
			loan.Employee.Name,
			loan.Type,
			loan.TotalAmount.InexactFloat64(),
			loan.RequestDate.Format(dateLayout),
			loan.RequestDate.Year(),
		}
		for _, c := range columns {
			values = append(values, amounts[c.label].InexactFloat64())
		}
		values = append(values, amortTotal.InexactFloat64())
		if lastAmort != nil {
			values = append(values, lastAmort.Format(dateLayout))
		} else {
			values = append(values, "")
		}
		values = append(values, notes, loan.State)

		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			f.SetCellValue(sheet, cell, v)
		}
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="Prestamos.xlsx"`)
	if err := f.Write(w); err != nil {
		h.Log.WithError(err).Error("failed to stream loan workbook")
	}
}

// ExportVacations writes the vacation balance workbook: one row per
// period with its counters.
// GET /api/reports/vacations
func (h *Handler) ExportVacations(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Employees.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}

	f := excelize.NewFile()
	const sheet = "Vacaciones"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"DNI", "NOMBRE", "FECHA DE INGRESO", "PERIODO", "INICIO", "FIN", "DIAS", "GOZADOS", "PENDIENTES", "TRUNCOS"}
	for i, hd := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, hd)
	}

	row := 2
	for _, emp := range employees {
		full, err := h.Employees.Get(emp.ID)
		if err != nil {
			continue
		}
		hire := ""
		if full.HireDate != nil {
			hire = full.HireDate.Format(dateLayout)
		}
		for _, p := range full.Periods {
			values := []any{
				full.DNI, full.Name, hire,
				p.Label,
				p.StartDate.Format(dateLayout),
				p.EndDate.Format(dateLayout),
				p.AllottedDays, p.TakenDays, p.PendingDays, p.TruncatedDays,
			}
			for i, v := range values {
				cell, _ := excelize.CoordinatesToCellName(i+1, row)
				f.SetCellValue(sheet, cell, v)
			}
			row++
		}
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="Vacaciones.xlsx"`)
	if err := f.Write(w); err != nil {
		h.Log.WithError(err).Error("failed to stream vacation workbook")
	}
}
