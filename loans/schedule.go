/*
Package loans implements installment schedule generation and amortization.

A loan of N installments splits its principal evenly at two decimal places;
the last installment absorbs the rounding remainder so the schedule always
sums exactly to the principal. Schedules may interleave "gratificación"
installments: in July and December, from a configured year onward, a
gratification line is inserted before the regular month line.

Money is decimal.Decimal throughout. Floats never touch an amount.
*/
package loans

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Installment states.
const (
	StatePending   = "Pendiente"
	StateDeducted  = "Descontada"
	StateAmortized = "Amortizada"
	StateVoided    = "Anulada"
)

// Loan states.
const (
	LoanIssued             = "Emitido"
	LoanPartiallyAmortized = "Amortizado Parcial"
	LoanCanceled           = "Cancelado"
)

// Spanish month names for installment labels and printed documents.
var monthNames = [13]string{"",
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// Abbreviations used by the Excel report headers ("set" for September,
// payroll convention).
var monthAbbr = [13]string{"",
	"ene", "feb", "mar", "abr", "may", "jun",
	"jul", "ago", "set", "oct", "nov", "dic",
}

// MonthName returns the Spanish name of a month, capitalized.
func MonthName(m time.Month) string { return monthNames[m] }

// MonthAbbr returns the Spanish payroll abbreviation of a month.
func MonthAbbr(m time.Month) string { return monthAbbr[m] }

// ScheduleLine is one generated installment before persistence.
type ScheduleLine struct {
	Ordinal         int
	Label           string // "Agosto 2025" or "Gratificación julio 2025"
	Year            int
	Month           time.Month
	IsGratification bool
	Amount          decimal.Decimal
}

// =============================================================================
// SCHEDULE GENERATION
// =============================================================================

// GenerateSchedule creates exactly count installment lines starting at
// startMonth/startYear. When includeGratification is set and the walk
// reaches July or December of a year >= gratificationFromYear, a
// gratification line is inserted before that month's regular line.
//
// Every line carries the even split rounded half-up to two decimals; the
// last line is then adjusted so the schedule sums exactly to total.
func GenerateSchedule(total decimal.Decimal, count int, startMonth time.Month, startYear int,
	includeGratification bool, gratificationFromYear int) ([]ScheduleLine, error) {

	if count <= 0 {
		return nil, fmt.Errorf("installment count must be positive, got %d", count)
	}
	if total.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("loan principal must be positive, got %s", total)
	}

	total = total.Round(2)
	base := total.Div(decimal.NewFromInt(int64(count))).Round(2)

	var out []ScheduleLine
	month, year := startMonth, startYear
	ordinal := 1

	for len(out) < count {
		grati := includeGratification && gratificationFromYear > 0 &&
			year >= gratificationFromYear && (month == time.July || month == time.December)
		if grati && len(out) < count {
			out = append(out, ScheduleLine{
				Ordinal:         ordinal,
				Label:           fmt.Sprintf("Gratificación %s %d", strings.ToLower(MonthName(month)), year),
				Year:            year,
				Month:           month,
				IsGratification: true,
				Amount:          base,
			})
			ordinal++
		}
		if len(out) < count {
			out = append(out, ScheduleLine{
				Ordinal: ordinal,
				Label:   fmt.Sprintf("%s %d", MonthName(month), year),
				Year:    year,
				Month:   month,
				Amount:  base,
			})
			ordinal++
		}
		if month == time.December {
			month, year = time.January, year+1
		} else {
			month++
		}
	}

	// Last installment absorbs the rounding remainder.
	sum := decimal.Zero
	for _, line := range out {
		sum = sum.Add(line.Amount)
	}
	out[len(out)-1].Amount = out[len(out)-1].Amount.Add(total.Sub(sum)).Round(2)

	return out, nil
}

// NormalizeCustomSchedule validates caller-provided installment lines and
// adjusts the last one so the amounts sum exactly to total. The line count
// must match the declared installment count.
func NormalizeCustomSchedule(lines []ScheduleLine, total decimal.Decimal, count int) ([]ScheduleLine, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("custom schedule is empty")
	}
	if len(lines) != count {
		return nil, fmt.Errorf("custom schedule has %d lines, expected %d", len(lines), count)
	}

	out := make([]ScheduleLine, len(lines))
	copy(out, lines)
	for i := range out {
		if out[i].Ordinal == 0 {
			out[i].Ordinal = i + 1
		}
		if out[i].Label == "" {
			out[i].Label = fmt.Sprintf("Cuota %d", i+1)
		}
		if out[i].Month != 0 && (out[i].Month < time.January || out[i].Month > time.December) {
			return nil, fmt.Errorf("invalid month in installment #%d", i+1)
		}
		out[i].Amount = out[i].Amount.Round(2)
	}

	total = total.Round(2)
	sum := decimal.Zero
	for _, line := range out {
		sum = sum.Add(line.Amount)
	}
	out[len(out)-1].Amount = out[len(out)-1].Amount.Add(total.Sub(sum)).Round(2)

	return out, nil
}
