package loans

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AMORTIZATION - Early payments against pending installments
// =============================================================================

// Installment is the amortizer's view of one persisted installment: just the
// fields the algorithm mutates. The service layer maps ORM rows in and out.
type Installment struct {
	Ordinal int
	Amount  decimal.Decimal
	State   string
}

// Amortize consumes amount against the pending installments, in ordinal
// order. An installment fully covered flips to Amortizada (never Descontada,
// which is reserved for the payroll month close); a partial cover reduces
// its amount and leaves it pending. Deducted and voided installments are
// payroll history and are never touched.
//
// Returns the resulting loan state: Cancelado when nothing is left pending,
// Amortizado Parcial otherwise.
func Amortize(installments []*Installment, amount decimal.Decimal) (string, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return "", fmt.Errorf("amortization amount must be positive, got %s", amount)
	}

	remaining := amount.Round(2)
	for _, inst := range installments {
		if inst.State != StatePending {
			continue
		}
		if remaining.LessThanOrEqual(decimal.Zero) {
			break
		}
		if remaining.GreaterThanOrEqual(inst.Amount) {
			remaining = remaining.Sub(inst.Amount).Round(2)
			inst.State = StateAmortized
		} else {
			inst.Amount = inst.Amount.Sub(remaining).Round(2)
			remaining = decimal.Zero
			break
		}
	}

	for _, inst := range installments {
		if inst.State == StatePending {
			return LoanPartiallyAmortized, nil
		}
	}
	return LoanCanceled, nil
}

// PendingBalance sums the amounts of the still-pending installments.
func PendingBalance(installments []*Installment) decimal.Decimal {
	sum := decimal.Zero
	for _, inst := range installments {
		if inst.State == StatePending {
			sum = sum.Add(inst.Amount)
		}
	}
	return sum
}
