// Package validate cross-checks a parsed transaction stream against the
// statement's own arithmetic and repairs classification mistakes where
// the numbers prove them wrong.
package validate

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-engine/internal/models"
)

// DefaultTolerance absorbs rounding artifacts in statement arithmetic.
var DefaultTolerance = decimal.NewFromFloat(0.015)

// Validator holds reconciliation settings.
type Validator struct {
	Tolerance decimal.Decimal
}

// New returns a Validator with the default tolerance.
func New() *Validator {
	return &Validator{Tolerance: DefaultTolerance}
}

// SelfHeal walks the transaction list and repairs entries whose
// money-in/money-out classification disagrees with the stated balance
// progression. Markers reset the check. Two repairs are possible, tried
// in order:
//
//   - swap money_in and money_out, accepted only if the swap STRICTLY
//     reduces the arithmetic error — a swap that merely matches the old
//     error would "fix" a correctly classified transaction hit by an
//     unrelated upstream rounding artifact;
//   - overwrite the stated balance with the arithmetically derived one.
//     Once an overwrite fires, subsequent balances keep being derived
//     arithmetically until the next marker, because source errors
//     compound across consecutive lines.
//
// The list is mutated in place. Returned warnings describe every repair.
func (v *Validator) SelfHeal(txns []models.Transaction) []string {
	tolerance := v.Tolerance
	if tolerance.IsZero() {
		tolerance = DefaultTolerance
	}

	var warnings []string
	var prevBalance decimal.NullDecimal
	trustArithmetic := false

	for i := range txns {
		txn := &txns[i]

		if txn.IsMarker() {
			prevBalance = txn.Balance
			trustArithmetic = false
			continue
		}

		if !prevBalance.Valid || !txn.Balance.Valid {
			if txn.Balance.Valid {
				prevBalance = txn.Balance
			}
			continue
		}

		if trustArithmetic {
			derived := prevBalance.Decimal.Add(txn.MoneyIn).Sub(txn.MoneyOut)
			if !derived.Sub(txn.Balance.Decimal).Abs().LessThanOrEqual(tolerance) {
				txn.Balance = decimal.NullDecimal{Decimal: derived, Valid: true}
			}
			prevBalance = txn.Balance
			continue
		}

		balanceChange := txn.Balance.Decimal.Sub(prevBalance.Decimal)
		calculatedChange := txn.MoneyIn.Sub(txn.MoneyOut)
		err := calculatedChange.Sub(balanceChange).Abs()

		if err.LessThanOrEqual(tolerance) {
			prevBalance = txn.Balance
			continue
		}

		swappedChange := txn.MoneyOut.Sub(txn.MoneyIn)
		swappedErr := swappedChange.Sub(balanceChange).Abs()

		if swappedErr.LessThan(err) {
			txn.MoneyIn, txn.MoneyOut = txn.MoneyOut, txn.MoneyIn
			warnings = append(warnings, fmt.Sprintf(
				"transaction %d (%s): direction swapped to match balance change of %s",
				i, txn.Date.Format("2006-01-02"), balanceChange.StringFixed(2)))

			if swappedErr.LessThanOrEqual(tolerance) {
				prevBalance = txn.Balance
				continue
			}
			// Swapping helped but did not fully resolve; fall through to
			// the arithmetic override with the swapped amounts.
			calculatedChange = swappedChange
		}

		derived := prevBalance.Decimal.Add(calculatedChange)
		warnings = append(warnings, fmt.Sprintf(
			"transaction %d (%s): stated balance %s disagrees with arithmetic, overwriting with %s",
			i, txn.Date.Format("2006-01-02"), txn.Balance.Decimal.StringFixed(2), derived.StringFixed(2)))
		txn.Balance = decimal.NullDecimal{Decimal: derived, Valid: true}
		trustArithmetic = true
		prevBalance = txn.Balance
	}

	return warnings
}

// CheckStatement verifies opening_balance + sum(money_in) -
// sum(money_out) == closing_balance within tolerance. A failure is a
// warning for the caller, never an abort.
func (v *Validator) CheckStatement(stmt models.Statement, txns []models.Transaction) models.ValidationResult {
	tolerance := v.Tolerance
	if tolerance.IsZero() {
		tolerance = DefaultTolerance
	}

	if !stmt.OpeningBalance.Valid || !stmt.ClosingBalance.Valid {
		return models.ValidationResult{
			OK:      true,
			Message: "statement balances not stated, skipping whole-statement check",
			Index:   -1,
		}
	}

	expected := stmt.OpeningBalance.Decimal
	for _, txn := range txns {
		if txn.IsMarker() {
			continue
		}
		expected = expected.Add(txn.MoneyIn).Sub(txn.MoneyOut)
	}

	actual := stmt.ClosingBalance.Decimal
	diff := expected.Sub(actual).Abs()

	result := models.ValidationResult{
		Index:      -1,
		Expected:   expected,
		Actual:     actual,
		Difference: diff,
	}
	if diff.LessThanOrEqual(tolerance) {
		result.OK = true
		result.Message = "statement reconciled"
		return result
	}
	result.Message = fmt.Sprintf(
		"statement does not reconcile: expected closing balance %s, stated %s, difference %s",
		expected.StringFixed(2), actual.StringFixed(2), diff.StringFixed(2))
	return result
}

// BackfillBalances fills in missing running balances arithmetically from
// the nearest preceding known balance.
func BackfillBalances(txns []models.Transaction) {
	var prev decimal.NullDecimal
	for i := range txns {
		txn := &txns[i]
		if txn.Balance.Valid {
			prev = txn.Balance
			continue
		}
		if !prev.Valid {
			continue
		}
		derived := prev.Decimal.Add(txn.MoneyIn).Sub(txn.MoneyOut)
		txn.Balance = decimal.NullDecimal{Decimal: derived, Valid: true}
		prev = txn.Balance
	}
}
