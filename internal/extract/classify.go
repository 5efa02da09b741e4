package extract

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Signal is an unambiguous external hint about a line's direction,
// typically derived from a payment-type code that always means money in
// or always money out.
type Signal int

const (
	SignalNone Signal = iota
	SignalIn
	SignalOut
)

// Context carries everything the classifier consults, in policy order:
// an external direction signal, the active column thresholds, and the
// previous transaction's balance for delta-based fallback.
type Context struct {
	Signal Signal

	// OutThreshold and InThreshold are character-offset boundaries from
	// the active column layout; zero means unknown.
	OutThreshold int
	InThreshold  int

	PrevBalance decimal.NullDecimal
	Tolerance   decimal.Decimal

	// BroughtForward marks the line as a period/brought-forward marker:
	// a single amount on it is the balance, not a transaction value.
	BroughtForward bool

	// DebitHint is the description-keyword fallback used when every
	// stronger rule is inconclusive.
	DebitHint bool
}

// Classification is the outcome of assigning a line's amounts.
type Classification struct {
	MoneyIn  decimal.Decimal
	MoneyOut decimal.Decimal
	Balance  decimal.NullDecimal
	Warnings []string
}

// Classify assigns each candidate amount on a line to money-in,
// money-out or balance using a layered policy; the first rule that
// applies wins:
//
//  1. an unambiguous external signal,
//  2. column position against the active thresholds,
//  3. the delta against the previous transaction's balance,
//  4. the rightmost amount is the balance — unless the line is a
//     brought-forward marker with exactly one amount, which is itself
//     the balance.
func Classify(tokens []AmountToken, ctx Context) Classification {
	var c Classification
	if len(tokens) == 0 {
		return c
	}

	if ctx.BroughtForward {
		// Markers carry only a balance; the rightmost amount is it.
		last := tokens[len(tokens)-1]
		c.Balance = decimal.NullDecimal{Decimal: last.Value.Abs(), Valid: true}
		return c
	}

	value, balance := splitValueAndBalance(tokens, ctx, &c)

	if balance != nil {
		c.Balance = decimal.NullDecimal{Decimal: balance.Value, Valid: true}
	}
	if value == nil {
		return c
	}

	amount := value.Value.Abs()
	switch {
	case ctx.Signal == SignalIn:
		c.MoneyIn = amount
	case ctx.Signal == SignalOut:
		c.MoneyOut = amount
	case value.Value.IsNegative():
		// Negative notation on the token itself is as unambiguous as a
		// payment-type code.
		c.MoneyOut = amount
	case classifyByPosition(value, ctx, &c):
		// assigned inside
	case classifyByDelta(amount, ctx, &c):
		// assigned inside
	case ctx.DebitHint:
		c.MoneyOut = amount
	default:
		c.MoneyIn = amount
	}
	return c
}

// splitValueAndBalance picks the transaction-value token and the balance
// token out of the line's amounts. With more than two candidates the
// rightmost is the balance and the second-to-last is the value; the rest
// are reported as a warning, not silently dropped.
func splitValueAndBalance(tokens []AmountToken, ctx Context, c *Classification) (value, balance *AmountToken) {
	switch len(tokens) {
	case 1:
		only := &tokens[0]
		// A single amount beyond the in-threshold sits in the balance
		// column; anywhere else it is the transaction value.
		if ctx.InThreshold > 0 && only.End > ctx.InThreshold {
			return nil, only
		}
		return only, nil
	case 2:
		return &tokens[0], &tokens[1]
	default:
		c.Warnings = append(c.Warnings, fmt.Sprintf(
			"ambiguous amount count: %d amounts on one line, using second-to-last as value and last as balance", len(tokens)))
		return &tokens[len(tokens)-2], &tokens[len(tokens)-1]
	}
}

// classifyByPosition assigns by the token's end offset against the
// active thresholds. Returns false when no thresholds are known.
func classifyByPosition(value *AmountToken, ctx Context, c *Classification) bool {
	if ctx.OutThreshold == 0 || ctx.InThreshold == 0 {
		return false
	}
	amount := value.Value.Abs()
	switch {
	case value.End <= ctx.OutThreshold:
		c.MoneyOut = amount
	case value.End <= ctx.InThreshold:
		c.MoneyIn = amount
	default:
		// Beyond both thresholds: the token is in the balance column.
		if !c.Balance.Valid {
			c.Balance = decimal.NullDecimal{Decimal: amount, Valid: true}
		}
	}
	return true
}

// classifyByDelta assigns the amount to whichever direction makes
// money_in - money_out equal the stated balance change, within
// tolerance. Requires both a previous and a current balance.
func classifyByDelta(amount decimal.Decimal, ctx Context, c *Classification) bool {
	if !ctx.PrevBalance.Valid || !c.Balance.Valid {
		return false
	}
	tolerance := ctx.Tolerance
	if tolerance.IsZero() {
		tolerance = decimal.NewFromFloat(0.015)
	}

	delta := c.Balance.Decimal.Sub(ctx.PrevBalance.Decimal)
	creditErr := delta.Sub(amount).Abs()
	debitErr := delta.Add(amount).Abs()

	switch {
	case creditErr.LessThanOrEqual(tolerance) && debitErr.GreaterThan(tolerance):
		c.MoneyIn = amount
	case debitErr.LessThanOrEqual(tolerance) && creditErr.GreaterThan(tolerance):
		c.MoneyOut = amount
	case creditErr.LessThanOrEqual(tolerance) && debitErr.LessThanOrEqual(tolerance):
		// Both fit (amount near zero) — lean on whichever error is smaller.
		if creditErr.LessThanOrEqual(debitErr) {
			c.MoneyIn = amount
		} else {
			c.MoneyOut = amount
		}
	default:
		return false
	}
	return true
}
