package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccumulator_MultiLineDescription(t *testing.T) {
	a := NewAccumulator()

	a.Start("01 Jan  Transfer to")
	a.Append("  Savings account")
	a.Append("  ref 12345   -200.00  800.00")

	assert.Equal(t, "Transfer to Savings account ref 12345", a.String())
}

func TestAccumulator_MarginFromFirstContinuation(t *testing.T) {
	a := NewAccumulator()
	a.Start("01 Jan  Transfer to")

	// The opening line's text sits at column 8 behind the date; the
	// wrapped lines sit at column 2 and must still accumulate.
	assert.False(t, a.ShouldBreak("  Savings account", false))
	a.Append("  Savings account")
	assert.False(t, a.ShouldBreak("  ref 12345   200.00", false))

	assert.True(t, a.ShouldBreak("          far indented", false), "drift measured from the continuation margin")
}

func TestAccumulator_BreakConditions(t *testing.T) {
	a := NewAccumulator()
	a.Append("  Direct Debit to")

	assert.True(t, a.ShouldBreak("", false), "blank line breaks")
	assert.True(t, a.ShouldBreak("02 Jan  CARD PAYMENT", true), "new transaction start breaks")
	assert.True(t, a.ShouldBreak("Barclays Bank is authorised by the Prudential Regulation Authority", false))
	assert.True(t, a.ShouldBreak("Page 2 of 6", false))

	assert.False(t, a.ShouldBreak("   Stripe ref 998", false), "aligned continuation does not break")
}

func TestAccumulator_MarginDrift(t *testing.T) {
	a := NewAccumulator()
	a.Append("  Transfer to")

	// Established margin is 2; a line starting at column 10 drifts by 8,
	// beyond the default allowance of 3.
	assert.True(t, a.ShouldBreak("          something else", false))
	assert.False(t, a.ShouldBreak("    close enough", false), "drift of 2 is within the allowance")

	wide := NewAccumulator()
	wide.MaxDrift = 12
	wide.Append("  Transfer to")
	assert.False(t, wide.ShouldBreak("          something else", false))
}

func TestAccumulator_StripsDatesAndAmounts(t *testing.T) {
	a := NewAccumulator()
	a.Append("15/01/2024  CARD PAYMENT TESCO   25.99   1,234.56")

	assert.Equal(t, "CARD PAYMENT TESCO", a.String())
}

func TestAccumulator_Reset(t *testing.T) {
	a := NewAccumulator()
	a.Append("  something")
	assert.False(t, a.Empty())

	a.Reset()
	assert.True(t, a.Empty())
	assert.Equal(t, "", a.String())
}

func TestIsBoilerplate(t *testing.T) {
	assert.True(t, IsBoilerplate("Protected by the Financial Services Compensation Scheme"))
	assert.True(t, IsBoilerplate("Registered in England No 1026167"))
	assert.False(t, IsBoilerplate("CARD PAYMENT TESCO STORES"))
}
