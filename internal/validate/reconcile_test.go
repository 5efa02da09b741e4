package validate

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/statement-engine/internal/models"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func nd(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d(s), Valid: true}
}

func day(n int) time.Time {
	return time.Date(2024, 1, n, 0, 0, 0, 0, time.UTC)
}

func marker(balance string) models.Transaction {
	return models.Transaction{Description: "BALANCE BROUGHT FORWARD", Balance: nd(balance)}
}

func TestSelfHeal_CorrectStreamUntouched(t *testing.T) {
	txns := []models.Transaction{
		marker("1000.00"),
		{Date: day(1), Description: "CARD PAYMENT", MoneyOut: d("50.00"), Balance: nd("950.00")},
		{Date: day(2), Description: "SALARY", MoneyIn: d("200.00"), Balance: nd("1150.00")},
	}

	warnings := New().SelfHeal(txns)
	assert.Empty(t, warnings)
	assert.Equal(t, "50.00", txns[1].MoneyOut.StringFixed(2))
	assert.Equal(t, "200.00", txns[2].MoneyIn.StringFixed(2))
}

func TestSelfHeal_SwapFixesMisclassification(t *testing.T) {
	// Previous balance 1000.00, amount 50.00 classed as money out, but
	// the stated balance rose to 1050.00. Swapping reduces the error from
	// 100.00 to zero, so it is accepted.
	txns := []models.Transaction{
		marker("1000.00"),
		{Date: day(1), Description: "AMBIGUOUS CODE", MoneyOut: d("50.00"), Balance: nd("1050.00")},
	}

	warnings := New().SelfHeal(txns)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "direction swapped")

	assert.Equal(t, "50.00", txns[1].MoneyIn.StringFixed(2))
	assert.Equal(t, "0.00", txns[1].MoneyOut.StringFixed(2))
	assert.Equal(t, "1050.00", txns[1].Balance.Decimal.StringFixed(2))
}

func TestSelfHeal_SwapResolvesExactly(t *testing.T) {
	// Previous 500.00, money_out 100.00, stated balance 600.00:
	// calculated change -100 vs balance change +100. The swap makes the
	// calculated change +100, matching exactly.
	txns := []models.Transaction{
		marker("500.00"),
		{Date: day(1), Description: "PAYMENT", MoneyOut: d("100.00"), Balance: nd("600.00")},
	}

	warnings := New().SelfHeal(txns)
	require.Len(t, warnings, 1)
	assert.Equal(t, "100.00", txns[1].MoneyIn.StringFixed(2))
	assert.Equal(t, "0.00", txns[1].MoneyOut.StringFixed(2))
}

func TestSelfHeal_SwapMustStrictlyReduceError(t *testing.T) {
	// money_in equals money_out, so swapping cannot change the error.
	// The swap must NOT fire; the balance override handles the mismatch.
	txns := []models.Transaction{
		marker("1000.00"),
		{Date: day(1), Description: "ODD ROW", MoneyIn: d("25.00"), MoneyOut: d("25.00"), Balance: nd("1010.00")},
	}

	warnings := New().SelfHeal(txns)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "overwriting")
	assert.NotContains(t, warnings[0], "swapped")

	// Amounts untouched, balance derived arithmetically: 1000 + 25 - 25.
	assert.Equal(t, "25.00", txns[1].MoneyIn.StringFixed(2))
	assert.Equal(t, "25.00", txns[1].MoneyOut.StringFixed(2))
	assert.Equal(t, "1000.00", txns[1].Balance.Decimal.StringFixed(2))
}

func TestSelfHeal_OverrideCompoundsUntilMarker(t *testing.T) {
	// A misprinted balance on the first row: subsequent rows keep being
	// derived arithmetically (their stated balances carry the same
	// offset), until a fresh brought-forward marker resets trust.
	txns := []models.Transaction{
		marker("1000.00"),
		{Date: day(1), Description: "MISPRINT", MoneyOut: d("50.00"), MoneyIn: d("50.00"), Balance: nd("1100.00")},
		{Date: day(2), Description: "NEXT", MoneyOut: d("100.00"), Balance: nd("1000.00")},
		marker("700.00"),
		{Date: day(3), Description: "AFTER RESET", MoneyOut: d("100.00"), Balance: nd("600.00")},
	}

	warnings := New().SelfHeal(txns)
	assert.NotEmpty(t, warnings)

	// Row 1: override to 1000.00; row 2 derived: 1000 - 100 = 900.
	assert.Equal(t, "1000.00", txns[1].Balance.Decimal.StringFixed(2))
	assert.Equal(t, "900.00", txns[2].Balance.Decimal.StringFixed(2))
	// After the marker the stated balance is trusted again.
	assert.Equal(t, "600.00", txns[4].Balance.Decimal.StringFixed(2))
}

func TestSelfHeal_ToleratesRounding(t *testing.T) {
	txns := []models.Transaction{
		marker("1000.00"),
		{Date: day(1), Description: "ROUNDED", MoneyOut: d("50.00"), Balance: nd("950.01")},
	}

	warnings := New().SelfHeal(txns)
	assert.Empty(t, warnings, "a 0.01 difference is within tolerance")
	assert.Equal(t, "950.01", txns[1].Balance.Decimal.StringFixed(2))
}

func TestCheckStatement(t *testing.T) {
	stmt := models.Statement{
		OpeningBalance: nd("1000.00"),
		ClosingBalance: nd("1150.00"),
	}
	txns := []models.Transaction{
		{Date: day(1), MoneyIn: d("300.00")},
		{Date: day(2), MoneyOut: d("150.00")},
	}

	res := New().CheckStatement(stmt, txns)
	assert.True(t, res.OK)
	assert.Equal(t, "1150.00", res.Expected.StringFixed(2))

	stmt.ClosingBalance = nd("1140.00")
	res = New().CheckStatement(stmt, txns)
	assert.False(t, res.OK)
	assert.Equal(t, "10.00", res.Difference.StringFixed(2))
	assert.Contains(t, res.Message, "10.00")
}

func TestCheckStatement_MarkersExcluded(t *testing.T) {
	stmt := models.Statement{
		OpeningBalance: nd("1000.00"),
		ClosingBalance: nd("950.00"),
	}
	txns := []models.Transaction{
		marker("1000.00"),
		{Date: day(1), MoneyOut: d("50.00")},
	}

	res := New().CheckStatement(stmt, txns)
	assert.True(t, res.OK)
}

func TestCheckStatement_MissingBalancesSkips(t *testing.T) {
	res := New().CheckStatement(models.Statement{}, nil)
	assert.True(t, res.OK)
	assert.Contains(t, res.Message, "skipping")
}

func TestBackfillBalances(t *testing.T) {
	txns := []models.Transaction{
		marker("1000.00"),
		{Date: day(1), MoneyOut: d("50.00")},
		{Date: day(2), MoneyIn: d("200.00")},
		{Date: day(3), MoneyOut: d("30.00"), Balance: nd("1120.00")},
	}

	BackfillBalances(txns)

	assert.Equal(t, "950.00", txns[1].Balance.Decimal.StringFixed(2))
	assert.Equal(t, "1150.00", txns[2].Balance.Decimal.StringFixed(2))
	assert.Equal(t, "1120.00", txns[3].Balance.Decimal.StringFixed(2))
}

func TestScore(t *testing.T) {
	full := models.Transaction{
		Date:        day(1),
		Description: "CARD PAYMENT TESCO",
		MoneyOut:    d("25.99"),
		Balance:     nd("974.01"),
		Type:        models.TypeCardPayment,
	}
	assert.Equal(t, 100, Score(full))

	bare := models.Transaction{Date: day(1), MoneyOut: d("25.99")}
	assert.Equal(t, 60, Score(bare))

	m := marker("1000.00")
	m.Date = day(1)
	assert.Equal(t, 100, Score(m))

	assert.Equal(t, 0, Score(models.Transaction{}))
}

func TestScoreAll_Clamps(t *testing.T) {
	txns := []models.Transaction{
		{Date: day(1), Description: "X", MoneyIn: d("1.00"), Balance: nd("1.00"), Type: models.TypeOther},
		{},
	}
	ScoreAll(txns)
	for _, txn := range txns {
		assert.GreaterOrEqual(t, txn.Confidence, 0)
		assert.LessOrEqual(t, txn.Confidence, 100)
	}
}
