package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/insightdelivered/statement-engine/internal/config"
	"github.com/insightdelivered/statement-engine/internal/models"
)

func statementPage() string {
	lines := []string{
		"Metro Bank",
		"Account holder: JANE DOE",
		"Account number 12345678   Sort code 11-22-33",
		"Statement period 01/01/2024 to 31/01/2024",
		"",
		"Date" + strings.Repeat(" ", 46) + "Money out      Money in       Balance",
		"01/01/2024  Balance brought forward" + strings.Repeat(" ", 45) + "2,000.00",
		"02/01/2024  CARD PAYMENT TESCO STORES" + strings.Repeat(" ", 13) + "25.99" + strings.Repeat(" ", 25) + "1,974.01",
		"03/01/2024  FASTER PAYMENT FROM ALICE" + strings.Repeat(" ", 28) + "500.00" + strings.Repeat(" ", 9) + "2,474.01",
	}
	return strings.Join(lines, "\n")
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(config.Defaults(), zap.NewNop())
	require.NoError(t, err)
	return e
}

func TestEngine_ParseAutoDetect(t *testing.T) {
	e := newTestEngine(t)

	res, err := e.Parse(context.Background(), models.Document{Pages: []string{statementPage()}}, "auto")
	require.NoError(t, err)

	assert.Equal(t, "Metro Bank", res.Statement.Issuer)
	assert.Equal(t, "12345678", res.Statement.AccountNumber)
	require.Len(t, res.Transactions, 3)
	assert.True(t, res.BalanceReconciled)

	for _, txn := range res.Transactions {
		assert.Greater(t, txn.Confidence, 0)
	}
}

func TestEngine_ParseEmptyDocument(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.Parse(context.Background(), models.Document{Pages: []string{"Metro Bank\nnothing here"}}, "metro")
	assert.ErrorIs(t, err, ErrNoTransactions)
}

func TestEngine_ParseUnknownDialect(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.Parse(context.Background(), models.Document{Pages: []string{statementPage()}}, "monzo")
	assert.Error(t, err)
}

func TestEngine_ParseCancelledContext(t *testing.T) {
	e := newTestEngine(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Parse(ctx, models.Document{Pages: []string{statementPage()}}, "metro")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngine_ParseBatchKeepsOrder(t *testing.T) {
	e := newTestEngine(t)

	docs := []models.Document{
		{Pages: []string{statementPage()}},
		{Pages: []string{statementPage()}},
		{Pages: []string{statementPage()}},
	}
	results, err := e.ParseBatch(context.Background(), docs, "metro")
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, res := range results {
		require.NotNil(t, res)
		assert.Len(t, res.Transactions, 3)
	}
}

func TestEngine_ParseBatchContainsFailures(t *testing.T) {
	e := newTestEngine(t)

	docs := []models.Document{
		{Pages: []string{statementPage()}},
		{Pages: []string{"Metro Bank\nnothing here"}},
		{Pages: []string{statementPage()}},
	}
	results, err := e.ParseBatch(context.Background(), docs, "metro")
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Len(t, results[0].Transactions, 3)
	assert.Len(t, results[2].Transactions, 3)

	failed := results[1]
	require.NotNil(t, failed)
	assert.Empty(t, failed.Transactions)
	require.Len(t, failed.Warnings, 1)
	assert.Contains(t, failed.Warnings[0], "no transactions")
}

func TestEngine_Dialects(t *testing.T) {
	e := newTestEngine(t)
	assert.ElementsMatch(t, []string{"metro", "hsbc", "barclays", "generic"}, e.Dialects())
}
