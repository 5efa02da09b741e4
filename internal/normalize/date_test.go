package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/statement-engine/internal/models"
)

var ukLayouts = []string{"02/01/2006", "2 Jan 2006", "2 Jan 06", "2-Jan-06", "2 Jan"}

func period(start, end string) models.Period {
	s, err := time.Parse("2006-01-02", start)
	if err != nil {
		panic(err)
	}
	e, err := time.Parse("2006-01-02", end)
	if err != nil {
		panic(err)
	}
	return models.Period{Start: s, End: e}
}

func TestResolveDate_FullDates(t *testing.T) {
	p := period("2024-01-01", "2024-01-31")

	tests := []struct {
		in   string
		want string
	}{
		{"15/01/2024", "2024-01-15"},
		{"15 Jan 2024", "2024-01-15"},
		{"15 Jan 24", "2024-01-15"},
		{"15-Jan-24", "2024-01-15"},
		{"15th Jan 2024", "2024-01-15"},
	}
	for _, tt := range tests {
		got, err := ResolveDate(tt.in, ukLayouts, p)
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got.Format("2006-01-02"), "input %q", tt.in)
	}
}

func TestResolveDate_YearlessInsidePeriod(t *testing.T) {
	p := period("2024-03-01", "2024-03-31")

	got, err := ResolveDate("15 Mar", ukLayouts, p)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", got.Format("2006-01-02"))
}

func TestResolveDate_CrossYearPeriod(t *testing.T) {
	// Statement spanning a year boundary: both candidate years are in play.
	p := period("2024-12-15", "2025-01-05")

	got, err := ResolveDate("28 Dec", ukLayouts, p)
	require.NoError(t, err)
	assert.Equal(t, "2024-12-28", got.Format("2006-01-02"))

	got, err = ResolveDate("02 Jan", ukLayouts, p)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-02", got.Format("2006-01-02"))
}

func TestResolveDate_JanuaryPeriodDecemberDate(t *testing.T) {
	// Neither candidate year lands inside the period; the period starts in
	// January and the token is December, so the previous year applies.
	p := period("2025-01-10", "2025-02-10")

	got, err := ResolveDate("28 Dec", ukLayouts, p)
	require.NoError(t, err)
	assert.Equal(t, "2024-12-28", got.Format("2006-01-02"))
}

func TestResolveDate_OutsidePeriodPicksNearerBoundary(t *testing.T) {
	// Mid-year period, token outside it on both candidates. March is
	// nearer the April start than to anything else.
	p := period("2024-04-01", "2024-04-30")

	got, err := ResolveDate("28 Mar", ukLayouts, p)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-28", got.Format("2006-01-02"))
}

func TestResolveDate_LeapDay(t *testing.T) {
	// 2023 has no Feb 29; the 2024 candidate must be used.
	p := period("2023-12-20", "2024-03-05")

	got, err := ResolveDate("29 Feb", ukLayouts, p)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", got.Format("2006-01-02"))
}

func TestResolveDate_LocalizedMonths(t *testing.T) {
	p := period("2024-12-01", "2024-12-31")

	tests := []string{"28 déc", "28 dez", "28 dic", "28 Dec"}
	for _, in := range tests {
		got, err := ResolveDate(in, ukLayouts, p)
		require.NoError(t, err, "input %q", in)
		assert.Equal(t, "2024-12-28", got.Format("2006-01-02"), "input %q", in)
	}
}

func TestResolveDate_Deterministic(t *testing.T) {
	p := period("2024-12-15", "2025-01-05")
	first, err := ResolveDate("28 Dec", ukLayouts, p)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := ResolveDate("28 Dec", ukLayouts, p)
		require.NoError(t, err)
		assert.True(t, first.Equal(again))
	}
}

func TestResolveDate_Unparseable(t *testing.T) {
	p := period("2024-01-01", "2024-01-31")
	_, err := ResolveDate("not a date", ukLayouts, p)
	assert.ErrorIs(t, err, ErrUnparseableDate)

	_, err = ResolveDate("", ukLayouts, p)
	assert.ErrorIs(t, err, ErrUnparseableDate)
}

func TestCanonicalizeMonths(t *testing.T) {
	assert.Equal(t, "28 Dec 2024", CanonicalizeMonths("28 décembre 2024"))
	assert.Equal(t, "1 Jan", CanonicalizeMonths("1st janv"))
	assert.Equal(t, "3 Sep 24", CanonicalizeMonths("3rd sept 24"))
}
