package ledger_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ana-biscalchin/finances/ledger"
)

func TestCurrentMonth(t *testing.T) {
	now := time.Date(2024, time.February, 17, 15, 4, 5, 0, time.UTC)

	w := ledger.CurrentMonth(now)

	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC), w.End, "leap year")
	assert.True(t, w.Contains(now))
}

func TestCurrentYear(t *testing.T) {
	w := ledger.CurrentYear(time.Date(2025, 7, 4, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC), w.End)
}

func TestLastNDays(t *testing.T) {
	now := time.Date(2025, 3, 15, 14, 30, 0, 0, time.UTC)

	w, err := ledger.LastNDays(now, 7)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, time.Date(2025, 3, 15, 23, 59, 59, 0, time.UTC), w.End)

	_, err = ledger.LastNDays(now, 0)
	assert.ErrorIs(t, err, ledger.ErrNonPositiveDuration)
}

func TestMonthAndYear(t *testing.T) {
	w, err := ledger.MonthAndYear(12, 2025, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC), w.End)

	_, err = ledger.MonthAndYear(13, 2025, time.UTC)
	assert.ErrorIs(t, err, ledger.ErrInvalidMonth)

	_, err = ledger.MonthAndYear(1, 1800, time.UTC)
	assert.ErrorIs(t, err, ledger.ErrInvalidYear)
}

func TestWeekOf_MondayToSunday(t *testing.T) {
	tests := []struct {
		name string
		day  time.Time
	}{
		{"monday", time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)},
		{"wednesday", time.Date(2025, 3, 12, 8, 0, 0, 0, time.UTC)},
		{"sunday", time.Date(2025, 3, 16, 23, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ledger.WeekOf(tt.day)
			assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), w.Start)
			assert.Equal(t, time.Date(2025, 3, 16, 23, 59, 59, 0, time.UTC), w.End)
		})
	}
}

func TestBetween(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	w, err := ledger.Between(start, end)
	require.NoError(t, err)
	assert.True(t, w.Contains(start))
	assert.True(t, w.Contains(end))
	assert.False(t, w.Contains(end.Add(time.Second)))

	_, err = ledger.Between(end, start)
	assert.ErrorIs(t, err, ledger.ErrInvertedRange)
}

func TestScope_String(t *testing.T) {
	assert.Equal(t, "account:a1", ledger.AccountScope("a1").String())
	assert.Equal(t, "user:u1", ledger.UserScope("u1").String())
}
