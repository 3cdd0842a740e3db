package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestCycleStartDate(t *testing.T) {
	tests := []struct {
		name   string
		date   time.Time
		summer bool
		want   time.Time
	}{
		{name: "all year mid cycle", date: date(2024, time.June, 15), summer: false, want: date(2024, time.April, 1)},
		{name: "all year before april", date: date(2024, time.February, 10), summer: false, want: date(2023, time.April, 1)},
		{name: "all year on boundary", date: date(2024, time.April, 1), summer: false, want: date(2024, time.April, 1)},
		{name: "all year day before boundary", date: date(2024, time.March, 31), summer: false, want: date(2023, time.April, 1)},
		{name: "summer mid cycle", date: date(2024, time.August, 20), summer: true, want: date(2024, time.May, 1)},
		{name: "summer before may", date: date(2024, time.March, 1), summer: true, want: date(2023, time.May, 1)},
		{name: "summer on boundary", date: date(2024, time.May, 1), summer: true, want: date(2024, time.May, 1)},
		{name: "summer after cycle end", date: date(2024, time.December, 25), summer: true, want: date(2024, time.May, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CycleStartDate(tt.date, tt.summer))
		})
	}
}

func TestCycleEndDate(t *testing.T) {
	assert.Equal(t, date(2025, time.March, 31), CycleEndDate(date(2024, time.June, 15), false))
	assert.Equal(t, date(2024, time.March, 31), CycleEndDate(date(2024, time.January, 2), false))
	assert.Equal(t, date(2024, time.October, 31), CycleEndDate(date(2024, time.July, 1), true))
	assert.Equal(t, date(2023, time.October, 31), CycleEndDate(date(2024, time.February, 1), true))
}

func TestCycleDueDate(t *testing.T) {
	assert.Equal(t, date(2025, time.April, 28), CycleDueDate(date(2024, time.June, 15), false))
	assert.Equal(t, date(2024, time.November, 28), CycleDueDate(date(2024, time.July, 1), true))
}

func TestCycleDatesIgnoreTimeOfDay(t *testing.T) {
	noon := time.Date(2024, time.June, 15, 12, 30, 45, 0, time.UTC)
	assert.Equal(t, CycleStartDate(date(2024, time.June, 15), false), CycleStartDate(noon, false))
	assert.Equal(t, CycleEndDate(date(2024, time.June, 15), false), CycleEndDate(noon, false))
}

func TestPeriodsInRangeMonth(t *testing.T) {
	periods, err := PeriodsInRange(date(2024, time.April, 1), date(2025, time.March, 31), FrequencyMonth)
	require.NoError(t, err)
	require.Len(t, periods, 12)

	assert.Equal(t, date(2024, time.April, 1), periods[0].StartDate)
	assert.Equal(t, date(2024, time.April, 30), periods[0].EndDate)
	assert.Equal(t, date(2025, time.March, 1), periods[11].StartDate)
	assert.Equal(t, date(2025, time.March, 31), periods[11].EndDate)

	// February of a leap-adjacent year keeps its calendar length.
	assert.Equal(t, date(2025, time.February, 1), periods[10].StartDate)
	assert.Equal(t, date(2025, time.February, 28), periods[10].EndDate)
}

func TestPeriodsInRangeMonthTruncatedStartAndEnd(t *testing.T) {
	periods, err := PeriodsInRange(date(2024, time.April, 15), date(2024, time.June, 10), FrequencyMonth)
	require.NoError(t, err)
	require.Len(t, periods, 3)

	assert.Equal(t, date(2024, time.April, 15), periods[0].StartDate)
	assert.Equal(t, date(2024, time.April, 30), periods[0].EndDate)
	assert.Equal(t, date(2024, time.May, 1), periods[1].StartDate)
	assert.Equal(t, date(2024, time.May, 31), periods[1].EndDate)
	assert.Equal(t, date(2024, time.June, 1), periods[2].StartDate)
	assert.Equal(t, date(2024, time.June, 10), periods[2].EndDate)
}

func TestPeriodsInRangeWeek(t *testing.T) {
	// 2024-04-01 is a Monday.
	periods, err := PeriodsInRange(date(2024, time.April, 1), date(2024, time.April, 21), FrequencyWeek)
	require.NoError(t, err)
	require.Len(t, periods, 3)

	for _, p := range periods {
		assert.Equal(t, time.Monday, p.StartDate.Weekday())
		assert.Equal(t, time.Sunday, p.EndDate.Weekday())
	}
}

func TestPeriodsInRangeWeekMidweekStart(t *testing.T) {
	// 2024-04-03 is a Wednesday; the first bucket runs to Sunday.
	periods, err := PeriodsInRange(date(2024, time.April, 3), date(2024, time.April, 14), FrequencyWeek)
	require.NoError(t, err)
	require.Len(t, periods, 2)

	assert.Equal(t, date(2024, time.April, 3), periods[0].StartDate)
	assert.Equal(t, date(2024, time.April, 7), periods[0].EndDate)
	assert.Equal(t, date(2024, time.April, 8), periods[1].StartDate)
	assert.Equal(t, date(2024, time.April, 14), periods[1].EndDate)
}

func TestPeriodsInRangeDay(t *testing.T) {
	periods, err := PeriodsInRange(date(2024, time.April, 1), date(2024, time.April, 5), FrequencyDay)
	require.NoError(t, err)
	require.Len(t, periods, 5)

	for _, p := range periods {
		assert.Equal(t, p.StartDate, p.EndDate)
	}
}

func TestPeriodsInRangeContiguous(t *testing.T) {
	for _, frequency := range []Frequency{FrequencyDay, FrequencyWeek, FrequencyMonth} {
		periods, err := PeriodsInRange(date(2024, time.May, 1), date(2024, time.October, 31), frequency)
		require.NoError(t, err)
		require.NotEmpty(t, periods)

		assert.Equal(t, date(2024, time.May, 1), periods[0].StartDate)
		assert.Equal(t, date(2024, time.October, 31), periods[len(periods)-1].EndDate)
		for i := 1; i < len(periods); i++ {
			assert.Equal(t, periods[i-1].EndDate.AddDate(0, 0, 1), periods[i].StartDate,
				"bucket %d must start the day after bucket %d ends (%s)", i, i-1, frequency)
		}
	}
}

func TestPeriodsInRangeInvalidFrequency(t *testing.T) {
	_, err := PeriodsInRange(date(2024, time.April, 1), date(2024, time.April, 30), Frequency("fortnight"))
	assert.ErrorIs(t, err, ErrInvalidFrequency)
}

func TestPeriodsInRangeSingleDayRange(t *testing.T) {
	periods, err := PeriodsInRange(date(2024, time.April, 1), date(2024, time.April, 1), FrequencyMonth)
	require.NoError(t, err)
	require.Len(t, periods, 1)
	assert.Equal(t, periods[0].StartDate, periods[0].EndDate)
}
