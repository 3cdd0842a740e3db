package domain

import (
	"errors"
	"time"
)

// Frequency is how often a return requirement is reported.
type Frequency string

const (
	FrequencyDay   Frequency = "day"
	FrequencyWeek  Frequency = "week"
	FrequencyMonth Frequency = "month"
)

var ErrInvalidFrequency = errors.New("invalid_frequency")

// DateOnly is the layout used wherever a calendar date is rendered,
// including inside return log identity keys.
const DateOnly = "2006-01-02"

// Period is one reporting bucket within a return log's date range.
type Period struct {
	StartDate time.Time
	EndDate   time.Time
}

// Date normalizes t to midnight UTC. All cycle math works on calendar
// dates, never wall-clock instants.
func Date(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CycleStartDate returns the start of the cycle containing date. A date
// falling exactly on a cycle boundary belongs to the cycle starting that
// day.
func CycleStartDate(date time.Time, summer bool) time.Time {
	date = Date(date)
	year := date.Year()

	if summer {
		if date.Month() < time.May {
			year--
		}
		return time.Date(year, time.May, 1, 0, 0, 0, 0, time.UTC)
	}

	if date.Month() < time.April {
		year--
	}
	return time.Date(year, time.April, 1, 0, 0, 0, 0, time.UTC)
}

// CycleEndDate returns the end of the cycle containing date: 31 October of
// the start year for summer, 31 March of the following year otherwise.
func CycleEndDate(date time.Time, summer bool) time.Time {
	start := CycleStartDate(date, summer)

	if summer {
		return time.Date(start.Year(), time.October, 31, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(start.Year()+1, time.March, 31, 0, 0, 0, 0, time.UTC)
}

// CycleDueDate returns the date the return is due: 28 days after the cycle
// end (28 November for summer, 28 April otherwise).
func CycleDueDate(date time.Time, summer bool) time.Time {
	return CycleEndDate(date, summer).AddDate(0, 0, 28)
}

// PeriodsInRange splits [startDate, endDate] into consecutive reporting
// buckets. Week buckets follow the ISO week (Monday to Sunday), month
// buckets the calendar month. The final bucket is truncated to endDate; the
// first bucket is short only when startDate itself falls mid-bucket.
func PeriodsInRange(startDate, endDate time.Time, frequency Frequency) ([]Period, error) {
	startDate = Date(startDate)
	endDate = Date(endDate)

	var periods []Period
	for current := startDate; !current.After(endDate); {
		var bucketEnd time.Time
		switch frequency {
		case FrequencyDay:
			bucketEnd = current
		case FrequencyWeek:
			bucketEnd = endOfISOWeek(current)
		case FrequencyMonth:
			bucketEnd = endOfMonth(current)
		default:
			return nil, ErrInvalidFrequency
		}

		if bucketEnd.After(endDate) {
			bucketEnd = endDate
		}

		periods = append(periods, Period{StartDate: current, EndDate: bucketEnd})
		current = bucketEnd.AddDate(0, 0, 1)
	}

	return periods, nil
}

func endOfISOWeek(date time.Time) time.Time {
	weekday := int(date.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	return date.AddDate(0, 0, 7-weekday)
}

func endOfMonth(date time.Time) time.Time {
	firstOfNext := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return firstOfNext.AddDate(0, 0, -1)
}
