package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Period names a preset statistics window.
type Period string

const (
	PeriodDay    Period = "day"
	PeriodWeek   Period = "week"
	PeriodMonth  Period = "month"
	PeriodYear   Period = "year"
	PeriodCustom Period = "custom"
)

var (
	ErrInvalidPeriod = errors.New("invalid period")
	ErrInvalidRange  = errors.New("invalid date range")
)

// MaxRangeDays bounds explicit ranges, inclusive of both ends.
const MaxRangeDays = 10 * 366

// ParsePeriod maps a user supplied name to a Period. The empty string is
// treated as a week, the default window of the statistics view.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PeriodWeek, nil
	case PeriodDay, PeriodWeek, PeriodMonth, PeriodYear, PeriodCustom:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
}

// NewDateRange builds a range and rejects inverted bounds and spans longer
// than MaxRangeDays.
func NewDateRange(start, end Date) (DateRange, error) {
	if start.After(end.Time) {
		return DateRange{}, fmt.Errorf("%w: %s > %s", ErrInvalidRange, start, end)
	}
	if end.After(start.AddDays(MaxRangeDays - 1).Time) {
		return DateRange{}, fmt.Errorf("%w: %s to %s exceeds %d days", ErrInvalidRange, start, end, MaxRangeDays)
	}
	return DateRange{Start: start, End: end}, nil
}

// PeriodRange returns the calendar window of p that contains ref. Weeks
// start on Monday. PeriodCustom has no implicit window and is rejected.
func PeriodRange(p Period, ref time.Time) (DateRange, error) {
	today := DateOf(ref)
	switch p {
	case PeriodDay:
		return DateRange{Start: today, End: today}, nil
	case PeriodWeek:
		offset := (int(today.Weekday()) + 6) % 7
		start := today.AddDays(-offset)
		return DateRange{Start: start, End: start.AddDays(6)}, nil
	case PeriodMonth:
		start := NewDate(today.Year(), today.Month(), 1)
		end := DateOf(start.AddDate(0, 1, -1))
		return DateRange{Start: start, End: end}, nil
	case PeriodYear:
		return DateRange{
			Start: NewDate(today.Year(), time.January, 1),
			End:   NewDate(today.Year(), time.December, 31),
		}, nil
	default:
		return DateRange{}, fmt.Errorf("%w: %q has no implicit window", ErrInvalidPeriod, p)
	}
}

// DaysInRange lists every calendar day of rng in order.
func DaysInRange(rng DateRange) []Date {
	var days []Date
	for d := rng.Start; !d.After(rng.End.Time); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}
