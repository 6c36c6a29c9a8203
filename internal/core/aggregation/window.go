package aggregation

import (
	"fmt"
	"time"
)

// Period is a rollup granularity. The order of the constants is significant:
// rollups of timeCount and minmax only apply from PeriodDay upward.
type Period int

const (
	Period15Min Period = iota
	PeriodHour
	PeriodDay
	PeriodWeek
	PeriodMonth
	PeriodQuarter
	PeriodYear
)

// Periods lists every period in ascending order.
var Periods = []Period{Period15Min, PeriodHour, PeriodDay, PeriodWeek, PeriodMonth, PeriodQuarter, PeriodYear}

// ExtremaPeriods are the periods that carry min/max and on/off day-and-coarser buckets.
var ExtremaPeriods = Periods[PeriodDay:]

var periodNames = map[Period]string{
	Period15Min:   "15Min",
	PeriodHour:    "hour",
	PeriodDay:     "day",
	PeriodWeek:    "week",
	PeriodMonth:   "month",
	PeriodQuarter: "quarter",
	PeriodYear:    "year",
}

func (p Period) String() string {
	if name, ok := periodNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Period(%d)", int(p))
}

// Index is the position of p in Periods.
func (p Period) Index() int { return int(p) }

// Valid reports whether p is a known period.
func (p Period) Valid() bool {
	_, ok := periodNames[p]
	return ok
}

// ParsePeriod resolves a period name such as "15Min" or "quarter".
func ParsePeriod(s string) (Period, error) {
	for p, name := range periodNames {
		if name == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPeriod, s)
}

// Start returns the beginning of the period containing t, in t's location.
// Weeks start on Monday, quarters on the first of Jan, Apr, Jul and Oct.
func (p Period) Start(t time.Time) (time.Time, error) {
	y, m, d := t.Date()
	loc := t.Location()
	switch p {
	case Period15Min:
		return time.Date(y, m, d, t.Hour(), t.Minute()-t.Minute()%15, 0, 0, loc), nil
	case PeriodHour:
		return time.Date(y, m, d, t.Hour(), 0, 0, 0, loc), nil
	case PeriodDay:
		return time.Date(y, m, d, 0, 0, 0, 0, loc), nil
	case PeriodWeek:
		offset := (int(t.Weekday()) + 6) % 7
		return time.Date(y, m, d-offset, 0, 0, 0, 0, loc), nil
	case PeriodMonth:
		return time.Date(y, m, 1, 0, 0, 0, 0, loc), nil
	case PeriodQuarter:
		first := time.Month((int(m)-1)/3*3 + 1)
		return time.Date(y, first, 1, 0, 0, 0, 0, loc), nil
	case PeriodYear:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, loc), nil
	}
	return t, fmt.Errorf("%w: %v", ErrUnknownPeriod, p)
}

// CheckValue guards a bucket read against a rollup that has not reset it yet.
// If the stored value was written before the start of the period containing now,
// the bucket belongs to an earlier period and counts as empty.
// An unknown period returns the value unchanged together with ErrUnknownPeriod.
func CheckValue(value float64, observed time.Time, p Period, now time.Time) (float64, error) {
	start, err := p.Start(now)
	if err != nil {
		return value, err
	}
	if observed.Before(start) {
		return 0, nil
	}
	return value, nil
}

// BoundaryStamp backdates a five-minute sample so it marks the start of the
// window it describes: one minute and one second before t, seconds forced to 59.
func BoundaryStamp(t time.Time) time.Time {
	b := t.Add(-61 * time.Second)
	return time.Date(b.Year(), b.Month(), b.Day(), b.Hour(), b.Minute(), 59, 0, b.Location())
}
