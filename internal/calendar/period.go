package calendar

import (
	"fmt"
	"iter"
	"time"

	"github.com/username/school-scheduler/pkg/dateutil"
)

// Period is an inclusive range of calendar days with an optional label.
// The zero value is a single-day period on January 1, year 1.
type Period struct {
	first       time.Time
	last        time.Time
	description string
}

// NewPeriod creates a period from first to last inclusive.
// Both dates are normalized to midnight in their own location.
func NewPeriod(first, last time.Time, description string) (Period, error) {
	first = dateutil.StartOfDay(first)
	last = dateutil.StartOfDay(last)

	if dateutil.DaysBetween(first, last) < 0 {
		return Period{}, fmt.Errorf("%w: %s > %s", ErrInvalidRange,
			dateutil.FormatDate(first), dateutil.FormatDate(last))
	}

	return Period{
		first:       first,
		last:        last,
		description: description,
	}, nil
}

// FirstDate returns the first day of the period
func (p Period) FirstDate() time.Time {
	return p.first
}

// LastDate returns the last day of the period
func (p Period) LastDate() time.Time {
	return p.last
}

// Description returns the label of the period
func (p Period) Description() string {
	return p.description
}

// Len returns the number of days in the period
func (p Period) Len() int {
	return dateutil.DaysBetween(p.first, p.last) + 1
}

// Contains reports whether the calendar day of t lies within the period
func (p Period) Contains(t time.Time) bool {
	return dateutil.DaysBetween(p.first, t) >= 0 && dateutil.DaysBetween(t, p.last) >= 0
}

// Days returns every day of the period in order.
// The sequence is lazy and can be ranged over any number of times.
func (p Period) Days() iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		n := p.Len()
		for i := 0; i < n; i++ {
			if !yield(dateutil.AddDays(p.first, i)) {
				return
			}
		}
	}
}

// Equal reports whether both periods cover the same days with the same label
func (p Period) Equal(other Period) bool {
	return dateutil.IsSameDay(p.first, other.first) &&
		dateutil.IsSameDay(p.last, other.last) &&
		p.description == other.description
}

func (p Period) String() string {
	if p.description == "" {
		return fmt.Sprintf("[%s, %s]", dateutil.FormatDate(p.first), dateutil.FormatDate(p.last))
	}
	return fmt.Sprintf("[%s, %s] %s", dateutil.FormatDate(p.first), dateutil.FormatDate(p.last), p.description)
}

// ExpandPeriods flattens periods into their days.
// Days shared by overlapping periods are returned once, in first-seen order.
func ExpandPeriods(periods ...Period) []time.Time {
	seen := make(map[string]struct{})
	var days []time.Time

	for _, p := range periods {
		for day := range p.Days() {
			key := dateutil.FormatDate(day)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			days = append(days, day)
		}
	}

	return days
}
