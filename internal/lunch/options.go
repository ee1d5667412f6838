package lunch

import (
	"errors"
	"fmt"
	"time"

	"github.com/username/school-scheduler/internal/calendar"
)

// ErrInvalidOptions is returned when WeekOptions fail validation
var ErrInvalidOptions = errors.New("invalid week options")

// DefaultClosedWeekdays are the weekdays without lunch when none are configured
var DefaultClosedWeekdays = []calendar.Weekday{calendar.Wednesday}

// WeekOptions selects the week to resolve and the days to leave out of it
type WeekOptions struct {
	// ReferenceDate is any day of the week to resolve. Required.
	ReferenceDate time.Time

	// NextWeek resolves the week following the one containing ReferenceDate
	NextWeek bool

	// ClosedWeekdays are weekdays without lunch.
	// nil means DefaultClosedWeekdays, an empty non-nil slice means none.
	ClosedWeekdays []calendar.Weekday

	// ClosedDates are individual days off such as holidays.
	// Dates outside the resolved week are ignored.
	ClosedDates []time.Time

	// WithoutPork counts only pupils on a pork-free diet when true,
	// and only the others when false
	WithoutPork bool
}

// Validate checks the options before a week is resolved
func (o WeekOptions) Validate() error {
	if o.ReferenceDate.IsZero() {
		return fmt.Errorf("%w: reference date is required", ErrInvalidOptions)
	}
	for _, w := range o.ClosedWeekdays {
		if !w.Valid() {
			return fmt.Errorf("%w: closed weekday %d is out of range", ErrInvalidOptions, int(w))
		}
	}
	for i, d := range o.ClosedDates {
		if d.IsZero() {
			return fmt.Errorf("%w: closed date #%d is empty", ErrInvalidOptions, i)
		}
	}
	return nil
}

func (o WeekOptions) closedWeekdays() []calendar.Weekday {
	if o.ClosedWeekdays == nil {
		return DefaultClosedWeekdays
	}
	return o.ClosedWeekdays
}
