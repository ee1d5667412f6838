package lunch

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/username/school-scheduler/internal/calendar"
	"github.com/username/school-scheduler/pkg/dateutil"
)

// WeekDates is a resolved Monday..Friday window and its active days
type WeekDates struct {
	FirstDay time.Time
	LastDay  time.Time
	Days     []time.Time
}

// Resolver computes lunch weeks and their statistics
type Resolver struct {
	registrations Registrations
	logger        *zap.Logger
}

// NewResolver creates a new Resolver.
// registrations may be nil when only GetWeekDates is used.
func NewResolver(registrations Registrations, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		registrations: registrations,
		logger:        logger,
	}
}

// GetWeekDates returns the Monday..Friday window of the reference week
// (or of the following week) and the days of it that are not closed.
func (r *Resolver) GetWeekDates(opts WeekOptions) (WeekDates, error) {
	if err := opts.Validate(); err != nil {
		return WeekDates{}, err
	}

	var firstDay time.Time
	if opts.NextWeek {
		firstDay = dateutil.StartOfNextWeek(opts.ReferenceDate)
	} else {
		firstDay = dateutil.StartOfWeek(opts.ReferenceDate)
	}
	lastDay := dateutil.AddDays(firstDay, 4)

	week, err := calendar.NewPeriod(firstDay, lastDay, "")
	if err != nil {
		return WeekDates{}, err
	}

	closedWeekdays := opts.closedWeekdays()
	days := make([]time.Time, 0, week.Len())
	for day := range week.Days() {
		if slices.Contains(closedWeekdays, calendar.WeekdayOf(day)) {
			continue
		}
		if isClosedDate(day, opts.ClosedDates) {
			continue
		}
		days = append(days, day)
	}

	r.logger.Debug("Week dates resolved",
		zap.String("first_day", dateutil.FormatDate(firstDay)),
		zap.String("last_day", dateutil.FormatDate(lastDay)),
		zap.Int("active_days", len(days)))

	return WeekDates{
		FirstDay: firstDay,
		LastDay:  lastDay,
		Days:     days,
	}, nil
}

// GetWeekMeals counts, for every active day of the week, the lunches of pupils
// matching the diet option who are not away on a school trip.
func (r *Resolver) GetWeekMeals(ctx context.Context, opts WeekOptions) (*calendar.WeekStats, error) {
	if r.registrations == nil {
		return nil, fmt.Errorf("no registrations source configured")
	}

	dates, err := r.GetWeekDates(opts)
	if err != nil {
		return nil, err
	}

	stats := calendar.NewWeekStats()
	for _, day := range dates.Days {
		query := r.registrations.Lunches(day).WithDiet(opts.WithoutPork)
		query = r.registrations.ExcludeTravelling(query, day)

		total, err := query.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to count lunches on %s: %w", dateutil.FormatDate(day), err)
		}

		stats.SetTotalDay(calendar.WeekdayOf(day), total)
	}

	r.logger.Info("Week meals computed",
		zap.String("first_day", dateutil.FormatDate(dates.FirstDay)),
		zap.Bool("without_pork", opts.WithoutPork),
		zap.Int("total", stats.Total()))

	return stats, nil
}

// GetDayList returns the lunches of one day, travelling pupils excluded,
// ordered by grade, teacher and pupil name. An empty school selects every school.
func (r *Resolver) GetDayList(ctx context.Context, day time.Time, school string) ([]Registration, error) {
	if r.registrations == nil {
		return nil, fmt.Errorf("no registrations source configured")
	}
	if day.IsZero() {
		return nil, fmt.Errorf("%w: day is required", ErrInvalidOptions)
	}

	day = dateutil.StartOfDay(day)
	query := r.registrations.Lunches(day)
	if school != "" {
		query = query.AtSchool(school)
	}
	query = r.registrations.ExcludeTravelling(query, day)

	list, err := query.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list lunches on %s: %w", dateutil.FormatDate(day), err)
	}

	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Grade != list[j].Grade {
			return list[i].Grade < list[j].Grade
		}
		if list[i].Teacher != list[j].Teacher {
			return list[i].Teacher < list[j].Teacher
		}
		return list[i].Name < list[j].Name
	})

	return list, nil
}

func isClosedDate(day time.Time, closed []time.Time) bool {
	for _, d := range closed {
		if dateutil.IsSameDay(day, d) {
			return true
		}
	}
	return false
}
