package planner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/username/school-scheduler/internal/calendar"
	"github.com/username/school-scheduler/internal/config"
	"github.com/username/school-scheduler/internal/lunch"
	"github.com/username/school-scheduler/pkg/dateutil"
)

// PeriodSource loads the periods of a school calendar
type PeriodSource interface {
	LoadEvents() ([]calendar.Period, error)
}

// Planner resolves canteen weeks using the school calendar as the source of days off
type Planner struct {
	config   *config.Config
	periods  PeriodSource
	closures PeriodSource
	resolver *lunch.Resolver
	logger   *zap.Logger
}

// NewPlanner creates a new planner
func NewPlanner(
	cfg *config.Config,
	periods PeriodSource,
	resolver *lunch.Resolver,
	logger *zap.Logger,
) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{
		config:   cfg,
		periods:  periods,
		resolver: resolver,
		logger:   logger,
	}
}

// WithClosures adds a source of local closures.
// Its periods close the canteen whatever their description.
func (p *Planner) WithClosures(src PeriodSource) *Planner {
	p.closures = src
	return p
}

// Periods returns every period of the school calendar in file order
func (p *Planner) Periods() ([]calendar.Period, error) {
	periods, err := p.periods.LoadEvents()
	if err != nil {
		return nil, fmt.Errorf("failed to load school calendar: %w", err)
	}
	return periods, nil
}

// LoadHolidays returns the calendar periods that close the canteen.
// A period matches when its description contains one of the configured
// keywords, ignoring case. Without keywords every period matches.
// Local closures are appended unfiltered.
func (p *Planner) LoadHolidays() ([]calendar.Period, error) {
	periods, err := p.Periods()
	if err != nil {
		return nil, err
	}

	keywords := p.config.Calendar.HolidayKeywords
	holidays := periods
	if len(keywords) > 0 {
		holidays = make([]calendar.Period, 0, len(periods))
		for _, period := range periods {
			if matchesAny(period.Description(), keywords) {
				holidays = append(holidays, period)
			}
		}
	}

	if p.closures != nil {
		closures, err := p.closures.LoadEvents()
		if err != nil {
			return nil, fmt.Errorf("failed to load closures: %w", err)
		}
		holidays = append(holidays, closures...)
	}

	p.logger.Debug("Holidays selected",
		zap.Int("periods", len(periods)),
		zap.Int("holidays", len(holidays)),
		zap.Strings("keywords", keywords))

	return holidays, nil
}

// WeekOptions builds resolver options for the week of date from the configuration
// and the holidays of the school calendar
func (p *Planner) WeekOptions(date time.Time, withoutPork bool) (lunch.WeekOptions, error) {
	closedWeekdays, err := p.config.Week.GetClosedWeekdays()
	if err != nil {
		return lunch.WeekOptions{}, fmt.Errorf("invalid closed weekdays: %w", err)
	}

	holidays, err := p.LoadHolidays()
	if err != nil {
		return lunch.WeekOptions{}, err
	}

	return lunch.WeekOptions{
		ReferenceDate:  date,
		NextWeek:       p.config.Week.NextWeek,
		ClosedWeekdays: closedWeekdays,
		ClosedDates:    calendar.ExpandPeriods(holidays...),
		WithoutPork:    withoutPork,
	}, nil
}

// Week resolves the active canteen days of the week of date
func (p *Planner) Week(date time.Time) (lunch.WeekDates, error) {
	opts, err := p.WeekOptions(date, false)
	if err != nil {
		return lunch.WeekDates{}, err
	}

	week, err := p.resolver.GetWeekDates(opts)
	if err != nil {
		return lunch.WeekDates{}, err
	}

	p.logger.Info("Week resolved",
		zap.String("reference", dateutil.FormatDate(date)),
		zap.String("first_day", dateutil.FormatDate(week.FirstDay)),
		zap.Int("active_days", len(week.Days)))

	return week, nil
}

// Meals returns the lunch totals of every active day of the week of date
func (p *Planner) Meals(ctx context.Context, date time.Time, withoutPork bool) (lunch.WeekDates, *calendar.WeekStats, error) {
	opts, err := p.WeekOptions(date, withoutPork)
	if err != nil {
		return lunch.WeekDates{}, nil, err
	}

	week, err := p.resolver.GetWeekDates(opts)
	if err != nil {
		return lunch.WeekDates{}, nil, err
	}

	stats, err := p.resolver.GetWeekMeals(ctx, opts)
	if err != nil {
		return lunch.WeekDates{}, nil, err
	}

	return week, stats, nil
}

// DayList returns who eats at the canteen on date, for one school or every school
// when school is empty. Holidays and closed weekdays yield an empty list.
func (p *Planner) DayList(ctx context.Context, date time.Time, school string) ([]lunch.Registration, error) {
	opts, err := p.WeekOptions(date, false)
	if err != nil {
		return nil, err
	}
	opts.NextWeek = false

	week, err := p.resolver.GetWeekDates(opts)
	if err != nil {
		return nil, err
	}

	for _, day := range week.Days {
		if dateutil.IsSameDay(day, date) {
			return p.resolver.GetDayList(ctx, day, school)
		}
	}

	p.logger.Info("Canteen closed", zap.String("date", dateutil.FormatDate(date)))
	return nil, nil
}

func matchesAny(text string, keywords []string) bool {
	text = strings.ToLower(text)
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
