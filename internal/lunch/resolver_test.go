package lunch_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"go.uber.org/zap"

	"github.com/username/school-scheduler/internal/calendar"
	"github.com/username/school-scheduler/internal/lunch"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func formatDays(days []time.Time) []string {
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = d.Format("2006-01-02")
	}
	return out
}

// fakeQuery filters an in-memory list of registrations
type fakeQuery struct {
	rows []lunch.Registration
	err  error
}

func (q fakeQuery) WithDiet(withoutPork bool) lunch.Query {
	var rows []lunch.Registration
	for _, r := range q.rows {
		if r.WithoutPork == withoutPork {
			rows = append(rows, r)
		}
	}
	return fakeQuery{rows: rows, err: q.err}
}

func (q fakeQuery) AtSchool(school string) lunch.Query {
	var rows []lunch.Registration
	for _, r := range q.rows {
		if r.School == school {
			rows = append(rows, r)
		}
	}
	return fakeQuery{rows: rows, err: q.err}
}

func (q fakeQuery) Count(ctx context.Context) (int, error) {
	return len(q.rows), q.err
}

func (q fakeQuery) List(ctx context.Context) ([]lunch.Registration, error) {
	return q.rows, q.err
}

type fakeRegistrations struct {
	byDay      map[string][]lunch.Registration
	travelling map[string]map[string]bool // day -> pupil ids
	err        error
	queried    []string
}

func (f *fakeRegistrations) Lunches(day time.Time) lunch.Query {
	key := day.Format("2006-01-02")
	f.queried = append(f.queried, key)
	return fakeQuery{rows: f.byDay[key], err: f.err}
}

func (f *fakeRegistrations) ExcludeTravelling(q lunch.Query, day time.Time) lunch.Query {
	away := f.travelling[day.Format("2006-01-02")]
	fq := q.(fakeQuery)
	var rows []lunch.Registration
	for _, r := range fq.rows {
		if !away[r.PupilID] {
			rows = append(rows, r)
		}
	}
	return fakeQuery{rows: rows, err: fq.err}
}

func TestResolver_GetWeekDates(t *testing.T) {
	r := lunch.NewResolver(nil, zap.NewNop())

	tests := []struct {
		name      string
		opts      lunch.WeekOptions
		wantFirst string
		wantLast  string
		wantDays  []string
	}{
		{
			name:      "default options exclude Wednesday",
			opts:      lunch.WeekOptions{ReferenceDate: date(2016, 2, 10)},
			wantFirst: "2016-02-08",
			wantLast:  "2016-02-12",
			wantDays:  []string{"2016-02-08", "2016-02-09", "2016-02-11", "2016-02-12"},
		},
		{
			name:      "next week",
			opts:      lunch.WeekOptions{ReferenceDate: date(2016, 2, 10), NextWeek: true},
			wantFirst: "2016-02-15",
			wantLast:  "2016-02-19",
			wantDays:  []string{"2016-02-15", "2016-02-16", "2016-02-18", "2016-02-19"},
		},
		{
			name:      "Saturday resolves to the Monday already passed",
			opts:      lunch.WeekOptions{ReferenceDate: date(2016, 2, 13)},
			wantFirst: "2016-02-08",
			wantLast:  "2016-02-12",
			wantDays:  []string{"2016-02-08", "2016-02-09", "2016-02-11", "2016-02-12"},
		},
		{
			name:      "Sunday resolves to the Monday already passed",
			opts:      lunch.WeekOptions{ReferenceDate: date(2016, 2, 14)},
			wantFirst: "2016-02-08",
			wantLast:  "2016-02-12",
			wantDays:  []string{"2016-02-08", "2016-02-09", "2016-02-11", "2016-02-12"},
		},
		{
			name:      "Sunday with next week",
			opts:      lunch.WeekOptions{ReferenceDate: date(2016, 2, 14), NextWeek: true},
			wantFirst: "2016-02-15",
			wantLast:  "2016-02-19",
			wantDays:  []string{"2016-02-15", "2016-02-16", "2016-02-18", "2016-02-19"},
		},
		{
			name: "no closed weekday",
			opts: lunch.WeekOptions{
				ReferenceDate:  date(2016, 2, 10),
				ClosedWeekdays: []calendar.Weekday{},
			},
			wantFirst: "2016-02-08",
			wantLast:  "2016-02-12",
			wantDays:  []string{"2016-02-08", "2016-02-09", "2016-02-10", "2016-02-11", "2016-02-12"},
		},
		{
			name: "closed dates and custom weekdays",
			opts: lunch.WeekOptions{
				ReferenceDate:  date(2016, 2, 10),
				ClosedWeekdays: []calendar.Weekday{calendar.Monday, calendar.Saturday},
				ClosedDates:    []time.Time{date(2016, 2, 11), date(2016, 3, 1)},
			},
			wantFirst: "2016-02-08",
			wantLast:  "2016-02-12",
			wantDays:  []string{"2016-02-09", "2016-02-10", "2016-02-12"},
		},
		{
			name: "closed date with time of day",
			opts: lunch.WeekOptions{
				ReferenceDate: time.Date(2016, 2, 10, 15, 45, 0, 0, time.UTC),
				ClosedDates:   []time.Time{time.Date(2016, 2, 12, 9, 0, 0, 0, time.UTC)},
			},
			wantFirst: "2016-02-08",
			wantLast:  "2016-02-12",
			wantDays:  []string{"2016-02-08", "2016-02-09", "2016-02-11"},
		},
		{
			name: "whole week off",
			opts: lunch.WeekOptions{
				ReferenceDate: date(2016, 2, 10),
				ClosedDates: []time.Time{
					date(2016, 2, 8), date(2016, 2, 9), date(2016, 2, 11), date(2016, 2, 12),
				},
			},
			wantFirst: "2016-02-08",
			wantLast:  "2016-02-12",
			wantDays:  []string{},
		},
		{
			name:      "week across year end",
			opts:      lunch.WeekOptions{ReferenceDate: date(2016, 1, 1)},
			wantFirst: "2015-12-28",
			wantLast:  "2016-01-01",
			wantDays:  []string{"2015-12-28", "2015-12-29", "2015-12-31", "2016-01-01"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			week, err := r.GetWeekDates(tt.opts)
			gt.NoError(t, err).Required()

			gt.Equal(t, week.FirstDay.Format("2006-01-02"), tt.wantFirst)
			gt.Equal(t, week.LastDay.Format("2006-01-02"), tt.wantLast)
			gt.Equal(t, formatDays(week.Days), tt.wantDays)
		})
	}
}

func TestResolver_GetWeekDates_Properties(t *testing.T) {
	r := lunch.NewResolver(nil, nil)

	ref := date(2015, 8, 31)
	for i := 0; i < 400; i++ {
		for _, next := range []bool{false, true} {
			week, err := r.GetWeekDates(lunch.WeekOptions{ReferenceDate: ref, NextWeek: next})
			gt.NoError(t, err).Required()

			gt.Equal(t, calendar.WeekdayOf(week.FirstDay), calendar.Monday)
			gt.True(t, week.LastDay.Equal(week.FirstDay.AddDate(0, 0, 4)))
			gt.Equal(t, len(week.Days), 4)

			for j, d := range week.Days {
				gt.True(t, !d.Before(week.FirstDay) && !d.After(week.LastDay))
				gt.True(t, calendar.WeekdayOf(d) != calendar.Wednesday)
				if j > 0 {
					gt.True(t, d.After(week.Days[j-1]))
				}
			}
		}
		ref = ref.AddDate(0, 0, 1)
	}
}

func TestResolver_GetWeekDates_InvalidOptions(t *testing.T) {
	r := lunch.NewResolver(nil, zap.NewNop())

	tests := []struct {
		name string
		opts lunch.WeekOptions
	}{
		{"missing reference date", lunch.WeekOptions{}},
		{"weekday out of range", lunch.WeekOptions{
			ReferenceDate:  date(2016, 2, 10),
			ClosedWeekdays: []calendar.Weekday{0},
		}},
		{"empty closed date", lunch.WeekOptions{
			ReferenceDate: date(2016, 2, 10),
			ClosedDates:   []time.Time{{}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.GetWeekDates(tt.opts)
			gt.Error(t, err)
			gt.True(t, errors.Is(err, lunch.ErrInvalidOptions))
		})
	}
}

func newFakeRegistrations() *fakeRegistrations {
	alice := lunch.Registration{PupilID: "1", Name: "Alice", Grade: "CM1", Teacher: "Martin", School: "Jules Ferry"}
	bruno := lunch.Registration{PupilID: "2", Name: "Bruno", Grade: "CE2", Teacher: "Durand", School: "Jules Ferry", WithoutPork: true}
	chloe := lunch.Registration{PupilID: "3", Name: "Chloé", Grade: "CM1", Teacher: "Martin", School: "Jules Ferry"}
	david := lunch.Registration{PupilID: "4", Name: "David", Grade: "CM1", Teacher: "Bernard", School: "Jean Moulin"}

	return &fakeRegistrations{
		byDay: map[string][]lunch.Registration{
			"2016-02-08": {alice, bruno, chloe, david},
			"2016-02-09": {alice, bruno},
			"2016-02-10": {alice, bruno, chloe},
			"2016-02-11": {chloe, david},
			"2016-02-12": {alice, chloe, david},
		},
		travelling: map[string]map[string]bool{
			"2016-02-11": {"3": true},
			"2016-02-12": {"1": true, "3": true},
		},
	}
}

func TestResolver_GetWeekMeals(t *testing.T) {
	ctx := context.Background()

	t.Run("regular diet", func(t *testing.T) {
		regs := newFakeRegistrations()
		r := lunch.NewResolver(regs, zap.NewNop())

		stats, err := r.GetWeekMeals(ctx, lunch.WeekOptions{ReferenceDate: date(2016, 2, 10)})
		gt.NoError(t, err).Required()

		gt.Equal(t, stats.GetTotalDay(calendar.Monday), 3)
		gt.Equal(t, stats.GetTotalDay(calendar.Tuesday), 1)
		gt.False(t, stats.IsSet(calendar.Wednesday))
		gt.Equal(t, stats.GetTotalDay(calendar.Thursday), 1)
		gt.Equal(t, stats.GetTotalDay(calendar.Friday), 1)

		// closed weekdays are never queried
		gt.Equal(t, regs.queried, []string{"2016-02-08", "2016-02-09", "2016-02-11", "2016-02-12"})
	})

	t.Run("without pork", func(t *testing.T) {
		r := lunch.NewResolver(newFakeRegistrations(), zap.NewNop())

		stats, err := r.GetWeekMeals(ctx, lunch.WeekOptions{
			ReferenceDate: date(2016, 2, 10),
			WithoutPork:   true,
		})
		gt.NoError(t, err).Required()

		gt.Equal(t, stats.GetTotalDay(calendar.Monday), 1)
		gt.Equal(t, stats.GetTotalDay(calendar.Tuesday), 1)
		gt.Equal(t, stats.GetTotalDay(calendar.Thursday), 0)
		gt.True(t, stats.IsSet(calendar.Thursday))
		gt.Equal(t, stats.Total(), 2)
	})

	t.Run("holidays are skipped", func(t *testing.T) {
		regs := newFakeRegistrations()
		r := lunch.NewResolver(regs, zap.NewNop())

		stats, err := r.GetWeekMeals(ctx, lunch.WeekOptions{
			ReferenceDate: date(2016, 2, 10),
			ClosedDates:   []time.Time{date(2016, 2, 8)},
		})
		gt.NoError(t, err).Required()
		gt.False(t, stats.IsSet(calendar.Monday))
		gt.Equal(t, len(regs.queried), 3)
	})

	t.Run("collaborator error", func(t *testing.T) {
		boom := errors.New("database unavailable")
		regs := newFakeRegistrations()
		regs.err = boom
		r := lunch.NewResolver(regs, zap.NewNop())

		_, err := r.GetWeekMeals(ctx, lunch.WeekOptions{ReferenceDate: date(2016, 2, 10)})
		gt.Error(t, err)
		gt.True(t, errors.Is(err, boom))
	})

	t.Run("invalid options", func(t *testing.T) {
		r := lunch.NewResolver(newFakeRegistrations(), zap.NewNop())

		_, err := r.GetWeekMeals(ctx, lunch.WeekOptions{})
		gt.True(t, errors.Is(err, lunch.ErrInvalidOptions))
	})

	t.Run("no registrations source", func(t *testing.T) {
		r := lunch.NewResolver(nil, zap.NewNop())

		_, err := r.GetWeekMeals(ctx, lunch.WeekOptions{ReferenceDate: date(2016, 2, 10)})
		gt.Error(t, err)
	})
}

func TestResolver_GetDayList(t *testing.T) {
	r := lunch.NewResolver(newFakeRegistrations(), zap.NewNop())

	names := func(list []lunch.Registration) []string {
		out := make([]string, len(list))
		for i, reg := range list {
			out[i] = reg.Name
		}
		return out
	}

	list, err := r.GetDayList(context.Background(), date(2016, 2, 8), "")
	gt.NoError(t, err).Required()
	gt.Equal(t, names(list), []string{"Bruno", "David", "Alice", "Chloé"})

	list, err = r.GetDayList(context.Background(), date(2016, 2, 12), "")
	gt.NoError(t, err).Required()
	gt.Equal(t, names(list), []string{"David"})

	t.Run("one school", func(t *testing.T) {
		list, err := r.GetDayList(context.Background(), date(2016, 2, 8), "Jules Ferry")
		gt.NoError(t, err).Required()
		gt.Equal(t, names(list), []string{"Bruno", "Alice", "Chloé"})

		list, err = r.GetDayList(context.Background(), date(2016, 2, 12), "Jules Ferry")
		gt.NoError(t, err).Required()
		gt.Equal(t, len(list), 0)

		list, err = r.GetDayList(context.Background(), date(2016, 2, 8), "Victor Hugo")
		gt.NoError(t, err).Required()
		gt.Equal(t, len(list), 0)
	})

	_, err = r.GetDayList(context.Background(), time.Time{}, "")
	gt.True(t, errors.Is(err, lunch.ErrInvalidOptions))
}
