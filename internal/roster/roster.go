package roster

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"sort"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/username/school-scheduler/internal/lunch"
	"github.com/username/school-scheduler/pkg/dateutil"
)

// Date is a calendar day read from YAML as YYYY-MM-DD
type Date struct {
	time.Time
}

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Date) UnmarshalYAML(node *yaml.Node) error {
	t, err := dateutil.ParseDate(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	d.Time = t
	return nil
}

// Pupil is a pupil and the days they are registered for lunch
type Pupil struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Grade       string `yaml:"grade"`
	Teacher     string `yaml:"teacher"`
	School      string `yaml:"school"`
	Division    string `yaml:"division"`
	WithoutPork bool   `yaml:"without_pork"`
	Lunches     []Date `yaml:"lunches"`
}

// Trip is a school trip; pupils on it do not eat at the canteen
type Trip struct {
	Name      string   `yaml:"name"`
	Start     Date     `yaml:"start"`
	End       Date     `yaml:"end"`
	Cancelled bool     `yaml:"cancelled"`
	Divisions []string `yaml:"divisions"`
	Pupils    []string `yaml:"pupils"`
}

// Covers reports whether the trip is active on the day
func (t Trip) Covers(day time.Time) bool {
	return !t.Cancelled &&
		dateutil.DaysBetween(t.Start.Time, day) >= 0 &&
		dateutil.DaysBetween(day, t.End.Time) >= 0
}

// Roster is an in-memory set of lunch registrations and trips.
// It implements lunch.Registrations. Build it with Load or Parse: the lunch
// index is computed once there, so later edits to Pupils are not seen by queries.
type Roster struct {
	Pupils []Pupil `yaml:"pupils"`
	Trips  []Trip  `yaml:"trips"`

	lunches map[string][]int // day -> pupil indexes
}

var _ lunch.Registrations = (*Roster)(nil)

// Load reads a roster from a YAML file
func Load(path string, logger *zap.Logger) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster file: %w", err)
	}

	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if logger != nil {
		logger.Info("Roster loaded",
			zap.String("file", path),
			zap.Int("pupils", len(r.Pupils)),
			zap.Int("trips", len(r.Trips)))
	}

	return r, nil
}

// Parse decodes and validates a YAML roster document
func Parse(data []byte) (*Roster, error) {
	var r Roster
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse roster: %w", err)
	}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("invalid roster: %w", err)
	}
	r.index()
	return &r, nil
}

// Validate checks pupil ids and trip references
func (r *Roster) Validate() error {
	ids := make(map[string]struct{}, len(r.Pupils))
	for i, p := range r.Pupils {
		if p.ID == "" {
			return fmt.Errorf("pupil #%d has no id", i)
		}
		if _, dup := ids[p.ID]; dup {
			return fmt.Errorf("duplicate pupil id %q", p.ID)
		}
		ids[p.ID] = struct{}{}
	}

	for _, t := range r.Trips {
		if t.Start.IsZero() || t.End.IsZero() {
			return fmt.Errorf("trip %q needs start and end dates", t.Name)
		}
		if t.End.Before(t.Start.Time) {
			return fmt.Errorf("trip %q ends before it starts", t.Name)
		}
		for _, id := range t.Pupils {
			if _, ok := ids[id]; !ok {
				return fmt.Errorf("trip %q references unknown pupil %q", t.Name, id)
			}
		}
	}

	return nil
}

func (r *Roster) index() {
	r.lunches = make(map[string][]int)
	for i, p := range r.Pupils {
		seen := make(map[string]bool, len(p.Lunches))
		for _, d := range p.Lunches {
			key := dateutil.FormatDate(d.Time)
			if seen[key] {
				continue
			}
			seen[key] = true
			r.lunches[key] = append(r.lunches[key], i)
		}
	}
}

// Lunches selects every registration for the day
func (r *Roster) Lunches(day time.Time) lunch.Query {
	return &query{
		roster: r,
		pupils: r.lunches[dateutil.FormatDate(day)],
	}
}

// ExcludeTravelling drops pupils on a non-cancelled trip covering the day
func (r *Roster) ExcludeTravelling(q lunch.Query, day time.Time) lunch.Query {
	rq, ok := q.(*query)
	if !ok || rq.roster != r {
		return &query{err: errors.New("query does not belong to this roster")}
	}

	away := make(map[string]bool)
	for _, t := range r.Trips {
		if !t.Covers(day) {
			continue
		}
		for _, id := range t.Pupils {
			away[id] = true
		}
	}

	return rq.filter(func(p Pupil) bool { return !away[p.ID] })
}

// UpcomingTrips returns the non-cancelled trips starting on or after the day, soonest first.
// A non-empty division keeps only the trips of that division.
func (r *Roster) UpcomingTrips(day time.Time, division string) []Trip {
	var trips []Trip
	for _, t := range r.Trips {
		if t.Cancelled || dateutil.DaysBetween(day, t.Start.Time) < 0 {
			continue
		}
		if division != "" && !slices.Contains(t.Divisions, division) {
			continue
		}
		trips = append(trips, t)
	}
	sort.SliceStable(trips, func(i, j int) bool {
		return trips[i].Start.Before(trips[j].Start.Time)
	})
	return trips
}

type query struct {
	roster *Roster
	pupils []int // indexes into roster.Pupils
	err    error
}

func (q *query) filter(keep func(Pupil) bool) *query {
	if q.err != nil {
		return q
	}
	out := &query{roster: q.roster}
	for _, i := range q.pupils {
		if keep(q.roster.Pupils[i]) {
			out.pupils = append(out.pupils, i)
		}
	}
	return out
}

func (q *query) WithDiet(withoutPork bool) lunch.Query {
	return q.filter(func(p Pupil) bool { return p.WithoutPork == withoutPork })
}

func (q *query) AtSchool(school string) lunch.Query {
	return q.filter(func(p Pupil) bool { return p.School == school })
}

func (q *query) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if q.err != nil {
		return 0, q.err
	}
	return len(q.pupils), nil
}

func (q *query) List(ctx context.Context) ([]lunch.Registration, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if q.err != nil {
		return nil, q.err
	}

	list := make([]lunch.Registration, 0, len(q.pupils))
	for _, i := range q.pupils {
		p := q.roster.Pupils[i]
		list = append(list, lunch.Registration{
			PupilID:     p.ID,
			Name:        p.Name,
			Grade:       p.Grade,
			Teacher:     p.Teacher,
			School:      p.School,
			Division:    p.Division,
			WithoutPork: p.WithoutPork,
		})
	}
	return list, nil
}
