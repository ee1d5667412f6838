package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/username/school-scheduler/pkg/dateutil"
)

// Weekday represents a day of the week using ISO numbering
type Weekday int

const (
	Monday Weekday = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// AllWeekdays lists the weekdays in ISO order
var AllWeekdays = [...]Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

var weekdayNames = map[Weekday]string{
	Monday:    "Monday",
	Tuesday:   "Tuesday",
	Wednesday: "Wednesday",
	Thursday:  "Thursday",
	Friday:    "Friday",
	Saturday:  "Saturday",
	Sunday:    "Sunday",
}

// weekdayAliases maps lowercase names accepted in config files and CLI flags
var weekdayAliases = map[string]Weekday{
	"monday": Monday, "mon": Monday, "lundi": Monday,
	"tuesday": Tuesday, "tue": Tuesday, "mardi": Tuesday,
	"wednesday": Wednesday, "wed": Wednesday, "mercredi": Wednesday,
	"thursday": Thursday, "thu": Thursday, "jeudi": Thursday,
	"friday": Friday, "fri": Friday, "vendredi": Friday,
	"saturday": Saturday, "sat": Saturday, "samedi": Saturday,
	"sunday": Sunday, "sun": Sunday, "dimanche": Sunday,
}

// Valid reports whether w is one of Monday..Sunday
func (w Weekday) Valid() bool {
	return w >= Monday && w <= Sunday
}

func (w Weekday) String() string {
	if name, ok := weekdayNames[w]; ok {
		return name
	}
	return fmt.Sprintf("Weekday(%d)", int(w))
}

// WeekdayOf returns the ISO weekday of the given date.
// Go numbers Sunday as 0, so it is remapped to 7.
func WeekdayOf(date time.Time) Weekday {
	return Weekday(dateutil.ISOWeekday(date))
}

// ParseWeekday parses an English or French weekday name (case-insensitive)
func ParseWeekday(name string) (Weekday, error) {
	w, ok := weekdayAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("unknown weekday: %q", name)
	}
	return w, nil
}
