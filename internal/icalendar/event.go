package icalendar

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/username/school-scheduler/internal/calendar"
	"github.com/username/school-scheduler/pkg/dateutil"
)

const (
	icsDateLayout     = "20060102"
	icsDateTimeLayout = "20060102T150405"
)

// durationPattern matches RFC 5545 dur-value: P15D, P2W, PT1H30M, P1DT12H
var durationPattern = regexp.MustCompile(`^([+-])?P(?:(\d+)W)?(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// maxDurationPart bounds each number of a duration so the sum cannot overflow time.Duration
const maxDurationPart = 100000

// eventToPeriod converts one VEVENT into a period.
// DTEND is exclusive: an all-day event ending on 20151102 lasts until 2015-11-01.
// Events with neither DTEND nor DURATION last one day.
func eventToPeriod(ev *ical.VEvent) (calendar.Period, error) {
	startProp := ev.GetProperty(ical.ComponentPropertyDtStart)
	if startProp == nil {
		return calendar.Period{}, errors.New("missing DTSTART")
	}
	start, err := parseDateProperty(startProp)
	if err != nil {
		return calendar.Period{}, fmt.Errorf("DTSTART: %w", err)
	}

	last := dateutil.StartOfDay(start)

	if endProp := ev.GetProperty(ical.ComponentPropertyDtEnd); endProp != nil {
		end, err := parseDateProperty(endProp)
		if err != nil {
			return calendar.Period{}, fmt.Errorf("DTEND: %w", err)
		}
		if last, err = lastDayOf(start, end); err != nil {
			return calendar.Period{}, err
		}
	} else if durProp := ev.GetProperty(ical.ComponentPropertyDuration); durProp != nil {
		end, err := addDuration(start, durProp.Value)
		if err != nil {
			return calendar.Period{}, fmt.Errorf("DURATION: %w", err)
		}
		if last, err = lastDayOf(start, end); err != nil {
			return calendar.Period{}, err
		}
	}

	return calendar.NewPeriod(start, last, eventDescription(ev))
}

// lastDayOf turns an exclusive end instant into the inclusive last day
func lastDayOf(start, end time.Time) (time.Time, error) {
	if end.Before(start) {
		return time.Time{}, fmt.Errorf("end %s is before start %s",
			end.Format(time.RFC3339), start.Format(time.RFC3339))
	}

	last := dateutil.StartOfDay(end)
	if end.After(start) && end.Equal(last) {
		last = dateutil.AddDays(last, -1)
	}
	return last, nil
}

// parseDateProperty parses a DATE or DATE-TIME value honoring VALUE and TZID parameters.
// Floating times and dates are read in time.Local.
func parseDateProperty(prop *ical.IANAProperty) (time.Time, error) {
	value := strings.TrimSpace(prop.Value)
	if value == "" {
		return time.Time{}, errors.New("empty value")
	}

	isDate := !strings.Contains(value, "T")
	if vs, ok := prop.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		isDate = true
	}

	if isDate {
		return time.ParseInLocation(icsDateLayout, value, time.Local)
	}

	if strings.HasSuffix(value, "Z") {
		t, err := time.Parse(icsDateTimeLayout+"Z", value)
		if err != nil {
			return time.Time{}, err
		}
		return t.In(time.Local), nil
	}

	loc := time.Local
	if tzs, ok := prop.ICalParameters["TZID"]; ok && len(tzs) > 0 {
		if l, err := time.LoadLocation(strings.Trim(tzs[0], `"`)); err == nil {
			loc = l
		}
	}
	return time.ParseInLocation(icsDateTimeLayout, value, loc)
}

// addDuration applies an RFC 5545 duration. Day and week parts are calendar days.
func addDuration(start time.Time, value string) (time.Time, error) {
	m := durationPattern.FindStringSubmatch(strings.TrimSpace(value))
	if m == nil || value == "P" || strings.HasSuffix(value, "T") {
		return time.Time{}, fmt.Errorf("malformed duration %q", value)
	}
	if m[1] == "-" {
		return time.Time{}, fmt.Errorf("negative duration %q", value)
	}

	var parts [7]int
	for i := 2; i < len(m); i++ {
		if m[i] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i])
		if err != nil || n > maxDurationPart {
			return time.Time{}, fmt.Errorf("duration %q out of range", value)
		}
		parts[i] = n
	}

	end := start.AddDate(0, 0, parts[2]*7+parts[3])
	end = end.Add(time.Duration(parts[4])*time.Hour +
		time.Duration(parts[5])*time.Minute +
		time.Duration(parts[6])*time.Second)
	return end, nil
}

// eventDescription returns SUMMARY, or DESCRIPTION when SUMMARY is blank.
// The parser has already decoded TEXT escapes.
func eventDescription(ev *ical.VEvent) string {
	for _, name := range []ical.ComponentProperty{ical.ComponentPropertySummary, ical.ComponentPropertyDescription} {
		if p := ev.GetProperty(name); p != nil {
			if text := strings.TrimSpace(p.Value); text != "" {
				return text
			}
		}
	}
	return ""
}
