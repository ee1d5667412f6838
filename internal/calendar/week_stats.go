package calendar

// WeekStats holds one numeric total per weekday, e.g. the number of lunches served.
// It is not safe for concurrent use.
type WeekStats struct {
	totals map[Weekday]int
}

// NewWeekStats creates an empty WeekStats
func NewWeekStats() *WeekStats {
	return &WeekStats{
		totals: make(map[Weekday]int),
	}
}

// SetTotalDay replaces the total stored for the weekday
func (ws *WeekStats) SetTotalDay(day Weekday, total int) {
	if ws.totals == nil {
		ws.totals = make(map[Weekday]int)
	}
	ws.totals[day] = total
}

// GetTotalDay returns the total for the weekday, or 0 if it was never set
func (ws *WeekStats) GetTotalDay(day Weekday) int {
	return ws.totals[day]
}

// IsSet reports whether a total was recorded for the weekday
func (ws *WeekStats) IsSet(day Weekday) bool {
	_, ok := ws.totals[day]
	return ok
}

// Days returns the weekdays with a recorded total, Monday first
func (ws *WeekStats) Days() []Weekday {
	days := make([]Weekday, 0, len(ws.totals))
	for _, day := range AllWeekdays {
		if ws.IsSet(day) {
			days = append(days, day)
		}
	}
	return days
}

// Total returns the sum over all weekdays
func (ws *WeekStats) Total() int {
	sum := 0
	for _, total := range ws.totals {
		sum += total
	}
	return sum
}
