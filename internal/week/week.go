// Package week computes canonical week buckets. A week starts on Sunday at
// 00:00:00.000 in the calendar's location, and buckets are compared by exact
// millisecond epoch.
package week

import "time"

const weekMillis = int64(7 * 24 * time.Hour / time.Millisecond)

type Calendar struct {
	loc *time.Location
}

func NewCalendar(loc *time.Location) Calendar {
	if loc == nil {
		loc = time.Local
	}
	return Calendar{loc: loc}
}

func (c Calendar) Location() *time.Location {
	if c.loc == nil {
		return time.Local
	}
	return c.loc
}

// Start returns the most recent Sunday midnight at or before t.
func (c Calendar) Start(t time.Time) time.Time {
	local := t.In(c.Location())
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, c.Location())
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// Previous returns the start of the week before the one containing weekStart.
func (c Calendar) Previous(weekStart time.Time) time.Time {
	return c.Start(c.Start(weekStart).AddDate(0, 0, -7))
}

func (c Calendar) Next(weekStart time.Time) time.Time {
	return c.Start(c.Start(weekStart).AddDate(0, 0, 7))
}

// End returns the last millisecond of the week.
func (c Calendar) End(weekStart time.Time) time.Time {
	return c.Next(weekStart).Add(-time.Millisecond)
}

// Parse reads a week query parameter as either YYYY-MM-DD or a millisecond epoch and
// normalizes it to its week start.
func (c Calendar) Parse(raw string) (time.Time, error) {
	if ms, ok := parseMillis(raw); ok {
		return c.Start(time.UnixMilli(ms)), nil
	}
	day, err := time.ParseInLocation("2006-01-02", raw, c.Location())
	if err != nil {
		return time.Time{}, err
	}
	return c.Start(day), nil
}

func Same(a, b time.Time) bool {
	return a.UnixMilli() == b.UnixMilli()
}

// Between returns floor((b-a) / one week) in milliseconds, or 0 when b is not after a.
func Between(a, b time.Time) int {
	diff := b.UnixMilli() - a.UnixMilli()
	if diff <= 0 {
		return 0
	}
	return int(diff / weekMillis)
}

func parseMillis(raw string) (int64, bool) {
	if raw == "" {
		return 0, false
	}
	var ms int64
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0, false
		}
		ms = ms*10 + int64(r-'0')
	}
	return ms, true
}
