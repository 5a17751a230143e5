package week

import (
	"testing"
	"time"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Skipf("timezone %s unavailable: %v", name, err)
	}
	return loc
}

func TestStart(t *testing.T) {
	cal := NewCalendar(time.UTC)

	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"sunday midnight", time.Date(2026, 10, 11, 0, 0, 0, 0, time.UTC), time.Date(2026, 10, 11, 0, 0, 0, 0, time.UTC)},
		{"mid week", time.Date(2026, 10, 14, 15, 30, 0, 0, time.UTC), time.Date(2026, 10, 11, 0, 0, 0, 0, time.UTC)},
		{"saturday night", time.Date(2026, 10, 17, 23, 59, 59, 999e6, time.UTC), time.Date(2026, 10, 11, 0, 0, 0, 0, time.UTC)},
		{"across month", time.Date(2026, 11, 2, 8, 0, 0, 0, time.UTC), time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cal.Start(tt.in)
			if !got.Equal(tt.want) {
				t.Fatalf("Start(%v) = %v want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestStartIsStableAcrossInstantsOfTheSameWeek(t *testing.T) {
	cal := NewCalendar(mustLoad(t, "America/New_York"))
	first := cal.Start(time.Date(2026, 3, 8, 1, 0, 0, 0, cal.Location()))
	for h := 0; h < 24*7; h += 5 {
		got := cal.Start(first.Add(time.Duration(h) * time.Hour))
		if got.UnixMilli() != first.UnixMilli() {
			t.Fatalf("hour %d: week start %d want %d", h, got.UnixMilli(), first.UnixMilli())
		}
	}
}

func TestPreviousAcrossDST(t *testing.T) {
	cal := NewCalendar(mustLoad(t, "America/New_York"))
	// DST begins on Sunday 2026-03-08, so that week is one hour shorter.
	dstWeek := cal.Start(time.Date(2026, 3, 10, 12, 0, 0, 0, cal.Location()))
	next := cal.Next(dstWeek)

	if got := cal.Previous(next); !Same(got, dstWeek) {
		t.Fatalf("Previous(%v) = %v want %v", next, got, dstWeek)
	}
	if next.Sub(dstWeek) == 7*24*time.Hour {
		t.Fatalf("expected a short week across DST")
	}
	local := next.In(cal.Location())
	if local.Weekday() != time.Sunday || local.Hour() != 0 {
		t.Fatalf("expected Sunday midnight, got %v", local)
	}
}

func TestEnd(t *testing.T) {
	cal := NewCalendar(time.UTC)
	start := time.Date(2026, 10, 11, 0, 0, 0, 0, time.UTC)
	want := time.Date(2026, 10, 17, 23, 59, 59, 999e6, time.UTC)
	if got := cal.End(start); !got.Equal(want) {
		t.Fatalf("End = %v want %v", got, want)
	}
}

func TestBetween(t *testing.T) {
	a := time.Date(2026, 10, 4, 0, 0, 0, 0, time.UTC)
	if got := Between(a, a.AddDate(0, 0, 14)); got != 2 {
		t.Fatalf("Between two weeks = %d", got)
	}
	if got := Between(a, a.AddDate(0, 0, 13)); got != 1 {
		t.Fatalf("Between 13 days = %d", got)
	}
	if got := Between(a, a); got != 0 {
		t.Fatalf("Between equal = %d", got)
	}
	if got := Between(a.AddDate(0, 0, 7), a); got != 0 {
		t.Fatalf("Between reversed = %d", got)
	}
}

func TestParse(t *testing.T) {
	cal := NewCalendar(time.UTC)
	want := time.Date(2026, 10, 11, 0, 0, 0, 0, time.UTC)

	got, err := cal.Parse("2026-10-14")
	if err != nil {
		t.Fatalf("parse date: %v", err)
	}
	if !Same(got, want) {
		t.Fatalf("Parse(date) = %v want %v", got, want)
	}

	got, err = cal.Parse("1760400000000")
	if err != nil {
		t.Fatalf("parse millis: %v", err)
	}
	if !Same(got, cal.Start(time.UnixMilli(1760400000000))) {
		t.Fatalf("Parse(millis) = %v", got)
	}

	if _, err := cal.Parse("next week"); err == nil {
		t.Fatalf("expected error for garbage input")
	}
}
