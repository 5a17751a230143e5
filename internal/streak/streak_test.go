package streak

import (
	"sync"
	"testing"
	"time"

	"placetime/backend/internal/model"
	"placetime/backend/internal/week"
)

var cal = week.NewCalendar(time.UTC)

// current is the week starting Sunday 2026-10-11.
var current = time.Date(2026, 10, 11, 0, 0, 0, 0, time.UTC)

func weeksAgo(n int) time.Time {
	return current.AddDate(0, 0, -7*n)
}

func gymWeeks(ago ...int) []model.WeeklyProgress {
	out := make([]model.WeeklyProgress, 0, len(ago))
	for _, n := range ago {
		out = append(out, model.WeeklyProgress{WeekStart: weeksAgo(n), GymCompleted: true})
	}
	return out
}

func TestCategoryStreak(t *testing.T) {
	calc := NewCalculator(cal)

	tests := []struct {
		name        string
		history     []model.WeeklyProgress
		now         time.Time
		wantCurrent int
		wantBest    int
		wantTotal   int
	}{
		{"empty history", nil, current, 0, 0, 0},
		{"single current week", gymWeeks(0), current, 1, 1, 1},
		{"three weeks then gap", gymWeeks(0, 1, 2, 4), current, 3, 3, 4},
		{"gap inside", gymWeeks(0, 1, 3, 4), current, 2, 2, 4},
		{"same history seen a week later", gymWeeks(0, 1, 3, 4), current.AddDate(0, 0, 7), 2, 2, 4},
		{"same history seen two weeks later", gymWeeks(0, 1, 3, 4), current.AddDate(0, 0, 14), 0, 2, 4},
		{"last week counts", gymWeeks(1, 2), current, 2, 2, 2},
		{"stale", gymWeeks(2, 3, 4), current, 0, 3, 3},
		{"unsorted input", gymWeeks(2, 0, 1), current, 3, 3, 3},
		{"best older than current", gymWeeks(0, 5, 6, 7, 8), current, 1, 4, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calc.CategoryStreak(tt.history, model.CategoryGym, tt.now)
			if got.CurrentStreak != tt.wantCurrent {
				t.Errorf("current = %d want %d", got.CurrentStreak, tt.wantCurrent)
			}
			if got.BestStreak != tt.wantBest {
				t.Errorf("best = %d want %d", got.BestStreak, tt.wantBest)
			}
			if got.TotalWeeksCompleted != tt.wantTotal {
				t.Errorf("total = %d want %d", got.TotalWeeksCompleted, tt.wantTotal)
			}
			if got.Category == nil || *got.Category != model.CategoryGym {
				t.Errorf("category = %v want gym", got.Category)
			}
		})
	}
}

func TestCategoryStreakIgnoresOtherCategories(t *testing.T) {
	calc := NewCalculator(cal)
	history := []model.WeeklyProgress{
		{WeekStart: weeksAgo(0), BarCompleted: true},
		{WeekStart: weeksAgo(1), BarCompleted: true, LibraryCompleted: true},
	}
	if got := calc.CategoryStreak(history, model.CategoryLibrary, current); got.CurrentStreak != 1 || got.BestStreak != 1 {
		t.Fatalf("library streak = %+v", got)
	}
	if got := calc.CategoryStreak(history, model.CategoryGym, current); got.TotalWeeksCompleted != 0 {
		t.Fatalf("gym streak = %+v", got)
	}
}

func TestAllGoalsStreak(t *testing.T) {
	calc := NewCalculator(cal)
	history := []model.WeeklyProgress{
		{WeekStart: weeksAgo(0), AllGoalsCompleted: true, GymCompleted: true},
		{WeekStart: weeksAgo(1), GymCompleted: true},
		{WeekStart: weeksAgo(2), AllGoalsCompleted: true},
		{WeekStart: weeksAgo(3), AllGoalsCompleted: true},
	}
	got := calc.AllGoalsStreak(history, current)
	if got.Category != nil {
		t.Fatalf("expected nil category for all-goals streak")
	}
	if got.CurrentStreak != 1 || got.BestStreak != 2 || got.TotalWeeksCompleted != 3 {
		t.Fatalf("all goals streak = %+v", got)
	}
}

func TestAll(t *testing.T) {
	calc := NewCalculator(cal)
	got := calc.All(gymWeeks(0, 1), current)
	if len(got) != 4 {
		t.Fatalf("expected 4 streaks, got %d", len(got))
	}
	if *got[2].Category != model.CategoryGym || got[2].CurrentStreak != 2 {
		t.Fatalf("gym streak = %+v", got[2])
	}
	if got[3].Category != nil {
		t.Fatalf("last streak should be all goals")
	}
}

func TestStreakAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skipf("timezone unavailable: %v", err)
	}
	berlin := week.NewCalendar(loc)
	calc := NewCalculator(berlin)

	// Clocks change on Sunday 2026-10-25 in Berlin.
	now := berlin.Start(time.Date(2026, 11, 4, 12, 0, 0, 0, loc))
	history := []model.WeeklyProgress{
		{WeekStart: now, BarCompleted: true},
		{WeekStart: berlin.Previous(now), BarCompleted: true},
		{WeekStart: berlin.Previous(berlin.Previous(now)), BarCompleted: true},
	}
	got := calc.CategoryStreak(history, model.CategoryBar, now)
	if got.CurrentStreak != 3 || got.BestStreak != 3 {
		t.Fatalf("streak across DST = %+v", got)
	}
}

func TestWeeksBetween(t *testing.T) {
	if got := WeeksBetween(weeksAgo(3), current); got != 3 {
		t.Fatalf("WeeksBetween = %d", got)
	}
	if got := WeeksBetween(current, weeksAgo(3)); got != 0 {
		t.Fatalf("WeeksBetween reversed = %d", got)
	}
}

func TestCalculatorConcurrentUse(t *testing.T) {
	calc := NewCalculator(cal)
	history := gymWeeks(0, 1, 2)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := calc.CategoryStreak(history, model.CategoryGym, current); got.CurrentStreak != 3 {
				t.Errorf("current = %d", got.CurrentStreak)
			}
		}()
	}
	wg.Wait()
}
