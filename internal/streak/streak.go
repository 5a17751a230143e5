// Package streak derives consecutive-week statistics from weekly progress history.
// Every function is pure and safe for concurrent use.
package streak

import (
	"sort"
	"time"

	"placetime/backend/internal/model"
	"placetime/backend/internal/week"
)

type Calculator struct {
	cal week.Calendar
}

func NewCalculator(cal week.Calendar) Calculator {
	return Calculator{cal: cal}
}

// CategoryStreak counts weeks whose flag for category is set.
func (c Calculator) CategoryStreak(history []model.WeeklyProgress, category model.Category, currentWeekStart time.Time) model.StreakInfo {
	weeks := filter(history, func(p model.WeeklyProgress) bool {
		return p.Completed(category)
	})
	cat := category
	return model.StreakInfo{
		Category:            &cat,
		CurrentStreak:       c.current(weeks, currentWeekStart),
		BestStreak:          c.best(weeks),
		TotalWeeksCompleted: len(weeks),
	}
}

// AllGoalsStreak counts weeks where every category had a goal and all were completed.
func (c Calculator) AllGoalsStreak(history []model.WeeklyProgress, currentWeekStart time.Time) model.StreakInfo {
	weeks := filter(history, func(p model.WeeklyProgress) bool {
		return p.AllGoalsCompleted
	})
	return model.StreakInfo{
		CurrentStreak:       c.current(weeks, currentWeekStart),
		BestStreak:          c.best(weeks),
		TotalWeeksCompleted: len(weeks),
	}
}

// All returns one streak per category followed by the all-goals streak.
func (c Calculator) All(history []model.WeeklyProgress, currentWeekStart time.Time) []model.StreakInfo {
	out := make([]model.StreakInfo, 0, len(model.Categories)+1)
	for _, category := range model.Categories {
		out = append(out, c.CategoryStreak(history, category, currentWeekStart))
	}
	return append(out, c.AllGoalsStreak(history, currentWeekStart))
}

func (c Calculator) current(weeks []time.Time, currentWeekStart time.Time) int {
	if len(weeks) == 0 {
		return 0
	}
	current := c.cal.Start(currentWeekStart)
	previous := c.cal.Previous(current)

	var expected time.Time
	switch {
	case week.Same(weeks[0], current):
		expected = current
	case week.Same(weeks[0], previous):
		expected = previous
	default:
		return 0
	}

	count := 0
	for _, ws := range weeks {
		if week.Same(ws, expected) {
			count++
			expected = c.cal.Previous(expected)
			continue
		}
		if ws.UnixMilli() < expected.UnixMilli() {
			break
		}
	}
	return count
}

func (c Calculator) best(weeks []time.Time) int {
	if len(weeks) == 0 {
		return 0
	}
	best, run := 1, 1
	for i := 1; i < len(weeks); i++ {
		switch {
		case week.Same(weeks[i], weeks[i-1]):
			continue
		case week.Same(weeks[i], c.cal.Previous(weeks[i-1])):
			run++
		default:
			run = 1
		}
		if run > best {
			best = run
		}
	}
	return best
}

// WeeksBetween returns whole weeks from a to b, or 0 when b is not after a.
func WeeksBetween(a, b time.Time) int {
	return week.Between(a, b)
}

// filter returns the week starts of matching rows, most recent first.
func filter(history []model.WeeklyProgress, keep func(model.WeeklyProgress) bool) []time.Time {
	weeks := make([]time.Time, 0, len(history))
	for _, p := range history {
		if keep(p) {
			weeks = append(weeks, p.WeekStart)
		}
	}
	sort.Slice(weeks, func(i, j int) bool {
		return weeks[i].UnixMilli() > weeks[j].UnixMilli()
	})
	return weeks
}
