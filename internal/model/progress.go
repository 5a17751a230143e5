package model

import "time"

// WeeklyProgress is the immutable snapshot written when a week is finalized.
type WeeklyProgress struct {
	OwnerID           string    `json:"ownerId"`
	WeekStart         time.Time `json:"weekStart"`
	WeekEnd           time.Time `json:"weekEnd"`
	LibraryCompleted  bool      `json:"libraryCompleted"`
	BarCompleted      bool      `json:"barCompleted"`
	GymCompleted      bool      `json:"gymCompleted"`
	AllGoalsCompleted bool      `json:"allGoalsCompleted"`
	CreatedAt         time.Time `json:"createdAt"`
}

func (p WeeklyProgress) Completed(c Category) bool {
	switch c {
	case CategoryLibrary:
		return p.LibraryCompleted
	case CategoryBar:
		return p.BarCompleted
	case CategoryGym:
		return p.GymCompleted
	default:
		return false
	}
}

func (p *WeeklyProgress) SetCompleted(c Category, completed bool) {
	switch c {
	case CategoryLibrary:
		p.LibraryCompleted = completed
	case CategoryBar:
		p.BarCompleted = completed
	case CategoryGym:
		p.GymCompleted = completed
	}
}

func (p WeeklyProgress) AnyCompleted() bool {
	return p.LibraryCompleted || p.BarCompleted || p.GymCompleted
}

type GoalCompletion struct {
	OwnerID          string    `json:"ownerId"`
	Category         Category  `json:"category"`
	WeekStart        time.Time `json:"weekStart"`
	CompletedAt      time.Time `json:"completedAt"`
	TargetHours      float64   `json:"targetHours"`
	CompletedMinutes int       `json:"completedMinutes"`
}

// StreakInfo is derived on read and never persisted. A nil Category is the all-goals streak.
type StreakInfo struct {
	Category            *Category `json:"category"`
	CurrentStreak       int       `json:"currentStreak"`
	BestStreak          int       `json:"bestStreak"`
	TotalWeeksCompleted int       `json:"totalWeeksCompleted"`
}
