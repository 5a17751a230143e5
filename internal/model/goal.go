package model

import (
	"math"
	"time"
)

type Goal struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Category    Category  `json:"category"`
	TargetHours float64   `json:"targetHours"`
	WeekStart   time.Time `json:"weekStart"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TargetMinutes is the whole-minute threshold a week must reach to count as completed.
func (g Goal) TargetMinutes() int {
	return TargetMinutes(g.TargetHours)
}

func TargetMinutes(targetHours float64) int {
	return int(math.Floor(targetHours * 60))
}

func GoalCompleted(targetHours float64, minutes int) bool {
	return minutes >= TargetMinutes(targetHours)
}
