package model

import "time"

type LocationSession struct {
	ID              string     `json:"id"`
	OwnerID         string     `json:"ownerId"`
	Category        Category   `json:"category"`
	PlaceID         string     `json:"placeId"`
	StartedAt       time.Time  `json:"startedAt"`
	EndedAt         *time.Time `json:"endedAt,omitempty"`
	DurationMinutes int        `json:"durationMinutes"`
	WeekStart       time.Time  `json:"weekStart"`
}

func (s *LocationSession) Open() bool {
	return s.EndedAt == nil
}

// DurationMinutes returns whole elapsed minutes between start and end, never negative.
func DurationMinutes(start, end time.Time) int {
	elapsed := end.UnixMilli() - start.UnixMilli()
	if elapsed <= 0 {
		return 0
	}
	return int(elapsed / 60000)
}
