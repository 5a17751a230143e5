package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "placetime/backend/internal/errors"
	"placetime/backend/internal/model"
	"placetime/backend/internal/repository"
	"placetime/backend/internal/rollover"
	"placetime/backend/internal/streak"
	"placetime/backend/internal/week"
)

// ProgressService computes live weekly progress, records goal completions and serves
// history and streaks. It observes the tracker so completions are recorded as soon as
// a session closes.
type ProgressService struct {
	store    *repository.Store
	rollover *rollover.Engine
	cal      week.Calendar
	streaks  streak.Calculator
	now      func() time.Time
}

type CategoryProgress struct {
	Category         model.Category `json:"category"`
	DisplayName      string         `json:"displayName"`
	HasGoal          bool           `json:"hasGoal"`
	TargetHours      float64        `json:"targetHours"`
	TargetMinutes    int            `json:"targetMinutes"`
	CompletedMinutes int            `json:"completedMinutes"`
	Completed        bool           `json:"completed"`
}

type CurrentProgress struct {
	WeekStart         time.Time          `json:"weekStart"`
	WeekEnd           time.Time          `json:"weekEnd"`
	Categories        []CategoryProgress `json:"categories"`
	AllGoalsCompleted bool               `json:"allGoalsCompleted"`
}

func NewProgressService(store *repository.Store, engine *rollover.Engine, cal week.Calendar, now func() time.Time) *ProgressService {
	if now == nil {
		now = time.Now
	}
	return &ProgressService{
		store:    store,
		rollover: engine,
		cal:      cal,
		streaks:  streak.NewCalculator(cal),
		now:      now,
	}
}

// Current returns live progress for the current week, counting the elapsed time of an
// open session, and records any completion it observes.
func (s *ProgressService) Current(ctx context.Context, ownerID string) (*CurrentProgress, *apperrors.APIError) {
	if _, err := s.rollover.CheckAndHandleWeekTransition(ctx, ownerID); err != nil {
		return nil, apperrors.FromError(err, "failed to check week transition")
	}
	progress, err := s.Recompute(ctx, ownerID, s.cal.Start(s.now()), true)
	if err != nil {
		return nil, apperrors.FromError(err, "failed to compute progress")
	}
	return progress, nil
}

// SessionClosed records completions reached by a just-closed session.
func (s *ProgressService) SessionClosed(ctx context.Context, session model.LocationSession) error {
	_, err := s.Recompute(ctx, session.OwnerID, session.WeekStart, false)
	return err
}

// Recompute sums the week's minutes per goal category and records a completion for every
// goal that reached its target. Recording is insert-or-ignore, so calling it repeatedly
// is safe.
func (s *ProgressService) Recompute(ctx context.Context, ownerID string, weekStart time.Time, live bool) (*CurrentProgress, error) {
	now := s.now()
	goals, err := s.store.Goals.ListActive(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("load goals: %w", err)
	}
	byCategory := make(map[model.Category]model.Goal, len(goals))
	for _, goal := range goals {
		if week.Same(goal.WeekStart, weekStart) {
			byCategory[goal.Category] = goal
		}
	}

	var open *model.LocationSession
	if live {
		open, err = s.store.Sessions.GetOpen(ctx, ownerID)
		if errors.Is(err, repository.ErrNotFound) {
			open = nil
		} else if err != nil {
			return nil, fmt.Errorf("load open session: %w", err)
		}
	}

	progress := &CurrentProgress{
		WeekStart:  weekStart,
		WeekEnd:    s.cal.End(weekStart),
		Categories: make([]CategoryProgress, 0, len(model.Categories)),
	}
	completedGoals := 0
	for _, category := range model.Categories {
		minutes, err := s.store.Sessions.SumMinutes(ctx, ownerID, category, weekStart)
		if err != nil {
			return nil, fmt.Errorf("sum %s minutes: %w", category, err)
		}
		if open != nil && open.Category == category && week.Same(open.WeekStart, weekStart) {
			minutes += model.DurationMinutes(open.StartedAt, now)
		}

		entry := CategoryProgress{
			Category:         category,
			DisplayName:      category.DisplayName(),
			CompletedMinutes: minutes,
		}
		goal, ok := byCategory[category]
		if ok {
			entry.HasGoal = true
			entry.TargetHours = goal.TargetHours
			entry.TargetMinutes = goal.TargetMinutes()
			entry.Completed = model.GoalCompleted(goal.TargetHours, minutes)
		}
		if entry.Completed {
			completedGoals++
			completion := model.GoalCompletion{
				OwnerID:          ownerID,
				Category:         category,
				WeekStart:        weekStart,
				CompletedAt:      now,
				TargetHours:      goal.TargetHours,
				CompletedMinutes: minutes,
			}
			if _, err := s.store.Completions.Record(ctx, &completion); err != nil {
				return nil, fmt.Errorf("record %s completion: %w", category, err)
			}
		}
		progress.Categories = append(progress.Categories, entry)
	}
	progress.AllGoalsCompleted = len(byCategory) == len(model.Categories) && completedGoals == len(model.Categories)
	return progress, nil
}

// Weekly returns the finalized snapshot of one week.
func (s *ProgressService) Weekly(ctx context.Context, ownerID, rawWeek string) (*model.WeeklyProgress, *apperrors.APIError) {
	weekStart, err := s.cal.Parse(rawWeek)
	if err != nil {
		return nil, apperrors.BadRequest("invalid_week", "week must be YYYY-MM-DD or a millisecond timestamp")
	}
	progress, err := s.store.Progress.Get(ctx, ownerID, weekStart)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("progress_not_found", "no completed goals recorded for this week")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to get weekly progress")
	}
	return progress, nil
}

func (s *ProgressService) History(ctx context.Context, ownerID string) ([]model.WeeklyProgress, *apperrors.APIError) {
	history, err := s.store.Progress.History(ctx, ownerID)
	if err != nil {
		return nil, apperrors.Internal("failed to get progress history")
	}
	return history, nil
}

// Completions lists the completion events recorded for one week.
func (s *ProgressService) Completions(ctx context.Context, ownerID, rawWeek string) ([]model.GoalCompletion, *apperrors.APIError) {
	weekStart := s.cal.Start(s.now())
	if rawWeek != "" {
		parsed, err := s.cal.Parse(rawWeek)
		if err != nil {
			return nil, apperrors.BadRequest("invalid_week", "week must be YYYY-MM-DD or a millisecond timestamp")
		}
		weekStart = parsed
	}
	completions, err := s.store.Completions.ListByWeek(ctx, ownerID, weekStart)
	if err != nil {
		return nil, apperrors.Internal("failed to list completions")
	}
	return completions, nil
}

// Streaks returns one streak per category followed by the all-goals streak.
func (s *ProgressService) Streaks(ctx context.Context, ownerID string) ([]model.StreakInfo, *apperrors.APIError) {
	if _, err := s.rollover.CheckAndHandleWeekTransition(ctx, ownerID); err != nil {
		return nil, apperrors.FromError(err, "failed to check week transition")
	}
	history, apiErr := s.History(ctx, ownerID)
	if apiErr != nil {
		return nil, apiErr
	}
	return s.streaks.All(history, s.cal.Start(s.now())), nil
}

// Reset deletes the owner's weekly history and completion events.
func (s *ProgressService) Reset(ctx context.Context, ownerID string) *apperrors.APIError {
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		if err := tx.Progress.DeleteByOwner(ctx, ownerID); err != nil {
			return err
		}
		return tx.Completions.DeleteByOwner(ctx, ownerID)
	})
	if err != nil {
		return apperrors.Internal("failed to reset progress")
	}
	return nil
}
