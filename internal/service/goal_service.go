package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"

	apperrors "placetime/backend/internal/errors"
	"placetime/backend/internal/model"
	"placetime/backend/internal/repository"
	"placetime/backend/internal/rollover"
	"placetime/backend/internal/week"
)

// maxTargetHours is the number of hours in a week.
const maxTargetHours = 168

type GoalService struct {
	goals    *repository.GoalRepository
	rollover *rollover.Engine
	cal      week.Calendar
	now      func() time.Time
}

func NewGoalService(goals *repository.GoalRepository, engine *rollover.Engine, cal week.Calendar, now func() time.Time) *GoalService {
	if now == nil {
		now = time.Now
	}
	return &GoalService{
		goals:    goals,
		rollover: engine,
		cal:      cal,
		now:      now,
	}
}

// CheckWeek runs the week transition check for an owner.
func (s *GoalService) CheckWeek(ctx context.Context, ownerID string) (*rollover.Result, *apperrors.APIError) {
	result, err := s.rollover.CheckAndHandleWeekTransition(ctx, ownerID)
	if err != nil {
		return nil, apperrors.FromError(err, "failed to check week transition")
	}
	return &result, nil
}

// List returns the owner's active goals after bringing them into the current week.
func (s *GoalService) List(ctx context.Context, ownerID string) ([]model.Goal, *apperrors.APIError) {
	if _, apiErr := s.CheckWeek(ctx, ownerID); apiErr != nil {
		return nil, apiErr
	}
	goals, err := s.goals.ListActive(ctx, ownerID)
	if err != nil {
		return nil, apperrors.Internal("failed to list goals")
	}
	return goals, nil
}

// Set creates or replaces the current week's goal for a category.
func (s *GoalService) Set(ctx context.Context, ownerID, rawCategory string, targetHours float64) (*model.Goal, *apperrors.APIError) {
	category, err := model.ParseCategory(rawCategory)
	if err != nil {
		return nil, apperrors.BadRequest("invalid_category", err.Error())
	}
	if targetHours <= 0 || targetHours > maxTargetHours || math.IsNaN(targetHours) {
		return nil, apperrors.BadRequest("invalid_target_hours", "targetHours must be greater than 0 and at most 168")
	}
	if _, apiErr := s.CheckWeek(ctx, ownerID); apiErr != nil {
		return nil, apiErr
	}

	now := s.now().UTC()
	goal := model.Goal{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Category:    category,
		TargetHours: targetHours,
		WeekStart:   s.cal.Start(now),
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.goals.Upsert(ctx, &goal); err != nil {
		return nil, apperrors.Internal("failed to save goal")
	}

	goals, err := s.goals.ListActive(ctx, ownerID)
	if err != nil {
		return nil, apperrors.Internal("failed to load goal")
	}
	for i := range goals {
		if goals[i].Category == category && week.Same(goals[i].WeekStart, goal.WeekStart) {
			return &goals[i], nil
		}
	}
	return &goal, nil
}

// Remove deactivates the current week's goal for a category. It is not carried forward.
func (s *GoalService) Remove(ctx context.Context, ownerID, rawCategory string) *apperrors.APIError {
	category, err := model.ParseCategory(rawCategory)
	if err != nil {
		return apperrors.BadRequest("invalid_category", err.Error())
	}
	if _, apiErr := s.CheckWeek(ctx, ownerID); apiErr != nil {
		return apiErr
	}

	now := s.now().UTC()
	err = s.goals.Deactivate(ctx, ownerID, category, s.cal.Start(now), now)
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("goal_not_found", "no active goal for this category")
	}
	if err != nil {
		return apperrors.Internal("failed to remove goal")
	}
	return nil
}
