package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	apperrors "placetime/backend/internal/errors"
	"placetime/backend/internal/model"
)

type GoalRepository struct {
	c conn
}

const goalColumns = `id, owner_id, category, target_hours, week_start, active, created_at, updated_at`

func (r *GoalRepository) ListActive(ctx context.Context, ownerID string) ([]model.Goal, error) {
	rows, err := r.c.query(
		ctx,
		`SELECT `+goalColumns+`
		 FROM goals
		 WHERE owner_id = ? AND active = ?
		 ORDER BY week_start DESC, category`,
		ownerID,
		true,
	)
	if err != nil {
		return nil, apperrors.Store("list active goals", err)
	}
	defer rows.Close()

	goals := make([]model.Goal, 0, len(model.Categories))
	for rows.Next() {
		goal, scanErr := scanGoal(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		goals = append(goals, *goal)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Store("iterate goals", err)
	}
	return goals, nil
}

// Upsert creates or replaces the goal for (owner, category, week) and activates it.
func (r *GoalRepository) Upsert(ctx context.Context, goal *model.Goal) error {
	_, err := r.c.exec(
		ctx,
		`INSERT INTO goals (`+goalColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (owner_id, category, week_start) DO UPDATE SET
		   target_hours = excluded.target_hours,
		   active = excluded.active,
		   updated_at = excluded.updated_at`,
		goal.ID,
		goal.OwnerID,
		string(goal.Category),
		goal.TargetHours,
		toMillis(goal.WeekStart),
		true,
		toMillis(goal.CreatedAt),
		toMillis(goal.UpdatedAt),
	)
	if err != nil {
		return apperrors.Store("upsert goal", err)
	}
	return nil
}

// CarryForward inserts goal for its week unless one already exists for the same owner and
// category, in which case that row is only reactivated. Repeating it is harmless.
func (r *GoalRepository) CarryForward(ctx context.Context, goal *model.Goal) error {
	_, err := r.c.exec(
		ctx,
		`INSERT INTO goals (`+goalColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (owner_id, category, week_start) DO UPDATE SET
		   active = excluded.active,
		   updated_at = excluded.updated_at`,
		goal.ID,
		goal.OwnerID,
		string(goal.Category),
		goal.TargetHours,
		toMillis(goal.WeekStart),
		true,
		toMillis(goal.CreatedAt),
		toMillis(goal.UpdatedAt),
	)
	if err != nil {
		return apperrors.Store("carry forward goal", err)
	}
	return nil
}

// DeactivateBefore deactivates every goal of the owner whose week started before weekStart.
func (r *GoalRepository) DeactivateBefore(ctx context.Context, ownerID string, weekStart time.Time, now time.Time) error {
	_, err := r.c.exec(
		ctx,
		`UPDATE goals SET active = ?, updated_at = ?
		 WHERE owner_id = ? AND active = ? AND week_start < ?`,
		false,
		toMillis(now),
		ownerID,
		true,
		toMillis(weekStart),
	)
	if err != nil {
		return apperrors.Store("deactivate goals", err)
	}
	return nil
}

func (r *GoalRepository) Deactivate(ctx context.Context, ownerID string, category model.Category, weekStart time.Time, now time.Time) error {
	result, err := r.c.exec(
		ctx,
		`UPDATE goals SET active = ?, updated_at = ?
		 WHERE owner_id = ? AND category = ? AND week_start = ? AND active = ?`,
		false,
		toMillis(now),
		ownerID,
		string(category),
		toMillis(weekStart),
		true,
	)
	if err != nil {
		return apperrors.Store("deactivate goal", err)
	}
	return requireAffected(result, "deactivate goal")
}

func scanGoal(s scanner) (*model.Goal, error) {
	var goal model.Goal
	var category string
	var weekStart, createdAt, updatedAt int64
	err := s.Scan(
		&goal.ID,
		&goal.OwnerID,
		&category,
		&goal.TargetHours,
		&weekStart,
		&goal.Active,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, apperrors.Store("scan goal", err)
	}
	goal.Category = model.Category(category)
	goal.WeekStart = fromMillis(weekStart)
	goal.CreatedAt = fromMillis(createdAt)
	goal.UpdatedAt = fromMillis(updatedAt)
	return &goal, nil
}
