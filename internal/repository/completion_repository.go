package repository

import (
	"context"
	"time"

	apperrors "placetime/backend/internal/errors"
	"placetime/backend/internal/model"
)

type CompletionRepository struct {
	c conn
}

// Record inserts the completion unless (owner, week, category) already has one. It
// reports whether a row was written.
func (r *CompletionRepository) Record(ctx context.Context, completion *model.GoalCompletion) (bool, error) {
	result, err := r.c.exec(
		ctx,
		`INSERT INTO goal_completions (
			owner_id, category, week_start, completed_at, target_hours, completed_minutes
		) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (owner_id, week_start, category) DO NOTHING`,
		completion.OwnerID,
		string(completion.Category),
		toMillis(completion.WeekStart),
		toMillis(completion.CompletedAt),
		completion.TargetHours,
		completion.CompletedMinutes,
	)
	if err != nil {
		return false, apperrors.Store("record goal completion", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.Store("record goal completion", err)
	}
	return affected > 0, nil
}

func (r *CompletionRepository) ListByWeek(ctx context.Context, ownerID string, weekStart time.Time) ([]model.GoalCompletion, error) {
	rows, err := r.c.query(
		ctx,
		`SELECT owner_id, category, week_start, completed_at, target_hours, completed_minutes
		 FROM goal_completions
		 WHERE owner_id = ? AND week_start = ?
		 ORDER BY completed_at`,
		ownerID,
		toMillis(weekStart),
	)
	if err != nil {
		return nil, apperrors.Store("list goal completions", err)
	}
	defer rows.Close()

	completions := make([]model.GoalCompletion, 0)
	for rows.Next() {
		var completion model.GoalCompletion
		var category string
		var week, completedAt int64
		if err := rows.Scan(
			&completion.OwnerID,
			&category,
			&week,
			&completedAt,
			&completion.TargetHours,
			&completion.CompletedMinutes,
		); err != nil {
			return nil, apperrors.Store("scan goal completion", err)
		}
		completion.Category = model.Category(category)
		completion.WeekStart = fromMillis(week)
		completion.CompletedAt = fromMillis(completedAt)
		completions = append(completions, completion)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Store("iterate goal completions", err)
	}
	return completions, nil
}

func (r *CompletionRepository) DeleteByOwner(ctx context.Context, ownerID string) error {
	if _, err := r.c.exec(ctx, `DELETE FROM goal_completions WHERE owner_id = ?`, ownerID); err != nil {
		return apperrors.Store("delete goal completions", err)
	}
	return nil
}
